package write

import (
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/validation"
)

// CheckVersionCompatibility runs every forVersion rule spec §4.4 names for
// an update-object transition: objectType unchanged, storage id unchanged
// for DATA/FILE, schema type unchanged, file extension unchanged, table
// schema compatible, incarnation/copy status transitions monotonic.
func CheckVersionCompatibility(ctx *validation.Context, prior, next *objectdef.Definition) {
	ctx.PushVersioned("objectType", string(next.Type), string(prior.Type))
	validation.RequireSameObjectType(ctx, string(next.Type))
	ctx.Pop()
	if string(prior.Type) != string(next.Type) {
		// Every further structural comparison below assumes matching
		// payload shapes; objectType already failed above.
		return
	}

	switch next.Type {
	case objectdef.DATA:
		if prior.Data != nil && next.Data != nil {
			checkSelectorUnchanged(ctx, "schemaId", prior.Data.SchemaId, next.Data.SchemaId)
			checkSelectorUnchanged(ctx, "storageId", prior.Data.StorageId, next.Data.StorageId)
			if prior.Data.TableSchema != nil || next.Data.TableSchema != nil {
				ctx.Push("tableSchema", next.Data.TableSchema)
				CheckSchemaCompatibility(ctx, prior.Data.TableSchema, next.Data.TableSchema)
				ctx.Pop()
			}
		}
	case objectdef.FILE:
		if prior.File != nil && next.File != nil {
			priorStorage, nextStorage := &prior.File.StorageId, &next.File.StorageId
			checkSelectorUnchanged(ctx, "storageId", priorStorage, nextStorage)

			ctx.Push("extension", next.File.Extension)
			if prior.File.Extension != next.File.Extension {
				ctx.Fail("file extension must not change across versions (was %q, now %q)", prior.File.Extension, next.File.Extension)
			}
			ctx.Pop()
		}
	case objectdef.SCHEMA:
		if prior.Schema != nil && next.Schema != nil {
			ctx.Push("schemaType", next.Schema.SchemaType)
			if prior.Schema.SchemaType != next.Schema.SchemaType {
				ctx.Fail("schema type must not change across versions (was %q, now %q)", prior.Schema.SchemaType, next.Schema.SchemaType)
			}
			ctx.Pop()

			ctx.Push("fields", next.Schema.Fields)
			CheckSchemaCompatibility(ctx, prior.Schema, next.Schema)
			ctx.Pop()
		}
	case objectdef.STORAGE:
		if prior.Storage != nil && next.Storage != nil {
			checkCopyStatusMonotonic(ctx, prior.Storage, next.Storage)
		}
	}
}

func checkSelectorUnchanged(ctx *validation.Context, field string, prior, next *catalogapi.TagSelector) {
	if prior == nil || next == nil {
		return
	}
	ctx.Push(field, next)
	if prior.String() != next.String() {
		ctx.Fail("%s must not change across versions (was %s, now %s)", field, prior, next)
	}
	ctx.Pop()
}

type copyKey struct {
	item        string
	incarnation int
	storageKey  string
}

func indexCopies(s *objectdef.StorageDefinition) map[copyKey]objectdef.CopyStatus {
	out := make(map[copyKey]objectdef.CopyStatus)
	for itemKey, item := range s.DataItems {
		for incIdx, inc := range item.Incarnations {
			for _, c := range inc.Copies {
				out[copyKey{itemKey, incIdx, c.StorageKey}] = c.CopyStatus
			}
		}
	}
	return out
}

// checkCopyStatusMonotonic rejects any storage copy that transitions back
// from expunged to available (spec §4.4: "incarnation/copy status
// transitions monotonic (expunged → available is forbidden)").
func checkCopyStatusMonotonic(ctx *validation.Context, prior, next *objectdef.StorageDefinition) {
	priorStatus := indexCopies(prior)
	for itemKey, item := range next.DataItems {
		for incIdx, inc := range item.Incarnations {
			for _, c := range inc.Copies {
				key := copyKey{itemKey, incIdx, c.StorageKey}
				wasStatus, existed := priorStatus[key]
				if !existed {
					continue
				}
				if wasStatus == objectdef.CopyStatusExpunged && c.CopyStatus == objectdef.CopyStatusAvailable {
					ctx.PushMapValue("dataItems", itemKey, c)
					ctx.Fail("copy %q cannot transition from expunged back to available", c.StorageKey)
					ctx.Pop()
				}
			}
		}
	}
}
