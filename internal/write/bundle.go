package write

import (
	"context"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/validation"
)

// Bundle resolves TagSelectors embedded in a batch's definitions against
// both the tags the batch itself is about to produce and, failing that,
// the store — spec §4.4's bundle pre-resolution: "a preallocated schema
// referenced by a data object" must resolve even though neither object has
// committed yet.
type Bundle struct {
	store    *catalog.Store
	tenant   string
	produced map[string]catalogapi.TagHeader
}

func NewBundle(store *catalog.Store, tenant string) *Bundle {
	return &Bundle{store: store, tenant: tenant, produced: make(map[string]catalogapi.TagHeader)}
}

// Record registers the header one batch slot is about to produce for
// objectId, making it visible to later slots' selector resolution before
// the batch has been committed.
func (b *Bundle) Record(objectId string, header catalogapi.TagHeader) {
	b.produced[objectId] = header
}

// Resolve normalizes sel to a fixed object version (invariant 6), first
// against what this batch itself produces, falling back to the store.
func (b *Bundle) Resolve(ctx context.Context, sel catalogapi.TagSelector) (catalogapi.TagSelector, error) {
	if header, ok := b.produced[sel.ObjectId]; ok {
		return sel.WithFixedVersion(header.ObjectVersion), nil
	}
	tag, err := b.store.ResolveTag(ctx, b.tenant, sel)
	if err != nil {
		return catalogapi.TagSelector{}, err
	}
	return sel.WithFixedVersion(tag.Header.ObjectVersion), nil
}

// ResolveEmbedded normalizes every selector embedded in def, as extracted
// by objectdef.ExtractSelectors, to a fixed object version, in place.
func (b *Bundle) ResolveEmbedded(ctx context.Context, def *objectdef.Definition) error {
	for _, ref := range objectdef.ExtractSelectors(def) {
		resolved, err := b.Resolve(ctx, *ref)
		if err != nil {
			return err
		}
		*ref = resolved
	}
	// ExtractSelectors returns copies of a JOB's map-held input/output
	// selectors, so the resolved forms are written back into the maps here.
	if def.Type == objectdef.JOB && def.Job != nil {
		for _, m := range []map[string]catalogapi.TagSelector{def.Job.Inputs, def.Job.Outputs} {
			for key, sel := range m {
				resolved, err := b.Resolve(ctx, sel)
				if err != nil {
					return err
				}
				m[key] = resolved
			}
		}
	}
	return nil
}

// Resolvable adapts Resolve to validation.RequireResolvable for reference-
// integrity checking (spec invariant 8), binding ctx once so the closure
// matches the store-independent shape internal/validation expects.
func (b *Bundle) Resolvable(ctx context.Context) validation.RequireResolvable {
	return func(sel catalogapi.TagSelector) bool {
		_, err := b.Resolve(ctx, sel)
		return err == nil
	}
}
