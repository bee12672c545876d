package validation

import (
	"github.com/tracmeta/catalog/internal/catalogapi"
)

// init registers the object-level static validators for the catalogapi
// identity types every write/read request is built from. They are
// registered in this package because catalogapi has no validator
// knowledge of its own (spec §4.2's compile-time registry lives beside the
// traversal framework, not the types it validates).
func init() {
	Register(ValidationKey{Class: ClassStatic, MessageType: "TagSelector"}, validateTagSelector)
	Register(ValidationKey{Class: ClassStatic, MessageType: "TagHeader"}, validateTagHeader)
}

func validateTagSelector(ctx *Context) {
	ApplyTyped(ctx, func(ctx *Context, sel catalogapi.TagSelector) {
		ctx.Push("objectType", sel.ObjectType)
		ApplyTyped(ctx, func(ctx *Context, t catalogapi.ObjectType) {
			if !t.Valid() {
				ctx.Fail("%q is not a recognized object type", t)
			}
		})
		ctx.Pop()

		ctx.Push("objectId", sel.ObjectId)
		ApplyTyped(ctx, UUID)
		ctx.Pop()

		switch sel.ObjectCriterion {
		case catalogapi.ObjectVersion:
			ctx.Push("objectVersion", int64(sel.ObjectVersion))
			ApplyTyped(ctx, PositiveInt)
			ctx.Pop()
		case catalogapi.ObjectAsOf:
			ctx.Push("objectAsOf", sel.ObjectAsOf)
			Apply(ctx, Required)
			ctx.Pop()
		case catalogapi.ObjectLatest:
			// no further constraint
		default:
			ctx.Fail("selector has no recognized object criterion")
		}

		switch sel.TagCriterion {
		case catalogapi.TagVersionCriterion:
			ctx.Push("tagVersion", int64(sel.TagVersion))
			ApplyTyped(ctx, PositiveInt)
			ctx.Pop()
		case catalogapi.TagAsOf:
			ctx.Push("tagAsOf", sel.TagAsOf)
			Apply(ctx, Required)
			ctx.Pop()
		case catalogapi.TagLatest:
			// no further constraint
		default:
			ctx.Fail("selector has no recognized tag criterion")
		}
	})
}

func validateTagHeader(ctx *Context) {
	ApplyTyped(ctx, func(ctx *Context, h catalogapi.TagHeader) {
		ctx.Push("objectType", h.ObjectType)
		ApplyTyped(ctx, func(ctx *Context, t catalogapi.ObjectType) {
			if !t.Valid() {
				ctx.Fail("%q is not a recognized object type", t)
			}
		})
		ctx.Pop()

		ctx.Push("objectId", h.ObjectId)
		ApplyTyped(ctx, UUID)
		ctx.Pop()

		ctx.Push("objectVersion", int64(h.ObjectVersion))
		ApplyTyped(ctx, PositiveInt)
		ctx.Pop()

		ctx.Push("tagVersion", int64(h.TagVersion))
		ApplyTyped(ctx, PositiveInt)
		ctx.Pop()
	})
}

// ValidateAttributeKeys checks a set of attribute names against the
// identifier grammar and the reserved-name rule in one pass, used by the
// write service's static validation of createObject/updateTag requests.
func ValidateAttributeKeys(ctx *Context, keys []string) {
	ctx.Push("attrs", keys)
	ApplyTyped(ctx, CaseInsensitiveDuplicates)
	ctx.Pop()

	for i, key := range keys {
		ctx.PushRepeatedItem("attrs", i, key)
		ApplyTyped(ctx, Identifier)
		if !ctx.Done() {
			ApplyTyped(ctx, NotTracReserved)
		}
		ctx.Pop()
	}
}
