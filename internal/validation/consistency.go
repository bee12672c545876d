package validation

import "github.com/tracmeta/catalog/internal/catalogapi"

// RequireFixedSelector enforces invariant 6: every TagSelector embedded
// in a definition being committed must already name an exact object
// version (no latestObject/objectAsOf indirection left unresolved).
func RequireFixedSelector(ctx *Context, sel catalogapi.TagSelector) {
	if !sel.Fixed() {
		ctx.Fail("embedded selector %s must resolve to a fixed object version before commit", sel)
	}
}

// RequireResolvable is supplied by the caller as a closure bound to the
// store lookup it needs (internal/validation has no store dependency, to
// keep it below internal/catalog in the import graph); it reports whether
// a referenced object id is known to the catalog at all, for invariant 8
// (reference integrity) checks run as part of consistency validation.
type RequireResolvable func(sel catalogapi.TagSelector) bool

// CheckReferenceIntegrity runs resolvable against every selector in refs
// and fails the current location for each one it reports as unknown.
func CheckReferenceIntegrity(ctx *Context, refs []*catalogapi.TagSelector, resolvable RequireResolvable) {
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		ctx.PushRepeatedItem("refs", i, *ref)
		if !resolvable(*ref) {
			ctx.Fail("referenced object %s does not exist", ref)
		}
		ctx.Pop()
	}
}
