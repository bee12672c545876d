package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathBuildsDottedFieldNames(t *testing.T) {
	ctx := ForMethod("createObject", struct{}{})
	ctx.Push("tenant", "acme")
	ctx.Push("objectType", "DATA")
	assert.Equal(t, "tenant.objectType", ctx.Path())
}

func TestFailShortCircuitsDescendants(t *testing.T) {
	ctx := ForMessage("TagHeader", struct{}{})
	ctx.Push("objectId", "abc")
	ctx.Fail("not a uuid")
	assert.False(t, ctx.Result().OK())

	ctx.Push("suffix", "ignored")
	assert.True(t, ctx.Done())
	ctx.Fail("should not record a second failure")
	assert.Len(t, ctx.Result().Failures, 1)
}

func TestSkipPropagatesToChildren(t *testing.T) {
	ctx := ForMessage("Oneof", struct{}{})
	ctx.PushOneOf("target")
	ctx.Skip()
	ctx.Push("objectId", "abc")
	assert.True(t, ctx.Done())
}

func TestApplyTypedPanicsOnTypeMismatch(t *testing.T) {
	ctx := ForMessage("x", struct{}{})
	ctx.Push("field", 42)
	assert.Panics(t, func() {
		ApplyTyped(ctx, func(ctx *Context, v string) {})
	})
}

func TestApplyTypedRunsCheckOnMatch(t *testing.T) {
	ctx := ForMessage("x", struct{}{})
	ctx.Push("field", "abc")
	ran := false
	ApplyTyped(ctx, func(ctx *Context, v string) {
		ran = true
		assert.Equal(t, "abc", v)
	})
	assert.True(t, ran)
}

func TestApplySkipsWhenDone(t *testing.T) {
	ctx := ForMessage("x", struct{}{})
	ctx.Push("field", "abc")
	ctx.Fail("broken")
	ran := false
	Apply(ctx, func(ctx *Context) { ran = true })
	assert.False(t, ran)
}

func TestResultToErrorMapsClassToKind(t *testing.T) {
	ctx := ForVersion("Tag", "v2", "v1")
	ctx.Push("version", 2)
	ctx.Fail("version must increase")
	err := ctx.Result().ToError()
	assert.NotNil(t, err)
	assert.Equal(t, "VERSION_VALIDATION", string(err.Kind))
}
