package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func runLeaf[T any](target T, check func(ctx *Context, value T)) *Context {
	ctx := ForMessage("x", struct{}{})
	ctx.Push("field", target)
	ApplyTyped(ctx, check)
	return ctx
}

func TestRequiredFailsOnAbsentAndEmptyString(t *testing.T) {
	ctx := ForMessage("x", struct{}{})
	ctx.PushOptional("field", nil, false)
	Required(ctx)
	assert.False(t, ctx.Result().OK())

	ctx2 := ForMessage("x", struct{}{})
	ctx2.Push("field", "")
	Required(ctx2)
	assert.False(t, ctx2.Result().OK())

	ctx3 := ForMessage("x", struct{}{})
	ctx3.Push("field", "abc")
	Required(ctx3)
	assert.True(t, ctx3.Result().OK())
}

func TestIfAndOnlyIfMatchesPresenceToCondition(t *testing.T) {
	ctx := ForMessage("x", struct{}{})
	ctx.PushOptional("field", "set", true)
	IfAndOnlyIf(false)(ctx)
	assert.False(t, ctx.Result().OK())
}

func TestIdentifierRejectsLeadingDigit(t *testing.T) {
	ctx := runLeaf("1abc", Identifier)
	assert.False(t, ctx.Result().OK())

	ctx2 := runLeaf("valid_name", Identifier)
	assert.True(t, ctx2.Result().OK())
}

func TestNotTracReservedRejectsReservedPrefixes(t *testing.T) {
	assert.False(t, runLeaf("trac_job_status", NotTracReserved).Result().OK())
	assert.False(t, runLeaf("_internal", NotTracReserved).Result().OK())
	assert.True(t, runLeaf("owner", NotTracReserved).Result().OK())
}

func TestUUIDValidatesFormat(t *testing.T) {
	assert.True(t, runLeaf(uuid.New().String(), UUID).Result().OK())
	assert.False(t, runLeaf("not-a-uuid", UUID).Result().OK())
}

func TestRelativePathRejectsEscapeAndAbsolute(t *testing.T) {
	assert.False(t, runLeaf("/etc/passwd", RelativePath).Result().OK())
	assert.False(t, runLeaf("../escape", RelativePath).Result().OK())
	assert.True(t, runLeaf("a/b/c.csv", RelativePath).Result().OK())
}

func TestCaseInsensitiveDuplicatesDetectsFold(t *testing.T) {
	ctx := runLeaf([]string{"Name", "name"}, CaseInsensitiveDuplicates)
	assert.False(t, ctx.Result().OK())
}

func TestListNotEmptyFailsOnEmpty(t *testing.T) {
	ctx := runLeaf([]string{}, ListNotEmpty[string])
	assert.False(t, ctx.Result().OK())
}

func TestDecimalAndIsoChecksDelegateToTypesys(t *testing.T) {
	assert.True(t, runLeaf("12.50", Decimal).Result().OK())
	assert.False(t, runLeaf("abc", Decimal).Result().OK())
	assert.True(t, runLeaf("2024-01-15", IsoDate).Result().OK())
	assert.False(t, runLeaf("2024-01-15+01:00", IsoDate).Result().OK())
}
