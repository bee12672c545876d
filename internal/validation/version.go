package validation

import "time"

// RequireMonotonicInt and the checks below are the handful of
// version-validation rules spec §5 names: each compares a new value
// against its prior counterpart at the current location (current is
// already pushed; prior comes from ctx.Prior()). RequireMonotonicInt
// fails unless current is exactly prior+1.
func RequireMonotonicInt(ctx *Context, current int32) {
	prior, ok := ctx.Prior()
	if !ok {
		return
	}
	priorInt, ok := prior.(int32)
	if !ok {
		panic("validation: RequireMonotonicInt called with non-int32 prior value")
	}
	if current != priorInt+1 {
		ctx.Fail("must increase by exactly 1 (prior %d, got %d)", priorInt, current)
	}
}

// RequireMonotonicTimestamp enforces the catalog's timestamp-ordering
// invariant: a new tag/object timestamp must never be before the one it
// supersedes.
func RequireMonotonicTimestamp(ctx *Context, current time.Time) {
	prior, ok := ctx.Prior()
	if !ok {
		return
	}
	priorTime, ok := prior.(time.Time)
	if !ok {
		panic("validation: RequireMonotonicTimestamp called with non-time.Time prior value")
	}
	if current.Before(priorTime) {
		ctx.Fail("timestamp %s precedes prior timestamp %s", current, priorTime)
	}
}

// RequireSameObjectType enforces invariant 7 (type stability): an
// object's type never changes across versions.
func RequireSameObjectType(ctx *Context, current string) {
	prior, ok := ctx.Prior()
	if !ok {
		return
	}
	priorType, ok := prior.(string)
	if !ok {
		panic("validation: RequireSameObjectType called with non-string prior value")
	}
	if current != priorType {
		ctx.Fail("object type changed from %q to %q across versions", priorType, current)
	}
}
