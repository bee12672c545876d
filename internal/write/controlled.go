// Package write orchestrates catalog mutations (spec §4.4): batch
// assembly, controlled-attribute stamping, version/consistency
// validation and bundle pre-resolution, over an internal/catalog.Store.
package write

import (
	"context"
	"time"

	"github.com/tracmeta/catalog/internal/typesys"
)

// Controlled attribute names every write path stamps itself; user tag
// updates that target one of these are rejected at validation (spec
// §4.4), never silently overwritten by a request that slipped through.
const (
	AttrCreateTime     = "trac_create_time"
	AttrCreateUserId   = "trac_create_user_id"
	AttrCreateUserName = "trac_create_user_name"
	AttrUpdateTime     = "trac_update_time"
	AttrUpdateUserId   = "trac_update_user_id"
	AttrUpdateUserName = "trac_update_user_name"
)

type callerKey struct{}

// Caller is the identity the out-of-scope auth layer attaches to the
// request context; the write service only stamps it, it never
// authenticates (spec §4.4).
type Caller struct {
	UserId   string
	UserName string
}

func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

// StampCreate applies all six controlled attributes for a brand-new
// object/tag. Applied after user attributes are copied in, per spec
// §4.4's "applied after user tag updates are applied".
func StampCreate(ctx context.Context, attrs map[string]typesys.Value, now time.Time) map[string]typesys.Value {
	caller := CallerFromContext(ctx)
	out := cloneAttrs(attrs)
	out[AttrCreateTime] = typesys.NewDateTime(now)
	out[AttrCreateUserId] = typesys.NewString(caller.UserId)
	out[AttrCreateUserName] = typesys.NewString(caller.UserName)
	out[AttrUpdateTime] = typesys.NewDateTime(now)
	out[AttrUpdateUserId] = typesys.NewString(caller.UserId)
	out[AttrUpdateUserName] = typesys.NewString(caller.UserName)
	return out
}

// StampUpdate refreshes only the trac_update_* trio, shared by
// update-object and update-tag (spec §4.4).
func StampUpdate(ctx context.Context, attrs map[string]typesys.Value, now time.Time) map[string]typesys.Value {
	caller := CallerFromContext(ctx)
	out := cloneAttrs(attrs)
	out[AttrUpdateTime] = typesys.NewDateTime(now)
	out[AttrUpdateUserId] = typesys.NewString(caller.UserId)
	out[AttrUpdateUserName] = typesys.NewString(caller.UserName)
	return out
}

func cloneAttrs(attrs map[string]typesys.Value) map[string]typesys.Value {
	out := make(map[string]typesys.Value, len(attrs)+6)
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
