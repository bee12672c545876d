package write

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tracmeta/catalog/internal/typesys"
)

func TestStampCreateSetsAllSixControlledAttributes(t *testing.T) {
	ctx := ContextWithCaller(context.Background(), Caller{UserId: "u1", UserName: "alice"})
	now := time.Now()

	out := StampCreate(ctx, map[string]typesys.Value{"owner": typesys.NewString("team-a")}, now)

	assert.Contains(t, out, "owner")
	userId, _ := out[AttrCreateUserId].AsString()
	assert.Equal(t, "u1", userId)
	userName, _ := out[AttrUpdateUserName].AsString()
	assert.Equal(t, "alice", userName)
	_, ok := out[AttrCreateTime].AsDateTime()
	assert.True(t, ok)
}

func TestStampUpdateOnlyTouchesUpdateTrio(t *testing.T) {
	ctx := ContextWithCaller(context.Background(), Caller{UserId: "u2", UserName: "bob"})
	now := time.Now()

	in := map[string]typesys.Value{AttrCreateUserId: typesys.NewString("original-creator")}
	out := StampUpdate(ctx, in, now)

	userId, _ := out[AttrUpdateUserId].AsString()
	assert.Equal(t, "u2", userId)
	creatorId, _ := out[AttrCreateUserId].AsString()
	assert.Equal(t, "original-creator", creatorId, "StampUpdate must not touch trac_create_* attributes")
}

func TestStampCreateDoesNotMutateInputMap(t *testing.T) {
	in := map[string]typesys.Value{"owner": typesys.NewString("team-a")}
	_ = StampCreate(context.Background(), in, time.Now())
	_, hasCreateTime := in[AttrCreateTime]
	assert.False(t, hasCreateTime, "StampCreate must return a copy, not mutate the caller's map")
}
