package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tracmeta/catalog/internal/catalogapi"
)

func TestValidateTagSelectorAcceptsWellFormed(t *testing.T) {
	sel := catalogapi.TagSelector{
		ObjectType: catalogapi.DATA, ObjectId: uuid.New().String(),
		ObjectCriterion: catalogapi.ObjectVersion, ObjectVersion: 1,
		TagCriterion: catalogapi.TagLatest,
	}
	ctx := ForMessage("TagSelector", sel)
	ApplyRegistered(ctx, ClassStatic, "TagSelector", "")
	assert.True(t, ctx.Result().OK())
}

func TestValidateTagSelectorRejectsBadObjectId(t *testing.T) {
	sel := catalogapi.TagSelector{
		ObjectType: catalogapi.DATA, ObjectId: "not-a-uuid",
		ObjectCriterion: catalogapi.ObjectLatest,
		TagCriterion:    catalogapi.TagLatest,
	}
	ctx := ForMessage("TagSelector", sel)
	ApplyRegistered(ctx, ClassStatic, "TagSelector", "")
	assert.False(t, ctx.Result().OK())
}

func TestValidateAttributeKeysRejectsReservedAndDuplicate(t *testing.T) {
	ctx := ForMessage("attrs", struct{}{})
	ValidateAttributeKeys(ctx, []string{"owner", "trac_controlled"})
	assert.False(t, ctx.Result().OK())

	ctx2 := ForMessage("attrs", struct{}{})
	ValidateAttributeKeys(ctx2, []string{"Owner", "owner"})
	assert.False(t, ctx2.Result().OK())

	ctx3 := ForMessage("attrs", struct{}{})
	ValidateAttributeKeys(ctx3, []string{"owner", "team"})
	assert.True(t, ctx3.Result().OK())
}
