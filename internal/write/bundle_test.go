package write_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/write"
)

func TestBundleResolvesAgainstProducedHeaderBeforeStore(t *testing.T) {
	store := catalog.New(newTestDialect(t), nil)
	bundle := write.NewBundle(store, testTenant)

	objectId := uuid.NewString()
	bundle.Record(objectId, catalogapi.TagHeader{
		ObjectType: catalogapi.STORAGE, ObjectId: objectId,
		ObjectVersion: 3, IsLatestObject: true, TagVersion: 1, IsLatestTag: true,
	})

	sel := catalogapi.TagSelector{
		ObjectType: catalogapi.STORAGE, ObjectId: objectId,
		ObjectCriterion: catalogapi.ObjectLatest,
		TagCriterion:    catalogapi.TagLatest,
	}
	resolved, err := bundle.Resolve(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, resolved.Fixed())
	assert.Equal(t, int32(3), resolved.ObjectVersion)
}

func TestBundleResolvableFalseWhenUnresolvable(t *testing.T) {
	store := catalog.New(newTestDialect(t), nil)
	bundle := write.NewBundle(store, testTenant)

	sel := catalogapi.TagSelector{
		ObjectType: catalogapi.STORAGE, ObjectId: uuid.NewString(),
		ObjectCriterion: catalogapi.ObjectLatest,
		TagCriterion:    catalogapi.TagLatest,
	}
	resolvable := bundle.Resolvable(context.Background())
	assert.False(t, resolvable(sel))
}
