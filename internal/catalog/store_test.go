package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalog/migrations"
	"github.com/tracmeta/catalog/internal/catalog/sqlite"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/errors"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/typesys"
)

const testTenant = "acme"

// newTestStore stands up a Store over a fresh in-memory sqlite database
// with every migration applied, the same shape of setup the teacher's
// integration tests build for postgres+testcontainers, minus the
// container since sqlite needs none.
func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	dialect, err := sqlite.Open(sqlite.DriverPure, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dialect.DB().Close() })

	require.NoError(t, migrations.Up(dialect.DB(), migrations.SQLite, nil))

	_, err = dialect.DB().Exec("insert into tenant (tenant_code, display_name) values (?, ?)", testTenant, "Acme Corp")
	require.NoError(t, err)

	return catalog.New(dialect, nil)
}

func customDef(schemaType string, payload string) *objectdef.Definition {
	return &objectdef.Definition{
		Type:   objectdef.CUSTOM,
		Custom: &objectdef.CustomDefinition{CustomSchemaType: schemaType, Data: []byte(payload)},
	}
}

func latestSelector(objectId string) catalogapi.TagSelector {
	return catalogapi.TagSelector{
		ObjectType:      catalogapi.CUSTOM,
		ObjectId:        objectId,
		ObjectCriterion: catalogapi.ObjectLatest,
		TagCriterion:    catalogapi.TagLatest,
	}
}

func TestCreateObjectThenResolveLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	created, err := store.CreateObject(ctx, testTenant, "obj-1", catalogapi.CUSTOM, customDef("widget", "v1"), attrs)
	require.NoError(t, err)
	assert.Equal(t, int32(1), created.Header.ObjectVersion)
	assert.Equal(t, int32(1), created.Header.TagVersion)
	assert.True(t, created.Header.IsLatestObject)
	assert.True(t, created.Header.IsLatestTag)

	resolved, err := store.ResolveTag(ctx, testTenant, latestSelector("obj-1"))
	require.NoError(t, err)
	assert.Equal(t, "widget", resolved.Definition.Custom.CustomSchemaType)
	assert.True(t, typesys.Equal(attrs["owner"], resolved.Attributes["owner"]))
}

func TestCreateObjectRejectsDuplicateObjectId(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-dup", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)

	_, err = store.CreateObject(ctx, testTenant, "obj-dup", catalogapi.CUSTOM, customDef("widget", "v2"), nil)
	require.Error(t, err)
	ce, ok := errors.Of(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindDuplicate, ce.Kind)
}

func TestUpdateObjectIncrementsVersionAndClearsPriorLatestFlag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-2", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)

	updated, err := store.UpdateObject(ctx, testTenant, "obj-2", catalogapi.CUSTOM, 1, customDef("widget", "v2"), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), updated.Header.ObjectVersion)
	assert.Equal(t, int32(1), updated.Header.TagVersion)

	priorTag, err := store.ResolveTag(ctx, testTenant, catalogapi.TagSelector{
		ObjectType: catalogapi.CUSTOM, ObjectId: "obj-2",
		ObjectCriterion: catalogapi.ObjectVersion, ObjectVersion: 1,
		TagCriterion: catalogapi.TagLatest,
	})
	require.NoError(t, err)
	assert.False(t, priorTag.Header.IsLatestObject)

	latest, err := store.ResolveTag(ctx, testTenant, latestSelector("obj-2"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), latest.Header.ObjectVersion)
}

func TestUpdateObjectRejectsStalePriorVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-3", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)
	_, err = store.UpdateObject(ctx, testTenant, "obj-3", catalogapi.CUSTOM, 1, customDef("widget", "v2"), nil)
	require.NoError(t, err)

	_, err = store.UpdateObject(ctx, testTenant, "obj-3", catalogapi.CUSTOM, 1, customDef("widget", "v3-stale"), nil)
	require.Error(t, err)
	ce, ok := errors.Of(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindSuperseded, ce.Kind)
}

func TestResolveTagRejectsSelectorWithWrongObjectType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-wrong-type", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)

	_, err = store.ResolveTag(ctx, testTenant, catalogapi.TagSelector{
		ObjectType:      catalogapi.MODEL,
		ObjectId:        "obj-wrong-type",
		ObjectCriterion: catalogapi.ObjectLatest,
		TagCriterion:    catalogapi.TagLatest,
	})
	require.Error(t, err)
	ce, ok := errors.Of(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindWrongType, ce.Kind)
}

func TestUpdateTagIncrementsTagVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-4", catalogapi.CUSTOM, customDef("widget", "v1"),
		map[string]typesys.Value{"owner": typesys.NewString("alice")})
	require.NoError(t, err)

	updated, err := store.UpdateTag(ctx, testTenant, "obj-4", catalogapi.CUSTOM, 1, 1,
		map[string]typesys.Value{"owner": typesys.NewString("bob")})
	require.NoError(t, err)
	assert.Equal(t, int32(1), updated.Header.ObjectVersion)
	assert.Equal(t, int32(2), updated.Header.TagVersion)

	latest, err := store.ResolveTag(ctx, testTenant, latestSelector("obj-4"))
	require.NoError(t, err)
	owner, ok := latest.Attributes["owner"].AsString()
	require.True(t, ok)
	assert.Equal(t, "bob", owner)
}

func TestWriteBatchCommitsPreallocateAndCreateOpsTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := store.Now()

	ops := []catalog.BatchOp{
		{Kind: catalog.BatchPreallocate, ObjectId: "job-result", ObjectType: catalogapi.CUSTOM},
		{Kind: catalog.BatchCreate, ObjectId: "obj-5", ObjectType: catalogapi.CUSTOM, Definition: customDef("widget", "v1")},
		{Kind: catalog.BatchCreate, ObjectId: "obj-6", ObjectType: catalogapi.CUSTOM, Definition: customDef("widget", "v1")},
	}
	results, err := store.WriteBatch(ctx, testTenant, ops, now)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Nil(t, results[0]) // preallocate has no materialized tag
	assert.Equal(t, "obj-5", results[1].Header.ObjectId)
	assert.Equal(t, "obj-6", results[2].Header.ObjectId)

	_, err = store.ResolveTag(ctx, testTenant, latestSelector("obj-5"))
	assert.NoError(t, err)
	_, err = store.ResolveTag(ctx, testTenant, latestSelector("obj-6"))
	assert.NoError(t, err)
}

func TestWriteBatchRollsBackOnMidBatchFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-7", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)

	ops := []catalog.BatchOp{
		{Kind: catalog.BatchCreate, ObjectId: "obj-8", ObjectType: catalogapi.CUSTOM, Definition: customDef("widget", "v1")},
		{Kind: catalog.BatchCreate, ObjectId: "obj-7", ObjectType: catalogapi.CUSTOM, Definition: customDef("widget", "v1")},
	}
	_, err = store.WriteBatch(ctx, testTenant, ops, store.Now())
	require.Error(t, err)
	ce, ok := errors.Of(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindDuplicate, ce.Kind)

	_, err = store.ResolveTag(ctx, testTenant, latestSelector("obj-8"))
	assert.Error(t, err, "obj-8 must not have survived the rolled-back batch")
}

func TestSearchFiltersOnAttributeEquality(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateObject(ctx, testTenant, "obj-9", catalogapi.CUSTOM, customDef("widget", "v1"),
		map[string]typesys.Value{"team": typesys.NewString("platform")})
	require.NoError(t, err)
	_, err = store.CreateObject(ctx, testTenant, "obj-10", catalogapi.CUSTOM, customDef("widget", "v1"),
		map[string]typesys.Value{"team": typesys.NewString("data")})
	require.NoError(t, err)

	results, err := store.Search(ctx, testTenant, catalogapi.SearchParameters{
		ObjectType: catalogapi.CUSTOM,
		Expression: catalogapi.Term("team", catalogapi.OpEQ, "platform"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "obj-9", results[0].Header.ObjectId)
}

func TestSearchOrdersResultsAscendingByObjectIdVersionTagVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Created in reverse-id order and updated so the most recently
	// written tag (obj-b) is not the one that should sort first.
	_, err := store.CreateObject(ctx, testTenant, "obj-b", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)
	_, err = store.CreateObject(ctx, testTenant, "obj-a", catalogapi.CUSTOM, customDef("widget", "v1"), nil)
	require.NoError(t, err)
	_, err = store.UpdateObject(ctx, testTenant, "obj-a", catalogapi.CUSTOM, 1, customDef("widget", "v2"), nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, testTenant, catalogapi.SearchParameters{
		ObjectType:    catalogapi.CUSTOM,
		PriorVersions: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "obj-a", results[0].Header.ObjectId)
	assert.Equal(t, int32(1), results[0].Header.ObjectVersion)
	assert.Equal(t, "obj-a", results[1].Header.ObjectId)
	assert.Equal(t, int32(2), results[1].Header.ObjectVersion)
	assert.Equal(t, "obj-b", results[2].Header.ObjectId)
}
