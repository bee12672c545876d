package read_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalog/migrations"
	"github.com/tracmeta/catalog/internal/catalog/sqlite"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/read"
	"github.com/tracmeta/catalog/internal/typesys"
)

const testTenant = "acme"

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

type stubConfig struct {
	platform  catalogapi.PlatformInfo
	tenants   []catalogapi.TenantInfo
	resources []catalogapi.ResourceInfo
}

func (c stubConfig) Platform() catalogapi.PlatformInfo    { return c.platform }
func (c stubConfig) Tenants() []catalogapi.TenantInfo     { return c.tenants }
func (c stubConfig) Resources() []catalogapi.ResourceInfo { return c.resources }
func (c stubConfig) Resource(name string) (catalogapi.ResourceInfo, bool) {
	for _, r := range c.resources {
		if r.Name == name {
			return r, true
		}
	}
	return catalogapi.ResourceInfo{}, false
}

func customDef(schemaType, payload string) *objectdef.Definition {
	return &objectdef.Definition{
		Type:   objectdef.CUSTOM,
		Custom: &objectdef.CustomDefinition{CustomSchemaType: schemaType, Data: []byte(payload)},
	}
}

func seedObject(t *testing.T, store *catalog.Store, objectId string, attrs map[string]typesys.Value) {
	t.Helper()
	_, err := store.CreateObject(context.Background(), testTenant, objectId, catalogapi.CUSTOM, customDef("widget", "v1"), attrs)
	require.NoError(t, err)
}

func TestServiceReadObjectResolvesLatest(t *testing.T) {
	store := newTestStore(t)
	objectId := uuid.NewString()
	seedObject(t, store, objectId, map[string]typesys.Value{"owner": typesys.NewString("alice")})

	svc := read.NewService(store, nil, nil, nil, nil)
	tag, err := svc.ReadObject(context.Background(), catalogapi.MetadataReadRequest{
		Tenant: testTenant,
		Selector: catalogapi.TagSelector{
			ObjectType: catalogapi.CUSTOM, ObjectId: objectId,
			ObjectCriterion: catalogapi.ObjectLatest,
			TagCriterion:    catalogapi.TagLatest,
		},
	})
	require.NoError(t, err)
	owner, ok := tag.Attributes["owner"].AsString()
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
}

func TestServiceReadBatchPreservesOrderAndFailsAtomically(t *testing.T) {
	store := newTestStore(t)
	first := uuid.NewString()
	second := uuid.NewString()
	seedObject(t, store, first, nil)
	seedObject(t, store, second, nil)

	svc := read.NewService(store, nil, nil, nil, nil)
	sel := func(id string) catalogapi.TagSelector {
		return catalogapi.TagSelector{
			ObjectType: catalogapi.CUSTOM, ObjectId: id,
			ObjectCriterion: catalogapi.ObjectLatest,
			TagCriterion:    catalogapi.TagLatest,
		}
	}

	tags, err := svc.ReadBatch(context.Background(), catalogapi.MetadataBatchRequest{
		Tenant:    testTenant,
		Selectors: []catalogapi.TagSelector{sel(first), sel(second)},
	})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, first, tags[0].Header.ObjectId)
	assert.Equal(t, second, tags[1].Header.ObjectId)

	_, err = svc.ReadBatch(context.Background(), catalogapi.MetadataBatchRequest{
		Tenant:    testTenant,
		Selectors: []catalogapi.TagSelector{sel(first), sel(uuid.NewString())},
	})
	assert.Error(t, err)
}

func TestServiceSearchFiltersByAttribute(t *testing.T) {
	store := newTestStore(t)
	match := uuid.NewString()
	other := uuid.NewString()
	seedObject(t, store, match, map[string]typesys.Value{"owner": typesys.NewString("bob")})
	seedObject(t, store, other, map[string]typesys.Value{"owner": typesys.NewString("alice")})

	svc := read.NewService(store, nil, nil, nil, nil)
	tags, err := svc.Search(context.Background(), catalogapi.MetadataSearchRequest{
		Tenant: testTenant,
		Parameters: catalogapi.SearchParameters{
			ObjectType: catalogapi.CUSTOM,
			Expression: catalogapi.Term("owner", catalogapi.OpEQ, "bob"),
		},
	})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, match, tags[0].Header.ObjectId)
}

func TestServiceSearchRejectsUnknownObjectType(t *testing.T) {
	store := newTestStore(t)
	svc := read.NewService(store, nil, nil, nil, nil)
	_, err := svc.Search(context.Background(), catalogapi.MetadataSearchRequest{
		Tenant:     testTenant,
		Parameters: catalogapi.SearchParameters{ObjectType: catalogapi.ObjectType("NOT_A_TYPE")},
	})
	assert.Error(t, err)
}

func TestServiceSearchDeniedWhenRateLimitExhausted(t *testing.T) {
	store := newTestStore(t)
	limiter := read.NewTenantLimiter(60, 1)
	svc := read.NewService(store, nil, limiter, nil, nil)

	params := catalogapi.MetadataSearchRequest{
		Tenant:     testTenant,
		Parameters: catalogapi.SearchParameters{ObjectType: catalogapi.CUSTOM},
	}
	_, err := svc.Search(context.Background(), params)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), params)
	assert.Error(t, err)
}

func TestServicePlatformAndResourceInfo(t *testing.T) {
	store := newTestStore(t)
	config := stubConfig{
		platform: catalogapi.PlatformInfo{Environment: "staging", Production: false},
		tenants:  []catalogapi.TenantInfo{{Code: testTenant, Description: "Acme Corp"}},
		resources: []catalogapi.ResourceInfo{{
			Name: "primary-db", Type: "postgres", Protocol: "tcp",
			PublicProperties: map[string]string{"host": "db.internal"},
		}},
	}
	svc := read.NewService(store, config, nil, nil, nil)

	platform, err := svc.PlatformInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "staging", platform.Environment)

	tenants, err := svc.ListTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testTenant, tenants[0].Code)

	resources, err := svc.ListResources(context.Background())
	require.NoError(t, err)
	assert.Len(t, resources, 1)

	info, err := svc.ResourceInfo(context.Background(), "primary-db")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", info.PublicProperties["host"])

	_, err = svc.ResourceInfo(context.Background(), "missing")
	assert.Error(t, err)
}

func TestServiceResourceInfoErrorsWithoutConfigProvider(t *testing.T) {
	store := newTestStore(t)
	svc := read.NewService(store, nil, nil, nil, nil)
	_, err := svc.ResourceInfo(context.Background(), "primary-db")
	assert.Error(t, err)
}
