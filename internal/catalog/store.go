package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/errors"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/typesys"
)

// Store is the metadata catalog's persistence layer: it owns the
// identifier/version/timestamp invariants (spec §5) and presents them to
// the write and read services as atomic operations over a Dialect.
type Store struct {
	dialect Dialect
	cache   *TagCache
}

// New constructs a Store over an already-connected Dialect. cache may be
// nil, in which case reads always go to the dialect.
func New(dialect Dialect, cache *TagCache) *Store {
	return &Store{dialect: dialect, cache: cache}
}

// CreateObject inserts a brand-new object at version 1, tag version 1,
// stamping the controlled object/tag timestamps and latest flags itself
// (spec §5's invariant that clients never supply these). It runs inside
// one transaction so the object row, its first definition and its first
// tag either all land or none do.
func (s *Store) CreateObject(ctx context.Context, tenant string, objectId string, objectType catalogapi.ObjectType, def *objectdef.Definition, attrs map[string]typesys.Value) (*Tag, error) {
	tx, err := s.dialect.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := s.createObjectTx(ctx, tx, tenant, objectId, objectType, s.dialect.Now(), def, attrs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "commit create", err)
	}
	return tag, nil
}

func (s *Store) createObjectTx(ctx context.Context, tx Tx, tenant, objectId string, objectType catalogapi.ObjectType, now time.Time, def *objectdef.Definition, attrs map[string]typesys.Value) (*Tag, error) {
	defJSON, err := json.Marshal(def)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "encode object definition", err)
	}

	if err := tx.Exec(ctx,
		fmt.Sprintf("insert into object (tenant, object_id, object_type, created_at) values (%s, %s, %s, %s)",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
		tenant, objectId, string(objectType), now,
	); err != nil {
		if s.dialect.IsDuplicateKey(err) {
			return nil, errors.Newf(errors.KindDuplicate, "object %s already exists", objectId)
		}
		return nil, errors.Wrap(errors.KindInternal, "insert object", err)
	}

	if err := tx.Exec(ctx,
		fmt.Sprintf("insert into object_definition (tenant, object_id, object_version, definition, created_at) values (%s, %s, 1, %s, %s)",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
		tenant, objectId, defJSON, now,
	); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "insert object definition", err)
	}

	if err := s.insertTag(ctx, tx, tenant, objectId, objectType, 1, 1, now, now, attrs); err != nil {
		return nil, err
	}

	return &Tag{
		Header: catalogapi.TagHeader{
			ObjectType: objectType, ObjectId: objectId,
			ObjectVersion: 1, ObjectTimestamp: now, IsLatestObject: true,
			TagVersion: 1, TagTimestamp: now, IsLatestTag: true,
		},
		Definition: def,
		Attributes: attrs,
	}, nil
}

// UpdateObject inserts a new object version (e.g. a new batch of data
// landing under the same logical dataset) and its initial tag, clearing
// the latest-object flag on the previous version (spec §5 invariant 4).
func (s *Store) UpdateObject(ctx context.Context, tenant, objectId string, objectType catalogapi.ObjectType, priorVersion int32, def *objectdef.Definition, attrs map[string]typesys.Value) (*Tag, error) {
	tx, err := s.dialect.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := s.updateObjectTx(ctx, tx, tenant, objectId, objectType, priorVersion, s.dialect.Now(), def, attrs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "commit update", err)
	}
	if s.cache != nil {
		s.cache.InvalidateObject(tenant, objectId)
	}
	return tag, nil
}

func (s *Store) updateObjectTx(ctx context.Context, tx Tx, tenant, objectId string, objectType catalogapi.ObjectType, priorVersion int32, now time.Time, def *objectdef.Definition, attrs map[string]typesys.Value) (*Tag, error) {
	newVersion := priorVersion + 1

	defJSON, err := json.Marshal(def)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "encode object definition", err)
	}

	if err := tx.Exec(ctx,
		fmt.Sprintf("insert into object_definition (tenant, object_id, object_version, definition, created_at) values (%s, %s, %s, %s, %s)",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4), s.dialect.Placeholder(5)),
		tenant, objectId, newVersion, defJSON, now,
	); err != nil {
		if s.dialect.IsDuplicateKey(err) {
			return nil, errors.Newf(errors.KindSuperseded, "object %s version %d already exists; priorVersion is stale", objectId, newVersion)
		}
		return nil, errors.Wrap(errors.KindInternal, "insert object definition", err)
	}

	if err := tx.Exec(ctx,
		fmt.Sprintf("update tag set is_latest_object = false where tenant = %s and object_id = %s and object_version = %s",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3)),
		tenant, objectId, priorVersion,
	); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "clear prior latest-object flag", err)
	}

	if err := s.insertTag(ctx, tx, tenant, objectId, objectType, newVersion, 1, now, now, attrs); err != nil {
		return nil, err
	}

	return &Tag{
		Header: catalogapi.TagHeader{
			ObjectType: objectType, ObjectId: objectId,
			ObjectVersion: newVersion, ObjectTimestamp: now, IsLatestObject: true,
			TagVersion: 1, TagTimestamp: now, IsLatestTag: true,
		},
		Definition: def,
		Attributes: attrs,
	}, nil
}

// UpdateTag inserts a new tag version over an existing object version
// (an attribute-only change — the definition is immutable once written),
// clearing the previous tag's latest flag.
func (s *Store) UpdateTag(ctx context.Context, tenant, objectId string, objectType catalogapi.ObjectType, objectVersion, priorTagVersion int32, attrs map[string]typesys.Value) (*Tag, error) {
	tx, err := s.dialect.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := s.updateTagTx(ctx, tx, tenant, objectId, objectType, objectVersion, priorTagVersion, s.dialect.Now(), attrs)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "commit tag update", err)
	}
	if s.cache != nil {
		s.cache.InvalidateObject(tenant, objectId)
	}
	return tag, nil
}

func (s *Store) updateTagTx(ctx context.Context, tx Tx, tenant, objectId string, objectType catalogapi.ObjectType, objectVersion, priorTagVersion int32, now time.Time, attrs map[string]typesys.Value) (*Tag, error) {
	newTagVersion := priorTagVersion + 1

	var latestObject bool
	tagKey := fmt.Sprintf("tenant = %s and object_id = %s and object_version = %s and tag_version = %s",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4))
	if err := tx.QueryRow(ctx, "select is_latest_object from tag where "+tagKey, tenant, objectId, objectVersion, priorTagVersion).Scan(&latestObject); err != nil {
		return nil, errors.Newf(errors.KindNotFound, "tag %s v%d/t%d not found", objectId, objectVersion, priorTagVersion)
	}

	if err := tx.Exec(ctx,
		fmt.Sprintf("update tag set is_latest_tag = false where tenant = %s and object_id = %s and object_version = %s and tag_version = %s",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
		tenant, objectId, objectVersion, priorTagVersion,
	); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "clear prior latest-tag flag", err)
	}

	objectTimestamp, err := s.objectTimestamp(ctx, tx, tenant, objectId, objectVersion)
	if err != nil {
		return nil, err
	}

	if err := s.insertTag(ctx, tx, tenant, objectId, objectType, objectVersion, newTagVersion, objectTimestamp, now, attrs); err != nil {
		return nil, err
	}
	if !latestObject {
		if err := tx.Exec(ctx, "update tag set is_latest_object = false where "+tagKey, tenant, objectId, objectVersion, newTagVersion); err != nil {
			return nil, errors.Wrap(errors.KindInternal, "clear latest-object flag on new tag", err)
		}
	}

	return &Tag{
		Header: catalogapi.TagHeader{
			ObjectType: objectType, ObjectId: objectId,
			ObjectVersion: objectVersion, ObjectTimestamp: objectTimestamp, IsLatestObject: latestObject,
			TagVersion: newTagVersion, TagTimestamp: now, IsLatestTag: true,
		},
		Attributes: attrs,
	}, nil
}

func (s *Store) objectTimestamp(ctx context.Context, tx Tx, tenant, objectId string, objectVersion int32) (time.Time, error) {
	row := tx.QueryRow(ctx,
		fmt.Sprintf("select created_at from object_definition where tenant = %s and object_id = %s and object_version = %s",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3)),
		tenant, objectId, objectVersion,
	)
	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		return time.Time{}, errors.Newf(errors.KindNotFound, "object %s version %d not found", objectId, objectVersion)
	}
	return ts, nil
}

func (s *Store) insertTag(ctx context.Context, tx Tx, tenant, objectId string, objectType catalogapi.ObjectType, objectVersion, tagVersion int32, objectTimestamp, tagTimestamp time.Time, attrs map[string]typesys.Value) error {
	attrJSON, err := encodeAttributes(attrs)
	if err != nil {
		return errors.Wrap(errors.KindInternal, "encode tag attributes", err)
	}
	if err := tx.Exec(ctx,
		fmt.Sprintf(`insert into tag
			(tenant, object_id, object_type, object_version, tag_version,
			 object_timestamp, tag_timestamp, is_latest_object, is_latest_tag, attributes)
			values (%s, %s, %s, %s, %s, %s, %s, true, true, %s)`,
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
			s.dialect.Placeholder(4), s.dialect.Placeholder(5), s.dialect.Placeholder(6),
			s.dialect.Placeholder(7), s.dialect.Placeholder(8)),
		tenant, objectId, string(objectType), objectVersion, tagVersion,
		objectTimestamp, tagTimestamp, attrJSON,
	); err != nil {
		if s.dialect.IsDuplicateKey(err) {
			return errors.Newf(errors.KindSuperseded, "tag %s v%d/t%d already exists", objectId, objectVersion, tagVersion)
		}
		return errors.Wrap(errors.KindInternal, "insert tag", err)
	}
	return nil
}

func encodeAttributes(attrs map[string]typesys.Value) ([]byte, error) {
	wire := make(map[string]json.RawMessage, len(attrs))
	for k, v := range attrs {
		enc, err := typesys.Encode(v)
		if err != nil {
			return nil, err
		}
		wire[k] = enc
	}
	return json.Marshal(wire)
}

func decodeAttributes(data []byte) (map[string]typesys.Value, error) {
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make(map[string]typesys.Value, len(wire))
	for k, raw := range wire {
		v, err := typesys.Decode(raw)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Now returns the backing dialect's current time, truncated to the
// precision its timestamp columns actually store. The write service calls
// this once per batch so the controlled attributes it stamps agree with
// the timestamps WriteBatch persists (spec §4.4: "all batch timestamps
// are equal to the batch start timestamp").
func (s *Store) Now() time.Time {
	return s.dialect.Now()
}

// Preallocate reserves an object id/type pair with no definition yet, for
// a job's declared result object (spec §4.3).
func (s *Store) Preallocate(ctx context.Context, tenant, objectId string, objectType catalogapi.ObjectType) error {
	now := s.dialect.Now()
	if err := s.dialect.Exec(ctx,
		fmt.Sprintf("insert into preallocation (tenant, object_id, object_type, created_at) values (%s, %s, %s, %s)",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
		tenant, objectId, string(objectType), now,
	); err != nil {
		if s.dialect.IsDuplicateKey(err) {
			return errors.Newf(errors.KindDuplicate, "object id %s already reserved", objectId)
		}
		return errors.Wrap(errors.KindInternal, "insert preallocation", err)
	}
	return nil
}

// BatchOp is one slot of a write batch (spec §4.4): exactly one of the
// four kinds is meaningful per op, selected by Kind.
type BatchOpKind string

const (
	BatchPreallocate  BatchOpKind = "PREALLOCATE"
	BatchCreate       BatchOpKind = "CREATE"
	BatchUpdateObject BatchOpKind = "UPDATE_OBJECT"
	BatchUpdateTag    BatchOpKind = "UPDATE_TAG"
)

// BatchOp describes one operation within a WriteBatch call. The write
// service builds these after bundle pre-resolution and controlled-
// attribute stamping; the store only executes what it's given.
type BatchOp struct {
	Kind       BatchOpKind
	ObjectId   string
	ObjectType catalogapi.ObjectType

	// CREATE, UPDATE_OBJECT
	Definition *objectdef.Definition
	Attributes map[string]typesys.Value

	// UPDATE_OBJECT, UPDATE_TAG
	PriorObjectVersion int32
	// UPDATE_TAG
	ObjectVersion  int32
	PriorTagVersion int32
}

// WriteBatch executes every op in order inside a single transaction (spec
// §4.4/§5: "all four are committed in one transaction; any failure aborts
// the whole batch"). All ops share the supplied batch timestamp (spec
// §4.4's "batch timestamps are equal to the batch start timestamp"); pass
// the zero Time to fall back to the dialect's own clock.
func (s *Store) WriteBatch(ctx context.Context, tenant string, ops []BatchOp, now time.Time) ([]*Tag, error) {
	tx, err := s.dialect.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if now.IsZero() {
		now = s.dialect.Now()
	}
	results := make([]*Tag, len(ops))
	touched := make(map[string]bool)

	for i, op := range ops {
		var tag *Tag
		var err error
		switch op.Kind {
		case BatchPreallocate:
			if err = tx.Exec(ctx,
				fmt.Sprintf("insert into preallocation (tenant, object_id, object_type, created_at) values (%s, %s, %s, %s)",
					s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
				tenant, op.ObjectId, string(op.ObjectType), now,
			); err != nil {
				if s.dialect.IsDuplicateKey(err) {
					err = errors.Newf(errors.KindDuplicate, "object id %s already reserved", op.ObjectId)
				} else {
					err = errors.Wrap(errors.KindInternal, "insert preallocation", err)
				}
			}
		case BatchCreate:
			tag, err = s.createObjectTx(ctx, tx, tenant, op.ObjectId, op.ObjectType, now, op.Definition, op.Attributes)
		case BatchUpdateObject:
			tag, err = s.updateObjectTx(ctx, tx, tenant, op.ObjectId, op.ObjectType, op.PriorObjectVersion, now, op.Definition, op.Attributes)
		case BatchUpdateTag:
			tag, err = s.updateTagTx(ctx, tx, tenant, op.ObjectId, op.ObjectType, op.ObjectVersion, op.PriorTagVersion, now, op.Attributes)
		default:
			err = errors.Newf(errors.KindInputValidation, "unrecognized batch op kind %q", op.Kind)
		}
		if err != nil {
			if ce, ok := errors.Of(err); ok {
				return nil, ce
			}
			return nil, errors.Wrap(errors.KindInternal, fmt.Sprintf("batch op %d (%s) failed", i, op.Kind), err)
		}
		results[i] = tag
		touched[op.ObjectId] = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "commit batch", err)
	}
	if s.cache != nil {
		for objectId := range touched {
			s.cache.InvalidateObject(tenant, objectId)
		}
	}
	return results, nil
}
