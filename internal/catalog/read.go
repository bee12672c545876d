package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/errors"
	"github.com/tracmeta/catalog/internal/objectdef"
)

// ResolveTag resolves sel to the unique tag it names and materializes its
// header, definition and attributes (spec §4.4's read path: validate,
// resolve, forward, materialize — the store implements resolve+forward).
func (s *Store) ResolveTag(ctx context.Context, tenant string, sel catalogapi.TagSelector) (*Tag, error) {
	objectVersion, err := s.resolveObjectVersion(ctx, tenant, sel)
	if err != nil {
		return nil, err
	}
	tagVersion, err := s.resolveTagVersion(ctx, tenant, sel, objectVersion)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached := s.cache.Get(ctx, tenant, sel.ObjectId, objectVersion, tagVersion); cached != nil {
			if sel.ObjectType != "" && cached.Header.ObjectType != sel.ObjectType {
				return nil, errors.Newf(errors.KindWrongType, "object %s is %s, not %s", sel.ObjectId, cached.Header.ObjectType, sel.ObjectType)
			}
			return cached, nil
		}
	}

	tag, err := s.loadTag(ctx, tenant, sel.ObjectId, sel.ObjectType, objectVersion, tagVersion)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, tenant, tag)
	}
	return tag, nil
}

func (s *Store) resolveObjectVersion(ctx context.Context, tenant string, sel catalogapi.TagSelector) (int32, error) {
	switch sel.ObjectCriterion {
	case catalogapi.ObjectVersion:
		return sel.ObjectVersion, nil
	case catalogapi.ObjectLatest:
		row := s.dialect.QueryRow(ctx,
			fmt.Sprintf("select object_version from tag where tenant = %s and object_id = %s and is_latest_object = true and is_latest_tag = true",
				s.dialect.Placeholder(1), s.dialect.Placeholder(2)),
			tenant, sel.ObjectId,
		)
		var v int32
		if err := row.Scan(&v); err != nil {
			return 0, errors.Newf(errors.KindNotFound, "object %s not found", sel.ObjectId)
		}
		return v, nil
	case catalogapi.ObjectAsOf:
		row := s.dialect.QueryRow(ctx,
			fmt.Sprintf(`select object_version from object_definition
				where tenant = %s and object_id = %s and created_at <= %s
				order by object_version desc limit 1`,
				s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3)),
			tenant, sel.ObjectId, sel.ObjectAsOf,
		)
		var v int32
		if err := row.Scan(&v); err != nil {
			return 0, errors.Newf(errors.KindNotFound, "object %s has no version as of %s", sel.ObjectId, sel.ObjectAsOf)
		}
		return v, nil
	default:
		return 0, errors.Newf(errors.KindInputValidation, "unrecognized object criterion on selector for %s", sel.ObjectId)
	}
}

func (s *Store) resolveTagVersion(ctx context.Context, tenant string, sel catalogapi.TagSelector, objectVersion int32) (int32, error) {
	switch sel.TagCriterion {
	case catalogapi.TagVersionCriterion:
		row := s.dialect.QueryRow(ctx,
			fmt.Sprintf("select tag_version from tag where tenant = %s and object_id = %s and object_version = %s and tag_version = %s",
				s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
			tenant, sel.ObjectId, objectVersion, sel.TagVersion,
		)
		var v int32
		if err := row.Scan(&v); err != nil {
			return 0, errors.Newf(errors.KindNotFound, "tag %s v%d/t%d not found", sel.ObjectId, objectVersion, sel.TagVersion)
		}
		return v, nil
	case catalogapi.TagLatest:
		row := s.dialect.QueryRow(ctx,
			fmt.Sprintf(`select tag_version from tag
				where tenant = %s and object_id = %s and object_version = %s and is_latest_tag = true`,
				s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3)),
			tenant, sel.ObjectId, objectVersion,
		)
		var v int32
		if err := row.Scan(&v); err != nil {
			return 0, errors.Newf(errors.KindNotFound, "object %s v%d has no latest tag", sel.ObjectId, objectVersion)
		}
		return v, nil
	case catalogapi.TagAsOf:
		row := s.dialect.QueryRow(ctx,
			fmt.Sprintf(`select tag_version from tag
				where tenant = %s and object_id = %s and object_version = %s and tag_timestamp <= %s
				order by tag_version desc limit 1`,
				s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
			tenant, sel.ObjectId, objectVersion, sel.TagAsOf,
		)
		var v int32
		if err := row.Scan(&v); err != nil {
			return 0, errors.Newf(errors.KindNotFound, "object %s v%d has no tag as of %s", sel.ObjectId, objectVersion, sel.TagAsOf)
		}
		return v, nil
	default:
		return 0, errors.Newf(errors.KindInputValidation, "unrecognized tag criterion on selector for %s", sel.ObjectId)
	}
}

func (s *Store) loadTag(ctx context.Context, tenant, objectId string, wantType catalogapi.ObjectType, objectVersion, tagVersion int32) (*Tag, error) {
	tagRow := s.dialect.QueryRow(ctx,
		fmt.Sprintf(`select object_type, object_timestamp, tag_timestamp, is_latest_object, is_latest_tag, attributes
			from tag where tenant = %s and object_id = %s and object_version = %s and tag_version = %s`,
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3), s.dialect.Placeholder(4)),
		tenant, objectId, objectVersion, tagVersion,
	)
	var rec TagRecord
	var attrJSON []byte
	var objType string
	var isLatestObject, isLatestTag bool
	if err := tagRow.Scan(&objType, &rec.ObjectTimestamp, &rec.TagTimestamp, &isLatestObject, &isLatestTag, &attrJSON); err != nil {
		return nil, errors.Newf(errors.KindNotFound, "tag %s v%d/t%d not found", objectId, objectVersion, tagVersion)
	}
	if wantType != "" && catalogapi.ObjectType(objType) != wantType {
		return nil, errors.Newf(errors.KindWrongType, "object %s is %s, not %s", objectId, objType, wantType)
	}

	attrs, err := decodeAttributes(attrJSON)
	if err != nil {
		return nil, errors.Wrap(errors.KindInternal, "decode tag attributes", err)
	}

	defRow := s.dialect.QueryRow(ctx,
		fmt.Sprintf("select definition from object_definition where tenant = %s and object_id = %s and object_version = %s",
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3)),
		tenant, objectId, objectVersion,
	)
	var defJSON []byte
	if err := defRow.Scan(&defJSON); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "load object definition", err)
	}
	var def objectdef.Definition
	if err := json.Unmarshal(defJSON, &def); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "decode object definition", err)
	}

	return &Tag{
		Header: catalogapi.TagHeader{
			ObjectType: catalogapi.ObjectType(objType), ObjectId: objectId,
			ObjectVersion: objectVersion, ObjectTimestamp: rec.ObjectTimestamp,
			IsLatestObject: isLatestObject,
			TagVersion:     tagVersion, TagTimestamp: rec.TagTimestamp, IsLatestTag: isLatestTag,
		},
		Definition: &def,
		Attributes: attrs,
	}, nil
}
