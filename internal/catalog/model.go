// Package catalog implements the metadata store (spec §4.3): the
// persisted representation of tenants, objects, tags and their
// attributes, the dialect abstraction over the supported SQL backends,
// and the search engine used by the read service.
package catalog

import (
	"time"

	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/typesys"
)

// ObjectRecord is one row of the object table: an object's identity and
// type, immutable once created.
type ObjectRecord struct {
	Tenant     string
	ObjectId   string
	ObjectType catalogapi.ObjectType
	CreatedAt  time.Time
}

// DefinitionRecord is one row of the object_definition table: one
// version's immutable payload.
type DefinitionRecord struct {
	Tenant        string
	ObjectId      string
	ObjectVersion int32
	Definition    *objectdef.Definition
	CreatedAt     time.Time
}

// TagRecord is one row of the tag table: one tag version over one object
// version, carrying the mutable attribute set and the controlled fields
// the store stamps itself.
type TagRecord struct {
	Tenant        string
	ObjectId      string
	ObjectType    catalogapi.ObjectType
	ObjectVersion int32
	TagVersion    int32
	ObjectTimestamp time.Time
	TagTimestamp    time.Time
	Latest          bool
	Attributes      map[string]AttrValue
}

// AttrValue is one stored tag attribute: its typed value plus whether it
// participates in indexed search (spec §4.3 notes storage/search indexing
// as an implementation concern, not a client-visible one).
type AttrValue struct {
	Value   typesys.Value
	Indexed bool
}

// Header builds the wire TagHeader identifying this tag.
func (t *TagRecord) Header() catalogapi.TagHeader {
	return catalogapi.TagHeader{
		ObjectType:      t.ObjectType,
		ObjectId:        t.ObjectId,
		ObjectVersion:   t.ObjectVersion,
		ObjectTimestamp: t.ObjectTimestamp,
		TagVersion:      t.TagVersion,
		TagTimestamp:    t.TagTimestamp,
		IsLatestObject:  t.Latest,
		IsLatestTag:     t.Latest,
	}
}

// Tag is the fully materialized result of a read: a header, the object
// definition it points at, and the tag's attributes.
type Tag struct {
	Header     catalogapi.TagHeader
	Definition *objectdef.Definition
	Attributes map[string]typesys.Value
}

// PreallocationRecord reserves an object id ahead of its first definition
// (spec §4.3's preallocation flow, used when a job needs to reference a
// result object before that job has run).
type PreallocationRecord struct {
	Tenant     string
	ObjectId   string
	ObjectType catalogapi.ObjectType
	CreatedAt  time.Time
}
