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

// Search evaluates params against the catalog and returns the matching
// tags in deterministic order, ascending by (objectId, objectVersion,
// tagVersion) per spec §4.3. The SQL layer narrows by object type and the
// as-of/prior-version/prior-tag scope (spec §4.4); the attribute
// expression itself is evaluated in Go over the decoded, typed attribute
// values, since SearchExpr's comparisons need typesys semantics (ordered
// comparisons never matching across types or on multi-valued attributes)
// that don't map cleanly onto one SQL dialect's JSON operators, let alone
// three.
func (s *Store) Search(ctx context.Context, tenant string, params catalogapi.SearchParameters) ([]*Tag, error) {
	rows, err := s.queryCandidates(ctx, tenant, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		var objectId, objType string
		var objectVersion, tagVersion int32
		var objectTimestamp, tagTimestamp time.Time
		var isLatestObject, isLatestTag bool
		var attrJSON, defJSON []byte
		if err := rows.Scan(&objectId, &objType, &objectVersion, &tagVersion,
			&objectTimestamp, &tagTimestamp, &isLatestObject, &isLatestTag, &attrJSON, &defJSON); err != nil {
			return nil, errors.Wrap(errors.KindInternal, "scan search candidate", err)
		}

		attrs, err := decodeAttributes(attrJSON)
		if err != nil {
			return nil, errors.Wrap(errors.KindInternal, "decode candidate attributes", err)
		}

		if !evalExpr(params.Expression, attrs) {
			continue
		}

		definition := decodeDefinitionOrNil(defJSON)

		out = append(out, &Tag{
			Header: catalogapi.TagHeader{
				ObjectType: catalogapi.ObjectType(objType), ObjectId: objectId,
				ObjectVersion: objectVersion, ObjectTimestamp: objectTimestamp, IsLatestObject: isLatestObject,
				TagVersion: tagVersion, TagTimestamp: tagTimestamp, IsLatestTag: isLatestTag,
			},
			Definition: definition,
			Attributes: attrs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "iterate search candidates", err)
	}
	return out, nil
}

func (s *Store) queryCandidates(ctx context.Context, tenant string, params catalogapi.SearchParameters) (Rows, error) {
	query := `select t.object_id, t.object_type, t.object_version, t.tag_version,
		t.object_timestamp, t.tag_timestamp, t.is_latest_object, t.is_latest_tag, t.attributes, d.definition
		from tag t join object_definition d
			on d.tenant = t.tenant and d.object_id = t.object_id and d.object_version = t.object_version
		where t.tenant = ` + s.dialect.Placeholder(1) + ` and t.object_type = ` + s.dialect.Placeholder(2)
	args := []interface{}{tenant, string(params.ObjectType)}

	if !params.PriorVersions && params.SearchAsOf == nil {
		query += fmt.Sprintf(" and t.is_latest_object = true")
	}
	if !params.PriorTags && params.SearchAsOf == nil {
		query += fmt.Sprintf(" and t.is_latest_tag = true")
	}
	if params.SearchAsOf != nil {
		args = append(args, *params.SearchAsOf)
		query += fmt.Sprintf(" and t.tag_timestamp <= %s", s.dialect.Placeholder(len(args)))
		if !params.PriorVersions {
			args = append(args, *params.SearchAsOf)
			query += fmt.Sprintf(" and t.object_version = (select max(v.object_version) from tag v where v.tenant = t.tenant and v.object_id = t.object_id and v.tag_timestamp <= %s)", s.dialect.Placeholder(len(args)))
		}
		if !params.PriorTags {
			args = append(args, *params.SearchAsOf)
			query += fmt.Sprintf(" and t.tag_version = (select max(g.tag_version) from tag g where g.tenant = t.tenant and g.object_id = t.object_id and g.object_version = t.object_version and g.tag_timestamp <= %s)", s.dialect.Placeholder(len(args)))
		}
	}
	query += " order by t.object_id asc, t.object_version asc, t.tag_version asc"

	return s.dialect.Query(ctx, query, args...)
}

func decodeDefinitionOrNil(raw []byte) *objectdef.Definition {
	if len(raw) == 0 {
		return nil
	}
	var def objectdef.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil
	}
	return &def
}

// evalExpr evaluates a search expression tree against one tag's decoded
// attributes. A zero-value expression (no Term, no Logical operands) is
// the empty filter and matches everything, for searches that only narrow
// by object type and as-of scope.
func evalExpr(expr catalogapi.SearchExpr, attrs map[string]typesys.Value) bool {
	if expr.Term != nil {
		return evalTerm(expr.Term, attrs)
	}
	switch expr.Logical {
	case catalogapi.LogicalAnd:
		for _, operand := range expr.Operands {
			if !evalExpr(operand, attrs) {
				return false
			}
		}
		return true
	case catalogapi.LogicalOr:
		for _, operand := range expr.Operands {
			if evalExpr(operand, attrs) {
				return true
			}
		}
		return false
	case catalogapi.LogicalNot:
		return len(expr.Operands) == 1 && !evalExpr(expr.Operands[0], attrs)
	default:
		return true
	}
}

// evalTerm applies one search term to one tag's decoded attributes, per
// spec §4.3's operator semantics: a missing attribute counts as a match
// for NE and a non-match for every other operator; a multi-valued
// (ARRAY) attribute matches EQ/IN if any element matches and NE only if
// no element matches, while ordered comparisons never match a
// multi-valued attribute at all.
func evalTerm(term *catalogapi.SearchTerm, attrs map[string]typesys.Value) bool {
	actual, ok := attrs[term.Attr]
	if !ok {
		return term.Operator == catalogapi.OpNE
	}
	if items, isArray := actual.AsArray(); isArray {
		return evalMultiValued(term, items)
	}
	return evalScalarTerm(term, actual)
}

func evalMultiValued(term *catalogapi.SearchTerm, items []typesys.Value) bool {
	switch term.Operator {
	case catalogapi.OpGT, catalogapi.OpGE, catalogapi.OpLT, catalogapi.OpLE:
		return false
	case catalogapi.OpNE:
		for _, item := range items {
			if scalarEquals(item, term.Value) {
				return false
			}
		}
		return true
	case catalogapi.OpIN:
		for _, item := range items {
			for _, v := range term.Values {
				if scalarEquals(item, v) {
					return true
				}
			}
		}
		return false
	default: // OpEQ
		for _, item := range items {
			if scalarEquals(item, term.Value) {
				return true
			}
		}
		return false
	}
}

func scalarEquals(actual typesys.Value, literal interface{}) bool {
	rhs, ok := literalToValue(literal, actual)
	return ok && typesys.Equal(actual, rhs)
}

func evalScalarTerm(term *catalogapi.SearchTerm, actual typesys.Value) bool {
	switch term.Operator {
	case catalogapi.OpEQ:
		return scalarEquals(actual, term.Value)
	case catalogapi.OpNE:
		rhs, ok := literalToValue(term.Value, actual)
		return ok && !typesys.Equal(actual, rhs)
	case catalogapi.OpGT, catalogapi.OpGE, catalogapi.OpLT, catalogapi.OpLE:
		rhs, ok := literalToValue(term.Value, actual)
		if !ok {
			return false
		}
		cmp, ok := typesys.Compare(actual, rhs)
		if !ok {
			return false
		}
		switch term.Operator {
		case catalogapi.OpGT:
			return cmp > 0
		case catalogapi.OpGE:
			return cmp >= 0
		case catalogapi.OpLT:
			return cmp < 0
		case catalogapi.OpLE:
			return cmp <= 0
		}
	case catalogapi.OpIN:
		for _, v := range term.Values {
			if scalarEquals(actual, v) {
				return true
			}
		}
		return false
	}
	return false
}

// literalToValue interprets a raw wire literal (a plain Go string, number
// or bool, as decoded from JSON) as a typesys.Value of the same basic
// type as reference, so it can be compared against a stored attribute.
// Search terms are untyped at the wire boundary; the stored attribute's
// own type supplies the type needed to parse the literal correctly (a
// DECIMAL attribute compares against a decimal-formatted string literal,
// a DATE attribute against an ISO date string, and so on).
func literalToValue(literal interface{}, reference typesys.Value) (typesys.Value, bool) {
	switch reference.Type {
	case typesys.BOOLEAN:
		b, ok := literal.(bool)
		if !ok {
			return typesys.Value{}, false
		}
		return typesys.NewBool(b), true
	case typesys.INTEGER:
		switch n := literal.(type) {
		case int:
			return typesys.NewInt(int64(n)), true
		case int64:
			return typesys.NewInt(n), true
		case float64:
			return typesys.NewInt(int64(n)), true
		default:
			return typesys.Value{}, false
		}
	case typesys.FLOAT:
		switch n := literal.(type) {
		case float64:
			return typesys.NewFloat(n), true
		case int:
			return typesys.NewFloat(float64(n)), true
		default:
			return typesys.Value{}, false
		}
	case typesys.STRING:
		str, ok := literal.(string)
		if !ok {
			return typesys.Value{}, false
		}
		return typesys.NewString(str), true
	case typesys.DECIMAL:
		str, ok := literal.(string)
		if !ok {
			return typesys.Value{}, false
		}
		v, err := typesys.NewDecimal(str)
		return v, err == nil
	case typesys.DATE:
		str, ok := literal.(string)
		if !ok {
			return typesys.Value{}, false
		}
		t, err := typesys.ParseISODate(str)
		if err != nil {
			return typesys.Value{}, false
		}
		return typesys.NewDate(t), true
	case typesys.DATETIME:
		str, ok := literal.(string)
		if !ok {
			return typesys.Value{}, false
		}
		t, err := typesys.ParseISODateTime(str)
		if err != nil {
			return typesys.Value{}, false
		}
		return typesys.NewDateTime(t), true
	default:
		return typesys.Value{}, false
	}
}
