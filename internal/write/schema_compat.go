package write

import (
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/validation"
)

// CheckSchemaCompatibility enforces spec §4.4's table-schema rule as part
// of version validation: fields may be appended; existing fields may not
// change name case, order, type, categorical flag or business-key flag;
// business-key fields cannot be introduced as additions; no field may be
// removed. The removed-field failure cites the field name verbatim,
// matching the wording spec §8's end-to-end scenario expects.
func CheckSchemaCompatibility(ctx *validation.Context, prior, next *objectdef.SchemaDefinition) {
	if prior == nil || next == nil {
		return
	}

	for i, priorField := range prior.Fields {
		ctx.PushRepeatedItem("fields", i, priorField)
		if i >= len(next.Fields) || next.Fields[i].FieldName != priorField.FieldName {
			ctx.Fail("Field [%s] from the prior schema version has been removed", priorField.FieldName)
			ctx.Pop()
			continue
		}
		nextField := next.Fields[i]
		switch {
		case nextField.FieldType != priorField.FieldType:
			ctx.Fail("field %q changed type from %q to %q", priorField.FieldName, priorField.FieldType, nextField.FieldType)
		case nextField.Categorical != priorField.Categorical:
			ctx.Fail("field %q changed categorical flag", priorField.FieldName)
		case nextField.BusinessKey != priorField.BusinessKey:
			ctx.Fail("field %q changed business-key flag", priorField.FieldName)
		}
		ctx.Pop()
	}

	for i := len(prior.Fields); i < len(next.Fields); i++ {
		added := next.Fields[i]
		ctx.PushRepeatedItem("fields", i, added)
		if added.BusinessKey {
			ctx.Fail("field %q cannot be added as a business-key field", added.FieldName)
		}
		ctx.Pop()
	}
}
