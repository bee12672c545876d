package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/typesys"
)

func TestEvalExprEmptyMatchesEverything(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	assert.True(t, evalExpr(catalogapi.SearchExpr{}, attrs))
}

func TestEvalExprEqualityOnString(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	assert.True(t, evalExpr(catalogapi.Term("owner", catalogapi.OpEQ, "alice"), attrs))
	assert.False(t, evalExpr(catalogapi.Term("owner", catalogapi.OpEQ, "bob"), attrs))
}

func TestEvalExprMissingAttributeDoesNotMatchEQ(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	assert.False(t, evalExpr(catalogapi.Term("team", catalogapi.OpEQ, "x"), attrs))
}

func TestEvalExprAndOr(t *testing.T) {
	attrs := map[string]typesys.Value{
		"owner": typesys.NewString("alice"),
		"count": typesys.NewInt(5),
	}
	and := catalogapi.And(
		catalogapi.Term("owner", catalogapi.OpEQ, "alice"),
		catalogapi.Term("count", catalogapi.OpGT, 3),
	)
	assert.True(t, evalExpr(and, attrs))

	or := catalogapi.Or(
		catalogapi.Term("owner", catalogapi.OpEQ, "bob"),
		catalogapi.Term("count", catalogapi.OpGE, 5),
	)
	assert.True(t, evalExpr(or, attrs))
}

func TestEvalExprNotOperator(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	not := catalogapi.Not(catalogapi.Term("owner", catalogapi.OpEQ, "bob"))
	assert.True(t, evalExpr(not, attrs))
}

func TestEvalExprDecimalComparisonUsesNumericOrdering(t *testing.T) {
	price, err := typesys.NewDecimal("19.99")
	assert.NoError(t, err)
	attrs := map[string]typesys.Value{"price": price}
	assert.True(t, evalExpr(catalogapi.Term("price", catalogapi.OpGT, "10.00"), attrs))
	assert.False(t, evalExpr(catalogapi.Term("price", catalogapi.OpLT, "10.00"), attrs))
}

func TestEvalExprINOperator(t *testing.T) {
	attrs := map[string]typesys.Value{"status": typesys.NewString("ready")}
	term := catalogapi.TermIn("status", []interface{}{"pending", "ready"})
	assert.True(t, evalExpr(term, attrs))
}

func TestEvalExprNEAgainstMissingAttributeMatches(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	assert.True(t, evalExpr(catalogapi.Term("team", catalogapi.OpNE, "platform"), attrs))
}

func TestEvalExprEQAgainstMissingAttributeNeverMatches(t *testing.T) {
	attrs := map[string]typesys.Value{"owner": typesys.NewString("alice")}
	assert.False(t, evalExpr(catalogapi.Term("team", catalogapi.OpEQ, "platform"), attrs))
}

func TestEvalExprMultiValuedEQMatchesAnyElement(t *testing.T) {
	tags, err := typesys.NewArray([]typesys.Value{typesys.NewString("a"), typesys.NewString("b")})
	assert.NoError(t, err)
	attrs := map[string]typesys.Value{"tags": tags}
	assert.True(t, evalExpr(catalogapi.Term("tags", catalogapi.OpEQ, "b"), attrs))
	assert.False(t, evalExpr(catalogapi.Term("tags", catalogapi.OpEQ, "c"), attrs))
}

func TestEvalExprMultiValuedNEMatchesOnlyWhenNoElementMatches(t *testing.T) {
	tags, err := typesys.NewArray([]typesys.Value{typesys.NewString("a"), typesys.NewString("b")})
	assert.NoError(t, err)
	attrs := map[string]typesys.Value{"tags": tags}
	assert.False(t, evalExpr(catalogapi.Term("tags", catalogapi.OpNE, "b"), attrs))
	assert.True(t, evalExpr(catalogapi.Term("tags", catalogapi.OpNE, "c"), attrs))
}

func TestEvalExprMultiValuedOrderedComparisonNeverMatches(t *testing.T) {
	counts, err := typesys.NewArray([]typesys.Value{typesys.NewInt(1), typesys.NewInt(2)})
	assert.NoError(t, err)
	attrs := map[string]typesys.Value{"counts": counts}
	assert.False(t, evalExpr(catalogapi.Term("counts", catalogapi.OpGT, 0), attrs))
	assert.False(t, evalExpr(catalogapi.Term("counts", catalogapi.OpLT, 100), attrs))
}

func TestEvalExprMultiValuedINMatchesAnyElementAgainstAnyLiteral(t *testing.T) {
	tags, err := typesys.NewArray([]typesys.Value{typesys.NewString("a"), typesys.NewString("b")})
	assert.NoError(t, err)
	attrs := map[string]typesys.Value{"tags": tags}
	term := catalogapi.TermIn("tags", []interface{}{"x", "b"})
	assert.True(t, evalExpr(term, attrs))
}
