package typesys

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// decimalPattern matches an optional sign, an integer part and an optional
// fractional part. Exponent notation is not accepted — the catalog's
// DECIMAL kind is a fixed-point arbitrary-precision number, not scientific.
var decimalPattern = regexp.MustCompile(`^(-?)(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ParseDecimal validates s against the catalog's canonical decimal grammar
// and returns the canonical form: no leading '+', no superfluous leading
// zeros, no trailing fractional zeros, and "-0" normalized to "0".
func ParseDecimal(s string) (string, error) {
	m := decimalPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("typesys: %q is not a canonical decimal literal", s)
	}
	sign, intPart, fracPart := m[1], m[2], strings.TrimPrefix(m[3], ".")

	if fracPart != "" {
		fracPart = strings.TrimRight(fracPart, "0")
	}

	allZero := intPart == "0" && fracPart == ""
	if allZero {
		sign = ""
	}

	out := sign + intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	return out, nil
}

// DecimalEqual compares two canonical decimal strings numerically.
func DecimalEqual(a, b string) bool {
	ra, oka := new(big.Rat).SetString(a)
	rb, okb := new(big.Rat).SetString(b)
	if !oka || !okb {
		return a == b
	}
	return ra.Cmp(rb) == 0
}

// DecimalCompare orders two canonical decimal strings numerically.
func DecimalCompare(a, b string) (int, bool) {
	ra, oka := new(big.Rat).SetString(a)
	rb, okb := new(big.Rat).SetString(b)
	if !oka || !okb {
		return 0, false
	}
	return ra.Cmp(rb), true
}
