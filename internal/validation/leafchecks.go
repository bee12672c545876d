package validation

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/tracmeta/catalog/internal/typesys"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Required fails unless the current location's field was actually set. For
// string targets, an empty string also fails: a present-but-empty string
// is never a valid required value in the catalog's wire types.
func Required(ctx *Context) {
	if ctx.Done() {
		return
	}
	if !ctx.Present() {
		ctx.Fail("is required")
		return
	}
	if s, ok := ctx.Target().(string); ok && s == "" {
		ctx.Fail("is required")
	}
}

// Omitted fails if the current location's field was set, for fields that
// are only legal on some methods (e.g. objectVersion on a create request).
func Omitted(ctx *Context) {
	if ctx.Done() {
		return
	}
	if ctx.Present() {
		ctx.Fail("must not be set")
	}
}

// Optional is a no-op placeholder documenting that a field's absence is
// acceptable at this call site, pairing visually with Required in
// validator bodies.
func Optional(ctx *Context) {}

// IfAndOnlyIf fails unless the current location's presence matches cond
// exactly, for fields whose presence is conditioned on a sibling field
// (e.g. priorVersion is required exactly when the update flag is set).
func IfAndOnlyIf(cond bool) func(ctx *Context) {
	return func(ctx *Context) {
		if ctx.Done() {
			return
		}
		if ctx.Present() != cond {
			ctx.Fail("presence does not match its governing condition")
		}
	}
}

// Identifier checks that a string is a legal TRAC identifier: starts with
// a letter or underscore, followed by letters, digits or underscores.
func Identifier(ctx *Context, value string) {
	if !identifierPattern.MatchString(value) {
		ctx.Fail("%q is not a valid identifier", value)
	}
}

// NotTracReserved rejects identifiers in the trac_ / leading-underscore
// reserved namespaces (controlled attributes and platform internals).
func NotTracReserved(ctx *Context, value string) {
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "trac_") || strings.HasPrefix(value, "_") {
		ctx.Fail("%q uses a reserved name", value)
	}
}

// UUID checks that a string parses as a UUID (object and tenant ids).
func UUID(ctx *Context, value string) {
	if _, err := uuid.Parse(value); err != nil {
		ctx.Fail("%q is not a valid UUID", value)
	}
}

// IsoDate checks that a string is a canonical YYYY-MM-DD date.
func IsoDate(ctx *Context, value string) {
	if _, err := typesys.ParseISODate(value); err != nil {
		ctx.Fail("%q is not a valid ISO date: %v", value, err)
	}
}

// IsoDatetime checks that a string is a valid ISO-8601 datetime.
func IsoDatetime(ctx *Context, value string) {
	if _, err := typesys.ParseISODateTime(value); err != nil {
		ctx.Fail("%q is not a valid ISO datetime: %v", value, err)
	}
}

// Decimal checks that a string is a canonical decimal literal.
func Decimal(ctx *Context, value string) {
	if _, err := typesys.ParseDecimal(value); err != nil {
		ctx.Fail("%q is not a valid decimal: %v", value, err)
	}
}

// MimeType checks for a plausible "type/subtype" media type; it does not
// validate against the IANA registry, matching the original's lenient
// acceptance of any well-formed two-part mime string.
func MimeType(ctx *Context, value string) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		ctx.Fail("%q is not a valid mime type", value)
	}
}

// FileName rejects path separators and the empty string.
func FileName(ctx *Context, value string) {
	if value == "" || strings.ContainsAny(value, "/\\") {
		ctx.Fail("%q is not a valid file name", value)
	}
}

// RelativePath rejects absolute paths, parent-directory traversal and
// control characters, for storage layout paths supplied by clients.
func RelativePath(ctx *Context, value string) {
	if value == "" || path.IsAbs(value) {
		ctx.Fail("%q must be a relative path", value)
		return
	}
	clean := path.Clean(value)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		ctx.Fail("%q escapes its containing directory", value)
		return
	}
	for _, r := range value {
		if r < 0x20 {
			ctx.Fail("%q contains a control character", value)
			return
		}
	}
}

// PositiveInt fails unless value > 0.
func PositiveInt(ctx *Context, value int64) {
	if value <= 0 {
		ctx.Fail("must be a positive integer, got %d", value)
	}
}

// NotNegativeInt fails unless value >= 0.
func NotNegativeInt(ctx *Context, value int64) {
	if value < 0 {
		ctx.Fail("must not be negative, got %d", value)
	}
}

// CaseInsensitiveDuplicates fails if values contains two entries equal
// under case folding (field-name collisions in a schema, tenant-name
// collisions in configuration, and similar).
func CaseInsensitiveDuplicates(ctx *Context, values []string) {
	seen := make(map[string]string, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if prior, ok := seen[key]; ok {
			ctx.Fail("%q collides with %q (case-insensitive)", v, prior)
			return
		}
		seen[key] = v
	}
}

// ListNotEmpty fails if values has no elements.
func ListNotEmpty[T any](ctx *Context, values []T) {
	if len(values) == 0 {
		ctx.Fail("must not be empty")
	}
}

// MapNotEmpty fails if values has no entries.
func MapNotEmpty[K comparable, V any](ctx *Context, values map[K]V) {
	if len(values) == 0 {
		ctx.Fail("must not be empty")
	}
}
