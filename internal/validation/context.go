// Package validation implements the declarative traversal validator
// framework (spec §4.2): a stack of locations describing where in a
// message the validator currently stands, common leaf checks, and a
// compile-time ValidationKey registry dispatched by kind/message/method.
//
// The location stack is an arena of records addressed by integer handles
// rather than a tree of pointer-linked objects (spec §9's design note):
// this avoids cycles and keeps the whole traversal state in one slice.
package validation

import (
	"fmt"
	"strings"

	"github.com/tracmeta/catalog/internal/errors"
)

// Handle addresses one location in a Context's arena.
type Handle int32

type location struct {
	parent    Handle
	hasParent bool
	field     string
	target    interface{}
	present   bool
	prior     interface{}
	hasPrior  bool
	done      bool
}

// Class names the three validator classes spec §4.2 describes.
type Class string

const (
	ClassStatic       Class = "static"
	ClassVersion      Class = "version"
	ClassConsistency  Class = "consistency"
)

// Context is a validation traversal in progress: an arena of locations and
// a stack of handles describing the current path from the root.
type Context struct {
	class    Class
	name     string
	arena    []location
	stack    []Handle
	failures []errors.Failure
}

// ForMethod roots a static-validation traversal at an inbound request,
// keyed by its RPC method name (used by the request-validation
// interceptor, §6).
func ForMethod(method string, request interface{}) *Context {
	return newContext(ClassStatic, method, request)
}

// ForMessage roots a traversal at a single message (a nested structure
// validated independent of any particular RPC method).
func ForMessage(messageType string, message interface{}) *Context {
	return newContext(ClassStatic, messageType, message)
}

// ForVersion roots a version-validation traversal comparing a new tag
// against its prior tag.
func ForVersion(messageType string, current, prior interface{}) *Context {
	ctx := newContext(ClassVersion, messageType, current)
	ctx.arena[0].prior = prior
	ctx.arena[0].hasPrior = true
	return ctx
}

// ForConsistency roots a consistency-validation traversal (invariant 8's
// reference-integrity check and similar cross-batch checks), so a failure
// here maps to KindConsistencyValidation rather than KindInputValidation.
func ForConsistency(messageType string, message interface{}) *Context {
	return newContext(ClassConsistency, messageType, message)
}

func newContext(class Class, name string, target interface{}) *Context {
	return &Context{
		class: class,
		name:  name,
		arena: []location{{target: target, present: target != nil}},
		stack: []Handle{0},
	}
}

func (c *Context) top() Handle {
	return c.stack[len(c.stack)-1]
}

func (c *Context) currentPtr() *location {
	return &c.arena[c.top()]
}

// Target returns the dynamic value at the current location.
func (c *Context) Target() interface{} { return c.currentPtr().target }

// Present reports whether the current location's field was actually set
// (relevant for oneof alternatives and optional pointers).
func (c *Context) Present() bool { return c.currentPtr().present }

// Prior returns the corresponding value from the prior tag in a
// version-validation traversal, if one was supplied.
func (c *Context) Prior() (interface{}, bool) {
	loc := c.currentPtr()
	return loc.prior, loc.hasPrior
}

// Done reports whether the current location has already failed (or been
// explicitly skipped); further Apply calls at a done location are no-ops.
func (c *Context) Done() bool { return c.currentPtr().done }

func (c *Context) push(field string, target interface{}, present bool, prior interface{}, hasPrior bool) Handle {
	parent := c.top()
	loc := location{
		parent: parent, hasParent: true,
		field: field, target: target, present: present,
		prior: prior, hasPrior: hasPrior,
	}
	if c.arena[parent].done {
		loc.done = true
	}
	h := Handle(len(c.arena))
	c.arena = append(c.arena, loc)
	c.stack = append(c.stack, h)
	return h
}

// Push descends into a field that is always structurally present (a plain
// struct field, not a oneof alternative or optional pointer).
func (c *Context) Push(field string, target interface{}) Handle {
	return c.push(field, target, true, nil, false)
}

// PushOptional descends into a field whose presence is conditional — a
// oneof alternative or a nullable pointer — with present supplied by the
// caller, who already knows whether the field was set.
func (c *Context) PushOptional(field string, target interface{}, present bool) Handle {
	return c.push(field, target, present, nil, false)
}

// PushOneOf descends into a oneof container location; it carries no target
// of its own; leaf checks run against whichever alternative is pushed next.
func (c *Context) PushOneOf(field string) Handle {
	return c.push(field, nil, false, nil, false)
}

// PushRepeated descends into a repeated field as a whole, for checks like
// listNotEmpty that apply to the collection rather than one element.
func (c *Context) PushRepeated(field string, value interface{}) Handle {
	return c.push(field, value, true, nil, false)
}

// PushRepeatedItem descends into one element of a repeated field.
func (c *Context) PushRepeatedItem(field string, index int, item interface{}) Handle {
	return c.push(fmt.Sprintf("%s[%d]", field, index), item, true, nil, false)
}

// PushMap descends into a map field as a whole.
func (c *Context) PushMap(field string, value interface{}) Handle {
	return c.push(field, value, true, nil, false)
}

// PushMapValue descends into one value of a map field, named by key.
func (c *Context) PushMapValue(field, key string, item interface{}) Handle {
	return c.push(fmt.Sprintf("%s[%q]", field, key), item, true, nil, false)
}

// PushVersioned descends into a field of both the current and prior
// message, for use inside a ForVersion traversal.
func (c *Context) PushVersioned(field string, target, prior interface{}) Handle {
	return c.push(field, target, true, prior, true)
}

// Pop returns to the parent of the current location.
func (c *Context) Pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

// Fail records a failure against the current location's path and marks it
// done, short-circuiting any further checks at this location or its
// descendants.
func (c *Context) Fail(format string, args ...interface{}) {
	loc := c.currentPtr()
	if loc.done {
		return
	}
	loc.done = true
	c.failures = append(c.failures, errors.Failure{Path: c.Path(), Message: fmt.Sprintf(format, args...)})
}

// Skip marks the current location (and everything pushed under it from
// here on) as already handled, without recording a failure. Used to stop
// descending into a oneof alternative that legitimately wasn't set.
func (c *Context) Skip() {
	c.currentPtr().done = true
}

// Path renders the dotted field path from the traversal root to the
// current location.
func (c *Context) Path() string {
	var parts []string
	h := c.top()
	for {
		loc := c.arena[h]
		if loc.field != "" {
			parts = append([]string{loc.field}, parts...)
		}
		if !loc.hasParent {
			break
		}
		h = loc.parent
	}
	return strings.Join(parts, ".")
}

// Apply runs an untyped check at the current location unless it is
// already done.
func Apply(ctx *Context, check func(ctx *Context)) {
	if ctx.Done() {
		return
	}
	check(ctx)
}

// ApplyTyped asserts the current location's target to T and runs check
// against it, unless the location is already done. A type mismatch is a
// programmer error — a validator registered against the wrong target type
// — and must abort validation rather than be silently skipped.
func ApplyTyped[T any](ctx *Context, check func(ctx *Context, value T)) {
	if ctx.Done() {
		return
	}
	v, ok := ctx.Target().(T)
	if !ok {
		panic(fmt.Sprintf("validation: apply called at %q with target type %T, expected %T", ctx.Path(), ctx.Target(), *new(T)))
	}
	check(ctx, v)
}

// Result is the outcome of a validation traversal.
type Result struct {
	Class    Class
	Name     string
	Failures []errors.Failure
}

func (r *Result) OK() bool { return len(r.Failures) == 0 }

// Result materializes the traversal's accumulated failures.
func (c *Context) Result() *Result {
	return &Result{Class: c.class, Name: c.name, Failures: c.failures}
}

// ToError converts a failed Result into the appropriate CatalogError kind.
func (r *Result) ToError() *errors.CatalogError {
	if r.OK() {
		return nil
	}
	var kind errors.Kind
	switch r.Class {
	case ClassVersion:
		kind = errors.KindVersionValidation
	case ClassConsistency:
		kind = errors.KindConsistencyValidation
	default:
		kind = errors.KindInputValidation
	}
	return errors.New(kind, fmt.Sprintf("%s failed validation", r.Name)).WithFailures(r.Failures)
}
