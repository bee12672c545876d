package validation

import "fmt"

// ValidationKey identifies a registered validator: the class it belongs
// to, the message type it applies to, and (for static/request validators)
// the RPC method it is specific to. Method is empty for object-level
// validators that apply regardless of which method produced the message.
type ValidationKey struct {
	Class       Class
	MessageType string
	Method      string
}

// RegisteredValidator runs against an already-rooted Context.
type RegisteredValidator func(ctx *Context)

var registry = map[ValidationKey]RegisteredValidator{}

// Register adds fn under key. Registering the same key twice is a
// programmer error and panics immediately (at package init time, since
// every registration call lives in an init or package-level var).
func Register(key ValidationKey, fn RegisteredValidator) {
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("validation: duplicate registration for %+v", key))
	}
	registry[key] = fn
}

// Lookup resolves key, falling back to the method-less, object-level
// registration for the same class/message type when no method-specific
// validator was registered (spec §4.2).
func Lookup(key ValidationKey) (RegisteredValidator, bool) {
	if fn, ok := registry[key]; ok {
		return fn, true
	}
	if key.Method == "" {
		return nil, false
	}
	fallback := ValidationKey{Class: key.Class, MessageType: key.MessageType}
	fn, ok := registry[fallback]
	return fn, ok
}

// ApplyRegistered resolves and runs the validator for class/messageType/
// method against ctx. It panics if neither a method-specific nor an
// object-level validator is registered: every message type the catalog
// accepts must have validation wired up before it reaches this call.
func ApplyRegistered(ctx *Context, class Class, messageType, method string) {
	fn, ok := Lookup(ValidationKey{Class: class, MessageType: messageType, Method: method})
	if !ok {
		panic(fmt.Sprintf("validation: no validator registered for class=%s messageType=%s method=%s", class, messageType, method))
	}
	fn(ctx)
}
