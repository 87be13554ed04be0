// Package typehandler implements the type-handler contract of spec §4.4:
// conversion of scalar and rich application values to/from driver-level
// representations. It is deliberately standalone (only ogamerrs and the
// standard library) so the executor, hydrator, and cache packages can all
// depend on it without a cycle back to the root ogam package.
package typehandler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/forbearing/ogam/ogamerrs"
)

// TypeHandler converts one application type to and from driver-level
// values. SetParameter prepares a value for binding into a driver args
// slice; GetResult converts a value scanned out of a row back to the
// application type.
type TypeHandler interface {
	SetParameter(value any) (any, error)
	GetResult(raw any) (any, error)
	TypeName() string
}

// Registry resolves a declared type name (or a runtime value) to a
// TypeHandler, following the lookup order of spec §4.4.
type Registry struct {
	mu          sync.RWMutex
	byName      map[string]TypeHandler
	enumCache   map[reflect.Type]TypeHandler
	unknown     TypeHandler
	ancestorsOf func(typeName string) []string
}

// NewRegistry builds a registry pre-populated with the default handlers
// spec §4.4 requires: integer, float, boolean, string, temporal (mutable
// and immutable), JSON, enum. The unknown-type fallback is String.
func NewRegistry() *Registry {
	r := &Registry{
		byName:    make(map[string]TypeHandler),
		enumCache: make(map[reflect.Type]TypeHandler),
	}
	r.Register("integer", IntegerHandler{})
	r.Register("int", IntegerHandler{})
	r.Register("float", FloatHandler{})
	r.Register("double", FloatHandler{})
	r.Register("boolean", BooleanHandler{})
	r.Register("bool", BooleanHandler{})
	r.Register("string", StringHandler{})
	r.Register("temporal", ImmutableTemporalHandler{})
	r.Register("temporal.immutable", ImmutableTemporalHandler{})
	r.Register("temporal.mutable", MutableTemporalHandler{})
	r.Register("json", JSONHandler{})
	r.Register("uuid", UUIDHandler{})
	r.unknown = StringHandler{}
	return r
}

// Register installs h under name (case-insensitively). A later call with
// the same name replaces the earlier handler.
func (r *Registry) Register(name string, h TypeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(name)] = h
}

// SetUnknownHandler overrides the fallback used when no registered
// handler matches (default: string).
func (r *Registry) SetUnknownHandler(h TypeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknown = h
}

// Lookup resolves typeName to the handler registered under that exact
// key (case-insensitively), or else to the unknown handler. It creates
// no enum handler (only LookupType/LookupValue do, from a reflect.Type)
// and does not match handlers registered for ancestor types.
func (r *Registry) Lookup(typeName string) TypeHandler {
	r.mu.RLock()
	if h, ok := r.byName[strings.ToLower(typeName)]; ok {
		r.mu.RUnlock()
		return h
	}
	unknown := r.unknown
	r.mu.RUnlock()
	return unknown
}

// LookupType resolves a handler for a reflect.Type, auto-creating an
// enum handler when t is a defined type over an integer or string kind
// with no exact registration (spec §4.4 step 2).
func (r *Registry) LookupType(t reflect.Type) TypeHandler {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	if h, ok := r.byName[strings.ToLower(t.Name())]; ok {
		r.mu.RUnlock()
		return h
	}
	if h, ok := r.enumCache[t]; ok {
		r.mu.RUnlock()
		return h
	}
	r.mu.RUnlock()
	if isUUID(t) {
		return UUIDHandler{}
	}
	if isEnumKind(t) {
		h := newEnumHandler(t)
		r.mu.Lock()
		r.enumCache[t] = h
		r.mu.Unlock()
		return h
	}
	r.mu.RLock()
	unknown := r.unknown
	r.mu.RUnlock()
	return unknown
}

// LookupValue resolves a handler for a runtime value: a time.Time gets
// the immutable temporal handler and a *time.Time the mutable one, a
// uuid.UUID gets UUIDHandler, enum values resolve through LookupType,
// everything else falls back to the unknown handler.
func (r *Registry) LookupValue(v any) TypeHandler {
	if v == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.unknown
	}
	rv := reflect.ValueOf(v)
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if isTemporal(t) {
		if rv.Kind() == reflect.Pointer {
			return MutableTemporalHandler{}
		}
		return ImmutableTemporalHandler{}
	}
	if isUUID(t) {
		return UUIDHandler{}
	}
	if isEnumKind(t) {
		return r.LookupType(t)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unknown
}

func isEnumKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.String:
		return t.PkgPath() != "" && t.Name() != "string" && t.Name() != "int"
	default:
		return false
	}
}

func isTemporal(t reflect.Type) bool {
	return t.PkgPath() == "time" && t.Name() == "Time"
}

// errUnsupported builds the Type-kind error a handler returns when it
// cannot convert a value.
func errUnsupported(handler string, v any) error {
	return ogamerrs.Newf(ogamerrs.Type, "%s type handler: unsupported value %v (%T)", handler, v, v)
}
