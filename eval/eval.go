// Package eval implements the sandboxed boolean/value expression grammar of
// spec §4.1: a hand-written recursive-descent parser over a deliberately
// small grammar (||, &&, !, ===/!==/==/!=/<=/>=/</>, literals, dotted
// identifier paths, parens), with no function calls, method calls,
// assignment, indexing, or object construction. <if test="..."> and
// <when test="..."> funnel through Evaluate/EvaluateBoolean; a result
// map's discriminator is matched on the column value itself and does not
// pass through this package.
//
// A ConditionNode/IfNode/WhenNode evaluates a test expression against a
// parameter set before deciding whether to include a fragment; unlike a
// general-purpose expression engine, this package never falls back to
// one capable of calling arbitrary Go code, since the spec requires a
// closed sandbox (see DESIGN.md for why no ecosystem expr/CEL library
// was used here).
package eval

import (
	"reflect"
	"strconv"

	"github.com/forbearing/ogam/ogamerrs"
)

// Bindings resolves a dotted identifier path (e.g. "user.name") to a value.
// Callers typically implement this over a map[string]any parameter set or a
// struct reached through reflection; see ResolvePath.
type Bindings interface {
	// Lookup returns the value bound to name at the top level, and whether
	// it is bound at all (to distinguish "bound to nil" from "unbound").
	Lookup(name string) (any, bool)
}

// MapBindings adapts a map[string]any to Bindings.
type MapBindings map[string]any

func (m MapBindings) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Evaluate parses and evaluates expr against bindings, returning its Go
// value: literals and operators yield bool, int64, float64, string, or
// nil, and a bare identifier path yields its bound value unchanged, of
// whatever type it has. It applies the sandbox
// check of checkSandbox before any parsing occurs, per spec §4.1.
func Evaluate(expr string, bindings Bindings) (any, error) {
	if err := checkSandbox(expr); err != nil {
		return nil, wrapSecurity(err)
	}
	n, err := parse(expr)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Parsing, err, "expression parse failed")
	}
	v, err := n.evaluate(bindings)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Parsing, err, "expression evaluation failed")
	}
	return v, nil
}

// EvaluateBoolean is Evaluate followed by the truthiness coercion of
// spec §4.1: bool passes through, null is false, an empty string is
// false, an empty slice/map/array is false, a zero number is false, and
// everything else is true.
func EvaluateBoolean(expr string, bindings Bindings) (bool, error) {
	v, err := Evaluate(expr, bindings)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() != 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return truthy(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() != 0
	}
	return true
}

// ResolvePath walks a dotted identifier path against bindings. The first
// segment resolves via Bindings.Lookup; each subsequent segment resolves
// against the previous value via resolveField: on a map, the key; on a
// struct, (in order) a zero-argument Get<Field> or Is<Field> getter
// method, then the struct field — mirroring the property-access sugar of spec §4.1's
// OGNL-like path resolution without permitting arbitrary method calls.
func ResolvePath(b Bindings, path []string) (any, error) {
	if len(path) == 0 {
		return nil, ogamerrs.New(ogamerrs.Parsing, "empty identifier path")
	}
	cur, ok := b.Lookup(path[0])
	if !ok {
		return nil, nil
	}
	for _, seg := range path[1:] {
		if cur == nil {
			return nil, nil
		}
		v, err := resolveField(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	return cur, nil
}

func resolveField(v any, field string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(field))
		if !mv.IsValid() {
			return nil, nil
		}
		return mv.Interface(), nil
	case reflect.Struct:
		if rv.CanAddr() {
			if m, ok := tryGetter(rv.Addr(), field); ok {
				return m, nil
			}
		}
		if m, ok := tryGetter(rv, field); ok {
			return m, nil
		}
		fv := rv.FieldByName(field)
		if fv.IsValid() {
			return fv.Interface(), nil
		}
		return nil, nil
	default:
		return nil, ogamerrs.Newf(ogamerrs.Parsing, "cannot resolve property %q on %s", field, rv.Kind())
	}
}

func tryGetter(rv reflect.Value, field string) (any, bool) {
	for _, prefix := range [...]string{"Get", "Is"} {
		name := prefix + field
		m := rv.MethodByName(name)
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
			continue
		}
		out := m.Call(nil)
		return out[0].Interface(), true
	}
	return nil, false
}

// compare implements the comparison operators. === and !== never coerce
// between numeric kinds; ==, !=, <, <=, >, >= coerce int64/float64/numeric
// strings onto a common float64 representation before comparing, per
// spec §4.1's loose-vs-strict equality distinction.
func compare(op tokenKind, l, r any) (bool, error) {
	switch op {
	case tokSeq:
		return strictEqual(l, r), nil
	case tokSneq:
		return !strictEqual(l, r), nil
	case tokEq:
		return looseEqual(l, r), nil
	case tokNeq:
		return !looseEqual(l, r), nil
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch op {
		case tokLt:
			return lf < rf, nil
		case tokLe:
			return lf <= rf, nil
		case tokGt:
			return lf > rf, nil
		case tokGe:
			return lf >= rf, nil
		}
	}
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	if lsok && rsok {
		switch op {
		case tokLt:
			return ls < rs, nil
		case tokLe:
			return ls <= rs, nil
		case tokGt:
			return ls > rs, nil
		case tokGe:
			return ls >= rs, nil
		}
	}
	return false, ogamerrs.Newf(ogamerrs.Type, "cannot order %T and %T", l, r)
}

func strictEqual(l, r any) bool {
	if reflect.TypeOf(l) != reflect.TypeOf(r) {
		return l == nil && r == nil
	}
	return l == r
}

func looseEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		return lf == rf
	}
	ls, lsok := toStringValue(l)
	rs, rsok := toStringValue(r)
	if lsok && rsok {
		return ls == rs
	}
	return l == r
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toStringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	}
	return "", false
}
