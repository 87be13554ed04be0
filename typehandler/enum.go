package typehandler

import (
	"reflect"
	"strconv"
)

// enumHandler is the auto-created handler of spec §4.4 step 2: bound to
// one defined Go type over an integer or string kind. It converts by the
// type's underlying kind only — it has no notion of which values are
// "valid" members, since Go's reflection cannot enumerate a type's
// declared constants.
type enumHandler struct {
	t    reflect.Type
	kind reflect.Kind
}

func newEnumHandler(t reflect.Type) TypeHandler {
	return &enumHandler{t: t, kind: t.Kind()}
}

func (h *enumHandler) TypeName() string { return h.t.String() }

func (h *enumHandler) SetParameter(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch h.kind {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	}
	return nil, errUnsupported("enum", value)
}

func (h *enumHandler) GetResult(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	out := reflect.New(h.t).Elem()
	switch h.kind {
	case reflect.String:
		switch v := raw.(type) {
		case string:
			out.SetString(v)
		case []byte:
			out.SetString(string(v))
		default:
			return nil, errUnsupported("enum", raw)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case int64:
			out.SetInt(v)
		case int:
			out.SetInt(int64(v))
		case []byte:
			n, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return nil, errUnsupported("enum", raw)
			}
			out.SetInt(n)
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, errUnsupported("enum", raw)
			}
			out.SetInt(n)
		default:
			return nil, errUnsupported("enum", raw)
		}
	default:
		return nil, errUnsupported("enum", raw)
	}
	return out.Interface(), nil
}
