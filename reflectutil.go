package ogam

import "reflect"

// fieldNotFound distinguishes "resolved to nil" from "no such field" in
// resolveStructField's return value.
var fieldNotFound = &struct{}{}

// resolveStructField looks up name on v as a map key, a Get<name>/Is<name>
// getter, or a directly-accessible field, mirroring spec §4.1's
// identifier-resolution order. Returns fieldNotFound if none apply.
func resolveStructField(v any, name string) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return fieldNotFound, nil
		}
		return mv.Interface(), nil
	case reflect.Struct:
		if rv.CanAddr() {
			if ov, ok := callGetter(rv.Addr(), name); ok {
				return ov, nil
			}
		}
		if ov, ok := callGetter(rv, name); ok {
			return ov, nil
		}
		if fv := rv.FieldByName(name); fv.IsValid() && fv.CanInterface() {
			return fv.Interface(), nil
		}
		return fieldNotFound, nil
	default:
		return fieldNotFound, nil
	}
}

// reflectFlatten normalizes an arbitrary typed slice/array/map (not
// []any/map[string]any, which flattenCollection handles directly) into
// parallel (value, index-or-key) slices for ForEachNode.
func reflectFlatten(v any) (items []any, indexes []any, ok bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		items = make([]any, n)
		indexes = make([]any, n)
		for i := 0; i < n; i++ {
			items[i] = rv.Index(i).Interface()
			indexes[i] = i
		}
		return items, indexes, true
	case reflect.Map:
		keys := rv.MapKeys()
		items = make([]any, 0, len(keys))
		indexes = make([]any, 0, len(keys))
		for _, k := range keys {
			items = append(items, rv.MapIndex(k).Interface())
			indexes = append(indexes, k.Interface())
		}
		return items, indexes, true
	}
	return nil, nil, false
}

func callGetter(rv reflect.Value, name string) (any, bool) {
	for _, prefix := range [...]string{"Get", "Is"} {
		m := rv.MethodByName(prefix + name)
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
			continue
		}
		return m.Call(nil)[0].Interface(), true
	}
	return nil, false
}
