package cache

import (
	"reflect"
	"strings"
)

// reservedChars are characters various backend stores (memcache, redis
// key patterns, bigcache shard delimiters) treat specially; Adapter
// replaces them so a raw CacheKey never breaks a backend's key grammar.
const reservedChars = " \t\n\r:{}[]*?"

// Adapter wraps a backend Cache with the namespacing, key sanitization,
// and read-only cloning spec §4.8 requires of the second-level cache
// surface.
type Adapter struct {
	backend   Cache
	namespace string
	readOnly  bool
}

// NewAdapter wraps backend. namespace is prepended (sanitized) to every
// key; when readOnly is false, Get deep-copies the stored value so
// caller mutations cannot propagate back into the cache.
func NewAdapter(backend Cache, namespace string, readOnly bool) *Adapter {
	return &Adapter{backend: backend, namespace: sanitizeKey(namespace), readOnly: readOnly}
}

func sanitizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(reservedChars, r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a *Adapter) namespaced(key string) string {
	k := sanitizeKey(key)
	if a.namespace == "" {
		return k
	}
	return a.namespace + ":" + k
}

func (a *Adapter) Get(key string) (any, bool) {
	v, ok := a.backend.Get(a.namespaced(key))
	if !ok {
		return nil, false
	}
	if a.readOnly {
		return v, true
	}
	return deepCopy(v), true
}

func (a *Adapter) Put(key string, value any) { a.backend.Put(a.namespaced(key), value) }
func (a *Adapter) Has(key string) bool        { return a.backend.Has(a.namespaced(key)) }
func (a *Adapter) Remove(key string)          { a.backend.Remove(a.namespaced(key)) }
func (a *Adapter) Clear()                     { a.backend.Clear() }
func (a *Adapter) Count() int                 { return a.backend.Count() }

var _ Cache = (*Adapter)(nil)

// deepCopy clones maps, slices, pointers, and structs by reflection so a
// readOnly=false cache never hands out a value the caller could mutate
// in place. Unrecognized kinds (channels, funcs) are returned as-is.
func deepCopy(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	cp := deepCopyValue(rv)
	return cp.Interface()
}

func deepCopyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopyValue(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopyValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(deepCopyValue(v.Field(i)))
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopyValue(v.Elem()))
		return out
	default:
		return v
	}
}
