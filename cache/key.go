// Package cache implements the CacheKey serialization discipline and the
// first-/second-level cache surfaces of spec §4.8.
package cache

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"sort"
	"sync/atomic"
	"time"
)

const temporalLayout = "2006-01-02T15:04:05.000000Z07:00"

// Key is the opaque, stable string form of a CacheKey: "ogam:" followed
// by a hash of the serialized (statement id, parameters, offset, limit)
// tuple. Two Keys are equal iff their string forms are equal.
type Key struct {
	s string
}

func (k Key) String() string       { return k.s }
func (k Key) Equal(o Key) bool     { return k.s == o.s }
func (k Key) IsZero() bool         { return k.s == "" }

// NewKey builds a Key for one statement invocation. offset/limit of -1
// mean "unbounded" and are still part of the serialized tuple so two
// calls with different row bounds never collide.
func NewKey(statementFullID string, params any, offset, limit int) Key {
	h := fnv.New128a()
	fmt.Fprintf(h, "id:%s|", statementFullID)
	writeValue(h, reflect.ValueOf(params))
	fmt.Fprintf(h, "|off:%d|lim:%d", offset, limit)
	return Key{s: fmt.Sprintf("ogam:%x", h.Sum(nil))}
}

var objectCounter uint64

func writeValue(w interface{ Write([]byte) (int, error) }, v reflect.Value) {
	if !v.IsValid() {
		fmt.Fprint(w, "null")
		return
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			fmt.Fprint(w, "null")
			return
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		fmt.Fprintf(w, "{temporal,%s}", t.Format(temporalLayout))
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		fmt.Fprintf(w, "b:%v", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if isEnumType(v.Type()) {
			writeEnum(w, v)
			return
		}
		fmt.Fprintf(w, "i:%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fmt.Fprintf(w, "u:%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		fmt.Fprintf(w, "f:%v", v.Float())
	case reflect.String:
		if isEnumType(v.Type()) {
			writeEnum(w, v)
			return
		}
		fmt.Fprintf(w, "s:%q", v.String())
	case reflect.Map:
		fmt.Fprint(w, "{")
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprintf("%v", keys[i].Interface()) < fmt.Sprintf("%v", keys[j].Interface())
		})
		for _, k := range keys {
			fmt.Fprintf(w, "%v:", k.Interface())
			writeValue(w, v.MapIndex(k))
			fmt.Fprint(w, ",")
		}
		fmt.Fprint(w, "}")
	case reflect.Slice, reflect.Array:
		fmt.Fprint(w, "[")
		for i := 0; i < v.Len(); i++ {
			writeValue(w, v.Index(i))
			fmt.Fprint(w, ",")
		}
		fmt.Fprint(w, "]")
	case reflect.Struct:
		fmt.Fprintf(w, "{object,%d}", identityID(v))
	default:
		fmt.Fprintf(w, "%v", v.Interface())
	}
}

func writeEnum(w interface{ Write([]byte) (int, error) }, v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		fmt.Fprintf(w, "{enum,%s,%s}", v.Type().String(), v.String())
	default:
		fmt.Fprintf(w, "{enum,%s,%d}", v.Type().String(), v.Int())
	}
}

func isEnumType(t reflect.Type) bool {
	return t.PkgPath() != "" && t.Name() != "" && t.Name() != "string" && t.Name() != "int"
}

// identityID returns a process-unique id for an opaque struct record.
// Addressable values (reached through a pointer) reuse their address so
// repeated calls with the *same* instance collide, as spec §4.8 requires;
// a value passed by copy gets a fresh id each time, since Go gives it no
// stable identity.
func identityID(v reflect.Value) uint64 {
	if v.CanAddr() {
		return uint64(v.UnsafeAddr())
	}
	return atomic.AddUint64(&objectCounter, 1)
}
