// Package structmeta caches per-type field and setter metadata so the
// hydrator (spec §4.5) never reflects over the same struct type twice:
// a sync.Map keyed by type holds each field's "column" tag (the
// ResultMapping/autoMapping source column name) plus any one-argument
// setter methods matching "Set<Field>".
package structmeta

import (
	"reflect"
	"strings"
	"sync"
)

var cache sync.Map // map[reflect.Type]*StructMeta

// StructMeta describes one struct type's hydratable surface: field
// indexes by name and by normalized column name, plus any Set<Field>
// methods usable as a construction strategy fallback (spec §4.5 step 4b).
type StructMeta struct {
	Type        reflect.Type
	FieldByName map[string]int // exported field name -> Type.Field index
	FieldByCol  map[string]int // column tag (or lower-cased name) -> Type.Field index
	Setters     map[string]reflect.Method
}

// Of returns the cached StructMeta for t (dereferencing pointers),
// computing and storing it on first use.
func Of(t reflect.Type) *StructMeta {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := cache.Load(t); ok {
		return v.(*StructMeta) //nolint:errcheck
	}
	m := build(t)
	actual, _ := cache.LoadOrStore(t, m)
	return actual.(*StructMeta) //nolint:errcheck
}

func build(t reflect.Type) *StructMeta {
	m := &StructMeta{
		Type:        t,
		FieldByName: make(map[string]int),
		FieldByCol:  make(map[string]int),
		Setters:     make(map[string]reflect.Method),
	}
	if t.Kind() != reflect.Struct {
		return m
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		m.FieldByName[f.Name] = i
		col := f.Tag.Get("column")
		if col == "" {
			col = f.Tag.Get("db")
		}
		if col == "" {
			col = strings.ToLower(f.Name)
		}
		m.FieldByCol[col] = i
	}
	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		meth := pt.Method(i)
		if strings.HasPrefix(meth.Name, "Set") && len(meth.Name) > 3 && meth.Type.NumIn() == 2 {
			m.Setters[strings.TrimPrefix(meth.Name, "Set")] = meth
		}
	}
	return m
}
