package ogam

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/forbearing/ogam/internal/structmeta"
	"github.com/forbearing/ogam/ogamerrs"
	"github.com/forbearing/ogam/typehandler"
	"github.com/stoewer/go-strcase"
)

// Hydrator implements spec §4.5: turning fetched rows (column name ->
// driver value maps) into Scalar, Array, or Object values.
//
// Construction strategy (a) of spec §4.5 step 4 — "a constructor whose
// parameter names match the union of idMappings+resultMappings property
// names" — has no Go equivalent (Go constructors are ordinary functions
// with positional, unnamed parameters, so there is nothing to match
// result-map property names against). Every target is therefore built
// with strategy (b): reflect.New followed by Set<Property> setters, then
// direct field assignment, exactly as the spec's own fallback describes.
type Hydrator struct {
	cfg *Configuration
}

// NewHydrator builds a Hydrator resolving ResultMaps and type handlers
// through cfg.
func NewHydrator(cfg *Configuration) *Hydrator {
	return &Hydrator{cfg: cfg}
}

// HydrateScalar implements Scalar mode: each row must have exactly one
// column; that column's raw driver value, unconverted, becomes the row's
// value.
func (h *Hydrator) HydrateScalar(rows []map[string]any) ([]any, error) {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		if len(row) != 1 {
			return nil, ogamerrs.Newf(ogamerrs.Binding, "scalar hydration requires exactly one column, got %d", len(row))
		}
		for _, v := range row {
			out = append(out, v)
		}
	}
	return out, nil
}

// HydrateArray implements Array mode: each row becomes itself (the
// column name -> value map), unmodified.
func (h *Hydrator) HydrateArray(rows []map[string]any) ([]any, error) {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

// HydrateObjects implements Object mode (spec §4.5 steps 1-8): construct
// targetType values per rm, folding repeated identity keys (JOIN rows)
// into one root with deduplicated nested collections. Returned values
// are pointers to targetType, in first-seen row order.
func (h *Hydrator) HydrateObjects(rows []map[string]any, rm *ResultMap, targetType reflect.Type) ([]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if rm.Discriminator != nil {
		discVal, ok := rows[0][rm.Discriminator.Column]
		if ok && discVal != nil {
			key := fmt.Sprintf("%v", discVal)
			if resolvedID, ok := rm.Discriminator.ResultMapOf[key]; ok {
				resolved, err := h.cfg.ResultMap(resolvedID)
				if err != nil {
					return nil, err
				}
				resolvedType := targetType
				if resolved.TargetType != "" {
					if t, ok := h.cfg.GoType(resolved.TargetType); ok {
						resolvedType = t
					}
				}
				// Per spec §4.5 step 1: "recursing on mismatch is forbidden —
				// the resolved map is used as-is." We do not re-check
				// resolved.Discriminator here.
				return h.hydrateRows(rows, resolved, resolvedType)
			}
		}
	}
	return h.hydrateRows(rows, rm, targetType)
}

func (h *Hydrator) hydrateRows(rows []map[string]any, rm *ResultMap, targetType reflect.Type) ([]any, error) {
	order := make([]string, 0, len(rows))
	byKey := make(map[string]reflect.Value, len(rows))
	seenCollChild := make(map[string]map[string]bool)
	var rowSeq int64

	for _, row := range rows {
		key := identityKey(row, rm.IDMappings, "")
		if key == "" {
			key = fmt.Sprintf("$row$%d", atomic.AddInt64(&rowSeq, 1))
		}
		val, exists := byKey[key]
		if !exists {
			v, err := h.construct(row, rm, targetType, "")
			if err != nil {
				return nil, err
			}
			byKey[key] = v
			order = append(order, key)
			val = v
		}
		if err := h.applyNested(row, rm, val, key, seenCollChild); err != nil {
			return nil, err
		}
	}

	roots := make([]any, len(order))
	for i, key := range order {
		roots[i] = byKey[key].Interface()
	}
	return roots, nil
}

// construct builds one targetType value from row's explicitly mapped
// columns (with columnPrefix applied), then, if rm.AutoMapping, assigns
// any remaining row column of the same (optionally underscore->camelCase
// normalized) name to a same-named field (spec §4.5 step 8).
func (h *Hydrator) construct(row map[string]any, rm *ResultMap, targetType reflect.Type, columnPrefix string) (reflect.Value, error) {
	st := derefType(targetType)
	ptr := reflect.New(st)
	meta := structmeta.Of(st)

	mapped := make(map[string]bool)
	for _, rmg := range rm.AllMappings() {
		col := columnPrefix + rmg.Column
		mapped[col] = true
		raw, ok := row[col]
		if !ok {
			continue
		}
		handler := h.resolveHandler(rmg, st, meta)
		val, err := handler.GetResult(raw)
		if err != nil {
			return reflect.Value{}, ogamerrs.Wrap(ogamerrs.Type, err, "convert column "+col)
		}
		if err := setProperty(ptr, meta, rmg.Property, val); err != nil {
			return reflect.Value{}, err
		}
	}

	if rm.AutoMapping {
		for col, raw := range row {
			if !strings.HasPrefix(col, columnPrefix) || mapped[col] {
				continue
			}
			prop := strings.TrimPrefix(col, columnPrefix)
			if h.cfg.Settings.MapUnderscoreToCamelCase {
				prop = strcase.UpperCamelCase(prop)
			}
			idx, ok := meta.FieldByName[prop]
			if !ok {
				idx, ok = meta.FieldByCol[strings.ToLower(prop)]
			}
			if !ok {
				continue
			}
			field := st.Field(idx)
			handler := h.cfg.TypeHandlers.LookupType(field.Type)
			val, err := handler.GetResult(raw)
			if err != nil {
				continue
			}
			_ = setProperty(ptr, meta, field.Name, val)
		}
	}
	return ptr, nil
}

func (h *Hydrator) resolveHandler(rmg ResultMapping, st reflect.Type, meta *structmeta.StructMeta) typehandler.TypeHandler {
	if rmg.TypeHandlerName != "" {
		return h.cfg.TypeHandlers.Lookup(rmg.TypeHandlerName)
	}
	if rmg.TypeName != "" {
		return h.cfg.TypeHandlers.Lookup(rmg.TypeName)
	}
	if idx, ok := meta.FieldByName[rmg.Property]; ok {
		return h.cfg.TypeHandlers.LookupType(st.Field(idx).Type)
	}
	return h.cfg.TypeHandlers.Lookup("string")
}

// applyNested implements spec §4.5 steps 6-7 for one row against an
// already-constructed (or continuation) root value.
func (h *Hydrator) applyNested(row map[string]any, rm *ResultMap, parent reflect.Value, parentKey string, seenCollChild map[string]map[string]bool) error {
	meta := structmeta.Of(derefType(parent.Type()))

	for _, a := range rm.Associations {
		if allNull(row, a.IDMappings, a.ColumnPrefix) {
			continue
		}
		childRM, childType, err := h.resolveNested(a.ResultMapID, a.Inline, a.TargetType)
		if err != nil {
			return err
		}
		childVal, err := h.construct(row, childRM, childType, a.ColumnPrefix)
		if err != nil {
			return err
		}
		if err := h.applyNested(row, childRM, childVal, parentKey+"/"+a.Property, seenCollChild); err != nil {
			return err
		}
		if err := setProperty(parent, meta, a.Property, childVal.Interface()); err != nil {
			return err
		}
	}

	for _, c := range rm.Collections {
		if allNull(row, c.IDMappings, c.ColumnPrefix) {
			continue
		}
		childRM, childType, err := h.resolveNested(c.ResultMapID, c.Inline, c.OfType)
		if err != nil {
			return err
		}
		childKey := identityKey(row, childRM.IDMappings, c.ColumnPrefix)
		collKey := parentKey + "#" + c.Property
		if seenCollChild[collKey] == nil {
			seenCollChild[collKey] = make(map[string]bool)
		}
		if childKey != "" && seenCollChild[collKey][childKey] {
			continue
		}
		if childKey != "" {
			seenCollChild[collKey][childKey] = true
		}
		childVal, err := h.construct(row, childRM, childType, c.ColumnPrefix)
		if err != nil {
			return err
		}
		if err := h.applyNested(row, childRM, childVal, parentKey+"/"+c.Property+"/"+childKey, seenCollChild); err != nil {
			return err
		}
		if err := appendToSlice(parent, meta, c.Property, childVal.Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hydrator) resolveNested(resultMapID string, inline *ResultMap, typeName string) (*ResultMap, reflect.Type, error) {
	rm := inline
	var err error
	if rm == nil {
		rm, err = h.cfg.ResultMap(resultMapID)
		if err != nil {
			return nil, nil, err
		}
	}
	t, ok := h.cfg.GoType(typeName)
	if !ok {
		return nil, nil, ogamerrs.Newf(ogamerrs.Type, "no registered Go type for %q", typeName)
	}
	return rm, t, nil
}

func allNull(row map[string]any, idMappings []ResultMapping, prefix string) bool {
	if len(idMappings) == 0 {
		return false
	}
	for _, idm := range idMappings {
		if v, ok := row[prefix+idm.Column]; ok && v != nil {
			return false
		}
	}
	return true
}

// identityKey builds the composite identity key of spec §4.5 step 2. An
// empty return means "no declared id columns"; callers substitute a
// per-row sequence number so such rows never fold together.
func identityKey(row map[string]any, idMappings []ResultMapping, prefix string) string {
	if len(idMappings) == 0 {
		return ""
	}
	var b strings.Builder
	for _, idm := range idMappings {
		fmt.Fprintf(&b, "%v|", row[prefix+idm.Column])
	}
	return b.String()
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// setProperty assigns val to ptr's named property via a Set<Property>
// method if one exists, otherwise via the field directly (spec §4.5 step
// 4b).
func setProperty(ptr reflect.Value, meta *structmeta.StructMeta, property string, val any) error {
	if m, ok := meta.Setters[property]; ok {
		in := reflect.ValueOf(val)
		paramType := m.Type.In(1)
		if val == nil {
			in = reflect.Zero(paramType)
		} else if !in.Type().AssignableTo(paramType) {
			if !in.Type().ConvertibleTo(paramType) {
				return ogamerrs.Newf(ogamerrs.Type, "cannot assign %T to setter %s(%s)", val, m.Name, paramType)
			}
			in = in.Convert(paramType)
		}
		m.Func.Call([]reflect.Value{ptr, in})
		return nil
	}
	idx, ok := meta.FieldByName[property]
	if !ok {
		return nil
	}
	field := ptr.Elem().Field(idx)
	if !field.CanSet() {
		return nil
	}
	if val == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	in := reflect.ValueOf(val)
	if in.Type().AssignableTo(field.Type()) {
		field.Set(in)
		return nil
	}
	if in.Type().ConvertibleTo(field.Type()) {
		field.Set(in.Convert(field.Type()))
		return nil
	}
	return ogamerrs.Newf(ogamerrs.Type, "cannot assign %T to field %s (%s)", val, property, field.Type())
}

// appendToSlice appends val to the named slice-typed property on ptr.
func appendToSlice(ptr reflect.Value, meta *structmeta.StructMeta, property string, val any) error {
	idx, ok := meta.FieldByName[property]
	if !ok {
		return ogamerrs.Newf(ogamerrs.Binding, "no collection field %q", property)
	}
	field := ptr.Elem().Field(idx)
	if field.Kind() != reflect.Slice {
		return ogamerrs.Newf(ogamerrs.Type, "field %q is not a slice", property)
	}
	elemType := field.Type().Elem()
	in := reflect.ValueOf(val)
	if !in.Type().AssignableTo(elemType) {
		if !in.Type().ConvertibleTo(elemType) {
			return ogamerrs.Newf(ogamerrs.Type, "cannot append %T to %s", val, field.Type())
		}
		in = in.Convert(elemType)
	}
	field.Set(reflect.Append(field, in))
	return nil
}
