package ogam

import (
	"context"
	"reflect"

	"github.com/forbearing/ogam/ogamerrs"
)

// MapperProxy dispatches calls for mapperType's methods to this Session's
// SelectOne/SelectList/Insert/Update/Delete, each keyed by
// "namespace.MethodName" (spec §6 "Mapper interfaces").
//
// Go's reflect package cannot synthesize a concrete type that satisfies
// an arbitrary interface at runtime (there is no way to attach methods
// to a reflect.StructOf type), so MapperProxy does not itself implement
// mapperType; it offers Call instead. Generating a true interface
// implementation would require build-time code generation (a
// go:generate step emitting one small forwarding method per mapper
// method), which is out of scope here.
type MapperProxy struct {
	session     *Session
	namespace   string
	mapperType  reflect.Type
	commandKind map[string]StatementKind
}

func newMapperProxy(s *Session, namespace string, mapperType reflect.Type) *MapperProxy {
	p := &MapperProxy{session: s, namespace: namespace, mapperType: mapperType, commandKind: make(map[string]StatementKind)}
	for i := 0; i < mapperType.NumMethod(); i++ {
		m := mapperType.Method(i)
		id := namespace + "." + m.Name
		if ms, err := s.cfg.Statement(id); err == nil {
			p.commandKind[m.Name] = ms.Kind
		}
	}
	return p
}

// Call invokes the mapper method named methodName, translating it into
// "namespace.methodName" and dispatching on the registered statement's
// kind: Select goes through SelectList when the method's own declared
// return type (resolved via reflect on mapperType) is a slice, SelectOne
// otherwise; Insert/Update/Delete go through the matching Session
// method. Call never dispatches to SelectMap.
func (p *MapperProxy) Call(ctx context.Context, methodName string, param any) (any, error) {
	id := p.namespace + "." + methodName
	kind, ok := p.commandKind[methodName]
	if !ok {
		return nil, ogamerrs.Newf(ogamerrs.Configuration, "mapper %s has no statement registered for method %q", p.mapperType, methodName)
	}
	switch kind {
	case Insert:
		return p.session.Insert(ctx, id, param)
	case Update:
		return p.session.Update(ctx, id, param)
	case Delete:
		return p.session.Delete(ctx, id, param)
	default:
		method, found := p.mapperType.MethodByName(methodName)
		if found && method.Type.NumOut() > 0 && method.Type.Out(0).Kind() == reflect.Slice {
			return p.session.SelectList(ctx, id, param)
		}
		return p.session.SelectOne(ctx, id, param)
	}
}
