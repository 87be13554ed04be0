package ogam

import (
	"github.com/forbearing/ogam/eval"
	"github.com/forbearing/ogam/ogamerrs"
)

// Parameter is the bindings root a statement call is evaluated against:
// the caller-supplied parameter value (a map or a struct/record), plus
// synthetic bindings added during dynamic-SQL composition (spec §4.2's
// "additionalParameters", e.g. ForEach's per-iteration item/index). It
// implements eval.Bindings directly so §4.1 test expressions and §4.3
// ${name}/#{name} substitution share one resolution path.
type Parameter struct {
	root       any
	additional map[string]any
}

var _ eval.Bindings = (*Parameter)(nil)

// NewParameter wraps root (nil, a map[string]any, or any struct/pointer)
// as a bindings root.
func NewParameter(root any) *Parameter {
	return &Parameter{root: root, additional: make(map[string]any)}
}

// Root returns the original caller-supplied parameter value.
func (p *Parameter) Root() any { return p.root }

// Bind adds a synthetic top-level binding (e.g. a ForEach item/index or a
// unique per-iteration placeholder name).
func (p *Parameter) Bind(name string, value any) { p.additional[name] = value }

// Fork returns a child Parameter that inherits the current bindings by
// value (spec §4.2 Trim: "applies child into a nested context whose
// bindings are inherited by value"); mutations to the child's additional
// bindings do not propagate back to the parent.
func (p *Parameter) Fork() *Parameter {
	child := &Parameter{root: p.root, additional: make(map[string]any, len(p.additional))}
	for k, v := range p.additional {
		child.additional[k] = v
	}
	return child
}

// Merge copies src's additional bindings into p. Used to fold a forked
// child Parameter's synthetic bindings (e.g. a ForEach item/index bound
// while rendering inside a Trim/Where/Set) back into the parent once the
// child's rendered body is actually spliced into the parent's SQL, since
// Fork's by-value inheritance otherwise drops them when the child goes
// out of scope.
func (p *Parameter) Merge(src *Parameter) {
	for k, v := range src.additional {
		p.additional[k] = v
	}
}

// Lookup implements eval.Bindings: additional bindings shadow the root,
// "_parameter" always reaches the raw root value, and a map/struct root
// exposes its own keys/fields at the top level.
func (p *Parameter) Lookup(name string) (any, bool) {
	if v, ok := p.additional[name]; ok {
		return v, true
	}
	if name == "_parameter" {
		return p.root, true
	}
	if p.root == nil {
		return nil, false
	}
	if m, ok := p.root.(map[string]any); ok {
		v, ok := m[name]
		return v, ok
	}
	v, err := resolveStructField(p.root, name)
	if err != nil || v == fieldNotFound {
		return nil, false
	}
	return v, true
}

// Resolve walks a dotted path (e.g. "user.address.city") against this
// Parameter, reusing eval's identifier-path resolution so §4.3's #{...}
// and ${...} substitution see exactly the same semantics as §4.1 test
// expressions.
func (p *Parameter) Resolve(path string) (any, error) {
	v, err := eval.ResolvePath(p, eval.SplitPath(path))
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Binding, err, "resolve parameter path "+path)
	}
	return v, nil
}
