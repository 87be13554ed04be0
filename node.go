package ogam

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/forbearing/ogam/eval"
	"github.com/forbearing/ogam/ogamerrs"
)

// SQLNode is the tree node contract of spec §4.2. Apply renders the
// node's contribution into ctx and reports whether it emitted anything;
// a false-returning Apply must not have mutated ctx's SQL builder (it
// may still be evaluated again harmlessly, e.g. inside Choose).
type SQLNode interface {
	Apply(ctx *DynamicContext) (bool, error)
}

// DynamicContext carries render-time state across one SqlNode tree walk
// (spec §4.2): the configuration, the parameter bindings, the SQL being
// assembled, the parameter mappings collected so far, a shared unique
// counter for ForEach's synthetic names, and the stack of active ForEach
// renames consulted when a Text node resolves a #{...}/${...} name.
type DynamicContext struct {
	Config   *Configuration
	Param    *Parameter
	sql      strings.Builder
	Mappings []ParameterMapping

	counter     *int64
	renameStack []map[string]string
}

// NewDynamicContext starts a render over param.
func NewDynamicContext(cfg *Configuration, param *Parameter) *DynamicContext {
	var c int64
	return &DynamicContext{Config: cfg, Param: param, counter: &c}
}

// SQL returns the SQL text assembled so far.
func (ctx *DynamicContext) SQL() string { return ctx.sql.String() }

func (ctx *DynamicContext) uniqueNumber() int64 { return atomic.AddInt64(ctx.counter, 1) }

// pushRename pushes a one-entry rename frame (from -> to) onto the
// context's rename stack; popRename removes the most recent frame.
func (ctx *DynamicContext) pushRename(from, to string) {
	m := map[string]string{from: to}
	ctx.renameStack = append(ctx.renameStack, m)
}

func (ctx *DynamicContext) popRename() {
	ctx.renameStack = ctx.renameStack[:len(ctx.renameStack)-1]
}

// renamedPath rewrites path's first segment if an active ForEach rename
// applies to it (innermost scope wins), per spec §4.2's requirement that
// "#{item} inside child ... must produce a unique synthetic parameter
// name per iteration."
func (ctx *DynamicContext) renamedPath(path []string) []string {
	if len(path) == 0 {
		return path
	}
	for i := len(ctx.renameStack) - 1; i >= 0; i-- {
		if to, ok := ctx.renameStack[i][path[0]]; ok {
			out := append([]string{to}, path[1:]...)
			return out
		}
	}
	return path
}

// --- Text ---

var paramPlaceholderRe = regexp.MustCompile(`#\{\s*([A-Za-z_][\w.]*)\s*((?:,[^}]*)?)\}`)
var identSubstRe = regexp.MustCompile(`\$\{\s*([A-Za-z_][\w.]*)\s*\}`)

// TextNode appends literal SQL text, resolving ${...} and #{...} markers
// per spec §4.3.
type TextNode struct{ Raw string }

func (n *TextNode) Apply(ctx *DynamicContext) (bool, error) {
	out, mappings, err := renderText(ctx, n.Raw)
	if err != nil {
		return false, err
	}
	ctx.sql.WriteString(out)
	ctx.Mappings = append(ctx.Mappings, mappings...)
	return true, nil
}

// renderText performs ${...} identifier substitution first (since its
// result may itself be interpolated into the final SQL verbatim), then
// #{...} value-placeholder extraction. It does not touch ctx directly so
// Trim can render a child into an isolated buffer before splicing.
func renderText(ctx *DynamicContext, raw string) (string, []ParameterMapping, error) {
	var identErr error
	withIdents := identSubstRe.ReplaceAllStringFunc(raw, func(m string) string {
		sub := identSubstRe.FindStringSubmatch(m)
		path := ctx.renamedPath(eval.SplitPath(sub[1]))
		v, err := ctx.Param.Resolve(strings.Join(path, "."))
		if err != nil {
			identErr = err
			return m
		}
		return toIdentString(v)
	})
	if identErr != nil {
		return "", nil, identErr
	}

	var mappings []ParameterMapping
	out := paramPlaceholderRe.ReplaceAllStringFunc(withIdents, func(m string) string {
		sub := paramPlaceholderRe.FindStringSubmatch(m)
		name := sub[1]
		attrs := parseAttrs(sub[2])
		path := ctx.renamedPath(eval.SplitPath(name))
		pm := ParameterMapping{
			Property:        strings.Join(path, "."),
			TypeName:        attrs["phpType"],
			SQLType:         attrs["sqlType"],
			TypeHandlerName: attrs["typeHandler"],
			Mode:            parseMode(attrs["mode"]),
		}
		mappings = append(mappings, pm)
		return "?"
	})
	return out, mappings, nil
}

func toIdentString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(fmtStringer); ok {
		return s.String()
	}
	return stringifyAny(v)
}

type fmtStringer interface{ String() string }

func stringifyAny(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	raw = strings.TrimPrefix(strings.TrimSpace(raw), ",")
	if raw == "" {
		return attrs
	}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		attrs[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return attrs
}

func parseMode(s string) ParameterMode {
	switch strings.ToUpper(s) {
	case "OUT":
		return ModeOut
	case "INOUT":
		return ModeInOut
	default:
		return ModeIn
	}
}

// --- Mixed ---

// MixedNode applies its children in order; it returns true iff any child
// returned true (spec §4.2).
type MixedNode []SQLNode

func (n MixedNode) Apply(ctx *DynamicContext) (bool, error) {
	matched := false
	for _, child := range n {
		ok, err := child.Apply(ctx)
		if err != nil {
			return false, err
		}
		matched = matched || ok
	}
	return matched, nil
}

// --- If ---

// IfNode emits Child iff Test evaluates truthy (spec §4.2).
type IfNode struct {
	Test  string
	Child SQLNode
}

func (n *IfNode) Apply(ctx *DynamicContext) (bool, error) {
	ok, err := eval.EvaluateBoolean(n.Test, ctx.Param)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.Child.Apply(ctx)
}

// --- Choose / When / Otherwise ---

// WhenBranch is one test/child pair of a ChooseNode.
type WhenBranch struct {
	Test  string
	Child SQLNode
}

// ChooseNode applies the first true When branch, or Otherwise if none
// matched; at most one branch ever emits (spec §4.2).
type ChooseNode struct {
	Whens     []WhenBranch
	Otherwise SQLNode
}

func (n *ChooseNode) Apply(ctx *DynamicContext) (bool, error) {
	for _, w := range n.Whens {
		ok, err := eval.EvaluateBoolean(w.Test, ctx.Param)
		if err != nil {
			return false, err
		}
		if ok {
			return w.Child.Apply(ctx)
		}
	}
	if n.Otherwise != nil {
		return n.Otherwise.Apply(ctx)
	}
	return false, nil
}

// --- ForEach ---

// ForEachNode iterates an array/slice/map collection, rendering Child
// once per element with Item (and optional Index) bound, and Open/Close/
// Separator stitched around the iterations (spec §4.2).
type ForEachNode struct {
	CollectionPath string
	Item           string
	Index          string // "" = none
	Open, Close    string
	Separator      string
	Child          SQLNode
}

func (n *ForEachNode) Apply(ctx *DynamicContext) (bool, error) {
	coll, err := ctx.Param.Resolve(n.CollectionPath)
	if err != nil {
		return false, err
	}
	items, indexes, ok := flattenCollection(coll)
	if !ok || len(items) == 0 {
		return false, nil
	}

	ctx.sql.WriteString(n.Open)
	for p, item := range items {
		if p > 0 {
			ctx.sql.WriteString(n.Separator)
		}
		unique := ctx.uniqueNumber()
		itemName := n.Item + "_" + strconv.FormatInt(unique, 10) + "_" + strconv.Itoa(p)
		ctx.Param.Bind(itemName, item)
		ctx.pushRename(n.Item, itemName)

		if n.Index != "" {
			indexName := n.Index + "_" + strconv.FormatInt(unique, 10) + "_" + strconv.Itoa(p)
			ctx.Param.Bind(indexName, indexes[p])
			ctx.pushRename(n.Index, indexName)
			if _, err := n.Child.Apply(ctx); err != nil {
				ctx.popRename()
				ctx.popRename()
				return false, err
			}
			ctx.popRename()
		} else {
			if _, err := n.Child.Apply(ctx); err != nil {
				ctx.popRename()
				return false, err
			}
		}
		ctx.popRename()
	}
	ctx.sql.WriteString(n.Close)
	return true, nil
}

// flattenCollection normalizes a map/slice/array parameter value into
// parallel (value, index-or-key) slices in iteration order.
func flattenCollection(v any) (items []any, indexes []any, ok bool) {
	switch t := v.(type) {
	case nil:
		return nil, nil, false
	case []any:
		indexes = make([]any, len(t))
		for i := range t {
			indexes[i] = i
		}
		return t, indexes, true
	case map[string]any:
		items = make([]any, 0, len(t))
		indexes = make([]any, 0, len(t))
		for k, v := range t {
			items = append(items, v)
			indexes = append(indexes, k)
		}
		return items, indexes, true
	}
	return reflectFlatten(v)
}

// --- Trim / Where / Set ---

// TrimNode renders Child into an isolated buffer, trims whitespace,
// strips one matching prefix/suffix override, then wraps the result in
// Prefix/Suffix before splicing it into the parent context (spec §4.2).
type TrimNode struct {
	Child           SQLNode
	Prefix, Suffix  string
	PrefixOverrides []string
	SuffixOverrides []string
}

func (n *TrimNode) Apply(ctx *DynamicContext) (bool, error) {
	inner := &DynamicContext{Config: ctx.Config, Param: ctx.Param.Fork(), counter: ctx.counter, renameStack: ctx.renameStack}
	ok, err := n.Child.Apply(inner)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	body := strings.TrimSpace(inner.SQL())
	body = trimOverride(body, n.PrefixOverrides, true)
	body = trimOverride(body, n.SuffixOverrides, false)
	body = strings.TrimSpace(body)
	if body == "" {
		return false, nil
	}
	ctx.sql.WriteString(n.Prefix)
	ctx.sql.WriteString(body)
	ctx.sql.WriteString(n.Suffix)
	ctx.Mappings = append(ctx.Mappings, inner.Mappings...)
	ctx.Param.Merge(inner.Param)
	return true, nil
}

func trimOverride(s string, overrides []string, fromPrefix bool) string {
	for _, o := range overrides {
		if fromPrefix {
			if len(s) >= len(o) && strings.EqualFold(s[:len(o)], o) {
				return strings.TrimSpace(s[len(o):])
			}
		} else {
			if len(s) >= len(o) && strings.EqualFold(s[len(s)-len(o):], o) {
				return strings.TrimSpace(s[:len(s)-len(o)])
			}
		}
	}
	return s
}

// NewWhereNode builds the Trim preset of spec §4.2: prefix "WHERE ",
// prefix overrides ["AND ", "OR "], no suffix.
func NewWhereNode(child SQLNode) *TrimNode {
	return &TrimNode{Child: child, Prefix: "WHERE ", PrefixOverrides: []string{"AND ", "OR "}}
}

// NewSetNode builds the Trim preset of spec §4.2: prefix "SET ", suffix
// override [","], no prefix overrides.
func NewSetNode(child SQLNode) *TrimNode {
	return &TrimNode{Child: child, Prefix: "SET ", SuffixOverrides: []string{","}}
}

// --- Include ---

// IncludeNode splices a named, registered SQL fragment inline (spec §9
// "Include fragment reuse"), optionally overriding bindings for the
// fragment's render (e.g. a shared <sql id="columns"> parameterized by a
// table alias).
type IncludeNode struct {
	RefID string
	Vars  map[string]string // literal overrides bound as additional parameters before rendering
}

func (n *IncludeNode) Apply(ctx *DynamicContext) (bool, error) {
	frag, ok := ctx.Config.Fragment(n.RefID)
	if !ok {
		return false, ogamerrs.Newf(ogamerrs.Binding, "unknown sql fragment %q", n.RefID)
	}
	for k, v := range n.Vars {
		ctx.Param.Bind(k, v)
	}
	return frag.Apply(ctx)
}
