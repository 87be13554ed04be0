package ogam

// ParameterMode is a ParameterMapping's direction (spec §3).
type ParameterMode int

const (
	ModeIn ParameterMode = iota
	ModeOut
	ModeInOut
)

// ParameterMapping names one value to bind at one "?" placeholder
// position (spec §3). Property may be any dotted path into the
// statement's root parameter, or a ForEach-synthesized name resolved
// through BoundSql.AdditionalParameters.
type ParameterMapping struct {
	Property        string
	TypeName        string
	SQLType         string
	Mode            ParameterMode
	TypeHandlerName string
}

// BoundSql is the output of rendering a SqlSource against one parameter
// value (spec §3): finalized SQL with positional "?" placeholders, the
// ordered mapping of what to bind at each placeholder, and any synthetic
// bindings ForEach created along the way.
type BoundSql struct {
	SQL                  string
	ParameterMappings    []ParameterMapping
	AdditionalParameters map[string]any
}

// SQLSource produces a BoundSql from one call's parameter value (spec
// §3). StaticSQLSource covers statements with no dynamic nodes at all;
// DynamicSQLSource reruns the SqlNode tree on every call.
type SQLSource interface {
	Render(cfg *Configuration, param *Parameter) (*BoundSql, error)
}

// StaticSQLSource is produced when a statement's text has no Dynamic
// nodes after composition (spec §4.3): the SQL and parameter mapping
// list never change between calls.
type StaticSQLSource struct {
	SQL               string
	ParameterMappings []ParameterMapping
}

func (s *StaticSQLSource) Render(_ *Configuration, _ *Parameter) (*BoundSql, error) {
	return &BoundSql{SQL: s.SQL, ParameterMappings: s.ParameterMappings, AdditionalParameters: map[string]any{}}, nil
}

// DynamicSQLSource walks Root against param on every call (spec §4.3).
type DynamicSQLSource struct {
	Root SQLNode
}

func (s *DynamicSQLSource) Render(cfg *Configuration, param *Parameter) (*BoundSql, error) {
	ctx := NewDynamicContext(cfg, param)
	if _, err := s.Root.Apply(ctx); err != nil {
		return nil, err
	}
	return &BoundSql{
		SQL:                  ctx.SQL(),
		ParameterMappings:    ctx.Mappings,
		AdditionalParameters: param.additional,
	}, nil
}
