package ogam

// ResultMapping is one column->property binding of a ResultMap (spec §3).
type ResultMapping struct {
	Property        string
	Column          string
	TypeName        string // declared application type ("phpType" in the spec's own vocabulary); "" = infer from target field
	TypeHandlerName string // "" = resolve via the registry's normal lookup order
}

// Association is a has-one nested ResultMap (spec §3/§4.5).
type Association struct {
	Property     string
	TargetType   string
	ResultMapID  string // "" when Inline is used instead
	Inline       *ResultMap
	ColumnPrefix string
	IDMappings   []ResultMapping
	Mappings     []ResultMapping
}

// Collection is the has-many analog of Association, hydrating into an
// ordered, id-key-deduplicated sequence (spec §4.5 step 7).
type Collection struct {
	Property     string
	OfType       string
	ResultMapID  string
	Inline       *ResultMap
	ColumnPrefix string
	IDMappings   []ResultMapping
	Mappings     []ResultMapping
}

// Discriminator resolves a row's actual ResultMap from a column value
// (spec §3/§4.5 step 1). Recursing through a second discriminator on the
// resolved map is forbidden by the spec; Hydrator.HydrateObjects enforces
// this by not looking at the resolved map's own Discriminator field again.
type Discriminator struct {
	Column      string
	TypeName    string
	ResultMapOf map[string]string // discriminator value -> ResultMap id
}

// ResultMap is the row->object mapping of spec §3/§4.5.
type ResultMap struct {
	ID         string
	TargetType string

	IDMappings   []ResultMapping
	Mappings     []ResultMapping
	Associations []Association
	Collections  []Collection

	Discriminator *Discriminator
	AutoMapping   bool

	ExtendsID string // "" = no inheritance
}

// AllMappings returns IDMappings followed by Mappings, the full set of
// explicitly declared column bindings for this map (excluding nested
// associations/collections).
func (m *ResultMap) AllMappings() []ResultMapping {
	out := make([]ResultMapping, 0, len(m.IDMappings)+len(m.Mappings))
	out = append(out, m.IDMappings...)
	out = append(out, m.Mappings...)
	return out
}
