package ogam

import "github.com/forbearing/ogam/config"

// StatementKind is the kind of SQL a MappedStatement executes (spec §3).
type StatementKind int

const (
	Select StatementKind = iota
	Insert
	Update
	Delete
	Callable
)

func (k StatementKind) String() string {
	switch k {
	case Select:
		return "SELECT"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Callable:
		return "CALLABLE"
	default:
		return "UNKNOWN"
	}
}

// ResultMode selects which of the Hydrator's three modes (spec §4.5)
// a Select statement's rows are run through.
type ResultMode int

const (
	ResultObject ResultMode = iota
	ResultScalar
	ResultArray
)

// defaultFlushCache reports whether flushCache defaults to true for kind,
// per spec §4.6: "statement kinds Insert/Update/Delete default to
// flush-before; Select defaults to no flush."
func (k StatementKind) defaultFlushCache() bool { return k != Select }

// MappedStatement binds one namespace.id to a SqlSource plus execution
// metadata (spec §3). FullID is the globally-unique "namespace.id".
type MappedStatement struct {
	FullID   string
	Kind     StatementKind
	SQLSource SQLSource

	ResultMapID    string
	ResultTypeName string
	ResultMode     ResultMode

	UseGeneratedKeys bool
	KeyProperty      string
	KeyColumn        string

	Timeout   int // milliseconds; 0 = use config.Settings.DefaultStatementTimeout
	FetchSize int

	flushCache    *bool // nil = use Kind's default
	UseCache      bool
	ExecutorType  config.ExecutorType // "" = use config.Settings.DefaultExecutorType
}

// FlushCache resolves the flushCache override against the kind default.
func (ms *MappedStatement) FlushCache() bool {
	if ms.flushCache != nil {
		return *ms.flushCache
	}
	return ms.Kind.defaultFlushCache()
}

// SetFlushCache explicitly overrides the statement's flush-before-execute
// behavior.
func (ms *MappedStatement) SetFlushCache(v bool) { ms.flushCache = &v }
