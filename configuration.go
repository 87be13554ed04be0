// Package ogam implements the core of a SQL-mapper runtime: dynamic SQL
// composition, a sandboxed expression evaluator for conditional
// fragments (see the sibling eval package), a session/executor/
// transaction layer, a type-handler-driven hydration pipeline, and a
// two-level cache. The application author writes the SQL; this package
// binds it to method calls, fills in parameters, and turns result rows
// back into values.
package ogam

import (
	"reflect"
	"strings"
	"sync"

	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/ogamerrs"
	"github.com/forbearing/ogam/typehandler"
)

// Configuration is the process-wide registry of spec §3: settings, named
// environments, a type-alias table, registered MappedStatements (keyed
// by "namespace.id"), ResultMaps (keyed by id), reusable SQL fragments
// (for <include>), and a TypeHandlerRegistry. It is mutated only during
// bootstrap, before any Session opens; concurrent mutation afterwards
// must be externally synchronized (spec §5), which is why every mutator
// below takes the registry's own lock rather than assuming single-writer
// discipline.
type Configuration struct {
	mu sync.RWMutex

	Settings config.Settings

	environments        map[string]*Environment
	defaultEnvironment   string

	typeAliases map[string]string

	statements map[string]*MappedStatement
	resultMaps map[string]*ResultMap
	fragments  map[string]SQLNode
	goTypes    map[string]reflect.Type

	TypeHandlers *typehandler.Registry
}

// NewConfiguration builds an empty Configuration with the default type
// handler registry installed and Settings defaulted per config.Settings'
// own setDefault: DefaultExecutorType is "simple" and every other
// setting starts at its zero value.
func NewConfiguration() *Configuration {
	cfg := &Configuration{
		environments: make(map[string]*Environment),
		typeAliases:  make(map[string]string),
		statements:   make(map[string]*MappedStatement),
		resultMaps:   make(map[string]*ResultMap),
		fragments:    make(map[string]SQLNode),
		goTypes:      make(map[string]reflect.Type),
		TypeHandlers: typehandler.NewRegistry(),
	}
	cfg.Settings = config.Settings{DefaultExecutorType: config.ExecutorSimple}
	return cfg
}

// RegisterEnvironment adds env, making it the default if none is set yet
// or makeDefault is true.
func (c *Configuration) RegisterEnvironment(env *Environment, makeDefault bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.environments[env.ID] = env
	if makeDefault || c.defaultEnvironment == "" {
		c.defaultEnvironment = env.ID
	}
}

// Environment returns the named environment, or the default when id is
// "".
func (c *Configuration) Environment(id string) (*Environment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id == "" {
		id = c.defaultEnvironment
	}
	env, ok := c.environments[id]
	if !ok {
		return nil, ogamerrs.Newf(ogamerrs.Configuration, "unknown environment %q", id)
	}
	return env, nil
}

// RegisterTypeAlias maps a short name to a fully-qualified type name.
func (c *Configuration) RegisterTypeAlias(alias, typeName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typeAliases[strings.ToLower(alias)] = typeName
}

// ResolveTypeAlias expands alias to its registered type name, or returns
// it unchanged if no alias is registered under that name.
func (c *Configuration) ResolveTypeAlias(alias string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.typeAliases[strings.ToLower(alias)]; ok {
		return t
	}
	return alias
}

// RegisterStatement installs ms, keyed by its FullID. A duplicate FullID
// is a configuration error (spec §3: "globally unique").
func (c *Configuration) RegisterStatement(ms *MappedStatement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.statements[ms.FullID]; exists {
		return ogamerrs.Newf(ogamerrs.Configuration, "duplicate mapped statement id %q", ms.FullID)
	}
	c.statements[ms.FullID] = ms
	return nil
}

// Statement looks up a MappedStatement by its "namespace.id" full id.
func (c *Configuration) Statement(fullID string) (*MappedStatement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ms, ok := c.statements[fullID]
	if !ok {
		return nil, ogamerrs.Newf(ogamerrs.Binding, "unknown mapped statement id %q", fullID)
	}
	return ms, nil
}

// RegisterResultMap installs m, keyed by its ID. A duplicate ID is a
// configuration error.
func (c *Configuration) RegisterResultMap(m *ResultMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.resultMaps[m.ID]; exists {
		return ogamerrs.Newf(ogamerrs.Configuration, "duplicate result map id %q", m.ID)
	}
	c.resultMaps[m.ID] = m
	return nil
}

// ResultMap looks up a registered ResultMap, resolving its whole
// ExtendsID chain (each parent's IDMappings/Mappings/Associations/
// Collections are prepended to the child's own); a cycle in the chain
// is a Configuration-kind error.
func (c *Configuration) ResultMap(id string) (*ResultMap, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveResultMapLocked(id, make(map[string]bool))
}

func (c *Configuration) resolveResultMapLocked(id string, seen map[string]bool) (*ResultMap, error) {
	if seen[id] {
		return nil, ogamerrs.Newf(ogamerrs.Configuration, "result map %q extends itself", id)
	}
	seen[id] = true
	m, ok := c.resultMaps[id]
	if !ok {
		return nil, ogamerrs.Newf(ogamerrs.Binding, "unknown result map id %q", id)
	}
	if m.ExtendsID == "" {
		return m, nil
	}
	parent, err := c.resolveResultMapLocked(m.ExtendsID, seen)
	if err != nil {
		return nil, err
	}
	merged := *m
	merged.IDMappings = append(append([]ResultMapping{}, parent.IDMappings...), m.IDMappings...)
	merged.Mappings = append(append([]ResultMapping{}, parent.Mappings...), m.Mappings...)
	merged.Associations = append(append([]Association{}, parent.Associations...), m.Associations...)
	merged.Collections = append(append([]Collection{}, parent.Collections...), m.Collections...)
	if merged.Discriminator == nil {
		merged.Discriminator = parent.Discriminator
	}
	return &merged, nil
}

// RegisterFragment installs a reusable SqlNode under id, for IncludeNode
// to splice by reference (spec §9 "Include fragment reuse").
func (c *Configuration) RegisterFragment(id string, node SQLNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fragments[id] = node
}

// Fragment looks up a registered fragment by id.
func (c *Configuration) Fragment(id string) (SQLNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.fragments[id]
	return n, ok
}

// RegisterGoType associates a ResultMap/Association/Collection
// TargetType/OfType name with the concrete Go type of sample, so the
// Hydrator can reflect.New it. Typically called once per mapped struct
// at bootstrap: cfg.RegisterGoType("User", User{}).
func (c *Configuration) RegisterGoType(name string, sample any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goTypes[name] = derefType(reflect.TypeOf(sample))
}

// GoType resolves a registered type name to its reflect.Type.
func (c *Configuration) GoType(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.goTypes[name]
	return t, ok
}
