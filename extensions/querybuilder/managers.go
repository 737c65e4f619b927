package querybuilder

import (
	"strings"

	"github.com/vitalvas/typedoc/types"
)

// Class names of the query builder package.
const (
	QueryBuilderClass   = `Spatie\QueryBuilder\QueryBuilder`
	AllowedFilterClass  = `Spatie\QueryBuilder\AllowedFilter`
	AllowedSortClass    = `Spatie\QueryBuilder\AllowedSort`
	AllowedIncludeClass = `Spatie\QueryBuilder\AllowedInclude`

	FiltersCallbackClass = `Spatie\QueryBuilder\Filters\FiltersCallback`
	FiltersOperatorClass = `Spatie\QueryBuilder\Filters\FiltersOperator`
	FiltersTrashedClass  = `Spatie\QueryBuilder\Filters\FiltersTrashed`

	IncludedRelationshipClass = `Spatie\QueryBuilder\Includes\IncludedRelationship`
	IncludedCountClass        = `Spatie\QueryBuilder\Includes\IncludedCount`
	IncludedExistsClass       = `Spatie\QueryBuilder\Includes\IncludedExists`
	IncludedCallbackClass     = `Spatie\QueryBuilder\Includes\IncludedCallback`
)

// Sort directions as the query builder spells them.
const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

// Manager maps the properties of a synthetic generic class onto its
// template arguments. Property i is stored in argument i.
type Manager struct {
	class      string
	properties []string
	templates  []string
	defaults   map[string]func() types.Type
}

func newManager(class string, pairs ...string) *Manager {
	m := &Manager{class: class, defaults: make(map[string]func() types.Type)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.properties = append(m.properties, pairs[i])
		m.templates = append(m.templates, pairs[i+1])
	}
	return m
}

// Class returns the managed class name.
func (m *Manager) Class() string {
	return m.class
}

// Properties returns the property names in template order.
func (m *Manager) Properties() []string {
	return append([]string(nil), m.properties...)
}

// Templates returns fresh template parameters in declaration order.
func (m *Manager) Templates() []*types.Template {
	out := make([]*types.Template, len(m.templates))
	for i, name := range m.templates {
		out[i] = types.NewTemplate(name)
	}
	return out
}

func (m *Manager) index(property string) int {
	for i, p := range m.properties {
		if p == property {
			return i
		}
	}
	return -1
}

func (m *Manager) defaultOf(property string) types.Type {
	if fn, ok := m.defaults[property]; ok {
		return fn()
	}
	return types.Mixed()
}

// Create returns an instance with the given properties set and every other
// property at its default.
func (m *Manager) Create(props map[string]types.Type) *types.Generic {
	args := make([]types.Type, len(m.properties))
	for i, p := range m.properties {
		if t, ok := props[p]; ok && t != nil {
			args[i] = t
			continue
		}
		args[i] = m.defaultOf(p)
	}
	return types.NewGeneric(m.class, args...)
}

// Property returns the type stored for property, or nil when t is not an
// instance of the managed class or the argument is missing.
func (m *Manager) Property(t types.Type, property string) types.Type {
	g, ok := t.(*types.Generic)
	if !ok || g.Name != m.class {
		return nil
	}
	i := m.index(property)
	if i < 0 || i >= len(g.Args) {
		return nil
	}
	return g.Args[i]
}

// PropertyString returns the string literal stored for property.
func (m *Manager) PropertyString(t types.Type, property string) (string, bool) {
	lit, ok := m.Property(t, property).(*types.Literal)
	if !ok {
		return "", false
	}
	return lit.StringValue()
}

// WithProperties stores props into g and returns it. Unknown property names
// are ignored; missing arguments are filled with defaults first.
func (m *Manager) WithProperties(g *types.Generic, props map[string]types.Type) *types.Generic {
	for len(g.Args) < len(m.properties) {
		g.Args = append(g.Args, m.defaultOf(m.properties[len(g.Args)]))
	}
	for p, t := range props {
		if i := m.index(p); i >= 0 {
			g.Args[i] = t
		}
	}
	return g
}

// NewQueryBuilderManager returns the manager of QueryBuilder instances.
func NewQueryBuilderManager() *Manager {
	return newManager(QueryBuilderClass,
		"request", "TRequest",
		"subject", "TSubject",
		"allowedFilters", "TAllowedFilters",
		"allowedSorts", "TAllowedSorts",
		"allowedIncludes", "TAllowedIncludes",
		"allowedFields", "TAllowedFields",
		"defaultSorts", "TDefaultSorts",
	)
}

// NewFilterManager returns the manager of AllowedFilter instances.
func NewFilterManager() *Manager {
	return newManager(AllowedFilterClass,
		"internalName", "TInternalName",
		"ignored", "TIgnored",
		"default", "TDefault",
		"hasDefault", "THasDefault",
		"nullable", "TNullable",
		"name", "TName",
		"filterClass", "TFilterClass",
	)
}

// NewSortManager returns the manager of AllowedSort instances.
func NewSortManager() *Manager {
	return newManager(AllowedSortClass,
		"defaultDirection", "TDefaultDirection",
		"internalName", "TInternalName",
		"name", "TName",
		"sortClass", "TSortClass",
	)
}

// NewIncludeManager returns the manager of AllowedInclude instances.
func NewIncludeManager() *Manager {
	m := newManager(AllowedIncludeClass,
		"internalName", "TInternalName",
		"name", "TName",
		"includeClass", "TIncludeClass",
	)
	m.defaults["includeClass"] = func() types.Type { return types.NewObject(IncludedRelationshipClass) }
	return m
}

// DefaultSort builds the sort described by a default sort string such as
// "-created_at".
func DefaultSort(m *Manager, name string) *types.Generic {
	direction := SortAscending
	if strings.HasPrefix(name, "-") {
		direction = SortDescending
	}
	return m.Create(map[string]types.Type{
		"defaultDirection": types.LiteralString(direction),
		"name":             types.LiteralString(strings.Replace(name, "-", "", 1)),
	})
}

// Includes expands an include name into the includes the query builder
// registers for it: the relationship itself and, for direct relationships,
// its count and exists variants.
func Includes(m *Manager, name, countSuffix, existsSuffix string) *types.Shape {
	out := types.NewList(m.Create(map[string]types.Type{
		"name":         types.LiteralString(name),
		"includeClass": types.NewObject(IncludedRelationshipClass),
	}))
	if strings.Contains(name, ".") {
		return out
	}
	out.Items = append(out.Items,
		&types.ShapeItem{Value: m.Create(map[string]types.Type{
			"name":         types.LiteralString(name + countSuffix),
			"includeClass": types.NewObject(IncludedCountClass),
		})},
		&types.ShapeItem{Value: m.Create(map[string]types.Type{
			"name":         types.LiteralString(name + existsSuffix),
			"includeClass": types.NewObject(IncludedExistsClass),
		})},
	)
	return out
}
