package querybuilder

import (
	"strings"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// AttrVar holds a types.Type describing the value of a filter. It is read
// from the filter's name literal, and defaults to string.
const AttrVar = "var"

const (
	trashedDescription  = "Can be a value of `with` (response will contain deleted items as well), `only` (will contain only deleted items), or any arbitrary value (will contain only not deleted items)."
	operatorDescription = "Supports operators in the value: `>`, `<`, `>=`, `<=`, `<>`, or none (indicating equality). For example: `>value` for greater than `value`, or `value` for equal."
)

// ParametersExtractor documents the query parameters a route's builders
// accept: filter[name], sort, include and fields.
type ParametersExtractor struct {
	ext *Extension
	tr  *openapi.Transformer
}

// HookName implements infer.Named.
func (p *ParametersExtractor) HookName() string { return "querybuilder.parameters" }

// Extract implements openapi.ParameterExtractor.
func (p *ParametersExtractor) Extract(route *openapi.RouteInfo, _ []*openapi.Parameter) []*openapi.Parameter {
	builders := p.builders(route)
	if len(builders) == 0 {
		return nil
	}

	var out []*openapi.Parameter
	for _, b := range builders {
		for _, f := range p.items(b, "allowedFilters", AllowedFilterClass) {
			if param := p.filterParameter(f); param != nil {
				out = append(out, param)
			}
		}
	}
	for _, b := range builders {
		if param := p.sortParameter(b); param != nil {
			out = append(out, param)
		}
	}
	if param := p.includeParameter(builders); param != nil {
		out = append(out, param)
	}
	return append(out, p.fieldsParameters(builders)...)
}

// builders returns the builders recorded for the route's scope followed by
// the route's return type when it is a builder.
func (p *ParametersExtractor) builders(route *openapi.RouteInfo) []*types.Generic {
	var out []*types.Generic
	add := func(t types.Type) {
		g, ok := t.(*types.Generic)
		if !ok || g.Name != QueryBuilderClass {
			return
		}
		for _, existing := range out {
			if types.Same(existing, g) {
				return
			}
		}
		out = append(out, g)
	}

	if route.Scope == nil {
		return nil
	}
	for _, b := range p.ext.effects.Builders(route.Scope) {
		add(b)
	}
	if route.ReturnType != nil {
		add(route.Scope.Resolve(route.ReturnType))
	}
	return out
}

// items returns the instances of class stored in a list property of the
// builder. Nested lists, as produced by include names, are flattened.
func (p *ParametersExtractor) items(builder *types.Generic, property, class string) []*types.Generic {
	shape, ok := p.ext.QueryBuilder.Property(builder, property).(*types.Shape)
	if !ok {
		return nil
	}
	var out []*types.Generic
	var walk func(s *types.Shape)
	walk = func(s *types.Shape) {
		for _, item := range s.Items {
			switch v := item.Value.(type) {
			case *types.Shape:
				walk(v)
			case *types.Generic:
				if types.IsInstanceOf(p.tr.Index(), v, class) {
					out = append(out, v)
				}
			}
		}
	}
	walk(shape)
	return out
}

func (p *ParametersExtractor) filterParameter(filter *types.Generic) *openapi.Parameter {
	m := p.ext.Filter
	name, ok := m.PropertyString(filter, "name")
	if !ok || name == "" {
		return nil
	}

	schema := &openapi.Schema{Type: openapi.TypeString("string")}
	if v, ok := filter.Attr(AttrVar); ok {
		if t, ok := v.(types.Type); ok {
			schema = p.tr.Transform(t)
		}
	}
	if format, ok := types.StringAttr(filter, types.AttrFormat); ok {
		schema.Format = format
	}
	if example, ok := filter.Attr(types.AttrExample); ok {
		schema.Example = example
	}
	if def, ok := filter.Attr(types.AttrDefault); ok {
		schema.Default = def
	} else if lit, ok := m.Property(filter, "default").(*types.Literal); ok {
		schema.Default = lit.Value
	}

	return &openapi.Parameter{
		Name:        "filter[" + name + "]",
		In:          "query",
		Description: p.describe(filter),
		Schema:      schema,
	}
}

func (p *ParametersExtractor) describe(filter *types.Generic) string {
	var parts []string
	if desc, ok := types.StringAttr(filter, types.AttrDescription); ok && desc != "" {
		parts = append(parts, desc)
	}
	filterClass := p.ext.Filter.Property(filter, "filterClass")
	if o, ok := filterClass.(*types.Object); ok && types.IsSubclassOf(p.tr.Index(), o.Name, FiltersTrashedClass) {
		parts = append(parts, trashedDescription)
	}
	if isDynamicOperator(filterClass) {
		parts = append(parts, operatorDescription)
	}
	return strings.Join(parts, ". ")
}

// isDynamicOperator reports whether a filter class is FiltersOperator with
// the DYNAMIC operator, spelled "DYNAMIC" or "FilterOperator::DYNAMIC".
func isDynamicOperator(t types.Type) bool {
	g, ok := t.(*types.Generic)
	if !ok || g.Name != FiltersOperatorClass || len(g.Args) < 2 {
		return false
	}
	lit, ok := g.Args[1].(*types.Literal)
	if !ok {
		return false
	}
	v, _ := lit.StringValue()
	return v == "DYNAMIC" || strings.HasSuffix(v, "::DYNAMIC")
}

func (p *ParametersExtractor) sortParameter(builder *types.Generic) *openapi.Parameter {
	var names []string
	for _, s := range p.items(builder, "allowedSorts", AllowedSortClass) {
		if name, ok := p.ext.Sort.PropertyString(s, "name"); ok && name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	schema := &openapi.Schema{Type: openapi.TypeString("string")}
	if defaults := p.defaultSorts(builder); len(defaults) > 0 {
		schema.Default = strings.Join(defaults, ", ")
	}
	return &openapi.Parameter{
		Name: "sort",
		In:   "query",
		Description: "Available sorts are " + quoteList(names) + ". You can sort by multiple options by separating them with a comma. " +
			"To sort in descending order, use `-` sign in front of the sort, for example: `-" + names[0] + "`.",
		Schema: schema,
	}
}

func (p *ParametersExtractor) defaultSorts(builder *types.Generic) []string {
	var out []string
	for _, s := range p.items(builder, "defaultSorts", AllowedSortClass) {
		name, _ := p.ext.Sort.PropertyString(s, "name")
		direction, _ := p.ext.Sort.PropertyString(s, "defaultDirection")
		if name == "" {
			continue
		}
		if direction == SortDescending {
			name = "-" + name
		}
		out = append(out, name)
	}
	return out
}

func (p *ParametersExtractor) includeParameter(builders []*types.Generic) *openapi.Parameter {
	var names []string
	for _, b := range builders {
		for _, inc := range p.items(b, "allowedIncludes", AllowedIncludeClass) {
			if name, ok := p.ext.Include.PropertyString(inc, "name"); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &openapi.Parameter{
		Name:        "include",
		In:          "query",
		Description: "Available includes are " + quoteList(names) + ". You can include multiple options by separating them with a comma.",
		Schema:      &openapi.Schema{Type: openapi.TypeString("string")},
	}
}

// fieldsParameters groups allowed fields by their relation prefix:
// "name" goes to fields, "posts.title" to fields[posts].
func (p *ParametersExtractor) fieldsParameters(builders []*types.Generic) []*openapi.Parameter {
	var groups []string
	fields := make(map[string][]string)
	for _, b := range builders {
		for _, field := range types.LiteralStrings(p.ext.QueryBuilder.Property(b, "allowedFields")) {
			if field == "" {
				continue
			}
			group, name := "", field
			if before, after, found := strings.Cut(field, "."); found {
				group, name = before, after
			}
			if _, ok := fields[group]; !ok {
				groups = append(groups, group)
			}
			fields[group] = append(fields[group], name)
		}
	}

	out := make([]*openapi.Parameter, 0, len(groups))
	for _, group := range groups {
		name := "fields"
		if group != "" {
			name = "fields[" + group + "]"
		}
		out = append(out, &openapi.Parameter{
			Name:        name,
			In:          "query",
			Description: "Available fields are " + quoteList(fields[group]) + ". You can include multiple options by separating them with a comma.",
			Schema:      &openapi.Schema{Type: openapi.TypeString("string")},
		})
	}
	return out
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
