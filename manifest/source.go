package manifest

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// Source serves manifest declarations as raw class and function
// definitions. It implements infer.Source and infer.FunctionSource.
type Source struct {
	classes   map[string]*infer.ClassDefinition
	functions map[string]*infer.FunctionDefinition
	routes    []*route
}

// route is a Route with its expressions parsed.
type route struct {
	decl       *Route
	class      string
	method     string
	request    types.Type
	returns    types.Type
	variables  []types.Type
	statements []types.Type
}

// NewSource parses every type expression of m. All parse errors are
// reported together.
func NewSource(m *Manifest, p *Parser) (*Source, error) {
	s := &Source{
		classes:   make(map[string]*infer.ClassDefinition, len(m.Classes)),
		functions: make(map[string]*infer.FunctionDefinition, len(m.Functions)),
	}
	var errs []error
	for _, c := range m.Classes {
		def, err := buildClass(p, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.classes[def.Name] = def
	}
	for _, f := range m.Functions {
		fn, err := buildFunction(p, f, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
			continue
		}
		s.functions[fn.Name()] = fn
	}
	for _, r := range m.Routes {
		rt, err := buildRoute(p, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("route %s %s: %w", r.Method, r.URI, err))
			continue
		}
		s.routes = append(s.routes, rt)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Inspect implements infer.Source.
func (s *Source) Inspect(name string) (*infer.ClassDefinition, bool) {
	def, ok := s.classes[name]
	return def, ok
}

// InspectFunction implements infer.FunctionSource.
func (s *Source) InspectFunction(name string) (*infer.FunctionDefinition, bool) {
	fn, ok := s.functions[name]
	return fn, ok
}

// Classes returns the declared class names, sorted.
func (s *Source) Classes() []string {
	out := make([]string, 0, len(s.classes))
	for name := range s.classes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Routes returns the declared routes for one generation run. Route
// variables are resolved in order with r, so hooks observe them the way
// they observe the statements.
func (s *Source) Routes(r *infer.Resolver) []*openapi.RouteInfo {
	out := make([]*openapi.RouteInfo, 0, len(s.routes))
	for _, rt := range s.routes {
		scope := r.NewScope()
		if rt.class != "" {
			scope = scope.WithClass(rt.class)
		}
		for i, v := range rt.decl.Variables {
			scope.SetVar(strings.TrimPrefix(v.Name, "$"), scope.Resolve(types.Clone(rt.variables[i])))
		}

		info := &openapi.RouteInfo{
			Method:      strings.ToUpper(rt.decl.Method),
			URI:         rt.decl.URI,
			Name:        rt.decl.Name,
			Tags:        slices.Clone(rt.decl.Tags),
			Action:      rt.decl.Action,
			Class:       rt.class,
			ClassMethod: rt.method,
			Scope:       scope,
			Summary:     rt.decl.Summary,
			Description: rt.decl.Description,
			Deprecated:  rt.decl.Deprecated,
		}
		if rt.request != nil {
			info.RequestType = types.Clone(rt.request)
		}
		if rt.returns != nil {
			info.ReturnType = types.Clone(rt.returns)
		}
		for _, st := range rt.statements {
			info.Statements = append(info.Statements, types.Clone(st))
		}
		out = append(out, info)
	}
	return out
}

func buildClass(p *Parser, c *Class) (*infer.ClassDefinition, error) {
	def := infer.NewClassDefinition(className(c.Name))
	def.Parent = className(c.Parent)
	def.Abstract = c.Abstract
	for _, name := range slices.Concat(c.Interfaces, c.Uses) {
		def.Interfaces = append(def.Interfaces, className(name))
	}

	tpls, err := buildTemplates(p, c.Templates, nil)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", def.Name, err)
	}
	def.Templates = tpls

	for _, prop := range c.Properties {
		pd := &infer.PropertyDefinition{Name: strings.TrimPrefix(prop.Name, "$")}
		if pd.Type, err = parseIn(p, prop.Type, tpls); err != nil {
			return nil, fmt.Errorf("class %s: property %s: %w", def.Name, prop.Name, err)
		}
		if prop.Description != "" {
			pd.Type.SetAttr(types.AttrDescription, prop.Description)
		}
		if prop.ReadOnly {
			pd.Type.SetAttr(types.AttrReadOnly, true)
		}
		if prop.Default != "" {
			if pd.Default, err = parseIn(p, prop.Default, tpls); err != nil {
				return nil, fmt.Errorf("class %s: property %s default: %w", def.Name, prop.Name, err)
			}
		}
		def.SetProperty(pd)
	}

	for _, m := range c.Methods {
		fn, err := buildFunction(p, m, tpls)
		if err != nil {
			return nil, fmt.Errorf("class %s: method %s: %w", def.Name, m.Name, err)
		}
		def.SetMethod(fn)
	}
	return def, nil
}

// buildFunction builds a method or a global function. outer holds the
// templates of the declaring class.
func buildFunction(p *Parser, f *Function, outer []*types.Template) (*infer.FunctionDefinition, error) {
	own, err := buildTemplates(p, f.Templates, outer)
	if err != nil {
		return nil, err
	}
	scope := slices.Concat(outer, own)

	ret := types.Type(types.Mixed())
	if f.Returns != "" {
		if ret, err = parseIn(p, f.Returns, scope); err != nil {
			return nil, fmt.Errorf("returns: %w", err)
		}
	}
	fn := infer.NewMethod(f.Name, ret)
	fn.Static = f.Static
	fn.Type.Templates = own

	for _, param := range f.Params {
		pp := &types.Param{Name: strings.TrimPrefix(param.Name, "$"), Variadic: param.Variadic}
		pp.Type = types.Mixed()
		if param.Type != "" {
			if pp.Type, err = parseIn(p, param.Type, scope); err != nil {
				return nil, fmt.Errorf("param %s: %w", param.Name, err)
			}
		}
		if param.Default != "" {
			if pp.Default, err = parseIn(p, param.Default, scope); err != nil {
				return nil, fmt.Errorf("param %s default: %w", param.Name, err)
			}
		}
		fn.Type.Params = append(fn.Type.Params, pp)
	}
	if f.SelfOut != "" {
		if fn.SelfOut, err = parseIn(p, f.SelfOut, scope); err != nil {
			return nil, fmt.Errorf("selfOut: %w", err)
		}
	}
	for _, throws := range f.Throws {
		t, err := parseIn(p, throws, scope)
		if err != nil {
			return nil, fmt.Errorf("throws: %w", err)
		}
		fn.Type.Exceptions = append(fn.Type.Exceptions, t)
	}
	if f.Description != "" {
		fn.Type.SetAttr(types.AttrDescription, f.Description)
	}
	return fn, nil
}

// buildTemplates builds template parameters. Constraints and defaults may
// refer to outer templates and to earlier ones of the same list.
func buildTemplates(p *Parser, decls []*Template, outer []*types.Template) ([]*types.Template, error) {
	var out []*types.Template
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.New("template without a name")
		}
		t := types.NewTemplate(d.Name)
		scope := slices.Concat(outer, out)
		var err error
		if d.Of != "" {
			if t.Constraint, err = parseIn(p, d.Of, scope); err != nil {
				return nil, fmt.Errorf("template %s: %w", d.Name, err)
			}
		}
		if d.Default != "" {
			if t.Default, err = parseIn(p, d.Default, scope); err != nil {
				return nil, fmt.Errorf("template %s default: %w", d.Name, err)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// parseIn parses expr with the given templates in scope. Template nodes
// take the constraint and default of their declaration.
func parseIn(p *Parser, expr string, scope []*types.Template) (types.Type, error) {
	names := make([]string, len(scope))
	byName := make(map[string]*types.Template, len(scope))
	for i, t := range scope {
		names[i] = t.Name
		byName[t.Name] = t
	}
	t, err := p.Parse(expr, names...)
	if err != nil {
		return nil, err
	}
	if len(byName) == 0 {
		return t, nil
	}
	types.Visit(t, func(n types.Type) bool {
		if tpl, ok := n.(*types.Template); ok {
			if decl := byName[tpl.Name]; decl != nil {
				tpl.Constraint, tpl.Default = decl.Constraint, decl.Default
			}
		}
		return true
	})
	return t, nil
}

func buildRoute(p *Parser, r *Route) (*route, error) {
	rt := &route{decl: r}
	rt.class, rt.method = r.ClassMethod()

	var err error
	if r.Request != "" {
		if rt.request, err = p.Parse(r.Request); err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
	}
	if r.Returns != "" {
		if rt.returns, err = p.Parse(r.Returns); err != nil {
			return nil, fmt.Errorf("returns: %w", err)
		}
	}
	for _, v := range r.Variables {
		t, err := p.Parse(v.Type)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		rt.variables = append(rt.variables, t)
	}
	for _, st := range r.Statements {
		t, err := p.Parse(st)
		if err != nil {
			return nil, fmt.Errorf("statement: %w", err)
		}
		rt.statements = append(rt.statements, t)
	}
	return rt, nil
}
