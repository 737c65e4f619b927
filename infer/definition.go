package infer

import (
	"slices"

	"github.com/vitalvas/typedoc/types"
)

// DefinitionID is the arena id of a class definition. Ids are assigned by
// the index in creation order and are stable for the run, so hooks can key
// per-run caches on them.
type DefinitionID uint32

// PropertyDefinition is a declared or synthetic class property.
type PropertyDefinition struct {
	Name    string
	Type    types.Type
	Default types.Type
}

// FunctionDefinition describes a method or a global function.
type FunctionDefinition struct {
	Type *types.Function

	// SelfOut is the receiver's type after the call. A Generic named "self"
	// refers to the receiver's class; Placeholder arguments keep the
	// receiver's current argument in that slot.
	SelfOut types.Type

	DefiningClass string
	Static        bool
}

// NewMethod returns a method definition with the given signature.
func NewMethod(name string, ret types.Type, params ...*types.Param) *FunctionDefinition {
	return &FunctionDefinition{
		Type: &types.Function{Name: name, Params: params, Return: ret},
	}
}

// Name returns the function name.
func (f *FunctionDefinition) Name() string {
	return f.Type.Name
}

func (f *FunctionDefinition) clone() *FunctionDefinition {
	c := *f
	c.Type = types.Clone(f.Type).(*types.Function)
	c.Type.Templates = cloneTemplates(f.Type.Templates)
	if f.SelfOut != nil {
		c.SelfOut = types.Clone(f.SelfOut)
	}
	return &c
}

// ClassDefinition is the analyzed shape of one class.
type ClassDefinition struct {
	ID         DefinitionID
	Name       string
	Parent     string
	Interfaces []string
	Abstract   bool

	// Templates is the ordered template parameter list. Generic arguments
	// bind to it positionally, so it may only be appended to once hooks
	// depend on the order.
	Templates []*types.Template

	// Properties keep declaration order.
	Properties []*PropertyDefinition
	Methods    map[string]*FunctionDefinition

	// Shallow marks definitions synthesized by hooks rather than built from
	// declared members.
	Shallow bool
}

// NewClassDefinition returns an empty definition for name.
func NewClassDefinition(name string) *ClassDefinition {
	return &ClassDefinition{
		Name:    name,
		Methods: make(map[string]*FunctionDefinition),
	}
}

// Template returns the template parameter called name and its position,
// or nil and -1.
func (d *ClassDefinition) Template(name string) (*types.Template, int) {
	for i, t := range d.Templates {
		if t.Name == name {
			return t, i
		}
	}
	return nil, -1
}

// AddTemplate appends a template parameter unless one with the same name
// exists. It returns the parameter held by the definition.
func (d *ClassDefinition) AddTemplate(t *types.Template) *types.Template {
	if existing, _ := d.Template(t.Name); existing != nil {
		return existing
	}
	d.Templates = append(d.Templates, t)
	return t
}

// Property returns the property declared on this class itself.
func (d *ClassDefinition) Property(name string) *PropertyDefinition {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SetProperty adds or replaces a property, keeping the original position
// on replacement.
func (d *ClassDefinition) SetProperty(p *PropertyDefinition) {
	for i, existing := range d.Properties {
		if existing.Name == p.Name {
			d.Properties[i] = p
			return
		}
	}
	d.Properties = append(d.Properties, p)
}

// Method returns the method declared on this class itself.
func (d *ClassDefinition) Method(name string) *FunctionDefinition {
	return d.Methods[name]
}

// HasMethod reports whether the class itself declares name.
func (d *ClassDefinition) HasMethod(name string) bool {
	_, ok := d.Methods[name]
	return ok
}

// SetMethod adds or replaces a method.
func (d *ClassDefinition) SetMethod(m *FunctionDefinition) {
	if d.Methods == nil {
		d.Methods = make(map[string]*FunctionDefinition)
	}
	if m.DefiningClass == "" {
		m.DefiningClass = d.Name
	}
	d.Methods[m.Name()] = m
}

// Clone returns a deep copy of the definition. The id is kept.
func (d *ClassDefinition) Clone() *ClassDefinition {
	c := &ClassDefinition{
		ID:         d.ID,
		Name:       d.Name,
		Parent:     d.Parent,
		Interfaces: slices.Clone(d.Interfaces),
		Abstract:   d.Abstract,
		Templates:  cloneTemplates(d.Templates),
		Methods:    make(map[string]*FunctionDefinition, len(d.Methods)),
		Shallow:    d.Shallow,
	}
	for _, p := range d.Properties {
		cp := *p
		if p.Type != nil {
			cp.Type = types.Clone(p.Type)
		}
		c.Properties = append(c.Properties, &cp)
	}
	for name, m := range d.Methods {
		c.Methods[name] = m.clone()
	}
	return c
}

func cloneTemplates(in []*types.Template) []*types.Template {
	if in == nil {
		return nil
	}
	out := make([]*types.Template, len(in))
	for i, t := range in {
		out[i] = types.Clone(t).(*types.Template)
	}
	return out
}

// AddOrderedTemplates makes the named templates lead the definition's
// template list in the given order. Existing templates with those names
// are moved; missing ones are taken from ordered. Any other templates
// follow in their previous order.
func AddOrderedTemplates(d *ClassDefinition, ordered ...*types.Template) {
	out := make([]*types.Template, 0, len(d.Templates)+len(ordered))
	taken := make(map[string]bool, len(ordered))
	for _, want := range ordered {
		if existing, _ := d.Template(want.Name); existing != nil {
			out = append(out, existing)
		} else {
			out = append(out, want)
		}
		taken[want.Name] = true
	}
	for _, t := range d.Templates {
		if !taken[t.Name] {
			out = append(out, t)
		}
	}
	d.Templates = out
}
