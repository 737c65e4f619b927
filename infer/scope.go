package infer

import "github.com/vitalvas/typedoc/types"

// Scope is the resolution context of one call site: template bindings,
// lexical variables and the class that "self" refers to. Scopes chain to
// their parent; lookups walk the chain, writes stay local.
type Scope struct {
	resolver *Resolver
	parent   *Scope

	// Class is the class "self" and "static" refer to.
	Class string

	bindings map[string]types.Type
	vars     map[string]types.Type
}

// NewScope returns a root scope bound to r.
func (r *Resolver) NewScope() *Scope {
	return &Scope{resolver: r}
}

// Child returns a scope inheriting bindings, variables and class from s.
func (s *Scope) Child() *Scope {
	return &Scope{resolver: s.resolver, parent: s, Class: s.Class}
}

// WithClass returns a child scope where self is class.
func (s *Scope) WithClass(class string) *Scope {
	c := s.Child()
	c.Class = class
	return c
}

// Resolver returns the resolver that owns the scope.
func (s *Scope) Resolver() *Resolver {
	return s.resolver
}

// Index returns the definition index of the run.
func (s *Scope) Index() *Index {
	return s.resolver.index
}

// Hierarchy returns the inheritance graph hooks use for instance checks.
func (s *Scope) Hierarchy() types.Hierarchy {
	return s.resolver.index
}

// Resolve resolves t in this scope.
func (s *Scope) Resolve(t types.Type) types.Type {
	return s.resolver.Resolve(s, t)
}

// Bind binds a template name in this scope.
func (s *Scope) Bind(name string, t types.Type) *Scope {
	if s.bindings == nil {
		s.bindings = make(map[string]types.Type)
	}
	s.bindings[name] = t
	return s
}

// BindAll binds every entry of m.
func (s *Scope) BindAll(m map[string]types.Type) *Scope {
	for name, t := range m {
		s.Bind(name, t)
	}
	return s
}

// Binding looks a template name up along the scope chain.
func (s *Scope) Binding(name string) (types.Type, bool) {
	for c := s; c != nil; c = c.parent {
		if t, ok := c.bindings[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (s *Scope) hasOwnBinding(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// SetVar assigns a variable. An existing variable is updated in the scope
// that declares it.
func (s *Scope) SetVar(name string, t types.Type) {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			c.vars[name] = t
			return
		}
	}
	if s.vars == nil {
		s.vars = make(map[string]types.Type)
	}
	s.vars[name] = t
}

// Var returns the live value of a variable.
func (s *Scope) Var(name string) (types.Type, bool) {
	for c := s; c != nil; c = c.parent {
		if t, ok := c.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}
