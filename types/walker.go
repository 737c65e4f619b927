package types

// SlotsFunc returns writable child slots of a node. It decides how far Map
// descends.
type SlotsFunc func(t Type) []*Type

// Slots is the default SlotsFunc: every structural child except template
// constraints and defaults.
func Slots(t Type) []*Type {
	switch v := t.(type) {
	case *ArrayOf:
		if v.Key != nil {
			return []*Type{&v.Key, &v.Value}
		}
		return []*Type{&v.Value}
	case *Shape:
		out := make([]*Type, len(v.Items))
		for i, item := range v.Items {
			out[i] = &item.Value
		}
		return out
	case *Union:
		return sliceSlots(v.Members)
	case *Generic:
		return sliceSlots(v.Args)
	case *Function:
		out := make([]*Type, 0, len(v.Params)+1+len(v.Exceptions))
		for _, p := range v.Params {
			out = append(out, &p.Type)
		}
		out = append(out, &v.Return)
		return append(out, sliceSlots(v.Exceptions)...)
	case *Reference:
		var out []*Type
		if v.Subject != nil {
			out = append(out, &v.Subject)
		}
		for i := range v.Args {
			out = append(out, &v.Args[i].Type)
		}
		return out
	case *Computed:
		return sliceSlots(v.Inputs)
	}
	return nil
}

func sliceSlots(ts []Type) []*Type {
	out := make([]*Type, len(ts))
	for i := range ts {
		out[i] = &ts[i]
	}
	return out
}

// Children returns the direct children of t in Slots order.
func Children(t Type) []Type {
	slots := Slots(t)
	out := make([]Type, 0, len(slots))
	for _, s := range slots {
		if *s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Visit calls fn on every type reachable from t in pre-order. Returning
// false from fn skips the children of that node. Each node is visited once.
func Visit(t Type, fn func(Type) bool) {
	seen := make(map[Type]bool)
	var walk func(Type)
	walk = func(t Type) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		if !fn(t) {
			return
		}
		for _, c := range Children(t) {
			walk(c)
		}
	}
	walk(t)
}

// Contains reports whether any type reachable from t satisfies pred.
func Contains(t Type, pred func(Type) bool) bool {
	found := false
	Visit(t, func(t Type) bool {
		if found {
			return false
		}
		if pred(t) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Find returns every reachable type satisfying pred, in pre-order.
func Find(t Type, pred func(Type) bool) []Type {
	var out []Type
	Visit(t, func(t Type) bool {
		if pred(t) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// MapFunc returns a replacement for t and true, or false to keep t and
// descend into its children.
type MapFunc func(t Type) (Type, bool)

// Map returns a copy of t in which every node for which fn reports a
// replacement is replaced. Replacements are not descended into. slots
// chooses the children to descend into; nil means Slots. A node reachable
// several times, including through a cycle, is copied once and the copy is
// shared.
func Map(t Type, fn MapFunc, slots SlotsFunc) Type {
	if slots == nil {
		slots = Slots
	}
	m := &mapper{fn: fn, slots: slots, done: make(map[Type]Type)}
	return m.walk(t)
}

type mapper struct {
	fn    MapFunc
	slots SlotsFunc
	done  map[Type]Type
}

func (m *mapper) walk(t Type) Type {
	if t == nil {
		return nil
	}
	if m.fn != nil {
		if r, ok := m.fn(t); ok {
			return r
		}
	}
	if c, ok := m.done[t]; ok {
		return c
	}
	c := shallowClone(t)
	m.done[t] = c
	for _, slot := range m.slots(c) {
		*slot = m.walk(*slot)
	}
	return c
}

// Clone returns a deep copy of t with attributes preserved.
func Clone(t Type) Type {
	return Map(t, nil, nil)
}

// Substitute replaces templates by name. Bound values are cloned so the
// result never aliases bindings. Unbound templates are kept.
func Substitute(t Type, bindings map[string]Type) Type {
	if len(bindings) == 0 {
		return Clone(t)
	}
	return Map(t, func(t Type) (Type, bool) {
		tpl, ok := t.(*Template)
		if !ok {
			return nil, false
		}
		bound, ok := bindings[tpl.Name]
		if !ok || bound == nil {
			return nil, false
		}
		return Clone(bound), true
	}, nil)
}

func shallowClone(t Type) Type {
	switch v := t.(type) {
	case *Scalar:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Literal:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *ArrayOf:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Shape:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Items = make([]*ShapeItem, len(v.Items))
		for i, item := range v.Items {
			ci := *item
			ci.Attrs = item.Attrs.clone()
			c.Items[i] = &ci
		}
		return &c
	case *Union:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Members = append([]Type(nil), v.Members...)
		return &c
	case *Object:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Generic:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Args = append([]Type(nil), v.Args...)
		return &c
	case *Template:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Function:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Params = make([]*Param, len(v.Params))
		for i, p := range v.Params {
			cp := *p
			c.Params[i] = &cp
		}
		c.Templates = append([]*Template(nil), v.Templates...)
		c.Exceptions = append([]Type(nil), v.Exceptions...)
		return &c
	case *Reference:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Args = append([]Arg(nil), v.Args...)
		return &c
	case *ClassString:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Var:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Placeholder:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	case *Computed:
		c := *v
		c.Attrs = v.Attrs.clone()
		c.Inputs = append([]Type(nil), v.Inputs...)
		return &c
	case *Unknown:
		c := *v
		c.Attrs = v.Attrs.clone()
		return &c
	}
	return t
}
