package infer

import "github.com/vitalvas/typedoc/types"

// Args are resolved call arguments.
type Args []types.Arg

// Get returns the argument passed by name, or else the pos-th positional
// argument, or nil.
func (a Args) Get(name string, pos int) types.Type {
	if name != "" {
		for _, arg := range a {
			if arg.Name == name {
				return arg.Type
			}
		}
	}
	i := 0
	for _, arg := range a {
		if arg.Name != "" {
			continue
		}
		if i == pos {
			return arg.Type
		}
		i++
	}
	return nil
}

// GetOr is Get with a fallback.
func (a Args) GetOr(name string, pos int, def types.Type) types.Type {
	if t := a.Get(name, pos); t != nil {
		return t
	}
	return def
}

// Types returns the argument types in call order.
func (a Args) Types() []types.Type {
	out := make([]types.Type, len(a))
	for i, arg := range a {
		out[i] = arg.Type
	}
	return out
}

// ClassDefinitionCreatedEvent is delivered while a definition is being
// built. Hooks refine Definition in place or replace it.
type ClassDefinitionCreatedEvent struct {
	Index      *Index
	Definition *ClassDefinition
}

// MethodCallEvent describes an instance method call, including the
// constructor call ("__construct") of a new expression. Instance is a
// private copy of the receiver; changes to it have no effect unless the
// hook returns it. Definition is nil when the receiver is unknown.
type MethodCallEvent struct {
	Scope      *Scope
	Instance   types.Type
	Name       string
	Args       Args
	Definition *ClassDefinition
}

// Arg returns an argument by name or position.
func (e *MethodCallEvent) Arg(name string, pos int) types.Type {
	return e.Args.Get(name, pos)
}

// StaticMethodCallEvent describes a static method call on Class.
type StaticMethodCallEvent struct {
	Scope      *Scope
	Class      string
	Name       string
	Args       Args
	Definition *ClassDefinition
}

// Arg returns an argument by name or position.
func (e *StaticMethodCallEvent) Arg(name string, pos int) types.Type {
	return e.Args.Get(name, pos)
}

// PropertyFetchEvent describes a property read.
type PropertyFetchEvent struct {
	Scope      *Scope
	Instance   types.Type
	Name       string
	Definition *ClassDefinition
}

// SideEffectCallEvent describes a method call statement whose result is
// discarded. Instance is the live receiver: for a variable receiver it is
// the value bound in the scope, so in-place changes persist. Variable
// names that receiver.
type SideEffectCallEvent struct {
	Scope      *Scope
	Variable   string
	Instance   types.Type
	Name       string
	Args       Args
	Definition *ClassDefinition
	Result     types.Type
}

// Arg returns an argument by name or position.
func (e *SideEffectCallEvent) Arg(name string, pos int) types.Type {
	return e.Args.Get(name, pos)
}
