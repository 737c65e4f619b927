package querybuilder

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

func isClass(t types.Type) bool {
	_, ok := types.ClassName(t)
	return ok
}

// MethodsHook treats every QueryBuilder method without a synthetic
// definition as fluent, so chains through query methods keep the builder.
type MethodsHook struct{}

// HookName implements infer.Named.
func (MethodsHook) HookName() string { return "querybuilder.methods" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (MethodsHook) ShouldHandleType(t types.Type) bool { return isClass(t) }

// MethodReturnType implements infer.MethodReturnTypeHook.
func (MethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if !types.IsInstanceOf(ev.Scope.Hierarchy(), ev.Instance, QueryBuilderClass) {
		return nil
	}
	switch ev.Name {
	case "allowedFilters", "allowedSorts", "allowedIncludes", "defaultSorts", "defaultSort", "allowedFields", "__construct":
		return nil
	}
	return ev.Instance
}

// FilterHook builds AllowedFilter instances from its static constructors
// and tracks the fluent modifiers.
type FilterHook struct {
	ext *Extension
}

// HookName implements infer.Named.
func (h *FilterHook) HookName() string { return "querybuilder.allowedFilter" }

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (h *FilterHook) ShouldHandle(class string) bool { return class != "" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (h *FilterHook) ShouldHandleType(t types.Type) bool { return isClass(t) }

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (h *FilterHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	if !types.IsSubclassOf(ev.Scope.Hierarchy(), ev.Class, AllowedFilterClass) {
		return nil
	}
	m := h.ext.Filter
	switch ev.Name {
	case "exact", "partial", "beginsWithStrict", "endsWithStrict", "belongsTo", "scope":
		return m.Create(map[string]types.Type{
			"name":         ev.Arg("name", 0),
			"internalName": ev.Args.GetOr("internalName", 1, types.Null()),
		})
	case "callback":
		return m.Create(map[string]types.Type{
			"name":         ev.Arg("name", 0),
			"filterClass":  types.NewGeneric(FiltersCallbackClass, ev.Args.GetOr("callback", 1, types.Mixed())),
			"internalName": ev.Args.GetOr("internalName", 2, types.Null()),
		})
	case "custom":
		return m.Create(map[string]types.Type{
			"name":         ev.Arg("name", 0),
			"filterClass":  ev.Arg("filterClass", 1),
			"internalName": ev.Args.GetOr("internalName", 2, types.Null()),
		})
	case "operator":
		return m.Create(map[string]types.Type{
			"name": ev.Arg("name", 0),
			"filterClass": types.NewGeneric(FiltersOperatorClass,
				ev.Args.GetOr("addRelationConstraint", 4, types.LiteralBool(true)),
				ev.Args.GetOr("filterOperator", 1, types.Mixed()),
				ev.Args.GetOr("boolean", 2, types.LiteralString("and")),
			),
			"internalName": ev.Args.GetOr("internalName", 3, types.Null()),
		})
	case "trashed":
		return m.Create(map[string]types.Type{
			"name":         ev.Args.GetOr("name", 0, types.LiteralString("trashed")),
			"filterClass":  types.NewObject(FiltersTrashedClass),
			"internalName": ev.Args.GetOr("internalName", 1, types.Null()),
		})
	}
	return nil
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (h *FilterHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	g, ok := ev.Instance.(*types.Generic)
	if !ok || g.Name != AllowedFilterClass {
		return nil
	}
	m := h.ext.Filter
	switch ev.Name {
	case "default":
		return m.WithProperties(g, map[string]types.Type{
			"default":    ev.Args.GetOr("value", 0, types.Null()),
			"hasDefault": types.LiteralBool(true),
		})
	case "unsetDefault":
		return m.WithProperties(g, map[string]types.Type{
			"default":    types.Mixed(),
			"hasDefault": types.LiteralBool(false),
		})
	case "nullable":
		return m.WithProperties(g, map[string]types.Type{
			"nullable": ev.Args.GetOr("nullable", 0, types.LiteralBool(true)),
		})
	case "ignore":
		return m.WithProperties(g, map[string]types.Type{
			"ignored": ev.Args.GetOr("values", 0, types.Mixed()),
		})
	}
	return nil
}

// SortHook builds AllowedSort instances.
type SortHook struct {
	ext *Extension
}

// HookName implements infer.Named.
func (h *SortHook) HookName() string { return "querybuilder.allowedSort" }

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (h *SortHook) ShouldHandle(class string) bool { return class != "" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (h *SortHook) ShouldHandleType(t types.Type) bool { return isClass(t) }

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (h *SortHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	if !types.IsSubclassOf(ev.Scope.Hierarchy(), ev.Class, AllowedSortClass) {
		return nil
	}
	switch ev.Name {
	case "custom", "callback", "field":
		return h.ext.Sort.Create(map[string]types.Type{"name": ev.Arg("name", 0)})
	}
	return nil
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (h *SortHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	g, ok := ev.Instance.(*types.Generic)
	if !ok || g.Name != AllowedSortClass {
		return nil
	}
	switch ev.Name {
	case "ignore":
		return h.ext.Sort.WithProperties(g, map[string]types.Type{"ignored": ev.Args.GetOr("values", 0, types.Mixed())})
	case "defaultDirection":
		return h.ext.Sort.WithProperties(g, map[string]types.Type{"defaultDirection": ev.Args.GetOr("direction", 0, types.Mixed())})
	}
	return nil
}

// IncludeHook builds AllowedInclude instances.
type IncludeHook struct {
	ext *Extension
}

// HookName implements infer.Named.
func (h *IncludeHook) HookName() string { return "querybuilder.allowedInclude" }

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (h *IncludeHook) ShouldHandle(class string) bool { return class != "" }

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (h *IncludeHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	if !types.IsSubclassOf(ev.Scope.Hierarchy(), ev.Class, AllowedIncludeClass) {
		return nil
	}
	m := h.ext.Include
	create := func(includeClass types.Type, internalPos int) types.Type {
		return m.Create(map[string]types.Type{
			"name":         ev.Arg("name", 0),
			"includeClass": includeClass,
			"internalName": ev.Args.GetOr("internalName", internalPos, types.Null()),
		})
	}
	switch ev.Name {
	case "relationship":
		return create(types.NewObject(IncludedRelationshipClass), 1)
	case "count":
		return create(types.NewObject(IncludedCountClass), 1)
	case "exists":
		return create(types.NewObject(IncludedExistsClass), 1)
	case "callback":
		return create(types.NewObject(IncludedCallbackClass), 1)
	case "custom":
		return create(ev.Args.GetOr("includeClass", 1, types.Mixed()), 2)
	}
	return nil
}
