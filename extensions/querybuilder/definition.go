package querybuilder

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// DefinitionHook replaces the declared QueryBuilder definition with a
// synthetic one. Every builder property is a template argument, and the
// allowed* methods record their arguments in the receiver's self-out type.
type DefinitionHook struct {
	ext *Extension
}

// HookName implements infer.Named.
func (h *DefinitionHook) HookName() string { return "querybuilder.definition" }

// ShouldHandle implements infer.ClassDefinitionHook.
func (h *DefinitionHook) ShouldHandle(class string) bool {
	return class == QueryBuilderClass
}

// AfterClassDefinitionCreated implements infer.ClassDefinitionHook.
func (h *DefinitionHook) AfterClassDefinitionCreated(ev *infer.ClassDefinitionCreatedEvent) {
	qb := h.ext.QueryBuilder
	def := ev.Definition

	def.Templates = nil
	for i, tpl := range qb.Templates() {
		def.Templates = append(def.Templates, tpl)
		def.SetProperty(&infer.PropertyDefinition{Name: qb.properties[i], Type: types.NewTemplate(tpl.Name)})
	}

	subject := types.NewTemplate("TForSubject")
	forMethod := &infer.FunctionDefinition{
		Type: &types.Function{
			Name:      "for",
			Params:    []*types.Param{{Name: "subject", Type: subject}},
			Return:    qb.Create(map[string]types.Type{"subject": types.NewTemplate(subject.Name)}),
			Templates: []*types.Template{subject},
		},
		Static: true,
	}
	def.SetMethod(forMethod)

	def.SetMethod(infer.NewMethod("__construct", types.Void(),
		&types.Param{Name: "subject", Type: types.NewTemplate("TSubject")},
		&types.Param{Name: "request", Type: types.NewTemplate("TRequest"), Default: types.Null()},
	))

	filters := func(name *types.Literal) types.Type {
		return h.ext.Filter.Create(map[string]types.Type{"name": name})
	}
	sorts := func(name *types.Literal) types.Type {
		return h.ext.Sort.Create(map[string]types.Type{"name": name})
	}
	defaultSorts := func(name *types.Literal) types.Type {
		v, _ := name.StringValue()
		return DefaultSort(h.ext.Sort, v)
	}
	includes := func(name *types.Literal) types.Type {
		v, _ := name.StringValue()
		return Includes(h.ext.Include, v, h.ext.countSuffix, h.ext.existsSuffix)
	}

	def.SetMethod(h.fluent("allowedFilters", "allowedFilters", mapArguments("querybuilder.allowedFilters", filters)))
	def.SetMethod(h.fluent("allowedSorts", "allowedSorts", mapArguments("querybuilder.allowedSorts", sorts)))
	def.SetMethod(h.fluent("defaultSorts", "defaultSorts", mapArguments("querybuilder.defaultSorts", defaultSorts)))
	def.SetMethod(h.fluent("defaultSort", "defaultSorts", mapArguments("querybuilder.defaultSorts", defaultSorts)))
	def.SetMethod(h.fluent("allowedIncludes", "allowedIncludes", mapArguments("querybuilder.allowedIncludes", includes)))
	def.SetMethod(h.fluent("allowedFields", "allowedFields", mapArguments("querybuilder.allowedFields", nil)))

	def.Shallow = true
}

// fluent returns a shallow method that returns the receiver with property
// replaced by value and every other argument kept.
func (h *DefinitionHook) fluent(name, property string, value types.Type) *infer.FunctionDefinition {
	qb := h.ext.QueryBuilder
	args := make([]types.Type, len(qb.properties))
	for i := range args {
		args[i] = &types.Placeholder{}
	}
	selfOut := types.NewGeneric("self", args...)
	args[qb.index(property)] = value

	m := infer.NewMethod(name, types.NewObject("self"), &types.Param{Name: property, Type: types.Mixed(), Variadic: true})
	m.SelfOut = selfOut
	return m
}
