package laraveldata

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// ContextableDefinitionHook gives contextable data classes a TDataContext
// template and a _dataContext property. The template default is built from
// the class's includeProperties, excludeProperties, onlyProperties and
// exceptProperties methods.
type ContextableDefinitionHook struct{}

// HookName implements infer.Named.
func (*ContextableDefinitionHook) HookName() string { return "laraveldata.contextable" }

// ShouldHandle implements infer.ClassDefinitionHook.
func (*ContextableDefinitionHook) ShouldHandle(class string) bool { return class != "" }

// AfterClassDefinitionCreated implements infer.ClassDefinitionHook.
func (*ContextableDefinitionHook) AfterClassDefinitionCreated(ev *infer.ClassDefinitionCreatedEvent) {
	def := ev.Definition
	if !isContextableClass(ev.Index, def.Name) {
		return
	}

	infer.AddOrderedTemplates(def, types.NewTemplate(TDataContext))
	tpl, _ := def.Template(TDataContext)
	tpl.Default = definitionContext(def)

	def.SetProperty(&infer.PropertyDefinition{
		Name:    "_dataContext",
		Type:    types.NewTemplate(TDataContext),
		Default: definitionContext(def),
	})
}

func definitionContext(def *infer.ClassDefinition) *types.Generic {
	ctx := NewDataContext()
	methods := []string{
		IncludePartials: "includeProperties",
		ExcludePartials: "excludeProperties",
		OnlyPartials:    "onlyProperties",
		ExceptPartials:  "exceptProperties",
	}
	for slot, name := range methods {
		if m := def.Method(name); m != nil {
			ctx.Args[slot] = declaredPartials(m.Type.Return)
		}
	}
	return ctx
}

// declaredPartials converts the array returned by a *Properties method.
// Listed names are kept; keyed entries (closures deciding inclusion) become
// conditional partials named by their key.
func declaredPartials(ret types.Type) types.Type {
	sh, ok := ret.(*types.Shape)
	if !ok {
		return types.Mixed()
	}
	out := &types.Shape{List: true}
	for _, item := range sh.Items {
		if lit, ok := item.Value.(*types.Literal); ok {
			if _, isString := lit.StringValue(); isString {
				out.Items = append(out.Items, &types.ShapeItem{Value: types.Clone(lit)})
				continue
			}
		}
		key, ok := item.Key.(string)
		if !ok {
			continue
		}
		partial := types.LiteralString(key)
		partial.SetAttr(AttrConditional, true)
		out.Items = append(out.Items, &types.ShapeItem{Value: partial})
	}
	return out
}

// CollectableDefinitionHook orders the templates of data collections as
// TKey, TValue, TDataContext.
type CollectableDefinitionHook struct{}

// HookName implements infer.Named.
func (*CollectableDefinitionHook) HookName() string { return "laraveldata.collectable" }

// ShouldHandle implements infer.ClassDefinitionHook.
func (*CollectableDefinitionHook) ShouldHandle(class string) bool { return class != "" }

// AfterClassDefinitionCreated implements infer.ClassDefinitionHook.
func (*CollectableDefinitionHook) AfterClassDefinitionCreated(ev *infer.ClassDefinitionCreatedEvent) {
	def := ev.Definition
	if !isCollectionClass(ev.Index, def.Name) {
		return
	}
	infer.AddOrderedTemplates(def,
		types.NewTemplate(TKey),
		types.NewTemplate(TValue),
		types.NewTemplate(TDataContext),
	)
}

// LazyDefinitionHook adds Lazy::defaultIncluded. The call records its
// argument, true when omitted, as the TDefaultIncluded argument.
type LazyDefinitionHook struct{}

// HookName implements infer.Named.
func (*LazyDefinitionHook) HookName() string { return "laraveldata.lazy" }

// ShouldHandle implements infer.ClassDefinitionHook.
func (*LazyDefinitionHook) ShouldHandle(class string) bool { return class == LazyClass }

// AfterClassDefinitionCreated implements infer.ClassDefinitionHook.
func (*LazyDefinitionHook) AfterClassDefinitionCreated(ev *infer.ClassDefinitionCreatedEvent) {
	def := ev.Definition
	if tpl, _ := def.Template(TDefaultIncluded); tpl == nil {
		def.AddTemplate(&types.Template{Name: TDefaultIncluded, Default: types.LiteralBool(false)})
	}

	included := &types.Computed{
		Label:  "laraveldata.defaultIncluded",
		Inputs: []types.Type{types.NewTemplate(infer.ArgumentsTemplate)},
		Compute: func(in []types.Type) types.Type {
			sh, ok := in[0].(*types.Shape)
			if !ok {
				infer.Violation("arguments shape", in[0])
			}
			if len(sh.Items) == 0 {
				return types.LiteralBool(true)
			}
			return types.Clone(sh.Items[0].Value)
		},
	}

	def.SetMethod(&infer.FunctionDefinition{
		Type: &types.Function{
			Name: "defaultIncluded",
			Params: []*types.Param{{
				Name:    "defaultIncluded",
				Type:    types.Boolean(),
				Default: types.LiteralBool(true),
			}},
			Return: types.NewObject("self"),
		},
		SelfOut:       types.NewGeneric("self", included),
		DefiningClass: LazyClass,
	})
}
