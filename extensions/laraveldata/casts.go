package laraveldata

import (
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// ModelCastsHook types model attributes cast to data objects. Casts are
// read from the casts() method or the $casts property default. A data
// class cast yields a fresh instance; a "Collection:Item" cast yields a
// collection of Item with wrapping disabled.
type ModelCastsHook struct{}

// HookName implements infer.Named.
func (*ModelCastsHook) HookName() string { return "laraveldata.model_casts" }

// ShouldHandleType implements infer.PropertyTypeHook.
func (*ModelCastsHook) ShouldHandleType(t types.Type) bool {
	_, ok := types.ClassName(t)
	return ok
}

// PropertyType implements infer.PropertyTypeHook.
func (*ModelCastsHook) PropertyType(ev *infer.PropertyFetchEvent) types.Type {
	h := ev.Scope.Hierarchy()
	class, _ := types.ClassName(ev.Instance)
	if !types.IsSubclassOf(h, class, ModelClass) {
		return nil
	}
	cast, ok := modelCasts(ev.Scope.Index(), ev.Definition)[ev.Name]
	if !ok {
		return nil
	}

	instance, arg, _ := strings.Cut(cast, ":")
	collection, dataClass := "", instance
	if arg = strings.TrimPrefix(arg, `\`); arg != "" && isDataClass(h, arg) {
		collection, dataClass = instance, arg
	}
	if !types.IsSubclassOfAny(h, dataClass, DataClass, ResourceClass) {
		return nil
	}
	if collection == "" {
		return ev.Scope.Resolve(types.NewConstructorCall(dataClass))
	}

	ctx := NewDataContext()
	ctx.Args[Wrap].(*types.Generic).Args[0] = types.LiteralString(WrapDisabled)
	return types.NewGeneric(collection, types.Mixed(), types.NewObject(dataClass), ctx)
}

// modelCasts returns the attribute casts declared by def, keyed by
// attribute name.
func modelCasts(idx *infer.Index, def *infer.ClassDefinition) map[string]string {
	var declared types.Type
	if m, _ := idx.Method(def, "casts"); m != nil {
		declared = m.Type.Return
	} else if p, _ := idx.Property(def, "casts"); p != nil {
		declared = p.Default
	}
	sh, ok := declared.(*types.Shape)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(sh.Items))
	for _, item := range sh.Items {
		key, ok := item.KeyString()
		if !ok {
			continue
		}
		switch v := item.Value.(type) {
		case *types.ClassString:
			out[key] = v.Class
		case *types.Literal:
			if s, ok := v.StringValue(); ok {
				out[key] = strings.TrimPrefix(s, `\`)
			}
		}
	}
	return out
}
