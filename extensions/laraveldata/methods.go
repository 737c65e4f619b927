package laraveldata

import (
	"strings"

	"github.com/vitalvas/typedoc/extensions/paginate"
	"github.com/vitalvas/typedoc/extensions/querybuilder"
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// StaticCreationHook resolves Data::from and Data::collect.
type StaticCreationHook struct{}

// HookName implements infer.Named.
func (*StaticCreationHook) HookName() string { return "laraveldata.static" }

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (*StaticCreationHook) ShouldHandle(class string) bool { return class != "" }

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (h *StaticCreationHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	if !isDataClass(ev.Scope.Hierarchy(), ev.Class) {
		return nil
	}
	switch ev.Name {
	case "from":
		return h.from(ev)
	case "collect":
		return h.collect(ev)
	}
	return nil
}

// from builds the instance through fromModel when a model is passed and the
// class declares it, and through the constructor otherwise.
func (*StaticCreationHook) from(ev *infer.StaticMethodCallEvent) types.Type {
	payload := ev.Arg("payloads", 0)
	if payload != nil && types.IsInstanceOf(ev.Scope.Hierarchy(), payload, ModelClass) {
		if m, _ := ev.Scope.Index().Method(ev.Definition, "fromModel"); m != nil {
			return ev.Scope.Resolve(types.NewStaticCall(ev.Class, "fromModel", ev.Args...))
		}
	}
	return ev.Scope.Resolve(types.NewConstructorCall(ev.Class))
}

func (*StaticCreationHook) collect(ev *infer.StaticMethodCallEvent) types.Type {
	if len(ev.Args) == 1 {
		if items := ev.Arg("items", 0); items != nil {
			if class := paginatorOf(ev.Scope.Hierarchy(), items); class != "" {
				out := types.NewGeneric(class, types.NewObject(ev.Class))
				return types.CopyAttrs(out, items)
			}
		}
	}

	into := ev.Args.GetOr("into", 1, &types.ClassString{Class: DataCollectionClass})
	var class string
	switch v := into.(type) {
	case *types.ClassString:
		class = v.Class
	case *types.Literal:
		class, _ = v.StringValue()
	}
	if class == "" {
		return nil
	}
	return types.NewGeneric(class, types.Integer(), types.NewObject(ev.Class), NewDataContext())
}

// paginatorOf returns the paginator class items are, or the paginator
// contract the json-api paginate method marked them with.
func paginatorOf(h types.Hierarchy, items types.Type) string {
	if class, ok := types.ClassName(items); ok {
		switch class {
		case paginate.LengthAwarePaginatorClass, paginate.PaginatorClass, paginate.CursorPaginatorClass:
			return class
		}
		contracts := []string{paginate.LengthAwarePaginatorContract, paginate.PaginatorContract, paginate.CursorPaginatorContract}
		if types.IsSubclassOfAny(h, class, contracts...) {
			return class
		}
	}
	contract, _ := types.StringAttr(items, paginate.AttrPaginator)
	return contract
}

var partialSlots = map[string]int{
	"include": IncludePartials, "includePermanently": IncludePartials, "includeWhen": IncludePartials,
	"exclude": ExcludePartials, "excludePermanently": ExcludePartials, "excludeWhen": ExcludePartials,
	"only": OnlyPartials, "onlyPermanently": OnlyPartials, "onlyWhen": OnlyPartials,
	"except": ExceptPartials, "exceptPermanently": ExceptPartials, "exceptWhen": ExceptPartials,
}

// contextMethod reports whether name is answered by the partials or wrap
// hooks rather than the fluent fallbacks.
func contextMethod(name string) bool {
	if _, ok := partialSlots[name]; ok {
		return true
	}
	switch name {
	case "wrap", "withoutWrapping", "getWrap":
		return true
	}
	return false
}

// IncludeableMethodsHook records include/exclude/only/except calls in the
// instance's data context. *When variants add conditional partials.
type IncludeableMethodsHook struct{}

// HookName implements infer.Named.
func (*IncludeableMethodsHook) HookName() string { return "laraveldata.includeable" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*IncludeableMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*IncludeableMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	slot, ok := partialSlots[ev.Name]
	if !ok {
		return nil
	}
	ctx, ok := contextOf(ev.Scope.Index(), ev.Instance)
	if !ok {
		return nil
	}

	conditional := strings.HasSuffix(ev.Name, "When")
	var partials []types.Type
	for _, v := range querybuilder.NormalizeArguments(types.NewList(ev.Args.Types()...)) {
		lit, ok := v.(*types.Literal)
		if !ok {
			continue
		}
		if _, isString := lit.StringValue(); !isString {
			continue
		}
		p := types.Clone(lit)
		p.SetAttr(AttrConditional, conditional)
		partials = append(partials, p)
	}

	ctx.Args[slot] = appendPartials(ctx.Args[slot], partials...)
	return ev.Instance
}

// WrappableMethodsHook handles wrap, withoutWrapping and getWrap.
type WrappableMethodsHook struct{}

// HookName implements infer.Named.
func (*WrappableMethodsHook) HookName() string { return "laraveldata.wrappable" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*WrappableMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*WrappableMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	switch ev.Name {
	case "wrap", "withoutWrapping", "getWrap":
	default:
		return nil
	}
	ctx, ok := contextOf(ev.Scope.Index(), ev.Instance)
	if !ok {
		return nil
	}
	wrap, ok := contextSlot(ctx, Wrap).(*types.Generic)
	if !ok || wrap.Name != WrapClass || len(wrap.Args) < 2 {
		return nil
	}

	switch ev.Name {
	case "wrap":
		key, ok := ev.Arg("key", 0).(*types.Literal)
		if !ok {
			return nil
		}
		if _, isString := key.StringValue(); !isString {
			return nil
		}
		wrap.Args[1] = types.Clone(key)
	case "withoutWrapping":
		wrap.Args[0] = types.LiteralString(WrapDisabled)
	case "getWrap":
		return types.Clone(wrap)
	}
	return ev.Instance
}

// transformed returns the result type of toArray/toJson on instance.
func transformed(instance types.Type) *types.Generic {
	return types.NewGeneric(TransformedClass, instance)
}

// jsonResponse returns the result type of toResponse on instance.
func jsonResponse(instance types.Type) *types.Generic {
	return types.NewGeneric(JsonResponseClass, instance, types.NewUnknown(), types.NewArray(types.Mixed()))
}

// DataMethodsHook answers the remaining methods of data objects. Unknown
// methods are treated as fluent and return the instance.
type DataMethodsHook struct{}

// HookName implements infer.Named.
func (*DataMethodsHook) HookName() string { return "laraveldata.methods" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*DataMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*DataMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if !isData(ev.Scope.Hierarchy(), ev.Instance) || contextMethod(ev.Name) {
		return nil
	}
	switch ev.Name {
	case "toJson", "toArray":
		return transformed(ev.Instance)
	case "toResponse":
		return jsonResponse(ev.Instance)
	}
	return ev.Instance
}

// CollectionMethodsHook answers data collection methods, including the
// constructor, which binds the collected data class.
type CollectionMethodsHook struct{}

// HookName implements infer.Named.
func (*CollectionMethodsHook) HookName() string { return "laraveldata.collection" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*CollectionMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*CollectionMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if !isCollection(ev.Scope.Hierarchy(), ev.Instance) || contextMethod(ev.Name) {
		return nil
	}
	switch ev.Name {
	case "__construct":
		return construct(ev)
	case "toJson", "toArray":
		return transformed(ev.Instance)
	case "toResponse":
		return jsonResponse(ev.Instance)
	}
	return ev.Instance
}

func construct(ev *infer.MethodCallEvent) types.Type {
	class, ok := ev.Arg("dataClass", 0).(*types.ClassString)
	if !ok || len(ev.Definition.Templates) != 3 {
		return nil
	}
	g, ok := ev.Instance.(*types.Generic)
	if !ok || len(g.Args) != 3 {
		return nil
	}
	g.Args[0] = types.Integer()
	g.Args[1] = types.NewObject(class.Class)
	g.Args[2] = NewDataContext()
	return g
}
