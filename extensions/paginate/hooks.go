package paginate

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// PaginatorHook gives the builder pagination methods their paginator
// return types: paginate yields LengthAwarePaginator<TModel>, and so on.
type PaginatorHook struct{}

// HookName implements infer.Named.
func (*PaginatorHook) HookName() string { return "paginate.paginators" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*PaginatorHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (*PaginatorHook) ShouldHandle(class string) bool { return class != "" }

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*PaginatorHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	class, _, ok := paginatorFor(ev.Name)
	if !ok || !isQueryLike(ev.Scope.Hierarchy(), ev.Instance) {
		return nil
	}
	return types.NewGeneric(class, itemType(ev.Scope.Hierarchy(), ev.Instance))
}

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (*PaginatorHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	class, _, ok := paginatorFor(ev.Name)
	if !ok || !types.IsSubclassOf(ev.Scope.Hierarchy(), ev.Class, ModelClass) {
		return nil
	}
	return types.NewGeneric(class, types.NewObject(ev.Class))
}

// MethodHook handles the configured json-api paginate method. The call is
// resolved as the pagination method it delegates to, and the result is
// marked with AttrPaginator and AttrPageSize.
type MethodHook struct {
	cfg Config
}

// HookName implements infer.Named.
func (*MethodHook) HookName() string { return "paginate.method" }

// ShouldHandleType implements infer.MethodReturnTypeHook. Unknown
// receivers are accepted since vendor builders are often not inferred.
func (h *MethodHook) ShouldHandleType(t types.Type) bool {
	if _, ok := t.(*types.Unknown); ok {
		return h.cfg.MethodName != ""
	}
	_, ok := types.ClassName(t)
	return ok && h.cfg.MethodName != ""
}

// ShouldHandle implements infer.StaticMethodReturnTypeHook.
func (h *MethodHook) ShouldHandle(class string) bool {
	return class != "" && h.cfg.MethodName != ""
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (h *MethodHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if ev.Name != h.cfg.MethodName {
		return nil
	}
	method := h.cfg.PaginationMethod()
	if _, ok := ev.Instance.(*types.Unknown); ok {
		return h.mark(types.NewUnknown(), ev.Args, method)
	}
	if !isQueryLike(ev.Scope.Hierarchy(), ev.Instance) {
		return nil
	}
	out := ev.Scope.Resolve(types.NewMethodCall(ev.Instance, method, ev.Args...))
	return h.mark(out, ev.Args, method)
}

// StaticMethodReturnType implements infer.StaticMethodReturnTypeHook.
func (h *MethodHook) StaticMethodReturnType(ev *infer.StaticMethodCallEvent) types.Type {
	if ev.Name != h.cfg.MethodName {
		return nil
	}
	hier := ev.Scope.Hierarchy()
	if !types.IsSubclassOf(hier, ev.Class, ModelClass) && !types.IsSubclassOfAny(hier, ev.Class, queryClasses...) {
		return nil
	}
	method := h.cfg.PaginationMethod()
	out := ev.Scope.Resolve(types.NewStaticCall(ev.Class, method, ev.Args...))
	return h.mark(out, ev.Args, method)
}

func (h *MethodHook) mark(t types.Type, args infer.Args, method string) types.Type {
	_, contract, _ := paginatorFor(method)
	out := types.Clone(t)
	out.SetAttr(AttrPaginator, contract)

	size := h.cfg.DefaultSize
	if lit, ok := args.Get("defaultSize", 1).(*types.Literal); ok {
		if v, ok := lit.Value.(int64); ok {
			size = int(v)
		}
	}
	out.SetAttr(AttrPageSize, size)
	return out
}
