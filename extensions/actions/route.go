package actions

import (
	"strings"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// PatchRouteAction points invokable action routes at the method the router
// actually calls and documents the 403 response of actions whose
// authorize() may deny the request.
type PatchRouteAction struct {
	tr *openapi.Transformer
}

// HookName implements infer.Named.
func (*PatchRouteAction) HookName() string { return "actions.patch_route" }

// TransformRoute implements openapi.RouteTransformer.
func (p *PatchRouteAction) TransformRoute(route *openapi.RouteInfo) {
	idx := p.tr.Index()
	if !isAction(idx, route.Class) {
		return
	}

	current := route.ClassMethod
	if current == "" {
		if i := strings.LastIndexByte(route.Action, '@'); i >= 0 {
			current = route.Action[i+1:]
		}
	}
	method := defaultMethod(idx, route.Class)
	if (current == "" || current == MethodInvoke) && current != method {
		route.ClassMethod = method
		action := route.Action
		if i := strings.LastIndexByte(action, '@'); i >= 0 {
			action = action[:i]
		}
		if action == "" {
			action = route.Class
		}
		route.Action = action + "@" + method
	}

	p.useHandleDocs(route)
}

// useHandleDocs documents an asController route with the description of
// handle() when asController() has none of its own.
func (p *PatchRouteAction) useHandleDocs(route *openapi.RouteInfo) {
	if route.Summary != "" || route.Description != "" {
		return
	}
	idx := p.tr.Index()
	if defaultMethod(idx, route.Class) != MethodAsController {
		return
	}
	def := idx.Definition(route.Class)
	if m, _ := idx.Method(def, MethodAsController); m != nil && docOf(m.Type) != "" {
		return
	}
	handle, _ := idx.Method(def, MethodHandle)
	if handle == nil {
		return
	}
	doc := docOf(handle.Type)
	if doc == "" {
		return
	}
	summary, description, _ := strings.Cut(doc, "\n\n")
	route.Summary = strings.TrimSpace(summary)
	route.Description = strings.TrimSpace(description)
}

func docOf(fn *types.Function) string {
	if fn == nil {
		return ""
	}
	doc, _ := types.StringAttr(fn, types.AttrDescription)
	return strings.TrimSpace(doc)
}

// TransformOperation implements openapi.OperationTransformer.
func (p *PatchRouteAction) TransformOperation(op *openapi.Operation, route *openapi.RouteInfo) {
	if !isAction(p.tr.Index(), route.Class) || !p.mayDeny(route.Class) {
		return
	}
	openapi.AddAuthorizationResponse(op)
}

// mayDeny reports whether the action declares an authorize() that does
// not always return true.
func (p *PatchRouteAction) mayDeny(class string) bool {
	idx := p.tr.Index()
	if m, _ := idx.Method(idx.Definition(class), "authorize"); m == nil {
		return false
	}
	r := p.tr.Resolver()
	ret := r.Resolve(r.NewScope(), types.NewMethodCall(types.NewObject(class), "authorize"))
	if lit, ok := ret.(*types.Literal); ok {
		if v, ok := lit.Value.(bool); ok && v {
			return false
		}
	}
	return true
}
