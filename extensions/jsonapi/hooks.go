package jsonapi

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// DefinitionHook adds the static newCollection and collection methods to
// JsonApiResource. Both return
// JsonApiResourceCollection<TResource, array, static>.
type DefinitionHook struct{}

// HookName implements infer.Named.
func (*DefinitionHook) HookName() string { return "jsonapi.definition" }

// ShouldHandle implements infer.ClassDefinitionHook.
func (*DefinitionHook) ShouldHandle(class string) bool { return class == ResourceClass }

// AfterClassDefinitionCreated implements infer.ClassDefinitionHook.
func (*DefinitionHook) AfterClassDefinitionCreated(ev *infer.ClassDefinitionCreatedEvent) {
	for _, name := range []string{"newCollection", "collection"} {
		ev.Definition.SetMethod(newCollectionMethod(name))
	}
}

func newCollectionMethod(name string) *infer.FunctionDefinition {
	tpl := types.NewTemplate("TResource1")
	return &infer.FunctionDefinition{
		Type: &types.Function{
			Name:      name,
			Params:    []*types.Param{{Name: "resource", Type: tpl}},
			Templates: []*types.Template{tpl},
			Return: types.NewGeneric(CollectionClass,
				types.NewTemplate(tpl.Name),
				types.NewArray(types.Mixed()),
				types.NewObject("static"),
			),
		},
		DefiningClass: ResourceClass,
		Static:        true,
	}
}

func responseHeaders() *types.Shape {
	return types.NewShape(types.Item("Content-type", types.LiteralString(ContentType)))
}

func jsonResponse(body types.Type) *types.Generic {
	return types.NewGeneric(JsonResponseClass, body, types.NewUnknown(), responseHeaders())
}

// ResourceMethodsHook resolves response() and toResponse() on resources to
// JsonResponse<ResourceResponse<static>, unknown, {Content-type}>.
type ResourceMethodsHook struct{}

// HookName implements infer.Named.
func (*ResourceMethodsHook) HookName() string { return "jsonapi.resource_methods" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*ResourceMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := types.ClassName(t)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*ResourceMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if ev.Name != "response" && ev.Name != "toResponse" {
		return nil
	}
	if !isResource(ev.Scope.Hierarchy(), ev.Instance) {
		return nil
	}
	return jsonResponse(types.NewGeneric(ResourceResponseClass, ev.Instance))
}

// CollectionMethodsHook resolves response() and toResponse() on resource
// collections. Paginated collections get a PaginatedResourceResponse.
type CollectionMethodsHook struct{}

// HookName implements infer.Named.
func (*CollectionMethodsHook) HookName() string { return "jsonapi.collection_methods" }

// ShouldHandleType implements infer.MethodReturnTypeHook.
func (*CollectionMethodsHook) ShouldHandleType(t types.Type) bool {
	_, ok := types.ClassName(t)
	return ok
}

// MethodReturnType implements infer.MethodReturnTypeHook.
func (*CollectionMethodsHook) MethodReturnType(ev *infer.MethodCallEvent) types.Type {
	if ev.Name != "response" && ev.Name != "toResponse" {
		return nil
	}
	h := ev.Scope.Hierarchy()
	if !isCollection(h, ev.Instance) {
		return nil
	}
	class := ResourceResponseClass
	if paginatorClass(h, ev.Instance) != "" {
		class = PaginatedResourceResponseClass
	}
	return jsonResponse(types.NewGeneric(class, ev.Instance))
}
