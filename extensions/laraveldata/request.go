package laraveldata

import (
	"slices"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// RequestTransformer documents data objects taken as action parameters.
// Register it with the transformer for request bodies and with the
// generator as an operation transformer for the validation response and
// query parameters.
type RequestTransformer struct {
	schemaBase
}

// HookName implements infer.Named.
func (*RequestTransformer) HookName() string { return "laraveldata.request" }

// ShouldHandleRequest implements openapi.RequestBodyExtension.
func (r *RequestTransformer) ShouldHandleRequest(t types.Type) bool {
	return isData(r.tr.Index(), t)
}

// ToRequestBody implements openapi.RequestBodyExtension. The body references
// the input component of the data class.
func (r *RequestTransformer) ToRequestBody(tr *openapi.Transformer, t types.Type) *openapi.RequestBody {
	class, _ := types.ClassName(t)
	ref, schema := r.input(class)
	name, _ := ref.RefName()
	return &openapi.RequestBody{
		Description: "`" + name + "`",
		Required:    schema != nil && len(schema.Required) > 0,
		Content: map[string]*openapi.MediaType{
			openapi.ContentJSON: {Schema: ref},
		},
	}
}

// input returns the input schema of class as placed in the document and
// the object schema it stands for.
func (r *RequestTransformer) input(class string) (*openapi.Schema, *openapi.Schema) {
	ref := r.tr.Transform(types.NewGeneric(InputClass, types.NewObject(class)))
	if name, ok := ref.RefName(); ok {
		return ref, r.tr.Components().Get(name)
	}
	return ref, ref
}

// TransformOperation implements openapi.OperationTransformer.
func (r *RequestTransformer) TransformOperation(op *openapi.Operation, route *openapi.RouteInfo) {
	if route.RequestType == nil {
		return
	}
	scope := route.Scope
	if scope == nil {
		scope = r.tr.Resolver().NewScope()
	}
	class, ok := types.ClassName(scope.Resolve(route.RequestType))
	if !ok || !isDataClass(r.tr.Index(), class) {
		return
	}

	openapi.AddValidationResponse(op)

	if openapi.HasRequestBody(route.Method) {
		return
	}

	_, schema := r.input(class)
	if schema == nil || schema.Properties == nil {
		return
	}
	have := make(map[string]bool, len(op.Parameters))
	for _, p := range op.Parameters {
		have[p.In+":"+p.Name] = true
	}
	for _, name := range schema.Properties.Keys() {
		if have["query:"+name] {
			continue
		}
		op.Parameters = append(op.Parameters, &openapi.Parameter{
			Name:     name,
			In:       "query",
			Required: slices.Contains(schema.Required, name),
			Schema:   schema.Properties.Get(name),
		})
	}
}
