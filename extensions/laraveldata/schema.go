package laraveldata

import (
	"net/http"
	"strings"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// schemaBase is shared by the extensions bound to one transformer.
type schemaBase struct {
	ext *Extension
	tr  *openapi.Transformer
}

// ReferenceName renders the extension's result as is. The extensions place
// their own component references.
func (schemaBase) ReferenceName(*openapi.Transformer, types.Type) (string, bool) {
	return "", false
}

// componentName returns the component name documented for class.
func (s schemaBase) componentName(class string) string {
	if name, ok := s.tr.Components().Name(types.Key(types.NewObject(class))); ok {
		return name
	}
	if i := strings.LastIndexByte(class, '\\'); i >= 0 {
		return class[i+1:]
	}
	return class
}

// DataSchema documents data objects in their output form. Instances with
// the default context share one component per class; instances carrying
// call-site partials are rendered inline.
type DataSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*DataSchema) HookName() string { return "laraveldata.schema" }

// ShouldHandle implements openapi.TypeToSchema and openapi.ResponseExtension.
func (s *DataSchema) ShouldHandle(t types.Type) bool {
	return isData(s.tr.Index(), t)
}

// ToSchema implements openapi.TypeToSchema.
func (s *DataSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	g := s.normalize(t)
	if g == nil {
		return nil
	}
	build := func() *openapi.Schema { return s.transformer(output).object(g) }
	if targets := s.morphTargets(g.Name); len(targets) > 0 {
		build = func() *openapi.Schema { return s.morphSchema(targets, output) }
	}
	if s.inlineOnly(g) {
		return build()
	}
	s.ext.refs.get(g.Name).output = true
	return tr.Ref(types.NewObject(g.Name), g.Name, build)
}

// ToResponse implements openapi.ResponseExtension. The schema is wrapped in
// the effective wrap key, if any.
func (s *DataSchema) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	g := s.normalize(t)
	if g == nil {
		return 0, nil
	}
	schema := tr.Transform(g)

	var wrap types.Type
	if ctx, ok := contextOf(tr.Index(), g); ok {
		wrap = contextSlot(ctx, Wrap)
	}
	if key := wrapKey(wrap, classWrap(tr.Index(), g.Name), s.ext.cfg.Wrap); key != "" {
		schema = openapi.NewObject().AddProperty(key, schema).SetRequired(key)
	}

	resp := openapi.JSONResponse(http.StatusOK, openapi.ContentJSON, schema)
	resp.Description = "`" + s.componentName(g.Name) + "`"
	return http.StatusOK, resp
}

// InputSchema documents Input<T>, the request form of a data class. Classes
// whose input form differs from the output get a separate "Request"
// component.
type InputSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*InputSchema) HookName() string { return "laraveldata.input" }

// ShouldHandle implements openapi.TypeToSchema.
func (*InputSchema) ShouldHandle(t types.Type) bool {
	g, ok := t.(*types.Generic)
	return ok && g.Name == InputClass
}

// ToSchema implements openapi.TypeToSchema.
func (s *InputSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	class := s.inputClass(t.(*types.Generic).Arg(0))
	if class == "" {
		return nil
	}
	g := s.normalize(types.NewObject(class))
	if g == nil {
		return nil
	}
	build := func() *openapi.Schema { return s.transformer(input).object(g) }
	if targets := s.morphTargets(class); len(targets) > 0 {
		build = func() *openapi.Schema { return s.morphSchema(targets, input) }
	}

	refs := s.ext.refs.get(class)
	if s.inputAndOutputSame(class, make(map[string]bool)) {
		ref := tr.Ref(types.NewObject(class), class, build)
		refs.input, _ = ref.RefName()
		return ref
	}
	ref := tr.Ref(types.NewGeneric(InputClass, types.NewObject(class)), class+"Request", build)
	refs.input, _ = ref.RefName()
	refs.different = true
	return ref
}

func (s *InputSchema) inputClass(t types.Type) string {
	class, ok := types.ClassName(t)
	if !ok {
		return ""
	}
	if g, ok := t.(*types.Generic); ok && isCollectionClass(s.tr.Index(), class) {
		class, _ = types.ClassName(g.Arg(1))
	}
	return class
}

// CollectionSchema documents DataCollection, PaginatedDataCollection and
// CursorPaginatedDataCollection instances.
type CollectionSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*CollectionSchema) HookName() string { return "laraveldata.collection_schema" }

// ShouldHandle implements openapi.TypeToSchema and openapi.ResponseExtension.
func (s *CollectionSchema) ShouldHandle(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok && isCollection(s.tr.Index(), t)
}

// ToSchema implements openapi.TypeToSchema.
func (s *CollectionSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	g := t.(*types.Generic)
	dataClass, ok := types.ClassName(g.Arg(1))
	if !ok {
		return nil
	}

	ctx, _ := g.Arg(2).(*types.Generic)
	key := wrapKey(contextSlot(ctx, Wrap), "", s.ext.cfg.Wrap)

	var item types.Type = types.NewObject(dataClass)
	if ctx != nil && ctx.Name == DataContextClass && len(ctx.Args) == 5 {
		item = types.NewGeneric(dataClass, types.Clone(ctx))
	}
	items := types.NewArray(item)

	h := tr.Index()
	switch {
	case types.IsSubclassOf(h, g.Name, DataCollectionClass):
		if key != "" {
			return tr.Transform(types.NewShape(types.Item(key, items)))
		}
		return tr.Transform(items)
	case types.IsSubclassOf(h, g.Name, PaginatedDataCollectionClass):
		return paginatedObject(tr.Transform(items), key)
	}
	return cursorPaginatedObject(tr.Transform(items), key)
}

// ToResponse implements openapi.ResponseExtension.
func (s *CollectionSchema) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	g := t.(*types.Generic)
	dataClass, ok := types.ClassName(g.Arg(1))
	if !ok {
		return 0, nil
	}
	schema := tr.Transform(g)

	prefix := "The collection of "
	h := tr.Index()
	switch {
	case types.IsSubclassOf(h, g.Name, PaginatedDataCollectionClass):
		prefix = "The paginated collection of "
	case types.IsSubclassOf(h, g.Name, CursorPaginatedDataCollectionClass):
		prefix = "The cursor paginated collection of "
	}

	resp := openapi.JSONResponse(http.StatusOK, openapi.ContentJSON, schema)
	resp.Description = prefix + "`" + s.componentName(dataClass) + "`"
	return http.StatusOK, resp
}

func typed(t, description string) *openapi.Schema {
	return &openapi.Schema{Type: openapi.TypeString(t), Description: description}
}

func nullable(t, description string) *openapi.Schema {
	return openapi.Nullable(typed(t, description))
}

func itemsProperty(items *openapi.Schema) *openapi.Schema {
	items.Description = "The list of items"
	return items
}

func paginatedObject(items *openapi.Schema, key string) *openapi.Schema {
	if key == "" {
		key = "data"
	}
	link := openapi.NewObject().
		AddProperty("url", nullable("string", "")).
		AddProperty("label", typed("string", "")).
		AddProperty("active", typed("boolean", "")).
		SetRequired("url", "label", "active")

	meta := openapi.NewObject().
		AddProperty("current_page", typed("integer", "")).
		AddProperty("first_page_url", typed("string", "")).
		AddProperty("from", nullable("integer", "")).
		AddProperty("last_page", typed("integer", "")).
		AddProperty("last_page_url", typed("string", "")).
		AddProperty("next_page_url", nullable("string", "")).
		AddProperty("path", nullable("string", "Base path for paginator generated URLs.")).
		AddProperty("per_page", typed("integer", "Number of items shown per page.")).
		AddProperty("prev_page_url", nullable("string", "")).
		AddProperty("to", nullable("integer", "Number of the last item in the slice.")).
		AddProperty("total", typed("integer", "Total number of items being paginated.")).
		SetRequired("current_page", "first_page_url", "from", "last_page", "last_page_url",
			"next_page_url", "path", "per_page", "prev_page_url", "to", "total")

	return openapi.NewObject().
		AddProperty(key, itemsProperty(items)).
		AddProperty("links", &openapi.Schema{
			Type:        openapi.TypeString("array"),
			Items:       link,
			Description: "Generated paginator links.",
		}).
		AddProperty("meta", meta).
		SetRequired(key, "links", "meta")
}

func cursorPaginatedObject(items *openapi.Schema, key string) *openapi.Schema {
	if key == "" {
		key = "data"
	}
	meta := openapi.NewObject().
		AddProperty("path", nullable("string", "Base path for paginator generated URLs.")).
		AddProperty("per_page", typed("integer", "Number of items shown per page.")).
		AddProperty("next_cursor", nullable("string", "")).
		AddProperty("next_cursor_url", nullable("string", "")).
		AddProperty("prev_cursor", nullable("string", "")).
		AddProperty("prev_cursor_url", nullable("string", "")).
		SetRequired("path", "per_page", "next_cursor", "next_cursor_url", "prev_cursor", "prev_cursor_url")

	return openapi.NewObject().
		AddProperty(key, itemsProperty(items)).
		AddProperty("links", &openapi.Schema{Type: openapi.TypeString("array"), Items: &openapi.Schema{}}).
		AddProperty("meta", meta).
		SetRequired(key, "links", "meta")
}

// TransformedSchema documents the result of toArray()/toJson() as the
// instance it was called on.
type TransformedSchema struct{}

// HookName implements infer.Named.
func (*TransformedSchema) HookName() string { return "laraveldata.transformed" }

// ShouldHandle implements openapi.TypeToSchema and openapi.ResponseExtension.
func (*TransformedSchema) ShouldHandle(t types.Type) bool {
	g, ok := t.(*types.Generic)
	return ok && g.Name == TransformedClass
}

// ReferenceName implements openapi.ReferenceNamer.
func (*TransformedSchema) ReferenceName(*openapi.Transformer, types.Type) (string, bool) {
	return "", false
}

// ToSchema implements openapi.TypeToSchema.
func (*TransformedSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	return tr.Transform(t.(*types.Generic).Arg(0))
}

// ToResponse implements openapi.ResponseExtension.
func (*TransformedSchema) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	return tr.ToResponse(t.(*types.Generic).Arg(0))
}

// JsonResponseExtension documents JsonResponse<T, status> returned by
// toResponse() on data objects and collections.
type JsonResponseExtension struct {
	schemaBase
}

// HookName implements infer.Named.
func (*JsonResponseExtension) HookName() string { return "laraveldata.json_response" }

// ShouldHandle implements openapi.ResponseExtension.
func (e *JsonResponseExtension) ShouldHandle(t types.Type) bool {
	g, ok := t.(*types.Generic)
	if !ok || g.Name != JsonResponseClass {
		return false
	}
	h := e.tr.Index()
	return isData(h, g.Arg(0)) || isCollection(h, g.Arg(0))
}

// ToResponse implements openapi.ResponseExtension.
func (*JsonResponseExtension) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	g := t.(*types.Generic)
	_, resp := tr.ToResponse(g.Arg(0))
	if resp == nil {
		return 0, nil
	}
	code := http.StatusOK
	if lit, ok := g.Arg(1).(*types.Literal); ok {
		if v, ok := lit.Value.(int64); ok && v > 0 {
			code = int(v)
		}
	}
	tr.AddResponseHeaders(resp, g.Arg(2))
	return code, resp
}
