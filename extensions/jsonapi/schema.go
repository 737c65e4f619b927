package jsonapi

import (
	"net/http"

	"github.com/vitalvas/typedoc/extensions/paginate"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

type schemaBase struct {
	ext *Extension
	tr  *openapi.Transformer
}

func (s schemaBase) componentName(class string) string {
	if name, ok := s.tr.Components().Name(types.Key(types.NewObject(class))); ok {
		return name
	}
	return baseName(class)
}

// typeSchema documents the type member of a resource object.
func (s schemaBase) typeSchema(class string) *openapi.Schema {
	out := &openapi.Schema{Type: openapi.TypeString("string")}
	if name := s.ext.resourceType(s.tr.Resolver(), class); name != "" {
		out.Const = name
	}
	return out
}

// ResourceSchema documents JSON:API resources as resource objects, one
// component per class.
type ResourceSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*ResourceSchema) HookName() string { return "jsonapi.resource" }

// ShouldHandle implements openapi.TypeToSchema and openapi.ResponseExtension.
func (s *ResourceSchema) ShouldHandle(t types.Type) bool {
	return isResource(s.tr.Index(), t)
}

// ReferenceName implements openapi.ReferenceNamer.
func (*ResourceSchema) ReferenceName(_ *openapi.Transformer, t types.Type) (string, bool) {
	class, _ := types.ClassName(t)
	return class, true
}

// ToSchema implements openapi.TypeToSchema.
func (s *ResourceSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	class, _ := types.ClassName(t)
	rf := s.ext.reflect(tr.Resolver(), class)

	out := openapi.NewObject().
		AddProperty("id", &openapi.Schema{Type: openapi.TypeString("string")}).
		AddProperty("type", s.typeSchema(class)).
		SetRequired("id", "type")

	if attrs := rf.attributes(); attrs != nil && len(attrs.Items) > 0 {
		out.AddProperty("attributes", tr.Transform(attrs))
	}
	if rel := rf.relationships(); rel != nil && len(rel.Items) > 0 {
		out.AddProperty("relationships", tr.Transform(s.identifiers(rel)))
	}
	if links := rf.links(); links != nil {
		out.AddProperty("links", s.links(links)).AddRequired("links")
	}
	return out
}

// identifiers replaces related resources by their identifiers: a nullable
// identifier for to-one and an identifier list for to-many relationships.
func (s schemaBase) identifiers(rel *types.Shape) types.Type {
	h := s.tr.Index()
	return types.Map(rel, func(t types.Type) (types.Type, bool) {
		if item, ok := collected(h, t); ok {
			return types.NewArray(types.NewGeneric(IdentifierClass, types.Clone(item))), true
		}
		if isResource(h, t) {
			return types.NewUnion(types.NewGeneric(IdentifierClass, types.Clone(t)), types.Null()), true
		}
		return nil, false
	}, nil)
}

// links builds the links object from the toLinks shape. Only Link values
// with a literal key are documented.
func (s schemaBase) links(sh *types.Shape) *openapi.Schema {
	out := openapi.NewObject()
	h := s.tr.Index()
	for _, item := range sh.Items {
		g, ok := item.Value.(*types.Generic)
		if !ok || !types.IsSubclassOf(h, g.Name, LinkClass) || len(g.Args) < 3 {
			continue
		}
		lit, ok := g.Args[0].(*types.Literal)
		if !ok {
			continue
		}
		key, ok := lit.StringValue()
		if !ok {
			continue
		}

		link := s.tr.Transform(g)
		desc, hasDesc := item.Attr(types.AttrDescription)
		example, hasExample := item.Attr(types.AttrExample)
		def, hasDefault := item.Attr(types.AttrDefault)
		if hasDesc || hasExample || hasDefault {
			compound := *link
			compound.Description, _ = desc.(string)
			compound.Example = example
			compound.Default = def
			link = &compound
		}
		out.AddProperty(key, link).AddRequired(key)
	}
	return out
}

// ToResponse implements openapi.ResponseExtension.
func (s *ResourceSchema) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	class, _ := types.ClassName(t)
	body := openapi.NewObject().
		AddProperty("data", tr.Transform(t)).
		SetRequired("data")
	s.document(body, class)

	resp := openapi.JSONResponse(http.StatusOK, ContentType, body)
	resp.Description = "`" + s.componentName(class) + "`"
	return http.StatusOK, resp
}

// document adds the top-level members of a JSON:API document about
// resources of class: the included resources, or what a user defined with()
// returns.
func (s schemaBase) document(body *openapi.Schema, class string) {
	idx := s.tr.Index()
	if with, owner := idx.Method(idx.Definition(class), "with"); with != nil && owner != nil &&
		owner.Name != ResourceClass && owner.Name != CollectionClass {
		extra, ok := s.tr.Resolver().Resolve(s.tr.Resolver().NewScope(),
			types.NewMethodCall(types.NewObject(class), "with")).(*types.Shape)
		if !ok || extra.List {
			return
		}
		for _, item := range extra.Items {
			key, ok := item.KeyString()
			if !ok || body.Properties.Has(key) {
				continue
			}
			body.AddProperty(key, s.tr.Transform(item.Value))
			if !item.Optional {
				body.AddRequired(key)
			}
		}
		return
	}

	included := s.ext.reflect(s.tr.Resolver(), class).included()
	if len(included) == 0 {
		return
	}
	body.AddProperty("included", s.tr.Transform(types.NewArray(types.NewUnion(included...))))
}

// IdentifierSchema documents Identifier<TResource> as a {type, id}
// resource identifier object named after the resource.
type IdentifierSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*IdentifierSchema) HookName() string { return "jsonapi.identifier" }

// ShouldHandle implements openapi.TypeToSchema.
func (*IdentifierSchema) ShouldHandle(t types.Type) bool {
	g, ok := t.(*types.Generic)
	if !ok || g.Name != IdentifierClass || len(g.Args) != 1 {
		return false
	}
	_, ok = types.ClassName(g.Args[0])
	return ok
}

// ReferenceName implements openapi.ReferenceNamer.
func (*IdentifierSchema) ReferenceName(_ *openapi.Transformer, t types.Type) (string, bool) {
	class, _ := types.ClassName(t.(*types.Generic).Args[0])
	return class + "Identifier", true
}

// ToSchema implements openapi.TypeToSchema.
func (s *IdentifierSchema) ToSchema(_ *openapi.Transformer, t types.Type) *openapi.Schema {
	class, _ := types.ClassName(t.(*types.Generic).Args[0])
	return openapi.NewObject().
		AddProperty("type", s.typeSchema(class)).
		AddProperty("id", &openapi.Schema{Type: openapi.TypeString("string")}).
		SetRequired("type", "id")
}

// LinkSchema documents Link values. Every link shares the Link component.
type LinkSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*LinkSchema) HookName() string { return "jsonapi.link" }

// ShouldHandle implements openapi.TypeToSchema.
func (s *LinkSchema) ShouldHandle(t types.Type) bool {
	class, ok := types.ClassName(t)
	return ok && types.IsSubclassOf(s.tr.Index(), class, LinkClass)
}

// ReferenceName implements openapi.ReferenceNamer. The component is placed
// by ToSchema under one key for every link type.
func (*LinkSchema) ReferenceName(*openapi.Transformer, types.Type) (string, bool) {
	return "", false
}

// ToSchema implements openapi.TypeToSchema.
func (*LinkSchema) ToSchema(tr *openapi.Transformer, _ types.Type) *openapi.Schema {
	return tr.Ref(types.NewObject(LinkClass), LinkClass, func() *openapi.Schema {
		str := func() *openapi.Schema { return &openapi.Schema{Type: openapi.TypeString("string")} }
		href := str()
		href.Format = "uri"
		return openapi.NewObject().
			AddProperty("href", href).
			AddProperty("rel", str()).
			AddProperty("describedby", str()).
			AddProperty("title", str()).
			AddProperty("type", str()).
			AddProperty("hreflang", &openapi.Schema{AnyOf: []*openapi.Schema{
				str(),
				{Type: openapi.TypeString("array"), Items: str()},
			}}).
			AddProperty("meta", openapi.NewObject()).
			SetRequired("href")
	})
}

// CollectionSchema documents resource collections as arrays of the
// collected resource, and their responses as JSON:API documents.
type CollectionSchema struct {
	schemaBase
}

// HookName implements infer.Named.
func (*CollectionSchema) HookName() string { return "jsonapi.collection" }

// ShouldHandle implements openapi.TypeToSchema and openapi.ResponseExtension.
func (s *CollectionSchema) ShouldHandle(t types.Type) bool {
	g, ok := t.(*types.Generic)
	return ok && len(g.Args) >= 2 && isCollection(s.tr.Index(), g)
}

// ReferenceName implements openapi.ReferenceNamer. Collections are inline.
func (*CollectionSchema) ReferenceName(*openapi.Transformer, types.Type) (string, bool) {
	return "", false
}

// ToSchema implements openapi.TypeToSchema.
func (s *CollectionSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	item, ok := collected(tr.Index(), t)
	if !ok {
		return nil
	}
	return tr.Transform(types.NewArray(item))
}

// ToResponse implements openapi.ResponseExtension.
func (s *CollectionSchema) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	item, ok := collected(tr.Index(), t)
	if !ok {
		return 0, nil
	}
	class, _ := types.ClassName(item)

	var body *openapi.Schema
	description := "Array of `" + s.componentName(class) + "`"
	if paginator := paginatorClass(tr.Index(), t); paginator != "" {
		body = s.paginated(t.(*types.Generic), paginator, item)
		description = "Paginated set of `" + s.componentName(class) + "`"
	} else {
		body = openapi.NewObject().
			AddProperty("data", tr.Transform(types.NewArray(item))).
			SetRequired("data")
	}
	s.document(body, class)

	resp := openapi.JSONResponse(http.StatusOK, ContentType, body)
	resp.Description = description
	return http.StatusOK, resp
}

// paginated builds the paginated collection document. Unless the
// collection class defines its own paginationInformation, the links are
// optional strings.
func (s *CollectionSchema) paginated(g *types.Generic, paginator string, item types.Type) *openapi.Schema {
	body := s.tr.Transform(paginate.Shape(paginator, item))

	idx := s.tr.Index()
	m, owner := idx.Method(idx.Definition(g.Name), "paginationInformation")
	if m != nil && owner != nil && owner.Name != CollectionClass {
		return body
	}
	if body.Properties == nil {
		return body
	}
	links := body.Properties.Get("links")
	if links == nil || links.Properties == nil {
		return body
	}
	for _, key := range links.Properties.Keys() {
		links.Properties.Set(key, &openapi.Schema{Type: openapi.TypeString("string")})
	}
	links.Required = nil
	return body
}

// ResponseExtension documents JsonResponse<ResourceResponse<T>, ...> as
// returned by response() and toResponse(). The content type comes from the
// Content-type header argument.
type ResponseExtension struct {
	schemaBase
}

// HookName implements infer.Named.
func (*ResponseExtension) HookName() string { return "jsonapi.response" }

// ShouldHandle implements openapi.ResponseExtension.
func (e *ResponseExtension) ShouldHandle(t types.Type) bool {
	inner, ok := responseBody(t)
	if !ok {
		return false
	}
	h := e.tr.Index()
	return isResource(h, inner) || isCollection(h, inner)
}

// responseBody returns T of JsonResponse<ResourceResponse<T>, ...>.
func responseBody(t types.Type) (types.Type, bool) {
	g, ok := t.(*types.Generic)
	if !ok || g.Name != JsonResponseClass {
		return nil, false
	}
	rr, ok := g.Arg(0).(*types.Generic)
	if !ok || (rr.Name != ResourceResponseClass && rr.Name != PaginatedResourceResponseClass) {
		return nil, false
	}
	return rr.Arg(0), true
}

// ToResponse implements openapi.ResponseExtension.
func (*ResponseExtension) ToResponse(tr *openapi.Transformer, t types.Type) (int, *openapi.Response) {
	inner, _ := responseBody(t)
	code, resp := tr.ToResponse(inner)
	if resp == nil {
		return 0, nil
	}

	g := t.(*types.Generic)
	if lit, ok := g.Arg(1).(*types.Literal); ok {
		if v, ok := lit.Value.(int64); ok && v > 0 {
			code = int(v)
		}
	}
	if ct := headerContentType(g.Arg(2)); ct != "" && len(resp.Content) == 1 {
		for current, mt := range resp.Content {
			if current != ct {
				delete(resp.Content, current)
				resp.Content[ct] = mt
			}
			break
		}
	}
	tr.AddResponseHeaders(resp, g.Arg(2))
	return code, resp
}

func headerContentType(headers types.Type) string {
	sh, ok := headers.(*types.Shape)
	if !ok {
		return ""
	}
	for _, item := range sh.Items {
		key, ok := item.KeyString()
		if !ok || (key != "Content-type" && key != "Content-Type") {
			continue
		}
		if lit, ok := item.Value.(*types.Literal); ok {
			s, _ := lit.StringValue()
			return s
		}
	}
	return ""
}
