// Package jsonapi documents timacdonald/json-api resources: resource
// objects with their attributes, relationships and links, resource
// identifiers, collections and the application/vnd.api+json responses
// that carry them.
package jsonapi

import (
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/vitalvas/typedoc/extensions/paginate"
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// ContentType is the media type of JSON:API documents.
const ContentType = "application/vnd.api+json"

// Library classes.
const (
	ResourceClass   = `TiMacDonald\JsonApi\JsonApiResource`
	CollectionClass = `TiMacDonald\JsonApi\JsonApiResourceCollection`
	LinkClass       = `TiMacDonald\JsonApi\Link`

	JsonResponseClass              = `Illuminate\Http\JsonResponse`
	ResourceResponseClass          = `Illuminate\Http\Resources\Json\ResourceResponse`
	PaginatedResourceResponseClass = `Illuminate\Http\Resources\Json\PaginatedResourceResponse`
	MergeValueClass                = `Illuminate\Http\Resources\MergeValue`

	SupportCollectionClass  = `Illuminate\Support\Collection`
	EloquentCollectionClass = `Illuminate\Database\Eloquent\Collection`
)

// IdentifierClass is the synthetic Identifier<TResource> documented as a
// {type, id} resource identifier object.
const IdentifierClass = "$$JSON_API_RESOURCE_IDENTIFIER"

// Config holds the class naming conventions used to guess related classes.
type Config struct {
	ResourceNamespace string
	ModelNamespace    string
}

// DefaultConfig returns the Laravel application defaults.
func DefaultConfig() Config {
	return Config{
		ResourceNamespace: `App\Http\Resources`,
		ModelNamespace:    `App\Models`,
	}
}

// Extension bundles the JSON:API hooks and schema extensions of one run.
type Extension struct {
	cfg Config
}

// New returns the extension for cfg. Empty namespaces take their defaults.
func New(cfg Config) *Extension {
	def := DefaultConfig()
	if cfg.ResourceNamespace == "" {
		cfg.ResourceNamespace = def.ResourceNamespace
	}
	if cfg.ModelNamespace == "" {
		cfg.ModelNamespace = def.ModelNamespace
	}
	cfg.ResourceNamespace = strings.TrimSuffix(cfg.ResourceNamespace, `\`)
	cfg.ModelNamespace = strings.TrimSuffix(cfg.ModelNamespace, `\`)
	return &Extension{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Extension) Config() Config {
	return e.cfg
}

// Hooks returns the resolver hooks.
func (e *Extension) Hooks() []any {
	return []any{
		&DefinitionHook{},
		&ResourceMethodsHook{},
		&CollectionMethodsHook{},
	}
}

// SchemaExtensions returns the schema and response extensions bound to tr.
func (e *Extension) SchemaExtensions(tr *openapi.Transformer) []any {
	base := schemaBase{ext: e, tr: tr}
	return []any{
		&IdentifierSchema{schemaBase: base},
		&LinkSchema{schemaBase: base},
		&CollectionSchema{schemaBase: base},
		&ResourceSchema{schemaBase: base},
		&ResponseExtension{schemaBase: base},
	}
}

func isResource(h types.Hierarchy, t types.Type) bool {
	class, ok := types.ClassName(t)
	return ok && types.IsSubclassOf(h, class, ResourceClass)
}

func isCollection(h types.Hierarchy, t types.Type) bool {
	class, ok := types.ClassName(t)
	return ok && types.IsSubclassOf(h, class, CollectionClass)
}

// collected returns the resource type a collection holds.
func collected(h types.Hierarchy, t types.Type) (types.Type, bool) {
	g, ok := t.(*types.Generic)
	if !ok || !isCollection(h, g) {
		return nil, false
	}
	item := g.Arg(2)
	if !isResource(h, item) {
		return nil, false
	}
	return item, true
}

// paginatorClass returns the paginator class a collection wraps, if any.
func paginatorClass(h types.Hierarchy, t types.Type) string {
	g, ok := t.(*types.Generic)
	if !ok {
		return ""
	}
	resource := g.Arg(0)
	if class, ok := types.ClassName(resource); ok {
		switch {
		case types.IsSubclassOfAny(h, class, paginate.CursorPaginatorClass, paginate.CursorPaginatorContract):
			return paginate.CursorPaginatorClass
		case types.IsSubclassOfAny(h, class, paginate.LengthAwarePaginatorClass, paginate.LengthAwarePaginatorContract):
			return paginate.LengthAwarePaginatorClass
		case types.IsSubclassOfAny(h, class, paginate.PaginatorClass, paginate.PaginatorContract):
			return paginate.PaginatorClass
		}
	}
	switch contract, _ := types.StringAttr(resource, paginate.AttrPaginator); contract {
	case paginate.CursorPaginatorContract:
		return paginate.CursorPaginatorClass
	case paginate.LengthAwarePaginatorContract:
		return paginate.LengthAwarePaginatorClass
	case paginate.PaginatorContract:
		return paginate.PaginatorClass
	}
	return ""
}

func baseName(class string) string {
	if i := strings.LastIndexByte(class, '\\'); i >= 0 {
		return class[i+1:]
	}
	return class
}

// modelOf returns the model class a resource wraps: the declared type of
// its resource property, or the model named after the resource.
func (e *Extension) modelOf(idx *infer.Index, resource string) string {
	if p, _ := idx.Property(idx.Definition(resource), "resource"); p != nil {
		if class, ok := types.ClassName(p.Type); ok && class != "" {
			return class
		}
	}
	name := strings.TrimSuffix(baseName(resource), "Resource")
	if name == "" {
		return ""
	}
	guess := e.cfg.ModelNamespace + `\` + name
	if idx.HasDefinition(guess) {
		return guess
	}
	return ""
}

// guessResource returns the resource class of a relationship name, trying
// the singular form first.
func (e *Extension) guessResource(idx *infer.Index, relationship string) string {
	for _, name := range []string{inflect.Singularize(relationship), relationship} {
		class := e.cfg.ResourceNamespace + `\` + inflect.Camelize(name) + "Resource"
		if idx.HasDefinition(class) {
			return class
		}
	}
	return ""
}

// resourceType returns the JSON:API type of resources of class: the literal
// returned by toType, or the camel cased plural of the model name.
func (e *Extension) resourceType(r *infer.Resolver, class string) string {
	idx := r.Index()
	if m, _ := idx.Method(idx.Definition(class), "toType"); m != nil {
		out := r.Resolve(r.NewScope(), types.NewMethodCall(types.NewObject(class), "toType"))
		if lit, ok := out.(*types.Literal); ok {
			if s, ok := lit.StringValue(); ok {
				return s
			}
		}
	}
	model := e.modelOf(idx, class)
	if model == "" {
		return ""
	}
	return inflect.CamelizeDownFirst(inflect.Pluralize(inflect.Underscore(baseName(model))))
}
