package openapi

import (
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// RouteInfo is one route of the host application with its statically
// known types.
type RouteInfo struct {
	Method string
	URI    string
	Name   string
	Tags   []string

	// Action is the controller action as written, e.g. "UserController@index".
	Action      string
	Class       string
	ClassMethod string

	// Scope holds the action's local variables. Statements are analyzed in
	// it, so ReturnType may refer to variables they refine.
	Scope       *infer.Scope
	ReturnType  types.Type
	RequestType types.Type
	Statements  []types.Type

	Summary     string
	Description string
	Deprecated  bool
}

// ParameterExtractor inspects a route and returns parameters to add.
// params holds the parameters collected so far. A returned parameter with
// the same name and location replaces the existing one.
type ParameterExtractor interface {
	Extract(route *RouteInfo, params []*Parameter) []*Parameter
}

// ParameterExtractorFunc adapts a function to ParameterExtractor.
type ParameterExtractorFunc func(route *RouteInfo, params []*Parameter) []*Parameter

// Extract calls f.
func (f ParameterExtractorFunc) Extract(route *RouteInfo, params []*Parameter) []*Parameter {
	return f(route, params)
}

// RouteTransformer adjusts a route before its operation is built.
type RouteTransformer interface {
	TransformRoute(route *RouteInfo)
}

// RouteTransformerFunc adapts a function to RouteTransformer.
type RouteTransformerFunc func(route *RouteInfo)

// TransformRoute calls f.
func (f RouteTransformerFunc) TransformRoute(route *RouteInfo) {
	f(route)
}

// OperationTransformer refines a built operation.
type OperationTransformer interface {
	TransformOperation(op *Operation, route *RouteInfo)
}

// OperationTransformerFunc adapts a function to OperationTransformer.
type OperationTransformerFunc func(op *Operation, route *RouteInfo)

// TransformOperation calls f.
func (f OperationTransformerFunc) TransformOperation(op *Operation, route *RouteInfo) {
	f(op, route)
}

// DocumentTransformer runs once over the assembled document.
type DocumentTransformer interface {
	TransformDocument(doc *Document, tr *Transformer)
}

// DocumentTransformerFunc adapts a function to DocumentTransformer.
type DocumentTransformerFunc func(doc *Document, tr *Transformer)

// TransformDocument calls f.
func (f DocumentTransformerFunc) TransformDocument(doc *Document, tr *Transformer) {
	f(doc, tr)
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// pathVarRegexp matches route variables in the form {name} or {name?}.
var pathVarRegexp = regexp.MustCompile(`\{([^}]+)\}`)

// Generator assembles a Document from routes.
type Generator struct {
	info            Info
	servers         []Server
	tags            []Tag
	security        []SecurityRequirement
	externalDocs    *ExternalDocs
	securitySchemes map[string]*SecurityScheme

	transformer *Transformer
	logger      *slog.Logger

	routeTransformers []RouteTransformer
	extractors        []ParameterExtractor
	opTransformers    []OperationTransformer
	docTransformers   []DocumentTransformer
}

// NewGenerator creates a generator with the given API info.
func NewGenerator(tr *Transformer, info Info, opts ...GeneratorOption) *Generator {
	g := &Generator{
		info:        info,
		transformer: tr,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Transformer returns the schema transformer.
func (g *Generator) Transformer() *Transformer {
	return g.transformer
}

// AddServer adds a server to the document.
func (g *Generator) AddServer(server Server) *Generator {
	g.servers = append(g.servers, server)
	return g
}

// AddTag adds a user-defined tag with optional description and external docs.
func (g *Generator) AddTag(tag Tag) *Generator {
	g.tags = append(g.tags, tag)
	return g
}

// SetSecurity sets the document-level security requirements.
func (g *Generator) SetSecurity(reqs ...SecurityRequirement) *Generator {
	g.security = reqs
	return g
}

// SetExternalDocs sets the document-level external documentation link.
func (g *Generator) SetExternalDocs(url, description string) *Generator {
	g.externalDocs = &ExternalDocs{URL: url, Description: description}
	return g
}

// AddSecurityScheme registers a reusable security scheme in components.
func (g *Generator) AddSecurityScheme(name string, scheme *SecurityScheme) *Generator {
	if g.securitySchemes == nil {
		g.securitySchemes = make(map[string]*SecurityScheme)
	}
	g.securitySchemes[name] = scheme
	return g
}

// AddRouteTransformer appends route transformers. They run in order before
// the route is analyzed.
func (g *Generator) AddRouteTransformer(t ...RouteTransformer) *Generator {
	g.routeTransformers = append(g.routeTransformers, t...)
	return g
}

// AddParameterExtractor appends parameter extractors. They run in order.
func (g *Generator) AddParameterExtractor(ex ...ParameterExtractor) *Generator {
	g.extractors = append(g.extractors, ex...)
	return g
}

// PrependOperationTransformer adds operation transformers that run before
// the ones already registered.
func (g *Generator) PrependOperationTransformer(t ...OperationTransformer) *Generator {
	g.opTransformers = append(append([]OperationTransformer(nil), t...), g.opTransformers...)
	return g
}

// AppendOperationTransformer adds operation transformers that run last.
func (g *Generator) AppendOperationTransformer(t ...OperationTransformer) *Generator {
	g.opTransformers = append(g.opTransformers, t...)
	return g
}

// AddDocumentTransformer adds document transformers. They run in order
// after every route is built.
func (g *Generator) AddDocumentTransformer(t ...DocumentTransformer) *Generator {
	g.docTransformers = append(g.docTransformers, t...)
	return g
}

// Generate builds the document for routes.
func (g *Generator) Generate(routes []*RouteInfo) *Document {
	doc := &Document{
		OpenAPI:      "3.1.0",
		Info:         g.info,
		Servers:      g.servers,
		Paths:        make(map[string]*PathItem),
		Security:     g.security,
		ExternalDocs: g.externalDocs,
	}

	for _, route := range routes {
		openAPIPath, op := g.buildOperation(route)

		pathItem, ok := doc.Paths[openAPIPath]
		if !ok {
			pathItem = &PathItem{}
		}
		if !assignOperation(pathItem, strings.ToUpper(route.Method), op) {
			g.logger.Warn("unsupported route method", "method", route.Method, "uri", route.URI)
			continue
		}
		doc.Paths[openAPIPath] = pathItem
	}

	doc.Components = g.buildComponents()
	doc.Tags = g.mergeTags(doc.Paths)

	broker := g.transformer.Resolver().Broker()
	for _, t := range g.docTransformers {
		broker.Guard(infer.HookName(t), func() { t.TransformDocument(doc, g.transformer) })
	}

	g.logger.Info("document generated",
		"paths", len(doc.Paths),
		"components", g.transformer.Components().Len(),
	)
	return doc
}

// buildOperation analyzes one route and builds its operation.
func (g *Generator) buildOperation(route *RouteInfo) (string, *Operation) {
	resolver := g.transformer.Resolver()
	broker := resolver.Broker()

	for _, t := range g.routeTransformers {
		broker.Guard(infer.HookName(t), func() { t.TransformRoute(route) })
	}

	if route.Scope == nil {
		route.Scope = resolver.NewScope()
	}
	if route.Class != "" && route.Scope.Class == "" {
		route.Scope = route.Scope.WithClass(route.Class)
	}
	for _, st := range route.Statements {
		resolver.ResolveStatement(route.Scope, st)
	}
	// Extractors inspect ReturnType, so the controller method fallback is
	// stored on the route before they run.
	route.ReturnType = g.returnType(route)

	openAPIPath, params := parsePath(route.URI)
	for _, ex := range g.extractors {
		var extra []*Parameter
		broker.Guard(infer.HookName(ex), func() { extra = ex.Extract(route, params) })
		params = mergeParameters(params, extra)
	}

	op := &Operation{
		OperationID: operationID(route),
		Summary:     route.Summary,
		Description: route.Description,
		Tags:        route.Tags,
		Deprecated:  route.Deprecated,
		Parameters:  params,
	}

	if route.RequestType != nil && HasRequestBody(route.Method) {
		op.RequestBody = g.transformer.ToRequestBody(route.Scope.Resolve(route.RequestType))
	}

	var ret types.Type = types.Void()
	if route.ReturnType != nil {
		ret = route.Scope.Resolve(route.ReturnType)
	}
	code, resp := g.transformer.ToResponse(ret)
	op.Responses = map[string]*Response{strconv.Itoa(code): resp}

	for _, t := range g.opTransformers {
		broker.Guard(infer.HookName(t), func() { t.TransformOperation(op, route) })
	}
	return openAPIPath, op
}

// returnType is the declared return type of the route, or the return type
// of its controller method when none is declared.
func (g *Generator) returnType(route *RouteInfo) types.Type {
	if route.ReturnType != nil || route.Class == "" || route.ClassMethod == "" {
		return route.ReturnType
	}
	idx := g.transformer.Index()
	if m, _ := idx.Method(idx.Definition(route.Class), route.ClassMethod); m == nil {
		return nil
	}
	return types.NewMethodCall(types.NewObject(route.Class), route.ClassMethod)
}

func operationID(route *RouteInfo) string {
	if route.Name != "" {
		return route.Name
	}
	if route.Class != "" && route.ClassMethod != "" {
		return shortName(route.Class) + "." + route.ClassMethod
	}
	return ""
}

// HasRequestBody reports whether requests with method carry a body.
func HasRequestBody(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return false
	}
	return true
}

// buildComponents assembles the Components object from the components
// table and registered security schemes.
func (g *Generator) buildComponents() *Components {
	schemas := g.transformer.Components().Schemas()
	if len(schemas) == 0 && len(g.securitySchemes) == 0 {
		return nil
	}

	comp := &Components{}
	if len(schemas) > 0 {
		comp.Schemas = schemas
	}
	if len(g.securitySchemes) > 0 {
		comp.SecuritySchemes = g.securitySchemes
	}
	return comp
}

// mergeTags combines auto-collected tags from operations with user-defined tags.
// User-defined tags take precedence (their description and externalDocs are kept).
// Tags not seen in operations but defined by the user are still included.
// The result is sorted alphabetically.
func (g *Generator) mergeTags(paths map[string]*PathItem) []Tag {
	userTags := make(map[string]Tag, len(g.tags))
	for _, tag := range g.tags {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []Tag

	for _, path := range sortedNames(paths) {
		for _, op := range paths[path].Operations() {
			for _, tagName := range op.Tags {
				if seen[tagName] {
					continue
				}
				seen[tagName] = true
				if userTag, ok := userTags[tagName]; ok {
					tags = append(tags, userTag)
				} else {
					tags = append(tags, Tag{Name: tagName})
				}
			}
		}
	}

	for _, tag := range g.tags {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

// mergeParameters combines parameters with overrides. Overrides with the
// same name+in replace the existing entry in place; new ones are appended.
// Per OpenAPI, parameter uniqueness is determined by name and location (in).
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object (parameters)
func mergeParameters(base, overrides []*Parameter) []*Parameter {
	if len(overrides) == 0 {
		return base
	}

	index := make(map[[2]string]int, len(base))
	merged := append([]*Parameter(nil), base...)
	for i, p := range merged {
		index[[2]string{p.Name, p.In}] = i
	}
	for _, p := range overrides {
		if p == nil {
			continue
		}
		key := [2]string{p.Name, p.In}
		if i, ok := index[key]; ok {
			merged[i] = p
			continue
		}
		index[key] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// assignOperation assigns an operation to the correct HTTP method field
// on the path item. It reports whether the method is known.
func assignOperation(pathItem *PathItem, method string, op *Operation) bool {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	default:
		return false
	}
	return true
}

// parsePath converts a route URI to OpenAPI format and generates path
// parameters. Optional segments ("{id?}") lose their marker; path
// parameters are always required in OpenAPI.
func parsePath(uri string) (string, []*Parameter) {
	var params []*Parameter

	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}

	openAPIPath := pathVarRegexp.ReplaceAllStringFunc(uri, func(match string) string {
		name := strings.TrimSuffix(match[1:len(match)-1], "?")
		params = append(params, &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: TypeString("string")},
		})
		return "{" + name + "}"
	})

	return openAPIPath, params
}
