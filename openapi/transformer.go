package openapi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// TypeToSchema converts class types the default component body does not
// describe well, such as paginators or resource wrappers.
type TypeToSchema interface {
	ShouldHandle(t types.Type) bool
	ToSchema(tr *Transformer, t types.Type) *Schema
}

// ReferenceNamer is implemented by TypeToSchema extensions that choose the
// component name themselves. Returning false renders the schema inline.
type ReferenceNamer interface {
	ReferenceName(tr *Transformer, t types.Type) (string, bool)
}

// ResponseExtension builds the response for a returned type. A nil
// response means no opinion.
type ResponseExtension interface {
	ShouldHandle(t types.Type) bool
	ToResponse(tr *Transformer, t types.Type) (int, *Response)
}

// RequestBodyExtension builds the request body for a request type. A nil
// body means no opinion.
type RequestBodyExtension interface {
	ShouldHandleRequest(t types.Type) bool
	ToRequestBody(tr *Transformer, t types.Type) *RequestBody
}

// DefaultMaxNesting is the default number of components of one class that
// may be under construction at once. Generics whose arguments grow on every
// self reference, such as Tree<T> holding Tree<array<T>>, stop there.
const DefaultMaxNesting = 8

// TransformerOption configures a Transformer.
type TransformerOption func(*Transformer)

// WithTransformerLogger sets the logger.
func WithTransformerLogger(l *slog.Logger) TransformerOption {
	return func(tr *Transformer) {
		tr.logger = l
	}
}

// WithMaxNesting sets how many components of one class may be built
// inside each other. Deeper occurrences render as an untyped schema.
func WithMaxNesting(n int) TransformerOption {
	return func(tr *Transformer) {
		tr.maxNesting = n
	}
}

// WithComponents shares an existing components table.
func WithComponents(c *ComponentsTable) TransformerOption {
	return func(tr *Transformer) {
		tr.components = c
	}
}

// Transformer turns resolved types into schemas. Class types become
// references into the components table; structurally equal types share a
// single component.
//
// See: https://spec.openapis.org/oas/v3.1.0#schema-object
// See: https://json-schema.org/draft/2020-12/json-schema-core#section-8.2.3 ($ref)
type Transformer struct {
	resolver   *infer.Resolver
	components *ComponentsTable
	logger     *slog.Logger

	maxNesting int
	// building counts the components under construction per class.
	building map[string]int

	schemaExts   []TypeToSchema
	responseExts []ResponseExtension
	requestExts  []RequestBodyExtension
}

// NewTransformer returns a transformer resolving class bodies through r.
func NewTransformer(r *infer.Resolver, opts ...TransformerOption) *Transformer {
	tr := &Transformer{
		resolver:   r,
		logger:     slog.Default(),
		maxNesting: DefaultMaxNesting,
		building:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(tr)
	}
	if tr.components == nil {
		tr.components = NewComponentsTable()
	}
	return tr
}

// Register adds schema, response and request body extensions. A value
// implementing several interfaces is registered for each. Extensions run in
// registration order. A value implementing none of them panics.
func (tr *Transformer) Register(exts ...any) *Transformer {
	for _, ext := range exts {
		s, isSchema := ext.(TypeToSchema)
		r, isResponse := ext.(ResponseExtension)
		b, isRequest := ext.(RequestBodyExtension)
		if !isSchema && !isResponse && !isRequest {
			panic(fmt.Sprintf("openapi: %T is not a schema, response or request body extension", ext))
		}
		if isSchema {
			tr.schemaExts = append(tr.schemaExts, s)
		}
		if isResponse {
			tr.responseExts = append(tr.responseExts, r)
		}
		if isRequest {
			tr.requestExts = append(tr.requestExts, b)
		}
	}
	return tr
}

// Resolver returns the resolver used for class bodies.
func (tr *Transformer) Resolver() *infer.Resolver {
	return tr.resolver
}

// Index returns the symbol index.
func (tr *Transformer) Index() *infer.Index {
	return tr.resolver.Index()
}

// Components returns the components table.
func (tr *Transformer) Components() *ComponentsTable {
	return tr.components
}

// Transform resolves t and converts it to a schema.
func (tr *Transformer) Transform(t types.Type) *Schema {
	t = tr.resolver.Resolve(tr.resolver.NewScope(), t)
	s := tr.transform(t)
	applyAttrs(s, t)
	return s
}

func (tr *Transformer) transform(t types.Type) *Schema {
	switch v := t.(type) {
	case *types.Scalar:
		return scalarSchema(v.Kind)
	case *types.Literal:
		s := scalarSchema(v.Kind)
		s.Enum = []any{v.Value}
		return s
	case *types.ClassString:
		return &Schema{Type: TypeString("string")}
	case *types.ArrayOf:
		return tr.arraySchema(v)
	case *types.Shape:
		return tr.shapeSchema(v)
	case *types.Union:
		return tr.unionSchema(v)
	case *types.Object, *types.Generic:
		return tr.objectSchema(t)
	default:
		return &Schema{}
	}
}

func scalarSchema(k types.Kind) *Schema {
	switch k {
	case types.KindString:
		return &Schema{Type: TypeString("string")}
	case types.KindInteger:
		return &Schema{Type: TypeString("integer")}
	case types.KindFloat:
		return &Schema{Type: TypeString("number")}
	case types.KindBoolean:
		return &Schema{Type: TypeString("boolean")}
	case types.KindNull:
		return &Schema{Type: TypeString("null")}
	case types.KindObject:
		return NewObject()
	default:
		return &Schema{}
	}
}

func (tr *Transformer) arraySchema(a *types.ArrayOf) *Schema {
	if isStringKey(a.Key) {
		return &Schema{
			Type:                 TypeString("object"),
			AdditionalProperties: tr.Transform(a.Value),
		}
	}
	return &Schema{Type: TypeString("array"), Items: tr.Transform(a.Value)}
}

func isStringKey(t types.Type) bool {
	switch k := t.(type) {
	case *types.Scalar:
		return k.Kind == types.KindString
	case *types.Literal:
		return k.Kind == types.KindString
	}
	return false
}

func (tr *Transformer) shapeSchema(sh *types.Shape) *Schema {
	if len(sh.Items) == 0 {
		return &Schema{Type: TypeString("array"), Items: &Schema{}}
	}
	if sh.List {
		n := len(sh.Items)
		s := &Schema{Type: TypeString("array"), MinItems: &n, MaxItems: &n}
		for _, item := range sh.Items {
			s.PrefixItems = append(s.PrefixItems, tr.item(item))
		}
		return s
	}

	s := NewObject()
	for _, item := range sh.Items {
		key := fmt.Sprint(item.Key)
		s.AddProperty(key, tr.item(item))
		if !item.Optional {
			s.AddRequired(key)
		}
	}
	return s
}

func (tr *Transformer) item(item *types.ShapeItem) *Schema {
	s := tr.Transform(item.Value)
	if d, ok := item.Attr(types.AttrDescription); ok {
		if str, ok := d.(string); ok {
			s.Description = str
		}
	}
	return s
}

// unionSchema collapses null members into nullability, same-kind literals
// into an enum, and true|false into boolean. Anything else becomes anyOf.
func (tr *Transformer) unionSchema(u *types.Union) *Schema {
	var members []types.Type
	nullable := false
	for _, m := range u.Members {
		if types.IsNull(m) {
			nullable = true
			continue
		}
		members = append(members, m)
	}

	var s *Schema
	switch {
	case len(members) == 0:
		return &Schema{Type: TypeString("null")}
	case len(members) == 1:
		s = tr.Transform(members[0])
	default:
		if collapsed, ok := collapseScalars(members); ok {
			s = collapsed
		} else {
			s = &Schema{}
			for _, m := range members {
				s.AnyOf = append(s.AnyOf, tr.Transform(m))
			}
		}
	}
	if nullable {
		s = Nullable(s)
	}
	return s
}

// collapseScalars merges members that all share one scalar kind. Plain
// scalars absorb literals; literals alone become an enum.
func collapseScalars(members []types.Type) (*Schema, bool) {
	var kind types.Kind
	var values []any
	plain := false
	for i, m := range members {
		var k types.Kind
		switch v := m.(type) {
		case *types.Scalar:
			k = v.Kind
			plain = true
		case *types.Literal:
			k = v.Kind
			values = append(values, v.Value)
		default:
			return nil, false
		}
		if i > 0 && k != kind {
			return nil, false
		}
		kind = k
	}
	switch kind {
	case types.KindString, types.KindInteger, types.KindFloat, types.KindBoolean:
	default:
		return nil, false
	}

	s := scalarSchema(kind)
	if plain || (kind == types.KindBoolean && len(values) == 2) {
		return s, true
	}
	s.Enum = values
	return s, true
}

// Nullable returns s widened to also accept null.
//
// See: https://json-schema.org/draft/2020-12/json-schema-validation#section-6.1.1
func Nullable(s *Schema) *Schema {
	switch {
	case s.Ref != "":
		return &Schema{AnyOf: []*Schema{s, {Type: TypeString("null")}}}
	case len(s.AnyOf) > 0:
		for _, b := range s.AnyOf {
			if b.Type.Has("null") {
				return s
			}
		}
		s.AnyOf = append(s.AnyOf, &Schema{Type: TypeString("null")})
	case !s.Type.IsEmpty():
		if !s.Type.Has("null") {
			s.Type = TypeArray(append(append([]string(nil), s.Type.Values()...), "null")...)
		}
		if len(s.Enum) > 0 {
			s.Enum = append(s.Enum, nil)
		}
	}
	return s
}

func (tr *Transformer) objectSchema(t types.Type) *Schema {
	for _, ext := range tr.schemaExts {
		if !ext.ShouldHandle(t) {
			continue
		}
		name := ""
		if namer, ok := ext.(ReferenceNamer); ok {
			var ref bool
			tr.guard(ext, func() { name, ref = namer.ReferenceName(tr, t) })
			if !ref {
				if s := tr.extSchema(ext, t); s != nil {
					return s
				}
				continue
			}
		}
		return tr.reference(t, name, func() *Schema {
			if s := tr.extSchema(ext, t); s != nil {
				return s
			}
			return tr.objectBody(t)
		})
	}
	return tr.reference(t, "", func() *Schema { return tr.objectBody(t) })
}

func (tr *Transformer) extSchema(ext TypeToSchema, t types.Type) *Schema {
	var s *Schema
	tr.guard(ext, func() { s = ext.ToSchema(tr, t) })
	return s
}

func (tr *Transformer) guard(ext any, fn func()) bool {
	return tr.resolver.Broker().Guard(infer.HookName(ext), fn)
}

// reference returns a $ref to the component for t, building the body on
// first use. The component is registered before its body is built so
// self references resolve to the same name.
func (tr *Transformer) reference(t types.Type, name string, build func() *Schema) *Schema {
	key := types.Key(t)
	if existing, ok := tr.components.Name(key); ok {
		return RefTo(existing)
	}
	class, _ := types.ClassName(t)
	if class != "" && tr.maxNesting > 0 && tr.building[class] >= tr.maxNesting {
		tr.logger.Debug("component nesting limit reached", "class", class, "type", t.String())
		tr.resolver.Broker().Diagnostics().Add(infer.Diagnostic{
			Severity: infer.SeverityWarning,
			Category: infer.CategoryRecursion,
			Source:   class,
			Message:  fmt.Sprintf("component nesting limit %d reached at %s", tr.maxNesting, t.String()),
		})
		return &Schema{}
	}
	if name == "" {
		name = ComponentName(t)
	}
	name = tr.components.Claim(key, name)

	placeholder := &Schema{}
	tr.components.Set(name, placeholder)
	if class != "" {
		tr.building[class]++
		defer func() { tr.building[class]-- }()
	}
	*placeholder = *build()
	tr.logger.Debug("component registered", "component", name, "type", t.String())
	return RefTo(name)
}

// Ref returns a reference to the component for t, building it with build
// when t has not been seen. Extensions use it for wrapper components.
func (tr *Transformer) Ref(t types.Type, name string, build func() *Schema) *Schema {
	return tr.reference(t, name, build)
}

// ComponentName returns the default qualified component name of a class
// type. Generic arguments are appended by short name, e.g.
// Paginated<App\User> becomes "PaginatedUser".
func ComponentName(t types.Type) string {
	switch v := t.(type) {
	case *types.Object:
		return v.Name
	case *types.Generic:
		var b strings.Builder
		b.WriteString(v.Name)
		for _, a := range v.Args {
			b.WriteString(argName(a))
		}
		return b.String()
	}
	return ""
}

func argName(t types.Type) string {
	switch v := t.(type) {
	case *types.Object, *types.Generic:
		return shortName(ComponentName(v))
	case *types.ArrayOf:
		return argName(v.Value) + "List"
	case *types.Scalar:
		return titleCaser.String(v.Kind.String())
	case *types.Literal:
		if s, ok := v.StringValue(); ok {
			return titleCaser.String(sanitizeSchemaName(s))
		}
		return titleCaser.String(v.Kind.String())
	}
	return ""
}

// objectBody describes a class by its properties, parent properties first.
// Property types are resolved with the class's generic arguments bound.
func (tr *Transformer) objectBody(t types.Type) *Schema {
	class, _ := types.ClassName(t)
	s := NewObject()

	scope := tr.resolver.NewScope()
	for _, name := range tr.propertyNames(class) {
		pt := tr.resolver.Resolve(scope, types.NewPropertyFetch(types.Clone(t), name))
		prop := tr.Transform(pt)
		s.AddProperty(name, prop)
		if !isNullable(pt) {
			s.AddRequired(name)
		}
	}
	return s
}

func (tr *Transformer) propertyNames(class string) []string {
	idx := tr.resolver.Index()
	var chain []*infer.ClassDefinition
	seen := make(map[string]bool)
	for name := class; name != "" && !seen[name]; {
		seen[name] = true
		def := idx.Definition(name)
		chain = append(chain, def)
		name = def.Parent
	}

	var names []string
	have := make(map[string]bool)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, p := range chain[i].Properties {
			if !have[p.Name] {
				have[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	return names
}

func isNullable(t types.Type) bool {
	if types.IsNull(t) {
		return true
	}
	if u, ok := t.(*types.Union); ok {
		for _, m := range u.Members {
			if types.IsNull(m) {
				return true
			}
		}
	}
	return false
}

func applyAttrs(s *Schema, t types.Type) {
	if s == nil || t == nil {
		return
	}
	if v, ok := types.StringAttr(t, types.AttrDescription); ok {
		s.Description = v
	}
	if v, ok := types.StringAttr(t, types.AttrFormat); ok {
		s.Format = v
	}
	if v, ok := t.Attr(types.AttrExample); ok {
		s.Example = v
	}
	if v, ok := t.Attr(types.AttrDefault); ok {
		s.Default = v
	}
	if types.BoolAttr(t, types.AttrDeprecated) {
		s.Deprecated = true
	}
	if types.BoolAttr(t, types.AttrReadOnly) {
		s.ReadOnly = true
	}
}
