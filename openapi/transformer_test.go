package openapi

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

func prop(name string, t types.Type) *infer.PropertyDefinition {
	return &infer.PropertyDefinition{Name: name, Type: t}
}

func classes() map[string]*infer.ClassDefinition {
	user := infer.NewClassDefinition("User")
	user.SetProperty(prop("id", types.Integer()))
	user.SetProperty(prop("name", types.String()))
	user.SetProperty(prop("email", types.NewUnion(types.String(), types.Null())))

	apiUser := infer.NewClassDefinition(`App\Api\User`)
	apiUser.SetProperty(prop("token", types.String()))

	admin := infer.NewClassDefinition("Admin")
	admin.Parent = "User"
	admin.SetProperty(prop("role", types.NewUnion(types.LiteralString("admin"), types.LiteralString("owner"))))

	paginated := infer.NewClassDefinition("Paginated")
	paginated.Templates = []*types.Template{types.NewTemplate("T")}
	paginated.SetProperty(prop("data", types.NewArray(types.NewTemplate("T"))))
	paginated.SetProperty(prop("meta", types.NewShape(types.Item("total", types.Integer()))))

	node := infer.NewClassDefinition("Node")
	node.SetProperty(prop("value", types.Integer()))
	node.SetProperty(prop("children", types.NewArray(types.NewObject("Node"))))
	node.SetProperty(prop("parent", types.NewUnion(types.NewObject("Node"), types.Null())))

	tree := infer.NewClassDefinition("Tree")
	tree.Templates = []*types.Template{types.NewTemplate("T")}
	tree.SetProperty(prop("value", types.NewTemplate("T")))
	tree.SetProperty(prop("child", types.NewGeneric("Tree", types.NewArray(types.NewTemplate("T")))))

	counter := infer.NewClassDefinition("Counter")
	counter.Templates = []*types.Template{types.NewTemplate("TN")}
	counter.SetProperty(prop("value", types.NewTemplate("TN")))
	tx := types.NewTemplate("TX")
	bump := infer.NewMethod("bump", types.Void(), &types.Param{Name: "value", Type: tx})
	bump.Type.Templates = []*types.Template{tx}
	bump.SelfOut = types.NewGeneric("self", tx)
	counter.SetMethod(bump)

	controller := infer.NewClassDefinition(`App\Http\UserController`)
	controller.SetMethod(infer.NewMethod("show", types.NewObject("User")))

	return map[string]*infer.ClassDefinition{
		"User": user, `App\Api\User`: apiUser, "Admin": admin, "Paginated": paginated, "Node": node,
		"Tree": tree, "Counter": counter, `App\Http\UserController`: controller,
	}
}

func newTestTransformer(hooks ...any) *Transformer {
	defs := classes()
	src := infer.SourceFunc(func(name string) (*infer.ClassDefinition, bool) {
		d, ok := defs[name]
		return d, ok
	})
	quiet := slog.New(slog.DiscardHandler)
	broker := infer.NewBroker(infer.WithBrokerLogger(quiet))
	if len(hooks) > 0 {
		broker.Register(hooks...)
	}
	r := infer.NewResolver(infer.NewIndex(src, broker, infer.WithIndexLogger(quiet)), infer.WithResolverLogger(quiet))
	return NewTransformer(r, WithTransformerLogger(quiet))
}

func schemaJSON(t *testing.T, s *Schema) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}

func TestTransformScalars(t *testing.T) {
	tests := []struct {
		name string
		in   types.Type
		want string
	}{
		{"string", types.String(), `{"type":"string"}`},
		{"integer", types.Integer(), `{"type":"integer"}`},
		{"float", types.Float(), `{"type":"number"}`},
		{"boolean", types.Boolean(), `{"type":"boolean"}`},
		{"null", types.Null(), `{"type":"null"}`},
		{"mixed", types.Mixed(), `{}`},
		{"unknown", types.NewUnknown(), `{}`},
		{"nil", nil, `{}`},
		{"class string", &types.ClassString{Class: "User"}, `{"type":"string"}`},
		{"string literal", types.LiteralString("a"), `{"type":"string","enum":["a"]}`},
		{"int literal", types.LiteralInt(3), `{"type":"integer","enum":[3]}`},
		{"unbound template", types.NewTemplate("T"), `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransformer()
			assert.JSONEq(t, tt.want, schemaJSON(t, tr.Transform(tt.in)))
		})
	}
}

func TestTransformUnion(t *testing.T) {
	tests := []struct {
		name string
		in   types.Type
		want string
	}{
		{"nullable scalar", types.NewUnion(types.String(), types.Null()), `{"type":["string","null"]}`},
		{"literal enum", types.NewUnion(types.LiteralString("a"), types.LiteralString("b")), `{"type":"string","enum":["a","b"]}`},
		{"nullable enum", types.NewUnion(types.LiteralString("a"), types.LiteralString("b"), types.Null()), `{"type":["string","null"],"enum":["a","b",null]}`},
		{"true or false", types.NewUnion(types.LiteralBool(true), types.LiteralBool(false)), `{"type":"boolean"}`},
		{"scalar absorbs literal", types.NewUnion(types.String(), types.LiteralString("a")), `{"type":"string"}`},
		{"mixed kinds", types.NewUnion(types.Integer(), types.String()), `{"anyOf":[{"type":"integer"},{"type":"string"}]}`},
		{"nullable mixed kinds", types.NewUnion(types.Integer(), types.String(), types.Null()), `{"anyOf":[{"type":"integer"},{"type":"string"},{"type":"null"}]}`},
		{"nullable reference", types.NewUnion(types.NewObject("User"), types.Null()), `{"anyOf":[{"$ref":"#/components/schemas/User"},{"type":"null"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransformer()
			assert.JSONEq(t, tt.want, schemaJSON(t, tr.Transform(tt.in)))
		})
	}
}

func TestTransformArrays(t *testing.T) {
	tests := []struct {
		name string
		in   types.Type
		want string
	}{
		{"list", types.NewArray(types.String()), `{"type":"array","items":{"type":"string"}}`},
		{"int keyed", types.NewMap(types.Integer(), types.String()), `{"type":"array","items":{"type":"string"}}`},
		{"string keyed", types.NewMap(types.String(), types.Integer()), `{"type":"object","additionalProperties":{"type":"integer"}}`},
		{"empty shape", types.NewShape(), `{"type":"array","items":{}}`},
		{"tuple", types.NewList(types.String(), types.Integer()), `{"type":"array","prefixItems":[{"type":"string"},{"type":"integer"}],"minItems":2,"maxItems":2}`},
		{
			"keyed shape",
			types.NewShape(types.Item("b", types.String()), types.OptionalItem("a", types.Integer())),
			`{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"integer"}},"required":["b"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransformer()
			assert.JSONEq(t, tt.want, schemaJSON(t, tr.Transform(tt.in)))
		})
	}

	t.Run("keyed shape keeps source order", func(t *testing.T) {
		tr := newTestTransformer()
		s := tr.Transform(types.NewShape(types.Item("z", types.String()), types.Item("a", types.String())))
		assert.Equal(t, []string{"z", "a"}, s.Properties.Keys())
	})
}

func TestTransformAttributes(t *testing.T) {
	tr := newTestTransformer()

	str := types.String()
	str.SetAttr(types.AttrDescription, "The name")
	str.SetAttr(types.AttrFormat, "email")
	str.SetAttr(types.AttrExample, "a@b.c")
	str.SetAttr(types.AttrDefault, "x")
	str.SetAttr(types.AttrDeprecated, true)

	s := tr.Transform(str)
	assert.Equal(t, "The name", s.Description)
	assert.Equal(t, "email", s.Format)
	assert.Equal(t, "a@b.c", s.Example)
	assert.Equal(t, "x", s.Default)
	assert.True(t, s.Deprecated)
	assert.False(t, s.ReadOnly)

	id := types.Integer()
	id.SetAttr(types.AttrReadOnly, true)
	assert.True(t, tr.Transform(id).ReadOnly)

	item := types.Item("name", types.String())
	item.SetAttr(types.AttrDescription, "From item")
	shape := tr.Transform(types.NewShape(item))
	assert.Equal(t, "From item", shape.Properties.Get("name").Description)
}

func TestTransformObjects(t *testing.T) {
	t.Run("reference deduplication", func(t *testing.T) {
		tr := newTestTransformer()
		a := tr.Transform(types.NewObject("User"))
		b := tr.Transform(types.NewObject("User"))

		assert.Equal(t, "#/components/schemas/User", a.Ref)
		assert.Equal(t, a.Ref, b.Ref)
		assert.Equal(t, []string{"User"}, tr.Components().Names())
	})

	t.Run("default body", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Transform(types.NewObject("User"))

		body := tr.Components().Get("User")
		require.NotNil(t, body)
		assert.JSONEq(t,
			`{"type":"object","properties":{"id":{"type":"integer"},"name":{"type":"string"},"email":{"type":["string","null"]}},"required":["id","name"]}`,
			schemaJSON(t, body))
	})

	t.Run("parent properties first", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Transform(types.NewObject("Admin"))

		body := tr.Components().Get("Admin")
		assert.Equal(t, []string{"id", "name", "email", "role"}, body.Properties.Keys())
		assert.Equal(t, []any{"admin", "owner"}, body.Properties.Get("role").Enum)
	})

	t.Run("short name collision is qualified", func(t *testing.T) {
		tr := newTestTransformer()
		a := tr.Transform(types.NewObject("User"))
		b := tr.Transform(types.NewObject(`App\Api\User`))

		assert.Equal(t, "#/components/schemas/User", a.Ref)
		assert.Equal(t, "#/components/schemas/ApiUser", b.Ref)
		assert.True(t, tr.Components().Get("ApiUser").Properties.Has("token"))
	})

	t.Run("attributes do not split components", func(t *testing.T) {
		tr := newTestTransformer()
		described := types.NewObject("User")
		described.SetAttr(types.AttrDescription, "Owner")

		a := tr.Transform(described)
		b := tr.Transform(types.NewObject("User"))
		assert.Equal(t, a.Ref, b.Ref)
		assert.Equal(t, "Owner", a.Description)
		assert.Empty(t, b.Description)
		assert.Equal(t, 1, tr.Components().Len())
	})

	t.Run("cycles become references", func(t *testing.T) {
		tr := newTestTransformer()
		ref := tr.Transform(types.NewObject("Node"))
		assert.Equal(t, "#/components/schemas/Node", ref.Ref)

		body := tr.Components().Get("Node")
		assert.Equal(t, "#/components/schemas/Node", body.Properties.Get("children").Items.Ref)
		assert.JSONEq(t,
			`{"anyOf":[{"$ref":"#/components/schemas/Node"},{"type":"null"}]}`,
			schemaJSON(t, body.Properties.Get("parent")))
		assert.Equal(t, []string{"value", "children"}, body.Required)
	})
}

func TestTransformExpandingGeneric(t *testing.T) {
	quiet := slog.New(slog.DiscardHandler)
	tr := NewTransformer(newTestTransformer().Resolver(), WithMaxNesting(3), WithTransformerLogger(quiet))

	ref := tr.Transform(types.NewGeneric("Tree", types.NewObject("User")))
	assert.Equal(t, "#/components/schemas/TreeUser", ref.Ref)

	assert.Equal(t, "#/components/schemas/TreeUserList", tr.Components().Get("TreeUser").Properties.Get("child").Ref)
	assert.Equal(t, "#/components/schemas/TreeUserListList", tr.Components().Get("TreeUserList").Properties.Get("child").Ref)
	deepest := tr.Components().Get("TreeUserListList")
	require.NotNil(t, deepest)
	assert.Equal(t, "{}", schemaJSON(t, deepest.Properties.Get("child")))
	assert.Equal(t, 4, tr.Components().Len())

	diags := tr.Resolver().Broker().Diagnostics().ByCategory(infer.CategoryRecursion)
	require.NotEmpty(t, diags)
	assert.Equal(t, "Tree", diags[0].Source)

	t.Run("second transform reuses components", func(t *testing.T) {
		again := tr.Transform(types.NewGeneric("Tree", types.NewObject("User")))
		assert.Equal(t, ref.Ref, again.Ref)
		assert.Equal(t, 4, tr.Components().Len())
	})
}

func TestTransformGeneric(t *testing.T) {
	t.Run("paginated user", func(t *testing.T) {
		tr := newTestTransformer()
		paginated := types.NewGeneric("Paginated", types.NewObject("User"))

		first := tr.Transform(paginated)
		second := tr.Transform(types.NewGeneric("Paginated", types.NewObject("User")))
		assert.Equal(t, "#/components/schemas/PaginatedUser", first.Ref)
		assert.Equal(t, first.Ref, second.Ref)

		body := tr.Components().Get("PaginatedUser")
		assert.Equal(t, "#/components/schemas/User", body.Properties.Get("data").Items.Ref)
		assert.True(t, body.Properties.Get("meta").Properties.Has("total"))

		assert.ElementsMatch(t, []string{"PaginatedUser", "User"}, tr.Components().Names())
		assert.False(t, tr.Components().Has("User2"))
	})

	t.Run("distinct arguments get distinct components", func(t *testing.T) {
		tr := newTestTransformer()
		a := tr.Transform(types.NewGeneric("Paginated", types.NewObject("User")))
		b := tr.Transform(types.NewGeneric("Paginated", types.NewObject("Node")))
		assert.NotEqual(t, a.Ref, b.Ref)
		assert.Equal(t, "#/components/schemas/PaginatedNode", b.Ref)
	})

	t.Run("missing arguments are unknown", func(t *testing.T) {
		tr := newTestTransformer()
		ref := tr.Transform(types.NewGeneric("Paginated"))

		name, ok := ref.RefName()
		require.True(t, ok)
		body := tr.Components().Get(name)
		assert.JSONEq(t, `{"type":"array","items":{}}`, schemaJSON(t, body.Properties.Get("data")))
	})
}

func TestComponentName(t *testing.T) {
	tests := []struct {
		in   types.Type
		want string
	}{
		{types.NewObject(`App\User`), `App\User`},
		{types.NewGeneric("Paginated", types.NewObject(`App\User`)), "PaginatedUser"},
		{types.NewGeneric("Collection", types.NewArray(types.NewObject("User"))), "CollectionUserList"},
		{types.NewGeneric("Box", types.String()), "BoxString"},
		{types.NewGeneric("Pair", types.Integer(), types.LiteralString("name")), "PairIntName"},
		{types.String(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ComponentName(tt.in))
		})
	}
}

type inlineExt struct{}

func (inlineExt) ShouldHandle(t types.Type) bool {
	name, _ := types.ClassName(t)
	return name == "Node"
}

func (inlineExt) ToSchema(*Transformer, types.Type) *Schema {
	return &Schema{Type: TypeString("string"), Format: "node-id"}
}

func (inlineExt) ReferenceName(*Transformer, types.Type) (string, bool) { return "", false }

type namedExt struct{}

func (namedExt) ShouldHandle(t types.Type) bool {
	_, ok := t.(*types.Generic)
	return ok
}

func (namedExt) ToSchema(tr *Transformer, t types.Type) *Schema {
	g := t.(*types.Generic)
	return NewObject().
		AddProperty("items", &Schema{Type: TypeString("array"), Items: tr.Transform(g.Arg(0))}).
		AddRequired("items")
}

func (namedExt) ReferenceName(_ *Transformer, t types.Type) (string, bool) {
	return "Page" + shortName(ComponentName(t.(*types.Generic).Arg(0))), true
}

type brokenExt struct{}

func (brokenExt) ShouldHandle(types.Type) bool { return true }

func (brokenExt) ToSchema(*Transformer, types.Type) *Schema { panic("broken") }

func TestTransformExtensions(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Register(inlineExt{})

		s := tr.Transform(types.NewObject("Node"))
		assert.Equal(t, "node-id", s.Format)
		assert.Equal(t, 0, tr.Components().Len())
	})

	t.Run("custom component name", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Register(namedExt{})

		s := tr.Transform(types.NewGeneric("Paginated", types.NewObject("User")))
		assert.Equal(t, "#/components/schemas/PageUser", s.Ref)
		assert.True(t, tr.Components().Get("PageUser").Properties.Has("items"))
	})

	t.Run("failing extension falls back to default body", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Register(brokenExt{})

		s := tr.Transform(types.NewObject("User"))
		assert.Equal(t, "#/components/schemas/User", s.Ref)
		assert.True(t, tr.Components().Get("User").Properties.Has("id"))
		assert.Len(t, tr.Resolver().Broker().Diagnostics().ByCategory(infer.CategoryHookFailure), 1)
	})

	t.Run("register rejects other values", func(t *testing.T) {
		assert.Panics(t, func() { newTestTransformer().Register(struct{}{}) })
	})
}

func TestNullable(t *testing.T) {
	t.Run("typed", func(t *testing.T) {
		s := Nullable(&Schema{Type: TypeString("integer")})
		assert.Equal(t, TypeArray("integer", "null"), s.Type)
	})

	t.Run("already nullable", func(t *testing.T) {
		s := Nullable(&Schema{Type: TypeArray("integer", "null")})
		assert.Equal(t, []string{"integer", "null"}, s.Type.Values())
	})

	t.Run("untyped stays permissive", func(t *testing.T) {
		s := Nullable(&Schema{})
		assert.True(t, s.Type.IsEmpty())
		assert.Empty(t, s.AnyOf)
	})

	t.Run("anyOf gains null once", func(t *testing.T) {
		s := Nullable(Nullable(&Schema{AnyOf: []*Schema{{Type: TypeString("string")}, {Type: TypeString("integer")}}}))
		assert.Len(t, s.AnyOf, 3)
	})
}
