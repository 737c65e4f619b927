package paginate

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/extensions/querybuilder"
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

const (
	postClass       = `App\Models\Post`
	userClass       = `App\Models\User`
	controllerClass = `App\Http\PostController`
)

type testEnv struct {
	ext      *Extension
	resolver *infer.Resolver
	tr       *openapi.Transformer
}

func newTestEnv(cfg Config) *testEnv {
	quiet := slog.New(slog.DiscardHandler)
	ext := New(cfg)
	broker := infer.NewBroker(infer.WithBrokerLogger(quiet)).
		Register(ext.Hooks()...).
		Register(querybuilder.New().Hooks()...)

	src := infer.SourceFunc(func(name string) (*infer.ClassDefinition, bool) {
		switch name {
		case postClass, userClass:
			def := infer.NewClassDefinition(name)
			def.Parent = ModelClass
			def.SetProperty(&infer.PropertyDefinition{Name: "id", Type: types.Integer()})
			return def, true
		case controllerClass:
			def := infer.NewClassDefinition(name)
			def.SetMethod(infer.NewMethod("index", types.NewMethodCall(builderFor(postClass), "jsonPaginate")))
			return def, true
		}
		return nil, false
	})
	idx := infer.NewIndex(src, broker, infer.WithIndexLogger(quiet))
	r := infer.NewResolver(idx, infer.WithResolverLogger(quiet))
	tr := openapi.NewTransformer(r, openapi.WithTransformerLogger(quiet)).Register(ext.SchemaExtension())
	return &testEnv{ext: ext, resolver: r, tr: tr}
}

func builderFor(class string) *types.Reference {
	return types.NewStaticCall(querybuilder.QueryBuilderClass, "for", types.Positional(&types.ClassString{Class: class})...)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"default", Config{}, MethodPaginate},
		{"fast", Config{UseFast: true}, MethodFastPaginate},
		{"simple", Config{UseSimple: true}, MethodSimplePaginate},
		{"simple fast", Config{UseSimple: true, UseFast: true}, MethodSimpleFastPaginate},
		{"cursor wins", Config{UseCursor: true, UseSimple: true}, MethodCursorPaginate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.PaginationMethod())
		})
	}

	cfg := New(Config{MethodName: "pages"}).Config()
	assert.Equal(t, "pages", cfg.MethodName)
	assert.Equal(t, "page", cfg.PaginationParameter)
	assert.Equal(t, 30, cfg.DefaultSize)
}

func TestPaginatorHook(t *testing.T) {
	env := newTestEnv(DefaultConfig())
	scope := env.resolver.NewScope()

	t.Run("query builder", func(t *testing.T) {
		out := scope.Resolve(types.NewMethodCall(builderFor(postClass), MethodSimplePaginate))
		assert.Equal(t, PaginatorClass+"<"+postClass+">", out.String())
	})

	t.Run("eloquent builder", func(t *testing.T) {
		builder := types.NewGeneric(EloquentBuilderClass, types.NewObject(postClass))
		out := scope.Resolve(types.NewMethodCall(builder, MethodCursorPaginate))
		assert.Equal(t, CursorPaginatorClass+"<"+postClass+">", out.String())
	})

	t.Run("model static call", func(t *testing.T) {
		out := scope.Resolve(types.NewStaticCall(userClass, MethodPaginate))
		assert.Equal(t, LengthAwarePaginatorClass+"<"+userClass+">", out.String())
	})

	t.Run("other classes are ignored", func(t *testing.T) {
		out := scope.Resolve(types.NewStaticCall("App\\Services\\Report", MethodPaginate))
		assert.True(t, types.IsUnknown(out))
	})
}

func TestMethodHook(t *testing.T) {
	t.Run("query builder", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		scope := env.resolver.NewScope()

		chain := types.NewMethodCall(
			types.NewMethodCall(builderFor(postClass), "allowedSorts", types.Positional(types.NewList(types.LiteralString("id")))...),
			"jsonPaginate")
		out := scope.Resolve(chain)

		g, ok := out.(*types.Generic)
		require.True(t, ok)
		assert.Equal(t, LengthAwarePaginatorClass, g.Name)
		assert.Equal(t, postClass, g.Arg(0).String())

		contract, _ := types.StringAttr(out, AttrPaginator)
		assert.Equal(t, LengthAwarePaginatorContract, contract)
		size, _ := out.Attr(AttrPageSize)
		assert.Equal(t, 30, size)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		out := env.resolver.NewScope().Resolve(types.NewMethodCall(types.NewUnknown(), "jsonPaginate",
			types.Named("defaultSize", types.LiteralInt(10))))

		assert.True(t, types.IsUnknown(out))
		contract, _ := types.StringAttr(out, AttrPaginator)
		assert.Equal(t, LengthAwarePaginatorContract, contract)
		size, _ := out.Attr(AttrPageSize)
		assert.Equal(t, 10, size)

		other := env.resolver.NewScope().Resolve(types.NewMethodCall(types.NewUnknown(), "get"))
		assert.False(t, other.HasAttr(AttrPaginator))
	})

	t.Run("default size argument", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		out := env.resolver.NewScope().Resolve(types.NewStaticCall(postClass, "jsonPaginate",
			types.Positional(types.LiteralInt(100), types.LiteralInt(15))...))

		size, _ := out.Attr(AttrPageSize)
		assert.Equal(t, 15, size)
	})

	t.Run("cursor config", func(t *testing.T) {
		env := newTestEnv(Config{MethodName: "jsonPaginate", UseCursor: true})
		out := env.resolver.NewScope().Resolve(types.NewStaticCall(postClass, "jsonPaginate"))

		assert.Equal(t, CursorPaginatorClass+"<"+postClass+">", out.String())
		contract, _ := types.StringAttr(out, AttrPaginator)
		assert.Equal(t, CursorPaginatorContract, contract)
	})
}

func TestParametersExtractor(t *testing.T) {
	t.Run("page number", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		route := &openapi.RouteInfo{
			Scope:      env.resolver.NewScope(),
			ReturnType: types.NewStaticCall(postClass, "jsonPaginate", types.Named("defaultSize", types.LiteralInt(50))),
		}

		params := env.ext.ParametersExtractor().Extract(route, nil)
		require.Len(t, params, 2)
		assert.Equal(t, "page[size]", params[0].Name)
		assert.Equal(t, "query", params[0].In)
		assert.Equal(t, 50, params[0].Schema.Default)
		assert.Equal(t, "page[number]", params[1].Name)
		assert.Equal(t, openapi.TypeString("integer"), params[1].Schema.Type)
	})

	t.Run("cursor", func(t *testing.T) {
		env := newTestEnv(Config{MethodName: "jsonPaginate", UseCursor: true, PaginationParameter: "p"})
		route := &openapi.RouteInfo{
			Scope:      env.resolver.NewScope(),
			ReturnType: types.NewMethodCall(builderFor(postClass), "jsonPaginate"),
		}

		params := env.ext.ParametersExtractor().Extract(route, nil)
		require.Len(t, params, 2)
		assert.Equal(t, "p[size]", params[0].Name)
		assert.Equal(t, 30, params[0].Schema.Default)
		assert.Equal(t, "p[cursor]", params[1].Name)
		assert.Equal(t, openapi.TypeString("string"), params[1].Schema.Type)
	})

	t.Run("controller method route", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		gen := openapi.NewGenerator(env.tr, openapi.Info{Title: "Posts", Version: "1.0.0"},
			openapi.WithGeneratorLogger(slog.New(slog.DiscardHandler))).
			AddParameterExtractor(env.ext.ParametersExtractor())

		doc := gen.Generate([]*openapi.RouteInfo{{Method: "GET", URI: "/posts", Class: controllerClass, ClassMethod: "index"}})
		op := doc.Paths["/posts"].Get
		require.NotNil(t, op)
		require.Len(t, op.Parameters, 2)
		assert.Equal(t, "page[size]", op.Parameters[0].Name)
		assert.Equal(t, "page[number]", op.Parameters[1].Name)
	})

	t.Run("plain paginate call", func(t *testing.T) {
		env := newTestEnv(DefaultConfig())
		route := &openapi.RouteInfo{
			Scope:      env.resolver.NewScope(),
			ReturnType: types.NewStaticCall(postClass, MethodPaginate),
		}
		assert.Empty(t, env.ext.ParametersExtractor().Extract(route, nil))
	})
}

func TestPaginatorSchema(t *testing.T) {
	env := newTestEnv(DefaultConfig())
	paginator := types.NewGeneric(LengthAwarePaginatorClass, types.NewObject(userClass))

	first := env.tr.Transform(paginator)
	second := env.tr.Transform(types.Clone(paginator))
	assert.Equal(t, first, second)

	assert.Equal(t, 1, env.tr.Components().Len())
	assert.True(t, env.tr.Components().Has("User"))

	require.NotNil(t, first.Properties)
	data := first.Properties.Get("data")
	require.NotNil(t, data)
	require.NotNil(t, data.Items)
	assert.Equal(t, "#/components/schemas/User", data.Items.Ref)

	meta := first.Properties.Get("meta")
	require.NotNil(t, meta)
	assert.True(t, meta.Properties.Has("total"))
	assert.True(t, meta.Properties.Has("last_page"))

	cursor := env.tr.Transform(types.NewGeneric(CursorPaginatorContract, types.NewObject(userClass)))
	cursorMeta := cursor.Properties.Get("meta")
	require.NotNil(t, cursorMeta)
	assert.True(t, cursorMeta.Properties.Has("next_cursor"))
	assert.False(t, cursorMeta.Properties.Has("total"))
}

func TestShape(t *testing.T) {
	sh := Shape(PaginatorClass, types.NewObject(postClass))
	require.Len(t, sh.Items, 3)

	require.NotNil(t, sh.Get("meta"))
	meta, ok := sh.Get("meta").Value.(*types.Shape)
	require.True(t, ok)
	assert.NotNil(t, meta.Get("current_page"))
	assert.Nil(t, meta.Get("total"))
}
