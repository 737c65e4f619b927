package infer

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/types"
)

type sideEffectRecorder struct {
	events []*SideEffectCallEvent
}

func (r *sideEffectRecorder) ShouldHandleType(types.Type) bool { return true }

func (r *sideEffectRecorder) AfterSideEffectCallAnalyzed(ev *SideEffectCallEvent) {
	r.events = append(r.events, ev)
}

type mutatingHook struct{}

func (mutatingHook) ShouldHandleType(types.Type) bool { return true }

func (mutatingHook) MethodReturnType(ev *MethodCallEvent) types.Type {
	ev.Instance.SetAttr("touched", true)
	return nil
}

type unknownReceiverHook struct {
	definitions []*ClassDefinition
}

func (h *unknownReceiverHook) ShouldHandleType(t types.Type) bool {
	_, ok := t.(*types.Unknown)
	return ok
}

func (h *unknownReceiverHook) MethodReturnType(ev *MethodCallEvent) types.Type {
	h.definitions = append(h.definitions, ev.Definition)
	return types.Float()
}

func fixtures() mapSource {
	pair := NewClassDefinition("Pair")
	pair.Templates = []*types.Template{types.NewTemplate("T1"), types.NewTemplate("T2")}
	pair.SetMethod(NewMethod("first", types.NewTemplate("T1")))
	pair.SetMethod(NewMethod("second", types.NewTemplate("T2")))
	pair.SetMethod(NewMethod("swap", types.NewGeneric("Pair", types.NewTemplate("T2"), types.NewTemplate("T1"))))

	withDefault := NewClassDefinition("Option")
	withDefault.Templates = []*types.Template{{Name: "T", Default: types.Boolean()}}
	withDefault.SetMethod(NewMethod("get", types.NewTemplate("T")))

	builder := NewClassDefinition("Builder")
	builder.Templates = []*types.Template{types.NewTemplate("TA"), types.NewTemplate("TB"), types.NewTemplate("TC")}
	for i, name := range []string{"setA", "setB", "setC"} {
		tx := types.NewTemplate("TX")
		slots := []types.Type{&types.Placeholder{}, &types.Placeholder{}, &types.Placeholder{}}
		slots[i] = tx
		m := NewMethod(name, types.NewObject("static"), &types.Param{Name: "value", Type: tx})
		m.Type.Templates = []*types.Template{tx}
		m.SelfOut = types.NewGeneric("self", slots...)
		builder.SetMethod(m)
	}
	builder.SetMethod(NewMethod("count", types.Integer()))

	box := NewClassDefinition("Box")
	box.Templates = []*types.Template{types.NewTemplate("T")}
	box.SetProperty(&PropertyDefinition{Name: "value", Type: types.NewTemplate("T")})
	box.SetMethod(NewMethod("__construct", types.Void(), &types.Param{Name: "value", Type: types.NewTemplate("T")}))
	box.SetMethod(NewMethod("self", types.NewObject("$this")))

	factory := NewClassDefinition("Factory")
	tf := types.NewTemplate("T")
	mk := NewMethod("make", tf, &types.Param{Name: "class", Type: types.NewGeneric("class-string", tf)})
	mk.Type.Templates = []*types.Template{tf}
	mk.Static = true
	factory.SetMethod(mk)

	ta, tb := types.NewTemplate("A"), types.NewTemplate("B")
	pick := NewMethod("pick", tb, &types.Param{Name: "a", Type: ta}, &types.Param{Name: "b", Type: tb})
	pick.Type.Templates = []*types.Template{ta, tb}
	factory.SetMethod(pick)

	tv := types.NewTemplate("V")
	tags := NewMethod("tags", types.NewArray(tv), &types.Param{Name: "values", Type: tv, Variadic: true})
	tags.Type.Templates = []*types.Template{tv}
	factory.SetMethod(tags)

	factory.SetMethod(NewMethod("count", &types.Computed{
		Label:  "count",
		Inputs: []types.Type{types.NewTemplate(ArgumentsTemplate)},
		Compute: func(in []types.Type) types.Type {
			shape, ok := in[0].(*types.Shape)
			if !ok {
				Violation("argument shape", in[0])
			}
			return types.LiteralInt(int64(len(shape.Items)))
		},
	}))

	loop := NewClassDefinition("Loop")
	loop.SetMethod(NewMethod("loop", types.NewMethodCall(types.NewObject("$this"), "loop")))

	base := NewClassDefinition("Model")
	base.SetProperty(&PropertyDefinition{Name: "id", Type: types.Integer()})
	user := NewClassDefinition("User")
	user.Parent = "Model"
	user.SetMethod(NewMethod("name", types.String()))
	post := NewClassDefinition("Post")
	post.Parent = "Model"
	post.SetMethod(NewMethod("name", types.LiteralString("post")))

	return mapSource{
		"Pair": pair, "Option": withDefault, "Builder": builder, "Box": box,
		"Factory": factory, "Loop": loop, "Model": base, "User": user, "Post": post,
	}
}

func newTestResolver(broker *Broker, opts ...ResolverOption) (*Resolver, *Scope) {
	if broker == nil {
		broker = quietBroker()
	}
	r := NewResolver(NewIndex(fixtures(), broker), append([]ResolverOption{WithResolverLogger(slog.New(slog.DiscardHandler))}, opts...)...)
	return r, r.NewScope()
}

func call(subject types.Type, method string, args ...types.Type) *types.Reference {
	return types.NewMethodCall(subject, method, types.Positional(args...)...)
}

func TestResolveIdempotent(t *testing.T) {
	r, s := newTestResolver(nil)

	concrete := []types.Type{
		types.String(),
		types.NewShape(types.Item("id", types.Integer())),
		types.NewGeneric("Pair", types.String(), types.Integer()),
		types.NewUnion(types.String(), types.Null()),
	}
	for _, in := range concrete {
		t.Run(in.String(), func(t *testing.T) {
			assert.Same(t, in, r.Resolve(s, in))
		})
	}

	t.Run("resolved reference", func(t *testing.T) {
		once := r.Resolve(s, call(types.NewGeneric("Pair", types.String(), types.Integer()), "swap"))
		assert.Same(t, once, r.Resolve(s, once))
	})
}

func TestResolveTemplates(t *testing.T) {
	r, s := newTestResolver(nil)
	pair := types.NewGeneric("Pair", types.String(), types.Integer())

	t.Run("class template from generic argument", func(t *testing.T) {
		assert.True(t, types.Same(types.Integer(), r.Resolve(s, call(pair, "second"))))
		assert.True(t, types.Same(types.String(), r.Resolve(s, call(pair, "first"))))
	})

	t.Run("nested substitution", func(t *testing.T) {
		got := r.Resolve(s, call(pair, "swap"))
		assert.Equal(t, "Pair<int, string>", got.String())
	})

	t.Run("partial instantiation yields unknown", func(t *testing.T) {
		partial := types.NewGeneric("Pair", types.String())
		assert.True(t, types.IsUnknown(r.Resolve(s, call(partial, "second"))))
		assert.True(t, types.Same(types.String(), r.Resolve(s, call(partial, "first"))))
	})

	t.Run("missing argument uses template default", func(t *testing.T) {
		got := r.Resolve(s, call(types.NewObject("Option"), "get"))
		assert.True(t, types.Same(types.Boolean(), got))
	})

	t.Run("scope binding", func(t *testing.T) {
		child := s.Child().Bind("T", types.String())
		got := r.Resolve(child, types.NewArray(types.NewTemplate("T")))
		assert.Equal(t, "array<string>", got.String())
	})

	t.Run("unbound template falls back to constraint", func(t *testing.T) {
		tpl := &types.Template{Name: "K", Constraint: types.String()}
		assert.True(t, types.Same(types.String(), r.Resolve(s, tpl)))
		assert.True(t, types.IsUnknown(r.Resolve(s, types.NewTemplate("K"))))
	})

	t.Run("result does not alias the binding", func(t *testing.T) {
		bound := types.NewObject("User")
		child := s.Child().Bind("T", bound)
		got := r.Resolve(child, types.NewTemplate("T"))
		got.SetAttr("description", "x")
		assert.False(t, bound.HasAttr("description"))
	})
}

func TestResolveMethodTemplates(t *testing.T) {
	r, s := newTestResolver(nil)

	t.Run("class-string argument", func(t *testing.T) {
		got := r.Resolve(s, types.NewStaticCall("Factory", "make", types.Positional(&types.ClassString{Class: "User"})...))
		assert.Equal(t, "User", got.String())
	})

	t.Run("named arguments match by name", func(t *testing.T) {
		ref := types.NewStaticCall("Factory", "pick", types.Named("b", types.String()), types.Arg{Type: types.Integer()})
		assert.True(t, types.Same(types.String(), r.Resolve(s, ref)))
	})

	t.Run("variadic takes union of remaining arguments", func(t *testing.T) {
		got := r.Resolve(s, types.NewStaticCall("Factory", "tags", types.Positional(types.LiteralString("a"), types.LiteralString("b"))...))
		assert.Equal(t, `array<"a"|"b">`, got.String())
	})

	t.Run("computed from call arguments", func(t *testing.T) {
		got := r.Resolve(s, types.NewStaticCall("Factory", "count", types.Positional(types.String(), types.Integer())...))
		assert.True(t, types.Same(types.LiteralInt(2), got))
	})
}

func TestResolveSelfOut(t *testing.T) {
	r, s := newTestResolver(nil)

	chain := call(call(call(types.NewObject("Builder"), "setA", types.LiteralString("a")), "setB", types.LiteralString("b")), "setC", types.LiteralString("c"))
	got := r.Resolve(s, chain)

	g, ok := got.(*types.Generic)
	require.True(t, ok, got.String())
	assert.Equal(t, "Builder", g.Name)
	require.Len(t, g.Args, 3)
	assert.True(t, types.Same(types.LiteralString("a"), g.Args[0]))
	assert.True(t, types.Same(types.LiteralString("b"), g.Args[1]))
	assert.True(t, types.Same(types.LiteralString("c"), g.Args[2]))

	t.Run("later call overwrites its own slot only", func(t *testing.T) {
		again := r.Resolve(s, call(chain, "setA", types.LiteralString("z")))
		assert.Equal(t, `Builder<"z", "b", "c">`, again.String())
	})

	t.Run("receiver attributes are carried", func(t *testing.T) {
		subject := types.NewGeneric("Builder", types.NewUnknown(), types.NewUnknown(), types.NewUnknown())
		subject.SetAttr("route", "users.index")
		got := r.Resolve(s, call(subject, "setB", types.Integer()))
		v, _ := types.StringAttr(got, "route")
		assert.Equal(t, "users.index", v)
	})
}

func TestResolveCalls(t *testing.T) {
	r, s := newTestResolver(nil)

	t.Run("constructor infers class templates", func(t *testing.T) {
		got := r.Resolve(s, types.NewConstructorCall("Box", types.Positional(types.Integer())...))
		assert.Equal(t, "Box<int>", got.String())
	})

	t.Run("constructor of plain class", func(t *testing.T) {
		got := r.Resolve(s, types.NewConstructorCall("User"))
		assert.Equal(t, "User", got.String())
	})

	t.Run("this is the subject", func(t *testing.T) {
		box := types.NewGeneric("Box", types.String())
		got := r.Resolve(s, call(box, "self"))
		assert.True(t, types.Same(box, got))
		assert.NotSame(t, box, got)
	})

	t.Run("property with generic binding", func(t *testing.T) {
		got := r.Resolve(s, types.NewPropertyFetch(types.NewGeneric("Box", types.String()), "value"))
		assert.True(t, types.Same(types.String(), got))
	})

	t.Run("inherited property", func(t *testing.T) {
		got := r.Resolve(s, types.NewPropertyFetch(types.NewObject("User"), "id"))
		assert.True(t, types.Same(types.Integer(), got))
	})

	t.Run("union subject resolves member wise", func(t *testing.T) {
		got := r.Resolve(s, call(types.NewUnion(types.NewObject("User"), types.NewObject("Post")), "name"))
		assert.Equal(t, `string|"post"`, got.String())
	})

	t.Run("missing method is unknown", func(t *testing.T) {
		assert.True(t, types.IsUnknown(r.Resolve(s, call(types.NewObject("User"), "missing"))))
		assert.True(t, types.IsUnknown(r.Resolve(s, call(types.String(), "name"))))
	})

	t.Run("nested references inside composites", func(t *testing.T) {
		shape := types.NewShape(
			types.Item("user", call(types.NewObject("User"), "name")),
			types.Item("id", types.Integer()),
		)
		got := r.Resolve(s, shape)
		assert.Equal(t, "array{user: string, id: int}", got.String())
		assert.Equal(t, "array{user: (User)->name(), id: int}", shape.String())
	})

	t.Run("variables are read from scope", func(t *testing.T) {
		child := s.Child()
		child.SetVar("user", types.NewObject("User"))
		got := r.Resolve(child, call(&types.Var{Name: "user"}, "name"))
		assert.True(t, types.Same(types.String(), got))
		assert.True(t, types.IsUnknown(r.Resolve(s, &types.Var{Name: "user"})))
	})

	t.Run("global function", func(t *testing.T) {
		r.Index().RegisterFunction(NewMethod("user", types.NewObject("User")))
		assert.Equal(t, "User", r.Resolve(s, types.NewFunctionCall("user")).String())
		assert.True(t, types.IsUnknown(r.Resolve(s, types.NewFunctionCall("nope"))))
	})
}

func TestResolveCycles(t *testing.T) {
	t.Run("recursive method", func(t *testing.T) {
		d := NewDiagnostics()
		r, s := newTestResolver(quietBroker(WithDiagnostics(d)))

		got := r.Resolve(s, call(types.NewObject("Loop"), "loop"))
		assert.True(t, types.IsUnknown(got))
		assert.NotEmpty(t, d.ByCategory(CategoryRecursion))
	})

	t.Run("depth limit", func(t *testing.T) {
		r, s := newTestResolver(nil, WithMaxDepth(1))
		child := s.Child().Bind("T", types.String())
		got := r.Resolve(child, types.NewArray(types.NewTemplate("T")))
		assert.Equal(t, "array<unknown>", got.String())
	})
}

func TestResolveHooks(t *testing.T) {
	pair := types.NewGeneric("Pair", types.String(), types.Integer())

	t.Run("hook short circuits", func(t *testing.T) {
		hook := &returnHook{name: "h", method: "second", result: types.Float()}
		r, s := newTestResolver(quietBroker().Register(hook))
		assert.True(t, types.Same(types.Float(), r.Resolve(s, call(pair, "second"))))
	})

	t.Run("priority decides between matching hooks", func(t *testing.T) {
		a := &returnHook{name: "a", method: "second", result: types.Float()}
		b := &returnHook{name: "b", method: "second", result: types.Boolean()}

		r, s := newTestResolver(quietBroker().Register(a, b))
		assert.True(t, types.Same(types.Float(), r.Resolve(s, call(pair, "second"))))

		r, s = newTestResolver(quietBroker().Register(a, b).Prioritize("b"))
		assert.True(t, types.Same(types.Boolean(), r.Resolve(s, call(pair, "second"))))
	})

	t.Run("failing hook falls back to the definition", func(t *testing.T) {
		d := NewDiagnostics()
		r, s := newTestResolver(quietBroker(WithDiagnostics(d)).Register(panicHook{}))
		assert.True(t, types.Same(types.Integer(), r.Resolve(s, call(pair, "second"))))
		assert.Len(t, d.ByCategory(CategoryHookFailure), 1)
	})

	t.Run("strict contract violation propagates", func(t *testing.T) {
		r, s := newTestResolver(quietBroker(WithStrictContracts(true)).Register(contractHook{}))
		assert.Panics(t, func() { r.Resolve(s, call(pair, "second")) })
	})

	t.Run("constructor hook replaces instance", func(t *testing.T) {
		hook := &returnHook{name: "ctor", method: "__construct", result: types.NewGeneric("Box", types.Float())}
		r, s := newTestResolver(quietBroker().Register(hook))
		got := r.Resolve(s, types.NewConstructorCall("Box", types.Positional(types.Integer())...))
		assert.Equal(t, "Box<float>", got.String())
	})

	t.Run("unknown receiver is offered to hooks", func(t *testing.T) {
		hook := &unknownReceiverHook{}
		r, s := newTestResolver(quietBroker().Register(hook))
		assert.True(t, types.Same(types.Float(), r.Resolve(s, call(types.NewUnknown(), "paginate"))))
		require.Len(t, hook.definitions, 1)
		assert.Nil(t, hook.definitions[0])

		classOnly := &returnHook{name: "c", method: "paginate", result: types.Float()}
		r, s = newTestResolver(quietBroker().Register(classOnly))
		assert.True(t, types.IsUnknown(r.Resolve(s, call(types.NewUnknown(), "paginate"))))
		assert.Zero(t, classOnly.calls)
	})

	t.Run("hook changes to the instance are private", func(t *testing.T) {
		r, s := newTestResolver(quietBroker().Register(mutatingHook{}))
		subject := types.NewObject("User")
		r.Resolve(s, call(subject, "name"))
		assert.False(t, subject.HasAttr("touched"))
	})
}

func TestResolveStatement(t *testing.T) {
	stmt := call(&types.Var{Name: "q"}, "setA", types.LiteralString("x"))

	t.Run("updates variable and runs side effects", func(t *testing.T) {
		rec := &sideEffectRecorder{}
		r, s := newTestResolver(quietBroker().Register(rec))
		s.SetVar("q", types.NewObject("Builder"))

		result := r.ResolveStatement(s, stmt)
		assert.Equal(t, `Builder<"x", unknown, unknown>`, result.String())

		live, ok := s.Var("q")
		require.True(t, ok)
		assert.Equal(t, `Builder<"x", unknown, unknown>`, live.String())

		require.Len(t, rec.events, 1)
		assert.Same(t, live, rec.events[0].Instance)
		assert.Equal(t, "setA", rec.events[0].Name)
		assert.NotSame(t, live, result)
	})

	t.Run("short circuit skips side effects", func(t *testing.T) {
		rec := &sideEffectRecorder{}
		hook := &returnHook{name: "h", method: "setA", result: types.Mixed()}
		r, s := newTestResolver(quietBroker().Register(hook, rec))
		original := types.NewObject("Builder")
		s.SetVar("q", original)

		result := r.ResolveStatement(s, stmt)
		assert.True(t, types.Same(types.Mixed(), result))
		assert.Empty(t, rec.events)

		live, _ := s.Var("q")
		assert.Same(t, original, live)
	})

	t.Run("discarded hook mutations", func(t *testing.T) {
		r, s := newTestResolver(quietBroker().Register(mutatingHook{}))
		s.SetVar("q", types.NewObject("Builder"))

		r.ResolveStatement(s, stmt)
		live, _ := s.Var("q")
		assert.False(t, live.HasAttr("touched"))
	})

	t.Run("method without self out keeps variable", func(t *testing.T) {
		rec := &sideEffectRecorder{}
		r, s := newTestResolver(quietBroker().Register(rec))
		original := types.NewObject("Builder")
		s.SetVar("q", original)

		result := r.ResolveStatement(s, call(&types.Var{Name: "q"}, "count"))
		assert.True(t, types.Same(types.Integer(), result))
		live, _ := s.Var("q")
		assert.Same(t, original, live)
		require.Len(t, rec.events, 1)
		assert.Same(t, original, rec.events[0].Instance)
	})

	t.Run("non statement falls back to resolve", func(t *testing.T) {
		r, s := newTestResolver(nil)
		got := r.ResolveStatement(s, call(types.NewObject("User"), "name"))
		assert.True(t, types.Same(types.String(), got))
	})
}
