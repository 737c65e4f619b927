package infer

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/types"
)

type returnHook struct {
	name   string
	method string
	result types.Type
	calls  int
}

func (h *returnHook) HookName() string { return h.name }

func (h *returnHook) ShouldHandleType(t types.Type) bool {
	_, ok := types.ClassName(t)
	return ok
}

func (h *returnHook) MethodReturnType(ev *MethodCallEvent) types.Type {
	h.calls++
	if ev.Name != h.method {
		return nil
	}
	return h.result
}

type panicHook struct{}

func (panicHook) ShouldHandleType(types.Type) bool { return true }

func (panicHook) MethodReturnType(*MethodCallEvent) types.Type {
	panic("boom")
}

type contractHook struct{}

func (contractHook) ShouldHandleType(types.Type) bool { return true }

func (contractHook) MethodReturnType(ev *MethodCallEvent) types.Type {
	Violation("keyed shape", ev.Instance)
	return nil
}

type notAHook struct{}

func quietBroker(opts ...BrokerOption) *Broker {
	return NewBroker(append([]BrokerOption{WithBrokerLogger(slog.New(slog.DiscardHandler))}, opts...)...)
}

func TestBrokerRegister(t *testing.T) {
	t.Run("rejects non hooks", func(t *testing.T) {
		assert.Panics(t, func() { NewBroker().Register(notAHook{}) })
	})

	t.Run("hook names", func(t *testing.T) {
		assert.Equal(t, "custom", HookName(&returnHook{name: "custom"}))
		assert.Equal(t, "infer.panicHook", HookName(panicHook{}))
	})
}

func TestBrokerOrder(t *testing.T) {
	a := &returnHook{name: "a"}
	b := &returnHook{name: "b"}
	c := &returnHook{name: "c"}

	t.Run("registration order", func(t *testing.T) {
		br := NewBroker().Register(a, b, c)
		assert.Equal(t, []any{a, b, c}, br.Hooks())
	})

	t.Run("priority first then registration order", func(t *testing.T) {
		br := NewBroker().Register(a, b, c).Prioritize("c", "b")
		assert.Equal(t, []any{c, b, a}, br.Hooks())
	})

	t.Run("unknown priority names are ignored", func(t *testing.T) {
		br := NewBroker().Register(a, b).Prioritize("zzz", "b")
		assert.Equal(t, []any{b, a}, br.Hooks())
	})

	t.Run("registering after prioritize keeps priority", func(t *testing.T) {
		br := NewBroker().Prioritize("c").Register(a)
		br.Register(c)
		assert.Equal(t, []any{c, a}, br.Hooks())
	})
}

func TestBrokerDispatch(t *testing.T) {
	ev := &MethodCallEvent{Instance: types.NewObject("User"), Name: "name"}

	t.Run("first non nil result wins", func(t *testing.T) {
		skip := &returnHook{name: "skip", method: "other", result: types.Integer()}
		hit := &returnHook{name: "hit", method: "name", result: types.String()}
		late := &returnHook{name: "late", method: "name", result: types.Boolean()}
		br := NewBroker().Register(skip, hit, late)

		got := br.methodReturnType(ev)
		require.NotNil(t, got)
		assert.True(t, types.Same(types.String(), got))
		assert.Equal(t, 1, skip.calls)
		assert.Equal(t, 0, late.calls)
	})

	t.Run("panic degrades to no opinion", func(t *testing.T) {
		d := NewDiagnostics()
		hit := &returnHook{name: "hit", method: "name", result: types.String()}
		br := quietBroker(WithDiagnostics(d)).Register(panicHook{}, hit)

		got := br.methodReturnType(ev)
		assert.True(t, types.Same(types.String(), got))
		require.Len(t, d.ByCategory(CategoryHookFailure), 1)
		assert.Equal(t, "boom", d.All()[0].Message)
		assert.False(t, d.HasErrors())
	})

	t.Run("contract violation is recorded as error", func(t *testing.T) {
		d := NewDiagnostics()
		br := quietBroker(WithDiagnostics(d)).Register(contractHook{})

		assert.Nil(t, br.methodReturnType(ev))
		assert.True(t, d.HasErrors())
		assert.Len(t, d.ByCategory(CategoryShapeContract), 1)
	})

	t.Run("strict contracts fail loudly", func(t *testing.T) {
		br := quietBroker(WithStrictContracts(true)).Register(contractHook{})
		assert.Panics(t, func() { br.methodReturnType(ev) })
	})

	t.Run("strict mode still swallows plain panics", func(t *testing.T) {
		br := quietBroker(WithStrictContracts(true)).Register(panicHook{})
		assert.NotPanics(t, func() { br.methodReturnType(ev) })
	})
}
