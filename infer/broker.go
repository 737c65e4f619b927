package infer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vitalvas/typedoc/types"
)

// ClassDefinitionHook refines definitions of classes it handles.
type ClassDefinitionHook interface {
	ShouldHandle(class string) bool
	AfterClassDefinitionCreated(ev *ClassDefinitionCreatedEvent)
}

// MethodReturnTypeHook overrides instance method return types. A nil
// result means no opinion.
type MethodReturnTypeHook interface {
	ShouldHandleType(t types.Type) bool
	MethodReturnType(ev *MethodCallEvent) types.Type
}

// StaticMethodReturnTypeHook overrides static method return types.
type StaticMethodReturnTypeHook interface {
	ShouldHandle(class string) bool
	StaticMethodReturnType(ev *StaticMethodCallEvent) types.Type
}

// PropertyTypeHook overrides property types.
type PropertyTypeHook interface {
	ShouldHandleType(t types.Type) bool
	PropertyType(ev *PropertyFetchEvent) types.Type
}

// SideEffectHook observes method call statements and may change the live
// receiver in place.
type SideEffectHook interface {
	ShouldHandleType(t types.Type) bool
	AfterSideEffectCallAnalyzed(ev *SideEffectCallEvent)
}

// Named hooks choose the name used by Prioritize.
type Named interface {
	HookName() string
}

// HookName returns the priority name of a hook: its HookName when it
// implements Named, its Go type otherwise.
func HookName(h any) string {
	if n, ok := h.(Named); ok {
		return n.HookName()
	}
	return fmt.Sprintf("%T", h)
}

func isHook(h any) bool {
	switch h.(type) {
	case ClassDefinitionHook, MethodReturnTypeHook, StaticMethodReturnTypeHook, PropertyTypeHook, SideEffectHook:
		return true
	}
	return false
}

type registered struct {
	hook any
	name string
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBrokerLogger sets the logger used to report failing hooks.
func WithBrokerLogger(l *slog.Logger) BrokerOption {
	return func(b *Broker) { b.logger = l }
}

// WithDiagnostics records hook failures into d.
func WithDiagnostics(d *Diagnostics) BrokerOption {
	return func(b *Broker) { b.diagnostics = d }
}

// WithStrictContracts re-panics shape contract violations instead of
// degrading them to "no opinion".
func WithStrictContracts(strict bool) BrokerOption {
	return func(b *Broker) { b.strict = strict }
}

// Broker is the ordered registry of extension hooks. Hooks listed in the
// priority list run first, in list order; the rest follow in registration
// order. A hook that panics contributes nothing for that call.
type Broker struct {
	hooks       []registered
	priority    []string
	ordered     []registered
	logger      *slog.Logger
	diagnostics *Diagnostics
	strict      bool
}

// NewBroker returns an empty broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{logger: slog.Default(), diagnostics: NewDiagnostics()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register appends hooks. It panics when a value implements none of the
// hook interfaces, as http.Handle does for a nil handler.
func (b *Broker) Register(hooks ...any) *Broker {
	for _, h := range hooks {
		if !isHook(h) {
			panic(fmt.Sprintf("infer: %T implements no hook interface", h))
		}
		b.hooks = append(b.hooks, registered{hook: h, name: HookName(h)})
	}
	b.ordered = nil
	return b
}

// Prioritize sets the priority list. Earlier names run first.
func (b *Broker) Prioritize(names ...string) *Broker {
	b.priority = append([]string(nil), names...)
	b.ordered = nil
	return b
}

// Hooks returns the registered hooks in dispatch order.
func (b *Broker) Hooks() []any {
	out := make([]any, 0, len(b.hooks))
	for _, r := range b.order() {
		out = append(out, r.hook)
	}
	return out
}

// Diagnostics returns the collector hook failures are recorded into.
func (b *Broker) Diagnostics() *Diagnostics {
	return b.diagnostics
}

func (b *Broker) order() []registered {
	if b.ordered != nil {
		return b.ordered
	}
	rank := make(map[string]int, len(b.priority))
	for i, n := range b.priority {
		if _, dup := rank[n]; !dup {
			rank[n] = i
		}
	}
	out := append([]registered(nil), b.hooks...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].name]
		rj, jok := rank[out[j].name]
		switch {
		case iok && jok:
			return ri < rj
		default:
			return iok && !jok
		}
	})
	b.ordered = out
	return out
}

// Guard runs fn, converting a panic into a diagnostic. It reports whether
// fn completed.
func (b *Broker) Guard(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			b.recovered(name, r)
		}
	}()
	fn()
	return true
}

func (b *Broker) recovered(name string, r any) {
	var cerr *ContractError
	if err, isErr := r.(error); isErr && errors.As(err, &cerr) {
		b.logger.Error("hook violated shape contract", "hook", name, "error", err)
		b.diagnostics.Add(Diagnostic{
			Severity: SeverityError,
			Category: CategoryShapeContract,
			Source:   name,
			Message:  err.Error(),
		})
		if b.strict {
			panic(r)
		}
		return
	}

	b.logger.Warn("hook failed", "hook", name, "panic", fmt.Sprint(r))
	b.diagnostics.Add(Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryHookFailure,
		Source:   name,
		Message:  fmt.Sprint(r),
	})
}

func (b *Broker) classDefinitionCreated(ev *ClassDefinitionCreatedEvent) int {
	applied := 0
	for _, r := range b.order() {
		h, ok := r.hook.(ClassDefinitionHook)
		if !ok {
			continue
		}
		b.Guard(r.name, func() {
			if h.ShouldHandle(ev.Definition.Name) {
				h.AfterClassDefinitionCreated(ev)
				applied++
			}
		})
	}
	return applied
}

func (b *Broker) methodReturnType(ev *MethodCallEvent) types.Type {
	for _, r := range b.order() {
		h, ok := r.hook.(MethodReturnTypeHook)
		if !ok {
			continue
		}
		var out types.Type
		b.Guard(r.name, func() {
			if h.ShouldHandleType(ev.Instance) {
				out = h.MethodReturnType(ev)
			}
		})
		if out != nil {
			return out
		}
	}
	return nil
}

func (b *Broker) staticMethodReturnType(ev *StaticMethodCallEvent) types.Type {
	for _, r := range b.order() {
		h, ok := r.hook.(StaticMethodReturnTypeHook)
		if !ok {
			continue
		}
		var out types.Type
		b.Guard(r.name, func() {
			if h.ShouldHandle(ev.Class) {
				out = h.StaticMethodReturnType(ev)
			}
		})
		if out != nil {
			return out
		}
	}
	return nil
}

func (b *Broker) propertyType(ev *PropertyFetchEvent) types.Type {
	for _, r := range b.order() {
		h, ok := r.hook.(PropertyTypeHook)
		if !ok {
			continue
		}
		var out types.Type
		b.Guard(r.name, func() {
			if h.ShouldHandleType(ev.Instance) {
				out = h.PropertyType(ev)
			}
		})
		if out != nil {
			return out
		}
	}
	return nil
}

func (b *Broker) sideEffect(ev *SideEffectCallEvent) {
	for _, r := range b.order() {
		h, ok := r.hook.(SideEffectHook)
		if !ok {
			continue
		}
		b.Guard(r.name, func() {
			if h.ShouldHandleType(ev.Instance) {
				h.AfterSideEffectCallAnalyzed(ev)
			}
		})
	}
}
