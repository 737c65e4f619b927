package querybuilder

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

type scopeBuilders struct {
	order []string
	vars  map[string]types.Type
}

// EffectHook records the builders that statements configure. For each
// scope it keeps the latest type of every builder variable, in the order
// the variables were first seen.
type EffectHook struct {
	scopes map[*infer.Scope]*scopeBuilders
}

// NewEffectHook returns an empty recorder.
func NewEffectHook() *EffectHook {
	return &EffectHook{scopes: make(map[*infer.Scope]*scopeBuilders)}
}

// HookName implements infer.Named.
func (h *EffectHook) HookName() string { return "querybuilder.effect" }

// ShouldHandleType implements infer.SideEffectHook.
func (h *EffectHook) ShouldHandleType(t types.Type) bool { return isClass(t) }

// AfterSideEffectCallAnalyzed implements infer.SideEffectHook.
func (h *EffectHook) AfterSideEffectCallAnalyzed(ev *infer.SideEffectCallEvent) {
	if ev.Variable == "" || !types.IsInstanceOf(ev.Scope.Hierarchy(), ev.Instance, QueryBuilderClass) {
		return
	}
	sb, ok := h.scopes[ev.Scope]
	if !ok {
		sb = &scopeBuilders{vars: make(map[string]types.Type)}
		h.scopes[ev.Scope] = sb
	}
	if _, seen := sb.vars[ev.Variable]; !seen {
		sb.order = append(sb.order, ev.Variable)
	}
	sb.vars[ev.Variable] = ev.Instance
}

// Builders returns the recorded builders of scope.
func (h *EffectHook) Builders(scope *infer.Scope) []types.Type {
	sb, ok := h.scopes[scope]
	if !ok {
		return nil
	}
	out := make([]types.Type, 0, len(sb.order))
	for _, name := range sb.order {
		out = append(out, sb.vars[name])
	}
	return out
}
