// Package actions documents lorisleiva/laravel-actions routes: action
// classes registered as controllers, their authorize() checks and the
// validation rules they declare.
package actions

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// Action traits. Definitions list used traits among their interfaces.
const (
	AsActionTrait     = `Lorisleiva\Actions\Concerns\AsAction`
	AsControllerTrait = `Lorisleiva\Actions\Concerns\AsController`
)

// Action method names, in the order the router prefers them.
const (
	MethodAsController = "asController"
	MethodHandle       = "handle"
	MethodInvoke       = "__invoke"
)

// Extension bundles the action route patch and the rules extractor.
type Extension struct {
	tr *openapi.Transformer
}

// New returns the extension bound to tr.
func New(tr *openapi.Transformer) *Extension {
	return &Extension{tr: tr}
}

// PatchRouteAction returns the route and operation transformer.
func (e *Extension) PatchRouteAction() *PatchRouteAction {
	return &PatchRouteAction{tr: e.tr}
}

// RulesExtractor returns the rules() parameter extractor. It is also an
// operation transformer for the request body.
func (e *Extension) RulesExtractor() *RulesExtractor {
	return &RulesExtractor{tr: e.tr}
}

// Register wires the extension into g.
func (e *Extension) Register(g *openapi.Generator) {
	patch := e.PatchRouteAction()
	rules := e.RulesExtractor()
	g.AddRouteTransformer(patch).
		AddParameterExtractor(rules).
		AppendOperationTransformer(patch, rules)
}

// isAction reports whether class uses one of the action traits.
func isAction(h types.Hierarchy, class string) bool {
	return class != "" && types.IsSubclassOfAny(h, class, AsActionTrait, AsControllerTrait)
}

// defaultMethod returns the method the router calls on an action class.
func defaultMethod(idx *infer.Index, class string) string {
	def := idx.Definition(class)
	for _, name := range []string{MethodAsController, MethodHandle} {
		if m, _ := idx.Method(def, name); m != nil {
			return name
		}
	}
	return MethodInvoke
}
