package laraveldata

import (
	"slices"

	"github.com/vitalvas/typedoc/extensions/actions"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// rules returns the object schema of the static rules() array of class,
// or nil when it declares none.
func (s schemaBase) rules(class string) *openapi.Schema {
	idx := s.tr.Index()
	if m, _ := idx.Method(idx.Definition(class), "rules"); m == nil {
		return nil
	}
	sh, _ := s.resolve(types.NewStaticCall(class, "rules")).(*types.Shape)
	return actions.RulesSchema(sh)
}

// ruleProperty returns the schema the rules give an untyped property and
// whether the rules require it. Typed properties, nested data included,
// are documented from their type.
func ruleProperty(rules *openapi.Schema, name string, p *dataProperty) (*openapi.Schema, bool) {
	if rules == nil || !untyped(p) {
		return nil, false
	}
	s := rules.Properties.Get(name)
	if s == nil {
		return nil, false
	}
	return s, slices.Contains(rules.Required, name) && !p.hasDefault()
}

func untyped(p *dataProperty) bool {
	if p.def.Type == nil || types.IsUnknown(p.def.Type) {
		return true
	}
	sc, ok := p.def.Type.(*types.Scalar)
	return ok && sc.Kind == types.KindMixed
}
