package laraveldata

import (
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// morphTargets returns the concrete classes of an abstract property
// morphable data class: the class-strings its morph method returns.
func (s schemaBase) morphTargets(class string) []string {
	idx := s.tr.Index()
	def := idx.Definition(class)
	if def == nil || !def.Abstract || !types.IsSubclassOf(idx, class, PropertyMorphableDataContract) {
		return nil
	}
	m, _ := idx.Method(def, "morph")
	if m == nil {
		return nil
	}
	var out []string
	for _, t := range members(m.Type.Return) {
		if cs, ok := t.(*types.ClassString); ok && cs.Class != class {
			out = append(out, cs.Class)
		}
	}
	return out
}

// morphSchema documents the concrete classes of a morphable data class in
// the given direction.
func (s schemaBase) morphSchema(targets []string, dir direction) *openapi.Schema {
	d := s.transformer(dir)
	out := make([]types.Type, 0, len(targets))
	for _, class := range targets {
		out = append(out, d.wrapInput(types.NewObject(class)))
	}
	return s.tr.Transform(types.NewUnion(out...))
}
