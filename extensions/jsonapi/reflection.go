package jsonapi

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// reflection reads the attributes, relationships and links a resource
// class declares, through its properties and to* methods.
type reflection struct {
	ext   *Extension
	r     *infer.Resolver
	class string
	def   *infer.ClassDefinition
	model string
}

func (e *Extension) reflect(r *infer.Resolver, class string) *reflection {
	idx := r.Index()
	return &reflection{
		ext:   e,
		r:     r,
		class: class,
		def:   idx.Definition(class),
		model: e.modelOf(idx, class),
	}
}

func (rf *reflection) resolve(t types.Type) types.Type {
	return rf.r.Resolve(rf.r.NewScope(), t)
}

// methodShape returns the array shape returned by method, or nil.
func (rf *reflection) methodShape(method string) *types.Shape {
	if m, _ := rf.r.Index().Method(rf.def, method); m == nil {
		return nil
	}
	sh, _ := rf.resolve(types.NewMethodCall(types.NewObject(rf.class), method)).(*types.Shape)
	return sh
}

// propertyShape returns the array default of a declared property, or nil.
func (rf *reflection) propertyShape(name string) *types.Shape {
	p, _ := rf.r.Index().Property(rf.def, name)
	if p == nil {
		return nil
	}
	sh, _ := p.Default.(*types.Shape)
	return sh
}

// modelProperty returns the type of a model attribute, or nil when the
// resource has no known model or the model lacks it.
func (rf *reflection) modelProperty(name string) types.Type {
	if rf.model == "" {
		return nil
	}
	p, _ := rf.r.Index().Property(rf.r.Index().Definition(rf.model), name)
	if p == nil || p.Type == nil {
		return nil
	}
	t := rf.resolve(types.NewPropertyFetch(types.NewObject(rf.model), name))
	if types.IsUnknown(t) {
		return nil
	}
	return t
}

// attributes returns the attributes object type, or nil when the resource
// declares none.
func (rf *reflection) attributes() *types.Shape {
	declared := rf.propertyShape("attributes")
	returned := rf.methodShape("toAttributes")
	if declared == nil && returned == nil {
		return nil
	}

	out := &types.Shape{}
	if declared != nil {
		for _, item := range declared.Items {
			lit, ok := item.Value.(*types.Literal)
			if !ok {
				continue
			}
			name, ok := lit.StringValue()
			if !ok {
				continue
			}
			value := rf.modelProperty(name)
			if value == nil {
				value = types.String()
			}
			out.Items = append(out.Items, &types.ShapeItem{Key: name, Value: value, Optional: item.Optional})
		}
	}
	if returned != nil {
		out.Items = append(out.Items, flattenMergeValues(returned.Items)...)
	}
	return out
}

// flattenMergeValues splices the items of merge() and mergeWhen() values
// into the surrounding array. Conditionally merged items are optional.
func flattenMergeValues(items []*types.ShapeItem) []*types.ShapeItem {
	var out []*types.ShapeItem
	for _, item := range items {
		g, ok := item.Value.(*types.Generic)
		if !ok || g.Name != MergeValueClass {
			out = append(out, item)
			continue
		}
		merged, ok := g.Arg(1).(*types.Shape)
		if !ok {
			continue
		}
		always := false
		if lit, ok := g.Arg(0).(*types.Literal); ok {
			always, _ = lit.Value.(bool)
		}
		for _, m := range flattenMergeValues(merged.Items) {
			c := *m
			c.Value = types.Clone(m.Value)
			c.Optional = c.Optional || !always
			out = append(out, &c)
		}
	}
	return out
}

func (rf *reflection) isMany(relationship string) bool {
	t := rf.modelProperty(relationship)
	if t == nil {
		return false
	}
	return types.IsInstanceOfAny(rf.r.Index(), t, SupportCollectionClass, EloquentCollectionClass)
}

func (rf *reflection) related(relationship, resource string) types.Type {
	if rf.isMany(relationship) {
		return types.NewGeneric(CollectionClass, types.NewUnknown(), types.NewUnknown(), types.NewObject(resource))
	}
	return types.NewObject(resource)
}

// declaredRelationships normalizes the relationships property default.
// Listed names are mapped to the resource class guessed from the name;
// keyed entries name the resource class as their value.
func (rf *reflection) declaredRelationships() []*types.ShapeItem {
	sh := rf.propertyShape("relationships")
	if sh == nil {
		return nil
	}
	var out []*types.ShapeItem
	for _, item := range sh.Items {
		lit, ok := item.Value.(*types.Literal)
		if !ok {
			continue
		}
		value, ok := lit.StringValue()
		if !ok {
			continue
		}
		key, keyed := item.KeyString()
		if !keyed {
			resource := rf.ext.guessResource(rf.r.Index(), value)
			if resource == "" {
				continue
			}
			out = append(out, &types.ShapeItem{Key: value, Value: rf.related(value, resource)})
			continue
		}
		out = append(out, &types.ShapeItem{Key: key, Value: rf.related(key, value)})
	}
	return out
}

// relationships returns the relationships object type: every relationship
// is optional and holds {data: related}. It returns nil when the resource
// declares none.
func (rf *reflection) relationships() *types.Shape {
	declared := rf.declaredRelationships()
	returned := rf.methodShape("toRelationships")
	if declared == nil && returned == nil {
		return nil
	}

	var merged []*types.ShapeItem
	if returned != nil {
		merged = append(merged, returned.Items...)
	}
	for _, item := range declared {
		replaced := false
		for i, m := range merged {
			if m.Key == item.Key {
				merged[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, item)
		}
	}

	out := &types.Shape{}
	for _, item := range merged {
		value := item.Value
		if fn, ok := value.(*types.Function); ok {
			value = fn.Return
		}
		out.Items = append(out.Items, &types.ShapeItem{
			Key:      item.Key,
			Value:    types.NewShape(types.Item("data", types.Clone(value))),
			Optional: true,
		})
	}
	return out
}

// links returns the shape returned by toLinks, or nil.
func (rf *reflection) links() *types.Shape {
	return rf.methodShape("toLinks")
}

// included returns the resources reachable through the relationships,
// for the top-level included member.
func (rf *reflection) included() []types.Type {
	rel := rf.relationships()
	if rel == nil {
		return nil
	}
	h := rf.r.Index()
	var out []types.Type
	seen := make(map[string]bool)
	add := func(t types.Type) {
		if key := types.Key(t); !seen[key] {
			seen[key] = true
			out = append(out, types.Clone(t))
		}
	}
	types.Visit(rel, func(t types.Type) bool {
		if item, ok := collected(h, t); ok {
			add(item)
			return false
		}
		if isResource(h, t) {
			add(t)
			return false
		}
		return true
	})
	return out
}
