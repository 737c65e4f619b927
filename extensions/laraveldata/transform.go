package laraveldata

import (
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

type direction int

const (
	output direction = iota
	input
)

var dateClasses = []string{
	`Carbon\CarbonInterface`,
	`Carbon\Carbon`,
	`Carbon\CarbonImmutable`,
	`Illuminate\Support\Carbon`,
	"DateTimeInterface",
	"DateTime",
	"DateTimeImmutable",
}

// dataProperty is a declared data property with the metadata read from its
// declared type.
type dataProperty struct {
	def *infer.PropertyDefinition

	inputName  string
	outputName string
	hidden     bool
	required   bool

	optional bool
	lazy     bool
	nullable bool

	dataClass  string
	collection string
}

func (p *dataProperty) name(dir direction) string {
	if dir == input && p.inputName != "" {
		return p.inputName
	}
	if dir == output && p.outputName != "" {
		return p.outputName
	}
	return p.def.Name
}

func (p *dataProperty) hasDefault() bool {
	return p.def.Default != nil
}

// dataTransformer builds the input or output object schema of a data class.
type dataTransformer struct {
	schemaBase
	dir direction
}

func (s schemaBase) transformer(dir direction) *dataTransformer {
	return &dataTransformer{schemaBase: s, dir: dir}
}

// properties returns the data properties of class, parent properties first.
// Underscored names are internal to the library and skipped.
func (s schemaBase) properties(class string) []*dataProperty {
	idx := s.tr.Index()
	var chain []*infer.ClassDefinition
	seen := make(map[string]bool)
	for name := class; name != "" && !seen[name]; {
		seen[name] = true
		def := idx.Definition(name)
		chain = append(chain, def)
		name = def.Parent
	}

	var out []*dataProperty
	have := make(map[string]bool)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, p := range chain[i].Properties {
			if strings.HasPrefix(p.Name, "_") || have[p.Name] {
				continue
			}
			have[p.Name] = true
			out = append(out, s.describe(p))
		}
	}
	return out
}

func (s schemaBase) describe(def *infer.PropertyDefinition) *dataProperty {
	p := &dataProperty{def: def}
	if def.Type == nil {
		return p
	}
	p.inputName, _ = types.StringAttr(def.Type, AttrInputName)
	p.outputName, _ = types.StringAttr(def.Type, AttrOutputName)
	p.hidden = types.BoolAttr(def.Type, AttrHidden)
	p.required = types.BoolAttr(def.Type, AttrRequired)

	h := s.tr.Index()
	for _, m := range members(def.Type) {
		class, _ := types.ClassName(m)
		switch {
		case types.IsNull(m):
			p.nullable = true
		case class != "" && types.IsSubclassOf(h, class, OptionalClass):
			p.optional = true
		case class != "" && types.IsSubclassOf(h, class, LazyClass):
			p.lazy = true
		case isDataClass(h, class):
			p.dataClass = class
		case isCollectionClass(h, class):
			if g, ok := m.(*types.Generic); ok {
				if item, ok := types.ClassName(g.Arg(1)); ok && isDataClass(h, item) {
					p.dataClass = item
					p.collection = class
				}
			}
		default:
			if a, ok := m.(*types.ArrayOf); ok {
				if item, ok := types.ClassName(a.Value); ok && isDataClass(h, item) {
					p.dataClass = item
					p.collection = "array"
				}
			}
		}
	}
	return p
}

func members(t types.Type) []types.Type {
	if u, ok := t.(*types.Union); ok {
		return u.Members
	}
	return []types.Type{t}
}

// normalize returns the data instance type of t, resolving a fresh
// instance when t carries no template arguments.
func (s schemaBase) normalize(t types.Type) *types.Generic {
	if g, ok := t.(*types.Generic); ok {
		return g
	}
	class, ok := types.ClassName(t)
	if !ok {
		return nil
	}
	g, _ := s.resolve(types.NewConstructorCall(class)).(*types.Generic)
	return g
}

func (s schemaBase) resolve(t types.Type) types.Type {
	r := s.tr.Resolver()
	return r.Resolve(r.NewScope(), t)
}

// object builds the object schema of the data instance g.
func (d *dataTransformer) object(g *types.Generic) *openapi.Schema {
	out := openapi.NewObject()
	ctx, _ := contextOf(d.tr.Index(), g)
	var rules *openapi.Schema
	if d.dir == input {
		rules = d.rules(g.Name)
	}
	for _, p := range d.properties(g.Name) {
		if !d.keep(p, ctx) {
			continue
		}
		name := p.name(d.dir)
		if s, required := ruleProperty(rules, name, p); s != nil {
			out.AddProperty(name, s)
			if required {
				out.AddRequired(name)
			}
			continue
		}
		out.AddProperty(name, d.property(g, ctx, p))
		if d.isRequired(g, ctx, p) {
			out.AddRequired(name)
		}
	}
	return out
}

func (d *dataTransformer) keep(p *dataProperty, ctx *types.Generic) bool {
	if d.dir == input {
		return true
	}
	return keepOutput(p, ctx)
}

func keepOutput(p *dataProperty, ctx *types.Generic) bool {
	if p.hidden {
		return false
	}
	only, except := contextSlot(ctx, OnlyPartials), contextSlot(ctx, ExceptPartials)
	yes := true
	if hasPartials(except, &yes) || hasPartials(only, &yes) {
		return !listsName(contextSlot(ctx, ExcludePartials), p.def.Name)
	}
	if hasPartials(except, nil) && inPartials(except, p.def.Name, nil) {
		return false
	}
	if hasPartials(only, nil) {
		return inPartials(only, p.def.Name, nil)
	}
	if !p.lazy {
		return true
	}
	return !listsName(contextSlot(ctx, ExcludePartials), p.def.Name)
}

func (d *dataTransformer) isRequired(g *types.Generic, ctx *types.Generic, p *dataProperty) bool {
	if d.dir == input {
		return requiredInput(p)
	}
	return d.requiredOutput(g, ctx, p)
}

func requiredInput(p *dataProperty) bool {
	switch {
	case p.optional:
		return false
	case p.nullable && !p.required:
		return false
	case p.hasDefault():
		return false
	}
	return true
}

func (d *dataTransformer) requiredOutput(g *types.Generic, ctx *types.Generic, p *dataProperty) bool {
	only, except := contextSlot(ctx, OnlyPartials), contextSlot(ctx, ExceptPartials)
	yes := true
	if hasPartials(only, &yes) && !inPartials(only, p.def.Name, &yes) {
		return false
	}
	if hasPartials(except, &yes) && inPartials(except, p.def.Name, &yes) {
		return false
	}
	if p.optional {
		return false
	}
	if p.lazy {
		return d.defaultIncluded(g, p) || listsName(contextSlot(ctx, IncludePartials), p.def.Name)
	}
	return true
}

// defaultIncluded reports whether the property's resolved type holds a
// Lazy<true>, the result of Lazy::defaultIncluded().
func (d *dataTransformer) defaultIncluded(g *types.Generic, p *dataProperty) bool {
	t := d.resolve(types.NewPropertyFetch(types.Clone(g), p.def.Name))
	for _, m := range members(t) {
		if lazyIncluded(d.tr.Index(), m) {
			return true
		}
	}
	return false
}

func lazyIncluded(h types.Hierarchy, t types.Type) bool {
	lg, ok := t.(*types.Generic)
	if !ok || !types.IsSubclassOf(h, lg.Name, LazyClass) {
		return false
	}
	lit, ok := lg.Arg(0).(*types.Literal)
	if !ok || lit.Kind != types.KindBoolean {
		return false
	}
	v, _ := lit.Value.(bool)
	return v
}

func (d *dataTransformer) property(g, ctx *types.Generic, p *dataProperty) *openapi.Schema {
	fetched := d.resolve(types.NewPropertyFetch(types.Clone(g), p.def.Name))

	nullable := p.nullable
	if d.dir == input {
		nullable = p.nullable && !p.required
	}

	var kept []types.Type
	for _, m := range members(fetched) {
		if types.IsNull(m) {
			continue
		}
		if class, ok := types.ClassName(m); ok && types.IsSubclassOfAny(d.tr.Index(), class, LazyClass, OptionalClass) {
			continue
		}
		kept = append(kept, d.value(ctx, p, m))
	}

	var s *openapi.Schema
	if len(kept) == 0 {
		s = &openapi.Schema{}
	} else {
		s = d.tr.Transform(types.NewUnion(kept...))
	}
	if nullable {
		s = openapi.Nullable(s)
	}

	if p.def.Type != nil {
		if desc, ok := types.StringAttr(p.def.Type, types.AttrDescription); ok {
			s.Description = desc
		}
		if types.BoolAttr(p.def.Type, types.AttrDeprecated) {
			s.Deprecated = true
		}
	}
	if lit, ok := p.def.Default.(*types.Literal); ok {
		s.Default = lit.Value
	}
	return s
}

// value maps one member of a property type to the type documented for it.
func (d *dataTransformer) value(ctx *types.Generic, p *dataProperty, t types.Type) types.Type {
	h := d.tr.Index()
	class, _ := types.ClassName(t)
	switch {
	case class != "" && types.IsSubclassOfAny(h, class, dateClasses...):
		s := types.String()
		s.SetAttr(types.AttrFormat, "date-time")
		return s
	case isDataClass(h, class):
		return d.wrapInput(d.nested(ctx, p, class))
	case isCollectionClass(h, class):
		g, ok := t.(*types.Generic)
		if !ok {
			return t
		}
		item, ok := types.ClassName(g.Arg(1))
		if !ok || !isDataClass(h, item) {
			return t
		}
		if d.dir == input {
			return types.NewArray(types.NewGeneric(InputClass, types.NewObject(item)))
		}
		out := types.Clone(g).(*types.Generic)
		out.Args[1] = d.nested(ctx, p, item)
		return out
	}
	if a, ok := t.(*types.ArrayOf); ok {
		if item, ok := types.ClassName(a.Value); ok && isDataClass(h, item) {
			if d.dir == input {
				return types.NewArray(types.NewGeneric(InputClass, types.NewObject(item)))
			}
			return types.NewArray(d.nested(ctx, p, item))
		}
	}
	return t
}

func (d *dataTransformer) wrapInput(t types.Type) types.Type {
	if d.dir == output {
		return t
	}
	return types.NewGeneric(InputClass, t)
}

// nested returns a fresh instance of a nested data class whose partials
// carry the "prop.*" partials of the parent context.
func (d *dataTransformer) nested(parent *types.Generic, p *dataProperty, class string) types.Type {
	g := d.normalize(types.NewObject(class))
	if g == nil {
		return types.NewObject(class)
	}
	ctx, ok := contextOf(d.tr.Index(), g)
	if !ok || parent == nil {
		return g
	}
	prefix := p.def.Name + "."
	for slot := IncludePartials; slot <= ExceptPartials; slot++ {
		var values []types.Type
		for _, name := range partialNames(contextSlot(parent, slot)) {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			for _, part := range splitCurlyBraces(strings.TrimPrefix(name, prefix)) {
				values = append(values, types.LiteralString(part))
			}
		}
		if len(values) > 0 {
			setContextSlot(ctx, slot, appendPartials(contextSlot(ctx, slot), values...))
		}
	}
	return g
}

// inputAndOutputSame reports whether class documents identically as input
// and output, including the data classes it nests.
func (s schemaBase) inputAndOutputSame(class string, checked map[string]bool) bool {
	checked[class] = true
	if targets := s.morphTargets(class); len(targets) > 0 {
		for _, target := range targets {
			if !checked[target] && !s.inputAndOutputSame(target, checked) {
				return false
			}
		}
		return true
	}
	g := s.normalize(types.NewObject(class))
	if g == nil {
		return true
	}
	ctx, _ := contextOf(s.tr.Index(), g)
	out := s.transformer(output)
	rules := s.rules(class)

	for _, p := range s.properties(class) {
		if !keepOutput(p, ctx) {
			return false
		}
		if rs, _ := ruleProperty(rules, p.name(input), p); rs != nil {
			return false
		}
		if requiredInput(p) != out.requiredOutput(g, ctx, p) {
			return false
		}
		if p.name(input) != p.name(output) {
			return false
		}
		if p.collection != "" && p.dataClass != "" && s.wrapFor(p.dataClass) != "" {
			return false
		}
		if p.dataClass != "" && !checked[p.dataClass] && !s.inputAndOutputSame(p.dataClass, checked) {
			return false
		}
	}
	return true
}

// wrapFor returns the class default wrap key of class, or the global one.
func (s schemaBase) wrapFor(class string) string {
	if w := classWrap(s.tr.Index(), class); w != "" {
		return w
	}
	return s.ext.cfg.Wrap
}

// inlineOnly reports whether g has parts a shared component cannot carry:
// a Lazy<true> argument or partials changed at the call site.
func (s schemaBase) inlineOnly(g *types.Generic) bool {
	h := s.tr.Index()
	for _, a := range g.Args {
		if lazyIncluded(h, a) {
			return true
		}
	}
	ctx, ok := contextOf(h, g)
	if !ok {
		return false
	}
	for slot := IncludePartials; slot <= ExceptPartials; slot++ {
		if isNotOriginal(contextSlot(ctx, slot)) {
			return true
		}
	}
	return false
}
