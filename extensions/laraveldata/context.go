package laraveldata

import (
	"strings"

	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// NewDataContext returns the context of a freshly created data instance:
// no partials and the default wrap.
func NewDataContext() *types.Generic {
	return types.NewGeneric(DataContextClass,
		types.Mixed(),
		types.Mixed(),
		types.Mixed(),
		types.Mixed(),
		NewWrap(),
	)
}

// NewWrap returns Wrap<WrapType, string|null>.
func NewWrap() *types.Generic {
	return types.NewGeneric(WrapClass,
		types.NewObject(WrapTypeClass),
		types.NewUnion(types.String(), types.Null()),
	)
}

// DataContextOf returns the TDataContext argument of g, an instance of
// def. The position comes from def's template list.
func DataContextOf(def *infer.ClassDefinition, g *types.Generic) (*types.Generic, bool) {
	if def == nil || g == nil || def.Name != g.Name {
		return nil, false
	}
	_, i := def.Template(TDataContext)
	if i < 0 || i >= len(g.Args) {
		return nil, false
	}
	ctx, ok := g.Args[i].(*types.Generic)
	if !ok || ctx.Name != DataContextClass {
		return nil, false
	}
	return ctx, true
}

// contextOf finds the data context of an instance through the index.
func contextOf(idx *infer.Index, t types.Type) (*types.Generic, bool) {
	g, ok := t.(*types.Generic)
	if !ok {
		return nil, false
	}
	return DataContextOf(idx.Definition(g.Name), g)
}

// contextSlot returns argument i of a data context, or nil.
func contextSlot(ctx *types.Generic, i int) types.Type {
	if ctx == nil || i >= len(ctx.Args) {
		return nil
	}
	return ctx.Args[i]
}

// setContextSlot stores t as argument i of a data context. Missing
// arguments of a short context are filled with mixed.
func setContextSlot(ctx *types.Generic, i int, t types.Type) {
	for len(ctx.Args) <= i {
		ctx.Args = append(ctx.Args, types.Mixed())
	}
	ctx.Args[i] = t
}

// partialNames returns the string values of a partials list.
func partialNames(t types.Type) []string {
	sh, ok := t.(*types.Shape)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range sh.Items {
		if lit, ok := item.Value.(*types.Literal); ok {
			if s, ok := lit.StringValue(); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func isConditional(t types.Type) bool {
	return types.BoolAttr(t, AttrConditional)
}

// hasPartials reports whether the list is non-empty. With conditional set,
// at least one entry must have that conditional flag.
func hasPartials(t types.Type, conditional *bool) bool {
	sh, ok := t.(*types.Shape)
	if !ok || len(sh.Items) == 0 {
		return false
	}
	if conditional == nil {
		return true
	}
	for _, item := range sh.Items {
		if isConditional(item.Value) == *conditional {
			return true
		}
	}
	return false
}

// inPartials reports whether name is listed. With conditional set, the
// first matching entry must have that conditional flag.
func inPartials(t types.Type, name string, conditional *bool) bool {
	sh, ok := t.(*types.Shape)
	if !ok {
		return false
	}
	for _, item := range sh.Items {
		lit, ok := item.Value.(*types.Literal)
		if !ok {
			continue
		}
		if s, _ := lit.StringValue(); s == name {
			return conditional == nil || isConditional(lit) == *conditional
		}
	}
	return false
}

func listsName(t types.Type, name string) bool {
	for _, n := range partialNames(t) {
		if n == name || n == "*" {
			return true
		}
	}
	return false
}

func isNotOriginal(t types.Type) bool {
	if t == nil {
		return false
	}
	return types.BoolAttr(t, AttrNotOriginal)
}

// appendPartials returns a new list holding the entries of base followed
// by values, marked AttrNotOriginal.
func appendPartials(base types.Type, values ...types.Type) *types.Shape {
	out := &types.Shape{List: true}
	if sh, ok := base.(*types.Shape); ok {
		for _, item := range sh.Items {
			out.Items = append(out.Items, &types.ShapeItem{Value: types.Clone(item.Value)})
		}
	}
	for _, v := range values {
		out.Items = append(out.Items, &types.ShapeItem{Value: v})
	}
	out.SetAttr(AttrNotOriginal, true)
	return out
}

// splitCurlyBraces expands "{a,b}" into its members.
func splitCurlyBraces(s string) []string {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return []string{s}
	}
	var out []string
	for _, part := range strings.Split(s[1:len(s)-1], ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// wrapKey returns the key a data value is wrapped in, or "" for none.
// classDefault is the class-level default wrap.
func wrapKey(wrap types.Type, classDefault, global string) string {
	g, ok := wrap.(*types.Generic)
	if !ok || g.Name != WrapClass {
		return ""
	}
	if lit, ok := g.Arg(0).(*types.Literal); ok {
		if s, _ := lit.StringValue(); s == WrapDisabled {
			return ""
		}
	}
	if lit, ok := g.Arg(1).(*types.Literal); ok {
		if s, ok := lit.StringValue(); ok {
			return s
		}
	}
	if classDefault != "" {
		return classDefault
	}
	return global
}

// classWrap returns the literal return of the class's defaultWrap method.
func classWrap(idx *infer.Index, class string) string {
	m, _ := idx.Method(idx.Definition(class), "defaultWrap")
	if m == nil {
		return ""
	}
	if lit, ok := m.Type.Return.(*types.Literal); ok {
		s, _ := lit.StringValue()
		return s
	}
	return ""
}
