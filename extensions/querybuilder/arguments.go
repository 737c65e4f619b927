package querybuilder

import (
	"github.com/vitalvas/typedoc/infer"
	"github.com/vitalvas/typedoc/types"
)

// NormalizeArguments flattens call arguments that may be passed either as
// separate values or as a single array: f('a', 'b') and f(['a', 'b']) both
// yield ["a", "b"]. args is the shape bound to infer.ArgumentsTemplate.
// Attributes of array items are carried onto the returned values.
func NormalizeArguments(args types.Type) []types.Type {
	shape, ok := args.(*types.Shape)
	if !ok {
		infer.Violation("arguments shape", args)
	}
	if len(shape.Items) == 0 {
		return nil
	}

	if first, ok := shape.Items[0].Value.(*types.Shape); ok {
		out := make([]types.Type, 0, len(first.Items))
		for _, item := range first.Items {
			v := types.Clone(item.Value)
			v.MergeAttrs(&item.Attrs)
			out = append(out, v)
		}
		return out
	}

	out := make([]types.Type, 0, len(shape.Items))
	for _, item := range shape.Items {
		v := item.Value
		if arr, ok := v.(*types.ArrayOf); ok {
			v = arr.Value
		}
		out = append(out, v)
	}
	return out
}

// mapArguments returns a computed type listing the normalized arguments of
// the call it is resolved in. String literals are replaced by fn(literal)
// when fn is set; other values are kept.
func mapArguments(label string, fn func(name *types.Literal) types.Type) *types.Computed {
	return &types.Computed{
		Label:  label,
		Inputs: []types.Type{types.NewTemplate(infer.ArgumentsTemplate)},
		Compute: func(in []types.Type) types.Type {
			values := NormalizeArguments(in[0])
			out := &types.Shape{List: true, Items: make([]*types.ShapeItem, 0, len(values))}
			for _, v := range values {
				if lit, ok := v.(*types.Literal); ok && fn != nil {
					if _, isString := lit.StringValue(); isString {
						mapped := fn(lit)
						mapped.MergeAttrs(&lit.Attrs)
						v = mapped
					}
				}
				out.Items = append(out.Items, &types.ShapeItem{Value: v})
			}
			return out
		},
	}
}
