package paginate

import (
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// PaginatorToSchema renders paginators the way resource collections
// serialize them: {data: array<T>, links, meta}. Schemas are inline; the
// item type is referenced through the components table as usual.
type PaginatorToSchema struct{}

// HookName implements infer.Named.
func (*PaginatorToSchema) HookName() string { return "paginate.schema" }

// ShouldHandle implements openapi.TypeToSchema.
func (*PaginatorToSchema) ShouldHandle(t types.Type) bool {
	_, ok := paginatorKind(t)
	return ok
}

// ReferenceName implements openapi.ReferenceNamer. Paginators are inline.
func (*PaginatorToSchema) ReferenceName(*openapi.Transformer, types.Type) (string, bool) {
	return "", false
}

// ToSchema implements openapi.TypeToSchema.
func (*PaginatorToSchema) ToSchema(tr *openapi.Transformer, t types.Type) *openapi.Schema {
	kind, _ := paginatorKind(t)
	g, _ := t.(*types.Generic)
	var item types.Type = types.NewUnknown()
	if g != nil {
		item = g.Arg(0)
	}
	return tr.Transform(Shape(kind, item))
}

func paginatorKind(t types.Type) (string, bool) {
	g, ok := t.(*types.Generic)
	if !ok {
		return "", false
	}
	switch g.Name {
	case LengthAwarePaginatorClass, LengthAwarePaginatorContract:
		return LengthAwarePaginatorClass, true
	case PaginatorClass, PaginatorContract:
		return PaginatorClass, true
	case CursorPaginatorClass, CursorPaginatorContract:
		return CursorPaginatorClass, true
	}
	return "", false
}

func nullableString() types.Type {
	return types.NewUnion(types.String(), types.Null())
}

func nullableInt() types.Type {
	return types.NewUnion(types.Integer(), types.Null())
}

// Shape returns the serialized form of a paginator class over item.
func Shape(class string, item types.Type) *types.Shape {
	links := types.NewShape(
		types.Item("first", nullableString()),
		types.Item("last", nullableString()),
		types.Item("prev", nullableString()),
		types.Item("next", nullableString()),
	)

	var meta *types.Shape
	switch class {
	case CursorPaginatorClass:
		meta = types.NewShape(
			types.Item("path", nullableString()),
			types.Item("per_page", types.Integer()),
			types.Item("next_cursor", nullableString()),
			types.Item("prev_cursor", nullableString()),
		)
	case PaginatorClass:
		meta = types.NewShape(
			types.Item("current_page", types.Integer()),
			types.Item("from", nullableInt()),
			types.Item("path", nullableString()),
			types.Item("per_page", types.Integer()),
			types.Item("to", nullableInt()),
		)
	default:
		pageLink := types.NewShape(
			types.Item("url", nullableString()),
			types.Item("label", types.String()),
			types.Item("active", types.Boolean()),
		)
		meta = types.NewShape(
			types.Item("current_page", types.Integer()),
			types.Item("from", nullableInt()),
			types.Item("last_page", types.Integer()),
			types.Item("links", types.NewArray(pageLink)),
			types.Item("path", nullableString()),
			types.Item("per_page", types.Integer()),
			types.Item("to", nullableInt()),
			types.Item("total", types.Integer()),
		)
	}

	return types.NewShape(
		types.Item("data", types.NewArray(types.Clone(item))),
		types.Item("links", links),
		types.Item("meta", meta),
	)
}
