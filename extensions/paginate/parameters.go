package paginate

import (
	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// ParametersExtractor adds page[size] and page[number] (or page[cursor])
// to routes that return a json-api paginated result.
type ParametersExtractor struct {
	cfg Config
}

// HookName implements infer.Named.
func (p *ParametersExtractor) HookName() string { return "paginate.parameters" }

// Extract implements openapi.ParameterExtractor.
func (p *ParametersExtractor) Extract(route *openapi.RouteInfo, _ []*openapi.Parameter) []*openapi.Parameter {
	paginated := p.paginated(route)
	if paginated == nil {
		return nil
	}

	size := p.cfg.DefaultSize
	if v, ok := paginated.Attr(AttrPageSize); ok {
		if n, ok := v.(int); ok {
			size = n
		}
	}

	param := func(name string) string {
		return p.cfg.PaginationParameter + "[" + name + "]"
	}
	out := []*openapi.Parameter{{
		Name:        param(p.cfg.SizeParameter),
		In:          "query",
		Description: "The number of results that will be returned per page.",
		Schema:      &openapi.Schema{Type: openapi.TypeString("integer"), Default: size},
	}}
	if p.cfg.UseCursor {
		return append(out, &openapi.Parameter{
			Name:        param(p.cfg.CursorParameter),
			In:          "query",
			Description: "The cursor to start the pagination from.",
			Schema:      &openapi.Schema{Type: openapi.TypeString("string")},
		})
	}
	return append(out, &openapi.Parameter{
		Name:        param(p.cfg.NumberParameter),
		In:          "query",
		Description: "The page number to start the pagination from.",
		Schema:      &openapi.Schema{Type: openapi.TypeString("integer")},
	})
}

// paginated finds the first type marked by the paginate method in the
// route's resolved return type, including nested types such as a resource
// collection wrapping the paginator.
func (p *ParametersExtractor) paginated(route *openapi.RouteInfo) types.Type {
	if route.ReturnType == nil || route.Scope == nil {
		return nil
	}
	var found types.Type
	types.Visit(route.Scope.Resolve(route.ReturnType), func(t types.Type) bool {
		if found != nil {
			return false
		}
		if t.HasAttr(AttrPaginator) {
			found = t
			return false
		}
		return true
	})
	return found
}
