// Package paginate documents json-api style pagination: the configured
// paginate method on query builders and models, its page[...] query
// parameters, and the schema of the paginators it returns.
package paginate

import (
	"github.com/vitalvas/typedoc/extensions/querybuilder"
	"github.com/vitalvas/typedoc/types"
)

// Attributes set on the result of the json-api paginate method.
const (
	// AttrPaginator holds the paginator contract class name.
	AttrPaginator = "jsonApiPaginator"
	// AttrPageSize holds the default page size as an int.
	AttrPageSize = "jsonApiPageSize"
)

// Paginator classes.
const (
	LengthAwarePaginatorClass = `Illuminate\Pagination\LengthAwarePaginator`
	PaginatorClass            = `Illuminate\Pagination\Paginator`
	CursorPaginatorClass      = `Illuminate\Pagination\CursorPaginator`

	LengthAwarePaginatorContract = `Illuminate\Contracts\Pagination\LengthAwarePaginator`
	PaginatorContract            = `Illuminate\Contracts\Pagination\Paginator`
	CursorPaginatorContract      = `Illuminate\Contracts\Pagination\CursorPaginator`
)

// Query-like classes the paginate methods are recognized on.
const (
	ModelClass           = `Illuminate\Database\Eloquent\Model`
	EloquentBuilderClass = `Illuminate\Database\Eloquent\Builder`
	BaseBuilderClass     = `Illuminate\Database\Query\Builder`
	BelongsToManyClass   = `Illuminate\Database\Eloquent\Relations\BelongsToMany`
	HasManyThroughClass  = `Illuminate\Database\Eloquent\Relations\HasManyThrough`
)

var queryClasses = []string{
	EloquentBuilderClass,
	BaseBuilderClass,
	BelongsToManyClass,
	HasManyThroughClass,
	querybuilder.QueryBuilderClass,
}

// Pagination method names.
const (
	MethodPaginate           = "paginate"
	MethodFastPaginate       = "fastPaginate"
	MethodSimplePaginate     = "simplePaginate"
	MethodSimpleFastPaginate = "simpleFastPaginate"
	MethodCursorPaginate     = "cursorPaginate"
)

// Config mirrors the json-api-paginate package settings.
type Config struct {
	MethodName          string
	PaginationParameter string
	NumberParameter     string
	CursorParameter     string
	SizeParameter       string
	DefaultSize         int
	UseCursor           bool
	UseSimple           bool
	UseFast             bool
}

// DefaultConfig returns the package defaults.
func DefaultConfig() Config {
	return Config{
		MethodName:          "jsonPaginate",
		PaginationParameter: "page",
		NumberParameter:     "number",
		CursorParameter:     "cursor",
		SizeParameter:       "size",
		DefaultSize:         30,
	}
}

// PaginationMethod returns the builder method the paginate method
// delegates to.
func (c Config) PaginationMethod() string {
	switch {
	case c.UseCursor:
		return MethodCursorPaginate
	case c.UseSimple && c.UseFast:
		return MethodSimpleFastPaginate
	case c.UseSimple:
		return MethodSimplePaginate
	case c.UseFast:
		return MethodFastPaginate
	}
	return MethodPaginate
}

// paginatorFor returns the paginator class and contract a pagination
// method produces.
func paginatorFor(method string) (class, contract string, ok bool) {
	switch method {
	case MethodPaginate, MethodFastPaginate:
		return LengthAwarePaginatorClass, LengthAwarePaginatorContract, true
	case MethodSimplePaginate, MethodSimpleFastPaginate:
		return PaginatorClass, PaginatorContract, true
	case MethodCursorPaginate:
		return CursorPaginatorClass, CursorPaginatorContract, true
	}
	return "", "", false
}

func isQueryLike(h types.Hierarchy, t types.Type) bool {
	return types.IsInstanceOfAny(h, t, queryClasses...)
}

// itemType returns the model type a query-like instance yields.
func itemType(h types.Hierarchy, t types.Type) types.Type {
	g, ok := t.(*types.Generic)
	if !ok {
		return types.NewUnknown()
	}
	if g.Name == querybuilder.QueryBuilderClass {
		subject := g.Arg(1)
		switch v := subject.(type) {
		case *types.ClassString:
			return types.NewObject(v.Class)
		case *types.Literal:
			if name, ok := v.StringValue(); ok {
				return types.NewObject(name)
			}
		case *types.Generic:
			if isQueryLike(h, v) {
				return itemType(h, v)
			}
			return types.Clone(v)
		case *types.Object:
			return types.Clone(v)
		}
		return types.NewUnknown()
	}
	return types.Clone(g.Arg(0))
}

// Extension bundles the pagination hooks of one run.
type Extension struct {
	cfg Config
}

// New returns the extension for cfg. Empty settings take their defaults.
func New(cfg Config) *Extension {
	def := DefaultConfig()
	if cfg.PaginationParameter == "" {
		cfg.PaginationParameter = def.PaginationParameter
	}
	if cfg.NumberParameter == "" {
		cfg.NumberParameter = def.NumberParameter
	}
	if cfg.CursorParameter == "" {
		cfg.CursorParameter = def.CursorParameter
	}
	if cfg.SizeParameter == "" {
		cfg.SizeParameter = def.SizeParameter
	}
	if cfg.DefaultSize <= 0 {
		cfg.DefaultSize = def.DefaultSize
	}
	return &Extension{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Extension) Config() Config {
	return e.cfg
}

// Hooks returns the resolver hooks. They must run before hooks that treat
// unknown builder methods as fluent.
func (e *Extension) Hooks() []any {
	return []any{&PaginatorHook{}, &MethodHook{cfg: e.cfg}}
}

// ParametersExtractor returns the page[...] parameter extractor.
func (e *Extension) ParametersExtractor() *ParametersExtractor {
	return &ParametersExtractor{cfg: e.cfg}
}

// SchemaExtension returns the paginator schema extension.
func (e *Extension) SchemaExtension() *PaginatorToSchema {
	return &PaginatorToSchema{}
}
