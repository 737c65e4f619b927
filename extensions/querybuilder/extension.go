// Package querybuilder teaches the resolver about spatie/laravel-query-builder
// and documents the query parameters a configured builder accepts.
//
// The QueryBuilder class gets a synthetic generic definition whose template
// arguments hold the builder's configuration:
//
//	QueryBuilder<TRequest, TSubject, TAllowedFilters, TAllowedSorts,
//	             TAllowedIncludes, TAllowedFields, TDefaultSorts>
//
// allowedFilters, allowedSorts, allowedIncludes, allowedFields and
// defaultSort(s) rewrite one argument each, so
//
//	QueryBuilder::for(Post)->allowedSorts(['name'])->allowedFilters(['status'])
//
// resolves to a builder that lists a "name" sort and a "status" filter. The
// ParametersExtractor turns that into filter[status] and sort parameters.
package querybuilder

import (
	"github.com/vitalvas/typedoc/openapi"
)

// Option configures an Extension.
type Option func(*Extension)

// WithCountSuffix sets the suffix of generated count includes.
func WithCountSuffix(s string) Option {
	return func(e *Extension) { e.countSuffix = s }
}

// WithExistsSuffix sets the suffix of generated exists includes.
func WithExistsSuffix(s string) Option {
	return func(e *Extension) { e.existsSuffix = s }
}

// Extension bundles the query builder hooks of one run.
type Extension struct {
	QueryBuilder *Manager
	Filter       *Manager
	Sort         *Manager
	Include      *Manager

	countSuffix  string
	existsSuffix string
	effects      *EffectHook
}

// New returns the extension with default include suffixes.
func New(opts ...Option) *Extension {
	e := &Extension{
		QueryBuilder: NewQueryBuilderManager(),
		Filter:       NewFilterManager(),
		Sort:         NewSortManager(),
		Include:      NewIncludeManager(),
		countSuffix:  "Count",
		existsSuffix: "Exists",
		effects:      NewEffectHook(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hooks returns the resolver hooks to register with an infer.Broker.
func (e *Extension) Hooks() []any {
	return []any{
		&DefinitionHook{ext: e},
		MethodsHook{},
		&FilterHook{ext: e},
		&SortHook{ext: e},
		&IncludeHook{ext: e},
		e.effects,
	}
}

// Effects returns the recorder of builders configured by statements.
func (e *Extension) Effects() *EffectHook {
	return e.effects
}

// ParametersExtractor returns the extractor documenting builder
// parameters.
func (e *Extension) ParametersExtractor(tr *openapi.Transformer) *ParametersExtractor {
	return &ParametersExtractor{ext: e, tr: tr}
}
