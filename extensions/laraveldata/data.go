// Package laraveldata documents spatie/laravel-data objects: the data
// context carried by every data instance (include/exclude/only/except
// partials and wrapping), data collections, and the input and output
// schemas of data classes.
//
// Data instances are Generic types whose TDataContext argument is a
// DataContext<TIncludePartials, TExcludePartials, TOnlyPartials,
// TExceptPartials, TWrap> generic. Method hooks refine that argument as
// calls like include('posts') or wrap('data') are resolved; the schema
// extensions read it back when the instance is documented.
package laraveldata

import (
	"sort"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// Library classes.
const (
	DataClass     = `Spatie\LaravelData\Data`
	ResourceClass = `Spatie\LaravelData\Resource`
	LazyClass     = `Spatie\LaravelData\Lazy`
	OptionalClass = `Spatie\LaravelData\Optional`

	DataCollectionClass                = `Spatie\LaravelData\DataCollection`
	PaginatedDataCollectionClass       = `Spatie\LaravelData\PaginatedDataCollection`
	CursorPaginatedDataCollectionClass = `Spatie\LaravelData\CursorPaginatedDataCollection`

	BaseDataContract              = `Spatie\LaravelData\Contracts\BaseData`
	BaseDataCollectableContract   = `Spatie\LaravelData\Contracts\BaseDataCollectable`
	ContextableDataContract       = `Spatie\LaravelData\Contracts\ContextableData`
	IncludeableDataContract       = `Spatie\LaravelData\Contracts\IncludeableData`
	WrappableDataContract         = `Spatie\LaravelData\Contracts\WrappableData`
	PropertyMorphableDataContract = `Spatie\LaravelData\Contracts\PropertyMorphableData`

	DataContextClass = `Spatie\LaravelData\Support\Transformation\DataContext`
	WrapClass        = `Spatie\LaravelData\Support\Wrapping\Wrap`
	WrapTypeClass    = `Spatie\LaravelData\Support\Wrapping\WrapType`

	ModelClass        = `Illuminate\Database\Eloquent\Model`
	JsonResponseClass = `Illuminate\Http\JsonResponse`
)

// Synthetic classes. InputClass wraps a data type documented in its input
// form; TransformedClass is the result of toArray/toJson on an instance.
const (
	InputClass       = "$$LARAVEL_DATA_INPUT"
	TransformedClass = "$$LARAVEL_DATA_TRANSFORMED"
)

// WrapDisabled is the WrapType value set by withoutWrapping().
const WrapDisabled = "disabled"

// Template names.
const (
	TDataContext        = "TDataContext"
	TKey                = "TKey"
	TValue              = "TValue"
	TDefaultIncluded    = "TDefaultIncluded"
	TSetDefaultIncluded = "TSetDefaultIncluded"
)

// Positions of the DataContext template arguments.
const (
	IncludePartials = iota
	ExcludePartials
	OnlyPartials
	ExceptPartials
	Wrap
)

// Attributes of partial lists.
const (
	// AttrConditional marks a partial added by a *When method or derived
	// from a keyed *Properties() entry.
	AttrConditional = "conditional"
	// AttrNotOriginal marks a partial list changed at the call site. Data
	// documented with such a context is rendered inline.
	AttrNotOriginal = "notOriginal"
)

// Attributes read from declared data property types.
const (
	AttrInputName  = "dataInputName"
	AttrOutputName = "dataOutputName"
	AttrHidden     = "dataHidden"
	AttrRequired   = "dataRequired"
)

var (
	dataClasses       = []string{DataClass, ResourceClass, BaseDataContract}
	collectionClasses = []string{DataCollectionClass, PaginatedDataCollectionClass, CursorPaginatedDataCollectionClass, BaseDataCollectableContract}
)

func isDataClass(h types.Hierarchy, class string) bool {
	return class != "" && types.IsSubclassOfAny(h, class, dataClasses...)
}

func isCollectionClass(h types.Hierarchy, class string) bool {
	return class != "" && types.IsSubclassOfAny(h, class, collectionClasses...)
}

func isContextableClass(h types.Hierarchy, class string) bool {
	return isDataClass(h, class) || isCollectionClass(h, class) ||
		types.IsSubclassOfAny(h, class, ContextableDataContract, IncludeableDataContract, WrappableDataContract)
}

func isData(h types.Hierarchy, t types.Type) bool {
	class, _ := types.ClassName(t)
	return isDataClass(h, class)
}

func isCollection(h types.Hierarchy, t types.Type) bool {
	class, _ := types.ClassName(t)
	return isCollectionClass(h, class)
}

// Config holds the laravel-data settings that affect documentation.
type Config struct {
	// Wrap is the global wrap key (data.wrap). Empty disables wrapping
	// unless a class or call site sets one.
	Wrap string
	// InputNames are explicit component names for the input schemas of
	// data classes whose input and output forms differ.
	InputNames map[string]string
}

// Extension bundles the laravel-data hooks and extensions of one run.
type Extension struct {
	cfg  Config
	refs *references
}

// New returns the extension for cfg.
func New(cfg Config) *Extension {
	return &Extension{cfg: cfg, refs: newReferences()}
}

// Config returns the configuration.
func (e *Extension) Config() Config {
	return e.cfg
}

// Hooks returns the resolver hooks in the order they must run: definition
// hooks, static creation, partial and wrap methods, the fluent method
// fallbacks, then model casts.
func (e *Extension) Hooks() []any {
	return []any{
		&ContextableDefinitionHook{},
		&CollectableDefinitionHook{},
		&LazyDefinitionHook{},
		&StaticCreationHook{},
		&IncludeableMethodsHook{},
		&WrappableMethodsHook{},
		&CollectionMethodsHook{},
		&DataMethodsHook{},
		&ModelCastsHook{},
	}
}

// SchemaExtensions returns the schema and response extensions bound to
// tr's index.
func (e *Extension) SchemaExtensions(tr *openapi.Transformer) []any {
	base := schemaBase{ext: e, tr: tr}
	return []any{
		&TransformedSchema{},
		&InputSchema{schemaBase: base},
		&DataSchema{schemaBase: base},
		&CollectionSchema{schemaBase: base},
		&JsonResponseExtension{schemaBase: base},
	}
}

// RequestTransformer returns the operation transformer documenting data
// request bodies.
func (e *Extension) RequestTransformer(tr *openapi.Transformer) *RequestTransformer {
	return &RequestTransformer{schemaBase: schemaBase{ext: e, tr: tr}}
}

// NamesTransformer returns the document transformer settling input schema
// names.
func (e *Extension) NamesTransformer() *ContextualNamesTransformer {
	return &ContextualNamesTransformer{ext: e}
}

// references records how each data class was referenced during a run.
type references struct {
	classes map[string]*classRefs
}

type classRefs struct {
	output    bool
	input     string
	different bool
}

func newReferences() *references {
	return &references{classes: make(map[string]*classRefs)}
}

func (r *references) get(class string) *classRefs {
	c, ok := r.classes[class]
	if !ok {
		c = &classRefs{}
		r.classes[class] = c
	}
	return c
}

func (r *references) names() []string {
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
