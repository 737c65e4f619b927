package infer

import (
	"log/slog"
)

// Source supplies raw class definitions built from declared members. It
// returns false for names it does not know.
type Source interface {
	Inspect(name string) (*ClassDefinition, bool)
}

// FunctionSource is implemented by sources that also know global functions.
type FunctionSource interface {
	InspectFunction(name string) (*FunctionDefinition, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string) (*ClassDefinition, bool)

// Inspect implements Source.
func (f SourceFunc) Inspect(name string) (*ClassDefinition, bool) {
	return f(name)
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithIndexLogger sets the index logger.
func WithIndexLogger(l *slog.Logger) IndexOption {
	return func(idx *Index) { idx.logger = l }
}

// Index is the memoizing definition store of one run.
//
// Definitions are built in two phases: the raw definition comes from the
// Source (or is empty for unknown names), then every matching
// ClassDefinitionHook refines it in broker order. Only the refined result
// is cached. Entries live for the whole run.
type Index struct {
	source    Source
	broker    *Broker
	logger    *slog.Logger
	classes   map[string]*ClassDefinition
	building  map[string]*ClassDefinition
	raw       map[string]*ClassDefinition
	functions map[string]*FunctionDefinition
	nextID    DefinitionID
}

// NewIndex returns an index over src. src may be nil.
func NewIndex(src Source, broker *Broker, opts ...IndexOption) *Index {
	if broker == nil {
		broker = NewBroker()
	}
	idx := &Index{
		source:    src,
		broker:    broker,
		logger:    slog.Default(),
		classes:   make(map[string]*ClassDefinition),
		building:  make(map[string]*ClassDefinition),
		raw:       make(map[string]*ClassDefinition),
		functions: make(map[string]*FunctionDefinition),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Broker returns the broker consulted by the index.
func (idx *Index) Broker() *Broker {
	return idx.broker
}

// Definition returns the definition of name, building it on first access.
// A name the source does not know yields an empty definition. While a
// definition is being built, requests for the same name return the partial
// definition instead of recursing.
func (idx *Index) Definition(name string) *ClassDefinition {
	if def, ok := idx.classes[name]; ok {
		return def
	}
	if def, ok := idx.building[name]; ok {
		return def
	}

	var def *ClassDefinition
	if raw := idx.rawDefinition(name); raw != nil {
		def = raw.Clone()
	} else {
		def = NewClassDefinition(name)
	}
	idx.assignID(def)

	idx.building[name] = def
	ev := &ClassDefinitionCreatedEvent{Index: idx, Definition: def}
	applied := idx.broker.classDefinitionCreated(ev)
	delete(idx.building, name)

	if registered, ok := idx.classes[name]; ok {
		return registered
	}

	def = ev.Definition
	idx.classes[name] = def
	idx.logger.Debug("class definition created", "class", name, "id", def.ID, "hooks", applied)
	return def
}

// RegisterDefinition stores def, overwriting any cached or in-progress
// definition with the same name.
func (idx *Index) RegisterDefinition(def *ClassDefinition) {
	idx.assignID(def)
	idx.classes[def.Name] = def
	if _, ok := idx.building[def.Name]; ok {
		idx.building[def.Name] = def
	}
}

// HasDefinition reports whether name is cached or known to the source.
func (idx *Index) HasDefinition(name string) bool {
	if _, ok := idx.classes[name]; ok {
		return true
	}
	return idx.rawDefinition(name) != nil
}

func (idx *Index) assignID(def *ClassDefinition) {
	if def.ID == 0 {
		idx.nextID++
		def.ID = idx.nextID
	}
}

func (idx *Index) rawDefinition(name string) *ClassDefinition {
	if def, ok := idx.raw[name]; ok {
		return def
	}
	var def *ClassDefinition
	if idx.source != nil {
		if d, ok := idx.source.Inspect(name); ok && d != nil {
			def = d
			if def.Name == "" {
				def.Name = name
			}
		}
	}
	idx.raw[name] = def
	return def
}

// Ancestors implements types.Hierarchy from declared parents and
// interfaces. It never runs hooks.
func (idx *Index) Ancestors(name string) []string {
	def := idx.rawDefinition(name)
	if def == nil {
		def = idx.classes[name]
	}
	if def == nil {
		return nil
	}
	out := make([]string, 0, len(def.Interfaces)+1)
	if def.Parent != "" {
		out = append(out, def.Parent)
	}
	return append(out, def.Interfaces...)
}

// Method finds name on def or its ancestors. It returns the method and the
// definition that declares it.
func (idx *Index) Method(def *ClassDefinition, name string) (*FunctionDefinition, *ClassDefinition) {
	seen := make(map[string]bool)
	for d := def; d != nil && !seen[d.Name]; {
		seen[d.Name] = true
		if m := d.Method(name); m != nil {
			return m, d
		}
		if d.Parent == "" {
			break
		}
		d = idx.Definition(d.Parent)
	}
	return nil, nil
}

// Property finds name on def or its ancestors.
func (idx *Index) Property(def *ClassDefinition, name string) (*PropertyDefinition, *ClassDefinition) {
	seen := make(map[string]bool)
	for d := def; d != nil && !seen[d.Name]; {
		seen[d.Name] = true
		if p := d.Property(name); p != nil {
			return p, d
		}
		if d.Parent == "" {
			break
		}
		d = idx.Definition(d.Parent)
	}
	return nil, nil
}

// RegisterFunction adds a global function.
func (idx *Index) RegisterFunction(fn *FunctionDefinition) {
	idx.functions[fn.Name()] = fn
}

// Function returns a global function, consulting the source when it
// implements FunctionSource.
func (idx *Index) Function(name string) *FunctionDefinition {
	if fn, ok := idx.functions[name]; ok {
		return fn
	}
	fs, ok := idx.source.(FunctionSource)
	if !ok {
		return nil
	}
	fn, ok := fs.InspectFunction(name)
	if !ok {
		fn = nil
	}
	idx.functions[name] = fn
	return fn
}
