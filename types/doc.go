// Package types is the type model of the inference engine.
//
// A [Type] is one of a closed set of pointer variants: scalars, literals,
// arrays, shaped records, unions, object references, generics, template
// variables, functions and unresolved references, plus a few synthetic
// variants used by extensions to describe builder state. Every variant
// carries an attribute side-channel ([Attrs]) that never affects
// structural equality.
//
// The package has no knowledge of class definitions. Subtype checks go
// through a [Hierarchy] supplied by the caller, usually the symbol index.
//
// # Traversal
//
// [Visit] walks a type in pre-order. [Map] rebuilds a type, replacing
// matched sub-types without descending into the replacements. Both are
// cycle-safe:
//
//	var names []string
//	types.Visit(t, func(t types.Type) bool {
//	    if o, ok := t.(*types.Object); ok {
//	        names = append(names, o.Name)
//	    }
//	    return true
//	})
package types
