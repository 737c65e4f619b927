// Package infer resolves deferred types against class definitions.
//
// Three pieces cooperate during one generation run:
//
//   - [Index] memoizes class definitions. A definition is built once from a
//     [Source], then every matching [ClassDefinitionHook] refines it before
//     it is cached.
//   - [Resolver] turns references (method calls, static calls, constructor
//     calls, property fetches, function calls), template variables and
//     computed types into concrete types.
//   - [Broker] holds the extension hooks consulted by the index and the
//     resolver, in an explicit priority order.
//
// A run is single-threaded. None of the types in this package are safe for
// concurrent use.
//
//	broker := infer.NewBroker()
//	index := infer.NewIndex(source, broker)
//	resolver := infer.NewResolver(index)
//
//	scope := resolver.NewScope()
//	t := scope.Resolve(types.NewStaticCall("Builder", "for", types.Positional(model)...))
package infer
