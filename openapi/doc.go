// Package openapi converts resolved types into an OpenAPI v3.1.0 document.
//
// The package targets the OpenAPI Specification v3.1.0 and uses JSON Schema
// Draft 2020-12 for schemas. Nullability is expressed with type arrays
// (["string", "null"]) and, for references, anyOf with a null branch.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://json-schema.org/draft/2020-12/json-schema-core
//
// # Transformer
//
// A Transformer walks a type and produces a Schema. Class types become
// $ref entries into a ComponentsTable; structurally equal types share one
// component, and self-referencing classes produce reference cycles:
//
//	tr := openapi.NewTransformer(resolver)
//	tr.Transform(types.NewGeneric("Paginated", types.NewObject(`App\Models\User`)))
//	// {"$ref": "#/components/schemas/PaginatedUser"}
//
// Component names start from the short class name. A second class with the
// same short name is qualified with its namespace ("ApiUser"), then with a
// numeric suffix.
//
// Extensions teach the transformer about specific classes. A TypeToSchema
// extension builds the schema body; implementing ReferenceNamer picks the
// component name or renders inline. ResponseExtension controls the status
// code and media type of a returned type.
//
// # Generator
//
// A Generator turns RouteInfo values into a Document:
//
//	gen := openapi.NewGenerator(tr, openapi.Info{Title: "API", Version: "1.0.0"}).
//	    AddParameterExtractor(extractors...).
//	    AppendOperationTransformer(patches...)
//	doc := gen.Generate(routes)
//	data, err := openapi.MarshalYAML(doc)
//
// Each route's statements are analyzed in its scope before the return type
// is resolved, so builder variables refined by side-effect calls carry their
// final type into the response schema.
package openapi
