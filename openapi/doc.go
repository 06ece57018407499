// Package openapi models OpenAPI v3.1.0 documents and serves them over HTTP.
//
// The package holds the document object model shared by the resource reader
// and the manifest loader, a reflection based JSON Schema generator, JSON and
// YAML encoders, and an http.ServeMux integration that exposes a finished
// document together with an interactive docs UI.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://json-schema.org/draft/2020-12/json-schema-core
//
// # Document Model
//
// A Document maps paths to PathItems. Each PathItem carries one slot per
// HTTP verb:
//
//	item := &openapi.PathItem{}
//	item.SetOperation("get", &openapi.Operation{OperationID: "listUsers"})
//
//	for verb, op := range item.Operations() {
//	    fmt.Println(verb, op.OperationID)
//	}
//
// IsVerb reports whether a lower-case name is one of the eight verbs that
// have a slot: get, put, post, delete, options, head, patch and trace.
//
// # Schema Generation
//
// SchemaGenerator converts Go types to JSON Schema via reflection. Named
// struct types are deduplicated into #/components/schemas/{TypeName} and
// referenced via $ref:
//
//	gen := openapi.NewSchemaGenerator()
//	schema := gen.Generate(User{})      // {"$ref": "#/components/schemas/User"}
//	components := gen.Schemas()         // {"User": {...}}
//
// Resolve takes a view name. Fields with a view tag are kept only when the
// tag lists that view, and a non-empty view yields a distinct component name
// such as UserCreate:
//
//	type User struct {
//	    ID       string `json:"id"`
//	    Password string `json:"password" view:"create"`
//	}
//
// Supported openapi tag keys: description, example, format, title, minimum, maximum,
// exclusiveMinimum, exclusiveMaximum, minLength, maxLength, pattern,
// multipleOf, minItems, maxItems, uniqueItems, minProperties, maxProperties,
// const, enum (pipe-separated), deprecated, readOnly, writeOnly.
//
// Implement Exampler to attach a complete example to a component schema.
//
// # Encoding
//
// MarshalJSON and MarshalYAML produce the wire forms of a document. The YAML
// encoder goes through JSON first so both forms share field names and
// omission rules.
//
// # Serving the Document
//
// Handle registers the document endpoints under a base path on a standard
// library mux. The config parameter is optional:
//
//	mux := http.NewServeMux()
//	openapi.Handle(mux, "/docs", doc, nil)
//
// This registers:
//
//	/docs/            - interactive HTML docs
//	/docs/schema.json - document as JSON
//	/docs/schema.yaml - document as YAML
//
// Choose the docs UI via HandleConfig:
//
//	openapi.DocsSwaggerUI (default)
//	openapi.DocsRapiDoc
//	openapi.DocsRedoc
//
// RequestID wraps a handler and tags every request with an X-Request-ID,
// reusing the incoming header when present.
package openapi
