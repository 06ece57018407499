// Package resource builds OpenAPI operations from resource classes.
//
// A Class groups methods under a path. Each Method declares its verb, path
// segment, parameters, return type and operation metadata. A Reader walks
// the classes and turns every eligible method into one operation:
//
//	r := resource.NewReader(resource.WithInfo(openapi.Info{Title: "Pets", Version: "1.0.0"}))
//	doc, err := r.Read(&resource.Class{
//	    Name: "Pets",
//	    Path: "/pets",
//	    Methods: []*resource.Method{
//	        {Name: "list", Verb: "GET", Returns: resource.Named("List", resource.Named("Pet"))},
//	        {Name: "owner", Path: "{id}/owner", Returns: resource.Locate("Owners")},
//	    },
//	})
//
// A method with a path and no verb whose return type is a registered class,
// or Locator[Class], is a subresource locator: the reader continues into
// that class under the locator's path and passes its parameters, request
// body, responses, tags and media types down. A class already on the active
// locator chain is not entered again.
//
// # Extensions
//
// Verbs and parameter bindings are resolved by a Chain of Extension values.
// The first extension that knows a verb or recognizes a parameter wins.
// WithExtensions puts custom extensions ahead of DefaultExtension.
//
// # Assembler
//
// Operations are registered into an Assembler, which owns the path table,
// the schema registry and the tag set. Operation ids, including those of
// callback operations, are made unique with a "_<n>" suffix. An Assembler is
// safe for concurrent use and may be shared by several readers through
// WithAssembler; a Reader is not.
package resource
