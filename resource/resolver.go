package resource

import (
	"fmt"
	"strings"

	"github.com/vitalvas/restdoc/openapi"
)

// SchemaResolver maps a type to a schema plus the named component schemas
// it references. A nil schema with a nil error means the type is unknown;
// callers proceed without the schema slot. Resolve must return consistent
// results when called repeatedly for the same type and view.
type SchemaResolver interface {
	Resolve(t TypeRef, view string) (*openapi.Schema, map[string]*openapi.Schema, error)
}

// TypeResolver is the default SchemaResolver. Go types are reflected through
// openapi.SchemaGenerator; named types resolve to primitives, to the
// list/map containers, or to schemas registered with RegisterSchema.
//
// TypeResolver is not safe for concurrent use.
type TypeResolver struct {
	gen   *openapi.SchemaGenerator
	named map[string]*openapi.Schema
}

// NewTypeResolver creates a resolver with no named schemas.
func NewTypeResolver() *TypeResolver {
	return &TypeResolver{
		gen:   openapi.NewSchemaGenerator(),
		named: make(map[string]*openapi.Schema),
	}
}

// RegisterSchema makes name resolvable as a $ref to schema. Schemas may
// reference each other with "#/components/schemas/<name>".
func (r *TypeResolver) RegisterSchema(name string, schema *openapi.Schema) {
	r.named[name] = schema
}

type primitive struct {
	typ, format string
}

var primitives = map[string]primitive{
	"string":    {"string", ""},
	"str":       {"string", ""},
	"int":       {"integer", "int32"},
	"int32":     {"integer", "int32"},
	"integer":   {"integer", "int32"},
	"int64":     {"integer", "int64"},
	"long":      {"integer", "int64"},
	"uint":      {"integer", ""},
	"float":     {"number", "float"},
	"float32":   {"number", "float"},
	"float64":   {"number", "double"},
	"double":    {"number", "double"},
	"number":    {"number", ""},
	"bool":      {"boolean", ""},
	"boolean":   {"boolean", ""},
	"bytes":     {"string", "byte"},
	"binary":    {"string", "binary"},
	"file":      {"string", "binary"},
	"date":      {"string", "date"},
	"date-time": {"string", "date-time"},
	"datetime":  {"string", "date-time"},
	"time":      {"string", "date-time"},
	"uuid":      {"string", "uuid"},
	"email":     {"string", "email"},
	"uri":       {"string", "uri"},
	"object":    {"object", ""},
}

// Resolve implements SchemaResolver.
func (r *TypeResolver) Resolve(t TypeRef, view string) (*openapi.Schema, map[string]*openapi.Schema, error) {
	if t.Go != nil {
		schema, refs := r.gen.Resolve(t.Go, view)
		return schema, refs, nil
	}

	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, nil, nil
	}

	switch strings.ToLower(name) {
	case "list", "array", "set", "slice":
		if len(t.Args) != 1 {
			return nil, nil, fmt.Errorf("type %s: %s takes one type argument, got %d", t, name, len(t.Args))
		}
		items, refs, err := r.Resolve(t.Args[0], view)
		if err != nil || items == nil {
			return nil, nil, err
		}
		schema := &openapi.Schema{Type: openapi.TypeString("array"), Items: items}
		if strings.EqualFold(name, "set") {
			schema.UniqueItems = true
		}
		return schema, refs, nil

	case "map":
		if len(t.Args) == 0 || len(t.Args) > 2 {
			return nil, nil, fmt.Errorf("type %s: map takes one or two type arguments, got %d", t, len(t.Args))
		}
		values, refs, err := r.Resolve(t.Args[len(t.Args)-1], view)
		if err != nil || values == nil {
			return nil, nil, err
		}
		return &openapi.Schema{Type: openapi.TypeString("object"), AdditionalProperties: values}, refs, nil

	case "any":
		return &openapi.Schema{}, nil, nil
	}

	if p, ok := primitives[strings.ToLower(name)]; ok && len(t.Args) == 0 {
		return &openapi.Schema{Type: openapi.TypeString(p.typ), Format: p.format}, nil, nil
	}

	key := t.String()
	if _, ok := r.named[key]; !ok {
		key = name
		if _, ok := r.named[key]; !ok {
			return nil, nil, nil
		}
	}

	refs := make(map[string]*openapi.Schema)
	r.collect(key, refs)
	return &openapi.Schema{Ref: openapi.ComponentSchemaPrefix + key}, refs, nil
}

// collect adds name and every registered schema reachable from it to refs.
func (r *TypeResolver) collect(name string, refs map[string]*openapi.Schema) {
	schema, ok := r.named[name]
	if !ok {
		return
	}
	if _, seen := refs[name]; seen {
		return
	}
	refs[name] = schema

	for _, ref := range schemaRefs(schema) {
		r.collect(strings.TrimPrefix(ref, openapi.ComponentSchemaPrefix), refs)
	}
}

// schemaRefs lists the component $refs that appear anywhere in schema.
func schemaRefs(schema *openapi.Schema) []string {
	if schema == nil {
		return nil
	}

	var refs []string
	if strings.HasPrefix(schema.Ref, openapi.ComponentSchemaPrefix) {
		refs = append(refs, schema.Ref)
	}

	children := []*openapi.Schema{schema.Items, schema.AdditionalProperties, schema.Not}
	children = append(children, schema.AllOf...)
	children = append(children, schema.OneOf...)
	children = append(children, schema.AnyOf...)
	for _, key := range sortedKeys(schema.Properties) {
		children = append(children, schema.Properties[key])
	}

	for _, child := range children {
		refs = append(refs, schemaRefs(child)...)
	}
	return refs
}
