package openapi

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComponentSchemaPrefix is the $ref prefix of component schemas.
const ComponentSchemaPrefix = "#/components/schemas/"

// Exampler can be implemented by types to provide an example value
// for the generated JSON Schema.
//
//	func (u User) OpenAPIExample() any {
//	    return User{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Alice"}
//	}
type Exampler interface {
	OpenAPIExample() any
}

type typeKey struct {
	t    reflect.Type
	view string
}

// SchemaGenerator converts Go types to JSON Schema objects and collects
// named types into a component schemas map for $ref deduplication.
//
// A view restricts struct fields to those whose `view` tag is empty or
// lists the view name. Schemas generated under a view are stored under a
// view-qualified name (e.g., "UserPublic").
//
// SchemaGenerator is not safe for concurrent use.
type SchemaGenerator struct {
	schemas   map[string]*Schema
	visited   map[typeKey]bool
	typeNames map[typeKey]string
	nameTypes map[string]typeKey

	deps     map[string][]string // schema name -> names it references
	building []string            // names currently being generated
	roots    []string            // names referenced outside any named schema
}

// NewSchemaGenerator creates a new schema generator.
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		schemas:   make(map[string]*Schema),
		visited:   make(map[typeKey]bool),
		typeNames: make(map[typeKey]string),
		nameTypes: make(map[string]typeKey),
		deps:      make(map[string][]string),
	}
}

// Schemas returns all collected component schemas.
func (g *SchemaGenerator) Schemas() map[string]*Schema {
	return g.schemas
}

// Generate produces a JSON Schema for the given Go value.
func (g *SchemaGenerator) Generate(v any) *Schema {
	if v == nil {
		return nil
	}
	schema, _ := g.Resolve(reflect.TypeOf(v), "")
	return schema
}

// Resolve produces the schema for t under view together with every named
// component schema it references, directly or transitively. Calling it
// again for the same type and view returns an equal result.
func (g *SchemaGenerator) Resolve(t reflect.Type, view string) (*Schema, map[string]*Schema) {
	if t == nil {
		return nil, nil
	}
	g.roots = g.roots[:0]
	g.building = g.building[:0]

	schema := g.generateType(t, view)
	if len(g.roots) == 0 {
		return schema, nil
	}

	referenced := make(map[string]*Schema)
	queue := slices.Clone(g.roots)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := referenced[name]; ok {
			continue
		}
		referenced[name] = g.schemas[name]
		queue = append(queue, g.deps[name]...)
	}
	return schema, referenced
}

func (g *SchemaGenerator) noteRef(name string) {
	if len(g.building) == 0 {
		if !slices.Contains(g.roots, name) {
			g.roots = append(g.roots, name)
		}
		return
	}
	owner := g.building[len(g.building)-1]
	if owner != name && !slices.Contains(g.deps[owner], name) {
		g.deps[owner] = append(g.deps[owner], name)
	}
}

// generateType produces a Schema for the given Go type, using $ref for named struct
// types and inline schemas for primitives, slices, maps, and anonymous structs.
func (g *SchemaGenerator) generateType(t reflect.Type, view string) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) {
		key := typeKey{t: t, view: view}
		name := g.schemaName(key)
		if name != "" {
			if !g.visited[key] {
				g.visited[key] = true
				g.building = append(g.building, name)
				schema := g.generateStructSchema(t, view)
				g.building = g.building[:len(g.building)-1]

				if ex, ok := reflect.New(t).Interface().(Exampler); ok {
					schema.Example = ex.OpenAPIExample()
				}

				g.schemas[name] = schema
			}
			g.noteRef(name)

			ref := &Schema{Ref: ComponentSchemaPrefix + name}
			if nullable {
				return &Schema{
					AnyOf: []*Schema{
						ref,
						{Type: TypeString("null")},
					},
				}
			}
			return ref
		}
	}

	schema := g.generateInlineType(t, view)
	if nullable && schema != nil {
		applyNullable(schema)
	}
	return schema
}

// generateInlineType maps Go primitive and composite types to JSON Schema types.
func (g *SchemaGenerator) generateInlineType(t reflect.Type, view string) *Schema {
	if t == reflect.TypeOf(time.Time{}) {
		return &Schema{Type: TypeString("string"), Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeString("boolean")}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &Schema{Type: TypeString("integer"), Format: "int32"}

	case reflect.Int64:
		return &Schema{Type: TypeString("integer"), Format: "int64"}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeString("integer")}

	case reflect.Float32:
		return &Schema{Type: TypeString("number"), Format: "float"}

	case reflect.Float64:
		return &Schema{Type: TypeString("number"), Format: "double"}

	case reflect.String:
		return &Schema{Type: TypeString("string")}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeString("string"), Format: "byte"}
		}
		return &Schema{
			Type:  TypeString("array"),
			Items: g.generateType(t.Elem(), view),
		}

	case reflect.Array:
		return &Schema{
			Type:  TypeString("array"),
			Items: g.generateType(t.Elem(), view),
		}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeString("object")}
		}
		return &Schema{
			Type:                 TypeString("object"),
			AdditionalProperties: g.generateType(t.Elem(), view),
		}

	case reflect.Struct:
		return g.generateStructSchema(t, view)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

// generateStructSchema builds an object schema from struct fields.
func (g *SchemaGenerator) generateStructSchema(t reflect.Type, view string) *Schema {
	schema := &Schema{
		Type:       TypeString("object"),
		Properties: make(map[string]*Schema),
	}

	g.collectFields(t, schema, view, false)

	if len(schema.Properties) == 0 {
		schema.Properties = nil
	}

	return schema
}

// collectFields recursively collects struct fields into the schema.
// Pointer-embedded structs contribute optional fields only, since a nil
// embedded pointer omits all of them.
func (g *SchemaGenerator) collectFields(t reflect.Type, schema *Schema, view string, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}
		if !inView(field.Tag.Get("view"), view) {
			continue
		}

		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					g.collectFields(ft, schema, view, allOptional || isPtr)
					continue
				}
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := g.generateType(field.Type, view)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"))

		if opts.stringEncode && fieldSchema.Ref == "" && len(fieldSchema.AnyOf) == 0 {
			applyStringEncoding(fieldSchema)
		}

		schema.Properties[name] = fieldSchema

		if !opts.omitempty && !allOptional {
			schema.Required = append(schema.Required, name)
		}
	}
}

// inView reports whether a field tagged with tag belongs to view.
func inView(tag, view string) bool {
	if view == "" || tag == "" {
		return true
	}
	for part := range strings.SplitSeq(tag, ",") {
		if strings.TrimSpace(part) == view {
			return true
		}
	}
	return false
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyOpenAPITag parses the `openapi` struct tag and applies constraints to the schema.
func applyOpenAPITag(schema *Schema, tag string) {
	if tag == "" {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if hasValue {
			value = strings.TrimSpace(value)
		}

		switch key {
		case "description":
			schema.Description = value
		case "example":
			schema.Example = parseExampleValue(schema, value)
		case "format":
			schema.Format = value
		case "minimum":
			schema.Minimum = parseFloat(value)
		case "maximum":
			schema.Maximum = parseFloat(value)
		case "exclusiveMinimum":
			schema.ExclusiveMinimum = parseFloat(value)
		case "exclusiveMaximum":
			schema.ExclusiveMaximum = parseFloat(value)
		case "multipleOf":
			schema.MultipleOf = parseFloat(value)
		case "minLength":
			schema.MinLength = parseInt(value)
		case "maxLength":
			schema.MaxLength = parseInt(value)
		case "minItems":
			schema.MinItems = parseInt(value)
		case "maxItems":
			schema.MaxItems = parseInt(value)
		case "minProperties":
			schema.MinProperties = parseInt(value)
		case "maxProperties":
			schema.MaxProperties = parseInt(value)
		case "pattern":
			schema.Pattern = value
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = v
			}
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		case "uniqueItems":
			schema.UniqueItems = true
		case "title":
			schema.Title = value
		case "const":
			schema.Const = parseExampleValue(schema, value)
		}
	}
}

func parseFloat(value string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(value string) *int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &v
}

// parseExampleValue converts a string tag value to the appropriate Go type
// based on the schema's type field.
func parseExampleValue(schema *Schema, value string) any {
	types := schema.Type.Values()
	if len(types) == 0 {
		return value
	}

	switch types[0] {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique schema name for the given type and view.
// Types sharing a simple name across packages get the package's last path
// segment as prefix, then a numeric suffix if that still collides.
func (g *SchemaGenerator) schemaName(key typeKey) string {
	t := key.t
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	if name, ok := g.typeNames[key]; ok {
		return name
	}

	simple += viewSuffix(key.view)
	name := simple
	if existing, ok := g.nameTypes[name]; ok && existing != key {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := g.nameTypes[name]; ok && existing != key {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := g.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	g.typeNames[key] = name
	g.nameTypes[name] = key
	return name
}

// viewSuffix turns a view name into a schema name suffix ("public-api" ->
// "PublicApi").
func viewSuffix(view string) string {
	if view == "" {
		return ""
	}
	caser := cases.Title(language.Und)
	var b strings.Builder
	for part := range strings.FieldsFuncSeq(view, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	}) {
		b.WriteString(caser.String(part))
	}
	return b.String()
}

// pkgPrefix extracts the last segment of a Go package path and capitalizes
// it for use as a schema name prefix (e.g., "net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if len(pkgPath) == 0 {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName cleans up Go type names for use as component schema
// keys: "Page[User]" becomes "PageUser" and "Page[[]User]" "PageUserList".
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}

	return result
}

// applyNullable converts the type to an array that includes "null".
func applyNullable(schema *Schema) {
	if schema.Ref != "" {
		return
	}
	types := schema.Type.Values()
	if len(types) > 0 {
		schema.Type = TypeArray(append(types, "null")...)
	}
}

// applyStringEncoding overrides the schema type to "string" to match the
// encoding/json ",string" tag option. Nullable types keep "null".
func applyStringEncoding(schema *Schema) {
	types := schema.Type.Values()
	if len(types) == 0 {
		return
	}
	if slices.Contains(types, "null") {
		schema.Type = TypeArray("string", "null")
	} else {
		schema.Type = TypeString("string")
	}
	schema.Format = ""
}
