// Package manifest loads resource classes declared in YAML and turns them
// into a configured resource.Reader.
//
// A manifest lists the document info, named component schemas and the
// resource classes with their methods:
//
//	info:
//	  title: Pet Store
//	  version: 1.0.0
//	schemas:
//	  Pet:
//	    type: object
//	resources:
//	  - name: Pets
//	    path: /pets
//	    methods:
//	      - name: list
//	        verb: GET
//	        returns: List[Pet]
//
// Classes with a path are read as roots unless they set root: false; the
// rest are only reachable as subresources or as Extends parents.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/restdoc/openapi"
	"github.com/vitalvas/restdoc/resource"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("invalid manifest")

var validate = validator.New()

// Manifest is the file format read by Load and Parse.
type Manifest struct {
	Info    openapi.Info     `yaml:"info"`
	Servers []openapi.Server `yaml:"servers" validate:"dive"`

	GlobalParameters  []*openapi.Parameter `yaml:"globalParameters"`
	SkipTypes         []string             `yaml:"skipTypes"`
	IgnoredNamespaces []string             `yaml:"ignoredNamespaces"`

	DefaultMediaType           string `yaml:"defaultMediaType"`
	DefaultResponseDescription string `yaml:"defaultResponseDescription"`

	Schemas   map[string]*openapi.Schema `yaml:"schemas"`
	Resources []*Resource                `yaml:"resources" validate:"required,dive,required"`
}

// Resource is a resource class entry. Root overrides whether the class is
// read as a root.
type Resource struct {
	resource.Class `yaml:",inline"`

	Root *bool `yaml:"root"`
}

// IsRoot reports whether the class is read as a root resource.
func (r *Resource) IsRoot() bool {
	if r.Root != nil {
		return *r.Root
	}
	return r.Path != ""
}

// Error reports a manifest that could not be loaded.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	m, err := Parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields and that class names are unique.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			return err
		}
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			messages = append(messages, fieldPath(ve)+": "+formatValidationError(ve))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
	}

	seen := make(map[string]struct{}, len(m.Resources))
	for _, r := range m.Resources {
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("%w: duplicate resource %q", ErrInvalid, r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// fieldPath drops the root type name from the validator namespace.
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "required_without":
		return fmt.Sprintf("required when %s is empty", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// Classes returns the declared classes in manifest order.
func (m *Manifest) Classes() []*resource.Class {
	classes := make([]*resource.Class, 0, len(m.Resources))
	for _, r := range m.Resources {
		classes = append(classes, &r.Class)
	}
	return classes
}

// Roots returns the classes read as roots, in manifest order.
func (m *Manifest) Roots() []*resource.Class {
	var roots []*resource.Class
	for _, r := range m.Resources {
		if r.IsRoot() {
			roots = append(roots, &r.Class)
		}
	}
	return roots
}

// Reader returns a reader configured from the manifest with every class
// registered. opts are applied after the manifest settings.
func (m *Manifest) Reader(opts ...resource.Option) (*resource.Reader, error) {
	resolver := resource.NewTypeResolver()
	for name, schema := range m.Schemas {
		resolver.RegisterSchema(name, schema)
	}

	base := []resource.Option{
		resource.WithResolver(resolver),
		resource.WithInfo(m.Info),
		resource.WithServers(m.Servers...),
		resource.WithGlobalParameters(m.GlobalParameters...),
		resource.WithSkipTypes(m.SkipTypes...),
		resource.WithIgnoredNamespaces(m.IgnoredNamespaces...),
		resource.WithDefaultMediaType(m.DefaultMediaType),
		resource.WithDefaultResponseDescription(m.DefaultResponseDescription),
	}

	r := resource.NewReader(append(base, opts...)...)
	if err := r.Register(m.Classes()...); err != nil {
		return nil, err
	}
	return r, nil
}

// Build reads every root class and returns the document.
func (m *Manifest) Build(opts ...resource.Option) (*openapi.Document, error) {
	r, err := m.Reader(opts...)
	if err != nil {
		return nil, err
	}

	roots := m.Roots()
	if len(roots) == 0 {
		return r.Assembler().Document(), nil
	}
	return r.Read(roots...)
}
