package resource

import (
	"strings"

	"github.com/vitalvas/restdoc/openapi"
)

// Parameter bindings accepted in Param.In. An empty binding means body.
const (
	InPath    = "path"
	InQuery   = "query"
	InHeader  = "header"
	InCookie  = "cookie"
	InForm    = "form"
	InBody    = "body"
	InContext = "context"
)

// Class describes a resource class: a type whose methods are candidates for
// operations. A class is read as a root when it is passed to Reader.Read,
// or as a subresource when a locator method returns it.
type Class struct {
	Name         string                        `yaml:"name" validate:"required"`
	Path         string                        `yaml:"path"`
	Extends      string                        `yaml:"extends"`
	Produces     []string                      `yaml:"produces"`
	Consumes     []string                      `yaml:"consumes"`
	Tags         []openapi.Tag                 `yaml:"tags" validate:"dive"`
	Servers      []openapi.Server              `yaml:"servers" validate:"dive"`
	ExternalDocs *openapi.ExternalDocs         `yaml:"externalDocs"`
	Responses    []*Response                   `yaml:"responses" validate:"dive,required"`
	Security     []openapi.SecurityRequirement `yaml:"security"`
	Deprecated   bool                          `yaml:"deprecated"`
	Hidden       bool                          `yaml:"hidden"`
	Methods      []*Method                     `yaml:"methods" validate:"dive,required"`
}

// Method describes one resource method with its routing and documentation
// metadata. The reader treats it as read-only.
type Method struct {
	Name       string   `yaml:"name" validate:"required"`
	Path       string   `yaml:"path"`
	Verb       string   `yaml:"verb"`
	Produces   []string `yaml:"produces"`
	Consumes   []string `yaml:"consumes"`
	Deprecated bool     `yaml:"deprecated"`
	Hidden     bool     `yaml:"hidden"`

	// View restricts the fields of generated schemas to those tagged with
	// the view name.
	View string `yaml:"view"`

	Params  []*Param `yaml:"params" validate:"dive,required"`
	Returns TypeRef  `yaml:"returns"`

	Operation *OperationInfo `yaml:"operation"`

	Tags         []openapi.Tag                 `yaml:"tags" validate:"dive"`
	Servers      []openapi.Server              `yaml:"servers" validate:"dive"`
	ExternalDocs *openapi.ExternalDocs         `yaml:"externalDocs"`
	Parameters   []*Param                      `yaml:"parameters" validate:"dive,required"`
	RequestBody  *RequestBodyInfo              `yaml:"requestBody"`
	Responses    []*Response                   `yaml:"responses" validate:"dive,required"`
	Callbacks    []*Callback                   `yaml:"callbacks" validate:"dive,required"`
	Security     []openapi.SecurityRequirement `yaml:"security"`
}

// OperationInfo carries the explicit operation-level annotation of a method.
// Verb is only consulted for callback operations.
type OperationInfo struct {
	ID           string                        `yaml:"id"`
	Verb         string                        `yaml:"verb"`
	Summary      string                        `yaml:"summary"`
	Description  string                        `yaml:"description"`
	Deprecated   bool                          `yaml:"deprecated"`
	Hidden       bool                          `yaml:"hidden"`
	IgnoreView   bool                          `yaml:"ignoreView"`
	Tags         []string                      `yaml:"tags"`
	ExternalDocs *openapi.ExternalDocs         `yaml:"externalDocs"`
	Responses    []*Response                   `yaml:"responses" validate:"dive,required"`
	Servers      []openapi.Server              `yaml:"servers" validate:"dive"`
	Parameters   []*Param                      `yaml:"parameters" validate:"dive,required"`
	RequestBody  *RequestBodyInfo              `yaml:"requestBody"`
	Security     []openapi.SecurityRequirement `yaml:"security"`
	Extensions   map[string]any                `yaml:"extensions"`
}

// Param is a method parameter or an explicit parameter annotation.
type Param struct {
	Name        string `yaml:"name"`
	In          string `yaml:"in" validate:"omitempty,oneof=path query header cookie form body context"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Deprecated  bool   `yaml:"deprecated"`
	Hidden      bool   `yaml:"hidden"`

	Type    TypeRef         `yaml:"type"`
	Schema  *openapi.Schema `yaml:"schema"`
	Example any             `yaml:"example"`

	// RequestBody annotates a body parameter. Slots it leaves empty are
	// completed from the parameter's schema.
	RequestBody *RequestBodyInfo `yaml:"requestBody"`

	// View overrides the method view for this parameter.
	View string `yaml:"view"`
}

// RequestBodyInfo is a request body annotation.
type RequestBodyInfo struct {
	Ref         string     `yaml:"ref"`
	Description string     `yaml:"description"`
	Required    bool       `yaml:"required"`
	Content     []*Content `yaml:"content" validate:"dive,required"`
}

// Content binds a media type to a type or explicit schema. An empty media
// type expands to the applicable consumes or produces list.
type Content struct {
	MediaType string          `yaml:"mediaType"`
	Type      TypeRef         `yaml:"type"`
	Schema    *openapi.Schema `yaml:"schema"`
	Example   any             `yaml:"example"`
}

// Response is a response annotation. An empty Code means "default".
type Response struct {
	Code        string                     `yaml:"code"`
	Description string                     `yaml:"description"`
	Ref         string                     `yaml:"ref"`
	Content     []*Content                 `yaml:"content" validate:"dive,required"`
	Headers     map[string]*openapi.Header `yaml:"headers"`
}

// Callback is a callback annotation: either a $ref, or an expression with
// the operations served under it.
type Callback struct {
	Name       string           `yaml:"name" validate:"required"`
	Ref        string           `yaml:"ref"`
	Expression string           `yaml:"expression" validate:"required_without=Ref"`
	Operations []*OperationInfo `yaml:"operations" validate:"dive,required"`
}

func (m *Method) hidden() bool {
	return m.Hidden || (m.Operation != nil && m.Operation.Hidden)
}

// signature identifies a method for override detection: the name plus the
// parameter type names.
func (m *Method) signature() string {
	types := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		if p != nil {
			types = append(types, p.Type.String())
		}
	}
	return m.Name + "(" + strings.Join(types, ",") + ")"
}
