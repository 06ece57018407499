package resource

import (
	"fmt"
	"strings"

	"github.com/vitalvas/restdoc/openapi"
)

// ParameterInput is what an extension sees for one method parameter.
type ParameterInput struct {
	Param    *Param
	Method   *Method
	Class    *Class
	View     string
	Resolver SchemaResolver
}

// BodyDescriptor describes a parameter that carries the request body.
// Annotation, when set, is the parameter's own request body annotation.
type BodyDescriptor struct {
	Description string
	Required    bool
	Schema      *openapi.Schema
	Annotation  *RequestBodyInfo
}

// ResolvedParameter is the result of extracting one parameter. At most one
// of Parameters, FormFields and Body is non-empty. Schemas holds the
// component schemas referenced by the parameter's type.
type ResolvedParameter struct {
	Parameters []*openapi.Parameter
	FormFields []*openapi.Parameter
	Body       *BodyDescriptor
	Schemas    map[string]*openapi.Schema
}

func (r ResolvedParameter) kinds() int {
	n := 0
	if len(r.Parameters) > 0 {
		n++
	}
	if len(r.FormFields) > 0 {
		n++
	}
	if r.Body != nil {
		n++
	}
	return n
}

// Extension is one strategy of the extension chain.
//
// MatchVerb returns the HTTP verb declared for a method, or "" when the
// extension does not know it. ExtractParameters reports ok=false when the
// extension does not recognize the parameter, handing it to the next one.
type Extension interface {
	MatchVerb(m *Method) string
	ExtractParameters(in ParameterInput) (res ResolvedParameter, ok bool, err error)
}

// Chain is an ordered list of extensions; the first match wins.
type Chain []Extension

// DefaultChain holds only DefaultExtension.
func DefaultChain() Chain {
	return Chain{DefaultExtension{}}
}

// MatchVerb returns the lower-case verb of the first extension that knows
// one, or "".
func (c Chain) MatchVerb(m *Method) string {
	for _, ext := range c {
		if verb := ext.MatchVerb(m); verb != "" {
			return strings.ToLower(verb)
		}
	}
	return ""
}

// ExtractParameters runs the chain once over a parameter. A parameter no
// extension recognizes contributes nothing.
func (c Chain) ExtractParameters(in ParameterInput) (ResolvedParameter, error) {
	for _, ext := range c {
		res, ok, err := ext.ExtractParameters(in)
		if err != nil {
			return ResolvedParameter{}, err
		}
		if !ok {
			continue
		}
		if res.kinds() > 1 {
			return ResolvedParameter{}, fmt.Errorf("parameter %q: %w", in.Param.Name, ErrAmbiguousParameter)
		}
		return res, nil
	}
	return ResolvedParameter{}, nil
}

// DefaultExtension reads the verb from Method.Verb and binds parameters by
// Param.In. Path parameters are always required. Hidden and context
// parameters are recognized and contribute nothing.
type DefaultExtension struct{}

// MatchVerb implements Extension.
func (DefaultExtension) MatchVerb(m *Method) string {
	return strings.TrimSpace(m.Verb)
}

// ExtractParameters implements Extension.
func (DefaultExtension) ExtractParameters(in ParameterInput) (ResolvedParameter, bool, error) {
	p := in.Param
	binding := strings.ToLower(strings.TrimSpace(p.In))

	switch binding {
	case InPath, InQuery, InHeader, InCookie, InForm, InBody, "":
	case InContext:
		return ResolvedParameter{}, true, nil
	default:
		return ResolvedParameter{}, false, nil
	}

	if p.Hidden {
		return ResolvedParameter{}, true, nil
	}

	view := in.View
	if p.View != "" {
		view = p.View
	}

	schema, refs, err := paramSchema(p, in.Resolver, view)
	if err != nil {
		return ResolvedParameter{}, true, err
	}

	res := ResolvedParameter{Schemas: refs}

	switch binding {
	case InForm:
		res.FormFields = []*openapi.Parameter{{
			Name:        p.Name,
			In:          InForm,
			Description: p.Description,
			Required:    p.Required,
			Schema:      schema,
		}}
	case InBody, "":
		res.Body = &BodyDescriptor{
			Description: p.Description,
			Required:    p.Required,
			Schema:      schema,
			Annotation:  p.RequestBody,
		}
	default:
		res.Parameters = []*openapi.Parameter{{
			Name:        p.Name,
			In:          binding,
			Description: p.Description,
			Required:    p.Required || binding == InPath,
			Deprecated:  p.Deprecated,
			Schema:      schema,
			Example:     p.Example,
		}}
	}

	return res, true, nil
}

// paramSchema returns the explicit schema of p, or resolves its type.
func paramSchema(p *Param, resolver SchemaResolver, view string) (*openapi.Schema, map[string]*openapi.Schema, error) {
	if p.Schema != nil {
		return cloneSchema(p.Schema), nil, nil
	}
	if p.Type.IsZero() || resolver == nil {
		return nil, nil, nil
	}
	schema, refs, err := resolver.Resolve(p.Type, view)
	if err != nil {
		return nil, nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return schema, refs, nil
}
