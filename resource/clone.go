package resource

import (
	"maps"
	"slices"

	"github.com/vitalvas/restdoc/openapi"
)

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func cloneSchema(s *openapi.Schema) *openapi.Schema {
	if s == nil {
		return nil
	}
	c := *s
	if !s.Type.IsEmpty() {
		c.Type = openapi.TypeArray(slices.Clone(s.Type.Values())...)
	}
	c.Items = cloneSchema(s.Items)
	c.AdditionalProperties = cloneSchema(s.AdditionalProperties)
	c.Not = cloneSchema(s.Not)
	c.AllOf = cloneSchemas(s.AllOf)
	c.OneOf = cloneSchemas(s.OneOf)
	c.AnyOf = cloneSchemas(s.AnyOf)
	if s.Properties != nil {
		c.Properties = make(map[string]*openapi.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			c.Properties[name] = cloneSchema(prop)
		}
	}
	c.Required = slices.Clone(s.Required)
	c.Enum = slices.Clone(s.Enum)
	return &c
}

func cloneSchemas(in []*openapi.Schema) []*openapi.Schema {
	if in == nil {
		return nil
	}
	out := make([]*openapi.Schema, len(in))
	for i, s := range in {
		out[i] = cloneSchema(s)
	}
	return out
}

func cloneContent(in map[string]*openapi.MediaType) map[string]*openapi.MediaType {
	if in == nil {
		return nil
	}
	out := make(map[string]*openapi.MediaType, len(in))
	for k, mt := range in {
		if mt == nil {
			out[k] = nil
			continue
		}
		out[k] = &openapi.MediaType{Schema: cloneSchema(mt.Schema), Example: mt.Example}
	}
	return out
}

func cloneRequestBody(rb *openapi.RequestBody) *openapi.RequestBody {
	if rb == nil {
		return nil
	}
	c := *rb
	c.Content = cloneContent(rb.Content)
	return &c
}

func cloneResponse(r *openapi.Response) *openapi.Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Content = cloneContent(r.Content)
	c.Headers = maps.Clone(r.Headers)
	return &c
}

func cloneResponses(in map[string]*openapi.Response) map[string]*openapi.Response {
	if in == nil {
		return nil
	}
	out := make(map[string]*openapi.Response, len(in))
	for code, r := range in {
		out[code] = cloneResponse(r)
	}
	return out
}

func cloneParameter(p *openapi.Parameter) *openapi.Parameter {
	if p == nil {
		return nil
	}
	c := *p
	c.Schema = cloneSchema(p.Schema)
	return &c
}

func cloneParameters(in []*openapi.Parameter) []*openapi.Parameter {
	if in == nil {
		return nil
	}
	out := make([]*openapi.Parameter, len(in))
	for i, p := range in {
		out[i] = cloneParameter(p)
	}
	return out
}
