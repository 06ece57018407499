package resource

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/vitalvas/restdoc/openapi"
)

// operationBuilder turns one method into an operation by running the merge
// steps over an accumulator.
type operationBuilder struct {
	reader *Reader
	log    *slog.Logger

	scope  *scope
	method *Method
	trav   *traversal

	path     string
	patterns map[string]string
	verb     string
	locator  bool

	view     string
	bodyView string

	op      *openapi.Operation
	schemas map[string]*openapi.Schema
	docTags []openapi.Tag
}

func newOperationBuilder(r *Reader, s *scope, m *Method, t *traversal, path string, patterns map[string]string, verb string, locator bool) *operationBuilder {
	b := &operationBuilder{
		reader:   r,
		log:      r.log.With("class", s.class.Name, "method", m.Name, "path", path),
		scope:    s,
		method:   m,
		trav:     t,
		path:     path,
		patterns: patterns,
		verb:     verb,
		locator:  locator,
		op:       &openapi.Operation{},
		schemas:  make(map[string]*openapi.Schema),
	}

	if m.Operation == nil || !m.Operation.IgnoreView {
		b.view = m.View
		b.bodyView = bodyView(m)
	}

	return b
}

// bodyView is the view of the single annotated body parameter that declares
// one, falling back to the method view.
func bodyView(m *Method) string {
	view := m.View
	found := 0
	for _, p := range m.Params {
		if p != nil && p.RequestBody != nil && p.View != "" {
			view = p.View
			found++
		}
	}
	if found > 1 {
		return m.View
	}
	return view
}

func (b *operationBuilder) build() (*openapi.Operation, error) {
	for _, step := range mergeSteps {
		if step.skipLocator && b.locator {
			continue
		}
		if err := step.apply(b); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return b.op, nil
}

// consumes returns the request media types: method, class, locator, then
// the configured default.
func (b *operationBuilder) consumes() []string {
	if mt := b.declaredConsumes(); len(mt) > 0 {
		return mt
	}
	return []string{b.reader.defaultMediaType}
}

// produces returns the response media types with the same precedence.
func (b *operationBuilder) produces() []string {
	if mt := b.declaredProduces(); len(mt) > 0 {
		return mt
	}
	return []string{b.reader.defaultMediaType}
}

func (b *operationBuilder) declaredConsumes() []string {
	return firstNonEmpty(b.method.Consumes, b.scope.consumes, b.trav.parentConsumes)
}

func (b *operationBuilder) declaredProduces() []string {
	return firstNonEmpty(b.method.Produces, b.scope.produces, b.trav.parentProduces)
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func (b *operationBuilder) resolve(t TypeRef, view string) (*openapi.Schema, error) {
	if t.IsZero() {
		return nil, nil
	}
	schema, refs, err := b.reader.resolver.Resolve(t, view)
	if err != nil {
		return nil, err
	}
	maps.Copy(b.schemas, refs)
	if schema == nil {
		b.log.Debug("type has no schema", "type", t.String())
	}
	return schema, nil
}

// content builds a content map from annotations. Entries without a media
// type expand to defaults. The first entry for a media type wins.
func (b *operationBuilder) content(items []*Content, defaults []string, view string) (map[string]*openapi.MediaType, error) {
	if len(items) == 0 {
		return nil, nil
	}

	out := make(map[string]*openapi.MediaType)
	for _, c := range items {
		if c == nil {
			continue
		}

		schema := cloneSchema(c.Schema)
		if schema == nil {
			var err error
			if schema, err = b.resolve(c.Type, view); err != nil {
				return nil, err
			}
		}

		mediaTypes := defaults
		if c.MediaType != "" {
			mediaTypes = []string{c.MediaType}
		}
		for _, mt := range mediaTypes {
			if _, ok := out[mt]; ok {
				continue
			}
			out[mt] = &openapi.MediaType{Schema: cloneSchema(schema), Example: c.Example}
		}
	}
	return out, nil
}

// mediaContent maps every media type to its own copy of schema.
func mediaContent(schema *openapi.Schema, mediaTypes []string) map[string]*openapi.MediaType {
	out := make(map[string]*openapi.MediaType, len(mediaTypes))
	for _, mt := range mediaTypes {
		out[mt] = &openapi.MediaType{Schema: cloneSchema(schema)}
	}
	return out
}

func (b *operationBuilder) requestBody(info *RequestBodyInfo, view string) (*openapi.RequestBody, error) {
	if info == nil {
		return nil, nil
	}
	content, err := b.content(info.Content, b.consumes(), view)
	if err != nil {
		return nil, err
	}
	return &openapi.RequestBody{
		Ref:         info.Ref,
		Description: info.Description,
		Required:    info.Required,
		Content:     content,
	}, nil
}

func (b *operationBuilder) responses(list []*Response) (map[string]*openapi.Response, error) {
	if len(list) == 0 {
		return nil, nil
	}

	out := make(map[string]*openapi.Response, len(list))
	for _, r := range list {
		if r == nil {
			continue
		}

		code := r.Code
		if code == "" {
			code = "default"
		}

		content, err := b.content(r.Content, b.produces(), b.view)
		if err != nil {
			return nil, fmt.Errorf("response %s: %w", code, err)
		}

		description := r.Description
		if description == "" && r.Ref == "" {
			description = b.reader.defaultDescription
		}

		resp := &openapi.Response{
			Ref:         r.Ref,
			Description: description,
			Headers:     maps.Clone(r.Headers),
			Content:     content,
		}

		if existing, ok := out[code]; ok {
			mergeResponse(existing, resp)
			continue
		}
		out[code] = resp
	}
	return out, nil
}

// bodyFromDescriptor turns a body parameter into a request body. An
// annotation on the parameter is completed from the parameter schema
// without overwriting what it declares.
func (b *operationBuilder) bodyFromDescriptor(d *BodyDescriptor) (*openapi.RequestBody, error) {
	if d.Annotation != nil {
		rb, err := b.requestBody(d.Annotation, b.bodyView)
		if err != nil {
			return nil, err
		}
		if rb.Ref != "" || d.Schema == nil {
			return rb, nil
		}
		if len(rb.Content) == 0 {
			rb.Content = mediaContent(d.Schema, b.consumes())
			return rb, nil
		}
		for _, mt := range rb.Content {
			if mt.Schema == nil {
				mt.Schema = cloneSchema(d.Schema)
				continue
			}
			backfillType(mt.Schema, d.Schema)
		}
		return rb, nil
	}

	rb := &openapi.RequestBody{Description: d.Description, Required: d.Required}
	if d.Schema != nil {
		rb.Content = mediaContent(d.Schema, b.consumes())
	}
	if rb.Description == "" && !rb.Required && rb.Content == nil {
		return nil, nil
	}
	return rb, nil
}

// formBody synthesizes one object schema from the collected form fields.
func formBody(fields []*openapi.Parameter) *BodyDescriptor {
	schema := &openapi.Schema{
		Type:       openapi.TypeString("object"),
		Properties: make(map[string]*openapi.Schema, len(fields)),
	}
	for _, f := range fields {
		prop := f.Schema
		if prop == nil {
			prop = &openapi.Schema{}
		}
		if prop.Description == "" && f.Description != "" {
			prop = cloneSchema(prop)
			prop.Description = f.Description
		}
		schema.Properties[f.Name] = prop
		if f.Required && !slices.Contains(schema.Required, f.Name) {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return &BodyDescriptor{Schema: schema}
}

// extract runs the extension chain over one parameter.
func (b *operationBuilder) extract(p *Param, view string) (ResolvedParameter, error) {
	res, err := b.reader.chain.ExtractParameters(ParameterInput{
		Param:    p,
		Method:   b.method,
		Class:    b.scope.class,
		View:     view,
		Resolver: b.reader.resolver,
	})
	if err != nil {
		return ResolvedParameter{}, err
	}
	maps.Copy(b.schemas, res.Schemas)
	return res, nil
}

// annotatedParameters resolves explicit parameter annotations. Only bound
// parameters are kept; form and body outputs are ignored.
func (b *operationBuilder) annotatedParameters(params []*Param) error {
	for _, p := range params {
		if p == nil {
			continue
		}
		res, err := b.extract(p, b.view)
		if err != nil {
			return err
		}
		b.addParameters(res.Parameters...)
	}
	return nil
}

// addParameters appends parameters not yet present by name and location.
func (b *operationBuilder) addParameters(params ...*openapi.Parameter) {
	for _, p := range params {
		if p == nil || hasParameter(b.op.Parameters, p.Name, p.In) {
			continue
		}
		b.op.Parameters = append(b.op.Parameters, p)
	}
}

func hasParameter(params []*openapi.Parameter, name, in string) bool {
	return slices.ContainsFunc(params, func(p *openapi.Parameter) bool {
		return p.Name == name && p.In == in
	})
}

func (b *operationBuilder) addTags(names ...string) {
	for _, name := range names {
		if name != "" && !slices.Contains(b.op.Tags, name) {
			b.op.Tags = append(b.op.Tags, name)
		}
	}
}

func (b *operationBuilder) addServers(servers ...openapi.Server) {
	for _, s := range servers {
		if !slices.ContainsFunc(b.op.Servers, func(e openapi.Server) bool { return e.URL == s.URL }) {
			b.op.Servers = append(b.op.Servers, s)
		}
	}
}

func (b *operationBuilder) addSecurity(reqs ...openapi.SecurityRequirement) {
	for _, req := range reqs {
		if !slices.ContainsFunc(b.op.Security, func(e openapi.SecurityRequirement) bool {
			return maps.EqualFunc(e, req, slices.Equal[[]string])
		}) {
			b.op.Security = append(b.op.Security, req)
		}
	}
}

// applyOperationInfo copies an operation annotation onto op. It is used for
// the method's own annotation and for callback operations.
func (b *operationBuilder) applyOperationInfo(op *openapi.Operation, info *OperationInfo) error {
	if info.Summary != "" {
		op.Summary = info.Summary
	}
	if info.Description != "" {
		op.Description = info.Description
	}
	if info.ID != "" {
		op.OperationID = info.ID
	}
	if info.Deprecated {
		op.Deprecated = true
	}
	for _, tag := range info.Tags {
		if tag != "" && !slices.Contains(op.Tags, tag) {
			op.Tags = append(op.Tags, tag)
		}
	}
	if op.ExternalDocs == nil && info.ExternalDocs != nil {
		docs := *info.ExternalDocs
		op.ExternalDocs = &docs
	}

	responses, err := b.responses(info.Responses)
	if err != nil {
		return err
	}
	op.Responses = mergeResponses(op.Responses, responses)

	for _, s := range info.Servers {
		if !slices.ContainsFunc(op.Servers, func(e openapi.Server) bool { return e.URL == s.URL }) {
			op.Servers = append(op.Servers, s)
		}
	}

	for _, p := range info.Parameters {
		if p == nil {
			continue
		}
		res, err := b.extract(p, b.view)
		if err != nil {
			return err
		}
		for _, param := range res.Parameters {
			if !hasParameter(op.Parameters, param.Name, param.In) {
				op.Parameters = append(op.Parameters, param)
			}
		}
	}

	if op.RequestBody == nil && info.RequestBody != nil {
		if op.RequestBody, err = b.requestBody(info.RequestBody, b.bodyView); err != nil {
			return err
		}
	}

	if len(info.Extensions) > 0 {
		if op.Extensions == nil {
			op.Extensions = make(map[string]any, len(info.Extensions))
		}
		maps.Copy(op.Extensions, info.Extensions)
	}

	return nil
}
