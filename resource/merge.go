package resource

import (
	"fmt"
	"slices"

	"github.com/vitalvas/restdoc/openapi"
)

// mergeStep is one stage of operation assembly. Steps run in the order of
// mergeSteps; a later step only fills what earlier ones left unset, except
// where a step documents otherwise.
type mergeStep struct {
	name        string
	apply       func(b *operationBuilder) error
	skipLocator bool
}

var mergeSteps = []mergeStep{
	{name: "servers", apply: mergeServers},
	{name: "callbacks", apply: mergeCallbacks},
	{name: "method external docs", apply: mergeMethodExternalDocs},
	{name: "method tags", apply: mergeMethodTags},
	{name: "global parameters", apply: mergeGlobalParameters},
	{name: "explicit parameters", apply: mergeExplicitParameters},
	{name: "method request body", apply: mergeMethodRequestBody},
	{name: "operation id", apply: mergeOperationID},
	{name: "operation annotation", apply: mergeOperationInfo},
	{name: "security", apply: mergeSecurity},
	{name: "declared responses", apply: mergeDeclaredResponses},
	{name: "class tags", apply: mergeClassTags},
	{name: "class external docs", apply: mergeClassExternalDocs},
	{name: "method parameters", apply: mergeMethodParameters},
	{name: "parent request body", apply: mergeParentRequestBody},
	{name: "parent parameters", apply: mergeParentParameters},
	{name: "path parameters", apply: mergePathParameters},
	{name: "return type", apply: mergeReturnType, skipLocator: true},
	{name: "parent responses", apply: mergeParentResponses},
	{name: "default response", apply: mergeDefaultResponse, skipLocator: true},
	{name: "deprecation", apply: mergeDeprecation},
}

// mergeServers appends class servers, then method servers. Annotation
// servers follow in mergeOperationInfo.
func mergeServers(b *operationBuilder) error {
	b.addServers(b.scope.servers...)
	b.addServers(b.method.Servers...)
	return nil
}

func mergeCallbacks(b *operationBuilder) error {
	for _, cb := range b.method.Callbacks {
		if cb == nil {
			continue
		}
		if b.op.Callbacks == nil {
			b.op.Callbacks = make(map[string]*openapi.Callback)
		}

		if cb.Ref != "" {
			b.op.Callbacks[cb.Name] = &openapi.Callback{Ref: cb.Ref}
			continue
		}

		item := &openapi.PathItem{}
		for _, info := range cb.Operations {
			if info == nil {
				continue
			}
			op := &openapi.Operation{}
			if err := b.applyOperationInfo(op, info); err != nil {
				return fmt.Errorf("callback %s: %w", cb.Name, err)
			}
			if !item.SetOperation(info.Verb, op) {
				b.log.Debug("skipping callback operation without a known verb", "callback", cb.Name, "verb", info.Verb)
			}
		}

		b.op.Callbacks[cb.Name] = &openapi.Callback{
			Expressions: map[string]*openapi.PathItem{cb.Expression: item},
		}
	}
	return nil
}

func mergeMethodExternalDocs(b *operationBuilder) error {
	if b.method.ExternalDocs != nil {
		docs := *b.method.ExternalDocs
		b.op.ExternalDocs = &docs
	}
	return nil
}

// mergeMethodTags adds method tags to the operation and publishes their
// full declarations as document tags.
func mergeMethodTags(b *operationBuilder) error {
	for _, tag := range b.method.Tags {
		b.addTags(tag.Name)
		b.docTags = append(b.docTags, tag)
	}
	return nil
}

func mergeGlobalParameters(b *operationBuilder) error {
	b.addParameters(cloneParameters(b.reader.globalParams)...)
	return nil
}

func mergeExplicitParameters(b *operationBuilder) error {
	return b.annotatedParameters(b.method.Parameters)
}

func mergeMethodRequestBody(b *operationBuilder) error {
	if b.method.RequestBody == nil || b.op.RequestBody != nil {
		return nil
	}
	rb, err := b.requestBody(b.method.RequestBody, b.bodyView)
	if err != nil {
		return err
	}
	b.op.RequestBody = rb
	return nil
}

// mergeOperationID defaults the id to the method name. The annotation may
// replace it; uniqueness is enforced when the operation is registered.
func mergeOperationID(b *operationBuilder) error {
	if b.op.OperationID == "" {
		b.op.OperationID = b.method.Name
	}
	return nil
}

func mergeOperationInfo(b *operationBuilder) error {
	if b.method.Operation == nil {
		return nil
	}
	return b.applyOperationInfo(b.op, b.method.Operation)
}

// mergeSecurity appends class, method and annotation requirements in that
// order without duplicates.
func mergeSecurity(b *operationBuilder) error {
	b.addSecurity(b.scope.security...)
	b.addSecurity(b.method.Security...)
	if b.method.Operation != nil {
		b.addSecurity(b.method.Operation.Security...)
	}
	return nil
}

// mergeDeclaredResponses merges class responses, then method responses.
// Responses already set by the annotation keep their schemas.
func mergeDeclaredResponses(b *operationBuilder) error {
	for _, list := range [][]*Response{b.scope.responses, b.method.Responses} {
		responses, err := b.responses(list)
		if err != nil {
			return err
		}
		b.op.Responses = mergeResponses(b.op.Responses, responses)
	}
	return nil
}

func mergeClassTags(b *operationBuilder) error {
	for _, tag := range b.scope.tags {
		b.addTags(tag.Name)
		b.docTags = append(b.docTags, tag)
	}
	b.addTags(b.trav.parentTags...)
	return nil
}

func mergeClassExternalDocs(b *operationBuilder) error {
	if b.op.ExternalDocs == nil && b.scope.externalDocs != nil {
		docs := *b.scope.externalDocs
		b.op.ExternalDocs = &docs
	}
	return nil
}

// mergeMethodParameters runs every method parameter through the extension
// chain. Bound parameters are appended, body parameters merged into the
// request body, and form fields folded into one synthesized body.
func mergeMethodParameters(b *operationBuilder) error {
	var (
		params []*openapi.Parameter
		form   []*openapi.Parameter
	)

	for _, p := range b.method.Params {
		if p == nil {
			continue
		}

		view := b.view
		if p.RequestBody != nil || p.In == "" || p.In == InBody {
			view = b.bodyView
		}

		res, err := b.extract(p, view)
		if err != nil {
			return err
		}

		params = append(params, res.Parameters...)
		form = append(form, res.FormFields...)

		if res.Body != nil {
			rb, err := b.bodyFromDescriptor(res.Body)
			if err != nil {
				return fmt.Errorf("parameter %q: %w", p.Name, err)
			}
			b.op.RequestBody = mergeRequestBody(b.op.RequestBody, rb)
		}
	}

	if len(form) > 0 {
		rb, err := b.bodyFromDescriptor(formBody(form))
		if err != nil {
			return err
		}
		b.op.RequestBody = mergeRequestBody(b.op.RequestBody, rb)
	}

	b.addParameters(params...)
	return nil
}

func mergeParentRequestBody(b *operationBuilder) error {
	if b.trav.subresource {
		b.op.RequestBody = mergeRequestBody(b.op.RequestBody, b.trav.parentRequestBody)
	}
	return nil
}

func mergeParentParameters(b *operationBuilder) error {
	b.addParameters(cloneParameters(b.trav.parentParameters)...)
	return nil
}

// mergePathParameters narrows path parameters with the patterns stripped
// from the template and declares template variables no parameter covers.
func mergePathParameters(b *operationBuilder) error {
	applyPathPatterns(b.op.Parameters, b.patterns)

	for _, name := range templateVars(b.path) {
		if hasParameter(b.op.Parameters, name, InPath) {
			continue
		}
		p := &openapi.Parameter{
			Name:     name,
			In:       InPath,
			Required: true,
			Schema:   &openapi.Schema{Type: openapi.TypeString("string")},
		}
		applyPathPatterns([]*openapi.Parameter{p}, b.patterns)
		b.addParameters(p)
	}
	return nil
}

// mergeReturnType puts the return type schema into the default response.
// It creates the default response when there are no responses yet and
// otherwise only fills media types that lack a schema.
func mergeReturnType(b *operationBuilder) error {
	if b.reader.ignorable(b.method.Returns) {
		return nil
	}

	schema, err := b.resolve(b.method.Returns, b.view)
	if err != nil || schema == nil {
		return err
	}

	if len(b.op.Responses) == 0 {
		b.op.Responses = map[string]*openapi.Response{
			"default": {
				Description: b.reader.defaultDescription,
				Content:     mediaContent(schema, b.produces()),
			},
		}
		return nil
	}

	def, ok := b.op.Responses["default"]
	if !ok || def.Ref != "" {
		return nil
	}
	if def.Content == nil {
		def.Content = mediaContent(schema, b.produces())
		return nil
	}
	for _, mt := range def.Content {
		if mt.Schema == nil {
			mt.Schema = cloneSchema(schema)
		}
	}
	return nil
}

func mergeParentResponses(b *operationBuilder) error {
	if b.trav.subresource {
		b.op.Responses = mergeResponses(b.op.Responses, cloneResponses(b.trav.parentResponses))
	}
	return nil
}

// mergeDefaultResponse guarantees at least one response: a default keyed by
// the produced media types with no schema.
func mergeDefaultResponse(b *operationBuilder) error {
	if len(b.op.Responses) > 0 {
		return nil
	}
	content := make(map[string]*openapi.MediaType)
	for _, mt := range b.produces() {
		content[mt] = &openapi.MediaType{}
	}
	b.op.Responses = map[string]*openapi.Response{
		"default": {Description: b.reader.defaultDescription, Content: content},
	}
	return nil
}

func mergeDeprecation(b *operationBuilder) error {
	if b.scope.deprecated || b.method.Deprecated {
		b.op.Deprecated = true
	}
	return nil
}

// mergeRequestBody merges incoming into existing without overwriting
// anything existing declares. When existing is nil a copy of incoming is
// adopted. existing must be owned by the caller; incoming is not modified.
func mergeRequestBody(existing, incoming *openapi.RequestBody) *openapi.RequestBody {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return cloneRequestBody(incoming)
	}
	if existing.Ref != "" {
		return existing
	}

	if len(incoming.Content) > 0 && existing.Content == nil {
		existing.Content = make(map[string]*openapi.MediaType, len(incoming.Content))
	}
	for _, mt := range sortedKeys(incoming.Content) {
		media := incoming.Content[mt]
		current, ok := existing.Content[mt]
		if !ok || current == nil {
			existing.Content[mt] = cloneContent(map[string]*openapi.MediaType{mt: media})[mt]
			continue
		}
		if media == nil || media.Schema == nil {
			continue
		}
		if current.Schema == nil {
			current.Schema = cloneSchema(media.Schema)
			continue
		}
		backfillType(current.Schema, media.Schema)
	}

	if existing.Description == "" {
		existing.Description = incoming.Description
	}
	if incoming.Required {
		existing.Required = true
	}
	return existing
}

// backfillType copies the schema type from source when target has neither
// a type nor a reference.
func backfillType(target, source *openapi.Schema) {
	if target.Ref != "" || !target.Type.IsEmpty() || source.Type.IsEmpty() {
		return
	}
	target.Type = openapi.TypeArray(slices.Clone(source.Type.Values())...)
}

// mergeResponses adds the responses of incoming to existing. A status code
// already present keeps its schemas and gains missing media types only.
func mergeResponses(existing, incoming map[string]*openapi.Response) map[string]*openapi.Response {
	if len(incoming) == 0 {
		return existing
	}
	if existing == nil {
		existing = make(map[string]*openapi.Response, len(incoming))
	}
	for _, code := range sortedKeys(incoming) {
		resp := incoming[code]
		if current, ok := existing[code]; ok && current != nil {
			mergeResponse(current, resp)
			continue
		}
		existing[code] = resp
	}
	return existing
}

func mergeResponse(existing, incoming *openapi.Response) {
	if incoming == nil || existing.Ref != "" {
		return
	}
	if existing.Description == "" {
		existing.Description = incoming.Description
	}

	if len(incoming.Content) > 0 && existing.Content == nil {
		existing.Content = make(map[string]*openapi.MediaType, len(incoming.Content))
	}
	for mt, media := range incoming.Content {
		current, ok := existing.Content[mt]
		if !ok || current == nil {
			existing.Content[mt] = media
			continue
		}
		if current.Schema == nil && media != nil && media.Schema != nil {
			current.Schema = media.Schema
		}
	}

	if len(incoming.Headers) > 0 {
		if existing.Headers == nil {
			existing.Headers = make(map[string]*openapi.Header, len(incoming.Headers))
		}
		for name, h := range incoming.Headers {
			if _, ok := existing.Headers[name]; !ok {
				existing.Headers[name] = h
			}
		}
	}
}
