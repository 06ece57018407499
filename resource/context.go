package resource

import (
	"github.com/vitalvas/restdoc/openapi"
)

// traversal is the state handed down while reading a class. Each
// subresource recursion gets a derived copy; the visited set is shared and
// holds the subresource classes of the active recursion chain only.
type traversal struct {
	parentPath  string
	parentVerb  string
	subresource bool

	parentRequestBody *openapi.RequestBody
	parentResponses   map[string]*openapi.Response
	parentTags        []string
	parentParameters  []*openapi.Parameter
	parentProduces    []string
	parentConsumes    []string

	visited map[string]struct{}
}

func newTraversal() *traversal {
	return &traversal{visited: make(map[string]struct{})}
}

// derive returns the traversal for a subresource reached at path through
// the locator operation op. produces and consumes are the media types the
// locator declared, used by subresource methods and classes that declare
// none.
func (t *traversal) derive(path, verb string, op *openapi.Operation, produces, consumes []string) *traversal {
	return &traversal{
		parentPath:        path,
		parentVerb:        verb,
		subresource:       true,
		parentRequestBody: cloneRequestBody(op.RequestBody),
		parentResponses:   cloneResponses(op.Responses),
		parentTags:        append([]string(nil), op.Tags...),
		parentParameters:  cloneParameters(op.Parameters),
		parentProduces:    produces,
		parentConsumes:    consumes,
		visited:           t.visited,
	}
}

// scope is the class-level metadata applied to every method of a class,
// with empty fields inherited along the Extends chain.
type scope struct {
	class        *Class
	path         string
	produces     []string
	consumes     []string
	tags         []openapi.Tag
	servers      []openapi.Server
	externalDocs *openapi.ExternalDocs
	responses    []*Response
	security     []openapi.SecurityRequirement
	deprecated   bool
}

func newScope(cls *Class) *scope {
	return &scope{
		class:        cls,
		path:         cls.Path,
		produces:     cls.Produces,
		consumes:     cls.Consumes,
		tags:         cls.Tags,
		servers:      cls.Servers,
		externalDocs: cls.ExternalDocs,
		responses:    cls.Responses,
		security:     cls.Security,
		deprecated:   cls.Deprecated,
	}
}

// inherit fills the fields still empty from an ancestor class.
func (s *scope) inherit(parent *Class) {
	if s.path == "" {
		s.path = parent.Path
	}
	if len(s.produces) == 0 {
		s.produces = parent.Produces
	}
	if len(s.consumes) == 0 {
		s.consumes = parent.Consumes
	}
	if len(s.tags) == 0 {
		s.tags = parent.Tags
	}
	if len(s.servers) == 0 {
		s.servers = parent.Servers
	}
	if s.externalDocs == nil {
		s.externalDocs = parent.ExternalDocs
	}
	if len(s.responses) == 0 {
		s.responses = parent.Responses
	}
	if len(s.security) == 0 {
		s.security = parent.Security
	}
}
