package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/restdoc/openapi"
)

type stubExtension struct {
	verb string
	res  ResolvedParameter
	ok   bool
	err  error
	seen []string
}

func (s *stubExtension) MatchVerb(*Method) string { return s.verb }

func (s *stubExtension) ExtractParameters(in ParameterInput) (ResolvedParameter, bool, error) {
	s.seen = append(s.seen, in.Param.Name)
	return s.res, s.ok, s.err
}

func extractOne(t *testing.T, chain Chain, p *Param) ResolvedParameter {
	t.Helper()
	res, err := chain.ExtractParameters(ParameterInput{Param: p, Method: &Method{Name: "m"}, Resolver: NewTypeResolver()})
	require.NoError(t, err)
	return res
}

func TestChainMatchVerb(t *testing.T) {
	t.Run("first match wins", func(t *testing.T) {
		chain := Chain{&stubExtension{}, &stubExtension{verb: "POST"}, DefaultExtension{}}
		assert.Equal(t, "post", chain.MatchVerb(&Method{Verb: "get"}))
	})

	t.Run("default reads method verb", func(t *testing.T) {
		assert.Equal(t, "put", DefaultChain().MatchVerb(&Method{Verb: " PUT "}))
	})

	t.Run("no verb", func(t *testing.T) {
		assert.Empty(t, DefaultChain().MatchVerb(&Method{}))
	})
}

func TestChainExtractParameters(t *testing.T) {
	t.Run("first recognizing extension wins", func(t *testing.T) {
		skip := &stubExtension{}
		hit := &stubExtension{ok: true, res: ResolvedParameter{Parameters: []*openapi.Parameter{{Name: "x", In: InQuery}}}}
		after := &stubExtension{ok: true}

		res := extractOne(t, Chain{skip, hit, after}, &Param{Name: "x"})
		require.Len(t, res.Parameters, 1)
		assert.Equal(t, []string{"x"}, skip.seen)
		assert.Equal(t, []string{"x"}, hit.seen)
		assert.Empty(t, after.seen)
	})

	t.Run("nobody recognizes", func(t *testing.T) {
		res := extractOne(t, Chain{&stubExtension{}}, &Param{Name: "x"})
		assert.Zero(t, res.kinds())
	})

	t.Run("more than one kind", func(t *testing.T) {
		ext := &stubExtension{ok: true, res: ResolvedParameter{
			Parameters: []*openapi.Parameter{{Name: "x"}},
			Body:       &BodyDescriptor{},
		}}
		_, err := Chain{ext}.ExtractParameters(ParameterInput{Param: &Param{Name: "x"}})
		assert.ErrorIs(t, err, ErrAmbiguousParameter)
	})

	t.Run("extension error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Chain{&stubExtension{err: boom}}.ExtractParameters(ParameterInput{Param: &Param{Name: "x"}})
		assert.ErrorIs(t, err, boom)
	})
}

func TestDefaultExtension(t *testing.T) {
	chain := DefaultChain()

	t.Run("query parameter", func(t *testing.T) {
		res := extractOne(t, chain, &Param{Name: "limit", In: InQuery, Type: Named("int"), Description: "page size"})
		require.Len(t, res.Parameters, 1)
		p := res.Parameters[0]
		assert.Equal(t, "limit", p.Name)
		assert.Equal(t, InQuery, p.In)
		assert.Equal(t, "page size", p.Description)
		assert.False(t, p.Required)
		assert.Equal(t, openapi.TypeString("integer"), p.Schema.Type)
	})

	t.Run("path parameter is required", func(t *testing.T) {
		res := extractOne(t, chain, &Param{Name: "id", In: "PATH", Type: Named("string")})
		require.Len(t, res.Parameters, 1)
		assert.Equal(t, InPath, res.Parameters[0].In)
		assert.True(t, res.Parameters[0].Required)
	})

	t.Run("form field", func(t *testing.T) {
		res := extractOne(t, chain, &Param{Name: "a", In: InForm, Type: Named("string"), Required: true})
		assert.Empty(t, res.Parameters)
		require.Len(t, res.FormFields, 1)
		assert.True(t, res.FormFields[0].Required)
	})

	t.Run("unbound parameter is the body", func(t *testing.T) {
		rb := &RequestBodyInfo{Description: "payload"}
		res := extractOne(t, chain, &Param{Name: "in", Type: Named("string"), RequestBody: rb})
		require.NotNil(t, res.Body)
		assert.Same(t, rb, res.Body.Annotation)
		assert.Equal(t, openapi.TypeString("string"), res.Body.Schema.Type)
	})

	t.Run("explicit schema wins over type", func(t *testing.T) {
		schema := &openapi.Schema{Type: openapi.TypeString("string"), Format: "email"}
		res := extractOne(t, chain, &Param{Name: "email", In: InQuery, Type: Named("int"), Schema: schema})
		require.Len(t, res.Parameters, 1)
		assert.Equal(t, "email", res.Parameters[0].Schema.Format)
		assert.NotSame(t, schema, res.Parameters[0].Schema)
	})

	t.Run("context and hidden contribute nothing", func(t *testing.T) {
		assert.Zero(t, extractOne(t, chain, &Param{Name: "ctx", In: InContext}).kinds())
		assert.Zero(t, extractOne(t, chain, &Param{Name: "secret", In: InQuery, Hidden: true}).kinds())
	})

	t.Run("unknown binding is not recognized", func(t *testing.T) {
		_, ok, err := DefaultExtension{}.ExtractParameters(ParameterInput{Param: &Param{Name: "x", In: "matrix"}})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("referenced schemas are returned", func(t *testing.T) {
		r := NewTypeResolver()
		r.RegisterSchema("User", &openapi.Schema{Type: openapi.TypeString("object")})
		res, err := chain.ExtractParameters(ParameterInput{Param: &Param{Name: "user", Type: Named("User")}, Resolver: r})
		require.NoError(t, err)
		require.NotNil(t, res.Body)
		assert.Contains(t, res.Schemas, "User")
	})
}
