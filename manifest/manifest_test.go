package manifest

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/restdoc/openapi"
	"github.com/vitalvas/restdoc/resource"
)

const petstore = `
info:
  title: Pet Store
  version: 1.0.0
servers:
  - url: https://api.example.com
globalParameters:
  - name: X-Request-ID
    in: header
    schema:
      type: string
schemas:
  Pet:
    type: object
    required: [name]
    properties:
      id:
        type: integer
        format: int64
      name:
        type: string
      owner:
        $ref: "#/components/schemas/Owner"
  Owner:
    type: object
    properties:
      name:
        type: string
resources:
  - name: Pets
    path: /pets
    produces: [application/json]
    tags:
      - name: pets
        description: Pet operations
    methods:
      - name: list
        verb: GET
        params:
          - name: limit
            in: query
            type: int
        returns: List[Pet]
      - name: get
        path: "{id:int}"
        verb: GET
        params:
          - name: id
            in: path
            type: long
        returns: Pet
        responses:
          - code: "404"
            description: pet not found
      - name: owner
        path: "{id}/owner"
        returns: Locator[Owners]
  - name: Owners
    path: /owners
    root: false
    tags: [owners]
    methods:
      - name: show
        verb: GET
        returns: Owner
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(petstore))
	require.NoError(t, err)

	assert.Equal(t, "Pet Store", m.Info.Title)
	require.Len(t, m.Servers, 1)
	require.Len(t, m.GlobalParameters, 1)
	assert.Equal(t, "header", m.GlobalParameters[0].In)
	assert.Equal(t, openapi.TypeString("string"), m.GlobalParameters[0].Schema.Type)
	assert.Contains(t, m.Schemas, "Pet")

	require.Len(t, m.Resources, 2)
	pets := m.Resources[0]
	assert.Equal(t, "Pets", pets.Name)
	assert.Equal(t, "pets", pets.Tags[0].Name)
	require.Len(t, pets.Methods, 3)
	assert.Equal(t, "List[Pet]", pets.Methods[0].Returns.String())
	assert.Equal(t, resource.Locate("Owners"), pets.Methods[2].Returns)
	assert.Equal(t, "owners", m.Resources[1].Tags[0].Name)

	t.Run("roots", func(t *testing.T) {
		roots := m.Roots()
		require.Len(t, roots, 1)
		assert.Equal(t, "Pets", roots[0].Name)
		assert.Len(t, m.Classes(), 2)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "", "empty document"},
		{"missing info", "resources:\n  - name: A\n", "Title: required"},
		{"missing resources", "info: {title: T, version: '1'}\n", "Resources: required"},
		{"missing class name", "info: {title: T, version: '1'}\nresources:\n  - path: /a\n", "Name: required"},
		{"bad binding", "info: {title: T, version: '1'}\nresources:\n  - name: A\n    methods:\n      - name: m\n        params:\n          - name: p\n            in: matrix\n", "must be one of"},
		{"duplicate class", "info: {title: T, version: '1'}\nresources:\n  - name: A\n  - name: A\n", "duplicate resource"},
		{"null resource", "info: {title: T, version: '1'}\nresources:\n  - ~\n", "Resources[0]: required"},
		{"null parameter", "info: {title: T, version: '1'}\nresources:\n  - name: A\n    path: /a\n    methods:\n      - name: get\n        verb: GET\n        params:\n          - ~\n", "Params[0]: required"},
		{"null method", "info: {title: T, version: '1'}\nresources:\n  - name: A\n    methods:\n      - ~\n", "Methods[0]: required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte("info: {title: T, version: '1'}\nresorces: []\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resorces")
	})

	t.Run("malformed type", func(t *testing.T) {
		_, err := Parse([]byte("info: {title: T, version: '1'}\nresources:\n  - name: A\n    methods:\n      - name: m\n        returns: List[Pet\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unclosed")
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Pet Store", m.Info.Title)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)

		var me *Error
		require.True(t, errors.As(err, &me))
		assert.Contains(t, me.Path, "missing.yaml")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestBuild(t *testing.T) {
	m, err := Parse([]byte(petstore))
	require.NoError(t, err)

	var logs bytes.Buffer
	doc, err := m.Build(resource.WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, err)

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Pet Store", doc.Info.Title)
	require.Len(t, doc.Servers, 1)

	require.Len(t, doc.Paths, 3)
	assert.Contains(t, doc.Paths, "/pets")
	assert.Contains(t, doc.Paths, "/pets/{id}")
	assert.Contains(t, doc.Paths, "/pets/{id}/owner")
	assert.NotContains(t, doc.Paths, "/owners")

	list := doc.Paths["/pets"].Get
	require.Len(t, list.Parameters, 2)
	assert.Equal(t, "X-Request-ID", list.Parameters[0].Name)
	assert.Equal(t, "limit", list.Parameters[1].Name)

	get := doc.Paths["/pets/{id}"].Get
	assert.Len(t, get.Responses, 1)
	assert.Equal(t, "pet not found", get.Responses["404"].Description)

	owner := doc.Paths["/pets/{id}/owner"].Get
	require.NotNil(t, owner)
	assert.Equal(t, []string{"owners", "pets"}, owner.Tags)
	assert.Equal(t, "#/components/schemas/Owner", owner.Responses["default"].Content["application/json"].Schema.Ref)

	require.NotNil(t, doc.Components)
	assert.Contains(t, doc.Components.Schemas, "Pet")
	assert.Contains(t, doc.Components.Schemas, "Owner")

	assert.Contains(t, logs.String(), "reading subresource")

	t.Run("encodes", func(t *testing.T) {
		data, err := openapi.MarshalYAML(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), "/pets/{id}/owner")
	})
}

func TestBuildWithoutRoots(t *testing.T) {
	m, err := Parse([]byte("info: {title: T, version: '1'}\nresources:\n  - name: A\n    methods:\n      - name: m\n        verb: GET\n"))
	require.NoError(t, err)

	doc, err := m.Build()
	require.NoError(t, err)
	assert.Empty(t, doc.Paths)
	assert.Equal(t, "T", doc.Info.Title)
}
