package openapi

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaTestAddress struct {
	Street string `json:"street"`
	City   string `json:"city,omitempty"`
}

type schemaTestUser struct {
	ID       string             `json:"id" openapi:"format=uuid"`
	Name     string             `json:"name" openapi:"minLength=1,maxLength=64"`
	Email    string             `json:"email" view:"admin"`
	Age      int                `json:"age,omitempty" openapi:"minimum=0,maximum=150"`
	Address  *schemaTestAddress `json:"address,omitempty"`
	Created  time.Time          `json:"created"`
	internal string
}

type schemaTestNode struct {
	Value    string            `json:"value"`
	Children []*schemaTestNode `json:"children,omitempty"`
}

type schemaTestExample struct {
	Name string `json:"name"`
}

func (schemaTestExample) OpenAPIExample() any {
	return schemaTestExample{Name: "Alice"}
}

type schemaTestPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func TestGeneratePrimitives(t *testing.T) {
	g := NewSchemaGenerator()

	tests := []struct {
		name   string
		value  any
		typ    string
		format string
	}{
		{"bool", true, "boolean", ""},
		{"int", 0, "integer", "int32"},
		{"int64", int64(0), "integer", "int64"},
		{"uint", uint(0), "integer", ""},
		{"float32", float32(0), "number", "float"},
		{"float64", 0.0, "number", "double"},
		{"string", "", "string", ""},
		{"bytes", []byte{}, "string", "byte"},
		{"time", time.Time{}, "string", "date-time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := g.Generate(tt.value)
			require.NotNil(t, s)
			assert.Equal(t, TypeString(tt.typ), s.Type)
			assert.Equal(t, tt.format, s.Format)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, g.Generate(nil))
	})
}

func TestGenerateContainers(t *testing.T) {
	g := NewSchemaGenerator()

	t.Run("slice", func(t *testing.T) {
		s := g.Generate([]string{})
		assert.Equal(t, TypeString("array"), s.Type)
		assert.Equal(t, TypeString("string"), s.Items.Type)
	})

	t.Run("array", func(t *testing.T) {
		s := g.Generate([3]int{})
		assert.Equal(t, TypeString("array"), s.Type)
		assert.Equal(t, TypeString("integer"), s.Items.Type)
	})

	t.Run("string map", func(t *testing.T) {
		s := g.Generate(map[string]int{})
		assert.Equal(t, TypeString("object"), s.Type)
		assert.Equal(t, TypeString("integer"), s.AdditionalProperties.Type)
	})

	t.Run("non-string key map", func(t *testing.T) {
		s := g.Generate(map[int]string{})
		assert.Equal(t, TypeString("object"), s.Type)
		assert.Nil(t, s.AdditionalProperties)
	})

	t.Run("interface", func(t *testing.T) {
		var v []any
		s := g.Generate(v)
		assert.Equal(t, &Schema{}, s.Items)
	})
}

func TestGenerateStruct(t *testing.T) {
	g := NewSchemaGenerator()

	s := g.Generate(schemaTestUser{})
	assert.Equal(t, "#/components/schemas/schemaTestUser", s.Ref)

	user := g.Schemas()["schemaTestUser"]
	require.NotNil(t, user)
	assert.Equal(t, TypeString("object"), user.Type)
	assert.Equal(t, []string{"id", "name", "email", "created"}, user.Required)
	assert.NotContains(t, user.Properties, "internal")

	t.Run("openapi tag", func(t *testing.T) {
		assert.Equal(t, "uuid", user.Properties["id"].Format)
		assert.Equal(t, 1, *user.Properties["name"].MinLength)
		assert.Equal(t, 64, *user.Properties["name"].MaxLength)
		assert.InDelta(t, 150, *user.Properties["age"].Maximum, 0)
	})

	t.Run("nullable struct pointer", func(t *testing.T) {
		addr := user.Properties["address"]
		require.Len(t, addr.AnyOf, 2)
		assert.Equal(t, "#/components/schemas/schemaTestAddress", addr.AnyOf[0].Ref)
		assert.Equal(t, TypeString("null"), addr.AnyOf[1].Type)
	})
}

func TestGenerateNullablePrimitive(t *testing.T) {
	type withPtr struct {
		Count *int `json:"count"`
	}

	g := NewSchemaGenerator()
	g.Generate(withPtr{})

	count := g.Schemas()["withPtr"].Properties["count"]
	assert.Equal(t, TypeArray("integer", "null"), count.Type)
}

func TestGenerateEmbedded(t *testing.T) {
	type Base struct {
		ID string `json:"id"`
	}
	type Extra struct {
		Note string `json:"note"`
	}
	type Composite struct {
		Base
		*Extra
		Name string `json:"name"`
	}

	g := NewSchemaGenerator()
	g.Generate(Composite{})

	s := g.Schemas()["Composite"]
	assert.Contains(t, s.Properties, "id")
	assert.Contains(t, s.Properties, "note")
	assert.Equal(t, []string{"id", "name"}, s.Required)
}

func TestGenerateExampler(t *testing.T) {
	g := NewSchemaGenerator()
	g.Generate(schemaTestExample{})

	assert.Equal(t, schemaTestExample{Name: "Alice"}, g.Schemas()["schemaTestExample"].Example)
}

func TestGenerateStringEncoding(t *testing.T) {
	type Counter struct {
		Hits  int64  `json:"hits,string"`
		Limit *int64 `json:"limit,string"`
	}

	g := NewSchemaGenerator()
	g.Generate(Counter{})

	s := g.Schemas()["Counter"]
	assert.Equal(t, TypeString("string"), s.Properties["hits"].Type)
	assert.Empty(t, s.Properties["hits"].Format)
	assert.Equal(t, TypeArray("string", "null"), s.Properties["limit"].Type)
}

func TestResolve(t *testing.T) {
	t.Run("returns referenced closure", func(t *testing.T) {
		g := NewSchemaGenerator()

		s, refs := g.Resolve(reflect.TypeFor[[]schemaTestUser](), "")
		assert.Equal(t, "#/components/schemas/schemaTestUser", s.Items.Ref)
		assert.Len(t, refs, 2)
		assert.Contains(t, refs, "schemaTestUser")
		assert.Contains(t, refs, "schemaTestAddress")
	})

	t.Run("repeat call gives same closure", func(t *testing.T) {
		g := NewSchemaGenerator()

		s1, refs1 := g.Resolve(reflect.TypeFor[schemaTestUser](), "")
		s2, refs2 := g.Resolve(reflect.TypeFor[schemaTestUser](), "")
		assert.Equal(t, s1, s2)
		assert.Equal(t, refs1, refs2)
	})

	t.Run("self reference terminates", func(t *testing.T) {
		g := NewSchemaGenerator()

		s, refs := g.Resolve(reflect.TypeFor[schemaTestNode](), "")
		assert.Equal(t, "#/components/schemas/schemaTestNode", s.Ref)
		require.Len(t, refs, 1)

		children := refs["schemaTestNode"].Properties["children"]
		assert.Equal(t, "#/components/schemas/schemaTestNode", children.Items.AnyOf[0].Ref)
	})

	t.Run("primitive has no refs", func(t *testing.T) {
		g := NewSchemaGenerator()

		s, refs := g.Resolve(reflect.TypeFor[string](), "")
		assert.Equal(t, TypeString("string"), s.Type)
		assert.Nil(t, refs)
	})

	t.Run("nil type", func(t *testing.T) {
		g := NewSchemaGenerator()

		s, refs := g.Resolve(nil, "")
		assert.Nil(t, s)
		assert.Nil(t, refs)
	})
}

func TestResolveView(t *testing.T) {
	g := NewSchemaGenerator()

	full, _ := g.Resolve(reflect.TypeFor[schemaTestUser](), "")
	public, refs := g.Resolve(reflect.TypeFor[schemaTestUser](), "public")
	admin, _ := g.Resolve(reflect.TypeFor[schemaTestUser](), "admin")

	assert.Equal(t, "#/components/schemas/schemaTestUser", full.Ref)
	assert.Equal(t, "#/components/schemas/schemaTestUserPublic", public.Ref)
	assert.Equal(t, "#/components/schemas/schemaTestUserAdmin", admin.Ref)

	assert.NotContains(t, refs["schemaTestUserPublic"].Properties, "email")
	assert.Contains(t, refs, "schemaTestAddressPublic")
	assert.Contains(t, g.Schemas()["schemaTestUserAdmin"].Properties, "email")
	assert.Contains(t, g.Schemas()["schemaTestUser"].Properties, "email")
}

func TestInView(t *testing.T) {
	assert.True(t, inView("", "public"))
	assert.True(t, inView("admin", ""))
	assert.True(t, inView("admin, public", "public"))
	assert.False(t, inView("admin", "public"))
}

func TestViewSuffix(t *testing.T) {
	assert.Equal(t, "", viewSuffix(""))
	assert.Equal(t, "Public", viewSuffix("public"))
	assert.Equal(t, "PublicApi", viewSuffix("public-api"))
	assert.Equal(t, "InternalSummary", viewSuffix("internal_summary"))
}

func TestSanitizeSchemaName(t *testing.T) {
	assert.Equal(t, "User", sanitizeSchemaName("User"))
	assert.Equal(t, "PageUser", sanitizeSchemaName("Page[example.com/app.User]"))
	assert.Equal(t, "PageUserList", sanitizeSchemaName("Page[[]example.com/app.User]"))
}

func TestPkgPrefix(t *testing.T) {
	assert.Equal(t, "Http", pkgPrefix("net/http"))
	assert.Equal(t, "Api_v2", pkgPrefix("example.com/api-v2"))
	assert.Equal(t, "", pkgPrefix(""))
}

func TestGenerateGeneric(t *testing.T) {
	g := NewSchemaGenerator()

	s := g.Generate(schemaTestPage[schemaTestAddress]{})
	assert.Equal(t, "#/components/schemas/schemaTestPageschemaTestAddress", s.Ref)

	page := g.Schemas()["schemaTestPageschemaTestAddress"]
	assert.Equal(t, "#/components/schemas/schemaTestAddress", page.Properties["items"].Items.Ref)
}

func TestSchemaNameCollision(t *testing.T) {
	g := NewSchemaGenerator()

	first := typeKey{t: reflect.TypeFor[schemaTestAddress]()}
	assert.Equal(t, "schemaTestAddress", g.schemaName(first))

	// Pretend another package already claimed the plain name.
	g2 := NewSchemaGenerator()
	other := typeKey{t: reflect.TypeFor[schemaTestNode]()}
	g2.nameTypes["schemaTestAddress"] = other
	assert.Equal(t, "OpenapischemaTestAddress", g2.schemaName(first))

	g3 := NewSchemaGenerator()
	g3.nameTypes["schemaTestAddress"] = other
	g3.nameTypes["OpenapischemaTestAddress"] = other
	assert.Equal(t, "OpenapischemaTestAddress2", g3.schemaName(first))
}

func TestSchemaJSON(t *testing.T) {
	g := NewSchemaGenerator()
	g.Generate(schemaTestUser{})

	data, err := json.Marshal(g.Schemas()["schemaTestUser"])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "object", raw["type"])
	assert.NotContains(t, raw, "const")
}
