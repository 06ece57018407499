package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupTestMux(basePath string, cfg *HandleConfig) *http.ServeMux {
	r := http.NewServeMux()
	Handle(r, basePath, testDocument(), cfg)
	return r
}

func serveRequest(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHandle(t *testing.T) {
	t.Run("JSON document", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodGet, "/swagger/schema.json")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var doc Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "Test API", doc.Info.Title)
		assert.Contains(t, doc.Paths, "/items/{id}")
		assert.Contains(t, w.Body.String(), "\n  ")
	})

	t.Run("compact JSON", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodGet, "/swagger/schema.json?pretty=false")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "\n")
		assert.True(t, json.Valid(w.Body.Bytes()))
	})

	t.Run("invalid pretty value", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodGet, "/swagger/schema.json?pretty=maybe")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown query keys ignored", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodGet, "/swagger/schema.json?v=2")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("YAML document", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodGet, "/swagger/schema.yaml")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "3.1.0", doc["openapi"])
	})

	t.Run("docs UI with and without trailing slash", func(t *testing.T) {
		r := setupTestMux("/swagger/", nil)

		for _, path := range []string{"/swagger", "/swagger/"} {
			w := serveRequest(r, http.MethodGet, path)
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "swagger-ui")
			assert.Contains(t, w.Body.String(), "/swagger/schema.json")
			assert.Contains(t, w.Body.String(), "<title>Test API</title>")
		}
	})

	t.Run("root base path", func(t *testing.T) {
		r := setupTestMux("", nil)

		assert.Equal(t, http.StatusOK, serveRequest(r, http.MethodGet, "/").Code)
		assert.Equal(t, http.StatusOK, serveRequest(r, http.MethodGet, "/schema.json").Code)
		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/other").Code)
	})

	t.Run("absolute filename", func(t *testing.T) {
		r := setupTestMux("/docs", &HandleConfig{JSONFilename: "/api/v1/openapi.json", YAMLFilename: "-"})

		assert.Equal(t, http.StatusOK, serveRequest(r, http.MethodGet, "/api/v1/openapi.json").Code)
		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/docs/schema.yaml").Code)
		assert.Contains(t, serveRequest(r, http.MethodGet, "/docs/").Body.String(), "/api/v1/openapi.json")
	})

	t.Run("docs fall back to YAML", func(t *testing.T) {
		r := setupTestMux("/swagger", &HandleConfig{JSONFilename: "-"})

		body := serveRequest(r, http.MethodGet, "/swagger/").Body.String()
		assert.Contains(t, body, "/swagger/schema.yaml")
		assert.NotContains(t, body, "schema.json")
	})

	t.Run("no docs without any document endpoint", func(t *testing.T) {
		r := setupTestMux("/swagger", &HandleConfig{JSONFilename: "-", YAMLFilename: "-"})

		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/swagger/").Code)
	})

	t.Run("disable docs", func(t *testing.T) {
		r := setupTestMux("/swagger", &HandleConfig{DisableDocs: true})

		assert.Equal(t, http.StatusNotFound, serveRequest(r, http.MethodGet, "/swagger/").Code)
		assert.Equal(t, http.StatusOK, serveRequest(r, http.MethodGet, "/swagger/schema.json").Code)
	})

	t.Run("only GET", func(t *testing.T) {
		r := setupTestMux("/swagger", nil)

		w := serveRequest(r, http.MethodPost, "/swagger/schema.json")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleDocsUI(t *testing.T) {
	t.Run("rapidoc", func(t *testing.T) {
		r := setupTestMux("/docs", &HandleConfig{UI: DocsRapiDoc})

		body := serveRequest(r, http.MethodGet, "/docs/").Body.String()
		assert.Contains(t, body, "<rapi-doc")
	})

	t.Run("redoc", func(t *testing.T) {
		r := setupTestMux("/docs", &HandleConfig{UI: DocsRedoc})

		body := serveRequest(r, http.MethodGet, "/docs/").Body.String()
		assert.Contains(t, body, "<redoc")
	})

	t.Run("custom title is escaped", func(t *testing.T) {
		r := setupTestMux("/docs", &HandleConfig{Title: "<My API>"})

		body := serveRequest(r, http.MethodGet, "/docs/").Body.String()
		assert.Contains(t, body, "&lt;My API&gt;")
	})

	t.Run("swagger UI config in key order", func(t *testing.T) {
		r := setupTestMux("/docs", &HandleConfig{SwaggerUIConfig: map[string]any{
			"docExpansion":   "none",
			"deepLinking":    true,
			"invalid-option": func() {},
		}})

		body := serveRequest(r, http.MethodGet, "/docs/").Body.String()
		assert.Contains(t, body, `dom_id: "#swagger-ui", deepLinking: true, docExpansion: "none"});`)
		assert.NotContains(t, body, "invalid-option")
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("generates id", func(t *testing.T) {
		w := serveRequest(h, http.MethodGet, "/")

		id := w.Header().Get("X-Request-ID")
		assert.Len(t, id, 36)
		assert.Equal(t, id, seen)
		assert.Equal(t, 4, strings.Count(id, "-"))
	})

	t.Run("reuses incoming id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		h.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "abc-123", seen)
	})

	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
	})
}
