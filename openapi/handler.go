package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// specQuery holds the query options accepted by the document endpoints.
type specQuery struct {
	Pretty *bool `schema:"pretty"`
}

// HandleConfig configures the endpoints registered by Handle.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: document info.title).
	Title string

	// JSONFilename is the path for the JSON endpoint (default:
	// "schema.json"). Set to "-" to disable. Relative paths are joined with
	// the base path, absolute paths are used as-is.
	JSONFilename string

	// YAMLFilename is the path for the YAML endpoint (default:
	// "schema.yaml"). Set to "-" to disable.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs UI endpoint.
	DisableDocs bool

	// SwaggerUIConfig provides additional SwaggerUIBundle options rendered
	// next to the url and dom_id defaults.
	SwaggerUIConfig map[string]any
}

func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "schema.json"
	}
	return cfg.JSONFilename
}

func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "schema.yaml"
	}
	return cfg.YAMLFilename
}

// resolvePath returns the full route path for a filename.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	if basePath == "" {
		return "/" + filename
	}
	return basePath + "/" + filename
}

// Handle registers the document endpoints under basePath:
//
//	<basePath>/            - interactive HTML docs (unless DisableDocs)
//	<JSONFilename path>    - document as JSON (unless JSONFilename is "-")
//	<YAMLFilename path>    - document as YAML (unless YAMLFilename is "-")
//
// The document is encoded once on first request and cached, so it must not
// be mutated after Handle is called. The JSON endpoint accepts
// ?pretty=false for compact output.
func Handle(r *http.ServeMux, basePath string, doc *Document, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	basePath = strings.TrimRight(basePath, "/")

	var jsonPath, yamlPath string

	if name := cfg.jsonFilename(); name != "-" {
		jsonPath = resolvePath(basePath, name)
		registerJSON(r, jsonPath, doc)
	}

	if name := cfg.yamlFilename(); name != "-" {
		yamlPath = resolvePath(basePath, name)
		registerYAML(r, yamlPath, doc)
	}

	if cfg.DisableDocs {
		return
	}

	specURL := jsonPath
	if specURL == "" {
		specURL = yamlPath
	}
	if specURL != "" {
		registerDocs(r, basePath, doc, cfg, specURL)
	}
}

// cachedEncoding runs encode at most once and recovers from panics raised
// by custom marshalers.
func cachedEncoding(encode func() ([]byte, error)) func() ([]byte, error) {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func() ([]byte, error) {
		once.Do(func() {
			defer func() {
				if rv := recover(); rv != nil {
					err = fmt.Errorf("%v", rv)
				}
			}()
			data, err = encode()
		})
		return data, err
	}
}

func registerJSON(r *http.ServeMux, path string, doc *Document) {
	encoded := cachedEncoding(func() ([]byte, error) { return MarshalJSON(doc) })

	r.HandleFunc("GET "+path, func(w http.ResponseWriter, req *http.Request) {
		var q specQuery
		if err := queryDecoder.Decode(&q, req.URL.Query()); err != nil {
			http.Error(w, "invalid query: "+err.Error(), http.StatusBadRequest)
			return
		}

		data, err := encoded()
		if err != nil {
			http.Error(w, "failed to serialize OpenAPI document as JSON", http.StatusInternalServerError)
			return
		}

		if q.Pretty != nil && !*q.Pretty {
			var buf bytes.Buffer
			if err := json.Compact(&buf, data); err != nil {
				http.Error(w, "failed to serialize OpenAPI document as JSON", http.StatusInternalServerError)
				return
			}
			data = buf.Bytes()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func registerYAML(r *http.ServeMux, path string, doc *Document) {
	encoded := cachedEncoding(func() ([]byte, error) { return MarshalYAML(doc) })

	r.HandleFunc("GET "+path, func(w http.ResponseWriter, _ *http.Request) {
		data, err := encoded()
		if err != nil {
			http.Error(w, "failed to serialize OpenAPI document as YAML", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func registerDocs(r *http.ServeMux, basePath string, doc *Document, cfg *HandleConfig, specURL string) {
	title := cfg.Title
	if title == "" {
		title = doc.Info.Title
	}

	var page string
	switch cfg.UI {
	case DocsRapiDoc:
		page = rapidocTemplate(title, specURL)
	case DocsRedoc:
		page = redocTemplate(title, specURL)
	default:
		page = swaggerUITemplate(title, specURL, cfg.SwaggerUIConfig)
	}
	data := []byte(page)

	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}

	if basePath == "" {
		r.HandleFunc("GET /{$}", handler)
		return
	}
	r.HandleFunc("GET "+basePath, handler)
	r.HandleFunc("GET "+basePath+"/{$}", handler)
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by RequestID, or an
// empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID wraps next so every request carries an X-Request-ID header on
// both the request and the response. An incoming ID is reused.
func RequestID(next http.Handler) http.Handler {
	const header = "X-Request-ID"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(header)
		if id == "" {
			id = uuid.New().String()
		}

		r.Header.Set(header, id)
		w.Header().Set(header, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func swaggerUITemplate(title, specPath string, config map[string]any) string {
	var extra string
	if len(config) > 0 {
		keys := make([]string, 0, len(config))
		for k := range config {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf strings.Builder
		for _, k := range keys {
			v, err := json.Marshal(config[k])
			if err != nil {
				continue
			}
			fmt.Fprintf(&buf, ", %s: %s", k, v)
		}
		extra = buf.String()
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"%s});
</script>
</body>
</html>`, html.EscapeString(title), specPath, extra)
}

func rapidocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), specPath)
}

func redocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specPath)
}
