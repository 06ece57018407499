package resource

import (
	"strings"

	"github.com/vitalvas/restdoc/openapi"
)

// macroTypes maps path variable macros ({id:uuid}) to a schema type and
// format. Anything else after the colon is treated as a regex pattern.
var macroTypes = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", ""},
	"float":    {"number", ""},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
}

// combinePath joins parent, class and method path templates. The class path
// is not repeated for subresources, whose parent path already carries it.
// It returns "" when every component is empty.
func combinePath(classPath, methodPath, parentPath string, subresource bool) string {
	if classPath == "" && methodPath == "" && parentPath == "" {
		return ""
	}

	var b strings.Builder
	appendPathComponent(&b, parentPath)
	if !subresource {
		appendPathComponent(&b, classPath)
	}
	appendPathComponent(&b, methodPath)

	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func appendPathComponent(b *strings.Builder, component string) {
	if component == "" || component == "/" {
		return
	}
	current := b.String()
	if !strings.HasPrefix(component, "/") && (current == "" || !strings.HasSuffix(current, "/")) {
		b.WriteByte('/')
	}
	b.WriteString(strings.TrimSuffix(component, "/"))
}

// samePath reports whether path adds nothing to parentPath. Both sides are
// compared with a leading slash and without a trailing one. A path with no
// parent is never the same unless both are empty.
func samePath(path, parentPath string) bool {
	switch {
	case path == "" && parentPath == "":
		return true
	case path == "" || parentPath == "":
		return false
	}
	return normalizePath(path) == normalizePath(parentPath)
}

func normalizePath(p string) string {
	if p == "/" {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

// normalizeTemplate reduces "{name: regex}" variables to "{name}" and
// returns the stripped patterns keyed by variable name. Braces inside a
// regex ("{id: [0-9]{3}}") are balanced.
func normalizeTemplate(path string) (string, map[string]string) {
	var (
		b        strings.Builder
		patterns map[string]string
	)

	for i := 0; i < len(path); i++ {
		if path[i] != '{' {
			b.WriteByte(path[i])
			continue
		}

		depth := 1
		j := i + 1
		for ; j < len(path) && depth > 0; j++ {
			switch path[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			b.WriteString(path[i:])
			break
		}

		name, pattern, found := strings.Cut(path[i+1:j-1], ":")
		name = strings.TrimSpace(name)
		if pattern = strings.TrimSpace(pattern); found && pattern != "" {
			if patterns == nil {
				patterns = make(map[string]string)
			}
			patterns[name] = pattern
		}

		b.WriteString("{" + name + "}")
		i = j - 1
	}

	return b.String(), patterns
}

// templateVars returns the variable names of a normalized path template in
// order of appearance.
func templateVars(path string) []string {
	var vars []string
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return vars
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return vars
		}
		vars = append(vars, path[start+1:start+end])
		path = path[start+end+1:]
	}
}

// applyPathPatterns narrows path parameter schemas with the macro or regex
// stripped from the template. Parameters are replaced, not mutated.
func applyPathPatterns(params []*openapi.Parameter, patterns map[string]string) {
	if len(patterns) == 0 {
		return
	}
	for i, p := range params {
		if p.In != InPath {
			continue
		}
		pattern, ok := patterns[p.Name]
		if !ok {
			continue
		}

		c := cloneParameter(p)
		if c.Schema == nil {
			c.Schema = &openapi.Schema{Type: openapi.TypeString("string")}
		}
		if macro, ok := macroTypes[pattern]; ok {
			c.Schema.Type = openapi.TypeString(macro[0])
			if macro[1] != "" {
				c.Schema.Format = macro[1]
			}
		} else if c.Schema.Pattern == "" {
			c.Schema.Pattern = pattern
		}
		params[i] = c
	}
}
