package resource

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocatorType is the container name marking a subresource locator return
// type: Locator[OrderResource] hands traversal over to OrderResource.
const LocatorType = "Locator"

// TypeRef describes a parameter or return type. Name is the type name as the
// resolver and the class registry know it; Args holds generic type
// arguments. Go, when set, is the reflected type and takes precedence for
// schema generation.
type TypeRef struct {
	Name string
	Args []TypeRef
	Go   reflect.Type
}

// TypeOf returns a TypeRef for the Go type T.
func TypeOf[T any]() TypeRef {
	t := reflect.TypeFor[T]()
	return TypeRef{Name: t.String(), Go: t}
}

// Named returns a TypeRef for a named type with optional type arguments.
func Named(name string, args ...TypeRef) TypeRef {
	return TypeRef{Name: name, Args: args}
}

// Locate returns a locator return type for the subresource class named class.
func Locate(class string) TypeRef {
	return Named(LocatorType, Named(class))
}

// IsZero reports whether the type is unset.
func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Go == nil
}

func (t TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "[" + strings.Join(args, ", ") + "]"
}

// rawName is the type name with pointer and slice markers stripped, used
// for ignore-list checks and class lookups.
func (t TypeRef) rawName() string {
	return strings.TrimLeft(strings.TrimSpace(t.Name), "*[]")
}

// ParseTypeRef parses the "Name[Arg, Arg[Inner]]" notation.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, nil
	}

	ref, rest, err := parseTypeRef(s)
	if err != nil {
		return TypeRef{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return TypeRef{}, fmt.Errorf("type %q: unexpected %q", s, rest)
	}
	return ref, nil
}

func parseTypeRef(s string) (TypeRef, string, error) {
	s = strings.TrimLeft(s, " ")
	end := strings.IndexAny(s, "[],")
	if end < 0 {
		return TypeRef{Name: strings.TrimSpace(s)}, "", nil
	}

	ref := TypeRef{Name: strings.TrimSpace(s[:end])}
	if ref.Name == "" {
		return TypeRef{}, "", fmt.Errorf("type %q: missing name", s)
	}
	if s[end] != '[' {
		return ref, s[end:], nil
	}

	rest := s[end+1:]
	for {
		arg, tail, err := parseTypeRef(rest)
		if err != nil {
			return TypeRef{}, "", err
		}
		ref.Args = append(ref.Args, arg)

		tail = strings.TrimLeft(tail, " ")
		if tail == "" {
			return TypeRef{}, "", fmt.Errorf("type %q: unclosed '['", s)
		}
		switch tail[0] {
		case ',':
			rest = tail[1:]
		case ']':
			return ref, tail[1:], nil
		default:
			return TypeRef{}, "", fmt.Errorf("type %q: unexpected %q", s, tail)
		}
	}
}

// UnmarshalYAML accepts "Page[User]" scalars or {name, args} mappings.
func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		ref, err := ParseTypeRef(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*t = ref
		return nil
	}

	var raw struct {
		Name string    `yaml:"name"`
		Args []TypeRef `yaml:"args"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*t = TypeRef{Name: raw.Name, Args: raw.Args}
	return nil
}
