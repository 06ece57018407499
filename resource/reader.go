package resource

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/vitalvas/restdoc/openapi"
)

// DefaultIgnoredNamespaces are type name prefixes never treated as response
// schemas or subresources.
var DefaultIgnoredNamespaces = []string{
	"context.",
	"http.",
	"net/http.",
	"github.com/vitalvas/restdoc/resource.",
}

// Reader walks resource classes and registers one operation per eligible
// method into its Assembler. A Reader is not safe for concurrent use; run
// one Reader per goroutine against a shared Assembler instead.
type Reader struct {
	logger *slog.Logger
	log    *slog.Logger

	resolver  SchemaResolver
	chain     Chain
	assembler *Assembler

	globalParams      []*openapi.Parameter
	skipTypes         map[string]struct{}
	ignoredNamespaces []string

	defaultMediaType   string
	defaultDescription string

	info    *openapi.Info
	servers []openapi.Server

	classes map[string]*Class
}

// NewReader creates a reader with the default extension chain, a fresh
// TypeResolver and a fresh Assembler unless options replace them.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		logger:             slog.New(slog.DiscardHandler),
		resolver:           NewTypeResolver(),
		chain:              DefaultChain(),
		skipTypes:          make(map[string]struct{}),
		ignoredNamespaces:  slices.Clone(DefaultIgnoredNamespaces),
		defaultMediaType:   "*/*",
		defaultDescription: "successful operation",
		classes:            make(map[string]*Class),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.assembler == nil {
		r.assembler = NewAssembler()
	}
	r.assembler.SetLogger(r.logger)
	if r.info != nil {
		r.assembler.SetInfo(*r.info)
	}
	r.assembler.AddServers(r.servers...)

	r.log = r.logger
	return r
}

// Assembler returns the assembler operations are registered into.
func (r *Reader) Assembler() *Assembler {
	return r.assembler
}

// Register makes classes known by name, for subresource lookups and
// Extends chains. A class registered twice under the same name replaces the
// earlier one.
func (r *Reader) Register(classes ...*Class) error {
	for _, cls := range classes {
		if cls == nil || strings.TrimSpace(cls.Name) == "" {
			return errors.New("resource class without a name")
		}
		if _, ok := r.classes[cls.Name]; ok {
			r.logger.Debug("replacing registered class", "class", cls.Name)
		}
		r.classes[cls.Name] = cls
	}
	return nil
}

// Read registers roots and reads each of them as a root resource. Without
// roots every registered class that declares a path is read, in name order.
// The returned document is a snapshot of the assembler after the read.
func (r *Reader) Read(roots ...*Class) (*openapi.Document, error) {
	if err := r.Register(roots...); err != nil {
		return nil, err
	}

	if len(roots) == 0 {
		for _, name := range sortedKeys(r.classes) {
			if cls := r.classes[name]; cls.Path != "" {
				roots = append(roots, cls)
			}
		}
	}

	r.log = r.logger.With("build_id", uuid.NewString())
	r.log.Debug("reading resources", "roots", len(roots))

	for _, cls := range roots {
		if err := r.readClass(cls, newTraversal()); err != nil {
			return nil, err
		}
	}

	return r.assembler.Document(), nil
}

func (r *Reader) readClass(cls *Class, t *traversal) error {
	if cls.Hidden {
		r.log.Debug("skipping hidden class", "class", cls.Name)
		return nil
	}

	s, methods, err := r.resolveClass(cls)
	if err != nil {
		return buildError(cls.Name, "", err)
	}

	for _, m := range methods {
		if err := r.visit(s, m, t); err != nil {
			return err
		}
	}
	return nil
}

// resolveClass walks the Extends chain of cls. It returns the class scope
// with inherited metadata and the methods to visit: the class's own, then
// every inherited method whose signature no subclass overrides.
func (r *Reader) resolveClass(cls *Class) (*scope, []*Method, error) {
	s := newScope(cls)

	var methods []*Method
	signatures := make(map[string]struct{})
	add := func(list []*Method) {
		for _, m := range list {
			if m == nil {
				continue
			}
			sig := m.signature()
			if _, ok := signatures[sig]; ok {
				continue
			}
			signatures[sig] = struct{}{}
			methods = append(methods, m)
		}
	}
	add(cls.Methods)

	seen := map[string]struct{}{cls.Name: {}}
	for name := cls.Extends; name != ""; {
		parent, ok := r.classes[name]
		if !ok {
			return nil, nil, fmt.Errorf("extends %q: %w", name, ErrUnknownClass)
		}
		if _, ok := seen[name]; ok {
			return nil, nil, fmt.Errorf("inheritance cycle through %q", name)
		}
		seen[name] = struct{}{}

		s.inherit(parent)
		add(parent.Methods)
		name = parent.Extends
	}

	return s, methods, nil
}

// visit turns one method into an operation, or follows it into a
// subresource. Skipped methods are not errors.
func (r *Reader) visit(s *scope, m *Method, t *traversal) error {
	log := r.log.With("class", s.class.Name, "method", m.Name)

	if m.hidden() {
		log.Debug("skipping hidden method")
		return nil
	}

	raw := combinePath(s.path, m.Path, t.parentPath, t.subresource)
	if !t.subresource && samePath(raw, t.parentPath) {
		log.Debug("skipping method without its own path", "path", raw)
		return nil
	}
	path, patterns := normalizeTemplate(raw)

	verb := r.chain.MatchVerb(m)

	var sub *Class
	if verb == "" {
		sub = r.subresource(m, log)
		if t.subresource {
			verb = t.parentVerb
		}
	}

	if verb == "" && sub == nil {
		log.Debug("skipping method without a verb", "path", path)
		return nil
	}

	if sub != nil {
		if _, ok := t.visited[sub.Name]; ok {
			log.Debug("subresource already in the active chain", "subresource", sub.Name, "path", path)
			return nil
		}
	}

	b := newOperationBuilder(r, s, m, t, path, patterns, verb, sub != nil)
	op, err := b.build()
	if err != nil {
		return buildError(s.class.Name, m.Name, err)
	}

	r.assembler.AddSchemas(b.schemas)
	r.assembler.AddTags(b.docTags...)

	if sub != nil {
		log.Debug("reading subresource", "subresource", sub.Name, "path", path)
		t.visited[sub.Name] = struct{}{}
		defer delete(t.visited, sub.Name)
		return r.readClass(sub, t.derive(path, verb, op, b.declaredProduces(), b.declaredConsumes()))
	}

	r.assembler.Register(path, verb, op)
	return nil
}

// subresource returns the class a locator method hands traversal over to.
// Only methods with a path qualify. A Locator return type must carry exactly
// one type argument.
func (r *Reader) subresource(m *Method, log *slog.Logger) *Class {
	if m.Path == "" {
		return nil
	}

	ret := m.Returns
	if ret.rawName() == LocatorType {
		if len(ret.Args) != 1 {
			log.Warn("locator return type needs exactly one type argument", "type", ret.String())
			return nil
		}
		ret = ret.Args[0]
	}

	if r.ignorable(ret) {
		return nil
	}
	return r.classes[ret.rawName()]
}

// ignorable reports whether t is neither a response schema nor a
// subresource: unset, void, a registered skip type, or inside an ignored
// namespace.
func (r *Reader) ignorable(t TypeRef) bool {
	if t.IsZero() {
		return true
	}

	names := []string{t.rawName()}
	if t.Go != nil {
		names = append(names, qualifiedName(t.Go))
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "void") {
			return true
		}
		if _, ok := r.skipTypes[name]; ok {
			return true
		}
		for _, ns := range r.ignoredNamespaces {
			if strings.HasPrefix(name, ns) {
				return true
			}
		}
	}
	return false
}

// qualifiedName is the import path qualified name of the element type of t.
func qualifiedName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
