package resource

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/vitalvas/restdoc/openapi"
)

// Assembler owns the document being built: the path table, the schema
// registry, the tag set and the operation ids in use. All methods are safe
// for concurrent use; operation id allocation and slot assignment happen
// under one lock.
type Assembler struct {
	mu     sync.Mutex
	logger *slog.Logger

	info    openapi.Info
	servers []openapi.Server

	paths     map[string]*openapi.PathItem
	published map[string]*openapi.PathItem
	schemas   map[string]*openapi.Schema
	tags      []openapi.Tag
}

// NewAssembler creates an empty document assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		logger:    slog.New(slog.DiscardHandler),
		paths:     make(map[string]*openapi.PathItem),
		published: make(map[string]*openapi.PathItem),
		schemas:   make(map[string]*openapi.Schema),
	}
}

// SetLogger sets the logger used for registration diagnostics.
func (a *Assembler) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// SetInfo sets the document info.
func (a *Assembler) SetInfo(info openapi.Info) {
	a.mu.Lock()
	a.info = info
	a.mu.Unlock()
}

// AddServers appends document-level servers.
func (a *Assembler) AddServers(servers ...openapi.Server) {
	a.mu.Lock()
	a.servers = append(a.servers, servers...)
	a.mu.Unlock()
}

// Register places op in the verb slot of the path item at path, creating
// the item on first use. An empty or unknown verb discards the operation.
// The operation id is made unique against every id in the document,
// including one held by an occupied slot, which is then overwritten with a
// warning. It reports whether op was registered.
func (a *Assembler) Register(path, verb string, op *openapi.Operation) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	verb = strings.ToLower(strings.TrimSpace(verb))
	if op == nil || verb == "" || !openapi.IsVerb(verb) {
		a.logger.Warn("discarding operation without a verb", "path", path, "verb", verb)
		return false
	}

	item, ok := a.paths[path]
	if !ok {
		item = &openapi.PathItem{}
		a.paths[path] = item
	}

	// Checked before the slot is replaced.
	a.assignIDs(op, a.operationIDs())

	if existing := item.Operation(verb); existing != nil {
		a.logger.Warn("operation slot already registered, overwriting",
			"path", path,
			"verb", verb,
			"previous", existing.OperationID,
			"operation", op.OperationID,
		)
	}
	item.SetOperation(verb, op)

	a.publish()
	return true
}

// UniqueOperationID returns id, or id with the smallest "_<n>" suffix not
// used by any operation in the document. An empty id is returned as is.
func (a *Assembler) UniqueOperationID(id string) string {
	if id == "" {
		return id
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uniqueID(id)
}

func (a *Assembler) uniqueID(id string) string {
	return nextID(id, a.operationIDs())
}

// assignIDs makes the ids of op and of the operations in its callbacks
// unique against used and against each other, recording each in used.
// Callbacks are walked in name, expression and verb order.
func (a *Assembler) assignIDs(op *openapi.Operation, used map[string]struct{}) {
	if op.OperationID != "" {
		op.OperationID = nextID(op.OperationID, used)
		used[op.OperationID] = struct{}{}
	}
	for _, name := range sortedKeys(op.Callbacks) {
		cb := op.Callbacks[name]
		if cb == nil {
			continue
		}
		for _, expr := range sortedKeys(cb.Expressions) {
			item := cb.Expressions[expr]
			if item == nil {
				continue
			}
			for _, verb := range openapi.Verbs {
				if nested := item.Operation(verb); nested != nil {
					a.assignIDs(nested, used)
				}
			}
		}
	}
}

func nextID(id string, used map[string]struct{}) string {
	if _, ok := used[id]; !ok {
		return id
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

// operationIDs collects the ids of every operation in the path table,
// including operations nested in callbacks.
func (a *Assembler) operationIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	var walk func(item *openapi.PathItem)
	walk = func(item *openapi.PathItem) {
		for _, op := range item.Operations() {
			if op.OperationID != "" {
				ids[op.OperationID] = struct{}{}
			}
			for _, cb := range op.Callbacks {
				if cb == nil {
					continue
				}
				for _, nested := range cb.Expressions {
					if nested != nil {
						walk(nested)
					}
				}
			}
		}
	}
	for _, item := range a.paths {
		walk(item)
	}
	return ids
}

// publish folds the path table into the published view. Items are shared,
// so this only adds paths registered since the last call.
func (a *Assembler) publish() {
	maps.Copy(a.published, a.paths)
}

// AddSchemas merges named schemas into the registry. The last write for a
// name wins.
func (a *Assembler) AddSchemas(schemas map[string]*openapi.Schema) {
	if len(schemas) == 0 {
		return
	}
	a.mu.Lock()
	maps.Copy(a.schemas, schemas)
	a.mu.Unlock()
}

// AddTags records declared tags. A tag seen before keeps its fields; an
// empty description is completed from the newer declaration.
func (a *Assembler) AddTags(tags ...openapi.Tag) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, tag := range tags {
		if tag.Name == "" {
			continue
		}
		idx := slices.IndexFunc(a.tags, func(t openapi.Tag) bool { return t.Name == tag.Name })
		if idx < 0 {
			a.tags = append(a.tags, tag)
			continue
		}
		if a.tags[idx].Description == "" {
			a.tags[idx].Description = tag.Description
		}
		if a.tags[idx].ExternalDocs == nil {
			a.tags[idx].ExternalDocs = tag.ExternalDocs
		}
	}
}

// Operation returns the operation registered at path and verb, or nil.
func (a *Assembler) Operation(path, verb string) *openapi.Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	item, ok := a.published[path]
	if !ok {
		return nil
	}
	return item.Operation(verb)
}

// Document returns a snapshot of the assembled document. Path items are
// copied, so later registrations do not show through; the registered
// operations themselves are shared. Tags referenced by
// operations but never declared are added by name; the tag list is sorted.
func (a *Assembler) Document() *openapi.Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := &openapi.Document{
		OpenAPI: "3.1.0",
		Info:    a.info,
		Servers: slices.Clone(a.servers),
		Paths:   make(map[string]*openapi.PathItem, len(a.published)),
	}
	for path, item := range a.published {
		snapshot := *item
		doc.Paths[path] = &snapshot
	}

	if len(a.schemas) > 0 {
		doc.Components = &openapi.Components{Schemas: maps.Clone(a.schemas)}
	}

	declared := make(map[string]openapi.Tag, len(a.tags))
	for _, tag := range a.tags {
		declared[tag.Name] = tag
	}
	for _, item := range a.published {
		for _, op := range item.Operations() {
			for _, name := range op.Tags {
				if _, ok := declared[name]; !ok {
					declared[name] = openapi.Tag{Name: name}
				}
			}
		}
	}
	for _, name := range sortedKeys(declared) {
		doc.Tags = append(doc.Tags, declared[name])
	}

	return doc
}
