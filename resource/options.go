package resource

import (
	"log/slog"

	"github.com/vitalvas/restdoc/openapi"
)

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger. The reader logs skipped methods at debug level
// and malformed input at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolver replaces the schema resolver.
func WithResolver(resolver SchemaResolver) Option {
	return func(r *Reader) {
		if resolver != nil {
			r.resolver = resolver
		}
	}
}

// WithExtensions sets the extension chain. DefaultExtension always runs
// last.
func WithExtensions(exts ...Extension) Option {
	return func(r *Reader) {
		chain := make(Chain, 0, len(exts)+1)
		for _, ext := range exts {
			if ext != nil {
				chain = append(chain, ext)
			}
		}
		r.chain = append(chain, DefaultExtension{})
	}
}

// WithGlobalParameters adds parameters to every operation, ahead of the
// operation's own.
func WithGlobalParameters(params ...*openapi.Parameter) Option {
	return func(r *Reader) {
		r.globalParams = append(r.globalParams, params...)
	}
}

// WithSkipTypes registers type names that are never response schemas or
// subresources.
func WithSkipTypes(names ...string) Option {
	return func(r *Reader) {
		for _, name := range names {
			r.skipTypes[name] = struct{}{}
		}
	}
}

// WithIgnoredNamespaces adds type name prefixes to DefaultIgnoredNamespaces.
func WithIgnoredNamespaces(prefixes ...string) Option {
	return func(r *Reader) {
		r.ignoredNamespaces = append(r.ignoredNamespaces, prefixes...)
	}
}

// WithDefaultMediaType sets the media type used when neither the method nor
// its class declares one. The default is "*/*".
func WithDefaultMediaType(mediaType string) Option {
	return func(r *Reader) {
		if mediaType != "" {
			r.defaultMediaType = mediaType
		}
	}
}

// WithDefaultResponseDescription sets the description of synthesized
// responses. The default is "successful operation".
func WithDefaultResponseDescription(description string) Option {
	return func(r *Reader) {
		if description != "" {
			r.defaultDescription = description
		}
	}
}

// WithAssembler registers operations into a. Several readers may share one
// assembler.
func WithAssembler(a *Assembler) Option {
	return func(r *Reader) {
		r.assembler = a
	}
}

// WithInfo sets the document info.
func WithInfo(info openapi.Info) Option {
	return func(r *Reader) {
		r.info = &info
	}
}

// WithServers adds document-level servers.
func WithServers(servers ...openapi.Server) Option {
	return func(r *Reader) {
		r.servers = append(r.servers, servers...)
	}
}
