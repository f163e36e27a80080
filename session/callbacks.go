package session

import "github.com/sass-contrib/embedded-host-go/sassvalue"

// Function is a registered custom function callback.
type Function func(args []sassvalue.Value) (sassvalue.Value, error)

// ImportResult is what Importer.Load returns for a found canonical URL.
type ImportResult struct {
	Contents     string
	Syntax       string // "scss" | "indented" | "css"
	SourceMapURL string // must be absolute if non-empty
}

// Importer resolves `@import`/`@use`/`@forward` URLs that aren't plain
// filesystem paths. Canonicalize returns ("", nil) for "not handled by this
// importer"; Load returns (nil, nil) for "canonical URL not found".
type Importer interface {
	Canonicalize(url string, fromImport bool) (string, error)
	Load(canonicalURL string) (*ImportResult, error)
}

// FileImporter is the lighter-weight alternative to Importer: it resolves
// directly to a file: URL without a separate load step. An entry that
// implements both Importer and FileImporter is ambiguous and rejected at
// registration.
type FileImporter interface {
	FindFileURL(url string, fromImport bool) (string, error)
}

// LogOptions carries the span/stack-trace context a logger callback may
// want alongside the message.
type LogOptions struct {
	Span       *SourceSpan
	StackTrace string
}

// SourceSpan locates a log message or compile failure in source text.
type SourceSpan struct {
	URL                    string
	StartLine, StartColumn int
	EndLine, EndColumn     int
	Context                string
}

// Logger receives best-effort warning/debug notifications; a Logger that
// errors or panics does not fail the compile.
type Logger interface {
	Warn(message string, opts LogOptions)
	Debug(message string, opts LogOptions)
}

// importerEntry pairs a registered importer/file-importer with the id the
// wire protocol uses to address it.
type importerEntry struct {
	id           uint32
	importer     Importer
	fileImporter FileImporter
}
