package sfc

import (
	"context"
	"fmt"
)

// The external collaborators the build core calls. None of them are
// implemented by this module except Parser (see Parse). All of them must be
// safe for concurrent use because esbuild loads modules in parallel.

type Parser interface {
	Parse(source string, filename string) (*Descriptor, error)
}

type ParserFunc func(source string, filename string) (*Descriptor, error)

func (f ParserFunc) Parse(source string, filename string) (*Descriptor, error) {
	return f(source, filename)
}

// Maps each top-level binding of a script to what kind of binding it is (for
// example "setup-const" or "props"). The template compiler uses this to avoid
// generating defensive property lookups.
type BindingMetadata map[string]string

type ScriptOptions struct {
	ID string
}

type ScriptResult struct {
	Content string

	// "ts" if the compiled script still contains TypeScript syntax.
	Lang string

	// A JSON source map, or empty
	Map string

	Bindings BindingMetadata
}

type ScriptCompiler interface {
	CompileScript(ctx context.Context, descriptor *Descriptor, options ScriptOptions) (*ScriptResult, error)
}

type TemplateOptions struct {
	ID       string
	Source   string
	Filename string
	Scoped   bool
	Slotted  bool
	SSR      bool
	IsProd   bool
	Bindings BindingMetadata

	// Custom directives are rewritten to a plain property of the element. An
	// empty replacement removes the directive.
	DirectiveOverrides map[string]string

	// Passed through verbatim
	CompilerOptions map[string]interface{}
}

type TemplateResult struct {
	Code   string
	Errors []Diagnostic
	Tips   []string
}

type TemplateCompiler interface {
	CompileTemplate(ctx context.Context, options TemplateOptions) (*TemplateResult, error)
}

type StyleOptions struct {
	ID       string
	Source   string
	Filename string
	Scoped   bool

	PostcssPlugins []string
	PostcssOptions map[string]interface{}
}

type StyleResult struct {
	Code   string
	Errors []Diagnostic
}

type StyleCompiler interface {
	CompileStyle(ctx context.Context, options StyleOptions) (*StyleResult, error)
}

// Turns a template written in another language (for example Pug) into HTML.
type TemplatePreprocessor interface {
	Render(ctx context.Context, source string, filename string) (string, error)
}

// Looks up an imported stylesheet. Importers are tried in order and the first
// one that returns ok wins.
type Importer func(url string) (file string, ok bool)

type PreprocessOptions struct {
	Filename     string
	IncludePaths []string
	Importers    []Importer

	// Per-language options passed through verbatim
	Options map[string]interface{}
}

type PreprocessResult struct {
	CSS string

	// Files that were pulled in by imports and should trigger a rebuild
	Dependencies []string
}

// Turns Sass, Less or Stylus into CSS. Failures should be returned as a
// *Diagnostic or a Diagnostics so they can be attributed to a line.
type StylePreprocessor interface {
	Process(ctx context.Context, source string, options PreprocessOptions) (*PreprocessResult, error)
}

// A problem reported by one of the collaborators. Line is 1-based and relative
// to whatever source the collaborator was given unless File names the
// physical file. Line 0 means the location is unknown.
type Diagnostic struct {
	Message  string
	File     string
	Line     int
	Column   int
	LineText string
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
	}
	return d.Message
}

type Diagnostics []Diagnostic

func (d Diagnostics) Error() string {
	if len(d) == 0 {
		return "no diagnostics"
	}
	if len(d) == 1 {
		return d[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", d[0].Error(), len(d)-1)
}
