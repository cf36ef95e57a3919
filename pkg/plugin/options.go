package plugin

import (
	"regexp"

	"github.com/charmbracelet/log"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

type ScopeIDStrategy uint8

const (
	// Derived from the path of the file relative to the working directory
	ScopeIDHash ScopeIDStrategy = iota

	// Drawn from a pseudo-random stream seeded with RandomIDSeed. An empty
	// seed uses a random one, so ids differ between processes.
	ScopeIDRandom
)

type CSSMode uint8

const (
	// Style blocks are bundled into esbuild's CSS output
	CSSAsset CSSMode = iota

	// Style blocks add a "<style>" element to the document at run-time
	CSSInject

	// Style blocks are inlined into the generated HTML document. This only
	// makes sense together with GenerateHTML.
	CSSHTML
)

// A "paths"-style alias entry. A single "*" in Pattern matches the rest of
// the specifier and is substituted into Target.
type PathAlias struct {
	Pattern string
	Target  string
}

type Preload struct {
	Href     string
	As       string
	Prefetch bool
}

type HTMLOptions struct {
	// The document the build outputs are injected into
	OriginalFile string

	// Defaults to "index.html" in the output directory
	OutFile string

	// Defaults to "/"
	PathPrefix string

	// Removed from output paths before the prefix is added. Defaults to the
	// output directory. TrimPattern takes precedence if set.
	TrimPath    string
	TrimPattern *regexp.Regexp

	Preload []Preload

	// Used when the build minifies whitespace. Nil uses the minifier's
	// defaults.
	Minify *HTMLMinifyOptions
}

// Settings of the HTML minifier. By default it removes optional tags, quotes
// and whitespace.
type HTMLMinifyOptions struct {
	KeepComments        bool
	KeepDefaultAttrVals bool
	KeepDocumentTags    bool
	KeepEndTags         bool
	KeepQuotes          bool
	KeepWhitespace      bool
}

type Options struct {
	// The file extension of single-file components. Defaults to ".vue".
	Extension string

	// Defaults to the built-in parser
	Parser sfc.Parser

	ScriptCompiler   sfc.ScriptCompiler
	TemplateCompiler sfc.TemplateCompiler
	StyleCompiler    sfc.StyleCompiler

	// Keyed by the "lang" attribute, for example "pug" or "scss"
	TemplatePreprocessors map[string]sfc.TemplatePreprocessor
	StylePreprocessors    map[string]sfc.StylePreprocessor

	// Runtime feature flags
	DisableOptionsAPI        bool
	EnableDevTools           bool
	HydrationMismatchDetails bool

	// Generate server-side rendering code
	SSR bool

	// By default aliases are read from the "paths" of the tsconfig file. Setting
	// PathAliases uses those instead and DisablePathAliases turns aliasing off.
	DisablePathAliases bool
	PathAliases        []PathAlias

	// Relative to the working directory. Defaults to "tsconfig.json".
	Tsconfig string

	ScopeID      ScopeIDStrategy
	RandomIDSeed string

	DisableCache bool

	CSSMode CSSMode

	// If set, an HTML document referencing the build outputs is written after
	// every successful build
	GenerateHTML *HTMLOptions

	// Custom directives are turned into a property of the element with the
	// given name. An empty name removes the directive.
	DirectiveOverrides map[string]string

	// Passed to the template compiler as is
	CompilerOptions map[string]interface{}

	PostcssPlugins []string
	PostcssOptions map[string]interface{}

	// Keyed by preprocessor language, for example "scss"
	PreprocessorOptions map[string]map[string]interface{}

	// Defaults to warnings and errors on stderr
	Logger *log.Logger

	// For tests
	fs fs.FS
}
