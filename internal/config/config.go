package config

import (
	"os"

	"github.com/evanw/esbuild/pkg/api"
)

// How compiled style blocks end up in the output
type CSSMode uint8

const (
	// Each style block is a CSS module that esbuild bundles into a stylesheet
	CSSModeAsset CSSMode = iota

	// Each style block becomes JavaScript that appends a "<style>" element to
	// the document when the component module is evaluated
	CSSModeInject

	// Style blocks produce empty modules and their CSS is collected for the
	// HTML injector to inline into the generated document
	CSSModeHTML
)

// The normalized options for one build. These are derived once at plugin
// setup from the plugin options and esbuild's initial options, and are never
// mutated afterward.
type Options struct {
	// Including the leading dot, for example ".vue"
	Extension string

	SSR        bool
	RenderFunc string
	IsProd     bool
	SourceMap  bool
	CSSMode    CSSMode

	DirectiveOverrides map[string]string
	CompilerOptions    map[string]interface{}

	PostcssPlugins []string
	PostcssOptions map[string]interface{}

	// Keyed by preprocessor language, for example "scss"
	PreprocessorOptions map[string]map[string]interface{}
}

func RenderFuncName(ssr bool) string {
	if ssr {
		return "ssrRender"
	}
	return "render"
}

// Production mode enables the template compiler's production code paths. It
// follows the build's minification setting, like the rest of the output.
func IsProd(build *api.BuildOptions) bool {
	if os.Getenv("NODE_ENV") == "production" {
		return true
	}
	return build != nil && (build.MinifyWhitespace || build.MinifySyntax || build.MinifyIdentifiers)
}

func HasSourceMap(build *api.BuildOptions) bool {
	return build != nil && build.Sourcemap != api.SourceMapNone
}

type FeatureFlags struct {
	OptionsAPI                   bool
	ProdDevtools                 bool
	ProdHydrationMismatchDetails bool
}

// The compile-time feature flags of the component runtime
func (flags FeatureFlags) Defines() map[string]string {
	value := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	return map[string]string{
		"__VUE_OPTIONS_API__":                     value(flags.OptionsAPI),
		"__VUE_PROD_DEVTOOLS__":                   value(flags.ProdDevtools),
		"__VUE_PROD_HYDRATION_MISMATCH_DETAILS__": value(flags.ProdHydrationMismatchDetails),
	}
}

// Adds the feature flags to esbuild's "define" map without overriding values
// the user set explicitly.
func ApplyDefines(build *api.BuildOptions, flags FeatureFlags) {
	if build.Define == nil {
		build.Define = make(map[string]string)
	}
	for key, value := range flags.Defines() {
		if _, ok := build.Define[key]; !ok {
			build.Define[key] = value
		}
	}
}
