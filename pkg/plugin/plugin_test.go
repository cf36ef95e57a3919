package plugin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolveHook struct {
	filter   *regexp.Regexp
	callback func(api.OnResolveArgs) (api.OnResolveResult, error)
}

// Records what the plugin registers so tests can drive it like esbuild would
type fakeBuild struct {
	initial   *api.BuildOptions
	onStart   []func() (api.OnStartResult, error)
	onResolve []resolveHook
	onLoad    map[string]func(api.OnLoadArgs) (api.OnLoadResult, error)
	onEnd     []func(*api.BuildResult) (api.OnEndResult, error)
	onDispose []func()
}

func setupPlugin(t *testing.T, options Options, initial *api.BuildOptions) *fakeBuild {
	t.Helper()
	if initial == nil {
		initial = &api.BuildOptions{}
	}
	f := &fakeBuild{initial: initial, onLoad: make(map[string]func(api.OnLoadArgs) (api.OnLoadResult, error))}

	New(options).Setup(api.PluginBuild{
		InitialOptions: initial,
		OnStart: func(callback func() (api.OnStartResult, error)) {
			f.onStart = append(f.onStart, callback)
		},
		OnEnd: func(callback func(*api.BuildResult) (api.OnEndResult, error)) {
			f.onEnd = append(f.onEnd, callback)
		},
		OnResolve: func(options api.OnResolveOptions, callback func(api.OnResolveArgs) (api.OnResolveResult, error)) {
			f.onResolve = append(f.onResolve, resolveHook{filter: regexp.MustCompile(options.Filter), callback: callback})
		},
		OnLoad: func(options api.OnLoadOptions, callback func(api.OnLoadArgs) (api.OnLoadResult, error)) {
			f.onLoad[options.Namespace] = callback
		},
		OnDispose: func(callback func()) {
			f.onDispose = append(f.onDispose, callback)
		},
	})
	return f
}

func (f *fakeBuild) start(t *testing.T) error {
	t.Helper()
	for _, callback := range f.onStart {
		if _, err := callback(); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBuild) resolve(t *testing.T, args api.OnResolveArgs) api.OnResolveResult {
	t.Helper()
	for _, hook := range f.onResolve {
		if !hook.filter.MatchString(args.Path) {
			continue
		}
		result, err := hook.callback(args)
		require.NoError(t, err)
		if result.Path != "" {
			return result
		}
	}
	return api.OnResolveResult{}
}

var importSpecifier = regexp.MustCompile(`(?m)^import (?:.* from )?"([^"]+)";$`)

type loaded struct {
	namespace string
	suffix    string
	result    api.OnLoadResult
}

// Follows every import from the entry through the plugin's namespaces
func (f *fakeBuild) walk(t *testing.T, entry string, resolveDir string) []loaded {
	t.Helper()
	var modules []loaded
	seen := make(map[string]bool)

	var visit func(args api.OnResolveArgs)
	visit = func(args api.OnResolveArgs) {
		resolved := f.resolve(t, args)
		require.NotEmpty(t, resolved.Path, "unresolved %q", args.Path)
		id := resolved.Namespace + ":" + resolved.Path + resolved.Suffix
		if seen[id] {
			return
		}
		seen[id] = true

		load := f.onLoad[resolved.Namespace]
		if load == nil {
			return
		}
		result, err := load(api.OnLoadArgs{Path: resolved.Path, Namespace: resolved.Namespace, Suffix: resolved.Suffix})
		require.NoError(t, err)
		modules = append(modules, loaded{namespace: resolved.Namespace, suffix: resolved.Suffix, result: result})

		if result.Contents == nil || result.Loader != api.LoaderJS {
			return
		}
		for _, match := range importSpecifier.FindAllStringSubmatch(*result.Contents, -1) {
			visit(api.OnResolveArgs{Path: match[1], Namespace: resolved.Namespace, ResolveDir: result.ResolveDir})
		}
	}

	visit(api.OnResolveArgs{Path: entry, Namespace: "file", ResolveDir: resolveDir})
	return modules
}

type scriptCompiler struct {
	ctx context.Context
}

func (c *scriptCompiler) CompileScript(ctx context.Context, d *sfc.Descriptor, options sfc.ScriptOptions) (*sfc.ScriptResult, error) {
	c.ctx = ctx
	return &sfc.ScriptResult{Content: "export default {};", Bindings: sfc.BindingMetadata{"a": "data"}}, nil
}

type templateCompiler struct{}

func (templateCompiler) CompileTemplate(ctx context.Context, options sfc.TemplateOptions) (*sfc.TemplateResult, error) {
	return &sfc.TemplateResult{Code: "export function render() {}"}, nil
}

type styleCompiler struct{}

func (styleCompiler) CompileStyle(ctx context.Context, options sfc.StyleOptions) (*sfc.StyleResult, error) {
	return &sfc.StyleResult{Code: strings.TrimSpace(options.Source)}, nil
}

const app = `<template>
  <div class="app">{{ a }}</div>
</template>

<script>
export default { data: () => ({ a: 1 }) }
</script>

<style scoped>
.app { color: red }
</style>
`

func testOptions(files map[string]string) Options {
	return Options{
		ScriptCompiler:   &scriptCompiler{},
		TemplateCompiler: templateCompiler{},
		StyleCompiler:    styleCompiler{},
		fs:               fs.MockFS(files, "/project"),
	}
}

func TestEndToEnd(t *testing.T) {
	f := setupPlugin(t, testOptions(map[string]string{"/project/src/App.vue": app}), nil)
	require.NoError(t, f.start(t))

	modules := f.walk(t, "./src/App.vue", "/project")
	require.Len(t, modules, 4)

	var namespaces []string
	for _, module := range modules {
		namespaces = append(namespaces, module.namespace+module.suffix)
		assert.Empty(t, module.result.Errors)
		assert.Equal(t, "/project/src", module.result.ResolveDir)
	}
	assert.Equal(t, []string{"sfc", "sfc-script?type=script", "sfc-style?type=style&index=0", "sfc-template?type=template"}, namespaces)

	stub := *modules[0].result.Contents
	assert.Contains(t, stub, `script.__file = "src/App.vue";`)
	assert.Contains(t, stub, `script.__scopeId = "data-v-`)
	assert.Equal(t, api.LoaderCSS, modules[2].result.Loader)
	assert.Equal(t, ".app { color: red }", *modules[2].result.Contents)
}

func TestRebuildReusesCache(t *testing.T) {
	output := bytes.Buffer{}
	options := testOptions(map[string]string{"/project/src/App.vue": app})
	options.Logger = log.NewWithOptions(&output, log.Options{Level: log.DebugLevel})

	f := setupPlugin(t, options, nil)
	require.NoError(t, f.start(t))
	assert.Contains(t, output.String(), "Build started cached=0")
	f.walk(t, "./src/App.vue", "/project")

	// The script is compiled once for both the script and template modules
	output.Reset()
	require.NoError(t, f.start(t))
	assert.Contains(t, output.String(), "Build started cached=3")
}

func TestDefinesAndMetafile(t *testing.T) {
	initial := &api.BuildOptions{Define: map[string]string{"__VUE_PROD_DEVTOOLS__": "true"}}
	options := testOptions(nil)
	options.DisableOptionsAPI = true
	options.GenerateHTML = &HTMLOptions{OriginalFile: "index.html"}
	setupPlugin(t, options, initial)

	assert.Equal(t, "false", initial.Define["__VUE_OPTIONS_API__"])
	assert.Equal(t, "true", initial.Define["__VUE_PROD_DEVTOOLS__"])
	assert.Equal(t, "false", initial.Define["__VUE_PROD_HYDRATION_MISMATCH_DETAILS__"])
	assert.True(t, initial.Metafile)
}

const tsconfig = `{
	// comments are allowed
	"compilerOptions": {"paths": {"@/*": ["src/*"],}},
}`

func TestTsconfigAliases(t *testing.T) {
	f := setupPlugin(t, testOptions(map[string]string{
		"/project/tsconfig.json": tsconfig,
		"/project/src/App.vue":   app,
		"/project/src/utils.ts":  "",
	}), nil)
	require.NoError(t, f.start(t))

	result := f.resolve(t, api.OnResolveArgs{Path: "@/App.vue", Namespace: "file", ResolveDir: "/project/other"})
	assert.Equal(t, "/project/src/App.vue", result.Path)
	assert.Equal(t, "sfc", result.Namespace)

	result = f.resolve(t, api.OnResolveArgs{Path: "@/utils", Namespace: "file", ResolveDir: "/project/other"})
	assert.Equal(t, "/project/src/utils.ts", result.Path)
	assert.Equal(t, "file", result.Namespace)
}

func TestExplicitAliasesReplaceTsconfig(t *testing.T) {
	options := testOptions(map[string]string{
		"/project/tsconfig.json":  tsconfig,
		"/project/lib/Button.vue": app,
	})
	options.PathAliases = []PathAlias{{Pattern: "~/*", Target: "/project/lib/*"}}
	f := setupPlugin(t, options, nil)
	require.NoError(t, f.start(t))

	assert.Equal(t, "/project/lib/Button.vue", f.resolve(t, api.OnResolveArgs{Path: "~/Button.vue", Namespace: "file"}).Path)
	assert.Equal(t, "", f.resolve(t, api.OnResolveArgs{Path: "@/App.vue", Namespace: "file"}).Path)
}

func TestDisabledAliases(t *testing.T) {
	options := testOptions(map[string]string{
		"/project/tsconfig.json": `{"compilerOptions": {"paths": {"@/*": ["src/*"]}}}`,
	})
	options.DisablePathAliases = true
	f := setupPlugin(t, options, nil)

	require.Len(t, f.onResolve, 1)
	assert.Equal(t, `\.vue(\?.*)?$`, f.onResolve[0].filter.String())
}

func TestMalformedTsconfigFailsBuildStart(t *testing.T) {
	f := setupPlugin(t, testOptions(map[string]string{
		"/project/tsconfig.json": `{"compilerOptions": {"paths": [}`,
	}), nil)

	err := f.start(t)
	var parseErr *ConfigParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "/project/tsconfig.json", parseErr.Path)
}

func TestGenerateHTML(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(original, []byte(`<html><head></head><body></body></html>`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0755))

	options := testOptions(map[string]string{"/project/src/App.vue": app})
	options.CSSMode = CSSHTML
	options.GenerateHTML = &HTMLOptions{OriginalFile: original}
	f := setupPlugin(t, options, &api.BuildOptions{Outdir: filepath.Join(dir, "dist")})
	require.NoError(t, f.start(t))

	modules := f.walk(t, "./src/App.vue", "/project")
	require.Len(t, modules, 4)
	assert.Equal(t, "", *modules[2].result.Contents)

	require.Len(t, f.onEnd, 1)
	_, err := f.onEnd[0](&api.BuildResult{Metafile: `{"outputs":{"dist/main.js":{}}}`})
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(written), `<style>.app { color: red }
</style>`)
	assert.Contains(t, string(written), `<script src="/dist/main.js"></script>`)
}

func TestGenerateHTMLMinifyOptions(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(original, []byte("<html>\n<head></head>\n<body></body>\n</html>\n"), 0644))

	options := testOptions(nil)
	options.GenerateHTML = &HTMLOptions{
		OriginalFile: original,
		OutFile:      filepath.Join(dir, "out.html"),
		PathPrefix:   "/",
		Minify:       &HTMLMinifyOptions{KeepDocumentTags: true, KeepQuotes: true},
	}
	f := setupPlugin(t, options, &api.BuildOptions{MinifyWhitespace: true})

	_, err := f.onEnd[0](&api.BuildResult{Metafile: `{"outputs":{"main.js":{}}}`})
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "out.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(written), "\n")
	assert.Contains(t, string(written), "<body>")
	assert.Contains(t, string(written), `<script src="/main.js"></script>`)
}

func TestGenerateHTMLSkippedOnErrors(t *testing.T) {
	options := testOptions(nil)
	options.GenerateHTML = &HTMLOptions{OriginalFile: "missing.html"}
	f := setupPlugin(t, options, &api.BuildOptions{Outdir: "dist"})

	_, err := f.onEnd[0](&api.BuildResult{Errors: []api.Message{{Text: "boom"}}})
	assert.NoError(t, err)
}

func TestGenerateHTMLWithoutOutput(t *testing.T) {
	options := testOptions(nil)
	options.GenerateHTML = &HTMLOptions{OriginalFile: "index.html"}
	f := setupPlugin(t, options, nil)

	_, err := f.onEnd[0](&api.BuildResult{Metafile: `{"outputs":{}}`})
	assert.ErrorIs(t, err, ErrOutputPathUnresolvable)

	options.GenerateHTML.OutFile = "out.html"
	f = setupPlugin(t, options, nil)
	_, err = f.onEnd[0](&api.BuildResult{})
	assert.ErrorIs(t, err, ErrManifestMissing)
}

func TestDisposeCancelsCompilers(t *testing.T) {
	options := testOptions(map[string]string{"/project/src/App.vue": app})
	script := options.ScriptCompiler.(*scriptCompiler)
	f := setupPlugin(t, options, nil)
	f.walk(t, "./src/App.vue", "/project")

	require.NotNil(t, script.ctx)
	assert.NoError(t, script.ctx.Err())
	for _, callback := range f.onDispose {
		callback()
	}
	assert.ErrorIs(t, script.ctx.Err(), context.Canceled)
}

func TestMissingTemplateCompiler(t *testing.T) {
	options := testOptions(map[string]string{"/project/src/App.vue": app})
	options.TemplateCompiler = nil
	f := setupPlugin(t, options, nil)

	_, err := f.onLoad["sfc-template"](api.OnLoadArgs{Path: "/project/src/App.vue", Namespace: "sfc-template", Suffix: "?type=template"})
	var missing *MissingDependencyError
	assert.True(t, errors.As(err, &missing))
}
