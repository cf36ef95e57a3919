package loader

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

type compiledScript struct {
	output   *output
	bindings sfc.BindingMetadata
}

func (l *Loader) loadScript(ctx context.Context, key vpath.Key) (api.OnLoadResult, error) {
	file, err := l.file(key.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	if !file.Descriptor.HasScript() {
		return emptyModule(key), nil
	}

	script, err := l.compileScript(ctx, file)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	return l.result(key, script.output), nil
}

// The template load calls this too because it needs the binding metadata.
// With the cache enabled both loads share a single compilation.
func (l *Loader) compileScript(ctx context.Context, file *FileContext) (*compiledScript, error) {
	key := vpath.Key{Path: file.Path, Kind: vpath.KindScript}
	cacheKey := cache.Key(key, file.Descriptor.Source, file.ScopeID, strconv.FormatBool(l.options.SourceMap))

	return cache.Get(l.cache, cacheKey, func() (*compiledScript, error) {
		if l.compilers.Script == nil {
			return nil, &sfc.MissingDependencyError{
				Name:    "a script compiler",
				Purpose: "Compiling <script> blocks",
				Remedy:  "Set ScriptCompiler in the plugin options.",
			}
		}

		result, err := l.compilers.Script.CompileScript(ctx, file.Descriptor, sfc.ScriptOptions{ID: file.ScopeID})
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			return &compiledScript{output: &output{msgs: l.errorMsgs(err, file, 0)}}, nil
		}

		contents := result.Content
		if l.options.SourceMap && result.Map != "" {
			contents += "\n\n//# sourceMappingURL=data:application/json;charset=utf-8;base64," +
				base64.StdEncoding.EncodeToString([]byte(result.Map))
		}

		lang := result.Lang
		if lang == "" {
			lang = scriptLang(file.Descriptor)
		}

		return &compiledScript{
			output: &output{
				contents: contents,
				loader:   scriptLoader(lang),
			},
			bindings: result.Bindings,
		}, nil
	})
}

func scriptLang(descriptor *sfc.Descriptor) string {
	if descriptor.ScriptSetup != nil && descriptor.ScriptSetup.Lang != "" {
		return descriptor.ScriptSetup.Lang
	}
	if descriptor.Script != nil {
		return descriptor.Script.Lang
	}
	return ""
}

func scriptLoader(lang string) api.Loader {
	switch lang {
	case "ts":
		return api.LoaderTS
	case "tsx":
		return api.LoaderTSX
	case "jsx":
		return api.LoaderJSX
	}
	return api.LoaderJS
}

// Errors that fail the load itself instead of becoming a diagnostic of the
// module. Anything the user has to fix in the plugin setup goes here.
func isFatal(err error) bool {
	var missing *sfc.MissingDependencyError
	return errors.As(err, &missing) || errors.Is(err, context.Canceled)
}
