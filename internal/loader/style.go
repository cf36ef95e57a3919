package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/config"
	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/pipe01/esbuild-plugin-vue3/internal/logger"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

func (l *Loader) loadStyle(ctx context.Context, key vpath.Key) (api.OnLoadResult, error) {
	file, err := l.file(key.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	styles := file.Descriptor.Styles
	if key.Index < 0 || key.Index >= len(styles) {
		return api.OnLoadResult{}, fmt.Errorf("%q has no style block with index %d", file.Filename, key.Index)
	}
	style := &styles[key.Index]

	cacheKey := cache.Key(key, style.Content, style.Lang, file.ScopeID,
		strconv.FormatBool(style.Scoped), strconv.Itoa(int(l.options.CSSMode)))
	out, err := cache.Get(l.cache, cacheKey, func() (*output, error) {
		return l.compileStyle(ctx, file, style)
	})
	if err != nil {
		return api.OnLoadResult{}, err
	}

	// This runs on cache hits too since the collected CSS is reset for every
	// build
	if l.options.CSSMode == config.CSSModeHTML && !hasErrors(out.msgs) {
		l.addInlineCSS(key, out.inlineCSS)
	}
	return l.result(key, out), nil
}

func (l *Loader) compileStyle(ctx context.Context, file *FileContext, style *sfc.StyleBlock) (*output, error) {
	if l.compilers.Style == nil {
		return nil, &sfc.MissingDependencyError{
			Name:    "a style compiler",
			Purpose: "Compiling <style> blocks",
			Remedy:  "Set StyleCompiler in the plugin options.",
		}
	}

	source := style.Content
	var watchFiles []string

	if lang := style.Lang; lang != "" && lang != "css" {
		preprocessor := l.compilers.StylePreprocessors[lang]
		if preprocessor == nil {
			return nil, &sfc.MissingDependencyError{
				Name:    fmt.Sprintf("a %q style preprocessor", lang),
				Purpose: fmt.Sprintf("Compiling <style lang=%q>", lang),
				Remedy:  fmt.Sprintf("Register one under %q in StylePreprocessors.", lang),
			}
		}
		result, err := preprocessor.Process(ctx, source, sfc.PreprocessOptions{
			Filename:     file.Path,
			IncludePaths: []string{filepath.Dir(file.Path)},
			Importers:    l.importers(),
			Options:      l.options.PreprocessorOptions[lang],
		})
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			return &output{msgs: l.errorMsgs(err, file, style.LineOffset)}, nil
		}
		source = result.CSS
		watchFiles = result.Dependencies
	}

	result, err := l.compilers.Style.CompileStyle(ctx, sfc.StyleOptions{
		ID:             file.ScopeID,
		Source:         source,
		Filename:       file.Path,
		Scoped:         style.Scoped,
		PostcssPlugins: l.options.PostcssPlugins,
		PostcssOptions: l.options.PostcssOptions,
	})
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		return &output{msgs: l.errorMsgs(err, file, style.LineOffset), watchFiles: watchFiles}, nil
	}

	out := &output{watchFiles: watchFiles}
	for _, d := range result.Errors {
		out.msgs = append(out.msgs, l.diagnosticMsg(logger.Error, d, file, style.LineOffset))
	}

	switch l.options.CSSMode {
	case config.CSSModeInject:
		out.contents = injectStyleJS(result.Code)
		out.loader = api.LoaderJS

	case config.CSSModeHTML:
		out.loader = api.LoaderJS
		out.inlineCSS = result.Code

	default:
		out.contents = result.Code
		out.loader = api.LoaderCSS
	}
	return out, nil
}

// Imports in preprocessed stylesheets are looked up in the project's
// "node_modules" directory first and then through the path aliases.
func (l *Loader) importers() []sfc.Importer {
	return []sfc.Importer{
		func(url string) (string, bool) {
			candidate := filepath.Join(l.fs.Cwd(), "node_modules", filepath.FromSlash(strings.TrimPrefix(url, "~")))
			if l.fs.IsFile(candidate) {
				return candidate, true
			}
			return "", false
		},
		func(url string) (string, bool) {
			if rewritten := l.aliases.Apply(url); rewritten != url {
				return rewritten, true
			}
			return "", false
		},
	}
}

func injectStyleJS(css string) string {
	sb := strings.Builder{}
	sb.WriteString("(function() {\n")
	sb.WriteString("  if (typeof document === \"undefined\") return;\n")
	sb.WriteString("  const style = document.createElement(\"style\");\n")
	sb.WriteString("  style.textContent = ")
	sb.WriteString(helpers.QuoteForJS(css))
	sb.WriteString(";\n")
	sb.WriteString("  document.head.appendChild(style);\n")
	sb.WriteString("})();\n")
	return sb.String()
}

func hasErrors(msgs []logger.Msg) bool {
	for _, msg := range msgs {
		if msg.Kind == logger.Error {
			return true
		}
	}
	return false
}
