package loader

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/logger"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

func (l *Loader) loadTemplate(ctx context.Context, key vpath.Key) (api.OnLoadResult, error) {
	file, err := l.file(key.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	if file.Descriptor.Template == nil {
		return emptyModule(key), nil
	}

	cacheKey := cache.Key(key, file.Descriptor.Source, file.ScopeID,
		strconv.FormatBool(l.options.SSR), strconv.FormatBool(l.options.IsProd))
	out, err := cache.Get(l.cache, cacheKey, func() (*output, error) {
		return l.compileTemplate(ctx, file)
	})
	if err != nil {
		return api.OnLoadResult{}, err
	}
	return l.result(key, out), nil
}

func (l *Loader) compileTemplate(ctx context.Context, file *FileContext) (*output, error) {
	if l.compilers.Template == nil {
		return nil, &sfc.MissingDependencyError{
			Name:    "a template compiler",
			Purpose: "Compiling <template> blocks",
			Remedy:  "Set TemplateCompiler in the plugin options.",
		}
	}

	descriptor := file.Descriptor
	block := descriptor.Template
	source := block.Content

	if lang := block.Lang; lang != "" && lang != "html" {
		preprocessor := l.compilers.TemplatePreprocessors[lang]
		if preprocessor == nil {
			return nil, &sfc.MissingDependencyError{
				Name:    fmt.Sprintf("a %q template preprocessor", lang),
				Purpose: fmt.Sprintf("Rendering <template lang=%q>", lang),
				Remedy:  fmt.Sprintf("Register one under %q in TemplatePreprocessors.", lang),
			}
		}
		rendered, err := preprocessor.Render(ctx, source, file.Path)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			return &output{msgs: l.errorMsgs(err, file, block.LineOffset)}, nil
		}
		source = collapseShorthandAttrs(rendered)
	}

	var bindings sfc.BindingMetadata
	if descriptor.HasScript() {
		script, err := l.compileScript(ctx, file)
		if err != nil {
			return nil, err
		}
		bindings = script.bindings
	}

	result, err := l.compilers.Template.CompileTemplate(ctx, sfc.TemplateOptions{
		ID:                 file.ScopeID,
		Source:             source,
		Filename:           file.Path,
		Scoped:             descriptor.HasScopedStyle(),
		Slotted:            descriptor.Slotted,
		SSR:                l.options.SSR,
		IsProd:             l.options.IsProd,
		Bindings:           bindings,
		DirectiveOverrides: l.options.DirectiveOverrides,
		CompilerOptions:    l.options.CompilerOptions,
	})
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		return &output{msgs: l.errorMsgs(err, file, block.LineOffset)}, nil
	}

	out := &output{contents: result.Code, loader: api.LoaderJS}
	for _, d := range result.Errors {
		// The fragment was compiled on its own, so its lines always need the
		// block offset regardless of what file name the compiler reports
		d.File = ""
		out.msgs = append(out.msgs, l.diagnosticMsg(logger.Error, d, file, block.LineOffset))
	}
	for _, tip := range result.Tips {
		out.msgs = append(out.msgs, logger.Msg{
			Kind:     logger.Warning,
			Text:     tip,
			Location: &logger.MsgLocation{File: file.Filename, Namespace: "file"},
		})
	}
	return out, nil
}

var shorthandAttr = regexp.MustCompile(`(?:#|v-)[\w:.\[\]-]+="[^"]*"`)

// Some template languages can't express a bare attribute and render
// '#default' as '#default="#default"'. This turns those back into bare
// attributes.
func collapseShorthandAttrs(html string) string {
	return shorthandAttr.ReplaceAllStringFunc(html, func(attr string) string {
		eq := strings.IndexByte(attr, '=')
		name, value := attr[:eq], attr[eq+2:len(attr)-1]
		if name == value {
			return name
		}
		return attr
	})
}
