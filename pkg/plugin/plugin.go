package plugin

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/config"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/internal/htmlinject"
	"github.com/pipe01/esbuild-plugin-vue3/internal/loader"
	"github.com/pipe01/esbuild-plugin-vue3/internal/resolver"
	"github.com/pipe01/esbuild-plugin-vue3/internal/scopeid"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
	minhtml "github.com/tdewolff/minify/v2/html"
)

type ConfigParseError = alias.ConfigParseError

type MissingDependencyError = sfc.MissingDependencyError

var (
	ErrManifestMissing        = htmlinject.ErrManifestMissing
	ErrOutputPathUnresolvable = htmlinject.ErrOutputPathUnresolvable
)

func New(options Options) api.Plugin {
	return api.Plugin{
		Name: "vue",
		Setup: func(build api.PluginBuild) {
			setup(build, options)
		},
	}
}

func DefaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "sfc",
		Level:  log.WarnLevel,
	})
}

// Everything created here lives as long as the plugin instance, which is one
// esbuild build context. Nothing is shared between instances.
func setup(build api.PluginBuild, options Options) {
	logger := options.Logger
	if logger == nil {
		logger = DefaultLogger()
	}

	initial := build.InitialOptions
	if initial == nil {
		initial = &api.BuildOptions{}
	}

	fsys := options.fs
	if fsys == nil {
		fsys = fs.RealFS(initial.AbsWorkingDir)
	}
	cwd := fsys.Cwd()

	config.ApplyDefines(initial, config.FeatureFlags{
		OptionsAPI:                   !options.DisableOptionsAPI,
		ProdDevtools:                 options.EnableDevTools,
		ProdHydrationMismatchDetails: options.HydrationMismatchDetails,
	})
	if options.GenerateHTML != nil {
		initial.Metafile = true
	}

	cfg := buildConfig(options, initial)

	// A broken alias configuration is reported when the build starts
	aliases, aliasErr := alias.Load(fsys, aliasSource(options))
	if aliasErr != nil {
		logger.Error("Could not load path aliases", "err", aliasErr)
	} else if aliases.Len() > 0 {
		logger.Debug("Loaded path aliases", "count", aliases.Len())
	}

	strategy := scopeid.StrategyHash
	if options.ScopeID == ScopeIDRandom {
		strategy = scopeid.StrategyRandom
	}

	buildCache := cache.New(!options.DisableCache, logger)
	l := loader.New(loader.Config{
		Options: cfg,
		Compilers: loader.Compilers{
			Parser:                options.Parser,
			Script:                options.ScriptCompiler,
			Template:              options.TemplateCompiler,
			Style:                 options.StyleCompiler,
			TemplatePreprocessors: options.TemplatePreprocessors,
			StylePreprocessors:    options.StylePreprocessors,
		},
		FS:      fsys,
		IDs:     scopeid.NewGenerator(strategy, options.RandomIDSeed, cwd),
		Cache:   buildCache,
		Aliases: aliases,
		Logger:  logger,
	})
	r := resolver.New(cfg.Extension, fsys, aliases, logger)

	// Cancelled when esbuild disposes of the build context so that long
	// running collaborators can stop early
	ctx, cancel := context.WithCancel(context.Background())

	build.OnStart(func() (api.OnStartResult, error) {
		if aliasErr != nil {
			return api.OnStartResult{}, aliasErr
		}
		l.ResetInlineCSS()
		logger.Debug("Build started", "cached", buildCache.Len())
		return api.OnStartResult{}, nil
	})

	build.OnResolve(api.OnResolveOptions{Filter: r.Filter()}, r.Resolve)

	for _, namespace := range []string{
		vpath.NamespaceStub,
		vpath.NamespaceScript,
		vpath.NamespaceTemplate,
		vpath.NamespaceStyle,
	} {
		build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: namespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			key, err := vpath.KeyForLoad(args.Path, args.Namespace, args.Suffix)
			if err != nil {
				return api.OnLoadResult{}, err
			}
			return l.Load(ctx, key)
		})
	}

	if html := options.GenerateHTML; html != nil {
		injector := htmlinject.New(nil, logger)

		build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
			if len(result.Errors) > 0 {
				return api.OnEndResult{}, nil
			}

			var inlineCSS string
			if cfg.CSSMode == config.CSSModeHTML {
				inlineCSS = l.InlineCSS()
			}
			htmlOptions := htmlinject.Infer(convertHTMLOptions(html, cwd), initial, cwd)
			return api.OnEndResult{}, injector.Inject(ctx, result.Metafile, htmlOptions, inlineCSS)
		})
	}

	build.OnDispose(cancel)
}

func buildConfig(options Options, initial *api.BuildOptions) *config.Options {
	extension := options.Extension
	if extension == "" {
		extension = ".vue"
	}

	cssMode := config.CSSModeAsset
	switch options.CSSMode {
	case CSSInject:
		cssMode = config.CSSModeInject
	case CSSHTML:
		cssMode = config.CSSModeHTML
	}

	return &config.Options{
		Extension:           extension,
		SSR:                 options.SSR,
		RenderFunc:          config.RenderFuncName(options.SSR),
		IsProd:              config.IsProd(initial),
		SourceMap:           config.HasSourceMap(initial),
		CSSMode:             cssMode,
		DirectiveOverrides:  options.DirectiveOverrides,
		CompilerOptions:     options.CompilerOptions,
		PostcssPlugins:      options.PostcssPlugins,
		PostcssOptions:      options.PostcssOptions,
		PreprocessorOptions: options.PreprocessorOptions,
	}
}

func aliasSource(options Options) alias.Source {
	source := alias.Source{
		Disabled: options.DisablePathAliases,
		Tsconfig: options.Tsconfig,
	}
	if options.PathAliases != nil {
		source.Mappings = make([]alias.Mapping, 0, len(options.PathAliases))
		for _, entry := range options.PathAliases {
			source.Mappings = append(source.Mappings, alias.Mapping{Pattern: entry.Pattern, Target: entry.Target})
		}
	}
	return source
}

func convertHTMLOptions(html *HTMLOptions, cwd string) htmlinject.Options {
	original := html.OriginalFile
	if original != "" && !filepath.IsAbs(original) {
		original = filepath.Join(cwd, original)
	}
	outFile := html.OutFile
	if outFile != "" && !filepath.IsAbs(outFile) {
		outFile = filepath.Join(cwd, outFile)
	}

	preload := make([]htmlinject.Preload, 0, len(html.Preload))
	for _, item := range html.Preload {
		preload = append(preload, htmlinject.Preload{Href: item.Href, As: item.As, Prefetch: item.Prefetch})
	}

	var minifier *minhtml.Minifier
	if m := html.Minify; m != nil {
		minifier = &minhtml.Minifier{
			KeepComments:        m.KeepComments,
			KeepDefaultAttrVals: m.KeepDefaultAttrVals,
			KeepDocumentTags:    m.KeepDocumentTags,
			KeepEndTags:         m.KeepEndTags,
			KeepQuotes:          m.KeepQuotes,
			KeepWhitespace:      m.KeepWhitespace,
		}
	}

	return htmlinject.Options{
		OriginalFile:  original,
		OutFile:       outFile,
		PathPrefix:    html.PathPrefix,
		TrimPath:      html.TrimPath,
		TrimPattern:   html.TrimPattern,
		Preload:       preload,
		MinifyOptions: minifier,
	}
}
