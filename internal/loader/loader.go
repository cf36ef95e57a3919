package loader

// The loader turns one physical single-file component into a stub module and
// a set of virtual sub-modules (script, template and one per style block).
// The file is read and parsed once, when its stub is loaded, and the result is
// kept in a per-file context that every sub-module load of that file reads.
// Sub-modules are loaded independently and in any order, so nothing here
// waits for a sibling module except through the build cache.

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/config"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/pipe01/esbuild-plugin-vue3/internal/logger"
	"github.com/pipe01/esbuild-plugin-vue3/internal/scopeid"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

type Compilers struct {
	Parser   sfc.Parser
	Script   sfc.ScriptCompiler
	Template sfc.TemplateCompiler
	Style    sfc.StyleCompiler

	// Keyed by the "lang" attribute of the block
	TemplatePreprocessors map[string]sfc.TemplatePreprocessor
	StylePreprocessors    map[string]sfc.StylePreprocessor
}

type Config struct {
	Options   *config.Options
	Compilers Compilers
	FS        fs.FS
	IDs       *scopeid.Generator
	Cache     *cache.BuildCache
	Aliases   *alias.RuleSet
	Logger    *log.Logger
}

// Everything derived from parsing one physical file. This is created when the
// stub is loaded and is read-only afterward.
type FileContext struct {
	Path       string
	Filename   string
	Descriptor *sfc.Descriptor
	ScopeID    string
}

type Loader struct {
	options   *config.Options
	compilers Compilers
	fs        fs.FS
	ids       *scopeid.Generator
	cache     *cache.BuildCache
	aliases   *alias.RuleSet
	logger    *log.Logger

	filesMutex sync.Mutex
	files      map[string]*FileContext

	cssMutex  sync.Mutex
	inlineCSS map[vpath.Key]string
}

func New(cfg Config) *Loader {
	compilers := cfg.Compilers
	if compilers.Parser == nil {
		compilers.Parser = sfc.DefaultParser
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	options := cfg.Options
	if options == nil {
		options = &config.Options{RenderFunc: config.RenderFuncName(false)}
	}
	ids := cfg.IDs
	if ids == nil {
		ids = scopeid.NewGenerator(scopeid.StrategyHash, "", cfg.FS.Cwd())
	}
	return &Loader{
		options:   options,
		compilers: compilers,
		fs:        cfg.FS,
		ids:       ids,
		cache:     cfg.Cache,
		aliases:   cfg.Aliases,
		logger:    logger,
		files:     make(map[string]*FileContext),
		inlineCSS: make(map[vpath.Key]string),
	}
}

func (l *Loader) Load(ctx context.Context, key vpath.Key) (api.OnLoadResult, error) {
	l.logger.Debug("Loading", "module", key.String())

	switch key.Kind {
	case vpath.KindStub:
		return l.loadStub(key)
	case vpath.KindScript:
		return l.loadScript(ctx, key)
	case vpath.KindTemplate:
		return l.loadTemplate(ctx, key)
	case vpath.KindStyle:
		return l.loadStyle(ctx, key)
	}
	return api.OnLoadResult{}, fmt.Errorf("Cannot load %s", key.String())
}

// Reads and parses the file and replaces any previous context for it. This
// runs for every stub load so that a rebuild after an edit sees the new
// contents.
func (l *Loader) parseFile(path string) (*FileContext, error) {
	source, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Could not read %q: %w", path, err)
	}

	filename := helpers.PrettyPath(l.fs.Cwd(), path)
	descriptor, err := l.compilers.Parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}

	file := &FileContext{
		Path:       path,
		Filename:   filename,
		Descriptor: descriptor,
		ScopeID:    l.ids.ScopeID(path),
	}

	l.filesMutex.Lock()
	defer l.filesMutex.Unlock()
	l.files[path] = file
	return file, nil
}

// Sub-modules normally find the context created by their stub. If esbuild
// asks for a sub-module on its own (for example, an entry point that imports
// "Foo.vue?type=script" directly) the file is parsed here instead.
func (l *Loader) file(path string) (*FileContext, error) {
	l.filesMutex.Lock()
	file, ok := l.files[path]
	l.filesMutex.Unlock()
	if ok {
		return file, nil
	}
	return l.parseFile(path)
}

// The context of a file whose stub has been loaded
func (l *Loader) Context(path string) (*FileContext, bool) {
	l.filesMutex.Lock()
	defer l.filesMutex.Unlock()
	file, ok := l.files[path]
	return file, ok
}

func (l *Loader) loadStub(key vpath.Key) (api.OnLoadResult, error) {
	file, err := l.parseFile(key.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}

	contents := GenerateStub(StubInput{
		Descriptor: file.Descriptor,
		Base:       "./" + filepath.Base(key.Path),
		Filename:   file.Filename,
		ScopeID:    file.ScopeID,
		RenderFunc: l.options.RenderFunc,
	})

	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     api.LoaderJS,
		ResolveDir: filepath.Dir(key.Path),
		WatchFiles: []string{key.Path},
	}, nil
}

// The result of compiling one sub-module. Instances are stored in the build
// cache and must not be modified.
type output struct {
	contents   string
	loader     api.Loader
	msgs       []logger.Msg
	watchFiles []string

	// Only set for styles in CSSModeHTML
	inlineCSS string
}

func (l *Loader) result(key vpath.Key, out *output) api.OnLoadResult {
	result := api.OnLoadResult{
		ResolveDir: filepath.Dir(key.Path),
		WatchFiles: out.watchFiles,
	}
	result.Errors, result.Warnings = logger.ToAPI(out.msgs)

	// A module with errors has no contents
	if len(result.Errors) == 0 {
		contents := out.contents
		result.Contents = &contents
		result.Loader = out.loader
	}
	return result
}

func emptyModule(key vpath.Key) api.OnLoadResult {
	contents := ""
	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     api.LoaderJS,
		ResolveDir: filepath.Dir(key.Path),
	}
}

// Turns a collaborator's diagnostic into a message attributed to the physical
// file. "shift" is the number of lines to add when the diagnostic refers to
// the block content rather than to some other file.
func (l *Loader) diagnosticMsg(kind logger.MsgKind, d sfc.Diagnostic, file *FileContext, shift int) logger.Msg {
	msg := logger.Msg{Kind: kind, Text: d.Message}
	loc := &logger.MsgLocation{
		File:      file.Filename,
		Namespace: "file",
		Line:      d.Line,
		Column:    d.Column,
		LineText:  d.LineText,
	}

	if d.File != "" {
		if other := logger.StripQuery(d.File); other != file.Path && other != file.Filename {
			// Something like an imported Sass partial. Those lines are already
			// relative to that file.
			loc.File = helpers.PrettyPath(l.fs.Cwd(), other)
			msg.Location = loc
			return msg
		}
	}

	if d.Line > 0 {
		loc = loc.ShiftLines(shift)
	}
	msg.Location = loc
	return msg
}

// Collaborators are asked to report failures as diagnostics, but anything
// else is still turned into a message for the module instead of failing the
// whole build with a Go error.
func (l *Loader) errorMsgs(err error, file *FileContext, shift int) []logger.Msg {
	switch e := err.(type) {
	case *sfc.Diagnostic:
		return []logger.Msg{l.diagnosticMsg(logger.Error, *e, file, shift)}
	case sfc.Diagnostics:
		msgs := make([]logger.Msg, 0, len(e))
		for _, d := range e {
			msgs = append(msgs, l.diagnosticMsg(logger.Error, d, file, shift))
		}
		return msgs
	}
	return []logger.Msg{{
		Kind:     logger.Error,
		Text:     err.Error(),
		Location: &logger.MsgLocation{File: file.Filename, Namespace: "file"},
	}}
}

func (l *Loader) addInlineCSS(key vpath.Key, css string) {
	l.cssMutex.Lock()
	defer l.cssMutex.Unlock()
	l.inlineCSS[key] = css
}

// Forgets the CSS collected for the HTML injector. This is called at the
// start of every build.
func (l *Loader) ResetInlineCSS() {
	l.cssMutex.Lock()
	defer l.cssMutex.Unlock()
	l.inlineCSS = make(map[vpath.Key]string)
}

// The CSS collected in CSSModeHTML. The order is by file path and then by
// style index, which doesn't depend on the order modules were loaded in.
func (l *Loader) InlineCSS() string {
	l.cssMutex.Lock()
	defer l.cssMutex.Unlock()

	keys := make([]vpath.Key, 0, len(l.inlineCSS))
	for key := range l.inlineCSS {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Index < keys[j].Index
	})

	sb := strings.Builder{}
	for _, key := range keys {
		css := l.inlineCSS[key]
		sb.WriteString(css)
		if css != "" && !strings.HasSuffix(css, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
