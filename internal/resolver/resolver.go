package resolver

// The resolver sits in front of esbuild's own path resolution. It rewrites
// aliased specifiers, routes single-file components and their sub-modules
// into the plugin's namespaces, and fills in a few extensions esbuild would
// not try on its own for aliased paths. Anything it can't place is left to
// esbuild by returning an empty result.

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
)

// Tried in order when the specifier doesn't name a file directly
var fallbackSuffixes = []string{
	".ts",
	"/index.ts",
	".js",
	"/index.js",
}

type Resolver struct {
	extension string
	fs        fs.FS
	aliases   *alias.RuleSet
	logger    *log.Logger
}

func New(extension string, fs fs.FS, aliases *alias.RuleSet, logger *log.Logger) *Resolver {
	return &Resolver{
		extension: extension,
		fs:        fs,
		aliases:   aliases,
		logger:    logger,
	}
}

// The esbuild "OnResolve" filter. Every import has to be seen when aliases are
// active, otherwise only imports of the component extension.
func (r *Resolver) Filter() string {
	if r.aliases.Len() > 0 {
		return `.*`
	}
	return regexp.QuoteMeta(r.extension) + `(\?.*)?$`
}

// An empty path in the result means the import is left to esbuild.
func (r *Resolver) Resolve(args api.OnResolveArgs) (api.OnResolveResult, error) {
	specifier := args.Path

	path, kind, index, hasQuery, err := vpath.ParseSpecifier(specifier, r.extension)
	if err != nil {
		return api.OnResolveResult{}, err
	}

	// Imports generated by a stub are already relative to the file. Only the
	// import written by the user is aliased.
	fromVirtual := vpath.KindFromNamespace(args.Namespace) != vpath.KindNone
	if !(hasQuery && fromVirtual) {
		if aliased := r.aliases.Apply(path); aliased != path {
			r.debug("Aliased", "from", path, "to", aliased)
			path = aliased
		}
	}

	abs := r.absolute(path, args.ResolveDir)
	if abs == "" {
		return api.OnResolveResult{}, nil
	}

	if hasQuery {
		key := vpath.Key{Path: abs, Kind: kind, Index: index}
		r.debug("Resolved", "specifier", specifier, "module", key.String())
		return api.OnResolveResult{
			Path:      abs,
			Namespace: kind.Namespace(),
			Suffix:    key.Suffix(),
		}, nil
	}

	if r.fs.IsFile(abs) {
		return r.file(specifier, abs), nil
	}
	for _, suffix := range fallbackSuffixes {
		if candidate := abs + filepath.FromSlash(suffix); r.fs.IsFile(candidate) {
			return r.file(specifier, candidate), nil
		}
	}

	r.debug("Not found", "specifier", specifier)
	return api.OnResolveResult{}, nil
}

func (r *Resolver) file(specifier string, path string) api.OnResolveResult {
	namespace := "file"
	if strings.HasSuffix(path, r.extension) {
		namespace = vpath.NamespaceStub
	}
	r.debug("Resolved", "specifier", specifier, "path", path, "namespace", namespace)
	return api.OnResolveResult{Path: path, Namespace: namespace}
}

// Bare package specifiers return "" since those are esbuild's business.
func (r *Resolver) absolute(path string, resolveDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if helpers.IsRelativeSpecifier(path) {
		if resolveDir == "" {
			resolveDir = r.fs.Cwd()
		}
		return filepath.Join(resolveDir, path)
	}
	return ""
}

func (r *Resolver) debug(msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, keyvals...)
	}
}
