package htmlinject

// After a successful build the injector takes a template HTML document and
// adds a "<script>" for every JavaScript output and a stylesheet link for
// every CSS output, in the order the outputs appear in esbuild's metafile.
// Documents are read and written through afs, so both the template and the
// output may be local paths or any URL afs supports.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	"github.com/viant/afs"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrManifestMissing = errors.New("The build did not produce a metafile, which is needed to generate HTML")

var ErrOutputPathUnresolvable = errors.New("No output file was given for the generated HTML and none could be inferred from the build options")

type Preload struct {
	Href string
	As   string

	// Use rel="prefetch" instead of rel="preload"
	Prefetch bool
}

type Options struct {
	// The template document
	OriginalFile string

	// Where the document is written. Inferred from the build's output
	// directory if empty.
	OutFile string

	// Added to every output path that doesn't already start with it. Defaults
	// to "/".
	PathPrefix string

	// Removed once from every output path, before the prefix is added. If
	// TrimPattern is set it is used instead. Defaults to the output
	// directory.
	TrimPath    string
	TrimPattern *regexp.Regexp

	Preload []Preload

	Minify bool

	// Settings of the HTML minifier. Nil uses its defaults.
	MinifyOptions *minhtml.Minifier
}

// Fills in everything the caller left empty from the build options. "cwd" is
// the directory relative output paths are interpreted against.
func Infer(options Options, build *api.BuildOptions, cwd string) Options {
	if build == nil {
		build = &api.BuildOptions{}
	}
	if build.AbsWorkingDir != "" {
		cwd = build.AbsWorkingDir
	}

	outDir := build.Outdir
	if outDir == "" && build.Outfile != "" {
		outDir = filepath.Dir(build.Outfile)
	}

	if outDir != "" {
		abs := outDir
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, abs)
		}
		if options.TrimPath == "" && options.TrimPattern == nil {
			// Metafile paths are relative to the working directory
			options.TrimPath = helpers.PrettyPath(cwd, abs)
		}
		if options.OutFile == "" {
			options.OutFile = filepath.Join(abs, "index.html")
		}
	}

	if options.PathPrefix == "" {
		options.PathPrefix = "/"
	}
	if build.MinifyWhitespace {
		options.Minify = true
	}
	return options
}

type Injector struct {
	fs     afs.Service
	logger *log.Logger
}

func New(fs afs.Service, logger *log.Logger) *Injector {
	if fs == nil {
		fs = afs.New()
	}
	return &Injector{fs: fs, logger: logger}
}

// Writes the output document. "metafile" is the JSON metafile of the build and
// "inlineCSS" is embedded in a "<style>" element if it isn't empty.
func (in *Injector) Inject(ctx context.Context, metafile string, options Options, inlineCSS string) error {
	if metafile == "" {
		return ErrManifestMissing
	}
	if options.OutFile == "" {
		return ErrOutputPathUnresolvable
	}

	outputs, err := OutputNames(metafile)
	if err != nil {
		return err
	}

	document, err := in.fs.DownloadWithURL(ctx, options.OriginalFile)
	if err != nil {
		return fmt.Errorf("Could not read %q: %w", options.OriginalFile, err)
	}

	result, err := Render(document, outputs, options, inlineCSS)
	if err != nil {
		return err
	}
	if options.Minify {
		if result, err = Minify(result, options.MinifyOptions); err != nil {
			return err
		}
	}

	if err := in.fs.Upload(ctx, options.OutFile, 0644, bytes.NewReader(result)); err != nil {
		return fmt.Errorf("Could not write %q: %w", options.OutFile, err)
	}
	if in.logger != nil {
		in.logger.Info("Generated HTML", "file", options.OutFile, "outputs", len(outputs))
	}
	return nil
}

// The keys of the "outputs" object of a metafile, in document order
func OutputNames(metafile string) ([]string, error) {
	decoder := json.NewDecoder(strings.NewReader(metafile))
	if err := expectDelim(decoder, '{'); err != nil {
		return nil, err
	}

	var names []string
	found := false
	for decoder.More() {
		key, err := stringToken(decoder)
		if err != nil {
			return nil, err
		}
		if key != "outputs" {
			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				return nil, invalidMetafile(err)
			}
			continue
		}

		found = true
		if err := expectDelim(decoder, '{'); err != nil {
			return nil, err
		}
		for decoder.More() {
			name, err := stringToken(decoder)
			if err != nil {
				return nil, err
			}
			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				return nil, invalidMetafile(err)
			}
			names = append(names, name)
		}
		if err := expectDelim(decoder, '}'); err != nil {
			return nil, err
		}
	}

	if !found {
		return nil, ErrManifestMissing
	}
	return names, nil
}

func expectDelim(decoder *json.Decoder, delim json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return invalidMetafile(err)
	}
	if token != delim {
		return invalidMetafile(fmt.Errorf("expected %q", delim.String()))
	}
	return nil
}

func stringToken(decoder *json.Decoder) (string, error) {
	token, err := decoder.Token()
	if err != nil {
		return "", invalidMetafile(err)
	}
	text, ok := token.(string)
	if !ok {
		return "", invalidMetafile(fmt.Errorf("expected a key"))
	}
	return text, nil
}

func invalidMetafile(err error) error {
	return fmt.Errorf("Invalid metafile: %w", err)
}

// Turns a metafile output path into the URL used in the document
func (options *Options) assetURL(name string) string {
	if options.TrimPattern != nil {
		if loc := options.TrimPattern.FindStringIndex(name); loc != nil {
			name = name[:loc[0]] + name[loc[1]:]
		}
	} else if options.TrimPath != "" {
		name = strings.Replace(name, options.TrimPath, "", 1)
	}

	if options.PathPrefix != "" && !strings.HasPrefix(name, options.PathPrefix) {
		// Avoid "//" when both sides have a slash
		if strings.HasSuffix(options.PathPrefix, "/") {
			name = strings.TrimPrefix(name, "/")
		}
		name = options.PathPrefix + name
	}
	return name
}

func Render(document []byte, outputs []string, options Options, inlineCSS string) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("Could not parse %q: %w", options.OriginalFile, err)
	}

	// The parser always creates both of these
	head := findElement(root, atom.Head)
	body := findElement(root, atom.Body)
	if head == nil || body == nil {
		return nil, fmt.Errorf("Could not find <head> and <body> in %q", options.OriginalFile)
	}

	for _, item := range options.Preload {
		rel := "preload"
		if item.Prefetch {
			rel = "prefetch"
		}
		link := element(atom.Link, attr("rel", rel), attr("href", item.Href))
		if item.As != "" {
			link.Attr = append(link.Attr, attr("as", item.As))
		}
		head.AppendChild(link)
	}

	for _, name := range outputs {
		url := options.assetURL(name)
		switch path.Ext(name) {
		case ".js":
			body.AppendChild(element(atom.Script, attr("src", url)))
		case ".css":
			head.AppendChild(element(atom.Link, attr("rel", "stylesheet"), attr("href", url)))
		}
	}

	if inlineCSS != "" {
		style := element(atom.Style)
		style.AppendChild(&html.Node{Type: html.TextNode, Data: inlineCSS})
		head.AppendChild(style)
	}

	buffer := bytes.Buffer{}
	if err := html.Render(&buffer, root); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func findElement(node *html.Node, tag atom.Atom) *html.Node {
	if node.Type == html.ElementNode && node.DataAtom == tag {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func element(tag atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String(), Attr: attrs}
}

func attr(key string, value string) html.Attribute {
	return html.Attribute{Key: key, Val: value}
}

func Minify(document []byte, settings *minhtml.Minifier) ([]byte, error) {
	if settings == nil {
		settings = &minhtml.Minifier{}
	}
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", settings)

	result, err := m.Bytes("text/html", document)
	if err != nil {
		return nil, fmt.Errorf("Could not minify HTML: %w", err)
	}
	return result, nil
}
