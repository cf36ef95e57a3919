package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pipe01/esbuild-plugin-vue3/internal/exitcode"
	"github.com/pipe01/esbuild-plugin-vue3/internal/htmlinject"
	"github.com/spf13/cobra"
	minhtml "github.com/tdewolff/minify/v2/html"
	"github.com/viant/afs"
)

func newHTMLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Inject the outputs listed in an esbuild metafile into an HTML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.html(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("metafile", "", "metafile written by esbuild (required)")
	flags.String("template", "", "HTML document to inject into")
	flags.String("out", "", "where to write the generated document")
	flags.String("trim", "", "text to remove from every output path")
	flags.String("trim-regexp", "", "regular expression to remove from every output path")
	flags.String("prefix", "/", "prefix to add to every output path")
	flags.String("inline-css", "", "CSS file to embed in a <style> element")
	flags.Bool("minify", false, "minify the generated document")
	flags.Bool("keep-document-tags", false, "keep <html>, <head> and <body> when minifying")
	flags.Bool("keep-end-tags", false, "keep optional end tags when minifying")
	_ = cmd.MarkFlagRequired("metafile")

	for key, flag := range map[string]string{
		"html.template":    "template",
		"html.out":         "out",
		"html.trim":        "trim",
		"html.trim_regexp": "trim-regexp",
		"html.prefix":      "prefix",
		"html.minify":      "minify",

		"html.keep_document_tags": "keep-document-tags",
		"html.keep_end_tags":      "keep-end-tags",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	_ = a.v.BindPFlag("html.metafile", flags.Lookup("metafile"))
	_ = a.v.BindPFlag("html.inline_css", flags.Lookup("inline-css"))
	return cmd
}

func (a *app) html(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	storage := afs.New()

	metafile, err := storage.DownloadWithURL(ctx, a.v.GetString("html.metafile"))
	if err != nil {
		return fmt.Errorf("Could not read the metafile: %w", err)
	}

	options := htmlinject.Options{
		OriginalFile: a.v.GetString("html.template"),
		OutFile:      a.v.GetString("html.out"),
		PathPrefix:   a.v.GetString("html.prefix"),
		TrimPath:     a.v.GetString("html.trim"),
		Minify:       a.v.GetBool("html.minify"),
	}
	if options.Minify {
		options.MinifyOptions = &minhtml.Minifier{
			KeepDocumentTags: a.v.GetBool("html.keep_document_tags"),
			KeepEndTags:      a.v.GetBool("html.keep_end_tags"),
		}
	}
	if options.OriginalFile == "" {
		return exitcode.Set(fmt.Errorf("No HTML template was given"), exitcode.HTML)
	}
	if pattern := a.v.GetString("html.trim_regexp"); pattern != "" {
		if options.TrimPattern, err = regexp.Compile(pattern); err != nil {
			return exitcode.Set(fmt.Errorf("Invalid --trim-regexp: %w", err), exitcode.HTML)
		}
	}

	var inlineCSS string
	if file := a.v.GetString("html.inline_css"); file != "" {
		css, err := storage.DownloadWithURL(ctx, file)
		if err != nil {
			return fmt.Errorf("Could not read %q: %w", file, err)
		}
		inlineCSS = string(css)
	}

	return htmlinject.New(storage, a.logger).Inject(ctx, string(metafile), options, inlineCSS)
}
