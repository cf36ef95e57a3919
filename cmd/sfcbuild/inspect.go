package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pipe01/esbuild-plugin-vue3/internal/config"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/pipe01/esbuild-plugin-vue3/internal/loader"
	"github.com/pipe01/esbuild-plugin-vue3/internal/scopeid"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the blocks, scope id and generated stub of a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().String("scope-id", "hash", "scope id strategy (hash or random)")
	cmd.Flags().String("seed", "", "seed for the random scope id strategy")
	cmd.Flags().Bool("ssr", false, "generate the stub for server-side rendering")
	_ = a.v.BindPFlag("scope_id", cmd.Flags().Lookup("scope-id"))
	_ = a.v.BindPFlag("random_id_seed", cmd.Flags().Lookup("seed"))
	_ = a.v.BindPFlag("ssr", cmd.Flags().Lookup("ssr"))
	return cmd
}

func (a *app) inspect(w io.Writer, path string) error {
	fsys := fs.RealFS("")
	cwd := fsys.Cwd()
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	source, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Could not read %q: %w", path, err)
	}
	filename := helpers.PrettyPath(cwd, path)
	descriptor, err := sfc.Parse(source, filename)
	if err != nil {
		return err
	}

	ids := scopeid.NewGenerator(a.scopeIDStrategy(), a.v.GetString("random_id_seed"), cwd)
	id := ids.ScopeID(path)
	a.logger.Debug("Parsed", "file", filename, "styles", len(descriptor.Styles))

	fmt.Fprintf(w, "file:     %s\n", filename)
	fmt.Fprintf(w, "scope id: %s\n", id)
	fmt.Fprintf(w, "blocks:\n")
	if block := descriptor.Template; block != nil {
		fmt.Fprintf(w, "  template        %s\n", describeBlock(block, ""))
	}
	if block := descriptor.Script; block != nil {
		fmt.Fprintf(w, "  script          %s\n", describeBlock(&block.Block, ""))
	}
	if block := descriptor.ScriptSetup; block != nil {
		fmt.Fprintf(w, "  script setup    %s\n", describeBlock(&block.Block, ""))
	}
	for i, style := range descriptor.Styles {
		var flags []string
		if style.Scoped {
			flags = append(flags, "scoped")
		}
		if style.Module != "" {
			flags = append(flags, "module="+style.Module)
		}
		fmt.Fprintf(w, "  style[%d]        %s\n", i, describeBlock(&style.Block, strings.Join(flags, " ")))
	}

	fmt.Fprintf(w, "\nstub:\n")
	fmt.Fprint(w, loader.GenerateStub(loader.StubInput{
		Descriptor: descriptor,
		Base:       "./" + filepath.Base(path),
		Filename:   filename,
		ScopeID:    id,
		RenderFunc: config.RenderFuncName(a.v.GetBool("ssr")),
	}))
	return nil
}

func describeBlock(block *sfc.Block, flags string) string {
	lang := block.Lang
	if lang == "" {
		lang = "default"
	}
	first := block.LineOffset + 1
	last := block.LineOffset + strings.Count(block.Content, "\n") + 1
	text := fmt.Sprintf("lang=%s lines=%d-%d", lang, first, last)
	if flags != "" {
		text += " " + flags
	}
	return text
}
