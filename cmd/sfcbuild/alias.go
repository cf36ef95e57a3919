package main

import (
	"fmt"
	"io"

	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/spf13/cobra"
)

func newAliasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias [specifier...]",
		Short: "Show the path alias rules or how they rewrite specifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.alias(cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().String("tsconfig", "", "tsconfig file to read \"paths\" from (default is ./tsconfig.json)")
	_ = a.v.BindPFlag("tsconfig", cmd.Flags().Lookup("tsconfig"))
	return cmd
}

func (a *app) alias(w io.Writer, specifiers []string) error {
	source, err := a.aliasSource()
	if err != nil {
		return err
	}
	rules, err := alias.Load(fs.RealFS(""), source)
	if err != nil {
		return err
	}
	a.logger.Debug("Loaded path aliases", "count", rules.Len())

	if len(specifiers) == 0 {
		if rules.Len() == 0 {
			fmt.Fprintln(w, "no path aliases")
			return nil
		}
		for _, rule := range rules.Rules() {
			fmt.Fprintf(w, "%s -> %s\n", rule.Regexp.String(), rule.Replacement)
		}
		return nil
	}

	for _, specifier := range specifiers {
		fmt.Fprintf(w, "%s -> %s\n", specifier, rules.Apply(specifier))
	}
	return nil
}
