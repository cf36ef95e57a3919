package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/exitcode"
	"github.com/pipe01/esbuild-plugin-vue3/internal/scopeid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// State shared by all subcommands of one invocation
type app struct {
	v       *viper.Viper
	logger  *log.Logger
	cfgFile string
	verbose bool
}

type pathAlias struct {
	Pattern string `mapstructure:"pattern"`
	Target  string `mapstructure:"target"`
}

func newRootCmd() *cobra.Command {
	a := &app{
		v: viper.New(),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "sfcbuild",
			Level:  log.InfoLevel,
		}),
	}
	a.v.SetDefault("extension", ".vue")
	a.v.SetDefault("scope_id", "hash")
	a.v.SetDefault("html.prefix", "/")
	a.v.SetEnvPrefix("SFC")
	a.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "sfcbuild",
		Short: "Inspect single-file components and post-process their builds",
		Long: `sfcbuild exposes the pieces of the esbuild single-file component plugin
on the command line: how a component is split into modules, how import
paths are aliased and how the HTML document is generated after a build.

Settings are read from sfc.yaml, sfc.toml or sfc.json in the working
directory (or the file given with --config) and from SFC_* environment
variables. Flags take precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./sfc.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newAliasCmd(a))
	cmd.AddCommand(newHTMLCmd(a))
	return cmd
}

func (a *app) loadConfig() error {
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigName("sfc")
		a.v.AddConfigPath(".")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return exitcode.Set(err, exitcode.Config)
		}
		a.logger.Debug("No config file found")
		return nil
	}
	a.logger.Debug("Loaded config", "file", a.v.ConfigFileUsed())
	return nil
}

func (a *app) scopeIDStrategy() scopeid.Strategy {
	if a.v.GetString("scope_id") == "random" {
		return scopeid.StrategyRandom
	}
	return scopeid.StrategyHash
}

func (a *app) aliasSource() (alias.Source, error) {
	source := alias.Source{
		Disabled: a.v.GetBool("disable_path_aliases"),
		Tsconfig: a.v.GetString("tsconfig"),
	}
	if a.v.IsSet("path_aliases") {
		var entries []pathAlias
		if err := a.v.UnmarshalKey("path_aliases", &entries); err != nil {
			return source, &alias.ConfigParseError{Path: a.v.ConfigFileUsed(), Err: err}
		}
		source.Mappings = make([]alias.Mapping, 0, len(entries))
		for _, entry := range entries {
			source.Mappings = append(source.Mappings, alias.Mapping{Pattern: entry.Pattern, Target: entry.Target})
		}
	}
	return source, nil
}
