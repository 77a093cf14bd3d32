// Package climain contains every cfgwcec CLI command, following cortex's
// internal/cmd package shape: one package-scope *cobra.Command per
// subcommand, wired into rootCmd from an init() in the same file.
package climain

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cfgwcec/cfgwcec/internal/config"
)

// Version is the current version of cfgwcec.
var Version = "0.1.0"

var (
	flagConfigPath string
	flagArch       string
	flagCC         string
	flagCostTable  string
	flagOutput     string
	flagLogLevel   string
	flagLogJSON    bool
)

// rootCmd is the base command invoked when cfgwcec is run without a
// recognized subcommand; Args/RunE below delegate straight to the dvfs
// subcommand so `cfgwcec file.c` is a valid invocation on its own.
var rootCmd = &cobra.Command{
	Use:     "cfgwcec <file.c>",
	Short:   "Synthesize DVFS-aware C source from worst-case execution cost analysis",
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runDVFS(cmd, args)
	},
}

// Execute runs rootCmd (each subcommand file registers its command from
// init()). Called once by cmd/cfgwcec/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config file (default: discovered .cfgwcec.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagArch, "arch", "", "target architecture (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagCC, "cc", "", "cross-compiler executable (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagCostTable, "cost-table", "", "path to an instruction-cycle cost table (default: built-in table)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output file path (default derived from the input file)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit structured JSON logs instead of console output")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfigPath != "" {
		cfg, err = config.LoadFromPath(flagConfigPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, fmt.Errorf("climain: loading config: %w", err)
	}

	if flagArch != "" {
		cfg.Toolchain.Arch = flagArch
	}
	if flagCC != "" {
		cfg.Toolchain.CC = flagCC
	}
	if flagCostTable != "" {
		cfg.Toolchain.CostTablePath = flagCostTable
	}
	return cfg, nil
}

// logFlags emits one debug line per flag the user set explicitly, using
// pflag.FlagSet.Visit (only changed flags) rather than VisitAll so a
// default-heavy invocation doesn't drown the log in unchanged values.
func logFlags(cmd *cobra.Command, log zerolog.Logger) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		log.Debug().Str("flag", f.Name).Str("value", f.Value.String()).Msg("flag set explicitly")
	})
}
