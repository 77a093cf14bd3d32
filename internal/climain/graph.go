package climain

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cfgwcec/cfgwcec/internal/cxlog"
	"github.com/cfgwcec/cfgwcec/internal/session"
)

// graphCmd dumps the built CFG in the same human-readable tree shape the
// original project's explore_cfg.py prints.
var graphCmd = &cobra.Command{
	Use:   "graph <file.c>",
	Short: "Print the CFG built from a C source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cxlog.New(cxlog.Options{Level: flagLogLevel, JSON: flagLogJSON})

	result, err := session.Analyze(cmd.Context(), session.Options{Toolchain: cfg.Toolchain, Logger: log}, path)
	if err != nil {
		return err
	}

	for i := range result.Graph.Entries() {
		result.Graph.Show(cmd.OutOrStdout(), i)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d functions, %d nodes\n", result.NumFunc, result.Graph.NodeCount())
	return nil
}
