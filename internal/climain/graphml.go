package climain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cfgwcec/cfgwcec/internal/cxlog"
	"github.com/cfgwcec/cfgwcec/internal/graphml"
	"github.com/cfgwcec/cfgwcec/internal/session"
)

// graphmlCmd writes the CFG to the parallel GraphML sink, matching the
// original project's gen_graphml.py.
var graphmlCmd = &cobra.Command{
	Use:   "graphml <file.c>",
	Short: "Write the CFG as a GraphML document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphML,
}

func init() {
	rootCmd.AddCommand(graphmlCmd)
}

func runGraphML(cmd *cobra.Command, args []string) error {
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

	outPath := flagOutput
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = strings.TrimSuffix(path, ext) + ".graphml"
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("climain: creating %s: %w", outPath, err)
	}
	defer f.Close()

	if err := graphml.Write(f, result.Graph); err != nil {
		return fmt.Errorf("climain: writing %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
	return nil
}
