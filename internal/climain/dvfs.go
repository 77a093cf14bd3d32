package climain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cfgwcec/cfgwcec/internal/cxlog"
	"github.com/cfgwcec/cfgwcec/internal/dvfs"
	"github.com/cfgwcec/cfgwcec/internal/session"
)

// dvfsCmd is also reachable as the bare root command (see root.go's RunE),
// matching the original project's gen_dvfs_code.py being its default entry
// point.
var dvfsCmd = &cobra.Command{
	Use:   "dvfs <file.c>",
	Short: "Build the CFG, compute WCEC/RWCEC, and write DVFS-instrumented source",
	Args:  cobra.ExactArgs(1),
	RunE:  runDVFS,
}

func init() {
	rootCmd.AddCommand(dvfsCmd)
}

func runDVFS(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cxlog.New(cxlog.Options{Level: flagLogLevel, JSON: flagLogJSON})
	logFlags(cmd, log)

	result, err := session.Analyze(cmd.Context(), session.Options{Toolchain: cfg.Toolchain, Logger: log}, path)
	if err != nil {
		return err
	}

	out, err := dvfs.Synthesize(result.Graph, result.Source)
	if err != nil {
		return fmt.Errorf("climain: synthesizing DVFS code for %s: %w", path, err)
	}

	outPath := flagOutput
	if outPath == "" {
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(path, ext)
		outPath = stem + cfg.Output.Suffix + ext
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("climain: writing %s: %w", outPath, err)
	}

	headerPath := filepath.Join(filepath.Dir(outPath), "cfg_wcec.h")
	if err := os.WriteFile(headerPath, dvfs.RuntimeHeader(), 0o644); err != nil {
		return fmt.Errorf("climain: writing %s: %w", headerPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", outPath, headerPath)
	return nil
}
