// Package session orchestrates one analysis run: parse → build CFG →
// extract assembly cost → propagate WCEC/RWCEC, tying together cast,
// cfgbuild, asmcost, and wcec exactly as nilaway.go's Analyzer.Run ties
// together its own passes, and as cortex's per-command functions in
// internal/cmd open a store, do work, and close it. Analyze keeps no state
// between calls: everything it builds is handed back in its Result.
package session

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/cfgwcec/cfgwcec/internal/asmcost"
	"github.com/cfgwcec/cfgwcec/internal/cast"
	"github.com/cfgwcec/cfgwcec/internal/cfgbuild"
	"github.com/cfgwcec/cfgwcec/internal/cfgnode"
	"github.com/cfgwcec/cfgwcec/internal/config"
	"github.com/cfgwcec/cfgwcec/internal/wcec"
)

// Options configures one Analyze call.
type Options struct {
	Toolchain config.ToolchainConfig
	Logger    zerolog.Logger
}

// Result is everything downstream sinks (dvfs, graphml, Show) need.
type Result struct {
	Graph   *cfgnode.Graph
	Source  []byte
	Lines   []string
	NumFunc int
}

// Analyze reads path, builds its CFG, and assigns WCEC/RWCEC to every node.
func Analyze(ctx context.Context, opts Options, path string) (*Result, error) {
	log := opts.Logger

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}
	log.Debug().Str("phase", "read").Str("file", path).Msg("read source")

	file, err := cast.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("session: parsing %s: %w", path, err)
	}
	log.Debug().Str("phase", "parse").Int("functions", len(file.Functions)).Msg("parsed translation unit")

	graph := cfgbuild.Build(file)
	log.Debug().Str("phase", "build").Msg("built CFG")

	extractor := &asmcost.Extractor{Toolchain: opts.Toolchain.CC, Arch: opts.Toolchain.Arch}
	asm, err := extractor.GenerateAssembly(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("session: extracting assembly for %s: %w", path, err)
	}
	lineTable := asmcost.ScanAssembly(asm)
	if err := asmcost.CheckLocBudget(lineTable, config.MaxLocLinesPerFunction); err != nil {
		return nil, fmt.Errorf("session: %s: %w", path, err)
	}
	log.Debug().Str("phase", "asmcost").Msg("extracted instruction-line table")

	cycles, err := loadCycleTable(opts.Toolchain.CostTablePath)
	if err != nil {
		return nil, fmt.Errorf("session: loading cost table: %w", err)
	}

	lines := wcec.SplitLines(source)
	if err := wcec.AssignWCEC(graph, lineTable, cycles, lines); err != nil {
		return nil, fmt.Errorf("session: assigning WCEC: %w", err)
	}
	wcec.PropagateRWCEC(graph)
	log.Debug().Str("phase", "wcec").Msg("propagated RWCEC")

	log.Info().Str("file", path).Int("functions", len(file.Functions)).Int("nodes", graph.NodeCount()).Msg("analysis complete")

	return &Result{
		Graph:   graph,
		Source:  source,
		Lines:   lines,
		NumFunc: len(file.Functions),
	}, nil
}

func loadCycleTable(path string) (asmcost.CycleTable, error) {
	if path == "" {
		return asmcost.DefaultCycleTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return asmcost.ParseCycleTable(f)
}
