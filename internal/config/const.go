package config

// This file hosts non-user-configurable parameters.

// MaxLocLinesPerFunction caps how many distinct .loc-attributed source
// lines one function's assembly listing may claim before the extractor
// treats it as a malformed or truncated listing rather than a legitimately
// large function. asmcost.CheckLocBudget enforces this.
const MaxLocLinesPerFunction = 4096

// DefaultOutputSuffix is appended to a source file's stem to name the
// generated DVFS-instrumented file when no output path is given, e.g.
// loop.c -> loop_dvfs.c.
const DefaultOutputSuffix = "_dvfs"

// RuntimeHeaderName is the filename the DVFS runtime side-car is written
// under, alongside the generated source.
const RuntimeHeaderName = "cfg_wcec.h"
