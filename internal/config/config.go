// Package config loads the user-tunable knobs of a cfgwcec run from
// .cfgwcec.yaml, discovered by walking up from the working directory, the
// same discovery algorithm hargabyte-cortex's FindConfigDir uses for its
// own .cx/config.yaml. Non-user-tunable parameters live in const.go instead,
// matching uber-go-nilaway's config package split between flags and
// baked-in constants.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the cfgwcec configuration file.
const FileName = ".cfgwcec.yaml"

// ErrConfigNotFound is returned by FindConfigFile when no config file is
// reachable by walking up from the start directory.
var ErrConfigNotFound = errors.New("config: no .cfgwcec.yaml found")

// Config holds all cfgwcec configuration.
type Config struct {
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Output    OutputConfig    `yaml:"output"`
}

// ToolchainConfig configures the cross-compiler the cost extractor shells
// out to.
type ToolchainConfig struct {
	Arch          string `yaml:"arch"`
	CC            string `yaml:"cc"`
	CostTablePath string `yaml:"cost_table"`
}

// OutputConfig configures where and how generated artifacts are written.
type OutputConfig struct {
	Suffix string `yaml:"suffix"`
}

// Default returns configuration with sensible defaults, used when no
// config file exists or when a loaded file is missing specific fields.
func Default() *Config {
	return &Config{
		Toolchain: ToolchainConfig{
			Arch: "armv4t",
			CC:   "arm-none-linux-gnueabi-gcc",
		},
		Output: OutputConfig{
			Suffix: DefaultOutputSuffix,
		},
	}
}

// Load reads config starting from workDir, walking up the directory tree
// looking for FileName. If none is found, returns Default.
func Load(workDir string) (*Config, error) {
	path, err := FindConfigFile(workDir)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from a specific path, merging onto defaults so
// a partial file never zeroes out the rest.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return fillDefaults(cfg), nil
}

func fillDefaults(cfg *Config) *Config {
	d := Default()
	if cfg.Toolchain.Arch == "" {
		cfg.Toolchain.Arch = d.Toolchain.Arch
	}
	if cfg.Toolchain.CC == "" {
		cfg.Toolchain.CC = d.Toolchain.CC
	}
	if cfg.Output.Suffix == "" {
		cfg.Output.Suffix = d.Output.Suffix
	}
	return cfg
}

// FindConfigFile walks up from start looking for FileName, the same
// upward-search algorithm cortex's FindConfigDir uses for .cx/config.yaml.
func FindConfigFile(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("config: resolving %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}
