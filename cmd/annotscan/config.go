package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigName is looked up in the scan target when --config is unset.
const defaultConfigName = ".annotscan.yaml"

// fileConfig supplies defaults for scan flags the user did not set.
type fileConfig struct {
	Rules        string   `yaml:"rules"`
	RulesInclude string   `yaml:"rules_include"`
	RulesExclude string   `yaml:"rules_exclude"`
	Extensions   []string `yaml:"extensions"`
	Excludes     []string `yaml:"excludes"`
	ContextLines *int     `yaml:"context_lines"`
	MaxFileSize  *int64   `yaml:"max_file_size"`
	Dedupe       string   `yaml:"dedupe"`
}

// loadConfig reads a config file. When path is empty the default file in
// target is tried, and a missing default is not an error. A relative rules
// path is resolved against the config file's directory.
func loadConfig(path, target string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		dir := target
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			dir = filepath.Dir(target)
		}
		path = filepath.Join(dir, defaultConfigName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Relative rule paths are relative to the config file.
	if cfg.Rules != "" && !filepath.IsAbs(cfg.Rules) {
		cfg.Rules = filepath.Join(filepath.Dir(path), cfg.Rules)
	}
	return &cfg, nil
}

// applyScanConfig copies config values into scan flags left at their defaults.
func applyScanConfig(cmd *cobra.Command, cfg *fileConfig) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if cfg.Rules != "" && !changed("rules") {
		scanRulesPath = cfg.Rules
	}
	if cfg.RulesInclude != "" && !changed("rules-include") {
		scanRulesInclude = cfg.RulesInclude
	}
	if cfg.RulesExclude != "" && !changed("rules-exclude") {
		scanRulesExclude = cfg.RulesExclude
	}
	if len(cfg.Extensions) > 0 && !changed("extensions") {
		scanExtensions = cfg.Extensions
	}
	if len(cfg.Excludes) > 0 {
		// Excludes from the file and the command line add up.
		scanExcludes = append(append([]string{}, cfg.Excludes...), scanExcludes...)
	}
	if cfg.ContextLines != nil && !changed("context-lines") {
		scanContextLines = *cfg.ContextLines
	}
	if cfg.MaxFileSize != nil && !changed("max-file-size") {
		scanMaxFileSize = *cfg.MaxFileSize
	}
	if cfg.Dedupe != "" && !changed("dedupe") {
		scanDedupe = cfg.Dedupe
	}
}
