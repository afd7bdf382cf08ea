package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/pullup/internal/errors"
)

// Config carries every tunable the tool reads. Values come from
// .pullup.kdl (or .pullup.toml) in the project root, layered over an
// optional ~/.pullup.kdl base.
type Config struct {
	Version     int
	Project     Project
	Source      Source
	Refactor    Refactor
	Performance Performance
	Output      Output
}

type Project struct {
	Root string
	Name string
}

// Source controls which files the parser collects. Roots lists extra
// source trees beyond the project root; empty means the project root
// alone.
type Source struct {
	Roots          []string
	Include        []string
	Exclude        []string
	MaxFileSize    int64
	FollowSymlinks bool
}

// Refactor holds migration policy knobs.
type Refactor struct {
	StubPolicy string // "throw" or "default-value"
	Indent     string // indentation unit for synthesized bodies
}

type Performance struct {
	MaxGoroutines   int
	ParseTimeoutSec int
}

// Output controls where rewritten files and snapshots land.
type Output struct {
	SnapshotDir   string
	KeepSnapshots int // oldest snapshots beyond this count are pruned; 0 keeps all
}

// Load reads configuration for the given project directory.
func Load(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}

	var base *Config
	if home, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(home); err == nil && globalCfg != nil {
			base = globalCfg
		}
	}

	project, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}
	if project == nil {
		if project, err = LoadTOML(searchDir); err != nil {
			return nil, err
		}
	}

	switch {
	case base != nil && project != nil:
		return mergeConfigs(base, project), nil
	case project != nil:
		return project, nil
	case base != nil:
		base.Project.Root = absOr(searchDir)
		return base, nil
	}

	cfg := Default()
	cfg.Project.Root = absOr(searchDir)
	return cfg, nil
}

// LoadFile reads one specific config file, dispatching on extension:
// .toml parses as TOML, everything else as KDL. Relative paths inside
// the file resolve against the file's directory.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("file", path, err)
	}

	var cfg *Config
	if filepath.Ext(path) == ".toml" {
		if cfg, err = ParseTOML(string(content)); err != nil {
			return nil, errors.NewConfigError("toml", path, err)
		}
	} else {
		if cfg, err = ParseKDL(string(content)); err != nil {
			return nil, err
		}
	}
	resolveRoot(cfg, filepath.Dir(path))
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: "."},
		Source: Source{
			Roots:          nil,
			Include:        []string{},
			Exclude:        defaultExcludes(),
			MaxFileSize:    10 * 1024 * 1024,
			FollowSymlinks: false,
		},
		Refactor: Refactor{
			StubPolicy: "throw",
			Indent:     "    ",
		},
		Performance: Performance{
			MaxGoroutines:   runtime.NumCPU(),
			ParseTimeoutSec: 60,
		},
		Output: Output{
			SnapshotDir:   ".pullup/snapshots",
			KeepSnapshots: 10,
		},
	}
}

// SourceRoots returns the trees the parser walks: the configured
// source roots, or the project root alone when none are set.
func (c *Config) SourceRoots() []string {
	if len(c.Source.Roots) > 0 {
		return c.Source.Roots
	}
	return []string{c.Project.Root}
}

func defaultExcludes() []string {
	return []string{
		"**/.git/**",
		"**/target/**",
		"**/build/**",
		"**/out/**",
		"**/bin/**",
		"**/generated/**",
		"**/generated-sources/**",
		"**/node_modules/**",
		"**/*.class",
	}
}

// mergeConfigs layers a project config over a base config. The project
// wins field by field; exclusion patterns are unioned so a global
// ignore list keeps working under any project.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Source.Exclude) > 0 {
		seen := make(map[string]bool, len(base.Source.Exclude)+len(project.Source.Exclude))
		var patterns []string
		for _, p := range base.Source.Exclude {
			if !seen[p] {
				seen[p] = true
				patterns = append(patterns, p)
			}
		}
		for _, p := range project.Source.Exclude {
			if !seen[p] {
				seen[p] = true
				patterns = append(patterns, p)
			}
		}
		merged.Source.Exclude = patterns
	}

	if len(merged.Source.Roots) == 0 {
		merged.Source.Roots = base.Source.Roots
	}
	if len(merged.Source.Include) == 0 {
		merged.Source.Include = base.Source.Include
	}
	if merged.Refactor.StubPolicy == "" {
		merged.Refactor.StubPolicy = base.Refactor.StubPolicy
	}
	if merged.Refactor.Indent == "" {
		merged.Refactor.Indent = base.Refactor.Indent
	}
	if merged.Performance.MaxGoroutines == 0 {
		merged.Performance.MaxGoroutines = base.Performance.MaxGoroutines
	}
	if merged.Performance.ParseTimeoutSec == 0 {
		merged.Performance.ParseTimeoutSec = base.Performance.ParseTimeoutSec
	}
	if merged.Output.SnapshotDir == "" {
		merged.Output.SnapshotDir = base.Output.SnapshotDir
	}
	if merged.Output.KeepSnapshots == 0 {
		merged.Output.KeepSnapshots = base.Output.KeepSnapshots
	}
	return &merged
}

func absOr(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
