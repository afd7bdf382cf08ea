package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/pullup/internal/errors"
)

// tomlConfig mirrors Config with toml tags. Zero values mean "not set"
// so the fold below can keep defaults in place.
type tomlConfig struct {
	Version int `toml:"version"`
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Source struct {
		Roots          []string `toml:"roots"`
		Include        []string `toml:"include"`
		Exclude        []string `toml:"exclude"`
		MaxFileSize    int64    `toml:"max_file_size"`
		FollowSymlinks bool     `toml:"follow_symlinks"`
	} `toml:"source"`
	Refactor struct {
		StubPolicy string `toml:"stub_policy"`
		Indent     string `toml:"indent"`
	} `toml:"refactor"`
	Performance struct {
		MaxGoroutines   int `toml:"max_goroutines"`
		ParseTimeoutSec int `toml:"parse_timeout_sec"`
	} `toml:"performance"`
	Output struct {
		SnapshotDir   string `toml:"snapshot_dir"`
		KeepSnapshots int    `toml:"keep_snapshots"`
	} `toml:"output"`
}

// LoadTOML loads configuration from .pullup.toml in dir. Like LoadKDL,
// a missing file returns (nil, nil).
func LoadTOML(dir string) (*Config, error) {
	path := filepath.Join(dir, ".pullup.toml")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewConfigError("file", path, err)
	}

	cfg, err := ParseTOML(string(content))
	if err != nil {
		return nil, errors.NewConfigError("toml", path, err)
	}
	resolveRoot(cfg, dir)
	return cfg, nil
}

// ParseTOML parses TOML config text over the defaults.
func ParseTOML(content string) (*Config, error) {
	var tc tomlConfig
	if err := toml.Unmarshal([]byte(content), &tc); err != nil {
		return nil, err
	}

	cfg := Default()
	if tc.Version != 0 {
		cfg.Version = tc.Version
	}
	if tc.Project.Root != "" {
		cfg.Project.Root = tc.Project.Root
	}
	cfg.Project.Name = tc.Project.Name
	if len(tc.Source.Roots) > 0 {
		cfg.Source.Roots = tc.Source.Roots
	}
	if len(tc.Source.Include) > 0 {
		cfg.Source.Include = tc.Source.Include
	}
	if len(tc.Source.Exclude) > 0 {
		cfg.Source.Exclude = tc.Source.Exclude
	}
	if tc.Source.MaxFileSize > 0 {
		cfg.Source.MaxFileSize = tc.Source.MaxFileSize
	}
	if tc.Source.FollowSymlinks {
		cfg.Source.FollowSymlinks = true
	}
	if tc.Refactor.StubPolicy != "" {
		cfg.Refactor.StubPolicy = tc.Refactor.StubPolicy
	}
	if tc.Refactor.Indent != "" {
		cfg.Refactor.Indent = tc.Refactor.Indent
	}
	if tc.Performance.MaxGoroutines > 0 {
		cfg.Performance.MaxGoroutines = tc.Performance.MaxGoroutines
	}
	if tc.Performance.ParseTimeoutSec > 0 {
		cfg.Performance.ParseTimeoutSec = tc.Performance.ParseTimeoutSec
	}
	if tc.Output.SnapshotDir != "" {
		cfg.Output.SnapshotDir = tc.Output.SnapshotDir
	}
	if tc.Output.KeepSnapshots > 0 {
		cfg.Output.KeepSnapshots = tc.Output.KeepSnapshots
	}
	return cfg, nil
}
