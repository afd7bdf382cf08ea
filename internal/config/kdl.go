package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/pullup/internal/errors"
)

// LoadKDL loads configuration from .pullup.kdl in dir. A missing file
// is not an error; it returns (nil, nil) so the caller can fall back.
func LoadKDL(dir string) (*Config, error) {
	path := filepath.Join(dir, ".pullup.kdl")
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewConfigError("file", path, err)
	}

	cfg, err := ParseKDL(string(content))
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, dir)
	return cfg, nil
}

// ParseKDL parses KDL config text over the defaults.
func ParseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, errors.NewConfigError("kdl", "", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "root":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Root = s
					}
				case "name":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Name = s
					}
				}
			}
		case "source":
			// an explicit exclude list replaces the built-in one
			var excludes []string
			sawExclude := false
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "roots":
					cfg.Source.Roots = append(cfg.Source.Roots, collectStringArgs(cn)...)
				case "include":
					cfg.Source.Include = append(cfg.Source.Include, collectStringArgs(cn)...)
				case "exclude":
					sawExclude = true
					excludes = append(excludes, collectStringArgs(cn)...)
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Source.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Source.MaxFileSize = sz
						}
					}
				case "follow_symlinks":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Source.FollowSymlinks = b
					}
				}
			}
			if sawExclude {
				cfg.Source.Exclude = excludes
			}
		case "refactor":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "stub_policy":
					if s, ok := firstStringArg(cn); ok {
						cfg.Refactor.StubPolicy = s
					}
				case "indent":
					if s, ok := firstStringArg(cn); ok {
						cfg.Refactor.Indent = s
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_goroutines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.MaxGoroutines = v
					}
				case "parse_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParseTimeoutSec = v
					}
				}
			}
		case "output":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "snapshot_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Output.SnapshotDir = s
					}
				case "keep_snapshots":
					if v, ok := firstIntArg(cn); ok {
						cfg.Output.KeepSnapshots = v
					}
				}
			}
		}
	}
	return cfg, nil
}

func resolveRoot(cfg *Config, dir string) {
	if cfg == nil {
		return
	}
	if cfg.Project.Root == "" || cfg.Project.Root == "." {
		cfg.Project.Root = absOr(dir)
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}
	for i, root := range cfg.Source.Roots {
		if !filepath.IsAbs(root) {
			cfg.Source.Roots[i] = filepath.Clean(filepath.Join(dir, root))
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// parseSize understands "10MB", "512KB" and bare byte counts.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		mult, s = 1024*1024*1024, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		mult, s = 1024, strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mult, nil
}
