package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/refactor"
)

const kdlTemplate = `// pullup configuration
// Pull-Up-Method refactoring for Java codebases

version 1

project {
    root "."
    // name "my-project"
}

source {
    // roots "src/main/java" "src/test/java"
    // include "**/*.java"
    max_file_size "10MB"           // skip sources larger than this
    follow_symlinks false
}

refactor {
    stub_policy "throw"            // "throw" or "default-value"
    indent "    "
}

performance {
    // max_goroutines 8            // default: number of CPUs
    parse_timeout_sec 60
}

output {
    snapshot_dir ".pullup/snapshots"
    keep_snapshots 10
}
`

const tomlTemplate = `# pullup configuration
# Pull-Up-Method refactoring for Java codebases

version = 1

[project]
root = "."
# name = "my-project"

[source]
# roots = ["src/main/java", "src/test/java"]
# include = ["**/*.java"]
max_file_size = 10485760  # bytes
follow_symlinks = false

[refactor]
stub_policy = "throw"  # "throw" or "default-value"
indent = "    "

[performance]
# max_goroutines = 8   # default: number of CPUs
parse_timeout_sec = 60

[output]
snapshot_dir = ".pullup/snapshots"
keep_snapshots = 10
`

func configInitCommand(c *cli.Context) error {
	format := c.String("format")
	output := c.String("output")

	if output == "" {
		switch format {
		case "kdl":
			output = ".pullup.kdl"
		case "toml":
			output = ".pullup.toml"
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}
	}

	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", output)
		}
	}

	var content string
	switch format {
	case "kdl":
		content = kdlTemplate
	case "toml":
		content = tomlTemplate
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	fmt.Printf("Configuration file created: %s\n", output)
	fmt.Printf("Edit the file to customize settings for your project.\n")

	if format == "kdl" {
		fmt.Printf("\nCommon customizations:\n")
		fmt.Printf("  - Add extra source trees: roots \"src/main/java\" \"src/test/java\"\n")
		fmt.Printf("  - Change stub bodies: stub_policy \"default-value\"\n")
	}
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	fmt.Print(renderKDL(cfg))
	return nil
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		fmt.Printf("✗ Configuration validation failed: %v\n", err)
		return err
	}

	warnings := []string{}
	if _, err := refactor.ParseStubPolicy(cfg.Refactor.StubPolicy); err != nil {
		warnings = append(warnings, fmt.Sprintf("%v, runs will fall back to throw", err))
	}
	if strings.Trim(cfg.Refactor.Indent, " \t") != "" {
		warnings = append(warnings, fmt.Sprintf("indent %q contains non-whitespace characters", cfg.Refactor.Indent))
	}
	if cfg.Source.MaxFileSize < 1024 {
		warnings = append(warnings, "max_file_size is very low (<1KB), most sources will be skipped")
	}
	for _, root := range cfg.SourceRoots() {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("source root %s is not a directory", root))
		}
	}

	fmt.Printf("✓ Configuration is valid\n")
	fmt.Printf("  Project root: %s\n", cfg.Project.Root)
	fmt.Printf("  Settings: stub policy %s, max file size %d bytes, keep %d snapshots\n",
		cfg.Refactor.StubPolicy, cfg.Source.MaxFileSize, cfg.Output.KeepSnapshots)

	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, warning := range warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}
	return nil
}

// renderKDL writes the effective config in the same shape ParseKDL
// reads, so the output can be saved straight back as a config file.
func renderKDL(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "version %d\n\n", cfg.Version)

	fmt.Fprintf(&b, "project {\n")
	fmt.Fprintf(&b, "    root %q\n", cfg.Project.Root)
	if cfg.Project.Name != "" {
		fmt.Fprintf(&b, "    name %q\n", cfg.Project.Name)
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "source {\n")
	if len(cfg.Source.Roots) > 0 {
		fmt.Fprintf(&b, "    roots%s\n", quoteArgs(cfg.Source.Roots))
	}
	if len(cfg.Source.Include) > 0 {
		fmt.Fprintf(&b, "    include%s\n", quoteArgs(cfg.Source.Include))
	}
	if len(cfg.Source.Exclude) > 0 {
		fmt.Fprintf(&b, "    exclude%s\n", quoteArgs(cfg.Source.Exclude))
	}
	fmt.Fprintf(&b, "    max_file_size %d\n", cfg.Source.MaxFileSize)
	fmt.Fprintf(&b, "    follow_symlinks %v\n", cfg.Source.FollowSymlinks)
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "refactor {\n")
	fmt.Fprintf(&b, "    stub_policy %q\n", cfg.Refactor.StubPolicy)
	fmt.Fprintf(&b, "    indent %q\n", cfg.Refactor.Indent)
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "performance {\n")
	fmt.Fprintf(&b, "    max_goroutines %d\n", cfg.Performance.MaxGoroutines)
	fmt.Fprintf(&b, "    parse_timeout_sec %d\n", cfg.Performance.ParseTimeoutSec)
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "output {\n")
	fmt.Fprintf(&b, "    snapshot_dir %q\n", cfg.Output.SnapshotDir)
	fmt.Fprintf(&b, "    keep_snapshots %d\n", cfg.Output.KeepSnapshots)
	fmt.Fprintf(&b, "}\n")
	return b.String()
}

func quoteArgs(vals []string) string {
	var b strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&b, " %q", v)
	}
	return b.String()
}
