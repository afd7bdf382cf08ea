package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/display"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/mcp"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/parser"
	"github.com/standardbeagle/pullup/internal/refactor"
	"github.com/standardbeagle/pullup/internal/suggest"
	"github.com/standardbeagle/pullup/internal/version"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration and applies CLI flag
// overrides on top of it.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		root := c.String("root")
		if root == "" {
			root = "."
		}
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if sources := c.StringSlice("source"); len(sources) > 0 {
		roots := make([]string, 0, len(sources))
		for _, s := range sources {
			abs, err := filepath.Abs(s)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve source root %q: %w", s, err)
			}
			roots = append(roots, abs)
		}
		cfg.Source.Roots = roots
	}
	return cfg, nil
}

// buildModel parses the configured source roots into a linked model.
// Unparseable files are reported to stderr and skipped.
func buildModel(ctx context.Context, cfg *config.Config) (*model.Model, error) {
	result, err := parser.NewBuilder(cfg).Build(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stderr, "warning: skipped %s: %v\n", s.Path, s.Err)
	}
	return result.Model, nil
}

// refactorOptions maps config onto engine options.
func refactorOptions(cfg *config.Config) refactor.Options {
	policy, err := refactor.ParseStubPolicy(cfg.Refactor.StubPolicy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using throw\n", err)
	}
	return refactor.Options{StubPolicy: policy}
}

// paramTypes parses --param-types into an overload selector. An unset
// flag means the first overload wins; an empty value selects the
// zero-argument overload.
func paramTypes(c *cli.Context) []string {
	if !c.IsSet("param-types") {
		return nil
	}
	types := []string{}
	for _, p := range strings.Split(c.String("param-types"), ",") {
		if t := strings.TrimSpace(p); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printResult renders a successful run the way the MCP tool does.
func printResult(res *refactor.Result, dryRun bool) {
	fmt.Println("✓ Refactoring successful!")
	fmt.Println("  " + res.Message)
	if len(res.ModifiedFiles) > 0 {
		if dryRun {
			fmt.Println("  Would modify:")
		} else {
			fmt.Println("  Modified files:")
		}
		for _, file := range res.ModifiedFiles {
			fmt.Println("    " + file)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Println("  Warnings:")
		for _, warning := range res.Warnings {
			fmt.Println("    ⚠ " + warning)
		}
	}
}

func main() {
	app := &cli.App{
		Name:                   "pullup",
		Usage:                  "Pull-Up-Method refactoring for Java codebases",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: .pullup.kdl or .pullup.toml in the project root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source root to parse, repeatable (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Show debug information",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Resolve and check but write nothing",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.EnableDebug = "true"
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Pull a method up to an ancestor class and rewrite the sources",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "class",
						Usage:    "Class currently declaring the method",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "method",
						Usage:    "Method to move",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Destination ancestor (default: the direct superclass)",
					},
					&cli.StringFlag{
						Name:  "param-types",
						Usage: "Parameter types selecting one overload, comma separated (e.g. int,String)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write rewritten files under this directory instead of in place",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output the result as JSON",
					},
				},
				Action: runCommand,
			},
			{
				Name:    "plan",
				Aliases: []string{"check"},
				Usage:   "Dry-run a pull-up and report what would move",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "class",
						Usage:    "Class currently declaring the method",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "method",
						Usage:    "Method to move",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Destination ancestor (default: the direct superclass)",
					},
					&cli.StringFlag{
						Name:  "param-types",
						Usage: "Parameter types selecting one overload, comma separated",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output the report as JSON",
					},
				},
				Action: planCommand,
			},
			{
				Name:      "hierarchy",
				Aliases:   []string{"tree"},
				Usage:     "Show the ancestor chain and descendants of a class",
				ArgsUsage: "<class>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "files",
						Usage: "Show the declaring file of each class",
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Limit descendant depth (0 = unlimited)",
					},
				},
				Action: hierarchyCommand,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List parsed classes and their method signatures",
				Action:  listCommand,
			},
			{
				Name:  "snapshot",
				Usage: "Manage refactoring snapshots",
				Subcommands: []*cli.Command{
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List saved snapshots, newest last",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "json",
								Aliases: []string{"j"},
								Usage:   "Output as JSON",
							},
						},
						Action: snapshotListCommand,
					},
					{
						Name:      "restore",
						Usage:     "Restore a snapshot, overwriting the current files",
						ArgsUsage: "[stamp]",
						Action:    snapshotRestoreCommand,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Configuration management commands",
				Subcommands: []*cli.Command{
					{
						Name:    "init",
						Aliases: []string{"i"},
						Usage:   "Write a starter configuration file",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: kdl, toml",
								Value:   "kdl",
							},
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file path",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing configuration file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration as KDL",
						Action: configShowCommand,
					},
					{
						Name:   "validate",
						Usage:  "Check the configuration for problems",
						Action: configValidateCommand,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP (Model Context Protocol) server on stdio",
				Action: mcpCommand,
			},
		},
		Action: func(c *cli.Context) error {
			// MCP clients exec the binary with piped stdio and no
			// arguments; detect that and serve instead of printing help.
			if isMCPMode() {
				debug.LogMCP("auto-detected MCP client on stdin, entering server mode")
				return mcpCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	m, err := buildModel(c.Context, cfg)
	if err != nil {
		return err
	}

	orch := refactor.NewOrchestrator(m, refactorOptions(cfg))
	res, err := orch.PullUpOverload(c.String("class"), c.String("method"), paramTypes(c), c.String("target"))
	if err != nil {
		return refactorFailed(c, err)
	}

	dryRun := c.Bool("dry-run")
	if !dryRun {
		if err := refactor.Commit(m, res, refactor.CommitOptions{
			Roots:         cfg.SourceRoots(),
			OutputDir:     c.String("output"),
			Indent:        cfg.Refactor.Indent,
			SnapshotDir:   cfg.Output.SnapshotDir,
			KeepSnapshots: cfg.Output.KeepSnapshots,
		}); err != nil {
			return refactorFailed(c, err)
		}
	}

	if c.Bool("json") {
		return printJSON(res)
	}
	printResult(res, dryRun)
	return nil
}

// refactorFailed renders a failed run and maps it to a non-zero exit.
func refactorFailed(c *cli.Context, err error) error {
	if c.Bool("json") {
		_ = printJSON(refactor.Result{Success: false, Message: err.Error()})
		return cli.Exit("", 1)
	}
	return cli.Exit("✗ Refactoring failed!\n  "+err.Error(), 1)
}

func planCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	m, err := buildModel(c.Context, cfg)
	if err != nil {
		return err
	}

	orch := refactor.NewOrchestrator(m, refactorOptions(cfg))
	report, err := orch.CheckOverload(c.String("class"), c.String("method"), paramTypes(c), c.String("target"))
	if err != nil {
		return cli.Exit("✗ "+err.Error(), 1)
	}

	if c.Bool("json") {
		return printJSON(report)
	}
	printPlan(report)
	return nil
}

// printPlan renders a dry-run report as indented text.
func printPlan(report *refactor.PlanReport) {
	fmt.Printf("%s :: %s -> %s\n", report.Origin, report.Method, report.Destination)
	fmt.Printf("Conflict check: %s\n", report.Outcome)
	if report.Fatal {
		fmt.Println("  the destination already blocks this move")
	}
	if report.CrossModule {
		fmt.Println("Crosses module boundaries; pom dependencies may need fixing")
	}
	if len(report.Findings) == 0 {
		fmt.Println("No dependencies travel with the method")
		return
	}
	fmt.Println("Dependencies:")
	for _, f := range report.Findings {
		line := fmt.Sprintf("  %s %s (%s, declared on %s)", f.Kind, f.Name, f.Ownership, f.Owner)
		if f.Issue != "" {
			line += ": " + f.Issue
		}
		fmt.Println(line)
	}
}

func hierarchyCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: pullup hierarchy <class>")
	}
	name := c.Args().First()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	m, err := buildModel(c.Context, cfg)
	if err != nil {
		return err
	}

	id := m.ClassByName(name)
	if id == model.NoClass {
		return errors.NewClassNotFound(name).
			WithSuggestions(suggest.Rank(name, m.ClassNames(), suggest.MaxSuggestions))
	}

	formatter := display.NewTreeFormatter(display.FormatterOptions{
		ShowFiles: c.Bool("files"),
		MaxDepth:  c.Int("depth"),
	})
	fmt.Print(formatter.Format(m, hierarchy.New(m), id))
	return nil
}

func listCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	m, err := buildModel(c.Context, cfg)
	if err != nil {
		return err
	}
	fmt.Print(display.FormatClassList(m))
	return nil
}

func mcpCommand(c *cli.Context) error {
	// Enable MCP mode before anything can write to stdout; the stdio
	// channel belongs to the protocol from here on.
	debug.SetMCPMode(true)

	if os.Getenv("PULLUP_DEBUG_LOG") != "" {
		if path, err := debug.InitDebugLogFile(); err == nil {
			defer debug.CloseDebugLog()
			debug.LogMCP("diagnostics to %s", path)
		}
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v", err)
	}

	server := mcp.NewServer(cfg)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			return debug.Fatal("MCP server error: %v", err)
		}
		return nil
	case sig := <-sigChan:
		debug.LogMCP("received signal %v, shutting down", sig)
		cancel()

		// Give the transport a moment to drain before forcing the
		// stdio loop closed.
		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()
		select {
		case <-errChan:
			return nil
		case <-shutdownTimer.C:
			os.Stdin.Close()
			return nil
		}
	}
}

// isMCPMode reports whether the process looks like it was launched by
// an MCP client: explicit env override, or stdin wired to a pipe.
func isMCPMode() bool {
	if v := os.Getenv("PULLUP_MCP_MODE"); v == "1" || v == "true" {
		return true
	}
	stat, err := os.Stdin.Stat()
	return err == nil && (stat.Mode()&os.ModeCharDevice) == 0
}
