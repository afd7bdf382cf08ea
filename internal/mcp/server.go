// Package mcp exposes the refactoring engine over the Model Context
// Protocol. The server speaks stdio; stdio carries protocol traffic
// only, so diagnostics go through the debug package in MCP mode.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/refactor"
	"github.com/standardbeagle/pullup/internal/version"
)

// Server hosts the refactoring tools over one shared model cache. The
// projectRoot argument of each call selects the trees to parse; the
// config supplies everything else (patterns, stub policy, snapshots).
type Server struct {
	cfg    *config.Config
	server *mcp.Server
	cache  *modelCache
}

// NewServer builds the tool server. A nil config falls back to the
// defaults.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:   cfg,
		cache: newModelCache(cfg),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "pullup",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves on stdio until the transport closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.SetMCPMode(true)
	debug.LogMCP("serving %s over stdio", version.FullInfo())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the model cache and its filesystem watchers.
func (s *Server) Close() {
	s.cache.Close()
}

// refactorOptions maps the configured stub policy into engine options.
// An unknown policy falls back to throw so a bad config file degrades
// instead of blocking every call.
func (s *Server) refactorOptions() refactor.Options {
	policy, err := refactor.ParseStubPolicy(s.cfg.Refactor.StubPolicy)
	if err != nil {
		debug.LogMCP("bad stub policy in config, using throw: %v", err)
	}
	return refactor.Options{StubPolicy: policy}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "pull_up_method",
		Description: "Execute Pull-Up-Method refactoring operation, move methods from child classes to parent classes",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"projectRoot", "className", "methodName"},
			Properties: map[string]*jsonschema.Schema{
				"projectRoot": {
					Type:        "string",
					Description: "Project root directory path, multiple paths separated by comma",
				},
				"className": {
					Type:        "string",
					Description: "Child class name containing the method to be pulled up",
				},
				"methodName": {
					Type:        "string",
					Description: "Method name to be pulled up",
				},
				"targetAncestorClassName": {
					Type:        "string",
					Description: "Target ancestor class name (optional, defaults to direct parent)",
				},
				"outputPath": {
					Type:        "string",
					Description: "Output directory path (optional, defaults to overwrite original files)",
				},
			},
		},
	}, s.handlePullUp)

	s.server.AddTool(&mcp.Tool{
		Name:        "check_pull_up",
		Description: "Dry-run a Pull-Up-Method refactoring: report the migration plan, conflicts, and member dependencies without changing any file",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"projectRoot", "className", "methodName"},
			Properties: map[string]*jsonschema.Schema{
				"projectRoot": {
					Type:        "string",
					Description: "Project root directory path, multiple paths separated by comma",
				},
				"className": {
					Type:        "string",
					Description: "Child class name containing the method to be pulled up",
				},
				"methodName": {
					Type:        "string",
					Description: "Method name to be pulled up",
				},
				"targetAncestorClassName": {
					Type:        "string",
					Description: "Target ancestor class name (optional, defaults to direct parent)",
				},
			},
		},
	}, s.handleCheck)

	s.server.AddTool(&mcp.Tool{
		Name:        "class_hierarchy",
		Description: "Show the ancestor chain and descendants of a class",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"projectRoot", "className"},
			Properties: map[string]*jsonschema.Schema{
				"projectRoot": {
					Type:        "string",
					Description: "Project root directory path, multiple paths separated by comma",
				},
				"className": {
					Type:        "string",
					Description: "Class name to inspect (simple or fully qualified)",
				},
			},
		},
	}, s.handleHierarchy)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_classes",
		Description: "List the classes and interfaces discovered under the project root",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"projectRoot"},
			Properties: map[string]*jsonschema.Schema{
				"projectRoot": {
					Type:        "string",
					Description: "Project root directory path, multiple paths separated by comma",
				},
			},
		},
	}, s.handleListClasses)

	s.server.AddTool(&mcp.Tool{
		Name:        "restore_snapshot",
		Description: "Restore files from the last refactoring snapshot",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"projectRoot"},
			Properties: map[string]*jsonschema.Schema{
				"projectRoot": {
					Type:        "string",
					Description: "Project root directory path for locating snapshot files",
				},
			},
		},
	}, s.handleRestore)

	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Get help for any tool; use 'info' for an overview or pass a tool name for specifics",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to get information about (e.g., 'pull_up_method')",
				},
			},
		},
	}, s.handleInfo)
}
