package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/display"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/refactor"
	"github.com/standardbeagle/pullup/internal/snapshot"
	"github.com/standardbeagle/pullup/internal/suggest"
	"github.com/standardbeagle/pullup/internal/version"
)

// pullUpParams carries the arguments of pull_up_method; check_pull_up
// takes the same names minus outputPath.
type pullUpParams struct {
	ProjectRoot             string `json:"projectRoot"`
	ClassName               string `json:"className"`
	MethodName              string `json:"methodName"`
	TargetAncestorClassName string `json:"targetAncestorClassName"`
	OutputPath              string `json:"outputPath"`
}

type classParams struct {
	ProjectRoot string `json:"projectRoot"`
	ClassName   string `json:"className"`
}

type rootParams struct {
	ProjectRoot string `json:"projectRoot"`
}

type infoParams struct {
	Tool string `json:"tool"`
}

// splitRoots parses the comma separated projectRoot argument.
func splitRoots(raw string) []string {
	var roots []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

// textResult wraps plain text in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals data into a text content block.
func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}
	return textResult(string(content)), nil
}

// errorResult reports a tool-level failure. Failures ride inside the
// result with IsError set, never as protocol errors, so the caller can
// read the reason and correct the call.
func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := textResult("✗ " + fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// refactorFailure formats a failed refactoring the way the CLI does.
func refactorFailure(message string) *mcp.CallToolResult {
	result := textResult("✗ Refactoring failed!\n  " + message)
	result.IsError = true
	return result
}

// renderResult formats a successful refactoring outcome.
func renderResult(res *refactor.Result) string {
	var b strings.Builder
	b.WriteString("✓ Refactoring successful!\n")
	b.WriteString("  " + res.Message + "\n")
	if len(res.ModifiedFiles) > 0 {
		b.WriteString("  Modified files:\n")
		for _, file := range res.ModifiedFiles {
			b.WriteString("    " + file + "\n")
		}
	}
	if len(res.Warnings) > 0 {
		b.WriteString("  Warnings:\n")
		for _, warning := range res.Warnings {
			b.WriteString("    ⚠ " + warning + "\n")
		}
	}
	return b.String()
}

func (s *Server) handlePullUp(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pullUpParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	roots := splitRoots(params.ProjectRoot)
	if len(roots) == 0 || params.ClassName == "" || params.MethodName == "" {
		return errorResult("Missing required parameters: projectRoot, className, methodName"), nil
	}
	outputPath := strings.TrimSpace(params.OutputPath)
	debug.LogMCP("pull_up_method: roots=%v class=%s method=%s target=%q output=%q",
		roots, params.ClassName, params.MethodName, params.TargetAncestorClassName, outputPath)

	m, err := s.cache.Model(ctx, roots)
	if err != nil {
		return refactorFailure(err.Error()), nil
	}
	orch := refactor.NewOrchestrator(m, s.refactorOptions())
	res, err := orch.PullUpMethod(params.ClassName, params.MethodName, params.TargetAncestorClassName)
	if err != nil {
		return refactorFailure(err.Error()), nil
	}

	if err := refactor.Commit(m, res, refactor.CommitOptions{
		Roots:         roots,
		OutputDir:     outputPath,
		Indent:        s.cfg.Refactor.Indent,
		SnapshotDir:   s.cfg.Output.SnapshotDir,
		KeepSnapshots: s.cfg.Output.KeepSnapshots,
	}); err != nil {
		return refactorFailure(err.Error()), nil
	}

	// The cached model was mutated; drop it so the next call reparses.
	// The watcher covers in-place writes, this covers output-dir runs.
	s.cache.Invalidate(roots)
	return textResult(renderResult(res)), nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pullUpParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	roots := splitRoots(params.ProjectRoot)
	if len(roots) == 0 || params.ClassName == "" || params.MethodName == "" {
		return errorResult("Missing required parameters: projectRoot, className, methodName"), nil
	}
	debug.LogMCP("check_pull_up: roots=%v class=%s method=%s target=%q",
		roots, params.ClassName, params.MethodName, params.TargetAncestorClassName)

	m, err := s.cache.Model(ctx, roots)
	if err != nil {
		return errorResult("%v", err), nil
	}
	orch := refactor.NewOrchestrator(m, s.refactorOptions())
	report, err := orch.Check(params.ClassName, params.MethodName, params.TargetAncestorClassName)
	if err != nil {
		return errorResult("%v", err), nil
	}
	return jsonResult(report)
}

func (s *Server) handleHierarchy(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params classParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	roots := splitRoots(params.ProjectRoot)
	if len(roots) == 0 || params.ClassName == "" {
		return errorResult("Missing required parameters: projectRoot, className"), nil
	}

	m, err := s.cache.Model(ctx, roots)
	if err != nil {
		return errorResult("%v", err), nil
	}
	id := m.ClassByName(params.ClassName)
	if id == model.NoClass {
		notFound := errors.NewClassNotFound(params.ClassName).
			WithSuggestions(suggest.Rank(params.ClassName, m.ClassNames(), suggest.MaxSuggestions))
		return errorResult("%v", notFound), nil
	}
	tree := display.NewTreeFormatter(display.FormatterOptions{}).Format(m, hierarchy.New(m), id)
	return textResult(tree), nil
}

func (s *Server) handleListClasses(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params rootParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	roots := splitRoots(params.ProjectRoot)
	if len(roots) == 0 {
		return errorResult("Missing required parameter: projectRoot"), nil
	}

	m, err := s.cache.Model(ctx, roots)
	if err != nil {
		return errorResult("%v", err), nil
	}
	return textResult(display.FormatClassList(m)), nil
}

func (s *Server) handleRestore(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params rootParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	roots := splitRoots(params.ProjectRoot)
	if len(roots) == 0 {
		return errorResult("Missing required parameter: projectRoot"), nil
	}
	debug.LogMCP("restore_snapshot: roots=%v", roots)

	area := snapshot.New(snapshot.CommonRoot(roots), s.cfg.Output.SnapshotDir, s.cfg.Output.KeepSnapshots)
	restored, err := area.Restore("")
	if err != nil {
		debug.LogMCP("restore failed: %v", err)
		return errorResult("No snapshot found or restore failed: %v", err), nil
	}
	s.cache.Invalidate(roots)

	var b strings.Builder
	b.WriteString("✓ Successfully restored files from snapshot\n")
	for _, file := range restored {
		b.WriteString("  " + file + "\n")
	}
	return textResult(b.String()), nil
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params infoParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	if params.Tool == "" {
		return textResult(overviewHelp()), nil
	}
	help, ok := toolHelp[params.Tool]
	if !ok {
		known := make([]string, 0, len(toolHelp))
		for name := range toolHelp {
			known = append(known, name)
		}
		sort.Strings(known)
		return errorResult("unknown tool %q (known: %s)", params.Tool, strings.Join(known, ", ")), nil
	}
	return textResult(help), nil
}

func overviewHelp() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pullup %s - Pull-Up-Method refactoring for Java\n\n", version.Version)
	b.WriteString("Tools:\n")
	names := make([]string, 0, len(toolHelp))
	for name := range toolHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary, _, _ := strings.Cut(toolHelp[name], "\n")
		fmt.Fprintf(&b, "  %-16s %s\n", name, summary)
	}
	b.WriteString("\nUse info with a tool name for arguments and examples.\n")
	return b.String()
}

var toolHelp = map[string]string{
	"pull_up_method": `Move a method from a class to an ancestor, relocating its field and method dependencies.
Arguments:
  projectRoot              source tree(s), comma separated (required)
  className                class declaring the method (required)
  methodName               method to move (required)
  targetAncestorClassName  destination ancestor; defaults to the direct parent
  outputPath               write regenerated files here instead of in place
Example: {"projectRoot": "/work/shop", "className": "BulkOrderService", "methodName": "calculateTotal"}
In-place runs snapshot the touched files first; use restore_snapshot to roll back.`,

	"check_pull_up": `Dry-run a pull-up and report the plan as JSON: resolved route, conflict outcome, and every member that would travel.
Arguments: projectRoot, className, methodName (required); targetAncestorClassName (optional).
Nothing is written.`,

	"class_hierarchy": `Show the ancestor chain and known descendants of a class.
Arguments: projectRoot, className (required).`,

	"list_classes": `List every class and interface parsed under the project root with method signatures.
Arguments: projectRoot (required).`,

	"restore_snapshot": `Restore the most recent refactoring snapshot, overwriting the current files.
Arguments: projectRoot (required; same value used for the refactoring).`,

	"info": `Describe the available tools.
Arguments: tool (optional tool name).`,
}
