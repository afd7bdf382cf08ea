package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool is a test helper method to simulate MCP tool calls
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	ctx := context.Background()

	// Convert params to JSON for proper typing
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	// Create a CallToolRequest with the arguments
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult

	switch toolName {
	case "pull_up_method":
		result, err = s.handlePullUp(ctx, req)

	case "check_pull_up":
		result, err = s.handleCheck(ctx, req)

	case "class_hierarchy":
		result, err = s.handleHierarchy(ctx, req)

	case "list_classes":
		result, err = s.handleListClasses(ctx, req)

	case "restore_snapshot":
		result, err = s.handleRestore(ctx, req)

	case "info":
		result, err = s.handleInfo(ctx, req)

	default:
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}

	if err != nil {
		return "", err
	}

	text := ""
	if result != nil && len(result.Content) > 0 {
		// The result is in Content[0] for MCP
		if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
			text = textContent.Text
		}
	}

	// Tool failures ride inside the result; surface them as Go errors
	// so tests can assert on the message
	if result != nil && result.IsError {
		return "", fmt.Errorf("%s", text)
	}
	return text, nil
}
