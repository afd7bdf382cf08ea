package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/refactor"
)

const baseSource = `package com.app;

public class Base {
    protected int count;
}
`

const childSource = `package com.app;

public class Child extends Base {
    public String label() {
        return "child";
    }
}
`

// writeSource drops a Java file under root, creating parent directories.
func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newTestServer builds a server over a fresh two-class tree and returns
// it together with the tree root.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeSource(t, root, "src/com/app/Base.java", baseSource)
	writeSource(t, root, "src/com/app/Child.java", childSource)
	s := NewServer(config.Default())
	t.Cleanup(s.Close)
	return s, root
}

func TestPullUpMethodTool(t *testing.T) {
	s, root := newTestServer(t)

	out, err := s.CallTool("pull_up_method", map[string]interface{}{
		"projectRoot": root,
		"className":   "Child",
		"methodName":  "label",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Refactoring successful!")
	assert.Contains(t, out, "pulled up label() from com.app.Child to com.app.Base")
	assert.Contains(t, out, "Modified files:")

	base, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Base.java"))
	require.NoError(t, err)
	child, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Child.java"))
	require.NoError(t, err)
	assert.Contains(t, string(base), "String label()")
	assert.NotContains(t, string(child), "label")

	// In-place runs snapshot the pre-images first.
	stamps, err := os.ReadDir(filepath.Join(root, ".pullup", "snapshots"))
	require.NoError(t, err)
	assert.Len(t, stamps, 1)
}

func TestPullUpMethodToolMissingParams(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.CallTool("pull_up_method", map[string]interface{}{
		"className": "Child",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required parameters: projectRoot, className, methodName")
}

func TestPullUpMethodToolUnknownClass(t *testing.T) {
	s, root := newTestServer(t)

	_, err := s.CallTool("pull_up_method", map[string]interface{}{
		"projectRoot": root,
		"className":   "Chil",
		"methodName":  "label",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "✗ Refactoring failed!")
	assert.Contains(t, err.Error(), `class "Chil" not found`)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestPullUpMethodToolOutputPath(t *testing.T) {
	s, root := newTestServer(t)
	out := filepath.Join(t.TempDir(), "generated")

	text, err := s.CallTool("pull_up_method", map[string]interface{}{
		"projectRoot": root,
		"className":   "Child",
		"methodName":  "label",
		"outputPath":  out,
	})
	require.NoError(t, err)
	assert.Contains(t, text, "✓ Refactoring successful!")

	// Sources stay untouched and no snapshot is taken.
	child, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Child.java"))
	require.NoError(t, err)
	assert.Equal(t, childSource, string(child))
	_, err = os.Stat(filepath.Join(root, ".pullup"))
	assert.True(t, os.IsNotExist(err))

	generated, err := os.ReadFile(filepath.Join(out, "src", "com", "app", "Base.java"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "String label()")
}

func TestRestoreSnapshotTool(t *testing.T) {
	s, root := newTestServer(t)

	_, err := s.CallTool("pull_up_method", map[string]interface{}{
		"projectRoot": root,
		"className":   "Child",
		"methodName":  "label",
	})
	require.NoError(t, err)

	out, err := s.CallTool("restore_snapshot", map[string]interface{}{
		"projectRoot": root,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Successfully restored files from snapshot")

	base, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Base.java"))
	require.NoError(t, err)
	child, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Child.java"))
	require.NoError(t, err)
	assert.Equal(t, baseSource, string(base))
	assert.Equal(t, childSource, string(child))
}

func TestRestoreSnapshotToolWithoutSnapshot(t *testing.T) {
	s, root := newTestServer(t)

	_, err := s.CallTool("restore_snapshot", map[string]interface{}{
		"projectRoot": root,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No snapshot found or restore failed")
}

func TestCheckPullUpTool(t *testing.T) {
	s, root := newTestServer(t)

	out, err := s.CallTool("check_pull_up", map[string]interface{}{
		"projectRoot": root,
		"className":   "Child",
		"methodName":  "label",
	})
	require.NoError(t, err)

	var report refactor.PlanReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "com.app.Child", report.Origin)
	assert.Equal(t, "label()", report.Method)
	assert.Equal(t, "com.app.Base", report.Destination)
	assert.Equal(t, "clear", report.Outcome)
	assert.False(t, report.Fatal)
	assert.False(t, report.CrossModule)

	// A dry run leaves the tree alone.
	child, err := os.ReadFile(filepath.Join(root, "src", "com", "app", "Child.java"))
	require.NoError(t, err)
	assert.Equal(t, childSource, string(child))
}

func TestClassHierarchyTool(t *testing.T) {
	s, root := newTestServer(t)
	writeSource(t, root, "src/com/app/Grandchild.java", `package com.app;

public class Grandchild extends Child {
}
`)

	out, err := s.CallTool("class_hierarchy", map[string]interface{}{
		"projectRoot": root,
		"className":   "Child",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "com.app.Child\n")
	assert.Contains(t, out, "extends com.app.Base")
	assert.Contains(t, out, "extends java.lang.Object")
	assert.Contains(t, out, "Descendants:")
	assert.Contains(t, out, "com.app.Grandchild")
}

func TestClassHierarchyToolUnknownClass(t *testing.T) {
	s, root := newTestServer(t)

	_, err := s.CallTool("class_hierarchy", map[string]interface{}{
		"projectRoot": root,
		"className":   "Missing",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `class "Missing" not found`)
}

func TestListClassesTool(t *testing.T) {
	s, root := newTestServer(t)

	out, err := s.CallTool("list_classes", map[string]interface{}{
		"projectRoot": root,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "2 classes\n")
	assert.Contains(t, out, "class com.app.Base")
	assert.Contains(t, out, "class com.app.Child")
	assert.Contains(t, out, "label()")
}

func TestInfoTool(t *testing.T) {
	s, _ := newTestServer(t)

	out, err := s.CallTool("info", map[string]interface{}{})
	require.NoError(t, err)
	assert.Contains(t, out, "Tools:")
	for name := range toolHelp {
		assert.Contains(t, out, name)
	}

	out, err = s.CallTool("info", map[string]interface{}{"tool": "pull_up_method"})
	require.NoError(t, err)
	assert.Contains(t, out, "projectRoot")

	_, err = s.CallTool("info", map[string]interface{}{"tool": "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}
