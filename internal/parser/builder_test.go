package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/model"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func buildTree(t *testing.T, root string) *BuildResult {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	return result
}

func TestBuildAssemblesLinkedModel(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/com/app/A.java", `package com.app;

public class A {
    protected int shared;

    void base() {
    }
}
`)
	writeSource(t, root, "src/com/app/B.java", `package com.app;

public class B extends A {
    int use() {
        base();
        return shared;
    }
}
`)

	result := buildTree(t, root)
	assert.Equal(t, 2, result.Parsed)
	assert.Empty(t, result.Skipped)
	assert.NoError(t, result.Failures())

	m := result.Model
	require.Equal(t, 2, m.ClassCount())

	a := m.ClassByName("com.app.A")
	b := m.ClassByName("com.app.B")
	require.NotEqual(t, model.NoClass, a)
	require.NotEqual(t, model.NoClass, b)
	assert.Equal(t, a, m.Class(b).Super)
	assert.Equal(t, "A", m.Class(b).SuperName)

	use := m.FindMethod(b, "use", nil)
	require.NotEqual(t, model.NoMethod, use)
	refs := m.Method(use).Refs
	var names []string
	for _, r := range refs {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "base")
	assert.Contains(t, names, "shared")
}

func TestBuildResolvesSimpleNameBySamePackage(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "one/com/x/Base.java", `package com.x;
public class Base {
}
`)
	writeSource(t, root, "two/com/y/Base.java", `package com.y;
public class Base {
}
`)
	writeSource(t, root, "two/com/y/Child.java", `package com.y;
public class Child extends Base {
}
`)

	m := buildTree(t, root).Model
	child := m.ClassByName("com.y.Child")
	require.NotEqual(t, model.NoClass, child)
	super := m.Class(child).Super
	require.NotEqual(t, model.NoClass, super)
	assert.Equal(t, "com.y.Base", m.Class(super).QualifiedName)
}

func TestBuildHonorsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/com/app/Kept.java", `package com.app;
public class Kept {
}
`)
	writeSource(t, root, "target/com/app/Generated.java", `package com.app;
public class Generated {
}
`)

	m := buildTree(t, root).Model
	assert.Equal(t, 1, m.ClassCount())
	assert.Equal(t, model.NoClass, m.ClassByName("Generated"))
}

func TestBuildHonorsIncludePatterns(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "main/com/app/In.java", `package com.app;
public class In {
}
`)
	writeSource(t, root, "scratch/com/app/Out.java", `package com.app;
public class Out {
}
`)

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Source.Include = []string{"main/**"}
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Model.ClassCount())
	assert.NotEqual(t, model.NoClass, result.Model.ClassByName("In"))
}

func TestBuildSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/Big.java", "public class Big {\n"+strings.Repeat("    // padding line\n", 50)+"}\n")
	writeSource(t, root, "src/Small.java", "public class Small {\n}\n")

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Source.MaxFileSize = 64
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Model.ClassCount())
	assert.NotEqual(t, model.NoClass, result.Model.ClassByName("Small"))
}

func TestBuildIgnoresNonJavaFiles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/A.java", "public class A {\n}\n")
	writeSource(t, root, "src/README.md", "# not java\n")
	writeSource(t, root, "src/A.java.bak", "public class Stale {\n}\n")

	result := buildTree(t, root)
	assert.Equal(t, 1, result.Parsed)
	assert.Equal(t, 1, result.Model.ClassCount())
}

func TestBuildAssignsModules(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "pom.xml", "<project/>")
	writeSource(t, root, "core/pom.xml", "<project/>")
	writeSource(t, root, "core/src/com/app/A.java", `package com.app;
public class A {
}
`)
	writeSource(t, root, "api/pom.xml", "<project/>")
	writeSource(t, root, "api/src/com/app/B.java", `package com.app;
public class B {
}
`)

	m := buildTree(t, root).Model
	a := m.Class(m.ClassByName("A"))
	b := m.Class(m.ClassByName("B"))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, model.NoModule, a.Module)
	assert.NotEqual(t, model.NoModule, b.Module)
	assert.NotEqual(t, a.Module, b.Module)

	ma := m.Module(a.Module)
	require.NotNil(t, ma)
	assert.Equal(t, filepath.Join(root, "core"), ma.Dir)
	assert.Equal(t, filepath.Join(root, "core", "pom.xml"), ma.ManifestPath)
}

func TestBuildWithoutManifestsSharesRootModule(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/com/app/A.java", `package com.app;
public class A {
}
`)
	writeSource(t, root, "src/com/app/sub/B.java", `package com.app.sub;
public class B {
}
`)

	m := buildTree(t, root).Model
	a := m.Class(m.ClassByName("A"))
	b := m.Class(m.ClassByName("B"))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Module, b.Module)

	mod := m.Module(a.Module)
	require.NotNil(t, mod)
	assert.Empty(t, mod.ManifestPath)
}

func TestBuildMissingRootFails(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = filepath.Join(t.TempDir(), "nope")
	_, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
}

func TestBuildLinksClassesAcrossRoots(t *testing.T) {
	base := t.TempDir()
	rootA := filepath.Join(base, "core")
	rootB := filepath.Join(base, "app")
	writeSource(t, rootA, "src/com/app/Base.java", `package com.app;
public class Base {
}
`)
	writeSource(t, rootB, "src/com/app/Child.java", `package com.app;
public class Child extends Base {
}
`)

	cfg := config.Default()
	cfg.Project.Root = rootA
	cfg.Source.Roots = []string{rootA, rootB}
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	m := result.Model
	assert.Equal(t, []string{rootA, rootB}, m.SourceRoots)
	child := m.ClassByName("com.app.Child")
	require.NotEqual(t, model.NoClass, child)
	super := m.Class(child).Super
	require.NotEqual(t, model.NoClass, super)
	assert.Equal(t, "com.app.Base", m.Class(super).QualifiedName)
}

func TestBuildOverlappingRootsParseFilesOnce(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/com/app/A.java", `package com.app;
public class A {
}
`)

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Source.Roots = []string{root, filepath.Join(root, "src")}
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Parsed)
	assert.Equal(t, 1, result.Model.ClassCount())
}

func TestBuildKeepsModulesApartAcrossRoots(t *testing.T) {
	base := t.TempDir()
	rootA := filepath.Join(base, "core")
	rootB := filepath.Join(base, "app")
	writeSource(t, rootA, "src/com/app/A.java", `package com.app;
public class A {
}
`)
	writeSource(t, rootB, "src/com/app/B.java", `package com.app;
public class B {
}
`)

	cfg := config.Default()
	cfg.Project.Root = rootA
	cfg.Source.Roots = []string{rootA, rootB}
	result, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	m := result.Model
	a := m.Class(m.ClassByName("A"))
	b := m.Class(m.ClassByName("B"))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a.Module, b.Module)
	assert.Equal(t, rootA, m.Module(a.Module).Dir)
	assert.Equal(t, rootB, m.Module(b.Module).Dir)
}

func TestBuildPrunesVendorDirs(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/A.java", "public class A {\n}\n")
	writeSource(t, root, "node_modules/dep/B.java", "public class B {\n}\n")
	writeSource(t, root, ".git/C.java", "public class C {\n}\n")

	m := buildTree(t, root).Model
	assert.Equal(t, 1, m.ClassCount())
}
