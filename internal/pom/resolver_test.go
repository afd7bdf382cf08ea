package pom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

const parentPom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.shop</groupId>
  <artifactId>shop-parent</artifactId>
  <version>1.0.0</version>
  <packaging>pom</packaging>
</project>
`

const corePom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.shop</groupId>
    <artifactId>shop-parent</artifactId>
    <version>1.0.0</version>
  </parent>
  <artifactId>shop-core</artifactId>
</project>
`

const apiPom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.shop</groupId>
  <artifactId>shop-api</artifactId>
  <version>1.0.0</version>
</project>
`

func multiModuleTree(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pom.xml":      parentPom,
		"core/pom.xml": corePom,
		"core/src/main/java/com/shop/core/Base.java": "package com.shop.core;\n\npublic class Base {\n}\n",
		"core/src/main/java/com/shop/core/Util.java": "package com.shop.core;\n\npublic class Util {\n}\n",
		"api/pom.xml": apiPom,
		"api/src/main/java/com/shop/api/Client.java": "package com.shop.api;\n\npublic class Client {\n}\n",
	})
	return root
}

func TestReadCoordsParentGroupFallback(t *testing.T) {
	root := multiModuleTree(t)

	coords, err := ReadCoords(filepath.Join(root, "core"))
	require.NoError(t, err)
	assert.Equal(t, "com.shop", coords.GroupID)
	assert.Equal(t, "shop-core", coords.ArtifactID)
}

func TestResolverIndexesModules(t *testing.T) {
	root := multiModuleTree(t)
	r := NewResolver([]string{root})

	coords, ok := r.ByQualifiedName("com.shop.core.Base")
	require.True(t, ok)
	assert.Equal(t, "shop-core", coords.ArtifactID)

	coords, ok = r.ByQualifiedName("com.shop.api.Client")
	require.True(t, ok)
	assert.Equal(t, "shop-api", coords.ArtifactID)

	_, ok = r.ByQualifiedName("java.util.List")
	assert.False(t, ok)
}

func TestResolverPrefixCoversSubpackages(t *testing.T) {
	root := multiModuleTree(t)
	r := NewResolver([]string{root})

	// Classes in packages below an indexed prefix still resolve.
	coords, ok := r.ByQualifiedName("com.shop.core.Anything")
	require.True(t, ok)
	assert.Equal(t, "shop-core", coords.ArtifactID)
}

func TestResolverStripsStaticImports(t *testing.T) {
	root := multiModuleTree(t)
	r := NewResolver([]string{root})

	coords, ok := r.ByQualifiedName("static com.shop.core.Util.max")
	require.True(t, ok)
	assert.Equal(t, "shop-core", coords.ArtifactID)
}

func TestResolverSkipsBuildDirs(t *testing.T) {
	root := multiModuleTree(t)
	writeTree(t, root, map[string]string{
		"core/target/checkout/pom.xml": apiPom,
	})

	r := NewResolver([]string{root})
	assert.Equal(t, 2, r.ModuleCount())
}

func TestResolverMissingRoot(t *testing.T) {
	r := NewResolver([]string{filepath.Join(t.TempDir(), "absent")})
	_, ok := r.ByQualifiedName("com.shop.core.Base")
	assert.False(t, ok)
}

func TestNearestModuleDir(t *testing.T) {
	root := multiModuleTree(t)
	src := filepath.Join(root, "core", "src", "main", "java", "com", "shop", "core", "Base.java")
	assert.Equal(t, filepath.Join(root, "core"), nearestModuleDir(src))
}
