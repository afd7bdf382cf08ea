package pom

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/pullup/internal/debug"
)

// packageScanLimit caps how many sources a module scan reads. Package
// prefixes repeat heavily, so a truncated scan still indexes well.
const packageScanLimit = 5000

var resolverSkipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	".gradle":      true,
	"target":       true,
	"node_modules": true,
}

// Resolver maps Java package prefixes to the Maven module that owns
// them, built by scanning every pom.xml-bearing directory under the
// project roots and reading the package declarations beneath it.
type Resolver struct {
	prefixes map[string]Coords
}

// NewResolver indexes the modules under the given roots. Unreadable
// modules are skipped; an empty index resolves nothing.
func NewResolver(roots []string) *Resolver {
	r := &Resolver{prefixes: map[string]Coords{}}
	visited := map[string]bool{}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			root = filepath.Dir(root)
		}
		r.scanModules(root, visited)
	}
	debug.Log("pom", "indexed %d package prefixes across modules", len(r.prefixes))
	return r
}

// ModuleCount reports how many distinct modules the index covers.
func (r *Resolver) ModuleCount() int {
	dirs := map[string]bool{}
	for _, c := range r.prefixes {
		dirs[c.Dir] = true
	}
	return len(dirs)
}

// ByQualifiedName resolves an imported name to its owning module via
// longest package-prefix match.
func (r *Resolver) ByQualifiedName(qualifiedName string) (Coords, bool) {
	name := strings.TrimPrefix(qualifiedName, "static ")
	parts := strings.Split(name, ".")
	for end := len(parts) - 1; end >= 1; end-- {
		if c, ok := r.prefixes[strings.Join(parts[:end], ".")+"."]; ok {
			return c, true
		}
	}
	return Coords{}, false
}

func (r *Resolver) scanModules(dir string, visited map[string]bool) {
	if visited[dir] {
		return
	}
	visited[dir] = true

	if _, err := os.Stat(filepath.Join(dir, "pom.xml")); err == nil {
		if coords, err := ReadCoords(dir); err == nil && coords.ArtifactID != "" {
			for _, pkg := range packagesUnder(dir) {
				r.prefixes[pkg+"."] = coords
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || resolverSkipDirs[entry.Name()] {
			continue
		}
		r.scanModules(filepath.Join(dir, entry.Name()), visited)
	}
}

// packagesUnder collects the distinct package declarations beneath a
// module's src/main/java.
func packagesUnder(moduleDir string) []string {
	srcRoot := filepath.Join(moduleDir, "src", "main", "java")
	seen := map[string]bool{}
	count := 0
	_ = filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".java") {
			return nil
		}
		count++
		if count > packageScanLimit {
			return filepath.SkipAll
		}
		if pkg := packageDeclOf(path); pkg != "" {
			seen[pkg] = true
		}
		return nil
	})
	pkgs := make([]string, 0, len(seen))
	for pkg := range seen {
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// packageDeclOf reads the package declaration from one source file.
func packageDeclOf(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "package ") && strings.HasSuffix(line, ";") {
			return strings.TrimSpace(line[len("package ") : len(line)-1])
		}
	}
	return ""
}
