package parser

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/pullup/internal/model"
)

// manifestNames identify a build module root, in probe order.
var manifestNames = []string{"pom.xml", "build.gradle", "build.gradle.kts"}

// moduleResolver assigns classes to build modules. A module is the
// nearest directory at or above the source file carrying a build
// manifest; the search never leaves the source root containing the
// file. Sources with no manifest anywhere share their root's module,
// so single-module trees never look cross-module.
type moduleResolver struct {
	model *model.Model
	roots []string
	cache map[string]model.ModuleID
}

func newModuleResolver(m *model.Model, roots []string) *moduleResolver {
	return &moduleResolver{model: m, roots: roots, cache: make(map[string]model.ModuleID)}
}

// moduleFor resolves the module owning one source file.
func (r *moduleResolver) moduleFor(path string) model.ModuleID {
	root := r.containingRoot(path)
	dir := filepath.Dir(path)

	var climbed []string
	for {
		if id, ok := r.cache[dir]; ok {
			r.fill(climbed, id)
			return id
		}
		if manifest := manifestIn(dir); manifest != "" {
			id := r.model.AddModule(dir, manifest)
			r.cache[dir] = id
			r.fill(climbed, id)
			return id
		}
		if dir == root || !relPathWithin(root, dir) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		climbed = append(climbed, dir)
		dir = parent
	}

	id := r.model.AddModule(root, "")
	r.cache[root] = id
	r.fill(climbed, id)
	return id
}

// containingRoot picks the source root holding path. The deepest
// containing root wins when roots nest; paths outside every root fall
// back to the first one.
func (r *moduleResolver) containingRoot(path string) string {
	best := ""
	for _, root := range r.roots {
		if relPathWithin(root, path) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" && len(r.roots) > 0 {
		return r.roots[0]
	}
	return best
}

// fill caches the resolution for every directory climbed through.
func (r *moduleResolver) fill(dirs []string, id model.ModuleID) {
	for _, d := range dirs {
		r.cache[d] = id
	}
}

// manifestIn returns the manifest path when dir is a module root.
func manifestIn(dir string) string {
	for _, name := range manifestNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
