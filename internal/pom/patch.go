package pom

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
)

const dependencyVersion = "${project.version}"

// FixMissingDependencies scans rewritten Java sources and patches each
// owning module's pom.xml so every cross-module import is declared.
// Self-imports never produce a dependency. Returns the patched pom
// paths, sorted.
func FixMissingDependencies(modifiedFiles, roots []string) ([]string, error) {
	if len(modifiedFiles) == 0 {
		return nil, nil
	}
	resolver := NewResolver(roots)

	var patched []string
	seen := map[string]bool{}
	for _, file := range modifiedFiles {
		if !strings.HasSuffix(file, ".java") {
			continue
		}
		moduleDir := nearestModuleDir(file)
		if moduleDir == "" {
			continue
		}
		own, err := ReadCoords(moduleDir)
		if err != nil {
			debug.Log("pom", "unreadable module pom for %s: %v", file, err)
			continue
		}

		needed := neededCoords(file, own, resolver)
		if len(needed) == 0 {
			continue
		}
		pomPath := filepath.Join(moduleDir, "pom.xml")
		changed, err := EnsureDependencies(pomPath, needed)
		if err != nil {
			return patched, err
		}
		if changed && !seen[pomPath] {
			seen[pomPath] = true
			patched = append(patched, pomPath)
		}
	}
	sort.Strings(patched)
	return patched, nil
}

// neededCoords maps a file's imports to foreign-module coordinates,
// deduplicated by artifact.
func neededCoords(file string, own Coords, resolver *Resolver) []Coords {
	imports, err := importLines(file)
	if err != nil {
		debug.Log("pom", "cannot read imports of %s: %v", file, err)
		return nil
	}
	var needed []Coords
	taken := map[string]bool{}
	for _, imp := range imports {
		c, ok := resolver.ByQualifiedName(imp)
		if !ok || c.ArtifactID == "" || c.ArtifactID == own.ArtifactID || taken[c.ArtifactID] {
			continue
		}
		taken[c.ArtifactID] = true
		needed = append(needed, c)
	}
	return needed
}

// EnsureDependencies adds any of the wanted modules not yet declared in
// the pom. The edit is a text splice so the file keeps its formatting;
// a missing dependencies section is created before </project>. Returns
// whether the file changed.
func EnsureDependencies(pomPath string, wanted []Coords) (bool, error) {
	doc, err := readPom(pomPath)
	if err != nil {
		return false, err
	}
	declared := declaredArtifacts(doc)
	own := strings.TrimSpace(doc.ArtifactID)

	var missing []Coords
	for _, c := range wanted {
		if c.ArtifactID == "" || c.ArtifactID == own || declared[c.ArtifactID] {
			continue
		}
		declared[c.ArtifactID] = true
		missing = append(missing, c)
	}
	if len(missing) == 0 {
		return false, nil
	}

	data, err := os.ReadFile(pomPath)
	if err != nil {
		return false, errors.NewFileError(errors.ErrorTypeParse, "read", pomPath, err)
	}
	content := string(data)
	unit := detectIndent(content)

	block := dependencyBlock(missing, unit)
	if idx := dependenciesClose(content); idx >= 0 {
		lineStart := strings.LastIndex(content[:idx], "\n") + 1
		content = content[:lineStart] + block + content[lineStart:]
	} else {
		idx := strings.LastIndex(content, "</project>")
		if idx < 0 {
			return false, errors.NewFileError(errors.ErrorTypeParse, "patch", pomPath,
				fmt.Errorf("no </project> element"))
		}
		lineStart := strings.LastIndex(content[:idx], "\n") + 1
		section := unit + "<dependencies>\n" + block + unit + "</dependencies>\n"
		content = content[:lineStart] + section + content[lineStart:]
	}

	if err := os.WriteFile(pomPath, []byte(content), 0o644); err != nil {
		return false, errors.NewFileError(errors.ErrorTypeWrite, "write", pomPath, err)
	}
	for _, c := range missing {
		debug.Log("pom", "declared %s:%s:%s in %s", c.GroupID, c.ArtifactID, dependencyVersion, pomPath)
	}
	return true, nil
}

// dependencyBlock renders dependency elements at section depth.
func dependencyBlock(coords []Coords, unit string) string {
	var b strings.Builder
	depIndent := unit + unit
	inner := depIndent + unit
	for _, c := range coords {
		b.WriteString(depIndent + "<dependency>\n")
		b.WriteString(inner + "<groupId>" + c.GroupID + "</groupId>\n")
		b.WriteString(inner + "<artifactId>" + c.ArtifactID + "</artifactId>\n")
		b.WriteString(inner + "<version>" + dependencyVersion + "</version>\n")
		b.WriteString(depIndent + "</dependency>\n")
	}
	return b.String()
}

// dependenciesClose finds the closing tag of the project-level
// dependencies section, skipping any inside dependencyManagement.
func dependenciesClose(content string) int {
	const closeTag = "</dependencies>"
	search := 0
	for {
		i := strings.Index(content[search:], closeTag)
		if i < 0 {
			return -1
		}
		abs := search + i
		if !insideDependencyManagement(content, abs) {
			return abs
		}
		search = abs + len(closeTag)
	}
}

func insideDependencyManagement(content string, pos int) bool {
	open := strings.LastIndex(content[:pos], "<dependencyManagement>")
	if open < 0 {
		return false
	}
	end := strings.Index(content[open:], "</dependencyManagement>")
	return end < 0 || open+end > pos
}

// detectIndent takes the indentation of the first indented element
// line as the unit; poms keep a uniform step per level.
func detectIndent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == line || !strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "<!") {
			continue
		}
		return line[:len(line)-len(trimmed)]
	}
	return "    "
}

// importLines returns the qualified names a source file imports, the
// static prefix stripped.
func importLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var imports []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "import ") || !strings.HasSuffix(line, ";") {
			continue
		}
		name := strings.TrimSpace(line[len("import ") : len(line)-1])
		name = strings.TrimPrefix(name, "static ")
		if name != "" {
			imports = append(imports, name)
		}
	}
	return imports, scanner.Err()
}
