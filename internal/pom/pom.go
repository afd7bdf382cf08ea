// Package pom keeps Maven builds consistent after a cross-module move:
// when a rewritten file imports types owned by another module, that
// module must appear in the importer's pom.xml dependencies.
package pom

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/pullup/internal/errors"
)

// Coords identifies one Maven module.
type Coords struct {
	GroupID    string
	ArtifactID string
	Dir        string
}

// pomFile maps the slice of a pom.xml this package reads. The
// dependencies path only matches direct children of project, so
// dependencyManagement entries never count as declared dependencies.
type pomFile struct {
	XMLName    xml.Name  `xml:"project"`
	GroupID    string    `xml:"groupId"`
	ArtifactID string    `xml:"artifactId"`
	Parent     pomParent `xml:"parent"`
	Deps       []pomDep  `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID string `xml:"groupId"`
}

type pomDep struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// ReadCoords reads a module's coordinates from its pom.xml. A missing
// groupId falls back to the parent's, the usual monorepo layout.
func ReadCoords(moduleDir string) (Coords, error) {
	path := filepath.Join(moduleDir, "pom.xml")
	doc, err := readPom(path)
	if err != nil {
		return Coords{}, err
	}
	groupID := strings.TrimSpace(doc.GroupID)
	if groupID == "" {
		groupID = strings.TrimSpace(doc.Parent.GroupID)
	}
	return Coords{
		GroupID:    groupID,
		ArtifactID: strings.TrimSpace(doc.ArtifactID),
		Dir:        moduleDir,
	}, nil
}

func readPom(path string) (*pomFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(errors.ErrorTypeParse, "read", path, err)
	}
	var doc pomFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewFileError(errors.ErrorTypeParse, "parse", path, err)
	}
	return &doc, nil
}

// declaredArtifacts returns the artifactIds already listed under the
// pom's top-level dependencies.
func declaredArtifacts(doc *pomFile) map[string]bool {
	out := make(map[string]bool, len(doc.Deps))
	for _, dep := range doc.Deps {
		if id := strings.TrimSpace(dep.ArtifactID); id != "" {
			out[id] = true
		}
	}
	return out
}

// nearestModuleDir climbs from a source file to the closest directory
// holding a pom.xml.
func nearestModuleDir(path string) string {
	dir := filepath.Dir(path)
	for {
		if info, err := os.Stat(filepath.Join(dir, "pom.xml")); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
