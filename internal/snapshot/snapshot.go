// Package snapshot preserves pre-write copies of source files so a
// refactoring can be rolled back after the fact.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
)

const manifestName = "manifest.json"

// Manager stores snapshots under one directory, by default
// .pullup/snapshots inside the project root. Every Save creates a new
// timestamped snapshot; once more than keep exist, the oldest go.
type Manager struct {
	root string
	dir  string
	keep int
}

// Info describes one stored snapshot.
type Info struct {
	Stamp   string    `json:"stamp"`
	Created time.Time `json:"created"`
	Files   int       `json:"files"`
}

type manifest struct {
	Created time.Time       `json:"created"`
	Files   []manifestEntry `json:"files"`
}

// manifestEntry records a project-root-relative path in slash form and
// the xxhash digest of the content at save time.
type manifestEntry struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// New builds a manager rooted at the project directory. A relative dir
// is anchored at the root; empty means .pullup/snapshots. keep <= 0
// disables pruning.
func New(root, dir string, keep int) *Manager {
	if dir == "" {
		dir = filepath.Join(".pullup", "snapshots")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &Manager{root: root, dir: dir, keep: keep}
}

// Dir returns the snapshot area path.
func (m *Manager) Dir() string { return m.dir }

// CommonRoot derives the directory containing every given path: the
// deepest shared ancestor. A file path counts as its directory. With no
// paths the working directory is returned; paths sharing no ancestor
// fall back to the first one's parent.
func CommonRoot(paths []string) string {
	dirs := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		dirs = append(dirs, filepath.Clean(abs))
	}
	if len(dirs) == 0 {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	common := dirs[0]
	for _, dir := range dirs[1:] {
		for !within(common, dir) {
			parent := filepath.Dir(common)
			if parent == common {
				return filepath.Dir(dirs[0])
			}
			common = parent
		}
	}
	return common
}

// within reports whether path sits at or under dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// Save copies the given files into a fresh snapshot and returns its
// stamp. Files that do not exist yet are skipped; an empty file list
// saves nothing and returns an empty stamp.
func (m *Manager) Save(files []string) (string, error) {
	if len(files) == 0 {
		return "", nil
	}
	stamp := m.freshStamp()
	snapDir := filepath.Join(m.dir, stamp)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return "", errors.NewFileError(errors.ErrorTypeSnapshot, "create", snapDir, err)
	}

	man := manifest{Created: time.Now().UTC()}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", errors.NewFileError(errors.ErrorTypeSnapshot, "read", path, err)
		}
		rel := m.relPath(path)
		dst := filepath.Join(snapDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", errors.NewFileError(errors.ErrorTypeSnapshot, "create", dst, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return "", errors.NewFileError(errors.ErrorTypeSnapshot, "write", dst, err)
		}
		man.Files = append(man.Files, manifestEntry{Path: rel, Digest: digest(data)})
	}

	if err := m.writeManifest(snapDir, &man); err != nil {
		return "", err
	}
	m.prune()
	debug.LogSnapshot("saved %s: %d files under %s", stamp, len(man.Files), m.dir)
	return stamp, nil
}

// Restore copies a snapshot's files back over the project tree. An
// empty stamp restores the most recent snapshot. Every snapshot copy is
// verified against its recorded digest before anything is written, so a
// damaged snapshot never restores partially.
func (m *Manager) Restore(stamp string) ([]string, error) {
	if stamp == "" {
		latest, err := m.Latest()
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "restore", m.dir, os.ErrNotExist)
		}
		stamp = latest
	}
	snapDir := filepath.Join(m.dir, stamp)
	man, err := m.readManifest(snapDir)
	if err != nil {
		return nil, err
	}

	type pending struct {
		dst  string
		data []byte
	}
	var writes []pending
	for _, entry := range man.Files {
		src := filepath.Join(snapDir, filepath.FromSlash(entry.Path))
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "read", src, err)
		}
		if digest(data) != entry.Digest {
			return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "verify", src,
				fmt.Errorf("content digest mismatch"))
		}
		writes = append(writes, pending{
			dst:  filepath.Join(m.root, filepath.FromSlash(entry.Path)),
			data: data,
		})
	}

	var restored []string
	for _, w := range writes {
		if err := os.MkdirAll(filepath.Dir(w.dst), 0o755); err != nil {
			return restored, errors.NewFileError(errors.ErrorTypeSnapshot, "create", w.dst, err)
		}
		if err := os.WriteFile(w.dst, w.data, 0o644); err != nil {
			return restored, errors.NewFileError(errors.ErrorTypeSnapshot, "write", w.dst, err)
		}
		restored = append(restored, w.dst)
	}
	sort.Strings(restored)
	debug.LogSnapshot("restored %s: %d files", stamp, len(restored))
	return restored, nil
}

// List enumerates stored snapshots, oldest first. A missing snapshot
// area is an empty list, not an error.
func (m *Manager) List() ([]Info, error) {
	dirents, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "list", m.dir, err)
	}
	var infos []Info
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		man, err := m.readManifest(filepath.Join(m.dir, de.Name()))
		if err != nil {
			debug.LogSnapshot("skipping %s: %v", de.Name(), err)
			continue
		}
		infos = append(infos, Info{Stamp: de.Name(), Created: man.Created, Files: len(man.Files)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Stamp < infos[j].Stamp })
	return infos, nil
}

// Latest returns the most recent snapshot stamp, or empty when none
// exist.
func (m *Manager) Latest() (string, error) {
	infos, err := m.List()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", nil
	}
	return infos[len(infos)-1].Stamp, nil
}

// prune drops the oldest snapshots past the keep limit. Best effort:
// a snapshot that cannot be removed is logged and left in place.
func (m *Manager) prune() {
	if m.keep <= 0 {
		return
	}
	infos, err := m.List()
	if err != nil {
		return
	}
	for len(infos) > m.keep {
		victim := filepath.Join(m.dir, infos[0].Stamp)
		if err := os.RemoveAll(victim); err != nil {
			debug.LogSnapshot("prune failed for %s: %v", victim, err)
			return
		}
		debug.LogSnapshot("pruned %s", infos[0].Stamp)
		infos = infos[1:]
	}
}

// freshStamp picks a timestamp-based directory name not yet in use.
// Stamps sort lexically in creation order.
func (m *Manager) freshStamp() string {
	base := time.Now().Format("20060102-150405")
	stamp := base
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(m.dir, stamp)); os.IsNotExist(err) {
			return stamp
		}
		stamp = fmt.Sprintf("%s-%02d", base, i)
	}
}

// relPath maps a file to its project-root-relative slash path. Files
// outside the root fall back to their base name, mirroring how they
// would land when restored.
func (m *Manager) relPath(path string) string {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func (m *Manager) writeManifest(snapDir string, man *manifest) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return errors.NewFileError(errors.ErrorTypeSnapshot, "encode", snapDir, err)
	}
	path := filepath.Join(snapDir, manifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFileError(errors.ErrorTypeSnapshot, "write", path, err)
	}
	return nil
}

func (m *Manager) readManifest(snapDir string) (*manifest, error) {
	path := filepath.Join(snapDir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "read", path, err)
	}
	var man manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, errors.NewFileError(errors.ErrorTypeSnapshot, "decode", path, err)
	}
	return &man, nil
}

func digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
