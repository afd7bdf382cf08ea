package parser

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/pullup/internal/config"
	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/model"
)

// skipDirs never contain project sources and are pruned outright.
// Build output directories stay walkable so the exclude patterns
// keep the final say over them.
var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	".gradle":      true,
	"node_modules": true,
}

// BuildResult carries the assembled model plus parse statistics.
type BuildResult struct {
	Model   *model.Model
	Parsed  int
	Skipped []SkippedFile
	Elapsed time.Duration
}

// SkippedFile records one source file the build could not use.
type SkippedFile struct {
	Path string
	Err  error
}

// Failures folds the skipped files into one error, nil when every
// file parsed.
func (r *BuildResult) Failures() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Skipped))
	for i, s := range r.Skipped {
		errs[i] = s.Err
	}
	return errors.NewMultiError(errs)
}

// Builder discovers and parses the Java sources under the configured
// source roots and assembles them into a model. Workers own their
// parsers; assembly is single threaded and deterministic.
type Builder struct {
	cfg *config.Config
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build walks the source tree, parses every matching file, and returns
// the linked model. Files that fail to parse are skipped and reported
// in the result; only discovery failures abort the build.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	if sec := b.cfg.Performance.ParseTimeoutSec; sec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sec)*time.Second)
		defer cancel()
	}

	roots := b.cfg.SourceRoots()
	files, err := b.discover(roots)
	if err != nil {
		return nil, err
	}
	debug.LogParse("discovered %d java files under %s", len(files), strings.Join(roots, ", "))

	parsed := make([]*JavaFile, len(files))
	failures := make([]error, len(files))

	limit := b.cfg.Performance.MaxGoroutines
	if limit < 1 {
		limit = 1
	}
	if limit > len(files) && len(files) > 0 {
		limit = len(files)
	}

	indexes := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < limit; w++ {
		g.Go(func() error {
			p, err := New()
			if err != nil {
				return err
			}
			defer p.Close()
			for i := range indexes {
				file, perr := p.ParseFile(files[i])
				if perr != nil {
					failures[i] = perr
					continue
				}
				parsed[i] = file
			}
			return nil
		})
	}

feed:
	for i := range files {
		select {
		case indexes <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(indexes)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BuildResult{Model: model.NewModel()}
	result.Model.SourceRoots = roots
	resolver := newModuleResolver(result.Model, roots)

	for i, file := range parsed {
		if failures[i] != nil {
			debug.LogParse("skipping %s: %v", files[i], failures[i])
			result.Skipped = append(result.Skipped, SkippedFile{Path: files[i], Err: failures[i]})
			continue
		}
		if file == nil {
			continue
		}
		b.assembleFile(result.Model, resolver, file)
		result.Parsed++
	}
	result.Model.LinkSupertypes()
	result.Elapsed = time.Since(start)
	debug.LogParse("model ready: %d classes from %d files in %s",
		result.Model.ClassCount(), result.Parsed, result.Elapsed)
	return result, nil
}

// assembleFile registers one parsed file's declarations in the model.
func (b *Builder) assembleFile(m *model.Model, resolver *moduleResolver, file *JavaFile) {
	moduleID := resolver.moduleFor(file.Path)
	for _, cd := range file.Classes {
		qualified := cd.Name
		if file.Package != "" {
			qualified = file.Package + "." + cd.Name
		}
		classID := m.AddClass(model.ClassNode{
			QualifiedName: qualified,
			SimpleName:    cd.Name,
			Package:       file.Package,
			FilePath:      file.Path,
			Span:          cd.Span,
			SuperName:     cd.SuperName,
			Interfaces:    cd.Interfaces,
			Imports:       file.Imports,
			IsPublic:      cd.IsPublic,
			IsAbstract:    cd.IsAbstract,
			IsInterface:   cd.IsInterface,
			Module:        moduleID,
		})
		for _, md := range cd.Methods {
			m.AddMethod(model.MethodNode{
				Name:          md.Name,
				Params:        md.Params,
				ReturnType:    md.ReturnType,
				Visibility:    md.Visibility,
				IsAbstract:    md.IsAbstract,
				IsStatic:      md.IsStatic,
				IsFinal:       md.IsFinal,
				IsConstructor: md.IsConstructor,
				HasBody:       md.HasBody,
				Owner:         classID,
				Annotations:   md.Annotations,
				Throws:        md.Throws,
				Span:          md.Span,
				Body:          md.Body,
				Refs:          md.Refs,
				SuperCalls:    md.SuperCalls,
				ThisArgs:      md.ThisArgs,
				LocalVarTypes: md.LocalVarTypes,
			})
		}
		for _, fd := range cd.Fields {
			m.AddField(model.FieldNode{
				Name:        fd.Name,
				Type:        fd.Type,
				Visibility:  fd.Visibility,
				IsStatic:    fd.IsStatic,
				IsFinal:     fd.IsFinal,
				Initializer: fd.Initializer,
				Owner:       classID,
				Refs:        fd.Refs,
				Span:        fd.Span,
			})
		}
	}
}

// discover walks every source root collecting files that pass the
// include and exclude patterns and the size limit. The visited set is
// shared across roots so overlapping roots never double-list a file.
// Paths come back sorted so model IDs are stable across runs.
func (b *Builder) discover(roots []string) ([]string, error) {
	var files []string
	visited := map[string]bool{}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.NewFileError(errors.ErrorTypeParse, "scan", root, err)
		}
		if !info.IsDir() {
			return nil, errors.NewFileError(errors.ErrorTypeParse, "scan", root,
				os.ErrInvalid)
		}
		if err := b.walkTree(root, root, visited, &files); err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// walkTree recurses one directory, optionally following symlinked
// directories with a resolved-path guard against cycles.
func (b *Builder) walkTree(root, dir string, visited map[string]bool, files *[]string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		debug.LogParse("unreadable dir %s: %v", dir, err)
		return nil
	}
	if visited[resolved] {
		return nil
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		debug.LogParse("unreadable dir %s: %v", dir, err)
		return nil
	}
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if skipDirs[name] {
				continue
			}
			if err := b.walkTree(root, path, visited, files); err != nil {
				return err
			}
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if !b.cfg.Source.FollowSymlinks {
				continue
			}
			target, err := os.Stat(path)
			if err != nil {
				continue
			}
			if target.IsDir() {
				if !skipDirs[name] {
					if err := b.walkTree(root, path, visited, files); err != nil {
						return err
					}
				}
				continue
			}
		}
		if b.wantFile(root, path) {
			*files = append(*files, path)
		}
	}
	return nil
}

// wantFile applies the include patterns, exclude patterns, and size
// limit to one regular file. Only Java sources are ever candidates;
// the patterns narrow within them.
func (b *Builder) wantFile(root, path string) bool {
	if !strings.HasSuffix(path, ".java") {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	included := len(b.cfg.Source.Include) == 0
	for _, pattern := range b.cfg.Source.Include {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}
		if matched {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range b.cfg.Source.Exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}
		if matched {
			return false
		}
	}
	if max := b.cfg.Source.MaxFileSize; max > 0 {
		info, err := os.Stat(path)
		if err != nil || info.Size() > max {
			return false
		}
	}
	return true
}

// relPathWithin reports whether path sits underneath dir.
func relPathWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
