package refactor

import (
	"fmt"

	"github.com/standardbeagle/pullup/internal/codegen"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/pom"
	"github.com/standardbeagle/pullup/internal/snapshot"
)

// CommitOptions locate the trees a persisted run touches.
type CommitOptions struct {
	// Roots are the source trees the model was parsed from.
	Roots []string
	// OutputDir redirects generated files; empty overwrites the sources.
	OutputDir string
	// Indent is the indent unit for regenerated code.
	Indent string
	// SnapshotDir and KeepSnapshots configure the rollback area.
	SnapshotDir   string
	KeepSnapshots int
}

// Commit persists a successful run to disk. Sources about to be
// overwritten are snapshotted first; module poms are patched only for
// in-place writes so an output directory stays a plain copy. The result
// is updated to list the written files, with any patched poms appended.
func Commit(m *model.Model, res *Result, opts CommitOptions) error {
	if res == nil || !res.Success {
		return fmt.Errorf("nothing to commit: refactoring did not succeed")
	}
	inPlace := opts.OutputDir == ""
	if inPlace && len(res.ModifiedFiles) > 0 {
		area := snapshot.New(snapshot.CommonRoot(opts.Roots), opts.SnapshotDir, opts.KeepSnapshots)
		if _, err := area.Save(res.ModifiedFiles); err != nil {
			return err
		}
	}

	written, err := codegen.New(m, opts.Indent).WriteModified(opts.OutputDir)
	if err != nil {
		return err
	}
	if inPlace && len(written) > 0 {
		patched, perr := pom.FixMissingDependencies(written, opts.Roots)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("module dependency fixup incomplete: %v", perr))
		}
		written = append(written, patched...)
	}
	res.ModifiedFiles = written
	return nil
}
