package config

import (
	stderrors "errors"
	"fmt"
	"runtime"

	"github.com/standardbeagle/pullup/internal/errors"
)

// Validator checks a loaded configuration and fills in smart defaults
// for values the user left at zero.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates section by section. The first
// invalid value aborts with a ConfigError naming its section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return errors.NewConfigError("project", "", err)
	}
	if err := v.validateSource(&cfg.Source); err != nil {
		return errors.NewConfigError("source", "", err)
	}
	if err := v.validateRefactor(&cfg.Refactor); err != nil {
		return errors.NewConfigError("refactor", "", err)
	}
	if err := v.validatePerformance(&cfg.Performance); err != nil {
		return errors.NewConfigError("performance", "", err)
	}
	if err := v.validateOutput(&cfg.Output); err != nil {
		return errors.NewConfigError("output", "", err)
	}
	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(p *Project) error {
	if p.Root == "" {
		return stderrors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateSource(s *Source) error {
	if s.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", s.MaxFileSize)
	}
	if s.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("max_file_size should not exceed 100MB, got %d", s.MaxFileSize)
	}
	return nil
}

func (v *Validator) validateRefactor(r *Refactor) error {
	switch r.StubPolicy {
	case "", "throw", "default-value":
	default:
		return fmt.Errorf("stub_policy must be %q or %q, got %q", "throw", "default-value", r.StubPolicy)
	}
	return nil
}

func (v *Validator) validatePerformance(p *Performance) error {
	if p.MaxGoroutines < 0 {
		return fmt.Errorf("max_goroutines cannot be negative, got %d", p.MaxGoroutines)
	}
	if p.MaxGoroutines > 256 {
		return fmt.Errorf("max_goroutines should not exceed 256, got %d", p.MaxGoroutines)
	}
	if p.ParseTimeoutSec < 0 {
		return fmt.Errorf("parse_timeout_sec cannot be negative, got %d", p.ParseTimeoutSec)
	}
	return nil
}

func (v *Validator) validateOutput(o *Output) error {
	if o.KeepSnapshots < 0 {
		return fmt.Errorf("keep_snapshots cannot be negative, got %d", o.KeepSnapshots)
	}
	return nil
}

func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.MaxGoroutines == 0 {
		cfg.Performance.MaxGoroutines = runtime.NumCPU()
	}
	if cfg.Performance.ParseTimeoutSec == 0 {
		cfg.Performance.ParseTimeoutSec = 60
	}
	if cfg.Refactor.StubPolicy == "" {
		cfg.Refactor.StubPolicy = "throw"
	}
	if cfg.Refactor.Indent == "" {
		cfg.Refactor.Indent = "    "
	}
	if cfg.Output.SnapshotDir == "" {
		cfg.Output.SnapshotDir = ".pullup/snapshots"
	}
}
