// Package refactor implements the pull-up-method migration: visibility
// and type resolution, method and field relocation, stub synthesis, and
// the orchestration that ties them together over a parsed model.
package refactor

import "fmt"

// Warnings accumulates recoverable issues during a migration so the
// caller can inspect them. The engine itself never logs; every soft
// issue lands here and travels out on the Result.
type Warnings struct {
	list []string
}

func NewWarnings() *Warnings { return &Warnings{} }

func (w *Warnings) Add(format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

// List returns a copy of the accumulated warnings in insertion order.
func (w *Warnings) List() []string {
	if len(w.list) == 0 {
		return nil
	}
	return append([]string(nil), w.list...)
}

func (w *Warnings) Len() int { return len(w.list) }

// Result reports one completed run. ModifiedFiles is what the caller
// must re-serialize; Warnings are the soft issues encountered along
// the way.
type Result struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}
