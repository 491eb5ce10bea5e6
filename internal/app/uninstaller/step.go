package uninstaller

import (
	apperrors "nordvpn-uninstall/internal/errors"
)

// Outcome classifies how a step finished.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

// String renders the textual representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step describes a single uninstall phase.
type Step struct {
	Name      string
	Operation string
	Category  apperrors.ErrorCategory

	// Question gates the step behind a user confirmation. Empty means the
	// step runs unconditionally.
	Question string

	Fn func() error
}

// Result is the recorded outcome of one executed step.
type Result struct {
	Step    string
	Outcome Outcome
	Err     error
}

// Detail returns the error text of a failed step, or empty.
func (r Result) Detail() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
