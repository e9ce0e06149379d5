// Package errs defines the error taxonomy shared by the calibration packages.
//
// Callers match categories with errors.Is and recover details of solver
// failures with errors.As on *ConvergenceError.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports inputs rejected at construction time
	// (length mismatches, missing collaborators, unordered tenors, ...).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a curve name is not known to a block, bundle or provider.
	ErrNotFound = errors.New("not found")
	// ErrIndexOutOfRange is returned by positional lookups.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrConvergence is returned when an iterative solver exhausts its budget.
	ErrConvergence = errors.New("convergence failure")
	// ErrDegenerate reports singular or ill-conditioned systems and NaN objectives.
	ErrDegenerate = errors.New("numerical degeneracy")
)

// InvalidArgument formats an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound formats an error wrapping ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// IndexOutOfRange formats an error wrapping ErrIndexOutOfRange.
func IndexOutOfRange(index, size int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, size)
}

// Degenerate formats an error wrapping ErrDegenerate.
func Degenerate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegenerate, fmt.Sprintf(format, args...))
}

// ConvergenceError describes a solver that stopped without meeting its tolerance.
type ConvergenceError struct {
	// Op is the solver or calibration step that failed (e.g. "bisection").
	Op string
	// Subject identifies what was being solved (curve, tenor, unit).
	Subject string
	// Iterations is the number of iterations performed.
	Iterations int
	// Residual is the last measured error (step size or residual norm).
	Residual float64
	// Reason is set when the solver stopped before iterating.
	Reason string
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, ErrConvergence)
	if e.Subject != "" {
		msg += " for " + e.Subject
	}
	if e.Reason != "" {
		return msg + ": " + e.Reason
	}
	return fmt.Sprintf("%s after %d iterations (residual %.3e)", msg, e.Iterations, e.Residual)
}

// Unwrap makes errors.Is(err, ErrConvergence) hold.
func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// WithSubject attaches subject to a convergence failure. A bare
// *ConvergenceError gets the subject merged into a copy; a wrapped one keeps
// its wrapping and gains the subject as a prefix. Other errors are returned
// unchanged.
func WithSubject(err error, subject string) error {
	var ce *ConvergenceError
	if !errors.As(err, &ce) {
		return err
	}
	if ce != err {
		return fmt.Errorf("%s: %w", subject, err)
	}
	cp := *ce
	if cp.Subject == "" {
		cp.Subject = subject
	} else {
		cp.Subject = subject + ": " + cp.Subject
	}
	return &cp
}
