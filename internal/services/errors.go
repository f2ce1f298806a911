package services

import (
	"errors"
	"strings"
)

// Sentinel markers. Every error produced by Wrap matches exactly one of them
// through errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// StageError carries where a failure happened alongside its marker.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(e.location())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

func (e *StageError) location() string {
	var parts []string
	for _, p := range []string{e.Stage, e.Operation, e.Message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Wrap tags err with marker and the stage/operation it came from. A nil
// marker is treated as ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// MarkerOf returns the outermost sentinel attached to err, or nil.
func MarkerOf(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se.Marker
	}
	for _, m := range []error{ErrConfiguration, ErrExternalTool, ErrValidation, ErrNotFound, ErrTimeout, ErrTransient} {
		if errors.Is(err, m) {
			return m
		}
	}
	return nil
}

// IsRetryable reports whether a collaborator may retry err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// IsFatal reports whether err makes the rest of the run pointless.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrExternalTool)
}
