package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrEngineUnavailable = errors.New("audio output unavailable")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDaemonUnreachable = errors.New("spindle server unreachable")
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidIndex      = errors.New("invalid playlist index")
	ErrNotADirectory     = errors.New("not a directory")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// SpindleError wraps an error with a user-friendly suggestion.
type SpindleError struct {
	Err        error
	Suggestion string
}

func (e *SpindleError) Error() string {
	return e.Err.Error()
}

func (e *SpindleError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &SpindleError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var spindleErr *SpindleError
	if errors.As(err, &spindleErr) && spindleErr.Suggestion != "" {
		return spindleErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Audio output
	if errors.Is(err, ErrEngineUnavailable) || strings.Contains(errStr, "audio output") {
		return "Check that a sound device is available, or rebuild with cgo enabled"
	}

	if errors.Is(err, ErrUnsupportedFormat) {
		return "Supported formats for playback are mp3, flac, ogg and wav"
	}

	// Remote control
	if errors.Is(err, ErrDaemonUnreachable) || strings.Contains(errStr, "connection refused") {
		return "Start the player with 'spindle serve' or 'spindle ui --serve'"
	}

	if errors.Is(err, ErrInvalidIndex) {
		return "Run 'spindle playlist' to see valid positions"
	}

	if errors.Is(err, ErrNotADirectory) || strings.Contains(errStr, "no such file or directory") {
		return "Check the path exists and is readable"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'spindle config init' to create a configuration"
	}

	if strings.Contains(errStr, "timeout") {
		return "The player did not answer in time. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
