package service

import (
	"errors"
	"fmt"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/ingest"
)

var (
	ErrNoAvailableReviewers = errors.New("no available reviewers")
	ErrEmptyGeneralPool     = errors.New("general pool has no available reviewers")
	ErrMissingColumns       = ingest.ErrMissingColumns
	ErrInvalidRunConfig     = errors.New("invalid run configuration")
)

const (
	CodeNoAvailableReviewers = "NO_AVAILABLE_REVIEWERS"
	CodeEmptyGeneralPool     = "EMPTY_GENERAL_POOL"
	CodeMissingColumns       = "MISSING_COLUMNS"
	CodeInvalidRunConfig     = "INVALID_RUN_CONFIG"
)

// ConfigError aborts a run before any case is assigned.
type ConfigError struct {
	Code    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfigError(err error, message string) *ConfigError {
	return &ConfigError{Code: codeFor(err), Message: message, Err: err}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoAvailableReviewers):
		return CodeNoAvailableReviewers
	case errors.Is(err, ErrEmptyGeneralPool):
		return CodeEmptyGeneralPool
	case errors.Is(err, ErrMissingColumns):
		return CodeMissingColumns
	default:
		return CodeInvalidRunConfig
	}
}
