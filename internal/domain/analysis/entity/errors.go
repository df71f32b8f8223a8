package entity

import (
	"errors"
	"fmt"
)

// Domain errors for analysis
var (
	// ErrMissingCredential is returned when no access token reaches the pipeline
	ErrMissingCredential = errors.New("access token is required")

	// ErrUpstreamDegraded marks a recoverable upstream failure that was replaced by a default
	ErrUpstreamDegraded = errors.New("threads API degraded")
)

// UpstreamAuthError is returned when the profile fetch is rejected upstream
type UpstreamAuthError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("unable to fetch user profile (%d): %s", e.StatusCode, e.Body)
}

// ProcessingError wraps any unexpected failure during orchestration or aggregation
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing analysis: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
