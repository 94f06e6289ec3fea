package shared

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FailureReason classifies why a data source produced no value.
type FailureReason string

const (
	// ReasonNetwork covers timeouts, connection errors and non-2xx responses.
	ReasonNetwork FailureReason = "network"
	// ReasonShapeMismatch means the page or payload no longer matches the
	// markup/JSON/regex shape the extractor expects.
	ReasonShapeMismatch FailureReason = "shape_mismatch"
	// ReasonInsufficientHistory means fewer than two valid closing prices
	// were available after the widest look-back window.
	ReasonInsufficientHistory FailureReason = "insufficient_history"
	// ReasonCredentialsMissing means a publishing prerequisite is absent
	// from the environment.
	ReasonCredentialsMissing FailureReason = "credentials_missing"
)

// FetchError is the absence signal every fetcher returns instead of a value.
// Fetchers never panic and never let raw transport or parse errors cross
// their boundary; the aggregator and jobs decide whether an absence is fatal.
type FetchError struct {
	Source string // which upstream produced the failure, e.g. "giftnifty"
	Reason FailureReason
	Cause  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Fields returns structured logging fields for the error.
func (e *FetchError) Fields() logrus.Fields {
	return logrus.Fields{
		"source": e.Source,
		"reason": string(e.Reason),
		"cause":  e.Cause,
	}
}

// NewFetchError builds a FetchError for the given source and reason.
func NewFetchError(source string, reason FailureReason, cause error) *FetchError {
	return &FetchError{Source: source, Reason: reason, Cause: cause}
}

// HasReason reports whether err is a FetchError with the given reason.
func HasReason(err error, reason FailureReason) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Reason == reason
	}
	return false
}
