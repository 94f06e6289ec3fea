package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchErrorUnwrapsItsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewFetchError("giftnifty", ReasonNetwork, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "giftnifty")
	assert.Contains(t, err.Error(), "network")
}

func TestHasReasonSeesThroughWrapping(t *testing.T) {
	inner := NewFetchError("^HSI", ReasonInsufficientHistory, nil)
	wrapped := fmt.Errorf("aggregation aborted: %w", inner)

	assert.True(t, HasReason(wrapped, ReasonInsufficientHistory))
	assert.False(t, HasReason(wrapped, ReasonNetwork))
}

func TestHasReasonIsFalseForPlainErrors(t *testing.T) {
	assert.False(t, HasReason(errors.New("plain"), ReasonNetwork))
}

func TestFieldsCarryStructuredContext(t *testing.T) {
	err := NewFetchError("mtf_insight", ReasonShapeMismatch, fmt.Errorf("figure missing"))

	fields := err.Fields()
	require.Equal(t, "mtf_insight", fields["source"])
	assert.Equal(t, "shape_mismatch", fields["reason"])
}
