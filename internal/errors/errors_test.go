package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := NotFoundf("book %s not found", "b1")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrAlreadyExists))
}

func TestIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("rewrite book: %w", Unavailable("backend down"))
	assert.True(t, Is(err, ErrUnavailable))
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Unavailable("document store unreachable").WithCause(cause)

	assert.True(t, Is(err, ErrUnavailable))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Validation("title required"))

	var domainErr *Error
	require.True(t, As(wrapped, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.Equal(t, "title required", domainErr.Message)
}

func TestUnrecognizedAction(t *testing.T) {
	err := UnrecognizedAction("rename_book")
	assert.True(t, Is(err, ErrUnrecognizedAction))
	assert.Contains(t, err.Error(), "rename_book")
}
