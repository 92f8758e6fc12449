package errors

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound(ReasonNovelNotFound, "novel nvl-1 not found")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))

	wrapped := fmt.Errorf("update novel: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, ReasonNovelNotFound, ReasonOf(wrapped))
}

func TestValidation_CarriesFieldError(t *testing.T) {
	err := Validation("title", "TITLE_TOO_SHORT")

	assert.True(t, Is(err, ErrValidation))
	assert.Equal(t, "TITLE_TOO_SHORT", err.Reason)

	var fe *FieldError
	require.True(t, As(err, &fe))
	assert.Equal(t, "title", fe.Field)
	assert.Equal(t, "TITLE_TOO_SHORT", fe.Reason)
	assert.Equal(t, fe, err.Details)
}

func TestValidation_ErrorNamesFieldOnce(t *testing.T) {
	err := Validation("title", "TITLE_TOO_SHORT")

	assert.Equal(t, "validation failed: title: TITLE_TOO_SHORT", err.Error())
	assert.Equal(t, err.Message, err.Error())

	wrapped := fmt.Errorf("create novel: %w", err)
	assert.Equal(t, 1, strings.Count(wrapped.Error(), "TITLE_TOO_SHORT"))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestWithCause_PreservesReason(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := AlreadyExists(ReasonUsernameTaken, "username taken").WithCause(cause)

	assert.Equal(t, ReasonUsernameTaken, err.Reason)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestReasonOf_NonDomainError(t *testing.T) {
	assert.Empty(t, ReasonOf(fmt.Errorf("plain")))
	assert.Empty(t, ReasonOf(nil))
}
