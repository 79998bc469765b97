package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPassesThroughWrappedErrors(t *testing.T) {
	orig := NotFound(CodeRunNotFound, "Run with ID '3' not found.")
	wrapped := fmt.Errorf("get run: %w", orig)

	got := From(wrapped)
	assert.Same(t, orig, got)
	assert.True(t, IsNotFound(wrapped))
}

func TestFromUnknownIsInternal(t *testing.T) {
	cause := errors.New("disk on fire")
	got := From(cause)

	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.ErrorIs(t, got, cause)
	assert.False(t, IsNotFound(cause))
	assert.Nil(t, From(nil))
}

func TestValidationCarriesDetails(t *testing.T) {
	e := Validation(map[string]string{"cellCode": "cellCode is invalid"})
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus)
	assert.Equal(t, "cellCode is invalid", e.Details["cellCode"])
	assert.Equal(t, "VALIDATION_ERROR: validation failed", e.Error())
}
