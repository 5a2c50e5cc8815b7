package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, "STORE_ERROR", http.StatusInternalServerError, "storage failure")

	assert.Equal(t, "storage failure: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestFromErrorPassesThroughTypedErrors(t *testing.T) {
	assert.Same(t, ErrUserNotFound, FromError(ErrUserNotFound))

	wrapped := fmt.Errorf("login: %w", ErrInvalidCredentials)
	assert.Same(t, ErrInvalidCredentials, FromError(wrapped))
}

func TestFromErrorNormalisesUnknownErrors(t *testing.T) {
	err := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestFromErrorNil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrNotFound, "message not found")

	assert.Equal(t, "message not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, ErrNotFound.Status, clone.Status)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestStatusSplitBetweenMissingAndBadCredentials(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, ErrNoCredentials.Status)
	assert.Equal(t, http.StatusForbidden, ErrInvalidToken.Status)
}
