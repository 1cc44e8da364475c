package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassesSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("create book: %w", Conflictf("document %q already exists", "123"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.Equal(t, `document "123" already exists`, Message(Conflictf("document %q already exists", "123")))
}

func TestCauseIsKept(t *testing.T) {
	cause := errors.New("bad base64")
	err := Validationf("invalid cursor: %w", cause)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "validation error: invalid cursor: bad base64", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validationf("x")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(Unauthenticatedf("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbiddenf("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
