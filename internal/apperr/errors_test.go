package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsToSentinel(t *testing.T) {
	err := InsufficientStock("product %d has %d left", 7, 2)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrInsufficientSerials)
	assert.Equal(t, "product 7 has 2 left", err.Error())
}

func TestKindOf_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create sale: %w", SerialUnavailable("serial S3 is sold"))
	assert.Equal(t, KindSerialUnavailable, KindOf(wrapped))

	bare := fmt.Errorf("load: %w", ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(bare))

	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{InsufficientStock("low"), http.StatusBadRequest},
		{InsufficientSerials("low"), http.StatusBadRequest},
		{SerialUnavailable("sold"), http.StatusBadRequest},
		{StateConflict("inactive"), http.StatusBadRequest},
		{Unauthorized("token"), http.StatusUnauthorized},
		{Forbidden("role"), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(Validation("x")))
	assert.False(t, IsClientError(errors.New("x")))
}
