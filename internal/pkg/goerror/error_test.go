package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{err: NewBusiness("nope", CodeUnauthorized), want: http.StatusUnauthorized},
		{err: NewBusiness("nope", CodeForbidden), want: http.StatusForbidden},
		{err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{err: NewBusiness("down", CodeUnavailable), want: http.StatusServiceUnavailable},
		{err: NewInvalidFormat(), want: http.StatusBadRequest},
		{err: NewInvalidInput(nil, "ttl", "too small"), want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		var gerr *Error
		require.ErrorAs(t, tt.err, &gerr)
		assert.Equal(t, tt.want, gerr.StatusCode(), gerr.String())
	}
}

func TestNewInvalidInput(t *testing.T) {
	t.Parallel()

	var gerr *Error
	require.ErrorAs(t, NewInvalidInput(nil, "length", "must be between 4 and 20"), &gerr)
	assert.Equal(t, map[string]string{"length": "must be between 4 and 20"}, gerr.Fields())
	assert.Equal(t, TypeValidation, gerr.Type())

	require.ErrorAs(t, NewInvalidInput(nil, "odd"), &gerr)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())

	cause := errors.New("cause")
	require.ErrorAs(t, NewInvalidInput(cause), &gerr)
	assert.ErrorIs(t, gerr, cause)
	assert.Equal(t, "Validation error", gerr.Msg())
}
