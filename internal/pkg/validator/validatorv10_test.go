package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     string `json:"otp_id" validate:"required,otpid"`
	Token  string `json:"token" validate:"omitempty,digits,max=6"`
	Length int    `json:"length" validate:"gte=4,lte=20"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestV10Validator_Validate(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     sample
		fields []string
	}{
		{
			name: "valid",
			in:   sample{ID: "otp_AbCdEf123456_-xy", Token: "123456", Length: 6},
		},
		{
			name:   "bad id and length",
			in:     sample{ID: "nope", Length: 2},
			fields: []string{"otp_id", "length"},
		},
		{
			name:   "non digit token and bad email",
			in:     sample{ID: "otp_AbCdEf123456", Token: "12a", Length: 6, Email: "x"},
			fields: []string{"token", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tt.in)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Values(), len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Values(), f)
			}
		})
	}
}

func TestV10Validator_CustomMessage(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(sample{ID: "otp_AbCdEf123456", Token: "x1", Length: 6})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "token must contain only digits", verr["token"])
	assert.Contains(t, verr.Error(), "token")
}

func TestV10ValidationError_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
}

func TestV10Validator_UntaggedFieldsUseSnakeCase(t *testing.T) {
	t.Parallel()

	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(struct {
		AccountName string `validate:"required"`
	}{})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "account_name")
}
