package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredential_RecordRoundTrip(t *testing.T) {
	t.Parallel()

	c := Credential{ID: "otp_x", HMAC: "h", Salt: "s", Subject: "a@b.c", Purpose: "login", CreatedAt: 100}
	rec := c.Record()
	assert.Equal(t, "0", rec[FieldUsed])
	assert.NotContains(t, rec, FieldUsedAt)
	assert.Equal(t, c, CredentialFromRecord("otp_x", rec))

	c.Used, c.UsedAt = true, 120
	rec = c.Record()
	assert.Equal(t, "1", rec[FieldUsed])
	assert.Equal(t, "120", rec[FieldUsedAt])
	assert.Equal(t, c, CredentialFromRecord("otp_x", rec))
}

func TestNewCredential(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	n := NewCredential{ID: "otp_x", TTL: 5 * time.Minute, CreatedAt: now}
	assert.Equal(t, now.Add(5*time.Minute), n.ExpiresAt())
	assert.Equal(t, now.Unix(), n.Credential().CreatedAt)
	assert.False(t, n.Credential().Used)
}

func TestListFilter_Match(t *testing.T) {
	t.Parallel()

	active := Credential{Subject: "a", Purpose: "p"}
	used := Credential{Subject: "a", Purpose: "p", Used: true}

	tests := []struct {
		name   string
		filter ListFilter
		c      Credential
		want   bool
	}{
		{"any matches used", ListFilter{Status: ListStatusAny}, used, true},
		{"active rejects used", ListFilter{Status: ListStatusActive}, used, false},
		{"used rejects active", ListFilter{Status: ListStatusUsed}, active, false},
		{"subject mismatch", ListFilter{Subject: "b"}, active, false},
		{"purpose match", ListFilter{Purpose: "p", Status: ListStatusActive}, active, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Match(tt.c))
		})
	}
}

func TestParsers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ListStatusActive, ParseListStatus(" Active "))
	assert.Equal(t, ListStatusAny, ParseListStatus("bogus"))
	assert.Equal(t, OutcomeUsed, ParseOutcome("used"))
	assert.Equal(t, OutcomeInvalid, ParseOutcome("weird"))
	assert.Equal(t, "alnum", OTPTypeAlphanumeric.Charset())
	assert.Equal(t, "digits", OTPType("other").Charset())
}
