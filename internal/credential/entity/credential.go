package entity

import (
	"strconv"
	"time"
)

// Credential is the stored form of an issued one-time code. The plaintext code
// is never part of it.
type Credential struct {
	ID        string
	HMAC      string
	Salt      string
	Subject   string
	Purpose   string
	Used      bool
	CreatedAt int64
	UsedAt    int64
}

// NewCredential is the input to Store.Create.
type NewCredential struct {
	ID        string
	HMAC      string
	Salt      string
	Subject   string
	Purpose   string
	TTL       time.Duration
	CreatedAt time.Time
}

// ExpiresAt is the instant the credential stops being visible.
func (n NewCredential) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.TTL)
}

// Credential returns the record persisted for n.
func (n NewCredential) Credential() Credential {
	return Credential{
		ID:        n.ID,
		HMAC:      n.HMAC,
		Salt:      n.Salt,
		Subject:   n.Subject,
		Purpose:   n.Purpose,
		CreatedAt: n.CreatedAt.Unix(),
	}
}

// ListFilter selects credentials for ListActive.
type ListFilter struct {
	Limit   int
	Subject string
	Purpose string
	Status  ListStatus
}

// Match reports whether c passes the subject, purpose and status filters.
func (f ListFilter) Match(c Credential) bool {
	if f.Subject != "" && c.Subject != f.Subject {
		return false
	}
	if f.Purpose != "" && c.Purpose != f.Purpose {
		return false
	}
	return f.Status.Matches(c.Used)
}

// Record field names shared by the Redis hash and the admin listing.
const (
	FieldHMAC      = "hmac"
	FieldSalt      = "salt"
	FieldSubject   = "subject"
	FieldPurpose   = "purpose"
	FieldUsed      = "used"
	FieldCreatedAt = "created_at"
	FieldUsedAt    = "used_at"
)

// Record renders c in the persisted string shape. used_at is present only
// once the credential has been consumed.
func (c Credential) Record() map[string]string {
	rec := map[string]string{
		"id":           c.ID,
		FieldHMAC:      c.HMAC,
		FieldSalt:      c.Salt,
		FieldSubject:   c.Subject,
		FieldPurpose:   c.Purpose,
		FieldUsed:      "0",
		FieldCreatedAt: strconv.FormatInt(c.CreatedAt, 10),
	}
	if c.Used {
		rec[FieldUsed] = "1"
		rec[FieldUsedAt] = strconv.FormatInt(c.UsedAt, 10)
	}
	return rec
}

// CredentialFromRecord parses the persisted string shape. Malformed numbers
// read as zero.
func CredentialFromRecord(id string, rec map[string]string) Credential {
	created, _ := strconv.ParseInt(rec[FieldCreatedAt], 10, 64) //nolint:errcheck // zero on malformed
	usedAt, _ := strconv.ParseInt(rec[FieldUsedAt], 10, 64)     //nolint:errcheck // zero on malformed

	return Credential{
		ID:        id,
		HMAC:      rec[FieldHMAC],
		Salt:      rec[FieldSalt],
		Subject:   rec[FieldSubject],
		Purpose:   rec[FieldPurpose],
		Used:      rec[FieldUsed] == "1",
		CreatedAt: created,
		UsedAt:    usedAt,
	}
}
