// Package store keeps issued credentials and enforces their single use.
//
// Redis is the durable backend, Memory the volatile one, and Fallback
// switches from the first to the second permanently on connectivity loss.
package store

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential/entity"
)

// Backend names reported by Fallback.Mode.
const (
	ModeRedis  = "redis"
	ModeMemory = "memory"
)

// Store is the credential lifecycle contract. Every method is safe for
// concurrent use.
type Store interface {
	Create(ctx context.Context, c entity.NewCredential) error
	// GetMeta returns goerror.ErrNotFound when the id is unknown or expired.
	GetMeta(ctx context.Context, id string) (*entity.Credential, error)
	// VerifyAndConsume grants OutcomeOK to at most one caller per id.
	VerifyAndConsume(ctx context.Context, id, digest string) (entity.Outcome, error)
	// ListActive returns matching credentials newest first. Limit <= 0 means unbounded.
	ListActive(ctx context.Context, f entity.ListFilter) ([]entity.Credential, error)
	// PurgeIndex removes stale bookkeeping and reports how many entries went.
	PurgeIndex(ctx context.Context) (int, error)
}

// IsConnectivityError reports whether err means the backend could not be
// reached or stopped answering, as opposed to a logical failure.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "pool timeout")
}

func digestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
