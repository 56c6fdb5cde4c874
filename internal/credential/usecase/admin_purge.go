package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type AdminPurgeOutput struct {
	Removed int
}

func (s *Usecase) AdminPurge(ctx context.Context) (*AdminPurgeOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminPurge")
	defer span.End()

	n, err := s.store.PurgeIndex(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to purge otp index", "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp index purged", "removed", n)
	return &AdminPurgeOutput{Removed: n}, nil
}

// PurgeJanitor is the periodic form of AdminPurge, run by the goroutine
// manager which logs a returned error and retries on the next tick.
func (s *Usecase) PurgeJanitor(ctx context.Context) error {
	n, err := s.store.PurgeIndex(ctx)
	if err != nil {
		return fmt.Errorf("purge otp index: %w", err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "janitor purged otp index", "removed", n)
	}
	return nil
}
