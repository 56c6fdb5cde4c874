package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// DefaultListLimit applies when the caller gives no positive limit.
const DefaultListLimit = 50

type AdminListInput struct {
	Limit   int `validate:"gte=0,lte=1000"`
	Subject string
	Purpose string
	Status  string `validate:"omitempty,oneof=active used any"`
}

type AdminListOutput struct {
	Items []entity.Credential
}

func (s *Usecase) AdminList(ctx context.Context, in AdminListInput) (*AdminListOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminList")
	defer span.End()

	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Limit == 0 {
		in.Limit = DefaultListLimit
	}

	items, err := s.store.ListActive(ctx, entity.ListFilter{
		Limit:   in.Limit,
		Subject: strings.TrimSpace(in.Subject),
		Purpose: strings.TrimSpace(in.Purpose),
		Status:  entity.ParseListStatus(in.Status),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list otp credentials", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AdminListOutput{Items: items}, nil
}
