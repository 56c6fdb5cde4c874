package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/credential/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	Live(ctx context.Context) (string, error)
	Readiness(ctx context.Context) (*usecase.ReadinessOutput, error)

	OTPCreate(ctx context.Context, in usecase.OTPCreateInput) (*usecase.OTPCreateOutput, error)
	OTPGenerateEmail(ctx context.Context, in usecase.OTPGenerateEmailInput) (*usecase.OTPGenerateEmailOutput, error)
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) (*usecase.OTPVerifyOutput, error)

	TOTPSetup(ctx context.Context, in usecase.TOTPSetupInput) (*usecase.TOTPSetupOutput, error)
	TOTPVerify(ctx context.Context, in usecase.TOTPVerifyInput) (*usecase.TOTPVerifyOutput, error)

	AdminSession(ctx context.Context) (*usecase.AdminSessionOutput, error)
	AdminList(ctx context.Context, in usecase.AdminListInput) (*usecase.AdminListOutput, error)
	AdminPurge(ctx context.Context) (*usecase.AdminPurgeOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Probes
	r.GET("/health/live", end.Live)
	r.GET("/healthz", end.Live)
	r.GET("/health/ready", end.Readiness)
	r.GET("/readyz", end.Readiness)

	// One-time codes
	r.POST("/api/v1/otp", end.OTPCreate)
	r.POST("/api/v1/otp/generate", end.OTPGenerateEmail)
	r.POST("/api/v1/otp/verify", end.OTPVerify)

	// TOTP
	r.POST("/api/v1/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/totp/verify", end.TOTPVerify)

	// Admin (need authenticated & authorization)
	r.POST(router.AdminPrefix+"session", end.AdminSession)
	r.GET(router.AdminPrefix+"otps", end.AdminList)
	r.POST(router.AdminPrefix+"purge", end.AdminPurge)
}
