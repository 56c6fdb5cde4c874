package inbound

import (
	"maps"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/credential/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for code issuance, verification and administration.
type HTTPEndpoint struct {
	uc uc
}

// Live reports process liveness.
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} router.successResponse{data=LiveResponse}
// @Router /health/live [get]
func (h *HTTPEndpoint) Live(r *router.Request) (any, error) {
	status, err := h.uc.Live(r.Context())
	if err != nil {
		return nil, err
	}

	return LiveResponse{Status: status}, nil
}

// Readiness reports which credential backend is serving.
// @Summary Readiness probe
// @Description Always ready; degraded=true when codes are held in process memory.
// @Tags Health
// @Produce json
// @Success 200 {object} router.successResponse{data=ReadinessResponse}
// @Router /health/ready [get]
func (h *HTTPEndpoint) Readiness(r *router.Request) (any, error) {
	resp, err := h.uc.Readiness(r.Context())
	if err != nil {
		return nil, err
	}

	return ReadinessResponse{Ready: resp.Ready, Degraded: resp.Degraded, Storage: resp.Storage}, nil
}

// OTPCreate issues a one-time code.
// @Summary Create OTP
// @Description Generates and stores a code, optionally emailing it. The code is returned only to admins or in debug mode.
// @Tags OTP
// @Accept json
// @Produce json
// @Param debug query bool false "Echo the code when the server allows it"
// @Param request body OTPCreateRequest false "Create payload"
// @Success 201 {object} router.successResponse{data=OTPCreateResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Router /api/v1/otp [post]
func (h *HTTPEndpoint) OTPCreate(r *router.Request) (any, error) {
	var req OTPCreateRequest
	if err := r.DecodeBody(&req, true); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPCreate(r.Context(), usecase.OTPCreateInput{
		Length:       req.Length,
		TTL:          req.TTL,
		Subject:      req.Subject,
		Purpose:      req.Purpose,
		Charset:      req.Charset,
		Email:        req.Email,
		Organization: req.Organization,
		EmailSubject: req.EmailSubject,
		SendEmail:    req.SendEmail,
		Debug:        r.GetQueryBool("debug"),
	})
	if err != nil {
		return nil, err
	}

	return OTPCreateResponse{
		ID:           resp.ID,
		TTL:          resp.TTL,
		ExpiresAt:    resp.ExpiresAt.UTC(),
		EmailSent:    resp.EmailSent,
		EmailMessage: resp.EmailMessage,
		EmailError:   resp.EmailError,
		Code:         resp.Code,
	}, nil
}

// OTPGenerateEmail issues a code and emails it.
// @Summary Generate OTP by email
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body OTPGenerateEmailRequest true "Generate payload"
// @Success 200 {object} router.successResponse{data=OTPGenerateEmailResponse}
// @Failure 400 {object} router.successResponse{data=OTPGenerateEmailResponse} "Email not sent"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/otp/generate [post]
func (h *HTTPEndpoint) OTPGenerateEmail(r *router.Request) (any, error) {
	var req OTPGenerateEmailRequest
	if err := r.DecodeBody(&req, true); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPGenerateEmail(r.Context(), usecase.OTPGenerateEmailInput{
		Email:        req.Email,
		Type:         req.Type,
		Organization: req.Organization,
		Subject:      req.Subject,
		Length:       req.Length,
		TTL:          req.TTL,
		Debug:        r.GetQueryBool("debug"),
	})
	if err != nil {
		return nil, err
	}

	return OTPGenerateEmailResponse{
		Success:   resp.Success,
		Message:   resp.Message,
		Error:     resp.Error,
		OTPID:     resp.OTPID,
		Type:      string(resp.Type),
		ExpiresIn: resp.ExpiresIn,
		Code:      resp.Code,
	}, nil
}

// OTPVerify consumes a code. Accepts id or otp_id, and code or otp.
// @Summary Verify OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body OTPVerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=OTPVerifyResponse}
// @Failure 400 {object} router.successResponse{data=OTPVerifyResponse} "Missing id or code"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req, true); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = req.OTPID
	}
	code := req.Code
	if code == "" {
		code = req.OTP
	}

	resp, err := h.uc.OTPVerify(r.Context(), usecase.OTPVerifyInput{ID: id, Code: string(code), Email: req.Email})
	if err != nil {
		return nil, err
	}

	return OTPVerifyResponse{
		Valid:      resp.Valid,
		Success:    resp.Valid,
		Reason:     resp.Reason,
		Message:    resp.Message,
		badRequest: resp.BadRequest,
	}, nil
}

// TOTPSetup mints an authenticator secret with its QR code.
// @Summary Set up TOTP
// @Tags TOTP
// @Accept json
// @Produce json
// @Param request body TOTPSetupRequest true "Setup payload"
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse}
// @Failure 400 {object} router.errorResponse "account_name is required"
// @Router /api/v1/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	var req TOTPSetupRequest
	if err := r.DecodeBody(&req, true); err != nil {
		return nil, err
	}

	resp, err := h.uc.TOTPSetup(r.Context(), usecase.TOTPSetupInput{AccountName: req.AccountName, Issuer: req.Issuer})
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret:      resp.Secret,
		URI:         resp.URI,
		QRCode:      resp.QRCode,
		AccountName: resp.AccountName,
		Issuer:      resp.Issuer,
	}, nil
}

// TOTPVerify checks a token against a secret.
// @Summary Verify TOTP
// @Tags TOTP
// @Accept json
// @Produce json
// @Param request body TOTPVerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=TOTPVerifyResponse}
// @Failure 400 {object} router.successResponse{data=TOTPVerifyResponse} "Missing parameters"
// @Router /api/v1/totp/verify [post]
func (h *HTTPEndpoint) TOTPVerify(r *router.Request) (any, error) {
	var req TOTPVerifyRequest
	if err := r.DecodeBody(&req, true); err != nil {
		return nil, err
	}

	resp, err := h.uc.TOTPVerify(r.Context(), usecase.TOTPVerifyInput{
		Secret: req.Secret,
		Token:  string(req.Token),
		Window: req.Window,
	})
	if err != nil {
		return nil, err
	}

	return TOTPVerifyResponse{
		Valid:      resp.Valid,
		Success:    resp.Valid,
		Reason:     resp.Reason.String(),
		Message:    resp.Message,
		badRequest: resp.BadRequest,
	}, nil
}

// AdminSession trades Basic credentials or the static token for a JWT.
// @Summary Start admin session
// @Tags Admin
// @Produce json
// @Security BasicAuth
// @Success 200 {object} router.successResponse{data=AdminSessionResponse}
// @Failure 401 {object} router.errorResponse "unauthorized"
// @Router /api/v1/admin/session [post]
func (h *HTTPEndpoint) AdminSession(r *router.Request) (any, error) {
	resp, err := h.uc.AdminSession(r.Context())
	if err != nil {
		return nil, err
	}

	return AdminSessionResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}

// AdminList lists stored codes newest first.
// @Summary List OTPs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (default 50)"
// @Param subject query string false "Exact subject"
// @Param purpose query string false "Exact purpose"
// @Param status query string false "active, used or any"
// @Success 200 {object} router.successResponse{data=AdminListResponse}
// @Failure 401 {object} router.errorResponse "unauthorized"
// @Failure 403 {object} router.errorResponse "forbidden"
// @Router /api/v1/admin/otps [get]
func (h *HTTPEndpoint) AdminList(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt("limit", 0)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.AdminList(r.Context(), usecase.AdminListInput{
		Limit:   limit,
		Subject: r.GetQuery("subject"),
		Purpose: r.GetQuery("purpose"),
		Status:  r.GetQuery("status"),
	})
	if err != nil {
		return nil, err
	}

	items := make([]AdminOTPItem, 0, len(resp.Items))
	for _, c := range resp.Items {
		items = append(items, adminItem(c))
	}

	return AdminListResponse{Items: items, Count: len(items)}, nil
}

// AdminPurge drops stale index entries.
// @Summary Purge OTP index
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=AdminPurgeResponse}
// @Router /api/v1/admin/purge [post]
func (h *HTTPEndpoint) AdminPurge(r *router.Request) (any, error) {
	resp, err := h.uc.AdminPurge(r.Context())
	if err != nil {
		return nil, err
	}

	return AdminPurgeResponse{Removed: resp.Removed}, nil
}

func adminItem(c entity.Credential) AdminOTPItem {
	rec := c.Record()
	maps.DeleteFunc(rec, func(k, _ string) bool {
		return k == entity.FieldHMAC || k == entity.FieldSalt
	})
	return AdminOTPItem(rec)
}
