package inbound

import (
	"encoding/json"
	"net/http"
	"time"
)

// flexString accepts a JSON string or number, so {"token": 123456} and
// {"token": "123456"} decode alike.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = flexString(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type LiveResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Ready    bool   `json:"ready"`
	Degraded bool   `json:"degraded"`
	Storage  string `json:"storage"`
}

type OTPCreateRequest struct {
	Length       *int   `json:"length"`
	TTL          *int   `json:"ttl"`
	Subject      string `json:"subject"`
	Purpose      string `json:"purpose"`
	Charset      string `json:"charset"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	EmailSubject string `json:"email_subject"`
	SendEmail    bool   `json:"send_email"`
}

type OTPCreateResponse struct {
	ID           string    `json:"id"`
	TTL          int       `json:"ttl"`
	ExpiresAt    time.Time `json:"expires_at"`
	EmailSent    *bool     `json:"email_sent,omitempty"`
	EmailMessage string    `json:"email_message,omitempty"`
	EmailError   string    `json:"email_error,omitempty"`
	Code         string    `json:"code,omitempty"`
}

func (OTPCreateResponse) StatusCode() int { return http.StatusCreated }

func (OTPCreateResponse) Message() string { return "OTP created" }

type OTPGenerateEmailRequest struct {
	Email        string `json:"email"`
	Type         string `json:"type"`
	Organization string `json:"organization"`
	Subject      string `json:"subject"`
	Length       *int   `json:"length"`
	TTL          *int   `json:"ttl"`
}

type OTPGenerateEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	OTPID     string `json:"otp_id"`
	Type      string `json:"type"`
	ExpiresIn int    `json:"expires_in"`
	Code      string `json:"code,omitempty"`
}

func (r OTPGenerateEmailResponse) StatusCode() int {
	if !r.Success {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

type OTPVerifyRequest struct {
	ID    string     `json:"id"`
	OTPID string     `json:"otp_id"`
	Code  flexString `json:"code"`
	OTP   flexString `json:"otp"`
	Email string     `json:"email"`
}

type OTPVerifyResponse struct {
	Valid   bool   `json:"valid"`
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
	// status
	badRequest bool
}

func (r OTPVerifyResponse) StatusCode() int {
	if r.badRequest {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

type TOTPSetupRequest struct {
	AccountName string `json:"account_name"`
	Issuer      string `json:"issuer"`
}

type TOTPSetupResponse struct {
	Secret      string `json:"secret"`
	URI         string `json:"uri"`
	QRCode      string `json:"qr_code"`
	AccountName string `json:"account_name"`
	Issuer      string `json:"issuer"`
}

type TOTPVerifyRequest struct {
	Secret string     `json:"secret"`
	Token  flexString `json:"token"`
	Window *int       `json:"window"`
}

type TOTPVerifyResponse struct {
	Valid   bool   `json:"valid"`
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	// status
	badRequest bool
}

func (r TOTPVerifyResponse) StatusCode() int {
	if r.badRequest {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

type AdminSessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AdminOTPItem is the persisted record shape without digest material.
type AdminOTPItem map[string]string

type AdminListResponse struct {
	Items []AdminOTPItem `json:"items"`
	Count int            `json:"count"`
}

type AdminPurgeResponse struct {
	Removed int `json:"removed"`
}

func (AdminPurgeResponse) Message() string { return "Index purged" }
