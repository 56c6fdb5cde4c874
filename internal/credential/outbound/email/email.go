// Package email delivers issued codes over SMTP after screening the
// recipient and the request text.
package email

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"log/slog"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Result messages returned by SendOTP.
const (
	MsgInvalidFormat     = "Invalid email format"
	MsgDomainNotAllowed  = "Email domain not allowed"
	MsgSpamDetected      = "Request blocked due to spam detection"
	MsgSMTPNotConfigured = "SMTP not configured"
)

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const textBody = `{{.Organization}} - OTP Verification

Your verification code: {{.Code}}

This code will expire in {{.Minutes}} minutes.

Never share this code with anyone. {{.Organization}} will never ask for your OTP code.

If you didn't request this code, please ignore this email.
`

const htmlBody = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>OTP Verification - {{.Organization}}</title></head>
<body style="font-family:Segoe UI,Tahoma,sans-serif;background:#f5f5f5;padding:20px">
  <div style="max-width:600px;margin:0 auto;background:#fff;border-radius:12px;overflow:hidden">
    <div style="background:#667eea;color:#fff;padding:32px;text-align:center">
      <h1>{{.Organization}}</h1>
      <p>Your secure verification code</p>
    </div>
    <div style="padding:40px 30px;text-align:center">
      <p>Use this code to complete your verification:</p>
      <div style="font-size:36px;font-weight:bold;letter-spacing:8px;color:#667eea;border:3px dashed #667eea;border-radius:12px;padding:20px">{{.Code}}</div>
      <p>This code will expire in <strong>{{.Minutes}} minutes</strong></p>
      <p style="color:#dc3545">Never share this code with anyone. {{.Organization}} will never ask for your OTP code via phone or email.</p>
      <p style="color:#6c757d;font-size:12px">Generated at: {{.GeneratedAt}}</p>
    </div>
    <div style="background:#f8f9fa;padding:24px;text-align:center;color:#6c757d;font-size:14px">
      <p>If you didn't request this code, please ignore this email.</p>
      <p>&copy; {{.Year}} {{.Organization}}. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`

var (
	textTpl = template.Must(template.New("otp_text").Parse(textBody))
	htmlTpl = htmltemplate.Must(htmltemplate.New("otp_html").Parse(htmlBody))
)

type Dependency struct {
	Config     config.Config
	Mail       mail.Mail
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

// Notifier screens and sends OTP emails. Settings are read from config on
// every call so a reload takes effect without a restart.
type Notifier struct {
	cfg   config.Config
	mail  mail.Mail
	clock clock.Clocker
	ins   instrument.Instrumentation
}

func New(dep Dependency) *Notifier {
	return &Notifier{cfg: dep.Config, mail: dep.Mail, clock: dep.Clock, ins: dep.Instrument}
}

type bodyData struct {
	Organization string
	Code         string
	Minutes      int
	GeneratedAt  string
	Year         string
}

// SendOTP validates the request and delivers the code. It never fails with an
// error; the boolean and message describe the result for the caller.
func (n *Notifier) SendOTP(ctx context.Context, m entity.OTPMail) (bool, string) {
	ctx, span := n.ins.Tracer("credential.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	ok, msg := n.send(ctx, m)
	span.SetAttributes(attribute.Bool("email.sent", ok))
	if !ok {
		span.SetStatus(codes.Error, msg)
	}

	return ok, msg
}

func (n *Notifier) send(ctx context.Context, m entity.OTPMail) (bool, string) {
	if !addressPattern.MatchString(m.To) {
		return false, MsgInvalidFormat
	}
	if !n.domainAllowed(m.To) {
		return false, MsgDomainNotAllowed
	}
	if n.spam(m.Subject, m.Purpose) {
		return false, MsgSpamDetected
	}
	if n.mail == nil || n.cfg.GetString("mail.smtp.username") == "" || n.cfg.GetString("mail.smtp.password") == "" {
		slog.WarnContext(ctx, "smtp not configured, email not sent", "to", m.To)
		return false, MsgSMTPNotConfigured
	}

	org := m.Organization
	if org == "" {
		org = n.organization()
	}

	subject := m.Subject
	if subject == "" {
		subject = n.subject(org)
	}

	now := n.clock.Now().UTC()
	data := bodyData{
		Organization: org,
		Code:         m.Code,
		Minutes:      minutes(m.TTL),
		GeneratedAt:  now.Format("2006-01-02 15:04:05 UTC"),
		Year:         now.Format("2006"),
	}

	var text, html bytes.Buffer
	if err := textTpl.Execute(&text, data); err != nil {
		slog.ErrorContext(ctx, "failed to render otp email text", "error", err)
		return false, "Failed to send email: " + err.Error()
	}
	if err := htmlTpl.Execute(&html, data); err != nil {
		slog.ErrorContext(ctx, "failed to render otp email html", "error", err)
		return false, "Failed to send email: " + err.Error()
	}

	err := n.mail.Send(ctx, mail.Message{
		FromName: n.cfg.GetString("mail.from_name"),
		To:       []string{m.To},
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "to", m.To, "error", err)
		return false, "Failed to send email: " + err.Error()
	}

	slog.InfoContext(ctx, "otp email sent", "to", m.To)
	return true, "Email sent to " + m.To
}

func (n *Notifier) domainAllowed(addr string) bool {
	allowed := n.cfg.GetArray("email.allowed_domains")
	if len(allowed) == 0 {
		return true
	}

	_, domain, _ := strings.Cut(addr, "@")
	for _, d := range allowed {
		if strings.EqualFold(strings.TrimSpace(d), domain) {
			return true
		}
	}
	return false
}

func (n *Notifier) spam(subject, purpose string) bool {
	text := strings.ToLower(subject + " " + purpose)
	for _, w := range n.cfg.GetArray("email.spam_keywords") {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (n *Notifier) organization() string {
	if org := n.cfg.GetString("email.organization_name"); org != "" {
		return org
	}
	return "OTP Service"
}

func (n *Notifier) subject(org string) string {
	tpl := n.cfg.GetString("email.subject_template")
	if tpl == "" {
		tpl = "Your {organization} verification code"
	}
	return strings.ReplaceAll(tpl, "{organization}", org)
}

func minutes(ttl time.Duration) int {
	if m := int(ttl / time.Minute); m > 0 {
		return m
	}
	return 1
}
