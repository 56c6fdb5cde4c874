package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestHandler_MasksSensitiveFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "otpgate", "info", nil, []string{"email"}))

	logger.Info("created",
		"otp_id", "otp_abc",
		"code", "123456",
		"email", "a@b.c",
		"payload", `{"secret":"JBSWY3DP","issuer":"x"}`,
		slog.Group("req", slog.String("token", "t")),
	)

	line := decodeLine(t, &buf)
	assert.Equal(t, "otp_abc", line["otp_id"])
	assert.Equal(t, maskedValue, line["code"])
	assert.Equal(t, maskedValue, line["email"])
	assert.JSONEq(t, `{"secret":"***","issuer":"x"}`, line["payload"].(string))
	assert.Equal(t, maskedValue, line["req"].(map[string]any)["token"])
	assert.Equal(t, "otpgate", line["service"])
	assert.Equal(t, "INFO", line["severity"])
}

func TestHandler_CorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "", "debug", nil, nil))

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.DebugContext(ctx, "hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-1", line["_cID"])
	assert.NotContains(t, line, "service")
}

func TestHandler_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "", "warn", nil, nil))
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger = slog.New(newHandler(&buf, "", "bogus", nil, nil))
	logger.Info("kept")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationID_Missing(t *testing.T) {
	t.Parallel()
	assert.Empty(t, GetCorrelationID(context.Background()))
}
