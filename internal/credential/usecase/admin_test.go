package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/credential/outbound/store"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_AdminSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.uc.AdminSession(context.Background())
	assert.Equal(t, goerror.CodeUnauthorized, errCode(t, err))

	out, err := f.uc.AdminSession(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, 900, out.ExpiresIn)

	clm, err := f.jwt.Verify(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "root", clm.Subject)
	assert.Equal(t, "admin", clm.Role)
}

func TestUsecase_AdminListAndPurge(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := adminCtx()

	var codes []*OTPCreateOutput
	for i := range 3 {
		out, err := f.uc.OTPCreate(ctx, OTPCreateInput{Subject: fmt.Sprintf("user%d", i), Purpose: "login", TTL: ptr(60)})
		require.NoError(t, err)
		codes = append(codes, out)
		f.clock.Advance(time.Second)
	}
	_, err := f.uc.OTPCreate(ctx, OTPCreateInput{Subject: "other", Purpose: "reset", TTL: ptr(3600)})
	require.NoError(t, err)

	v, err := f.uc.OTPVerify(context.Background(), OTPVerifyInput{ID: codes[1].ID, Code: codes[1].Code})
	require.NoError(t, err)
	require.True(t, v.Valid)

	list, err := f.uc.AdminList(ctx, AdminListInput{Purpose: "login", Status: "active"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, codes[2].ID, list.Items[0].ID)
	assert.Equal(t, codes[0].ID, list.Items[1].ID)

	list, err = f.uc.AdminList(ctx, AdminListInput{Status: "USED"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Used)

	list, err = f.uc.AdminList(ctx, AdminListInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = f.uc.AdminList(ctx, AdminListInput{Status: "gone"})
	assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err))

	_, err = f.uc.AdminList(ctx, AdminListInput{Limit: -1})
	assert.Equal(t, goerror.CodeInvalidInput, errCode(t, err))

	f.clock.Advance(2 * time.Minute)
	purged, err := f.uc.AdminPurge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, purged.Removed)

	require.NoError(t, f.uc.PurgeJanitor(context.Background()))

	list, err = f.uc.AdminList(ctx, AdminListInput{Status: "any"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "other", list.Items[0].Subject)
	assert.IsType(t, entity.Credential{}, list.Items[0])
}

func TestUsecase_Health(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	status, err := f.uc.Live(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)

	out, err := f.uc.Readiness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ReadinessOutput{Ready: true, Degraded: true, Storage: store.ModeMemory}, out)
}
