package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/otpgate/internal/pkg/router.middlewareRecoverer.func1.1()
	/src/otpgate/internal/pkg/router/middleware_recover.go:31 +0x8a
github.com/shandysiswandi/otpgate/internal/credential/usecase.(*Usecase).OTPCreate(...)
	/src/otpgate/internal/credential/usecase/otp_create.go:40
`)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:31",
		"internal/credential/usecase/otp_create.go:40",
	}, InternalPaths(stack))
	assert.Empty(t, InternalPaths(nil))
}
