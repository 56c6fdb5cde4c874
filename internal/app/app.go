package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/codegen"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	tokenID   uid.StringID
	codegen   *codegen.Generator
	totp      otp.OTP
	jwt       jwt.JWT

	// resources
	cacheConn *redis.Client
	mail      mail.Mail
	casbin    *casbin.Enforcer
	limiter   *ratelimit.SlidingWindow

	// modules
	credential *credential.Module

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initCache()
	app.initMail()
	app.initCasbin()
	app.initRateLimit()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func (a *App) storeDegraded() bool {
	return a.credential == nil || a.credential.Degraded()
}

func (a *App) storageMode() string {
	if a.storeDegraded() {
		return "memory"
	}
	return "redis"
}
