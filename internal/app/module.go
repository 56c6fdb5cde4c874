package app

import (
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/credential"
)

func (a *App) initModules() {
	var cacheConn redis.UniversalClient
	if a.cacheConn != nil {
		cacheConn = a.cacheConn
	}

	mod, err := credential.New(credential.Dependency{
		Ctx:        a.ctx,
		CacheConn:  cacheConn,
		Mail:       a.mail,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		TokenID:    a.tokenID,
		HMAC:       a.hmac,
		Codegen:    a.codegen,
		Clock:      a.clock,
		Totp:       a.totp,
		Validator:  a.validator,
		JWT:        a.jwt,
	})
	if err != nil {
		slog.Error("failed to init module credential", "error", err)
		os.Exit(1)
	}

	a.credential = mod
}
