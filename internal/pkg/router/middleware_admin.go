package router

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

// DefaultAdminRole is the casbin subject granted to configured admin credentials.
const DefaultAdminRole = "admin"

const adminRealm = `Basic realm="OTP Admin"`

func secureEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func adminRole(cfg config.Config) string {
	if role := cfg.GetString("admin.role"); role != "" {
		return role
	}
	return DefaultAdminRole
}

// authenticate resolves the caller from the Authorization header: Bearer with
// the static admin token or a session JWT, or Basic admin credentials.
func authenticate(r *http.Request, cfg config.Config, verifier jwt.JWT) (jwt.Claims, bool) {
	if cfg == nil {
		return jwt.Claims{}, false
	}

	scheme, cred, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found {
		return jwt.Claims{}, false
	}
	cred = strings.TrimSpace(cred)

	switch strings.ToLower(scheme) {
	case "bearer":
		if secureEqual(cred, cfg.GetString("admin.token")) {
			clm := jwt.Claims{Role: adminRole(cfg)}
			clm.Subject = "token"
			return clm, true
		}
		if verifier == nil {
			return jwt.Claims{}, false
		}
		clm, err := verifier.Verify(cred)
		if err != nil {
			return jwt.Claims{}, false
		}
		return clm, true

	case "basic":
		user, pass, ok := r.BasicAuth()
		if !ok {
			return jwt.Claims{}, false
		}
		userOK := secureEqual(user, cfg.GetString("admin.username"))
		passOK := secureEqual(pass, cfg.GetString("admin.password"))
		if !userOK || !passOK {
			return jwt.Claims{}, false
		}
		clm := jwt.Claims{Role: adminRole(cfg)}
		clm.Subject = user
		return clm, true
	}

	return jwt.Claims{}, false
}

// middlewareAdmin attaches an authenticated principal to every request that
// carries valid admin credentials, and rejects unauthenticated or
// unauthorized calls to admin routes.
func middlewareAdmin(cfg config.Config, verifier jwt.JWT, enforcer *casbin.Enforcer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)

			clm, ok := authenticate(r, cfg, verifier)
			if ok {
				r = r.WithContext(jwt.SetAuth(r.Context(), clm))
			}

			if !isAdminRoute(route) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				w.Header().Set("WWW-Authenticate", adminRealm)
				writeJSON(w, errorResponse{Message: "unauthorized"}, http.StatusUnauthorized)
				return
			}

			if enforcer != nil {
				allowed, err := enforcer.Enforce(clm.Role, route, r.Method)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to enforce admin policy", "role", clm.Role, "route", route, "error", err)
				}
				if err != nil || !allowed {
					writeJSON(w, errorResponse{Message: "forbidden"}, http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
