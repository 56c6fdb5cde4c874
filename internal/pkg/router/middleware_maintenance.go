package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance blocks routes listed in app.maintenance.endpoints.
// The list is re-read per request so it can be toggled by a config reload.
// An entry ending in "*" blocks every route with that prefix.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
				prefix, wildcard := strings.CutSuffix(endpoint, "*")
				if route == endpoint || (wildcard && strings.HasPrefix(route, prefix)) {
					writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
