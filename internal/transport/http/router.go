// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and translate coded errors; business rules live below.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "northstar/internal/platform/metrics"
	"northstar/pkg/platform/httputil"
	authmw "northstar/pkg/platform/middleware/auth"
	"northstar/pkg/platform/middleware/requestid"
	"northstar/pkg/platform/middleware/requesttime"
)

// Deps bundles everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Validator authmw.TokenValidator
	Registry  *prometheus.Registry
	HTTP      *platformmetrics.HTTP

	Audit     AuditService
	Retention RetentionService
	Holds     HoldService
	Purge     PurgeService
	Roster    RosterService
	Tenants   TenantService
}

// NewRouter wires all endpoints. Tenant-scope routes read the tenant from
// the token; platform routes additionally require the platform_admin role.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))
	if deps.HTTP != nil {
		r.Use(deps.HTTP.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Logger))

		newAuditHandler(deps.Audit, deps.Logger).register(r)
		newRetentionHandler(deps.Retention, deps.Logger).register(r)
		newHoldHandler(deps.Holds, deps.Logger).register(r)
		newPurgeHandler(deps.Purge, deps.Logger).register(r)
		newRosterHandler(deps.Roster, deps.Logger).register(r)

		r.Route("/platform", func(r chi.Router) {
			r.Use(authmw.RequirePlatformAdmin(deps.Logger))
			newTenantHandler(deps.Tenants, deps.Logger).register(r)
			newPlatformAuditHandler(deps.Audit, deps.Logger).register(r)
		})
	})

	return r
}
