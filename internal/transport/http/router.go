// Package httptransport assembles the HTTP surface: middleware chain, public
// consent endpoints, operator endpoints and operational probes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "ucm/internal/audit/handler"
	cataloghandler "ucm/internal/catalog/handler"
	consenthandler "ucm/internal/consent/handler"
	"ucm/internal/platform/health"
	"ucm/internal/platform/metrics"
	adminmw "ucm/internal/platform/middleware/admin"
	"ucm/internal/platform/middleware/metadata"
	"ucm/internal/platform/middleware/privacyheaders"
	requestmw "ucm/internal/platform/middleware/request"
	runtimehandler "ucm/internal/runtime/handler"
)

// Deps carries the wired handlers and cross-cutting pieces the router mounts.
type Deps struct {
	Runtime *runtimehandler.Handler
	Consent *consenthandler.Handler
	Audit   *audithandler.Handler
	Vendors *cataloghandler.Handler
	Health  *health.Handler

	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	AdminKey string

	// PrivacyObserver is optional; nil disables privacy header recording.
	PrivacyObserver *privacyheaders.Observer
}

// NewRouter builds the full route tree.
//
//	/api/ucm/runtime                 public
//	/api/ucm/consent                 public
//	/api/ucm/consents/{id}/receipt   public
//	/api/ucm/anomalies               public
//	/api/ucm/vendors                 GET public, mutations admin
//	/api/ucm/audit                   admin
//	/health*, /metrics               operational
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestmw.Recovery(deps.Logger))
	r.Use(requestmw.RequestID)
	r.Use(metadata.NewMiddleware(nil).Handler)
	r.Use(requestmw.Logger(deps.Logger))
	r.Use(requestmw.Latency(deps.Metrics))
	r.Use(requestmw.Timeout(30 * time.Second))
	r.Use(requestmw.ContentTypeJSON)

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/ucm", func(api chi.Router) {
		if deps.PrivacyObserver != nil {
			api.Use(deps.PrivacyObserver.Handler)
		}

		deps.Runtime.Register(api)
		deps.Consent.Register(api)
		deps.Audit.Register(api)
		deps.Vendors.Register(api)

		api.Group(func(admin chi.Router) {
			admin.Use(adminmw.RequireAdminKey(deps.AdminKey, deps.Logger))
			deps.Audit.RegisterAdmin(admin)
			deps.Vendors.RegisterAdmin(admin)
		})
	})

	return r
}
