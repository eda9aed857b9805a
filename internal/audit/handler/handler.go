package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ucm/internal/audit"
	dErrors "ucm/pkg/domain-errors"
	"ucm/pkg/platform/httputil"
	"ucm/pkg/requestcontext"
)

// Service defines the interface for audit trail operations.
type Service interface {
	Emit(ctx context.Context, event audit.Event)
	Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// Handler wires audit endpoints to the audit publisher.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the operator-only audit reader. The router wraps this
// group with the admin key middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/audit", h.HandleQuery)
}

// Register mounts the public anomaly reporting endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/anomalies", h.HandleReportAnomaly)
}

// HandleQuery handles GET /api/ucm/audit requests.
//
// Query parameters:
//   - type: filter to one event type
//   - since: RFC 3339 lower bound on occurrence time
//   - limit: page size, clamped to [1, 500], default 50
//
// Results are newest-first. No matches is an empty array, not an error.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "query audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	var filter audit.Filter
	query := r.URL.Query()

	if raw := query.Get("type"); raw != "" {
		eventType := audit.EventType(raw)
		if !eventType.IsValid() {
			return audit.Filter{}, dErrors.New(dErrors.CodeValidation, "unknown audit event type "+raw)
		}
		filter.Type = &eventType
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeValidation, "since must be an RFC 3339 timestamp")
		}
		filter.Since = &since
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeValidation, "limit must be an integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// HandleReportAnomaly handles POST /api/ucm/anomalies requests. The report
// is accepted asynchronously; delivery into the trail is best-effort.
func (h *Handler) HandleReportAnomaly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AnomalyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	h.service.Emit(ctx, req.ToEvent())
	w.WriteHeader(http.StatusNoContent)
}
