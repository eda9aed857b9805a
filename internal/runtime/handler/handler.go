package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ucm/internal/gpc"
	"ucm/internal/region"
	"ucm/internal/runtime"
	dErrors "ucm/pkg/domain-errors"
	"ucm/pkg/platform/httputil"
	"ucm/pkg/requestcontext"
)

// Service defines the interface for runtime resolution.
type Service interface {
	Resolve(ctx context.Context, in runtime.Input) (runtime.Config, error)
}

// Handler wires the runtime endpoint to the resolver.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a runtime handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts runtime endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/runtime", h.HandleResolve)
}

// HandleResolve handles GET /api/ucm/runtime requests.
//
// Query parameters:
//   - region: "auto" (default), "EU" or "US"; explicit values skip country
//     classification
//   - mockCountry: simulated country code, takes precedence over the resolved
//     geo country
//   - gpc: "1"/"true" or "0"/"false", overrides the Sec-GPC header
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	sel, ok := region.ParseSelection(r.URL.Query().Get("region"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "region must be auto, EU or US"))
		return
	}

	gpcOverride, err := parseBoolParam(r.URL.Query().Get("gpc"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "gpc must be a boolean"))
		return
	}

	in := runtime.Input{
		CountryCode:     requestcontext.Country(ctx),
		CountryOverride: r.URL.Query().Get("mockCountry"),
		GPCHeader:       gpc.FromHeader(r.Header.Get(gpc.HeaderName)),
		GPCOverride:     gpcOverride,
	}
	if !sel.Auto {
		in.RegionOverride = &sel.Region
	}

	cfg, err := h.service.Resolve(ctx, in)
	if err != nil {
		h.logger.ErrorContext(ctx, "runtime resolution failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "runtime resolved",
		"request_id", requestID,
		"region", string(cfg.Region),
		"gpc", cfg.GPCActive,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromConfig(cfg))
}

func parseBoolParam(v string) (*bool, error) {
	switch v {
	case "":
		return nil, nil
	case "1", "true":
		value := true
		return &value, nil
	case "0", "false":
		value := false
		return &value, nil
	}
	return nil, dErrors.New(dErrors.CodeValidation, "invalid boolean parameter")
}
