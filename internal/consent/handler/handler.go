package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ucm/internal/consent"
	"ucm/internal/consent/models"
	"ucm/pkg/domain"
	dErrors "ucm/pkg/domain-errors"
	"ucm/pkg/platform/httputil"
	"ucm/pkg/requestcontext"
)

// Service defines the interface for consent operations.
type Service interface {
	Record(ctx context.Context, req *models.RecordRequest) (*consent.Result, error)
	Receipt(ctx context.Context, id domain.ConsentID) (*consent.Result, error)
}

// Handler wires consent endpoints to the consent service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a consent handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts consent endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consent", h.HandleRecord)
	r.Get("/consents/{consentID}/receipt", h.HandleReceipt)
}

// HandleRecord handles POST /api/ucm/consent requests. A duplicate
// submission inside the dedupe window returns the earlier record with 200
// instead of creating a new one.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Record(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "consent recording failed",
			"request_id", requestID,
			"region", req.Region,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "consent request served",
		"request_id", requestID,
		"consent_id", result.Record.ID.String(),
		"coalesced", result.Coalesced,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusCreated
	if result.Coalesced {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, FromResult(result))
}

// HandleReceipt handles GET /api/ucm/consents/{consentID}/receipt requests.
func (h *Handler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseConsentID(chi.URLParam(r, "consentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid consent id"))
		return
	}

	result, err := h.service.Receipt(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "consent receipt lookup failed",
				"request_id", requestID,
				"consent_id", id.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ReceiptFromResult(result))
}
