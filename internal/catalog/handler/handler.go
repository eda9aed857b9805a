package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ucm/internal/catalog"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
	dErrors "ucm/pkg/domain-errors"
	"ucm/pkg/platform/httputil"
	"ucm/pkg/requestcontext"
)

// VendorStore defines the vendor table operations the handler needs.
type VendorStore interface {
	List(ctx context.Context) ([]catalog.Vendor, error)
	Create(ctx context.Context, vendor catalog.Vendor) error
	Update(ctx context.Context, vendor catalog.Vendor) error
}

// Refresher rebuilds the catalog snapshot after a vendor mutation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler wires vendor table endpoints to the vendor store.
type Handler struct {
	store     VendorStore
	refresher Refresher
	logger    *slog.Logger
}

// New constructs a vendor handler with its dependencies.
func New(store VendorStore, refresher Refresher, logger *slog.Logger) *Handler {
	return &Handler{store: store, refresher: refresher, logger: logger}
}

// Register mounts the public vendor listing.
func (h *Handler) Register(r chi.Router) {
	r.Get("/vendors", h.HandleList)
}

// RegisterAdmin mounts the operator-only vendor mutations. The router wraps
// this group with the admin key middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/vendors", h.HandleCreate)
	r.Put("/vendors/{vendorID}", h.HandleUpdate)
}

// HandleList handles GET /api/ucm/vendors requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vendors, err := h.store.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "vendor listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list vendors"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVendors(vendors))
}

// HandleCreate handles POST /api/ucm/vendors requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VendorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vendor := req.ToVendor()
	if err := h.store.Create(ctx, vendor); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "vendor already exists"))
			return
		}
		h.logger.ErrorContext(ctx, "vendor create failed",
			"request_id", requestID,
			"vendor_id", vendor.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "create vendor"))
		return
	}

	h.refreshCatalog(ctx, requestID)
	h.logger.InfoContext(ctx, "vendor created",
		"request_id", requestID,
		"vendor_id", vendor.ID.String(),
		"name", vendor.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromVendor(vendor))
}

// HandleUpdate handles PUT /api/ucm/vendors/{vendorID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VendorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	vendor := req.ToVendor()
	vendor.ID = domain.VendorID(strings.TrimSpace(chi.URLParam(r, "vendorID")))
	if vendor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "vendor id is required"))
		return
	}

	if err := h.store.Update(ctx, vendor); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "vendor not found"))
			return
		}
		h.logger.ErrorContext(ctx, "vendor update failed",
			"request_id", requestID,
			"vendor_id", vendor.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "update vendor"))
		return
	}

	h.refreshCatalog(ctx, requestID)
	httputil.WriteJSON(w, http.StatusOK, FromVendor(vendor))
}

// refreshCatalog rebuilds the snapshot so the mutation becomes visible. A
// failure leaves the previous snapshot serving; the periodic refresher will
// retry.
func (h *Handler) refreshCatalog(ctx context.Context, requestID string) {
	if err := h.refresher.Refresh(ctx); err != nil {
		h.logger.WarnContext(ctx, "catalog refresh after vendor mutation failed",
			"request_id", requestID,
			"error", err,
		)
	}
}
