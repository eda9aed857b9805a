// Package consent records visitor consent decisions. Records are validated
// against the runtime configuration they were made under, persisted
// immutably, and paired atomically with a consent_write audit event.
package consent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ucm/internal/audit"
	"ucm/internal/consent/models"
	"ucm/internal/platform/metrics"
	"ucm/internal/region"
	"ucm/internal/runtime"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
	dErrors "ucm/pkg/domain-errors"
)

// Result is the outcome of recording or fetching a consent decision.
type Result struct {
	Record    *models.Record
	Flags     domain.GCMFlags
	Signature string

	// Coalesced marks a duplicate submission that was folded into an
	// earlier record instead of creating a new one.
	Coalesced bool
}

// Service owns consent recording. It resolves the runtime configuration for
// the submitted (region, gpc) context itself so validation always runs
// against the same policy the visitor was shown.
type Service struct {
	store    Store
	resolver *runtime.Resolver
	deduper  Deduper
	signer   *ReceiptSigner
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(
	store Store,
	resolver *runtime.Resolver,
	deduper Deduper,
	signer *ReceiptSigner,
	window time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		deduper:  deduper,
		signer:   signer,
		window:   window,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("ucm/consent"),
		now:      time.Now,
	}
}

// Record validates and persists a consent submission.
//
// Validation rules against the resolved runtime config:
//   - a choice naming an unknown purpose rejects the whole submission
//   - a choice granting a vendor outside the allowed set rejects the
//     submission; denying such a vendor is a no-op and is dropped
//   - the required purpose can never be denied; a denial is clamped to true
//
// Identical submissions inside the dedupe window coalesce into the record
// that first landed.
func (s *Service) Record(ctx context.Context, req *models.RecordRequest) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "consent.record")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid consent submission")
	}

	reg := region.Region(req.Region)
	gpcActive := req.GPC
	cfg, err := s.resolver.Resolve(ctx, runtime.Input{
		RegionOverride: &reg,
		GPCOverride:    &gpcActive,
	})
	if err != nil {
		return nil, err
	}

	choices, err := s.applyPolicy(cfg, req.Choices)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("region", string(reg)),
		attribute.Bool("gpc", gpcActive),
		attribute.Int("choices", len(choices)),
	)

	digest := models.SubmissionDigest(reg, gpcActive, choices)
	if prior := s.coalesce(ctx, digest); prior != nil {
		return prior, nil
	}

	record := &models.Record{
		ID:        domain.NewConsentID(),
		Region:    reg,
		GPC:       gpcActive,
		Framework: cfg.Framework,
		CreatedAt: s.now().UTC(),
		Choices:   choices,
	}

	event, err := consentWriteEvent(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build consent audit event")
	}
	if err := s.store.Save(ctx, record, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist consent record")
	}

	if err := s.deduper.Remember(ctx, digest, record.ID, s.window); err != nil {
		// Dedupe is best-effort; a lost window only risks an extra record.
		s.logger.Warn("consent dedupe remember failed", "error", err)
	}

	if s.metrics != nil {
		s.metrics.ConsentsRecorded.WithLabelValues(string(reg)).Inc()
		s.metrics.AuditEvents.WithLabelValues(string(audit.TypeConsentWrite)).Inc()
	}
	s.logger.Info("consent recorded",
		"consent_id", record.ID.String(),
		"region", string(reg),
		"gpc", gpcActive,
		"choices", len(choices),
	)

	signature, err := s.signer.Sign(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign consent receipt")
	}
	return &Result{Record: record, Flags: record.GCM(), Signature: signature}, nil
}

// Receipt fetches a stored record and re-issues its signed receipt.
func (s *Service) Receipt(ctx context.Context, id domain.ConsentID) (*Result, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load consent record")
	}
	signature, err := s.signer.Sign(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign consent receipt")
	}
	return &Result{Record: record, Flags: record.GCM(), Signature: signature}, nil
}

// applyPolicy filters and normalizes the submitted choices against the
// runtime config.
func (s *Service) applyPolicy(cfg runtime.Config, in []models.ChoiceRequest) ([]models.Choice, error) {
	choices := make([]models.Choice, 0, len(in))
	for _, c := range in {
		purpose, ok := cfg.PurposeByKey(c.Purpose)
		if !ok {
			s.countValidationFailure("unknown_purpose")
			return nil, dErrors.New(dErrors.CodeValidation, "unknown purpose "+c.Purpose)
		}

		allowed := c.Allowed
		if purpose.Required && !allowed {
			// The required purpose is not deniable; clamp instead of reject.
			allowed = true
		}

		if c.VendorID != "" && !cfg.VendorAllowed(domain.VendorID(c.VendorID)) {
			if c.Allowed {
				s.countValidationFailure("vendor_not_allowed")
				return nil, dErrors.New(dErrors.CodeValidation, "vendor "+c.VendorID+" not allowed in this context")
			}
			// Denying an ineligible vendor changes nothing; drop the no-op.
			continue
		}

		choices = append(choices, models.Choice{
			VendorID: domain.VendorID(c.VendorID),
			Purpose:  c.Purpose,
			Allowed:  allowed,
		})
	}
	if len(choices) == 0 {
		s.countValidationFailure("empty_after_policy")
		return nil, dErrors.New(dErrors.CodeValidation, "no applicable choices in submission")
	}
	return choices, nil
}

// coalesce returns the prior result when the digest matches a record inside
// the dedupe window, nil otherwise. Lookup failures degrade to a fresh write.
func (s *Service) coalesce(ctx context.Context, digest string) *Result {
	id, ok, err := s.deduper.Lookup(ctx, digest)
	if err != nil {
		s.logger.Warn("consent dedupe lookup failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil
	}
	signature, err := s.signer.Sign(record)
	if err != nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.ConsentsCoalesced.Inc()
	}
	s.logger.Info("duplicate consent submission coalesced", "consent_id", id.String())
	return &Result{Record: record, Flags: record.GCM(), Signature: signature, Coalesced: true}
}

func (s *Service) countValidationFailure(reason string) {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues(reason).Inc()
	}
}

func consentWriteEvent(record *models.Record) (audit.Event, error) {
	details, err := json.Marshal(map[string]any{
		"consentId": record.ID.String(),
		"region":    string(record.Region),
		"gpc":       record.GPC,
		"choices":   len(record.Choices),
	})
	if err != nil {
		return audit.Event{}, err
	}
	return audit.Event{
		ID:         domain.NewAuditEventID(),
		OccurredAt: record.CreatedAt,
		Type:       audit.TypeConsentWrite,
		Site:       "*",
		Details:    string(details),
	}, nil
}
