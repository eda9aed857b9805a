package consent

import (
	"context"

	"ucm/internal/audit"
	"ucm/internal/consent/models"
	"ucm/pkg/domain"
)

// Store persists consent records. Save writes the record and its
// consent_write audit event as one atomic unit: either both land or neither
// does, so the audit trail can never miss a recorded consent.
type Store interface {
	Save(ctx context.Context, record *models.Record, event audit.Event) error
	Get(ctx context.Context, id domain.ConsentID) (*models.Record, error)
}
