//go:build integration

package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ucm/internal/audit"
	"ucm/internal/catalog"
	"ucm/internal/consent/models"
	"ucm/internal/region"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
	"ucm/pkg/testutil/containers"
)

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	ctx     context.Context
	pg      *containers.PostgresContainer
	store   *PostgresStore
	auditDB *audit.PostgresStore
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgresStore(s.pg.DB)
	s.auditDB = audit.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events", "consent_choices", "consent_records"))
}

func (s *PostgresStoreIntegrationSuite) sampleRecord() *models.Record {
	return &models.Record{
		ID:        domain.NewConsentID(),
		Region:    region.EU,
		GPC:       false,
		Framework: catalog.FrameworkTCF,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Choices: []models.Choice{
			{Purpose: catalog.PurposeNecessary, Allowed: true},
			{VendorID: "vendor-a", Purpose: catalog.PurposeAnalytics, Allowed: true},
			{VendorID: "vendor-b", Purpose: catalog.PurposeAds, Allowed: false},
		},
	}
}

func (s *PostgresStoreIntegrationSuite) writeEvent(record *models.Record) audit.Event {
	return audit.Event{
		ID:         domain.NewAuditEventID(),
		OccurredAt: record.CreatedAt,
		Type:       audit.TypeConsentWrite,
		Site:       "*",
		Details:    `{"consentId":"` + record.ID.String() + `"}`,
	}
}

func (s *PostgresStoreIntegrationSuite) TestSaveAndGetRoundTrip() {
	record := s.sampleRecord()
	s.Require().NoError(s.store.Save(s.ctx, record, s.writeEvent(record)))

	got, err := s.store.Get(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ID, got.ID)
	s.Equal(record.Region, got.Region)
	s.Equal(record.Framework, got.Framework)
	s.Equal(record.GPC, got.GPC)
	s.Require().Len(got.Choices, 3)
	// Submission order is preserved.
	s.Equal(record.Choices, got.Choices)
	// Empty vendor ID survives the NULL round trip.
	s.True(got.Choices[0].VendorID.IsNil())
}

func (s *PostgresStoreIntegrationSuite) TestSaveWritesAuditEventTransactionally() {
	record := s.sampleRecord()
	s.Require().NoError(s.store.Save(s.ctx, record, s.writeEvent(record)))

	events, err := s.auditDB.Query(s.ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.TypeConsentWrite, events[0].Type)
	s.Contains(events[0].Details, record.ID.String())
}

func (s *PostgresStoreIntegrationSuite) TestSaveDuplicateIDConflicts() {
	record := s.sampleRecord()
	s.Require().NoError(s.store.Save(s.ctx, record, s.writeEvent(record)))

	dup := s.sampleRecord()
	dup.ID = record.ID
	err := s.store.Save(s.ctx, dup, s.writeEvent(dup))
	s.True(errors.Is(err, sentinel.ErrConflict))

	// The failed save must not leak an audit event.
	events, err := s.auditDB.Query(s.ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresStoreIntegrationSuite) TestGetMissingRecord() {
	_, err := s.store.Get(s.ctx, domain.NewConsentID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
