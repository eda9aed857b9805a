//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ucm/pkg/domain"
	"ucm/pkg/testutil/containers"
)

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events"))
}

func (s *PostgresStoreIntegrationSuite) appendEvents(n int, eventType EventType, base time.Time) {
	for i := 0; i < n; i++ {
		s.Require().NoError(s.store.Append(s.ctx, Event{
			ID:         domain.NewAuditEventID(),
			OccurredAt: base.Add(time.Duration(i) * time.Second),
			Type:       eventType,
			Site:       "example.com",
		}))
	}
}

func (s *PostgresStoreIntegrationSuite) TestAppendAndQueryRoundTrip() {
	event := Event{
		ID:         domain.NewAuditEventID(),
		OccurredAt: time.Now().UTC().Truncate(time.Microsecond),
		Type:       TypeAnomaly,
		Site:       "news.example.com",
		CookieName: "_fbp",
		VendorID:   "vendor-a",
		Details:    `{"note":"cookie set before consent"}`,
	}
	s.Require().NoError(s.store.Append(s.ctx, event))

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(event.ID, events[0].ID)
	s.Equal(event.Site, events[0].Site)
	s.Equal(event.CookieName, events[0].CookieName)
	s.Equal(event.VendorID, events[0].VendorID)
	s.Equal(event.Details, events[0].Details)
}

func (s *PostgresStoreIntegrationSuite) TestQueryNewestFirst() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(5, TypeAnomaly, base)

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 5)
	for i := 1; i < len(events); i++ {
		s.False(events[i].OccurredAt.After(events[i-1].OccurredAt))
	}
}

func (s *PostgresStoreIntegrationSuite) TestQueryFiltersAndLimit() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(4, TypeAnomaly, base)
	s.appendEvents(3, TypePrivacyHeaders, base.Add(time.Minute))

	anomaly := TypeAnomaly
	since := base.Add(time.Second)
	events, err := s.store.Query(s.ctx, Filter{Type: &anomaly, Since: &since, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	for _, e := range events {
		s.Equal(TypeAnomaly, e.Type)
		s.False(e.OccurredAt.Before(since))
	}
}

func (s *PostgresStoreIntegrationSuite) TestQueryOptionalFieldsNullRoundTrip() {
	s.Require().NoError(s.store.Append(s.ctx, Event{
		ID:         domain.NewAuditEventID(),
		OccurredAt: time.Now().UTC(),
		Type:       TypeConsentWrite,
		Site:       "*",
	}))

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Empty(events[0].CookieName)
	s.True(events[0].VendorID.IsNil())
	s.Empty(events[0].Details)
}
