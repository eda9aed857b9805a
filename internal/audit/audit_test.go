package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"ucm/pkg/domain"
)

func TestFilterEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultQueryLimit, Filter{}.EffectiveLimit())
	assert.Equal(t, DefaultQueryLimit, Filter{Limit: -3}.EffectiveLimit())
	assert.Equal(t, 10, Filter{Limit: 10}.EffectiveLimit())
	assert.Equal(t, MaxQueryLimit, Filter{Limit: 10_000}.EffectiveLimit())
}

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func (s *StoreSuite) appendEvents(n int, eventType EventType, base time.Time) {
	for i := 0; i < n; i++ {
		s.Require().NoError(s.store.Append(s.ctx, Event{
			ID:         domain.NewAuditEventID(),
			OccurredAt: base.Add(time.Duration(i) * time.Second),
			Type:       eventType,
			Site:       "example.com",
		}))
	}
}

func (s *StoreSuite) TestQueryNewestFirst() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(5, TypeAnomaly, base)

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 5)
	for i := 1; i < len(events); i++ {
		s.False(events[i].OccurredAt.After(events[i-1].OccurredAt), "events must be newest-first")
	}
}

func (s *StoreSuite) TestQueryHonorsLimit() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(10, TypeAnomaly, base)

	events, err := s.store.Query(s.ctx, Filter{Limit: 3})
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	// The newest three.
	s.Equal(base.Add(9*time.Second), events[0].OccurredAt)
}

func (s *StoreSuite) TestQueryDefaultLimit() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(DefaultQueryLimit+20, TypeAnomaly, base)

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Len(events, DefaultQueryLimit)
}

func (s *StoreSuite) TestQueryFiltersByType() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(3, TypeAnomaly, base)
	s.appendEvents(2, TypePrivacyHeaders, base.Add(time.Minute))

	anomaly := TypeAnomaly
	events, err := s.store.Query(s.ctx, Filter{Type: &anomaly})
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	for _, e := range events {
		s.Equal(TypeAnomaly, e.Type)
	}
}

func (s *StoreSuite) TestQueryFiltersBySince() {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.appendEvents(5, TypeAnomaly, base)

	since := base.Add(3 * time.Second)
	events, err := s.store.Query(s.ctx, Filter{Since: &since})
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *StoreSuite) TestQueryEmptyStoreReturnsEmpty() {
	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Empty(events)
}

type PublisherSuite struct {
	suite.Suite
	ctx    context.Context
	store  *InMemoryStore
	logger *slog.Logger
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PublisherSuite) TestEmitAssignsIdentityAndPersists() {
	p := NewPublisher(s.store, s.logger)

	p.Emit(s.ctx, Event{Type: TypeAnomaly, Site: "example.com", CookieName: "_ga"})

	events, err := p.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.False(events[0].ID.IsNil())
	s.False(events[0].OccurredAt.IsZero())
}

func (s *PublisherSuite) TestEmitIsolatesStoreFailure() {
	p := NewPublisher(&failingStore{}, s.logger)

	// Must not panic or surface the failure.
	p.Emit(s.ctx, Event{Type: TypeAnomaly, Site: "example.com"})
}

func (s *PublisherSuite) TestAsyncEmitDrainsOnClose() {
	p := NewPublisher(s.store, s.logger, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		p.Emit(s.ctx, Event{Type: TypePrivacyHeaders, Site: "example.com"})
	}
	p.Close()

	events, err := s.store.Query(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Len(events, 5)
}

func (s *PublisherSuite) TestEmitMirrorsToSink() {
	sink := &captureSink{}
	p := NewPublisher(s.store, s.logger, WithSink(sink))

	p.Emit(s.ctx, Event{Type: TypeAnomaly, Site: "example.com"})
	s.Require().Len(sink.events, 1)
	s.Equal(TypeAnomaly, sink.events[0].Type)
}

type failingStore struct{}

func (f *failingStore) Append(context.Context, Event) error { return errors.New("disk full") }
func (f *failingStore) Query(context.Context, Filter) ([]Event, error) {
	return nil, errors.New("disk full")
}

type captureSink struct {
	events []Event
}

func (c *captureSink) Publish(event Event) {
	c.events = append(c.events, event)
}
