package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ucm/internal/audit"
	"ucm/pkg/domain"
)

type AuditHandlerSuite struct {
	suite.Suite
	ctx       context.Context
	store     *audit.InMemoryStore
	publisher *audit.Publisher
	router    chi.Router
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = audit.NewInMemoryStore()
	s.publisher = audit.NewPublisher(s.store, logger)

	h := New(s.publisher, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *AuditHandlerSuite) appendEvent(eventType audit.EventType, occurredAt time.Time) {
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		ID:         domain.NewAuditEventID(),
		OccurredAt: occurredAt,
		Type:       eventType,
		Site:       "example.com",
	}))
}

func (s *AuditHandlerSuite) query(target string) (*httptest.ResponseRecorder, []audit.Event) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var events []audit.Event
	if w.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &events))
	}
	return w, events
}

func (s *AuditHandlerSuite) TestQueryReturnsNewestFirst() {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.appendEvent(audit.TypeAnomaly, base.Add(time.Duration(i)*time.Minute))
	}

	w, events := s.query("/audit")
	s.Equal(http.StatusOK, w.Code)
	s.Require().Len(events, 3)
	s.Equal(base.Add(2*time.Minute), events[0].OccurredAt)
}

func (s *AuditHandlerSuite) TestQueryEmptyTrailReturnsEmptyArray() {
	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("[]", strings.TrimSpace(w.Body.String()))
}

func (s *AuditHandlerSuite) TestQueryFiltersByTypeAndSince() {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.appendEvent(audit.TypeAnomaly, base)
	s.appendEvent(audit.TypeConsentWrite, base.Add(time.Minute))
	s.appendEvent(audit.TypeAnomaly, base.Add(2*time.Minute))

	w, events := s.query("/audit?type=anomaly&since=" + base.Add(30*time.Second).Format(time.RFC3339))
	s.Equal(http.StatusOK, w.Code)
	s.Require().Len(events, 1)
	s.Equal(audit.TypeAnomaly, events[0].Type)
}

func (s *AuditHandlerSuite) TestQueryHonorsLimit() {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.appendEvent(audit.TypeAnomaly, base.Add(time.Duration(i)*time.Second))
	}

	w, events := s.query("/audit?limit=2")
	s.Equal(http.StatusOK, w.Code)
	s.Len(events, 2)
}

func (s *AuditHandlerSuite) TestQueryRejectsUnknownType() {
	w, _ := s.query("/audit?type=sabotage")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuditHandlerSuite) TestQueryRejectsBadSince() {
	w, _ := s.query("/audit?since=yesterday")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuditHandlerSuite) TestQueryRejectsBadLimit() {
	w, _ := s.query("/audit?limit=many")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuditHandlerSuite) TestReportAnomalyAccepted() {
	body := `{"site":"news.example.com","cookieName":"_fbp","vendorId":"v-9","details":"cookie set before consent"}`
	req := httptest.NewRequest(http.MethodPost, "/anomalies", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)

	events, err := s.store.Query(s.ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.TypeAnomaly, events[0].Type)
	s.Equal("news.example.com", events[0].Site)
	s.Equal("_fbp", events[0].CookieName)
	s.False(events[0].ID.IsNil())
}

func (s *AuditHandlerSuite) TestReportAnomalyRequiresSite() {
	body := `{"cookieName":"_fbp"}`
	req := httptest.NewRequest(http.MethodPost, "/anomalies", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}
