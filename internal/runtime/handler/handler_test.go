package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ucm/internal/catalog"
	"ucm/internal/gpc"
	"ucm/internal/runtime"
	"ucm/pkg/requestcontext"
)

type RuntimeHandlerSuite struct {
	suite.Suite
	ctx    context.Context
	router chi.Router
}

func TestRuntimeHandlerSuite(t *testing.T) {
	suite.Run(t, new(RuntimeHandlerSuite))
}

func (s *RuntimeHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	vendors := catalog.NewInMemoryVendorStore()
	s.Require().NoError(vendors.Seed(s.ctx))
	cat := catalog.New(vendors, logger, nil)
	s.Require().NoError(cat.Refresh(s.ctx))

	s.router = chi.NewRouter()
	New(runtime.NewResolver(cat, nil), logger).Register(s.router)
}

func (s *RuntimeHandlerSuite) resolve(target string, mutate func(*http.Request)) (*httptest.ResponseRecorder, ConfigResponse) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp ConfigResponse
	if w.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *RuntimeHandlerSuite) TestResolveClassifiesGeoCountry() {
	w, resp := s.resolve("/runtime", func(req *http.Request) {
		*req = *req.WithContext(requestcontext.WithCountry(req.Context(), "FR"))
	})

	s.Equal(http.StatusOK, w.Code)
	s.Equal("EU", resp.Region)
	s.Equal("TCFv2.2", resp.Framework)
	s.False(resp.GPCActive)
	s.NotEmpty(resp.UI.Purposes)
	s.NotEmpty(resp.AllowedVendors)
}

func (s *RuntimeHandlerSuite) TestResolveDefaultsToUS() {
	w, resp := s.resolve("/runtime", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("US", resp.Region)
	s.Equal("GCM", resp.Framework)
}

func (s *RuntimeHandlerSuite) TestResolveMockCountryWins() {
	w, resp := s.resolve("/runtime?mockCountry=DE", func(req *http.Request) {
		*req = *req.WithContext(requestcontext.WithCountry(req.Context(), "US"))
	})

	s.Equal(http.StatusOK, w.Code)
	s.Equal("EU", resp.Region)
}

func (s *RuntimeHandlerSuite) TestResolveExplicitRegionSkipsClassification() {
	w, resp := s.resolve("/runtime?region=EU", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("EU", resp.Region)
}

func (s *RuntimeHandlerSuite) TestResolveGPCHeaderCollapsesDefaults() {
	w, resp := s.resolve("/runtime?region=US", func(req *http.Request) {
		req.Header.Set(gpc.HeaderName, "1")
	})

	s.Equal(http.StatusOK, w.Code)
	s.True(resp.GPCActive)
	s.Empty(resp.AllowedVendors)
	s.NotNil(resp.AllowedVendors, "vendor list must serialize as [] not null")
	for _, p := range resp.UI.Purposes {
		if !p.Required {
			s.False(p.Default, "purpose %s default must collapse under GPC", p.Key)
		}
	}
	s.Equal("denied", string(resp.GCM.AnalyticsStorage))
}

func (s *RuntimeHandlerSuite) TestResolveGPCQueryOverridesHeader() {
	w, resp := s.resolve("/runtime?region=US&gpc=0", func(req *http.Request) {
		req.Header.Set(gpc.HeaderName, "1")
	})

	s.Equal(http.StatusOK, w.Code)
	s.False(resp.GPCActive)
}

func (s *RuntimeHandlerSuite) TestResolveRejectsInvalidRegion() {
	w, _ := s.resolve("/runtime?region=APAC", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RuntimeHandlerSuite) TestResolveRejectsInvalidGPCParam() {
	w, _ := s.resolve("/runtime?gpc=maybe", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RuntimeHandlerSuite) TestResolveUnloadedCatalogReturns503() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.New(catalog.NewInMemoryVendorStore(), logger, nil)

	router := chi.NewRouter()
	New(runtime.NewResolver(cat, nil), logger).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/runtime", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusServiceUnavailable, w.Code)
}
