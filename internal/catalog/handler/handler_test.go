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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"ucm/internal/catalog"
	"ucm/internal/region"
)

type VendorHandlerSuite struct {
	suite.Suite
	ctx     context.Context
	vendors *catalog.InMemoryVendorStore
	catalog *catalog.Catalog
	router  chi.Router
}

func TestVendorHandlerSuite(t *testing.T) {
	suite.Run(t, new(VendorHandlerSuite))
}

func (s *VendorHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.vendors = catalog.NewInMemoryVendorStore()
	s.Require().NoError(s.vendors.Seed(s.ctx))
	s.catalog = catalog.New(s.vendors, logger, nil)
	s.Require().NoError(s.catalog.Refresh(s.ctx))

	h := New(s.vendors, s.catalog, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *VendorHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *VendorHandlerSuite) TestListReturnsSeededVendors() {
	w := s.do(http.MethodGet, "/vendors", "")
	s.Equal(http.StatusOK, w.Code)

	var vendors []VendorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &vendors))
	s.Require().Len(vendors, 2)
	s.NotEmpty(vendors[0].Purposes)
}

func (s *VendorHandlerSuite) TestCreateReturns201AndRefreshesCatalog() {
	body := `{"name":"Hotjar","domain":"hotjar.com","purposes":["analytics"],"riskScore":0.3}`
	w := s.do(http.MethodPost, "/vendors", body)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created VendorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.NotEmpty(created.ID, "missing id must be generated")

	// The new vendor is eligible in the rebuilt snapshot.
	policy, err := s.catalog.Lookup(region.EU)
	s.Require().NoError(err)
	found := false
	for _, v := range policy.Vendors {
		if v.Name == "Hotjar" {
			found = true
		}
	}
	s.True(found)
}

func (s *VendorHandlerSuite) TestCreateDuplicateReturns409() {
	body := `{"id":"dup-1","name":"First","purposes":["ads"]}`
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/vendors", body).Code)

	w := s.do(http.MethodPost, "/vendors", `{"id":"dup-1","name":"Second","purposes":["ads"]}`)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *VendorHandlerSuite) TestCreateRejectsUnknownPurpose() {
	body := `{"name":"Mystery","purposes":["fingerprinting"]}`
	w := s.do(http.MethodPost, "/vendors", body)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VendorHandlerSuite) TestCreateRejectsMissingName() {
	body := `{"purposes":["ads"]}`
	w := s.do(http.MethodPost, "/vendors", body)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VendorHandlerSuite) TestCreateRejectsRiskScoreOutOfRange() {
	body := `{"name":"Risky","purposes":["ads"],"riskScore":1.5}`
	w := s.do(http.MethodPost, "/vendors", body)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VendorHandlerSuite) TestUpdateReturns200() {
	s.Require().Equal(http.StatusCreated,
		s.do(http.MethodPost, "/vendors", `{"id":"upd-1","name":"Before","purposes":["ads"]}`).Code)

	w := s.do(http.MethodPut, "/vendors/upd-1", `{"name":"After","purposes":["ads","analytics"]}`)
	s.Require().Equal(http.StatusOK, w.Code)

	var updated VendorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Equal("upd-1", updated.ID)
	s.Equal("After", updated.Name)
	s.Len(updated.Purposes, 2)
}

func (s *VendorHandlerSuite) TestUpdateMissingVendorReturns404() {
	w := s.do(http.MethodPut, "/vendors/no-such-vendor", `{"name":"Ghost","purposes":["ads"]}`)
	s.Equal(http.StatusNotFound, w.Code)
}
