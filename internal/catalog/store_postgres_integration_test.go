//go:build integration

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"ucm/internal/sentinel"
	"ucm/pkg/testutil/containers"
)

type PostgresVendorStoreIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *PostgresVendorStore
}

func TestPostgresVendorStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresVendorStoreIntegrationSuite))
}

func (s *PostgresVendorStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgresVendorStore(s.pg.DB)
}

func (s *PostgresVendorStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "vendor_purposes", "vendors"))
}

func (s *PostgresVendorStoreIntegrationSuite) TestCreateAndListRoundTrip() {
	vendor := Vendor{
		ID:        "vendor-a",
		Name:      "Example Analytics",
		Domain:    "analytics.example.com",
		Purposes:  []string{PurposeAnalytics, PurposeFunctional},
		RiskScore: 0.25,
	}
	s.Require().NoError(s.store.Create(s.ctx, vendor))

	vendors, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(vendors, 1)
	s.Equal(vendor.ID, vendors[0].ID)
	s.Equal(vendor.Name, vendors[0].Name)
	s.Equal(vendor.Domain, vendors[0].Domain)
	s.InDelta(vendor.RiskScore, vendors[0].RiskScore, 1e-9)
	s.ElementsMatch(vendor.Purposes, vendors[0].Purposes)
}

func (s *PostgresVendorStoreIntegrationSuite) TestCreateDuplicateConflicts() {
	vendor := Vendor{ID: "vendor-a", Name: "First", Purposes: []string{PurposeAds}}
	s.Require().NoError(s.store.Create(s.ctx, vendor))

	err := s.store.Create(s.ctx, Vendor{ID: "vendor-a", Name: "Second", Purposes: []string{PurposeAds}})
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresVendorStoreIntegrationSuite) TestUpdateReplacesPurposes() {
	vendor := Vendor{ID: "vendor-a", Name: "Before", Purposes: []string{PurposeAds}}
	s.Require().NoError(s.store.Create(s.ctx, vendor))

	vendor.Name = "After"
	vendor.Purposes = []string{PurposeAnalytics}
	s.Require().NoError(s.store.Update(s.ctx, vendor))

	vendors, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(vendors, 1)
	s.Equal("After", vendors[0].Name)
	s.Equal([]string{PurposeAnalytics}, vendors[0].Purposes)
}

func (s *PostgresVendorStoreIntegrationSuite) TestUpdateMissingVendor() {
	err := s.store.Update(s.ctx, Vendor{ID: "ghost", Name: "Ghost", Purposes: []string{PurposeAds}})
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresVendorStoreIntegrationSuite) TestListPreservesInsertionOrder() {
	for _, v := range []Vendor{
		{ID: "vendor-1", Name: "One", Purposes: []string{PurposeAds}},
		{ID: "vendor-2", Name: "Two", Purposes: []string{PurposeAnalytics}},
		{ID: "vendor-3", Name: "Three", Purposes: []string{PurposeFunctional}},
	} {
		s.Require().NoError(s.store.Create(s.ctx, v))
	}

	vendors, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(vendors, 3)
	s.Equal("One", vendors[0].Name)
	s.Equal("Two", vendors[1].Name)
	s.Equal("Three", vendors[2].Name)
}
