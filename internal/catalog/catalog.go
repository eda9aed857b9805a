// Package catalog owns the per-region consent policy configuration: the
// framework, the purpose definitions, and the vendor capability table.
package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"ucm/internal/platform/metrics"
	"ucm/internal/region"
	dErrors "ucm/pkg/domain-errors"
)

// Catalog serves immutable policy snapshots. Refresh builds and validates a
// whole new snapshot and swaps it in atomically, so concurrent readers never
// observe a torn catalog. A failed refresh keeps the last-known-good snapshot.
type Catalog struct {
	vendors VendorStore
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(vendors VendorStore, logger *slog.Logger, m *metrics.Metrics) *Catalog {
	return &Catalog{vendors: vendors, logger: logger, metrics: m}
}

// Lookup returns the policy for a region from the current snapshot. It fails
// with an unavailable error only when no snapshot was ever loaded.
func (c *Catalog) Lookup(reg region.Region) (RegionPolicy, error) {
	snapshot := c.current.Load()
	if snapshot == nil {
		return RegionPolicy{}, dErrors.New(dErrors.CodeUnavailable, "policy catalog not loaded")
	}
	policy, ok := snapshot.Policies[reg]
	if !ok {
		return RegionPolicy{}, dErrors.New(dErrors.CodeInternal, "no policy for region "+string(reg))
	}
	return policy, nil
}

// Refresh reloads the vendor table and publishes a new snapshot. On error the
// previous snapshot stays live.
func (c *Catalog) Refresh(ctx context.Context) error {
	vendors, err := c.vendors.List(ctx)
	if err != nil {
		c.countRefresh("error")
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "load vendor table")
	}

	snapshot := &Snapshot{
		Policies: map[region.Region]RegionPolicy{
			region.EU: euPolicy(vendors),
			region.US: usPolicy(vendors),
		},
		LoadedAt: time.Now().UTC(),
	}
	if err := snapshot.validate(); err != nil {
		c.countRefresh("invalid")
		return dErrors.Wrap(err, dErrors.CodeInternal, "invalid catalog snapshot")
	}

	c.current.Store(snapshot)
	c.countRefresh("ok")
	c.logger.Info("policy catalog refreshed", "vendors", len(vendors))
	return nil
}

// RunRefresher reloads the catalog on the given interval until ctx ends.
// Failures are logged; the last-known-good snapshot keeps serving.
func (c *Catalog) RunRefresher(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("catalog refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

func (c *Catalog) countRefresh(outcome string) {
	if c.metrics != nil {
		c.metrics.CatalogRefreshes.WithLabelValues(outcome).Inc()
	}
}

// Purpose definitions are configuration shipped with the engine; the vendor
// table is the externally refreshed half of the catalog.

func euPolicy(vendors []Vendor) RegionPolicy {
	return RegionPolicy{
		Framework: FrameworkTCF,
		Title:     "Your Privacy Choices",
		Text:      "We use cookies to improve your experience. Adjust your preferences below.",
		Locale:    "en-US",
		Purposes: []Purpose{
			{Key: PurposeNecessary, Label: "Strictly Necessary", Description: "Required for site to function.", DefaultGranted: true, Required: true},
			{Key: PurposeFunctional, Label: "Functional", Description: "Preferences and features.", DefaultGranted: false},
			{Key: PurposeAnalytics, Label: "Analytics", Description: "Helps us understand usage.", DefaultGranted: false},
			{Key: PurposeAds, Label: "Advertising", Description: "Personalized ads and tracking.", DefaultGranted: false},
		},
		Vendors: vendors,
	}
}

func usPolicy(vendors []Vendor) RegionPolicy {
	return RegionPolicy{
		Framework: FrameworkGCM,
		Title:     "Your Privacy Choices",
		Text:      "We use cookies to improve your experience. Adjust your preferences below.",
		Locale:    "en-US",
		Purposes: []Purpose{
			{Key: PurposeNecessary, Label: "Strictly Necessary", Description: "Required for site to function.", DefaultGranted: true, Required: true},
			{Key: PurposeFunctional, Label: "Functional", Description: "Preferences and features.", DefaultGranted: false},
			{Key: PurposeAnalytics, Label: "Analytics", Description: "Helps us understand usage.", DefaultGranted: true},
			{Key: PurposeAds, Label: "Advertising", Description: "Personalized ads and tracking.", DefaultGranted: false},
		},
		Vendors: vendors,
	}
}
