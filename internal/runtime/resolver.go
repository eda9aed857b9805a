// Package runtime composes the region classifier, the GPC signal and the
// policy catalog into the per-request consent configuration.
package runtime

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ucm/internal/catalog"
	"ucm/internal/gpc"
	"ucm/internal/platform/metrics"
	"ucm/internal/region"
	"ucm/pkg/domain"
)

// Input carries the already-resolved request signals. Country resolution and
// header extraction happen at the transport boundary; overrides exist for
// simulated requests only.
type Input struct {
	CountryCode     string
	CountryOverride string
	RegionOverride  *region.Region
	GPCHeader       bool
	GPCOverride     *bool
}

// Config is the immutable per-request consent configuration. It is a derived
// view: reproducible from (region, gpc) plus the catalog snapshot, so it is
// never persisted. Purposes and vendors are copies; mutating a Config never
// touches the catalog.
type Config struct {
	Region         region.Region
	Framework      catalog.Framework
	GPCActive      bool
	Title          string
	Text           string
	Locale         string
	Purposes       []catalog.Purpose
	AllowedVendors []domain.VendorID
}

// PurposeByKey looks a purpose up by key.
func (c Config) PurposeByKey(key string) (catalog.Purpose, bool) {
	for _, p := range c.Purposes {
		if p.Key == key {
			return p, true
		}
	}
	return catalog.Purpose{}, false
}

// VendorAllowed reports whether the vendor is eligible under this config.
func (c Config) VendorAllowed(id domain.VendorID) bool {
	for _, v := range c.AllowedVendors {
		if v == id {
			return true
		}
	}
	return false
}

// GCM projects the config's purpose defaults onto Google Consent Mode flags.
// An active GPC signal forces all flags to denied.
func (c Config) GCM() domain.GCMFlags {
	ads, _ := c.PurposeByKey(catalog.PurposeAds)
	analytics, _ := c.PurposeByKey(catalog.PurposeAnalytics)
	return domain.ProjectGCM(ads.DefaultGranted, analytics.DefaultGranted, c.GPCActive)
}

// Resolver builds runtime configs. Resolution is deterministic and
// side-effect free for a fixed catalog snapshot: identical inputs produce
// structurally equal configs, safe to cache per (region, gpc).
type Resolver struct {
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewResolver(cat *catalog.Catalog, m *metrics.Metrics) *Resolver {
	return &Resolver{
		catalog: cat,
		metrics: m,
		tracer:  otel.Tracer("ucm/runtime"),
	}
}

// Resolve classifies the request, evaluates the GPC signal, and folds both
// into the region's policy. When GPC is active every non-required purpose
// default collapses to false and the allowed-vendor set empties; the purpose
// list and framework stay intact so the UI can still render disclosures.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Config, error) {
	_, span := r.tracer.Start(ctx, "runtime.resolve")
	defer span.End()

	reg := region.Classify(in.CountryCode, in.CountryOverride)
	if in.RegionOverride != nil {
		reg = *in.RegionOverride
	}
	active := gpc.Evaluate(in.GPCHeader, in.GPCOverride)

	span.SetAttributes(
		attribute.String("region", string(reg)),
		attribute.Bool("gpc", active),
	)

	policy, err := r.catalog.Lookup(reg)
	if err != nil {
		return Config{}, err
	}

	purposes := make([]catalog.Purpose, len(policy.Purposes))
	copy(purposes, policy.Purposes)

	var allowed []domain.VendorID
	if active {
		// Hard opt-out: catalog configuration can never weaken this.
		for i := range purposes {
			if !purposes[i].Required {
				purposes[i].DefaultGranted = false
			}
		}
		allowed = []domain.VendorID{}
	} else {
		allowed = make([]domain.VendorID, 0, len(policy.Vendors))
		for _, vendor := range policy.Vendors {
			allowed = append(allowed, vendor.ID)
		}
	}

	if r.metrics != nil {
		r.metrics.RuntimeResolves.WithLabelValues(string(reg), strconv.FormatBool(active)).Inc()
	}

	return Config{
		Region:         reg,
		Framework:      policy.Framework,
		GPCActive:      active,
		Title:          policy.Title,
		Text:           policy.Text,
		Locale:         policy.Locale,
		Purposes:       purposes,
		AllowedVendors: allowed,
	}, nil
}
