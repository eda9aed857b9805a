package catalog

import (
	"fmt"
	"time"

	"ucm/internal/region"
	"ucm/pkg/domain"
)

// Framework identifies the consent-signaling framework applied in a region.
type Framework string

const (
	FrameworkTCF Framework = "TCFv2.2"
	FrameworkGPP Framework = "GPPv2"
	FrameworkGCM Framework = "GCM"
)

// IsValid checks if the framework is one of the supported enum values.
func (f Framework) IsValid() bool {
	return f == FrameworkTCF || f == FrameworkGPP || f == FrameworkGCM
}

// Well-known purpose keys. The catalog is configuration and may carry more,
// but these two drive the Google Consent Mode projection and the required
// purpose invariant.
const (
	PurposeNecessary  = "necessary"
	PurposeFunctional = "functional"
	PurposeAnalytics  = "analytics"
	PurposeAds        = "ads"
)

// KnownPurposeKey reports whether the key is one of the configured purpose
// categories. Vendor rows may only reference known keys.
func KnownPurposeKey(key string) bool {
	switch key {
	case PurposeNecessary, PurposeFunctional, PurposeAnalytics, PurposeAds:
		return true
	}
	return false
}

// Purpose is a named category of data processing a visitor can grant or deny.
type Purpose struct {
	Key            string
	Label          string
	Description    string
	DefaultGranted bool
	Required       bool
}

// Vendor is a third party eligible to process data for one or more purposes.
// The vendor table is supplied by the classification feed and is immutable
// at request time.
type Vendor struct {
	ID        domain.VendorID
	Name      string
	Domain    string
	Purposes  []string
	RiskScore float64
}

// RegionPolicy is the per-region catalog entry: the framework, the banner
// copy, the purpose list (required purpose first) and the vendor table.
type RegionPolicy struct {
	Framework Framework
	Title     string
	Text      string
	Locale    string
	Purposes  []Purpose
	Vendors   []Vendor
}

// RequiredPurpose returns the single required purpose of the policy.
func (p RegionPolicy) RequiredPurpose() Purpose {
	return p.Purposes[0]
}

// PurposeByKey looks a purpose up by key.
func (p RegionPolicy) PurposeByKey(key string) (Purpose, bool) {
	for _, purpose := range p.Purposes {
		if purpose.Key == key {
			return purpose, true
		}
	}
	return Purpose{}, false
}

// Snapshot is one immutable catalog version. Readers always observe a whole
// snapshot: refresh swaps the pointer, never mutates fields in place.
type Snapshot struct {
	Policies map[region.Region]RegionPolicy
	LoadedAt time.Time
}

// validate enforces the catalog invariants before a snapshot is published:
// unique purpose keys, exactly one required purpose listed first, and vendor
// purposes referencing only known purpose keys.
func (s *Snapshot) validate() error {
	for reg, policy := range s.Policies {
		if !policy.Framework.IsValid() {
			return fmt.Errorf("region %s: invalid framework %q", reg, policy.Framework)
		}
		if len(policy.Purposes) == 0 {
			return fmt.Errorf("region %s: no purposes configured", reg)
		}
		keys := make(map[string]struct{}, len(policy.Purposes))
		requiredCount := 0
		for i, purpose := range policy.Purposes {
			if purpose.Key == "" {
				return fmt.Errorf("region %s: purpose %d has empty key", reg, i)
			}
			if _, dup := keys[purpose.Key]; dup {
				return fmt.Errorf("region %s: duplicate purpose key %q", reg, purpose.Key)
			}
			keys[purpose.Key] = struct{}{}
			if purpose.Required {
				requiredCount++
				if i != 0 {
					return fmt.Errorf("region %s: required purpose %q must be first", reg, purpose.Key)
				}
				if !purpose.DefaultGranted {
					return fmt.Errorf("region %s: required purpose %q must default to granted", reg, purpose.Key)
				}
			}
		}
		if requiredCount != 1 {
			return fmt.Errorf("region %s: expected exactly one required purpose, got %d", reg, requiredCount)
		}
		for _, vendor := range policy.Vendors {
			if vendor.ID.IsNil() {
				return fmt.Errorf("region %s: vendor with empty ID", reg)
			}
			for _, key := range vendor.Purposes {
				if _, ok := keys[key]; !ok {
					return fmt.Errorf("region %s: vendor %s references unknown purpose %q", reg, vendor.ID, key)
				}
			}
		}
	}
	return nil
}
