package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"ucm/internal/catalog"
	"ucm/internal/region"
	"ucm/pkg/domain"
)

// Choice is one (vendor, purpose) decision the visitor was shown. An empty
// VendorID denotes a site-level purpose choice not bound to a vendor.
type Choice struct {
	VendorID domain.VendorID `json:"vendorId"`
	Purpose  string          `json:"purpose"`
	Allowed  bool            `json:"allowed"`
}

// Record is a durable consent decision. Records are immutable once created:
// consent changes produce new records, never in-place edits, so history is
// always reconstructable.
type Record struct {
	ID        domain.ConsentID
	Region    region.Region
	GPC       bool
	Framework catalog.Framework
	CreatedAt time.Time
	Choices   []Choice
}

// PurposeAllowed reports whether any stored choice grants the purpose.
func (r *Record) PurposeAllowed(key string) bool {
	for _, c := range r.Choices {
		if c.Purpose == key && c.Allowed {
			return true
		}
	}
	return false
}

// GCM recomputes the Google Consent Mode projection from the stored choices.
// Never trusted from the client; GPC forces all flags denied.
func (r *Record) GCM() domain.GCMFlags {
	return domain.ProjectGCM(
		r.PurposeAllowed(catalog.PurposeAds),
		r.PurposeAllowed(catalog.PurposeAnalytics),
		r.GPC,
	)
}

// SubmissionDigest canonicalizes a submission for duplicate coalescing:
// identical (region, gpc, choices) payloads hash identically regardless of
// choice order.
func SubmissionDigest(reg region.Region, gpc bool, choices []Choice) string {
	lines := make([]string, 0, len(choices))
	for _, c := range choices {
		lines = append(lines, fmt.Sprintf("%s|%s|%t", c.VendorID, c.Purpose, c.Allowed))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%t|%s", reg, gpc, strings.Join(lines, ";"))))
	return hex.EncodeToString(sum[:])
}
