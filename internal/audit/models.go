package audit

import (
	"time"

	"ucm/pkg/domain"
)

// EventType classifies privacy-relevant occurrences. The enum is closed:
// anomaly subtypes reported by collaborators live in Details, not here, so
// queries by type stay stable as collaborators evolve.
type EventType string

const (
	// TypePrivacyHeaders records the privacy-relevant headers observed on a
	// request (GPC, DNT, client hints). Best-effort, gated by config.
	TypePrivacyHeaders EventType = "privacy_headers"

	// TypeAnomaly records an anomalous event reported by an enforcement
	// collaborator (e.g. an unregistered vendor setting a cookie).
	TypeAnomaly EventType = "anomaly"

	// TypeConsentWrite records the creation of a consent record. Written
	// transactionally with the record itself, never through the async path.
	TypeConsentWrite EventType = "consent_write"
)

// IsValid checks if the event type is one of the supported enum values.
func (t EventType) IsValid() bool {
	switch t {
	case TypePrivacyHeaders, TypeAnomaly, TypeConsentWrite:
		return true
	}
	return false
}

// Event is an append-only audit log entry. Events are never mutated or
// deleted by normal operation; retention is governed externally.
type Event struct {
	ID         domain.AuditEventID `json:"id"`
	OccurredAt time.Time           `json:"occurredAt"`
	Type       EventType           `json:"type"`
	Site       string              `json:"site"`
	CookieName string              `json:"cookieName,omitempty"`
	VendorID   domain.VendorID     `json:"vendorId,omitempty"`
	Details    string              `json:"details,omitempty"`
}

// Query limits. Non-positive or absurd limits are clamped rather than
// rejected so admin tooling never gets an unbounded result set.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// Filter narrows an audit query. A nil Type matches every event type.
type Filter struct {
	Type  *EventType
	Since *time.Time
	Limit int
}

// EffectiveLimit returns the clamped limit for this filter.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return f.Limit
}

// Matches reports whether the event passes the filter (limit excluded).
func (f Filter) Matches(e Event) bool {
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	if f.Since != nil && e.OccurredAt.Before(*f.Since) {
		return false
	}
	return true
}
