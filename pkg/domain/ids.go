// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "ucm/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a ConsentID where an
// AuditEventID is expected.
type (
	ConsentID    uuid.UUID
	AuditEventID uuid.UUID
)

// VendorID is the identifier supplied by the vendor classification feed. It is
// treated as an opaque string: the feed owns the scheme.
type VendorID string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseConsentID(s string) (ConsentID, error) {
	id, err := parseUUID(s, "consent ID")
	return ConsentID(id), err
}

func ParseAuditEventID(s string) (AuditEventID, error) {
	id, err := parseUUID(s, "audit event ID")
	return AuditEventID(id), err
}

func ParseVendorID(s string) (VendorID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "vendor ID cannot be empty")
	}
	return VendorID(s), nil
}

// New functions - generation happens server-side, never from client input.

func NewConsentID() ConsentID       { return ConsentID(uuid.New()) }
func NewAuditEventID() AuditEventID { return AuditEventID(uuid.New()) }

// String methods - for logging and serialization.

func (id ConsentID) String() string    { return uuid.UUID(id).String() }
func (id AuditEventID) String() string { return uuid.UUID(id).String() }
func (id VendorID) String() string     { return string(id) }

// Text marshaling - IDs serialize as canonical UUID strings on the wire.

func (id ConsentID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id AuditEventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ConsentID) UnmarshalText(b []byte) error {
	parsed, err := ParseConsentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AuditEventID) UnmarshalText(b []byte) error {
	parsed, err := ParseAuditEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsNil checks - used for service-layer validation.

func (id ConsentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AuditEventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VendorID) IsNil() bool     { return id == "" }

// parseUUID is the shared validation logic.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
