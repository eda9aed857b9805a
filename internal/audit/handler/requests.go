package handler

import (
	"fmt"
	"strings"

	"ucm/internal/audit"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
)

// AnomalyRequest is the anomaly report body. Sites submit these when client
// scripts detect consent-violating behavior, e.g. a tracking cookie written
// before consent.
type AnomalyRequest struct {
	Site       string `json:"site"`
	CookieName string `json:"cookieName"`
	VendorID   string `json:"vendorId"`
	Details    string `json:"details"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *AnomalyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Site = strings.TrimSpace(r.Site)
	r.CookieName = strings.TrimSpace(r.CookieName)
	r.VendorID = strings.TrimSpace(r.VendorID)
	r.Details = strings.TrimSpace(r.Details)
}

// Validate checks that the report is well-formed.
func (r *AnomalyRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request is required: %w", sentinel.ErrBadRequest)
	}
	if r.Site == "" {
		return fmt.Errorf("site is required: %w", sentinel.ErrInvalidInput)
	}
	if r.CookieName == "" {
		return fmt.Errorf("cookieName is required: %w", sentinel.ErrInvalidInput)
	}
	return nil
}

// ToEvent converts the report to an audit event. ID and timestamp are
// assigned by the publisher.
func (r *AnomalyRequest) ToEvent() audit.Event {
	return audit.Event{
		Type:       audit.TypeAnomaly,
		Site:       r.Site,
		CookieName: r.CookieName,
		VendorID:   domain.VendorID(r.VendorID),
		Details:    r.Details,
	}
}
