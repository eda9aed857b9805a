package models

import (
	"fmt"
	"strings"

	"ucm/internal/region"
	"ucm/internal/sentinel"
)

// ChoiceRequest is the wire form of a single consent choice.
type ChoiceRequest struct {
	VendorID string `json:"vendorId"`
	Purpose  string `json:"purpose"`
	Allowed  bool   `json:"allowed"`
}

// RecordRequest is the consent submission body. Unknown fields are rejected
// at decode time by the handler; validation here covers the known ones.
type RecordRequest struct {
	Region  string          `json:"region"`
	GPC     bool            `json:"gpc"`
	Choices []ChoiceRequest `json:"choices"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *RecordRequest) Normalize() {
	if r == nil {
		return
	}
	r.Region = strings.ToUpper(strings.TrimSpace(r.Region))
	for i := range r.Choices {
		r.Choices[i].VendorID = strings.TrimSpace(r.Choices[i].VendorID)
		r.Choices[i].Purpose = strings.TrimSpace(r.Choices[i].Purpose)
	}
}

// Validate checks that the request is well-formed. Semantic validation
// against the runtime config happens in the service.
func (r *RecordRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request is required: %w", sentinel.ErrBadRequest)
	}
	if !region.Region(r.Region).IsValid() {
		return fmt.Errorf("invalid region %q: %w", r.Region, sentinel.ErrInvalidInput)
	}
	if len(r.Choices) == 0 {
		return fmt.Errorf("choices are required: %w", sentinel.ErrInvalidInput)
	}
	for _, c := range r.Choices {
		if c.Purpose == "" {
			return fmt.Errorf("choice purpose is required: %w", sentinel.ErrInvalidInput)
		}
	}
	return nil
}
