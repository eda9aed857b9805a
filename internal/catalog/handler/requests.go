package handler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ucm/internal/catalog"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
)

// VendorRequest is the vendor create/update body. The ID is optional on
// create; one is generated when absent. On update the path parameter wins.
type VendorRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Domain    string   `json:"domain"`
	Purposes  []string `json:"purposes"`
	RiskScore float64  `json:"riskScore"`
}

// Normalize applies business defaults and sanitizes inputs.
func (r *VendorRequest) Normalize() {
	if r == nil {
		return
	}
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	for i := range r.Purposes {
		r.Purposes[i] = strings.ToLower(strings.TrimSpace(r.Purposes[i]))
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
}

// Validate checks that the request is well-formed.
func (r *VendorRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("request is required: %w", sentinel.ErrBadRequest)
	}
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", sentinel.ErrInvalidInput)
	}
	if len(r.Purposes) == 0 {
		return fmt.Errorf("at least one purpose is required: %w", sentinel.ErrInvalidInput)
	}
	for _, key := range r.Purposes {
		if !catalog.KnownPurposeKey(key) {
			return fmt.Errorf("unknown purpose %q: %w", key, sentinel.ErrInvalidInput)
		}
	}
	if r.RiskScore < 0 || r.RiskScore > 1 {
		return fmt.Errorf("riskScore must be between 0 and 1: %w", sentinel.ErrInvalidInput)
	}
	return nil
}

// ToVendor converts the request to the domain vendor.
func (r *VendorRequest) ToVendor() catalog.Vendor {
	return catalog.Vendor{
		ID:        domain.VendorID(r.ID),
		Name:      r.Name,
		Domain:    r.Domain,
		Purposes:  r.Purposes,
		RiskScore: r.RiskScore,
	}
}
