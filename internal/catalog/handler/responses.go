package handler

import "ucm/internal/catalog"

// VendorResponse is the wire form of a vendor table row.
type VendorResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Domain    string   `json:"domain"`
	Purposes  []string `json:"purposes"`
	RiskScore float64  `json:"riskScore"`
}

// FromVendor converts a vendor to its wire form.
func FromVendor(v catalog.Vendor) VendorResponse {
	purposes := v.Purposes
	if purposes == nil {
		purposes = []string{}
	}
	return VendorResponse{
		ID:        v.ID.String(),
		Name:      v.Name,
		Domain:    v.Domain,
		Purposes:  purposes,
		RiskScore: v.RiskScore,
	}
}

// FromVendors converts the vendor table to its wire form.
func FromVendors(vendors []catalog.Vendor) []VendorResponse {
	out := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, FromVendor(v))
	}
	return out
}
