package catalog

import "context"

// VendorStore persists the vendor table supplied by the classification feed.
// The catalog reads it on refresh; admin endpoints mutate it out-of-band.
type VendorStore interface {
	List(ctx context.Context) ([]Vendor, error)
	Create(ctx context.Context, vendor Vendor) error
	Update(ctx context.Context, vendor Vendor) error
}
