package catalog

import (
	"time"

	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Product is a catalog item shared by every cart that references it.
type Product struct {
	Name             string        `validate:"required"`
	Price            pricing.Money `validate:"gte=0"`
	Quantity         int           `validate:"gte=0"`
	CanExpire        bool
	ExpiryDate       time.Time
	RequiresShipping bool
	// WeightGrams is only meaningful when RequiresShipping is set.
	WeightGrams int64 `validate:"gte=0"`
}

// IsExpired reports whether the product is past its expiry date on the
// calendar day of now. A product expiring today is still sellable.
func (p *Product) IsExpired(now time.Time) bool {
	if p == nil || !p.CanExpire {
		return false
	}
	return DateOf(now).After(DateOf(p.ExpiryDate))
}

// ShippingWeight returns the per-unit weight used for fee computation, zero
// for products that do not ship.
func (p *Product) ShippingWeight() int64 {
	if p == nil || !p.RequiresShipping {
		return 0
	}
	return p.WeightGrams
}

// WeightKilograms renders the shipping weight in kilograms for display.
func (p *Product) WeightKilograms() float64 {
	return float64(p.WeightGrams) / 1000
}

// DateOf returns the calendar date of t, stamped at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
