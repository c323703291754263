package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

const (
	// BaseFee is charged on every order, in cents.
	BaseFee pricing.Money = 500
	// PerKgRate is charged per kilogram of shippable weight, in cents.
	PerKgRate pricing.Money = 200
)

var gramsPerKg = decimal.NewFromInt(1000)

// Fee returns BaseFee + PerKgRate × kilograms for the given total weight in
// grams. Fractions of a cent round half away from zero.
func Fee(totalGrams int64) pricing.Money {
	if totalGrams < 0 {
		totalGrams = 0
	}
	variable := decimal.NewFromInt(PerKgRate).
		Mul(decimal.NewFromInt(totalGrams)).
		Div(gramsPerKg).
		Round(0).
		IntPart()
	return BaseFee + variable
}

// Parcel is the shippable subset of an order.
type Parcel struct {
	Products   []*catalog.Product
	TotalGrams int64
	Fee        pricing.Money
	Waived     bool
}

// Empty reports whether nothing in the order ships.
func (p Parcel) Empty() bool {
	return len(p.Products) == 0
}

// Line is the minimal view of an order line needed to build a parcel.
type Line struct {
	Product  *catalog.Product
	Quantity int
}

// Calculator aggregates shippable lines and prices them with Fee.
type Calculator struct {
	// WaiveWhenEmpty drops the base fee when no line ships.
	WaiveWhenEmpty bool
}

// Build filters shippable lines, sums quantity × weight over exactly those
// lines and prices the result. The fee is charged even when nothing ships
// unless WaiveWhenEmpty is set.
func (c Calculator) Build(lines []Line) Parcel {
	var parcel Parcel
	for _, l := range lines {
		if l.Product == nil || !l.Product.RequiresShipping {
			continue
		}
		weight := int64(l.Quantity) * l.Product.WeightGrams
		parcel.Products = append(parcel.Products, l.Product)
		parcel.TotalGrams += weight
	}
	if parcel.Empty() && c.WaiveWhenEmpty {
		parcel.Waived = true
		return parcel
	}
	parcel.Fee = Fee(parcel.TotalGrams)
	return parcel
}
