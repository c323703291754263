package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/pricing"
)

const dateLayout = "2006-01-02"

// DefaultSeed returns the storefront's built-in products. Expiry dates are
// relative to today.
func DefaultSeed(today time.Time) []*Product {
	day := DateOf(today)
	return []*Product{
		{Name: "TV", Price: 49999, Quantity: 10, RequiresShipping: true, WeightGrams: 15500},
		{Name: "Cheese", Price: 599, Quantity: 20, CanExpire: true, ExpiryDate: day.AddDate(0, 0, 7), RequiresShipping: true, WeightGrams: 500},
		{Name: "Mobile Card", Price: 1000, Quantity: 100},
		{Name: "Biscuits", Price: 350, Quantity: 15, CanExpire: true, ExpiryDate: day.AddDate(0, 0, 30), RequiresShipping: true, WeightGrams: 300},
	}
}

// NewDefault builds a catalog from DefaultSeed.
func NewDefault(today time.Time) *Catalog {
	c, err := New(DefaultSeed(today)...)
	if err != nil {
		panic(fmt.Errorf("default catalog seed: %w", err))
	}
	return c
}

type seedFile struct {
	Products []seedProduct `koanf:"products"`
}

type seedProduct struct {
	Name             string `koanf:"name"`
	Price            string `koanf:"price"`
	Quantity         int    `koanf:"quantity"`
	ExpiryDate       string `koanf:"expiry_date"`
	ExpiresInDays    *int   `koanf:"expires_in_days"`
	RequiresShipping bool   `koanf:"requires_shipping"`
	WeightKg         string `koanf:"weight_kg"`
}

// LoadFile reads a JSON catalog seed such as:
//
//	{"products": [{"name": "TV", "price": "499.99", "quantity": 10,
//	  "requires_shipping": true, "weight_kg": "15.5"}]}
//
// Expiring products set either expiry_date (YYYY-MM-DD) or expires_in_days
// relative to today.
func LoadFile(path string, today time.Time) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog file: %w", err)
	}
	var seed seedFile
	if err := k.Unmarshal("", &seed); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	if len(seed.Products) == 0 {
		return nil, fmt.Errorf("catalog file %s: no products", path)
	}
	products := make([]*Product, 0, len(seed.Products))
	for i, sp := range seed.Products {
		p, err := sp.toProduct(today)
		if err != nil {
			return nil, fmt.Errorf("catalog file %s: product %d: %w", path, i+1, err)
		}
		products = append(products, p)
	}
	return New(products...)
}

func (sp seedProduct) toProduct(today time.Time) (*Product, error) {
	price, err := pricing.Parse(sp.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	p := &Product{
		Name:             sp.Name,
		Price:            price,
		Quantity:         sp.Quantity,
		RequiresShipping: sp.RequiresShipping,
	}
	switch {
	case strings.TrimSpace(sp.ExpiryDate) != "":
		expiry, err := time.Parse(dateLayout, strings.TrimSpace(sp.ExpiryDate))
		if err != nil {
			return nil, fmt.Errorf("expiry_date: %w", err)
		}
		p.CanExpire = true
		p.ExpiryDate = expiry
	case sp.ExpiresInDays != nil:
		p.CanExpire = true
		p.ExpiryDate = DateOf(today).AddDate(0, 0, *sp.ExpiresInDays)
	}
	if weight := strings.TrimSpace(sp.WeightKg); weight != "" {
		kg, err := decimal.NewFromString(weight)
		if err != nil {
			return nil, fmt.Errorf("weight_kg: %w", err)
		}
		if kg.IsNegative() {
			return nil, fmt.Errorf("weight_kg: %s is negative: %w", weight, ErrInvalidProduct)
		}
		grams := kg.Shift(3)
		if !grams.Equal(grams.Truncate(0)) {
			return nil, fmt.Errorf("weight_kg: %s is finer than one gram: %w", weight, ErrInvalidProduct)
		}
		p.WeightGrams = grams.IntPart()
	}
	return p, nil
}
