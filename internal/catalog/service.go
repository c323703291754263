package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound indicates the requested product is not part of the catalog.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateProduct is returned when a product name is already registered.
	ErrDuplicateProduct = errors.New("product already in catalog")
	// ErrInvalidProduct is returned when a product fails validation.
	ErrInvalidProduct = errors.New("invalid product")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func productValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Catalog is an ordered, in-memory product listing owned by a session.
// Products are handed out by pointer so carts observe stock changes.
type Catalog struct {
	products []*Product
	byName   map[string]*Product
}

// New builds a catalog from the provided products, preserving their order.
func New(products ...*Product) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Product, len(products))}
	for _, p := range products {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates and appends a product.
func (c *Catalog) Add(p *Product) error {
	if p == nil {
		return fmt.Errorf("nil product: %w", ErrInvalidProduct)
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := productValidator().Struct(p); err != nil {
		return fmt.Errorf("%s: %w: %v", p.Name, ErrInvalidProduct, err)
	}
	if p.CanExpire && p.ExpiryDate.IsZero() {
		return fmt.Errorf("%s: %w: expiring product needs an expiry date", p.Name, ErrInvalidProduct)
	}
	key := normalizeName(p.Name)
	if _, exists := c.byName[key]; exists {
		return fmt.Errorf("%s: %w", p.Name, ErrDuplicateProduct)
	}
	c.products = append(c.products, p)
	c.byName[key] = p
	return nil
}

// Products returns the catalog listing in display order.
func (c *Catalog) Products() []*Product {
	out := make([]*Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// At returns the product at the 1-based menu position.
func (c *Catalog) At(position int) (*Product, error) {
	if position < 1 || position > len(c.products) {
		return nil, fmt.Errorf("position %d: %w", position, ErrNotFound)
	}
	return c.products[position-1], nil
}

// Find looks a product up by name, ignoring case and surrounding spaces.
func (c *Catalog) Find(name string) (*Product, error) {
	if p, ok := c.byName[normalizeName(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
