package cart

import (
	"errors"
	"fmt"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

var (
	// ErrInvalidQuantity is returned when a non-positive quantity is requested.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientStock is returned when more units are requested than the product holds.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNilProduct is returned when a line would reference no product.
	ErrNilProduct = errors.New("product is required")
)

// StockError reports an add-to-cart that asked for more units than available.
type StockError struct {
	Product   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s (requested %d, available %d)", e.Product, e.Requested, e.Available)
}

// Unwrap returns ErrInsufficientStock.
func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// Line is one (product, quantity) entry. The product is shared with the
// catalog, not copied.
type Line struct {
	Product  *catalog.Product
	Quantity int
}

// Total returns quantity × the product's current unit price.
func (l Line) Total() pricing.Money {
	if l.Product == nil {
		return 0
	}
	return pricing.LineTotal(l.Quantity, l.Product.Price)
}

// Cart is an insertion-ordered list of lines. Adding a line does not reserve
// stock; checkout re-validates quantities.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddLine appends qty units of p. Adding the same product twice creates two lines.
func (c *Cart) AddLine(p *catalog.Product, qty int) error {
	if p == nil {
		return ErrNilProduct
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d: %w", qty, ErrInvalidQuantity)
	}
	if qty > p.Quantity {
		return &StockError{Product: p.Name, Requested: qty, Available: p.Quantity}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums line totals at current prices.
func (c *Cart) Subtotal() pricing.Money {
	return pricing.Compute(c.PricingItems(), 0).Subtotal
}

// PricingItems converts the lines into pricing inputs.
func (c *Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Product == nil {
			continue
		}
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.Product.Price})
	}
	return items
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// DropFirst removes the n oldest lines, keeping any added after them.
func (c *Cart) DropFirst(n int) {
	if n >= len(c.lines) {
		c.lines = nil
		return
	}
	if n <= 0 {
		return
	}
	c.lines = append([]Line(nil), c.lines[n:]...)
}
