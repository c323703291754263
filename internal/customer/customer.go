package customer

import (
	"errors"
	"strings"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

var (
	// ErrNameRequired is returned when the customer name is blank.
	ErrNameRequired = errors.New("customer name is required")
	// ErrNegativeBalance is returned when an opening balance is below zero.
	ErrNegativeBalance = errors.New("balance must not be negative")
)

// Customer owns exactly one cart for the lifetime of a session. Balance is
// only changed by checkout settlement.
type Customer struct {
	Name    string
	Balance pricing.Money
	Cart    *cart.Cart
}

// New validates the inputs and returns a customer with an empty cart.
func New(name string, balance pricing.Money) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if balance < 0 {
		return nil, ErrNegativeBalance
	}
	return &Customer{Name: name, Balance: balance, Cart: cart.New()}, nil
}
