package checkout

import (
	"errors"
	"fmt"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOutOfStock is the reason when a line asks for more than the product now holds.
	ErrOutOfStock = fmt.Errorf("out of stock: %w", cart.ErrInsufficientStock)
	// ErrExpired is the reason when a product's expiry date has passed.
	ErrExpired = errors.New("expired")
	// ErrInsufficientBalance is returned when the order total exceeds the customer's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Failure codes reported to callers and used as metric labels.
const (
	CodeEmptyCart           = "EMPTY_CART"
	CodeOutOfStock          = "OUT_OF_STOCK"
	CodeExpired             = "EXPIRED"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeInternal            = "INTERNAL"
)

// ProductError names the cart product that failed re-validation.
type ProductError struct {
	Product string
	Reason  error
}

func (e *ProductError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrOutOfStock):
		return e.Product + " is out of stock"
	case errors.Is(e.Reason, ErrExpired):
		return e.Product + " has expired"
	default:
		return fmt.Sprintf("%s: %v", e.Product, e.Reason)
	}
}

// Unwrap exposes the reason to errors.Is.
func (e *ProductError) Unwrap() error {
	return e.Reason
}

// BalanceError carries the amounts behind an insufficient balance failure.
type BalanceError struct {
	Total   pricing.Money
	Balance pricing.Money
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: total %s exceeds balance %s", pricing.FormatUSD(e.Total), pricing.FormatUSD(e.Balance))
}

// Unwrap returns ErrInsufficientBalance.
func (e *BalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// Code maps a checkout error onto its failure code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCart):
		return CodeEmptyCart
	case errors.Is(err, ErrOutOfStock):
		return CodeOutOfStock
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	default:
		return CodeInternal
	}
}
