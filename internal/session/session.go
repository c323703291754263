package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/customer"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Session binds one customer to a catalog and a checkout engine. The console
// menu and the JSON API both drive the same Session.
//
// mu guards the customer and catalog state and is held only briefly. write
// serialises the operations that change the cart, so a checkout keeps it
// while the shipping notifier runs without blocking readers.
type Session struct {
	mu       sync.Mutex
	write    sync.Mutex
	catalog  *catalog.Catalog
	customer *customer.Customer
	engine   *checkout.Engine
}

// New wires a session. A nil engine gets the zero-value checkout.Engine.
func New(cat *catalog.Catalog, cust *customer.Customer, engine *checkout.Engine) (*Session, error) {
	if cat == nil {
		return nil, errors.New("session: catalog not provided")
	}
	if cust == nil {
		return nil, errors.New("session: customer not provided")
	}
	if engine == nil {
		engine = &checkout.Engine{}
	}
	return &Session{catalog: cat, customer: cust, engine: engine}, nil
}

// CustomerView is the customer as shown to the user.
type CustomerView struct {
	Name    string        `json:"name"`
	Balance pricing.Money `json:"balance"`
}

// CartLineView is one cart line as shown to the user.
type CartLineView struct {
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Total     pricing.Money `json:"total"`
}

// CartView is the cart contents priced at current catalog prices.
type CartView struct {
	Lines    []CartLineView `json:"lines"`
	Subtotal pricing.Money  `json:"subtotal"`
}

// Added describes a successful add-to-cart.
type Added struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Customer returns the customer's name and current balance.
func (s *Session) Customer() CustomerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CustomerView{Name: s.customer.Name, Balance: s.customer.Balance}
}

// Products returns value copies of the catalog in display order.
func (s *Session) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := s.catalog.Products()
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		out = append(out, *p)
	}
	return out
}

// AddToCart adds quantity units of the product at the 1-based catalog position.
func (s *Session) AddToCart(position, quantity int) (Added, error) {
	return s.add(func(c *catalog.Catalog) (*catalog.Product, error) { return c.At(position) }, quantity)
}

// AddNamed adds quantity units of the product with the given name. Names
// match case-insensitively.
func (s *Session) AddNamed(name string, quantity int) (Added, error) {
	return s.add(func(c *catalog.Catalog) (*catalog.Product, error) { return c.Find(name) }, quantity)
}

func (s *Session) add(lookup func(*catalog.Catalog) (*catalog.Product, error), quantity int) (Added, error) {
	s.write.Lock()
	defer s.write.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := lookup(s.catalog)
	if err != nil {
		countCartAdd("invalid_product")
		return Added{}, err
	}
	if err := s.customer.Cart.AddLine(p, quantity); err != nil {
		countCartAdd("rejected")
		return Added{}, err
	}
	countCartAdd("added")
	return Added{Product: p.Name, Quantity: quantity}, nil
}

// Cart returns the current cart contents.
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.customer.Cart.Lines()
	view := CartView{Lines: make([]CartLineView, 0, len(lines)), Subtotal: s.customer.Cart.Subtotal()}
	for _, l := range lines {
		view.Lines = append(view.Lines, CartLineView{
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
			Total:     l.Total(),
		})
	}
	return view
}

// Checkout settles the customer's cart. Reads are blocked only while the
// order is settled and while the cart is cleared, not while the shipping
// notifier runs.
func (s *Session) Checkout(ctx context.Context) (checkout.Receipt, error) {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	settled, err := s.engine.Settle(ctx, s.customer)
	s.mu.Unlock()
	if err != nil {
		return checkout.Receipt{}, err
	}

	s.engine.Ship(ctx, settled)

	s.mu.Lock()
	s.engine.Close(ctx, settled)
	s.mu.Unlock()
	return settled.Receipt, nil
}

func countCartAdd(result string) {
	if obs.CartAddTotal != nil {
		obs.CartAddTotal.WithLabelValues(result).Inc()
	}
}

// AppError maps a domain error onto the user-facing code, message and HTTP
// status. It returns nil for a nil error.
func AppError(err error) *common.AppError {
	if err == nil {
		return nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var productErr *checkout.ProductError
	switch {
	case errors.Is(err, common.ErrNotANumber):
		return common.NewAppError("BAD_REQUEST", "Please enter a whole number", http.StatusBadRequest, err)
	case errors.Is(err, catalog.ErrNotFound):
		return common.NewAppError("INVALID_PRODUCT", "Invalid product number", http.StatusNotFound, err)
	case errors.Is(err, cart.ErrInvalidQuantity):
		return common.NewAppError("INVALID_QUANTITY", "Quantity must be positive", http.StatusBadRequest, err)
	case errors.Is(err, checkout.ErrEmptyCart):
		return common.NewAppError(checkout.CodeEmptyCart, "Cannot checkout - your cart is empty", http.StatusConflict, err)
	case errors.As(err, &productErr):
		return common.NewAppError(checkout.Code(err), "Checkout failed - "+productErr.Error(), http.StatusConflict, err)
	case errors.Is(err, checkout.ErrInsufficientBalance):
		return common.NewAppError(checkout.CodeInsufficientBalance, "Checkout failed - insufficient balance", http.StatusPaymentRequired, err)
	case errors.Is(err, cart.ErrInsufficientStock):
		return common.NewAppError("INSUFFICIENT_STOCK", stockMessage(err), http.StatusConflict, err)
	default:
		return common.NewAppError(checkout.CodeInternal, "Something went wrong, please try again", http.StatusInternalServerError, err)
	}
}

func stockMessage(err error) string {
	var stockErr *cart.StockError
	if errors.As(err, &stockErr) {
		return fmt.Sprintf("Not enough stock for %s", stockErr.Product)
	}
	return "Not enough stock"
}
