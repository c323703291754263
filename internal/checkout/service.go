package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/customer"
	"github.com/noah-isme/toko-storefront/internal/lock"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/shipping"
)

// DefaultLockKey guards the shared catalog during re-validation and settlement.
const DefaultLockKey = "checkout:catalog"

// Locker runs fn while holding key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// ReceiptLine is the frozen view of one cart line at purchase time.
type ReceiptLine struct {
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Total     pricing.Money `json:"total"`
	Shipped   bool          `json:"shipped"`
}

// Receipt summarises a settled order.
type Receipt struct {
	OrderID             string        `json:"orderId"`
	Customer            string        `json:"customer"`
	Lines               []ReceiptLine `json:"lines"`
	Subtotal            pricing.Money `json:"subtotal"`
	Shipping            pricing.Money `json:"shipping"`
	ShippingWeightGrams int64         `json:"shippingWeightGrams"`
	ShippingWaived      bool          `json:"shippingWaived"`
	Total               pricing.Money `json:"total"`
	RemainingBalance    pricing.Money `json:"remainingBalance"`
	PurchasedAt         time.Time     `json:"purchasedAt"`
}

// Engine validates a customer's cart against the live catalog, settles it and
// produces a receipt. The zero value is usable: it ships nothing anywhere,
// locks in-process and reads the wall clock.
type Engine struct {
	Notifier shipping.Notifier
	Shipping shipping.Calculator
	Locker   Locker
	LockKey  string
	LockTTL  time.Duration
	Now      func() time.Time
	Logger   *zerolog.Logger

	fallback lock.Local
}

// Settlement is a checkout that has been paid for but not yet shipped or
// cleared from the cart. Callers that split Checkout into its phases must
// call Ship and then Close exactly once.
type Settlement struct {
	Receipt Receipt

	customer *customer.Customer
	parcel   shipping.Parcel
	lines    int
}

// Checkout runs the gates in order and settles the order when all pass. A
// failing gate leaves the customer, the cart and the catalog untouched.
// It is Settle, Ship and Close in sequence.
func (e *Engine) Checkout(ctx context.Context, c *customer.Customer) (Receipt, error) {
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.Checkout")
	defer span.End()

	s, err := e.Settle(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Code(err))
		return Receipt{}, err
	}
	e.Ship(ctx, s)
	e.Close(ctx, s)
	return s.Receipt, nil
}

// Settle runs every gate and, when all pass, charges the customer and takes
// the stock. The cart is left as it was until Close.
func (e *Engine) Settle(ctx context.Context, c *customer.Customer) (*Settlement, error) {
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.Settle")
	defer span.End()
	start := time.Now()

	if c == nil || c.Cart == nil {
		err := errors.New("checkout: customer not provided")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("customer", c.Name), attribute.Int("cart.lines", c.Cart.Len()))

	receipt, parcel, err := e.settle(ctx, c)
	observeDuration(start)
	if err != nil {
		e.reject(ctx, c, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, Code(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", receipt.OrderID),
		attribute.Int64("order.total_cents", receipt.Total),
	)
	return &Settlement{Receipt: receipt, customer: c, parcel: parcel, lines: c.Cart.Len()}, nil
}

// Ship tells the notifier about the shippable products of a settlement.
// Notifier failures are logged and counted, never returned.
func (e *Engine) Ship(ctx context.Context, s *Settlement) {
	if s == nil || s.parcel.Empty() {
		return
	}
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.Ship")
	defer span.End()
	span.SetAttributes(attribute.Int("shipping.items", len(s.parcel.Products)))
	e.notify(ctx, s.parcel.Products)
}

// Close removes the settled lines from the cart and records the completed order.
func (e *Engine) Close(ctx context.Context, s *Settlement) {
	if s == nil {
		return
	}
	s.customer.Cart.DropFirst(s.lines)
	e.complete(ctx, s.Receipt)
}

func (e *Engine) settle(ctx context.Context, c *customer.Customer) (Receipt, shipping.Parcel, error) {
	var (
		receipt Receipt
		parcel  shipping.Parcel
	)
	if c.Cart.IsEmpty() {
		return receipt, parcel, ErrEmptyCart
	}

	err := e.locker().WithLock(ctx, e.lockKey(), e.LockTTL, func(context.Context) error {
		lines := c.Cart.Lines()
		now := e.now()
		if err := revalidate(lines, now); err != nil {
			return err
		}

		parcel = e.Shipping.Build(shippingLines(lines))
		summary := pricing.Compute(c.Cart.PricingItems(), parcel.Fee)

		if summary.Total > c.Balance {
			return &BalanceError{Total: summary.Total, Balance: c.Balance}
		}

		receipt = snapshot(c, lines, summary, parcel, now)

		c.Balance -= summary.Total
		for _, l := range lines {
			l.Product.Quantity -= l.Quantity
			if obs.UnitsSoldTotal != nil {
				obs.UnitsSoldTotal.WithLabelValues(l.Product.Name).Add(float64(l.Quantity))
			}
		}
		receipt.RemainingBalance = c.Balance
		return nil
	})
	if err != nil {
		return Receipt{}, shipping.Parcel{}, err
	}
	return receipt, parcel, nil
}

// revalidate checks lines in insertion order against the products' current
// state. Demand is accumulated per product so that two lines of the same
// product cannot together exceed its stock.
func revalidate(lines []cart.Line, now time.Time) error {
	demand := make(map[*catalog.Product]int, len(lines))
	for _, l := range lines {
		p := l.Product
		if p == nil {
			return errors.New("checkout: cart line without product")
		}
		demand[p] += l.Quantity
		if demand[p] > p.Quantity {
			return &ProductError{Product: p.Name, Reason: ErrOutOfStock}
		}
		if p.IsExpired(now) {
			return &ProductError{Product: p.Name, Reason: ErrExpired}
		}
	}
	return nil
}

func shippingLines(lines []cart.Line) []shipping.Line {
	out := make([]shipping.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, shipping.Line{Product: l.Product, Quantity: l.Quantity})
	}
	return out
}

func snapshot(c *customer.Customer, lines []cart.Line, summary pricing.Summary, parcel shipping.Parcel, now time.Time) Receipt {
	r := Receipt{
		OrderID:             uuid.NewString(),
		Customer:            c.Name,
		Lines:               make([]ReceiptLine, 0, len(lines)),
		Subtotal:            summary.Subtotal,
		Shipping:            summary.Shipping,
		ShippingWeightGrams: parcel.TotalGrams,
		ShippingWaived:      parcel.Waived,
		Total:               summary.Total,
		PurchasedAt:         catalog.DateOf(now),
	}
	for _, l := range lines {
		r.Lines = append(r.Lines, ReceiptLine{
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
			Total:     l.Total(),
			Shipped:   l.Product.RequiresShipping,
		})
	}
	return r
}

func (e *Engine) notify(ctx context.Context, products []*catalog.Product) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, products); err != nil {
		if obs.ShippingNotifyTotal != nil {
			obs.ShippingNotifyTotal.WithLabelValues("error").Inc()
		}
		if l := e.logger(ctx); l != nil {
			l.Warn().Err(err).Int("items", len(products)).Msg("shipping_notify_failed")
		}
		return
	}
	if obs.ShippingNotifyTotal != nil {
		obs.ShippingNotifyTotal.WithLabelValues("ok").Inc()
	}
}

func (e *Engine) reject(ctx context.Context, c *customer.Customer, err error) {
	code := Code(err)
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(code).Inc()
	}
	if l := e.logger(ctx); l != nil {
		evt := l.Info()
		if code == CodeInternal {
			evt = l.Error()
		}
		evt.Err(err).Str("customer", c.Name).Str("code", code).Msg("checkout_rejected")
	}
}

func (e *Engine) complete(ctx context.Context, r Receipt) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("completed").Inc()
	}
	if obs.CheckoutRevenueCents != nil {
		obs.CheckoutRevenueCents.Add(float64(r.Total))
	}
	if l := e.logger(ctx); l != nil {
		l.Info().
			Str("order_id", r.OrderID).
			Str("customer", r.Customer).
			Int("lines", len(r.Lines)).
			Int64("total_cents", r.Total).
			Int64("shipping_grams", r.ShippingWeightGrams).
			Msg("checkout_completed")
	}
}

func observeDuration(start time.Time) {
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

func (e *Engine) locker() Locker {
	if e.Locker != nil {
		return e.Locker
	}
	return &e.fallback
}

func (e *Engine) lockKey() string {
	if e.LockKey != "" {
		return e.LockKey
	}
	return DefaultLockKey
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger(ctx context.Context) *zerolog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return nil
}
