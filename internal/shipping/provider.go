package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/toko-storefront/internal/catalog"
)

// Notifier announces which products are about to ship. Implementations are
// best-effort: checkout logs a returned error and carries on.
type Notifier interface {
	Notify(ctx context.Context, products []*catalog.Product) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, products []*catalog.Product) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, products []*catalog.Product) error {
	return f(ctx, products)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, []*catalog.Product) error { return nil }

// MultiNotifier fans a notification out to every configured notifier.
type MultiNotifier []Notifier

// Notify calls every notifier and joins their errors.
func (m MultiNotifier) Notify(ctx context.Context, products []*catalog.Product) error {
	var joined error
	for i, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, products); err != nil {
			joined = errors.Join(joined, fmt.Errorf("shipping: notifier %d: %w", i, err))
		}
	}
	return joined
}
