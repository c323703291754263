package shipping

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/catalog"
)

// LogNotifier records shipments as structured log events.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs one event per shipped product.
func (n LogNotifier) Notify(ctx context.Context, products []*catalog.Product) error {
	logger := n.Logger
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		logger = *ctxLogger
	}
	var totalGrams int64
	for _, p := range products {
		if p == nil {
			continue
		}
		totalGrams += p.WeightGrams
		logger.Info().
			Str("product", p.Name).
			Int64("weight_grams", p.WeightGrams).
			Msg("shipment_item")
	}
	logger.Info().
		Int("items", len(products)).
		Int64("unit_weight_grams", totalGrams).
		Msg("shipment_announced")
	return nil
}

// ConsoleNotifier prints the shipment list for the interactive session.
type ConsoleNotifier struct {
	Out io.Writer
}

// Notify writes "Shipping these items:" followed by one line per product.
func (n ConsoleNotifier) Notify(_ context.Context, products []*catalog.Product) error {
	if n.Out == nil {
		return nil
	}
	if _, err := fmt.Fprintln(n.Out, "\nShipping these items:"); err != nil {
		return err
	}
	for _, p := range products {
		if p == nil {
			continue
		}
		if _, err := fmt.Fprintf(n.Out, "- %s (Weight: %.2f kg)\n", p.Name, p.WeightKilograms()); err != nil {
			return err
		}
	}
	return nil
}
