package session

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

const dateLayout = "2006-01-02"

// kilograms renders a gram weight as kilograms with two decimals.
func kilograms(grams int64) string {
	return decimal.New(grams, -3).StringFixed(2)
}

// RenderProducts writes the full catalog listing with stock, expiry and weight.
func RenderProducts(w io.Writer, products []catalog.Product) {
	fmt.Fprintln(w, "\nAvailable Products:")
	for i, p := range products {
		fmt.Fprintf(w, "%d. %s - %s (Qty: %d)", i+1, p.Name, pricing.FormatUSD(p.Price), p.Quantity)
		if p.CanExpire {
			fmt.Fprintf(w, " - Expires: %s", p.ExpiryDate.Format(dateLayout))
		}
		if p.RequiresShipping {
			fmt.Fprintf(w, " - Weight: %skg", kilograms(p.WeightGrams))
		}
		fmt.Fprintln(w)
	}
}

// RenderProductNames writes the numbered product names used by the add-to-cart prompt.
func RenderProductNames(w io.Writer, products []catalog.Product) {
	fmt.Fprintln(w, "\nAvailable Products:")
	for i, p := range products {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Name)
	}
}

// RenderCart writes the cart lines and subtotal, or a notice when it is empty.
func RenderCart(w io.Writer, view CartView) {
	if len(view.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	fmt.Fprintln(w, "\nYour Cart:")
	for _, l := range view.Lines {
		fmt.Fprintf(w, "- %d x %s: %s\n", l.Quantity, l.Name, pricing.FormatUSD(l.Total))
	}
	fmt.Fprintf(w, "Subtotal: %s\n", pricing.FormatUSD(view.Subtotal))
}

// RenderReceipt writes a settled order.
func RenderReceipt(w io.Writer, r checkout.Receipt) {
	fmt.Fprintln(w, "\n=== RECEIPT ===")
	fmt.Fprintf(w, "Customer: %s\n", r.Customer)
	fmt.Fprintf(w, "Order: %s (%s)\n", r.OrderID, r.PurchasedAt.Format(dateLayout))
	fmt.Fprintln(w, "Items Purchased:")
	for _, l := range r.Lines {
		fmt.Fprintf(w, "- %d x %s: %s\n", l.Quantity, l.Name, pricing.FormatUSD(l.Total))
	}
	fmt.Fprintf(w, "Subtotal: %s\n", pricing.FormatUSD(r.Subtotal))
	if r.ShippingWeightGrams > 0 {
		fmt.Fprintf(w, "Shipping: %s (%s kg)\n", pricing.FormatUSD(r.Shipping), kilograms(r.ShippingWeightGrams))
	} else {
		fmt.Fprintf(w, "Shipping: %s\n", pricing.FormatUSD(r.Shipping))
	}
	fmt.Fprintf(w, "Total: %s\n", pricing.FormatUSD(r.Total))
	fmt.Fprintf(w, "Remaining balance: %s\n", pricing.FormatUSD(r.RemainingBalance))
	fmt.Fprintln(w, "===============")
}
