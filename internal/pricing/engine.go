package pricing

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Shipping Money
	Total    Money
}

// Compute calculates order totals given the provided line items and shipping fee.
func Compute(items []Item, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += LineTotal(it.Qty, it.UnitPrice)
	}
	if shipping < 0 {
		shipping = 0
	}
	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}

// LineTotal returns qty × unitPrice.
func LineTotal(qty int, unitPrice Money) Money {
	return Money(qty) * unitPrice
}
