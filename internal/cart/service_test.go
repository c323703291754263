package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/catalog"
)

func TestAddLine(t *testing.T) {
	t.Parallel()

	tv := &catalog.Product{Name: "TV", Price: 49999, Quantity: 10}
	c := cart.New()

	require.NoError(t, c.AddLine(tv, 2))
	require.NoError(t, c.AddLine(tv, 3))
	require.Equal(t, 2, c.Len(), "same product twice keeps two lines")
	require.Equal(t, 10, tv.Quantity, "adding to cart does not reserve stock")

	lines := c.Lines()
	require.Same(t, tv, lines[0].Product)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 3, lines[1].Quantity)
	require.Equal(t, int64(5*49999), c.Subtotal())
}

func TestAddLineRejections(t *testing.T) {
	t.Parallel()

	cheese := &catalog.Product{Name: "Cheese", Price: 599, Quantity: 4}
	c := cart.New()

	require.ErrorIs(t, c.AddLine(cheese, 0), cart.ErrInvalidQuantity)
	require.ErrorIs(t, c.AddLine(cheese, -2), cart.ErrInvalidQuantity)

	err := c.AddLine(cheese, 5)
	require.ErrorIs(t, err, cart.ErrInsufficientStock)
	require.Contains(t, err.Error(), "Cheese")
	var stockErr *cart.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 4, stockErr.Available)

	require.ErrorIs(t, c.AddLine(nil, 1), cart.ErrNilProduct)
	require.True(t, c.IsEmpty())

	require.NoError(t, c.AddLine(cheese, 4), "exactly the available quantity is allowed")
}

func TestLinesIsACopyAndClear(t *testing.T) {
	t.Parallel()

	card := &catalog.Product{Name: "Mobile Card", Price: 1000, Quantity: 100}
	c := cart.New()
	require.NoError(t, c.AddLine(card, 1))

	lines := c.Lines()
	lines[0].Quantity = 99
	require.Equal(t, 1, c.Lines()[0].Quantity)
	require.Equal(t, int64(1000), c.Lines()[0].Total())

	c.Clear()
	require.True(t, c.IsEmpty())
	require.Zero(t, c.Subtotal())
}

func TestLineTotalFollowsCurrentPrice(t *testing.T) {
	t.Parallel()

	biscuits := &catalog.Product{Name: "Biscuits", Price: 350, Quantity: 15}
	c := cart.New()
	require.NoError(t, c.AddLine(biscuits, 3))

	biscuits.Price = 400
	require.Equal(t, int64(1200), c.Subtotal())
}

func TestDropFirstKeepsLaterLines(t *testing.T) {
	t.Parallel()

	tv := &catalog.Product{Name: "TV", Price: 49999, Quantity: 5}
	card := &catalog.Product{Name: "Mobile Card", Price: 1000, Quantity: 100}
	c := cart.New()
	require.NoError(t, c.AddLine(tv, 1))
	require.NoError(t, c.AddLine(tv, 1))
	require.NoError(t, c.AddLine(card, 2))

	c.DropFirst(0)
	require.Equal(t, 3, c.Len())

	c.DropFirst(2)
	require.Equal(t, 1, c.Len())
	require.Equal(t, "Mobile Card", c.Lines()[0].Product.Name)

	c.DropFirst(5)
	require.True(t, c.IsEmpty())
}
