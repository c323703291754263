package customer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/customer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := customer.New("  Budi ", 150000)
	require.NoError(t, err)
	require.Equal(t, "Budi", c.Name)
	require.Equal(t, int64(150000), c.Balance)
	require.NotNil(t, c.Cart)
	require.True(t, c.Cart.IsEmpty())

	_, err = customer.New(" ", 10)
	require.ErrorIs(t, err, customer.ErrNameRequired)

	_, err = customer.New("Siti", -1)
	require.ErrorIs(t, err, customer.ErrNegativeBalance)
}
