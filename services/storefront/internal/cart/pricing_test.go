package cart

import (
	"testing"
	"time"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestBuildDraft(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pricing := DefaultPricing()

	tests := []struct {
		name         string
		items        []domain.CartLineItem
		wantSubtotal float64
		wantShipping float64
		wantTax      float64
		wantTotal    float64
	}{
		{
			name:         "empty cart ships free",
			items:        nil,
			wantSubtotal: 0,
			wantShipping: 0,
			wantTax:      0,
			wantTotal:    0,
		},
		{
			name: "below free shipping threshold",
			items: []domain.CartLineItem{
				{ProductID: "a", UnitPrice: 19.99, Quantity: 2},
			},
			wantSubtotal: 39.98,
			wantShipping: 5.99,
			wantTax:      3.2,
			wantTotal:    49.17,
		},
		{
			name: "threshold reached exactly",
			items: []domain.CartLineItem{
				{ProductID: "p1", UnitPrice: 10, Quantity: 5},
			},
			wantSubtotal: 50,
			wantShipping: 0,
			wantTax:      4,
			wantTotal:    54,
		},
		{
			name: "fractional prices are rounded once",
			items: []domain.CartLineItem{
				{ProductID: "a", UnitPrice: 0.1, Quantity: 3},
				{ProductID: "b", UnitPrice: 0.2, Quantity: 1},
			},
			wantSubtotal: 0.5,
			wantShipping: 5.99,
			wantTax:      0.04,
			wantTotal:    6.53,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := BuildDraft(tt.items, pricing, domain.CheckoutInput{UserID: "u1"}, now)

			require.Equal(t, tt.wantSubtotal, draft.Subtotal)
			require.Equal(t, tt.wantShipping, draft.ShippingCost)
			require.Equal(t, tt.wantTax, draft.Tax)
			require.Equal(t, tt.wantTotal, draft.Total)
			require.Equal(t, "u1", draft.UserID)
			require.Equal(t, now, draft.CreatedAt)
			require.Len(t, draft.LineItems, len(tt.items))
		})
	}
}

func TestBuildDraft_LineTotals(t *testing.T) {
	items := []domain.CartLineItem{{ProductID: "a", Name: "A", UnitPrice: 1.15, Quantity: 3}}
	address := &domain.Address{FullName: "Jo", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

	draft := BuildDraft(items, DefaultPricing(), domain.CheckoutInput{ShippingAddress: address, PaymentMethod: "card"}, time.Now())

	require.Equal(t, 3.45, draft.LineItems[0].LineTotal)
	require.Equal(t, 3, draft.ItemCount())
	require.Same(t, address, draft.ShippingAddress)
	require.Equal(t, "card", draft.PaymentMethod)
	require.Equal(t, 1.15, items[0].UnitPrice)
}

func TestParseFallbackPolicy(t *testing.T) {
	policy, err := ParseFallbackPolicy("local")
	require.NoError(t, err)
	require.Equal(t, FallbackLocal, policy)

	policy, err = ParseFallbackPolicy("")
	require.NoError(t, err)
	require.Equal(t, FallbackDegrade, policy)

	_, err = ParseFallbackPolicy("merge")
	require.Error(t, err)
}
