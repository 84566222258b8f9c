package cart

import (
	"time"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type Pricing struct {
	TaxRate               float64
	FlatShipping          float64
	FreeShippingThreshold float64
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.08,
		FlatShipping:          5.99,
		FreeShippingThreshold: 50,
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// BuildDraft derives an order draft from items without touching them.
// Shipping is free for an empty cart and once the subtotal reaches the threshold.
func BuildDraft(items []domain.CartLineItem, pricing Pricing, input domain.CheckoutInput, now time.Time) *domain.OrderDraft {
	lines := make([]domain.OrderLineItem, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		lineTotal := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, domain.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: round2(lineTotal),
		})
	}

	subtotal = subtotal.Round(2)

	shipping := decimal.NewFromFloat(pricing.FlatShipping)
	if len(items) == 0 || (pricing.FreeShippingThreshold > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(pricing.FreeShippingThreshold))) {
		shipping = decimal.Zero
	}
	shipping = shipping.Round(2)

	tax := subtotal.Mul(decimal.NewFromFloat(pricing.TaxRate)).Round(2)

	return &domain.OrderDraft{
		UserID:          input.UserID,
		LineItems:       lines,
		Subtotal:        round2(subtotal),
		ShippingCost:    round2(shipping),
		Tax:             round2(tax),
		Total:           round2(subtotal.Add(shipping).Add(tax)),
		CreatedAt:       now,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	}
}
