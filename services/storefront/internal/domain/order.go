package domain

import "time"

type Address struct {
	FullName   string `json:"fullName" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

type OrderLineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// OrderDraft is built fresh for every checkout attempt and never mutated afterwards.
type OrderDraft struct {
	UserID          string          `json:"userId,omitempty"`
	LineItems       []OrderLineItem `json:"lineItems"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shippingCost"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	CreatedAt       time.Time       `json:"createdAt"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
}

func (d *OrderDraft) ItemCount() int {
	var n int
	for _, item := range d.LineItems {
		n += item.Quantity
	}
	return n
}

type OrderStatus string

// OrderStatusNew is the status the backend assigns to a just-submitted order.
const OrderStatusNew OrderStatus = "new"

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	Status    OrderStatus     `json:"status"`
	LineItems []OrderLineItem `json:"lineItems"`
	Total     float64         `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

type CheckoutInput struct {
	ShippingAddress *Address `json:"shippingAddress"`
	PaymentMethod   string   `json:"paymentMethod"`
	UserID          string   `json:"userId"`
}
