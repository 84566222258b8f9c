package client

import (
	"context"
	"net/http"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

type OrderSubmitter interface {
	Submit(ctx context.Context, session domain.Session, draft *domain.OrderDraft) (*domain.Order, error)
}

type orders struct {
	client *Client
}

func NewOrderSubmitter(client *Client) OrderSubmitter {
	return &orders{client: client}
}

func (o *orders) Submit(ctx context.Context, session domain.Session, draft *domain.OrderDraft) (*domain.Order, error) {
	var order domain.Order
	if err := o.client.Do(ctx, http.MethodPost, "/orders", session.Token, draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
