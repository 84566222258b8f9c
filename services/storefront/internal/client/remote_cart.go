package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

// RemoteCart is the server-side per-user cart resource.
type RemoteCart interface {
	Fetch(ctx context.Context, session domain.Session) ([]domain.CartLineItem, error)
	Add(ctx context.Context, session domain.Session, productID string, quantity int) error
	Update(ctx context.Context, session domain.Session, productID string, quantity int) error
	Remove(ctx context.Context, session domain.Session, productID string) error
	Clear(ctx context.Context, session domain.Session) error
}

type remoteCart struct {
	client *Client
}

func NewRemoteCart(client *Client) RemoteCart {
	return &remoteCart{client: client}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (r *remoteCart) Fetch(ctx context.Context, session domain.Session) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	if err := r.client.Do(ctx, http.MethodGet, "/cart", session.Token, nil, &items); err != nil {
		return nil, err
	}

	if items == nil {
		items = []domain.CartLineItem{}
	}
	return items, nil
}

func (r *remoteCart) Add(ctx context.Context, session domain.Session, productID string, quantity int) error {
	return r.client.Do(ctx, http.MethodPost, "/cart", session.Token, addItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
}

func (r *remoteCart) Update(ctx context.Context, session domain.Session, productID string, quantity int) error {
	return r.client.Do(ctx, http.MethodPut, "/cart/"+url.PathEscape(productID), session.Token, updateItemRequest{
		Quantity: quantity,
	}, nil)
}

func (r *remoteCart) Remove(ctx context.Context, session domain.Session, productID string) error {
	return r.client.Do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), session.Token, nil, nil)
}

func (r *remoteCart) Clear(ctx context.Context, session domain.Session) error {
	return r.client.Do(ctx, http.MethodDelete, "/cart", session.Token, nil, nil)
}
