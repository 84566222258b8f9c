package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type catalog struct {
	client *Client
}

func NewCatalog(client *Client) Catalog {
	return &catalog{client: client}
}

func (c *catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.client.Do(ctx, http.MethodGet, "/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := c.client.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "", nil, &product); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (c *catalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.client.Do(ctx, http.MethodGet, "/categories", "", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
