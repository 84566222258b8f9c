package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/client"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog client.Catalog
	logger  *zap.Logger
	timeout time.Duration
}

func NewCatalogHandler(catalog client.Catalog, timeout time.Duration, logger *zap.Logger) *CatalogHandler {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		return writeError(c, h.logger, "list products failed", err)
	}

	mylogger.Debug(ctx, h.logger, "list products succeeded", zap.Int("count", len(products)))

	return c.Status(fiber.StatusOK).JSON(products)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	id := c.Params("id")
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		return writeError(c, h.logger, "get product failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return writeError(c, h.logger, "list categories failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(categories)
}
