package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/http/handler"
)

type Handlers struct {
	Cart    *handler.CartHandler
	Catalog *handler.CatalogHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, sessionMiddleware fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Get("/products", h.Catalog.ListProducts)
	api.Get("/products/:id", h.Catalog.GetProduct)
	api.Get("/categories", h.Catalog.ListCategories)

	cart := api.Group("/cart", sessionMiddleware)
	cart.Get("", h.Cart.Get)
	cart.Get("/stream", h.Cart.Stream)
	cart.Delete("", h.Cart.Clear)
	cart.Post("/refresh", h.Cart.Refresh)
	cart.Post("/draft", h.Cart.Draft)
	cart.Post("/items", h.Cart.AddItem)
	cart.Put("/items/:productId", h.Cart.UpdateItem)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)

	api.Post("/checkout", sessionMiddleware, h.Cart.Checkout)
}
