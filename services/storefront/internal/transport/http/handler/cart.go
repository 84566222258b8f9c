package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/cart"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/sakashimaa/storefront/services/storefront/internal/transport/http/middleware"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const streamKeepAlive = 15 * time.Second

type CartHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
	timeout  time.Duration
}

func NewCartHandler(timeout time.Duration, logger *zap.Logger) *CartHandler {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	return &CartHandler{
		validate: validator.New(),
		logger:   logger,
		timeout:  timeout,
	}
}

type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
}

type UpdateItemInput struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type CheckoutRequest struct {
	ShippingAddress *domain.Address `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" validate:"omitempty,max=64"`
}

func (r *CheckoutRequest) toInput() domain.CheckoutInput {
	return domain.CheckoutInput{
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   r.PaymentMethod,
	}
}

func (h *CartHandler) missingCore(c *fiber.Ctx) error {
	mylogger.Error(c.UserContext(), h.logger, "cart core missing from request")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	return c.Status(fiber.StatusOK).JSON(core.Snapshot())
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	input := new(AddItemInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, h.logger, "body parsing failed", err)
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, h.logger, "add item input invalid", err)
	}

	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	if err := core.AddByID(ctx, input.ProductID, quantity); err != nil {
		return writeError(c, h.logger, "add item failed", err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"item added to cart",
		zap.String("product_id", input.ProductID),
		zap.Int("quantity", quantity),
	)

	return c.Status(fiber.StatusOK).JSON(core.Snapshot())
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	productID := c.Params("productId")

	input := new(UpdateItemInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, h.logger, "body parsing failed", err)
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, h.logger, "update item input invalid", err)
	}

	if err := core.UpdateQuantity(c.UserContext(), productID, *input.Quantity); err != nil {
		return writeError(c, h.logger, "update item failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(core.Snapshot())
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	if err := core.RemoveItem(c.UserContext(), c.Params("productId")); err != nil {
		return writeError(c, h.logger, "remove item failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(core.Snapshot())
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	if err := core.Clear(c.UserContext()); err != nil {
		return writeError(c, h.logger, "clear cart failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(core.Snapshot())
}

func (h *CartHandler) Refresh(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	if err := core.Refresh(c.UserContext()); err != nil {
		return writeError(c, h.logger, "refresh cart failed", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(core.Snapshot())
}

func (h *CartHandler) parseCheckout(c *fiber.Ctx) (*CheckoutRequest, error) {
	req := new(CheckoutRequest)
	if len(c.Body()) == 0 {
		return req, nil
	}

	if err := c.BodyParser(req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *CartHandler) Draft(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	req, err := h.parseCheckout(c)
	if err != nil {
		return badRequest(c, h.logger, "draft input invalid", err)
	}

	return c.Status(fiber.StatusOK).JSON(core.BuildOrderDraft(req.toInput()))
}

func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	req, err := h.parseCheckout(c)
	if err != nil {
		return badRequest(c, h.logger, "checkout input invalid", err)
	}

	order, err := core.Checkout(ctx, req.toInput())
	if err != nil {
		return writeError(c, h.logger, "checkout failed", err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"checkout succeeded",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total),
	)

	return c.Status(fiber.StatusCreated).JSON(order)
}

// Stream pushes a snapshot on connect and after every change as server-sent events.
func (h *CartHandler) Stream(c *fiber.Ctx) error {
	core, ok := middleware.CoreFrom(c)
	if !ok {
		return h.missingCore(c)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates := make(chan cart.Snapshot, 1)
	push := func(snap cart.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			// Keep only the newest snapshot for slow readers.
			select {
			case <-updates:
			default:
			}
		}
	}

	ctx := c.UserContext()
	initial := core.Snapshot()
	cancel := core.Subscribe(push)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		if err := writeEvent(w, initial); err != nil {
			return
		}

		for {
			select {
			case snap := <-updates:
				if snap.Version <= initial.Version {
					continue
				}
				if err := writeEvent(w, snap); err != nil {
					mylogger.Debug(ctx, h.logger, "cart stream closed", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeEvent(w *bufio.Writer, snap cart.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", snap.Version, data); err != nil {
		return err
	}
	return w.Flush()
}
