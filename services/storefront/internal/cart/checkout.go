package cart

import (
	"context"

	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// BuildOrderDraft is pure with respect to the cart. An authenticated session always
// orders as its own user; input.UserID only applies to anonymous sessions.
func (c *Core) BuildOrderDraft(input domain.CheckoutInput) *domain.OrderDraft {
	c.mu.Lock()
	items := domain.CloneItems(c.state.Items)
	session := c.session
	c.mu.Unlock()

	return c.draftFor(session, items, input)
}

func (c *Core) draftFor(session domain.Session, items []domain.CartLineItem, input domain.CheckoutInput) *domain.OrderDraft {
	if session.IsAuthenticated {
		input.UserID = session.UserID
	}

	return BuildDraft(items, c.pricing, input, c.now())
}

// Checkout submits a fresh draft and clears the cart only after the order was accepted.
// Submission errors are returned unchanged and leave the cart as it was.
func (c *Core) Checkout(ctx context.Context, input domain.CheckoutInput) (*domain.Order, error) {
	ctx = mylogger.WithSession(ctx, c.sessionID)
	ctx, span := c.tracer.Start(ctx, "cart.Core.Checkout")
	defer span.End()

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	items := domain.CloneItems(c.state.Items)
	session := c.session
	c.mu.Unlock()

	draft := c.draftFor(session, items, input)
	if len(draft.LineItems) == 0 {
		c.metrics.Checkout("empty")
		return nil, domain.ErrEmptyCart
	}

	span.SetAttributes(
		attribute.Int("cart.item_count", draft.ItemCount()),
		attribute.Float64("cart.total", draft.Total),
	)

	order, err := c.orders.Submit(ctx, session, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		mylogger.Error(ctx, c.logger, "Order submission failed", zap.Error(err))
		c.metrics.Checkout("failed")

		return nil, err
	}
	c.metrics.Checkout("submitted")

	mylogger.Info(
		ctx,
		c.logger,
		"Order submitted",
		zap.String("order_id", order.ID),
		zap.Float64("total", draft.Total),
	)

	if err := c.Clear(ctx); err != nil {
		mylogger.Error(ctx, c.logger, "Failed to clear cart after checkout", zap.Error(err))
	}

	c.publishCheckedOut(context.WithoutCancel(ctx), order, draft)

	return order, nil
}

func (c *Core) publishCheckedOut(ctx context.Context, order *domain.Order, draft *domain.OrderDraft) {
	if c.events == nil {
		return
	}

	event := &generalDomain.CartCheckedOutEvent{
		OrderID:      order.ID,
		UserID:       draft.UserID,
		SessionID:    c.sessionID,
		Total:        draft.Total,
		ItemCount:    draft.ItemCount(),
		CheckedOutAt: c.now(),
	}

	if err := c.events.PublishCartCheckedOut(ctx, event); err != nil {
		mylogger.Warn(ctx, c.logger, "Failed to publish checkout event", zap.String("order_id", order.ID), zap.Error(err))
	}
}
