package cart

import (
	"context"

	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// remoteOp is one outbound call against the remote cart.
type remoteOp struct {
	name      string
	productID string
	epoch     uint64
	session   domain.Session
	ctx       context.Context

	fetch bool
	call  func(ctx context.Context, session domain.Session) error
	// replay re-applies the optimistic mutation on top of a fresh fetch result.
	replay func(items []domain.CartLineItem) []domain.CartLineItem
	// onFailure runs under mu when the call failed within the current epoch.
	onFailure func(ctx context.Context, err error)
}

func (c *Core) enqueueLocked(ctx context.Context, op *remoteOp) {
	op.epoch = c.epoch
	op.session = c.session
	op.ctx = context.WithoutCancel(ctx)

	c.queue = append(c.queue, op)

	if !c.draining {
		c.draining = true
		c.idle = make(chan struct{})
		go c.drain()
	}
}

// fetchQueuedLocked reports whether a fetch for the current epoch is still pending.
func (c *Core) fetchQueuedLocked() bool {
	for _, op := range c.queue {
		if op.fetch && op.epoch == c.epoch {
			return true
		}
	}
	return false
}

func (c *Core) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			close(c.idle)
			snap := c.changedLocked()
			c.mu.Unlock()

			c.publish(snap)
			return
		}

		op := c.queue[0]
		session := op.session
		if op.epoch == c.epoch {
			session = c.session
		}
		c.mu.Unlock()

		items, err := c.execute(op, session)

		c.mu.Lock()
		c.queue = c.queue[1:]
		c.settleLocked(op, items, err)
		snap := c.changedLocked()
		c.mu.Unlock()

		c.publish(snap)
	}
}

func (c *Core) execute(op *remoteOp, session domain.Session) ([]domain.CartLineItem, error) {
	ctx, cancel := context.WithTimeout(op.ctx, c.remoteTimeout)
	defer cancel()

	ctx = mylogger.WithSession(ctx, c.sessionID)
	ctx, span := c.tracer.Start(ctx, "cart.Core.Remote"+op.name)
	defer span.End()

	span.SetAttributes(attribute.String("cart.product_id", op.productID))

	var (
		items []domain.CartLineItem
		err   error
	)
	if op.fetch {
		items, err = c.remote.Fetch(ctx, session)
	} else {
		err = op.call(ctx, session)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return items, err
}

func (c *Core) settleLocked(op *remoteOp, items []domain.CartLineItem, err error) {
	ctx := mylogger.WithSession(op.ctx, c.sessionID)

	if op.epoch != c.epoch {
		c.metrics.RemoteOp(op.name, "stale")
		mylogger.Debug(ctx, c.logger, "Dropping remote result from previous session", zap.String("op", op.name))
		return
	}

	if err != nil {
		c.metrics.RemoteOp(op.name, "error")
	} else {
		c.metrics.RemoteOp(op.name, "ok")
	}

	if err != nil {
		c.state.LastError = domain.KindOf(err)
		mylogger.Error(
			ctx,
			c.logger,
			"Remote cart call failed",
			zap.String("op", op.name),
			zap.String("product_id", op.productID),
			zap.Error(err),
		)

		if op.onFailure != nil {
			op.onFailure(ctx, err)
		}
		return
	}

	if op.fetch {
		// Mutations queued behind the fetch are not on the server yet.
		for _, pending := range c.queue {
			if pending.epoch == c.epoch && pending.replay != nil {
				items = pending.replay(items)
			}
		}
		c.state.Items = items
	}

	c.state.LastError = domain.ErrorKindNone
}

// Wait blocks until the remote queue is empty or ctx is done.
func (c *Core) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
			c.mu.Lock()
			done := !c.draining
			c.mu.Unlock()
			if done {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
