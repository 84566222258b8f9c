package cart

import (
	"context"
	"fmt"

	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.uber.org/zap"
)

func (c *Core) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrValidation, quantity)
	}
	if err := validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	line := product.LineItem(quantity)
	ctx = mylogger.WithSession(ctx, c.sessionID)

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	c.state.Items = addLine(c.state.Items, line)

	if c.state.Mode == domain.ModeRemote {
		c.enqueueLocked(ctx, &remoteOp{
			name:      "Add",
			productID: line.ProductID,
			call: func(ctx context.Context, s domain.Session) error {
				return c.remote.Add(ctx, s, line.ProductID, quantity)
			},
			replay: func(items []domain.CartLineItem) []domain.CartLineItem {
				return addLine(items, line)
			},
			onFailure: func(ctx context.Context, _ error) {
				c.addFallbackLocked(ctx, line)
			},
		})
	}

	c.commit(ctx)
	return nil
}

// AddByID resolves the product through the catalog before adding it.
func (c *Core) AddByID(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrValidation, quantity)
	}

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	return c.AddItem(ctx, *product, quantity)
}

// UpdateQuantity removes the line when quantity <= 0. Unknown products are ignored.
func (c *Core) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID)
	}

	ctx = mylogger.WithSession(ctx, c.sessionID)

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.IndexOf(productID) < 0 {
		c.mu.Unlock()
		mylogger.Debug(ctx, c.logger, "Update of absent line ignored", zap.String("product_id", productID))
		return nil
	}

	c.state.Items = setQuantity(c.state.Items, productID, quantity)

	if c.state.Mode == domain.ModeRemote {
		c.enqueueLocked(ctx, &remoteOp{
			name:      "Update",
			productID: productID,
			call: func(ctx context.Context, s domain.Session) error {
				return c.remote.Update(ctx, s, productID, quantity)
			},
			replay: func(items []domain.CartLineItem) []domain.CartLineItem {
				return setQuantity(items, productID, quantity)
			},
			onFailure: c.reconcileOnFailureLocked,
		})
	}

	c.commit(ctx)
	return nil
}

func (c *Core) RemoveItem(ctx context.Context, productID string) error {
	ctx = mylogger.WithSession(ctx, c.sessionID)

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.IndexOf(productID) < 0 {
		c.mu.Unlock()
		mylogger.Debug(ctx, c.logger, "Removal of absent line ignored", zap.String("product_id", productID))
		return nil
	}

	c.state.Items = removeLine(c.state.Items, productID)

	if c.state.Mode == domain.ModeRemote {
		c.enqueueLocked(ctx, &remoteOp{
			name:      "Remove",
			productID: productID,
			call: func(ctx context.Context, s domain.Session) error {
				return c.remote.Remove(ctx, s, productID)
			},
			replay: func(items []domain.CartLineItem) []domain.CartLineItem {
				return removeLine(items, productID)
			},
			onFailure: c.reconcileOnFailureLocked,
		})
	}

	c.commit(ctx)
	return nil
}

// Clear empties the cart. In remote mode the remote clear is queued behind earlier writes.
func (c *Core) Clear(ctx context.Context) error {
	ctx = mylogger.WithSession(ctx, c.sessionID)

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	c.state.Items = []domain.CartLineItem{}

	if c.state.Mode == domain.ModeRemote {
		c.enqueueLocked(ctx, &remoteOp{
			name: "Clear",
			call: func(ctx context.Context, s domain.Session) error {
				return c.remote.Clear(ctx, s)
			},
			replay: func([]domain.CartLineItem) []domain.CartLineItem {
				return []domain.CartLineItem{}
			},
			onFailure: c.reconcileOnFailureLocked,
		})
	}

	c.commit(ctx)
	return nil
}

// Refresh re-reads the authoritative store for the current mode.
func (c *Core) Refresh(ctx context.Context) error {
	ctx = mylogger.WithSession(ctx, c.sessionID)

	c.mu.Lock()
	if err := c.checkIdentityLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}

	switch c.state.Mode {
	case domain.ModeLocal:
		c.state.Items = c.loadLocalLocked(ctx)
	case domain.ModeRemote:
		if !c.fetchQueuedLocked() {
			c.enqueueLocked(ctx, &remoteOp{name: "Fetch", fetch: true})
		}
	}
	snap := c.changedLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// commit releases mu after a mutation, writes the new items to the local slot
// in local mode, then notifies subscribers.
func (c *Core) commit(ctx context.Context) {
	snap := c.changedLocked()
	if snap.Mode == domain.ModeLocal {
		c.pendingWrites++
		c.unsaved = snap.Items
	}
	c.mu.Unlock()

	if snap.Mode == domain.ModeLocal {
		c.persistLocal(ctx, snap)
	}
	c.publish(snap)
}

func (c *Core) addFallbackLocked(ctx context.Context, line domain.CartLineItem) {
	if c.policy != FallbackLocal {
		c.reconcileOnFailureLocked(ctx, nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	// Older local-mode writes still waiting for persistMu must not overwrite this one.
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	items := addLine(c.loadLocalLocked(ctx), line)

	if err := c.local.Save(ctx, c.slotKey, items); err != nil {
		mylogger.Error(ctx, c.logger, "Failed to write fallback line to local cart", zap.Error(err))
		return
	}
	c.savedVersion = max(c.savedVersion, c.version)
	c.unsaved = items
	c.metrics.Fallback(string(FallbackLocal))

	mylogger.Warn(
		ctx,
		c.logger,
		"Remote add failed, line kept in local cart",
		zap.String("product_id", line.ProductID),
		zap.Int("quantity", line.Quantity),
	)
}

// reconcileOnFailureLocked queues a fetch so the view converges on the server state.
func (c *Core) reconcileOnFailureLocked(ctx context.Context, _ error) {
	if c.policy != FallbackDegrade || c.fetchQueuedLocked() {
		return
	}

	mylogger.Warn(ctx, c.logger, "Remote cart out of sync, refetching")
	c.metrics.Fallback(string(FallbackDegrade))
	c.enqueueLocked(ctx, &remoteOp{name: "Fetch", fetch: true})
}

func addLine(items []domain.CartLineItem, line domain.CartLineItem) []domain.CartLineItem {
	out := domain.CloneItems(items)
	for i := range out {
		if out[i].ProductID == line.ProductID {
			out[i].Quantity += line.Quantity
			return out
		}
	}
	return append(out, line)
}

func setQuantity(items []domain.CartLineItem, productID string, quantity int) []domain.CartLineItem {
	out := domain.CloneItems(items)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = quantity
		}
	}
	return out
}

func removeLine(items []domain.CartLineItem, productID string) []domain.CartLineItem {
	out := make([]domain.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	return out
}
