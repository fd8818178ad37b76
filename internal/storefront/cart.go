package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

var ErrInvalidCartItem = errors.New("storefront: cart item needs a product and a positive quantity")

// Cart is the local cart. While signed in, every change is pushed to the
// account after a debounce window; the whole cart overwrites the server copy.
type Cart struct {
	sh    *shared
	delay time.Duration

	// flushMu keeps pushes in order.
	flushMu sync.Mutex

	// Guarded by sh.mu.
	timer   *time.Timer
	pending bool
	synced  []models.CartItem
	version uint64
	epoch   uint64
}

func (c *Cart) Items() []models.CartItem {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return cloneCart(c.sh.state.Cart)
}

// Count is the total quantity across lines.
func (c *Cart) Count() int {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	n := 0
	for _, it := range c.sh.state.Cart {
		n += it.Qty
	}
	return n
}

// Pending reports whether a change is waiting to be pushed.
func (c *Cart) Pending() bool {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return c.pending
}

// Add puts item in the cart. A line with the same product, size and color is
// replaced, so its quantity becomes item.Qty.
func (c *Cart) Add(item models.CartItem) error {
	if item.Product.IsZero() || item.Qty < 1 {
		return ErrInvalidCartItem
	}
	return c.mutate(true, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].SameVariant(item) {
				items[i] = item
				return items
			}
		}
		return append(items, item)
	})
}

// Remove drops every line for productID.
func (c *Cart) Remove(productID primitive.ObjectID) {
	_ = c.mutate(false, func(items []models.CartItem) []models.CartItem {
		kept := items[:0]
		for _, it := range items {
			if it.Product != productID {
				kept = append(kept, it)
			}
		}
		return kept
	})
}

func (c *Cart) Clear() {
	_ = c.mutate(false, func([]models.CartItem) []models.CartItem {
		return []models.CartItem{}
	})
}

func (c *Cart) mutate(requireAuth bool, fn func([]models.CartItem) []models.CartItem) error {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()

	signedIn := c.sh.tokenLocked() != ""
	if requireAuth && !signedIn {
		return ErrLoginRequired
	}
	if signedIn && !c.pending {
		c.synced = cloneCart(c.sh.state.Cart)
		c.pending = true
		c.sh.state.CartDirty = true
	}
	c.sh.state.Cart = fn(cloneCart(c.sh.state.Cart))
	c.version++
	c.sh.persistLocked()
	if signedIn {
		c.scheduleLocked()
	}
	return nil
}

// scheduleLocked restarts the debounce timer.
func (c *Cart) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		_ = c.Flush(ctx)
	})
}

// resetLocked forgets pending work without pushing it.
func (c *Cart) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false
	c.synced = nil
	c.sh.state.CartDirty = false
	c.version++
	c.epoch++
}

// restoreLocked schedules a push for a cart change that was persisted but
// not synced before the last run ended. The server copy is unknown, so a
// failed push keeps the restored cart.
func (c *Cart) restoreLocked() {
	if !c.sh.state.CartDirty {
		return
	}
	if c.sh.tokenLocked() == "" {
		c.sh.state.CartDirty = false
		return
	}
	c.pending = true
	c.synced = cloneCart(c.sh.state.Cart)
	c.scheduleLocked()
}

// Flush pushes a pending change now. On failure the cart is rolled back to
// what the server last had, the error hook is called and the error returned.
func (c *Cart) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.sh.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	token := c.sh.tokenLocked()
	if !c.pending || token == "" {
		c.sh.mu.Unlock()
		return nil
	}
	items := cloneCart(c.sh.state.Cart)
	if items == nil {
		items = []models.CartItem{}
	}
	version, epoch := c.version, c.epoch
	c.sh.mu.Unlock()

	err := c.sh.api.putCart(ctx, token, items)

	c.sh.mu.Lock()
	if epoch != c.epoch {
		c.sh.mu.Unlock()
		return err
	}
	if err == nil {
		if c.version == version {
			c.pending = false
			c.synced = nil
			c.sh.state.CartDirty = false
			c.sh.persistLocked()
		} else {
			c.synced = items
		}
		c.sh.mu.Unlock()
		return nil
	}

	c.sh.logger.Warn("cart sync failed, rolling back", "err", err, "restoredItems", len(c.synced))
	c.sh.state.Cart = c.synced
	c.pending = false
	c.synced = nil
	c.sh.state.CartDirty = false
	c.version++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.sh.persistLocked()
	c.sh.mu.Unlock()

	err = errors.Wrap(err, "sync cart")
	c.sh.report(err)
	return err
}
