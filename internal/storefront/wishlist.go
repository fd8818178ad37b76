package storefront

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

type Wishlist struct {
	sh *shared
}

func (w *Wishlist) Items() []models.Product {
	w.sh.mu.Lock()
	defer w.sh.mu.Unlock()
	return append([]models.Product(nil), w.sh.state.Wishlist...)
}

func (w *Wishlist) Contains(productID primitive.ObjectID) bool {
	w.sh.mu.Lock()
	defer w.sh.mu.Unlock()
	return indexOfProduct(w.sh.state.Wishlist, productID) >= 0
}

// Toggle flips membership of product locally, then on the server. If the
// server call fails the local list is put back and the error returned.
// It reports whether the product is now in the wishlist.
func (w *Wishlist) Toggle(ctx context.Context, product models.Product) (bool, error) {
	w.sh.mu.Lock()
	token := w.sh.tokenLocked()
	if token == "" {
		w.sh.mu.Unlock()
		return false, ErrLoginRequired
	}
	snapshot := append([]models.Product(nil), w.sh.state.Wishlist...)
	added := true
	if i := indexOfProduct(snapshot, product.ID); i >= 0 {
		added = false
		next := append([]models.Product(nil), snapshot[:i]...)
		w.sh.state.Wishlist = append(next, snapshot[i+1:]...)
	} else {
		w.sh.state.Wishlist = append(append([]models.Product(nil), snapshot...), product)
	}
	w.sh.persistLocked()
	w.sh.mu.Unlock()

	if err := w.sh.api.toggleWishlist(ctx, token, product.ID); err != nil {
		w.sh.mu.Lock()
		w.sh.state.Wishlist = snapshot
		w.sh.persistLocked()
		w.sh.mu.Unlock()
		w.sh.logger.Warn("wishlist toggle failed, rolled back", "productId", product.ID.Hex(), "err", err)
		return !added, errors.Wrap(err, "toggle wishlist")
	}
	return added, nil
}

func indexOfProduct(products []models.Product, id primitive.ObjectID) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
