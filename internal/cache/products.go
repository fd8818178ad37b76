package cache

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
	"qayyim-backend/internal/store"
)

const (
	productPrefix = "products:"
	ProductTTL    = time.Minute
)

// Products wraps a ProductStore with cache-aside reads. Every write through it
// drops all cached product keys. Cache failures are logged and fall through to
// the wrapped store.
type Products struct {
	store.ProductStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewProducts(inner store.ProductStore, c Cache, ttl time.Duration, logger *slog.Logger) *Products {
	if logger == nil {
		logger = slog.Default()
	}
	return &Products{ProductStore: inner, cache: c, ttl: ttl, logger: logger}
}

func listKey(keyword string) string { return productPrefix + "list:" + keyword }

func idKey(id primitive.ObjectID) string { return productPrefix + "id:" + id.Hex() }

func (p *Products) List(ctx context.Context, keyword string) ([]models.Product, error) {
	key := listKey(keyword)
	var cached []models.Product
	if ok, err := p.cache.Get(ctx, key, &cached); err != nil {
		p.logger.Warn("product cache read failed", "key", key, "err", err)
	} else if ok {
		return cached, nil
	}

	products, err := p.ProductStore.List(ctx, keyword)
	if err != nil {
		return nil, err
	}
	p.put(ctx, key, products)
	return products, nil
}

func (p *Products) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	key := idKey(id)
	var cached models.Product
	if ok, err := p.cache.Get(ctx, key, &cached); err != nil {
		p.logger.Warn("product cache read failed", "key", key, "err", err)
	} else if ok {
		return &cached, nil
	}

	product, err := p.ProductStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.put(ctx, key, product)
	return product, nil
}

func (p *Products) Create(ctx context.Context, product *models.Product) error {
	defer p.invalidate(ctx)
	return p.ProductStore.Create(ctx, product)
}

func (p *Products) Update(ctx context.Context, product *models.Product) error {
	defer p.invalidate(ctx)
	return p.ProductStore.Update(ctx, product)
}

func (p *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer p.invalidate(ctx)
	return p.ProductStore.Delete(ctx, id)
}

func (p *Products) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	defer p.invalidate(ctx)
	return p.ProductStore.AdjustStock(ctx, id, delta)
}

func (p *Products) put(ctx context.Context, key string, v any) {
	if err := p.cache.Set(ctx, key, v, p.ttl); err != nil {
		p.logger.Warn("product cache write failed", "key", key, "err", err)
	}
}

func (p *Products) invalidate(ctx context.Context) {
	if err := p.cache.DeletePrefix(ctx, productPrefix); err != nil {
		p.logger.Warn("product cache invalidation failed", "err", err)
	}
}
