package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/mocks"
	"qayyim-backend/internal/models"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	args := m.Called(ctx, cursor, match, count)
	return args.Get(0).(*redis.ScanCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestRedisCacheGet(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Get", ctx, "products:list:").Return(redis.NewStringResult(`[{"name":"Shirt","price":100}]`, nil))

		var got []models.Product
		ok, err := NewRedisCache(client).Get(ctx, "products:list:", &got)

		require.NoError(t, err)
		assert.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, "Shirt", got[0].Name)
	})

	t.Run("miss", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Get", ctx, "k").Return(redis.NewStringResult("", redis.Nil))

		var got []models.Product
		ok, err := NewRedisCache(client).Get(ctx, "k", &got)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("error", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("Get", ctx, "k").Return(redis.NewStringResult("", errors.New("connection refused")))

		var got []models.Product
		ok, err := NewRedisCache(client).Get(ctx, "k", &got)

		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestRedisCacheSet(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedisClient)
	client.On("Set", ctx, "k", []byte(`{"a":1}`), time.Minute).Return(redis.NewStatusResult("OK", nil))

	err := NewRedisCache(client).Set(ctx, "k", map[string]int{"a": 1}, time.Minute)

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRedisCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedisClient)
	client.On("Scan", ctx, uint64(0), "products:*", int64(100)).Return(redis.NewScanCmdResult([]string{"products:a", "products:b"}, 7, nil)).Once()
	client.On("Scan", ctx, uint64(7), "products:*", int64(100)).Return(redis.NewScanCmdResult(nil, 0, nil)).Once()
	client.On("Del", ctx, []string{"products:a", "products:b"}).Return(redis.NewIntResult(2, nil)).Once()

	require.NoError(t, NewRedisCache(client).DeletePrefix(ctx, "products:"))
	client.AssertExpectations(t)
}

func TestProductsCacheAside(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("miss loads from store and fills cache", func(t *testing.T) {
		inner := new(mocks.MockProductStore)
		c := new(mocks.MockCache)
		product := &models.Product{ID: id, Name: "Shirt"}

		c.On("Get", ctx, "products:id:"+id.Hex(), mock.Anything).Return(false, nil)
		inner.On("FindByID", ctx, id).Return(product, nil).Once()
		c.On("Set", ctx, "products:id:"+id.Hex(), product, ProductTTL).Return(nil)

		got, err := NewProducts(inner, c, ProductTTL, nil).FindByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, product, got)
		inner.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("hit skips store", func(t *testing.T) {
		inner := new(mocks.MockProductStore)
		c := new(mocks.MockCache)

		c.On("Get", ctx, "products:list:shirt", mock.Anything).Run(func(args mock.Arguments) {
			dst := args.Get(2).(*[]models.Product)
			*dst = []models.Product{{Name: "Cached Shirt"}}
		}).Return(true, nil)

		got, err := NewProducts(inner, c, ProductTTL, nil).List(ctx, "shirt")

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Cached Shirt", got[0].Name)
		inner.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("cache failure falls through", func(t *testing.T) {
		inner := new(mocks.MockProductStore)
		c := new(mocks.MockCache)

		c.On("Get", ctx, "products:list:", mock.Anything).Return(false, errors.New("redis down"))
		c.On("Set", ctx, "products:list:", mock.Anything, ProductTTL).Return(errors.New("redis down"))
		inner.On("List", ctx, "").Return([]models.Product{{Name: "Shirt"}}, nil)

		got, err := NewProducts(inner, c, ProductTTL, nil).List(ctx, "")

		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("writes invalidate", func(t *testing.T) {
		inner := new(mocks.MockProductStore)
		c := new(mocks.MockCache)

		inner.On("AdjustStock", ctx, id, -2).Return(nil)
		inner.On("Delete", ctx, id).Return(nil)
		c.On("DeletePrefix", ctx, "products:").Return(nil).Twice()

		p := NewProducts(inner, c, ProductTTL, nil)
		require.NoError(t, p.AdjustStock(ctx, id, -2))
		require.NoError(t, p.Delete(ctx, id))

		c.AssertExpectations(t)
	})

	t.Run("noop cache always misses", func(t *testing.T) {
		inner := new(mocks.MockProductStore)
		inner.On("List", ctx, "").Return([]models.Product{}, nil).Twice()

		p := NewProducts(inner, Noop{}, ProductTTL, nil)
		_, err := p.List(ctx, "")
		require.NoError(t, err)
		_, err = p.List(ctx, "")
		require.NoError(t, err)

		inner.AssertExpectations(t)
	})
}
