// Package store declares the persistence contracts the services depend on.
// The MongoDB implementation lives in store/mongostore.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProfileUpdate holds the profile fields to overwrite. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update ProfileUpdate) error
	SetCart(ctx context.Context, id primitive.ObjectID, cart []models.CartItem) error
	SetWishlist(ctx context.Context, id primitive.ObjectID, wishlist []primitive.ObjectID) error
	SetAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}

type ProductStore interface {
	List(ctx context.Context, keyword string) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdjustStock adds delta to countInStock. It returns ErrNotFound when no
	// product matched.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
	Count(ctx context.Context) (int64, error)
}

// DailyTotal is paid-order revenue for one UTC day, keyed YYYY-MM-DD.
type DailyTotal struct {
	Date  string  `bson:"_id"`
	Total float64 `bson:"total"`
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// UpdateStatus persists the payment and delivery fields of order.
	UpdateStatus(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Recent(ctx context.Context, limit int64) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	CountPaid(ctx context.Context) (int64, error)
	PaidRevenue(ctx context.Context) (float64, error)
	DailyRevenue(ctx context.Context, since time.Time) ([]DailyTotal, error)
}
