// Package models holds the MongoDB documents shared by the API and the storefront client.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender values accepted on a product.
const (
	GenderMen    = "Men"
	GenderWomen  = "Women"
	GenderUnisex = "Unisex"
	GenderKids   = "Kids"
)

// Order status values written by the API. The field itself is free text.
const (
	OrderStatusPending   = "Pending"
	OrderStatusDelivered = "Delivered"
)

const PaymentCashOnDelivery = "CashOnDelivery"

type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name       string               `bson:"name" json:"name"`
	Email      string               `bson:"email" json:"email"`
	Password   string               `bson:"password" json:"-"`
	Phone      string               `bson:"phone,omitempty" json:"phone,omitempty"`
	IsAdmin    bool                 `bson:"isAdmin" json:"isAdmin"`
	IsVerified bool                 `bson:"isVerified" json:"isVerified"`
	Wishlist   []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	Cart       []CartItem           `bson:"cart" json:"cart"`
	Addresses  []Address            `bson:"addresses" json:"addresses"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CartItem is a line item in a user's cart. Name, image, price and stock are
// denormalized from the product when the item was added.
type CartItem struct {
	Product      primitive.ObjectID `bson:"product" json:"product"`
	Name         string             `bson:"name" json:"name"`
	Image        string             `bson:"image" json:"image"`
	Price        float64            `bson:"price" json:"price"`
	Qty          int                `bson:"qty" json:"qty"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	Size         string             `bson:"size,omitempty" json:"size,omitempty"`
	Color        string             `bson:"color,omitempty" json:"color,omitempty"`
}

// SameVariant reports whether two lines refer to the same product, size and color.
func (c CartItem) SameVariant(o CartItem) bool {
	return c.Product == o.Product && c.Size == o.Size && c.Color == o.Color
}

type Address struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Address    string             `bson:"address" json:"address"`
	City       string             `bson:"city" json:"city"`
	PostalCode string             `bson:"postalCode" json:"postalCode"`
	Country    string             `bson:"country" json:"country"`
	IsDefault  bool               `bson:"isDefault" json:"isDefault"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User         primitive.ObjectID `bson:"user" json:"user"`
	Name         string             `bson:"name" json:"name"`
	Image        []string           `bson:"image" json:"image"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	ProductType  string             `bson:"productType" json:"productType"`
	Gender       string             `bson:"gender" json:"gender"`
	Sizes        []string           `bson:"sizes" json:"sizes"`
	Colors       []string           `bson:"colors" json:"colors"`
	Price        float64            `bson:"price" json:"price"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	IsFeatured   bool               `bson:"isFeatured" json:"isFeatured"`
	Rating       float64            `bson:"rating" json:"rating"`
	NumReviews   int                `bson:"numReviews" json:"numReviews"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FirstImage returns the cover image or "" when the product has none.
func (p Product) FirstImage() string {
	if len(p.Image) == 0 {
		return ""
	}
	return p.Image[0]
}

type OrderItem struct {
	Name    string             `bson:"name" json:"name"`
	Qty     int                `bson:"qty" json:"qty"`
	Image   string             `bson:"image" json:"image"`
	Price   float64            `bson:"price" json:"price"`
	Product primitive.ObjectID `bson:"product" json:"product"`
	Size    string             `bson:"size,omitempty" json:"size,omitempty"`
	Color   string             `bson:"color,omitempty" json:"color,omitempty"`
}

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult is stored exactly as the caller sent it; nothing verifies it.
type PaymentResult struct {
	ID           string `bson:"id" json:"id"`
	Status       string `bson:"status" json:"status"`
	UpdateTime   string `bson:"update_time" json:"update_time"`
	EmailAddress string `bson:"email_address" json:"email_address"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	OrderStatus     string             `bson:"orderStatus" json:"orderStatus"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the slice of a user attached to order responses.
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

// OrderWithUser is an order with its owner populated.
type OrderWithUser struct {
	Order
	User *UserSummary `json:"user"`
}

// DailyRevenue is one point of the dashboard revenue chart.
type DailyRevenue struct {
	Name  string  `json:"name"`
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type DashboardStats struct {
	TotalRevenue    float64        `json:"totalRevenue"`
	TotalOrders     int64          `json:"totalOrders"`
	PaidOrdersCount int64          `json:"paidOrdersCount"`
	TotalUsers      int64          `json:"totalUsers"`
	TotalProducts   int64          `json:"totalProducts"`
	RecentOrders    []Order        `json:"recentOrders"`
	ChartData       []DailyRevenue `json:"chartData"`
}
