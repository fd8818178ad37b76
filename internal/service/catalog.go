package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/store"
)

const msgProductNotFound = "Product not found"

// ProductInput carries the editable product fields. Every field overwrites the
// stored value.
type ProductInput struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Description  string   `json:"description"`
	Image        []string `json:"image"`
	Category     string   `json:"category"`
	ProductType  string   `json:"productType"`
	Gender       string   `json:"gender"`
	CountInStock int      `json:"countInStock"`
	Sizes        []string `json:"sizes"`
	Colors       []string `json:"colors"`
	IsFeatured   bool     `json:"isFeatured"`
}

type CatalogService struct {
	products store.ProductStore
	logger   *slog.Logger
}

func NewCatalogService(products store.ProductStore, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{products: products, logger: logger}
}

// List matches keyword as a case-insensitive substring of the product name.
func (s *CatalogService) List(ctx context.Context, keyword string) ([]models.Product, error) {
	products, err := s.products.List(ctx, strings.TrimSpace(keyword))
	if err != nil {
		return nil, apperr.Internal(err, "Failed to list products")
	}
	return products, nil
}

func (s *CatalogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load product")
	}
	return product, nil
}

// CreateSample inserts a placeholder product for the admin to edit.
func (s *CatalogService) CreateSample(ctx context.Context, owner primitive.ObjectID) (*models.Product, error) {
	product := &models.Product{
		User:        owner,
		Name:        "Sample name",
		Price:       0,
		Image:       []string{"/images/sample.jpg"},
		Description: "Sample description",
		Category:    "Clothing",
		ProductType: "Physical",
		Gender:      models.GenderUnisex,
		Sizes:       []string{"M"},
		Colors:      []string{"Black"},
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperr.Internal(err, "Failed to create product")
	}
	s.logger.Info("product created", "productId", product.ID.Hex())
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Price < 0 {
		return nil, apperr.Validation("Price cannot be negative")
	}
	if in.Gender != "" && !validGender(in.Gender) {
		return nil, apperr.Validation("Invalid gender %q", in.Gender)
	}

	product.Name = in.Name
	product.Price = in.Price
	product.Description = in.Description
	product.Image = in.Image
	product.Category = in.Category
	product.ProductType = in.ProductType
	product.Gender = in.Gender
	product.CountInStock = in.CountInStock
	product.Sizes = in.Sizes
	product.Colors = in.Colors
	product.IsFeatured = in.IsFeatured

	err = s.products.Update(ctx, product)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to update product")
	}
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return apperr.Internal(err, "Failed to delete product")
	}
	s.logger.Info("product deleted", "productId", id.Hex())
	return nil
}

// CreateReview is not supported yet. It still reports a missing product first.
func (s *CatalogService) CreateReview(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return apperr.Validation("Review feature pending update")
}

func validGender(g string) bool {
	switch g {
	case models.GenderMen, models.GenderWomen, models.GenderUnisex, models.GenderKids:
		return true
	}
	return false
}
