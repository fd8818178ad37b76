package mongostore

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"qayyim-backend/internal/models"
	"qayyim-backend/internal/store"
)

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

var _ store.ProductStore = (*ProductRepository)(nil)

// keywordFilter matches keyword as a literal, case-insensitive substring of name.
func keywordFilter(keyword string) bson.M {
	if keyword == "" {
		return bson.M{}
	}
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}}
}

func (r *ProductRepository) List(ctx context.Context, keyword string) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, keywordFilter(keyword))
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products by id")
	}
	if err := cur.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ts := now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = ts, ts
	_, err := r.coll.InsertOne(ctx, product)
	return errors.Wrap(err, "insert product")
}

// Update overwrites the editable fields. Reviews, rating and creator are kept.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": bson.M{
		"name":         product.Name,
		"price":        product.Price,
		"description":  product.Description,
		"image":        product.Image,
		"category":     product.Category,
		"productType":  product.ProductType,
		"gender":       product.Gender,
		"sizes":        product.Sizes,
		"colors":       product.Colors,
		"countInStock": product.CountInStock,
		"isFeatured":   product.IsFeatured,
		"updatedAt":    product.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"countInStock": delta},
		"$set": bson.M{"updatedAt": now()},
	})
	if err != nil {
		return errors.Wrap(err, "adjust stock")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count products")
}
