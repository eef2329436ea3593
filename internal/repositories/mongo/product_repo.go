package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/utils"
)

type ProductRepository interface {
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	// First returns the oldest catalog product, used as the add-to-cart
	// fallback when the model names no product and the cart is empty.
	First(ctx context.Context) (*models.Product, error)
	List(ctx context.Context, limit int64) ([]models.Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) error
}

type productRepo struct {
	col *mongo.Collection
}

func NewProductRepo(db *mongo.Database) ProductRepository {
	return &productRepo{col: db.Collection("products")}
}

func (r *productRepo) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"product_id": productID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) First(ctx context.Context) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) List(ctx context.Context, limit int64) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, productID string, qty int) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"product_id": productID},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	return err
}
