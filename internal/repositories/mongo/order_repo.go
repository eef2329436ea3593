package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartpilot/cartpilot/internal/models"
)

type OrderRepository interface {
	Insert(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Order, error)
}

type orderRepo struct {
	col *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) OrderRepository {
	return &orderRepo{col: db.Collection("orders")}
}

func (r *orderRepo) Insert(ctx context.Context, o *models.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, o)
	return err
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
