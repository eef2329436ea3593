package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartpilot/cartpilot/internal/models"
	"github.com/cartpilot/cartpilot/internal/utils"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
}

type cartRepo struct {
	col *mongo.Collection
}

func NewCartRepo(db *mongo.Database) CartRepository {
	return &cartRepo{col: db.Collection("carts")}
}

func (r *cartRepo) FindByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &c, err
}

// Save upserts the cart keyed by owner. Concurrent writers race as
// last-write-wins; the cart adapter is the only writer in this service.
func (r *cartRepo) Save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": c.UserID},
		bson.M{"$set": bson.M{
			"items":          c.Items,
			"promotion_code": c.PromotionCode,
			"discount":       c.Discount,
			"updated_at":     c.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
