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

type PromotionRepository interface {
	// FindActive returns the most recently created active promotion.
	FindActive(ctx context.Context) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
}

type promotionRepo struct {
	col *mongo.Collection
}

func NewPromotionRepo(db *mongo.Database) PromotionRepository {
	return &promotionRepo{col: db.Collection("promotions")}
}

func (r *promotionRepo) FindActive(ctx context.Context) (*models.Promotion, error) {
	var p models.Promotion
	err := r.col.FindOne(ctx,
		bson.M{"active": true},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Valid(time.Now().UTC()) {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (r *promotionRepo) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}
