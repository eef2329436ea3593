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

type MemoryRepository interface {
	Find(ctx context.Context, userID string) (*models.ConversationMemory, error)
	Create(ctx context.Context, userID string) (*models.ConversationMemory, error)
	Save(ctx context.Context, m *models.ConversationMemory) error
}

type memoryRepo struct {
	col *mongo.Collection
}

func NewMemoryRepo(db *mongo.Database) MemoryRepository {
	return &memoryRepo{col: db.Collection("user_memories")}
}

func (r *memoryRepo) Find(ctx context.Context, userID string) (*models.ConversationMemory, error) {
	var m models.ConversationMemory
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &m, err
}

func (r *memoryRepo) Create(ctx context.Context, userID string) (*models.ConversationMemory, error) {
	now := time.Now().UTC()
	m := &models.ConversationMemory{
		UserID:    userID,
		Messages:  []models.MemoryMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memoryRepo) Save(ctx context.Context, m *models.ConversationMemory) error {
	m.UpdatedAt = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": m.UserID},
		bson.M{"$set": bson.M{
			"messages":    m.Messages,
			"personality": m.Personality,
			"updated_at":  m.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
