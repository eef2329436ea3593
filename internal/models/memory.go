package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type MemoryMessage struct {
	Role      string    `bson:"role" json:"role"` // user | assistant
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Personality is the cached prompt context for a user. All fields are
// backfilled before prompt construction, never left empty.
type Personality struct {
	Name               string   `bson:"name" json:"name"`
	FavoriteCategories []string `bson:"favorite_categories" json:"favorite_categories"`
	CartSummary        string   `bson:"cart_summary" json:"cart_summary"`
	CatalogSummary     string   `bson:"catalog_summary" json:"catalog_summary"`
}

// ConversationMemory is the per-user conversation record. Messages grow
// without eviction; prompts only embed the most recent turns.
type ConversationMemory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Messages    []MemoryMessage    `bson:"messages" json:"messages"`
	Personality Personality        `bson:"personality" json:"personality"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Append adds a turn and stamps it.
func (m *ConversationMemory) Append(role, content string) {
	m.Messages = append(m.Messages, MemoryMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// LastN returns up to n most recent messages in chronological order.
func (m *ConversationMemory) LastN(n int) []MemoryMessage {
	if n <= 0 || len(m.Messages) <= n {
		return m.Messages
	}
	return m.Messages[len(m.Messages)-n:]
}
