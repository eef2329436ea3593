package services

import (
	"context"
	"errors"

	"github.com/cartpilot/cartpilot/internal/models"
	mongorepo "github.com/cartpilot/cartpilot/internal/repositories/mongo"
	"github.com/cartpilot/cartpilot/internal/utils"
)

type MemoryService interface {
	// LoadOrCreate fetches the user's conversation memory, creating an
	// empty record on first interaction.
	LoadOrCreate(ctx context.Context, userID string) (*models.ConversationMemory, error)
	// EnsurePersonality backfills any missing summary field so prompt
	// construction never sees an empty one.
	EnsurePersonality(ctx context.Context, m *models.ConversationMemory) error
	Save(ctx context.Context, m *models.ConversationMemory) error
}

type memoryService struct {
	memories mongorepo.MemoryRepository
	catalog  CatalogService
}

func NewMemoryService(memories mongorepo.MemoryRepository, catalog CatalogService) MemoryService {
	return &memoryService{memories: memories, catalog: catalog}
}

func (s *memoryService) LoadOrCreate(ctx context.Context, userID string) (*models.ConversationMemory, error) {
	const op = "MemoryService.LoadOrCreate"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	m, err := s.memories.Find(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		m, err = s.memories.Create(ctx, userID)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load memory", err)
	}
	return m, nil
}

func (s *memoryService) EnsurePersonality(ctx context.Context, m *models.ConversationMemory) error {
	const op = "MemoryService.EnsurePersonality"

	p := &m.Personality
	if p.Name == "" {
		p.Name = "Guest"
	}
	if p.FavoriteCategories == nil {
		p.FavoriteCategories = []string{}
	}
	if p.CartSummary == "" {
		p.CartSummary = "Cart empty"
	}
	if p.CatalogSummary == "" {
		summary, err := s.catalog.Summary(ctx)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to backfill catalog summary", err)
		}
		p.CatalogSummary = summary
	}
	return nil
}

func (s *memoryService) Save(ctx context.Context, m *models.ConversationMemory) error {
	const op = "MemoryService.Save"

	if err := s.memories.Save(ctx, m); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save memory", err)
	}
	return nil
}
