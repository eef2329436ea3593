package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartpilot/cartpilot/internal/cache"
	"github.com/cartpilot/cartpilot/internal/models"
	mongorepo "github.com/cartpilot/cartpilot/internal/repositories/mongo"
	"github.com/cartpilot/cartpilot/internal/utils"
)

// CatalogSummaryTTL is how long the memoized catalog summary stays fresh.
const CatalogSummaryTTL = 5 * time.Minute

const catalogSummaryKey = "catalog:summary"

type CatalogService interface {
	// Summary returns a short textual catalog description for prompt
	// context, memoized with a TTL and refreshed lazily.
	Summary(ctx context.Context) (string, error)
	FirstProduct(ctx context.Context) (*models.Product, error)
}

type catalogService struct {
	products mongorepo.ProductRepository
	cache    cache.Cache
	ttl      time.Duration
}

func NewCatalogService(products mongorepo.ProductRepository, c cache.Cache) CatalogService {
	return &catalogService{
		products: products,
		cache:    c,
		ttl:      CatalogSummaryTTL,
	}
}

func (s *catalogService) Summary(ctx context.Context) (string, error) {
	const op = "CatalogService.Summary"

	var cached string
	if hit, err := s.cache.GetJSON(ctx, catalogSummaryKey, &cached); err == nil && hit {
		return cached, nil
	}

	products, err := s.products.List(ctx, 20)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to list products", err)
	}
	if len(products) == 0 {
		return "Catalog is empty", nil
	}

	parts := make([]string, 0, len(products))
	for _, p := range products {
		desc := fmt.Sprintf("%s ($%.2f", p.Name, p.Price)
		if p.Category != "" {
			desc += ", " + p.Category
		}
		desc += ")"
		parts = append(parts, desc)
	}
	summary := strings.Join(parts, "; ")

	// refresh is idempotent: a racing second write stores the same value
	_ = s.cache.SetJSON(ctx, catalogSummaryKey, summary, s.ttl)
	return summary, nil
}

func (s *catalogService) FirstProduct(ctx context.Context) (*models.Product, error) {
	const op = "CatalogService.FirstProduct"

	p, err := s.products.First(ctx)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "catalog is empty", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to fetch product", err)
	}
	return p, nil
}
