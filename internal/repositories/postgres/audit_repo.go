package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartpilot/cartpilot/internal/models"
)

type AuditRepo interface {
	Insert(ctx context.Context, rec *models.AuditRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepo {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, rec *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *auditRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
