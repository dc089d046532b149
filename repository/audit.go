package repository

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/groomly/models"
)

type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, entityType string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	q := r.db.conn(ctx).Order("created_at DESC").Limit(limit)
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
