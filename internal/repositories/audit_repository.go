package repositories

import (
	"context"

	"granito/internal/models"

	"gorm.io/gorm"
)

// AuditRepository is the append-only store of sync audit records. It exposes
// no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, record *models.SyncAuditRecord) error
	List(ctx context.Context, filter AuditFilter) ([]models.SyncAuditRecord, int64, error)
}

type AuditFilter struct {
	Kind    models.EntityKind
	Outcome models.AuditOutcome
	Action  models.AuditAction
	BatchID string
	Page    int
	Limit   int
}

type auditRepo struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepo{DB: db}
}

func (r *auditRepo) Append(ctx context.Context, record *models.SyncAuditRecord) error {
	return r.DB.WithContext(ctx).Create(record).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]models.SyncAuditRecord, int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.SyncAuditRecord{})
	if filter.Kind != "" {
		query = query.Where("entity_kind = ?", filter.Kind)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.BatchID != "" {
		query = query.Where("batch_id = ?", filter.BatchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := ListFilter{Page: filter.Page, Limit: filter.Limit}.Normalize()
	var records []models.SyncAuditRecord
	err := query.Order("created_at DESC").
		Offset((page.Page - 1) * page.Limit).
		Limit(page.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
