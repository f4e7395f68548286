package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/creatilink/marketplace-backend/internal/models"
)

// AuditRepository хранит журнал административных действий.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create сохраняет запись аудита.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (admin_id, action, severity, description, target_user_id, project_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.AdminID, entry.Action, entry.Severity, entry.Description, entry.TargetUserID, entry.ProjectID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit repository: create %w", err)
	}
	return nil
}

// List возвращает журнал аудита от новых к старым.
func (r *AuditRepository) List(ctx context.Context, severity string, limit, offset int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	query := `
		SELECT * FROM audit_logs
		WHERE ($1 = '' OR severity = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &entries, query, severity, limit, offset); err != nil {
		return nil, fmt.Errorf("audit repository: list %w", err)
	}
	return entries, nil
}
