package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/repository/common"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyApplied      = errors.New("application already exists")
)

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create сохраняет отклик исполнителя. Повторный отклик на тот же проект
// отсекается уникальным индексом (project_id, creator_id).
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (project_id, creator_id, quote, message, delivery_days, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, a.ProjectID, a.CreatorID, a.Quote, a.Message, a.DeliveryDays).
		Scan(&a.ID, &a.Status, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyApplied
		}
		return fmt.Errorf("application repository: create %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return common.GetByID[models.Application](ctx, r.db, "applications", id, ErrApplicationNotFound)
}

// ListByProjectID возвращает отклики на проект.
func (r *ApplicationRepository) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.SelectContext(ctx, &applications,
		`SELECT * FROM applications WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("application repository: list by project %w", err)
	}
	return applications, nil
}

// GetAcceptedByProjectID возвращает принятый отклик проекта: его цена
// становится суммой транзакции при сдаче работы.
func (r *ApplicationRepository) GetAcceptedByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Application, error) {
	var application models.Application
	err := r.db.GetContext(ctx, &application, `
		SELECT * FROM applications
		WHERE project_id = $1 AND status = 'accepted'
		ORDER BY created_at DESC LIMIT 1
	`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: get accepted %w", err)
	}
	return &application, nil
}
