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
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectStateConflict = errors.New("project state conflict")
)

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create сохраняет новый проект.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	var created models.Project
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO projects (posted_by_id, title, description, category, budget, status, deadline)
		VALUES ($1, $2, $3, $4, $5, 'open', $6)
		RETURNING *
	`, project.PostedByID, project.Title, project.Description, project.Category, project.Budget, project.Deadline)
	if err != nil {
		return nil, fmt.Errorf("project repository: create %w", err)
	}
	return &created, nil
}

// GetByID возвращает проект по ID, включая мягко удалённые.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, ErrProjectNotFound)
}

// List возвращает неудалённые проекты с фильтрами по статусу и категории.
func (r *ProjectRepository) List(ctx context.Context, status, category string, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	query := `
		SELECT * FROM projects
		WHERE deleted_at IS NULL
		AND ($1 = '' OR status = $1)
		AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`
	err := r.db.SelectContext(ctx, &projects, query, status, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project repository: list %w", err)
	}
	return projects, nil
}

// ListByUser возвращает проекты пользователя как заказчика или исполнителя.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	query := `
		SELECT * FROM projects
		WHERE (posted_by_id = $1 OR assigned_to_id = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &projects, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project repository: list by user %w", err)
	}
	return projects, nil
}

// SubmitDelivery фиксирует сдачу работы: ссылка на результат, статус
// delivered и новая ожидающая транзакция на указанную сумму. Всё в одной
// транзакции базы. Статус delivered допустим на входе только для
// передоставки после возврата или срыва оплаты: пока по проекту висит
// ожидающая транзакция, повторная сдача отклоняется — иначе исполнитель
// мог бы подменить ссылку после того, как заказчик заявил оплату.
func (r *ProjectRepository) SubmitDelivery(ctx context.Context, projectID uuid.UUID, link string, note *string, amount float64) (*models.Project, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	project, err := lockProject(ctx, tx, projectID)
	if err != nil {
		return nil, nil, err
	}

	if project.IsDeleted() || project.AssignedToID == nil {
		return nil, nil, ErrProjectStateConflict
	}
	switch project.Status {
	case models.ProjectStatusAssigned, models.ProjectStatusInProgress, models.ProjectStatusDelivered:
	default:
		return nil, nil, ErrProjectStateConflict
	}

	var existing models.Transaction
	err = tx.GetContext(ctx, &existing,
		`SELECT * FROM transactions WHERE project_id = $1 AND status = 'pending'`, projectID)
	if err == nil {
		return nil, nil, ErrActiveTransactionExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("project repository: submit delivery check %w", err)
	}

	err = tx.GetContext(ctx, project, `
		UPDATE projects
		SET delivery_link = $2, delivery_note = $3, status = 'delivered',
		    delivered_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, projectID, link, note)
	if err != nil {
		return nil, nil, fmt.Errorf("project repository: submit delivery %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (project_id, customer_id, creator_id, amount, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING *
	`, projectID, project.PostedByID, *project.AssignedToID, amount)
	if err != nil {
		// Частичный уникальный индекс по (project_id) WHERE status = 'pending'
		// ловит гонку двух одновременных сдач.
		if isUniqueViolation(err) {
			return nil, nil, ErrActiveTransactionExists
		}
		return nil, nil, fmt.Errorf("project repository: submit delivery transaction %w", err)
	}

	return project, &transaction, tx.Commit()
}

// SoftDelete отменяет проект с сохранением записи. Активную транзакцию
// не трогает: уже запущенная оплата живёт своим жизненным циклом.
func (r *ProjectRepository) SoftDelete(ctx context.Context, projectID, deletedByID uuid.UUID, reason string) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects
		SET status = 'cancelled', deleted_by_id = $2, deleted_at = NOW(),
		    deletion_reason = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND status <> 'completed'
		RETURNING *
	`, projectID, deletedByID, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectStateConflict
		}
		return nil, fmt.Errorf("project repository: soft delete %w", err)
	}
	return &project, nil
}

// Leave снимает исполнителя с проекта: проект возвращается в open,
// активная транзакция гасится. Погашенная транзакция возвращается
// вызывающему, чтобы тот уведомил стороны о сброшенной заявке оплаты.
func (r *ProjectRepository) Leave(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	project, err := lockProject(ctx, tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project.IsDeleted() || project.AssignedToID == nil || *project.AssignedToID != creatorID {
		return nil, nil, ErrProjectStateConflict
	}
	switch project.Status {
	case models.ProjectStatusCompleted, models.ProjectStatusCancelled:
		return nil, nil, ErrProjectStateConflict
	}

	err = tx.GetContext(ctx, project, `
		UPDATE projects
		SET assigned_to_id = NULL, status = 'open', creator_left = TRUE,
		    creator_left_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("project repository: leave %w", err)
	}

	failed, err := failPendingTx(ctx, tx, projectID, "исполнитель покинул проект")
	if err != nil {
		return nil, nil, err
	}

	return project, failed, tx.Commit()
}

// Assign принимает отклик: выбранный отклик становится accepted, остальные
// ожидающие отклоняются, проект закрепляется за исполнителем.
func (r *ProjectRepository) Assign(ctx context.Context, projectID, applicationID uuid.UUID) (*models.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, err := lockProject(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsDeleted() || project.Status != models.ProjectStatusOpen {
		return nil, ErrProjectStateConflict
	}

	var application models.Application
	err = tx.GetContext(ctx, &application,
		`SELECT * FROM applications WHERE id = $1 AND project_id = $2 FOR UPDATE`, applicationID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("project repository: assign lock application %w", err)
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, ErrProjectStateConflict
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE applications SET status = 'accepted' WHERE id = $1`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("project repository: assign accept %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE applications SET status = 'rejected' WHERE project_id = $1 AND id <> $2 AND status = 'pending'`,
		projectID, applicationID)
	if err != nil {
		return nil, fmt.Errorf("project repository: assign reject siblings %w", err)
	}

	err = tx.GetContext(ctx, project, `
		UPDATE projects
		SET assigned_to_id = $2, status = 'assigned', creator_left = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, projectID, application.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("project repository: assign %w", err)
	}

	return project, tx.Commit()
}

// Reassign передаёт проект другому исполнителю решением администратора.
// Активная транзакция старого исполнителя гасится и возвращается
// вызывающему.
func (r *ProjectRepository) Reassign(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	project, err := lockProject(ctx, tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project.IsDeleted() {
		return nil, nil, ErrProjectStateConflict
	}
	switch project.Status {
	case models.ProjectStatusCompleted, models.ProjectStatusCancelled:
		return nil, nil, ErrProjectStateConflict
	}

	err = tx.GetContext(ctx, project, `
		UPDATE projects
		SET assigned_to_id = $2, status = 'assigned', creator_left = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, projectID, creatorID)
	if err != nil {
		return nil, nil, fmt.Errorf("project repository: reassign %w", err)
	}

	failed, err := failPendingTx(ctx, tx, projectID, "проект передан другому исполнителю")
	if err != nil {
		return nil, nil, err
	}

	return project, failed, tx.Commit()
}

// ForceComplete принудительно завершает проект и, если есть, его активную
// транзакцию.
func (r *ProjectRepository) ForceComplete(ctx context.Context, projectID uuid.UUID) (*models.Project, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	project, err := lockProject(ctx, tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project.IsDeleted() || project.Status == models.ProjectStatusCompleted {
		return nil, nil, ErrProjectStateConflict
	}

	err = tx.GetContext(ctx, project, `
		UPDATE projects SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("project repository: force complete %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET customer_confirmed = TRUE, creator_confirmed = TRUE,
		    status = 'completed', payment_confirmed_at = NOW(), updated_at = NOW()
		WHERE project_id = $1 AND status = 'pending'
		RETURNING *
	`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return project, nil, tx.Commit()
		}
		return nil, nil, fmt.Errorf("project repository: force complete transaction %w", err)
	}

	return project, &transaction, tx.Commit()
}

// lockProject читает проект с блокировкой строки.
func lockProject(ctx context.Context, tx *sqlx.Tx, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := tx.GetContext(ctx, &project, `SELECT * FROM projects WHERE id = $1 FOR UPDATE`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project repository: lock %w", err)
	}
	return &project, nil
}

// failPendingTx гасит активную транзакцию проекта, если она есть, и
// возвращает её погашенной. Нет активной транзакции — возвращает nil.
func failPendingTx(ctx context.Context, tx *sqlx.Tx, projectID uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET status = 'failed', status_reason = $2, updated_at = NOW()
		WHERE project_id = $1 AND status = 'pending'
		RETURNING *
	`, projectID, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("project repository: fail pending transaction %w", err)
	}
	return &transaction, nil
}
