package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creatilink/marketplace-backend/internal/models"
)

var (
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeStateConflict = errors.New("dispute state conflict")
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create сохраняет новый спор.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (transaction_id, raised_by_id, dispute_type, description, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING id, status, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, d.TransactionID, d.RaisedByID, d.DisputeType, d.Description).
		Scan(&d.ID, &d.Status, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// ListByTransactionID возвращает все споры по транзакции.
func (r *DisputeRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes,
		`SELECT * FROM disputes WHERE transaction_id = $1 ORDER BY created_at DESC`, transactionID)
	return disputes, err
}

// ListByUser возвращает споры по транзакциям, в которых пользователь
// участвует как заказчик или исполнитель.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN transactions t ON d.transaction_id = t.id
		WHERE t.customer_id = $1 OR t.creator_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

// ListOpen возвращает открытые споры для админской очереди.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = 'open'
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	return disputes, err
}

// Resolve закрывает спор пояснением без действий над транзакцией.
func (r *DisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		UPDATE disputes
		SET status = 'resolved', resolution = $2, resolved_by_id = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING *
	`, id, resolution, resolvedByID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeStateConflict
		}
		return nil, fmt.Errorf("dispute repository: resolve %w", err)
	}
	return &d, nil
}

// ResolveWithRefund закрывает спор и возвращает средства заказчику:
// спор и транзакция меняются атомарно.
func (r *DisputeRepository) ResolveWithRefund(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	d, err := r.resolveTx(ctx, tx, id, resolution, resolvedByID)
	if err != nil {
		return nil, nil, err
	}

	transaction, err := refundTx(ctx, tx, d.TransactionID, resolution)
	if err != nil {
		return nil, nil, err
	}

	return d, transaction, tx.Commit()
}

// ResolveWithRelease закрывает спор и выпускает оплату исполнителю.
func (r *DisputeRepository) ResolveWithRelease(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, *models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	d, err := r.resolveTx(ctx, tx, id, resolution, resolvedByID)
	if err != nil {
		return nil, nil, err
	}

	transaction, err := releaseTx(ctx, tx, d.TransactionID)
	if err != nil {
		return nil, nil, err
	}

	return d, transaction, tx.Commit()
}

// ResolveWithBan закрывает спор и блокирует указанного пользователя.
// Администраторов заблокировать нельзя.
func (r *DisputeRepository) ResolveWithBan(ctx context.Context, id uuid.UUID, resolution string, resolvedByID, bannedUserID uuid.UUID) (*models.Dispute, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d, err := r.resolveTx(ctx, tx, id, resolution, resolvedByID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND role <> 'admin'
	`, bannedUserID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve ban %w", err)
	}

	return d, tx.Commit()
}

// resolveTx закрывает открытый спор внутри открытой транзакции базы.
func (r *DisputeRepository) resolveTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := tx.GetContext(ctx, &d, `
		UPDATE disputes
		SET status = 'resolved', resolution = $2, resolved_by_id = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING *
	`, id, resolution, resolvedByID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeStateConflict
		}
		return nil, fmt.Errorf("dispute repository: resolve %w", err)
	}
	return &d, nil
}
