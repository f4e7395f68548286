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
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionStateConflict возвращается, когда транзакция уже покинула
	// ожидаемый статус: проигравший гонку участник получает именно её.
	ErrTransactionStateConflict = errors.New("transaction state conflict")
	ErrActiveTransactionExists  = errors.New("active transaction already exists")
)

type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetByID возвращает транзакцию по ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return common.GetByID[models.Transaction](ctx, r.db, "transactions", id, ErrTransactionNotFound)
}

// GetActiveByProjectID возвращает активную (pending) транзакцию проекта.
func (r *TransactionRepository) GetActiveByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction,
		`SELECT * FROM transactions WHERE project_id = $1 AND status = 'pending'`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: get active %w", err)
	}
	return &transaction, nil
}

// ListByUser возвращает транзакции, где пользователь выступает заказчиком
// или исполнителем, с необязательным фильтром по статусу.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := `
		SELECT * FROM transactions
		WHERE (customer_id = $1 OR creator_id = $1)
		AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`
	err := r.db.SelectContext(ctx, &transactions, query, userID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("transaction repository: list by user %w", err)
	}
	return transactions, nil
}

// ListAll возвращает все транзакции для админской выборки.
func (r *TransactionRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := `
		SELECT * FROM transactions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &transactions, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("transaction repository: list all %w", err)
	}
	return transactions, nil
}

// ListByProjectID возвращает историю транзакций проекта.
func (r *TransactionRepository) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions,
		`SELECT * FROM transactions WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("transaction repository: list by project %w", err)
	}
	return transactions, nil
}

// ConfirmByCustomer отмечает оплату отправленной со стороны заказчика.
// Если исполнитель уже подтвердил получение, транзакция и проект
// завершаются в той же транзакции базы.
func (r *TransactionRepository) ConfirmByCustomer(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.confirm(ctx, id, true)
}

// ConfirmByCreator отмечает оплату полученной со стороны исполнителя.
func (r *TransactionRepository) ConfirmByCreator(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.confirm(ctx, id, false)
}

func (r *TransactionRepository) confirm(ctx context.Context, id uuid.UUID, byCustomer bool) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: confirm lock %w", err)
	}

	// Перепроверяем статус под блокировкой: проигравший гонку получает конфликт.
	if transaction.Status != models.TransactionStatusPending {
		return nil, ErrTransactionStateConflict
	}

	if byCustomer {
		transaction.CustomerConfirmed = true
	} else {
		transaction.CreatorConfirmed = true
	}

	if transaction.CustomerConfirmed && transaction.CreatorConfirmed {
		// Рукопожатие завершено: транзакция и проект закрываются атомарно.
		err = tx.GetContext(ctx, &transaction, `
			UPDATE transactions
			SET customer_confirmed = TRUE, creator_confirmed = TRUE,
			    status = 'completed', payment_confirmed_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, id)
		if err != nil {
			return nil, fmt.Errorf("transaction repository: confirm complete %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET status = 'completed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status <> 'completed'
		`, transaction.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("transaction repository: confirm complete project %w", err)
		}
	} else {
		err = tx.GetContext(ctx, &transaction, `
			UPDATE transactions
			SET customer_confirmed = $2, creator_confirmed = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, id, transaction.CustomerConfirmed, transaction.CreatorConfirmed)
		if err != nil {
			return nil, fmt.Errorf("transaction repository: confirm flag %w", err)
		}
	}

	return &transaction, tx.Commit()
}

// RejectByCreator сбрасывает заявленную заказчиком отправку оплаты:
// исполнитель сообщает, что деньги не пришли.
func (r *TransactionRepository) RejectByCreator(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET customer_confirmed = FALSE, status_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND customer_confirmed = TRUE
		RETURNING *
	`, id, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionStateConflict
		}
		return nil, fmt.Errorf("transaction repository: reject %w", err)
	}
	return &transaction, nil
}

// AdminRelease принудительно завершает ожидающую транзакцию и проект.
func (r *TransactionRepository) AdminRelease(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transaction, err := releaseTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	return transaction, tx.Commit()
}

// AdminRefund помечает ожидающую транзакцию возвращённой.
func (r *TransactionRepository) AdminRefund(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET status = 'refunded', status_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionStateConflict
		}
		return nil, fmt.Errorf("transaction repository: refund %w", err)
	}
	return &transaction, nil
}

// AttachScreenshot прикрепляет скриншот оплаты к ожидающей транзакции.
func (r *TransactionRepository) AttachScreenshot(ctx context.Context, id uuid.UUID, path string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET payment_screenshot = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionStateConflict
		}
		return nil, fmt.Errorf("transaction repository: attach screenshot %w", err)
	}
	return &transaction, nil
}

// releaseTx завершает ожидающую транзакцию и её проект внутри открытой
// транзакции базы. Используется админским выпуском и разрешением спора.
func releaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.GetContext(ctx, &transaction, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("transaction repository: release lock %w", err)
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, ErrTransactionStateConflict
	}

	err = tx.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET customer_confirmed = TRUE, creator_confirmed = TRUE,
		    status = 'completed', payment_confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	if err != nil {
		return nil, fmt.Errorf("transaction repository: release %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE projects SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
	`, transaction.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("transaction repository: release project %w", err)
	}

	return &transaction, nil
}

// refundTx помечает ожидающую транзакцию возвращённой внутри открытой
// транзакции базы. Используется разрешением спора с возвратом.
func refundTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, reason string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.GetContext(ctx, &transaction, `
		UPDATE transactions
		SET status = 'refunded', status_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionStateConflict
		}
		return nil, fmt.Errorf("transaction repository: refund %w", err)
	}
	return &transaction, nil
}
