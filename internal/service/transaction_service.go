package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
	"github.com/creatilink/marketplace-backend/internal/validation"
)

// Notifier рассылает уведомления участникам, не блокируя операцию.
type Notifier interface {
	Notify(userID uuid.UUID, kind, title, message string, projectID, transactionID *uuid.UUID)
}

// Auditor пишет журнал административных действий.
type Auditor interface {
	Record(ctx context.Context, adminID uuid.UUID, action, severity, description string, targetUserID, projectID *uuid.UUID)
}

// TransactionRepository описывает хранилище транзакций.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	GetActiveByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error)
	ConfirmByCustomer(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ConfirmByCreator(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	RejectByCreator(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error)
	AdminRelease(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	AdminRefund(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error)
	AttachScreenshot(ctx context.Context, id uuid.UUID, path string) (*models.Transaction, error)
}

// ScreenshotStore сохраняет скриншоты оплаты.
type ScreenshotStore interface {
	Save(ctx context.Context, transactionID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
}

// TransactionService реализует двустороннее подтверждение оплаты:
// заказчик отмечает отправку, исполнитель — получение, совпадение двух
// флагов завершает транзакцию и проект.
type TransactionService struct {
	repo        TransactionRepository
	guard       *Guard
	notifier    Notifier
	auditor     Auditor
	screenshots ScreenshotStore
}

func NewTransactionService(repo TransactionRepository, guard *Guard, notifier Notifier, auditor Auditor, screenshots ScreenshotStore) *TransactionService {
	return &TransactionService{
		repo:        repo,
		guard:       guard,
		notifier:    notifier,
		auditor:     auditor,
		screenshots: screenshots,
	}
}

// Get возвращает транзакцию участнику сделки или администратору.
func (s *TransactionService) Get(ctx context.Context, actorID, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if !IsTransactionParticipant(transaction, actorID) {
		if _, err := s.guard.RequireAdmin(ctx, actorID); err != nil {
			return nil, apperror.New(apperror.ErrCodeForbidden, "транзакция доступна только её участникам")
		}
	}
	return transaction, nil
}

// ListMine возвращает транзакции пользователя.
func (s *TransactionService) ListMine(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Transaction, error) {
	if status != "" && !isKnownTransactionStatus(status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус транзакции")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, status, limit, offset)
}

// ListAll возвращает все транзакции администратору.
func (s *TransactionService) ListAll(ctx context.Context, adminID uuid.UUID, status string, limit, offset int) ([]models.Transaction, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAll(ctx, status, limit, offset)
}

// CustomerConfirm — заказчик отмечает, что отправил оплату напрямую
// исполнителю.
func (s *TransactionService) CustomerConfirm(ctx context.Context, actorID, id uuid.UUID) (*models.Transaction, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}

	transaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if transaction.CustomerID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отмечать отправку оплаты может только заказчик")
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "транзакция уже закрыта")
	}

	updated, err := s.repo.ConfirmByCustomer(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	if updated.Status == models.TransactionStatusCompleted {
		s.notifyCompleted(updated)
	} else {
		s.notifier.Notify(updated.CreatorID, models.NotificationPaymentClaimed,
			"Оплата отмечена отправленной",
			"Заказчик отметил оплату отправленной. Подтвердите получение или сообщите о проблеме.",
			&updated.ProjectID, &updated.ID)
	}

	return updated, nil
}

// CreatorConfirm — исполнитель подтверждает, что деньги пришли.
func (s *TransactionService) CreatorConfirm(ctx context.Context, actorID, id uuid.UUID) (*models.Transaction, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}

	transaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if transaction.CreatorID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подтверждать получение оплаты может только исполнитель")
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "транзакция уже закрыта")
	}
	if !transaction.CustomerConfirmed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказчик ещё не отметил отправку оплаты")
	}

	updated, err := s.repo.ConfirmByCreator(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	if updated.Status == models.TransactionStatusCompleted {
		s.notifyCompleted(updated)
	}

	return updated, nil
}

// CreatorReject — исполнитель сообщает, что заявленная оплата не пришла:
// флаг заказчика сбрасывается, транзакция остаётся открытой.
func (s *TransactionService) CreatorReject(ctx context.Context, actorID, id uuid.UUID, reason string) (*models.Transaction, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	transaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if transaction.CreatorID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оспаривать отправку оплаты может только исполнитель")
	}
	if transaction.Status != models.TransactionStatusPending || !transaction.CustomerConfirmed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "нет заявленной отправки оплаты для отклонения")
	}

	updated, err := s.repo.RejectByCreator(ctx, id, reason)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	s.notifier.Notify(updated.CustomerID, models.NotificationPaymentRejected,
		"Получение оплаты не подтверждено",
		"Исполнитель сообщил, что оплата не поступила: "+reason,
		&updated.ProjectID, &updated.ID)

	return updated, nil
}

// AdminRelease принудительно завершает ожидающую транзакцию.
func (s *TransactionService) AdminRelease(ctx context.Context, adminID, id uuid.UUID) (*models.Transaction, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	updated, err := s.repo.AdminRelease(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	s.auditor.Record(ctx, adminID, "payment_released", models.AuditSeverityWarning,
		"Администратор принудительно завершил транзакцию "+updated.ID.String(),
		&updated.CreatorID, &updated.ProjectID)
	s.notifyCompleted(updated)

	return updated, nil
}

// AdminRefund помечает ожидающую транзакцию возвращённой.
func (s *TransactionService) AdminRefund(ctx context.Context, adminID, id uuid.UUID, reason string) (*models.Transaction, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	updated, err := s.repo.AdminRefund(ctx, id, reason)
	if err != nil {
		return nil, mapTransactionErr(err)
	}

	s.auditor.Record(ctx, adminID, "payment_refunded", models.AuditSeverityWarning,
		"Администратор оформил возврат по транзакции "+updated.ID.String()+": "+reason,
		&updated.CustomerID, &updated.ProjectID)
	s.notifier.Notify(updated.CustomerID, models.NotificationPaymentRefunded,
		"Оформлен возврат оплаты",
		"Администратор оформил возврат: "+reason,
		&updated.ProjectID, &updated.ID)
	s.notifier.Notify(updated.CreatorID, models.NotificationPaymentRefunded,
		"Оформлен возврат оплаты",
		"Администратор оформил возврат по вашей транзакции: "+reason,
		&updated.ProjectID, &updated.ID)

	return updated, nil
}

// AttachScreenshot — заказчик прикладывает скриншот оплаты как
// доказательство отправки.
func (s *TransactionService) AttachScreenshot(ctx context.Context, actorID, id uuid.UUID, originalName string, r io.Reader) (*models.Transaction, error) {
	transaction, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if transaction.CustomerID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "прикладывать скриншот оплаты может только заказчик")
	}
	if transaction.Status != models.TransactionStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "транзакция уже закрыта")
	}

	path, _, err := s.screenshots.Save(ctx, id, originalName, r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось сохранить скриншот")
	}

	updated, err := s.repo.AttachScreenshot(ctx, id, path)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	return updated, nil
}

func (s *TransactionService) notifyCompleted(t *models.Transaction) {
	s.notifier.Notify(t.CustomerID, models.NotificationPaymentReceived,
		"Оплата подтверждена",
		"Обе стороны подтвердили оплату, проект завершён.",
		&t.ProjectID, &t.ID)
	s.notifier.Notify(t.CreatorID, models.NotificationPaymentReceived,
		"Оплата подтверждена",
		"Обе стороны подтвердили оплату, проект завершён.",
		&t.ProjectID, &t.ID)
}

func isKnownTransactionStatus(status string) bool {
	switch status {
	case models.TransactionStatusPending, models.TransactionStatusCompleted,
		models.TransactionStatusRefunded, models.TransactionStatusFailed:
		return true
	}
	return false
}

// mapTransactionErr переводит ошибки репозитория в типизированные.
func mapTransactionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrTransactionNotFound):
		return apperror.ErrTransactionNotFound
	case errors.Is(err, repository.ErrTransactionStateConflict):
		return apperror.New(apperror.ErrCodeInvalidState, "транзакция уже изменена другой операцией")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища транзакций")
}
