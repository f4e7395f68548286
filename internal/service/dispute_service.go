package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
	"github.com/creatilink/marketplace-backend/internal/validation"
)

// Маркеры решения: по ним в тексте решения видно, каким действием
// закрыт спор.
const (
	resolutionRefundMarker  = "REFUNDED: "
	resolutionReleaseMarker = "PAYMENT RELEASED: "
	resolutionBanMarker     = "USER BANNED: "
)

// DisputeRepository описывает хранилище споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]models.Dispute, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, error)
	ResolveWithRefund(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, *models.Transaction, error)
	ResolveWithRelease(ctx context.Context, id uuid.UUID, resolution string, resolvedByID uuid.UUID) (*models.Dispute, *models.Transaction, error)
	ResolveWithBan(ctx context.Context, id uuid.UUID, resolution string, resolvedByID, bannedUserID uuid.UUID) (*models.Dispute, error)
}

// DisputeTransactionGetter возвращает транзакцию спора.
type DisputeTransactionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// AdminLister возвращает активных администраторов для рассылки.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// DisputeService реализует арбитраж: участник сделки поднимает спор,
// администратор закрывает его пояснением, возвратом, выпуском оплаты
// или блокировкой нарушителя.
type DisputeService struct {
	repo         DisputeRepository
	transactions DisputeTransactionGetter
	admins       AdminLister
	guard        *Guard
	notifier     Notifier
	auditor      Auditor
}

func NewDisputeService(
	repo DisputeRepository,
	transactions DisputeTransactionGetter,
	admins AdminLister,
	guard *Guard,
	notifier Notifier,
	auditor Auditor,
) *DisputeService {
	return &DisputeService{
		repo:         repo,
		transactions: transactions,
		admins:       admins,
		guard:        guard,
		notifier:     notifier,
		auditor:      auditor,
	}
}

// Raise поднимает спор по транзакции. Состояние транзакции не
// проверяется: спорить можно и после завершения сделки.
func (s *DisputeService) Raise(ctx context.Context, actorID, transactionID uuid.UUID, disputeType, description string) (*models.Dispute, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}
	if _, ok := models.ValidDisputeTypes[disputeType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип спора")
	}
	if err := validation.ValidateDisputeDescription(description); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	transaction, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if !IsTransactionParticipant(transaction, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "спор может поднять только участник сделки")
	}

	dispute := &models.Dispute{
		TransactionID: transactionID,
		RaisedByID:    actorID,
		DisputeType:   disputeType,
		Description:   description,
	}
	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, mapDisputeErr(err)
	}

	s.notifyAdmins(ctx, dispute, transaction)

	other := transaction.CustomerID
	if other == actorID {
		other = transaction.CreatorID
	}
	s.notifier.Notify(other, models.NotificationDisputeRaised,
		"По вашей сделке открыт спор",
		"Второй участник открыл спор по транзакции. Администратор рассмотрит его.",
		&transaction.ProjectID, &transaction.ID)

	return dispute, nil
}

// Get возвращает спор его участнику или администратору.
func (s *DisputeService) Get(ctx context.Context, actorID, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapDisputeErr(err)
	}

	transaction, err := s.transactions.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if !IsTransactionParticipant(transaction, actorID) {
		if _, err := s.guard.RequireAdmin(ctx, actorID); err != nil {
			return nil, apperror.New(apperror.ErrCodeForbidden, "спор доступен только его участникам")
		}
	}
	return dispute, nil
}

// ListMine возвращает споры по сделкам пользователя.
func (s *DisputeService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListOpen возвращает очередь открытых споров администратору.
func (s *DisputeService) ListOpen(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOpen(ctx, limit, offset)
}

// Resolve закрывает спор пояснением без действий над транзакцией.
func (s *DisputeService) Resolve(ctx context.Context, adminID, id uuid.UUID, note string) (*models.Dispute, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(note); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, err := s.repo.Resolve(ctx, id, note, adminID)
	if err != nil {
		return nil, mapDisputeErr(err)
	}

	s.auditor.Record(ctx, adminID, "dispute_resolved", models.AuditSeverityInfo,
		"Спор "+dispute.ID.String()+" закрыт: "+note, &dispute.RaisedByID, nil)
	s.notifyResolved(ctx, dispute)

	return dispute, nil
}

// ResolveWithRefund закрывает спор и возвращает средства заказчику.
func (s *DisputeService) ResolveWithRefund(ctx context.Context, adminID, id uuid.UUID, note string) (*models.Dispute, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(note); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, transaction, err := s.repo.ResolveWithRefund(ctx, id, resolutionRefundMarker+note, adminID)
	if err != nil {
		return nil, mapDisputeErr(err)
	}

	s.auditor.Record(ctx, adminID, "dispute_refund", models.AuditSeverityWarning,
		"Спор "+dispute.ID.String()+" закрыт возвратом: "+note,
		&transaction.CustomerID, &transaction.ProjectID)
	s.notifier.Notify(transaction.CustomerID, models.NotificationPaymentRefunded,
		"Спор решён в вашу пользу",
		"Администратор оформил возврат по спорной транзакции: "+note,
		&transaction.ProjectID, &transaction.ID)
	s.notifier.Notify(transaction.CreatorID, models.NotificationDisputeResolved,
		"Спор закрыт возвратом",
		"Администратор закрыл спор возвратом средств заказчику: "+note,
		&transaction.ProjectID, &transaction.ID)

	return dispute, nil
}

// ResolveWithRelease закрывает спор и выпускает оплату исполнителю.
func (s *DisputeService) ResolveWithRelease(ctx context.Context, adminID, id uuid.UUID, note string) (*models.Dispute, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(note); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, transaction, err := s.repo.ResolveWithRelease(ctx, id, resolutionReleaseMarker+note, adminID)
	if err != nil {
		return nil, mapDisputeErr(err)
	}

	s.auditor.Record(ctx, adminID, "dispute_release", models.AuditSeverityWarning,
		"Спор "+dispute.ID.String()+" закрыт выпуском оплаты: "+note,
		&transaction.CreatorID, &transaction.ProjectID)
	s.notifier.Notify(transaction.CreatorID, models.NotificationPaymentReceived,
		"Спор решён в вашу пользу",
		"Администратор подтвердил оплату по спорной транзакции: "+note,
		&transaction.ProjectID, &transaction.ID)
	s.notifier.Notify(transaction.CustomerID, models.NotificationDisputeResolved,
		"Спор закрыт",
		"Администратор подтвердил оплату исполнителю: "+note,
		&transaction.ProjectID, &transaction.ID)

	return dispute, nil
}

// ResolveWithBan закрывает спор и блокирует нарушителя — одного из
// участников спорной сделки.
func (s *DisputeService) ResolveWithBan(ctx context.Context, adminID, id, bannedUserID uuid.UUID, note string) (*models.Dispute, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(note); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapDisputeErr(err)
	}
	transaction, err := s.transactions.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return nil, mapTransactionErr(err)
	}
	if !IsTransactionParticipant(transaction, bannedUserID) {
		return nil, apperror.New(apperror.ErrCodeValidation, "заблокировать можно только участника спорной сделки")
	}

	resolved, err := s.repo.ResolveWithBan(ctx, id, resolutionBanMarker+note, adminID, bannedUserID)
	if err != nil {
		return nil, mapDisputeErr(err)
	}

	s.auditor.Record(ctx, adminID, "user_banned", models.AuditSeverityCritical,
		"Спор "+resolved.ID.String()+" закрыт блокировкой пользователя "+bannedUserID.String()+": "+note,
		&bannedUserID, &transaction.ProjectID)
	s.notifyResolved(ctx, resolved)

	return resolved, nil
}

// notifyAdmins рассылает уведомление о новом споре всем активным
// администраторам.
func (s *DisputeService) notifyAdmins(ctx context.Context, dispute *models.Dispute, transaction *models.Transaction) {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return
	}
	for _, admin := range admins {
		s.notifier.Notify(admin.ID, models.NotificationDisputeRaised,
			"Открыт новый спор",
			"Поднят спор по транзакции "+transaction.ID.String()+". Требуется рассмотрение.",
			&transaction.ProjectID, &transaction.ID)
	}
}

func (s *DisputeService) notifyResolved(ctx context.Context, dispute *models.Dispute) {
	transaction, err := s.transactions.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return
	}
	resolution := ""
	if dispute.Resolution != nil {
		resolution = *dispute.Resolution
	}
	s.notifier.Notify(transaction.CustomerID, models.NotificationDisputeResolved,
		"Спор закрыт", "Администратор закрыл спор: "+resolution,
		&transaction.ProjectID, &transaction.ID)
	s.notifier.Notify(transaction.CreatorID, models.NotificationDisputeResolved,
		"Спор закрыт", "Администратор закрыл спор: "+resolution,
		&transaction.ProjectID, &transaction.ID)
}

// mapDisputeErr переводит ошибки репозитория в типизированные.
func mapDisputeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrDisputeStateConflict):
		return apperror.New(apperror.ErrCodeInvalidState, "спор уже разрешён")
	case errors.Is(err, repository.ErrTransactionStateConflict):
		return apperror.New(apperror.ErrCodeInvalidState, "транзакция уже в терминальном статусе")
	case errors.Is(err, repository.ErrTransactionNotFound):
		return apperror.ErrTransactionNotFound
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища споров")
}
