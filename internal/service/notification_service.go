package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/goroutine"
	"github.com/creatilink/marketplace-backend/internal/logger"
	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
)

// ErrNotNotificationOwner возвращается при попытке работать с чужим уведомлением.
var ErrNotNotificationOwner = errors.New("notification belongs to another user")

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationSink доставляет уведомление в реальном времени
// (websocket hub). Недоставка не ошибка: запись уже в базе.
type NotificationSink interface {
	Push(userID uuid.UUID, notification *models.Notification)
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo NotificationRepository
	sink NotificationSink
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository, sink NotificationSink) *NotificationService {
	return &NotificationService{repo: repo, sink: sink}
}

// Notify создаёт уведомление в фоне, не блокируя вызвавшую операцию.
// Сбой уведомления никогда не валит доменную операцию.
func (s *NotificationService) Notify(userID uuid.UUID, kind, title, message string, projectID, transactionID *uuid.UUID) {
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		notification := &models.Notification{
			UserID:        userID,
			Kind:          kind,
			Title:         title,
			Message:       message,
			ProjectID:     projectID,
			TransactionID: transactionID,
		}

		if err := s.repo.Create(ctx, notification); err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).
				Error("notification service: не удалось сохранить уведомление")
			return
		}

		if s.sink != nil {
			s.sink.Push(userID, notification)
		}
	})
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapNotificationErr(err)
	}

	if notification.UserID != userID {
		return apperror.Wrap(ErrNotNotificationOwner, apperror.ErrCodeForbidden, "уведомление принадлежит другому пользователю")
	}

	return mapNotificationErr(s.repo.MarkAsRead(ctx, id))
}

// mapNotificationErr переводит ошибки репозитория в типизированные.
func mapNotificationErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotificationNotFound) {
		return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища уведомлений")
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
