package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
)

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserService — операции над аккаунтами, доступные администратору.
type UserService struct {
	repo    UserRepository
	guard   *Guard
	auditor Auditor
}

func NewUserService(repo UserRepository, guard *Guard, auditor Auditor) *UserService {
	return &UserService{repo: repo, guard: guard, auditor: auditor}
}

// Get возвращает пользователя по идентификатору.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища пользователей")
	}
	return user, nil
}

// Ban блокирует пользователя. Повторная блокировка — no-op, блокировка
// администратора запрещена.
func (s *UserService) Ban(ctx context.Context, adminID, targetID uuid.UUID, reason string) (*models.User, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя заблокировать администратора")
	}
	if !target.IsActive {
		return target, nil
	}

	banned, err := s.repo.Deactivate(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища пользователей")
	}

	s.auditor.Record(ctx, adminID, "user_banned", models.AuditSeverityCritical,
		"Администратор заблокировал пользователя "+targetID.String()+": "+reason,
		&targetID, nil)

	return banned, nil
}
