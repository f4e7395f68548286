package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
)

// GuardUserRepository описывает доступ охранника к пользователям.
type GuardUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Guard отвечает на вопрос «кто и что может делать»: проверяет роли и
// участие в сделке. Права привязаны к записям, а не к эндпоинтам.
type Guard struct {
	users GuardUserRepository
}

func NewGuard(users GuardUserRepository) *Guard {
	return &Guard{users: users}
}

// RequireActive возвращает активного пользователя или FORBIDDEN.
func (g *Guard) RequireActive(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось загрузить пользователя")
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}
	return user, nil
}

// RequireAdmin возвращает активного администратора или FORBIDDEN.
// Роль читается из записи пользователя, а не из токена: разжалованный
// администратор теряет права сразу.
func (g *Guard) RequireAdmin(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := g.RequireActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "требуются права администратора")
	}
	return user, nil
}

// IsTransactionParticipant сообщает, участвует ли пользователь в транзакции.
func IsTransactionParticipant(t *models.Transaction, userID uuid.UUID) bool {
	return t.CustomerID == userID || t.CreatorID == userID
}

// IsProjectCustomer сообщает, является ли пользователь заказчиком проекта.
func IsProjectCustomer(p *models.Project, userID uuid.UUID) bool {
	return p.PostedByID == userID
}

// IsProjectCreator сообщает, является ли пользователь исполнителем проекта.
func IsProjectCreator(p *models.Project, userID uuid.UUID) bool {
	return p.AssignedToID != nil && *p.AssignedToID == userID
}
