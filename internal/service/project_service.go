package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
	"github.com/creatilink/marketplace-backend/internal/validation"
)

// ProjectRepository описывает хранилище проектов.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, status, category string, limit, offset int) ([]models.Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error)
	SubmitDelivery(ctx context.Context, projectID uuid.UUID, link string, note *string, amount float64) (*models.Project, *models.Transaction, error)
	SoftDelete(ctx context.Context, projectID, deletedByID uuid.UUID, reason string) (*models.Project, error)
	Leave(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error)
	Assign(ctx context.Context, projectID, applicationID uuid.UUID) (*models.Project, error)
	Reassign(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error)
	ForceComplete(ctx context.Context, projectID uuid.UUID) (*models.Project, *models.Transaction, error)
}

// ApplicationRepository описывает хранилище откликов.
type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Application, error)
	GetAcceptedByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Application, error)
}

// ProjectTransactionLister возвращает историю транзакций проекта.
type ProjectTransactionLister interface {
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error)
}

// CreateProjectInput — данные нового проекта.
type CreateProjectInput struct {
	Title       string
	Description string
	Category    string
	Budget      float64
	Deadline    *time.Time
}

// ApplyInput — отклик исполнителя на проект.
type ApplyInput struct {
	Quote        float64
	Message      *string
	DeliveryDays *int
}

// ProjectService управляет жизненным циклом проекта: от публикации до
// сдачи работы, выхода исполнителя и административных вмешательств.
type ProjectService struct {
	repo         ProjectRepository
	applications ApplicationRepository
	transactions ProjectTransactionLister
	guard        *Guard
	notifier     Notifier
	auditor      Auditor
	admins       AdminLister
	links        *validation.DeliveryLinkValidator
}

func NewProjectService(
	repo ProjectRepository,
	applications ApplicationRepository,
	transactions ProjectTransactionLister,
	guard *Guard,
	notifier Notifier,
	auditor Auditor,
	admins AdminLister,
	links *validation.DeliveryLinkValidator,
) *ProjectService {
	return &ProjectService{
		repo:         repo,
		applications: applications,
		transactions: transactions,
		guard:        guard,
		notifier:     notifier,
		auditor:      auditor,
		admins:       admins,
		links:        links,
	}
}

// Create публикует новый проект.
func (s *ProjectService) Create(ctx context.Context, actorID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	actor, err := s.guard.RequireActive(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer && !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "публиковать проекты могут только заказчики")
	}

	if err := validation.ValidateProjectTitle(input.Title); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateProjectDescription(input.Description); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCategory(input.Category); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("сумма бюджета", input.Budget); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	project := &models.Project{
		PostedByID:  actorID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Budget:      input.Budget,
		Deadline:    input.Deadline,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	return created, nil
}

// Get возвращает проект по идентификатору.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	return project, nil
}

// List возвращает открытую витрину проектов.
func (s *ProjectService) List(ctx context.Context, status, category string, limit, offset int) ([]models.Project, error) {
	if status != "" {
		if _, ok := models.ValidProjectStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус проекта")
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, status, category, limit, offset)
}

// ListMine возвращает проекты пользователя.
func (s *ProjectService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Apply — отклик исполнителя на открытый проект со своей ценой.
func (s *ProjectService) Apply(ctx context.Context, actorID, projectID uuid.UUID, input ApplyInput) (*models.Application, error) {
	actor, err := s.guard.RequireActive(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCreator {
		return nil, apperror.New(apperror.ErrCodeForbidden, "откликаться на проекты могут только исполнители")
	}
	if err := validation.ValidateAmount("цена отклика", input.Quote); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	if project.IsDeleted() || project.Status != models.ProjectStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "проект не принимает отклики")
	}
	if project.PostedByID == actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на собственный проект")
	}

	application := &models.Application{
		ProjectID:    projectID,
		CreatorID:    actorID,
		Quote:        input.Quote,
		Message:      input.Message,
		DeliveryDays: input.DeliveryDays,
	}
	if err := s.applications.Create(ctx, application); err != nil {
		if errors.Is(err, repository.ErrAlreadyApplied) {
			return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на этот проект")
		}
		return nil, mapProjectErr(err)
	}
	return application, nil
}

// ListApplications возвращает отклики владельцу проекта или администратору.
func (s *ProjectService) ListApplications(ctx context.Context, actorID, projectID uuid.UUID) ([]models.Application, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	if !IsProjectCustomer(project, actorID) {
		if _, err := s.guard.RequireAdmin(ctx, actorID); err != nil {
			return nil, apperror.New(apperror.ErrCodeForbidden, "отклики видит только владелец проекта")
		}
	}
	return s.applications.ListByProjectID(ctx, projectID)
}

// Assign — заказчик принимает отклик и закрепляет проект за исполнителем.
func (s *ProjectService) Assign(ctx context.Context, actorID, projectID, applicationID uuid.UUID) (*models.Project, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	if !IsProjectCustomer(project, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "назначать исполнителя может только владелец проекта")
	}

	updated, err := s.repo.Assign(ctx, projectID, applicationID)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	if updated.AssignedToID != nil {
		s.notifier.Notify(*updated.AssignedToID, models.NotificationProjectAssigned,
			"Проект закреплён за вами",
			"Ваш отклик принят: «"+updated.Title+"».",
			&updated.ID, nil)
	}

	return updated, nil
}

// SubmitDelivery — исполнитель сдаёт работу ссылкой на файловый сервис.
// Вместе со статусом delivered появляется ожидающая транзакция на сумму
// принятого отклика.
func (s *ProjectService) SubmitDelivery(ctx context.Context, actorID, projectID uuid.UUID, link string, note *string) (*models.Project, *models.Transaction, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, nil, err
	}

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, mapProjectErr(err)
	}
	if !IsProjectCreator(project, actorID) {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "сдавать работу может только назначенный исполнитель")
	}
	switch project.Status {
	case models.ProjectStatusAssigned, models.ProjectStatusInProgress, models.ProjectStatusDelivered:
	default:
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "проект не находится в работе")
	}
	if project.IsDeleted() {
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "проект удалён")
	}

	normalized, err := s.links.Validate(link)
	if err != nil {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if note != nil {
		if err := validation.ValidateLength("комментарий к сдаче", *note, 0, validation.MaxDeliveryNoteLength); err != nil {
			return nil, nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	amount := project.Budget
	if accepted, err := s.applications.GetAcceptedByProjectID(ctx, projectID); err == nil {
		amount = accepted.Quote
	} else if !errors.Is(err, repository.ErrApplicationNotFound) {
		return nil, nil, mapProjectErr(err)
	}

	updated, transaction, err := s.repo.SubmitDelivery(ctx, projectID, normalized, note, amount)
	if err != nil {
		return nil, nil, mapProjectErr(err)
	}

	s.notifier.Notify(updated.PostedByID, models.NotificationDeliverySubmitted,
		"Работа сдана",
		"Исполнитель сдал работу по проекту «"+updated.Title+"». Проверьте результат и отправьте оплату.",
		&updated.ID, &transaction.ID)

	return updated, transaction, nil
}

// SoftDelete — участник проекта или администратор отменяет проект.
// Запись остаётся в базе навсегда; активная транзакция продолжает
// жить своей жизнью и гасится только собственными операциями.
func (s *ProjectService) SoftDelete(ctx context.Context, actorID, projectID uuid.UUID, reason string) (*models.Project, error) {
	actor, err := s.guard.RequireActive(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	isOwner := IsProjectCustomer(project, actorID)
	isCreator := IsProjectCreator(project, actorID)
	if !isOwner && !isCreator && !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "удалять проект может только его участник или администратор")
	}

	updated, err := s.repo.SoftDelete(ctx, projectID, actorID, reason)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	if !isOwner && !isCreator {
		s.auditor.Record(ctx, actorID, "project_deleted", models.AuditSeverityWarning,
			"Администратор удалил проект «"+updated.Title+"»: "+reason,
			&updated.PostedByID, &updated.ID)
	}

	// Уведомляем стороны, которые не инициировали удаление.
	if !isCreator && project.AssignedToID != nil {
		s.notifier.Notify(*project.AssignedToID, models.NotificationProjectDeleted,
			"Проект удалён",
			"Проект «"+updated.Title+"» удалён: "+reason,
			&updated.ID, nil)
	}
	if !isOwner {
		s.notifier.Notify(updated.PostedByID, models.NotificationProjectDeleted,
			"Проект удалён",
			"Проект «"+updated.Title+"» удалён: "+reason,
			&updated.ID, nil)
	}

	return updated, nil
}

// Leave — исполнитель покидает проект, тот возвращается в открытые.
func (s *ProjectService) Leave(ctx context.Context, actorID, projectID uuid.UUID) (*models.Project, error) {
	if _, err := s.guard.RequireActive(ctx, actorID); err != nil {
		return nil, err
	}

	updated, failed, err := s.repo.Leave(ctx, projectID, actorID)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	s.notifier.Notify(updated.PostedByID, models.NotificationCreatorLeft,
		"Исполнитель покинул проект",
		"Исполнитель покинул проект «"+updated.Title+"». Проект снова открыт для откликов.",
		&updated.ID, nil)

	// Уход исполнителя гасит уже заявленную заказчиком оплату — заказчик
	// и администраторы должны об этом узнать.
	if failed != nil && failed.CustomerConfirmed {
		s.notifyClaimVoided(ctx, updated, failed,
			"Исполнитель покинул проект «"+updated.Title+"», заявленная оплата аннулирована.")
	}

	return updated, nil
}

// notifyClaimVoided сообщает заказчику и администраторам, что заявленная
// оплата по погашенной транзакции сброшена.
func (s *ProjectService) notifyClaimVoided(ctx context.Context, project *models.Project, failed *models.Transaction, message string) {
	s.notifier.Notify(failed.CustomerID, models.NotificationPaymentFailed,
		"Заявленная оплата аннулирована", message, &project.ID, &failed.ID)

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return
	}
	for _, admin := range admins {
		s.notifier.Notify(admin.ID, models.NotificationPaymentFailed,
			"Заявленная оплата аннулирована", message, &project.ID, &failed.ID)
	}
}

// Reassign — администратор передаёт проект другому исполнителю.
func (s *ProjectService) Reassign(ctx context.Context, adminID, projectID, creatorID uuid.UUID) (*models.Project, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.guard.RequireActive(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if target.Role != models.RoleCreator {
		return nil, apperror.New(apperror.ErrCodeValidation, "назначить можно только исполнителя")
	}

	previous, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	updated, failed, err := s.repo.Reassign(ctx, projectID, creatorID)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	if failed != nil && failed.CustomerConfirmed {
		s.notifyClaimVoided(ctx, updated, failed,
			"Проект «"+updated.Title+"» передан другому исполнителю, заявленная оплата аннулирована.")
	}

	s.auditor.Record(ctx, adminID, "project_reassigned", models.AuditSeverityWarning,
		"Администратор передал проект «"+updated.Title+"» исполнителю "+creatorID.String(),
		&creatorID, &updated.ID)
	s.notifier.Notify(creatorID, models.NotificationProjectAssigned,
		"Проект закреплён за вами",
		"Администратор назначил вас исполнителем проекта «"+updated.Title+"».",
		&updated.ID, nil)
	if previous.AssignedToID != nil && *previous.AssignedToID != creatorID {
		s.notifier.Notify(*previous.AssignedToID, models.NotificationProjectAssigned,
			"Проект передан другому исполнителю",
			"Администратор передал проект «"+updated.Title+"» другому исполнителю.",
			&updated.ID, nil)
	}

	return updated, nil
}

// ForceComplete — администратор принудительно завершает проект вместе
// с его активной транзакцией.
func (s *ProjectService) ForceComplete(ctx context.Context, adminID, projectID uuid.UUID) (*models.Project, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	updated, transaction, err := s.repo.ForceComplete(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}

	s.auditor.Record(ctx, adminID, "project_force_completed", models.AuditSeverityCritical,
		"Администратор принудительно завершил проект «"+updated.Title+"»",
		nil, &updated.ID)

	if transaction != nil {
		s.notifier.Notify(transaction.CustomerID, models.NotificationPaymentReceived,
			"Проект завершён",
			"Администратор завершил проект «"+updated.Title+"», оплата отмечена подтверждённой.",
			&updated.ID, &transaction.ID)
		s.notifier.Notify(transaction.CreatorID, models.NotificationPaymentReceived,
			"Проект завершён",
			"Администратор завершил проект «"+updated.Title+"», оплата отмечена подтверждённой.",
			&updated.ID, &transaction.ID)
	}

	return updated, nil
}

// ListTransactions возвращает историю транзакций проекта его участникам.
func (s *ProjectService) ListTransactions(ctx context.Context, actorID, projectID uuid.UUID) ([]models.Transaction, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, mapProjectErr(err)
	}
	if !IsProjectCustomer(project, actorID) && !IsProjectCreator(project, actorID) {
		if _, err := s.guard.RequireAdmin(ctx, actorID); err != nil {
			return nil, apperror.New(apperror.ErrCodeForbidden, "история транзакций доступна только участникам проекта")
		}
	}
	return s.transactions.ListByProjectID(ctx, projectID)
}

// mapProjectErr переводит ошибки репозитория в типизированные.
func mapProjectErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return apperror.ErrProjectNotFound
	case errors.Is(err, repository.ErrApplicationNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "отклик не найден")
	case errors.Is(err, repository.ErrProjectStateConflict):
		return apperror.New(apperror.ErrCodeInvalidState, "состояние проекта уже изменено")
	case errors.Is(err, repository.ErrActiveTransactionExists):
		return apperror.New(apperror.ErrCodeInvalidState, "по проекту уже есть активная транзакция, повторная сдача невозможна")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка хранилища проектов")
}
