package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
	"github.com/creatilink/marketplace-backend/internal/validation"
)

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) List(ctx context.Context, status, category string, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, status, category, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectRepo) SubmitDelivery(ctx context.Context, projectID uuid.UUID, link string, note *string, amount float64) (*models.Project, *models.Transaction, error) {
	args := m.Called(ctx, projectID, link, note, amount)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Project), args.Get(1).(*models.Transaction), args.Error(2)
}

func (m *mockProjectRepo) SoftDelete(ctx context.Context, projectID, deletedByID uuid.UUID, reason string) (*models.Project, error) {
	args := m.Called(ctx, projectID, deletedByID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) Leave(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error) {
	args := m.Called(ctx, projectID, creatorID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	if args.Get(1) == nil {
		return args.Get(0).(*models.Project), nil, args.Error(2)
	}
	return args.Get(0).(*models.Project), args.Get(1).(*models.Transaction), args.Error(2)
}

func (m *mockProjectRepo) Assign(ctx context.Context, projectID, applicationID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) Reassign(ctx context.Context, projectID, creatorID uuid.UUID) (*models.Project, *models.Transaction, error) {
	args := m.Called(ctx, projectID, creatorID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	if args.Get(1) == nil {
		return args.Get(0).(*models.Project), nil, args.Error(2)
	}
	return args.Get(0).(*models.Project), args.Get(1).(*models.Transaction), args.Error(2)
}

func (m *mockProjectRepo) ForceComplete(ctx context.Context, projectID uuid.UUID) (*models.Project, *models.Transaction, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	if args.Get(1) == nil {
		return args.Get(0).(*models.Project), nil, args.Error(2)
	}
	return args.Get(0).(*models.Project), args.Get(1).(*models.Transaction), args.Error(2)
}

type mockApplicationRepo struct {
	mock.Mock
}

func (m *mockApplicationRepo) Create(ctx context.Context, a *models.Application) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockApplicationRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Application, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *mockApplicationRepo) GetAcceptedByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Application, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

type mockProjectTxLister struct {
	mock.Mock
}

func (m *mockProjectTxLister) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type projectFixture struct {
	repo         *mockProjectRepo
	applications *mockApplicationRepo
	transactions *mockProjectTxLister
	users        *mockGuardUsers
	notifier     *mockNotifier
	auditor      *mockAuditor
	admins       *mockAdminLister
	svc          *ProjectService
}

func newProjectFixture() *projectFixture {
	f := &projectFixture{
		repo:         new(mockProjectRepo),
		applications: new(mockApplicationRepo),
		transactions: new(mockProjectTxLister),
		users:        new(mockGuardUsers),
		notifier:     new(mockNotifier),
		auditor:      new(mockAuditor),
		admins:       new(mockAdminLister),
	}
	links := validation.NewDeliveryLinkValidator([]string{"drive.google.com", "dropbox.com"})
	f.svc = NewProjectService(f.repo, f.applications, f.transactions, NewGuard(f.users), f.notifier, f.auditor, f.admins, links)
	return f
}

func TestProjectService_Create(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	customerID := uuid.New()

	f.users.On("GetByID", ctx, customerID).Return(activeUser(customerID, models.RoleCustomer), nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*models.Project")).
		Return(&models.Project{ID: uuid.New(), PostedByID: customerID, Status: models.ProjectStatusOpen}, nil)

	project, err := f.svc.Create(ctx, customerID, CreateProjectInput{
		Title:       "Логотип для кофейни",
		Description: "Нужен логотип и фирменный стиль для новой кофейни.",
		Category:    "design",
		Budget:      15000,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOpen, project.Status)
}

func TestProjectService_Create_CreatorForbidden(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)

	_, err := f.svc.Create(ctx, creatorID, CreateProjectInput{
		Title:       "Логотип для кофейни",
		Description: "Нужен логотип и фирменный стиль для новой кофейни.",
		Category:    "design",
		Budget:      15000,
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_Create_InvalidBudget(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	customerID := uuid.New()

	f.users.On("GetByID", ctx, customerID).Return(activeUser(customerID, models.RoleCustomer), nil)

	_, err := f.svc.Create(ctx, customerID, CreateProjectInput{
		Title:       "Логотип для кофейни",
		Description: "Нужен логотип и фирменный стиль для новой кофейни.",
		Category:    "design",
		Budget:      0,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestProjectService_Apply_OwnProject(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	actorID := uuid.New()
	projectID := uuid.New()

	f.users.On("GetByID", ctx, actorID).Return(activeUser(actorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).
		Return(&models.Project{ID: projectID, PostedByID: actorID, Status: models.ProjectStatusOpen}, nil)

	_, err := f.svc.Apply(ctx, actorID, projectID, ApplyInput{Quote: 10000})
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_Apply_Duplicate(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	projectID := uuid.New()

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).
		Return(&models.Project{ID: projectID, PostedByID: uuid.New(), Status: models.ProjectStatusOpen}, nil)
	f.applications.On("Create", ctx, mock.AnythingOfType("*models.Application")).
		Return(repository.ErrAlreadyApplied)

	_, err := f.svc.Apply(ctx, creatorID, projectID, ApplyInput{Quote: 10000})
	assert.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	assert.True(t, ok)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestProjectService_SubmitDelivery(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	customerID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Budget: 15000, Status: models.ProjectStatusInProgress,
	}
	delivered := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Budget: 15000, Status: models.ProjectStatusDelivered,
	}
	transaction := &models.Transaction{
		ID: uuid.New(), ProjectID: projectID,
		CustomerID: customerID, CreatorID: creatorID,
		Amount: 12000, Status: models.TransactionStatusPending,
	}
	accepted := &models.Application{ProjectID: projectID, CreatorID: creatorID, Quote: 12000}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)
	f.applications.On("GetAcceptedByProjectID", ctx, projectID).Return(accepted, nil)
	f.repo.On("SubmitDelivery", ctx, projectID, "https://drive.google.com/file/d/abc", (*string)(nil), float64(12000)).
		Return(delivered, transaction, nil)
	f.notifier.On("Notify", customerID, models.NotificationDeliverySubmitted,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, tx, err := f.svc.SubmitDelivery(ctx, creatorID, projectID, "https://drive.google.com/file/d/abc", nil)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusDelivered, updated.Status)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, float64(12000), tx.Amount)
	f.notifier.AssertExpectations(t)
}

func TestProjectService_SubmitDelivery_BudgetFallback(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: uuid.New(), AssignedToID: &creatorID,
		Title: "Логотип", Budget: 15000, Status: models.ProjectStatusAssigned,
	}
	transaction := &models.Transaction{
		ID: uuid.New(), ProjectID: projectID, Amount: 15000,
		CustomerID: project.PostedByID, CreatorID: creatorID,
		Status: models.TransactionStatusPending,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)
	f.applications.On("GetAcceptedByProjectID", ctx, projectID).
		Return(nil, repository.ErrApplicationNotFound)
	f.repo.On("SubmitDelivery", ctx, projectID, mock.Anything, (*string)(nil), float64(15000)).
		Return(project, transaction, nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	_, tx, err := f.svc.SubmitDelivery(ctx, creatorID, projectID, "https://dropbox.com/s/xyz", nil)
	assert.NoError(t, err)
	assert.Equal(t, float64(15000), tx.Amount)
}

func TestProjectService_SubmitDelivery_DisallowedHost(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: uuid.New(), AssignedToID: &creatorID,
		Status: models.ProjectStatusInProgress,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)

	_, _, err := f.svc.SubmitDelivery(ctx, creatorID, projectID, "https://evil.example.com/file", nil)
	assert.True(t, apperror.IsValidation(err))
	f.repo.AssertNotCalled(t, "SubmitDelivery",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_SubmitDelivery_NotAssignedCreator(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	strangerID := uuid.New()
	assignedID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: uuid.New(), AssignedToID: &assignedID,
		Status: models.ProjectStatusInProgress,
	}

	f.users.On("GetByID", ctx, strangerID).Return(activeUser(strangerID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)

	_, _, err := f.svc.SubmitDelivery(ctx, strangerID, projectID, "https://drive.google.com/file/d/abc", nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_SubmitDelivery_ResubmitWhileAwaitingPayment(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	customerID := uuid.New()
	projectID := uuid.New()

	// Работа уже сдана, заказчик заявил оплату: повторная сдача не должна
	// подменить ссылку на результат.
	delivered := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Budget: 15000, Status: models.ProjectStatusDelivered,
	}
	accepted := &models.Application{ProjectID: projectID, CreatorID: creatorID, Quote: 12000}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(delivered, nil)
	f.applications.On("GetAcceptedByProjectID", ctx, projectID).Return(accepted, nil)
	f.repo.On("SubmitDelivery", ctx, projectID, "https://drive.google.com/file/d/other", (*string)(nil), float64(12000)).
		Return(nil, nil, repository.ErrActiveTransactionExists)

	_, _, err := f.svc.SubmitDelivery(ctx, creatorID, projectID, "https://drive.google.com/file/d/other", nil)
	assert.True(t, apperror.IsInvalidState(err))
	f.notifier.AssertNotCalled(t, "Notify",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_SubmitDelivery_NotInProgress(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: uuid.New(), AssignedToID: &creatorID,
		Status: models.ProjectStatusCompleted,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)

	_, _, err := f.svc.SubmitDelivery(ctx, creatorID, projectID, "https://drive.google.com/file/d/abc", nil)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestProjectService_SoftDelete_ByAdminAudited(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	adminID := uuid.New()
	customerID := uuid.New()
	creatorID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Status: models.ProjectStatusAssigned,
	}
	deleted := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Status: models.ProjectStatusCancelled,
	}

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)
	f.repo.On("SoftDelete", ctx, projectID, adminID, "нарушение правил площадки").Return(deleted, nil)
	f.auditor.On("Record", ctx, adminID, "project_deleted", models.AuditSeverityWarning,
		mock.Anything, &customerID, &projectID).Return()
	f.notifier.On("Notify", creatorID, models.NotificationProjectDeleted,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", customerID, models.NotificationProjectDeleted,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.SoftDelete(ctx, adminID, projectID, "нарушение правил площадки")
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCancelled, updated.Status)
	f.auditor.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestProjectService_SoftDelete_ByAssignedCreator(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	customerID := uuid.New()
	creatorID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Status: models.ProjectStatusAssigned,
	}
	deleted := &models.Project{
		ID: projectID, PostedByID: customerID, AssignedToID: &creatorID,
		Title: "Логотип", Status: models.ProjectStatusCancelled,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)
	f.repo.On("SoftDelete", ctx, projectID, creatorID, "не потяну сроки").Return(deleted, nil)
	f.notifier.On("Notify", customerID, models.NotificationProjectDeleted,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	_, err := f.svc.SoftDelete(ctx, creatorID, projectID, "не потяну сроки")
	assert.NoError(t, err)
	f.notifier.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "Notify", creatorID,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.auditor.AssertNotCalled(t, "Record",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_SoftDelete_StrangerForbidden(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	strangerID := uuid.New()
	projectID := uuid.New()

	project := &models.Project{ID: projectID, PostedByID: uuid.New(), Status: models.ProjectStatusOpen}

	f.users.On("GetByID", ctx, strangerID).Return(activeUser(strangerID, models.RoleCustomer), nil)
	f.repo.On("GetByID", ctx, projectID).Return(project, nil)

	_, err := f.svc.SoftDelete(ctx, strangerID, projectID, "передумал")
	assert.True(t, apperror.IsForbidden(err))
}

func TestProjectService_Leave(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	customerID := uuid.New()
	projectID := uuid.New()

	reopened := &models.Project{
		ID: projectID, PostedByID: customerID,
		Title: "Логотип", Status: models.ProjectStatusOpen, CreatorLeft: true,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("Leave", ctx, projectID, creatorID).Return(reopened, nil, nil)
	f.notifier.On("Notify", customerID, models.NotificationCreatorLeft,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.Leave(ctx, creatorID, projectID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOpen, updated.Status)
	assert.True(t, updated.CreatorLeft)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, models.NotificationPaymentFailed,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_Leave_ClaimedPaymentVoided(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	customerID := uuid.New()
	adminID := uuid.New()
	projectID := uuid.New()

	reopened := &models.Project{
		ID: projectID, PostedByID: customerID,
		Title: "Логотип", Status: models.ProjectStatusOpen, CreatorLeft: true,
	}
	failed := &models.Transaction{
		ID: uuid.New(), ProjectID: projectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusFailed, CustomerConfirmed: true,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("Leave", ctx, projectID, creatorID).Return(reopened, failed, nil)
	f.admins.On("ListAdmins", ctx).Return([]models.User{{ID: adminID}}, nil)
	f.notifier.On("Notify", customerID, models.NotificationCreatorLeft,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", customerID, models.NotificationPaymentFailed,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", adminID, models.NotificationPaymentFailed,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	_, err := f.svc.Leave(ctx, creatorID, projectID)
	assert.NoError(t, err)
	f.notifier.AssertExpectations(t)
}

func TestProjectService_Reassign_TargetMustBeCreator(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	adminID := uuid.New()
	targetID := uuid.New()

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.users.On("GetByID", ctx, targetID).Return(activeUser(targetID, models.RoleCustomer), nil)

	_, err := f.svc.Reassign(ctx, adminID, uuid.New(), targetID)
	assert.True(t, apperror.IsValidation(err))
}

func TestProjectService_ForceComplete(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	adminID := uuid.New()
	projectID := uuid.New()

	completed := &models.Project{ID: projectID, Title: "Логотип", Status: models.ProjectStatusCompleted}
	transaction := &models.Transaction{
		ID: uuid.New(), ProjectID: projectID,
		CustomerID: uuid.New(), CreatorID: uuid.New(),
		Status: models.TransactionStatusCompleted,
	}

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.repo.On("ForceComplete", ctx, projectID).Return(completed, transaction, nil)
	f.auditor.On("Record", ctx, adminID, "project_force_completed", models.AuditSeverityCritical,
		mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", mock.Anything, models.NotificationPaymentReceived,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Twice()

	updated, err := f.svc.ForceComplete(ctx, adminID, projectID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, updated.Status)
	f.notifier.AssertExpectations(t)
}

func TestProjectService_ForceComplete_NoActiveTransaction(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()
	adminID := uuid.New()
	projectID := uuid.New()

	completed := &models.Project{ID: projectID, Title: "Логотип", Status: models.ProjectStatusCompleted}

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.repo.On("ForceComplete", ctx, projectID).Return(completed, nil, nil)
	f.auditor.On("Record", ctx, adminID, "project_force_completed", models.AuditSeverityCritical,
		mock.Anything, mock.Anything, mock.Anything).Return()

	_, err := f.svc.ForceComplete(ctx, adminID, projectID)
	assert.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Notify",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_List_UnknownStatus(t *testing.T) {
	f := newProjectFixture()

	_, err := f.svc.List(context.Background(), "archived", "", 10, 0)
	assert.True(t, apperror.IsValidation(err))
}
