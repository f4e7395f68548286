package service

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/creatilink/marketplace-backend/internal/models"
	"github.com/creatilink/marketplace-backend/internal/pkg/apperror"
	"github.com/creatilink/marketplace-backend/internal/repository"
)

type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) GetActiveByProjectID(ctx context.Context, projectID uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ConfirmByCustomer(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ConfirmByCreator(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) RejectByCreator(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) AdminRelease(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) AdminRefund(ctx context.Context, id uuid.UUID, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) AttachScreenshot(ctx context.Context, id uuid.UUID, path string) (*models.Transaction, error) {
	args := m.Called(ctx, id, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type mockGuardUsers struct {
	mock.Mock
}

func (m *mockGuardUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(userID uuid.UUID, kind, title, message string, projectID, transactionID *uuid.UUID) {
	m.Called(userID, kind, title, message, projectID, transactionID)
}

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Record(ctx context.Context, adminID uuid.UUID, action, severity, description string, targetUserID, projectID *uuid.UUID) {
	m.Called(ctx, adminID, action, severity, description, targetUserID, projectID)
}

type mockScreenshotStore struct {
	mock.Mock
}

func (m *mockScreenshotStore) Save(ctx context.Context, transactionID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	args := m.Called(ctx, transactionID, originalName, r)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

type transactionFixture struct {
	repo     *mockTransactionRepo
	users    *mockGuardUsers
	notifier *mockNotifier
	auditor  *mockAuditor
	store    *mockScreenshotStore
	svc      *TransactionService
}

func newTransactionFixture() *transactionFixture {
	f := &transactionFixture{
		repo:     new(mockTransactionRepo),
		users:    new(mockGuardUsers),
		notifier: new(mockNotifier),
		auditor:  new(mockAuditor),
		store:    new(mockScreenshotStore),
	}
	f.svc = NewTransactionService(f.repo, NewGuard(f.users), f.notifier, f.auditor, f.store)
	return f
}

func activeUser(id uuid.UUID, role string) *models.User {
	return &models.User{ID: id, Role: role, IsActive: true}
}

func TestTransactionService_CustomerConfirm_FirstFlag(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	creatorID := uuid.New()
	txID := uuid.New()
	projectID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: projectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending,
	}
	claimed := &models.Transaction{
		ID: txID, ProjectID: projectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending, CustomerConfirmed: true,
	}

	f.users.On("GetByID", ctx, customerID).Return(activeUser(customerID, models.RoleCustomer), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)
	f.repo.On("ConfirmByCustomer", ctx, txID).Return(claimed, nil)
	f.notifier.On("Notify", creatorID, models.NotificationPaymentClaimed,
		mock.Anything, mock.Anything, &claimed.ProjectID, &claimed.ID).Return()

	updated, err := f.svc.CustomerConfirm(ctx, customerID, txID)
	assert.NoError(t, err)
	assert.True(t, updated.CustomerConfirmed)
	assert.Equal(t, models.TransactionStatusPending, updated.Status)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestTransactionService_CustomerConfirm_CompletesAfterCreator(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	creatorID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending, CreatorConfirmed: true,
	}
	completed := &models.Transaction{
		ID: txID, ProjectID: pending.ProjectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status:            models.TransactionStatusCompleted,
		CustomerConfirmed: true, CreatorConfirmed: true,
	}

	f.users.On("GetByID", ctx, customerID).Return(activeUser(customerID, models.RoleCustomer), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)
	f.repo.On("ConfirmByCustomer", ctx, txID).Return(completed, nil)
	f.notifier.On("Notify", customerID, models.NotificationPaymentReceived,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", creatorID, models.NotificationPaymentReceived,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.CustomerConfirm(ctx, customerID, txID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, updated.Status)
	f.notifier.AssertExpectations(t)
}

func TestTransactionService_CustomerConfirm_WrongActor(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	strangerID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: uuid.New(),
		Status: models.TransactionStatusPending,
	}

	f.users.On("GetByID", ctx, strangerID).Return(activeUser(strangerID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)

	_, err := f.svc.CustomerConfirm(ctx, strangerID, txID)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	f.repo.AssertNotCalled(t, "ConfirmByCustomer", mock.Anything, mock.Anything)
}

func TestTransactionService_CustomerConfirm_Terminal(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	txID := uuid.New()

	refunded := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: uuid.New(),
		Status: models.TransactionStatusRefunded,
	}

	f.users.On("GetByID", ctx, customerID).Return(activeUser(customerID, models.RoleCustomer), nil)
	f.repo.On("GetByID", ctx, txID).Return(refunded, nil)

	_, err := f.svc.CustomerConfirm(ctx, customerID, txID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestTransactionService_CustomerConfirm_BannedActor(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	txID := uuid.New()

	banned := &models.User{ID: customerID, Role: models.RoleCustomer, IsActive: false}
	f.users.On("GetByID", ctx, customerID).Return(banned, nil)

	_, err := f.svc.CustomerConfirm(ctx, customerID, txID)
	assert.True(t, apperror.IsForbidden(err))
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTransactionService_CreatorConfirm_RequiresCustomerFlag(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: uuid.New(), CreatorID: creatorID,
		Status: models.TransactionStatusPending,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)

	_, err := f.svc.CreatorConfirm(ctx, creatorID, txID)
	assert.True(t, apperror.IsInvalidState(err))
	f.repo.AssertNotCalled(t, "ConfirmByCreator", mock.Anything, mock.Anything)
}

func TestTransactionService_CreatorConfirm_Completes(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	creatorID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending, CustomerConfirmed: true,
	}
	completed := &models.Transaction{
		ID: txID, ProjectID: pending.ProjectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status:            models.TransactionStatusCompleted,
		CustomerConfirmed: true, CreatorConfirmed: true,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)
	f.repo.On("ConfirmByCreator", ctx, txID).Return(completed, nil)
	f.notifier.On("Notify", mock.Anything, models.NotificationPaymentReceived,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Twice()

	updated, err := f.svc.CreatorConfirm(ctx, creatorID, txID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, updated.Status)
	f.notifier.AssertExpectations(t)
}

func TestTransactionService_CreatorConfirm_RaceLoser(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: uuid.New(), CreatorID: creatorID,
		Status: models.TransactionStatusPending, CustomerConfirmed: true,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)
	f.repo.On("ConfirmByCreator", ctx, txID).Return(nil, repository.ErrTransactionStateConflict)

	_, err := f.svc.CreatorConfirm(ctx, creatorID, txID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestTransactionService_CreatorReject_ResetsClaim(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	creatorID := uuid.New()
	txID := uuid.New()

	claimed := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending, CustomerConfirmed: true,
	}
	reset := &models.Transaction{
		ID: txID, ProjectID: claimed.ProjectID,
		CustomerID: customerID, CreatorID: creatorID,
		Status: models.TransactionStatusPending, CustomerConfirmed: false,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(claimed, nil)
	f.repo.On("RejectByCreator", ctx, txID, "деньги не поступили").Return(reset, nil)
	f.notifier.On("Notify", customerID, models.NotificationPaymentRejected,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.CreatorReject(ctx, creatorID, txID, "деньги не поступили")
	assert.NoError(t, err)
	assert.False(t, updated.CustomerConfirmed)
	assert.Equal(t, models.TransactionStatusPending, updated.Status)
	f.notifier.AssertExpectations(t)
}

func TestTransactionService_CreatorReject_NoClaim(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	creatorID := uuid.New()
	txID := uuid.New()

	pending := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: uuid.New(), CreatorID: creatorID,
		Status: models.TransactionStatusPending,
	}

	f.users.On("GetByID", ctx, creatorID).Return(activeUser(creatorID, models.RoleCreator), nil)
	f.repo.On("GetByID", ctx, txID).Return(pending, nil)

	_, err := f.svc.CreatorReject(ctx, creatorID, txID, "деньги не поступили")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestTransactionService_AdminRelease(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	adminID := uuid.New()
	txID := uuid.New()

	completed := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: uuid.New(), CreatorID: uuid.New(),
		Status: models.TransactionStatusCompleted,
	}

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.repo.On("AdminRelease", ctx, txID).Return(completed, nil)
	f.auditor.On("Record", ctx, adminID, "payment_released", models.AuditSeverityWarning,
		mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", mock.Anything, models.NotificationPaymentReceived,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Twice()

	updated, err := f.svc.AdminRelease(ctx, adminID, txID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, updated.Status)
	f.auditor.AssertExpectations(t)
}

func TestTransactionService_AdminRelease_NotAdmin(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	userID := uuid.New()

	f.users.On("GetByID", ctx, userID).Return(activeUser(userID, models.RoleCustomer), nil)

	_, err := f.svc.AdminRelease(ctx, userID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
	f.repo.AssertNotCalled(t, "AdminRelease", mock.Anything, mock.Anything)
}

func TestTransactionService_AdminRefund(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	adminID := uuid.New()
	txID := uuid.New()

	refunded := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: uuid.New(), CreatorID: uuid.New(),
		Status: models.TransactionStatusRefunded,
	}

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)
	f.repo.On("AdminRefund", ctx, txID, "оплата не подтверждена").Return(refunded, nil)
	f.auditor.On("Record", ctx, adminID, "payment_refunded", models.AuditSeverityWarning,
		mock.Anything, mock.Anything, mock.Anything).Return()
	f.notifier.On("Notify", mock.Anything, models.NotificationPaymentRefunded,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Twice()

	updated, err := f.svc.AdminRefund(ctx, adminID, txID, "оплата не подтверждена")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, updated.Status)
	f.notifier.AssertExpectations(t)
}

func TestTransactionService_AdminRefund_EmptyReason(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	adminID := uuid.New()

	f.users.On("GetByID", ctx, adminID).Return(activeUser(adminID, models.RoleAdmin), nil)

	_, err := f.svc.AdminRefund(ctx, adminID, uuid.New(), "   ")
	assert.True(t, apperror.IsValidation(err))
}

func TestTransactionService_ListMine_UnknownStatus(t *testing.T) {
	f := newTransactionFixture()

	_, err := f.svc.ListMine(context.Background(), uuid.New(), "granted", 10, 0)
	assert.True(t, apperror.IsValidation(err))
}

func TestTransactionService_Get_ParticipantOrAdmin(t *testing.T) {
	f := newTransactionFixture()
	ctx := context.Background()
	customerID := uuid.New()
	strangerID := uuid.New()
	txID := uuid.New()

	transaction := &models.Transaction{
		ID: txID, ProjectID: uuid.New(),
		CustomerID: customerID, CreatorID: uuid.New(),
		Status: models.TransactionStatusPending,
	}

	f.repo.On("GetByID", ctx, txID).Return(transaction, nil)

	got, err := f.svc.Get(ctx, customerID, txID)
	assert.NoError(t, err)
	assert.Equal(t, transaction, got)

	f.users.On("GetByID", ctx, strangerID).Return(activeUser(strangerID, models.RoleCreator), nil)
	_, err = f.svc.Get(ctx, strangerID, txID)
	assert.True(t, apperror.IsForbidden(err))
}
