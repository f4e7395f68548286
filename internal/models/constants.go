package models

// Роли пользователей платформы.
const (
	RoleCustomer = "customer"
	RoleCreator  = "creator"
	RoleAdmin    = "admin"
)

// Статусы проекта.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusAssigned   = "assigned"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusDelivered  = "delivered"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// ValidProjectStatuses — допустимые статусы проекта.
var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusOpen:       {},
	ProjectStatusAssigned:   {},
	ProjectStatusInProgress: {},
	ProjectStatusDelivered:  {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
}

// Статусы отклика на проект.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusAccepted = "accepted"
	ApplicationStatusRejected = "rejected"
)

// Статусы транзакции. pending — единственный нетерминальный статус:
// из него транзакция уходит в completed, refunded или failed и больше
// не меняется.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRefunded  = "refunded"
	TransactionStatusFailed    = "failed"
)

// Статусы спора.
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
)

// Типы споров.
const (
	DisputeTypeNotDelivered = "not_delivered"
	DisputeTypeWrongAmount  = "wrong_amount"
	DisputeTypePaymentIssue = "payment_issue"
	DisputeTypeQualityIssue = "quality_issue"
	DisputeTypeOther        = "other"
)

// ValidDisputeTypes — допустимые типы споров.
var ValidDisputeTypes = map[string]struct{}{
	DisputeTypeNotDelivered: {},
	DisputeTypeWrongAmount:  {},
	DisputeTypePaymentIssue: {},
	DisputeTypeQualityIssue: {},
	DisputeTypeOther:        {},
}

// Типы уведомлений.
const (
	NotificationDeliverySubmitted = "delivery_submitted"
	NotificationPaymentClaimed    = "payment_claimed"
	NotificationPaymentReceived   = "payment_received"
	NotificationPaymentRejected   = "payment_rejected"
	NotificationPaymentFailed     = "payment_failed"
	NotificationPaymentRefunded   = "payment_refunded"
	NotificationProjectDeleted    = "project_deleted"
	NotificationProjectAssigned   = "project_assigned"
	NotificationCreatorLeft       = "creator_left_project"
	NotificationDisputeRaised     = "dispute_raised"
	NotificationDisputeResolved   = "dispute_resolved"
)

// Уровни важности записей аудита.
const (
	AuditSeverityInfo     = "info"
	AuditSeverityWarning  = "warning"
	AuditSeverityCritical = "critical"
)

// IsTerminalTransactionStatus сообщает, является ли статус транзакции
// терминальным.
func IsTerminalTransactionStatus(status string) bool {
	switch status {
	case TransactionStatusCompleted, TransactionStatusRefunded, TransactionStatusFailed:
		return true
	}
	return false
}
