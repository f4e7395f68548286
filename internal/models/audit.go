package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog фиксирует административное действие: принудительное завершение,
// выпуск или возврат средств, блокировку пользователя, разрешение спора.
type AuditLog struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AdminID      uuid.UUID  `db:"admin_id" json:"admin_id"`
	Action       string     `db:"action" json:"action"`
	Severity     string     `db:"severity" json:"severity"`
	Description  string     `db:"description" json:"description"`
	TargetUserID *uuid.UUID `db:"target_user_id" json:"target_user_id,omitempty"`
	ProjectID    *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
