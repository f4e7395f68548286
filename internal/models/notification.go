package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification представляет уведомление пользователя.
type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Kind          string     `db:"kind" json:"kind"`
	Title         string     `db:"title" json:"title"`
	Message       string     `db:"message" json:"message"`
	ProjectID     *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	TransactionID *uuid.UUID `db:"transaction_id" json:"transaction_id,omitempty"`
	IsRead        bool       `db:"is_read" json:"is_read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
