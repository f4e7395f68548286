package models

import (
	"time"

	"github.com/google/uuid"
)

// Project описывает размещённый заказчиком проект.
type Project struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PostedByID  uuid.UUID  `db:"posted_by_id" json:"posted_by_id"`
	AssignedToID *uuid.UUID `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Budget      float64    `db:"budget" json:"budget"`
	Status      string     `db:"status" json:"status"`
	Deadline    *time.Time `db:"deadline" json:"deadline,omitempty"`

	// Поля доставки: ссылка на готовую работу вместо загрузки файлов.
	DeliveryLink *string    `db:"delivery_link" json:"delivery_link,omitempty"`
	DeliveryNote *string    `db:"delivery_note" json:"delivery_note,omitempty"`
	DeliveredAt  *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`

	// Мягкое удаление: запись остаётся в базе навсегда.
	DeletedByID    *uuid.UUID `db:"deleted_by_id" json:"deleted_by_id,omitempty"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletionReason *string    `db:"deletion_reason" json:"deletion_reason,omitempty"`

	// Выход исполнителя из проекта.
	CreatorLeft   bool       `db:"creator_left" json:"creator_left"`
	CreatorLeftAt *time.Time `db:"creator_left_at" json:"creator_left_at,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsDeleted сообщает, удалён ли проект мягким удалением.
func (p *Project) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Application представляет отклик исполнителя на проект с его ценой.
type Application struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ProjectID    uuid.UUID `db:"project_id" json:"project_id"`
	CreatorID    uuid.UUID `db:"creator_id" json:"creator_id"`
	Quote        float64   `db:"quote" json:"quote"`
	Message      *string   `db:"message" json:"message,omitempty"`
	DeliveryDays *int      `db:"delivery_days" json:"delivery_days,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
