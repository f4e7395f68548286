package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute представляет спор участника сделки по транзакции.
type Dispute struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TransactionID uuid.UUID  `db:"transaction_id" json:"transaction_id"`
	RaisedByID    uuid.UUID  `db:"raised_by_id" json:"raised_by_id"`
	DisputeType   string     `db:"dispute_type" json:"dispute_type"`
	Description   string     `db:"description" json:"description"`
	Status        string     `db:"status" json:"status"`
	Resolution    *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedByID  *uuid.UUID `db:"resolved_by_id" json:"resolved_by_id,omitempty"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// IsResolved сообщает, разрешён ли спор.
func (d *Dispute) IsResolved() bool {
	return d.Status == DisputeStatusResolved
}
