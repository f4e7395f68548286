package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction представляет эскроу-транзакцию по проекту. Оплата проходит
// вне платформы, запись фиксирует двустороннее подтверждение: заказчик
// подтверждает отправку, исполнитель — получение.
type Transaction struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProjectID  uuid.UUID `db:"project_id" json:"project_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	CreatorID  uuid.UUID `db:"creator_id" json:"creator_id"`
	Amount     float64   `db:"amount" json:"amount"`
	Status     string    `db:"status" json:"status"`

	// Флаги двустороннего подтверждения оплаты.
	CustomerConfirmed  bool       `db:"customer_confirmed" json:"customer_confirmed"`
	CreatorConfirmed   bool       `db:"creator_confirmed" json:"creator_confirmed"`
	PaymentConfirmedAt *time.Time `db:"payment_confirmed_at" json:"payment_confirmed_at,omitempty"`

	// Скриншот оплаты — необязательное доказательство от заказчика.
	PaymentScreenshot *string `db:"payment_screenshot" json:"payment_screenshot,omitempty"`

	// Причина отклонения или возврата, если была указана.
	StatusReason *string `db:"status_reason" json:"status_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsTerminal сообщает, находится ли транзакция в терминальном статусе.
func (t *Transaction) IsTerminal() bool {
	return IsTerminalTransactionStatus(t.Status)
}
