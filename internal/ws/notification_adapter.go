package ws

import (
	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/models"
)

// NotificationSink доставляет сохранённые уведомления подключённым
// клиентам через хаб. Реализует service.NotificationSink.
type NotificationSink struct {
	hub *Hub
}

// NewNotificationSink создаёт новый адаптер.
func NewNotificationSink(hub *Hub) *NotificationSink {
	return &NotificationSink{hub: hub}
}

// Push отправляет уведомление пользователю. Ошибка доставки не
// пробрасывается: запись уведомления уже сохранена.
func (s *NotificationSink) Push(userID uuid.UUID, notification *models.Notification) {
	_ = s.hub.BroadcastToUser(userID, "notification", notification)
}
