package models

import "time"

// NotificationType defines the type for notifications.
type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationGeneral  NotificationType = "general"
)

// IsValidNotificationType checks if the provided string is a valid NotificationType.
func IsValidNotificationType(notificationType string) bool {
	switch NotificationType(notificationType) {
	case NotificationLowStock, NotificationGeneral:
		return true
	default:
		return false
	}
}

// Notification is a record-level notification for a user. Delivery beyond
// record creation is handled by external collaborators.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
