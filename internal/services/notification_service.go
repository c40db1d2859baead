package services

import (
	"database/sql"
	"errors"
	"fmt"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// NotificationService exposes the read side of notifications. Creation is
// driven by the inventory ledger when stock crosses its minimum.
type NotificationService interface {
	GetNotificationsForUser(userID int64, page, pageSize int) ([]models.Notification, int, error)
	MarkNotificationRead(id, userID int64) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	db               *sql.DB
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(nr repositories.NotificationRepository, db *sql.DB) NotificationService {
	return &notificationService{notificationRepo: nr, db: db}
}

func (s *notificationService) GetNotificationsForUser(userID int64, page, pageSize int) ([]models.Notification, int, error) {
	notifications, totalCount, err := s.notificationRepo.GetForUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, totalCount, nil
}

func (s *notificationService) MarkNotificationRead(id, userID int64) error {
	if err := s.notificationRepo.MarkRead(s.db, id, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrNotificationNotFound, id)
		}
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return nil
}
