package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"cafe_pos_backend/internal/models"
)

// NotificationRepository defines the interface for notification database
// operations. Creation happens inside the caller's transaction so a rolled
// back order never leaves a stray notification behind.
type NotificationRepository interface {
	Create(executor SQLExecutor, notification *models.Notification) (int64, error)
	GetForUser(userID int64, page, pageSize int) ([]models.Notification, int, error)
	MarkRead(executor SQLExecutor, id int64, userID int64) error
}

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(executor SQLExecutor, notification *models.Notification) (int64, error) {
	query := `INSERT INTO notifications (user_id, title, message, type, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		notification.UserID, notification.Title, notification.Message,
		notification.Type, notification.IsRead, notification.CreatedAt,
	).Scan(&notification.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating notification: %v", ErrDatabaseError, err)
	}
	return notification.ID, nil
}

func (r *notificationRepository) GetForUser(userID int64, page, pageSize int) ([]models.Notification, int, error) {
	notifications := []models.Notification{}
	totalCount := 0
	query := `SELECT id, user_id, title, message, type, is_read, created_at,
	                 COUNT(*) OVER() AS total_count
	          FROM notifications
	          WHERE user_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting notifications for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning notification: %v", ErrDatabaseError, err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating notifications: %v", ErrDatabaseError, err)
	}
	return notifications, totalCount, nil
}

func (r *notificationRepository) MarkRead(executor SQLExecutor, id int64, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := executor.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("%w: marking notification ID %d read: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
