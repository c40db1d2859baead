package handlers

import (
	"net/http"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler holds the notification service.
type NotificationHandler struct {
	notificationService services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// currentUserID reads the authenticated user's ID set by the auth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "missing user ID in context"))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve user.", "unexpected user ID type"))
		return 0, false
	}
	return userID, true
}

// GetMyNotifications lists the authenticated user's notifications.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}

	notifications, totalCount, err := h.notificationService.GetNotificationsForUser(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, pagedResponse(notifications, totalCount, page, pageSize))
}

// MarkNotificationRead marks one of the authenticated user's notifications as read.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkNotificationRead(id, userID); err != nil {
		respondServiceError(c, err, "mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read."})
}
