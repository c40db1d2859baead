package handlers

import (
	"net/http"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Register creates a new user account. Restricted to admins at the route level.
func (h *AuthHandler) Register(c *gin.Context) {
	var payload models.RegistrationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	user, err := h.authService.RegisterUser(payload)
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var credentials models.Credentials
	if err := c.ShouldBindJSON(&credentials); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	response, err := h.authService.LoginUser(credentials)
	if err != nil {
		respondServiceError(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, response)
}

// refreshRequest is the payload for token refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a fresh token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	response, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUserProfile(userID)
	if err != nil {
		respondServiceError(c, err, "fetch profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
