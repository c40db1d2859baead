package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto the standard API error
// shape. Anything unrecognized is reported as a 500 with the details hidden.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrWaiterNotFound),
		errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrStoreProductNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))

	case errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInsufficientIngredientStock),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, repositories.ErrDuplicateKey):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))

	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInvalidOrderStatus),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrOrderNotModifiable),
		errors.Is(err, services.ErrCancelCompletedOrder),
		errors.Is(err, services.ErrAccompanimentSelection),
		errors.Is(err, services.ErrTableRequired):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))

	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), ""))

	case errors.Is(err, services.ErrUserInactive):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), ""))

	default:
		utils.LogError(err, action)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}

// parseIDParam reads an int64 path parameter. On failure it writes the 400
// response itself and returns false.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

// parsePagination reads page/page_size query parameters with defaults.
func parsePagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = 1, 10
	if pageStr := c.Query("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return 0, 0, false
		}
		page = parsed
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		parsed, err := strconv.Atoi(pageSizeStr)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return 0, 0, false
		}
		pageSize = parsed
	}
	return page, pageSize, true
}

// pagedResponse is the standard list envelope.
func pagedResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
