package handlers

import (
	"net/http"
	"strconv"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler holds the inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// CreateStoreProduct registers a new raw stock item.
func (h *InventoryHandler) CreateStoreProduct(c *gin.Context) {
	var storeProduct models.StoreProduct
	if err := c.ShouldBindJSON(&storeProduct); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	if err := h.inventoryService.CreateStoreProduct(&storeProduct); err != nil {
		respondServiceError(c, err, "create store product")
		return
	}
	c.JSON(http.StatusCreated, storeProduct)
}

// GetStoreProducts lists raw stock items with pagination.
func (h *InventoryHandler) GetStoreProducts(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	storeProducts, totalCount, err := h.inventoryService.GetStoreProducts(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch store products")
		return
	}
	if storeProducts == nil {
		storeProducts = []models.StoreProduct{}
	}
	c.JSON(http.StatusOK, pagedResponse(storeProducts, totalCount, page, pageSize))
}

// GetStoreProductByID fetches one raw stock item.
func (h *InventoryHandler) GetStoreProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	storeProduct, err := h.inventoryService.GetStoreProductByID(id)
	if err != nil {
		respondServiceError(c, err, "fetch store product")
		return
	}
	c.JSON(http.StatusOK, storeProduct)
}

// restockRequest is the payload for a restock.
type restockRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason"`
}

// RestockStoreProduct adds stock and stamps last_restocked_at.
func (h *InventoryHandler) RestockStoreProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	storeProduct, err := h.inventoryService.RestockStoreProduct(id, req.Quantity, req.Reason)
	if err != nil {
		respondServiceError(c, err, "restock store product")
		return
	}
	c.JSON(http.StatusOK, storeProduct)
}

// adjustStockRequest is the payload for a manual stock correction.
type adjustStockRequest struct {
	Delta   int    `json:"delta" binding:"required"`
	LogType string `json:"log_type" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// AdjustStock applies a signed manual correction (adjustment or damage).
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if !models.IsValidInventoryLogType(req.LogType) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid log_type.", "unknown log type: "+req.LogType))
		return
	}

	storeProduct, err := h.inventoryService.AdjustStock(id, req.Delta, models.InventoryLogType(req.LogType), req.Reason)
	if err != nil {
		respondServiceError(c, err, "adjust store product stock")
		return
	}
	c.JSON(http.StatusOK, storeProduct)
}

// GetInventoryLogs lists audit log entries with filters.
func (h *InventoryHandler) GetInventoryLogs(c *gin.Context) {
	var filters models.InventoryLogFilters

	if spIDStr := c.Query("store_product_id"); spIDStr != "" {
		spID, err := strconv.ParseInt(spIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid store_product_id format.", err.Error()))
			return
		}
		filters.StoreProductID = &spID
	}
	if logType := c.Query("log_type"); logType != "" {
		if !models.IsValidInventoryLogType(logType) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid log_type filter.", "unknown log type: "+logType))
			return
		}
		filters.LogType = &logType
	}

	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	logs, totalCount, err := h.inventoryService.GetLogs(filters)
	if err != nil {
		respondServiceError(c, err, "fetch inventory logs")
		return
	}
	if logs == nil {
		logs = []models.InventoryLog{}
	}
	c.JSON(http.StatusOK, pagedResponse(logs, totalCount, page, pageSize))
}
