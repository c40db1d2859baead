package handlers

import (
	"net/http"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table service.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

// CreateTable registers a new cafe table.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.CreateTable(req)
	if err != nil {
		respondServiceError(c, err, "create table")
		return
	}
	c.JSON(http.StatusCreated, table)
}

// GetTables lists cafe tables with pagination.
func (h *TableHandler) GetTables(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	tables, totalCount, err := h.tableService.GetTables(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch tables")
		return
	}
	if tables == nil {
		tables = []models.CafeTable{}
	}
	c.JSON(http.StatusOK, pagedResponse(tables, totalCount, page, pageSize))
}

// GetTableByID fetches one cafe table.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	table, err := h.tableService.GetTableByID(id)
	if err != nil {
		respondServiceError(c, err, "fetch table")
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTableStatus manually changes a table's status, e.g. to reserved.
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.UpdateTableStatus(id, req)
	if err != nil {
		respondServiceError(c, err, "update table status")
		return
	}
	c.JSON(http.StatusOK, table)
}
