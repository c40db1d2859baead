package handlers

import (
	"net/http"
	"strconv"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles the creation of a new order with its items.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	createdOrder, err := h.orderService.CreateOrder(req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, createdOrder)
}

// AddOrderItem appends one item to an existing non-terminal order.
func (h *OrderHandler) AddOrderItem(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.AddItemToOrder(orderID, req)
	if err != nil {
		respondServiceError(c, err, "add item to order")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// GetOrders handles fetching orders with filters.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if waiterIDStr := c.Query("waiter_id"); waiterIDStr != "" {
		waiterID, err := strconv.ParseInt(waiterIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid waiter_id format.", err.Error()))
			return
		}
		filters.WaiterID = &waiterID
	}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &tableID
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidOrderStatus(status) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status filter.", "unknown status: "+status))
			return
		}
		filters.Status = &status
	}
	if orderType := c.Query("order_type"); orderType != "" {
		if !models.IsValidOrderType(orderType) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order_type filter.", "unknown order type: "+orderType))
			return
		}
		filters.OrderType = &orderType
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}

	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		respondServiceError(c, err, "fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, pagedResponse(orders, totalCount, page, pageSize))
}

// GetOrderByID handles fetching one order fully materialized with items and
// accompaniment snapshots.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	updatedOrder, err := h.orderService.UpdateOrderStatus(orderID, req)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}

// CancelOrder cancels an order with a required reason, restoring stock.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	cancelledOrder, err := h.orderService.CancelOrder(orderID, req)
	if err != nil {
		respondServiceError(c, err, "cancel order")
		return
	}
	c.JSON(http.StatusOK, cancelledOrder)
}
