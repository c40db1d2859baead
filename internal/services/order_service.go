package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_pos_backend/internal/events"
	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderItemRequest is used for creating individual order items.
type CreateOrderItemRequest struct {
	ProductID        int64   `json:"product_id" binding:"required"`
	Quantity         int     `json:"quantity" binding:"required,gt=0"`
	Notes            string  `json:"notes"`
	AccompanimentIDs []int64 `json:"accompaniment_ids"`
}

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	WaiterID       int64                    `json:"waiter_id" binding:"required"`
	TableID        *int64                   `json:"table_id"`
	OrderType      string                   `json:"order_type" binding:"required"`
	IsPartnerOrder bool                     `json:"is_partner_order"`
	Notes          *string                  `json:"notes"`
	OrderItems     []CreateOrderItemRequest `json:"order_items" binding:"required,dive"`
}

// UpdateOrderStatusRequest is used for updating the status of an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CancelOrderRequest is used for cancelling an order.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- OrderService Interface ---

// OrderService orchestrates the order lifecycle: creation, item appends,
// status transitions, and cancellation with compensating stock restoration.
// Every mutation of stock, table state, and notifications happens inside one
// database transaction; only the order-created event publish runs after
// commit, best-effort.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	AddItemToOrder(orderID int64, req CreateOrderItemRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	CancelOrder(orderID int64, req CancelOrderRequest) (*models.Order, error)
}

type orderService struct {
	orderRepo     repositories.OrderRepository
	productRepo   repositories.ProductRepository
	accompRepo    repositories.AccompanimentRepository
	tableRepo     repositories.TableRepository
	userRepo      repositories.UserRepository
	inventorySvc  InventoryService
	publisher     events.Publisher
	clock         utils.Clock
	db            *sql.DB // For managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	pr repositories.ProductRepository,
	ar repositories.AccompanimentRepository,
	tr repositories.TableRepository,
	ur repositories.UserRepository,
	is InventoryService,
	pub events.Publisher,
	clock utils.Clock,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:    or,
		productRepo:  pr,
		accompRepo:   ar,
		tableRepo:    tr,
		userRepo:     ur,
		inventorySvc: is,
		publisher:    pub,
		clock:        clock,
		db:           db,
	}
}

// pricedItem carries the outcome of per-item validation and pricing, so the
// mutation phase never has to re-derive prices.
type pricedItem struct {
	req       CreateOrderItemRequest
	product   *models.Product
	selected  []models.Accompaniment
	unitPrice float64
	subtotal  float64
}

// validateAndPriceItem performs the full per-item check (product exists and is
// available, stock suffices, accompaniment selection passes) and computes the
// unit price as product price plus selected extra charges. No mutation happens
// here; a failure leaves nothing to undo.
func (s *orderService) validateAndPriceItem(executor repositories.SQLExecutor, req CreateOrderItemRequest) (*pricedItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity for product ID %d must be positive", ErrValidation, req.ProductID)
	}

	product, err := s.productRepo.GetProductWithIngredients(executor, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", req.ProductID, err)
	}
	if !product.IsAvailable {
		return nil, fmt.Errorf("%w: %s (ID: %d)", ErrProductUnavailable, product.Name, product.ID)
	}
	if product.Stock < req.Quantity {
		return nil, fmt.Errorf("%w: %s (ID: %d). Requested: %d, Available: %d",
			ErrInsufficientStock, product.Name, product.ID, req.Quantity, product.Stock)
	}

	groups, err := s.accompRepo.GetGroupsForProduct(executor, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accompaniment groups for product %d: %w", req.ProductID, err)
	}
	if violations := ValidateSelectionAgainstGroups(groups, req.AccompanimentIDs); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrAccompanimentSelection, product.Name, strings.Join(violations, "; "))
	}

	selectedSet := make(map[int64]bool, len(req.AccompanimentIDs))
	for _, id := range req.AccompanimentIDs {
		selectedSet[id] = true
	}
	var selected []models.Accompaniment
	var extraCharges float64
	for _, group := range groups {
		for _, a := range group.Accompaniments {
			if selectedSet[a.ID] {
				selected = append(selected, a)
				extraCharges += a.ExtraCharge
			}
		}
	}

	unitPrice := product.Price + extraCharges
	return &pricedItem{
		req:       req,
		product:   product,
		selected:  selected,
		unitPrice: unitPrice,
		subtotal:  unitPrice * float64(req.Quantity),
	}, nil
}

// applyItemEffects persists the order item with its accompaniment price
// snapshots and performs the stock side of the sale: conditional product
// stock decrement plus ceil-rounded ingredient deductions through the
// inventory ledger.
func (s *orderService) applyItemEffects(tx *sql.Tx, orderID int64, priced *pricedItem) (*models.OrderItem, error) {
	now := s.clock.Now()

	if _, err := s.productRepo.DecrementStock(tx, priced.product.ID, priced.req.Quantity, now); err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %s (ID: %d)", ErrInsufficientStock, priced.product.Name, priced.product.ID)
		}
		return nil, fmt.Errorf("failed to decrement stock for product %d: %w", priced.product.ID, err)
	}

	item := models.OrderItem{
		OrderID:   orderID,
		ProductID: priced.product.ID,
		Quantity:  priced.req.Quantity,
		UnitPrice: priced.unitPrice,
		Subtotal:  priced.subtotal,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if priced.req.Notes != "" {
		notes := priced.req.Notes
		item.Notes = &notes
	}
	if _, err := s.orderRepo.CreateOrderItem(tx, &item); err != nil {
		return nil, fmt.Errorf("failed to create order item (product_id: %d): %w", priced.product.ID, err)
	}

	for _, accompaniment := range priced.selected {
		snapshot := models.OrderItemAccompaniment{
			OrderItemID:     item.ID,
			AccompanimentID: accompaniment.ID,
			PriceAtOrder:    accompaniment.ExtraCharge,
		}
		if _, err := s.orderRepo.CreateItemAccompaniment(tx, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to snapshot accompaniment %d for order item %d: %w", accompaniment.ID, item.ID, err)
		}
	}

	for _, ingredient := range priced.product.Ingredients {
		deduction := CeilUnits(ingredient.QuantityPerUnit, priced.req.Quantity)
		if deduction == 0 {
			continue
		}
		reason := fmt.Sprintf("Sale for order #%d", orderID)
		if _, err := s.inventorySvc.ApplyStockChange(tx, ingredient.StoreProductID, -deduction, models.InventoryLogSale, reason, now); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if !models.IsValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("%w: order type %s", ErrValidation, req.OrderType)
	}
	if len(req.OrderItems) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	if models.OrderType(req.OrderType) == models.OrderTypeDineIn && req.TableID == nil {
		return nil, ErrTableRequired
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	waiter, err := s.userRepo.GetActiveUserByID(tx, req.WaiterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrWaiterNotFound, req.WaiterID)
		}
		return nil, fmt.Errorf("failed to fetch waiter %d: %w", req.WaiterID, err)
	}

	var table *models.CafeTable
	if req.TableID != nil {
		table, err = s.tableRepo.GetTableByID(tx, *req.TableID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, *req.TableID)
			}
			return nil, fmt.Errorf("failed to fetch table %d: %w", *req.TableID, err)
		}
	}

	// Validation and pricing first; nothing is written until every item passes.
	pricedItems := make([]*pricedItem, 0, len(req.OrderItems))
	var totalAmount float64
	for _, itemReq := range req.OrderItems {
		priced, err := s.validateAndPriceItem(tx, itemReq)
		if err != nil {
			return nil, err
		}
		pricedItems = append(pricedItems, priced)
		totalAmount += priced.subtotal
	}

	now := s.clock.Now()
	order := models.Order{
		WaiterID:       req.WaiterID,
		TableID:        req.TableID,
		Status:         models.OrderStatusPending,
		OrderType:      models.OrderType(req.OrderType),
		IsPartnerOrder: req.IsPartnerOrder,
		TotalAmount:    totalAmount,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.orderRepo.CreateOrder(tx, &order); err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	eventItems := make([]events.OrderCreatedItem, 0, len(pricedItems))
	for _, priced := range pricedItems {
		item, err := s.applyItemEffects(tx, order.ID, priced)
		if err != nil {
			return nil, err
		}
		eventItems = append(eventItems, events.OrderCreatedItem{
			ProductID:           priced.product.ID,
			ProductName:         priced.product.Name,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			PreparationLocation: priced.product.PreparationLocation,
		})
	}

	if table != nil {
		if err := s.tableRepo.UpdateStatus(tx, table.ID, models.TableStatusOccupied, now); err != nil {
			return nil, fmt.Errorf("failed to mark table %d occupied: %w", table.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	// Post-commit, best-effort: a failed publish is logged, never surfaced.
	event := events.OrderCreatedEvent{
		OrderID:     order.ID,
		WaiterID:    waiter.ID,
		OrderType:   order.OrderType,
		TotalAmount: totalAmount,
		Items:       eventItems,
		CreatedAt:   now,
	}
	if waiter.FullName != nil {
		event.WaiterName = *waiter.FullName
	}
	if table != nil {
		num := table.TableNumber
		event.TableNumber = &num
	}
	if err := s.publisher.PublishOrderCreated(context.Background(), event); err != nil {
		utils.LogError(err, fmt.Sprintf("Failed to publish order-created event for order %d", order.ID))
	}

	return s.GetOrderByID(order.ID)
}

func (s *orderService) AddItemToOrder(orderID int64, req CreateOrderItemRequest) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order %d is %s", ErrOrderNotModifiable, orderID, order.Status)
	}

	priced, err := s.validateAndPriceItem(tx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyItemEffects(tx, orderID, priced); err != nil {
		return nil, err
	}
	if err := s.orderRepo.AddToOrderTotal(tx, orderID, priced.subtotal, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to update total for order %d: %w", orderID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit add-item transaction: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(s.db, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order %d: %w", orderID, err)
	}
	snapshots, err := s.orderRepo.GetItemAccompanimentsByOrderID(s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item accompaniments for order %d: %w", orderID, err)
	}

	byItem := make(map[int64][]models.OrderItemAccompaniment)
	for _, snapshot := range snapshots {
		byItem[snapshot.OrderItemID] = append(byItem[snapshot.OrderItemID], snapshot)
	}
	for i := range items {
		items[i].Accompaniments = byItem[items[i].ID]
	}
	order.OrderItems = items

	return order, nil
}

func (s *orderService) UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}
	newStatus := models.OrderStatus(req.Status)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}

	if newStatus == models.OrderStatusCancelled {
		if order.Status == models.OrderStatusCompleted {
			return nil, ErrCancelCompletedOrder
		}
		if order.Status == models.OrderStatusCancelled {
			return nil, fmt.Errorf("%w: order %d is already cancelled", ErrInvalidStatusTransition, orderID)
		}
		if err := s.cancelInTx(tx, order, "Cancelled via status update"); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction for order cancellation: %w", err)
		}
		return s.GetOrderByID(orderID)
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, order.Status, newStatus)
	}

	now := s.clock.Now()
	if newStatus == models.OrderStatusCompleted {
		if err := s.orderRepo.MarkOrderCompleted(tx, orderID, now); err != nil {
			return nil, fmt.Errorf("failed to mark order %d completed: %w", orderID, err)
		}
		if err := s.orderRepo.CompleteActiveItems(tx, orderID, now); err != nil {
			return nil, fmt.Errorf("failed to complete items for order %d: %w", orderID, err)
		}
		if err := s.releaseTableIfFree(tx, order.TableID, now); err != nil {
			return nil, err
		}
	} else {
		if err := s.orderRepo.UpdateOrderStatus(tx, orderID, newStatus, now); err != nil {
			return nil, fmt.Errorf("failed to update order status in repository: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction for order status update: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) CancelOrder(orderID int64, req CancelOrderRequest) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.GetOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for cancellation: %w", err)
	}
	if order.Status == models.OrderStatusCompleted {
		return nil, ErrCancelCompletedOrder
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %d is already cancelled", ErrInvalidStatusTransition, orderID)
	}

	if err := s.cancelInTx(tx, order, req.Reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation transaction: %w", err)
	}
	return s.GetOrderByID(orderID)
}

// cancelInTx is the compensating transaction for creation: it restores product
// stock and the same ceil-rounded ingredient amounts that creation deducted,
// cancels the remaining items, and releases the table if no other active
// order holds it. Restoration is quantity-based, so later price changes have
// no effect on what comes back.
func (s *orderService) cancelInTx(tx *sql.Tx, order *models.Order, reason string) error {
	now := s.clock.Now()

	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch order items for stock return: %w", err)
	}

	for _, item := range items {
		if item.Status == models.OrderStatusCancelled {
			continue
		}
		product, err := s.productRepo.GetProductWithIngredients(tx, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to fetch product %d for stock return: %w", item.ProductID, err)
		}
		if _, err := s.productRepo.RestoreStock(tx, item.ProductID, item.Quantity, now); err != nil {
			return fmt.Errorf("failed to return stock for product %d: %w", item.ProductID, err)
		}
		for _, ingredient := range product.Ingredients {
			restored := CeilUnits(ingredient.QuantityPerUnit, item.Quantity)
			if restored == 0 {
				continue
			}
			returnReason := fmt.Sprintf("Stock return for cancelled order #%d", order.ID)
			if _, err := s.inventorySvc.ApplyStockChange(tx, ingredient.StoreProductID, restored, models.InventoryLogAdjustment, returnReason, now); err != nil {
				return err
			}
		}
	}

	if err := s.orderRepo.CancelActiveItems(tx, order.ID, now); err != nil {
		return fmt.Errorf("failed to cancel items for order %d: %w", order.ID, err)
	}
	if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, models.OrderStatusCancelled, now); err != nil {
		return fmt.Errorf("failed to set order %d cancelled: %w", order.ID, err)
	}
	if err := s.orderRepo.AppendOrderNotes(tx, order.ID, "Cancelled: "+reason, now); err != nil {
		return fmt.Errorf("failed to append cancellation reason for order %d: %w", order.ID, err)
	}
	return s.releaseTableIfFree(tx, order.TableID, now)
}

// releaseTableIfFree applies the occupancy rule: a table is occupied if and
// only if it still has at least one non-terminal order. Evaluated inside the
// same transaction as the status change that might have freed it.
func (s *orderService) releaseTableIfFree(tx *sql.Tx, tableID *int64, now time.Time) error {
	if tableID == nil {
		return nil
	}
	activeCount, err := s.orderRepo.CountActiveOrdersForTable(tx, *tableID)
	if err != nil {
		return fmt.Errorf("failed to count active orders for table %d: %w", *tableID, err)
	}
	if activeCount == 0 {
		if err := s.tableRepo.UpdateStatus(tx, *tableID, models.TableStatusAvailable, now); err != nil {
			return fmt.Errorf("failed to release table %d: %w", *tableID, err)
		}
	}
	return nil
}
