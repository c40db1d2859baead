package models

import "time"

// OrderStatus defines the type for order and order-item statuses.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValidOrderStatus checks if the provided status string is a valid OrderStatus.
func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusPending,
		OrderStatusPreparing,
		OrderStatusReady,
		OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// orderStatusRank orders the forward progression pending, preparing, ready, completed.
// Cancelled sits outside the progression and is handled separately.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusPreparing: 1,
	OrderStatusReady:     2,
	OrderStatusCompleted: 3,
}

// CanTransitionTo reports whether a status change from s to next is allowed.
// Forward-only along the progression; cancelled is reachable from any
// non-terminal status; terminal statuses are final.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	fromRank, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// OrderType defines the type for order kinds.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeAway OrderType = "take_away"
)

// IsValidOrderType checks if the provided string is a valid OrderType.
func IsValidOrderType(orderType string) bool {
	switch OrderType(orderType) {
	case OrderTypeDineIn, OrderTypeTakeAway:
		return true
	default:
		return false
	}
}

// Order represents a waiter-created order against an optional table.
type Order struct {
	ID             int64       `json:"id" db:"id"`
	WaiterID       int64       `json:"waiter_id" db:"waiter_id"`
	TableID        *int64      `json:"table_id,omitempty" db:"table_id"`
	Status         OrderStatus `json:"status" db:"status"`
	OrderType      OrderType   `json:"order_type" db:"order_type"`
	IsPartnerOrder bool        `json:"is_partner_order" db:"is_partner_order"`
	TotalAmount    float64     `json:"total_amount" db:"total_amount"`
	Notes          *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	OrderItems     []OrderItem `json:"order_items,omitempty"`
	WaiterName     *string     `json:"waiter_name,omitempty"`  // Joined from users
	TableNumber    *int        `json:"table_number,omitempty"` // Joined from cafe_tables
}

// OrderItem represents one line of an order. UnitPrice is captured at order
// time (product price plus selected accompaniment extra charges) and never
// changes afterwards.
type OrderItem struct {
	ID             int64                    `json:"id" db:"id"`
	OrderID        int64                    `json:"order_id" db:"order_id"`
	ProductID      int64                    `json:"product_id" db:"product_id"`
	Quantity       int                      `json:"quantity" db:"quantity"`
	UnitPrice      float64                  `json:"unit_price" db:"unit_price"`
	Subtotal       float64                  `json:"subtotal" db:"subtotal"`
	Status         OrderStatus              `json:"status" db:"status"`
	Notes          *string                  `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at" db:"updated_at"`
	Accompaniments []OrderItemAccompaniment `json:"accompaniments,omitempty"`
	ProductName    *string                  `json:"product_name,omitempty"` // Joined from products
	Product        *Product                 `json:"product,omitempty"`
}

// OrderItemAccompaniment records one selected accompaniment on an order item,
// with the extra charge snapshotted at order time.
type OrderItemAccompaniment struct {
	ID                int64   `json:"id" db:"id"`
	OrderItemID       int64   `json:"order_item_id" db:"order_item_id"`
	AccompanimentID   int64   `json:"accompaniment_id" db:"accompaniment_id"`
	PriceAtOrder      float64 `json:"price_at_order" db:"price_at_order"`
	AccompanimentName *string `json:"accompaniment_name,omitempty"` // Joined from accompaniments
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	WaiterID  *int64  `form:"waiter_id"`
	TableID   *int64  `form:"table_id"`
	Status    *string `form:"status"`
	OrderType *string `form:"order_type"`
	Date      *string `form:"date"` // Expected format YYYY-MM-DD
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
