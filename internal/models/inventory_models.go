package models

import "time"

// StoreProduct represents a raw stock item consumed when products are sold.
// Stock is tracked independently of the sellable product's own stock counter.
type StoreProduct struct {
	ID              int64      `json:"id" db:"id"`
	StoreID         int64      `json:"store_id" db:"store_id"`
	Name            string     `json:"name" db:"name" binding:"required"`
	CurrentStock    int        `json:"current_stock" db:"current_stock"`
	MinimumStock    int        `json:"minimum_stock" db:"minimum_stock"`
	Unit            string     `json:"unit" db:"unit"` // e.g. kg, l, pcs
	PurchasePrice   *float64   `json:"purchase_price,omitempty" db:"purchase_price"`
	LastRestockedAt *time.Time `json:"last_restocked_at,omitempty" db:"last_restocked_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBelowMinimum reports whether current stock sits below the low-stock threshold.
func (sp *StoreProduct) IsBelowMinimum() bool {
	return sp.CurrentStock < sp.MinimumStock
}

// InventoryLogType defines the type for inventory log entries.
type InventoryLogType string

const (
	InventoryLogSale       InventoryLogType = "sale"
	InventoryLogRestock    InventoryLogType = "restock"
	InventoryLogAdjustment InventoryLogType = "adjustment"
	InventoryLogDamage     InventoryLogType = "damage"
)

// IsValidInventoryLogType checks if the provided string is a valid InventoryLogType.
func IsValidInventoryLogType(logType string) bool {
	switch InventoryLogType(logType) {
	case InventoryLogSale, InventoryLogRestock, InventoryLogAdjustment, InventoryLogDamage:
		return true
	default:
		return false
	}
}

// InventoryLog is one append-only audit entry for a store product stock change.
// Entries are never mutated or deleted by the order flow.
type InventoryLog struct {
	ID              int64            `json:"id" db:"id"`
	StoreProductID  int64            `json:"store_product_id" db:"store_product_id"`
	QuantityChanged int              `json:"quantity_changed" db:"quantity_changed"` // Signed delta
	LogType         InventoryLogType `json:"log_type" db:"log_type"`
	Reason          *string          `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	StoreProduct    *StoreProduct    `json:"store_product,omitempty"` // For joining with StoreProduct details
}

// InventoryLogFilters defines the available filters for querying inventory logs.
type InventoryLogFilters struct {
	StoreProductID *int64  `form:"store_product_id"`
	LogType        *string `form:"log_type"`
	Page           int     `form:"page"`
	PageSize       int     `form:"page_size"`
}
