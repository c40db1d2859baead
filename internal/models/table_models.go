package models

import "time"

// TableStatus defines the type for cafe table statuses.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// IsValidTableStatus checks if the provided status string is a valid TableStatus.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	default:
		return false
	}
}

// CafeTable represents a physical table in the cafe.
type CafeTable struct {
	ID          int64       `json:"id" db:"id"`
	TableNumber int         `json:"table_number" db:"table_number" binding:"required"`
	Capacity    int         `json:"capacity" db:"capacity"`
	Status      TableStatus `json:"status" db:"status"`
	Location    *string     `json:"location,omitempty" db:"location"` // e.g. terrace, main hall
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}
