package models

import "time"

// PreparationLocation defines where an ordered product is prepared.
type PreparationLocation string

const (
	PreparationKitchen PreparationLocation = "kitchen"
	PreparationBar     PreparationLocation = "bar"
)

// IsValidPreparationLocation checks if the provided string is a valid PreparationLocation.
func IsValidPreparationLocation(location string) bool {
	switch PreparationLocation(location) {
	case PreparationKitchen, PreparationBar:
		return true
	default:
		return false
	}
}

// Product represents a sellable menu item.
type Product struct {
	ID                  int64               `json:"id" db:"id"`
	Name                string              `json:"name" db:"name" binding:"required"`
	Description         *string             `json:"description,omitempty" db:"description"`
	Price               float64             `json:"price" db:"price" binding:"required,gt=0"`
	IsAvailable         bool                `json:"is_available" db:"is_available"`
	Stock               int                 `json:"stock" db:"stock"`
	PreparationLocation PreparationLocation `json:"preparation_location" db:"preparation_location" binding:"required"`
	CreatedAt           time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at" db:"updated_at"`
	Ingredients         []ProductIngredient `json:"ingredients,omitempty"` // Recipe links to store products
}

// ProductIngredient links a product to a store product it consumes when sold.
// QuantityPerUnit may be fractional (e.g. 0.25 kg per serving).
type ProductIngredient struct {
	ID              int64         `json:"id" db:"id"`
	ProductID       int64         `json:"product_id" db:"product_id"`
	StoreProductID  int64         `json:"store_product_id" db:"store_product_id" binding:"required"`
	QuantityPerUnit float64       `json:"quantity_per_unit" db:"quantity_per_unit" binding:"required,gt=0"`
	StoreProduct    *StoreProduct `json:"store_product,omitempty"` // For joining with StoreProduct details
}

// SelectionType defines how many accompaniments may be picked from a group.
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
)

// IsValidSelectionType checks if the provided string is a valid SelectionType.
func IsValidSelectionType(selectionType string) bool {
	switch SelectionType(selectionType) {
	case SelectionSingle, SelectionMultiple:
		return true
	default:
		return false
	}
}

// AccompanimentGroup represents a named set of accompaniments on a product
// with selection-count rules.
type AccompanimentGroup struct {
	ID             int64           `json:"id" db:"id"`
	ProductID      int64           `json:"product_id" db:"product_id"`
	Name           string          `json:"name" db:"name" binding:"required"`
	SelectionType  SelectionType   `json:"selection_type" db:"selection_type"`
	IsRequired     bool            `json:"is_required" db:"is_required"`
	MinSelections  *int            `json:"min_selections,omitempty" db:"min_selections"`
	MaxSelections  *int            `json:"max_selections,omitempty" db:"max_selections"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	Accompaniments []Accompaniment `json:"accompaniments,omitempty"`
}

// EffectiveMax returns the maximum number of selections the group allows.
// A single-selection group caps at 1 regardless of MaxSelections.
func (g *AccompanimentGroup) EffectiveMax() *int {
	if g.SelectionType == SelectionSingle {
		one := 1
		return &one
	}
	return g.MaxSelections
}

// Accompaniment represents a selectable modifier attached to a product via its group.
type Accompaniment struct {
	ID          int64     `json:"id" db:"id"`
	GroupID     int64     `json:"group_id" db:"group_id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	ExtraCharge float64   `json:"extra_charge" db:"extra_charge"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	IsAvailable         *bool   `form:"is_available"`
	PreparationLocation *string `form:"preparation_location"`
	Page                int     `form:"page"`
	PageSize            int     `form:"page_size"`
}
