package services

import (
	"database/sql"
	"errors"
	"fmt"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// ProductIngredientRequest links a recipe line to a store product.
type ProductIngredientRequest struct {
	StoreProductID  int64   `json:"store_product_id" binding:"required"`
	QuantityPerUnit float64 `json:"quantity_per_unit" binding:"required,gt=0"`
}

// CreateProductRequest is used for creating a new menu product.
type CreateProductRequest struct {
	Name                string                     `json:"name" binding:"required"`
	Description         *string                    `json:"description"`
	Price               float64                    `json:"price" binding:"required,gt=0"`
	IsAvailable         *bool                      `json:"is_available"`
	Stock               int                        `json:"stock" binding:"gte=0"`
	PreparationLocation string                     `json:"preparation_location" binding:"required"`
	Ingredients         []ProductIngredientRequest `json:"ingredients"`
}

// UpdateProductRequest is used for updating an existing menu product.
type UpdateProductRequest struct {
	Name                string                     `json:"name" binding:"required"`
	Description         *string                    `json:"description"`
	Price               float64                    `json:"price" binding:"required,gt=0"`
	IsAvailable         bool                       `json:"is_available"`
	Stock               int                        `json:"stock" binding:"gte=0"`
	PreparationLocation string                     `json:"preparation_location" binding:"required"`
	Ingredients         *[]ProductIngredientRequest `json:"ingredients"`
}

// SetAvailabilityRequest toggles whether a product can be ordered.
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// --- ProductService Interface ---

// ProductService handles the menu catalog: products with their recipes
// (ingredient links into the store) and availability.
type ProductService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	GetProductByID(id int64) (*models.Product, error)
	UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error)
	SetAvailability(id int64, isAvailable bool) (*models.Product, error)
}

type productService struct {
	productRepo   repositories.ProductRepository
	inventoryRepo repositories.InventoryRepository
	clock         utils.Clock
	db            *sql.DB // For managing transactions
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, ir repositories.InventoryRepository, clock utils.Clock, db *sql.DB) ProductService {
	return &productService{productRepo: pr, inventoryRepo: ir, clock: clock, db: db}
}

// validateIngredients checks every referenced store product exists before the
// recipe is written, so a typo in a store product ID fails loudly instead of
// surfacing later as a foreign key error.
func (s *productService) validateIngredients(executor repositories.SQLExecutor, ingredients []ProductIngredientRequest) ([]models.ProductIngredient, error) {
	links := make([]models.ProductIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.QuantityPerUnit <= 0 {
			return nil, fmt.Errorf("%w: quantity per unit for store product %d must be positive", ErrValidation, ing.StoreProductID)
		}
		if _, err := s.inventoryRepo.GetStoreProductByID(executor, ing.StoreProductID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrStoreProductNotFound, ing.StoreProductID)
			}
			return nil, fmt.Errorf("failed to verify store product %d: %w", ing.StoreProductID, err)
		}
		links = append(links, models.ProductIngredient{
			StoreProductID:  ing.StoreProductID,
			QuantityPerUnit: ing.QuantityPerUnit,
		})
	}
	return links, nil
}

func (s *productService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	if !models.IsValidPreparationLocation(req.PreparationLocation) {
		return nil, fmt.Errorf("%w: preparation location %s", ErrValidation, req.PreparationLocation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	links, err := s.validateIngredients(tx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}
	now := s.clock.Now()
	product := models.Product{
		Name:                req.Name,
		Description:         req.Description,
		Price:               req.Price,
		IsAvailable:         isAvailable,
		Stock:               req.Stock,
		PreparationLocation: models.PreparationLocation(req.PreparationLocation),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := s.productRepo.CreateProduct(tx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if len(links) > 0 {
		if err := s.productRepo.ReplaceIngredients(tx, product.ID, links); err != nil {
			return nil, fmt.Errorf("failed to create recipe for product %d: %w", product.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return s.GetProductByID(product.ID)
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products, totalCount, err := s.productRepo.GetProducts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, totalCount, nil
}

func (s *productService) GetProductByID(id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductWithIngredients(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product by ID from repository: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(id int64, req UpdateProductRequest) (*models.Product, error) {
	if !models.IsValidPreparationLocation(req.PreparationLocation) {
		return nil, fmt.Errorf("%w: preparation location %s", ErrValidation, req.PreparationLocation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	product := models.Product{
		ID:                  id,
		Name:                req.Name,
		Description:         req.Description,
		Price:               req.Price,
		IsAvailable:         req.IsAvailable,
		Stock:               req.Stock,
		PreparationLocation: models.PreparationLocation(req.PreparationLocation),
	}
	if err := s.productRepo.UpdateProduct(tx, &product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}

	// A nil Ingredients pointer leaves the recipe untouched; an empty slice
	// clears it.
	if req.Ingredients != nil {
		links, err := s.validateIngredients(tx, *req.Ingredients)
		if err != nil {
			return nil, err
		}
		if err := s.productRepo.ReplaceIngredients(tx, id, links); err != nil {
			return nil, fmt.Errorf("failed to replace recipe for product %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return s.GetProductByID(id)
}

func (s *productService) SetAvailability(id int64, isAvailable bool) (*models.Product, error) {
	if err := s.productRepo.SetAvailability(s.db, id, isAvailable, s.clock.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to set availability for product %d: %w", id, err)
	}
	return s.GetProductByID(id)
}
