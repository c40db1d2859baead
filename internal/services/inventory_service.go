package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/pkg/utils"
)

// InventoryService is the ledger for store-product stock. Every change goes
// through ApplyStockChange so each mutation leaves an append-only log entry
// and low-stock crossings raise admin notifications inside the same
// transaction.
type InventoryService interface {
	// ApplyStockChange applies a signed delta inside the caller's executor
	// (usually an open transaction), appends the log entry, and notifies
	// active admins when the stock crosses below its minimum threshold.
	// A negative result fails with ErrInsufficientIngredientStock unless the
	// service was configured to allow it, in which case a warning is logged
	// and the deduction proceeds.
	ApplyStockChange(executor repositories.SQLExecutor, storeProductID int64, delta int, logType models.InventoryLogType, reason string, now time.Time) (int, error)

	CreateStoreProduct(storeProduct *models.StoreProduct) error
	GetStoreProductByID(id int64) (*models.StoreProduct, error)
	GetStoreProducts(page, pageSize int) ([]models.StoreProduct, int, error)
	RestockStoreProduct(id int64, quantity int, reason string) (*models.StoreProduct, error)
	AdjustStock(id int64, delta int, logType models.InventoryLogType, reason string) (*models.StoreProduct, error)
	GetLogs(filters models.InventoryLogFilters) ([]models.InventoryLog, int, error)
}

type inventoryService struct {
	inventoryRepo    repositories.InventoryRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	db               *sql.DB
	clock            utils.Clock
	allowNegative    bool
}

// NewInventoryService creates a new instance of InventoryService.
// allowNegativeStock controls what happens when a deduction would drive a
// store product below zero: false fails the operation, true logs a warning
// and proceeds.
func NewInventoryService(
	ir repositories.InventoryRepository,
	ur repositories.UserRepository,
	nr repositories.NotificationRepository,
	db *sql.DB,
	clock utils.Clock,
	allowNegativeStock bool,
) InventoryService {
	return &inventoryService{
		inventoryRepo:    ir,
		userRepo:         ur,
		notificationRepo: nr,
		db:               db,
		clock:            clock,
		allowNegative:    allowNegativeStock,
	}
}

// CeilUnits converts a fractional recipe quantity into whole stock units.
// Partial units cannot be withheld, so 0.25 per unit × 2 ordered = 1 unit.
func CeilUnits(quantityPerUnit float64, orderedQuantity int) int {
	return int(math.Ceil(quantityPerUnit * float64(orderedQuantity)))
}

func (s *inventoryService) ApplyStockChange(executor repositories.SQLExecutor, storeProductID int64, delta int, logType models.InventoryLogType, reason string, now time.Time) (int, error) {
	before, err := s.inventoryRepo.GetStoreProductByID(executor, storeProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, fmt.Errorf("%w: ID %d", ErrStoreProductNotFound, storeProductID)
		}
		return 0, fmt.Errorf("failed to load store product %d: %w", storeProductID, err)
	}

	if delta < 0 && before.CurrentStock+delta < 0 {
		if !s.allowNegative {
			return 0, fmt.Errorf("%w: %s (ID: %d), requested %d, available %d",
				ErrInsufficientIngredientStock, before.Name, storeProductID, -delta, before.CurrentStock)
		}
		utils.LogWarn("Store product stock going negative", map[string]interface{}{
			"store_product_id": storeProductID,
			"name":             before.Name,
			"current_stock":    before.CurrentStock,
			"delta":            delta,
			"reason":           reason,
		})
	}

	newStock, err := s.inventoryRepo.ApplyStockDelta(executor, storeProductID, delta, now)
	if err != nil {
		return 0, fmt.Errorf("failed to apply stock delta for store product %d: %w", storeProductID, err)
	}

	logEntry := models.InventoryLog{
		StoreProductID:  storeProductID,
		QuantityChanged: delta,
		LogType:         logType,
		Reason:          &reason,
		CreatedAt:       now,
	}
	if _, err := s.inventoryRepo.CreateLog(executor, &logEntry); err != nil {
		return 0, fmt.Errorf("failed to record inventory log for store product %d: %w", storeProductID, err)
	}

	// Notify admins only on the crossing, not on every deduction below an
	// already-breached threshold.
	if newStock < before.MinimumStock && before.CurrentStock >= before.MinimumStock {
		if err := s.notifyLowStock(executor, before, newStock, now); err != nil {
			return 0, err
		}
	}

	return newStock, nil
}

func (s *inventoryService) notifyLowStock(executor repositories.SQLExecutor, storeProduct *models.StoreProduct, newStock int, now time.Time) error {
	admins, err := s.userRepo.ListActiveAdmins(executor)
	if err != nil {
		return fmt.Errorf("failed to list admins for low-stock notification: %w", err)
	}
	for _, admin := range admins {
		notification := models.Notification{
			UserID: admin.ID,
			Title:  "Low stock alert",
			Message: fmt.Sprintf("%s is low on stock: %d %s left (minimum %d)",
				storeProduct.Name, newStock, storeProduct.Unit, storeProduct.MinimumStock),
			Type:      models.NotificationLowStock,
			CreatedAt: now,
		}
		if _, err := s.notificationRepo.Create(executor, &notification); err != nil {
			return fmt.Errorf("failed to create low-stock notification for user %d: %w", admin.ID, err)
		}
	}
	return nil
}

func (s *inventoryService) CreateStoreProduct(storeProduct *models.StoreProduct) error {
	if storeProduct.CurrentStock < 0 || storeProduct.MinimumStock < 0 {
		return fmt.Errorf("%w: stock values must not be negative", ErrValidation)
	}
	if _, err := s.inventoryRepo.CreateStoreProduct(s.db, storeProduct); err != nil {
		return fmt.Errorf("failed to create store product: %w", err)
	}
	return nil
}

func (s *inventoryService) GetStoreProductByID(id int64) (*models.StoreProduct, error) {
	storeProduct, err := s.inventoryRepo.GetStoreProductByID(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrStoreProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get store product %d: %w", id, err)
	}
	return storeProduct, nil
}

func (s *inventoryService) GetStoreProducts(page, pageSize int) ([]models.StoreProduct, int, error) {
	storeProducts, totalCount, err := s.inventoryRepo.GetStoreProducts(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get store products: %w", err)
	}
	return storeProducts, totalCount, nil
}

func (s *inventoryService) RestockStoreProduct(id int64, quantity int, reason string) (*models.StoreProduct, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.clock.Now()
	if _, err := s.ApplyStockChange(tx, id, quantity, models.InventoryLogRestock, reason, now); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.SetLastRestockedAt(tx, id, now); err != nil {
		return nil, fmt.Errorf("failed to stamp restock time for store product %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restock transaction: %w", err)
	}
	return s.GetStoreProductByID(id)
}

func (s *inventoryService) AdjustStock(id int64, delta int, logType models.InventoryLogType, reason string) (*models.StoreProduct, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must not be zero", ErrValidation)
	}
	if logType != models.InventoryLogAdjustment && logType != models.InventoryLogDamage {
		return nil, fmt.Errorf("%w: log type %s not allowed for manual adjustment", ErrValidation, logType)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ApplyStockChange(tx, id, delta, logType, reason, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit adjustment transaction: %w", err)
	}
	return s.GetStoreProductByID(id)
}

func (s *inventoryService) GetLogs(filters models.InventoryLogFilters) ([]models.InventoryLog, int, error) {
	logs, totalCount, err := s.inventoryRepo.GetLogs(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory logs: %w", err)
	}
	return logs, totalCount, nil
}
