package services

import (
	"errors"
	"fmt"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// CreateTableRequest is used for registering a new cafe table.
type CreateTableRequest struct {
	TableNumber int     `json:"table_number" binding:"required,gt=0"`
	Capacity    int     `json:"capacity" binding:"required,gt=0"`
	Location    *string `json:"location"`
}

// UpdateTableStatusRequest is used for manually changing a table's status.
type UpdateTableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- TableService Interface ---

// TableService manages the table registry. Occupied/available flips driven by
// the order lifecycle happen in the order service; this surface covers
// registration, listing, and manual overrides such as reservations.
type TableService interface {
	CreateTable(req CreateTableRequest) (*models.CafeTable, error)
	GetTables(page, pageSize int) ([]models.CafeTable, int, error)
	GetTableByID(id int64) (*models.CafeTable, error)
	UpdateTableStatus(id int64, req UpdateTableStatusRequest) (*models.CafeTable, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	orderRepo repositories.OrderRepository
	clock     utils.Clock
	db        repositories.SQLExecutor
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository, or repositories.OrderRepository, clock utils.Clock, db repositories.SQLExecutor) TableService {
	return &tableService{tableRepo: tr, orderRepo: or, clock: clock, db: db}
}

func (s *tableService) CreateTable(req CreateTableRequest) (*models.CafeTable, error) {
	now := s.clock.Now()
	table := models.CafeTable{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Status:      models.TableStatusAvailable,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.tableRepo.CreateTable(s.db, &table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, nil
}

func (s *tableService) GetTables(page, pageSize int) ([]models.CafeTable, int, error) {
	tables, totalCount, err := s.tableRepo.GetTables(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, totalCount, nil
}

func (s *tableService) GetTableByID(id int64) (*models.CafeTable, error) {
	table, err := s.tableRepo.GetTableByID(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, id)
		}
		return nil, fmt.Errorf("failed to get table by ID from repository: %w", err)
	}
	return table, nil
}

func (s *tableService) UpdateTableStatus(id int64, req UpdateTableStatusRequest) (*models.CafeTable, error) {
	if !models.IsValidTableStatus(req.Status) {
		return nil, fmt.Errorf("%w: table status %s", ErrValidation, req.Status)
	}
	newStatus := models.TableStatus(req.Status)

	// A table with active orders cannot be manually marked available; the
	// order lifecycle owns that release.
	if newStatus == models.TableStatusAvailable {
		activeCount, err := s.orderRepo.CountActiveOrdersForTable(s.db, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count active orders for table %d: %w", id, err)
		}
		if activeCount > 0 {
			return nil, fmt.Errorf("%w: table %d has %d active orders", ErrValidation, id, activeCount)
		}
	}

	if err := s.tableRepo.UpdateStatus(s.db, id, newStatus, s.clock.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, id)
		}
		return nil, fmt.Errorf("failed to update status for table %d: %w", id, err)
	}
	return s.GetTableByID(id)
}
