package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for cafe table database operations.
type TableRepository interface {
	CreateTable(executor SQLExecutor, table *models.CafeTable) (int64, error)
	GetTableByID(executor SQLExecutor, id int64) (*models.CafeTable, error)
	GetTables(page, pageSize int) ([]models.CafeTable, int, error)
	UpdateStatus(executor SQLExecutor, id int64, status models.TableStatus, updatedAt time.Time) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) CreateTable(executor SQLExecutor, table *models.CafeTable) (int64, error) {
	query := `INSERT INTO cafe_tables (table_number, capacity, status, location, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	if table.Status == "" {
		table.Status = models.TableStatusAvailable
	}
	err := executor.QueryRow(query,
		table.TableNumber, table.Capacity, table.Status, table.Location, currentTime, currentTime,
	).Scan(&table.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: table number %d already exists (constraint: %s)", ErrDuplicateKey, table.TableNumber, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating cafe table: %v", ErrDatabaseError, err)
	}
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(executor SQLExecutor, id int64) (*models.CafeTable, error) {
	table := &models.CafeTable{}
	query := `SELECT id, table_number, capacity, status, location, created_at, updated_at
	          FROM cafe_tables
	          WHERE id = $1`
	err := executor.QueryRow(query, id).Scan(
		&table.ID, &table.TableNumber, &table.Capacity, &table.Status, &table.Location,
		&table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting cafe table by ID %d: %v", ErrDatabaseError, id, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(page, pageSize int) ([]models.CafeTable, int, error) {
	tables := []models.CafeTable{}
	totalCount := 0
	query := `SELECT id, table_number, capacity, status, location, created_at, updated_at,
	                 COUNT(*) OVER() AS total_count
	          FROM cafe_tables
	          ORDER BY table_number
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting cafe tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var table models.CafeTable
		if err := rows.Scan(
			&table.ID, &table.TableNumber, &table.Capacity, &table.Status, &table.Location,
			&table.CreatedAt, &table.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning cafe table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, table)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating cafe tables: %v", ErrDatabaseError, err)
	}
	return tables, totalCount, nil
}

func (r *tableRepository) UpdateStatus(executor SQLExecutor, id int64, status models.TableStatus, updatedAt time.Time) error {
	query := `UPDATE cafe_tables SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("%w: updating status for cafe table ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for cafe table status update ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
