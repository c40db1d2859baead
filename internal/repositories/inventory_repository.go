package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// InventoryRepository defines the interface for store product and inventory
// log database operations.
type InventoryRepository interface {
	// StoreProduct methods
	CreateStoreProduct(executor SQLExecutor, storeProduct *models.StoreProduct) (int64, error)
	GetStoreProductByID(executor SQLExecutor, id int64) (*models.StoreProduct, error)
	GetStoreProducts(page, pageSize int) ([]models.StoreProduct, int, error)
	// ApplyStockDelta adds the signed delta and returns the new stock level.
	// The delta is unconditional; policy about negative results lives in the
	// service layer.
	ApplyStockDelta(executor SQLExecutor, id int64, delta int, updatedAt time.Time) (int, error)
	SetLastRestockedAt(executor SQLExecutor, id int64, restockedAt time.Time) error

	// InventoryLog methods (append-only)
	CreateLog(executor SQLExecutor, logEntry *models.InventoryLog) (int64, error)
	GetLogs(filters models.InventoryLogFilters) ([]models.InventoryLog, int, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// --- StoreProduct Methods ---

func (r *inventoryRepository) CreateStoreProduct(executor SQLExecutor, storeProduct *models.StoreProduct) (int64, error) {
	query := `INSERT INTO store_products
	            (store_id, name, current_stock, minimum_stock, unit, purchase_price, last_restocked_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	if storeProduct.CreatedAt.IsZero() {
		storeProduct.CreatedAt = currentTime
	}
	if storeProduct.UpdatedAt.IsZero() {
		storeProduct.UpdatedAt = currentTime
	}

	err := executor.QueryRow(query,
		storeProduct.StoreID, storeProduct.Name, storeProduct.CurrentStock, storeProduct.MinimumStock,
		storeProduct.Unit, storeProduct.PurchasePrice, storeProduct.LastRestockedAt,
		storeProduct.CreatedAt, storeProduct.UpdatedAt,
	).Scan(&storeProduct.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: store product name '%s' already exists (constraint: %s)", ErrDuplicateKey, storeProduct.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating store product: %v", ErrDatabaseError, err)
	}
	return storeProduct.ID, nil
}

func (r *inventoryRepository) GetStoreProductByID(executor SQLExecutor, id int64) (*models.StoreProduct, error) {
	storeProduct := &models.StoreProduct{}
	query := `SELECT id, store_id, name, current_stock, minimum_stock, unit, purchase_price, last_restocked_at, created_at, updated_at
	          FROM store_products
	          WHERE id = $1`
	err := executor.QueryRow(query, id).Scan(
		&storeProduct.ID, &storeProduct.StoreID, &storeProduct.Name, &storeProduct.CurrentStock,
		&storeProduct.MinimumStock, &storeProduct.Unit, &storeProduct.PurchasePrice,
		&storeProduct.LastRestockedAt, &storeProduct.CreatedAt, &storeProduct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting store product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return storeProduct, nil
}

func (r *inventoryRepository) GetStoreProducts(page, pageSize int) ([]models.StoreProduct, int, error) {
	storeProducts := []models.StoreProduct{}
	totalCount := 0
	query := `SELECT id, store_id, name, current_stock, minimum_stock, unit, purchase_price, last_restocked_at,
	                 created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM store_products
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting store products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp models.StoreProduct
		if err := rows.Scan(
			&sp.ID, &sp.StoreID, &sp.Name, &sp.CurrentStock, &sp.MinimumStock, &sp.Unit,
			&sp.PurchasePrice, &sp.LastRestockedAt, &sp.CreatedAt, &sp.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning store product: %v", ErrDatabaseError, err)
		}
		storeProducts = append(storeProducts, sp)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating store products: %v", ErrDatabaseError, err)
	}
	return storeProducts, totalCount, nil
}

func (r *inventoryRepository) ApplyStockDelta(executor SQLExecutor, id int64, delta int, updatedAt time.Time) (int, error) {
	var newStock int
	query := `UPDATE store_products
	          SET current_stock = current_stock + $1, updated_at = $2
	          WHERE id = $3
	          RETURNING current_stock`
	err := executor.QueryRow(query, delta, updatedAt, id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: applying stock delta for store product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}

func (r *inventoryRepository) SetLastRestockedAt(executor SQLExecutor, id int64, restockedAt time.Time) error {
	query := `UPDATE store_products SET last_restocked_at = $1, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, restockedAt, id)
	if err != nil {
		return fmt.Errorf("%w: setting last restocked for store product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- InventoryLog Methods ---

func (r *inventoryRepository) CreateLog(executor SQLExecutor, logEntry *models.InventoryLog) (int64, error) {
	query := `INSERT INTO inventory_logs
	            (store_product_id, quantity_changed, log_type, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if logEntry.CreatedAt.IsZero() {
		logEntry.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		logEntry.StoreProductID, logEntry.QuantityChanged, logEntry.LogType, logEntry.Reason, logEntry.CreatedAt,
	).Scan(&logEntry.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating inventory log: %v", ErrDatabaseError, err)
	}
	return logEntry.ID, nil
}

func (r *inventoryRepository) GetLogs(filters models.InventoryLogFilters) ([]models.InventoryLog, int, error) {
	logs := []models.InventoryLog{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    il.id, il.store_product_id, il.quantity_changed, il.log_type, il.reason, il.created_at,
	    sp.name AS store_product_name, sp.unit AS store_product_unit,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_logs il
	  JOIN store_products sp ON il.store_product_id = sp.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StoreProductID != nil {
		conditions = append(conditions, fmt.Sprintf("il.store_product_id = $%d", argCount))
		args = append(args, *filters.StoreProductID)
		argCount++
	}
	if filters.LogType != nil && *filters.LogType != "" {
		conditions = append(conditions, fmt.Sprintf("il.log_type = $%d", argCount))
		args = append(args, *filters.LogType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY il.created_at DESC, il.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory logs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var logEntry models.InventoryLog
		var spName, spUnit sql.NullString

		if err := rows.Scan(
			&logEntry.ID, &logEntry.StoreProductID, &logEntry.QuantityChanged, &logEntry.LogType,
			&logEntry.Reason, &logEntry.CreatedAt,
			&spName, &spUnit,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory log: %v", ErrDatabaseError, err)
		}

		storeProduct := models.StoreProduct{ID: logEntry.StoreProductID}
		if spName.Valid {
			storeProduct.Name = spName.String
		}
		if spUnit.Valid {
			storeProduct.Unit = spUnit.String
		}
		logEntry.StoreProduct = &storeProduct
		logs = append(logs, logEntry)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory logs: %v", ErrDatabaseError, err)
	}
	return logs, totalCount, nil
}
