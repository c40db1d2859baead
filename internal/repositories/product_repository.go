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

// ProductRepository defines the interface for product-related database operations.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductWithIngredients(executor SQLExecutor, id int64) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	SetAvailability(executor SQLExecutor, id int64, isAvailable bool, updatedAt time.Time) error
	ReplaceIngredients(executor SQLExecutor, productID int64, ingredients []models.ProductIngredient) error

	// DecrementStock conditionally subtracts quantity and returns the new stock.
	// It fails with ErrInsufficientStock when the remaining stock is smaller
	// than quantity, so a concurrent sale can never drive stock negative.
	DecrementStock(executor SQLExecutor, productID int64, quantity int, updatedAt time.Time) (int, error)
	// RestoreStock adds quantity back (compensation on cancellation).
	RestoreStock(executor SQLExecutor, productID int64, quantity int, updatedAt time.Time) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (name, description, price, is_available, stock, preparation_location, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = currentTime
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = currentTime
	}

	err := executor.QueryRow(query,
		product.Name, product.Description, product.Price, product.IsAvailable,
		product.Stock, product.PreparationLocation, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product name '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetProductWithIngredients(executor SQLExecutor, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, name, description, price, is_available, stock, preparation_location, created_at, updated_at
	          FROM products
	          WHERE id = $1`
	err := executor.QueryRow(query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price, &product.IsAvailable,
		&product.Stock, &product.PreparationLocation, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}

	ingredientsQuery := `
		SELECT
		    pi.id, pi.product_id, pi.store_product_id, pi.quantity_per_unit,
		    sp.id, sp.store_id, sp.name, sp.current_stock, sp.minimum_stock, sp.unit
		FROM product_ingredients pi
		JOIN store_products sp ON pi.store_product_id = sp.id
		WHERE pi.product_id = $1
		ORDER BY pi.id`
	rows, err := executor.Query(ingredientsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying ingredients for product ID %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.ProductIngredient
		var sp models.StoreProduct
		if err := rows.Scan(
			&ing.ID, &ing.ProductID, &ing.StoreProductID, &ing.QuantityPerUnit,
			&sp.ID, &sp.StoreID, &sp.Name, &sp.CurrentStock, &sp.MinimumStock, &sp.Unit,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning ingredient for product ID %d: %v", ErrDatabaseError, id, err)
		}
		ing.StoreProduct = &sp
		product.Ingredients = append(product.Ingredients, ing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ingredients for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, name, description, price, is_available, stock, preparation_location,
	    created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM products`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IsAvailable != nil {
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", argCount))
		args = append(args, *filters.IsAvailable)
		argCount++
	}
	if filters.PreparationLocation != nil && *filters.PreparationLocation != "" {
		conditions = append(conditions, fmt.Sprintf("preparation_location = $%d", argCount))
		args = append(args, *filters.PreparationLocation)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price, &product.IsAvailable,
			&product.Stock, &product.PreparationLocation, &product.CreatedAt, &product.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, description = $2, price = $3, is_available = $4,
	            stock = $5, preparation_location = $6, updated_at = $7
	          WHERE id = $8`
	result, err := executor.Exec(query,
		product.Name, product.Description, product.Price, product.IsAvailable,
		product.Stock, product.PreparationLocation, time.Now(), product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product name '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) SetAvailability(executor SQLExecutor, id int64, isAvailable bool, updatedAt time.Time) error {
	query := `UPDATE products SET is_available = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, isAvailable, updatedAt, id)
	if err != nil {
		return fmt.Errorf("%w: setting availability for product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) ReplaceIngredients(executor SQLExecutor, productID int64, ingredients []models.ProductIngredient) error {
	if _, err := executor.Exec(`DELETE FROM product_ingredients WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("%w: clearing ingredients for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	query := `INSERT INTO product_ingredients (product_id, store_product_id, quantity_per_unit)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	for i := range ingredients {
		ing := &ingredients[i]
		ing.ProductID = productID
		err := executor.QueryRow(query, productID, ing.StoreProductID, ing.QuantityPerUnit).Scan(&ing.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
				return fmt.Errorf("%w: invalid store_product_id %d (constraint: %s): %v", ErrDatabaseError, ing.StoreProductID, pqErr.Constraint, err)
			}
			return fmt.Errorf("%w: creating ingredient link for product ID %d: %v", ErrDatabaseError, productID, err)
		}
	}
	return nil
}

func (r *productRepository) DecrementStock(executor SQLExecutor, productID int64, quantity int, updatedAt time.Time) (int, error) {
	var newStock int
	query := `UPDATE products
	          SET stock = stock - $1, updated_at = $2
	          WHERE id = $3 AND stock >= $1
	          RETURNING stock`
	err := executor.QueryRow(query, quantity, updatedAt, productID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the product is missing or the remaining stock was too small.
			var exists bool
			checkErr := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
			if checkErr == nil && !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: product ID %d, requested %d", ErrInsufficientStock, productID, quantity)
		}
		return 0, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newStock, nil
}

func (r *productRepository) RestoreStock(executor SQLExecutor, productID int64, quantity int, updatedAt time.Time) (int, error) {
	var newStock int
	query := `UPDATE products
	          SET stock = stock + $1, updated_at = $2
	          WHERE id = $3
	          RETURNING stock`
	err := executor.QueryRow(query, quantity, updatedAt, productID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: restoring stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newStock, nil
}
