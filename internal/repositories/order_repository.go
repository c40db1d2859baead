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

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus models.OrderStatus, updatedAt time.Time) error
	MarkOrderCompleted(executor SQLExecutor, orderID int64, completedAt time.Time) error
	AddToOrderTotal(executor SQLExecutor, orderID int64, delta float64, updatedAt time.Time) error
	AppendOrderNotes(executor SQLExecutor, orderID int64, note string, updatedAt time.Time) error
	CountActiveOrdersForTable(executor SQLExecutor, tableID int64) (int, error)

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error)
	CompleteActiveItems(executor SQLExecutor, orderID int64, updatedAt time.Time) error
	CancelActiveItems(executor SQLExecutor, orderID int64, updatedAt time.Time) error

	// Accompaniment snapshot methods
	CreateItemAccompaniment(executor SQLExecutor, snapshot *models.OrderItemAccompaniment) (int64, error)
	GetItemAccompanimentsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItemAccompaniment, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (waiter_id, table_id, status, order_type, is_partner_order,
	             total_amount, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.WaiterID, order.TableID, order.Status, order.OrderType, order.IsPartnerOrder,
		order.TotalAmount, order.Notes, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: creating order (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT o.id, o.waiter_id, o.table_id, o.status, o.order_type, o.is_partner_order,
	                 o.total_amount, o.notes, o.created_at, o.updated_at, o.completed_at,
	                 u.full_name AS waiter_name,
	                 ct.table_number
	          FROM orders o
	          JOIN users u ON o.waiter_id = u.id
	          LEFT JOIN cafe_tables ct ON o.table_id = ct.id
	          WHERE o.id = $1`

	var waiterName sql.NullString
	var tableNumber sql.NullInt64
	err := executor.QueryRow(query, orderID).Scan(
		&order.ID, &order.WaiterID, &order.TableID, &order.Status, &order.OrderType, &order.IsPartnerOrder,
		&order.TotalAmount, &order.Notes, &order.CreatedAt, &order.UpdatedAt, &order.CompletedAt,
		&waiterName, &tableNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if waiterName.Valid {
		name := waiterName.String
		order.WaiterName = &name
	}
	if tableNumber.Valid {
		num := int(tableNumber.Int64)
		order.TableNumber = &num
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.waiter_id, o.table_id, o.status, o.order_type, o.is_partner_order,
            o.total_amount, o.notes, o.created_at, o.updated_at, o.completed_at,
            u.full_name AS waiter_name,
            ct.table_number,
            COUNT(*) OVER() AS total_count
        FROM orders o
        JOIN users u ON o.waiter_id = u.id
        LEFT JOIN cafe_tables ct ON o.table_id = ct.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.WaiterID != nil {
		conditions = append(conditions, fmt.Sprintf("o.waiter_id = $%d", argCounter))
		args = append(args, *filters.WaiterID)
		argCounter++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.OrderType != nil && *filters.OrderType != "" {
		conditions = append(conditions, fmt.Sprintf("o.order_type = $%d", argCounter))
		args = append(args, *filters.OrderType)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("o.created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var waiterName sql.NullString
		var tableNumber sql.NullInt64

		err := rows.Scan(
			&o.ID, &o.WaiterID, &o.TableID, &o.Status, &o.OrderType, &o.IsPartnerOrder,
			&o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
			&waiterName, &tableNumber,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if waiterName.Valid {
			name := waiterName.String
			o.WaiterName = &name
		}
		if tableNumber.Valid {
			num := int(tableNumber.Int64)
			o.TableNumber = &num
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus models.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newStatus, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkOrderCompleted(executor SQLExecutor, orderID int64, completedAt time.Time) error {
	query := `UPDATE orders SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, models.OrderStatusCompleted, completedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: marking order ID %d completed: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) AddToOrderTotal(executor SQLExecutor, orderID int64, delta float64, updatedAt time.Time) error {
	query := `UPDATE orders SET total_amount = total_amount + $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, delta, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating total for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) AppendOrderNotes(executor SQLExecutor, orderID int64, note string, updatedAt time.Time) error {
	query := `UPDATE orders
	          SET notes = CASE WHEN notes IS NULL OR notes = '' THEN $1 ELSE notes || ' | ' || $1 END,
	              updated_at = $2
	          WHERE id = $3`
	result, err := executor.Exec(query, note, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: appending notes for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveOrdersForTable counts orders on the table whose status is neither
// completed nor cancelled. The table occupancy rule is derived from this count.
func (r *orderRepository) CountActiveOrdersForTable(executor SQLExecutor, tableID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE table_id = $1 AND status NOT IN ($2, $3)`
	err := executor.QueryRow(query, tableID, models.OrderStatusCompleted, models.OrderStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders for table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return count, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, product_id, quantity, unit_price, subtotal, status, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
		item.Status, item.Notes, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `
		SELECT
		    oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		    oi.subtotal, oi.status, oi.notes, oi.created_at, oi.updated_at,
		    p.name AS product_name, p.preparation_location
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var productName sql.NullString
		var prepLocation models.PreparationLocation

		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.Subtotal, &item.Status, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
			&productName, &prepLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		if productName.Valid {
			name := productName.String
			item.ProductName = &name
			item.Product = &models.Product{ID: item.ProductID, Name: name, PreparationLocation: prepLocation}
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) CompleteActiveItems(executor SQLExecutor, orderID int64, updatedAt time.Time) error {
	query := `UPDATE order_items SET status = $1, updated_at = $2 WHERE order_id = $3 AND status <> $4`
	if _, err := executor.Exec(query, models.OrderStatusCompleted, updatedAt, orderID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("%w: completing items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return nil
}

func (r *orderRepository) CancelActiveItems(executor SQLExecutor, orderID int64, updatedAt time.Time) error {
	query := `UPDATE order_items SET status = $1, updated_at = $2 WHERE order_id = $3 AND status <> $1`
	if _, err := executor.Exec(query, models.OrderStatusCancelled, updatedAt, orderID); err != nil {
		return fmt.Errorf("%w: cancelling items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return nil
}

// --- Accompaniment Snapshot Methods ---

func (r *orderRepository) CreateItemAccompaniment(executor SQLExecutor, snapshot *models.OrderItemAccompaniment) (int64, error) {
	query := `INSERT INTO order_item_accompaniments (order_item_id, accompaniment_id, price_at_order)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	err := executor.QueryRow(query,
		snapshot.OrderItemID, snapshot.AccompanimentID, snapshot.PriceAtOrder,
	).Scan(&snapshot.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order item accompaniment: %v", ErrDatabaseError, err)
	}
	return snapshot.ID, nil
}

func (r *orderRepository) GetItemAccompanimentsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItemAccompaniment, error) {
	snapshots := []models.OrderItemAccompaniment{}
	query := `
		SELECT oia.id, oia.order_item_id, oia.accompaniment_id, oia.price_at_order,
		       a.name AS accompaniment_name
		FROM order_item_accompaniments oia
		JOIN order_items oi ON oia.order_item_id = oi.id
		JOIN accompaniments a ON oia.accompaniment_id = a.id
		WHERE oi.order_id = $1
		ORDER BY oia.id`

	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying item accompaniments for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.OrderItemAccompaniment
		var accName sql.NullString
		if err := rows.Scan(&s.ID, &s.OrderItemID, &s.AccompanimentID, &s.PriceAtOrder, &accName); err != nil {
			return nil, fmt.Errorf("%w: scanning item accompaniment for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		if accName.Valid {
			name := accName.String
			s.AccompanimentName = &name
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating item accompaniments for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return snapshots, nil
}
