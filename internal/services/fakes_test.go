package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cafe_pos_backend/internal/events"
	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// --- Stub database ---
//
// The services only use *sql.DB for transaction demarcation; every query goes
// through faked repositories. This driver supports Begin/Commit/Rollback and
// nothing else.

type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub driver does not execute queries")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubOnce sync.Once

func newStubDB() *sql.DB {
	registerStubOnce.Do(func() {
		sql.Register("servicestub", stubDriver{})
	})
	db, err := sql.Open("servicestub", "")
	if err != nil {
		panic(err)
	}
	return db
}

// --- Fake repositories ---

type fakeProductRepo struct {
	products map[int64]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]*models.Product{}}
}

func (f *fakeProductRepo) CreateProduct(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	product.ID = int64(len(f.products) + 1)
	f.products[product.ID] = product
	return product.ID, nil
}

func (f *fakeProductRepo) GetProductWithIngredients(_ repositories.SQLExecutor, id int64) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductRepo) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	var out []models.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProductRepo) UpdateProduct(_ repositories.SQLExecutor, product *models.Product) error {
	if _, ok := f.products[product.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) SetAvailability(_ repositories.SQLExecutor, id int64, isAvailable bool, _ time.Time) error {
	product, ok := f.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	product.IsAvailable = isAvailable
	return nil
}

func (f *fakeProductRepo) ReplaceIngredients(_ repositories.SQLExecutor, productID int64, ingredients []models.ProductIngredient) error {
	product, ok := f.products[productID]
	if !ok {
		return repositories.ErrNotFound
	}
	product.Ingredients = ingredients
	return nil
}

func (f *fakeProductRepo) DecrementStock(_ repositories.SQLExecutor, productID int64, quantity int, _ time.Time) (int, error) {
	product, ok := f.products[productID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if product.Stock < quantity {
		return 0, fmt.Errorf("%w: product ID %d", repositories.ErrInsufficientStock, productID)
	}
	product.Stock -= quantity
	return product.Stock, nil
}

func (f *fakeProductRepo) RestoreStock(_ repositories.SQLExecutor, productID int64, quantity int, _ time.Time) (int, error) {
	product, ok := f.products[productID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	product.Stock += quantity
	return product.Stock, nil
}

type fakeAccompanimentRepo struct {
	groupsByProduct map[int64][]models.AccompanimentGroup
}

func newFakeAccompanimentRepo() *fakeAccompanimentRepo {
	return &fakeAccompanimentRepo{groupsByProduct: map[int64][]models.AccompanimentGroup{}}
}

func (f *fakeAccompanimentRepo) GetGroupsForProduct(_ repositories.SQLExecutor, productID int64) ([]models.AccompanimentGroup, error) {
	return f.groupsByProduct[productID], nil
}

func (f *fakeAccompanimentRepo) GetByIDs(_ repositories.SQLExecutor, ids []int64) ([]models.Accompaniment, error) {
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Accompaniment
	for _, groups := range f.groupsByProduct {
		for _, g := range groups {
			for _, a := range g.Accompaniments {
				if wanted[a.ID] {
					out = append(out, a)
				}
			}
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders       map[int64]*models.Order
	items        map[int64][]models.OrderItem
	snapshots   map[int64][]models.OrderItemAccompaniment
	nextOrderID int64
	nextItemID  int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:    map[int64]*models.Order{},
		items:     map[int64][]models.OrderItem{},
		snapshots: map[int64][]models.OrderItemAccompaniment{},
	}
}

func (f *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	f.nextOrderID++
	order.ID = f.nextOrderID
	copied := *order
	f.orders[order.ID] = &copied
	return order.ID, nil
}

func (f *fakeOrderRepo) GetOrderByID(_ repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ repositories.SQLExecutor, orderID int64, newStatus models.OrderStatus, updatedAt time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = newStatus
	order.UpdatedAt = updatedAt
	return nil
}

func (f *fakeOrderRepo) MarkOrderCompleted(_ repositories.SQLExecutor, orderID int64, completedAt time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &completedAt
	order.UpdatedAt = completedAt
	return nil
}

func (f *fakeOrderRepo) AddToOrderTotal(_ repositories.SQLExecutor, orderID int64, delta float64, updatedAt time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.TotalAmount += delta
	order.UpdatedAt = updatedAt
	return nil
}

func (f *fakeOrderRepo) AppendOrderNotes(_ repositories.SQLExecutor, orderID int64, note string, updatedAt time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	if order.Notes == nil || *order.Notes == "" {
		order.Notes = &note
	} else {
		joined := *order.Notes + " | " + note
		order.Notes = &joined
	}
	return nil
}

func (f *fakeOrderRepo) CountActiveOrdersForTable(_ repositories.SQLExecutor, tableID int64) (int, error) {
	count := 0
	for _, o := range f.orders {
		if o.TableID != nil && *o.TableID == tableID && !o.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrderRepo) CreateOrderItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	f.nextItemID++
	item.ID = f.nextItemID
	f.items[item.OrderID] = append(f.items[item.OrderID], *item)
	return item.ID, nil
}

func (f *fakeOrderRepo) GetOrderItemsByOrderID(_ repositories.SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeOrderRepo) CompleteActiveItems(_ repositories.SQLExecutor, orderID int64, updatedAt time.Time) error {
	items := f.items[orderID]
	for i := range items {
		if items[i].Status != models.OrderStatusCancelled {
			items[i].Status = models.OrderStatusCompleted
			items[i].UpdatedAt = updatedAt
		}
	}
	return nil
}

func (f *fakeOrderRepo) CancelActiveItems(_ repositories.SQLExecutor, orderID int64, updatedAt time.Time) error {
	items := f.items[orderID]
	for i := range items {
		if items[i].Status != models.OrderStatusCancelled {
			items[i].Status = models.OrderStatusCancelled
			items[i].UpdatedAt = updatedAt
		}
	}
	return nil
}

func (f *fakeOrderRepo) CreateItemAccompaniment(_ repositories.SQLExecutor, snapshot *models.OrderItemAccompaniment) (int64, error) {
	snapshot.ID = int64(len(f.snapshots[snapshot.OrderItemID]) + 1)
	f.snapshots[snapshot.OrderItemID] = append(f.snapshots[snapshot.OrderItemID], *snapshot)
	return snapshot.ID, nil
}

func (f *fakeOrderRepo) GetItemAccompanimentsByOrderID(_ repositories.SQLExecutor, orderID int64) ([]models.OrderItemAccompaniment, error) {
	var out []models.OrderItemAccompaniment
	for _, item := range f.items[orderID] {
		out = append(out, f.snapshots[item.ID]...)
	}
	return out, nil
}

type fakeTableRepo struct {
	tables map[int64]*models.CafeTable
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: map[int64]*models.CafeTable{}}
}

func (f *fakeTableRepo) CreateTable(_ repositories.SQLExecutor, table *models.CafeTable) (int64, error) {
	table.ID = int64(len(f.tables) + 1)
	f.tables[table.ID] = table
	return table.ID, nil
}

func (f *fakeTableRepo) GetTableByID(_ repositories.SQLExecutor, id int64) (*models.CafeTable, error) {
	table, ok := f.tables[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *table
	return &copied, nil
}

func (f *fakeTableRepo) GetTables(page, pageSize int) ([]models.CafeTable, int, error) {
	var out []models.CafeTable
	for _, t := range f.tables {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (f *fakeTableRepo) UpdateStatus(_ repositories.SQLExecutor, id int64, status models.TableStatus, updatedAt time.Time) error {
	table, ok := f.tables[id]
	if !ok {
		return repositories.ErrNotFound
	}
	table.Status = status
	table.UpdatedAt = updatedAt
	return nil
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (f *fakeUserRepo) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserRepo) GetUserByID(_ repositories.SQLExecutor, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ repositories.SQLExecutor, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) GetActiveUserByID(_ repositories.SQLExecutor, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok || !user.IsActive {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) ListActiveAdmins(_ repositories.SQLExecutor) ([]models.User, error) {
	var admins []models.User
	for _, user := range f.users {
		if user.Role == models.RoleAdmin && user.IsActive {
			admins = append(admins, *user)
		}
	}
	return admins, nil
}

type fakeInventoryRepo struct {
	storeProducts map[int64]*models.StoreProduct
	logs          []models.InventoryLog
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{storeProducts: map[int64]*models.StoreProduct{}}
}

func (f *fakeInventoryRepo) CreateStoreProduct(_ repositories.SQLExecutor, storeProduct *models.StoreProduct) (int64, error) {
	storeProduct.ID = int64(len(f.storeProducts) + 1)
	f.storeProducts[storeProduct.ID] = storeProduct
	return storeProduct.ID, nil
}

func (f *fakeInventoryRepo) GetStoreProductByID(_ repositories.SQLExecutor, id int64) (*models.StoreProduct, error) {
	storeProduct, ok := f.storeProducts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *storeProduct
	return &copied, nil
}

func (f *fakeInventoryRepo) GetStoreProducts(page, pageSize int) ([]models.StoreProduct, int, error) {
	var out []models.StoreProduct
	for _, sp := range f.storeProducts {
		out = append(out, *sp)
	}
	return out, len(out), nil
}

func (f *fakeInventoryRepo) ApplyStockDelta(_ repositories.SQLExecutor, id int64, delta int, updatedAt time.Time) (int, error) {
	storeProduct, ok := f.storeProducts[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	storeProduct.CurrentStock += delta
	storeProduct.UpdatedAt = updatedAt
	return storeProduct.CurrentStock, nil
}

func (f *fakeInventoryRepo) SetLastRestockedAt(_ repositories.SQLExecutor, id int64, restockedAt time.Time) error {
	storeProduct, ok := f.storeProducts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	storeProduct.LastRestockedAt = &restockedAt
	return nil
}

func (f *fakeInventoryRepo) CreateLog(_ repositories.SQLExecutor, logEntry *models.InventoryLog) (int64, error) {
	logEntry.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, *logEntry)
	return logEntry.ID, nil
}

func (f *fakeInventoryRepo) GetLogs(filters models.InventoryLogFilters) ([]models.InventoryLog, int, error) {
	return append([]models.InventoryLog(nil), f.logs...), len(f.logs), nil
}

// logsFor returns the log entries touching one store product.
func (f *fakeInventoryRepo) logsFor(storeProductID int64) []models.InventoryLog {
	var out []models.InventoryLog
	for _, entry := range f.logs {
		if entry.StoreProductID == storeProductID {
			out = append(out, entry)
		}
	}
	return out
}

type fakeNotificationRepo struct {
	notifications []models.Notification
}

func (f *fakeNotificationRepo) Create(_ repositories.SQLExecutor, notification *models.Notification) (int64, error) {
	notification.ID = int64(len(f.notifications) + 1)
	f.notifications = append(f.notifications, *notification)
	return notification.ID, nil
}

func (f *fakeNotificationRepo) GetForUser(userID int64, page, pageSize int) ([]models.Notification, int, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNotificationRepo) MarkRead(_ repositories.SQLExecutor, id, userID int64) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].UserID == userID {
			f.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- Fake publisher ---

type fakePublisher struct {
	events  []events.OrderCreatedEvent
	failErr error
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, event events.OrderCreatedEvent) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// containsViolation reports whether any collected violation mentions substr.
func containsViolation(violations []string, substr string) bool {
	for _, v := range violations {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}
