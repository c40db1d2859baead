package services

import (
	"errors"
	"testing"
	"time"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/pkg/utils"
)

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newInventoryFixture(allowNegative bool) (*fakeInventoryRepo, *fakeUserRepo, *fakeNotificationRepo, InventoryService) {
	inventoryRepo := newFakeInventoryRepo()
	userRepo := newFakeUserRepo()
	notificationRepo := &fakeNotificationRepo{}
	svc := NewInventoryService(inventoryRepo, userRepo, notificationRepo, newStubDB(), utils.FixedClock{Time: testTime}, allowNegative)
	return inventoryRepo, userRepo, notificationRepo, svc
}

func addStoreProduct(repo *fakeInventoryRepo, id int64, name string, current, minimum int) {
	repo.storeProducts[id] = &models.StoreProduct{
		ID: id, StoreID: 1, Name: name,
		CurrentStock: current, MinimumStock: minimum, Unit: "kg",
	}
}

func addAdmin(repo *fakeUserRepo, id int64, username string) {
	repo.users[id] = &models.User{ID: id, Username: username, Role: models.RoleAdmin, IsActive: true}
}

func TestCeilUnits(t *testing.T) {
	tests := []struct {
		quantityPerUnit float64
		ordered         int
		want            int
	}{
		{0.25, 1, 1},
		{0.25, 2, 1},
		{0.25, 4, 1},
		{0.25, 5, 2},
		{0.5, 3, 2},
		{1, 2, 2},
		{1.5, 3, 5},
		{0.2, 10, 2},
		{2, 1, 2},
	}
	for _, tt := range tests {
		if got := CeilUnits(tt.quantityPerUnit, tt.ordered); got != tt.want {
			t.Errorf("CeilUnits(%v, %d) = %d, want %d", tt.quantityPerUnit, tt.ordered, got, tt.want)
		}
	}
}

func TestApplyStockChange_DeductsAndLogs(t *testing.T) {
	inventoryRepo, _, _, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Flour", 20, 5)

	newStock, err := svc.ApplyStockChange(nil, 1, -3, models.InventoryLogSale, "Sale for order #7", testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newStock != 17 {
		t.Errorf("got stock %d, want 17", newStock)
	}

	logs := inventoryRepo.logsFor(1)
	if len(logs) != 1 {
		t.Fatalf("got %d log entries, want 1", len(logs))
	}
	entry := logs[0]
	if entry.QuantityChanged != -3 {
		t.Errorf("got quantity_changed %d, want -3", entry.QuantityChanged)
	}
	if entry.LogType != models.InventoryLogSale {
		t.Errorf("got log type %s, want sale", entry.LogType)
	}
	if entry.Reason == nil || *entry.Reason != "Sale for order #7" {
		t.Errorf("reason not recorded: %v", entry.Reason)
	}
}

func TestApplyStockChange_NegativeResultRejectedByDefault(t *testing.T) {
	inventoryRepo, _, _, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Flour", 2, 0)

	_, err := svc.ApplyStockChange(nil, 1, -5, models.InventoryLogSale, "Sale for order #8", testTime)
	if !errors.Is(err, ErrInsufficientIngredientStock) {
		t.Fatalf("got %v, want ErrInsufficientIngredientStock", err)
	}
	// Nothing applied, nothing logged.
	if inventoryRepo.storeProducts[1].CurrentStock != 2 {
		t.Errorf("stock mutated to %d on failed deduction", inventoryRepo.storeProducts[1].CurrentStock)
	}
	if len(inventoryRepo.logs) != 0 {
		t.Errorf("got %d log entries on failed deduction, want 0", len(inventoryRepo.logs))
	}
}

func TestApplyStockChange_NegativeResultAllowedByPolicy(t *testing.T) {
	inventoryRepo, _, _, svc := newInventoryFixture(true)
	addStoreProduct(inventoryRepo, 1, "Flour", 2, 0)

	newStock, err := svc.ApplyStockChange(nil, 1, -5, models.InventoryLogSale, "Sale for order #8", testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newStock != -3 {
		t.Errorf("got stock %d, want -3", newStock)
	}
	if len(inventoryRepo.logsFor(1)) != 1 {
		t.Errorf("deduction should still be logged")
	}
}

func TestApplyStockChange_LowStockNotifiesAdminsOnCrossingOnly(t *testing.T) {
	inventoryRepo, userRepo, notificationRepo, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Flour", 6, 5)
	addAdmin(userRepo, 1, "admin1")
	addAdmin(userRepo, 2, "admin2")
	userRepo.users[3] = &models.User{ID: 3, Username: "waiter", Role: models.RoleWaiter, IsActive: true}

	// 6 -> 4 crosses below the minimum of 5.
	if _, err := svc.ApplyStockChange(nil, 1, -2, models.InventoryLogSale, "Sale for order #1", testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notificationRepo.notifications) != 2 {
		t.Fatalf("got %d notifications, want one per active admin", len(notificationRepo.notifications))
	}
	for _, n := range notificationRepo.notifications {
		if n.Type != models.NotificationLowStock {
			t.Errorf("got notification type %s, want low_stock", n.Type)
		}
	}

	// 4 -> 3 stays below: already notified, no repeat.
	if _, err := svc.ApplyStockChange(nil, 1, -1, models.InventoryLogSale, "Sale for order #2", testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notificationRepo.notifications) != 2 {
		t.Errorf("got %d notifications after second deduction, want still 2", len(notificationRepo.notifications))
	}

	// Restock back above, then cross again: a fresh notification fires.
	if _, err := svc.ApplyStockChange(nil, 1, 10, models.InventoryLogRestock, "Delivery", testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notificationRepo.notifications) != 2 {
		t.Errorf("restock must not notify, got %d", len(notificationRepo.notifications))
	}
	if _, err := svc.ApplyStockChange(nil, 1, -10, models.InventoryLogSale, "Sale for order #3", testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notificationRepo.notifications) != 4 {
		t.Errorf("got %d notifications after re-crossing, want 4", len(notificationRepo.notifications))
	}
}

func TestApplyStockChange_ExactMinimumDoesNotNotify(t *testing.T) {
	inventoryRepo, userRepo, notificationRepo, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Flour", 6, 5)
	addAdmin(userRepo, 1, "admin1")

	// 6 -> 5 lands exactly on the minimum, which is not below it.
	if _, err := svc.ApplyStockChange(nil, 1, -1, models.InventoryLogSale, "Sale", testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notificationRepo.notifications) != 0 {
		t.Errorf("stock at exactly the minimum must not notify, got %d", len(notificationRepo.notifications))
	}
}

func TestApplyStockChange_UnknownStoreProduct(t *testing.T) {
	_, _, _, svc := newInventoryFixture(false)
	_, err := svc.ApplyStockChange(nil, 42, -1, models.InventoryLogSale, "Sale", testTime)
	if !errors.Is(err, ErrStoreProductNotFound) {
		t.Fatalf("got %v, want ErrStoreProductNotFound", err)
	}
}

func TestRestockStoreProduct(t *testing.T) {
	inventoryRepo, _, _, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Flour", 3, 5)

	storeProduct, err := svc.RestockStoreProduct(1, 20, "Weekly delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storeProduct.CurrentStock != 23 {
		t.Errorf("got stock %d, want 23", storeProduct.CurrentStock)
	}
	if storeProduct.LastRestockedAt == nil || !storeProduct.LastRestockedAt.Equal(testTime) {
		t.Errorf("last_restocked_at not stamped: %v", storeProduct.LastRestockedAt)
	}
	logs := inventoryRepo.logsFor(1)
	if len(logs) != 1 || logs[0].LogType != models.InventoryLogRestock || logs[0].QuantityChanged != 20 {
		t.Errorf("unexpected restock log: %+v", logs)
	}

	if _, err := svc.RestockStoreProduct(1, 0, "nothing"); !errors.Is(err, ErrValidation) {
		t.Errorf("zero quantity restock: got %v, want ErrValidation", err)
	}
}

func TestAdjustStock(t *testing.T) {
	inventoryRepo, _, _, svc := newInventoryFixture(false)
	addStoreProduct(inventoryRepo, 1, "Glasses", 10, 2)

	storeProduct, err := svc.AdjustStock(1, -2, models.InventoryLogDamage, "Two broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storeProduct.CurrentStock != 8 {
		t.Errorf("got stock %d, want 8", storeProduct.CurrentStock)
	}

	if _, err := svc.AdjustStock(1, -1, models.InventoryLogSale, "nope"); !errors.Is(err, ErrValidation) {
		t.Errorf("sale log type must be rejected for manual adjustment, got %v", err)
	}
	if _, err := svc.AdjustStock(1, 0, models.InventoryLogAdjustment, "noop"); !errors.Is(err, ErrValidation) {
		t.Errorf("zero delta must be rejected, got %v", err)
	}
}

func TestCreateStoreProduct_RejectsNegativeStock(t *testing.T) {
	_, _, _, svc := newInventoryFixture(false)
	err := svc.CreateStoreProduct(&models.StoreProduct{Name: "Flour", CurrentStock: -1})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
