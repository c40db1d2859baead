package services

import (
	"errors"
	"testing"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/pkg/utils"
)

func newTableFixture() (*fakeTableRepo, *fakeOrderRepo, TableService) {
	tableRepo := newFakeTableRepo()
	orderRepo := newFakeOrderRepo()
	svc := NewTableService(tableRepo, orderRepo, utils.FixedClock{Time: testTime}, newStubDB())
	return tableRepo, orderRepo, svc
}

func TestCreateTable(t *testing.T) {
	_, _, svc := newTableFixture()

	table, err := svc.CreateTable(CreateTableRequest{TableNumber: 7, Capacity: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Status != models.TableStatusAvailable {
		t.Errorf("new table should start available, got %s", table.Status)
	}
}

func TestUpdateTableStatus(t *testing.T) {
	tableRepo, orderRepo, svc := newTableFixture()
	tableRepo.tables[1] = &models.CafeTable{ID: 1, TableNumber: 7, Capacity: 4, Status: models.TableStatusAvailable}

	table, err := svc.UpdateTableStatus(1, UpdateTableStatusRequest{Status: string(models.TableStatusReserved)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Status != models.TableStatusReserved {
		t.Errorf("got status %s, want reserved", table.Status)
	}

	if _, err := svc.UpdateTableStatus(1, UpdateTableStatusRequest{Status: "wobbly"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status: got %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateTableStatus(404, UpdateTableStatusRequest{Status: string(models.TableStatusOccupied)}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unknown table: got %v, want ErrTableNotFound", err)
	}

	// A table holding an active order cannot be forced back to available.
	tableID := int64(1)
	orderRepo.orders[1] = &models.Order{ID: 1, TableID: &tableID, Status: models.OrderStatusPreparing}
	if _, err := svc.UpdateTableStatus(1, UpdateTableStatusRequest{Status: string(models.TableStatusAvailable)}); !errors.Is(err, ErrValidation) {
		t.Errorf("active orders: got %v, want ErrValidation", err)
	}

	orderRepo.orders[1].Status = models.OrderStatusCompleted
	if _, err := svc.UpdateTableStatus(1, UpdateTableStatusRequest{Status: string(models.TableStatusAvailable)}); err != nil {
		t.Errorf("table with only closed orders should be releasable: %v", err)
	}
}
