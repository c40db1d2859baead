package models

import "testing"

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPreparing, true},
		{OrderStatusPending, OrderStatusReady, true},
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusPreparing, OrderStatusPending, false},
		{OrderStatusReady, OrderStatusPreparing, false},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusReady, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
		{OrderStatusPending, OrderStatusPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusReady} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestAccompanimentGroupEffectiveMax(t *testing.T) {
	three := 3
	single := AccompanimentGroup{SelectionType: SelectionSingle, MaxSelections: &three}
	if max := single.EffectiveMax(); max == nil || *max != 1 {
		t.Errorf("single group must cap at 1, got %v", max)
	}

	multiple := AccompanimentGroup{SelectionType: SelectionMultiple, MaxSelections: &three}
	if max := multiple.EffectiveMax(); max == nil || *max != 3 {
		t.Errorf("multiple group should keep its configured max, got %v", max)
	}

	unbounded := AccompanimentGroup{SelectionType: SelectionMultiple}
	if max := unbounded.EffectiveMax(); max != nil {
		t.Errorf("multiple group without max should be unbounded, got %v", max)
	}
}

func TestStoreProductIsBelowMinimum(t *testing.T) {
	sp := StoreProduct{CurrentStock: 5, MinimumStock: 5}
	if sp.IsBelowMinimum() {
		t.Errorf("stock at exactly the minimum is not below it")
	}
	sp.CurrentStock = 4
	if !sp.IsBelowMinimum() {
		t.Errorf("stock under the minimum should report below")
	}
}
