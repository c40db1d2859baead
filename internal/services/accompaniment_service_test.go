package services

import (
	"testing"

	"cafe_pos_backend/internal/models"
)

func intPtr(i int) *int { return &i }

func sauceGroups() []models.AccompanimentGroup {
	return []models.AccompanimentGroup{
		{
			ID:            1,
			ProductID:     10,
			Name:          "Sauce",
			SelectionType: models.SelectionSingle,
			IsRequired:    true,
			Accompaniments: []models.Accompaniment{
				{ID: 101, GroupID: 1, Name: "Ketchup", ExtraCharge: 0, IsAvailable: true},
				{ID: 102, GroupID: 1, Name: "Garlic", ExtraCharge: 0.5, IsAvailable: true},
				{ID: 103, GroupID: 1, Name: "Truffle", ExtraCharge: 2, IsAvailable: false},
			},
		},
		{
			ID:            2,
			ProductID:     10,
			Name:          "Extras",
			SelectionType: models.SelectionMultiple,
			IsRequired:    false,
			MinSelections: intPtr(0),
			MaxSelections: intPtr(2),
			Accompaniments: []models.Accompaniment{
				{ID: 201, GroupID: 2, Name: "Cheese", ExtraCharge: 1, IsAvailable: true},
				{ID: 202, GroupID: 2, Name: "Bacon", ExtraCharge: 1.5, IsAvailable: true},
				{ID: 203, GroupID: 2, Name: "Egg", ExtraCharge: 0.75, IsAvailable: true},
			},
		},
	}
}

func TestValidateSelectionAgainstGroups(t *testing.T) {
	tests := []struct {
		name       string
		groups     []models.AccompanimentGroup
		selected   []int64
		wantCount  int
		wantPhrase string
	}{
		{
			name:      "valid single plus two extras",
			groups:    sauceGroups(),
			selected:  []int64{101, 201, 202},
			wantCount: 0,
		},
		{
			name:       "required group empty",
			groups:     sauceGroups(),
			selected:   []int64{201},
			wantCount:  1,
			wantPhrase: "a selection from 'Sauce' is required",
		},
		{
			name:       "single group with two selections",
			groups:     sauceGroups(),
			selected:   []int64{101, 102},
			wantCount:  1,
			wantPhrase: "'Sauce' allows only one selection",
		},
		{
			name:       "multiple group over max",
			groups:     sauceGroups(),
			selected:   []int64{101, 201, 202, 203},
			wantCount:  1,
			wantPhrase: "'Extras' allows at most 2 selection(s)",
		},
		{
			name:       "unavailable accompaniment selected",
			groups:     sauceGroups(),
			selected:   []int64{103},
			wantCount:  1,
			wantPhrase: "accompaniment 'Truffle' is not available",
		},
		{
			name:       "unknown accompaniment id",
			groups:     sauceGroups(),
			selected:   []int64{101, 999},
			wantCount:  1,
			wantPhrase: "accompaniment ID 999 does not belong to this product",
		},
		{
			name: "min selections enforced even when group not required",
			groups: []models.AccompanimentGroup{{
				ID: 3, ProductID: 10, Name: "Sides",
				SelectionType: models.SelectionMultiple,
				MinSelections: intPtr(1), MaxSelections: intPtr(3),
				Accompaniments: []models.Accompaniment{
					{ID: 301, GroupID: 3, Name: "Fries", IsAvailable: true},
				},
			}},
			selected:   nil,
			wantCount:  1,
			wantPhrase: "'Sides' requires at least 1 selection(s)",
		},
		{
			name:      "no groups always valid",
			groups:    nil,
			selected:  nil,
			wantCount: 0,
		},
		{
			name:      "no groups with stray selection",
			groups:    nil,
			selected:  []int64{5},
			wantCount: 1,
		},
		{
			name:      "multiple violations collected together",
			groups:    sauceGroups(),
			selected:  []int64{103, 201, 202, 203},
			wantCount: 2, // unavailable sauce picked, extras over max
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := ValidateSelectionAgainstGroups(tt.groups, tt.selected)
			if len(violations) != tt.wantCount {
				t.Fatalf("got %d violations %v, want %d", len(violations), violations, tt.wantCount)
			}
			if tt.wantPhrase != "" && !containsViolation(violations, tt.wantPhrase) {
				t.Errorf("violations %v missing %q", violations, tt.wantPhrase)
			}
		})
	}
}

func TestValidateSelection_ThroughService(t *testing.T) {
	accompRepo := newFakeAccompanimentRepo()
	accompRepo.groupsByProduct[10] = sauceGroups()
	svc := NewAccompanimentService(accompRepo, newStubDB())

	valid, violations, err := svc.ValidateSelection(10, []int64{101})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid || len(violations) != 0 {
		t.Fatalf("want valid selection, got valid=%v violations=%v", valid, violations)
	}

	valid, violations, err = svc.ValidateSelection(10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid || len(violations) == 0 {
		t.Fatalf("want invalid selection for empty required group, got valid=%v", valid)
	}
}

func TestCalculateTotalExtraCharges(t *testing.T) {
	accompRepo := newFakeAccompanimentRepo()
	accompRepo.groupsByProduct[10] = sauceGroups()
	svc := NewAccompanimentService(accompRepo, newStubDB())

	total, err := svc.CalculateTotalExtraCharges([]int64{102, 201, 202})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3.0 {
		t.Errorf("got total %v, want 3.0", total)
	}

	total, err = svc.CalculateTotalExtraCharges(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("empty selection should cost nothing, got %v", total)
	}
}
