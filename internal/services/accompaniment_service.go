package services

import (
	"database/sql"
	"fmt"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
)

// AccompanimentService validates accompaniment selections against a product's
// group rules and prices them.
type AccompanimentService interface {
	// ValidateSelection checks the selected accompaniment IDs against every
	// group of the product. All violations are collected; the caller sees the
	// full list, not just the first one.
	ValidateSelection(productID int64, selectedIDs []int64) (bool, []string, error)
	// CalculateTotalExtraCharges sums the current extra charges of the given
	// accompaniments. An empty selection costs nothing.
	CalculateTotalExtraCharges(selectedIDs []int64) (float64, error)
	GetGroupsForProduct(productID int64) ([]models.AccompanimentGroup, error)
}

type accompanimentService struct {
	accompanimentRepo repositories.AccompanimentRepository
	db                *sql.DB
}

// NewAccompanimentService creates a new instance of AccompanimentService.
func NewAccompanimentService(ar repositories.AccompanimentRepository, db *sql.DB) AccompanimentService {
	return &accompanimentService{accompanimentRepo: ar, db: db}
}

func (s *accompanimentService) ValidateSelection(productID int64, selectedIDs []int64) (bool, []string, error) {
	groups, err := s.accompanimentRepo.GetGroupsForProduct(s.db, productID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to load accompaniment groups for product %d: %w", productID, err)
	}
	violations := ValidateSelectionAgainstGroups(groups, selectedIDs)
	return len(violations) == 0, violations, nil
}

func (s *accompanimentService) CalculateTotalExtraCharges(selectedIDs []int64) (float64, error) {
	if len(selectedIDs) == 0 {
		return 0, nil
	}
	accompaniments, err := s.accompanimentRepo.GetByIDs(s.db, selectedIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load accompaniments: %w", err)
	}
	var total float64
	for _, a := range accompaniments {
		total += a.ExtraCharge
	}
	return total, nil
}

func (s *accompanimentService) GetGroupsForProduct(productID int64) ([]models.AccompanimentGroup, error) {
	groups, err := s.accompanimentRepo.GetGroupsForProduct(s.db, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accompaniment groups for product %d: %w", productID, err)
	}
	return groups, nil
}

// ValidateSelectionAgainstGroups applies the group selection rules to an
// already-loaded set of groups and returns every violation. The order service
// calls this with groups read through its own transaction; the standalone
// service endpoint calls it through ValidateSelection. A product with zero
// groups is always valid.
func ValidateSelectionAgainstGroups(groups []models.AccompanimentGroup, selectedIDs []int64) []string {
	var violations []string

	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	known := make(map[int64]bool)
	for _, group := range groups {
		var selectedFromGroup []models.Accompaniment
		for _, a := range group.Accompaniments {
			known[a.ID] = true
			if selected[a.ID] {
				selectedFromGroup = append(selectedFromGroup, a)
			}
		}

		if group.IsRequired && len(selectedFromGroup) == 0 {
			violations = append(violations, fmt.Sprintf("a selection from '%s' is required", group.Name))
		}
		if group.MinSelections != nil && len(selectedFromGroup) < *group.MinSelections {
			violations = append(violations, fmt.Sprintf("'%s' requires at least %d selection(s)", group.Name, *group.MinSelections))
		}
		if max := group.EffectiveMax(); max != nil && len(selectedFromGroup) > *max {
			if group.SelectionType == models.SelectionSingle {
				violations = append(violations, fmt.Sprintf("'%s' allows only one selection", group.Name))
			} else {
				violations = append(violations, fmt.Sprintf("'%s' allows at most %d selection(s)", group.Name, *max))
			}
		}
		for _, a := range selectedFromGroup {
			if !a.IsAvailable {
				violations = append(violations, fmt.Sprintf("accompaniment '%s' is not available", a.Name))
			}
		}
	}

	// Selections that belong to none of the product's groups are invalid.
	for _, id := range selectedIDs {
		if !known[id] {
			violations = append(violations, fmt.Sprintf("accompaniment ID %d does not belong to this product", id))
		}
	}

	return violations
}
