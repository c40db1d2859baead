package repositories

import (
	"database/sql"
	"fmt"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// AccompanimentRepository defines the read interface for accompaniment groups
// and accompaniments. Group management is handled elsewhere; the order flow
// only ever reads.
type AccompanimentRepository interface {
	GetGroupsForProduct(executor SQLExecutor, productID int64) ([]models.AccompanimentGroup, error)
	GetByIDs(executor SQLExecutor, ids []int64) ([]models.Accompaniment, error)
}

type accompanimentRepository struct {
	db *sql.DB
}

// NewAccompanimentRepository creates a new instance of AccompanimentRepository.
func NewAccompanimentRepository(db *sql.DB) AccompanimentRepository {
	return &accompanimentRepository{db: db}
}

func (r *accompanimentRepository) GetGroupsForProduct(executor SQLExecutor, productID int64) ([]models.AccompanimentGroup, error) {
	groups := []models.AccompanimentGroup{}
	groupQuery := `SELECT id, product_id, name, selection_type, is_required, min_selections, max_selections, created_at, updated_at
	               FROM accompaniment_groups
	               WHERE product_id = $1
	               ORDER BY id`
	rows, err := executor.Query(groupQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying accompaniment groups for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	groupIndex := map[int64]int{}
	for rows.Next() {
		var g models.AccompanimentGroup
		var minSel, maxSel sql.NullInt64
		if err := rows.Scan(
			&g.ID, &g.ProductID, &g.Name, &g.SelectionType, &g.IsRequired,
			&minSel, &maxSel, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning accompaniment group: %v", ErrDatabaseError, err)
		}
		if minSel.Valid {
			val := int(minSel.Int64)
			g.MinSelections = &val
		}
		if maxSel.Valid {
			val := int(maxSel.Int64)
			g.MaxSelections = &val
		}
		groupIndex[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating accompaniment groups: %v", ErrDatabaseError, err)
	}
	if len(groups) == 0 {
		return groups, nil
	}

	accQuery := `SELECT a.id, a.group_id, a.name, a.extra_charge, a.is_available, a.created_at, a.updated_at
	             FROM accompaniments a
	             JOIN accompaniment_groups g ON a.group_id = g.id
	             WHERE g.product_id = $1
	             ORDER BY a.id`
	accRows, err := executor.Query(accQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying accompaniments for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	defer accRows.Close()

	for accRows.Next() {
		var a models.Accompaniment
		if err := accRows.Scan(
			&a.ID, &a.GroupID, &a.Name, &a.ExtraCharge, &a.IsAvailable, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning accompaniment: %v", ErrDatabaseError, err)
		}
		if idx, ok := groupIndex[a.GroupID]; ok {
			groups[idx].Accompaniments = append(groups[idx].Accompaniments, a)
		}
	}
	if err = accRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating accompaniments: %v", ErrDatabaseError, err)
	}
	return groups, nil
}

func (r *accompanimentRepository) GetByIDs(executor SQLExecutor, ids []int64) ([]models.Accompaniment, error) {
	accompaniments := []models.Accompaniment{}
	if len(ids) == 0 {
		return accompaniments, nil
	}
	query := `SELECT id, group_id, name, extra_charge, is_available, created_at, updated_at
	          FROM accompaniments
	          WHERE id = ANY($1)
	          ORDER BY id`
	rows, err := executor.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying accompaniments by ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Accompaniment
		if err := rows.Scan(
			&a.ID, &a.GroupID, &a.Name, &a.ExtraCharge, &a.IsAvailable, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning accompaniment: %v", ErrDatabaseError, err)
		}
		accompaniments = append(accompaniments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating accompaniments: %v", ErrDatabaseError, err)
	}
	return accompaniments, nil
}
