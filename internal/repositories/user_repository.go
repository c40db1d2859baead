package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_pos_backend/internal/models"

	"github.com/lib/pq"
)

// UserRepository defines the interface for user database operations. It serves
// both the auth surface (create/lookup by username) and the user directory the
// order flow needs (active waiter lookup, active admin listing).
type UserRepository interface {
	CreateUser(executor SQLExecutor, user *models.User) (int64, error)
	GetUserByID(executor SQLExecutor, id int64) (*models.User, error)
	GetUserByUsername(executor SQLExecutor, username string) (*models.User, error)
	GetActiveUserByID(executor SQLExecutor, id int64) (*models.User, error)
	ListActiveAdmins(executor SQLExecutor) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}
	return user, nil
}

func (r *userRepository) CreateUser(executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = currentTime
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = currentTime
	}

	err := executor.QueryRow(query,
		user.Username, user.PasswordHash, user.Email, user.FullName, user.Role,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: username '%s' already exists (constraint: %s)", ErrDuplicateKey, user.Username, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return user.ID, nil
}

func (r *userRepository) GetUserByID(executor SQLExecutor, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(executor.QueryRow(query, id))
}

func (r *userRepository) GetUserByUsername(executor SQLExecutor, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(executor.QueryRow(query, username))
}

func (r *userRepository) GetActiveUserByID(executor SQLExecutor, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = TRUE`
	return scanUser(executor.QueryRow(query, id))
}

func (r *userRepository) ListActiveAdmins(executor SQLExecutor) ([]models.User, error) {
	admins := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active = TRUE ORDER BY id`
	rows, err := executor.Query(query, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active admins: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.FullName,
			&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning admin user: %v", ErrDatabaseError, err)
		}
		admins = append(admins, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating admin users: %v", ErrDatabaseError, err)
	}
	return admins, nil
}
