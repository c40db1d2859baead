package services

import (
	"database/sql"
	"errors"
	"fmt"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/repositories"
	"cafe_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthResponse is returned on successful login or token refresh.
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req models.RegistrationPayload) (*models.User, error)
	LoginUser(req models.Credentials) (*AuthResponse, error)
	RefreshToken(refreshToken string) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	clock    utils.Clock
	db       *sql.DB
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ur repositories.UserRepository, clock utils.Clock, db *sql.DB) AuthService {
	return &authService{userRepo: ur, clock: clock, db: db}
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(req models.RegistrationPayload) (*models.User, error) {
	role := models.RoleWaiter
	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleWaiter {
			return nil, fmt.Errorf("%w: unknown role %s", ErrValidation, *req.Role)
		}
		role = *req.Role
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPasswordBytes),
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.userRepo.CreateUser(s.db, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, req.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// LoginUser verifies credentials and issues a token pair.
func (s *authService) LoginUser(req models.Credentials) (*AuthResponse, error) {
	user, err := s.userRepo.GetUserByUsername(s.db, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user for login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(user)
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *authService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetActiveUserByID(s.db, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, fmt.Errorf("failed to fetch user for token refresh: %w", err)
	}
	return s.issueTokens(user)
}

// GetUserProfile retrieves a user's profile information.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
