package services

import (
	"errors"
	"testing"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/pkg/utils"
)

func newAuthFixture() (*fakeUserRepo, AuthService) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo, utils.FixedClock{Time: testTime}, newStubDB())
	return userRepo, svc
}

func strPtr(s string) *string { return &s }

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthFixture()

	user, err := svc.RegisterUser(models.RegistrationPayload{
		Username: "aruzhan",
		Password: "correct-horse",
		FullName: strPtr("Aruzhan S."),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != models.RoleWaiter {
		t.Errorf("got role %s, want default waiter", user.Role)
	}
	if user.PasswordHash == "correct-horse" {
		t.Errorf("password stored in plain text")
	}

	response, err := svc.LoginUser(models.Credentials{Username: "aruzhan", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.AccessToken == "" || response.RefreshToken == "" {
		t.Errorf("token pair missing: %+v", response)
	}
	if response.User.ID != user.ID {
		t.Errorf("response user mismatch")
	}
}

func TestLoginFailures(t *testing.T) {
	userRepo, svc := newAuthFixture()
	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "aruzhan", Password: "correct-horse"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.LoginUser(models.Credentials{Username: "aruzhan", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginUser(models.Credentials{Username: "nobody", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v, want ErrInvalidCredentials", err)
	}

	for _, u := range userRepo.users {
		u.IsActive = false
	}
	if _, err := svc.LoginUser(models.Credentials{Username: "aruzhan", Password: "correct-horse"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive user: got %v, want ErrUserInactive", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, svc := newAuthFixture()

	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "a", Password: "short"}); !errors.Is(err, ErrValidation) {
		t.Errorf("short password: got %v, want ErrValidation", err)
	}
	role := "superuser"
	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "a", Password: "long-enough", Role: &role}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown role: got %v, want ErrValidation", err)
	}

	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "dup", Password: "long-enough"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "dup", Password: "long-enough"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username: got %v, want ErrUsernameTaken", err)
	}
}

func TestRefreshToken(t *testing.T) {
	userRepo, svc := newAuthFixture()
	if _, err := svc.RegisterUser(models.RegistrationPayload{Username: "aruzhan", Password: "correct-horse"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	login, err := svc.LoginUser(models.Credentials{Username: "aruzhan", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refreshed, err := svc.RefreshToken(login.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Errorf("refresh should issue a new access token")
	}

	if _, err := svc.RefreshToken("not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("garbage token: got %v, want ErrInvalidCredentials", err)
	}

	for _, u := range userRepo.users {
		u.IsActive = false
	}
	if _, err := svc.RefreshToken(login.RefreshToken); !errors.Is(err, ErrUserInactive) {
		t.Errorf("deactivated user: got %v, want ErrUserInactive", err)
	}
}
