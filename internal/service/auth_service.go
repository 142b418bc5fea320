package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"attendtrack/internal/credentials"
	"attendtrack/internal/models"
	"attendtrack/internal/repository"
	"attendtrack/internal/security"
	"attendtrack/internal/session"
	"attendtrack/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already taken")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo *repository.UserRepository
	sessions session.Store
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, sessions session.Store) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Login authenticates by username or email and creates a session.
// Accounts still holding a legacy digest are upgraded to bcrypt.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByLogin(login)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	if security.IsLegacyDigest(user.PasswordHash) {
		s.upgradeDigest(user, password)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	return token, user, nil
}

func (s *AuthService) upgradeDigest(user *models.User, password string) {
	hash, err := security.HashPassword(password)
	if err != nil {
		log.Printf("Failed to rehash password for user %d: %v", user.ID, err)
		return
	}
	if err := s.userRepo.UpdatePasswordHash(user.ID, hash); err != nil {
		log.Printf("Failed to upgrade password digest for user %d: %v", user.ID, err)
		return
	}
	user.PasswordHash = hash
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// Me returns the current account for a principal
func (s *AuthService) Me(p *models.Principal) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// NewUser is the input for creating a staff account
type NewUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUser creates a staff account. When no password is supplied a temporary
// one is generated and returned.
func (s *AuthService) CreateUser(input NewUser) (*models.User, string, error) {
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, "", err
	}
	role, err := models.ParseRole(input.Role)
	if err != nil {
		return nil, "", validation.ValidationError{Field: "role", Message: "role must be admin or teacher"}
	}

	password := input.Password
	generated := ""
	if password == "" {
		password, err = credentials.GenerateTemporaryPassword()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate password: %w", err)
		}
		generated = password
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(input.Username, strings.TrimSpace(input.Email), hash, role, input.FirstName, input.LastName)
	if err != nil {
		if s.userRepo.IsUniqueViolation(err) {
			return nil, "", ErrUserExists
		}
		return nil, "", err
	}
	return user, generated, nil
}

// SeedAdmin creates the initial admin account when the users table is empty
func (s *AuthService) SeedAdmin(username, email, password string) (bool, error) {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}
	if _, err := s.userRepo.CreateUser(username, email, hash, models.RoleAdmin, "System", "Administrator"); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
