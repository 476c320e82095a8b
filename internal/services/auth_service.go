package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit
)

// AuthService handles signup, login and profile settings.
type AuthService struct {
	users    ledger.UserQueries
	sessions *auth.Sessions
	logger   *log.Logger
	cost     int
}

func NewAuthService(users ledger.UserQueries, sessions *auth.Sessions, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentAuth),
		cost:     bcrypt.DefaultCost,
	}
}

// Signup creates a user and returns its id. Duplicate username or email
// yields core.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return 0, core.NewValidationError("user", "All fields are required")
	}
	if err := validateEmail(email); err != nil {
		return 0, err
	}
	if err := validatePassword("password", password); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.CreateUser(ctx, core.User{Username: username, Email: email, PasswordHash: string(hash)})
	if err != nil {
		return 0, persistenceError("create user", err)
	}
	s.logger.InfoContext(ctx, "User created", log.FieldUserID, id)
	return id, nil
}

// Login checks the credentials and issues a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.Session, core.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return core.Session{}, core.User{}, core.NewValidationError("credentials", "Email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, core.User{}, core.ErrUnauthenticated
		}
		return core.Session{}, core.User{}, persistenceError("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUserID, user.ID, log.FieldOperation, log.OpLogin)
		return core.Session{}, core.User{}, core.ErrUnauthenticated
	}

	sess, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return core.Session{}, core.User{}, persistenceError("issue session", err)
	}
	return sess, user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return persistenceError("revoke session", err)
	}
	return nil
}

// Authenticate resolves a session token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	id, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return 0, persistenceError("verify session", err)
	}
	return id, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, persistenceError("get profile", err)
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, username, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return core.NewValidationError("username", "Username is required")
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.users.UpdateProfile(ctx, userID, username, email); err != nil {
		return persistenceError("update profile", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistenceError("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return core.NewValidationError("currentPassword", "Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return persistenceError("update password", err)
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return core.NewValidationError("email", "Valid email is required")
	}
	return nil
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return core.NewValidationError(field, fmt.Sprintf("Password must be between %d and %d characters long", minPasswordLen, maxPasswordLen))
	}
	return nil
}
