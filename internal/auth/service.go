// Package auth manages user credentials and login sessions. Password hashes
// use bcrypt; sessions are opaque bearer tokens stored in sqlite.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Demo account seeded at startup so a fresh deployment is usable immediately.
const (
	DemoEmail    = "demo@visionlabel.pro"
	DemoPassword = "demo123"
)

const minPasswordLength = 6

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates a new user and opens a session for it.
func (s *Service) Register(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user and opens a session. Inactive accounts and
// wrong passwords both surface as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout removes the session for a token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to its user, rejecting expired
// sessions and inactive accounts.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, ErrInvalidSession
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// EnsureDemoUser creates the demo account if it does not exist yet.
func (s *Service) EnsureDemoUser(ctx context.Context) error {
	existing, err := s.repo.GetUserByEmail(ctx, DemoEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, _, err = s.Register(ctx, DemoEmail, DemoPassword)
	return err
}

// PurgeExpiredSessions drops sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	return s.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func (s *Service) openSession(ctx context.Context, user *User) (string, error) {
	now := time.Now().UTC()
	session := &Session{
		Token:     NewToken(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return session.Token, nil
}
