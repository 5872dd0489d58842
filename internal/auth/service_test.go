package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NizarSH98/OD-SaaS/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(NewRepository(database.Conn()), logger)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Email != "alex@example.com" || token == "" {
		t.Fatalf("unexpected register result: %+v token=%q", user, token)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}

	loggedIn, loginToken, err := svc.Login(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if loggedIn.ID != user.ID || loginToken == "" {
		t.Fatalf("unexpected login result: %+v", loggedIn)
	}
	if loggedIn.LastLogin == nil {
		t.Error("last login not recorded")
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alex@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "ALEX@Example.COM", "secret123"); err != nil {
		t.Fatalf("login with different email case failed: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "not-an-email", "secret123"); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, _, err := svc.Register(ctx, "a@b.com", "short"); err == nil {
		t.Error("expected error for short password")
	}

	if _, _, err := svc.Register(ctx, "dup@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(ctx, "dup@example.com", "secret456"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Register(ctx, "alex@example.com", "secret123")

	if _, _, err := svc.Login(ctx, "alex@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated wrong user: %+v", got)
	}

	if _, err := svc.Authenticate(ctx, "bogus-token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("session usable after logout: %v", err)
	}
}

func TestEnsureDemoUser_Idempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureDemoUser(ctx); err != nil {
		t.Fatalf("first EnsureDemoUser error: %v", err)
	}
	if err := svc.EnsureDemoUser(ctx); err != nil {
		t.Fatalf("second EnsureDemoUser error: %v", err)
	}

	if _, _, err := svc.Login(ctx, DemoEmail, DemoPassword); err != nil {
		t.Errorf("demo login failed: %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alex@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	expired := &Session{
		Token:     NewToken(),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	if err := svc.repo.CreateSession(ctx, expired); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authenticate(ctx, expired.Token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired session accepted: %v", err)
	}

	if err := svc.PurgeExpiredSessions(ctx); err != nil {
		t.Fatalf("PurgeExpiredSessions error: %v", err)
	}
	if session, _ := svc.repo.GetSession(ctx, expired.Token); session != nil {
		t.Error("expired session not purged")
	}
}
