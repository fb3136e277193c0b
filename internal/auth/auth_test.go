package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tobiaswld/chatdesk/internal/auth"
	"github.com/tobiaswld/chatdesk/internal/db"
	"github.com/tobiaswld/chatdesk/internal/models"
)

type fakeUserStore struct {
	byEmail    map[string]*models.User
	byUsername map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:    make(map[string]*models.User),
		byUsername: make(map[string]*models.User),
	}
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	email := strings.ToLower(user.Email)
	if _, ok := s.byEmail[email]; ok {
		return db.ErrEmailTaken
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return db.ErrUsernameTaken
	}
	s.byEmail[email] = user
	s.byUsername[user.Username] = user
	return nil
}

func (s *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return user, nil
}

func newTestService(t *testing.T, ttl time.Duration) *auth.Service {
	t.Helper()

	svc, err := auth.NewService("test-secret", ttl, 4, newFakeUserStore())
	if err != nil {
		t.Fatalf("unexpected error creating auth service: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, time.Hour)

	registerResult, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if registerResult.Token == "" {
		t.Fatalf("expected token on registration")
	}

	if registerResult.User.ID == "" {
		t.Fatalf("expected user id to be populated")
	}

	if registerResult.User.PasswordHash != "" {
		t.Fatalf("expected sanitized user in result")
	}

	identity, err := svc.VerifyToken(registerResult.Token)
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}

	if identity.ID != registerResult.User.ID {
		t.Fatalf("expected token subject %s, got %s", registerResult.User.ID, identity.ID)
	}

	if identity.Username != "alice" || identity.Email != "alice@x.com" {
		t.Fatalf("expected identity fields embedded in token, got %+v", identity)
	}

	loginResult, err := svc.Login(context.Background(), auth.LoginInput{
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	if loginResult.Token == "" {
		t.Fatalf("expected token on login")
	}

	if _, err := svc.Login(context.Background(), auth.LoginInput{
		Email:    "alice@x.com",
		Password: "wrong-password",
	}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}

	if _, err := svc.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@x.com",
		Password: "Abcd1234!",
	}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newTestService(t, time.Hour)

	if _, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "other",
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	}); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	if _, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "other@x.com",
		Password: "Abcd1234!",
	}); !errors.Is(err, auth.ErrUsernameTaken) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	svc := newTestService(t, time.Hour)

	result, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	parts := strings.Split(result.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}

	tampered := parts[0] + "." + parts[1] + "." + flipFirstByte(parts[2])
	if _, err := svc.VerifyToken(tampered); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token error for tampered signature, got %v", err)
	}

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token error for garbage, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, time.Millisecond)

	result, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "Abcd1234!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := svc.VerifyToken(result.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token error for expired token, got %v", err)
	}
}

func flipFirstByte(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	return string(b)
}
