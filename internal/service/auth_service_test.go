package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal-server/internal/domain"
)

const testSecret = "test-secret-key"

func newTestAuthService() (*AuthService, *mockManager) {
	m := newMockManager()
	return NewAuthService(m, testSecret, 15*time.Minute, 24*time.Hour), m
}

func registerTestUser(t *testing.T, s *AuthService) {
	t.Helper()
	err := s.Register(context.Background(), &domain.RegisterRequest{
		Username: "writer",
		Email:    "writer@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	s, m := newTestAuthService()
	registerTestUser(t, s)

	if len(m.users.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(m.users.users))
	}
	for _, u := range m.users.users {
		if u.Password == "password123" {
			t.Error("expected password to be hashed")
		}
	}
}

func TestAuthService_RegisterDuplicates(t *testing.T) {
	s, _ := newTestAuthService()
	registerTestUser(t, s)

	err := s.Register(context.Background(), &domain.RegisterRequest{
		Username: "other",
		Email:    "writer@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	err = s.Register(context.Background(), &domain.RegisterRequest{
		Username: "writer",
		Email:    "other@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	s, _ := newTestAuthService()
	registerTestUser(t, s)

	resp, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "writer@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens to be issued")
	}
	if resp.User.Password != "" {
		t.Error("expected password to be stripped from response")
	}
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	s, _ := newTestAuthService()
	registerTestUser(t, s)

	_, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "writer@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = s.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	s, _ := newTestAuthService()
	registerTestUser(t, s)

	login, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "writer@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resp, err := s.RefreshToken(context.Background(), &domain.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected a fresh access token")
	}

	if _, err := s.RefreshToken(context.Background(), &domain.RefreshTokenRequest{
		RefreshToken: "not-a-token",
	}); err == nil {
		t.Error("expected error for garbage token")
	}
}
