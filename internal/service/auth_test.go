package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/service"
)

func newAuthFixture(t *testing.T) *service.AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("contabil123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return service.NewAuthService("escritorio", string(hash), []byte("test-secret"), time.Hour, zap.NewNop())
}

func TestLogin_ValidCredentials(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "escritorio",
		Password: "contabil123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a signed token")
	}
	if resp.Username != "escritorio" {
		t.Errorf("username = %s, want escritorio", resp.Username)
	}

	parsed, err := jwt.Parse(resp.Token, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token must verify with the signing secret: %v", err)
	}
	sub, _ := parsed.Claims.GetSubject()
	if sub != "escritorio" {
		t.Errorf("sub claim = %s, want escritorio", sub)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "escritorio",
		Password: "errada",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Username: "intruso",
		Password: "contabil123",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_MissingFields_Validation(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "escritorio"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
