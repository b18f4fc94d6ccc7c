package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/contafacil/escritorio-go/internal/domain"
)

var authTracer = otel.Tracer("service/auth")

// AuthService signs access tokens for the single shared office account.
// Tokens are not yet enforced on other routes.
type AuthService struct {
	username     string
	passwordHash string
	secret       []byte
	tokenTTL     time.Duration
	logger       *zap.Logger
	validate     *validator.Validate
}

// NewAuthService creates a new auth service. passwordHash is a bcrypt
// hash of the office password.
func NewAuthService(username, passwordHash string, secret []byte, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		secret:       secret,
		tokenTTL:     tokenTTL,
		logger:       logger,
		validate:     newValidator(),
	}
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	if req.Username != s.username {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login rejected", zap.String("username", req.Username))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := time.Now()
	expires := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": req.Username,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "jwt", Err: err}
	}

	s.logger.Info("login accepted", zap.String("username", req.Username))
	return &domain.LoginResponse{
		Token:     signed,
		Username:  req.Username,
		ExpiresAt: expires.Format(time.RFC3339),
	}, nil
}
