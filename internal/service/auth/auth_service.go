package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"articly/internal/domain"
	"articly/internal/repository"
	apperrors "articly/pkg/errors"
	"articly/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var (
	nameRegexp  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Service implements authentication with bcrypt password hashing and HS256 JWTs
type Service struct {
	users     repository.UserRepository
	logger    *logger.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService creates a new auth service
func NewService(users repository.UserRepository, log *logger.Logger, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		users:     users,
		logger:    log,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Signup registers a new user with a hashed password
func (s *Service) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return user, nil
}

// Login verifies credentials and issues a JWT
func (s *Service) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, apperrors.NewAuthenticationError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.NewAuthenticationError("Invalid credentials")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign token", err)
	}

	s.logger.WithField("user_id", user.ID).Debug("User logged in")

	return &domain.LoginResponse{
		AccessToken: token,
		User:        user,
	}, nil
}

// ValidateToken validates a JWT and returns its claims
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.AuthClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewAuthenticationError("Invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, apperrors.NewAuthenticationError("Invalid token claims")
	}

	return &domain.AuthClaims{
		UserID: sub,
		Email:  email,
		Role:   domain.Role(role),
	}, nil
}

// validateSignup checks registration constraints
func validateSignup(req *domain.SignupRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" || !nameRegexp.MatchString(name) {
		return apperrors.NewValidationError("Name must contain only alphabets and spaces", nil)
	}
	if !emailRegexp.MatchString(req.Email) {
		return apperrors.NewValidationError("Invalid email format", nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if !req.Role.Valid() {
		return apperrors.NewValidationError("Role must be AUTHOR or READER", nil)
	}
	return nil
}

// validatePassword enforces minimum password strength
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("Password must be at least 8 characters long", nil)
	}

	var hasUpper, hasLower, hasDigitOrSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		default:
			hasDigitOrSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigitOrSpecial {
		return apperrors.NewValidationError(
			"Password is too weak. Must contain uppercase, lowercase, and a number or special character", nil)
	}

	return nil
}
