package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "authgate/internal/errors"
	"authgate/internal/metrics"
	"authgate/internal/model"
	"authgate/internal/password"
	"authgate/internal/repository"
	"authgate/internal/token"
)

// AuthService orchestrates registration and login.
type AuthService interface {
	// Register creates a user and returns it with a freshly issued token.
	Register(ctx context.Context, email, name, plaintext string) (*model.User, string, error)
	// Login verifies credentials and returns the user with a fresh token.
	Login(ctx context.Context, email, plaintext string) (*model.User, string, error)
}

type authService struct {
	users  repository.UserRepository
	hasher *password.Hasher
	tokens *token.Service
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher *password.Hasher, tokens *token.Service) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// NormalizeEmail lowers and trims an email address. Every comparison and
// every stored value goes through this, so casing or whitespace variants of
// one address always resolve to the same record.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, email, name, plaintext string) (*model.User, string, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	existing, err := s.users.FindByEmail(ctx, email, false)
	if err != nil {
		return nil, "", fmt.Errorf("check email availability: %w", err)
	}
	if existing != nil {
		metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
		return nil, "", apperrors.ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash(ctx, plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A racing registration may reach the insert first; the unique index
		// reports it and it is surfaced exactly like the early check.
		if errors.Is(err, apperrors.ErrEmailAlreadyRegistered) {
			metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	log.Printf("user registered: %s", user.Email)
	return user, accessToken, nil
}

func (s *authService) Login(ctx context.Context, email, plaintext string) (*model.User, string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// Unknown email and wrong password intentionally share one error.
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, "", apperrors.ErrInvalidCredentials
	}

	ok, err := s.hasher.Check(ctx, plaintext, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, "", apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Printf("warn: failed to record last login for %s: %v", user.ID, err)
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	log.Printf("user logged in: %s", user.Email)
	return user, accessToken, nil
}
