// Package service holds the business rules of CodeMinder.
//
// Services sit between the HTTP handlers and the repositories:
//
//	Handler (HTTP) -> Service (rules) -> Repository (storage)
//	                               \-> platform adapters, ai.Model, ...
//
// They never see an http.Request. Errors they return are apperror values
// (or wrap one) so the handler layer can map them to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/auth"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// AuthService registers users and logs them in with email and password.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user with a freshly issued bearer token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates an account. A taken email is apperror.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	case in.Email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case in.Password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordLength) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be between %d and %d characters", auth.MinPasswordLength, auth.MaxPasswordLength))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "User already exists", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return s.issue(user)
}

// Login checks the credentials. Unknown email and wrong password both return
// the same apperror.ErrUnauthenticated so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("Invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthenticated("Invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
