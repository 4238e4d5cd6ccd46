// Package service holds the business rules between the HTTP handlers and the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"devhabit/internal/middleware"
	"devhabit/internal/models"
	"devhabit/internal/observability"
	"devhabit/internal/repository"
	"devhabit/internal/validation"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgPleaseAuthenticate = "Please authenticate."
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Sign(userID uint) (string, time.Time, error)
	Parse(token string) (uint, error)
}

type UserService struct {
	userRepo   repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateUserInput lists the mutable user fields. Nil means unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
}

func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer, bcryptCost int) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a user with a hashed password. A taken email or username is a validation error.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user := &models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    validation.NormalizeEmail(in.Email),
		FullName: strings.TrimSpace(in.FullName),
	}

	result := validation.ValidateRegistration(user, in.Password)
	if err := result.Err(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, user.Email)
	switch {
	case err == nil && existing != nil:
		return nil, models.NewValidationError(msgUserExists)
	case err != nil && !isNotFound(err):
		return nil, err
	}

	if err := user.SetPassword(in.Password, s.bcryptCost); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login verifies credentials, issues a new token and appends it to the user's active sessions.
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, error) {
	ctx, span := observability.StartSpan(ctx, "UserService.Login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		if isNotFound(err) {
			observability.RecordSessionEvent("login_failed")
			return "", models.NewUnauthorizedError(msgInvalidCredentials)
		}
		return "", err
	}
	if !user.CheckPassword(in.Password) {
		observability.RecordSessionEvent("login_failed")
		return "", models.NewUnauthorizedError(msgInvalidCredentials)
	}

	token, issuedAt, err := s.tokens.Sign(user.ID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	user.AddToken(token, issuedAt)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	observability.RecordSessionEvent("login")
	return token, nil
}

// Authenticate resolves a bearer token to its user. The token must verify and still be
// present in the user's active sessions. Every failure is the same unauthorized error.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, s.reject(ctx, "invalid token", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, s.reject(ctx, "user not found", err)
		}
		return nil, err
	}
	if !user.HasToken(token) {
		return nil, s.reject(ctx, "token revoked", nil)
	}
	return user, nil
}

func (s *UserService) reject(ctx context.Context, reason string, cause error) error {
	observability.RecordSessionEvent("rejected")
	attrs := []any{slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	middleware.Logger.DebugContext(ctx, "authentication rejected", attrs...)
	return models.NewUnauthorizedError(msgPleaseAuthenticate)
}

// UpdateUser applies a partial update. A new password is validated and hashed exactly once.
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		user.Email = validation.NormalizeEmail(*in.Email)
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}

	result := validation.ValidateUser(user)
	if in.Password != nil {
		result.Check("password", validation.ValidatePassword(*in.Password))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		if err := user.SetPassword(*in.Password, s.bcryptCost); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and everything they own.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	return s.userRepo.Delete(ctx, id)
}

// Logout revokes a single session token.
func (s *UserService) Logout(ctx context.Context, userID uint, token string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RemoveToken(token)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	observability.RecordSessionEvent("logout")
	return nil
}

// LogoutAll revokes every session token of the user.
func (s *UserService) LogoutAll(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.ClearTokens()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	observability.RecordSessionEvent("logout_all")
	return nil
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
