package services

import (
	"context"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/auth"
)

// UserStore is the slice of the user repository AuthService needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthService handles registration and login for all roles.
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a user account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", apperr.Wrap(apperr.Internal, "hash password", err)
	}

	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, "", err
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return models.User{}, "", apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user plus a signed token.
// Wrong email and wrong password produce the same error so the
// response does not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.User{}, "", apperr.New(apperr.Unauthorized, "Invalid email or password")
	}
	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", apperr.New(apperr.Unauthorized, "Invalid email or password")
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		return models.User{}, "", apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return user, token, nil
}
