package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	EmployeeNo string `json:"employee_no" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	EmployeeNo string    `json:"employee_no"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	CreatedAt  string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	repo     repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, jwtSecret string) UserService {
	return &userService{repo: repo, secret: []byte(jwtSecret), tokenTTL: 24 * time.Hour}
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == model.RoleEmployee || role == model.RoleSupervisor || role == model.RoleAdmin
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		EmployeeNo: user.EmployeeNo,
		Name:       user.Name,
		Email:      user.Email,
		Department: user.Department,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !ValidRole(req.Role) {
		return nil, fmt.Errorf("%w: role must be employee, supervisor or admin", ErrValidation)
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		EmployeeNo: strings.TrimSpace(req.EmployeeNo),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Department: req.Department,
		Password:   hashed,
		Role:       req.Role,
		IsActive:   true,
	}

	// unique indexes on employee_no and email report duplicates
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storeErr(err, "user")
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	invalid := fmt.Errorf("%w: invalid email or password", ErrAuthorization)

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"name": user.Name,
		"exp":  expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt.Format(time.RFC3339)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}
