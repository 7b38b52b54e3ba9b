package service

import (
	"context"
	"errors"
	"strings"

	"github.com/toosila/toosila-api/internal/database"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error)
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	cost     int
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsDriver:     req.IsDriver,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.InvalidCredentials()
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, apperrors.InvalidCredentials()
	}
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user.ToResponse(), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.IsDriver != nil {
		user.IsDriver = *req.IsDriver
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// GetUser returns the public profile of any user
func (s *authService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user.ToPublicResponse(), nil
}

func (s *authService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user.ToResponse()}, nil
}
