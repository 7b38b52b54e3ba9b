package models

import (
	"time"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsDriver     bool      `db:"is_driver" json:"is_driver"`
	RatingAvg    float64   `db:"rating_avg" json:"rating_avg"`
	RatingCount  int       `db:"rating_count" json:"rating_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	IsDriver bool   `json:"is_driver"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	IsDriver *bool   `json:"is_driver,omitempty"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Role        string  `json:"role,omitempty"`
	IsDriver    bool    `json:"is_driver"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsDriver:    u.IsDriver,
		RatingAvg:   u.RatingAvg,
		RatingCount: u.RatingCount,
	}
}

// ToPublicResponse strips contact details for profiles shown to other users
func (u *User) ToPublicResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		IsDriver:    u.IsDriver,
		RatingAvg:   u.RatingAvg,
		RatingCount: u.RatingCount,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
