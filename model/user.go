package model

import "time"

// UserEntity represents the users table entity
type UserEntity struct {
	ID           uint64    `db:"id" json:"id"`
	Name         string    `db:"user_name" json:"name"`
	Email        string    `db:"user_email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserFilter for querying users
type UserFilter struct {
	ID    uint64
	Email string
}

type RegisterRequest struct {
	Name     string `json:"user_name" validate:"required"`
	Email    string `json:"user_email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  uint64 `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"user_email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginUser struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
}
