package user

import (
	"errors"
	"time"
)

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginTime *time.Time `json:"lastLoginTime,omitempty"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user,omitempty"`
}

type sessionResponse struct {
	ID      string    `json:"id"`
	UA      string    `json:"ua"`
	IP      string    `json:"ip"`
	Date    time.Time `json:"date"`
	Current bool      `json:"current"`
}

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errEmailTaken         = errors.New("email already registered")
	errWrongPassword      = errors.New("wrong password")
	errPasswordSameAsOld  = errors.New("password same as old")
)
