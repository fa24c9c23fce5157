package user

import (
	"strings"

	"github.com/logoforge/server/internal/models"
)

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{
		ID: u.ID, Email: u.Email, Name: u.Name,
		CreatedAt: u.CreatedAt, LastLoginTime: u.LastLoginTime,
	}
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// defaultName derives a display name from the local part of an email address.
func defaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
