// Package session persists the device sessions that back issued JWTs.
package session

import (
	"strings"
	"time"

	"github.com/logoforge/server/internal/models"
	jwtpkg "github.com/logoforge/server/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

var now = time.Now

// active limits a query to a user's unrevoked, unexpired sessions.
func active(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now())
	}
}

// Issue stores a session row for user and signs a token carrying its id.
// The row is removed again when signing fails.
func Issue(db *gorm.DB, user *models.UserModel, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &models.UserSession{
		UserID:    user.ID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.SignWithOptions(user.ID, ttl, jwtpkg.SignOptions{
		Email:     user.Email,
		SessionID: s.ID,
		IP:        s.IP,
		UA:        s.UA,
	})
	if err != nil {
		_ = db.Unscoped().Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether sessionID still authorizes userID.
// Tokens without a session id are never active.
func IsActive(db *gorm.DB, userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := db.Model(&models.UserSession{}).
		Scopes(active(userID)).
		Where("id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}

// Touch bumps last-seen. Failures are ignored.
func Touch(db *gorm.DB, userID, sessionID string) {
	if strings.TrimSpace(sessionID) == "" {
		return
	}
	_ = db.Model(&models.UserSession{}).
		Scopes(active(userID)).
		Where("id = ?", sessionID).
		Update("updated_at", now()).Error
}

func ListActive(db *gorm.DB, userID string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := db.Scopes(active(userID)).
		Order("updated_at DESC, created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Revoke ends one session. A session that is unknown or already revoked
// yields gorm.ErrRecordNotFound.
func Revoke(db *gorm.DB, userID, sessionID string) error {
	revokedAt := now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", &revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeOthers ends every session of userID except keep and returns how many were revoked.
func RevokeOthers(db *gorm.DB, userID, keep string) (int64, error) {
	revokedAt := now()
	q := db.Model(&models.UserSession{}).Where("user_id = ? AND revoked_at IS NULL", userID)
	if keep = strings.TrimSpace(keep); keep != "" {
		q = q.Where("id <> ?", keep)
	}
	res := q.Update("revoked_at", &revokedAt)
	return res.RowsAffected, res.Error
}
