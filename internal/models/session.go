package models

import "time"

// UserSession is the server-side half of a login; its id is the token's sid claim.
type UserSession struct {
	Base
	UserID    string     `json:"userId"    gorm:"size:36;index;not null"`
	IP        string     `json:"ip"        gorm:"size:64"`
	UA        string     `json:"ua"        gorm:"type:text"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revokedAt" gorm:"index"`
}

func (UserSession) TableName() string { return "user_sessions" }
