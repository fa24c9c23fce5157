package models

import "time"

// UserModel is an account that owns logos, drafts and payments.
type UserModel struct {
	Base
	Email         string     `json:"email"         gorm:"size:191;uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"             gorm:"not null"`
	LastLoginTime *time.Time `json:"lastLoginTime"`
	LastLoginIP   string     `json:"lastLoginIp"   gorm:"size:64"`
}

func (UserModel) TableName() string { return "users" }
