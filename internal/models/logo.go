package models

import "github.com/logoforge/server/internal/pkg/composition"

// LogoModel is a generated or edited logo in an owner's library.
type LogoModel struct {
	Base
	OwnerID string `json:"ownerId" gorm:"size:36;index;not null"`
	Name    string `json:"name"    gorm:"not null"`
	URL     string `json:"url"     gorm:"type:text"`
	// StorageKey locates the blob in the storage driver; empty for externally hosted images.
	StorageKey string                    `json:"-"        gorm:"type:text"`
	ParentID   *string                   `json:"parentId" gorm:"size:36;index"`
	Settings   composition.Configuration `json:"settings" gorm:"type:longtext;serializer:json"`
}

func (LogoModel) TableName() string { return "logos" }
