package models

import "github.com/logoforge/server/internal/pkg/composition"

// DraftModel holds a composition being edited before it is sent for generation.
type DraftModel struct {
	Base
	OwnerID       string                    `json:"ownerId"       gorm:"size:36;index;not null"`
	Name          string                    `json:"name"`
	Configuration composition.Configuration `json:"configuration" gorm:"type:longtext;serializer:json"`
	Version       int                       `json:"version"       gorm:"default:0"`
}

func (DraftModel) TableName() string { return "drafts" }
