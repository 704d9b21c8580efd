package models

import (
	"time"

	"gorm.io/gorm"
)

// Cover is a successfully generated AI cover artifact. Failed generation
// attempts never produce a row; only their aggregate effect shows up in
// the credits charged for the batch.
type Cover struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	ProjectID    uint           `gorm:"index;not null" json:"project_id"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	BatchID      string         `gorm:"type:char(36);index" json:"batch_id"`
	AttemptIndex int            `gorm:"default:0" json:"attempt_index"`
	Prompt       string         `gorm:"type:text" json:"prompt"`
	Style        string         `gorm:"type:varchar(100)" json:"style"`
	ObjectKey    string         `gorm:"type:varchar(500)" json:"-"`
	URL          string         `gorm:"type:varchar(500)" json:"url"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
