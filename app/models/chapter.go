package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Chapter holds the editable content of one book chapter.
// Its Content column is the persist target of the autosave scheduler.
type Chapter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Content   string         `gorm:"type:longtext" json:"content"`
	Position  int            `gorm:"default:0" json:"position"`
	WordCount int            `gorm:"default:0" json:"word_count"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CountWords returns the whitespace-separated word count of the given content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
