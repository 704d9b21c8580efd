package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Project is a book project owned by a single user.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=1,max=200"`
	Description string         `gorm:"type:text" json:"description" validate:"max=2000"`
	Genre       string         `gorm:"type:varchar(100)" json:"genre" validate:"max=100"`
	User        User           `gorm:"foreignKey:UserID" json:"-"`
	Chapters    []Chapter      `gorm:"foreignKey:ProjectID" json:"chapters,omitempty"`
	Covers      []Cover        `gorm:"foreignKey:ProjectID" json:"covers,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// IsOwnedBy reports whether the project belongs to the given user.
func (p *Project) IsOwnedBy(userID uint) bool {
	return p.UserID == userID
}
