package repository

import (
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

// coverRepository implements the CoverRepository interface
type coverRepository struct {
	db *gorm.DB
}

// NewCoverRepository creates a new cover repository instance
func NewCoverRepository(db *gorm.DB) CoverRepository {
	return &coverRepository{db: db}
}

func (r *coverRepository) GetByUUID(uuid string) (*models.Cover, error) {
	var cover models.Cover
	err := r.db.Where("uuid = ?", uuid).First(&cover).Error
	if err != nil {
		return nil, err
	}
	return &cover, nil
}

func (r *coverRepository) GetByProjectID(projectID uint) ([]models.Cover, error) {
	var covers []models.Cover
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&covers).Error
	return covers, err
}

func (r *coverRepository) Delete(id uint) error {
	return r.db.Delete(&models.Cover{}, id).Error
}
