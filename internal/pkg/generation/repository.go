package generation

import (
	"context"

	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a generation repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetProject(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) CreateCovers(ctx context.Context, covers []models.Cover) error {
	if len(covers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&covers).Error
}
