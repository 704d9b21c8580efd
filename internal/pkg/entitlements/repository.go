package entitlements

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an entitlement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CountProjectsByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountChaptersByProject(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Chapter{}).
		Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountExportsByUserSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExportRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since).Count(&count).Error
	return count, err
}
