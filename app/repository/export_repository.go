package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

// exportRepository implements the ExportRepository interface
type exportRepository struct {
	db *gorm.DB
}

// NewExportRepository creates a new export repository instance
func NewExportRepository(db *gorm.DB) ExportRepository {
	return &exportRepository{db: db}
}

func (r *exportRepository) Create(record *models.ExportRecord) error {
	return r.db.Create(record).Error
}

// CountByUserSince counts exports a user performed since the cutoff;
// backs the monthly export quota check.
func (r *exportRepository) CountByUserSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExportRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *exportRepository) GetByUserID(userID uint, offset, limit int) ([]models.ExportRecord, error) {
	var records []models.ExportRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&records).Error
	return records, err
}
