package repository

import (
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

// chapterRepository implements the ChapterRepository interface
type chapterRepository struct {
	db *gorm.DB
}

// NewChapterRepository creates a new chapter repository instance
func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

func (r *chapterRepository) Create(chapter *models.Chapter) error {
	return r.db.Create(chapter).Error
}

func (r *chapterRepository) GetByID(id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	err := r.db.First(&chapter, id).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *chapterRepository) GetByProjectID(projectID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := r.db.Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&chapters).Error
	return chapters, err
}

// UpdateContent writes only the content and word count columns; this is
// the persist target of the autosave path.
func (r *chapterRepository) UpdateContent(chapterID uint, content string, wordCount int) error {
	res := r.db.Model(&models.Chapter{}).
		Where("id = ?", chapterID).
		Updates(map[string]interface{}{
			"content":    content,
			"word_count": wordCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *chapterRepository) Delete(id uint) error {
	return r.db.Delete(&models.Chapter{}, id).Error
}
