package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	ListDueForCreditRenewal(before time.Time, limit int) ([]models.User, error)
	MarkCreditsRenewed(userID uint, at time.Time) error
}

// ProjectRepository defines the interface for project-related database operations
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByID(id uint) (*models.Project, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Project, error)
	Update(project *models.Project) error
	Delete(id uint) error
}

// ChapterRepository defines the interface for chapter-related database operations
type ChapterRepository interface {
	Create(chapter *models.Chapter) error
	GetByID(id uint) (*models.Chapter, error)
	GetByProjectID(projectID uint) ([]models.Chapter, error)
	UpdateContent(chapterID uint, content string, wordCount int) error
	Delete(id uint) error
}

// CoverRepository reads and removes generated cover artifacts. Creation
// happens inside the generation pipeline, not here.
type CoverRepository interface {
	GetByUUID(uuid string) (*models.Cover, error)
	GetByProjectID(projectID uint) ([]models.Cover, error)
	Delete(id uint) error
}

// ExportRepository defines the interface for export record tracking
type ExportRepository interface {
	Create(record *models.ExportRecord) error
	CountByUserSince(userID uint, since time.Time) (int64, error)
	GetByUserID(userID uint, offset, limit int) ([]models.ExportRecord, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Project ProjectRepository
	Chapter ChapterRepository
	Cover   CoverRepository
	Export  ExportRepository
}

// NewRepositories creates all repositories from a DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Project: NewProjectRepository(db),
		Chapter: NewChapterRepository(db),
		Cover:   NewCoverRepository(db),
		Export:  NewExportRepository(db),
	}
}
