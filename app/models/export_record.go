package models

import (
	"time"
)

const (
	EXPORT_FORMAT_TXT  = "txt"
	EXPORT_FORMAT_PDF  = "pdf"
	EXPORT_FORMAT_EPUB = "epub"
	EXPORT_FORMAT_DOCX = "docx"
)

// IsValidExportFormat reports whether the given format is a known
// export format.
func IsValidExportFormat(format string) bool {
	switch format {
	case EXPORT_FORMAT_TXT, EXPORT_FORMAT_PDF, EXPORT_FORMAT_EPUB, EXPORT_FORMAT_DOCX:
		return true
	}
	return false
}

// ExportRecord tracks one completed book export. The per-month count of
// these rows is compared against the tier's export quota.
type ExportRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Format    string    `gorm:"type:varchar(20);not null" json:"format"`
	Watermark bool      `gorm:"default:false" json:"watermark"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
