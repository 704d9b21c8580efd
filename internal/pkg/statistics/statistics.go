package statistics

import (
	"log"
	"strconv"
	"time"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/cache"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
)

const (
	CacheKeyUsers    = "statistics:users:total"
	CacheKeyProjects = "statistics:projects:total"
	CacheKeyCovers   = "statistics:covers:total"
	CacheKeyCredits  = "statistics:credits:spent"
	CacheExpiration  = 30 * time.Minute
)

// PlatformStats is the admin-facing aggregate snapshot.
type PlatformStats struct {
	TotalUsers    int `json:"total_users"`
	TotalProjects int `json:"total_projects"`
	TotalCovers   int `json:"total_covers"`
	CreditsSpent  int `json:"credits_spent"`
}

// GetPlatformStats returns all aggregates, each served from the cache
// when fresh and recomputed from the database otherwise.
func GetPlatformStats() PlatformStats {
	return PlatformStats{
		TotalUsers:    cachedCount(CacheKeyUsers, countUsers),
		TotalProjects: cachedCount(CacheKeyProjects, countProjects),
		TotalCovers:   cachedCount(CacheKeyCovers, countCovers),
		CreditsSpent:  cachedCount(CacheKeyCredits, countCreditsSpent),
	}
}

// cachedCount reads a counter from the cache, falling back to the
// provided query and refilling the cache on a miss.
func cachedCount(key string, query func() (int64, error)) int {
	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	count, err := query()
	if err != nil {
		log.Printf("Error computing statistic %s: %v", key, err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching statistic %s: %v", key, err)
	}
	return int(count)
}

func countUsers() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.User{}).Count(&count).Error
	return count, err
}

func countProjects() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.Project{}).Count(&count).Error
	return count, err
}

func countCovers() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.Cover{}).Count(&count).Error
	return count, err
}

func countCreditsSpent() (int64, error) {
	var total int64
	err := database.GetDB().Model(&models.CreditTransaction{}).
		Where("type = ?", models.CREDIT_TX_DEBIT).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
