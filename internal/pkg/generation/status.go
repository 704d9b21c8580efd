package generation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/cache"
)

// Cache key format for batch status records
const (
	BatchStatusKeyFormat = "coverbatch:status:%s" // Format: coverbatch:status:<uuid>
	BatchStatusTTL       = 24 * time.Hour
)

// Batch states
const (
	BatchPending    = "pending"
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

// BatchStatus is the cached progress record of one generation batch.
type BatchStatus struct {
	State     string    `json:"state"`
	Requested int       `json:"requested"`
	Succeeded int       `json:"succeeded"`
	Charged   int       `json:"charged"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusTracker stores batch progress in the cache so the status
// endpoint can poll it. A nil tracker drops all updates, which keeps the
// orchestrator usable without a cache connection.
type StatusTracker struct{}

// NewStatusTracker creates a tracker over the global cache client.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// Set stores the status record for a batch. Failures are logged and
// swallowed: status tracking is best-effort and never fails a batch.
func (t *StatusTracker) Set(batchID string, status BatchStatus) {
	if t == nil {
		return
	}
	status.UpdatedAt = time.Now()
	data, err := json.Marshal(status)
	if err != nil {
		log.Errorf("[Generation] marshal status for batch %s: %v", batchID, err)
		return
	}
	key := fmt.Sprintf(BatchStatusKeyFormat, batchID)
	if err := cache.Set(key, string(data), BatchStatusTTL); err != nil {
		log.Warnf("[Generation] store status for batch %s: %v", batchID, err)
	}
}

// Get loads the status record for a batch.
func (t *StatusTracker) Get(batchID string) (*BatchStatus, error) {
	key := fmt.Sprintf(BatchStatusKeyFormat, batchID)
	raw, err := cache.Get(key)
	if err != nil {
		return nil, err
	}
	var status BatchStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, err
	}
	return &status, nil
}
