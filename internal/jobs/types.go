// Package jobs defines the asynq task types shared by the API and the worker.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskCacheCleanup sweeps expired cache entries (Store.DeleteExpired).
const TaskCacheCleanup = "cache:delete_expired"

// CacheCleanupPayload is carried by TaskCacheCleanup.
type CacheCleanupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewCacheCleanupTask builds a cleanup task.
func NewCacheCleanupTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(CacheCleanupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheCleanup, payload), nil
}
