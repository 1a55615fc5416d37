package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vertiljivenson9/Project-prey/internal/domain/entity"
)

const projectPrefix = "project:"

// ProjectRepo stores project records as JSON values with a per-key TTL.
// Every Save resets the expiry to the full window, so abandoned records
// eventually disappear on their own.
type ProjectRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProjectRepo(client *redis.Client, ttl time.Duration) *ProjectRepo {
	return &ProjectRepo{client: client, ttl: ttl}
}

func (r *ProjectRepo) Save(ctx context.Context, project *entity.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	return r.client.Set(ctx, projectPrefix+project.ID, data, r.ttl).Err()
}

// Get returns (nil, nil) when the record does not exist or has expired.
func (r *ProjectRepo) Get(ctx context.Context, projectID string) (*entity.Project, error) {
	raw, err := r.client.Get(ctx, projectPrefix+projectID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var project entity.Project
	if err := json.Unmarshal([]byte(raw), &project); err != nil {
		return nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return &project, nil
}
