package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	completedKey = "queue:completed"
	failedKey    = "queue:failed"
)

// QueueRecords keeps bounded lists of recently finished work items for
// operational inspection. The queue is not the system of record, so old
// entries are simply trimmed away.
type QueueRecords struct {
	client *redis.Client
	keep   int64
}

func NewQueueRecords(client *redis.Client, keep int64) *QueueRecords {
	if keep <= 0 {
		keep = 5
	}
	return &QueueRecords{client: client, keep: keep}
}

func (q *QueueRecords) RecordCompleted(ctx context.Context, projectID string) error {
	return q.push(ctx, completedKey, projectID)
}

func (q *QueueRecords) RecordFailed(ctx context.Context, projectID string) error {
	return q.push(ctx, failedKey, projectID)
}

func (q *QueueRecords) push(ctx context.Context, key, projectID string) error {
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, key, projectID)
	pipe.LTrim(ctx, key, 0, q.keep-1)
	_, err := pipe.Exec(ctx)
	return err
}
