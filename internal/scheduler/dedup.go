package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupTTL keeps reminder markers long enough to cover the sweep overlap
// window plus retries.
const dedupTTL = 72 * time.Hour

// Deduper suppresses duplicate reminder delivery. A reminder can reach the
// worker twice: once from the scheduled task and once from the periodic
// sweep.
type Deduper struct {
	rdb *redis.Client
}

func NewDeduper(redisURL string) (*Deduper, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Deduper{rdb: redis.NewClient(opt)}, nil
}

// NewDeduperFromClient wraps an existing Redis client. Used by tests.
func NewDeduperFromClient(rdb *redis.Client) *Deduper {
	return &Deduper{rdb: rdb}
}

func (d *Deduper) Close() error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

// MarkSent records that the reminder for (leadID, reminderDate) went out.
// Returns true when this caller is the first: only then may the mail be
// sent.
func (d *Deduper) MarkSent(ctx context.Context, leadID, reminderDate string) (bool, error) {
	key := fmt.Sprintf("followup:sent:%s:%s", leadID, reminderDate)
	return d.rdb.SetNX(ctx, key, 1, dedupTTL).Result()
}
