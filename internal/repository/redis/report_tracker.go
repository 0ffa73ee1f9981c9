package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const latestReportKey = "report:latest:zone-compliance"

// ReportTracker remembers the object key of the most recent compliance
// report so the API can hand out a download link.
type ReportTracker struct {
	Client *redis.Client
}

func NewReportTracker(client *redis.Client) *ReportTracker {
	return &ReportTracker{Client: client}
}

func (t *ReportTracker) SetLatestReportKey(ctx context.Context, key string) error {
	return t.Client.Set(ctx, latestReportKey, key, 0).Err()
}

// LatestReportKey returns "" without error when no report has been
// archived yet.
func (t *ReportTracker) LatestReportKey(ctx context.Context) (string, error) {
	key, err := t.Client.Get(ctx, latestReportKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return key, nil
}
