// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/fitline/internal/models"
)

// RedisTrending keeps one sorted set per UTC day (and per day and category)
// with try-on counts as scores:
//
//	<prefix>:trending:20260102
//	<prefix>:trending:20260102:top
//
// Counts sums the buckets covering the window, so the window is rounded
// out to whole days.
type RedisTrending struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisTrending returns a counter using client. ttl bounds how long a
// daily bucket lives and should exceed the trending window.
func NewRedisTrending(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisTrending {
	return &RedisTrending{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (r *RedisTrending) bucketKey(day time.Time, category string) string {
	key := fmt.Sprintf("%s:trending:%s", r.prefix, day.UTC().Format("20060102"))
	if category != "" {
		key += ":" + category
	}
	return key
}

// bucketKeys lists the day buckets from since through now, oldest first.
func (r *RedisTrending) bucketKeys(since time.Time, category string) []string {
	now := r.now().UTC()
	day := time.Date(since.UTC().Year(), since.UTC().Month(), since.UTC().Day(), 0, 0, 0, 0, time.UTC)
	var keys []string
	for !day.After(now) {
		keys = append(keys, r.bucketKey(day, category))
		day = day.AddDate(0, 0, 1)
	}
	return keys
}

// Increment bumps the item in today's global and category buckets.
func (r *RedisTrending) Increment(ctx context.Context, ix *models.Interaction) error {
	if !countsTowardTrending(ix) {
		return nil
	}
	keys := []string{r.bucketKey(ix.Timestamp, "")}
	if ix.Category != "" {
		keys = append(keys, r.bucketKey(ix.Timestamp, ix.Category))
	}

	pipe := r.client.TxPipeline()
	for _, k := range keys {
		pipe.ZIncrBy(ctx, k, 1, ix.ItemID)
		pipe.Expire(ctx, k, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment trending for %s: %w", ix.ItemID, err)
	}
	return nil
}

// Counts sums the daily buckets covering [since, now].
func (r *RedisTrending) Counts(ctx context.Context, since time.Time, category string) (map[string]int, error) {
	keys := r.bucketKeys(since, category)
	pipe := r.client.Pipeline()
	cmds := make([]*redis.ZSliceCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.ZRangeWithScores(ctx, k, 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read trending buckets: %w", err)
	}

	counts := make(map[string]int)
	for _, cmd := range cmds {
		members, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("read trending bucket: %w", err)
		}
		for _, m := range members {
			id, ok := m.Member.(string)
			if !ok {
				continue
			}
			counts[id] += int(m.Score)
		}
	}
	return counts, nil
}

var _ TrendingCounter = (*RedisTrending)(nil)
