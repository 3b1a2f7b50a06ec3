package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stgiuliani/roster-engine/internal/model"
	"github.com/stgiuliani/roster-engine/internal/repository"
)

// availabilityTTL bounds how stale a cached candidate list may be.
// Blockout writes invalidate the affected date eagerly; the TTL covers
// availability edits made outside this process.
const availabilityTTL = 60 * time.Second

// CachedAvailability serves candidate member lists for the schedule
// generator, caching each (date, role) lookup in Redis. It implements
// scheduler.AvailabilityProvider. When the Redis client is nil every
// lookup falls through to the database so the server degrades gracefully.
type CachedAvailability struct {
	repo *repository.AvailabilityRepo
	rdb  *redis.Client
}

// NewCachedAvailability returns a CachedAvailability. rdb may be nil.
func NewCachedAvailability(repo *repository.AvailabilityRepo, rdb *redis.Client) *CachedAvailability {
	return &CachedAvailability{repo: repo, rdb: rdb}
}

func availabilityKey(date time.Time, roleID uint64) string {
	return fmt.Sprintf("availability:%s:%d", date.Format(model.DateLayout), roleID)
}

// AvailableMembers returns the members eligible to fill roleID on date,
// serving from cache when possible. Cache failures are logged and the
// lookup proceeds against the database.
func (a *CachedAvailability) AvailableMembers(ctx context.Context, date time.Time, roleID uint64) ([]model.Member, error) {
	if a.rdb == nil {
		return a.repo.AvailableMembers(ctx, date, roleID)
	}

	key := availabilityKey(date, roleID)
	if raw, err := a.rdb.Get(ctx, key).Bytes(); err == nil {
		var members []model.Member
		if err := json.Unmarshal(raw, &members); err == nil {
			return members, nil
		}
		// Corrupt entry; drop it and fall through.
		_ = a.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		log.Printf("availability cache: get %s failed: %v", key, err)
	}

	members, err := a.repo.AvailableMembers(ctx, date, roleID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(members); err == nil {
		if err := a.rdb.Set(ctx, key, raw, availabilityTTL).Err(); err != nil {
			log.Printf("availability cache: set %s failed: %v", key, err)
		}
	}
	return members, nil
}

// Invalidate removes every cached candidate list for the given date.
// Called after blockout or availability writes so the generator never
// schedules from a list that predates them.
func (a *CachedAvailability) Invalidate(ctx context.Context, date time.Time) {
	if a.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("availability:%s:*", date.Format(model.DateLayout))
	iter := a.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := a.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("availability cache: del %s failed: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("availability cache: scan %s failed: %v", pattern, err)
	}
}
