package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshInProgress means another refresh currently holds the lock.
var ErrRefreshInProgress = errors.New("a job refresh is already in progress")

const (
	lockKey = "intern-match:refresh-lock"
	lockTTL = 15 * time.Minute
)

// RefreshGuard serializes refreshes across processes with a Redis SetNX
// lock. Without Redis configured the guard is a no-op and concurrent
// refreshes race, as they always have; the transactional store replace keeps
// readers consistent either way.
type RefreshGuard struct {
	rdb *redis.Client
}

// NewRefreshGuard accepts a nil client, which disables locking.
func NewRefreshGuard(rdb *redis.Client) *RefreshGuard {
	return &RefreshGuard{rdb: rdb}
}

// Acquire takes the refresh lock and returns its release func. The TTL
// bounds how long a crashed holder can block later refreshes.
func (g *RefreshGuard) Acquire(ctx context.Context) (func(), error) {
	if g == nil || g.rdb == nil {
		return func() {}, nil
	}

	ok, err := g.rdb.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRefreshInProgress
	}

	return func() {
		// Best-effort: the TTL reclaims the lock if this delete fails.
		g.rdb.Del(context.WithoutCancel(ctx), lockKey)
	}, nil
}
