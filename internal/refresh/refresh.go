// Package refresh makes sure a (user, platform) snapshot is fetched by at
// most one caller at a time.
//
// Inside one process callers for the same key share a single in-flight
// fetch (singleflight). When a redis client is configured the coordinator
// also takes a short-lived lock so that other instances of the server wait
// for the result instead of fetching again:
//
//	SET refresh:lock:<key> <token> NX PX <ttl>
//
// The lock is released with a compare-and-delete script so an instance never
// deletes a lock that expired and was taken by someone else.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/codeminder/internal/model"
)

const lockPrefix = "refresh:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// FetchFunc performs the refresh and stores its result.
type FetchFunc func(ctx context.Context) (*model.Snapshot, error)

// PeekFunc reports a snapshot written by another instance after the wait
// started, or false if there is none yet.
type PeekFunc func(ctx context.Context) (*model.Snapshot, bool, error)

type Options struct {
	Redis        *redis.Client // nil disables the cross-instance lock
	LockTTL      time.Duration // default 30s
	Timeout      time.Duration // bound on one shared fetch, default 20s
	PollInterval time.Duration // default 250ms
	Logger       *slog.Logger
}

type Coordinator struct {
	group        singleflight.Group
	rdb          *redis.Client
	lockTTL      time.Duration
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

func New(opts Options) *Coordinator {
	c := &Coordinator{
		rdb:          opts.Redis,
		lockTTL:      opts.LockTTL,
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}
	if c.lockTTL <= 0 {
		c.lockTTL = 30 * time.Second
	}
	if c.timeout <= 0 {
		c.timeout = 20 * time.Second
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 250 * time.Millisecond
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Do runs fetch for key unless a fetch for the same key is already running,
// in which case it waits for that one. shared is true when the result was
// produced for more than one caller.
//
// The fetch runs on a context detached from ctx and bounded by the
// coordinator timeout: a caller that gives up returns ctx.Err() but does not
// cancel the work other callers are waiting on.
func (c *Coordinator) Do(ctx context.Context, key string, fetch FetchFunc, peek PeekFunc) (snap *model.Snapshot, shared bool, err error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.run(fctx, key, fetch, peek)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*model.Snapshot), res.Shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context, key string, fetch FetchFunc, peek PeekFunc) (*model.Snapshot, error) {
	if c.rdb == nil {
		return fetch(ctx)
	}

	lockKey := lockPrefix + key
	token := xid.New().String()
	acquired, err := c.rdb.SetNX(ctx, lockKey, token, c.lockTTL).Result()
	if err != nil {
		c.logger.Warn("refresh lock unavailable, fetching without it",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fetch(ctx)
	}

	if acquired {
		defer c.release(ctx, lockKey, token)
		return fetch(ctx)
	}

	snap, err := c.waitForOther(ctx, lockKey, peek)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}
	c.logger.Info("refresh lock holder produced nothing, fetching", slog.String("key", key))
	return fetch(ctx)
}

// waitForOther polls until another instance stores a snapshot, the lock
// disappears, or the lock TTL elapses. A nil snapshot with a nil error means
// the caller should fetch itself.
func (c *Coordinator) waitForOther(ctx context.Context, lockKey string, peek PeekFunc) (*model.Snapshot, error) {
	deadline := time.NewTimer(c.lockTTL)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-ticker.C:
		}

		snap, ok, err := peek(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh: peeking for snapshot: %w", err)
		}
		if ok {
			return snap, nil
		}

		n, err := c.rdb.Exists(ctx, lockKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if n == 0 {
			// Holder finished without storing anything; one last look.
			if snap, ok, err := peek(ctx); err == nil && ok {
				return snap, nil
			}
			return nil, nil
		}
	}
}

func (c *Coordinator) release(ctx context.Context, lockKey, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(rctx, c.rdb, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("releasing refresh lock",
			slog.String("key", lockKey),
			slog.String("error", err.Error()),
		)
	}
}
