package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/metrics"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
	"github.com/sakif/codeminder/internal/refresh"
	"github.com/sakif/codeminder/internal/repository"
)

// ProfileService serves a user's platform statistics from the snapshot
// cache, refreshing through the platform adapter when the cached copy is
// missing, stale or a refresh is forced.
type ProfileService struct {
	users     repository.UserRepository
	snapshots repository.SnapshotRepository
	adapters  map[model.Platform]platform.Adapter
	freshness map[model.Platform]time.Duration
	refresh   *refresh.Coordinator
	logger    *slog.Logger
	now       func() time.Time
}

// DefaultFreshness is used for platforms missing from the freshness map.
const DefaultFreshness = 6 * time.Hour

func NewProfileService(
	users repository.UserRepository,
	snapshots repository.SnapshotRepository,
	adapters []platform.Adapter,
	freshness map[model.Platform]time.Duration,
	coordinator *refresh.Coordinator,
	logger *slog.Logger,
) *ProfileService {
	byPlatform := make(map[model.Platform]platform.Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &ProfileService{
		users:     users,
		snapshots: snapshots,
		adapters:  byPlatform,
		freshness: freshness,
		refresh:   coordinator,
		logger:    logger,
		now:       time.Now,
	}
}

// ProfileResult is a snapshot and whether it came from the cache.
type ProfileResult struct {
	Snapshot *model.Snapshot
	Cached   bool
}

// Get returns the user's snapshot for p.
//
// A fresh snapshot for the currently linked handle is returned verbatim
// unless force is set. Otherwise the adapter is called through the refresh
// coordinator, so concurrent callers for the same (user, platform) share one
// upstream fetch. A failed refresh leaves the stored snapshot untouched.
func (s *ProfileService) Get(ctx context.Context, userID string, p model.Platform, force bool) (*ProfileResult, error) {
	adapter, ok := s.adapters[p]
	if !ok {
		return nil, apperror.ValidationFailed("platform", fmt.Sprintf("unsupported platform %q", p))
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading user %s: %w", userID, err)
	}
	handle := user.Handles.For(p)
	if handle == "" {
		return nil, apperror.NotLinked(string(p))
	}

	outcome := "forced"
	if !force {
		cached, err := s.cachedFor(ctx, userID, p, handle)
		if err != nil {
			return nil, err
		}
		if cached != nil && cached.FreshAt(s.now(), s.window(p)) {
			metrics.SnapshotLookups.WithLabelValues(string(p), "hit").Inc()
			return &ProfileResult{Snapshot: cached, Cached: true}, nil
		}
		outcome = "miss"
	}
	metrics.SnapshotLookups.WithLabelValues(string(p), outcome).Inc()

	start := s.now()
	key := userID + ":" + string(p)
	snap, shared, err := s.refresh.Do(ctx, key,
		func(fctx context.Context) (*model.Snapshot, error) {
			return s.fetchAndStore(fctx, userID, handle, adapter)
		},
		func(pctx context.Context) (*model.Snapshot, bool, error) {
			stored, err := s.cachedFor(pctx, userID, p, handle)
			if err != nil || stored == nil {
				return nil, false, err
			}
			return stored, stored.LastUpdated.After(start), nil
		},
	)
	if shared {
		metrics.RefreshShared.WithLabelValues(string(p)).Inc()
	}
	if err != nil {
		return nil, err
	}
	return &ProfileResult{Snapshot: snap}, nil
}

// CachedSnapshots returns whatever is cached for the user's linked
// platforms without refreshing. Platforms with nothing cached for the
// current handle are omitted.
func (s *ProfileService) CachedSnapshots(ctx context.Context, user *model.User) ([]model.Snapshot, error) {
	var out []model.Snapshot
	for _, p := range model.Platforms {
		handle := user.Handles.For(p)
		if handle == "" {
			continue
		}
		snap, err := s.cachedFor(ctx, user.ID, p, handle)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			out = append(out, *snap)
		}
	}
	return out, nil
}

// cachedFor loads the stored snapshot, treating a missing one or one taken
// for a different handle as absent (nil, nil). Handles are compared without
// case, as all three platforms resolve them case-insensitively.
func (s *ProfileService) cachedFor(ctx context.Context, userID string, p model.Platform, handle string) (*model.Snapshot, error) {
	snap, err := s.snapshots.GetSnapshot(ctx, userID, p)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/profile: loading %s snapshot: %w", p, err)
	}
	if !strings.EqualFold(snap.Handle, handle) {
		return nil, nil
	}
	return snap, nil
}

func (s *ProfileService) fetchAndStore(ctx context.Context, userID, handle string, adapter platform.Adapter) (*model.Snapshot, error) {
	p := adapter.Platform()
	start := time.Now()
	stats, err := adapter.Fetch(ctx, handle)
	metrics.RecordPlatformFetch(string(p), time.Since(start), err)
	if err != nil {
		attrs := []any{
			slog.String("userID", userID),
			slog.String("platform", string(p)),
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Cause != nil {
			attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
		}
		s.logger.Warn("platform fetch failed", attrs...)
		return nil, err
	}

	snap := &model.Snapshot{
		UserID:      userID,
		Handle:      handle,
		Platform:    p,
		Stats:       *stats,
		LastUpdated: s.now().UTC(),
	}
	if err := s.snapshots.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("service/profile: storing %s snapshot: %w", p, err)
	}
	s.logger.Info("snapshot refreshed",
		slog.String("userID", userID),
		slog.String("platform", string(p)),
		slog.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (s *ProfileService) window(p model.Platform) time.Duration {
	if d, ok := s.freshness[p]; ok && d > 0 {
		return d
	}
	return DefaultFreshness
}
