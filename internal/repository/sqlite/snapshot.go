package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.SnapshotRepository = (*DB)(nil)

// GetSnapshot returns the cached stats for (userID, platform).
// Returns apperror.ErrNotFound when nothing has been cached yet.
func (db *DB) GetSnapshot(ctx context.Context, userID string, platform model.Platform) (*model.Snapshot, error) {
	var (
		data string
		snap = model.Snapshot{UserID: userID, Platform: platform}
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT username, data, last_updated FROM platform_snapshots WHERE user_id = ? AND platform = ?`,
		userID, string(platform),
	).Scan(&snap.Handle, &data, &snap.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(string(platform)+" snapshot", userID)
		}
		return nil, fmt.Errorf("sqlite: getting %s snapshot for %s: %w", platform, userID, err)
	}

	if err := json.Unmarshal([]byte(data), &snap.Stats); err != nil {
		return nil, fmt.Errorf("sqlite: decoding %s snapshot for %s: %w", platform, userID, err)
	}
	return &snap, nil
}

// UpsertSnapshot replaces the snapshot for (UserID, Platform) in one statement,
// so a reader never sees half of an old snapshot mixed with a new one.
// Handle falls back to Stats.Username when unset.
func (db *DB) UpsertSnapshot(ctx context.Context, snap *model.Snapshot) error {
	handle := snap.Handle
	if handle == "" {
		handle = snap.Stats.Username
	}
	data, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s snapshot: %w", snap.Platform, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO platform_snapshots (user_id, platform, username, data, last_updated)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, platform) DO UPDATE SET
			username = excluded.username,
			data = excluded.data,
			last_updated = excluded.last_updated`,
		snap.UserID,
		string(snap.Platform),
		handle,
		string(data),
		snap.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting %s snapshot for %s: %w", snap.Platform, snap.UserID, err)
	}
	return nil
}
