package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

func codeforcesSnapshot(userID, handle string, rating int, at time.Time) *model.Snapshot {
	return &model.Snapshot{
		UserID:   userID,
		Platform: model.PlatformCodeforces,
		Stats: model.PlatformStats{
			Platform: model.PlatformCodeforces,
			Username: handle,
			Calendar: map[string]int{"2024-03-01": 2},
			Solved:   model.SolvedCounts{All: 3, Easy: 1, Medium: 1, Hard: 1},
			Topics:   map[string]int{"dp": 2},
			Codeforces: &model.CodeforcesExtras{
				Rating: rating, MaxRating: rating, Rank: "expert", MaxRank: "expert",
			},
		},
		LastUpdated: at,
	}
}

func TestSnapshot_NotFoundBeforeFirstUpsert(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "snap@example.com")

	_, err := db.GetSnapshot(context.Background(), user.ID, model.PlatformCodeforces)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetSnapshot() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshot_UpsertRoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "snap@example.com")
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	if err := db.UpsertSnapshot(context.Background(), codeforcesSnapshot(user.ID, "cf", 1700, at)); err != nil {
		t.Fatalf("UpsertSnapshot() error = %v", err)
	}

	got, err := db.GetSnapshot(context.Background(), user.ID, model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if !got.LastUpdated.Equal(at) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, at)
	}
	if got.Stats.Username != "cf" || got.Stats.Codeforces == nil || got.Stats.Codeforces.Rating != 1700 {
		t.Errorf("Stats = %+v", got.Stats)
	}
	if got.Stats.Calendar["2024-03-01"] != 2 || got.Stats.Topics["dp"] != 2 {
		t.Errorf("calendar/topics not persisted: %+v", got.Stats)
	}
}

func TestSnapshot_UpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "snap@example.com")
	first := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(7 * time.Hour)

	if err := db.UpsertSnapshot(context.Background(), codeforcesSnapshot(user.ID, "cf", 1500, first)); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertSnapshot(context.Background(), codeforcesSnapshot(user.ID, "cf2", 1600, second)); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetSnapshot(context.Background(), user.ID, model.PlatformCodeforces)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stats.Username != "cf2" || got.Stats.Codeforces.Rating != 1600 || !got.LastUpdated.Equal(second) {
		t.Errorf("second upsert not applied: %+v", got)
	}

	var rows int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM platform_snapshots`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("platform_snapshots has %d rows, want 1", rows)
	}
}

func TestSnapshot_HandleStoredApartFromLogin(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "snap@example.com")
	snap := codeforcesSnapshot(user.ID, "tourist", 3500, time.Now().UTC())
	snap.Handle = "Tourist"

	if err := db.UpsertSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("UpsertSnapshot() error = %v", err)
	}
	got, err := db.GetSnapshot(context.Background(), user.ID, model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if got.Handle != "Tourist" || got.Stats.Username != "tourist" {
		t.Errorf("Handle = %q, Username = %q; want Tourist, tourist", got.Handle, got.Stats.Username)
	}
}
