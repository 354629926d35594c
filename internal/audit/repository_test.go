package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/solarpool-core/internal/infrastructure/database"
	_ "github.com/nerrad567/solarpool-core/migrations"
)

// testDB opens a migrated SQLite database in a temp directory.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func TestSQLiteRepository_WriteAndList(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t).DB)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{Action: ActionProvision, Actor: "op", RemoteAddr: "192.168.4.2", CreatedAt: base},
		{Action: ActionLoginFailed, Outcome: OutcomeFailure, Actor: "op", CreatedAt: base.Add(time.Second)},
		{Action: ActionLogin, Actor: "op", CreatedAt: base.Add(2 * time.Second)},
		{Action: ActionRelay, Details: map[string]any{"state": "on"}, CreatedAt: base.Add(3 * time.Second)},
	}
	for i := range events {
		if err := repo.Write(ctx, &events[i]); err != nil {
			t.Fatalf("Write(%s) error = %v", events[i].Action, err)
		}
	}

	got, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got.Total != 4 || len(got.Events) != 4 {
		t.Fatalf("List() total = %d, len = %d; want 4, 4", got.Total, len(got.Events))
	}
	if got.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", got.Limit, DefaultLimit)
	}

	first := got.Events[0]
	if first.Action != ActionRelay {
		t.Errorf("first event = %s, want most recent (relay)", first.Action)
	}
	if first.Details["state"] != "on" {
		t.Errorf("details = %v, want state=on", first.Details)
	}
	if first.Source != SourceAPI || first.Outcome != OutcomeSuccess {
		t.Errorf("defaults = %s/%s, want api/success", first.Source, first.Outcome)
	}

	last := got.Events[3]
	if last.Actor != "op" || last.RemoteAddr != "192.168.4.2" {
		t.Errorf("last event = %+v, want actor and remote address kept", last)
	}
	if !last.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", last.CreatedAt, base)
	}
	if last.ID == "" || last.ID[:4] != "aud-" {
		t.Errorf("ID = %q, want aud- prefix", last.ID)
	}
}

func TestSQLiteRepository_ListFilterAndPaging(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t).DB)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		ev := &Event{Action: ActionLoginFailed, Outcome: OutcomeFailure, CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
		if err := repo.Write(ctx, ev); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := repo.Write(ctx, &Event{Action: ActionLogin, CreatedAt: base}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantLen   int
		wantLimit int
	}{
		{"by action", Filter{Action: ActionLoginFailed}, 5, 5, DefaultLimit},
		{"unknown action", Filter{Action: "nope"}, 0, 0, DefaultLimit},
		{"page", Filter{Limit: 2, Offset: 1}, 6, 2, 2},
		{"past the end", Filter{Offset: 10}, 6, 0, DefaultLimit},
		{"limit clamped", Filter{Limit: 1000}, 6, 6, MaxLimit},
		{"negative offset", Filter{Offset: -3}, 6, 6, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got.Total != tt.wantTotal || len(got.Events) != tt.wantLen || got.Limit != tt.wantLimit {
				t.Errorf("List() = total %d, len %d, limit %d; want %d, %d, %d",
					got.Total, len(got.Events), got.Limit, tt.wantTotal, tt.wantLen, tt.wantLimit)
			}
			if got.Events == nil {
				t.Error("Events should be an empty slice, not nil")
			}
		})
	}
}

func TestSQLiteRepository_MillisecondOrdering(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t).DB)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Whole-second and fractional timestamps must still sort by time.
	if err := repo.Write(ctx, &Event{Action: ActionLogout, CreatedAt: base.Add(500 * time.Millisecond)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Write(ctx, &Event{Action: ActionLogin, CreatedAt: base}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got.Events[0].Action != ActionLogout {
		t.Errorf("first = %s, want logout (later timestamp)", got.Events[0].Action)
	}
}
