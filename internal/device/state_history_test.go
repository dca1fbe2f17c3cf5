package device

import (
	"context"
	"testing"
	"time"
)

func TestSQLHistoryRepository_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	devices := NewSQLiteRepository(db)
	repo := NewSQLHistoryRepository(db, DialectSQLite)
	ctx := context.Background()

	d := seedDevice(t, devices, "Pixel", "Google", StateAvailable, baseTime)

	if err := repo.Record(ctx, StateHistoryEntry{
		DeviceID:  d.ID,
		ToState:   StateAvailable,
		Source:    StateHistorySourceCreate,
		CreatedAt: baseTime,
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, StateHistoryEntry{
		DeviceID:  d.ID,
		FromState: StateAvailable,
		ToState:   StateInUse,
		CreatedAt: baseTime.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.List(ctx, d.ID, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	latest := entries[0]
	if latest.FromState != StateAvailable || latest.ToState != StateInUse {
		t.Errorf("latest = %s -> %s, want AVAILABLE -> IN_USE", latest.FromState, latest.ToState)
	}
	if latest.Source != StateHistorySourceUpdate {
		t.Errorf("Source = %q, want default %q", latest.Source, StateHistorySourceUpdate)
	}
	if !latest.CreatedAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("CreatedAt = %s, want %s", latest.CreatedAt, baseTime.Add(time.Hour))
	}

	created := entries[1]
	if created.FromState != "" {
		t.Errorf("creation FromState = %q, want empty", created.FromState)
	}
	if created.Source != StateHistorySourceCreate {
		t.Errorf("creation Source = %q, want %q", created.Source, StateHistorySourceCreate)
	}
}

func TestSQLHistoryRepository_RecordRejectsBadInput(t *testing.T) {
	repo := NewSQLHistoryRepository(setupTestDB(t), DialectSQLite)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry StateHistoryEntry
	}{
		{name: "missing device", entry: StateHistoryEntry{ToState: StateAvailable}},
		{name: "invalid state", entry: StateHistoryEntry{DeviceID: 1, ToState: "BROKEN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Record(ctx, tt.entry); err == nil {
				t.Error("Record() error = nil, want error")
			}
		})
	}
}

func TestSQLHistoryRepository_ListLimit(t *testing.T) {
	db := setupTestDB(t)
	devices := NewSQLiteRepository(db)
	repo := NewSQLHistoryRepository(db, DialectSQLite)
	ctx := context.Background()

	d := seedDevice(t, devices, "Router", "TP-Link", StateAvailable, baseTime)
	for i := 0; i < 3; i++ {
		if err := repo.Record(ctx, StateHistoryEntry{
			DeviceID:  d.ID,
			ToState:   StateInactive,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := repo.List(ctx, d.ID, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if !entries[0].CreatedAt.Equal(baseTime.Add(2 * time.Minute)) {
		t.Errorf("entry[0] CreatedAt = %s, want newest", entries[0].CreatedAt)
	}
}

func TestSQLHistoryRepository_CascadeDelete(t *testing.T) {
	db := setupTestDB(t)
	devices := NewSQLiteRepository(db)
	repo := NewSQLHistoryRepository(db, DialectSQLite)
	ctx := context.Background()

	d := seedDevice(t, devices, "Watch", "Garmin", StateAvailable, baseTime)
	if err := repo.Record(ctx, StateHistoryEntry{DeviceID: d.ID, ToState: StateAvailable}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := devices.DeleteByID(ctx, d.ID); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}

	entries, err := repo.List(ctx, d.ID, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries length = %d after device delete, want 0", len(entries))
	}
}

func TestSQLHistoryRepository_Prune(t *testing.T) {
	db := setupTestDB(t)
	devices := NewSQLiteRepository(db)
	repo := NewSQLHistoryRepository(db, DialectSQLite)
	repo.now = func() time.Time { return baseTime }
	ctx := context.Background()

	d := seedDevice(t, devices, "Tablet", "Apple", StateAvailable, baseTime)
	old := StateHistoryEntry{DeviceID: d.ID, ToState: StateInUse, CreatedAt: baseTime.Add(-40 * 24 * time.Hour)}
	recent := StateHistoryEntry{DeviceID: d.ID, ToState: StateAvailable, CreatedAt: baseTime.Add(-12 * time.Hour)}
	for _, e := range []StateHistoryEntry{old, recent} {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) error = nil, want error")
	}
}

func TestClampHistoryLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-5, DefaultHistoryLimit},
		{10, 10},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := clampHistoryLimit(tt.in); got != tt.want {
			t.Errorf("clampHistoryLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
