package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ovenystas/lora2mqtt/internal/infrastructure/database"
	_ "github.com/ovenystas/lora2mqtt/migrations"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return NewRepository(db.DB)
}

func TestRecordAndRecent(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Record(ctx, 3, "value", -87, 9.5, []byte{0x35, 0x01}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := repo.Record(ctx, 7, "ping", -100, 2.0, []byte{0x71}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first
	got := entries[0]
	if got.Address != 7 || got.Kind != "ping" || got.RSSI != -100 {
		t.Errorf("unexpected newest entry: %+v", got)
	}
	if len(entries[1].Payload) != 2 || entries[1].Payload[0] != 0x35 {
		t.Errorf("payload not round-tripped: %v", entries[1].Payload)
	}
}

func TestRecordRequiresKind(t *testing.T) {
	repo := testRepository(t)

	if err := repo.Record(context.Background(), 1, "", -50, 5.0, nil); err == nil {
		t.Error("Record with empty kind should fail")
	}
}

func TestByAddress(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Record(ctx, 3, "value", -87, 9.5, []byte{byte(i)}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := repo.Record(ctx, 9, "discovery", -60, 8.0, []byte{0xFF}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := repo.ByAddress(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ByAddress failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries for address 3, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Address != 3 {
			t.Errorf("entry for wrong address: %+v", e)
		}
	}
}

func TestPrune(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Record(ctx, 1, "ping", -70, 4.0, []byte{0x01}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Nothing is older than an hour ago
	deleted, err := repo.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("pruned %d entries, want 0", deleted)
	}

	// Everything is older than an hour from now
	deleted, err = repo.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("pruned %d entries, want 1", deleted)
	}
}
