package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// Entry is one recorded radio frame.
type Entry struct {
	ID         int64
	ReceivedAt time.Time
	Address    uint8
	Kind       string
	RSSI       int
	SNR        float64
	Payload    []byte
}

// Repository records received radio frames in the frame_journal table.
//
// Frames are stored exactly as received, before any decoding, so the
// journal can be replayed against newer codec versions during
// development.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a frame journal repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *Repository: Repository instance ready for use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts a journal entry for a received frame.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - address: Radio address of the sending node
//   - kind: Message kind name (e.g., "value", "discovery")
//   - rssi: Received signal strength in dBm
//   - snr: Signal-to-noise ratio in dB
//   - payload: Raw frame bytes as received
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Record(ctx context.Context, address uint8, kind string, rssi int, snr float64, payload []byte) error {
	if kind == "" {
		return fmt.Errorf("message kind is required")
	}
	if payload == nil {
		payload = []byte{}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO frame_journal (address, msg_kind, rssi, snr, payload) VALUES (?, ?, ?, ?, ?)",
		address,
		kind,
		rssi,
		snr,
		payload,
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}

	return nil
}

// Recent returns the most recent journal entries, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 500)
//
// Returns:
//   - []Entry: Entries ordered by received_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, received_at, address, msg_kind, rssi, snr, payload
		 FROM frame_journal
		 ORDER BY received_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, limit)
}

// ByAddress returns recent journal entries for one node, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - address: Radio address to filter on
//   - limit: Maximum entries to return (default 50, max 500)
//
// Returns:
//   - []Entry: Entries ordered by received_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) ByAddress(ctx context.Context, address uint8, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, received_at, address, msg_kind, rssi, snr, payload
		 FROM frame_journal
		 WHERE address = ?
		 ORDER BY received_at DESC, id DESC
		 LIMIT ?`,
		address,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal by address: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows, limit)
}

// Prune deletes journal entries older than the retention window.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Entries received before this time are deleted
//
// Returns:
//   - int64: Number of entries deleted
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM frame_journal WHERE received_at < ?",
		olderThan.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned entries: %w", err)
	}
	return deleted, nil
}

func scanEntries(rows *sql.Rows, limit int) ([]Entry, error) {
	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var receivedAt string
		var address int

		if err := rows.Scan(&entry.ID, &receivedAt, &address, &entry.Kind, &entry.RSSI, &entry.SNR, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}

		if ts, err := time.Parse("2006-01-02 15:04:05", receivedAt); err == nil {
			entry.ReceivedAt = ts
		}
		entry.Address = uint8(address) // #nosec G115 -- column constrained to uint8 range on insert

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}

	return entries, nil
}
