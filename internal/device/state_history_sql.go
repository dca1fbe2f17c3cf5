package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLHistoryRepository implements HistoryRepository on the
// device_state_history table.
type SQLHistoryRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLHistoryRepository creates a state history repository.
//
// Parameters:
//   - db: Open connection with device_state_history migrated
//   - dialect: DialectSQLite or DialectPostgres
//
// Returns:
//   - *SQLHistoryRepository: Repository instance ready for use
func NewSQLHistoryRepository(db *sql.DB, dialect Dialect) *SQLHistoryRepository {
	return &SQLHistoryRepository{db: db, dialect: dialect, now: time.Now}
}

// Record inserts a transition.
func (r *SQLHistoryRepository) Record(ctx context.Context, entry StateHistoryEntry) error {
	if entry.DeviceID <= 0 {
		return fmt.Errorf("device id is required")
	}
	if !entry.ToState.IsValid() {
		return fmt.Errorf("recording state history: %w", ValidateState(entry.ToState))
	}
	if entry.Source == "" {
		entry.Source = StateHistorySourceUpdate
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	var from sql.NullString
	if entry.FromState != "" {
		from = sql.NullString{String: string(entry.FromState), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		rebind(r.dialect, `INSERT INTO device_state_history (device_id, from_state, to_state, source, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		entry.DeviceID,
		from,
		string(entry.ToState),
		entry.Source,
		timeArg(r.dialect, entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}

	return nil
}

// List returns recent transitions for a device, newest first.
func (r *SQLHistoryRepository) List(ctx context.Context, deviceID int64, limit int) ([]StateHistoryEntry, error) {
	if deviceID <= 0 {
		return nil, fmt.Errorf("device id is required")
	}
	limit = clampHistoryLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		rebind(r.dialect, `SELECT id, device_id, from_state, to_state, source, created_at
		 FROM device_state_history
		 WHERE device_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]StateHistoryEntry, 0, limit)
	for rows.Next() {
		var (
			entry     StateHistoryEntry
			from      sql.NullString
			to        string
			createdAt timestamp
		)
		if err := rows.Scan(&entry.ID, &entry.DeviceID, &from, &to, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		entry.FromState = DeviceState(from.String)
		entry.ToState = DeviceState(to)
		entry.CreatedAt = createdAt.Time
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than now-olderThan.
func (r *SQLHistoryRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := r.now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx,
		rebind(r.dialect, "DELETE FROM device_state_history WHERE created_at < ?"),
		timeArg(r.dialect, cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting state history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}
