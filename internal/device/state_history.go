package device

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourceCreate = "create"
	StateHistorySourceUpdate = "update"
)

// History listing bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// StateHistoryEntry records a single lifecycle transition of a device.
//
// Creation is recorded with an empty FromState. The history is an audit
// trail only: it never feeds back into business rules.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the device the transition belongs to.
	DeviceID int64 `json:"deviceId"`

	// FromState is empty for the creation entry.
	FromState DeviceState `json:"fromState,omitempty"`

	ToState DeviceState `json:"toState"`

	// Source identifies the operation that caused the change (create, update).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryRepository stores and retrieves device state transitions.
//
// Implementations must be thread-safe and use UTC timestamps.
type HistoryRepository interface {
	// Record persists a transition.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entry: Transition to store; ID is ignored and CreatedAt defaults to now
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, entry StateHistoryEntry) error

	// List returns recent transitions for a device, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Device identifier
	//   - limit: Maximum entries (defaults to 50, clamped to 200)
	//
	// Returns:
	//   - []StateHistoryEntry: Entries ordered newest first (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	List(ctx context.Context, deviceID int64, limit int) ([]StateHistoryEntry, error)

	// Prune deletes transitions older than the given age and returns the
	// number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// clampHistoryLimit applies the default and maximum history window.
func clampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
