package device

import (
	"context"
	"fmt"
	"time"
)

// Logger is the logging interface used by the device package.
// It matches the method set of logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service enforces the device lifecycle rules on top of a Store.
//
// Rules:
//   - New devices start AVAILABLE with a server-assigned creation time.
//   - Name and brand are frozen while a device is IN_USE.
//   - State may move between any two states.
//   - Only AVAILABLE devices can be deleted.
//
// Every returned error wraps one of the kinds in errors.go. Service holds no
// mutable state and is safe for concurrent use.
type Service struct {
	store   Store
	history HistoryRepository
	events  EventSink
	logger  Logger
	now     func() time.Time
}

// NewService creates a service over store, with every store call routed
// through policy. A nil policy calls the store directly.
func NewService(store Store, policy Policy) *Service {
	return &Service{
		store:  WithPolicy(store, policy),
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger used for best-effort side effects.
func (s *Service) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// SetHistory enables state history recording.
func (s *Service) SetHistory(history HistoryRepository) {
	s.history = history
}

// SetEventSink sets where lifecycle events are published.
func (s *Service) SetEventSink(sink EventSink) {
	s.events = sink
}

// Create validates and stores a new AVAILABLE device.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: Non-blank, at most 100 characters
//   - brand: Non-blank, at most 50 characters
//
// Returns:
//   - *Device: Stored device with its assigned ID
//   - error: ErrValidation for bad input, ErrStoreUnavailable on store failure
func (s *Service) Create(ctx context.Context, name, brand string) (*Device, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateBrand(brand); err != nil {
		return nil, err
	}

	d := NewDevice(name, brand, s.now().UTC().Truncate(time.Second))
	saved, err := s.store.Save(ctx, &d)
	if err != nil {
		return nil, transient(err)
	}

	s.recordHistory(ctx, StateHistoryEntry{
		DeviceID: saved.ID,
		ToState:  saved.State,
		Source:   StateHistorySourceCreate,
	})
	s.publish(ctx, Event{Type: EventCreated, Device: *saved})

	s.logger.Info("device created", "id", saved.ID, "brand", saved.Brand)
	return saved, nil
}

// GetByID returns a device or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*Device, error) {
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, transient(err)
	}
	return d, nil
}

// List returns one page of devices matching filter, newest first.
//
// When both Brand and State are set, Brand is used and State is ignored.
// page must be >= 0 and size within [1, MaxPageSize].
func (s *Service) List(ctx context.Context, filter Filter, page, size int) (Page, error) {
	if err := ValidatePage(page, size); err != nil {
		return Page{}, err
	}
	if filter.Brand == "" && filter.State != "" {
		if err := ValidateState(filter.State); err != nil {
			return Page{}, err
		}
	}

	var (
		count func(ctx context.Context) (int64, error)
		find  func(ctx context.Context, req PageRequest) ([]Device, error)
	)
	switch {
	case filter.Brand != "":
		count = func(ctx context.Context) (int64, error) { return s.store.CountByBrand(ctx, filter.Brand) }
		find = func(ctx context.Context, req PageRequest) ([]Device, error) {
			return s.store.FindByBrand(ctx, filter.Brand, req)
		}
	case filter.State != "":
		count = func(ctx context.Context) (int64, error) { return s.store.CountByState(ctx, filter.State) }
		find = func(ctx context.Context, req PageRequest) ([]Device, error) {
			return s.store.FindByState(ctx, filter.State, req)
		}
	default:
		count = s.store.CountAll
		find = s.store.FindAll
	}

	total, err := count(ctx)
	if err != nil {
		return Page{}, transient(err)
	}

	// Pages past the end are empty; page*size is never computed for them.
	if int64(page) >= (total+int64(size)-1)/int64(size) {
		return NewPage(nil, page, size, total), nil
	}

	content, err := find(ctx, PageRequest{Page: page, Size: size})
	if err != nil {
		return Page{}, transient(err)
	}
	return NewPage(content, page, size, total), nil
}

// Update applies a partial update.
//
// Name and brand cannot change while the stored device is IN_USE; state
// changes are always allowed. Unset patch fields keep their stored values.
//
// Returns:
//   - *Device: Stored device after the update
//   - error: ErrNotFound, ErrUpdate, ErrValidation or ErrStoreUnavailable
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Device, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, transient(err)
	}

	if current.IsInUse() && patch.TouchesIdentity() {
		return nil, fmt.Errorf("%w: cannot update name or brand of device in use", ErrUpdate)
	}

	updated := *current
	if name, ok := patch.Name.Get(); ok {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		updated = updated.WithName(name)
	}
	if brand, ok := patch.Brand.Get(); ok {
		if err := ValidateBrand(brand); err != nil {
			return nil, err
		}
		updated = updated.WithBrand(brand)
	}
	if state, ok := patch.State.Get(); ok {
		if !state.IsValid() {
			return nil, fmt.Errorf("%w: invalid state %q", ErrUpdate, state)
		}
		updated = updated.WithState(state)
	}

	saved, err := s.store.Save(ctx, &updated)
	if err != nil {
		return nil, transient(err)
	}

	event := Event{Type: EventUpdated, Device: *saved}
	if saved.State != current.State {
		event.PreviousState = current.State
		s.recordHistory(ctx, StateHistoryEntry{
			DeviceID:  saved.ID,
			FromState: current.State,
			ToState:   saved.State,
			Source:    StateHistorySourceUpdate,
		})
	}
	s.publish(ctx, event)

	return saved, nil
}

// UpdateState changes only the state, parsing raw case-insensitively.
// An unknown literal fails with ErrUpdate.
func (s *Service) UpdateState(ctx context.Context, id int64, raw string) (*Device, error) {
	state, ok := ParseState(raw)
	if !ok {
		return nil, fmt.Errorf("%w: invalid state %q", ErrUpdate, raw)
	}
	return s.Update(ctx, id, Patch{State: Some(state)})
}

// Delete removes an AVAILABLE device.
//
// Returns:
//   - error: ErrNotFound, ErrDeletion when the device is not AVAILABLE,
//     or ErrStoreUnavailable
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return transient(err)
	}

	if !current.IsDeletable() {
		return fmt.Errorf("%w: device %d is %s, only AVAILABLE devices can be deleted",
			ErrDeletion, id, current.State)
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return transient(err)
	}

	s.publish(ctx, Event{Type: EventDeleted, Device: *current})
	s.logger.Info("device deleted", "id", id)
	return nil
}

// History returns recent state transitions for a device, newest first.
// It returns an empty slice when history recording is disabled.
func (s *Service) History(ctx context.Context, id int64, limit int) ([]StateHistoryEntry, error) {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return nil, transient(err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	if s.history == nil {
		return []StateHistoryEntry{}, nil
	}

	entries, err := s.history.List(ctx, id, limit)
	if err != nil {
		return nil, transient(err)
	}
	return entries, nil
}

func (s *Service) recordHistory(ctx context.Context, entry StateHistoryEntry) {
	if s.history == nil {
		return
	}
	entry.CreatedAt = s.now().UTC()
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record state history",
			"device_id", entry.DeviceID,
			"to_state", entry.ToState,
			"error", err,
		)
	}
}

func (s *Service) publish(ctx context.Context, event Event) {
	if s.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish device event",
			"event", event.Type,
			"device_id", event.Device.ID,
			"error", err,
		)
	}
}
