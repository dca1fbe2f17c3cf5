package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Policy wraps store calls with cross-cutting failure handling.
//
// A Policy may retry, short-circuit or time out a call but never changes
// what a successful or domain-level failed call returns.
type Policy interface {
	// Execute runs fn under the policy. op names the call for logs and metrics.
	Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error

	// ExecuteOnce is Execute without retries, for calls that are not safe
	// to repeat such as inserts.
	ExecuteOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error
}

// NoopPolicy calls fn directly.
type NoopPolicy struct{}

// Execute implements Policy.
func (NoopPolicy) Execute(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ExecuteOnce implements Policy.
func (NoopPolicy) ExecuteOnce(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ResilienceOptions configures a ResiliencePolicy.
type ResilienceOptions struct {
	// Name identifies the circuit breaker in logs.
	Name string

	// Timeout bounds a single attempt. Zero disables the per-attempt timeout.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialInterval and MaxInterval bound the exponential backoff delay.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of trial calls allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultResilienceOptions returns conservative defaults.
func DefaultResilienceOptions() ResilienceOptions {
	return ResilienceOptions{
		Name:             "device-store",
		Timeout:          5 * time.Second,
		MaxRetries:       3,
		InitialInterval:  100 * time.Millisecond,
		MaxInterval:      2 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// ResiliencePolicy combines a per-attempt timeout, exponential backoff
// retries and a circuit breaker.
//
// Each attempt passes through the breaker, so an open breaker stops the
// retry loop immediately. ErrNotFound and context cancellation are never
// retried and never count as breaker failures.
type ResiliencePolicy struct {
	opts    ResilienceOptions
	breaker *gobreaker.CircuitBreaker
	logger  Logger
}

// NewResiliencePolicy creates a policy from options.
//
// Parameters:
//   - opts: Timeout, retry and breaker settings; zero fields take defaults
//   - logger: Receives breaker state changes (nil for no logging)
//
// Returns:
//   - *ResiliencePolicy: Policy ready for use
func NewResiliencePolicy(opts ResilienceOptions, logger Logger) *ResiliencePolicy {
	opts = opts.withDefaults()
	if logger == nil {
		logger = noopLogger{}
	}

	p := &ResiliencePolicy{opts: opts, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: opts.HalfOpenRequests,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},
	})
	return p
}

func (o ResilienceOptions) withDefaults() ResilienceOptions {
	d := DefaultResilienceOptions()
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = d.InitialInterval
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = d.MaxInterval
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = d.FailureThreshold
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = d.OpenTimeout
	}
	if o.HalfOpenRequests == 0 {
		o.HalfOpenRequests = d.HalfOpenRequests
	}
	return o
}

// BreakerState returns the current circuit breaker state ("closed",
// "half-open" or "open").
func (p *ResiliencePolicy) BreakerState() string {
	return p.breaker.State().String()
}

// Execute implements Policy.
func (p *ResiliencePolicy) Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.opts.InitialInterval
	eb.MaxInterval = p.opts.MaxInterval
	eb.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.opts.MaxRetries)), ctx) //nolint:gosec // MaxRetries clamped to >= 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := p.call(ctx, op, fn)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrStoreUnavailable), isPermanent(err):
			return backoff.Permanent(err)
		default:
			p.logger.Debug("store call failed", "op", op, "attempt", attempt, "error", err)
			return err
		}
	}, bo)
}

// ExecuteOnce implements Policy. fn runs at most once, still guarded by
// the breaker and the attempt timeout.
func (p *ResiliencePolicy) ExecuteOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return p.call(ctx, op, fn)
}

// call runs one attempt through the breaker. A rejected call wraps
// ErrStoreUnavailable.
func (p *ResiliencePolicy) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.attempt(ctx, fn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	return err
}

func (p *ResiliencePolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.opts.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	return fn(attemptCtx)
}

// isPermanent reports errors that retrying cannot fix and that say nothing
// about the health of the store.
func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrValidation)
}

// WithPolicy decorates every Store method with policy.
// A nil policy returns store unchanged.
func WithPolicy(store Store, policy Policy) Store {
	if policy == nil {
		return store
	}
	if _, ok := policy.(NoopPolicy); ok {
		return store
	}
	return &policyStore{next: store, policy: policy}
}

type policyStore struct {
	next   Store
	policy Policy
}

// Save retries updates, which overwrite the same row, but never inserts:
// an insert that committed before its reply was lost would be duplicated.
func (s *policyStore) Save(ctx context.Context, d *Device) (*Device, error) {
	var saved *Device
	save := func(ctx context.Context) error {
		var err error
		saved, err = s.next.Save(ctx, d)
		return err
	}
	if !d.IsPersisted() {
		return saved, s.policy.ExecuteOnce(ctx, "insert", save)
	}
	return saved, s.policy.Execute(ctx, "save", save)
}

func (s *policyStore) FindByID(ctx context.Context, id int64) (*Device, error) {
	var found *Device
	err := s.policy.Execute(ctx, "find_by_id", func(ctx context.Context) error {
		var err error
		found, err = s.next.FindByID(ctx, id)
		return err
	})
	return found, err
}

func (s *policyStore) DeleteByID(ctx context.Context, id int64) error {
	return s.policy.Execute(ctx, "delete_by_id", func(ctx context.Context) error {
		return s.next.DeleteByID(ctx, id)
	})
}

func (s *policyStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.policy.Execute(ctx, "exists_by_id", func(ctx context.Context) error {
		var err error
		exists, err = s.next.ExistsByID(ctx, id)
		return err
	})
	return exists, err
}

func (s *policyStore) FindAll(ctx context.Context, page PageRequest) ([]Device, error) {
	return s.list(ctx, "find_all", func(ctx context.Context) ([]Device, error) {
		return s.next.FindAll(ctx, page)
	})
}

func (s *policyStore) CountAll(ctx context.Context) (int64, error) {
	return s.count(ctx, "count_all", s.next.CountAll)
}

func (s *policyStore) FindByBrand(ctx context.Context, brand string, page PageRequest) ([]Device, error) {
	return s.list(ctx, "find_by_brand", func(ctx context.Context) ([]Device, error) {
		return s.next.FindByBrand(ctx, brand, page)
	})
}

func (s *policyStore) CountByBrand(ctx context.Context, brand string) (int64, error) {
	return s.count(ctx, "count_by_brand", func(ctx context.Context) (int64, error) {
		return s.next.CountByBrand(ctx, brand)
	})
}

func (s *policyStore) FindByState(ctx context.Context, state DeviceState, page PageRequest) ([]Device, error) {
	return s.list(ctx, "find_by_state", func(ctx context.Context) ([]Device, error) {
		return s.next.FindByState(ctx, state, page)
	})
}

func (s *policyStore) CountByState(ctx context.Context, state DeviceState) (int64, error) {
	return s.count(ctx, "count_by_state", func(ctx context.Context) (int64, error) {
		return s.next.CountByState(ctx, state)
	})
}

func (s *policyStore) list(ctx context.Context, op string, fn func(ctx context.Context) ([]Device, error)) ([]Device, error) {
	var devices []Device
	err := s.policy.Execute(ctx, op, func(ctx context.Context) error {
		var err error
		devices, err = fn(ctx)
		return err
	})
	return devices, err
}

func (s *policyStore) count(ctx context.Context, op string, fn func(ctx context.Context) (int64, error)) (int64, error) {
	var total int64
	err := s.policy.Execute(ctx, op, func(ctx context.Context) error {
		var err error
		total, err = fn(ctx)
		return err
	})
	return total, err
}
