package device

import (
	"context"
	"math"
)

// PageRequest selects a window of an ordered listing.
// A zero Size means the whole listing.
type PageRequest struct {
	Page int
	Size int
}

// Unpaged requests every matching row.
var Unpaged = PageRequest{}

// IsPaged reports whether the request limits the result.
func (p PageRequest) IsPaged() bool {
	return p.Size > 0
}

// Offset returns the number of rows skipped before this page. It
// saturates at math.MaxInt64 instead of overflowing.
func (p PageRequest) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if int64(p.Page) > math.MaxInt64/int64(p.Size) {
		return math.MaxInt64
	}
	return int64(p.Page) * int64(p.Size)
}

// Store defines device persistence. It owns no business rules.
//
// Listings are always ordered by creation time, newest first.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts d when it has no ID and returns the stored record with
	// the assigned ID. Otherwise it overwrites name, brand and state of the
	// existing row; ID and CreatedAt are never changed.
	// Returns ErrNotFound when updating a missing row.
	Save(ctx context.Context, d *Device) (*Device, error)

	// FindByID returns ErrNotFound if the device does not exist.
	FindByID(ctx context.Context, id int64) (*Device, error)

	// DeleteByID removes a device. Deleting a missing row is not an error.
	DeleteByID(ctx context.Context, id int64) error

	// ExistsByID reports whether a device with the ID exists.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	FindAll(ctx context.Context, page PageRequest) ([]Device, error)
	CountAll(ctx context.Context) (int64, error)

	// FindByBrand matches brand exactly (case-sensitive).
	FindByBrand(ctx context.Context, brand string, page PageRequest) ([]Device, error)
	CountByBrand(ctx context.Context, brand string) (int64, error)

	FindByState(ctx context.Context, state DeviceState, page PageRequest) ([]Device, error)
	CountByState(ctx context.Context, state DeviceState) (int64, error)
}
