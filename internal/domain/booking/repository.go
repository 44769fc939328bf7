package booking

import (
	"context"
	"time"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and locks it for the current transaction.
	FindByIDForUpdate(ctx context.Context, id int64) (*Booking, error)

	// FindByBookerID lists a booker's bookings matching state, newest start first.
	FindByBookerID(ctx context.Context, bookerID int64, state State, now time.Time) ([]*Booking, error)

	// FindByItemOwnerID lists bookings on items owned by ownerID matching state, newest start first.
	FindByItemOwnerID(ctx context.Context, ownerID int64, state State, now time.Time) ([]*Booking, error)

	// ExistsOverlapping reports whether an item-holding booking intersects [start, end).
	// excludeID, when non-nil, is left out of the check.
	ExistsOverlapping(ctx context.Context, itemID int64, start, end time.Time, excludeID *int64) (bool, error)

	// FindLastApproved returns the latest APPROVED booking of the item that started at or before now, or nil.
	FindLastApproved(ctx context.Context, itemID int64, now time.Time) (*Booking, error)

	// FindNextApproved returns the earliest APPROVED booking of the item starting after now, or nil.
	FindNextApproved(ctx context.Context, itemID int64, now time.Time) (*Booking, error)

	// HasFinishedApproved reports whether bookerID has an APPROVED booking of the item that ended before now.
	HasFinishedApproved(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[BookingStatus]int64, error)

	// Create persists a new booking and returns it with its assigned ID.
	Create(ctx context.Context, booking *Booking) (*Booking, error)

	// UpdateStatus persists the booking's current status.
	UpdateStatus(ctx context.Context, booking *Booking) error

	// Delete removes a booking.
	Delete(ctx context.Context, id int64) error
}
