package booking

import (
	"fmt"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

// Booking is the aggregate root for a rental of one item over [start, end).
type Booking struct {
	id       int64
	itemID   int64
	bookerID int64
	start    time.Time
	end      time.Time
	status   BookingStatus
}

// ValidatePeriod checks a requested period against the wall-clock instant now.
func ValidatePeriod(start, end *time.Time, now time.Time) error {
	if start == nil {
		return domain.NewValidationError("Start date cannot be null")
	}
	if end == nil {
		return domain.NewValidationError("End date cannot be null")
	}
	if start.Before(now) {
		return domain.NewValidationError("Start date cannot be in the past")
	}
	if !end.After(*start) {
		return domain.NewValidationError("Invalid booking dates: end must be after start")
	}
	return nil
}

// NewBooking creates a WAITING booking. The ID is assigned by the repository.
func NewBooking(itemID, bookerID int64, start, end *time.Time, now time.Time) (*Booking, error) {
	if itemID <= 0 {
		return nil, domain.NewValidationError("item ID is required")
	}
	if bookerID <= 0 {
		return nil, domain.NewValidationError("booker ID is required")
	}
	if err := ValidatePeriod(start, end, now); err != nil {
		return nil, err
	}

	return &Booking{
		itemID:   itemID,
		bookerID: bookerID,
		start:    start.UTC(),
		end:      end.UTC(),
		status:   StatusWaiting,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(id, itemID, bookerID int64, start, end time.Time, status BookingStatus) *Booking {
	return &Booking{
		id:       id,
		itemID:   itemID,
		bookerID: bookerID,
		start:    start.UTC(),
		end:      end.UTC(),
		status:   status,
	}
}

// --- Getters ---

// ID returns the booking identifier, zero until persisted.
func (b *Booking) ID() int64 { return b.id }

// ItemID returns the booked item's identifier.
func (b *Booking) ItemID() int64 { return b.itemID }

// BookerID returns the requesting user's identifier.
func (b *Booking) BookerID() int64 { return b.bookerID }

// Start returns the inclusive start of the period.
func (b *Booking) Start() time.Time { return b.start }

// End returns the exclusive end of the period.
func (b *Booking) End() time.Time { return b.end }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// --- Behavior ---

// IsBookedBy reports whether userID requested this booking.
func (b *Booking) IsBookedBy(userID int64) bool {
	return b.bookerID == userID
}

// Overlaps reports whether the booking intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.end) && end.After(b.start)
}

// Decide moves a WAITING booking to APPROVED or REJECTED.
func (b *Booking) Decide(approved bool) error {
	if b.status.IsTerminal() {
		return domain.NewValidationError("Booking status already decided")
	}
	target := StatusRejected
	if approved {
		target = StatusApproved
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewValidationError(fmt.Sprintf("cannot move booking from %s to %s", b.status, target))
	}
	b.status = target
	return nil
}
