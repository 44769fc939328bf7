package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
)

// BookingRepository implements booking.BookingRepository on a Store.
type BookingRepository struct {
	store *Store
}

// NewBookingRepository creates a BookingRepository.
func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

func (r *BookingRepository) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	var (
		row bookingRow
		ok  bool
	)
	r.store.read(func() { row, ok = r.store.t.bookings[id] })
	if !ok {
		return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	return toDomainBooking(row), nil
}

// FindByIDForUpdate is FindByID; transactions already run one at a time.
func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *BookingRepository) FindByBookerID(_ context.Context, bookerID int64, state bookingDomain.State, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.listByStartDesc(func(row bookingRow) bool { return row.bookerID == bookerID }, state, now), nil
}

func (r *BookingRepository) FindByItemOwnerID(_ context.Context, ownerID int64, state bookingDomain.State, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.listByStartDesc(func(row bookingRow) bool {
		it, ok := r.store.t.items[row.itemID]
		return ok && it.ownerID == ownerID
	}, state, now), nil
}

func (r *BookingRepository) listByStartDesc(keep func(bookingRow) bool, state bookingDomain.State, now time.Time) []*bookingDomain.Booking {
	out := []*bookingDomain.Booking{}
	r.store.read(func() {
		for _, row := range r.store.t.bookings {
			if !keep(row) {
				continue
			}
			if b := toDomainBooking(row); state.Matches(b, now) {
				out = append(out, b)
			}
		}
	})
	slices.SortFunc(out, func(a, b *bookingDomain.Booking) int {
		if c := b.Start().Compare(a.Start()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
	return out
}

func (r *BookingRepository) ExistsOverlapping(_ context.Context, itemID int64, start, end time.Time, excludeID *int64) (bool, error) {
	var found bool
	r.store.read(func() { found = r.overlaps(itemID, start, end, excludeID) })
	return found, nil
}

// overlaps must be called with the store lock held.
func (r *BookingRepository) overlaps(itemID int64, start, end time.Time, excludeID *int64) bool {
	for _, row := range r.store.t.bookings {
		if row.itemID != itemID || !row.status.HoldsItem() {
			continue
		}
		if excludeID != nil && row.id == *excludeID {
			continue
		}
		if toDomainBooking(row).Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (r *BookingRepository) FindLastApproved(_ context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	var last *bookingRow
	r.store.read(func() {
		for _, row := range r.store.t.bookings {
			if row.itemID != itemID || row.status != bookingDomain.StatusApproved || row.start.After(now) {
				continue
			}
			if last == nil || row.start.After(last.start) {
				last = &row
			}
		}
	})
	if last == nil {
		return nil, nil
	}
	return toDomainBooking(*last), nil
}

func (r *BookingRepository) FindNextApproved(_ context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	var next *bookingRow
	r.store.read(func() {
		for _, row := range r.store.t.bookings {
			if row.itemID != itemID || row.status != bookingDomain.StatusApproved || !row.start.After(now) {
				continue
			}
			if next == nil || row.start.Before(next.start) {
				next = &row
			}
		}
	})
	if next == nil {
		return nil, nil
	}
	return toDomainBooking(*next), nil
}

func (r *BookingRepository) HasFinishedApproved(_ context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var found bool
	r.store.read(func() {
		for _, row := range r.store.t.bookings {
			if row.itemID == itemID && row.bookerID == bookerID &&
				row.status == bookingDomain.StatusApproved && row.end.Before(now) {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *BookingRepository) CountByStatus(_ context.Context) (map[bookingDomain.BookingStatus]int64, error) {
	counts := make(map[bookingDomain.BookingStatus]int64)
	r.store.read(func() {
		for _, row := range r.store.t.bookings {
			counts[row.status]++
		}
	})
	return counts, nil
}

// Create rejects an overlapping item-holding booking the same way the
// PostgreSQL exclusion constraint does.
func (r *BookingRepository) Create(ctx context.Context, b *bookingDomain.Booking) (*bookingDomain.Booking, error) {
	var created bookingRow
	err := r.store.write(ctx, func() error {
		if b.Status().HoldsItem() && r.overlaps(b.ItemID(), b.Start(), b.End(), nil) {
			return domain.NewValidationError("Item is already booked for this period")
		}
		created = toBookingRow(b)
		created.id = r.store.nextID("bookings")
		r.store.t.bookings[created.id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainBooking(created), nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *bookingDomain.Booking) error {
	return r.store.write(ctx, func() error {
		row, ok := r.store.t.bookings[b.ID()]
		if !ok {
			return domain.NewNotFoundError("Booking", strconv.FormatInt(b.ID(), 10))
		}
		row.status = b.Status()
		r.store.t.bookings[b.ID()] = row
		return nil
	})
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.t.bookings[id]; !ok {
			return domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
		}
		delete(r.store.t.bookings, id)
		return nil
	})
}

func toBookingRow(b *bookingDomain.Booking) bookingRow {
	return bookingRow{
		id:       b.ID(),
		itemID:   b.ItemID(),
		bookerID: b.BookerID(),
		start:    b.Start(),
		end:      b.End(),
		status:   b.Status(),
	}
}

func toDomainBooking(row bookingRow) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(row.id, row.itemID, row.bookerID, row.start, row.end, row.status)
}
