package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`
	ItemID    int64     `gorm:"not null;index"`
	BookerID  int64     `gorm:"not null;index"`
	Status    string    `gorm:"not null;size:20;index"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	return r.findOne(conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a booking and locks its row until the transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) findOne(db *gorm.DB, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByBookerID lists a booker's bookings for the given state, newest start first.
func (r *GormBookingRepository) FindByBookerID(ctx context.Context, bookerID int64, state bookingDomain.State, now time.Time) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).Where("booker_id = ?", bookerID)
	return r.list(applyState(q, state, now))
}

// FindByItemOwnerID lists bookings on the owner's items for the given state, newest start first.
func (r *GormBookingRepository) FindByItemOwnerID(ctx context.Context, ownerID int64, state bookingDomain.State, now time.Time) ([]*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).
		Joins("JOIN items ON items.id = bookings.item_id").
		Where("items.owner_id = ?", ownerID)
	return r.list(applyState(q, state, now))
}

func applyState(q *gorm.DB, state bookingDomain.State, now time.Time) *gorm.DB {
	switch state {
	case bookingDomain.StateCurrent:
		return q.Where("bookings.start_date <= ? AND bookings.end_date >= ?", now, now)
	case bookingDomain.StatePast:
		return q.Where("bookings.end_date < ?", now)
	case bookingDomain.StateFuture:
		return q.Where("bookings.start_date > ?", now)
	case bookingDomain.StateWaiting:
		return q.Where("bookings.status = ?", string(bookingDomain.StatusWaiting))
	case bookingDomain.StateRejected:
		return q.Where("bookings.status = ?", string(bookingDomain.StatusRejected))
	default:
		return q
	}
}

func (r *GormBookingRepository) list(q *gorm.DB) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := q.Select("bookings.*").
		Order("bookings.start_date DESC").
		Order("bookings.id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// ExistsOverlapping reports whether a WAITING or APPROVED booking of the item intersects [start, end).
func (r *GormBookingRepository) ExistsOverlapping(ctx context.Context, itemID int64, start, end time.Time, excludeID *int64) (bool, error) {
	q := conn(ctx, r.db).Model(&BookingModel{}).
		Where("item_id = ?", itemID).
		Where("status NOT IN ?", []string{string(bookingDomain.StatusRejected), string(bookingDomain.StatusCanceled)}).
		Where("start_date < ? AND end_date > ?", end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return count > 0, nil
}

// FindLastApproved returns the latest approved booking that has started, or nil.
func (r *GormBookingRepository) FindLastApproved(ctx context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).
		Where("item_id = ? AND status = ? AND start_date <= ?", itemID, string(bookingDomain.StatusApproved), now).
		Order("start_date DESC")
	return r.firstOrNil(q)
}

// FindNextApproved returns the earliest approved booking yet to start, or nil.
func (r *GormBookingRepository) FindNextApproved(ctx context.Context, itemID int64, now time.Time) (*bookingDomain.Booking, error) {
	q := conn(ctx, r.db).
		Where("item_id = ? AND status = ? AND start_date > ?", itemID, string(bookingDomain.StatusApproved), now).
		Order("start_date ASC")
	return r.firstOrNil(q)
}

func (r *GormBookingRepository) firstOrNil(q *gorm.DB) (*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := q.Limit(1).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return toDomainBooking(&models[0])
}

// HasFinishedApproved reports whether the booker has an approved booking of the item that has ended.
func (r *GormBookingRepository) HasFinishedApproved(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Where("item_id = ? AND booker_id = ? AND status = ? AND end_date < ?",
			itemID, bookerID, string(bookingDomain.StatusApproved), now).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[bookingDomain.BookingStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[bookingDomain.BookingStatus]int64, len(results))
	for _, sc := range results {
		counts[bookingDomain.BookingStatus(sc.Status)] = sc.Count
	}
	return counts, nil
}

// Create persists a new booking. An exclusion constraint violation means a
// concurrent booking won the period.
func (r *GormBookingRepository) Create(ctx context.Context, bk *bookingDomain.Booking) (*bookingDomain.Booking, error) {
	model := toBookingModel(bk)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if pgCode(err) == pgExclusionViolation {
			return nil, domain.NewValidationError("Item is already booked for this period")
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	return toDomainBooking(model)
}

// UpdateStatus persists the booking's status.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, bk *bookingDomain.Booking) error {
	result := conn(ctx, r.db).Model(&BookingModel{}).
		Where("id = ?", bk.ID()).
		Update("status", string(bk.Status()))
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(bk.ID(), 10))
	}
	return nil
}

// Delete removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&BookingModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", strconv.FormatInt(id, 10))
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		StartDate: bk.Start(),
		EndDate:   bk.End(),
		ItemID:    bk.ItemID(),
		BookerID:  bk.BookerID(),
		Status:    string(bk.Status()),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(m.ID, m.ItemID, m.BookerID, m.StartDate, m.EndDate, status), nil
}
