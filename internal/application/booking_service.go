package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	"github.com/shareit-rental/service-shareit/internal/common/metrics"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
	"github.com/shareit-rental/service-shareit/internal/events"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID int64      `json:"itemId" binding:"required,gt=0"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
}

// BookerDTO is the booker summary embedded in a booking view.
type BookerDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookedItemDTO is the item summary embedded in a booking view.
type BookedItemDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID       int64         `json:"id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	ItemID   int64         `json:"itemId"`
	BookerID int64         `json:"bookerId"`
	Status   string        `json:"status"`
	Booker   BookerDTO     `json:"booker"`
	Item     BookedItemDTO `json:"item"`
}

// BookingStatsDTO holds aggregate booking statistics.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"totalBookings"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings  bookingDomain.BookingRepository
	items     itemDomain.ItemRepository
	users     userDomain.UserRepository
	tx        TxManager
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	tx TxManager,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		items:     items,
		users:     users,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBooking books an item for bookerID. The item row stays locked from the
// availability check until the insert commits.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID int64, req CreateBookingRequest) (*BookingDTO, error) {
	var (
		bk     *bookingDomain.Booking
		it     *itemDomain.Item
		booker *userDomain.User
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if booker, err = s.users.FindByID(ctx, bookerID); err != nil {
			return err
		}
		if it, err = s.items.FindByIDForUpdate(ctx, req.ItemID); err != nil {
			return err
		}
		if !it.IsAvailable() {
			return domain.NewValidationError("Item is not available for booking")
		}
		if it.IsOwnedBy(bookerID) {
			return domain.NewForbiddenError("Owner cannot book own item")
		}

		draft, err := bookingDomain.NewBooking(it.ID(), bookerID, req.Start, req.End, s.now())
		if err != nil {
			return err
		}

		overlapping, err := s.bookings.ExistsOverlapping(ctx, it.ID(), draft.Start(), draft.End(), nil)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if overlapping {
			return domain.NewValidationError("Item is already booked for this period")
		}

		bk, err = s.bookings.Create(ctx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.Int64("item_id", bk.ItemID()),
		zap.Int64("booker_id", bookerID),
	)
	s.publish(ctx, events.BookingCreated, bk.ID(), events.BookingCreatedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		OwnerID:    it.OwnerID(),
		Start:      bk.Start(),
		End:        bk.End(),
		OccurredAt: s.now().UTC(),
	})

	result := toBookingDTO(bk, booker, it)
	return &result, nil
}

// GetBooking returns a booking visible to its booker or the item owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID int64) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	it, err := s.items.FindByID(ctx, bk.ItemID())
	if err != nil {
		return nil, err
	}
	if !bk.IsBookedBy(userID) && !it.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("Access denied to booking")
	}

	booker, err := s.users.FindByID(ctx, bk.BookerID())
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk, booker, it)
	return &result, nil
}

// UpdateStatus lets the item owner approve or reject a WAITING booking.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID int64, approved bool, userID int64) (*BookingDTO, error) {
	var (
		bk *bookingDomain.Booking
		it *itemDomain.Item
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if bk, err = s.bookings.FindByIDForUpdate(ctx, bookingID); err != nil {
			return err
		}
		if it, err = s.items.FindByID(ctx, bk.ItemID()); err != nil {
			return err
		}
		if !it.IsOwnedBy(userID) {
			return domain.NewForbiddenError("Only item owner can approve/reject booking")
		}
		if err := bk.Decide(approved); err != nil {
			return err
		}
		return s.bookings.UpdateStatus(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	eventType := events.BookingRejected
	if approved {
		eventType = events.BookingApproved
	}
	metrics.IncBookingDecision(string(bk.Status()))
	s.logger.Info("booking status updated",
		zap.Int64("booking_id", bk.ID()),
		zap.String("status", string(bk.Status())),
	)
	s.publish(ctx, eventType, bk.ID(), events.BookingDecidedEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.ItemID(),
		BookerID:   bk.BookerID(),
		Status:     string(bk.Status()),
		OccurredAt: s.now().UTC(),
	})

	booker, err := s.users.FindByID(ctx, bk.BookerID())
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk, booker, it)
	return &result, nil
}

// GetBookerBookings lists the user's own bookings filtered by state.
func (s *BookingService) GetBookerBookings(ctx context.Context, userID int64, rawState string) ([]BookingDTO, error) {
	state, err := s.listingState(ctx, userID, rawState)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.FindByBookerID(ctx, userID, state, s.now())
	if err != nil {
		return nil, err
	}
	return s.toBookingDTOs(ctx, bookings)
}

// GetOwnerBookings lists bookings on the user's items filtered by state.
func (s *BookingService) GetOwnerBookings(ctx context.Context, userID int64, rawState string) ([]BookingDTO, error) {
	state, err := s.listingState(ctx, userID, rawState)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.FindByItemOwnerID(ctx, userID, state, s.now())
	if err != nil {
		return nil, err
	}
	return s.toBookingDTOs(ctx, bookings)
}

func (s *BookingService) listingState(ctx context.Context, userID int64, rawState string) (bookingDomain.State, error) {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.NewNotFoundError("User", strconv.FormatInt(userID, 10))
	}
	return bookingDomain.ParseState(rawState)
}

// DeleteBooking removes a booking regardless of who asks.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID int64) error {
	return s.deleteBooking(ctx, bookingID, nil)
}

// DeleteBookingByUser removes a booking on behalf of its booker or the item owner.
func (s *BookingService) DeleteBookingByUser(ctx context.Context, bookingID, userID int64) error {
	return s.deleteBooking(ctx, bookingID, &userID)
}

func (s *BookingService) deleteBooking(ctx context.Context, bookingID int64, userID *int64) error {
	var bk *bookingDomain.Booking

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if bk, err = s.bookings.FindByIDForUpdate(ctx, bookingID); err != nil {
			return err
		}
		if userID != nil && !bk.IsBookedBy(*userID) {
			it, err := s.items.FindByID(ctx, bk.ItemID())
			if err != nil {
				return err
			}
			if !it.IsOwnedBy(*userID) {
				return domain.NewForbiddenError("Access denied to booking")
			}
		}
		return s.bookings.Delete(ctx, bookingID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.Int64("booking_id", bookingID))
	s.publish(ctx, events.BookingDeleted, bookingID, events.BookingDeletedEvent{
		BookingID:  bookingID,
		ItemID:     bk.ItemID(),
		DeletedBy:  userID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// GetBookingStats returns booking counts grouped by status.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	stats := &BookingStatsDTO{ByStatus: make(map[string]int64, len(counts))}
	for status, c := range counts {
		stats.ByStatus[string(status)] = c
		stats.TotalBookings += c
	}
	return stats, nil
}

// --- Helpers ---

func (s *BookingService) toBookingDTOs(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	dtos := make([]BookingDTO, 0, len(bookings))
	if len(bookings) == 0 {
		return dtos, nil
	}

	itemIDs := make([]int64, 0, len(bookings))
	userIDs := make([]int64, 0, len(bookings))
	for _, bk := range bookings {
		itemIDs = append(itemIDs, bk.ItemID())
		userIDs = append(userIDs, bk.BookerID())
	}

	items, err := s.items.FindByIDs(ctx, uniqueIDs(itemIDs))
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	itemsByID := make(map[int64]*itemDomain.Item, len(items))
	for _, it := range items {
		itemsByID[it.ID()] = it
	}
	usersByID := make(map[int64]*userDomain.User, len(users))
	for _, u := range users {
		usersByID[u.ID()] = u
	}

	for _, bk := range bookings {
		dtos = append(dtos, toBookingDTO(bk, usersByID[bk.BookerID()], itemsByID[bk.ItemID()]))
	}
	return dtos, nil
}

func toBookingDTO(bk *bookingDomain.Booking, booker *userDomain.User, it *itemDomain.Item) BookingDTO {
	dto := BookingDTO{
		ID:       bk.ID(),
		Start:    bk.Start(),
		End:      bk.End(),
		ItemID:   bk.ItemID(),
		BookerID: bk.BookerID(),
		Status:   string(bk.Status()),
		Booker:   BookerDTO{ID: bk.BookerID()},
		Item:     BookedItemDTO{ID: bk.ItemID()},
	}
	if booker != nil {
		dto.Booker = BookerDTO{ID: booker.ID(), Name: booker.Name(), Email: booker.Email()}
	}
	if it != nil {
		dto.Item = BookedItemDTO{
			ID:          it.ID(),
			Name:        it.Name(),
			Description: it.Description(),
			Available:   it.IsAvailable(),
			RequestID:   it.RequestID(),
		}
	}
	return dto
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *BookingService) publish(ctx context.Context, eventType string, bookingID int64, data interface{}) {
	if err := s.publisher.Publish(ctx, eventType, strconv.FormatInt(bookingID, 10), data); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Int64("booking_id", bookingID),
			zap.Error(err),
		)
	}
}
