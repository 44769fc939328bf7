package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

// CreateItemRequest holds the data needed to list an item.
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Available   *bool  `json:"available" binding:"required"`
	RequestID   *int64 `json:"requestId"`
}

// UpdateItemRequest holds a partial item update. Nil fields are left unchanged.
type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// CreateCommentRequest holds a new comment's text.
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ItemDTO is the response representation of an item.
type ItemDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// BookingInfoDTO is a booking reference shown to the item owner.
type BookingInfoDTO struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// CommentDTO is the response representation of a comment.
type CommentDTO struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

// ItemDetailsDTO is an item with its comments and, for the owner, neighbouring approved bookings.
type ItemDetailsDTO struct {
	ItemDTO
	LastBooking *BookingInfoDTO `json:"lastBooking"`
	NextBooking *BookingInfoDTO `json:"nextBooking"`
	Comments    []CommentDTO    `json:"comments"`
}

// ItemService handles item listing, search and comments.
type ItemService struct {
	items    itemDomain.ItemRepository
	comments itemDomain.CommentRepository
	bookings bookingDomain.BookingRepository
	users    userDomain.UserRepository
	requests requestDomain.ItemRequestRepository
	tx       TxManager
	logger   *zap.Logger
	now      func() time.Time
}

func NewItemService(
	items itemDomain.ItemRepository,
	comments itemDomain.CommentRepository,
	bookings bookingDomain.BookingRepository,
	users userDomain.UserRepository,
	requests requestDomain.ItemRequestRepository,
	tx TxManager,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		items:    items,
		comments: comments,
		bookings: bookings,
		users:    users,
		requests: requests,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, req CreateItemRequest) (*ItemDTO, error) {
	var created *itemDomain.Item
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireUser(ctx, ownerID); err != nil {
			return err
		}
		if req.RequestID != nil {
			exists, err := s.requests.ExistsByID(ctx, *req.RequestID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.NewNotFoundError("ItemRequest", strconv.FormatInt(*req.RequestID, 10))
			}
		}

		it, err := itemDomain.NewItem(ownerID, req.Name, req.Description, req.Available, req.RequestID)
		if err != nil {
			return err
		}
		created, err = s.items.Create(ctx, it)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item created", zap.Int64("item_id", created.ID()), zap.Int64("owner_id", ownerID))
	dto := toItemDTO(created)
	return &dto, nil
}

// UpdateItem applies a partial update on behalf of the owner.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, req UpdateItemRequest) (*ItemDTO, error) {
	var it *itemDomain.Item
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireUser(ctx, ownerID); err != nil {
			return err
		}
		var err error
		if it, err = s.items.FindByIDForUpdate(ctx, itemID); err != nil {
			return err
		}
		if !it.IsOwnedBy(ownerID) {
			return domain.NewForbiddenError("Only owner can update item")
		}
		if err := it.Update(req.Name, req.Description, req.Available); err != nil {
			return err
		}
		return s.items.Update(ctx, it)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item updated", zap.Int64("item_id", itemID))
	dto := toItemDTO(it)
	return &dto, nil
}

// GetItem returns an item with comments. Booking neighbours are filled only for the owner.
func (s *ItemService) GetItem(ctx context.Context, itemID, userID int64) (*ItemDetailsDTO, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, it, it.IsOwnedBy(userID))
}

// ListOwnerItems returns the owner's items with booking neighbours and comments.
func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64) ([]ItemDetailsDTO, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.items.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ItemDetailsDTO, 0, len(items))
	for _, it := range items {
		d, err := s.details(ctx, it, true)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}

// Search matches available items by name or description. Blank text finds nothing.
func (s *ItemService) Search(ctx context.Context, text string) ([]ItemDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []ItemDTO{}, nil
	}
	items, err := s.items.SearchAvailable(ctx, text)
	if err != nil {
		return nil, err
	}
	return toItemDTOs(items), nil
}

// AddComment posts feedback from a user who has finished an approved booking of the item.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, req CreateCommentRequest) (*CommentDTO, error) {
	var (
		author  *userDomain.User
		created *itemDomain.Comment
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if author, err = s.users.FindByID(ctx, authorID); err != nil {
			return err
		}
		if _, err = s.items.FindByID(ctx, itemID); err != nil {
			return err
		}

		now := s.now()
		finished, err := s.bookings.HasFinishedApproved(ctx, itemID, authorID, now)
		if err != nil {
			return err
		}
		if !finished {
			return domain.NewValidationError("User has not completed a booking of this item")
		}
		commented, err := s.comments.ExistsByAuthorAndItem(ctx, authorID, itemID)
		if err != nil {
			return err
		}
		if commented {
			return domain.NewValidationError("User has already commented on this item")
		}

		c, err := itemDomain.NewComment(itemID, authorID, req.Text, now)
		if err != nil {
			return err
		}
		created, err = s.comments.Create(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added", zap.Int64("item_id", itemID), zap.Int64("author_id", authorID))
	return &CommentDTO{
		ID:         created.ID(),
		Text:       created.Text(),
		AuthorName: author.Name(),
		Created:    created.Created(),
	}, nil
}

func (s *ItemService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFoundError("User", strconv.FormatInt(userID, 10))
	}
	return nil
}

func (s *ItemService) details(ctx context.Context, it *itemDomain.Item, withBookings bool) (*ItemDetailsDTO, error) {
	d := &ItemDetailsDTO{ItemDTO: toItemDTO(it), Comments: []CommentDTO{}}

	if withBookings {
		now := s.now()
		last, err := s.bookings.FindLastApproved(ctx, it.ID(), now)
		if err != nil {
			return nil, err
		}
		next, err := s.bookings.FindNextApproved(ctx, it.ID(), now)
		if err != nil {
			return nil, err
		}
		d.LastBooking = toBookingInfo(last)
		d.NextBooking = toBookingInfo(next)
	}

	comments, err := s.comments.FindByItemID(ctx, it.ID())
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return d, nil
	}

	authorIDs := make([]int64, len(comments))
	for i, c := range comments {
		authorIDs[i] = c.AuthorID()
	}
	authors, err := s.users.FindByIDs(ctx, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(authors))
	for _, a := range authors {
		names[a.ID()] = a.Name()
	}
	for _, c := range comments {
		d.Comments = append(d.Comments, CommentDTO{
			ID:         c.ID(),
			Text:       c.Text(),
			AuthorName: names[c.AuthorID()],
			Created:    c.Created(),
		})
	}
	return d, nil
}

func toBookingInfo(bk *bookingDomain.Booking) *BookingInfoDTO {
	if bk == nil {
		return nil
	}
	return &BookingInfoDTO{ID: bk.ID(), BookerID: bk.BookerID(), Start: bk.Start(), End: bk.End()}
}

func toItemDTO(it *itemDomain.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.IsAvailable(),
		OwnerID:     it.OwnerID(),
		RequestID:   it.RequestID(),
	}
}

func toItemDTOs(items []*itemDomain.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	return dtos
}
