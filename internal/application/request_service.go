package application

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

// CreateItemRequestRequest holds a new item request's description.
type CreateItemRequestRequest struct {
	Description string `json:"description" binding:"required"`
}

// ItemRequestDTO is the response representation of an item request with the items answering it.
type ItemRequestDTO struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequesterID int64     `json:"requesterId"`
	Created     time.Time `json:"created"`
	Items       []ItemDTO `json:"items"`
}

// ItemRequestService handles item requests.
type ItemRequestService struct {
	requests requestDomain.ItemRequestRepository
	items    itemDomain.ItemRepository
	users    userDomain.UserRepository
	tx       TxManager
	logger   *zap.Logger
	now      func() time.Time
}

func NewItemRequestService(
	requests requestDomain.ItemRequestRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	tx TxManager,
	logger *zap.Logger,
) *ItemRequestService {
	return &ItemRequestService{
		requests: requests,
		items:    items,
		users:    users,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ItemRequestService) CreateRequest(ctx context.Context, requesterID int64, req CreateItemRequestRequest) (*ItemRequestDTO, error) {
	var created *requestDomain.ItemRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireUser(ctx, requesterID); err != nil {
			return err
		}
		r, err := requestDomain.NewItemRequest(requesterID, req.Description, s.now())
		if err != nil {
			return err
		}
		created, err = s.requests.Create(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item request created", zap.Int64("request_id", created.ID()))
	dto := toItemRequestDTO(created, nil)
	return &dto, nil
}

// GetOwnRequests lists the requester's requests, newest first.
func (s *ItemRequestService) GetOwnRequests(ctx context.Context, requesterID int64) ([]ItemRequestDTO, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByRequesterID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetOtherRequests pages through other users' requests, newest first.
func (s *ItemRequestService) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]ItemRequestDTO, error) {
	if from < 0 {
		return nil, domain.NewValidationError("from must not be negative")
	}
	if size <= 0 {
		return nil, domain.NewValidationError("size must be positive")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindAllExcept(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *ItemRequestService) GetRequest(ctx context.Context, userID, requestID int64) (*ItemRequestDTO, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	dtos, err := s.withItems(ctx, []*requestDomain.ItemRequest{r})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func (s *ItemRequestService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFoundError("User", strconv.FormatInt(userID, 10))
	}
	return nil
}

func (s *ItemRequestService) withItems(ctx context.Context, requests []*requestDomain.ItemRequest) ([]ItemRequestDTO, error) {
	dtos := make([]ItemRequestDTO, 0, len(requests))
	if len(requests) == 0 {
		return dtos, nil
	}

	ids := make([]int64, len(requests))
	for i, r := range requests {
		ids[i] = r.ID()
	}
	items, err := s.items.FindByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[int64][]*itemDomain.Item)
	for _, it := range items {
		byRequest[*it.RequestID()] = append(byRequest[*it.RequestID()], it)
	}

	for _, r := range requests {
		dtos = append(dtos, toItemRequestDTO(r, byRequest[r.ID()]))
	}
	return dtos, nil
}

func toItemRequestDTO(r *requestDomain.ItemRequest, items []*itemDomain.Item) ItemRequestDTO {
	return ItemRequestDTO{
		ID:          r.ID(),
		Description: r.Description(),
		RequesterID: r.RequesterID(),
		Created:     r.Created(),
		Items:       toItemDTOs(items),
	}
}
