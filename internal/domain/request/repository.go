package request

import "context"

// ItemRequestRepository defines persistence operations for item requests.
type ItemRequestRepository interface {
	FindByID(ctx context.Context, id int64) (*ItemRequest, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// FindByRequesterID returns the user's requests, newest first.
	FindByRequesterID(ctx context.Context, requesterID int64) ([]*ItemRequest, error)

	// FindAllExcept returns other users' requests, newest first, skipping offset and returning at most limit.
	FindAllExcept(ctx context.Context, requesterID int64, offset, limit int) ([]*ItemRequest, error)

	Create(ctx context.Context, request *ItemRequest) (*ItemRequest, error)
}
