package item

import "context"

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*Item, error)

	// FindByIDForUpdate locks the item row for the current transaction.
	FindByIDForUpdate(ctx context.Context, id int64) (*Item, error)

	FindByIDs(ctx context.Context, ids []int64) ([]*Item, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*Item, error)
	FindByRequestIDs(ctx context.Context, requestIDs []int64) ([]*Item, error)

	// SearchAvailable returns available items whose name or description contains text, case-insensitively.
	SearchAvailable(ctx context.Context, text string) ([]*Item, error)

	Create(ctx context.Context, item *Item) (*Item, error)
	Update(ctx context.Context, item *Item) error
}

// CommentRepository defines persistence operations for item comments.
type CommentRepository interface {
	// FindByItemID returns the item's comments, newest first.
	FindByItemID(ctx context.Context, itemID int64) ([]*Comment, error)
	ExistsByAuthorAndItem(ctx context.Context, authorID, itemID int64) (bool, error)
	Create(ctx context.Context, comment *Comment) (*Comment, error)
}
