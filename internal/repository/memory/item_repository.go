package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
)

// ItemRepository implements item.ItemRepository on a Store.
type ItemRepository struct {
	store *Store
}

// NewItemRepository creates an ItemRepository.
func NewItemRepository(store *Store) *ItemRepository {
	return &ItemRepository{store: store}
}

func (r *ItemRepository) FindByID(_ context.Context, id int64) (*itemDomain.Item, error) {
	var (
		row itemRow
		ok  bool
	)
	r.store.read(func() { row, ok = r.store.t.items[id] })
	if !ok {
		return nil, domain.NewNotFoundError("Item", strconv.FormatInt(id, 10))
	}
	return toDomainItem(row), nil
}

// FindByIDForUpdate is FindByID; transactions already run one at a time.
func (r *ItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*itemDomain.Item, error) {
	return r.FindByID(ctx, id)
}

func (r *ItemRepository) FindByIDs(_ context.Context, ids []int64) ([]*itemDomain.Item, error) {
	var items []*itemDomain.Item
	r.store.read(func() {
		for _, id := range ids {
			if row, ok := r.store.t.items[id]; ok {
				items = append(items, toDomainItem(row))
			}
		}
	})
	return items, nil
}

func (r *ItemRepository) FindByOwnerID(_ context.Context, ownerID int64) ([]*itemDomain.Item, error) {
	return r.filter(func(row itemRow) bool { return row.ownerID == ownerID }), nil
}

func (r *ItemRepository) FindByRequestIDs(_ context.Context, requestIDs []int64) ([]*itemDomain.Item, error) {
	return r.filter(func(row itemRow) bool {
		return row.requestID != nil && slices.Contains(requestIDs, *row.requestID)
	}), nil
}

func (r *ItemRepository) SearchAvailable(_ context.Context, text string) ([]*itemDomain.Item, error) {
	return r.filter(func(row itemRow) bool {
		return row.available && toDomainItem(row).MatchesText(text)
	}), nil
}

func (r *ItemRepository) filter(keep func(itemRow) bool) []*itemDomain.Item {
	var items []*itemDomain.Item
	r.store.read(func() {
		for _, row := range r.store.t.items {
			if keep(row) {
				items = append(items, toDomainItem(row))
			}
		}
	})
	slices.SortFunc(items, func(a, b *itemDomain.Item) int { return cmp.Compare(a.ID(), b.ID()) })
	return items
}

func (r *ItemRepository) Create(ctx context.Context, it *itemDomain.Item) (*itemDomain.Item, error) {
	var created itemRow
	err := r.store.write(ctx, func() error {
		created = toItemRow(it)
		created.id = r.store.nextID("items")
		r.store.t.items[created.id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainItem(created), nil
}

func (r *ItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.t.items[it.ID()]; !ok {
			return domain.NewNotFoundError("Item", strconv.FormatInt(it.ID(), 10))
		}
		r.store.t.items[it.ID()] = toItemRow(it)
		return nil
	})
}

func toItemRow(it *itemDomain.Item) itemRow {
	return itemRow{
		id:          it.ID(),
		name:        it.Name(),
		description: it.Description(),
		available:   it.IsAvailable(),
		ownerID:     it.OwnerID(),
		requestID:   it.RequestID(),
	}
}

func toDomainItem(row itemRow) *itemDomain.Item {
	return itemDomain.ReconstructItem(row.id, row.name, row.description, row.available, row.ownerID, row.requestID)
}

// CommentRepository implements item.CommentRepository on a Store.
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(store *Store) *CommentRepository {
	return &CommentRepository{store: store}
}

func (r *CommentRepository) FindByItemID(_ context.Context, itemID int64) ([]*itemDomain.Comment, error) {
	var comments []*itemDomain.Comment
	r.store.read(func() {
		for _, row := range r.store.t.comments {
			if row.itemID == itemID {
				comments = append(comments, toDomainComment(row))
			}
		}
	})
	slices.SortFunc(comments, func(a, b *itemDomain.Comment) int {
		if c := b.Created().Compare(a.Created()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
	return comments, nil
}

func (r *CommentRepository) ExistsByAuthorAndItem(_ context.Context, authorID, itemID int64) (bool, error) {
	var found bool
	r.store.read(func() { found = r.exists(authorID, itemID) })
	return found, nil
}

// exists must be called with the store lock held.
func (r *CommentRepository) exists(authorID, itemID int64) bool {
	for _, row := range r.store.t.comments {
		if row.authorID == authorID && row.itemID == itemID {
			return true
		}
	}
	return false
}

func (r *CommentRepository) Create(ctx context.Context, c *itemDomain.Comment) (*itemDomain.Comment, error) {
	var created commentRow
	err := r.store.write(ctx, func() error {
		if r.exists(c.AuthorID(), c.ItemID()) {
			return domain.NewConflictError("comment already exists")
		}
		created = commentRow{
			id:       r.store.nextID("comments"),
			itemID:   c.ItemID(),
			authorID: c.AuthorID(),
			text:     c.Text(),
			created:  c.Created(),
		}
		r.store.t.comments[created.id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainComment(created), nil
}

func toDomainComment(row commentRow) *itemDomain.Comment {
	return itemDomain.ReconstructComment(row.id, row.itemID, row.authorID, row.text, row.created)
}
