package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:varchar(1024);not null"`
	IsAvailable bool   `gorm:"column:is_available;not null"`
	OwnerID     int64  `gorm:"not null;index"`
	RequestID   *int64 `gorm:"index"`
}

func (ItemModel) TableName() string { return "items" }

// CommentModel is the GORM model for the comments table.
type CommentModel struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Text     string    `gorm:"type:varchar(2048);not null"`
	ItemID   int64     `gorm:"not null;uniqueIndex:uq_comments_item_author"`
	AuthorID int64     `gorm:"not null;uniqueIndex:uq_comments_item_author"`
	Created  time.Time `gorm:"type:timestamptz;not null"`
}

func (CommentModel) TableName() string { return "comments" }

// GormItemRepository implements ItemRepository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	return r.findOne(conn(ctx, r.db), id)
}

// FindByIDForUpdate locks the item row; concurrent bookings of one item queue here.
func (r *GormItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*itemDomain.Item, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormItemRepository) findOne(db *gorm.DB, id int64) (*itemDomain.Item, error) {
	var model ItemModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return toItemDomain(&model), nil
}

func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []int64) ([]*itemDomain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findMany(conn(ctx, r.db).Where("id IN ?", ids))
}

func (r *GormItemRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]*itemDomain.Item, error) {
	return r.findMany(conn(ctx, r.db).Where("owner_id = ?", ownerID))
}

func (r *GormItemRepository) FindByRequestIDs(ctx context.Context, requestIDs []int64) ([]*itemDomain.Item, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	return r.findMany(conn(ctx, r.db).Where("request_id IN ?", requestIDs))
}

func (r *GormItemRepository) SearchAvailable(ctx context.Context, text string) ([]*itemDomain.Item, error) {
	pattern := "%" + text + "%"
	return r.findMany(conn(ctx, r.db).
		Where("is_available = ?", true).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern))
}

func (r *GormItemRepository) findMany(q *gorm.DB) ([]*itemDomain.Item, error) {
	var models []ItemModel
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toItemDomain(&models[i])
	}
	return items, nil
}

func (r *GormItemRepository) Create(ctx context.Context, it *itemDomain.Item) (*itemDomain.Item, error) {
	model := toItemModel(it)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return toItemDomain(model), nil
}

func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	result := conn(ctx, r.db).Model(&ItemModel{}).
		Where("id = ?", it.ID()).
		Updates(map[string]interface{}{
			"name":         it.Name(),
			"description":  it.Description(),
			"is_available": it.IsAvailable(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Item", strconv.FormatInt(it.ID(), 10))
	}
	return nil
}

func toItemModel(it *itemDomain.Item) *ItemModel {
	return &ItemModel{
		ID:          it.ID(),
		Name:        it.Name(),
		Description: it.Description(),
		IsAvailable: it.IsAvailable(),
		OwnerID:     it.OwnerID(),
		RequestID:   it.RequestID(),
	}
}

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return itemDomain.ReconstructItem(m.ID, m.Name, m.Description, m.IsAvailable, m.OwnerID, m.RequestID)
}

// GormCommentRepository implements CommentRepository using GORM.
type GormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) FindByItemID(ctx context.Context, itemID int64) ([]*itemDomain.Comment, error) {
	var models []CommentModel
	if err := conn(ctx, r.db).
		Where("item_id = ?", itemID).
		Order("created DESC").
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	comments := make([]*itemDomain.Comment, len(models))
	for i, m := range models {
		comments[i] = itemDomain.ReconstructComment(m.ID, m.ItemID, m.AuthorID, m.Text, m.Created)
	}
	return comments, nil
}

func (r *GormCommentRepository) ExistsByAuthorAndItem(ctx context.Context, authorID, itemID int64) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&CommentModel{}).
		Where("author_id = ? AND item_id = ?", authorID, itemID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check comment: %w", err)
	}
	return count > 0, nil
}

func (r *GormCommentRepository) Create(ctx context.Context, c *itemDomain.Comment) (*itemDomain.Comment, error) {
	model := &CommentModel{Text: c.Text(), ItemID: c.ItemID(), AuthorID: c.AuthorID(), Created: c.Created()}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewConflictError("comment already exists")
		}
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	return itemDomain.ReconstructComment(model.ID, model.ItemID, model.AuthorID, model.Text, model.Created), nil
}
