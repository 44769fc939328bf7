package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	"gorm.io/gorm"
)

// ItemRequestModel is the GORM model for the requests table.
type ItemRequestModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Description string    `gorm:"type:varchar(1024);not null"`
	RequesterID int64     `gorm:"not null;index"`
	Created     time.Time `gorm:"type:timestamptz;not null"`
}

func (ItemRequestModel) TableName() string { return "requests" }

// GormItemRequestRepository implements ItemRequestRepository using GORM.
type GormItemRequestRepository struct {
	db *gorm.DB
}

func NewGormItemRequestRepository(db *gorm.DB) *GormItemRequestRepository {
	return &GormItemRequestRepository{db: db}
}

func (r *GormItemRequestRepository) FindByID(ctx context.Context, id int64) (*requestDomain.ItemRequest, error) {
	var model ItemRequestModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ItemRequest", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to find item request: %w", err)
	}
	return toRequestDomain(&model), nil
}

func (r *GormItemRequestRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&ItemRequestModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check item request: %w", err)
	}
	return count > 0, nil
}

func (r *GormItemRequestRepository) FindByRequesterID(ctx context.Context, requesterID int64) ([]*requestDomain.ItemRequest, error) {
	return r.findMany(conn(ctx, r.db).Where("requester_id = ?", requesterID))
}

func (r *GormItemRequestRepository) FindAllExcept(ctx context.Context, requesterID int64, offset, limit int) ([]*requestDomain.ItemRequest, error) {
	return r.findMany(conn(ctx, r.db).
		Where("requester_id <> ?", requesterID).
		Offset(offset).
		Limit(limit))
}

func (r *GormItemRequestRepository) findMany(q *gorm.DB) ([]*requestDomain.ItemRequest, error) {
	var models []ItemRequestModel
	if err := q.Order("created DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list item requests: %w", err)
	}
	requests := make([]*requestDomain.ItemRequest, len(models))
	for i := range models {
		requests[i] = toRequestDomain(&models[i])
	}
	return requests, nil
}

func (r *GormItemRequestRepository) Create(ctx context.Context, req *requestDomain.ItemRequest) (*requestDomain.ItemRequest, error) {
	model := &ItemRequestModel{
		Description: req.Description(),
		RequesterID: req.RequesterID(),
		Created:     req.Created(),
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to save item request: %w", err)
	}
	return toRequestDomain(model), nil
}

func toRequestDomain(m *ItemRequestModel) *requestDomain.ItemRequest {
	return requestDomain.ReconstructItemRequest(m.ID, m.Description, m.RequesterID, m.Created)
}
