package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/config"
	"github.com/shareit-rental/service-shareit/internal/common/database"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

// NewRedisClient creates a Redis client from the item cache settings.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type cachedItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// CachedItemRepository reads items through Redis. Cache failures are logged
// and served from the wrapped repository.
type CachedItemRepository struct {
	itemDomain.ItemRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedItemRepository wraps next with a Redis read-through cache.
func NewCachedItemRepository(next itemDomain.ItemRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedItemRepository {
	return &CachedItemRepository{
		ItemRepository: next,
		client:         client,
		ttl:            ttl,
		logger:         logger,
	}
}

func itemKey(id int64) string {
	return fmt.Sprintf("shareit:item:%d", id)
}

// FindByID serves the item from Redis, loading and caching it on a miss.
// Rows read inside a transaction are not cached since they may never commit.
func (r *CachedItemRepository) FindByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	val, err := r.client.Get(ctx, itemKey(id)).Bytes()
	switch {
	case err == nil:
		var c cachedItem
		if err := json.Unmarshal(val, &c); err == nil {
			return itemDomain.ReconstructItem(c.ID, c.Name, c.Description, c.Available, c.OwnerID, c.RequestID), nil
		}
		r.logger.Warn("dropping undecodable cached item", zap.Int64("item_id", id))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("item cache read failed", zap.Int64("item_id", id), zap.Error(err))
	}

	it, err := r.ItemRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !database.InTransaction(ctx) {
		r.store(ctx, it)
	}
	return it, nil
}

// Update writes through and evicts the cached copy now and again after commit,
// so a reader that cached the old row in between does not keep it.
func (r *CachedItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	if err := r.ItemRepository.Update(ctx, it); err != nil {
		return err
	}
	evictItemsOnCommit(ctx, r.client, r.logger, []int64{it.ID()})
	return nil
}

func (r *CachedItemRepository) store(ctx context.Context, it *itemDomain.Item) {
	data, err := json.Marshal(cachedItem{
		ID:          it.ID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.IsAvailable(),
		OwnerID:     it.OwnerID(),
		RequestID:   it.RequestID(),
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, itemKey(it.ID()), data, r.ttl).Err(); err != nil {
		r.logger.Warn("item cache write failed", zap.Int64("item_id", it.ID()), zap.Error(err))
	}
}

// ItemEvictingUserRepository evicts the cached items a user deletion removes
// or detaches from a request.
type ItemEvictingUserRepository struct {
	userDomain.UserRepository
	items    itemDomain.ItemRepository
	requests requestDomain.ItemRequestRepository
	client   *redis.Client
	logger   *zap.Logger
}

// NewItemEvictingUserRepository wraps next. items must be the uncached repository.
func NewItemEvictingUserRepository(
	next userDomain.UserRepository,
	items itemDomain.ItemRepository,
	requests requestDomain.ItemRequestRepository,
	client *redis.Client,
	logger *zap.Logger,
) *ItemEvictingUserRepository {
	return &ItemEvictingUserRepository{
		UserRepository: next,
		items:          items,
		requests:       requests,
		client:         client,
		logger:         logger,
	}
}

// Delete removes the user and evicts its items and the items answering its requests.
func (r *ItemEvictingUserRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.affectedItems(ctx, id)
	if err != nil {
		return err
	}
	if err := r.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	evictItemsOnCommit(ctx, r.client, r.logger, affected)
	return nil
}

func (r *ItemEvictingUserRepository) affectedItems(ctx context.Context, userID int64) ([]int64, error) {
	owned, err := r.items.FindByOwnerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	requests, err := r.requests.FindByRequesterID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(owned))
	for _, it := range owned {
		ids = append(ids, it.ID())
	}
	if len(requests) == 0 {
		return ids, nil
	}

	requestIDs := make([]int64, len(requests))
	for i, req := range requests {
		requestIDs[i] = req.ID()
	}
	answering, err := r.items.FindByRequestIDs(ctx, requestIDs)
	if err != nil {
		return nil, err
	}
	for _, it := range answering {
		ids = append(ids, it.ID())
	}
	return ids, nil
}

func evictItemsOnCommit(ctx context.Context, client *redis.Client, logger *zap.Logger, ids []int64) {
	if len(ids) == 0 {
		return
	}
	evictItems(ctx, client, logger, ids)
	if database.InTransaction(ctx) {
		database.AfterCommit(ctx, func(ctx context.Context) {
			evictItems(ctx, client, logger, ids)
		})
	}
}

func evictItems(ctx context.Context, client *redis.Client, logger *zap.Logger, ids []int64) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("item cache invalidation failed", zap.Int64s("item_ids", ids), zap.Error(err))
	}
}
