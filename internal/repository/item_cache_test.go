package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
	"github.com/shareit-rental/service-shareit/internal/repository/memory"
)

// countingItemRepository counts FindByID calls that reach the backing store.
type countingItemRepository struct {
	itemDomain.ItemRepository
	finds int
}

func (r *countingItemRepository) FindByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	r.finds++
	return r.ItemRepository.FindByID(ctx, id)
}

func TestCachedItemRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	ctx := context.Background()
	backing := &countingItemRepository{ItemRepository: memory.NewItemRepository(memory.NewStore())}
	repo := NewCachedItemRepository(backing, client, time.Minute, zap.NewNop())

	available := true
	draft, err := itemDomain.NewItem(1, "Drill", "Cordless drill", &available, nil)
	require.NoError(t, err)
	created, err := repo.Create(ctx, draft)
	require.NoError(t, err)

	t.Run("ReadThrough", func(t *testing.T) {
		first, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)

		assert.Equal(t, 1, backing.finds)
		assert.Equal(t, first.Name(), second.Name())
		assert.True(t, s.Exists(itemKey(created.ID())))
		assert.Equal(t, time.Minute, s.TTL(itemKey(created.ID())))
	})

	t.Run("UpdateInvalidates", func(t *testing.T) {
		name := "Hammer drill"
		it, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		require.NoError(t, it.Update(&name, nil, nil))
		require.NoError(t, repo.Update(ctx, it))

		assert.False(t, s.Exists(itemKey(created.ID())))

		got, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Hammer drill", got.Name())
	})

	t.Run("MissingItemIsNotCached", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 999)
		assert.True(t, domain.IsNotFound(err))
		assert.False(t, s.Exists(itemKey(999)))
	})

	t.Run("RedisDownFallsBack", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		defer dead.Close()
		fallback := NewCachedItemRepository(backing, dead, time.Minute, zap.NewNop())

		got, err := fallback.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, created.ID(), got.ID())
	})
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestCachedItemRepository_Transactions(t *testing.T) {
	s, client := newMiniredisClient(t)
	ctx := context.Background()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	repo := NewCachedItemRepository(memory.NewItemRepository(store), client, time.Minute, zap.NewNop())

	available := true
	draft, err := itemDomain.NewItem(1, "Ladder", "Three metres", &available, nil)
	require.NoError(t, err)
	created, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	key := itemKey(created.ID())

	t.Run("ReadInsideTransactionIsNotCached", func(t *testing.T) {
		err := txm.WithinTransaction(ctx, func(txCtx context.Context) error {
			_, err := repo.FindByID(txCtx, created.ID())
			return err
		})
		require.NoError(t, err)
		assert.False(t, s.Exists(key))
	})

	t.Run("UpdateEvictsAfterCommit", func(t *testing.T) {
		name := "Long ladder"
		err := txm.WithinTransaction(ctx, func(txCtx context.Context) error {
			it, err := repo.FindByID(txCtx, created.ID())
			if err != nil {
				return err
			}
			if err := it.Update(&name, nil, nil); err != nil {
				return err
			}
			if err := repo.Update(txCtx, it); err != nil {
				return err
			}
			// a concurrent reader caches the pre-commit row
			return s.Set(key, `{"id":1,"name":"Ladder"}`)
		})
		require.NoError(t, err)
		assert.False(t, s.Exists(key))

		got, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Long ladder", got.Name())
	})

	t.Run("RolledBackUpdateStillEvicts", func(t *testing.T) {
		_, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		require.True(t, s.Exists(key))

		name := "Never saved"
		err = txm.WithinTransaction(ctx, func(txCtx context.Context) error {
			it, err := repo.FindByID(txCtx, created.ID())
			if err != nil {
				return err
			}
			if err := it.Update(&name, nil, nil); err != nil {
				return err
			}
			if err := repo.Update(txCtx, it); err != nil {
				return err
			}
			return domain.NewConflictError("abort")
		})
		require.Error(t, err)
		assert.False(t, s.Exists(key))

		got, err := repo.FindByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, "Long ladder", got.Name())
	})
}

func TestItemEvictingUserRepository_Delete(t *testing.T) {
	s, client := newMiniredisClient(t)
	ctx := context.Background()
	now := time.Now()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	rawItems := memory.NewItemRepository(store)
	requests := memory.NewItemRequestRepository(store)
	items := NewCachedItemRepository(rawItems, client, time.Minute, zap.NewNop())
	users := NewItemEvictingUserRepository(memory.NewUserRepository(store), rawItems, requests, client, zap.NewNop())

	newUser := func(name, email string) *userDomain.User {
		u, err := userDomain.NewUser(name, email)
		require.NoError(t, err)
		created, err := users.Create(ctx, u)
		require.NoError(t, err)
		return created
	}
	newItem := func(ownerID int64, requestID *int64) *itemDomain.Item {
		available := true
		draft, err := itemDomain.NewItem(ownerID, "Saw", "Hand saw", &available, requestID)
		require.NoError(t, err)
		created, err := items.Create(ctx, draft)
		require.NoError(t, err)
		return created
	}

	owner := newUser("Owner", "owner@example.com")
	other := newUser("Other", "other@example.com")

	reqDraft, err := requestDomain.NewItemRequest(owner.ID(), "Need a saw", now)
	require.NoError(t, err)
	ownerRequest, err := requests.Create(ctx, reqDraft)
	require.NoError(t, err)
	requestID := ownerRequest.ID()

	owned := newItem(owner.ID(), nil)
	answering := newItem(other.ID(), &requestID)
	unrelated := newItem(other.ID(), nil)

	for _, it := range []*itemDomain.Item{owned, answering, unrelated} {
		_, err := items.FindByID(ctx, it.ID())
		require.NoError(t, err)
		require.True(t, s.Exists(itemKey(it.ID())))
	}

	err = txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		return users.Delete(txCtx, owner.ID())
	})
	require.NoError(t, err)

	assert.False(t, s.Exists(itemKey(owned.ID())))
	assert.False(t, s.Exists(itemKey(answering.ID())))
	assert.True(t, s.Exists(itemKey(unrelated.ID())))

	_, err = items.FindByID(ctx, owned.ID())
	assert.True(t, domain.IsNotFound(err))

	got, err := items.FindByID(ctx, answering.ID())
	require.NoError(t, err)
	assert.Nil(t, got.RequestID())
}
