package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit-rental/service-shareit/internal/common/database"
	"github.com/shareit-rental/service-shareit/internal/common/domain"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
	itemDomain "github.com/shareit-rental/service-shareit/internal/domain/item"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

func mustUser(t *testing.T, name, email string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(name, email)
	require.NoError(t, err)
	return u
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	store := NewStore()
	users := NewUserRepository(store)
	tx := NewTxManager(store)
	ctx := context.Background()

	errAbort := errors.New("abort")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := users.Create(ctx, mustUser(t, "Alice", "alice@example.com")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// The id sequence is rolled back with the rows.
	created, err := users.Create(ctx, mustUser(t, "Bob", "bob@example.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID())
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	users := NewUserRepository(store)
	tx := NewTxManager(store)
	ctx := context.Background()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := users.Create(ctx, mustUser(t, "Alice", "alice@example.com"))
			return err
		})
	})
	require.NoError(t, err)

	exists, err := users.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTxManager_CommitHooks(t *testing.T) {
	store := NewStore()
	users := NewUserRepository(store)
	tx := NewTxManager(store)
	ctx := context.Background()

	t.Run("RunAfterCommit", func(t *testing.T) {
		var committed bool
		var hookErr error
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			database.AfterCommit(ctx, func(ctx context.Context) {
				exists, err := users.ExistsByEmail(ctx, "hook@example.com")
				committed = err == nil && exists
				// the transaction lock is released, so hooks may write
				_, hookErr = users.Create(ctx, mustUser(t, "After", "after@example.com"))
			})
			_, err := users.Create(ctx, mustUser(t, "Hook", "hook@example.com"))
			return err
		})
		require.NoError(t, err)
		require.NoError(t, hookErr)
		assert.True(t, committed)
	})

	t.Run("SkippedOnRollback", func(t *testing.T) {
		ran := false
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			database.AfterCommit(ctx, func(context.Context) { ran = true })
			return errors.New("abort")
		})
		require.Error(t, err)
		assert.False(t, ran)
	})
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	users := NewUserRepository(NewStore())
	ctx := context.Background()

	_, err := users.Create(ctx, mustUser(t, "Alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = users.Create(ctx, mustUser(t, "Alice again", "alice@example.com"))
	assert.True(t, domain.IsConflict(err))
}

func TestBookingRepository_RejectsOverlap(t *testing.T) {
	bookings := NewBookingRepository(NewStore())
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	newBooking := func(from, to time.Duration) *bookingDomain.Booking {
		start, end := now.Add(from), now.Add(to)
		b, err := bookingDomain.NewBooking(1, 2, &start, &end, now)
		require.NoError(t, err)
		return b
	}

	first, err := bookings.Create(ctx, newBooking(time.Hour, 3*time.Hour))
	require.NoError(t, err)

	_, err = bookings.Create(ctx, newBooking(2*time.Hour, 4*time.Hour))
	assert.True(t, domain.IsValidation(err))

	_, err = bookings.Create(ctx, newBooking(3*time.Hour, 4*time.Hour))
	assert.NoError(t, err, "touching periods do not overlap")

	require.NoError(t, first.Decide(false))
	require.NoError(t, bookings.UpdateStatus(ctx, first))
	_, err = bookings.Create(ctx, newBooking(time.Hour, 2*time.Hour))
	assert.NoError(t, err, "rejected bookings free their period")

	counts, err := bookings.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[bookingDomain.StatusRejected])
	assert.Equal(t, int64(2), counts[bookingDomain.StatusWaiting])
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	store := NewStore()
	users := NewUserRepository(store)
	items := NewItemRepository(store)
	comments := NewCommentRepository(store)
	bookings := NewBookingRepository(store)
	requests := NewItemRequestRepository(store)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yes := true

	owner, err := users.Create(ctx, mustUser(t, "Owner", "owner@example.com"))
	require.NoError(t, err)
	other, err := users.Create(ctx, mustUser(t, "Other", "other@example.com"))
	require.NoError(t, err)

	newItem := func(ownerID int64, requestID *int64) *itemDomain.Item {
		draft, err := itemDomain.NewItem(ownerID, "Drill", "Cordless", &yes, requestID)
		require.NoError(t, err)
		it, err := items.Create(ctx, draft)
		require.NoError(t, err)
		return it
	}
	newBooking := func(itemID, bookerID int64, from time.Duration) *bookingDomain.Booking {
		start, end := now.Add(from), now.Add(from+time.Hour)
		draft, err := bookingDomain.NewBooking(itemID, bookerID, &start, &end, now)
		require.NoError(t, err)
		b, err := bookings.Create(ctx, draft)
		require.NoError(t, err)
		return b
	}
	newComment := func(itemID, authorID int64) {
		c, err := itemDomain.NewComment(itemID, authorID, "Fine", now)
		require.NoError(t, err)
		_, err = comments.Create(ctx, c)
		require.NoError(t, err)
	}

	reqDraft, err := requestDomain.NewItemRequest(owner.ID(), "Need a ladder", now)
	require.NoError(t, err)
	ownerRequest, err := requests.Create(ctx, reqDraft)
	require.NoError(t, err)

	ownedItem := newItem(owner.ID(), nil)
	otherItem := newItem(other.ID(), nil)
	answeringItem := newItem(other.ID(), int64Ptr(ownerRequest.ID()))

	onOwnedItem := newBooking(ownedItem.ID(), other.ID(), time.Hour)
	byOwner := newBooking(otherItem.ID(), owner.ID(), time.Hour)
	unrelated := newBooking(otherItem.ID(), other.ID(), 2*time.Hour)
	newComment(ownedItem.ID(), other.ID())
	newComment(otherItem.ID(), owner.ID())

	require.NoError(t, users.Delete(ctx, owner.ID()))

	_, err = items.FindByID(ctx, ownedItem.ID())
	assert.True(t, domain.IsNotFound(err), "owned item is removed")
	for _, id := range []int64{onOwnedItem.ID(), byOwner.ID()} {
		_, err = bookings.FindByID(ctx, id)
		assert.True(t, domain.IsNotFound(err), "booking %d is removed", id)
	}
	_, err = bookings.FindByID(ctx, unrelated.ID())
	assert.NoError(t, err)

	exists, err := comments.ExistsByAuthorAndItem(ctx, other.ID(), ownedItem.ID())
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = comments.ExistsByAuthorAndItem(ctx, owner.ID(), otherItem.ID())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = requests.FindByID(ctx, ownerRequest.ID())
	assert.True(t, domain.IsNotFound(err))
	answering, err := items.FindByID(ctx, answeringItem.ID())
	require.NoError(t, err)
	assert.Nil(t, answering.RequestID(), "answering item outlives the request")
}

func int64Ptr(v int64) *int64 { return &v }
