package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	yes := true

	it, err := env.items.CreateItem(env.ctx, owner, CreateItemRequest{Name: "Drill", Description: "Cordless", Available: &yes})
	require.NoError(t, err)
	assert.Equal(t, owner, it.OwnerID)
	assert.True(t, it.Available)
	assert.Nil(t, it.RequestID)

	tests := []struct {
		name  string
		owner int64
		req   CreateItemRequest
		check func(error) bool
	}{
		{"unknown owner", 999, CreateItemRequest{Name: "x", Description: "y", Available: &yes}, domain.IsNotFound},
		{"missing available", owner, CreateItemRequest{Name: "x", Description: "y"}, domain.IsValidation},
		{"blank name", owner, CreateItemRequest{Name: " ", Description: "y", Available: &yes}, domain.IsValidation},
		{"blank description", owner, CreateItemRequest{Name: "x", Available: &yes}, domain.IsValidation},
		{"unknown request", owner, CreateItemRequest{Name: "x", Description: "y", Available: &yes, RequestID: int64Ptr(42)}, domain.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.items.CreateItem(env.ctx, tt.owner, tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestUpdateItem(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	other := env.createUser(t, "Other", "other@example.com")
	id := env.createItem(t, owner, "Drill", true)
	no := false

	it, err := env.items.UpdateItem(env.ctx, owner, id, UpdateItemRequest{Available: &no})
	require.NoError(t, err)
	assert.False(t, it.Available)
	assert.Equal(t, "Drill", it.Name)

	it, err = env.items.UpdateItem(env.ctx, owner, id, UpdateItemRequest{Name: strPtr("Hammer drill")})
	require.NoError(t, err)
	assert.Equal(t, "Hammer drill", it.Name)
	assert.False(t, it.Available)

	_, err = env.items.UpdateItem(env.ctx, other, id, UpdateItemRequest{Name: strPtr("Stolen")})
	require.Error(t, err)
	assert.True(t, domain.IsForbidden(err))
	assert.EqualError(t, err, "Only owner can update item")

	_, err = env.items.UpdateItem(env.ctx, owner, 999, UpdateItemRequest{Name: strPtr("x")})
	assert.True(t, domain.IsNotFound(err))
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	drill := env.createItem(t, owner, "Power Drill", true)
	env.createItem(t, owner, "Drill bits", false)
	env.createItem(t, owner, "Ladder", true)

	found, err := env.items.Search(env.ctx, "dRiLl")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, drill, found[0].ID)

	byDescription, err := env.items.Search(env.ctx, "for rent")
	require.NoError(t, err)
	assert.Len(t, byDescription, 2)

	blank, err := env.items.Search(env.ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, blank)
	assert.Empty(t, blank)
}

func TestGetItem_BookingNeighbours(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	item := env.createItem(t, owner, "Kayak", true)

	past := env.book(t, booker, item, time.Hour, 2*time.Hour)
	next := env.book(t, booker, item, 3*day, 4*day)
	pending := env.book(t, booker, item, 2*day, 3*day)
	for _, id := range []int64{past.ID, next.ID} {
		_, err := env.bookings.UpdateStatus(env.ctx, id, true, owner)
		require.NoError(t, err)
	}
	env.clock.Advance(day)

	details, err := env.items.GetItem(env.ctx, item, owner)
	require.NoError(t, err)
	require.NotNil(t, details.LastBooking)
	require.NotNil(t, details.NextBooking)
	assert.Equal(t, past.ID, details.LastBooking.ID)
	assert.Equal(t, next.ID, details.NextBooking.ID, "waiting booking %d is not a neighbour", pending.ID)
	assert.Equal(t, booker, details.NextBooking.BookerID)
	assert.NotNil(t, details.Comments)

	asBooker, err := env.items.GetItem(env.ctx, item, booker)
	require.NoError(t, err)
	assert.Nil(t, asBooker.LastBooking)
	assert.Nil(t, asBooker.NextBooking)

	owned, err := env.items.ListOwnerItems(env.ctx, owner)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, past.ID, owned[0].LastBooking.ID)

	_, err = env.items.GetItem(env.ctx, 999, owner)
	assert.True(t, domain.IsNotFound(err))
	_, err = env.items.ListOwnerItems(env.ctx, 999)
	assert.True(t, domain.IsNotFound(err))
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	item := env.createItem(t, owner, "Tent", true)
	req := CreateCommentRequest{Text: "Kept us dry all weekend"}

	b := env.book(t, booker, item, day, 2*day)

	_, err := env.items.AddComment(env.ctx, item, booker, req)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.EqualError(t, err, "User has not completed a booking of this item")

	_, err = env.bookings.UpdateStatus(env.ctx, b.ID, true, owner)
	require.NoError(t, err)

	// Approved but still running.
	env.clock.Advance(36 * time.Hour)
	_, err = env.items.AddComment(env.ctx, item, booker, req)
	assert.True(t, domain.IsValidation(err))

	env.clock.Advance(day)
	c, err := env.items.AddComment(env.ctx, item, booker, req)
	require.NoError(t, err)
	assert.Equal(t, "Booker", c.AuthorName)
	assert.Equal(t, req.Text, c.Text)
	assert.Equal(t, env.clock.Now(), c.Created)

	_, err = env.items.AddComment(env.ctx, item, booker, req)
	assert.EqualError(t, err, "User has already commented on this item")

	_, err = env.items.AddComment(env.ctx, item, owner, req)
	assert.True(t, domain.IsValidation(err), "owner never booked the item")

	_, err = env.items.AddComment(env.ctx, 999, booker, req)
	assert.True(t, domain.IsNotFound(err))

	details, err := env.items.GetItem(env.ctx, item, booker)
	require.NoError(t, err)
	require.Len(t, details.Comments, 1)
	assert.Equal(t, c.ID, details.Comments[0].ID)
	assert.Equal(t, "Booker", details.Comments[0].AuthorName)
}

func TestAddComment_BlankText(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	item := env.createItem(t, owner, "Tent", true)
	b := env.book(t, booker, item, day, 2*day)
	_, err := env.bookings.UpdateStatus(env.ctx, b.ID, true, owner)
	require.NoError(t, err)
	env.clock.Advance(3 * day)

	_, err = env.items.AddComment(env.ctx, item, booker, CreateCommentRequest{Text: "  "})
	assert.True(t, domain.IsValidation(err))
}

func int64Ptr(v int64) *int64 { return &v }
