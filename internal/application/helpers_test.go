package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shareit-rental/service-shareit/internal/repository/memory"
)

// testClock is a settable clock shared by all services of a testEnv.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publishedEvent struct {
	Type string
	Key  string
	Data interface{}
}

// recordingPublisher captures events; it fails every call when err is set.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, key string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Type: eventType, Key: key, Data: data})
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type testEnv struct {
	ctx       context.Context
	clock     *testClock
	publisher *recordingPublisher
	store     *memory.Store

	bookings *BookingService
	items    *ItemService
	users    *UserService
	requests *ItemRequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	itemRepo := memory.NewItemRepository(store)
	commentRepo := memory.NewCommentRepository(store)
	bookingRepo := memory.NewBookingRepository(store)
	requestRepo := memory.NewItemRequestRepository(store)
	tx := memory.NewTxManager(store)

	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	publisher := &recordingPublisher{}
	logger := zap.NewNop()

	env := &testEnv{
		ctx:       context.Background(),
		clock:     clock,
		publisher: publisher,
		store:     store,
		bookings:  NewBookingService(bookingRepo, itemRepo, userRepo, tx, publisher, logger),
		items:     NewItemService(itemRepo, commentRepo, bookingRepo, userRepo, requestRepo, tx, logger),
		users:     NewUserService(userRepo, tx, logger),
		requests:  NewItemRequestService(requestRepo, itemRepo, userRepo, tx, logger),
	}
	env.bookings.now = clock.Now
	env.items.now = clock.Now
	env.requests.now = clock.Now
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email string) int64 {
	t.Helper()
	u, err := e.users.CreateUser(e.ctx, CreateUserRequest{Name: name, Email: email})
	require.NoError(t, err)
	return u.ID
}

func (e *testEnv) createItem(t *testing.T, ownerID int64, name string, available bool) int64 {
	t.Helper()
	it, err := e.items.CreateItem(e.ctx, ownerID, CreateItemRequest{
		Name:        name,
		Description: name + " for rent",
		Available:   &available,
	})
	require.NoError(t, err)
	return it.ID
}

// period returns [now+from, now+to) on the env clock.
func (e *testEnv) period(from, to time.Duration) (*time.Time, *time.Time) {
	start := e.clock.Now().Add(from)
	end := e.clock.Now().Add(to)
	return &start, &end
}

func (e *testEnv) book(t *testing.T, bookerID, itemID int64, from, to time.Duration) *BookingDTO {
	t.Helper()
	start, end := e.period(from, to)
	b, err := e.bookings.CreateBooking(e.ctx, bookerID, CreateBookingRequest{ItemID: itemID, Start: start, End: end})
	require.NoError(t, err)
	return b
}

var errBrokerDown = errors.New("broker down")

const day = 24 * time.Hour
