package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	userDomain "github.com/shareit-rental/service-shareit/internal/domain/user"
)

// UserRepository implements user.UserRepository on a Store.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*userDomain.User, error) {
	var (
		row userRow
		ok  bool
	)
	r.store.read(func() { row, ok = r.store.t.users[id] })
	if !ok {
		return nil, domain.NewNotFoundError("User", strconv.FormatInt(id, 10))
	}
	return toDomainUser(row), nil
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []int64) ([]*userDomain.User, error) {
	var users []*userDomain.User
	r.store.read(func() {
		for _, id := range ids {
			if row, ok := r.store.t.users[id]; ok {
				users = append(users, toDomainUser(row))
			}
		}
	})
	return users, nil
}

func (r *UserRepository) FindAll(_ context.Context) ([]*userDomain.User, error) {
	var users []*userDomain.User
	r.store.read(func() {
		for _, row := range r.store.t.users {
			users = append(users, toDomainUser(row))
		}
	})
	slices.SortFunc(users, func(a, b *userDomain.User) int { return cmp.Compare(a.ID(), b.ID()) })
	return users, nil
}

func (r *UserRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	var ok bool
	r.store.read(func() { _, ok = r.store.t.users[id] })
	return ok, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	var found bool
	r.store.read(func() { found = r.emailTaken(email, 0) })
	return found, nil
}

// emailTaken must be called with the store lock held.
func (r *UserRepository) emailTaken(email string, exceptID int64) bool {
	for _, row := range r.store.t.users {
		if row.email == email && row.id != exceptID {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) (*userDomain.User, error) {
	var created userRow
	err := r.store.write(ctx, func() error {
		if r.emailTaken(u.Email(), 0) {
			return domain.NewConflictError("Email already exists: " + u.Email())
		}
		created = userRow{id: r.store.nextID("users"), name: u.Name(), email: u.Email()}
		r.store.t.users[created.id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainUser(created), nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDomain.User) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.t.users[u.ID()]; !ok {
			return domain.NewNotFoundError("User", strconv.FormatInt(u.ID(), 10))
		}
		if r.emailTaken(u.Email(), u.ID()) {
			return domain.NewConflictError("Email already exists: " + u.Email())
		}
		r.store.t.users[u.ID()] = userRow{id: u.ID(), name: u.Name(), email: u.Email()}
		return nil
	})
}

// Delete removes the user and cascades like the foreign keys in the SQL schema.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.t.users[id]; !ok {
			return domain.NewNotFoundError("User", strconv.FormatInt(id, 10))
		}
		r.store.t.deleteUser(id)
		return nil
	})
}

func toDomainUser(row userRow) *userDomain.User {
	return userDomain.ReconstructUser(row.id, row.name, row.email)
}
