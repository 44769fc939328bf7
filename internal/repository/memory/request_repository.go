package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
	requestDomain "github.com/shareit-rental/service-shareit/internal/domain/request"
)

// ItemRequestRepository implements request.ItemRequestRepository on a Store.
type ItemRequestRepository struct {
	store *Store
}

// NewItemRequestRepository creates an ItemRequestRepository.
func NewItemRequestRepository(store *Store) *ItemRequestRepository {
	return &ItemRequestRepository{store: store}
}

func (r *ItemRequestRepository) FindByID(_ context.Context, id int64) (*requestDomain.ItemRequest, error) {
	var (
		row requestRow
		ok  bool
	)
	r.store.read(func() { row, ok = r.store.t.requests[id] })
	if !ok {
		return nil, domain.NewNotFoundError("ItemRequest", strconv.FormatInt(id, 10))
	}
	return toDomainRequest(row), nil
}

func (r *ItemRequestRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	var ok bool
	r.store.read(func() { _, ok = r.store.t.requests[id] })
	return ok, nil
}

func (r *ItemRequestRepository) FindByRequesterID(_ context.Context, requesterID int64) ([]*requestDomain.ItemRequest, error) {
	return r.newestFirst(func(row requestRow) bool { return row.requesterID == requesterID }), nil
}

func (r *ItemRequestRepository) FindAllExcept(_ context.Context, requesterID int64, offset, limit int) ([]*requestDomain.ItemRequest, error) {
	all := r.newestFirst(func(row requestRow) bool { return row.requesterID != requesterID })
	if offset >= len(all) {
		return []*requestDomain.ItemRequest{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *ItemRequestRepository) newestFirst(keep func(requestRow) bool) []*requestDomain.ItemRequest {
	var out []*requestDomain.ItemRequest
	r.store.read(func() {
		for _, row := range r.store.t.requests {
			if keep(row) {
				out = append(out, toDomainRequest(row))
			}
		}
	})
	slices.SortFunc(out, func(a, b *requestDomain.ItemRequest) int {
		if c := b.Created().Compare(a.Created()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
	return out
}

func (r *ItemRequestRepository) Create(ctx context.Context, req *requestDomain.ItemRequest) (*requestDomain.ItemRequest, error) {
	var created requestRow
	err := r.store.write(ctx, func() error {
		created = requestRow{
			id:          r.store.nextID("requests"),
			description: req.Description(),
			requesterID: req.RequesterID(),
			created:     req.Created(),
		}
		r.store.t.requests[created.id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainRequest(created), nil
}

func toDomainRequest(row requestRow) *requestDomain.ItemRequest {
	return requestDomain.ReconstructItemRequest(row.id, row.description, row.requesterID, row.created)
}
