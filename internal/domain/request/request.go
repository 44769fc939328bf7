package request

import (
	"strings"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

// ItemRequest is a user's public ask for an item nobody has listed yet.
type ItemRequest struct {
	id          int64
	description string
	requesterID int64
	created     time.Time
}

// NewItemRequest creates a request stamped with now.
func NewItemRequest(requesterID int64, description string, now time.Time) (*ItemRequest, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.NewValidationError("description is required")
	}
	return &ItemRequest{description: description, requesterID: requesterID, created: now.UTC()}, nil
}

// ReconstructItemRequest rebuilds an ItemRequest from persistence data (no validation).
func ReconstructItemRequest(id int64, description string, requesterID int64, created time.Time) *ItemRequest {
	return &ItemRequest{id: id, description: description, requesterID: requesterID, created: created.UTC()}
}

func (r *ItemRequest) ID() int64           { return r.id }
func (r *ItemRequest) Description() string { return r.description }
func (r *ItemRequest) RequesterID() int64  { return r.requesterID }
func (r *ItemRequest) Created() time.Time  { return r.created }
