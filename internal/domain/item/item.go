package item

import (
	"strings"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

// Item is a thing a user lists for others to book.
type Item struct {
	id          int64
	name        string
	description string
	available   bool
	ownerID     int64
	requestID   *int64
}

// NewItem creates an item owned by ownerID, optionally answering an item request.
func NewItem(ownerID int64, name, description string, available *bool, requestID *int64) (*Item, error) {
	if ownerID <= 0 {
		return nil, domain.NewValidationError("owner ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.NewValidationError("description is required")
	}
	if available == nil {
		return nil, domain.NewValidationError("available is required")
	}
	return &Item{
		name:        name,
		description: description,
		available:   *available,
		ownerID:     ownerID,
		requestID:   requestID,
	}, nil
}

// ReconstructItem rebuilds an Item from persistence data (no validation).
func ReconstructItem(id int64, name, description string, available bool, ownerID int64, requestID *int64) *Item {
	return &Item{
		id:          id,
		name:        name,
		description: description,
		available:   available,
		ownerID:     ownerID,
		requestID:   requestID,
	}
}

func (i *Item) ID() int64           { return i.id }
func (i *Item) Name() string        { return i.name }
func (i *Item) Description() string { return i.description }
func (i *Item) IsAvailable() bool   { return i.available }
func (i *Item) OwnerID() int64      { return i.ownerID }
func (i *Item) RequestID() *int64   { return i.requestID }

// IsOwnedBy checks if the item belongs to the given user.
func (i *Item) IsOwnedBy(userID int64) bool {
	return i.ownerID == userID
}

// Update applies a partial update. Nil fields are left unchanged.
func (i *Item) Update(name, description *string, available *bool) error {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return domain.NewValidationError("name must not be blank")
		}
		i.name = n
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return domain.NewValidationError("description must not be blank")
		}
		i.description = d
	}
	if available != nil {
		i.available = *available
	}
	return nil
}

// MatchesText reports whether the lowercase query appears in the name or description.
func (i *Item) MatchesText(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(i.name), q) || strings.Contains(strings.ToLower(i.description), q)
}
