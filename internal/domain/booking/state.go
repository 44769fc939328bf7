package booking

import (
	"strings"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/domain"
)

// State is the listing filter applied to a user's bookings.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// ParseState parses a filter value case-insensitively.
func ParseState(raw string) (State, error) {
	switch s := State(strings.ToUpper(raw)); s {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, nil
	default:
		return "", domain.NewValidationError("Unknown state: " + raw)
	}
}

// Matches reports whether b passes the filter at instant now.
func (s State) Matches(b *Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return !b.start.After(now) && !b.end.Before(now)
	case StatePast:
		return b.end.Before(now)
	case StateFuture:
		return b.start.After(now)
	case StateWaiting:
		return b.status == StatusWaiting
	case StateRejected:
		return b.status == StatusRejected
	default:
		return false
	}
}
