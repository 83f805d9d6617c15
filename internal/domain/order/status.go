package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

// Order lifecycle states. The main path is linear; CANCELLED is a side
// branch reachable only through Service.Cancel.
const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// statusRank orders the linear lifecycle states. CANCELLED has no rank: it
// is never a valid target of a plain status update.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// ParseStatus converts a string into a Status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the defined lifecycle states.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether a plain status update from s to target is
// allowed. The lifecycle permits any forward jump (PENDING straight to
// DELIVERED is legal, matching the historical behaviour) and same-state
// repeats, but never moves backwards and never leaves a terminal state.
// Transitions into CANCELLED are always rejected here; cancellation runs
// through its own operation with compensating stock credits.
func (s Status) CanTransitionTo(target Status) bool {
	if s.Terminal() {
		return false
	}
	if target == StatusCancelled {
		return false
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to >= from
}
