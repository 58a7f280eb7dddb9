package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SwapType distinguishes item-for-item swaps from points redemptions.
type SwapType string

const (
	SwapTypeDirect SwapType = "direct"
	SwapTypePoints SwapType = "points"
)

// SwapStatus is the state of a swap request. Legal transitions:
// pending -> accepted -> completed, pending -> declined | cancelled | expired.
// Expiry is evaluated lazily against ExpiresAt; there is no live timer.
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapDeclined  SwapStatus = "declined"
	SwapCancelled SwapStatus = "cancelled"
	SwapCompleted SwapStatus = "completed"
	SwapExpired   SwapStatus = "expired"
)

// IsTerminal reports whether no further transition is possible from s.
func (s SwapStatus) IsTerminal() bool {
	switch s {
	case SwapDeclined, SwapCancelled, SwapCompleted, SwapExpired:
		return true
	}
	return false
}

// SwapRequest is a proposal to exchange for another user's item, either
// directly (offering an item) or by spending points.
type SwapRequest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	RequesterID     string     `db:"requester_id" json:"requester_id"`
	OwnerID         string     `db:"item_owner_id" json:"item_owner_id"`
	RequestedItemID uuid.UUID  `db:"requested_item_id" json:"requested_item_id"`
	OfferedItemID   *uuid.UUID `db:"offered_item_id" json:"offered_item_id"`
	SwapType        SwapType   `db:"swap_type" json:"swap_type"`
	PointsOffered   *int       `db:"points_offered" json:"points_offered"`
	Message         *string    `db:"message" json:"message"`
	Status          SwapStatus `db:"status" json:"status"`
	DeclineReason   *string    `db:"decline_reason" json:"decline_reason"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields (not in the swap_requests table)
	RequestedItem *Item        `json:"requested_item,omitempty"`
	OfferedItem   *Item        `json:"offered_item,omitempty"`
	Requester     *UserSummary `json:"requester,omitempty"`
	Owner         *UserSummary `json:"owner,omitempty"`
}

// IsOverdue reports whether a still-pending request has passed its expiry.
// Callers must route overdue requests through the expire transition before
// acting on them.
func (r *SwapRequest) IsOverdue(now time.Time) bool {
	return r.Status == SwapPending && now.After(r.ExpiresAt)
}

// CreateSwapRequest is the body of POST /swaps/request.
type CreateSwapRequest struct {
	RequestedItemID string  `json:"requested_item_id"`
	OfferedItemID   *string `json:"offered_item_id"`
	SwapType        string  `json:"swap_type"`
	PointsOffered   *int    `json:"points_offered"`
	Message         *string `json:"message"`
}

// DeclineSwapRequest is the body of POST /swaps/:id/decline.
type DeclineSwapRequest struct {
	Reason string `json:"reason"`
}

// Roles for listing a user's swap requests.
const (
	SwapRoleAll      = "all"
	SwapRoleIncoming = "incoming"
	SwapRoleOutgoing = "outgoing"
)

const (
	MaxSwapMessageLength = 300

	// DefaultSwapExpiry is how long a request stays actionable.
	DefaultSwapExpiry = 7 * 24 * time.Hour
)

var (
	// ErrSwapNotFound is returned when a swap request ID does not resolve
	ErrSwapNotFound = errors.New("swap request not found")

	// ErrInvalidSwapState is returned when a transition is attempted from the
	// wrong state, including when a concurrent caller won the transition
	ErrInvalidSwapState = errors.New("swap request is not in a valid state for this action")

	// ErrInsufficientPoints is returned when the requester's balance cannot
	// cover the points offered
	ErrInsufficientPoints = errors.New("insufficient points balance")

	// ErrNotSwapParticipant is returned when the caller is neither side of the swap
	ErrNotSwapParticipant = errors.New("not a participant in this swap")

	// ErrSelfSwap is returned when a user requests their own item
	ErrSelfSwap = errors.New("cannot request a swap on your own item")
)
