package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rewear/internal/model"
)

type UserRepository interface {
	// Upsert creates the user on first sync and updates identity fields on
	// later syncs. Points, rating and swap counters are never touched here.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, clerkID string) (*model.User, error)
	Exists(ctx context.Context, clerkID string) (bool, error)
	UpdateProfile(ctx context.Context, clerkID string, req model.UpdateProfileRequest) (*model.User, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error)
	// List returns one page of available items matching the filter plus the
	// total match count for pagination.
	List(ctx context.Context, filter model.ItemFilter) ([]model.Item, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.Item, error)
	// IncrementViews bumps the view counter by one. Lost increments under
	// concurrent load are acceptable; the counter is approximate.
	IncrementViews(ctx context.Context, id uuid.UUID) error
	// MarkRemoved takes a listing down. Conditional on status=available;
	// returns false when the item was not available.
	MarkRemoved(ctx context.Context, id uuid.UUID) (bool, error)
	AddLike(ctx context.Context, id uuid.UUID, clerkID string) error
	RemoveLike(ctx context.Context, id uuid.UUID, clerkID string) error
	// CountByOwner returns (all non-removed, currently available) counts.
	CountByOwner(ctx context.Context, ownerID string) (listed int, available int, err error)
}

// SwapRepository owns every status transition. Each transition method runs
// its conditional compare-and-set updates and the coupled item/points
// mutations inside a single transaction, so a request can never end up
// accepted while its item is still available (or vice versa). Callers map
// model.ErrInvalidSwapState to a 409.
type SwapRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	// ListForUser returns requests where the user is requester (outgoing),
	// item owner (incoming) or either (all), newest first.
	ListForUser(ctx context.Context, clerkID, role string, status *model.SwapStatus) ([]model.SwapRequest, error)
	ListOverduePendingIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	CountPendingInvolving(ctx context.Context, clerkID string) (int, error)

	// CreatePending inserts the request and moves the target item (and the
	// offered item for direct swaps) available -> pending.
	CreatePending(ctx context.Context, req *model.SwapRequest) error
	// Accept flips pending -> accepted, refusing requests past their expiry.
	Accept(ctx context.Context, id uuid.UUID, now time.Time) error
	// Decline flips pending -> declined recording the reason and reverts the
	// involved items to available.
	Decline(ctx context.Context, id uuid.UUID, reason string) error
	// Cancel flips pending -> cancelled and reverts the involved items.
	Cancel(ctx context.Context, id uuid.UUID) error
	// Complete flips accepted -> completed, marks the involved items swapped,
	// transfers points for points swaps and increments both parties'
	// total_swaps. The status flip is the idempotency guard: a retry after
	// success performs no further mutation.
	Complete(ctx context.Context, id uuid.UUID, now time.Time) error
	// Expire flips pending -> expired and reverts the involved items.
	Expire(ctx context.Context, id uuid.UUID) error
}
