package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rewear/internal/model"
	"rewear/internal/queue"
	"rewear/internal/repository"
)

// SwapService owns the swap-request lifecycle. Every status change goes
// through one of the transition methods here; nothing else mutates a swap
// request or flips an item between available/pending/swapped.
type SwapService struct {
	swapRepo  repository.SwapRepository
	itemRepo  repository.ItemRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
	expiry    time.Duration
}

func NewSwapService(
	swapRepo repository.SwapRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	expiry time.Duration,
) *SwapService {
	if expiry <= 0 {
		expiry = model.DefaultSwapExpiry
	}
	return &SwapService{
		swapRepo:  swapRepo,
		itemRepo:  itemRepo,
		userRepo:  userRepo,
		publisher: publisher,
		expiry:    expiry,
	}
}

// Create opens a pending swap request against an available item. The item
// locks (available -> pending) happen inside the repository transaction, so
// a concurrent request for the same item fails with ErrItemNotAvailable and
// leaves no request behind.
func (s *SwapService) Create(ctx context.Context, requesterID string, req model.CreateSwapRequest) (*model.SwapRequest, error) {
	requestedItemID, err := uuid.Parse(req.RequestedItemID)
	if err != nil {
		return nil, model.NewValidationError("requested_item_id", "invalid item id")
	}

	swapType := model.SwapType(req.SwapType)
	if swapType != model.SwapTypeDirect && swapType != model.SwapTypePoints {
		return nil, model.NewValidationError("swap_type", "swap type must be direct or points")
	}

	if req.Message != nil && len(*req.Message) > model.MaxSwapMessageLength {
		return nil, model.NewValidationError("message",
			fmt.Sprintf("message must be at most %d characters", model.MaxSwapMessageLength))
	}

	item, err := s.itemRepo.GetByID(ctx, requestedItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == requesterID {
		return nil, model.ErrSelfSwap
	}
	if item.Status != model.ItemAvailable {
		return nil, model.ErrItemNotAvailable
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	swap := &model.SwapRequest{
		RequesterID:     requesterID,
		OwnerID:         item.OwnerID,
		RequestedItemID: requestedItemID,
		SwapType:        swapType,
		Message:         req.Message,
		ExpiresAt:       time.Now().Add(s.expiry),
	}

	switch swapType {
	case model.SwapTypeDirect:
		if req.PointsOffered != nil {
			return nil, model.NewValidationError("points_offered", "direct swaps do not carry points")
		}
		if req.OfferedItemID == nil {
			return nil, model.NewValidationError("offered_item_id", "direct swaps require an offered item")
		}
		offeredItemID, err := uuid.Parse(*req.OfferedItemID)
		if err != nil {
			return nil, model.NewValidationError("offered_item_id", "invalid item id")
		}
		offered, err := s.itemRepo.GetByID(ctx, offeredItemID)
		if err != nil {
			return nil, err
		}
		if offered.OwnerID != requesterID {
			return nil, model.ErrNotItemOwner
		}
		if offered.Status != model.ItemAvailable {
			return nil, model.ErrItemNotAvailable
		}
		swap.OfferedItemID = &offeredItemID

	case model.SwapTypePoints:
		if req.OfferedItemID != nil {
			return nil, model.NewValidationError("offered_item_id", "points swaps do not carry an offered item")
		}
		if req.PointsOffered == nil || *req.PointsOffered < 1 {
			return nil, model.NewValidationError("points_offered", "points swaps require a positive points offer")
		}
		if *req.PointsOffered > requester.PointsBalance {
			return nil, model.ErrInsufficientPoints
		}
		swap.PointsOffered = req.PointsOffered
	}

	if err := s.swapRepo.CreatePending(ctx, swap); err != nil {
		return nil, err
	}

	s.publishUnlisted(ctx, swap.RequestedItemID.String(), requesterID)
	if swap.OfferedItemID != nil {
		s.publishUnlisted(ctx, swap.OfferedItemID.String(), requesterID)
	}

	s.hydrate(ctx, swap)
	return swap, nil
}

// GetByID returns a swap request to one of its participants, applying lazy
// expiry first.
func (s *SwapService) GetByID(ctx context.Context, id, callerID string) (*model.SwapRequest, error) {
	swap, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.RequesterID != callerID && swap.OwnerID != callerID {
		return nil, model.ErrNotSwapParticipant
	}

	s.hydrate(ctx, swap)
	return swap, nil
}

// ListForUser returns the caller's swap requests filtered by role and
// optionally status, newest first. Invalid role/status values fall back to
// no filter.
func (s *SwapService) ListForUser(ctx context.Context, callerID, role, status string) ([]model.SwapRequest, error) {
	switch role {
	case model.SwapRoleIncoming, model.SwapRoleOutgoing:
	default:
		role = model.SwapRoleAll
	}

	var statusFilter *model.SwapStatus
	switch st := model.SwapStatus(status); st {
	case model.SwapPending, model.SwapAccepted, model.SwapDeclined,
		model.SwapCancelled, model.SwapCompleted, model.SwapExpired:
		statusFilter = &st
	}

	swaps, err := s.swapRepo.ListForUser(ctx, callerID, role, statusFilter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range swaps {
		// Lazy expiry on list reads: show the truth without waiting for the
		// sweeper. Losing the transition race to another reader is fine.
		if swaps[i].IsOverdue(now) {
			if err := s.swapRepo.Expire(ctx, swaps[i].ID); err != nil && !errors.Is(err, model.ErrInvalidSwapState) {
				log.Printf("[SwapService] Lazy expire failed: swap=%s err=%v", swaps[i].ID, err)
			} else {
				swaps[i].Status = model.SwapExpired
			}
		}
		s.hydrate(ctx, &swaps[i])
	}

	return swaps, nil
}

// Accept moves pending -> accepted. Owner-only. Does not yet settle the
// swap; points and items move on Complete.
func (s *SwapService) Accept(ctx context.Context, id, callerID string) (*model.SwapRequest, error) {
	swap, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.OwnerID != callerID {
		return nil, model.ErrNotSwapParticipant
	}

	if err := s.swapRepo.Accept(ctx, swap.ID, time.Now()); err != nil {
		return nil, err
	}

	return s.reload(ctx, swap.ID)
}

// Decline moves pending -> declined. Owner-only; a reason is mandatory and
// the request stays pending without one.
func (s *SwapService) Decline(ctx context.Context, id, callerID, reason string) (*model.SwapRequest, error) {
	if reason == "" {
		return nil, model.NewValidationError("reason", "a decline reason is required")
	}

	swap, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.OwnerID != callerID {
		return nil, model.ErrNotSwapParticipant
	}

	if err := s.swapRepo.Decline(ctx, swap.ID, reason); err != nil {
		return nil, err
	}

	return s.reload(ctx, swap.ID)
}

// Cancel moves pending -> cancelled. Requester-only.
func (s *SwapService) Cancel(ctx context.Context, id, callerID string) (*model.SwapRequest, error) {
	swap, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.RequesterID != callerID {
		return nil, model.ErrNotSwapParticipant
	}

	if err := s.swapRepo.Cancel(ctx, swap.ID); err != nil {
		return nil, err
	}

	return s.reload(ctx, swap.ID)
}

// Complete settles an accepted swap: items flip to swapped, points move for
// points swaps, both parties' counters increment. Either participant may
// trigger it. A retry after success fails with ErrInvalidSwapState and
// changes nothing.
func (s *SwapService) Complete(ctx context.Context, id, callerID string) (*model.SwapRequest, error) {
	swap, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.RequesterID != callerID && swap.OwnerID != callerID {
		return nil, model.ErrNotSwapParticipant
	}

	if err := s.swapRepo.Complete(ctx, swap.ID, time.Now()); err != nil {
		return nil, err
	}

	offered := ""
	if swap.OfferedItemID != nil {
		offered = swap.OfferedItemID.String()
	}
	event := queue.NewSwapCompletedEvent(swap.ID.String(), swap.RequestedItemID.String(), offered)
	if _, err := s.publisher.Publish(ctx, queue.StreamMarketplace, event); err != nil {
		log.Printf("[SwapService] Failed to publish swap_completed: swap=%s err=%v", swap.ID, err)
	}

	return s.reload(ctx, swap.ID)
}

// ExpireOverdue expires up to limit overdue pending requests. Called by the
// periodic sweeper; the same transition also runs lazily on reads.
func (s *SwapService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	ids, err := s.swapRepo.ListOverduePendingIDs(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		err := s.swapRepo.Expire(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrInvalidSwapState) {
				continue // someone else transitioned it first
			}
			return expired, fmt.Errorf("expire swap %s: %w", id, err)
		}
		expired++
	}

	return expired, nil
}

// loadFresh fetches a swap request and applies lazy expiry before the caller
// acts on it, so no transition ever proceeds from a stale pending state.
func (s *SwapService) loadFresh(ctx context.Context, id string) (*model.SwapRequest, error) {
	swapID, err := uuid.Parse(id)
	if err != nil {
		return nil, model.ErrSwapNotFound
	}

	swap, err := s.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if swap.IsOverdue(time.Now()) {
		if err := s.swapRepo.Expire(ctx, swap.ID); err != nil && !errors.Is(err, model.ErrInvalidSwapState) {
			return nil, fmt.Errorf("expire overdue swap: %w", err)
		}
		swap.Status = model.SwapExpired
	}

	return swap, nil
}

// reload re-reads and hydrates a swap after a transition.
func (s *SwapService) reload(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	swap, err := s.swapRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hydrate(ctx, swap)
	return swap, nil
}

// hydrate attaches item and participant projections. Best effort: a failed
// lookup leaves the reference ID in place.
func (s *SwapService) hydrate(ctx context.Context, swap *model.SwapRequest) {
	ids := []uuid.UUID{swap.RequestedItemID}
	if swap.OfferedItemID != nil {
		ids = append(ids, *swap.OfferedItemID)
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[SwapService] Failed to hydrate items: swap=%s err=%v", swap.ID, err)
	} else {
		for i := range items {
			item := items[i]
			if item.ID == swap.RequestedItemID {
				swap.RequestedItem = &item
			} else if swap.OfferedItemID != nil && item.ID == *swap.OfferedItemID {
				swap.OfferedItem = &item
			}
		}
	}

	if requester, err := s.userRepo.GetByID(ctx, swap.RequesterID); err == nil {
		swap.Requester = requester.Summary()
	}
	if owner, err := s.userRepo.GetByID(ctx, swap.OwnerID); err == nil {
		swap.Owner = owner.Summary()
	}
}

func (s *SwapService) publishUnlisted(ctx context.Context, itemID, actorID string) {
	if _, err := s.publisher.Publish(ctx, queue.StreamMarketplace, queue.NewItemUnlistedEvent(itemID, actorID)); err != nil {
		log.Printf("[SwapService] Failed to publish item_unlisted: item=%s err=%v", itemID, err)
	}
}
