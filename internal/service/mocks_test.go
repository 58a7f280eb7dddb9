package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rewear/internal/model"
	"rewear/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// The services depend on the repository INTERFACES, so unit tests swap in
// mocks with per-test behavior instead of hitting Postgres. Unset functions
// fall back to a "not found" or no-op default.

type mockUserRepository struct {
	upsertFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, clerkID string) (*model.User, error)
	existsFn        func(ctx context.Context, clerkID string) (bool, error)
	updateProfileFn func(ctx context.Context, clerkID string, req model.UpdateProfileRequest) (*model.User, error)

	upsertCalls []*model.User
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *model.User) error {
	m.upsertCalls = append(m.upsertCalls, user)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, clerkID string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, clerkID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Exists(ctx context.Context, clerkID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, clerkID)
	}
	return false, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, clerkID string, req model.UpdateProfileRequest) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, clerkID, req)
	}
	return nil, model.ErrUserNotFound
}

type mockItemRepository struct {
	createFn         func(ctx context.Context, item *model.Item) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Item, error)
	getByIDsFn       func(ctx context.Context, ids []uuid.UUID) ([]model.Item, error)
	listFn           func(ctx context.Context, filter model.ItemFilter) ([]model.Item, int, error)
	listByOwnerFn    func(ctx context.Context, ownerID string) ([]model.Item, error)
	updateFn         func(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.Item, error)
	incrementViewsFn func(ctx context.Context, id uuid.UUID) error
	markRemovedFn    func(ctx context.Context, id uuid.UUID) (bool, error)
	addLikeFn        func(ctx context.Context, id uuid.UUID, clerkID string) error
	removeLikeFn     func(ctx context.Context, id uuid.UUID, clerkID string) error
	countByOwnerFn   func(ctx context.Context, ownerID string) (int, int, error)

	createCalls         []*model.Item
	incrementViewsCalls []uuid.UUID
}

func (m *mockItemRepository) Create(ctx context.Context, item *model.Item) error {
	m.createCalls = append(m.createCalls, item)
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}

func (m *mockItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrItemNotFound
}

func (m *mockItemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockItemRepository) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockItemRepository) Update(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.Item, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, model.ErrItemNotFound
}

func (m *mockItemRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	m.incrementViewsCalls = append(m.incrementViewsCalls, id)
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return nil
}

func (m *mockItemRepository) MarkRemoved(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.markRemovedFn != nil {
		return m.markRemovedFn(ctx, id)
	}
	return false, nil
}

func (m *mockItemRepository) AddLike(ctx context.Context, id uuid.UUID, clerkID string) error {
	if m.addLikeFn != nil {
		return m.addLikeFn(ctx, id, clerkID)
	}
	return nil
}

func (m *mockItemRepository) RemoveLike(ctx context.Context, id uuid.UUID, clerkID string) error {
	if m.removeLikeFn != nil {
		return m.removeLikeFn(ctx, id, clerkID)
	}
	return nil
}

func (m *mockItemRepository) CountByOwner(ctx context.Context, ownerID string) (int, int, error) {
	if m.countByOwnerFn != nil {
		return m.countByOwnerFn(ctx, ownerID)
	}
	return 0, 0, nil
}

type mockSwapRepository struct {
	getByIDFn               func(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	listForUserFn           func(ctx context.Context, clerkID, role string, status *model.SwapStatus) ([]model.SwapRequest, error)
	listOverduePendingIDsFn func(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	countPendingInvolvingFn func(ctx context.Context, clerkID string) (int, error)
	createPendingFn         func(ctx context.Context, req *model.SwapRequest) error
	acceptFn                func(ctx context.Context, id uuid.UUID, now time.Time) error
	declineFn               func(ctx context.Context, id uuid.UUID, reason string) error
	cancelFn                func(ctx context.Context, id uuid.UUID) error
	completeFn              func(ctx context.Context, id uuid.UUID, now time.Time) error
	expireFn                func(ctx context.Context, id uuid.UUID) error

	createPendingCalls []*model.SwapRequest
	expireCalls        []uuid.UUID
	completeCalls      []uuid.UUID
}

func (m *mockSwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrSwapNotFound
}

func (m *mockSwapRepository) ListForUser(ctx context.Context, clerkID, role string, status *model.SwapStatus) ([]model.SwapRequest, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, clerkID, role, status)
	}
	return nil, nil
}

func (m *mockSwapRepository) ListOverduePendingIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if m.listOverduePendingIDsFn != nil {
		return m.listOverduePendingIDsFn(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockSwapRepository) CountPendingInvolving(ctx context.Context, clerkID string) (int, error) {
	if m.countPendingInvolvingFn != nil {
		return m.countPendingInvolvingFn(ctx, clerkID)
	}
	return 0, nil
}

func (m *mockSwapRepository) CreatePending(ctx context.Context, req *model.SwapRequest) error {
	m.createPendingCalls = append(m.createPendingCalls, req)
	if m.createPendingFn != nil {
		return m.createPendingFn(ctx, req)
	}
	return nil
}

func (m *mockSwapRepository) Accept(ctx context.Context, id uuid.UUID, now time.Time) error {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, id, now)
	}
	return nil
}

func (m *mockSwapRepository) Decline(ctx context.Context, id uuid.UUID, reason string) error {
	if m.declineFn != nil {
		return m.declineFn(ctx, id, reason)
	}
	return nil
}

func (m *mockSwapRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id)
	}
	return nil
}

func (m *mockSwapRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	m.completeCalls = append(m.completeCalls, id)
	if m.completeFn != nil {
		return m.completeFn(ctx, id, now)
	}
	return nil
}

func (m *mockSwapRepository) Expire(ctx context.Context, id uuid.UUID) error {
	m.expireCalls = append(m.expireCalls, id)
	if m.expireFn != nil {
		return m.expireFn(ctx, id)
	}
	return nil
}

// mockPublisher records published events.
type mockPublisher struct {
	events []queue.MarketplaceEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.MarketplaceEvent) (string, error) {
	m.events = append(m.events, event)
	return "0-0", nil
}

// mockTrendingCache returns a fixed ranking.
type mockTrendingCache struct {
	topIDs    []string
	recorded  []string
	removed   []string
	topErr    error
	recordErr error
	removeErr error
}

func (m *mockTrendingCache) RecordView(ctx context.Context, itemID string) error {
	m.recorded = append(m.recorded, itemID)
	return m.recordErr
}

func (m *mockTrendingCache) Remove(ctx context.Context, itemID string) error {
	m.removed = append(m.removed, itemID)
	return m.removeErr
}

func (m *mockTrendingCache) Top(ctx context.Context, limit int) ([]string, error) {
	if m.topErr != nil {
		return nil, m.topErr
	}
	if limit < len(m.topIDs) {
		return m.topIDs[:limit], nil
	}
	return m.topIDs, nil
}
