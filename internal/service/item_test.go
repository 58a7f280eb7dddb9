package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"rewear/internal/model"
)

func availableItem(owner string) *model.Item {
	return &model.Item{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       "Denim jacket",
		Description: "Barely worn",
		Category:    "outerwear",
		Size:        "M",
		Condition:   "Good",
		PointsValue: 40,
		Status:      model.ItemAvailable,
	}
}

// =============================================================================
// LIST / FILTER SANITIZATION
// =============================================================================

func TestItemService_List_FilterDefaults(t *testing.T) {
	tests := []struct {
		name       string
		filter     model.ItemFilter
		wantPage   int
		wantLimit  int
		wantSortBy string
		wantCat    string
	}{
		{
			name:       "zero values get defaults",
			filter:     model.ItemFilter{},
			wantPage:   1,
			wantLimit:  model.DefaultItemPageSize,
			wantSortBy: model.SortByCreatedAt,
		},
		{
			name:       "negative page falls back to 1",
			filter:     model.ItemFilter{Page: -3, Limit: 20},
			wantPage:   1,
			wantLimit:  20,
			wantSortBy: model.SortByCreatedAt,
		},
		{
			name:       "oversized limit is capped",
			filter:     model.ItemFilter{Page: 2, Limit: 500},
			wantPage:   2,
			wantLimit:  model.MaxItemPageSize,
			wantSortBy: model.SortByCreatedAt,
		},
		{
			name:       "unknown sort key falls back",
			filter:     model.ItemFilter{SortBy: "owner_id; DROP TABLE items"},
			wantPage:   1,
			wantLimit:  model.DefaultItemPageSize,
			wantSortBy: model.SortByCreatedAt,
		},
		{
			name:       "invalid category is cleared, not an error",
			filter:     model.ItemFilter{Category: "spaceships"},
			wantPage:   1,
			wantLimit:  model.DefaultItemPageSize,
			wantSortBy: model.SortByCreatedAt,
			wantCat:    "",
		},
		{
			name:       "valid category passes through",
			filter:     model.ItemFilter{Category: "dresses"},
			wantPage:   1,
			wantLimit:  model.DefaultItemPageSize,
			wantSortBy: model.SortByCreatedAt,
			wantCat:    "dresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.ItemFilter
			itemRepo := &mockItemRepository{
				listFn: func(ctx context.Context, filter model.ItemFilter) ([]model.Item, int, error) {
					got = filter
					return []model.Item{}, 0, nil
				},
			}
			svc := NewItemService(itemRepo, &mockUserRepository{}, &mockPublisher{}, &mockTrendingCache{})

			if _, err := svc.List(context.Background(), tt.filter); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", got.Page, tt.wantPage)
			}
			if got.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", got.Limit, tt.wantLimit)
			}
			if got.SortBy != tt.wantSortBy {
				t.Errorf("sort_by = %q, want %q", got.SortBy, tt.wantSortBy)
			}
			if got.Category != tt.wantCat {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCat)
			}
		})
	}
}

func TestItemService_List_Pagination(t *testing.T) {
	itemRepo := &mockItemRepository{
		listFn: func(ctx context.Context, filter model.ItemFilter) ([]model.Item, int, error) {
			return make([]model.Item, 12), 30, nil
		},
	}
	svc := NewItemService(itemRepo, &mockUserRepository{}, &mockPublisher{}, &mockTrendingCache{})

	resp, err := svc.List(context.Background(), model.ItemFilter{Page: 2, Limit: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := resp.Pagination
	if p.CurrentPage != 2 || p.TotalPages != 3 || p.TotalItems != 30 {
		t.Errorf("pagination = %+v, want page 2 of 3 with 30 items", p)
	}
	if !p.HasNext || !p.HasPrev {
		t.Errorf("page 2 of 3 should have both neighbors, got next=%v prev=%v", p.HasNext, p.HasPrev)
	}
}

// =============================================================================
// GET BY ID
// =============================================================================

func TestItemService_GetByID_CountsView(t *testing.T) {
	item := availableItem("user_owner")
	itemRepo := &mockItemRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Item, error) {
			cp := *item
			cp.Views = 7
			return &cp, nil
		},
	}
	userRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, clerkID string) (*model.User, error) {
			return &model.User{ClerkID: clerkID, Username: "owner"}, nil
		},
	}
	pub := &mockPublisher{}
	svc := NewItemService(itemRepo, userRepo, pub, &mockTrendingCache{})

	got, err := svc.GetByID(context.Background(), item.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(itemRepo.incrementViewsCalls) != 1 {
		t.Errorf("IncrementViews called %d times, want 1", len(itemRepo.incrementViewsCalls))
	}
	if got.Views != 8 {
		t.Errorf("views = %d, want 8 (stored 7 plus this read)", got.Views)
	}
	if got.Owner == nil || got.Owner.Username != "owner" {
		t.Errorf("owner summary not attached: %+v", got.Owner)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].ItemID != item.ID.String() {
		t.Errorf("event item = %q, want %q", pub.events[0].ItemID, item.ID)
	}
}

func TestItemService_GetByID_InvalidID(t *testing.T) {
	svc := NewItemService(&mockItemRepository{}, &mockUserRepository{}, &mockPublisher{}, &mockTrendingCache{})

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	if !errors.Is(err, model.ErrItemNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrItemNotFound)
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestItemService_Create_Validation(t *testing.T) {
	valid := model.CreateItemRequest{
		Title:       "Denim jacket",
		Description: "Barely worn",
		Category:    "outerwear",
		Size:        "M",
		Condition:   "Good",
		Type:        "jacket",
		Images:      []string{"https://media.example.com/items/1.jpg"},
		PointsValue: 40,
	}

	tests := []struct {
		name      string
		mutate    func(r *model.CreateItemRequest)
		wantField string
	}{
		{"missing title", func(r *model.CreateItemRequest) { r.Title = "  " }, "title"},
		{"title too long", func(r *model.CreateItemRequest) { r.Title = strings.Repeat("x", model.MaxItemTitleLength+1) }, "title"},
		{"missing description", func(r *model.CreateItemRequest) { r.Description = "" }, "description"},
		{"bad category", func(r *model.CreateItemRequest) { r.Category = "gadgets" }, "category"},
		{"bad size", func(r *model.CreateItemRequest) { r.Size = "XXXS" }, "size"},
		{"bad condition", func(r *model.CreateItemRequest) { r.Condition = "Trashed" }, "condition"},
		{"missing type", func(r *model.CreateItemRequest) { r.Type = "" }, "type"},
		{"points too low", func(r *model.CreateItemRequest) { r.PointsValue = 0 }, "points_value"},
		{"points too high", func(r *model.CreateItemRequest) { r.PointsValue = 1001 }, "points_value"},
		{"no images", func(r *model.CreateItemRequest) { r.Images = nil }, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemRepo := &mockItemRepository{}
			userRepo := &mockUserRepository{
				existsFn: func(ctx context.Context, clerkID string) (bool, error) { return true, nil },
			}
			svc := NewItemService(itemRepo, userRepo, &mockPublisher{}, &mockTrendingCache{})

			req := valid
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), "user_1", req)

			var vErr *model.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want validation error", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tt.wantField)
			}
			if len(itemRepo.createCalls) != 0 {
				t.Error("Create should not reach the repository on invalid input")
			}
		})
	}
}

func TestItemService_Create_UnknownOwner(t *testing.T) {
	userRepo := &mockUserRepository{
		existsFn: func(ctx context.Context, clerkID string) (bool, error) { return false, nil },
	}
	svc := NewItemService(&mockItemRepository{}, userRepo, &mockPublisher{}, &mockTrendingCache{})

	_, err := svc.Create(context.Background(), "user_ghost", model.CreateItemRequest{
		Title:       "Denim jacket",
		Description: "Barely worn",
		Category:    "outerwear",
		Size:        "M",
		Condition:   "Good",
		Type:        "jacket",
		Images:      []string{"https://media.example.com/items/1.jpg"},
		PointsValue: 40,
	})

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

// =============================================================================
// UPDATE / DELETE OWNERSHIP
// =============================================================================

func TestItemService_Update_NotOwner(t *testing.T) {
	item := availableItem("user_owner")
	itemRepo := &mockItemRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Item, error) { return item, nil },
	}
	svc := NewItemService(itemRepo, &mockUserRepository{}, &mockPublisher{}, &mockTrendingCache{})

	title := "New title"
	_, err := svc.Update(context.Background(), item.ID.String(), "user_other", model.UpdateItemRequest{Title: &title})

	if !errors.Is(err, model.ErrNotItemOwner) {
		t.Errorf("error = %v, want %v", err, model.ErrNotItemOwner)
	}
}

func TestItemService_Delete(t *testing.T) {
	item := availableItem("user_owner")

	tests := []struct {
		name        string
		caller      string
		markRemoved func(ctx context.Context, id uuid.UUID) (bool, error)
		wantErr     error
		wantEvents  int
	}{
		{
			name:        "owner removes available item",
			caller:      "user_owner",
			markRemoved: func(ctx context.Context, id uuid.UUID) (bool, error) { return true, nil },
			wantEvents:  1,
		},
		{
			name:    "non-owner is rejected",
			caller:  "user_other",
			wantErr: model.ErrNotItemOwner,
		},
		{
			name:        "item locked in a swap",
			caller:      "user_owner",
			markRemoved: func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil },
			wantErr:     model.ErrItemNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemRepo := &mockItemRepository{
				getByIDFn:     func(ctx context.Context, id uuid.UUID) (*model.Item, error) { return item, nil },
				markRemovedFn: tt.markRemoved,
			}
			pub := &mockPublisher{}
			svc := NewItemService(itemRepo, &mockUserRepository{}, pub, &mockTrendingCache{})

			err := svc.Delete(context.Background(), item.ID.String(), tt.caller)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(pub.events) != tt.wantEvents {
				t.Errorf("published %d events, want %d", len(pub.events), tt.wantEvents)
			}
		})
	}
}

// =============================================================================
// TRENDING
// =============================================================================

func TestItemService_Trending_FiltersStaleEntries(t *testing.T) {
	hot := availableItem("user_a")
	gone := availableItem("user_b")
	gone.Status = model.ItemSwapped
	cold := availableItem("user_c")

	trending := &mockTrendingCache{
		topIDs: []string{hot.ID.String(), gone.ID.String(), cold.ID.String()},
	}
	itemRepo := &mockItemRepository{
		getByIDsFn: func(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
			return []model.Item{*cold, *gone, *hot}, nil
		},
	}
	svc := NewItemService(itemRepo, &mockUserRepository{}, &mockPublisher{}, trending)

	items, err := svc.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (swapped item filtered out)", len(items))
	}
	// Cache order wins over the database's return order.
	if items[0].ID != hot.ID || items[1].ID != cold.ID {
		t.Errorf("order = [%s %s], want [%s %s]", items[0].ID, items[1].ID, hot.ID, cold.ID)
	}
}

func TestItemService_Trending_NoCache(t *testing.T) {
	svc := NewItemService(&mockItemRepository{}, &mockUserRepository{}, &mockPublisher{}, nil)

	items, err := svc.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want empty result without a cache", len(items))
	}
}
