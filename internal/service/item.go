package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"rewear/internal/cache"
	"rewear/internal/model"
	"rewear/internal/queue"
	"rewear/internal/repository"
)

// ItemService handles the listing catalog: browse queries, CRUD and the
// view counter.
type ItemService struct {
	itemRepo  repository.ItemRepository
	userRepo  repository.UserRepository
	publisher queue.Publisher
	trending  cache.TrendingCache
}

func NewItemService(
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	publisher queue.Publisher,
	trending cache.TrendingCache,
) *ItemService {
	return &ItemService{
		itemRepo:  itemRepo,
		userRepo:  userRepo,
		publisher: publisher,
		trending:  trending,
	}
}

// List runs the browse query. Filter values are sanitized here: anything
// invalid falls back to its default instead of failing the request.
func (s *ItemService) List(ctx context.Context, filter model.ItemFilter) (*model.ItemListResponse, error) {
	filter = sanitizeFilter(filter)

	items, total, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	return &model.ItemListResponse{
		Items: items,
		Pagination: model.Pagination{
			CurrentPage: filter.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       filter.Limit,
			HasNext:     filter.Page < totalPages,
			HasPrev:     filter.Page > 1,
		},
	}, nil
}

// sanitizeFilter normalizes browse parameters, failing closed to defaults.
func sanitizeFilter(f model.ItemFilter) model.ItemFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = model.DefaultItemPageSize
	}
	if f.Limit > model.MaxItemPageSize {
		f.Limit = model.MaxItemPageSize
	}
	if !model.IsValidSortKey(f.SortBy) {
		f.SortBy = model.SortByCreatedAt
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
	if f.Category != "" && !model.IsValidCategory(f.Category) {
		f.Category = ""
	}
	if f.Size != "" && !model.IsValidSize(f.Size) {
		f.Size = ""
	}
	if f.Condition != "" && !model.IsValidCondition(f.Condition) {
		f.Condition = ""
	}
	if f.MinPoints != nil && *f.MinPoints < 0 {
		f.MinPoints = nil
	}
	if f.MaxPoints != nil && *f.MaxPoints < 0 {
		f.MaxPoints = nil
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// GetByID returns one item with its owner's public projection. Every call
// counts as a view; repeat views are not de-duplicated.
func (s *ItemService) GetByID(ctx context.Context, id string) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, model.ErrItemNotFound
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.IncrementViews(ctx, itemID); err != nil {
		// The fetch already succeeded; a lost view increment is tolerable.
		log.Printf("[ItemService] Failed to increment views: item=%s err=%v", id, err)
	} else {
		item.Views++
	}

	if owner, err := s.userRepo.GetByID(ctx, item.OwnerID); err == nil {
		item.Owner = owner.Summary()
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamMarketplace, queue.NewItemViewedEvent(id)); err != nil {
		log.Printf("[ItemService] Failed to publish item_viewed: item=%s err=%v", id, err)
	}

	return item, nil
}

// Create validates the full payload server-side and persists the listing
// with status=available and zero views.
func (s *ItemService) Create(ctx context.Context, ownerID string, req model.CreateItemRequest) (*model.Item, error) {
	if err := validateItemPayload(&req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	item := &model.Item{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Size:        req.Size,
		Condition:   req.Condition,
		Type:        strings.TrimSpace(req.Type),
		Brand:       req.Brand,
		Color:       req.Color,
		Tags:        req.Tags,
		Images:      req.Images,
		PointsValue: req.PointsValue,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	return item, nil
}

// Update edits a listing. Owner-only, and only while the listing is still
// available.
func (s *ItemService) Update(ctx context.Context, id, callerID string, req model.UpdateItemRequest) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, model.ErrItemNotFound
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != callerID {
		return nil, model.ErrNotItemOwner
	}

	if err := validateItemUpdate(&req); err != nil {
		return nil, err
	}

	return s.itemRepo.Update(ctx, itemID, req)
}

// Delete takes a listing down. Owner-only; refuses listings locked in a swap.
func (s *ItemService) Delete(ctx context.Context, id, callerID string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return model.ErrItemNotFound
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != callerID {
		return model.ErrNotItemOwner
	}

	removed, err := s.itemRepo.MarkRemoved(ctx, itemID)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if !removed {
		return model.ErrItemNotAvailable
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamMarketplace, queue.NewItemUnlistedEvent(id, callerID)); err != nil {
		log.Printf("[ItemService] Failed to publish item_unlisted: item=%s err=%v", id, err)
	}

	return nil
}

// ListByOwner returns a user's listings for their dashboard.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	return s.itemRepo.ListByOwner(ctx, ownerID)
}

// Like records callerID in the item's like set. Idempotent.
func (s *ItemService) Like(ctx context.Context, id, callerID string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return model.ErrItemNotFound
	}
	return s.itemRepo.AddLike(ctx, itemID, callerID)
}

// Unlike removes callerID from the item's like set.
func (s *ItemService) Unlike(ctx context.Context, id, callerID string) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return model.ErrItemNotFound
	}
	return s.itemRepo.RemoveLike(ctx, itemID, callerID)
}

// Trending returns the most-viewed items still available, in cache order.
// The cache can hold stale IDs (just-swapped or removed items), so results
// are re-filtered against the database.
func (s *ItemService) Trending(ctx context.Context, limit int) ([]model.Item, error) {
	if limit < 1 || limit > model.MaxItemPageSize {
		limit = model.DefaultItemPageSize
	}

	// No cache, no trending. Happens when Redis is not configured.
	if s.trending == nil {
		return []model.Item{}, nil
	}

	// Over-fetch to survive stale entries being filtered out.
	rawIDs, err := s.trending.Top(ctx, limit*2)
	if err != nil {
		return nil, fmt.Errorf("read trending: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate trending: %w", err)
	}

	byID := make(map[uuid.UUID]model.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	result := make([]model.Item, 0, limit)
	for _, id := range ids {
		item, ok := byID[id]
		if !ok || item.Status != model.ItemAvailable {
			continue
		}
		result = append(result, item)
		if len(result) == limit {
			break
		}
	}

	return result, nil
}

// validateItemPayload checks every required field independent of any client
// validation, naming the first offending field.
func validateItemPayload(req *model.CreateItemRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.NewValidationError("title", "title is required")
	}
	if len(title) > model.MaxItemTitleLength {
		return model.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", model.MaxItemTitleLength))
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return model.NewValidationError("description", "description is required")
	}
	if len(description) > model.MaxItemDescriptionLength {
		return model.NewValidationError("description", fmt.Sprintf("description must be at most %d characters", model.MaxItemDescriptionLength))
	}

	if !model.IsValidCategory(req.Category) {
		return model.NewValidationError("category", "unknown category")
	}
	if !model.IsValidSize(req.Size) {
		return model.NewValidationError("size", "unknown size")
	}
	if !model.IsValidCondition(req.Condition) {
		return model.NewValidationError("condition", "unknown condition")
	}
	if strings.TrimSpace(req.Type) == "" {
		return model.NewValidationError("type", "type is required")
	}
	if req.PointsValue < model.MinItemPointsValue || req.PointsValue > model.MaxItemPointsValue {
		return model.NewValidationError("points_value",
			fmt.Sprintf("points value must be between %d and %d", model.MinItemPointsValue, model.MaxItemPointsValue))
	}
	if len(req.Images) == 0 {
		return model.NewValidationError("images", "at least one image is required")
	}
	for _, img := range req.Images {
		if strings.TrimSpace(img) == "" {
			return model.NewValidationError("images", "image URLs must not be empty")
		}
	}

	return nil
}

// validateItemUpdate checks only the fields present in a partial update.
func validateItemUpdate(req *model.UpdateItemRequest) error {
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" || len(t) > model.MaxItemTitleLength {
			return model.NewValidationError("title", fmt.Sprintf("title must be 1-%d characters", model.MaxItemTitleLength))
		}
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" || len(d) > model.MaxItemDescriptionLength {
			return model.NewValidationError("description", fmt.Sprintf("description must be 1-%d characters", model.MaxItemDescriptionLength))
		}
	}
	if req.Category != nil && !model.IsValidCategory(*req.Category) {
		return model.NewValidationError("category", "unknown category")
	}
	if req.Size != nil && !model.IsValidSize(*req.Size) {
		return model.NewValidationError("size", "unknown size")
	}
	if req.Condition != nil && !model.IsValidCondition(*req.Condition) {
		return model.NewValidationError("condition", "unknown condition")
	}
	if req.Type != nil && strings.TrimSpace(*req.Type) == "" {
		return model.NewValidationError("type", "type must not be empty")
	}
	if req.PointsValue != nil &&
		(*req.PointsValue < model.MinItemPointsValue || *req.PointsValue > model.MaxItemPointsValue) {
		return model.NewValidationError("points_value",
			fmt.Sprintf("points value must be between %d and %d", model.MinItemPointsValue, model.MaxItemPointsValue))
	}
	if req.Images != nil && len(req.Images) == 0 {
		return model.NewValidationError("images", "at least one image is required")
	}

	return nil
}
