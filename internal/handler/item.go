package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rewear/internal/httputil"
	"rewear/internal/model"
	"rewear/internal/service"
	"rewear/internal/transport/http/middleware"
)

type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// List handles GET /items
// Returns the browse page: available listings, filtered and paginated.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ItemFilter{
		Category:  q.Get("category"),
		Size:      q.Get("size"),
		Condition: q.Get("condition"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("min_points")); err == nil {
		filter.MinPoints = &v
	}
	if v, err := strconv.Atoi(q.Get("max_points")); err == nil {
		filter.MaxPoints = &v
	}

	resp, err := h.itemService.List(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] List items handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to list items")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Trending handles GET /items/trending
// Returns the most-viewed available listings.
func (h *ItemHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.itemService.Trending(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Trending items handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get trending items")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// GetByID handles GET /items/:id
// Returns a single listing and records the view.
func (h *ItemHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	item, err := h.itemService.GetByID(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			httputil.WriteNotFound(w, "Item not found")
			return
		}
		log.Printf("[ERROR] Get item handler: item=%s err=%v", itemID, err)
		httputil.WriteInternalError(w, "Failed to get item")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, item)
}

// Create handles POST /items
// Creates a listing owned by the authenticated user.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	item, err := h.itemService.Create(r.Context(), userID, req)
	if err != nil {
		var vErr *model.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteValidationError(w, vErr.Field, vErr.Message)
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found, sync your account first")
		default:
			log.Printf("[ERROR] Create item handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create item")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, item)
}

// Update handles PUT /items/:id
// Edits a listing (owner only, available listings only).
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	itemID := chi.URLParam(r, "id")

	var req model.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	item, err := h.itemService.Update(r.Context(), itemID, userID, req)
	if err != nil {
		var vErr *model.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteValidationError(w, vErr.Field, vErr.Message)
		case errors.Is(err, model.ErrItemNotFound):
			httputil.WriteNotFound(w, "Item not found")
		case errors.Is(err, model.ErrNotItemOwner):
			httputil.WriteForbidden(w, "You can only edit your own items")
		case errors.Is(err, model.ErrItemNotAvailable):
			httputil.WriteConflict(w, "Item is not available for editing")
		default:
			log.Printf("[ERROR] Update item handler: user=%s item=%s err=%v", userID, itemID, err)
			httputil.WriteInternalError(w, "Failed to update item")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /items/:id
// Removes a listing from the catalog (owner only).
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	itemID := chi.URLParam(r, "id")

	err := h.itemService.Delete(r.Context(), itemID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrItemNotFound):
			httputil.WriteNotFound(w, "Item not found")
		case errors.Is(err, model.ErrNotItemOwner):
			httputil.WriteForbidden(w, "You can only remove your own items")
		case errors.Is(err, model.ErrItemNotAvailable):
			httputil.WriteConflict(w, "Item is part of an active swap")
		default:
			log.Printf("[ERROR] Delete item handler: user=%s item=%s err=%v", userID, itemID, err)
			httputil.WriteInternalError(w, "Failed to delete item")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

// Like handles POST /items/:id/like
func (h *ItemHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.itemService.Like, "like")
}

// Unlike handles DELETE /items/:id/like
func (h *ItemHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.itemService.Unlike, "unlike")
}

func (h *ItemHandler) toggleLike(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, callerID string) error, action string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	itemID := chi.URLParam(r, "id")

	if err := fn(r.Context(), itemID, userID); err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			httputil.WriteNotFound(w, "Item not found")
			return
		}
		log.Printf("[ERROR] %s item handler: user=%s item=%s err=%v", action, userID, itemID, err)
		httputil.WriteInternalError(w, "Failed to update like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}
