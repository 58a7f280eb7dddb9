package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rewear/internal/httputil"
	"rewear/internal/model"
	"rewear/internal/service"
	"rewear/internal/transport/http/middleware"
)

type SwapHandler struct {
	swapService *service.SwapService
}

func NewSwapHandler(swapService *service.SwapService) *SwapHandler {
	return &SwapHandler{
		swapService: swapService,
	}
}

// Create handles POST /swaps
// Opens a pending swap request and reserves the involved items.
func (h *SwapHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	swap, err := h.swapService.Create(r.Context(), userID, req)
	if err != nil {
		var vErr *model.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteValidationError(w, vErr.Field, vErr.Message)
		case errors.Is(err, model.ErrItemNotFound):
			httputil.WriteNotFound(w, "Item not found")
		case errors.Is(err, model.ErrItemNotAvailable):
			httputil.WriteConflict(w, "Item is no longer available")
		case errors.Is(err, model.ErrSelfSwap):
			httputil.WriteBadRequest(w, "You cannot request your own item")
		case errors.Is(err, model.ErrNotItemOwner):
			httputil.WriteForbidden(w, "Offered item must be one of your own")
		case errors.Is(err, model.ErrInsufficientPoints):
			httputil.WriteConflict(w, "Insufficient points balance")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found, sync your account first")
		default:
			log.Printf("[ERROR] Create swap handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create swap request")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, swap)
}

// List handles GET /swaps
// Lists the caller's swap requests, filtered by role and status.
func (h *SwapHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	q := r.URL.Query()
	swaps, err := h.swapService.ListForUser(r.Context(), userID, q.Get("role"), q.Get("status"))
	if err != nil {
		log.Printf("[ERROR] List swaps handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list swap requests")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"swaps": swaps})
}

// GetByID handles GET /swaps/:id
// Participants only.
func (h *SwapHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	swapID := chi.URLParam(r, "id")

	swap, err := h.swapService.GetByID(r.Context(), swapID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSwapNotFound):
			httputil.WriteNotFound(w, "Swap request not found")
		case errors.Is(err, model.ErrNotSwapParticipant):
			httputil.WriteForbidden(w, "You are not part of this swap")
		default:
			log.Printf("[ERROR] Get swap handler: user=%s swap=%s err=%v", userID, swapID, err)
			httputil.WriteInternalError(w, "Failed to get swap request")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, swap)
}

// Accept handles POST /swaps/:id/accept
func (h *SwapHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept", func(ctx context.Context, swapID, userID string) (*model.SwapRequest, error) {
		return h.swapService.Accept(ctx, swapID, userID)
	})
}

// Decline handles POST /swaps/:id/decline
// Requires a reason in the body.
func (h *SwapHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	swapID := chi.URLParam(r, "id")

	var req model.DeclineSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	swap, err := h.swapService.Decline(r.Context(), swapID, userID, req.Reason)
	if err != nil {
		h.writeTransitionError(w, "decline", userID, swapID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, swap)
}

// Cancel handles POST /swaps/:id/cancel
func (h *SwapHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", func(ctx context.Context, swapID, userID string) (*model.SwapRequest, error) {
		return h.swapService.Cancel(ctx, swapID, userID)
	})
}

// Complete handles POST /swaps/:id/complete
// Settles points and marks both items swapped.
func (h *SwapHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete", func(ctx context.Context, swapID, userID string) (*model.SwapRequest, error) {
		return h.swapService.Complete(ctx, swapID, userID)
	})
}

func (h *SwapHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, swapID, userID string) (*model.SwapRequest, error)) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	swapID := chi.URLParam(r, "id")

	swap, err := fn(r.Context(), swapID, userID)
	if err != nil {
		h.writeTransitionError(w, action, userID, swapID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, swap)
}

func (h *SwapHandler) writeTransitionError(w http.ResponseWriter, action, userID, swapID string, err error) {
	var vErr *model.ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.WriteValidationError(w, vErr.Field, vErr.Message)
	case errors.Is(err, model.ErrSwapNotFound):
		httputil.WriteNotFound(w, "Swap request not found")
	case errors.Is(err, model.ErrNotSwapParticipant):
		httputil.WriteForbidden(w, "You are not allowed to "+action+" this swap")
	case errors.Is(err, model.ErrInvalidSwapState):
		httputil.WriteConflict(w, "Swap request is not in a state that allows "+action)
	case errors.Is(err, model.ErrInsufficientPoints):
		httputil.WriteConflict(w, "Requester no longer has enough points")
	default:
		log.Printf("[ERROR] %s swap handler: user=%s swap=%s err=%v", action, userID, swapID, err)
		httputil.WriteInternalError(w, "Failed to "+action+" swap request")
	}
}
