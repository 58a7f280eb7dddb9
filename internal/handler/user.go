package handler

import (
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

type UserHandler struct {
	userService  *service.UserService
	itemService  *service.ItemService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, itemService *service.ItemService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		itemService:  itemService,
		mediaService: mediaService,
	}
}

// Sync handles POST /users/sync
// Creates or refreshes the local record for the authenticated identity.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SyncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Sync(r.Context(), userID, req)
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			httputil.WriteValidationError(w, vErr.Field, vErr.Message)
			return
		}
		log.Printf("[ERROR] Sync user handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to sync user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetProfile handles GET /users/:id
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	user, err := h.userService.GetProfile(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Get profile handler: user=%s err=%v", targetID, err)
		httputil.WriteInternalError(w, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/:id
// Only the profile owner may edit it.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID := chi.URLParam(r, "id")

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), targetID, userID, req)
	if err != nil {
		var vErr *model.ValidationError
		switch {
		case errors.As(err, &vErr):
			httputil.WriteValidationError(w, vErr.Field, vErr.Message)
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrNotProfileOwner):
			httputil.WriteForbidden(w, "You can only edit your own profile")
		default:
			log.Printf("[ERROR] Update profile handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetStats handles GET /users/:id/stats
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	stats, err := h.userService.GetStats(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Get stats handler: user=%s err=%v", targetID, err)
		httputil.WriteInternalError(w, "Failed to get stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// GetItems handles GET /users/:id/items
// Lists every non-removed listing owned by the user.
func (h *UserHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	items, err := h.itemService.ListByOwner(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Get user items handler: user=%s err=%v", targetID, err)
		httputil.WriteInternalError(w, "Failed to get user items")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// UploadAvatar handles POST /users/me/avatar
// Accepts a multipart image, normalizes it and stores the public URL.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(model.MaxAvatarSizeBytes); err != nil {
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar upload too large")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Missing avatar file")
		return
	}
	defer file.Close()

	result, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar must be 5MB or less")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Avatar must be a JPEG, PNG or WebP image")
		default:
			log.Printf("[ERROR] Upload avatar handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	avatarURL := result.URL
	user, err := h.userService.UpdateProfile(r.Context(), userID, userID, model.UpdateProfileRequest{AvatarURL: &avatarURL})
	if err != nil {
		log.Printf("[ERROR] Upload avatar handler: persist user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to save avatar")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
