package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"rewear/internal/httputil"
	"rewear/internal/model"
	"rewear/internal/service"
	"rewear/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// PresignItemUpload handles POST /media/items/presign
// Returns a short-lived URL the client PUTs a listing photo to.
func (h *MediaHandler) PresignItemUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.PresignItemUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.FileSize > model.MaxItemImageSize {
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Item photos must be 10MB or less")
		return
	}

	resp, err := h.mediaService.PresignItemUpload(r.Context(), req.ContentType)
	if err != nil {
		if errors.Is(err, model.ErrInvalidImageType) {
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Item photos must be JPEG, PNG or WebP")
			return
		}
		log.Printf("[ERROR] Presign item upload handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to create upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
