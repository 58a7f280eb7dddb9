package model

import "errors"

const (
	MaxAvatarSizeBytes = 5 * 1024 * 1024
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"
	AvatarCacheControl = "public, max-age=31536000" // 1 year

	// MaxItemImageSize caps a single listing photo upload.
	MaxItemImageSize = 10 * 1024 * 1024
	ItemImageFolder  = "items"
	MaxItemImages    = 8
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeWebP: {},
}

// IsAllowedImageType reports whether the content type may be uploaded.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult is the stored object's public URL plus its bucket key
// (kept for later deletes).
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignItemUploadRequest asks for a presigned PUT URL so the client can
// upload a listing photo directly to the media bucket before creating the
// item. The returned PublicURL goes into CreateItemRequest.Images.
type PresignItemUploadRequest struct {
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"` // optional, validated when > 0
}

// PresignItemUploadResponse returns upload details for a direct-to-bucket upload.
type PresignItemUploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"` // seconds
}
