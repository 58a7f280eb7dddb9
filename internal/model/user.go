package model

import (
	"errors"
	"time"
)

// User mirrors the identity provider's record plus app-specific fields.
// The provider's subject ID is the primary key; we never store credentials.
type User struct {
	ClerkID       string    `db:"clerk_id" json:"clerk_id"`
	Email         string    `db:"email" json:"email"`
	Username      string    `db:"username" json:"username"`
	FirstName     *string   `db:"first_name" json:"first_name"`
	LastName      *string   `db:"last_name" json:"last_name"`
	AvatarURL     *string   `db:"avatar_url" json:"avatar_url"`
	PointsBalance int       `db:"points_balance" json:"points_balance"`
	TotalSwaps    int       `db:"total_swaps" json:"total_swaps"`
	Rating        float64   `db:"rating" json:"rating"`
	Location      *string   `db:"location" json:"location"`
	Bio           *string   `db:"bio" json:"bio"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastActiveAt  time.Time `db:"last_active_at" json:"last_active_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection embedded in items and swap requests.
type UserSummary struct {
	ClerkID   string  `db:"clerk_id" json:"clerk_id"`
	Username  string  `db:"username" json:"username"`
	Rating    float64 `db:"rating" json:"rating"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
	Location  *string `db:"location" json:"location"`
}

// Summary returns the public projection of a user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ClerkID:   u.ClerkID,
		Username:  u.Username,
		Rating:    u.Rating,
		AvatarURL: u.AvatarURL,
		Location:  u.Location,
	}
}

// SyncUserRequest is the body of POST /users/sync. The subject ID comes from
// the verified session token, never from the body.
type SyncUserRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfileRequest carries the editable profile fields. Nil means
// "leave unchanged".
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	AvatarURL *string `json:"avatar_url"`
}

// UserStats is the aggregate returned by GET /users/:id/stats.
// The item and swap counts are computed fresh on every read; nothing here
// is denormalized onto the user row.
type UserStats struct {
	PointsBalance  int       `json:"points_balance"`
	TotalSwaps     int       `json:"total_swaps"`
	Rating         float64   `json:"rating"`
	MemberSince    time.Time `json:"member_since"`
	ItemsListed    int       `json:"items_listed"`
	ItemsAvailable int       `json:"items_available"`
	PendingSwaps   int       `json:"pending_swaps"`
}

const (
	// StartingPointsBalance is the signup bonus credited on first sync.
	StartingPointsBalance = 100

	DefaultRating = 5.0
	MinRating     = 1.0
	MaxRating     = 5.0

	MaxBioLength      = 500
	MaxLocationLength = 100
)

var (
	// ErrUserNotFound is returned when the subject ID was never synced
	ErrUserNotFound = errors.New("user not found")

	// ErrNotProfileOwner is returned when a caller edits someone else's profile
	ErrNotProfileOwner = errors.New("not the owner of this profile")
)
