package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rewear/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert creates the user on first sync, otherwise refreshes the mutable
// identity fields and last_active_at. The DO UPDATE branch deliberately
// leaves points_balance, total_swaps and rating alone.
func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (clerk_id, email, username, first_name, last_name, avatar_url,
		                   points_balance, rating, created_at, last_active_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), NOW())
		ON CONFLICT (clerk_id) DO UPDATE SET
			email          = EXCLUDED.email,
			username       = EXCLUDED.username,
			first_name     = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name      = COALESCE(EXCLUDED.last_name, users.last_name),
			avatar_url     = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
			last_active_at = NOW(),
			updated_at     = NOW()
		RETURNING clerk_id, email, username, first_name, last_name, avatar_url,
		          points_balance, total_swaps, rating, location, bio, is_active,
		          created_at, last_active_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.AvatarURL,
		model.StartingPointsBalance,
		model.DefaultRating,
	)

	if err := row.StructScan(u); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by the identity provider's subject ID
func (r *userRepository) GetByID(ctx context.Context, clerkID string) (*model.User, error) {
	query := `
		SELECT clerk_id, email, username, first_name, last_name, avatar_url,
		       points_balance, total_swaps, rating, location, bio, is_active,
		       created_at, last_active_at, updated_at
		FROM users
		WHERE clerk_id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, clerkID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// Exists checks whether a subject ID has been synced
func (r *userRepository) Exists(ctx context.Context, clerkID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE clerk_id = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, clerkID)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// UpdateProfile applies the non-nil fields of req to the user row.
func (r *userRepository) UpdateProfile(ctx context.Context, clerkID string, req model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users SET
			username   = COALESCE($2, username),
			bio        = COALESCE($3, bio),
			location   = COALESCE($4, location),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = NOW()
		WHERE clerk_id = $1
		RETURNING clerk_id, email, username, first_name, last_name, avatar_url,
		          points_balance, total_swaps, rating, location, bio, is_active,
		          created_at, last_active_at, updated_at
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, clerkID, req.Username, req.Bio, req.Location, req.AvatarURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}
