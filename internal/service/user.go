package service

import (
	"context"
	"fmt"
	"strings"

	"rewear/internal/model"
	"rewear/internal/repository"
)

// UserService mirrors identity-provider data into the local user record and
// serves profile reads and the aggregate stats query.
type UserService struct {
	userRepo repository.UserRepository
	itemRepo repository.ItemRepository
	swapRepo repository.SwapRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
	swapRepo repository.SwapRepository,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		itemRepo: itemRepo,
		swapRepo: swapRepo,
	}
}

// Sync upserts the user on login. The first call creates the record with the
// signup bonus and default rating; later calls only refresh identity fields
// and last_active_at. Idempotent by the provider's subject ID.
func (s *UserService) Sync(ctx context.Context, clerkID string, req model.SyncUserRequest) (*model.User, error) {
	if clerkID == "" {
		return nil, model.NewValidationError("clerk_id", "subject id is required")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, model.NewValidationError("email", "email is required")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		// Fall back to the mailbox name; the provider does not always send
		// a username.
		username = strings.SplitN(email, "@", 2)[0]
	}

	user := &model.User{
		ClerkID:   clerkID,
		Email:     email,
		Username:  username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}

	return user, nil
}

// GetProfile returns a user's profile. Fails with model.ErrUserNotFound if
// the subject was never synced.
func (s *UserService) GetProfile(ctx context.Context, clerkID string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, clerkID)
}

// UpdateProfile applies a field-level profile edit. Self-only.
func (s *UserService) UpdateProfile(ctx context.Context, clerkID, callerID string, req model.UpdateProfileRequest) (*model.User, error) {
	if clerkID != callerID {
		return nil, model.ErrNotProfileOwner
	}

	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return nil, model.NewValidationError("username", "username must not be empty")
	}
	if req.Bio != nil && len(*req.Bio) > model.MaxBioLength {
		return nil, model.NewValidationError("bio", fmt.Sprintf("bio must be at most %d characters", model.MaxBioLength))
	}
	if req.Location != nil && len(*req.Location) > model.MaxLocationLength {
		return nil, model.NewValidationError("location", fmt.Sprintf("location must be at most %d characters", model.MaxLocationLength))
	}

	return s.userRepo.UpdateProfile(ctx, clerkID, req)
}

// GetStats assembles the dashboard aggregate. The item and swap counts are
// computed fresh on every call rather than denormalized onto the user row;
// a stats read is rare enough that consistency wins over read cost.
func (s *UserService) GetStats(ctx context.Context, clerkID string) (*model.UserStats, error) {
	user, err := s.userRepo.GetByID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	listed, available, err := s.itemRepo.CountByOwner(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	pending, err := s.swapRepo.CountPendingInvolving(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("count pending swaps: %w", err)
	}

	return &model.UserStats{
		PointsBalance:  user.PointsBalance,
		TotalSwaps:     user.TotalSwaps,
		Rating:         user.Rating,
		MemberSince:    user.CreatedAt,
		ItemsListed:    listed,
		ItemsAvailable: available,
		PendingSwaps:   pending,
	}, nil
}
