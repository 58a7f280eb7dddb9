package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rewear/internal/model"
)

const swapColumns = `id, requester_id, item_owner_id, requested_item_id, offered_item_id,
       swap_type, points_offered, message, status, decline_reason, completed_at,
       expires_at, created_at, updated_at`

type swapRepository struct {
	db *sqlx.DB
}

func NewSwapRepository(db *sqlx.DB) SwapRepository {
	return &swapRepository{db: db}
}

func (r *swapRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`

	var req model.SwapRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrSwapNotFound
		}
		return nil, fmt.Errorf("failed to get swap request: %w", err)
	}

	return &req, nil
}

func (r *swapRepository) ListForUser(ctx context.Context, clerkID, role string, status *model.SwapStatus) ([]model.SwapRequest, error) {
	var predicate string
	switch role {
	case model.SwapRoleIncoming:
		predicate = `item_owner_id = $1`
	case model.SwapRoleOutgoing:
		predicate = `requester_id = $1`
	default:
		predicate = `(requester_id = $1 OR item_owner_id = $1)`
	}

	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE ` + predicate
	args := []interface{}{clerkID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	var reqs []model.SwapRequest
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	if reqs == nil {
		reqs = []model.SwapRequest{}
	}

	return reqs, nil
}

// ListOverduePendingIDs feeds the expiry sweeper.
func (r *swapRepository) ListOverduePendingIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM swap_requests
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list overdue swap requests: %w", err)
	}

	return ids, nil
}

func (r *swapRepository) CountPendingInvolving(ctx context.Context, clerkID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM swap_requests
		WHERE status = 'pending' AND (requester_id = $1 OR item_owner_id = $1)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, clerkID); err != nil {
		return 0, fmt.Errorf("failed to count pending swap requests: %w", err)
	}

	return count, nil
}

// CreatePending inserts the request and locks the involved items in one
// transaction. The item updates are conditional on status=available, so of
// two concurrent requests for the same item exactly one commits; the loser
// rolls back with model.ErrItemNotAvailable and no request row.
func (r *swapRepository) CreatePending(ctx context.Context, req *model.SwapRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := casItemStatus(ctx, tx, req.RequestedItemID, model.ItemAvailable, model.ItemPending)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrItemNotAvailable
	}

	if req.OfferedItemID != nil {
		ok, err := casItemStatus(ctx, tx, *req.OfferedItemID, model.ItemAvailable, model.ItemPending)
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrItemNotAvailable
		}
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	query := `
		INSERT INTO swap_requests (id, requester_id, item_owner_id, requested_item_id,
		                           offered_item_id, swap_type, points_offered, message,
		                           status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING ` + swapColumns

	row := tx.QueryRowxContext(ctx, query,
		req.ID,
		req.RequesterID,
		req.OwnerID,
		req.RequestedItemID,
		req.OfferedItemID,
		req.SwapType,
		req.PointsOffered,
		req.Message,
		req.ExpiresAt,
	)
	if err := row.StructScan(req); err != nil {
		return fmt.Errorf("insert swap request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Accept flips pending -> accepted. A single conditional update is atomic on
// its own: of two concurrent accepts the second sees zero rows and fails
// with model.ErrInvalidSwapState.
func (r *swapRepository) Accept(ctx context.Context, id uuid.UUID, now time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE swap_requests SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at > $2
	`, id, now)
	if err != nil {
		return fmt.Errorf("accept swap request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.transitionFailure(ctx, id)
	}

	return nil
}

// Decline flips pending -> declined and reverts the involved items.
func (r *swapRepository) Decline(ctx context.Context, id uuid.UUID, reason string) error {
	return r.terminatePending(ctx, id, model.SwapDeclined, &reason)
}

// Cancel flips pending -> cancelled and reverts the involved items.
func (r *swapRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return r.terminatePending(ctx, id, model.SwapCancelled, nil)
}

// Expire flips pending -> expired and reverts the involved items. Used by
// both the lazy on-access check and the periodic sweeper.
func (r *swapRepository) Expire(ctx context.Context, id uuid.UUID) error {
	return r.terminatePending(ctx, id, model.SwapExpired, nil)
}

// terminatePending is the shared pending -> {declined,cancelled,expired}
// transition: conditional status flip plus item reversion in one transaction.
func (r *swapRepository) terminatePending(ctx context.Context, id uuid.UUID, to model.SwapStatus, reason *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var requestedItemID uuid.UUID
	var offeredItemID *uuid.UUID
	err = tx.QueryRowxContext(ctx, `
		UPDATE swap_requests SET status = $2, decline_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING requested_item_id, offered_item_id
	`, id, to, reason).Scan(&requestedItemID, &offeredItemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return r.transitionFailure(ctx, id)
		}
		return fmt.Errorf("update swap status: %w", err)
	}

	if _, err := casItemStatus(ctx, tx, requestedItemID, model.ItemPending, model.ItemAvailable); err != nil {
		return err
	}
	if offeredItemID != nil {
		if _, err := casItemStatus(ctx, tx, *offeredItemID, model.ItemPending, model.ItemAvailable); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Complete performs the whole settlement atomically. The accepted ->
// completed flip runs first and guards everything else, so a retried
// completion cannot double-debit points or double-increment counters.
func (r *swapRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var req model.SwapRequest
	err = tx.QueryRowxContext(ctx, `
		UPDATE swap_requests SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'accepted'
		RETURNING `+swapColumns, id, now).StructScan(&req)
	if err != nil {
		if err == sql.ErrNoRows {
			return r.transitionFailure(ctx, id)
		}
		return fmt.Errorf("complete swap request: %w", err)
	}

	if _, err := casItemStatus(ctx, tx, req.RequestedItemID, model.ItemPending, model.ItemSwapped); err != nil {
		return err
	}
	if req.OfferedItemID != nil {
		if _, err := casItemStatus(ctx, tx, *req.OfferedItemID, model.ItemPending, model.ItemSwapped); err != nil {
			return err
		}
	}

	// Points move only for points swaps; a direct swap is item-for-item.
	if req.SwapType == model.SwapTypePoints && req.PointsOffered != nil {
		amount := *req.PointsOffered

		result, err := tx.ExecContext(ctx, `
			UPDATE users SET points_balance = points_balance - $2, updated_at = NOW()
			WHERE clerk_id = $1 AND points_balance >= $2
		`, req.RequesterID, amount)
		if err != nil {
			return fmt.Errorf("debit requester: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return model.ErrInsufficientPoints
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET points_balance = points_balance + $2, updated_at = NOW()
			WHERE clerk_id = $1
		`, req.OwnerID, amount)
		if err != nil {
			return fmt.Errorf("credit owner: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET total_swaps = total_swaps + 1, updated_at = NOW()
		WHERE clerk_id IN ($1, $2)
	`, req.RequesterID, req.OwnerID)
	if err != nil {
		return fmt.Errorf("increment total swaps: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// transitionFailure distinguishes "no such request" from "wrong state" after
// a conditional update matched zero rows.
func (r *swapRepository) transitionFailure(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM swap_requests WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check swap existence: %w", err)
	}
	if !exists {
		return model.ErrSwapNotFound
	}
	return model.ErrInvalidSwapState
}

// casItemStatus is the conditional item transition shared by the swap
// workflow. Returns false when the item was not in the expected state.
func casItemStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.ItemStatus) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE items SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update item status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}
