package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"rewear/internal/model"
)

const itemColumns = `id, owner_id, title, description, category, size, condition, item_type,
       brand, color, tags, images, points_value, status, views, likes, created_at, updated_at`

type itemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepository{db: db}
}

// Create inserts a new listing with status=available and views=0.
func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (id, owner_id, title, description, category, size, condition,
		                   item_type, brand, color, tags, images, points_value, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'available')
		RETURNING ` + itemColumns

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Tags == nil {
		item.Tags = pq.StringArray{}
	}

	row := r.db.QueryRowxContext(ctx, query,
		item.ID,
		item.OwnerID,
		item.Title,
		item.Description,
		item.Category,
		item.Size,
		item.Condition,
		item.Type,
		item.Brand,
		item.Color,
		item.Tags,
		item.Images,
		item.PointsValue,
	)

	if err := row.StructScan(item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	var item model.Item
	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// GetByIDs fetches multiple items at once. Used to hydrate trending results
// and swap requests; missing IDs are silently skipped.
func (r *itemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1)`

	var items []model.Item
	err := r.db.SelectContext(ctx, &items, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get items by ids: %w", err)
	}

	return items, nil
}

// List builds the browse query from the sanitized filter. Only available
// items are ever eligible; the sort key has been whitelisted by the service.
func (r *itemRepository) List(ctx context.Context, f model.ItemFilter) ([]model.Item, int, error) {
	where := []string{`status = 'available'`}
	args := []interface{}{}

	addArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, `category = `+addArg(f.Category))
	}
	if f.Size != "" {
		where = append(where, `size = `+addArg(f.Size))
	}
	if f.Condition != "" {
		where = append(where, `condition = `+addArg(f.Condition))
	}
	if f.MinPoints != nil {
		where = append(where, `points_value >= `+addArg(*f.MinPoints))
	}
	if f.MaxPoints != nil {
		where = append(where, `points_value <= `+addArg(*f.MaxPoints))
	}
	if f.Search != "" {
		// Case-insensitive substring over title, description and any tag.
		p := addArg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(
			`(title ILIKE %s OR description ILIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE %s))`,
			p, p, p))
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := `SELECT COUNT(*) FROM items WHERE ` + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	order := "DESC"
	if f.SortOrder == "asc" {
		order = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM items WHERE %s ORDER BY %s %s, id %s LIMIT %s OFFSET %s`,
		itemColumns, whereClause, f.SortBy, order, order,
		addArg(f.Limit), addArg((f.Page-1)*f.Limit))

	var items []model.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}

	return items, total, nil
}

// ListByOwner returns every non-removed listing of one owner, newest first.
func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = $1 AND status != 'removed'
		ORDER BY created_at DESC`

	var items []model.Item
	if err := r.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list items by owner: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}

	return items, nil
}

// Update applies the non-nil fields of req. Conditional on status=available
// so listings caught up in a swap cannot be edited out from under it.
func (r *itemRepository) Update(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.Item, error) {
	query := `
		UPDATE items SET
			title        = COALESCE($2, title),
			description  = COALESCE($3, description),
			category     = COALESCE($4, category),
			size         = COALESCE($5, size),
			condition    = COALESCE($6, condition),
			item_type    = COALESCE($7, item_type),
			brand        = COALESCE($8, brand),
			color        = COALESCE($9, color),
			tags         = COALESCE($10, tags),
			images       = COALESCE($11, images),
			points_value = COALESCE($12, points_value),
			updated_at   = NOW()
		WHERE id = $1 AND status = 'available'
		RETURNING ` + itemColumns

	var tags, images interface{}
	if req.Tags != nil {
		tags = pq.StringArray(req.Tags)
	}
	if req.Images != nil {
		images = pq.StringArray(req.Images)
	}

	var item model.Item
	err := r.db.GetContext(ctx, &item, query, id,
		req.Title, req.Description, req.Category, req.Size, req.Condition,
		req.Type, req.Brand, req.Color, tags, images, req.PointsValue)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the ID is unknown or the item is locked in a swap.
			var exists bool
			r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, id)
			if exists {
				return nil, model.ErrItemNotAvailable
			}
			return nil, model.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return &item, nil
}

// IncrementViews bumps the approximate view counter.
func (r *itemRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE items SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// MarkRemoved takes a listing down without deleting the row, so completed
// swaps keep resolving their item references.
func (r *itemRepository) MarkRemoved(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET status = 'removed', updated_at = NOW() WHERE id = $1 AND status = 'available'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// AddLike records that a user liked the item. array_append with a guard
// keeps the set semantics without a join table.
func (r *itemRepository) AddLike(ctx context.Context, id uuid.UUID, clerkID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items SET likes = array_append(likes, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(likes))
	`, id, clerkID)
	if err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		// Already liked, or unknown item. Distinguish for the 404 path.
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, id)
		if !exists {
			return model.ErrItemNotFound
		}
	}

	return nil
}

func (r *itemRepository) RemoveLike(ctx context.Context, id uuid.UUID, clerkID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items SET likes = array_remove(likes, $2), updated_at = NOW()
		WHERE id = $1
	`, id, clerkID)
	if err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return model.ErrItemNotFound
	}

	return nil
}

// CountByOwner feeds the stats endpoint; computed fresh on every call.
func (r *itemRepository) CountByOwner(ctx context.Context, ownerID string) (int, int, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status != 'removed')    AS listed,
		       COUNT(*) FILTER (WHERE status = 'available')   AS available
		FROM items
		WHERE owner_id = $1
	`

	var counts struct {
		Listed    int `db:"listed"`
		Available int `db:"available"`
	}
	if err := r.db.GetContext(ctx, &counts, query, ownerID); err != nil {
		return 0, 0, fmt.Errorf("failed to count items by owner: %w", err)
	}

	return counts.Listed, counts.Available, nil
}
