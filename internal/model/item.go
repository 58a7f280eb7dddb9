package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ItemStatus is the lifecycle state of a listing. Transitions away from
// "available" are driven exclusively by the swap workflow; "removed" is the
// owner taking the listing down.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemPending   ItemStatus = "pending"
	ItemSwapped   ItemStatus = "swapped"
	ItemRemoved   ItemStatus = "removed"
)

// Item is a single listed garment.
type Item struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	OwnerID     string         `db:"owner_id" json:"owner_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Category    string         `db:"category" json:"category"`
	Size        string         `db:"size" json:"size"`
	Condition   string         `db:"condition" json:"condition"`
	Type        string         `db:"item_type" json:"type"`
	Brand       *string        `db:"brand" json:"brand"`
	Color       *string        `db:"color" json:"color"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	Images      pq.StringArray `db:"images" json:"images"`
	PointsValue int            `db:"points_value" json:"points_value"`
	Status      ItemStatus     `db:"status" json:"status"`
	Views       int            `db:"views" json:"views"`
	Likes       pq.StringArray `db:"likes" json:"likes"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// Joined field (not in the items table)
	Owner *UserSummary `json:"owner,omitempty"`
}

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Type        string   `json:"type"`
	Brand       *string  `json:"brand"`
	Color       *string  `json:"color"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	PointsValue int      `json:"points_value"`
}

// UpdateItemRequest carries the editable listing fields. Nil means
// "leave unchanged".
type UpdateItemRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Size        *string  `json:"size"`
	Condition   *string  `json:"condition"`
	Type        *string  `json:"type"`
	Brand       *string  `json:"brand"`
	Color       *string  `json:"color"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	PointsValue *int     `json:"points_value"`
}

// ItemFilter holds the browse-page query parameters after sanitization.
// Zero values mean "no constraint".
type ItemFilter struct {
	Category  string
	Size      string
	Condition string
	MinPoints *int
	MaxPoints *int
	Search    string
	SortBy    string // created_at | points_value | views
	SortOrder string // asc | desc
	Page      int
	Limit     int
}

// Pagination is the offset-based page envelope on list responses.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// ItemListResponse is the browse-page response.
type ItemListResponse struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

const (
	MaxItemTitleLength       = 100
	MaxItemDescriptionLength = 500
	MinItemPointsValue       = 1
	MaxItemPointsValue       = 1000

	DefaultItemPageSize = 12
	MaxItemPageSize     = 48

	SortByCreatedAt   = "created_at"
	SortByPointsValue = "points_value"
	SortByViews       = "views"
)

var itemCategories = map[string]struct{}{
	"tops": {}, "bottoms": {}, "dresses": {}, "outerwear": {},
	"shoes": {}, "accessories": {}, "activewear": {},
}

var itemSizes = map[string]struct{}{
	"XS": {}, "S": {}, "M": {}, "L": {}, "XL": {}, "XXL": {},
	"6": {}, "7": {}, "8": {}, "9": {}, "10": {}, "11": {}, "12": {},
	"One Size": {},
}

var itemConditions = map[string]struct{}{
	"New": {}, "Like New": {}, "Good": {}, "Fair": {},
}

func IsValidCategory(c string) bool {
	_, ok := itemCategories[c]
	return ok
}

func IsValidSize(s string) bool {
	_, ok := itemSizes[s]
	return ok
}

func IsValidCondition(c string) bool {
	_, ok := itemConditions[c]
	return ok
}

// IsValidSortKey reports whether k is one of the whitelisted sort columns.
// The whitelist doubles as SQL-injection protection since the sort key is
// interpolated into ORDER BY.
func IsValidSortKey(k string) bool {
	return k == SortByCreatedAt || k == SortByPointsValue || k == SortByViews
}

var (
	// ErrItemNotFound is returned when an item ID does not resolve
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotAvailable is returned when an operation requires status=available
	ErrItemNotAvailable = errors.New("item is not available")

	// ErrNotItemOwner is returned when a caller edits someone else's listing
	ErrNotItemOwner = errors.New("not the owner of this item")
)
