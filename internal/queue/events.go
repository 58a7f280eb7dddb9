package queue

import (
	"fmt"
	"strconv"
	"time"
)

// Event types for the marketplace stream
const (
	EventItemViewed    = "item_viewed"
	EventItemUnlisted  = "item_unlisted"
	EventSwapCompleted = "swap_completed"
)

// Stream names
const (
	StreamMarketplace = "stream:marketplace"
)

// Consumer group name for marketplace workers
const (
	ConsumerGroupMarketplace = "marketplace_workers"
)

// MarketplaceEvent is the envelope published to the marketplace stream.
// View events drive the trending cache; unlist/complete events evict items
// that are no longer browsable.
type MarketplaceEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the event occurred

	ItemID        string `json:"item_id,omitempty"`
	OfferedItemID string `json:"offered_item_id,omitempty"` // swap_completed for direct swaps
	SwapID        string `json:"swap_id,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
}

// NewItemViewedEvent records a detail-page view for trending scoring.
func NewItemViewedEvent(itemID string) MarketplaceEvent {
	return MarketplaceEvent{
		Type:      EventItemViewed,
		Timestamp: time.Now().Unix(),
		ItemID:    itemID,
	}
}

// NewItemUnlistedEvent records that an item left the browsable pool
// (entered a swap, was removed by its owner).
func NewItemUnlistedEvent(itemID, actorID string) MarketplaceEvent {
	return MarketplaceEvent{
		Type:      EventItemUnlisted,
		Timestamp: time.Now().Unix(),
		ItemID:    itemID,
		ActorID:   actorID,
	}
}

// NewSwapCompletedEvent records a settled swap; the worker evicts both items
// from trending.
func NewSwapCompletedEvent(swapID, itemID, offeredItemID string) MarketplaceEvent {
	return MarketplaceEvent{
		Type:          EventSwapCompleted,
		Timestamp:     time.Now().Unix(),
		SwapID:        swapID,
		ItemID:        itemID,
		OfferedItemID: offeredItemID,
	}
}

// ToMap flattens the event for XADD field-value pairs.
func (e MarketplaceEvent) ToMap() (map[string]interface{}, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}

	values := map[string]interface{}{
		"type":      e.Type,
		"timestamp": strconv.FormatInt(e.Timestamp, 10),
	}
	if e.ItemID != "" {
		values["item_id"] = e.ItemID
	}
	if e.OfferedItemID != "" {
		values["offered_item_id"] = e.OfferedItemID
	}
	if e.SwapID != "" {
		values["swap_id"] = e.SwapID
	}
	if e.ActorID != "" {
		values["actor_id"] = e.ActorID
	}

	return values, nil
}

// ParseMarketplaceEvent rebuilds an event from XREADGROUP message values.
func ParseMarketplaceEvent(values map[string]interface{}) (MarketplaceEvent, error) {
	var e MarketplaceEvent

	typ, ok := values["type"].(string)
	if !ok || typ == "" {
		return e, fmt.Errorf("missing event type")
	}
	e.Type = typ

	if ts, ok := values["timestamp"].(string); ok {
		e.Timestamp, _ = strconv.ParseInt(ts, 10, 64)
	}
	if v, ok := values["item_id"].(string); ok {
		e.ItemID = v
	}
	if v, ok := values["offered_item_id"].(string); ok {
		e.OfferedItemID = v
	}
	if v, ok := values["swap_id"].(string); ok {
		e.SwapID = v
	}
	if v, ok := values["actor_id"].(string); ok {
		e.ActorID = v
	}

	return e, nil
}
