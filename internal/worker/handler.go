package worker

import (
	"context"
	"fmt"
	"log"

	"rewear/internal/cache"
	"rewear/internal/queue"
)

// Handler processes marketplace events from the queue, keeping the trending
// cache in step with what is actually browsable.
type Handler struct {
	trending cache.TrendingCache
}

// NewHandler creates a new event handler.
func NewHandler(trending cache.TrendingCache) *Handler {
	return &Handler{trending: trending}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MarketplaceEvent) error {
	switch event.Type {
	case queue.EventItemViewed:
		return h.handleItemViewed(ctx, event)
	case queue.EventItemUnlisted:
		return h.handleItemUnlisted(ctx, event)
	case queue.EventSwapCompleted:
		return h.handleSwapCompleted(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

func (h *Handler) handleItemViewed(ctx context.Context, event queue.MarketplaceEvent) error {
	if event.ItemID == "" {
		return fmt.Errorf("item_viewed event missing item_id")
	}

	if err := h.trending.RecordView(ctx, event.ItemID); err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	return nil
}

func (h *Handler) handleItemUnlisted(ctx context.Context, event queue.MarketplaceEvent) error {
	if event.ItemID == "" {
		return fmt.Errorf("item_unlisted event missing item_id")
	}

	if err := h.trending.Remove(ctx, event.ItemID); err != nil {
		return fmt.Errorf("remove unlisted item: %w", err)
	}

	return nil
}

// handleSwapCompleted evicts both sides of a settled swap from trending.
func (h *Handler) handleSwapCompleted(ctx context.Context, event queue.MarketplaceEvent) error {
	if event.ItemID != "" {
		if err := h.trending.Remove(ctx, event.ItemID); err != nil {
			return fmt.Errorf("remove swapped item: %w", err)
		}
	}
	if event.OfferedItemID != "" {
		if err := h.trending.Remove(ctx, event.OfferedItemID); err != nil {
			return fmt.Errorf("remove offered item: %w", err)
		}
	}

	return nil
}
