package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		`CREATE TABLE IF NOT EXISTS users (
			clerk_id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			avatar_url TEXT,
			points_balance INTEGER NOT NULL DEFAULT 100 CHECK (points_balance >= 0),
			total_swaps INTEGER NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 5.0,
			location TEXT,
			bio TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id TEXT NOT NULL REFERENCES users(clerk_id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			size TEXT NOT NULL,
			condition TEXT NOT NULL,
			item_type TEXT NOT NULL DEFAULT '',
			brand TEXT,
			color TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			images TEXT[] NOT NULL DEFAULT '{}',
			likes TEXT[] NOT NULL DEFAULT '{}',
			points_value INTEGER NOT NULL CHECK (points_value >= 1 AND points_value <= 1000),
			status TEXT NOT NULL DEFAULT 'available',
			views INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS swap_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			requester_id TEXT NOT NULL REFERENCES users(clerk_id) ON DELETE CASCADE,
			item_owner_id TEXT NOT NULL REFERENCES users(clerk_id) ON DELETE CASCADE,
			requested_item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			offered_item_id UUID REFERENCES items(id) ON DELETE SET NULL,
			swap_type TEXT NOT NULL,
			points_offered INTEGER,
			message TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			decline_reason TEXT,
			completed_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status_created_at ON items(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category) WHERE status = 'available'`,
		`CREATE INDEX IF NOT EXISTS idx_swap_requests_requester_id ON swap_requests(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_swap_requests_item_owner_id ON swap_requests(item_owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_swap_requests_pending_expiry ON swap_requests(expires_at) WHERE status = 'pending'`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
