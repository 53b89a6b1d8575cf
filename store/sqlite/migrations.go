package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	Version string
	Name    string
	SQL     string
}

// The schema mirrors the postgres driver, with SQLite types. Legacy
// renewal_date and billing_type columns are kept for imported databases and
// normalized on read.
var migrations = []migration{
	{
		Version: "20240101000001",
		Name:    "create_kovr_profiles",
		SQL: `
CREATE TABLE IF NOT EXISTS kovr_profiles (
    id                TEXT PRIMARY KEY,
    display_name      TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL DEFAULT '',
    telegram_chat_id  INTEGER NOT NULL DEFAULT 0,
    default_currency  TEXT NOT NULL DEFAULT 'usd',
    alert_days_before INTEGER NOT NULL DEFAULT 1,
    alerts_enabled    INTEGER NOT NULL DEFAULT 1,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_kovr_profiles_email ON kovr_profiles (email) WHERE email <> '';
`,
	},
	{
		Version: "20240101000002",
		Name:    "create_kovr_subscriptions",
		SQL: `
CREATE TABLE IF NOT EXISTS kovr_subscriptions (
    id             TEXT PRIMARY KEY,
    profile_id     TEXT NOT NULL,
    family_id      TEXT,
    name           TEXT NOT NULL DEFAULT '',
    amount         INTEGER NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT 'usd',
    billing_cycle  TEXT,
    billing_type   TEXT,
    next_payment   TEXT,
    renewal_date   TEXT,
    end_date       TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'active',
    category       TEXT NOT NULL DEFAULT '',
    website        TEXT NOT NULL DEFAULT '',
    notes          TEXT NOT NULL DEFAULT '',
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kovr_subscriptions_profile ON kovr_subscriptions (profile_id);
CREATE INDEX IF NOT EXISTS idx_kovr_subscriptions_family ON kovr_subscriptions (family_id);
CREATE INDEX IF NOT EXISTS idx_kovr_subscriptions_status ON kovr_subscriptions (profile_id, status);
`,
	},
	{
		Version: "20240101000003",
		Name:    "create_kovr_families",
		SQL: `
CREATE TABLE IF NOT EXISTS kovr_families (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    owner_id   TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS kovr_family_members (
    id         TEXT PRIMARY KEY,
    family_id  TEXT NOT NULL,
    profile_id TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT 'member',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_kovr_members_family_profile ON kovr_family_members (family_id, profile_id);

CREATE TABLE IF NOT EXISTS kovr_family_invites (
    id          TEXT PRIMARY KEY,
    family_id   TEXT NOT NULL,
    inviter_id  TEXT NOT NULL,
    code        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending',
    expires_at  TIMESTAMP NOT NULL,
    accepted_by TEXT,
    accepted_at TIMESTAMP,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_kovr_invites_code ON kovr_family_invites (code);
CREATE INDEX IF NOT EXISTS idx_kovr_invites_family ON kovr_family_invites (family_id);
`,
	},
	{
		Version: "20240101000004",
		Name:    "create_kovr_alerts",
		SQL: `
CREATE TABLE IF NOT EXISTS kovr_alerts (
    id              TEXT PRIMARY KEY,
    subscription_id TEXT NOT NULL,
    profile_id      TEXT NOT NULL,
    channel         TEXT NOT NULL DEFAULT 'email',
    days_before     INTEGER NOT NULL DEFAULT 1,
    enabled         INTEGER NOT NULL DEFAULT 1,
    last_sent_at    TIMESTAMP,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kovr_alerts_profile ON kovr_alerts (profile_id);
CREATE INDEX IF NOT EXISTS idx_kovr_alerts_subscription ON kovr_alerts (subscription_id);
`,
	},
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kovr_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("kovr/sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM kovr_migrations WHERE version = ?)`, m.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("kovr/sqlite: check migration %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("kovr/sqlite: apply migration %s (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO kovr_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("kovr/sqlite: record migration %s: %w", m.Version, err)
		}
	}
	return nil
}
