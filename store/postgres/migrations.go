package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migration is one versioned schema step.
type migration struct {
	Version string
	Name    string
	SQL     string
}

// migrations run in order; versions already recorded in kovr_migrations are
// skipped. The schema keeps the legacy renewal_date and billing_type columns
// so databases imported from older deployments load without a rewrite; reads
// normalize via COALESCE (see models.go).
var migrations = []migration{
	{
		Version: "20240101000001",
		Name:    "create_kovr_profiles",
		SQL: `
CREATE TABLE IF NOT EXISTS kovr_profiles (
    id                TEXT PRIMARY KEY,
    display_name      TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL DEFAULT '',
    telegram_chat_id  BIGINT NOT NULL DEFAULT 0,
    default_currency  TEXT NOT NULL DEFAULT 'usd',
    alert_days_before INT NOT NULL DEFAULT 1,
    alerts_enabled    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    amount         BIGINT NOT NULL DEFAULT 0,
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
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_kovr_subscriptions_profile ON kovr_subscriptions (profile_id);
CREATE INDEX IF NOT EXISTS idx_kovr_subscriptions_family ON kovr_subscriptions (family_id) WHERE family_id IS NOT NULL;
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
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS kovr_family_members (
    id         TEXT PRIMARY KEY,
    family_id  TEXT NOT NULL,
    profile_id TEXT NOT NULL,
    role       TEXT NOT NULL DEFAULT 'member',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_kovr_members_family_profile ON kovr_family_members (family_id, profile_id);

CREATE TABLE IF NOT EXISTS kovr_family_invites (
    id          TEXT PRIMARY KEY,
    family_id   TEXT NOT NULL,
    inviter_id  TEXT NOT NULL,
    code        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending',
    expires_at  TIMESTAMPTZ NOT NULL,
    accepted_by TEXT,
    accepted_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    days_before     INT NOT NULL DEFAULT 1,
    enabled         BOOLEAN NOT NULL DEFAULT TRUE,
    last_sent_at    TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_kovr_alerts_profile ON kovr_alerts (profile_id);
CREATE INDEX IF NOT EXISTS idx_kovr_alerts_subscription ON kovr_alerts (subscription_id);
`,
	},
}

// runMigrations applies any pending migrations inside the pool.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kovr_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("kovr/postgres: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM kovr_migrations WHERE version = $1)`, m.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("kovr/postgres: check migration %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("kovr/postgres: apply migration %s (%s): %w", m.Version, m.Name, err)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO kovr_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("kovr/postgres: record migration %s: %w", m.Version, err)
		}
	}
	return nil
}
