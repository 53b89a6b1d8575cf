// Package postgres implements the Kovr store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	kovr "github.com/kovrhq/kovr"
	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	kovrstore "github.com/kovrhq/kovr/store"
	"github.com/kovrhq/kovr/subscription"
)

// compile-time interface check
var _ kovrstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the given DSN and returns a store. The caller owns the
// pool lifetime through Close.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("kovr/postgres: connect: %w", err)
	}
	return New(pool), nil
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.pool)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Subscription store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_subscriptions (
			id, profile_id, family_id, name, amount, currency, billing_cycle,
			next_payment, end_date, status, category, website, notes, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		subscriptionArgs(sub)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	row := new(subscriptionRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM kovr_subscriptions WHERE id = $1`,
		subID.String(),
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionRow(row)
}

func (s *Store) ListSubscriptionsByProfile(ctx context.Context, profileID id.ProfileID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, "profile_id", profileID.String(), opts)
}

func (s *Store) ListSubscriptionsByFamily(ctx context.Context, familyID id.FamilyID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, "family_id", familyID.String(), opts)
}

func (s *Store) listSubscriptions(ctx context.Context, ownerCol, ownerID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM kovr_subscriptions WHERE ` + ownerCol + ` = $1`
	args := []any{ownerID}

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		row := new(subscriptionRow)
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, err
		}
		sub, err := fromSubscriptionRow(row)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE kovr_subscriptions SET
			profile_id = $2, family_id = $3, name = $4, amount = $5,
			currency = $6, billing_cycle = $7, next_payment = $8, end_date = $9,
			status = $10, category = $11, website = $12, notes = $13,
			metadata = $14, created_at = $15, updated_at = $16
		WHERE id = $1`,
		subscriptionArgs(sub)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_subscriptions WHERE id = $1`, subID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrSubscriptionNotFound
	}
	// Alerts for a removed subscription are orphans; drop them too.
	_, err = s.pool.Exec(ctx,
		`DELETE FROM kovr_alerts WHERE subscription_id = $1`, subID.String())
	return err
}

// ==================== Profile store ====================

func (s *Store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_profiles (
			id, display_name, email, telegram_chat_id, default_currency,
			alert_days_before, alerts_enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		profileArgs(p)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetProfile(ctx context.Context, profileID id.ProfileID) (*profile.Profile, error) {
	row := new(profileRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM kovr_profiles WHERE id = $1`,
		profileID.String(),
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrProfileNotFound
		}
		return nil, err
	}
	return fromProfileRow(row)
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	row := new(profileRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM kovr_profiles WHERE email = $1`,
		email,
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrProfileNotFound
		}
		return nil, err
	}
	return fromProfileRow(row)
}

func (s *Store) UpdateProfile(ctx context.Context, p *profile.Profile) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE kovr_profiles SET
			display_name = $2, email = $3, telegram_chat_id = $4,
			default_currency = $5, alert_days_before = $6, alerts_enabled = $7,
			created_at = $8, updated_at = $9
		WHERE id = $1`,
		profileArgs(p)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrProfileNotFound
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, profileID id.ProfileID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_profiles WHERE id = $1`, profileID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrProfileNotFound
	}
	return nil
}

// ==================== Family store ====================

func (s *Store) CreateFamily(ctx context.Context, f *family.Family) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_families (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		f.ID.String(), f.Name, f.OwnerID.String(), f.CreatedAt, f.UpdatedAt)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetFamily(ctx context.Context, familyID id.FamilyID) (*family.Family, error) {
	row := new(familyRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+familyColumns+` FROM kovr_families WHERE id = $1`,
		familyID.String(),
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrFamilyNotFound
		}
		return nil, err
	}
	return fromFamilyRow(row)
}

func (s *Store) DeleteFamily(ctx context.Context, familyID id.FamilyID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_families WHERE id = $1`, familyID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrFamilyNotFound
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_family_members WHERE family_id = $1`, familyID.String()); err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM kovr_family_invites WHERE family_id = $1`, familyID.String())
	return err
}

func (s *Store) AddMember(ctx context.Context, m *family.Member) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_family_members (id, family_id, profile_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID.String(), m.FamilyID.String(), m.ProfileID.String(),
		string(m.Role), m.CreatedAt, m.UpdatedAt)
	if isDuplicate(err) {
		return kovr.ErrAlreadyMember
	}
	return err
}

func (s *Store) GetMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) (*family.Member, error) {
	row := new(memberRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM kovr_family_members WHERE family_id = $1 AND profile_id = $2`,
		familyID.String(), profileID.String(),
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrMemberNotFound
		}
		return nil, err
	}
	return fromMemberRow(row)
}

func (s *Store) ListMembers(ctx context.Context, familyID id.FamilyID) ([]*family.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM kovr_family_members WHERE family_id = $1 ORDER BY created_at, id`,
		familyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*family.Member
	for rows.Next() {
		row := new(memberRow)
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, err
		}
		m, err := fromMemberRow(row)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) RemoveMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_family_members WHERE family_id = $1 AND profile_id = $2`,
		familyID.String(), profileID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrMemberNotFound
	}
	return nil
}

func (s *Store) CreateInvite(ctx context.Context, inv *family.Invite) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_family_invites (
			id, family_id, inviter_id, code, status, expires_at,
			accepted_by, accepted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inviteArgs(inv)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetInviteByCode(ctx context.Context, code string) (*family.Invite, error) {
	row := new(inviteRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM kovr_family_invites WHERE code = $1`,
		code,
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrInviteNotFound
		}
		return nil, err
	}
	return fromInviteRow(row)
}

func (s *Store) ListInvites(ctx context.Context, familyID id.FamilyID) ([]*family.Invite, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+inviteColumns+` FROM kovr_family_invites WHERE family_id = $1 ORDER BY created_at, id`,
		familyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*family.Invite
	for rows.Next() {
		row := new(inviteRow)
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, err
		}
		inv, err := fromInviteRow(row)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (s *Store) UpdateInvite(ctx context.Context, inv *family.Invite) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE kovr_family_invites SET
			family_id = $2, inviter_id = $3, code = $4, status = $5,
			expires_at = $6, accepted_by = $7, accepted_at = $8,
			created_at = $9, updated_at = $10
		WHERE id = $1`,
		inviteArgs(inv)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrInviteNotFound
	}
	return nil
}

// ==================== Alert store ====================

func (s *Store) CreateAlert(ctx context.Context, a *alert.Alert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kovr_alerts (
			id, subscription_id, profile_id, channel, days_before, enabled,
			last_sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		alertArgs(a)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetAlert(ctx context.Context, alertID id.AlertID) (*alert.Alert, error) {
	row := new(alertRow)
	err := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM kovr_alerts WHERE id = $1`,
		alertID.String(),
	).Scan(row.fields()...)
	if err != nil {
		if isNoRows(err) {
			return nil, kovr.ErrAlertNotFound
		}
		return nil, err
	}
	return fromAlertRow(row)
}

func (s *Store) ListAlertsByProfile(ctx context.Context, profileID id.ProfileID) ([]*alert.Alert, error) {
	return s.listAlerts(ctx, "profile_id", profileID.String())
}

func (s *Store) ListAlertsBySubscription(ctx context.Context, subID id.SubscriptionID) ([]*alert.Alert, error) {
	return s.listAlerts(ctx, "subscription_id", subID.String())
}

func (s *Store) listAlerts(ctx context.Context, ownerCol, ownerID string) ([]*alert.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM kovr_alerts WHERE `+ownerCol+` = $1 ORDER BY created_at, id`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		row := new(alertRow)
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, err
		}
		a, err := fromAlertRow(row)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Store) UpdateAlert(ctx context.Context, a *alert.Alert) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE kovr_alerts SET
			subscription_id = $2, profile_id = $3, channel = $4,
			days_before = $5, enabled = $6, last_sent_at = $7,
			created_at = $8, updated_at = $9
		WHERE id = $1`,
		alertArgs(a)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

func (s *Store) DeleteAlert(ctx context.Context, alertID id.AlertID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM kovr_alerts WHERE id = $1`, alertID.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

func (s *Store) MarkAlertSent(ctx context.Context, alertID id.AlertID, sentAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE kovr_alerts SET last_sent_at = $2, updated_at = $2 WHERE id = $1`,
		alertID.String(), sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

// isNoRows checks for the pgx no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isDuplicate checks for a unique-constraint violation.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
