// Package sqlite implements the Kovr store on SQLite via database/sql and
// the modernc.org/sqlite driver (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

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

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store on an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the database file at path. Use ":memory:" for an
// ephemeral database. SQLite allows a single writer, so the pool is capped
// at one connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kovr/sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Subscription store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_subscriptions (
			id, profile_id, family_id, name, amount, currency, billing_cycle,
			next_payment, end_date, status, category, website, notes, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscriptionArgs(sub)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	row := new(subscriptionRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM kovr_subscriptions WHERE id = ?`,
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
	query := `SELECT ` + subscriptionColumns + ` FROM kovr_subscriptions WHERE ` + ownerCol + ` = ?`
	args := []any{ownerID}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.Category != "" {
		query += " AND category = ?"
		args = append(args, opts.Category)
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	args := subscriptionArgs(sub)
	// Move id to the end for the WHERE clause.
	args = append(args[1:], args[0])
	res, err := s.db.ExecContext(ctx, `
		UPDATE kovr_subscriptions SET
			profile_id = ?, family_id = ?, name = ?, amount = ?,
			currency = ?, billing_cycle = ?, next_payment = ?, end_date = ?,
			status = ?, category = ?, website = ?, notes = ?,
			metadata = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		args...)
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrSubscriptionNotFound)
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_subscriptions WHERE id = ?`, subID.String())
	if err != nil {
		return err
	}
	if err := checkAffected(res, kovr.ErrSubscriptionNotFound); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM kovr_alerts WHERE subscription_id = ?`, subID.String())
	return err
}

// ==================== Profile store ====================

func (s *Store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_profiles (
			id, display_name, email, telegram_chat_id, default_currency,
			alert_days_before, alerts_enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profileArgs(p)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetProfile(ctx context.Context, profileID id.ProfileID) (*profile.Profile, error) {
	row := new(profileRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM kovr_profiles WHERE id = ?`,
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
	err := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM kovr_profiles WHERE email = ?`,
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
	args := profileArgs(p)
	args = append(args[1:], args[0])
	res, err := s.db.ExecContext(ctx, `
		UPDATE kovr_profiles SET
			display_name = ?, email = ?, telegram_chat_id = ?,
			default_currency = ?, alert_days_before = ?, alerts_enabled = ?,
			created_at = ?, updated_at = ?
		WHERE id = ?`,
		args...)
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrProfileNotFound)
}

func (s *Store) DeleteProfile(ctx context.Context, profileID id.ProfileID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_profiles WHERE id = ?`, profileID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrProfileNotFound)
}

// ==================== Family store ====================

func (s *Store) CreateFamily(ctx context.Context, f *family.Family) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_families (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID.String(), f.Name, f.OwnerID.String(), f.CreatedAt, f.UpdatedAt)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetFamily(ctx context.Context, familyID id.FamilyID) (*family.Family, error) {
	row := new(familyRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+familyColumns+` FROM kovr_families WHERE id = ?`,
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
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_families WHERE id = ?`, familyID.String())
	if err != nil {
		return err
	}
	if err := checkAffected(res, kovr.ErrFamilyNotFound); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_family_members WHERE family_id = ?`, familyID.String()); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM kovr_family_invites WHERE family_id = ?`, familyID.String())
	return err
}

func (s *Store) AddMember(ctx context.Context, m *family.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_family_members (id, family_id, profile_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.FamilyID.String(), m.ProfileID.String(),
		string(m.Role), m.CreatedAt, m.UpdatedAt)
	if isDuplicate(err) {
		return kovr.ErrAlreadyMember
	}
	return err
}

func (s *Store) GetMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) (*family.Member, error) {
	row := new(memberRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM kovr_family_members WHERE family_id = ? AND profile_id = ?`,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM kovr_family_members WHERE family_id = ? ORDER BY created_at, id`,
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
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_family_members WHERE family_id = ? AND profile_id = ?`,
		familyID.String(), profileID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrMemberNotFound)
}

func (s *Store) CreateInvite(ctx context.Context, inv *family.Invite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_family_invites (
			id, family_id, inviter_id, code, status, expires_at,
			accepted_by, accepted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inviteArgs(inv)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetInviteByCode(ctx context.Context, code string) (*family.Invite, error) {
	row := new(inviteRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM kovr_family_invites WHERE code = ?`,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM kovr_family_invites WHERE family_id = ? ORDER BY created_at, id`,
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
	args := inviteArgs(inv)
	args = append(args[1:], args[0])
	res, err := s.db.ExecContext(ctx, `
		UPDATE kovr_family_invites SET
			family_id = ?, inviter_id = ?, code = ?, status = ?,
			expires_at = ?, accepted_by = ?, accepted_at = ?,
			created_at = ?, updated_at = ?
		WHERE id = ?`,
		args...)
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrInviteNotFound)
}

// ==================== Alert store ====================

func (s *Store) CreateAlert(ctx context.Context, a *alert.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kovr_alerts (
			id, subscription_id, profile_id, channel, days_before, enabled,
			last_sent_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alertArgs(a)...)
	if isDuplicate(err) {
		return kovr.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetAlert(ctx context.Context, alertID id.AlertID) (*alert.Alert, error) {
	row := new(alertRow)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM kovr_alerts WHERE id = ?`,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM kovr_alerts WHERE `+ownerCol+` = ? ORDER BY created_at, id`,
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
	args := alertArgs(a)
	args = append(args[1:], args[0])
	res, err := s.db.ExecContext(ctx, `
		UPDATE kovr_alerts SET
			subscription_id = ?, profile_id = ?, channel = ?,
			days_before = ?, enabled = ?, last_sent_at = ?,
			created_at = ?, updated_at = ?
		WHERE id = ?`,
		args...)
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrAlertNotFound)
}

func (s *Store) DeleteAlert(ctx context.Context, alertID id.AlertID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kovr_alerts WHERE id = ?`, alertID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrAlertNotFound)
}

func (s *Store) MarkAlertSent(ctx context.Context, alertID id.AlertID, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kovr_alerts SET last_sent_at = ?, updated_at = ? WHERE id = ?`,
		sentAt, sentAt, alertID.String())
	if err != nil {
		return err
	}
	return checkAffected(res, kovr.ErrAlertNotFound)
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isDuplicate checks for a unique or primary key constraint violation.
func isDuplicate(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
