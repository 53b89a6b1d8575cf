package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// ==================== Subscription rows ====================

// subscriptionColumns normalizes legacy renewal_date / billing_type columns
// to the canonical names on read, same as the postgres driver.
const subscriptionColumns = `
	id, profile_id, COALESCE(family_id, ''), name, amount, currency,
	COALESCE(NULLIF(billing_cycle, ''), billing_type, 'monthly'),
	COALESCE(NULLIF(next_payment, ''), renewal_date, ''),
	end_date, status, category, website, notes, metadata,
	created_at, updated_at`

type subscriptionRow struct {
	ID           string
	ProfileID    string
	FamilyID     string
	Name         string
	Amount       int64
	Currency     string
	BillingCycle string
	NextPayment  string
	EndDate      string
	Status       string
	Category     string
	Website      string
	Notes        string
	Metadata     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *subscriptionRow) fields() []any {
	return []any{
		&r.ID, &r.ProfileID, &r.FamilyID, &r.Name, &r.Amount, &r.Currency,
		&r.BillingCycle, &r.NextPayment, &r.EndDate, &r.Status, &r.Category,
		&r.Website, &r.Notes, &r.Metadata, &r.CreatedAt, &r.UpdatedAt,
	}
}

func fromSubscriptionRow(r *subscriptionRow) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(r.ID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(r.ProfileID)
	if err != nil {
		return nil, err
	}
	var familyID id.FamilyID
	if r.FamilyID != "" {
		familyID, err = id.ParseFamilyID(r.FamilyID)
		if err != nil {
			return nil, err
		}
	}

	var metadata map[string]string
	if r.Metadata != "" && r.Metadata != "null" {
		_ = json.Unmarshal([]byte(r.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:           subID,
		ProfileID:    profileID,
		FamilyID:     familyID,
		Name:         r.Name,
		Amount:       types.New(r.Amount, r.Currency),
		BillingCycle: subscription.BillingCycle(r.BillingCycle),
		NextPayment:  r.NextPayment,
		EndDate:      r.EndDate,
		Status:       subscription.Status(r.Status),
		Category:     r.Category,
		Website:      r.Website,
		Notes:        r.Notes,
		Metadata:     metadata,
	}, nil
}

func subscriptionArgs(s *subscription.Subscription) []any {
	var familyID any
	if !s.FamilyID.IsNil() {
		familyID = s.FamilyID.String()
	}
	metadata, _ := json.Marshal(s.Metadata) //nolint:errcheck // best-effort

	return []any{
		s.ID.String(), s.ProfileID.String(), familyID, s.Name,
		s.Amount.Amount, s.Amount.Currency, string(s.BillingCycle),
		s.NextPayment, s.EndDate, string(s.Status), s.Category,
		s.Website, s.Notes, string(metadata), s.CreatedAt, s.UpdatedAt,
	}
}

// ==================== Profile rows ====================

const profileColumns = `
	id, display_name, email, telegram_chat_id, default_currency,
	alert_days_before, alerts_enabled, created_at, updated_at`

type profileRow struct {
	ID              string
	DisplayName     string
	Email           string
	TelegramChatID  int64
	DefaultCurrency string
	AlertDaysBefore int
	AlertsEnabled   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *profileRow) fields() []any {
	return []any{
		&r.ID, &r.DisplayName, &r.Email, &r.TelegramChatID, &r.DefaultCurrency,
		&r.AlertDaysBefore, &r.AlertsEnabled, &r.CreatedAt, &r.UpdatedAt,
	}
}

func fromProfileRow(r *profileRow) (*profile.Profile, error) {
	profileID, err := id.ParseProfileID(r.ID)
	if err != nil {
		return nil, err
	}
	return &profile.Profile{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:              profileID,
		DisplayName:     r.DisplayName,
		Email:           r.Email,
		TelegramChatID:  r.TelegramChatID,
		DefaultCurrency: r.DefaultCurrency,
		AlertDaysBefore: r.AlertDaysBefore,
		AlertsEnabled:   r.AlertsEnabled,
	}, nil
}

func profileArgs(p *profile.Profile) []any {
	return []any{
		p.ID.String(), p.DisplayName, p.Email, p.TelegramChatID,
		p.DefaultCurrency, p.AlertDaysBefore, p.AlertsEnabled,
		p.CreatedAt, p.UpdatedAt,
	}
}

// ==================== Family rows ====================

const familyColumns = `id, name, owner_id, created_at, updated_at`

type familyRow struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *familyRow) fields() []any {
	return []any{&r.ID, &r.Name, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt}
}

func fromFamilyRow(r *familyRow) (*family.Family, error) {
	familyID, err := id.ParseFamilyID(r.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseProfileID(r.OwnerID)
	if err != nil {
		return nil, err
	}
	return &family.Family{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:      familyID,
		Name:    r.Name,
		OwnerID: ownerID,
	}, nil
}

const memberColumns = `id, family_id, profile_id, role, created_at, updated_at`

type memberRow struct {
	ID        string
	FamilyID  string
	ProfileID string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *memberRow) fields() []any {
	return []any{&r.ID, &r.FamilyID, &r.ProfileID, &r.Role, &r.CreatedAt, &r.UpdatedAt}
}

func fromMemberRow(r *memberRow) (*family.Member, error) {
	memberID, err := id.ParseMemberID(r.ID)
	if err != nil {
		return nil, err
	}
	familyID, err := id.ParseFamilyID(r.FamilyID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(r.ProfileID)
	if err != nil {
		return nil, err
	}
	return &family.Member{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:        memberID,
		FamilyID:  familyID,
		ProfileID: profileID,
		Role:      family.Role(r.Role),
	}, nil
}

const inviteColumns = `
	id, family_id, inviter_id, code, status, expires_at,
	COALESCE(accepted_by, ''), accepted_at, created_at, updated_at`

type inviteRow struct {
	ID         string
	FamilyID   string
	InviterID  string
	Code       string
	Status     string
	ExpiresAt  time.Time
	AcceptedBy string
	AcceptedAt sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *inviteRow) fields() []any {
	return []any{
		&r.ID, &r.FamilyID, &r.InviterID, &r.Code, &r.Status, &r.ExpiresAt,
		&r.AcceptedBy, &r.AcceptedAt, &r.CreatedAt, &r.UpdatedAt,
	}
}

func fromInviteRow(r *inviteRow) (*family.Invite, error) {
	inviteID, err := id.ParseInviteID(r.ID)
	if err != nil {
		return nil, err
	}
	familyID, err := id.ParseFamilyID(r.FamilyID)
	if err != nil {
		return nil, err
	}
	inviterID, err := id.ParseProfileID(r.InviterID)
	if err != nil {
		return nil, err
	}
	var acceptedBy id.ProfileID
	if r.AcceptedBy != "" {
		acceptedBy, err = id.ParseProfileID(r.AcceptedBy)
		if err != nil {
			return nil, err
		}
	}
	var acceptedAt *time.Time
	if r.AcceptedAt.Valid {
		t := r.AcceptedAt.Time
		acceptedAt = &t
	}
	return &family.Invite{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:         inviteID,
		FamilyID:   familyID,
		InviterID:  inviterID,
		Code:       r.Code,
		Status:     family.InviteStatus(r.Status),
		ExpiresAt:  r.ExpiresAt,
		AcceptedBy: acceptedBy,
		AcceptedAt: acceptedAt,
	}, nil
}

func inviteArgs(inv *family.Invite) []any {
	var acceptedBy any
	if !inv.AcceptedBy.IsNil() {
		acceptedBy = inv.AcceptedBy.String()
	}
	return []any{
		inv.ID.String(), inv.FamilyID.String(), inv.InviterID.String(),
		inv.Code, string(inv.Status), inv.ExpiresAt, acceptedBy,
		inv.AcceptedAt, inv.CreatedAt, inv.UpdatedAt,
	}
}

// ==================== Alert rows ====================

const alertColumns = `
	id, subscription_id, profile_id, channel, days_before, enabled,
	last_sent_at, created_at, updated_at`

type alertRow struct {
	ID             string
	SubscriptionID string
	ProfileID      string
	Channel        string
	DaysBefore     int
	Enabled        bool
	LastSentAt     sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *alertRow) fields() []any {
	return []any{
		&r.ID, &r.SubscriptionID, &r.ProfileID, &r.Channel, &r.DaysBefore,
		&r.Enabled, &r.LastSentAt, &r.CreatedAt, &r.UpdatedAt,
	}
}

func fromAlertRow(r *alertRow) (*alert.Alert, error) {
	alertID, err := id.ParseAlertID(r.ID)
	if err != nil {
		return nil, err
	}
	subID, err := id.ParseSubscriptionID(r.SubscriptionID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(r.ProfileID)
	if err != nil {
		return nil, err
	}
	var lastSentAt *time.Time
	if r.LastSentAt.Valid {
		t := r.LastSentAt.Time
		lastSentAt = &t
	}
	return &alert.Alert{
		Entity: types.Entity{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ID:             alertID,
		SubscriptionID: subID,
		ProfileID:      profileID,
		Channel:        alert.Channel(r.Channel),
		DaysBefore:     r.DaysBefore,
		Enabled:        r.Enabled,
		LastSentAt:     lastSentAt,
	}, nil
}

func alertArgs(a *alert.Alert) []any {
	return []any{
		a.ID.String(), a.SubscriptionID.String(), a.ProfileID.String(),
		string(a.Channel), a.DaysBefore, a.Enabled, a.LastSentAt,
		a.CreatedAt, a.UpdatedAt,
	}
}
