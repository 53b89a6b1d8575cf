package mongo

import (
	"time"

	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// ==================== Subscription models ====================

// subscriptionModel carries both the canonical field names and the legacy
// ones (renewal_date, billing_type) written by older deployments. Writes
// always use the canonical names; fromSubscriptionModel falls back to the
// legacy fields when the canonical ones are empty.
type subscriptionModel struct {
	ID           string            `bson:"_id"`
	ProfileID    string            `bson:"profile_id"`
	FamilyID     string            `bson:"family_id,omitempty"`
	Name         string            `bson:"name"`
	Amount       int64             `bson:"amount"`
	Currency     string            `bson:"currency"`
	BillingCycle string            `bson:"billing_cycle,omitempty"`
	BillingType  string            `bson:"billing_type,omitempty"`
	NextPayment  string            `bson:"next_payment,omitempty"`
	RenewalDate  string            `bson:"renewal_date,omitempty"`
	EndDate      string            `bson:"end_date,omitempty"`
	Status       string            `bson:"status"`
	Category     string            `bson:"category,omitempty"`
	Website      string            `bson:"website,omitempty"`
	Notes        string            `bson:"notes,omitempty"`
	Metadata     map[string]string `bson:"metadata,omitempty"`
	CreatedAt    time.Time         `bson:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	var familyID string
	if !s.FamilyID.IsNil() {
		familyID = s.FamilyID.String()
	}
	return &subscriptionModel{
		ID:           s.ID.String(),
		ProfileID:    s.ProfileID.String(),
		FamilyID:     familyID,
		Name:         s.Name,
		Amount:       s.Amount.Amount,
		Currency:     s.Amount.Currency,
		BillingCycle: string(s.BillingCycle),
		NextPayment:  s.NextPayment,
		EndDate:      s.EndDate,
		Status:       string(s.Status),
		Category:     s.Category,
		Website:      s.Website,
		Notes:        s.Notes,
		Metadata:     s.Metadata,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(m.ProfileID)
	if err != nil {
		return nil, err
	}
	var familyID id.FamilyID
	if m.FamilyID != "" {
		familyID, err = id.ParseFamilyID(m.FamilyID)
		if err != nil {
			return nil, err
		}
	}

	cycle := m.BillingCycle
	if cycle == "" {
		cycle = m.BillingType
	}
	if cycle == "" {
		cycle = string(subscription.CycleMonthly)
	}
	anchor := m.NextPayment
	if anchor == "" {
		anchor = m.RenewalDate
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           subID,
		ProfileID:    profileID,
		FamilyID:     familyID,
		Name:         m.Name,
		Amount:       types.New(m.Amount, m.Currency),
		BillingCycle: subscription.BillingCycle(cycle),
		NextPayment:  anchor,
		EndDate:      m.EndDate,
		Status:       subscription.Status(m.Status),
		Category:     m.Category,
		Website:      m.Website,
		Notes:        m.Notes,
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Profile models ====================

type profileModel struct {
	ID              string    `bson:"_id"`
	DisplayName     string    `bson:"display_name"`
	Email           string    `bson:"email,omitempty"`
	TelegramChatID  int64     `bson:"telegram_chat_id,omitempty"`
	DefaultCurrency string    `bson:"default_currency"`
	AlertDaysBefore int       `bson:"alert_days_before"`
	AlertsEnabled   bool      `bson:"alerts_enabled"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toProfileModel(p *profile.Profile) *profileModel {
	return &profileModel{
		ID:              p.ID.String(),
		DisplayName:     p.DisplayName,
		Email:           p.Email,
		TelegramChatID:  p.TelegramChatID,
		DefaultCurrency: p.DefaultCurrency,
		AlertDaysBefore: p.AlertDaysBefore,
		AlertsEnabled:   p.AlertsEnabled,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromProfileModel(m *profileModel) (*profile.Profile, error) {
	profileID, err := id.ParseProfileID(m.ID)
	if err != nil {
		return nil, err
	}
	return &profile.Profile{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              profileID,
		DisplayName:     m.DisplayName,
		Email:           m.Email,
		TelegramChatID:  m.TelegramChatID,
		DefaultCurrency: m.DefaultCurrency,
		AlertDaysBefore: m.AlertDaysBefore,
		AlertsEnabled:   m.AlertsEnabled,
	}, nil
}

// ==================== Family models ====================

type familyModel struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	OwnerID   string    `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toFamilyModel(f *family.Family) *familyModel {
	return &familyModel{
		ID:        f.ID.String(),
		Name:      f.Name,
		OwnerID:   f.OwnerID.String(),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func fromFamilyModel(m *familyModel) (*family.Family, error) {
	familyID, err := id.ParseFamilyID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseProfileID(m.OwnerID)
	if err != nil {
		return nil, err
	}
	return &family.Family{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      familyID,
		Name:    m.Name,
		OwnerID: ownerID,
	}, nil
}

type memberModel struct {
	ID        string    `bson:"_id"`
	FamilyID  string    `bson:"family_id"`
	ProfileID string    `bson:"profile_id"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toMemberModel(m *family.Member) *memberModel {
	return &memberModel{
		ID:        m.ID.String(),
		FamilyID:  m.FamilyID.String(),
		ProfileID: m.ProfileID.String(),
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromMemberModel(m *memberModel) (*family.Member, error) {
	memberID, err := id.ParseMemberID(m.ID)
	if err != nil {
		return nil, err
	}
	familyID, err := id.ParseFamilyID(m.FamilyID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(m.ProfileID)
	if err != nil {
		return nil, err
	}
	return &family.Member{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        memberID,
		FamilyID:  familyID,
		ProfileID: profileID,
		Role:      family.Role(m.Role),
	}, nil
}

type inviteModel struct {
	ID         string     `bson:"_id"`
	FamilyID   string     `bson:"family_id"`
	InviterID  string     `bson:"inviter_id"`
	Code       string     `bson:"code"`
	Status     string     `bson:"status"`
	ExpiresAt  time.Time  `bson:"expires_at"`
	AcceptedBy string     `bson:"accepted_by,omitempty"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func toInviteModel(inv *family.Invite) *inviteModel {
	var acceptedBy string
	if !inv.AcceptedBy.IsNil() {
		acceptedBy = inv.AcceptedBy.String()
	}
	return &inviteModel{
		ID:         inv.ID.String(),
		FamilyID:   inv.FamilyID.String(),
		InviterID:  inv.InviterID.String(),
		Code:       inv.Code,
		Status:     string(inv.Status),
		ExpiresAt:  inv.ExpiresAt,
		AcceptedBy: acceptedBy,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}

func fromInviteModel(m *inviteModel) (*family.Invite, error) {
	inviteID, err := id.ParseInviteID(m.ID)
	if err != nil {
		return nil, err
	}
	familyID, err := id.ParseFamilyID(m.FamilyID)
	if err != nil {
		return nil, err
	}
	inviterID, err := id.ParseProfileID(m.InviterID)
	if err != nil {
		return nil, err
	}
	var acceptedBy id.ProfileID
	if m.AcceptedBy != "" {
		acceptedBy, err = id.ParseProfileID(m.AcceptedBy)
		if err != nil {
			return nil, err
		}
	}
	return &family.Invite{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         inviteID,
		FamilyID:   familyID,
		InviterID:  inviterID,
		Code:       m.Code,
		Status:     family.InviteStatus(m.Status),
		ExpiresAt:  m.ExpiresAt,
		AcceptedBy: acceptedBy,
		AcceptedAt: m.AcceptedAt,
	}, nil
}

// ==================== Alert models ====================

type alertModel struct {
	ID             string     `bson:"_id"`
	SubscriptionID string     `bson:"subscription_id"`
	ProfileID      string     `bson:"profile_id"`
	Channel        string     `bson:"channel"`
	DaysBefore     int        `bson:"days_before"`
	Enabled        bool       `bson:"enabled"`
	LastSentAt     *time.Time `bson:"last_sent_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toAlertModel(a *alert.Alert) *alertModel {
	return &alertModel{
		ID:             a.ID.String(),
		SubscriptionID: a.SubscriptionID.String(),
		ProfileID:      a.ProfileID.String(),
		Channel:        string(a.Channel),
		DaysBefore:     a.DaysBefore,
		Enabled:        a.Enabled,
		LastSentAt:     a.LastSentAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func fromAlertModel(m *alertModel) (*alert.Alert, error) {
	alertID, err := id.ParseAlertID(m.ID)
	if err != nil {
		return nil, err
	}
	subID, err := id.ParseSubscriptionID(m.SubscriptionID)
	if err != nil {
		return nil, err
	}
	profileID, err := id.ParseProfileID(m.ProfileID)
	if err != nil {
		return nil, err
	}
	return &alert.Alert{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             alertID,
		SubscriptionID: subID,
		ProfileID:      profileID,
		Channel:        alert.Channel(m.Channel),
		DaysBefore:     m.DaysBefore,
		Enabled:        m.Enabled,
		LastSentAt:     m.LastSentAt,
	}, nil
}
