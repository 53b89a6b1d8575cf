package store

import (
	"context"
	"time"

	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	"github.com/kovrhq/kovr/subscription"
)

// Store is the unified storage interface for all Kovr entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	ListSubscriptionsByProfile(ctx context.Context, profileID id.ProfileID, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	ListSubscriptionsByFamily(ctx context.Context, familyID id.FamilyID, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error
	DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error

	// Profile methods
	CreateProfile(ctx context.Context, p *profile.Profile) error
	GetProfile(ctx context.Context, profileID id.ProfileID) (*profile.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, p *profile.Profile) error
	DeleteProfile(ctx context.Context, profileID id.ProfileID) error

	// Family methods
	CreateFamily(ctx context.Context, f *family.Family) error
	GetFamily(ctx context.Context, familyID id.FamilyID) (*family.Family, error)
	DeleteFamily(ctx context.Context, familyID id.FamilyID) error
	AddMember(ctx context.Context, m *family.Member) error
	GetMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) (*family.Member, error)
	ListMembers(ctx context.Context, familyID id.FamilyID) ([]*family.Member, error)
	RemoveMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) error
	CreateInvite(ctx context.Context, inv *family.Invite) error
	GetInviteByCode(ctx context.Context, code string) (*family.Invite, error)
	ListInvites(ctx context.Context, familyID id.FamilyID) ([]*family.Invite, error)
	UpdateInvite(ctx context.Context, inv *family.Invite) error

	// Alert methods
	CreateAlert(ctx context.Context, a *alert.Alert) error
	GetAlert(ctx context.Context, alertID id.AlertID) (*alert.Alert, error)
	ListAlertsByProfile(ctx context.Context, profileID id.ProfileID) ([]*alert.Alert, error)
	ListAlertsBySubscription(ctx context.Context, subID id.SubscriptionID) ([]*alert.Alert, error)
	UpdateAlert(ctx context.Context, a *alert.Alert) error
	DeleteAlert(ctx context.Context, alertID id.AlertID) error
	MarkAlertSent(ctx context.Context, alertID id.AlertID, sentAt time.Time) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
