// Package plugin provides an extensible plugin system for Kovr.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, tracker interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a new subscription is recorded.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub interface{}) error
}

// OnSubscriptionUpdated is called when a subscription is updated,
// including anchor-date advancement.
type OnSubscriptionUpdated interface {
	Plugin
	OnSubscriptionUpdated(ctx context.Context, sub interface{}) error
}

// OnSubscriptionDeleted is called when a subscription is removed.
type OnSubscriptionDeleted interface {
	Plugin
	OnSubscriptionDeleted(ctx context.Context, subID string) error
}

// ──────────────────────────────────────────────────
// Family sharing hooks
// ──────────────────────────────────────────────────

// OnFamilyCreated is called when a family group is created.
type OnFamilyCreated interface {
	Plugin
	OnFamilyCreated(ctx context.Context, fam interface{}) error
}

// OnInviteCreated is called when a family invite is issued.
type OnInviteCreated interface {
	Plugin
	OnInviteCreated(ctx context.Context, inv interface{}) error
}

// OnInviteAccepted is called when a family invite is accepted.
type OnInviteAccepted interface {
	Plugin
	OnInviteAccepted(ctx context.Context, inv interface{}, member interface{}) error
}

// OnMemberRemoved is called when a member leaves or is removed from a family.
type OnMemberRemoved interface {
	Plugin
	OnMemberRemoved(ctx context.Context, familyID, profileID string) error
}

// ──────────────────────────────────────────────────
// Alert hooks
// ──────────────────────────────────────────────────

// OnAlertQueued is called when a reminder message enters the dispatch queue.
type OnAlertQueued interface {
	Plugin
	OnAlertQueued(ctx context.Context, msg interface{}) error
}

// OnAlertsDispatched is called after a batch of reminders is delivered.
type OnAlertsDispatched interface {
	Plugin
	OnAlertsDispatched(ctx context.Context, count int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Reporting hooks
// ──────────────────────────────────────────────────

// OnReportBuilt is called when a monthly spend summary is built.
type OnReportBuilt interface {
	Plugin
	OnReportBuilt(ctx context.Context, summary interface{}) error
}

// ──────────────────────────────────────────────────
// Delivery extensions
// ──────────────────────────────────────────────────

// DispatcherPlugin provides a reminder delivery channel implementation.
type DispatcherPlugin interface {
	Plugin
	ChannelName() string
	Dispatcher() interface{} // Returns alert.Dispatcher
}
