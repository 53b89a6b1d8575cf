// Package observability provides a metrics extension for Kovr that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/kovrhq/kovr/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionUpdated = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionDeleted = (*MetricsExtension)(nil)
	_ plugin.OnFamilyCreated       = (*MetricsExtension)(nil)
	_ plugin.OnInviteCreated       = (*MetricsExtension)(nil)
	_ plugin.OnInviteAccepted      = (*MetricsExtension)(nil)
	_ plugin.OnMemberRemoved       = (*MetricsExtension)(nil)
	_ plugin.OnAlertQueued         = (*MetricsExtension)(nil)
	_ plugin.OnAlertsDispatched    = (*MetricsExtension)(nil)
	_ plugin.OnReportBuilt         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Kovr plugin to automatically track tracker activity.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	SubscriptionCreated Counter
	SubscriptionUpdated Counter
	SubscriptionDeleted Counter

	// Family metrics
	FamilyCreated  Counter
	InviteCreated  Counter
	InviteAccepted Counter
	MemberRemoved  Counter

	// Alert metrics
	AlertsQueued         Counter
	AlertsDispatched     Counter
	AlertDispatchLatency Histogram

	// Report metrics
	ReportsBuilt Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Subscription metrics
		SubscriptionCreated: factory.Counter("kovr.subscription.created"),
		SubscriptionUpdated: factory.Counter("kovr.subscription.updated"),
		SubscriptionDeleted: factory.Counter("kovr.subscription.deleted"),

		// Family metrics
		FamilyCreated:  factory.Counter("kovr.family.created"),
		InviteCreated:  factory.Counter("kovr.family.invite.created"),
		InviteAccepted: factory.Counter("kovr.family.invite.accepted"),
		MemberRemoved:  factory.Counter("kovr.family.member.removed"),

		// Alert metrics
		AlertsQueued:         factory.Counter("kovr.alert.queued"),
		AlertsDispatched:     factory.Counter("kovr.alert.dispatched"),
		AlertDispatchLatency: factory.Histogram("kovr.alert.dispatch.latency_ms"),

		// Report metrics
		ReportsBuilt: factory.Counter("kovr.report.built"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ interface{}) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionUpdated implements plugin.OnSubscriptionUpdated.
func (m *MetricsExtension) OnSubscriptionUpdated(_ context.Context, _ interface{}) error {
	m.SubscriptionUpdated.Inc()
	return nil
}

// OnSubscriptionDeleted implements plugin.OnSubscriptionDeleted.
func (m *MetricsExtension) OnSubscriptionDeleted(_ context.Context, _ string) error {
	m.SubscriptionDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Family lifecycle hooks
// ──────────────────────────────────────────────────

// OnFamilyCreated implements plugin.OnFamilyCreated.
func (m *MetricsExtension) OnFamilyCreated(_ context.Context, _ interface{}) error {
	m.FamilyCreated.Inc()
	return nil
}

// OnInviteCreated implements plugin.OnInviteCreated.
func (m *MetricsExtension) OnInviteCreated(_ context.Context, _ interface{}) error {
	m.InviteCreated.Inc()
	return nil
}

// OnInviteAccepted implements plugin.OnInviteAccepted.
func (m *MetricsExtension) OnInviteAccepted(_ context.Context, _, _ interface{}) error {
	m.InviteAccepted.Inc()
	return nil
}

// OnMemberRemoved implements plugin.OnMemberRemoved.
func (m *MetricsExtension) OnMemberRemoved(_ context.Context, _, _ string) error {
	m.MemberRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Alert lifecycle hooks
// ──────────────────────────────────────────────────

// OnAlertQueued implements plugin.OnAlertQueued.
func (m *MetricsExtension) OnAlertQueued(_ context.Context, _ interface{}) error {
	m.AlertsQueued.Inc()
	return nil
}

// OnAlertsDispatched implements plugin.OnAlertsDispatched.
func (m *MetricsExtension) OnAlertsDispatched(_ context.Context, count int, elapsed time.Duration) error {
	m.AlertsDispatched.Add(float64(count))
	m.AlertDispatchLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Report lifecycle hooks
// ──────────────────────────────────────────────────

// OnReportBuilt implements plugin.OnReportBuilt.
func (m *MetricsExtension) OnReportBuilt(_ context.Context, _ interface{}) error {
	m.ReportsBuilt.Inc()
	return nil
}
