// Package audithook bridges Kovr lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on any
// particular audit system. Callers inject a RecorderFunc adapter that bridges
// to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kovrhq/kovr/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated = (*Extension)(nil)
	_ plugin.OnSubscriptionUpdated = (*Extension)(nil)
	_ plugin.OnSubscriptionDeleted = (*Extension)(nil)
	_ plugin.OnFamilyCreated       = (*Extension)(nil)
	_ plugin.OnInviteCreated       = (*Extension)(nil)
	_ plugin.OnInviteAccepted      = (*Extension)(nil)
	_ plugin.OnMemberRemoved       = (*Extension)(nil)
	_ plugin.OnAlertsDispatched    = (*Extension)(nil)
	_ plugin.OnReportBuilt         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Kovr lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, "", CategoryTracking, nil,
		"event", "subscription_created",
	)
}

// OnSubscriptionUpdated implements plugin.OnSubscriptionUpdated.
func (e *Extension) OnSubscriptionUpdated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSubscriptionUpdated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, "", CategoryTracking, nil,
		"event", "subscription_updated",
	)
}

// OnSubscriptionDeleted implements plugin.OnSubscriptionDeleted.
func (e *Extension) OnSubscriptionDeleted(ctx context.Context, subID string) error {
	return e.record(ctx, ActionSubscriptionDeleted, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, subID, CategoryTracking, nil,
		"subscription_id", subID,
	)
}

// ──────────────────────────────────────────────────
// Family lifecycle hooks
// ──────────────────────────────────────────────────

// OnFamilyCreated implements plugin.OnFamilyCreated.
func (e *Extension) OnFamilyCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionFamilyCreated, SeverityInfo, OutcomeSuccess,
		ResourceFamily, "", CategorySharing, nil,
		"event", "family_created",
	)
}

// OnInviteCreated implements plugin.OnInviteCreated.
func (e *Extension) OnInviteCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInviteCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvite, "", CategorySharing, nil,
		"event", "invite_created",
	)
}

// OnInviteAccepted implements plugin.OnInviteAccepted.
func (e *Extension) OnInviteAccepted(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionInviteAccepted, SeverityInfo, OutcomeSuccess,
		ResourceInvite, "", CategorySharing, nil,
		"event", "invite_accepted",
	)
}

// OnMemberRemoved implements plugin.OnMemberRemoved.
func (e *Extension) OnMemberRemoved(ctx context.Context, familyID, profileID string) error {
	return e.record(ctx, ActionMemberRemoved, SeverityWarning, OutcomeSuccess,
		ResourceMember, profileID, CategorySharing, nil,
		"family_id", familyID,
		"profile_id", profileID,
	)
}

// ──────────────────────────────────────────────────
// Alert and report lifecycle hooks
// ──────────────────────────────────────────────────

// OnAlertsDispatched implements plugin.OnAlertsDispatched.
func (e *Extension) OnAlertsDispatched(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionAlertsDispatched, SeverityInfo, OutcomeSuccess,
		ResourceAlert, "", CategoryReminder, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnReportBuilt implements plugin.OnReportBuilt.
func (e *Extension) OnReportBuilt(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionReportBuilt, SeverityInfo, OutcomeSuccess,
		ResourceReport, "", CategoryReport, nil,
		"event", "report_built",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
