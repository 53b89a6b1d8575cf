package kovr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/plugin"
	"github.com/kovrhq/kovr/profile"
	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/report"
	"github.com/kovrhq/kovr/store"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// Tracker is the main subscription-tracking engine.
type Tracker struct {
	store       store.Store
	plugins     *plugin.Registry
	logger      *slog.Logger
	dispatchers map[alert.Channel]alert.Dispatcher

	// Background workers
	alertQueue chan *alert.Message
	stopChan   chan struct{}
	wg         sync.WaitGroup

	// Configuration
	alertBatchSize     int
	alertFlushInterval time.Duration
	inviteTTL          time.Duration
}

// New creates a new Tracker instance.
func New(s store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		dispatchers:        make(map[alert.Channel]alert.Dispatcher),
		alertQueue:         make(chan *alert.Message, 1000),
		stopChan:           make(chan struct{}),
		alertBatchSize:     50,
		alertFlushInterval: 30 * time.Second,
		inviteTTL:          7 * 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Option configures a Tracker instance.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Tracker) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithDispatcher installs a delivery channel for reminders.
func WithDispatcher(channel alert.Channel, d alert.Dispatcher) Option {
	return func(t *Tracker) {
		t.dispatchers[channel] = d
	}
}

// WithAlertConfig configures reminder dispatch parameters.
func WithAlertConfig(batchSize int, flushInterval time.Duration) Option {
	return func(t *Tracker) {
		t.alertBatchSize = batchSize
		t.alertFlushInterval = flushInterval
	}
}

// WithInviteTTL sets how long family invites stay usable.
func WithInviteTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		t.inviteTTL = ttl
	}
}

// Start begins background workers.
func (t *Tracker) Start(ctx context.Context) error {
	// Migrate database
	if err := t.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	t.plugins.EmitInit(ctx, t)

	// Start alert dispatch worker
	t.wg.Add(1)
	go t.alertFlushWorker(ctx)

	t.logger.Info("tracker started",
		"alert_batch_size", t.alertBatchSize,
		"alert_flush_interval", t.alertFlushInterval,
		"invite_ttl", t.inviteTTL,
	)

	return nil
}

// Stop shuts down the Tracker.
func (t *Tracker) Stop() error {
	close(t.stopChan)
	t.wg.Wait()

	ctx := context.Background()
	t.plugins.EmitShutdown(ctx)

	return t.store.Close()
}

// ──────────────────────────────────────────────────
// Subscription Management
// ──────────────────────────────────────────────────

// AddSubscription records a new subscription.
func (t *Tracker) AddSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if sub.Name == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !sub.BillingCycle.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBillingCycle, sub.BillingCycle)
	}
	if _, present, err := sub.Anchor(); present && err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnchorDate, err)
	}

	if sub.ID == (id.SubscriptionID{}) {
		sub.ID = id.NewSubscriptionID()
	}
	if sub.Status == "" {
		sub.Status = subscription.StatusActive
	}
	sub.Entity = types.NewEntity()

	if err := t.store.CreateSubscription(ctx, sub); err != nil {
		return err
	}

	t.plugins.EmitSubscriptionCreated(ctx, sub)
	return nil
}

// GetSubscription retrieves a subscription by ID.
func (t *Tracker) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return t.store.GetSubscription(ctx, subID)
}

// ListSubscriptions lists a profile's subscriptions.
func (t *Tracker) ListSubscriptions(ctx context.Context, profileID id.ProfileID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return t.store.ListSubscriptionsByProfile(ctx, profileID, opts)
}

// UpdateSubscription persists changes to a subscription.
func (t *Tracker) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if !sub.BillingCycle.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBillingCycle, sub.BillingCycle)
	}
	if _, present, err := sub.Anchor(); present && err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnchorDate, err)
	}

	sub.Touch()
	if err := t.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	t.plugins.EmitSubscriptionUpdated(ctx, sub)
	return nil
}

// RemoveSubscription deletes a subscription and its alerts.
func (t *Tracker) RemoveSubscription(ctx context.Context, subID id.SubscriptionID) error {
	if err := t.store.DeleteSubscription(ctx, subID); err != nil {
		return err
	}

	t.plugins.EmitSubscriptionDeleted(ctx, subID.String())
	return nil
}

// AdvanceAnchor rolls a subscription's anchor date forward one billing
// cycle and persists it. The projector never does this on its own: after a
// billing date passes, this is how the stored anchor catches up.
func (t *Tracker) AdvanceAnchor(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	sub, err := t.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}

	anchor, present, err := sub.Anchor()
	if !present {
		return nil, fmt.Errorf("%w: subscription has no anchor date", ErrInvalidAnchorDate)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnchorDate, err)
	}

	sub.NextPayment = renewal.NextAnchor(anchor, sub.BillingCycle).String()
	sub.Touch()

	if err := t.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	t.plugins.EmitSubscriptionUpdated(ctx, sub)
	return sub, nil
}

// ──────────────────────────────────────────────────
// Renewal Projection
// ──────────────────────────────────────────────────

// ProjectMonth projects a profile's subscriptions onto a calendar month.
func (t *Tracker) ProjectMonth(ctx context.Context, profileID id.ProfileID, year int, month time.Month, opts ...renewal.Option) ([]renewal.Occurrence, error) {
	subs, err := t.store.ListSubscriptionsByProfile(ctx, profileID, subscription.ListOpts{})
	if err != nil {
		return nil, err
	}

	opts = append(opts, renewal.WithLogger(t.logger))
	return renewal.Project(subs, year, month, opts...), nil
}

// ProjectFamilyMonth projects a family's shared subscriptions onto a month.
func (t *Tracker) ProjectFamilyMonth(ctx context.Context, familyID id.FamilyID, year int, month time.Month, opts ...renewal.Option) ([]renewal.Occurrence, error) {
	subs, err := t.store.ListSubscriptionsByFamily(ctx, familyID, subscription.ListOpts{})
	if err != nil {
		return nil, err
	}

	opts = append(opts, renewal.WithLogger(t.logger))
	return renewal.Project(subs, year, month, opts...), nil
}

// MonthReport builds the spend summary for a profile's month.
func (t *Tracker) MonthReport(ctx context.Context, profileID id.ProfileID, year int, month time.Month, opts ...renewal.Option) (*report.Summary, error) {
	subs, err := t.store.ListSubscriptionsByProfile(ctx, profileID, subscription.ListOpts{})
	if err != nil {
		return nil, err
	}

	opts = append(opts, renewal.WithLogger(t.logger))
	summary := report.BuildMonthly(subs, year, month, opts...)

	t.plugins.EmitReportBuilt(ctx, summary)
	return summary, nil
}

// ──────────────────────────────────────────────────
// Profile Management
// ──────────────────────────────────────────────────

// CreateProfile records a new user profile.
func (t *Tracker) CreateProfile(ctx context.Context, p *profile.Profile) error {
	if p.ID == (id.ProfileID{}) {
		p.ID = id.NewProfileID()
	}
	if p.DefaultCurrency == "" {
		p.DefaultCurrency = "usd"
	}
	p.Entity = types.NewEntity()

	return t.store.CreateProfile(ctx, p)
}

// GetProfile retrieves a profile by ID.
func (t *Tracker) GetProfile(ctx context.Context, profileID id.ProfileID) (*profile.Profile, error) {
	return t.store.GetProfile(ctx, profileID)
}

// ──────────────────────────────────────────────────
// Family Sharing
// ──────────────────────────────────────────────────

// CreateFamily creates a family group with the creator as owner.
func (t *Tracker) CreateFamily(ctx context.Context, name string, ownerID id.ProfileID) (*family.Family, error) {
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	f := &family.Family{
		Entity:  types.NewEntity(),
		ID:      id.NewFamilyID(),
		Name:    name,
		OwnerID: ownerID,
	}
	if err := t.store.CreateFamily(ctx, f); err != nil {
		return nil, err
	}

	owner := &family.Member{
		Entity:    types.NewEntity(),
		ID:        id.NewMemberID(),
		FamilyID:  f.ID,
		ProfileID: ownerID,
		Role:      family.RoleOwner,
	}
	if err := t.store.AddMember(ctx, owner); err != nil {
		return nil, err
	}

	t.plugins.EmitFamilyCreated(ctx, f)
	return f, nil
}

// InviteToFamily issues a single-use invite code. Only owners and admins
// may invite.
func (t *Tracker) InviteToFamily(ctx context.Context, familyID id.FamilyID, inviterID id.ProfileID) (*family.Invite, error) {
	inviter, err := t.store.GetMember(ctx, familyID, inviterID)
	if err != nil {
		return nil, err
	}
	if !inviter.Role.CanManage() {
		return nil, ErrForbidden
	}

	inv := &family.Invite{
		Entity:    types.NewEntity(),
		ID:        id.NewInviteID(),
		FamilyID:  familyID,
		InviterID: inviterID,
		Code:      uuid.NewString(),
		Status:    family.InvitePending,
		ExpiresAt: time.Now().Add(t.inviteTTL),
	}
	if err := t.store.CreateInvite(ctx, inv); err != nil {
		return nil, err
	}

	t.plugins.EmitInviteCreated(ctx, inv)
	return inv, nil
}

// AcceptInvite redeems an invite code, adding the profile to the family
// as a plain member. Invites are single use.
func (t *Tracker) AcceptInvite(ctx context.Context, code string, profileID id.ProfileID) (*family.Member, error) {
	inv, err := t.store.GetInviteByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !inv.Usable(time.Now()) {
		if inv.Status == family.InvitePending {
			inv.Status = family.InviteExpired
			inv.Touch()
			_ = t.store.UpdateInvite(ctx, inv) //nolint:errcheck // best-effort status bookkeeping
		}
		return nil, ErrInviteNotUsable
	}

	if _, err := t.store.GetMember(ctx, inv.FamilyID, profileID); err == nil {
		return nil, ErrAlreadyMember
	}

	m := &family.Member{
		Entity:    types.NewEntity(),
		ID:        id.NewMemberID(),
		FamilyID:  inv.FamilyID,
		ProfileID: profileID,
		Role:      family.RoleMember,
	}
	if err := t.store.AddMember(ctx, m); err != nil {
		return nil, err
	}

	now := time.Now()
	inv.Status = family.InviteAccepted
	inv.AcceptedBy = profileID
	inv.AcceptedAt = &now
	inv.Touch()
	if err := t.store.UpdateInvite(ctx, inv); err != nil {
		return nil, err
	}

	t.plugins.EmitInviteAccepted(ctx, inv, m)
	return m, nil
}

// RevokeInvite cancels a pending invite. Only owners and admins may revoke.
func (t *Tracker) RevokeInvite(ctx context.Context, code string, actorID id.ProfileID) error {
	inv, err := t.store.GetInviteByCode(ctx, code)
	if err != nil {
		return err
	}

	actor, err := t.store.GetMember(ctx, inv.FamilyID, actorID)
	if err != nil {
		return err
	}
	if !actor.Role.CanManage() {
		return ErrForbidden
	}
	if inv.Status != family.InvitePending {
		return ErrInviteNotPending
	}

	inv.Status = family.InviteRevoked
	inv.Touch()
	return t.store.UpdateInvite(ctx, inv)
}

// RemoveMember removes a member from a family. Owners and admins may
// remove others; anyone may remove themselves. The owner cannot be removed.
func (t *Tracker) RemoveMember(ctx context.Context, familyID id.FamilyID, actorID, targetID id.ProfileID) error {
	target, err := t.store.GetMember(ctx, familyID, targetID)
	if err != nil {
		return err
	}
	if target.Role == family.RoleOwner {
		return ErrOwnerImmovable
	}

	if actorID != targetID {
		actor, err := t.store.GetMember(ctx, familyID, actorID)
		if err != nil {
			return err
		}
		if !actor.Role.CanManage() {
			return ErrForbidden
		}
	}

	if err := t.store.RemoveMember(ctx, familyID, targetID); err != nil {
		return err
	}

	t.plugins.EmitMemberRemoved(ctx, familyID.String(), targetID.String())
	return nil
}

// FamilyMembers lists the members of a family.
func (t *Tracker) FamilyMembers(ctx context.Context, familyID id.FamilyID) ([]*family.Member, error) {
	return t.store.ListMembers(ctx, familyID)
}

// ──────────────────────────────────────────────────
// Renewal Alerts
// ──────────────────────────────────────────────────

// CreateAlert records a standing reminder rule.
func (t *Tracker) CreateAlert(ctx context.Context, a *alert.Alert) error {
	if a.DaysBefore < 0 {
		return ValidationError{Field: "days_before", Message: "must not be negative"}
	}
	if a.ID == (id.AlertID{}) {
		a.ID = id.NewAlertID()
	}
	a.Entity = types.NewEntity()

	return t.store.CreateAlert(ctx, a)
}

// QueueDueAlerts computes which of a profile's reminders fire today and
// pushes them onto the dispatch queue. Intended to be called once per day
// per profile by a scheduler; repeated calls are deduplicated via
// LastSentAt.
func (t *Tracker) QueueDueAlerts(ctx context.Context, profileID id.ProfileID, today types.Date) (int, error) {
	alerts, err := t.store.ListAlertsByProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	subs, err := t.store.ListSubscriptionsByProfile(ctx, profileID, subscription.ListOpts{})
	if err != nil {
		return 0, err
	}

	// A reminder looks up to DaysBefore days ahead, so the billing date can
	// sit several months out. Project every month from the current one
	// through the month containing today+maxLead.
	maxLead := 0
	for _, a := range alerts {
		if a.Enabled && a.DaysBefore > maxLead {
			maxLead = a.DaysBefore
		}
	}

	occs := renewal.Project(subs, today.Year, today.Month, renewal.WithLogger(t.logger))
	horizon := today.AddDays(maxLead)
	cur := types.NewDate(today.Year, today.Month, 1)
	for cur.Year != horizon.Year || cur.Month != horizon.Month {
		cur = cur.AddDays(types.DaysIn(cur.Year, cur.Month))
		occs = append(occs, renewal.Project(subs, cur.Year, cur.Month, renewal.WithLogger(t.logger))...)
	}

	due := alert.Due(alerts, occs, today)
	queued := 0
	for _, msg := range due {
		select {
		case t.alertQueue <- msg:
			queued++
			t.plugins.EmitAlertQueued(ctx, msg)
		default:
			return queued, ErrAlertBufferFull
		}
	}
	return queued, nil
}

// alertFlushWorker delivers queued reminders in batches.
func (t *Tracker) alertFlushWorker(ctx context.Context) {
	defer t.wg.Done()

	batch := make([]*alert.Message, 0, t.alertBatchSize)
	ticker := time.NewTicker(t.alertFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			// Drain everything still queued, then flush.
		drain:
			for {
				select {
				case msg := <-t.alertQueue:
					batch = append(batch, msg)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				t.flushAlertBatch(ctx, batch)
			}
			return

		case msg := <-t.alertQueue:
			batch = append(batch, msg)
			if len(batch) >= t.alertBatchSize {
				t.flushAlertBatch(ctx, batch)
				batch = make([]*alert.Message, 0, t.alertBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				t.flushAlertBatch(ctx, batch)
				batch = make([]*alert.Message, 0, t.alertBatchSize)
			}
		}
	}
}

func (t *Tracker) flushAlertBatch(ctx context.Context, batch []*alert.Message) {
	start := time.Now()
	sent := 0

	for _, msg := range batch {
		d, ok := t.dispatchers[msg.Alert.Channel]
		if !ok {
			// A delivery channel can also be contributed by a plugin.
			if p := t.plugins.GetDispatcher(string(msg.Alert.Channel)); p != nil {
				d, ok = p.Dispatcher().(alert.Dispatcher)
			}
		}
		if !ok {
			t.logger.Warn("no dispatcher for channel",
				"channel", msg.Alert.Channel,
				"alert_id", msg.Alert.ID.String(),
			)
			continue
		}

		if err := d.Send(ctx, msg); err != nil {
			t.logger.Error("failed to deliver reminder",
				"error", err,
				"alert_id", msg.Alert.ID.String(),
				"channel", msg.Alert.Channel,
			)
			continue
		}

		sent++
		if err := t.store.MarkAlertSent(ctx, msg.Alert.ID, time.Now()); err != nil {
			t.logger.Warn("failed to record reminder delivery",
				"error", err,
				"alert_id", msg.Alert.ID.String(),
			)
		}
	}

	elapsed := time.Since(start)
	t.plugins.EmitAlertsDispatched(ctx, sent, elapsed)

	t.logger.Debug("flushed reminder batch",
		"batch_size", len(batch),
		"sent", sent,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
