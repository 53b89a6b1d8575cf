package kovr_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kovrhq/kovr"
	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/profile"
	"github.com/kovrhq/kovr/store/memory"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

var quiet = slog.New(slog.DiscardHandler)

func newTracker(t *testing.T, opts ...kovr.Option) (*kovr.Tracker, context.Context) {
	t.Helper()

	opts = append([]kovr.Option{kovr.WithLogger(quiet)}, opts...)
	tr := kovr.New(memory.New(), opts...)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	return tr, ctx
}

func newProfile(t *testing.T, ctx context.Context, tr *kovr.Tracker, name string) *profile.Profile {
	t.Helper()

	p := &profile.Profile{DisplayName: name, Email: name + "@example.com"}
	if err := tr.CreateProfile(ctx, p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestQuickStart(t *testing.T) {
	tr, ctx := newTracker(t)

	p := newProfile(t, ctx, tr, "ada")
	if p.ID.IsNil() {
		t.Fatal("expected profile ID to be assigned")
	}
	if p.DefaultCurrency != "usd" {
		t.Fatalf("DefaultCurrency = %q, want usd", p.DefaultCurrency)
	}

	sub := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Netflix",
		Amount:       types.USD(1549),
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  "2025-03-15",
		Category:     "streaming",
	}
	if err := tr.AddSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}
	if sub.ID.IsNil() {
		t.Fatal("expected subscription ID to be assigned")
	}
	if sub.Status != subscription.StatusActive {
		t.Fatalf("Status = %q, want %q", sub.Status, subscription.StatusActive)
	}

	got, err := tr.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Netflix" {
		t.Fatalf("Name = %q, want Netflix", got.Name)
	}

	occs, err := tr.ProjectMonth(ctx, p.ID, 2025, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	if occs[0].Date != (types.Date{Year: 2025, Month: time.March, Day: 15}) {
		t.Fatalf("occurrence date = %v", occs[0].Date)
	}

	summary, err := tr.MonthReport(ctx, p.ID, 2025, time.March)
	if err != nil {
		t.Fatal(err)
	}
	if summary.NaiveTotal.Amount != 1549 {
		t.Fatalf("NaiveTotal = %d, want 1549", summary.NaiveTotal.Amount)
	}
	if got := summary.PerCategory["streaming"].Amount; got != 1549 {
		t.Fatalf("PerCategory[streaming] = %d, want 1549", got)
	}
}

func TestAddSubscriptionValidation(t *testing.T) {
	tr, ctx := newTracker(t)
	p := newProfile(t, ctx, tr, "bob")

	err := tr.AddSubscription(ctx, &subscription.Subscription{
		ProfileID:    p.ID,
		BillingCycle: subscription.CycleMonthly,
	})
	var verr kovr.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("empty name: got %v, want ValidationError on name", err)
	}

	err = tr.AddSubscription(ctx, &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Gym",
		BillingCycle: "fortnightly",
	})
	if !errors.Is(err, kovr.ErrInvalidBillingCycle) {
		t.Fatalf("bad cycle: got %v, want ErrInvalidBillingCycle", err)
	}

	err = tr.AddSubscription(ctx, &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Gym",
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  "soon",
	})
	if !errors.Is(err, kovr.ErrInvalidAnchorDate) {
		t.Fatalf("bad anchor: got %v, want ErrInvalidAnchorDate", err)
	}
}

func TestAdvanceAnchor(t *testing.T) {
	tr, ctx := newTracker(t)
	p := newProfile(t, ctx, tr, "carol")

	sub := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Hosting",
		Amount:       types.USD(500),
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  "2025-01-31",
	}
	if err := tr.AddSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}

	advanced, err := tr.AdvanceAnchor(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if advanced.NextPayment != "2025-02-28" {
		t.Fatalf("NextPayment = %q, want 2025-02-28", advanced.NextPayment)
	}

	got, err := tr.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextPayment != "2025-02-28" {
		t.Fatalf("persisted NextPayment = %q, want 2025-02-28", got.NextPayment)
	}

	// No anchor to advance.
	bare := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Trial",
		BillingCycle: subscription.CycleMonthly,
	}
	if err := tr.AddSubscription(ctx, bare); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AdvanceAnchor(ctx, bare.ID); !errors.Is(err, kovr.ErrInvalidAnchorDate) {
		t.Fatalf("got %v, want ErrInvalidAnchorDate", err)
	}
}

func TestFamilySharing(t *testing.T) {
	tr, ctx := newTracker(t)
	owner := newProfile(t, ctx, tr, "owner")
	guest := newProfile(t, ctx, tr, "guest")
	outsider := newProfile(t, ctx, tr, "outsider")

	fam, err := tr.CreateFamily(ctx, "Household", owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	members, err := tr.FamilyMembers(ctx, fam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].Role != family.RoleOwner {
		t.Fatalf("expected a single owner member, got %+v", members)
	}

	// Non-members cannot invite.
	if _, err := tr.InviteToFamily(ctx, fam.ID, outsider.ID); err == nil {
		t.Fatal("expected invite by non-member to fail")
	}

	inv, err := tr.InviteToFamily(ctx, fam.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Code == "" {
		t.Fatal("expected invite code")
	}

	m, err := tr.AcceptInvite(ctx, inv.Code, guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if m.Role != family.RoleMember {
		t.Fatalf("Role = %q, want %q", m.Role, family.RoleMember)
	}

	// Invites are single use.
	if _, err := tr.AcceptInvite(ctx, inv.Code, outsider.ID); !errors.Is(err, kovr.ErrInviteNotUsable) {
		t.Fatalf("got %v, want ErrInviteNotUsable", err)
	}

	// Plain members cannot remove others or invite.
	if err := tr.RemoveMember(ctx, fam.ID, guest.ID, owner.ID); !errors.Is(err, kovr.ErrOwnerImmovable) {
		t.Fatalf("got %v, want ErrOwnerImmovable", err)
	}
	if _, err := tr.InviteToFamily(ctx, fam.ID, guest.ID); !errors.Is(err, kovr.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}

	// Anyone may remove themselves.
	if err := tr.RemoveMember(ctx, fam.ID, guest.ID, guest.ID); err != nil {
		t.Fatal(err)
	}
	members, err = tr.FamilyMembers(ctx, fam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Fatalf("got %d members after self-removal, want 1", len(members))
	}
}

func TestRevokeInvite(t *testing.T) {
	tr, ctx := newTracker(t)
	owner := newProfile(t, ctx, tr, "owner")
	guest := newProfile(t, ctx, tr, "guest")

	fam, err := tr.CreateFamily(ctx, "Flat", owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := tr.InviteToFamily(ctx, fam.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.RevokeInvite(ctx, inv.Code, owner.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AcceptInvite(ctx, inv.Code, guest.ID); !errors.Is(err, kovr.ErrInviteNotUsable) {
		t.Fatalf("got %v, want ErrInviteNotUsable", err)
	}
	if err := tr.RevokeInvite(ctx, inv.Code, owner.ID); !errors.Is(err, kovr.ErrInviteNotPending) {
		t.Fatalf("got %v, want ErrInviteNotPending", err)
	}
}

func TestInviteExpiry(t *testing.T) {
	tr, ctx := newTracker(t, kovr.WithInviteTTL(-time.Hour))
	owner := newProfile(t, ctx, tr, "owner")
	guest := newProfile(t, ctx, tr, "guest")

	fam, err := tr.CreateFamily(ctx, "Expired", owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := tr.InviteToFamily(ctx, fam.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tr.AcceptInvite(ctx, inv.Code, guest.ID); !errors.Is(err, kovr.ErrInviteNotUsable) {
		t.Fatalf("got %v, want ErrInviteNotUsable", err)
	}
}

func TestAlertLifecycle(t *testing.T) {
	var mu sync.Mutex
	var delivered []*alert.Message

	st := memory.New()
	tr := kovr.New(st,
		kovr.WithLogger(quiet),
		kovr.WithDispatcher(alert.ChannelTelegram, alert.DispatcherFunc(func(_ context.Context, msg *alert.Message) error {
			mu.Lock()
			delivered = append(delivered, msg)
			mu.Unlock()
			return nil
		})),
	)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}

	p := &profile.Profile{DisplayName: "dora"}
	if err := tr.CreateProfile(ctx, p); err != nil {
		t.Fatal(err)
	}

	sub := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Spotify",
		Amount:       types.USD(999),
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  "2025-03-15",
	}
	if err := tr.AddSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}

	err := tr.CreateAlert(ctx, &alert.Alert{
		SubscriptionID: sub.ID,
		ProfileID:      p.ID,
		Channel:        alert.ChannelTelegram,
		DaysBefore:     -1,
		Enabled:        true,
	})
	var verr kovr.ValidationError
	if !errors.As(err, &verr) || verr.Field != "days_before" {
		t.Fatalf("negative DaysBefore: got %v, want ValidationError on days_before", err)
	}

	a := &alert.Alert{
		SubscriptionID: sub.ID,
		ProfileID:      p.ID,
		Channel:        alert.ChannelTelegram,
		DaysBefore:     3,
		Enabled:        true,
	}
	if err := tr.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	today := types.Date{Year: 2025, Month: time.March, Day: 12}
	queued, err := tr.QueueDueAlerts(ctx, p.ID, today)
	if err != nil {
		t.Fatal(err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want 1", queued)
	}

	// One day early nothing fires.
	early := types.Date{Year: 2025, Month: time.March, Day: 11}
	if queued, err := tr.QueueDueAlerts(ctx, p.ID, early); err != nil || queued != 0 {
		t.Fatalf("early queue = %d, %v; want 0, nil", queued, err)
	}

	// Stop drains the queue through the dispatcher.
	if err := tr.Stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("delivered = %d messages, want 1", len(delivered))
	}
	msg := delivered[0]
	if msg.Subscription != "Spotify" {
		t.Fatalf("Subscription = %q, want Spotify", msg.Subscription)
	}
	if msg.BillingDate != (types.Date{Year: 2025, Month: time.March, Day: 15}) {
		t.Fatalf("BillingDate = %v", msg.BillingDate)
	}
}

func TestQueueDueAlertsMonthLead(t *testing.T) {
	tr, ctx := newTracker(t)
	p := newProfile(t, ctx, tr, "erin")

	sub := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Insurance",
		Amount:       types.USD(12000),
		BillingCycle: subscription.CycleYearly,
		NextPayment:  "2025-05-01",
	}
	if err := tr.AddSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}

	a := &alert.Alert{
		SubscriptionID: sub.ID,
		ProfileID:      p.ID,
		Channel:        alert.ChannelTelegram,
		DaysBefore:     31,
		Enabled:        true,
	}
	if err := tr.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	// The billing date sits two months past the scan day, so the
	// projection window has to reach beyond the adjacent month.
	early := types.Date{Year: 2025, Month: time.March, Day: 30}
	if queued, err := tr.QueueDueAlerts(ctx, p.ID, early); err != nil || queued != 0 {
		t.Fatalf("early queue = %d, %v; want 0, nil", queued, err)
	}

	fire := types.Date{Year: 2025, Month: time.March, Day: 31}
	queued, err := tr.QueueDueAlerts(ctx, p.ID, fire)
	if err != nil {
		t.Fatal(err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want 1", queued)
	}
}

func TestStopDeliversQueuedAlerts(t *testing.T) {
	var mu sync.Mutex
	var delivered []*alert.Message

	tr := kovr.New(memory.New(),
		kovr.WithLogger(quiet),
		kovr.WithDispatcher(alert.ChannelTelegram, alert.DispatcherFunc(func(_ context.Context, msg *alert.Message) error {
			mu.Lock()
			delivered = append(delivered, msg)
			mu.Unlock()
			return nil
		})),
	)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}

	p := &profile.Profile{DisplayName: "fay"}
	if err := tr.CreateProfile(ctx, p); err != nil {
		t.Fatal(err)
	}

	today := types.Date{Year: 2025, Month: time.March, Day: 15}
	for _, name := range []string{"News", "Music", "Cloud"} {
		sub := &subscription.Subscription{
			ProfileID:    p.ID,
			Name:         name,
			Amount:       types.USD(500),
			BillingCycle: subscription.CycleMonthly,
			NextPayment:  today.String(),
		}
		if err := tr.AddSubscription(ctx, sub); err != nil {
			t.Fatal(err)
		}
		a := &alert.Alert{
			SubscriptionID: sub.ID,
			ProfileID:      p.ID,
			Channel:        alert.ChannelTelegram,
			Enabled:        true,
		}
		if err := tr.CreateAlert(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	queued, err := tr.QueueDueAlerts(ctx, p.ID, today)
	if err != nil {
		t.Fatal(err)
	}
	if queued != 3 {
		t.Fatalf("queued = %d, want 3", queued)
	}

	// Shutdown must deliver everything still sitting in the queue.
	if err := tr.Stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 3 {
		t.Fatalf("delivered = %d messages, want 3", len(delivered))
	}
}

// channelPlugin contributes a delivery channel through the plugin system
// instead of WithDispatcher.
type channelPlugin struct {
	channel alert.Channel

	mu        sync.Mutex
	delivered []*alert.Message
}

func (p *channelPlugin) Name() string        { return "test-channel" }
func (p *channelPlugin) ChannelName() string { return string(p.channel) }

func (p *channelPlugin) Dispatcher() interface{} {
	return alert.DispatcherFunc(func(_ context.Context, msg *alert.Message) error {
		p.mu.Lock()
		p.delivered = append(p.delivered, msg)
		p.mu.Unlock()
		return nil
	})
}

func TestPluginDispatcherDelivers(t *testing.T) {
	cp := &channelPlugin{channel: alert.ChannelEmail}

	tr := kovr.New(memory.New(),
		kovr.WithLogger(quiet),
		kovr.WithPlugin(cp),
	)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}

	p := &profile.Profile{DisplayName: "gus"}
	if err := tr.CreateProfile(ctx, p); err != nil {
		t.Fatal(err)
	}

	today := types.Date{Year: 2025, Month: time.March, Day: 15}
	sub := &subscription.Subscription{
		ProfileID:    p.ID,
		Name:         "Backup",
		Amount:       types.USD(299),
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  today.String(),
	}
	if err := tr.AddSubscription(ctx, sub); err != nil {
		t.Fatal(err)
	}
	a := &alert.Alert{
		SubscriptionID: sub.ID,
		ProfileID:      p.ID,
		Channel:        alert.ChannelEmail,
		Enabled:        true,
	}
	if err := tr.CreateAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	if queued, err := tr.QueueDueAlerts(ctx, p.ID, today); err != nil || queued != 1 {
		t.Fatalf("queued = %d, %v; want 1, nil", queued, err)
	}
	if err := tr.Stop(); err != nil {
		t.Fatal(err)
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	if len(cp.delivered) != 1 {
		t.Fatalf("delivered = %d messages, want 1", len(cp.delivered))
	}
	if cp.delivered[0].Subscription != "Backup" {
		t.Fatalf("Subscription = %q, want Backup", cp.delivered[0].Subscription)
	}
}
