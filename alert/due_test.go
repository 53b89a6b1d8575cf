package alert_test

import (
	"testing"
	"time"

	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

func fixture() (*subscription.Subscription, []renewal.Occurrence) {
	sub := &subscription.Subscription{
		ID:          id.NewSubscriptionID(),
		ProfileID:   id.NewProfileID(),
		Name:        "Netflix",
		Amount:      types.USD(999),
		NextPayment: "2025-03-15",
		Status:      subscription.StatusActive,
	}
	occs := renewal.Project([]*subscription.Subscription{sub}, 2025, time.March)
	return sub, occs
}

func newAlert(subID id.SubscriptionID, daysBefore int) *alert.Alert {
	return &alert.Alert{
		ID:             id.NewAlertID(),
		SubscriptionID: subID,
		ProfileID:      id.NewProfileID(),
		Channel:        alert.ChannelTelegram,
		DaysBefore:     daysBefore,
		Enabled:        true,
	}
}

func TestDueFiresExactlyDaysBefore(t *testing.T) {
	sub, occs := fixture()
	a := newAlert(sub.ID, 3)

	tests := []struct {
		today string
		want  int
	}{
		{"2025-03-11", 0},
		{"2025-03-12", 1}, // exactly 3 days before March 15
		{"2025-03-13", 0},
		{"2025-03-15", 0},
	}

	for _, tt := range tests {
		got := alert.Due([]*alert.Alert{a}, occs, types.MustParseDate(tt.today))
		if len(got) != tt.want {
			t.Errorf("today=%s: got %d messages, want %d", tt.today, len(got), tt.want)
		}
	}
}

func TestDueZeroDaysBefore(t *testing.T) {
	sub, occs := fixture()
	a := newAlert(sub.ID, 0)

	got := alert.Due([]*alert.Alert{a}, occs, types.MustParseDate("2025-03-15"))
	if len(got) != 1 {
		t.Fatalf("expected day-of reminder, got %d", len(got))
	}
	if got[0].Subscription != "Netflix" {
		t.Errorf("unexpected subscription %q", got[0].Subscription)
	}
	if !got[0].Amount.Equal(types.USD(999)) {
		t.Errorf("unexpected amount %v", got[0].Amount)
	}
	if got[0].BillingDate.String() != "2025-03-15" {
		t.Errorf("unexpected billing date %s", got[0].BillingDate)
	}
}

func TestDueSkipsDisabled(t *testing.T) {
	sub, occs := fixture()
	a := newAlert(sub.ID, 3)
	a.Enabled = false

	got := alert.Due([]*alert.Alert{a}, occs, types.MustParseDate("2025-03-12"))
	if len(got) != 0 {
		t.Fatalf("disabled alert fired: %d messages", len(got))
	}
}

func TestDueSkipsAlreadySentToday(t *testing.T) {
	sub, occs := fixture()
	a := newAlert(sub.ID, 3)
	today := types.MustParseDate("2025-03-12")

	sent := time.Date(2025, time.March, 12, 8, 0, 0, 0, time.UTC)
	a.LastSentAt = &sent
	if got := alert.Due([]*alert.Alert{a}, occs, today); len(got) != 0 {
		t.Fatalf("already-sent alert fired again: %d messages", len(got))
	}

	// Sent on an earlier day does not suppress.
	earlier := time.Date(2025, time.February, 12, 8, 0, 0, 0, time.UTC)
	a.LastSentAt = &earlier
	if got := alert.Due([]*alert.Alert{a}, occs, today); len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
}

func TestDueIgnoresAlertsWithoutOccurrence(t *testing.T) {
	_, occs := fixture()
	orphan := newAlert(id.NewSubscriptionID(), 3)

	got := alert.Due([]*alert.Alert{orphan}, occs, types.MustParseDate("2025-03-12"))
	if len(got) != 0 {
		t.Fatalf("orphan alert fired: %d messages", len(got))
	}
}

func TestDueMultipleAlertsPerSubscription(t *testing.T) {
	sub, occs := fixture()
	week := newAlert(sub.ID, 7)
	day := newAlert(sub.ID, 1)

	alerts := []*alert.Alert{week, day}

	if got := alert.Due(alerts, occs, types.MustParseDate("2025-03-08")); len(got) != 1 {
		t.Fatalf("week-before scan: got %d, want 1", len(got))
	}
	if got := alert.Due(alerts, occs, types.MustParseDate("2025-03-14")); len(got) != 1 {
		t.Fatalf("day-before scan: got %d, want 1", len(got))
	}
}
