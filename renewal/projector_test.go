package renewal_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

func newSub(name, nextPayment string, amount types.Money) *subscription.Subscription {
	return &subscription.Subscription{
		ID:           id.NewSubscriptionID(),
		ProfileID:    id.NewProfileID(),
		Name:         name,
		Amount:       amount,
		BillingCycle: subscription.CycleMonthly,
		NextPayment:  nextPayment,
		Status:       subscription.StatusActive,
	}
}

var quiet = renewal.WithLogger(slog.New(slog.DiscardHandler))

func TestProjectExactMonth(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("Netflix", "2025-03-15", types.USD(999)),
		newSub("Spotify", "2025-04-15", types.USD(999)),
		newSub("iCloud", "2024-03-15", types.USD(299)),
	}

	occs := renewal.Project(subs, 2025, time.March)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Subscription.Name != "Netflix" {
		t.Errorf("expected Netflix, got %s", occs[0].Subscription.Name)
	}
	if got, want := occs[0].Date.String(), "2025-03-15"; got != want {
		t.Errorf("date: got %s, want %s", got, want)
	}
}

func TestProjectNoAutoRecurrence(t *testing.T) {
	// A monthly subscription anchored in March must not appear in April:
	// the anchor stands for exactly one occurrence.
	subs := []*subscription.Subscription{
		newSub("Netflix", "2025-03-15", types.USD(999)),
	}

	if occs := renewal.Project(subs, 2025, time.April); len(occs) != 0 {
		t.Fatalf("expected no occurrences in April, got %d", len(occs))
	}
	if occs := renewal.Project(subs, 2026, time.March); len(occs) != 0 {
		t.Fatalf("expected no occurrences a year later, got %d", len(occs))
	}
}

func TestProjectDayClamping(t *testing.T) {
	tests := []struct {
		name    string
		anchor  string
		year    int
		month   time.Month
		wantDay string
	}{
		{"31st clamped into April", "2025-04-31", 2025, time.April, "2025-04-30"},
		{"31st stays in March", "2025-03-31", 2025, time.March, "2025-03-31"},
		{"Feb non-leap", "2025-02-28", 2025, time.February, "2025-02-28"},
		{"Feb leap", "2024-02-29", 2024, time.February, "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := []*subscription.Subscription{newSub("x", tt.anchor, types.USD(100))}
			occs := renewal.Project(subs, tt.year, tt.month, quiet)
			if len(occs) != 1 {
				t.Fatalf("expected 1 occurrence, got %d", len(occs))
			}
			if got := occs[0].Date.String(); got != tt.wantDay {
				t.Errorf("got %s, want %s", got, tt.wantDay)
			}
		})
	}
}

func TestProjectClampsAnchorDayToMonthEnd(t *testing.T) {
	// An anchor day past the month's length lands on the last day. A day-31
	// anchor is representable because ParseDate validates day range 1..31
	// without checking month length.
	tests := []struct {
		anchor  string
		year    int
		month   time.Month
		wantDay string
	}{
		{"2025-02-31", 2025, time.February, "2025-02-28"},
		{"2024-02-31", 2024, time.February, "2024-02-29"},
		{"2025-06-31", 2025, time.June, "2025-06-30"},
	}

	for _, tt := range tests {
		subs := []*subscription.Subscription{newSub("x", tt.anchor, types.USD(100))}
		occs := renewal.Project(subs, tt.year, tt.month, quiet)
		if len(occs) != 1 {
			t.Fatalf("%s: expected 1 occurrence, got %d", tt.anchor, len(occs))
		}
		if got := occs[0].Date.String(); got != tt.wantDay {
			t.Errorf("%s: got %s, want %s", tt.anchor, got, tt.wantDay)
		}
	}
}

func TestProjectEndDateCutoff(t *testing.T) {
	tests := []struct {
		name    string
		anchor  string
		endDate string
		want    int
	}{
		{"occurrence before end", "2025-03-15", "2025-03-20", 1},
		{"occurrence on end date", "2025-03-15", "2025-03-15", 1},
		{"occurrence after end", "2025-03-15", "2025-03-10", 0},
		{"end in earlier month", "2025-03-15", "2025-02-28", 0},
		{"no end date", "2025-03-15", "", 1},
		{"malformed end date fails open", "2025-03-15", "not-a-date", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newSub("x", tt.anchor, types.USD(100))
			sub.EndDate = tt.endDate
			occs := renewal.Project([]*subscription.Subscription{sub}, 2025, time.March, quiet)
			if len(occs) != tt.want {
				t.Errorf("got %d occurrences, want %d", len(occs), tt.want)
			}
		})
	}
}

func TestProjectSkipsMissingAndMalformedAnchors(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("no anchor", "", types.USD(100)),
		newSub("garbage", "soon", types.USD(100)),
		newSub("bad month", "2025-13-01", types.USD(100)),
		newSub("good", "2025-03-01", types.USD(100)),
	}

	occs := renewal.Project(subs, 2025, time.March, quiet)
	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Subscription.Name != "good" {
		t.Errorf("unexpected subscription %q", occs[0].Subscription.Name)
	}
}

func TestProjectAnchorWithTimeSuffix(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("iso datetime", "2025-03-15T10:30:00Z", types.USD(100)),
		newSub("space datetime", "2025-03-15 10:30:00", types.USD(100)),
	}

	occs := renewal.Project(subs, 2025, time.March)
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
	for _, occ := range occs {
		if got := occ.Date.String(); got != "2025-03-15" {
			t.Errorf("got %s, want 2025-03-15", got)
		}
	}
}

func TestProjectFilter(t *testing.T) {
	active := newSub("active", "2025-03-10", types.USD(100))
	paused := newSub("paused", "2025-03-11", types.USD(100))
	paused.Status = subscription.StatusPaused
	cancelled := newSub("cancelled", "2025-03-12", types.USD(100))
	cancelled.Status = subscription.StatusCancelled
	subs := []*subscription.Subscription{active, paused, cancelled}

	// No filter: every status projects.
	if occs := renewal.Project(subs, 2025, time.March); len(occs) != 3 {
		t.Fatalf("unfiltered: expected 3 occurrences, got %d", len(occs))
	}

	// ActiveOnly drops paused and cancelled.
	occs := renewal.Project(subs, 2025, time.March, renewal.WithFilter(renewal.ActiveOnly))
	if len(occs) != 1 {
		t.Fatalf("filtered: expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Subscription.Name != "active" {
		t.Errorf("unexpected subscription %q", occs[0].Subscription.Name)
	}

	// Custom predicate.
	notCancelled := func(s *subscription.Subscription) bool {
		return s.Status != subscription.StatusCancelled
	}
	if occs := renewal.Project(subs, 2025, time.March, renewal.WithFilter(notCancelled)); len(occs) != 2 {
		t.Fatalf("custom filter: expected 2 occurrences, got %d", len(occs))
	}
}

func TestProjectPreservesInputOrder(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("c", "2025-03-20", types.USD(100)),
		newSub("a", "2025-03-05", types.USD(100)),
		newSub("b", "2025-03-10", types.USD(100)),
	}

	occs := renewal.Project(subs, 2025, time.March)
	want := []string{"c", "a", "b"}
	for i, occ := range occs {
		if occ.Subscription.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, occ.Subscription.Name, want[i])
		}
	}
}

func TestProjectIdempotent(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("Netflix", "2025-03-15", types.USD(999)),
		newSub("Spotify", "2025-03-01", types.EUR(1099)),
	}

	first := renewal.Project(subs, 2025, time.March)
	second := renewal.Project(subs, 2025, time.March)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Date.Equal(second[i].Date) || first[i].Subscription != second[i].Subscription {
			t.Errorf("occurrence %d differs between runs", i)
		}
	}
}

func TestProjectEmptyInput(t *testing.T) {
	occs := renewal.Project(nil, 2025, time.March)
	if occs == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(occs) != 0 {
		t.Fatalf("expected 0 occurrences, got %d", len(occs))
	}
}

func TestOnDay(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("a", "2025-03-15", types.USD(100)),
		newSub("b", "2025-03-15", types.USD(200)),
		newSub("c", "2025-03-16", types.USD(300)),
	}
	occs := renewal.Project(subs, 2025, time.March)

	day := types.MustParseDate("2025-03-15")
	on := renewal.OnDay(occs, day)
	if len(on) != 2 {
		t.Fatalf("expected 2 occurrences on %s, got %d", day, len(on))
	}

	empty := renewal.OnDay(occs, types.MustParseDate("2025-03-01"))
	if len(empty) != 0 {
		t.Fatalf("expected 0 occurrences, got %d", len(empty))
	}
}

func TestMonthTotalNaiveMixedCurrency(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("a", "2025-03-01", types.USD(999)),
		newSub("b", "2025-03-10", types.EUR(1549)),
		newSub("c", "2025-03-20", types.GBP(699)),
	}
	occs := renewal.Project(subs, 2025, time.March)

	total := renewal.MonthTotal(occs)
	if total.Amount != 3247 {
		t.Errorf("amount: got %d, want 3247", total.Amount)
	}
	if total.Currency != "usd" {
		t.Errorf("currency: got %s, want usd (first occurrence's)", total.Currency)
	}
}

func TestMonthTotalEmpty(t *testing.T) {
	total := renewal.MonthTotal(nil)
	if total.Amount != 0 {
		t.Errorf("expected zero total, got %d", total.Amount)
	}
}
