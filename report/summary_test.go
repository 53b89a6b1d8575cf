package report_test

import (
	"testing"
	"time"

	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/report"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

func newSub(name, category, anchor string, amount types.Money) *subscription.Subscription {
	return &subscription.Subscription{
		ID:          id.NewSubscriptionID(),
		ProfileID:   id.NewProfileID(),
		Name:        name,
		Category:    category,
		Amount:      amount,
		NextPayment: anchor,
		Status:      subscription.StatusActive,
	}
}

func TestBuildMonthly(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("Netflix", "streaming", "2025-03-15", types.USD(999)),
		newSub("Spotify", "streaming", "2025-03-01", types.USD(1099)),
		newSub("Deezer", "streaming", "2025-03-20", types.EUR(1549)),
		newSub("Gym", "", "2025-03-05", types.GBP(2500)),
		newSub("Prime", "shopping", "2025-04-10", types.USD(1499)), // next month
	}

	s := report.BuildMonthly(subs, 2025, time.March)

	if len(s.Occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(s.Occurrences))
	}
	if s.Year != 2025 || s.Month != time.March {
		t.Errorf("wrong period: %d-%s", s.Year, s.Month)
	}

	// Per-currency totals are strict sums within each currency.
	if got := s.PerCurrency["usd"]; !got.Equal(types.USD(2098)) {
		t.Errorf("usd total: got %v", got)
	}
	if got := s.PerCurrency["eur"]; !got.Equal(types.EUR(1549)) {
		t.Errorf("eur total: got %v", got)
	}
	if got := s.PerCurrency["gbp"]; !got.Equal(types.GBP(2500)) {
		t.Errorf("gbp total: got %v", got)
	}

	// Category buckets: naive cross-currency addition inside a bucket.
	if got := s.PerCategory["streaming"]; got.Amount != 999+1099+1549 {
		t.Errorf("streaming bucket: got %d", got.Amount)
	}
	if got := s.PerCategory["uncategorized"]; got.Amount != 2500 {
		t.Errorf("uncategorized bucket: got %d", got.Amount)
	}

	// Naive grand total adds everything numerically.
	if s.NaiveTotal.Amount != 999+1099+1549+2500 {
		t.Errorf("naive total: got %d", s.NaiveTotal.Amount)
	}
}

func TestBuildMonthlyPassesOptions(t *testing.T) {
	active := newSub("active", "x", "2025-03-10", types.USD(100))
	paused := newSub("paused", "x", "2025-03-11", types.USD(100))
	paused.Status = subscription.StatusPaused

	s := report.BuildMonthly(
		[]*subscription.Subscription{active, paused},
		2025, time.March,
		renewal.WithFilter(renewal.ActiveOnly),
	)
	if len(s.Occurrences) != 1 {
		t.Fatalf("expected 1 occurrence after filter, got %d", len(s.Occurrences))
	}
}

func TestBuildMonthlyEmpty(t *testing.T) {
	s := report.BuildMonthly(nil, 2025, time.March)
	if len(s.Occurrences) != 0 {
		t.Fatalf("expected empty summary, got %d occurrences", len(s.Occurrences))
	}
	if s.NaiveTotal.Amount != 0 {
		t.Errorf("expected zero total, got %d", s.NaiveTotal.Amount)
	}
	if len(s.Rows()) != 0 {
		t.Error("expected no rows")
	}
}

func TestSummaryRowsSorted(t *testing.T) {
	subs := []*subscription.Subscription{
		newSub("Zulu", "a", "2025-03-05", types.USD(100)),
		newSub("Alpha", "b", "2025-03-05", types.USD(200)),
		newSub("Early", "c", "2025-03-01", types.USD(300)),
	}

	rows := report.BuildMonthly(subs, 2025, time.March).Rows()
	want := []string{"Early", "Alpha", "Zulu"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, name := range want {
		if rows[i].Name != name {
			t.Errorf("row %d: got %s, want %s", i, rows[i].Name, name)
		}
	}
}
