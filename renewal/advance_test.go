package renewal_test

import (
	"testing"

	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

func TestNextAnchor(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		cycle  subscription.BillingCycle
		want   string
	}{
		{"weekly", "2025-03-15", subscription.CycleWeekly, "2025-03-22"},
		{"weekly across month", "2025-03-28", subscription.CycleWeekly, "2025-04-04"},
		{"monthly", "2025-03-15", subscription.CycleMonthly, "2025-04-15"},
		{"monthly Jan 31 clamps to Feb", "2025-01-31", subscription.CycleMonthly, "2025-02-28"},
		{"monthly Jan 31 leap year", "2024-01-31", subscription.CycleMonthly, "2024-02-29"},
		{"monthly Mar 31 clamps to Apr", "2025-03-31", subscription.CycleMonthly, "2025-04-30"},
		{"monthly across year", "2025-12-15", subscription.CycleMonthly, "2026-01-15"},
		{"quarterly", "2025-03-15", subscription.CycleQuarterly, "2025-06-15"},
		{"quarterly Nov 30 across year", "2025-11-30", subscription.CycleQuarterly, "2026-02-28"},
		{"yearly", "2025-03-15", subscription.CycleYearly, "2026-03-15"},
		{"yearly Feb 29 to non-leap", "2024-02-29", subscription.CycleYearly, "2025-02-28"},
		{"unknown cycle defaults monthly", "2025-03-15", subscription.BillingCycle("daily"), "2025-04-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renewal.NextAnchor(types.MustParseDate(tt.anchor), tt.cycle)
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextAnchorDoesNotNormalize(t *testing.T) {
	// Jan 30 + 1 month must be Feb 28, never Mar 2.
	got := renewal.NextAnchor(types.MustParseDate("2025-01-30"), subscription.CycleMonthly)
	if got.Month != 2 || got.Day != 28 {
		t.Errorf("got %s, want 2025-02-28", got)
	}
}
