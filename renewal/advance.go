package renewal

import (
	"time"

	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// NextAnchor returns the anchor date one billing cycle after the given one.
//
// This is the companion to Project: the projector never rolls an anchor
// forward, so after a billing date passes, a scheduled job (or the user)
// calls NextAnchor and stores the result back on the subscription.
//
// Month-based cycles keep the original anchor day and clamp it to each
// target month's length, so an anchor on January 31 advances to
// February 28/29 and then would advance from an anchor day of 28 or 29; the
// caller should keep the intended day if it tracks one. An unknown cycle
// defaults to monthly.
func NextAnchor(anchor types.Date, cycle subscription.BillingCycle) types.Date {
	switch cycle {
	case subscription.CycleWeekly:
		return anchor.AddDays(7)
	case subscription.CycleQuarterly:
		return addMonths(anchor, 3)
	case subscription.CycleYearly:
		return addMonths(anchor, 12)
	case subscription.CycleMonthly:
		return addMonths(anchor, 1)
	default:
		return addMonths(anchor, 1)
	}
}

// addMonths advances by whole months with day clamping, unlike
// time.Time.AddDate which normalizes Feb 30 into March.
func addMonths(d types.Date, n int) types.Date {
	month := int(d.Month) - 1 + n
	year := d.Year + month/12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	return types.ClampToMonth(year, time.Month(month+1), d.Day)
}
