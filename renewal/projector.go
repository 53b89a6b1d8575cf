// Package renewal projects subscriptions onto calendar months.
//
// The projector answers one question: which subscriptions bill on which day
// of a viewed month. It does not recur subscriptions into future months:
// each NextPayment anchor stands for exactly one occurrence, and advancing
// the anchor after a billing date passes is the caller's job (see
// NextAnchor). This keeps "what renews this month" separate from "what
// renews ever" and avoids guessing cycle math when the stored anchor already
// reflects the correct upcoming date.
package renewal

import (
	"log/slog"
	"time"

	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// Occurrence is one projected billing event: a subscription billing on a
// specific day of the viewed month.
type Occurrence struct {
	Date         types.Date                 `json:"date"`
	Subscription *subscription.Subscription `json:"subscription"`
}

// Option configures a projection.
type Option func(*projector)

// WithFilter restricts projection to subscriptions the predicate accepts.
// Whether paused or cancelled subscriptions project is a display policy, so
// it is the caller's choice rather than a baked-in rule. See ActiveOnly for
// the common case.
func WithFilter(pred func(*subscription.Subscription) bool) Option {
	return func(p *projector) {
		p.filter = pred
	}
}

// WithLogger sets the logger used for malformed-date diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *projector) {
		p.logger = logger
	}
}

// ActiveOnly is a ready-made filter accepting only active subscriptions.
func ActiveOnly(s *subscription.Subscription) bool {
	return s.IsActive()
}

type projector struct {
	filter func(*subscription.Subscription) bool
	logger *slog.Logger
}

// Project returns the billing occurrences of subs within the given month.
//
// Per subscription, independently:
//   - no anchor date → no occurrence;
//   - malformed anchor → no occurrence, diagnostic logged, never an error;
//   - the anchor must fall in exactly (year, month); other months yield
//     nothing;
//   - the anchor day is clamped to the last day of the month (an anchor on
//     the 31st projects to April 30, and to February 28 or 29);
//   - an occurrence strictly after the subscription's end date is
//     suppressed; a malformed end date fails open (no cutoff) with a
//     diagnostic.
//
// The result holds at most one occurrence per subscription, in input order.
// Empty input or a month with no matches returns an empty slice. The
// function is pure: identical inputs always produce identical output.
func Project(subs []*subscription.Subscription, year int, month time.Month, opts ...Option) []Occurrence {
	p := &projector{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	occs := make([]Occurrence, 0, len(subs))
	for _, sub := range subs {
		if p.filter != nil && !p.filter(sub) {
			continue
		}
		if occ, ok := p.project(sub, year, month); ok {
			occs = append(occs, occ)
		}
	}
	return occs
}

// project maps a single subscription onto the viewed month.
func (p *projector) project(sub *subscription.Subscription, year int, month time.Month) (Occurrence, bool) {
	anchor, present, err := sub.Anchor()
	if !present {
		return Occurrence{}, false
	}
	if err != nil {
		p.logger.Warn("skipping subscription with malformed anchor date",
			"subscription_id", sub.ID.String(),
			"next_payment", sub.NextPayment,
			"error", err,
		)
		return Occurrence{}, false
	}

	// Exact-month match: the anchor stands for one occurrence only.
	if anchor.Year != year || anchor.Month != month {
		return Occurrence{}, false
	}

	occDate := types.ClampToMonth(year, month, anchor.Day)

	if sub.EndDate != "" {
		end, err := types.ParseDate(sub.EndDate)
		if err != nil {
			// Fail open: a broken end date must not hide the subscription.
			p.logger.Warn("ignoring malformed end date",
				"subscription_id", sub.ID.String(),
				"end_date", sub.EndDate,
				"error", err,
			)
		} else if occDate.After(end) {
			return Occurrence{}, false
		}
	}

	return Occurrence{Date: occDate, Subscription: sub}, true
}

// OnDay filters a projection down to the occurrences on one calendar day.
// Date-only equality; intended for rendering a single calendar grid cell.
func OnDay(occs []Occurrence, day types.Date) []Occurrence {
	matched := make([]Occurrence, 0)
	for _, occ := range occs {
		if occ.Date.Equal(day) {
			matched = append(matched, occ)
		}
	}
	return matched
}

// MonthTotal sums the amounts of all occurrences via types.NaiveSum:
// mixed currencies are added numerically with no conversion.
func MonthTotal(occs []Occurrence) types.Money {
	amounts := make([]types.Money, 0, len(occs))
	for _, occ := range occs {
		amounts = append(amounts, occ.Subscription.Amount)
	}
	return types.NaiveSum(amounts...)
}
