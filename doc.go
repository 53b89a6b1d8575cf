// Package kovr provides an embeddable subscription-tracking engine for Go
// applications.
//
// Kovr is designed as a library, not a service. Import it directly into your
// application to track recurring subscriptions, project renewal dates onto
// calendar months, share subscriptions within family groups, and schedule
// renewal reminders. It provides:
//
//   - Pure, leap-year-aware renewal projection with month-end clamping
//   - Monthly spend summaries with per-currency and per-category breakdowns
//   - Family sharing with role-based invite/membership workflow
//   - Batched reminder dispatch over pluggable delivery channels
//   - Pluggable stores (memory, PostgreSQL, SQLite, MongoDB)
//   - Lifecycle plugin hooks for metrics and audit trails
//
// # Quick Start
//
// Create a tracker instance with your preferred store:
//
//	import (
//	    "github.com/kovrhq/kovr"
//	    "github.com/kovrhq/kovr/store/memory"
//	)
//
//	t := kovr.New(memory.New(),
//	    kovr.WithLogger(slog.Default()),
//	    kovr.WithAlertConfig(50, 30*time.Second),
//	)
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
// Record a subscription and project it onto a month:
//
//	sub := &subscription.Subscription{
//	    ProfileID:    profileID,
//	    Name:         "Netflix",
//	    Amount:       kovr.USD(1549),
//	    BillingCycle: subscription.CycleMonthly,
//	    NextPayment:  "2026-03-31",
//	}
//	if err := t.AddSubscription(ctx, sub); err != nil {
//	    log.Fatal(err)
//	}
//
//	occs, err := t.ProjectMonth(ctx, profileID, 2026, time.March)
//
// The projector never advances NextPayment on its own. After a billing date
// passes, call AdvanceAnchor (typically from a scheduled job) to roll the
// anchor forward one billing cycle.
package kovr
