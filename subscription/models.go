// Package subscription defines the tracked subscription model.
//
// Subscription records are user-maintained: Kovr never advances the
// NextPayment anchor on its own. After a billing date passes, the owner (or a
// scheduled job calling renewal.NextAnchor) is responsible for moving the
// anchor to the next cycle. The renewal projector treats records as read-only
// input and never mutates them.
package subscription

import (
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/types"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// BillingCycle is how often a subscription bills.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Valid reports whether the cycle is one of the known values.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	}
	return false
}

// Subscription is one recurring service a user pays for.
//
// NextPayment is the anchor date: the single known upcoming billing date,
// stored as an ISO "YYYY-MM-DD" string (a time suffix is tolerated). It is
// the sole source of truth for the day-of-month and reference month/year used
// by the renewal projector. EndDate, when set, is the date after which no
// occurrence may be projected. Legacy records used the field names
// "renewal_date" and "billing_type"; stores normalize those to NextPayment
// and BillingCycle when loading, so business logic only ever sees the
// canonical names.
type Subscription struct {
	types.Entity
	ID           id.SubscriptionID `json:"id"`
	ProfileID    id.ProfileID      `json:"profile_id"`
	FamilyID     id.FamilyID       `json:"family_id,omitempty"`
	Name         string            `json:"name"`
	Amount       types.Money       `json:"amount"`
	BillingCycle BillingCycle      `json:"billing_cycle"`
	NextPayment  string            `json:"next_payment,omitempty"`
	EndDate      string            `json:"end_date,omitempty"`
	Status       Status            `json:"status"`
	Category     string            `json:"category,omitempty"`
	Website      string            `json:"website,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsActive reports whether the subscription is in the active state.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Anchor parses the NextPayment anchor date. The bool is false when no
// anchor is set; a set but malformed anchor returns an error.
func (s *Subscription) Anchor() (types.Date, bool, error) {
	if s.NextPayment == "" {
		return types.Date{}, false, nil
	}
	d, err := types.ParseDate(s.NextPayment)
	if err != nil {
		return types.Date{}, true, err
	}
	return d, true, nil
}
