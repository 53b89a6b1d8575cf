package alert

import (
	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/types"
)

// Due returns the messages that should be delivered on the given day.
//
// For each enabled alert it finds the projected occurrence of its
// subscription and fires when today is exactly DaysBefore days ahead of the
// billing date. An alert that was already sent today (per LastSentAt) is
// skipped, so repeated scans within one day are idempotent. Pure function;
// the caller persists LastSentAt after successful delivery.
func Due(alerts []*Alert, occs []renewal.Occurrence, today types.Date) []*Message {
	bySub := make(map[string]renewal.Occurrence, len(occs))
	for _, occ := range occs {
		bySub[occ.Subscription.ID.String()] = occ
	}

	var due []*Message
	for _, a := range alerts {
		if !a.Enabled {
			continue
		}
		occ, ok := bySub[a.SubscriptionID.String()]
		if !ok {
			continue
		}

		fireOn := occ.Date.AddDays(-a.DaysBefore)
		if !fireOn.Equal(today) {
			continue
		}
		if a.LastSentAt != nil && types.DateOf(*a.LastSentAt).Equal(today) {
			continue
		}

		due = append(due, &Message{
			Alert:        a,
			Subscription: occ.Subscription.Name,
			Amount:       occ.Subscription.Amount,
			BillingDate:  occ.Date,
		})
	}
	return due
}
