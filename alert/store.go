package alert

import (
	"context"
	"time"

	"github.com/kovrhq/kovr/id"
)

// Store is the persistence contract for alerts.
type Store interface {
	Create(ctx context.Context, a *Alert) error
	Get(ctx context.Context, alertID id.AlertID) (*Alert, error)
	ListByProfile(ctx context.Context, profileID id.ProfileID) ([]*Alert, error)
	ListBySubscription(ctx context.Context, subID id.SubscriptionID) ([]*Alert, error)
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, alertID id.AlertID) error
	MarkSent(ctx context.Context, alertID id.AlertID, sentAt time.Time) error
}
