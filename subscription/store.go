package subscription

import (
	"context"

	"github.com/kovrhq/kovr/id"
)

// Store is the persistence contract for subscriptions.
type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	ListByProfile(ctx context.Context, profileID id.ProfileID, opts ListOpts) ([]*Subscription, error)
	ListByFamily(ctx context.Context, familyID id.FamilyID, opts ListOpts) ([]*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	Delete(ctx context.Context, subID id.SubscriptionID) error
}

// ListOpts filters subscription listings.
type ListOpts struct {
	Status   Status
	Category string
	Limit    int
	Offset   int
}
