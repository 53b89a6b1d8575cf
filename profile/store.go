package profile

import (
	"context"

	"github.com/kovrhq/kovr/id"
)

// Store is the persistence contract for profiles.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, profileID id.ProfileID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, profileID id.ProfileID) error
}
