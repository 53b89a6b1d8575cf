package family

import (
	"context"

	"github.com/kovrhq/kovr/id"
)

// Store is the persistence contract for families, members and invites.
type Store interface {
	CreateFamily(ctx context.Context, f *Family) error
	GetFamily(ctx context.Context, familyID id.FamilyID) (*Family, error)
	DeleteFamily(ctx context.Context, familyID id.FamilyID) error

	AddMember(ctx context.Context, m *Member) error
	GetMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) (*Member, error)
	ListMembers(ctx context.Context, familyID id.FamilyID) ([]*Member, error)
	RemoveMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) error

	CreateInvite(ctx context.Context, inv *Invite) error
	GetInviteByCode(ctx context.Context, code string) (*Invite, error)
	ListInvites(ctx context.Context, familyID id.FamilyID) ([]*Invite, error)
	UpdateInvite(ctx context.Context, inv *Invite) error
}
