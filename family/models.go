// Package family models shared subscription groups.
//
// A family has exactly one owner (its creator), any number of admins and
// members. Owners and admins may invite and remove; plain members only see
// shared subscriptions. Invites are single-use codes with an expiry.
package family

import (
	"time"

	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/types"
)

// Role is a member's authorization level within a family.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManage reports whether the role may invite and remove members.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Family is a group of profiles sharing subscriptions.
type Family struct {
	types.Entity
	ID      id.FamilyID  `json:"id"`
	Name    string       `json:"name"`
	OwnerID id.ProfileID `json:"owner_id"`
}

// Member ties a profile to a family with a role.
type Member struct {
	types.Entity
	ID        id.MemberID  `json:"id"`
	FamilyID  id.FamilyID  `json:"family_id"`
	ProfileID id.ProfileID `json:"profile_id"`
	Role      Role         `json:"role"`
}

// InviteStatus is the lifecycle state of an invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRevoked  InviteStatus = "revoked"
	InviteExpired  InviteStatus = "expired"
)

// Invite is a single-use join code for a family.
type Invite struct {
	types.Entity
	ID         id.InviteID  `json:"id"`
	FamilyID   id.FamilyID  `json:"family_id"`
	InviterID  id.ProfileID `json:"inviter_id"`
	Code       string       `json:"code"`
	Status     InviteStatus `json:"status"`
	ExpiresAt  time.Time    `json:"expires_at"`
	AcceptedBy id.ProfileID `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty"`
}

// Usable reports whether the invite can still be accepted at the given time.
func (i *Invite) Usable(now time.Time) bool {
	return i.Status == InvitePending && now.Before(i.ExpiresAt)
}
