package family

import (
	"testing"
	"time"
)

func TestRoleCanManage(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleAdmin, true},
		{RoleMember, false},
		{Role("viewer"), false},
	}

	for _, tt := range tests {
		if got := tt.role.CanManage(); got != tt.want {
			t.Errorf("%q.CanManage() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestInviteUsable(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status InviteStatus
		expiry time.Time
		want   bool
	}{
		{"pending and not expired", InvitePending, now.Add(time.Hour), true},
		{"pending but expired", InvitePending, now.Add(-time.Hour), false},
		{"expires exactly now", InvitePending, now, false},
		{"already accepted", InviteAccepted, now.Add(time.Hour), false},
		{"revoked", InviteRevoked, now.Add(time.Hour), false},
		{"marked expired", InviteExpired, now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invite{Status: tt.status, ExpiresAt: tt.expiry}
			if got := inv.Usable(now); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
