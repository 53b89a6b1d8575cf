// Package memory provides an in-memory Store implementation, used in tests
// and single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	kovr "github.com/kovrhq/kovr"
	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	kovrstore "github.com/kovrhq/kovr/store"
	"github.com/kovrhq/kovr/subscription"
)

// compile-time interface check
var _ kovrstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	subscriptions map[string]*subscription.Subscription
	profiles      map[string]*profile.Profile
	families      map[string]*family.Family
	members       map[string]*family.Member // keyed familyID+":"+profileID
	invites       map[string]*family.Invite // keyed by code
	alerts        map[string]*alert.Alert
}

func New() *Store {
	return &Store{
		subscriptions: make(map[string]*subscription.Subscription),
		profiles:      make(map[string]*profile.Profile),
		families:      make(map[string]*family.Family),
		members:       make(map[string]*family.Member),
		invites:       make(map[string]*family.Invite),
		alerts:        make(map[string]*alert.Alert),
	}
}

func memberKey(familyID id.FamilyID, profileID id.ProfileID) string {
	return familyID.String() + ":" + profileID.String()
}

// Subscription Store implementation

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID.String()]; exists {
		return kovr.ErrAlreadyExists
	}
	s.subscriptions[sub.ID.String()] = sub
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID.String()]; ok {
		return sub, nil
	}
	return nil, kovr.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptionsByProfile(_ context.Context, profileID id.ProfileID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.ProfileID == profileID && matches(sub, opts) {
			result = append(result, sub)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListSubscriptionsByFamily(_ context.Context, familyID id.FamilyID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.FamilyID == familyID && matches(sub, opts) {
			result = append(result, sub)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID.String()]; !exists {
		return kovr.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.ID.String()] = sub
	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, subID id.SubscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subID.String()]; !exists {
		return kovr.ErrSubscriptionNotFound
	}
	delete(s.subscriptions, subID.String())

	// Alerts targeting the subscription go with it.
	for key, a := range s.alerts {
		if a.SubscriptionID == subID {
			delete(s.alerts, key)
		}
	}
	return nil
}

// Profile Store implementation

func (s *Store) CreateProfile(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID.String()]; exists {
		return kovr.ErrAlreadyExists
	}
	s.profiles[p.ID.String()] = p
	return nil
}

func (s *Store) GetProfile(_ context.Context, profileID id.ProfileID) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[profileID.String()]; ok {
		return p, nil
	}
	return nil, kovr.ErrProfileNotFound
}

func (s *Store) GetProfileByEmail(_ context.Context, email string) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, kovr.ErrProfileNotFound
}

func (s *Store) UpdateProfile(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID.String()]; !exists {
		return kovr.ErrProfileNotFound
	}
	s.profiles[p.ID.String()] = p
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, profileID id.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, profileID.String())
	return nil
}

// Family Store implementation

func (s *Store) CreateFamily(_ context.Context, f *family.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.families[f.ID.String()]; exists {
		return kovr.ErrAlreadyExists
	}
	s.families[f.ID.String()] = f
	return nil
}

func (s *Store) GetFamily(_ context.Context, familyID id.FamilyID) (*family.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.families[familyID.String()]; ok {
		return f, nil
	}
	return nil, kovr.ErrFamilyNotFound
}

func (s *Store) DeleteFamily(_ context.Context, familyID id.FamilyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.families[familyID.String()]; !exists {
		return kovr.ErrFamilyNotFound
	}
	delete(s.families, familyID.String())

	for key, m := range s.members {
		if m.FamilyID == familyID {
			delete(s.members, key)
		}
	}
	for code, inv := range s.invites {
		if inv.FamilyID == familyID {
			delete(s.invites, code)
		}
	}
	return nil
}

func (s *Store) AddMember(_ context.Context, m *family.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey(m.FamilyID, m.ProfileID)
	if _, exists := s.members[key]; exists {
		return kovr.ErrAlreadyMember
	}
	s.members[key] = m
	return nil
}

func (s *Store) GetMember(_ context.Context, familyID id.FamilyID, profileID id.ProfileID) (*family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.members[memberKey(familyID, profileID)]; ok {
		return m, nil
	}
	return nil, kovr.ErrMemberNotFound
}

func (s *Store) ListMembers(_ context.Context, familyID id.FamilyID) ([]*family.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*family.Member, 0)
	for _, m := range s.members {
		if m.FamilyID == familyID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Store) RemoveMember(_ context.Context, familyID id.FamilyID, profileID id.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey(familyID, profileID)
	if _, exists := s.members[key]; !exists {
		return kovr.ErrMemberNotFound
	}
	delete(s.members, key)
	return nil
}

func (s *Store) CreateInvite(_ context.Context, inv *family.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invites[inv.Code]; exists {
		return kovr.ErrAlreadyExists
	}
	s.invites[inv.Code] = inv
	return nil
}

func (s *Store) GetInviteByCode(_ context.Context, code string) (*family.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invites[code]; ok {
		return inv, nil
	}
	return nil, kovr.ErrInviteNotFound
}

func (s *Store) ListInvites(_ context.Context, familyID id.FamilyID) ([]*family.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*family.Invite, 0)
	for _, inv := range s.invites {
		if inv.FamilyID == familyID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (s *Store) UpdateInvite(_ context.Context, inv *family.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invites[inv.Code]; !exists {
		return kovr.ErrInviteNotFound
	}
	s.invites[inv.Code] = inv
	return nil
}

// Alert Store implementation

func (s *Store) CreateAlert(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[a.ID.String()]; exists {
		return kovr.ErrAlreadyExists
	}
	s.alerts[a.ID.String()] = a
	return nil
}

func (s *Store) GetAlert(_ context.Context, alertID id.AlertID) (*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.alerts[alertID.String()]; ok {
		return a, nil
	}
	return nil, kovr.ErrAlertNotFound
}

func (s *Store) ListAlertsByProfile(_ context.Context, profileID id.ProfileID) ([]*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*alert.Alert, 0)
	for _, a := range s.alerts {
		if a.ProfileID == profileID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *Store) ListAlertsBySubscription(_ context.Context, subID id.SubscriptionID) ([]*alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*alert.Alert, 0)
	for _, a := range s.alerts {
		if a.SubscriptionID == subID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *Store) UpdateAlert(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[a.ID.String()]; !exists {
		return kovr.ErrAlertNotFound
	}
	s.alerts[a.ID.String()] = a
	return nil
}

func (s *Store) DeleteAlert(_ context.Context, alertID id.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.alerts, alertID.String())
	return nil
}

func (s *Store) MarkAlertSent(_ context.Context, alertID id.AlertID, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.alerts[alertID.String()]; ok {
		a.LastSentAt = &sentAt
		return nil
	}
	return kovr.ErrAlertNotFound
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions

func matches(sub *subscription.Subscription, opts subscription.ListOpts) bool {
	if opts.Status != "" && sub.Status != opts.Status {
		return false
	}
	if opts.Category != "" && sub.Category != opts.Category {
		return false
	}
	return true
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
