// Package mongo implements the Kovr store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	kovr "github.com/kovrhq/kovr"
	"github.com/kovrhq/kovr/alert"
	"github.com/kovrhq/kovr/family"
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/profile"
	kovrstore "github.com/kovrhq/kovr/store"
	"github.com/kovrhq/kovr/subscription"
)

// Collection name constants.
const (
	colSubscriptions = "kovr_subscriptions"
	colProfiles      = "kovr_profiles"
	colFamilies      = "kovr_families"
	colMembers       = "kovr_family_members"
	colInvites       = "kovr_family_invites"
	colAlerts        = "kovr_alerts"
)

// compile-time interface check
var _ kovrstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	db *mongo.Database
}

// New creates a new MongoDB store on the given database.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// DB returns the underlying mongo database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("kovr/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

// ==================== Subscription store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Collection(colSubscriptions).InsertOne(ctx, toSubscriptionModel(sub))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.db.Collection(colSubscriptions).
		FindOne(ctx, bson.M{"_id": subID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) ListSubscriptionsByProfile(ctx context.Context, profileID id.ProfileID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, bson.M{"profile_id": profileID.String()}, opts)
}

func (s *Store) ListSubscriptionsByFamily(ctx context.Context, familyID id.FamilyID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return s.listSubscriptions(ctx, bson.M{"family_id": familyID.String()}, opts)
}

func (s *Store) listSubscriptions(ctx context.Context, filter bson.M, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colSubscriptions).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("kovr/mongo: list subscriptions: %w", err)
	}
	defer cur.Close(ctx)

	var subs []*subscription.Subscription
	for cur.Next(ctx) {
		var m subscriptionModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		sub, err := fromSubscriptionModel(&m)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, cur.Err()
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	// ReplaceOne drops any lingering legacy fields on the document, which is
	// exactly what we want after normalizing on read.
	res, err := s.db.Collection(colSubscriptions).
		ReplaceOne(ctx, bson.M{"_id": sub.ID.String()}, toSubscriptionModel(sub))
	if err != nil {
		return fmt.Errorf("kovr/mongo: update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return kovr.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) error {
	res, err := s.db.Collection(colSubscriptions).
		DeleteOne(ctx, bson.M{"_id": subID.String()})
	if err != nil {
		return fmt.Errorf("kovr/mongo: delete subscription: %w", err)
	}
	if res.DeletedCount == 0 {
		return kovr.ErrSubscriptionNotFound
	}
	_, err = s.db.Collection(colAlerts).
		DeleteMany(ctx, bson.M{"subscription_id": subID.String()})
	return err
}

// ==================== Profile store ====================

func (s *Store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	_, err := s.db.Collection(colProfiles).InsertOne(ctx, toProfileModel(p))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: create profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, profileID id.ProfileID) (*profile.Profile, error) {
	var m profileModel
	err := s.db.Collection(colProfiles).
		FindOne(ctx, bson.M{"_id": profileID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrProfileNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get profile: %w", err)
	}
	return fromProfileModel(&m)
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	var m profileModel
	err := s.db.Collection(colProfiles).
		FindOne(ctx, bson.M{"email": email}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrProfileNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get profile by email: %w", err)
	}
	return fromProfileModel(&m)
}

func (s *Store) UpdateProfile(ctx context.Context, p *profile.Profile) error {
	res, err := s.db.Collection(colProfiles).
		ReplaceOne(ctx, bson.M{"_id": p.ID.String()}, toProfileModel(p))
	if err != nil {
		return fmt.Errorf("kovr/mongo: update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return kovr.ErrProfileNotFound
	}
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, profileID id.ProfileID) error {
	res, err := s.db.Collection(colProfiles).
		DeleteOne(ctx, bson.M{"_id": profileID.String()})
	if err != nil {
		return fmt.Errorf("kovr/mongo: delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return kovr.ErrProfileNotFound
	}
	return nil
}

// ==================== Family store ====================

func (s *Store) CreateFamily(ctx context.Context, f *family.Family) error {
	_, err := s.db.Collection(colFamilies).InsertOne(ctx, toFamilyModel(f))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: create family: %w", err)
	}
	return nil
}

func (s *Store) GetFamily(ctx context.Context, familyID id.FamilyID) (*family.Family, error) {
	var m familyModel
	err := s.db.Collection(colFamilies).
		FindOne(ctx, bson.M{"_id": familyID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrFamilyNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get family: %w", err)
	}
	return fromFamilyModel(&m)
}

func (s *Store) DeleteFamily(ctx context.Context, familyID id.FamilyID) error {
	res, err := s.db.Collection(colFamilies).
		DeleteOne(ctx, bson.M{"_id": familyID.String()})
	if err != nil {
		return fmt.Errorf("kovr/mongo: delete family: %w", err)
	}
	if res.DeletedCount == 0 {
		return kovr.ErrFamilyNotFound
	}
	filter := bson.M{"family_id": familyID.String()}
	if _, err := s.db.Collection(colMembers).DeleteMany(ctx, filter); err != nil {
		return err
	}
	_, err = s.db.Collection(colInvites).DeleteMany(ctx, filter)
	return err
}

func (s *Store) AddMember(ctx context.Context, m *family.Member) error {
	_, err := s.db.Collection(colMembers).InsertOne(ctx, toMemberModel(m))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: add member: %w", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) (*family.Member, error) {
	var m memberModel
	err := s.db.Collection(colMembers).
		FindOne(ctx, bson.M{"family_id": familyID.String(), "profile_id": profileID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrMemberNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get member: %w", err)
	}
	return fromMemberModel(&m)
}

func (s *Store) ListMembers(ctx context.Context, familyID id.FamilyID) ([]*family.Member, error) {
	cur, err := s.db.Collection(colMembers).Find(ctx,
		bson.M{"family_id": familyID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("kovr/mongo: list members: %w", err)
	}
	defer cur.Close(ctx)

	var members []*family.Member
	for cur.Next(ctx) {
		var m memberModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		member, err := fromMemberModel(&m)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, cur.Err()
}

func (s *Store) RemoveMember(ctx context.Context, familyID id.FamilyID, profileID id.ProfileID) error {
	res, err := s.db.Collection(colMembers).
		DeleteOne(ctx, bson.M{"family_id": familyID.String(), "profile_id": profileID.String()})
	if err != nil {
		return fmt.Errorf("kovr/mongo: remove member: %w", err)
	}
	if res.DeletedCount == 0 {
		return kovr.ErrMemberNotFound
	}
	return nil
}

func (s *Store) CreateInvite(ctx context.Context, inv *family.Invite) error {
	_, err := s.db.Collection(colInvites).InsertOne(ctx, toInviteModel(inv))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: create invite: %w", err)
	}
	return nil
}

func (s *Store) GetInviteByCode(ctx context.Context, code string) (*family.Invite, error) {
	var m inviteModel
	err := s.db.Collection(colInvites).
		FindOne(ctx, bson.M{"code": code}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrInviteNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get invite by code: %w", err)
	}
	return fromInviteModel(&m)
}

func (s *Store) ListInvites(ctx context.Context, familyID id.FamilyID) ([]*family.Invite, error) {
	cur, err := s.db.Collection(colInvites).Find(ctx,
		bson.M{"family_id": familyID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("kovr/mongo: list invites: %w", err)
	}
	defer cur.Close(ctx)

	var invites []*family.Invite
	for cur.Next(ctx) {
		var m inviteModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		inv, err := fromInviteModel(&m)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, cur.Err()
}

func (s *Store) UpdateInvite(ctx context.Context, inv *family.Invite) error {
	res, err := s.db.Collection(colInvites).
		ReplaceOne(ctx, bson.M{"_id": inv.ID.String()}, toInviteModel(inv))
	if err != nil {
		return fmt.Errorf("kovr/mongo: update invite: %w", err)
	}
	if res.MatchedCount == 0 {
		return kovr.ErrInviteNotFound
	}
	return nil
}

// ==================== Alert store ====================

func (s *Store) CreateAlert(ctx context.Context, a *alert.Alert) error {
	_, err := s.db.Collection(colAlerts).InsertOne(ctx, toAlertModel(a))
	if mongo.IsDuplicateKeyError(err) {
		return kovr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("kovr/mongo: create alert: %w", err)
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, alertID id.AlertID) (*alert.Alert, error) {
	var m alertModel
	err := s.db.Collection(colAlerts).
		FindOne(ctx, bson.M{"_id": alertID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, kovr.ErrAlertNotFound
		}
		return nil, fmt.Errorf("kovr/mongo: get alert: %w", err)
	}
	return fromAlertModel(&m)
}

func (s *Store) ListAlertsByProfile(ctx context.Context, profileID id.ProfileID) ([]*alert.Alert, error) {
	return s.listAlerts(ctx, bson.M{"profile_id": profileID.String()})
}

func (s *Store) ListAlertsBySubscription(ctx context.Context, subID id.SubscriptionID) ([]*alert.Alert, error) {
	return s.listAlerts(ctx, bson.M{"subscription_id": subID.String()})
}

func (s *Store) listAlerts(ctx context.Context, filter bson.M) ([]*alert.Alert, error) {
	cur, err := s.db.Collection(colAlerts).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("kovr/mongo: list alerts: %w", err)
	}
	defer cur.Close(ctx)

	var alerts []*alert.Alert
	for cur.Next(ctx) {
		var m alertModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		a, err := fromAlertModel(&m)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, cur.Err()
}

func (s *Store) UpdateAlert(ctx context.Context, a *alert.Alert) error {
	res, err := s.db.Collection(colAlerts).
		ReplaceOne(ctx, bson.M{"_id": a.ID.String()}, toAlertModel(a))
	if err != nil {
		return fmt.Errorf("kovr/mongo: update alert: %w", err)
	}
	if res.MatchedCount == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

func (s *Store) DeleteAlert(ctx context.Context, alertID id.AlertID) error {
	res, err := s.db.Collection(colAlerts).
		DeleteOne(ctx, bson.M{"_id": alertID.String()})
	if err != nil {
		return fmt.Errorf("kovr/mongo: delete alert: %w", err)
	}
	if res.DeletedCount == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

func (s *Store) MarkAlertSent(ctx context.Context, alertID id.AlertID, sentAt time.Time) error {
	res, err := s.db.Collection(colAlerts).UpdateOne(ctx,
		bson.M{"_id": alertID.String()},
		bson.M{"$set": bson.M{"last_sent_at": sentAt, "updated_at": sentAt}})
	if err != nil {
		return fmt.Errorf("kovr/mongo: mark alert sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return kovr.ErrAlertNotFound
	}
	return nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{Keys: bson.D{{Key: "profile_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "family_id", Value: 1}}},
			{Keys: bson.D{{Key: "profile_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colProfiles: {
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}}),
			},
		},
		colFamilies: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		colMembers: {
			{
				Keys:    bson.D{{Key: "family_id", Value: 1}, {Key: "profile_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colInvites: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "family_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colAlerts: {
			{Keys: bson.D{{Key: "profile_id", Value: 1}}},
			{Keys: bson.D{{Key: "subscription_id", Value: 1}}},
		},
	}
}
