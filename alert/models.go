// Package alert models renewal reminders and their delivery contract.
//
// An Alert says "remind this profile N days before this subscription bills,
// over this channel". Deciding which alerts fire on a given day is the pure
// Due computation; actually sending is delegated to a Dispatcher, which is an
// external collaborator (Telegram bots, SMTP relays and the like live
// outside Kovr).
package alert

import (
	"time"

	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/types"
)

// Channel is the delivery channel for an alert.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
)

// Alert is a standing reminder rule for one subscription.
type Alert struct {
	types.Entity
	ID             id.AlertID        `json:"id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	ProfileID      id.ProfileID      `json:"profile_id"`
	Channel        Channel           `json:"channel"`
	DaysBefore     int               `json:"days_before"`
	Enabled        bool              `json:"enabled"`
	LastSentAt     *time.Time        `json:"last_sent_at,omitempty"`
}

// Message is one rendered reminder ready for delivery.
type Message struct {
	Alert        *Alert      `json:"alert"`
	Subscription string      `json:"subscription"`
	Amount       types.Money `json:"amount"`
	BillingDate  types.Date  `json:"billing_date"`
}
