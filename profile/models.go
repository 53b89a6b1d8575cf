package profile

import (
	"github.com/kovrhq/kovr/id"
	"github.com/kovrhq/kovr/types"
)

// Profile is a Kovr user. Authentication is handled upstream; the profile
// carries only what the tracker needs: identity, notification endpoints and
// display preferences.
type Profile struct {
	types.Entity
	ID              id.ProfileID `json:"id"`
	DisplayName     string       `json:"display_name"`
	Email           string       `json:"email,omitempty"`
	TelegramChatID  int64        `json:"telegram_chat_id,omitempty"`
	DefaultCurrency string       `json:"default_currency"`
	AlertDaysBefore int          `json:"alert_days_before"`
	AlertsEnabled   bool         `json:"alerts_enabled"`
}
