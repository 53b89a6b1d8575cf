package alert

import (
	"context"
	"log/slog"
)

// Dispatcher delivers reminder messages over some channel. Implementations
// wrap external transports (Telegram bot API, SMTP, webhooks); Kovr only
// defines the contract.
type Dispatcher interface {
	Send(ctx context.Context, msg *Message) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, msg *Message) error

// Send implements Dispatcher.
func (f DispatcherFunc) Send(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// LogDispatcher writes reminders to a slog.Logger instead of delivering
// them. Useful in development and tests.
type LogDispatcher struct {
	Logger *slog.Logger
}

// Send implements Dispatcher.
func (d *LogDispatcher) Send(_ context.Context, msg *Message) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("renewal reminder",
		"subscription", msg.Subscription,
		"amount", msg.Amount.String(),
		"billing_date", msg.BillingDate.String(),
		"channel", msg.Alert.Channel,
	)
	return nil
}
