package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so emitting an event touches only the
// plugins that implement its hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onSubscriptionCreated []OnSubscriptionCreated
	onSubscriptionUpdated []OnSubscriptionUpdated
	onSubscriptionDeleted []OnSubscriptionDeleted
	onFamilyCreated       []OnFamilyCreated
	onInviteCreated       []OnInviteCreated
	onInviteAccepted      []OnInviteAccepted
	onMemberRemoved       []OnMemberRemoved
	onAlertQueued         []OnAlertQueued
	onAlertsDispatched    []OnAlertsDispatched
	onReportBuilt         []OnReportBuilt
	dispatchers           map[string]DispatcherPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:      slog.Default(),
		dispatchers: make(map[string]DispatcherPlugin),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnSubscriptionUpdated); ok {
		r.onSubscriptionUpdated = append(r.onSubscriptionUpdated, v)
	}
	if v, ok := p.(OnSubscriptionDeleted); ok {
		r.onSubscriptionDeleted = append(r.onSubscriptionDeleted, v)
	}
	if v, ok := p.(OnFamilyCreated); ok {
		r.onFamilyCreated = append(r.onFamilyCreated, v)
	}
	if v, ok := p.(OnInviteCreated); ok {
		r.onInviteCreated = append(r.onInviteCreated, v)
	}
	if v, ok := p.(OnInviteAccepted); ok {
		r.onInviteAccepted = append(r.onInviteAccepted, v)
	}
	if v, ok := p.(OnMemberRemoved); ok {
		r.onMemberRemoved = append(r.onMemberRemoved, v)
	}
	if v, ok := p.(OnAlertQueued); ok {
		r.onAlertQueued = append(r.onAlertQueued, v)
	}
	if v, ok := p.(OnAlertsDispatched); ok {
		r.onAlertsDispatched = append(r.onAlertsDispatched, v)
	}
	if v, ok := p.(OnReportBuilt); ok {
		r.onReportBuilt = append(r.onReportBuilt, v)
	}
	if v, ok := p.(DispatcherPlugin); ok {
		r.dispatchers[v.ChannelName()] = v
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GetDispatcher returns a registered delivery channel plugin by name.
func (r *Registry) GetDispatcher(channel string) DispatcherPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dispatchers[channel]
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, tracker interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, tracker)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubscriptionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionUpdated emits a subscription updated event.
func (r *Registry) EmitSubscriptionUpdated(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubscriptionUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionUpdated(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriptionDeleted emits a subscription deleted event.
func (r *Registry) EmitSubscriptionDeleted(ctx context.Context, subID string) {
	r.mu.RLock()
	plugins := r.onSubscriptionDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriptionDeleted(ctx, subID)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriptionDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFamilyCreated emits a family created event.
func (r *Registry) EmitFamilyCreated(ctx context.Context, fam interface{}) {
	r.mu.RLock()
	plugins := r.onFamilyCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFamilyCreated(ctx, fam)
		}); err != nil {
			r.logger.Warn("plugin OnFamilyCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInviteCreated emits an invite created event.
func (r *Registry) EmitInviteCreated(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInviteCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInviteCreated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInviteCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInviteAccepted emits an invite accepted event.
func (r *Registry) EmitInviteAccepted(ctx context.Context, inv, member interface{}) {
	r.mu.RLock()
	plugins := r.onInviteAccepted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInviteAccepted(ctx, inv, member)
		}); err != nil {
			r.logger.Warn("plugin OnInviteAccepted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMemberRemoved emits a member removed event.
func (r *Registry) EmitMemberRemoved(ctx context.Context, familyID, profileID string) {
	r.mu.RLock()
	plugins := r.onMemberRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMemberRemoved(ctx, familyID, profileID)
		}); err != nil {
			r.logger.Warn("plugin OnMemberRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAlertQueued emits an alert queued event.
func (r *Registry) EmitAlertQueued(ctx context.Context, msg interface{}) {
	r.mu.RLock()
	plugins := r.onAlertQueued
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAlertQueued(ctx, msg)
		}); err != nil {
			r.logger.Warn("plugin OnAlertQueued failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAlertsDispatched emits an alerts dispatched event.
func (r *Registry) EmitAlertsDispatched(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onAlertsDispatched
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAlertsDispatched(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnAlertsDispatched failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReportBuilt emits a report built event.
func (r *Registry) EmitReportBuilt(ctx context.Context, summary interface{}) {
	r.mu.RLock()
	plugins := r.onReportBuilt
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReportBuilt(ctx, summary)
		}); err != nil {
			r.logger.Warn("plugin OnReportBuilt failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the tracker pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
