// Package notify sends short notifications to the home owner.
package notify

import (
	"context"
	"errors"

	"ehome/internal/retry"
	"ehome/internal/store"
	"ehome/util"
)

// ErrNotConfigured is returned when no notification provider is set up.
var ErrNotConfigured = errors.New("notification system is not set up")

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Provider is a delivery backend selected by name in the configuration.
type Provider interface {
	Deliver(ctx context.Context, cfg store.NotificationConfig, message string) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, cfg store.NotificationConfig, message string) error

// Deliver calls f.
func (f ProviderFunc) Deliver(ctx context.Context, cfg store.NotificationConfig, message string) error {
	return f(ctx, cfg, message)
}

// Service picks the provider named by the current configuration.
// Deliveries go through a circuit breaker so a provider that keeps
// failing is not called from every session.
type Service struct {
	config    store.ConfigService
	providers map[string]Provider
	breaker   *retry.CircuitBreaker
	logger    *util.Logger
}

// NewService returns a Service.  providers maps provider names to
// backends.  A nil breaker config uses the retry package defaults.
func NewService(cfg store.ConfigService, providers map[string]Provider, breaker *retry.CircuitBreakerConfig, logger *util.Logger) *Service {
	if breaker == nil {
		breaker = retry.DefaultCircuitBreakerConfig()
	}
	bc := *breaker
	bc.OnStateChange = func(from, to retry.State) {
		logger.Warn("notification delivery circuit %s -> %s", from, to)
	}
	return &Service{
		config:    cfg,
		providers: providers,
		breaker:   retry.NewCircuitBreaker(&bc),
		logger:    logger,
	}
}

// Send delivers message through the configured provider.
func (s *Service) Send(ctx context.Context, message string) error {
	nc := s.config.Current().Notification
	if nc == nil {
		s.logger.Info("the notification system was not set up, so can't send notification")
		return ErrNotConfigured
	}
	p, ok := s.providers[nc.Provider]
	if !ok {
		s.logger.Warn("no notification provider named %q", nc.Provider)
		return ErrNotConfigured
	}
	s.logger.Info("sending notification via %s", nc.Provider)
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.Deliver(ctx, *nc, message)
	})
}

// LogProvider writes notifications to the server log.
func LogProvider(logger *util.Logger) Provider {
	return ProviderFunc(func(_ context.Context, cfg store.NotificationConfig, message string) error {
		logger.With("provider", cfg.Provider).Info("notification: %s", message)
		return nil
	})
}
