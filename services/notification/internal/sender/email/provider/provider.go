// Package provider defines the email provider interface and a registry with fallback.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string // plain text
	HTML    string // optional
}

// Provider is the interface that all email providers must implement.
type Provider interface {
	// Name returns the provider name (e.g. "ses", "resend").
	Name() string

	// Send sends an email using this provider.
	Send(ctx context.Context, req *EmailRequest) error

	// IsConfigured returns true if the provider has what it needs to send.
	IsConfigured() bool
}

// Registry manages email providers with fallback support.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewRegistry creates a new email provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the primary provider by name.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the fallback providers in order.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// candidates lists configured providers in attempt order: primary, fallbacks,
// then any remaining configured provider by name.
func (r *Registry) candidates() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []Provider
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if p, ok := r.providers[name]; ok && p.IsConfigured() {
			out = append(out, p)
		}
	}

	if r.primary != "" {
		add(r.primary)
	}
	for _, name := range r.fallback {
		add(name)
	}
	rest := make([]string, 0, len(r.providers))
	for name := range r.providers {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return out
}

// Send tries each configured provider in order until one succeeds.
// The first provider's error is returned when all fail.
func (r *Registry) Send(ctx context.Context, req *EmailRequest) error {
	providers := r.candidates()
	if len(providers) == 0 {
		return fmt.Errorf("no configured email provider available")
	}

	var firstErr error
	for i, p := range providers {
		err := p.Send(ctx, req)
		if err == nil {
			if i > 0 {
				slog.Warn("Email sent via fallback provider", "provider", p.Name(), "primary_error", firstErr)
			}
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
		slog.Warn("Email provider failed", "provider", p.Name(), "error", err)
	}
	return firstErr
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
