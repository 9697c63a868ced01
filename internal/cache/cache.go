// Package cache provides the key-value cache for hot post listings.
//
// The cache is an optional collaborator: when it is unconfigured or
// unreachable, every operation degrades to cache-miss behavior. Errors are
// logged, never returned, so callers treat "disabled", "down", and "absent
// key" identically.
package cache

import "context"

// Cache is a capability-checked key-value store.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores a value. Failures are silently degraded.
	Set(ctx context.Context, key, value string)
	// Exists reports whether the key is present.
	Exists(ctx context.Context, key string) bool
	// Del removes a key if present.
	Del(ctx context.Context, key string)
	// Enabled reports whether a real backend is configured.
	Enabled() bool
}

// Disabled is the graceful-absent Cache used when no backend is configured.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (string, bool) { return "", false }
func (Disabled) Set(context.Context, string, string)        {}
func (Disabled) Exists(context.Context, string) bool        { return false }
func (Disabled) Del(context.Context, string)                {}
func (Disabled) Enabled() bool                              { return false }
