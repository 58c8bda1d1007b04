// Package cache memoizes expensive derived profile reads across requests.
// Entries are keyed by (profile id, label) and hold JSON bytes; correctness
// comes from explicit invalidation on save, not from expiry.
package cache

import (
	"context"

	"casefile/internal/profile/models"
	id "casefile/pkg/domain"
)

// Labels for the derived reads the service caches.
const (
	LabelResolved = "resolved"
	LabelImageURL = "image_url"
)

// AllLabels lists every cache label, for whole-profile invalidation.
func AllLabels() []string {
	return []string{LabelResolved, LabelImageURL}
}

// ComputeFunc produces the value for a missing cache entry.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Store is the derived-value cache boundary. GetOrCompute returns the cached
// value for (profileID, label), computing and storing it on first access.
// Concurrent misses on the same key may compute more than once across
// processes, but at most one result is stored. Invalidate drops entries so
// the next read recomputes; it is the hook the save path and the changefeed
// invalidator call.
type Store interface {
	GetOrCompute(ctx context.Context, profileID id.ProfileID, label string, compute ComputeFunc) ([]byte, error)
	Invalidate(ctx context.Context, profileID id.ProfileID, labels ...string) error
}

// ForProfile applies the profile-level caching rule: a persisted profile
// with no unsaved changes reads through the store; a new or dirty profile
// computes directly and stores nothing, because its identity or content may
// still change before the caller commits to either.
func ForProfile(ctx context.Context, store Store, p *models.Profile, label string, compute ComputeFunc) ([]byte, error) {
	if !p.IsPersisted() || p.IsDirty() {
		return compute(ctx)
	}
	return store.GetOrCompute(ctx, p.ID, label, compute)
}

func cacheKey(profileID id.ProfileID, label string) string {
	return "profile:derived:" + profileID.String() + ":" + label
}
