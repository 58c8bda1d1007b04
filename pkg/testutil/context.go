package testutil

import (
	"context"
	"testing"
	"time"

	id "casefile/pkg/domain"
	"casefile/pkg/requestcontext"
)

// Date builds a UTC timestamp at midnight. Derivation tests deal almost
// exclusively in whole days.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ContextAt returns a context whose request-scoped clock is frozen at t.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

// ContextWithActor returns a context carrying a parsed actor ID and a frozen
// clock, simulating what the entrypoint wiring would establish.
func ContextWithActor(t *testing.T, actorID string, at time.Time) context.Context {
	t.Helper()
	parsed, err := id.ParseActorID(actorID)
	if err != nil {
		t.Fatalf("invalid actor id %q: %v", actorID, err)
	}
	ctx := requestcontext.WithActorID(context.Background(), parsed)
	return requestcontext.WithTime(ctx, at)
}
