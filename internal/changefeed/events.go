// Package changefeed carries profile change events between service
// instances. Every save publishes an event; every instance consumes the
// feed and drops its cached derived values for the changed profile, which
// is how the derived-value cache converges without TTLs.
package changefeed

import (
	"encoding/json"
	"fmt"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
)

// EventType classifies a profile change.
type EventType string

const (
	EventProfileCreated EventType = "profile.created"
	EventProfileUpdated EventType = "profile.updated"
	EventProfileDeleted EventType = "profile.deleted"
)

// Event is one profile change. Labels names the derived-value cache labels
// the change invalidates; empty means all of them.
type Event struct {
	Type       EventType                     `json:"type"`
	ProfileID  id.ProfileID                  `json:"profile_id"`
	Labels     []string                      `json:"labels,omitempty"`
	ActorID    optional.Optional[id.ActorID] `json:"actor_id,omitempty"`
	OccurredAt time.Time                     `json:"occurred_at"`
}

// Validate checks the event is well-formed enough to publish.
func (e Event) Validate() error {
	switch e.Type {
	case EventProfileCreated, EventProfileUpdated, EventProfileDeleted:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown changefeed event type %q", e.Type)
	}
	if e.ProfileID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "changefeed event has no profile id")
	}
	return nil
}

// Encode serializes the event for the wire.
func (e Event) Encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode changefeed event: %w", err)
	}
	return payload, nil
}

// DecodeEvent parses an event off the wire.
func DecodeEvent(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed changefeed event")
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
