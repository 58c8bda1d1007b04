// Package domain defines the typed identifiers shared across the casefile
// service. Each entity gets its own UUID newtype so identifiers cannot be
// swapped across entities at compile time (a plan ID is never a profile ID).
package domain

import (
	"github.com/google/uuid"

	dErrors "casefile/pkg/domain-errors"
)

// ProfileID identifies a locally-maintained person-of-interest profile.
type ProfileID uuid.UUID

// PlanID identifies a response plan.
type PlanID uuid.UUID

// VisibilityID identifies a visibility event.
type VisibilityID uuid.UUID

// ReviewID identifies a profile review event.
type ReviewID uuid.UUID

// AliasID identifies an alternate-name record owned by a profile.
type AliasID uuid.UUID

// ImageID identifies a profile image record.
type ImageID uuid.UUID

// RecordID identifies a record in the external records-management system.
type RecordID uuid.UUID

// IncidentID identifies a crisis incident on the RMS side.
type IncidentID uuid.UUID

// ActorID identifies the user who performed an action (visibility changes,
// reviews). Account management itself lives outside this service.
type ActorID uuid.UUID

func (id ProfileID) String() string    { return uuid.UUID(id).String() }
func (id PlanID) String() string       { return uuid.UUID(id).String() }
func (id VisibilityID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string     { return uuid.UUID(id).String() }
func (id AliasID) String() string      { return uuid.UUID(id).String() }
func (id ImageID) String() string      { return uuid.UUID(id).String() }
func (id RecordID) String() string     { return uuid.UUID(id).String() }
func (id IncidentID) String() string   { return uuid.UUID(id).String() }
func (id ActorID) String() string      { return uuid.UUID(id).String() }

func (id ProfileID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id IncidentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling renders IDs as canonical UUID strings in JSON payloads
// (changefeed events, summaries) instead of the raw byte array a UUID
// newtype would otherwise produce.

func (id ProfileID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id PlanID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id VisibilityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ReviewID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AliasID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ImageID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id RecordID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id IncidentID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func unmarshalUUID(dst *uuid.UUID, text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	*dst = u
	return nil
}

func (id *ProfileID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}
func (id *PlanID) UnmarshalText(text []byte) error { return unmarshalUUID((*uuid.UUID)(id), text) }
func (id *VisibilityID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}
func (id *ReviewID) UnmarshalText(text []byte) error { return unmarshalUUID((*uuid.UUID)(id), text) }
func (id *AliasID) UnmarshalText(text []byte) error  { return unmarshalUUID((*uuid.UUID)(id), text) }
func (id *ImageID) UnmarshalText(text []byte) error  { return unmarshalUUID((*uuid.UUID)(id), text) }
func (id *RecordID) UnmarshalText(text []byte) error { return unmarshalUUID((*uuid.UUID)(id), text) }
func (id *IncidentID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}
func (id *ActorID) UnmarshalText(text []byte) error { return unmarshalUUID((*uuid.UUID)(id), text) }

// NewProfileID returns a fresh random profile identifier.
func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

// NewPlanID returns a fresh random plan identifier.
func NewPlanID() PlanID { return PlanID(uuid.New()) }

// NewVisibilityID returns a fresh random visibility identifier.
func NewVisibilityID() VisibilityID { return VisibilityID(uuid.New()) }

// NewReviewID returns a fresh random review identifier.
func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

// NewAliasID returns a fresh random alias identifier.
func NewAliasID() AliasID { return AliasID(uuid.New()) }

// NewImageID returns a fresh random image identifier.
func NewImageID() ImageID { return ImageID(uuid.New()) }

// parseUUID enforces the shared parsing invariant: IDs must be valid,
// non-empty, non-nil UUIDs. All typed parsers funnel through it so every
// ID type rejects the same inputs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseProfileID parses and validates a profile identifier.
func ParseProfileID(s string) (ProfileID, error) {
	u, err := parseUUID(s)
	return ProfileID(u), err
}

// ParsePlanID parses and validates a plan identifier.
func ParsePlanID(s string) (PlanID, error) {
	u, err := parseUUID(s)
	return PlanID(u), err
}

// ParseRecordID parses and validates an RMS record identifier.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	return RecordID(u), err
}

// ParseActorID parses and validates an actor identifier.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s)
	return ActorID(u), err
}
