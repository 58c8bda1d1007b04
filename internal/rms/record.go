// Package rms provides read-only access to the linked records-management
// system mirror. Nothing in this package writes: the RMS is an external
// system of record and the mirror is consumed as-is.
package rms

import (
	"time"

	id "casefile/pkg/domain"
	"casefile/pkg/optional"
)

// Record is the canonical identity record held by the RMS for a person.
// Every field a profile may override locally has a counterpart here; fields
// the RMS has no data for are None.
type Record struct {
	ID id.RecordID

	FirstName       optional.Optional[string]
	LastName        optional.Optional[string]
	MiddleName      optional.Optional[string]
	DateOfBirth     optional.Optional[time.Time]
	Sex             optional.Optional[string]
	Race            optional.Optional[string]
	EyeColor        optional.Optional[string]
	HairColor       optional.Optional[string]
	HeightInches    optional.Optional[int]
	WeightPounds    optional.Optional[int]
	ScarsMarks      optional.Optional[string]
	LocationName    optional.Optional[string]
	LocationAddress optional.Optional[string]
}

// CrisisIncident is a time-stamped crisis event recorded against an RMS
// record. Read-only, like everything else from the mirror.
type CrisisIncident struct {
	ID              id.IncidentID
	RecordID        id.RecordID
	OccurredAt      time.Time
	Nature          string
	VeteranInvolved bool
}
