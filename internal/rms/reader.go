package rms

import (
	"context"
	"time"

	id "casefile/pkg/domain"
)

// Reader is the read boundary to the RMS mirror.
//
// FindRecord returns sentinel.ErrNotFound (wrapped) when the mirror has no
// record for the ID; callers decide whether a dangling link is an error or
// just an unlinked profile.
//
// IncidentsInRange returns incidents with OccurredAt in [from, to],
// newest first.
type Reader interface {
	FindRecord(ctx context.Context, recordID id.RecordID) (*Record, error)
	IncidentsInRange(ctx context.Context, recordID id.RecordID, from, to time.Time) ([]CrisisIncident, error)
}
