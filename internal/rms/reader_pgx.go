package rms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"casefile/internal/platform/config"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// PgxReader reads the RMS mirror through a pgx connection pool. The mirror
// grants read-only credentials; this reader issues SELECTs only.
type PgxReader struct {
	pool *pgxpool.Pool
}

// NewPgxReader connects to the RMS mirror and verifies the connection.
// Returns nil if no mirror URL is configured.
func NewPgxReader(ctx context.Context, cfg config.RMS) (*PgxReader, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rms pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("rms ping failed: %w", err)
	}
	return &PgxReader{pool: pool}, nil
}

// NewPgxReaderFromPool wraps an existing pool. Used by tests.
func NewPgxReaderFromPool(pool *pgxpool.Pool) *PgxReader {
	return &PgxReader{pool: pool}
}

func (r *PgxReader) FindRecord(ctx context.Context, recordID id.RecordID) (*Record, error) {
	query := `
		SELECT id, first_name, last_name, middle_name, date_of_birth,
		       sex, race, eye_color, hair_color, height_inches,
		       weight_pounds, scars_marks, location_name, location_address
		FROM rms_records
		WHERE id = $1
	`

	var (
		rawID uuid.UUID
		rec   Record
	)
	err := r.pool.QueryRow(ctx, query, uuid.UUID(recordID)).Scan(
		&rawID,
		&rec.FirstName,
		&rec.LastName,
		&rec.MiddleName,
		&rec.DateOfBirth,
		&rec.Sex,
		&rec.Race,
		&rec.EyeColor,
		&rec.HairColor,
		&rec.HeightInches,
		&rec.WeightPounds,
		&rec.ScarsMarks,
		&rec.LocationName,
		&rec.LocationAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("rms record %s: %w", recordID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find rms record: %w", err)
	}

	rec.ID = id.RecordID(rawID)
	return &rec, nil
}

func (r *PgxReader) IncidentsInRange(ctx context.Context, recordID id.RecordID, from, to time.Time) ([]CrisisIncident, error) {
	query := `
		SELECT id, record_id, occurred_at, COALESCE(nature, ''), veteran_involved
		FROM rms_crisis_incidents
		WHERE record_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at DESC
	`

	rows, err := r.pool.Query(ctx, query, uuid.UUID(recordID), from, to)
	if err != nil {
		return nil, fmt.Errorf("query rms incidents: %w", err)
	}
	defer rows.Close()

	var incidents []CrisisIncident
	for rows.Next() {
		var (
			rawID    uuid.UUID
			rawRecID uuid.UUID
			inc      CrisisIncident
		)
		if err := rows.Scan(&rawID, &rawRecID, &inc.OccurredAt, &inc.Nature, &inc.VeteranInvolved); err != nil {
			return nil, fmt.Errorf("scan rms incident: %w", err)
		}
		inc.ID = id.IncidentID(rawID)
		inc.RecordID = id.RecordID(rawRecID)
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rms incidents: %w", err)
	}

	return incidents, nil
}

// Health checks mirror reachability.
func (r *PgxReader) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PgxReader) Close() {
	r.pool.Close()
}
