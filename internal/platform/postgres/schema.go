package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full DDL for the casefile database. Statements are idempotent
// so EnsureSchema can run on every startup in development and in tests.
//
// The rms_* tables mirror the read-only records-management system. Production
// reads them through a separate mirror database; tests and single-database
// development environments keep them alongside the casefile tables.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id               UUID PRIMARY KEY,
    rms_record_id    UUID,
    first_name       TEXT,
    last_name        TEXT,
    middle_name      TEXT,
    date_of_birth    DATE,
    sex              TEXT,
    race             TEXT,
    eye_color        TEXT,
    hair_color       TEXT,
    height_inches    INT,
    weight_pounds    INT,
    scars_marks      TEXT,
    location_name    TEXT,
    location_address TEXT,
    analytics_token  UUID NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS aliases (
    id         UUID PRIMARY KEY,
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS aliases_profile_id_idx ON aliases (profile_id);

CREATE TABLE IF NOT EXISTS images (
    id         UUID PRIMARY KEY,
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    url        TEXT NOT NULL,
    position   INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS images_profile_id_idx ON images (profile_id, position);

CREATE TABLE IF NOT EXISTS response_plans (
    id          UUID PRIMARY KEY,
    profile_id  UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    status      TEXT NOT NULL,
    strategies  TEXT[] NOT NULL DEFAULT '{}',
    approved_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS response_plans_profile_id_idx ON response_plans (profile_id, approved_at);

CREATE TABLE IF NOT EXISTS visibilities (
    id         UUID PRIMARY KEY,
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    created_by UUID,
    removed_by UUID,
    created_at TIMESTAMPTZ NOT NULL,
    removed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS visibilities_profile_id_idx ON visibilities (profile_id);

CREATE TABLE IF NOT EXISTS reviews (
    id          UUID PRIMARY KEY,
    profile_id  UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    reviewer_id UUID,
    note        TEXT,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reviews_profile_id_idx ON reviews (profile_id);

CREATE TABLE IF NOT EXISTS rms_records (
    id               UUID PRIMARY KEY,
    first_name       TEXT,
    last_name        TEXT,
    middle_name      TEXT,
    date_of_birth    DATE,
    sex              TEXT,
    race             TEXT,
    eye_color        TEXT,
    hair_color       TEXT,
    height_inches    INT,
    weight_pounds    INT,
    scars_marks      TEXT,
    location_name    TEXT,
    location_address TEXT
);

CREATE TABLE IF NOT EXISTS rms_crisis_incidents (
    id               UUID PRIMARY KEY,
    record_id        UUID NOT NULL REFERENCES rms_records(id) ON DELETE CASCADE,
    occurred_at      TIMESTAMPTZ NOT NULL,
    nature           TEXT,
    veteran_involved BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS rms_crisis_incidents_record_idx ON rms_crisis_incidents (record_id, occurred_at);
`

// EnsureSchema applies the schema to the database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
