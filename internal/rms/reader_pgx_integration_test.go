//go:build integration

package rms_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"casefile/internal/rms"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/testutil/containers"
)

type PgxReaderSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	pool     *pgxpool.Pool
	reader   *rms.PgxReader
}

func TestPgxReaderSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PgxReaderSuite))
}

func (s *PgxReaderSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())

	pool, err := pgxpool.New(context.Background(), s.postgres.DSN)
	s.Require().NoError(err)
	s.pool = pool
	s.reader = rms.NewPgxReaderFromPool(pool)
}

func (s *PgxReaderSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PgxReaderSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "rms_crisis_incidents", "rms_records")
	s.Require().NoError(err)
}

func (s *PgxReaderSuite) seedRecord(ctx context.Context, recID uuid.UUID) {
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO rms_records (id, first_name, last_name, date_of_birth, sex, race, height_inches, weight_pounds)
		VALUES ($1, 'Johnny', 'Dangerously', '1985-06-15', 'M', 'W', 71, 180)
	`, recID)
	s.Require().NoError(err)
}

func (s *PgxReaderSuite) seedIncident(ctx context.Context, recID uuid.UUID, at time.Time, nature string, veteran bool) {
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO rms_crisis_incidents (id, record_id, occurred_at, nature, veteran_involved)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), recID, at, nature, veteran)
	s.Require().NoError(err)
}

func (s *PgxReaderSuite) TestFindRecord_PopulatedAndNullFields() {
	ctx := context.Background()
	recID := uuid.New()
	s.seedRecord(ctx, recID)

	rec, err := s.reader.FindRecord(ctx, id.RecordID(recID))
	s.Require().NoError(err)

	s.Equal("Johnny", rec.FirstName.UnwrapOr(""))
	s.Equal("Dangerously", rec.LastName.UnwrapOr(""))
	s.Equal(71, rec.HeightInches.UnwrapOr(0))
	s.Equal(180, rec.WeightPounds.UnwrapOr(0))

	dob, ok := rec.DateOfBirth.Get()
	s.Require().True(ok)
	s.Equal(1985, dob.Year())
	s.Equal(time.June, dob.Month())
	s.Equal(15, dob.Day())

	s.False(rec.MiddleName.IsSet(), "NULL column must read as absent")
	s.False(rec.EyeColor.IsSet())
	s.False(rec.LocationAddress.IsSet())
}

func (s *PgxReaderSuite) TestFindRecord_NotFound() {
	ctx := context.Background()

	_, err := s.reader.FindRecord(ctx, id.RecordID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PgxReaderSuite) TestIncidentsInRange() {
	ctx := context.Background()
	recID := uuid.New()
	s.seedRecord(ctx, recID)

	s.seedIncident(ctx, recID, time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC), "welfare check", false)
	s.seedIncident(ctx, recID, time.Date(2024, time.March, 2, 8, 30, 0, 0, time.UTC), "disturbance", true)
	s.seedIncident(ctx, recID, time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), "ancient", false)

	got, err := s.reader.IncidentsInRange(ctx, id.RecordID(recID),
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal("disturbance", got[0].Nature, "newest first")
	s.True(got[0].VeteranInvolved)
	s.Equal("welfare check", got[1].Nature)
	s.Equal(id.RecordID(recID), got[0].RecordID)
}

func (s *PgxReaderSuite) TestIncidentsInRange_EmptyWindow() {
	ctx := context.Background()
	recID := uuid.New()
	s.seedRecord(ctx, recID)
	s.seedIncident(ctx, recID, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), "only one", false)

	got, err := s.reader.IncidentsInRange(ctx, id.RecordID(recID),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
	s.Empty(got)
}
