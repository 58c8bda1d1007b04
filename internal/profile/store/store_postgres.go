package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"casefile/internal/profile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/optional"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/platform/tx"
)

// execer is the subset of *sql.DB and *sql.Tx the stores need. Reads routed
// through a context transaction observe one database snapshot.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execerFrom(ctx context.Context, db *sql.DB) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return db
}

// PostgresProfileStore persists profiles in PostgreSQL. Alias and image rows
// reference the profile with ON DELETE CASCADE, so Delete removes the whole
// owned graph in one statement.
type PostgresProfileStore struct {
	db *sql.DB
}

// NewPostgresProfileStore constructs a PostgreSQL-backed profile store.
func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

const profileColumns = `
	id, rms_record_id, first_name, last_name, middle_name, date_of_birth,
	sex, race, eye_color, hair_color, height_inches, weight_pounds,
	scars_marks, location_name, location_address, analytics_token,
	created_at, updated_at`

func (s *PostgresProfileStore) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		recordIDValue(p.RMSRecordID),
		p.FirstNameOverride,
		p.LastNameOverride,
		p.MiddleNameOverride,
		p.DateOfBirthOverride,
		p.SexOverride,
		p.RaceOverride,
		p.EyeColorOverride,
		p.HairColorOverride,
		p.HeightInchesOverride,
		p.WeightPoundsOverride,
		p.ScarsMarksOverride,
		p.LocationNameOverride,
		p.LocationAddressOverride,
		p.AnalyticsToken,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %s: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresProfileStore) FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	ex := execerFrom(ctx, s.db)
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(ex.QueryRowContext(ctx, query, uuid.UUID(profileID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", profileID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	if p.Aliases, err = s.aliasesFor(ctx, ex, profileID); err != nil {
		return nil, err
	}
	if p.Images, err = s.imagesFor(ctx, ex, profileID); err != nil {
		return nil, err
	}

	p.MarkClean()
	return p, nil
}

func (s *PostgresProfileStore) Update(ctx context.Context, p *models.Profile) error {
	// The analytics token is deliberately missing from the SET list: it is
	// written once at creation and never reassigned.
	query := `
		UPDATE profiles SET
			rms_record_id = $2,
			first_name = $3, last_name = $4, middle_name = $5,
			date_of_birth = $6, sex = $7, race = $8,
			eye_color = $9, hair_color = $10,
			height_inches = $11, weight_pounds = $12,
			scars_marks = $13, location_name = $14, location_address = $15,
			updated_at = $16
		WHERE id = $1
	`
	result, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		recordIDValue(p.RMSRecordID),
		p.FirstNameOverride,
		p.LastNameOverride,
		p.MiddleNameOverride,
		p.DateOfBirthOverride,
		p.SexOverride,
		p.RaceOverride,
		p.EyeColorOverride,
		p.HairColorOverride,
		p.HeightInchesOverride,
		p.WeightPoundsOverride,
		p.ScarsMarksOverride,
		p.LocationNameOverride,
		p.LocationAddressOverride,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRowAffected(result, "profile", p.ID.String())
}

func (s *PostgresProfileStore) Delete(ctx context.Context, profileID id.ProfileID) error {
	result, err := execerFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1`, uuid.UUID(profileID))
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireRowAffected(result, "profile", profileID.String())
}

func (s *PostgresProfileStore) AddAlias(ctx context.Context, alias *models.Alias) error {
	_, err := execerFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO aliases (id, profile_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(alias.ID), uuid.UUID(alias.ProfileID), alias.Name, alias.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile %s: %w", alias.ProfileID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("add alias: %w", err)
	}
	return nil
}

func (s *PostgresProfileStore) RemoveAlias(ctx context.Context, aliasID id.AliasID) error {
	result, err := execerFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM aliases WHERE id = $1`, uuid.UUID(aliasID))
	if err != nil {
		return fmt.Errorf("remove alias: %w", err)
	}
	return requireRowAffected(result, "alias", aliasID.String())
}

func (s *PostgresProfileStore) AddImage(ctx context.Context, image *models.Image) error {
	_, err := execerFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO images (id, profile_id, url, position, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(image.ID), uuid.UUID(image.ProfileID), image.URL, image.Position, image.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile %s: %w", image.ProfileID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("add image: %w", err)
	}
	return nil
}

func (s *PostgresProfileStore) aliasesFor(ctx context.Context, ex execer, profileID id.ProfileID) ([]models.Alias, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT id, profile_id, name, created_at FROM aliases WHERE profile_id = $1 ORDER BY created_at, id`,
		uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []models.Alias
	for rows.Next() {
		var (
			rawID, rawProfileID uuid.UUID
			a                   models.Alias
		)
		if err := rows.Scan(&rawID, &rawProfileID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		a.ID = id.AliasID(rawID)
		a.ProfileID = id.ProfileID(rawProfileID)
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (s *PostgresProfileStore) imagesFor(ctx context.Context, ex execer, profileID id.ProfileID) ([]models.Image, error) {
	rows, err := ex.QueryContext(ctx,
		`SELECT id, profile_id, url, position, created_at FROM images WHERE profile_id = $1 ORDER BY position, id`,
		uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var (
			rawID, rawProfileID uuid.UUID
			img                 models.Image
		)
		if err := rows.Scan(&rawID, &rawProfileID, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.ID = id.ImageID(rawID)
		img.ProfileID = id.ProfileID(rawProfileID)
		images = append(images, img)
	}
	return images, rows.Err()
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var (
		rawID       uuid.UUID
		rawRecordID sql.NullString
		p           models.Profile
	)
	err := row.Scan(
		&rawID,
		&rawRecordID,
		&p.FirstNameOverride,
		&p.LastNameOverride,
		&p.MiddleNameOverride,
		&p.DateOfBirthOverride,
		&p.SexOverride,
		&p.RaceOverride,
		&p.EyeColorOverride,
		&p.HairColorOverride,
		&p.HeightInchesOverride,
		&p.WeightPoundsOverride,
		&p.ScarsMarksOverride,
		&p.LocationNameOverride,
		&p.LocationAddressOverride,
		&p.AnalyticsToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.ProfileID(rawID)
	if rawRecordID.Valid {
		recordID, err := id.ParseRecordID(rawRecordID.String)
		if err != nil {
			return nil, fmt.Errorf("malformed rms_record_id: %w", err)
		}
		p.RMSRecordID = optional.Some(recordID)
	}
	return &p, nil
}

func recordIDValue(o optional.Optional[id.RecordID]) any {
	if recordID, ok := o.Get(); ok {
		return uuid.UUID(recordID)
	}
	return nil
}

func requireRowAffected(result sql.Result, kind, key string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", kind, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, key, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// PostgresTimelineStore reads and writes the related timeline collections in
// PostgreSQL.
type PostgresTimelineStore struct {
	db *sql.DB
}

// NewPostgresTimelineStore constructs a PostgreSQL-backed timeline store.
func NewPostgresTimelineStore(db *sql.DB) *PostgresTimelineStore {
	return &PostgresTimelineStore{db: db}
}

const planColumns = `id, profile_id, status, strategies, approved_at, created_at, updated_at`

func (s *PostgresTimelineStore) PlansForProfile(ctx context.Context, profileID id.ProfileID) ([]models.ResponsePlan, error) {
	query := `SELECT ` + planColumns + ` FROM response_plans WHERE profile_id = $1 ORDER BY created_at, id`
	return s.queryPlans(ctx, query, uuid.UUID(profileID))
}

func (s *PostgresTimelineStore) ApprovedPlansBefore(ctx context.Context, profileID id.ProfileID, t time.Time) ([]models.ResponsePlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM response_plans
		WHERE profile_id = $1 AND status = $2 AND approved_at < $3
		ORDER BY approved_at, id
	`
	return s.queryPlans(ctx, query, uuid.UUID(profileID), string(models.PlanStatusApproved), t)
}

func (s *PostgresTimelineStore) queryPlans(ctx context.Context, query string, args ...any) ([]models.ResponsePlan, error) {
	rows, err := execerFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.ResponsePlan
	for rows.Next() {
		var (
			rawID, rawProfileID uuid.UUID
			status              string
			plan                models.ResponsePlan
		)
		err := rows.Scan(
			&rawID,
			&rawProfileID,
			&status,
			pq.Array(&plan.Strategies),
			&plan.ApprovedAt,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plan.ID = id.PlanID(rawID)
		plan.ProfileID = id.ProfileID(rawProfileID)
		if plan.Status, err = models.ParsePlanStatus(status); err != nil {
			return nil, fmt.Errorf("plan %s: %w", plan.ID, err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *PostgresTimelineStore) CreatePlan(ctx context.Context, plan *models.ResponsePlan) error {
	query := `
		INSERT INTO response_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(plan.ID),
		uuid.UUID(plan.ProfileID),
		string(plan.Status),
		pq.Array(plan.Strategies),
		plan.ApprovedAt,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan %s: %w", plan.ID, sentinel.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile %s: %w", plan.ProfileID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (s *PostgresTimelineStore) UpdatePlan(ctx context.Context, plan *models.ResponsePlan) error {
	query := `
		UPDATE response_plans
		SET status = $2, strategies = $3, approved_at = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(plan.ID),
		string(plan.Status),
		pq.Array(plan.Strategies),
		plan.ApprovedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireRowAffected(result, "plan", plan.ID.String())
}

func (s *PostgresTimelineStore) VisibilitiesForProfile(ctx context.Context, profileID id.ProfileID) ([]models.Visibility, error) {
	query := `
		SELECT id, profile_id, created_by, removed_by, created_at, removed_at
		FROM visibilities
		WHERE profile_id = $1
		ORDER BY created_at, id
	`
	rows, err := execerFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("query visibilities: %w", err)
	}
	defer rows.Close()

	var visibilities []models.Visibility
	for rows.Next() {
		var (
			rawID, rawProfileID  uuid.UUID
			createdBy, removedBy sql.NullString
			v                    models.Visibility
		)
		if err := rows.Scan(&rawID, &rawProfileID, &createdBy, &removedBy, &v.CreatedAt, &v.RemovedAt); err != nil {
			return nil, fmt.Errorf("scan visibility: %w", err)
		}
		v.ID = id.VisibilityID(rawID)
		v.ProfileID = id.ProfileID(rawProfileID)
		if v.CreatedBy, err = actorOptional(createdBy); err != nil {
			return nil, fmt.Errorf("visibility %s created_by: %w", v.ID, err)
		}
		if v.RemovedBy, err = actorOptional(removedBy); err != nil {
			return nil, fmt.Errorf("visibility %s removed_by: %w", v.ID, err)
		}
		visibilities = append(visibilities, v)
	}
	return visibilities, rows.Err()
}

func (s *PostgresTimelineStore) CreateVisibility(ctx context.Context, v *models.Visibility) error {
	query := `
		INSERT INTO visibilities (id, profile_id, created_by, removed_by, created_at, removed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		uuid.UUID(v.ProfileID),
		actorValue(v.CreatedBy),
		actorValue(v.RemovedBy),
		v.CreatedAt,
		v.RemovedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("visibility %s: %w", v.ID, sentinel.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile %s: %w", v.ProfileID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("create visibility: %w", err)
	}
	return nil
}

func (s *PostgresTimelineStore) CloseVisibility(ctx context.Context, visibilityID id.VisibilityID, removedBy optional.Optional[id.ActorID], at time.Time) error {
	query := `
		UPDATE visibilities
		SET removed_at = $2, removed_by = $3
		WHERE id = $1 AND removed_at IS NULL
	`
	result, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(visibilityID), at, actorValue(removedBy))
	if err != nil {
		return fmt.Errorf("close visibility: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close visibility rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("visibility %s open window: %w", visibilityID, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresTimelineStore) ReviewsForProfile(ctx context.Context, profileID id.ProfileID) ([]models.Review, error) {
	query := `
		SELECT id, profile_id, reviewer_id, COALESCE(note, ''), created_at
		FROM reviews
		WHERE profile_id = $1
		ORDER BY created_at, id
	`
	rows, err := execerFrom(ctx, s.db).QueryContext(ctx, query, uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var (
			rawID, rawProfileID uuid.UUID
			reviewerID          sql.NullString
			r                   models.Review
		)
		if err := rows.Scan(&rawID, &rawProfileID, &reviewerID, &r.Note, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.ID = id.ReviewID(rawID)
		r.ProfileID = id.ProfileID(rawProfileID)
		if r.ReviewerID, err = actorOptional(reviewerID); err != nil {
			return nil, fmt.Errorf("review %s reviewer: %w", r.ID, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *PostgresTimelineStore) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (id, profile_id, reviewer_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := execerFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.ProfileID),
		actorValue(r.ReviewerID),
		r.Note,
		r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review %s: %w", r.ID, sentinel.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile %s: %w", r.ProfileID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func actorOptional(raw sql.NullString) (optional.Optional[id.ActorID], error) {
	if !raw.Valid {
		return optional.None[id.ActorID](), nil
	}
	actorID, err := id.ParseActorID(raw.String)
	if err != nil {
		return optional.None[id.ActorID](), err
	}
	return optional.Some(actorID), nil
}

func actorValue(o optional.Optional[id.ActorID]) any {
	if actorID, ok := o.Get(); ok {
		return uuid.UUID(actorID)
	}
	return nil
}
