// Package service orchestrates profile lifecycle and derived reads: it
// loads profiles with their RMS mirror record attached, applies field
// updates through the model, saves with cache invalidation and a changefeed
// event, and assembles derived summaries over one consistent snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"casefile/internal/changefeed"
	"casefile/internal/platform/metrics"
	"casefile/internal/profile/cache"
	"casefile/internal/profile/format"
	"casefile/internal/profile/models"
	"casefile/internal/profile/store"
	"casefile/internal/rms"
	"casefile/pkg/attrs"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/requestcontext"
)

// Settings is the service's fixed configuration.
type Settings struct {
	// ReviewPeriodMonths drives DueForReview. Zero means unconfigured and
	// makes DueForReview a config error, never a silent default.
	ReviewPeriodMonths int
	// DefaultImageURL is returned for profiles with no images.
	DefaultImageURL string
}

// Service orchestrates profile management and derived reads.
type Service struct {
	profiles  store.ProfileStore
	timeline  store.TimelineStore
	cache     cache.Store
	settings  Settings
	reader    rms.Reader
	publisher changefeed.Publisher
	snapshots SnapshotRunner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRMSReader attaches the RMS mirror. Without it every profile behaves
// as unlinked.
func WithRMSReader(reader rms.Reader) Option {
	return func(s *Service) {
		s.reader = reader
	}
}

// WithPublisher attaches the changefeed. Without it saves still invalidate
// the local cache but emit nothing.
func WithPublisher(publisher changefeed.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithSnapshots sets how summary reads are grouped into one consistent
// snapshot. SQL deployments pass NewSQLSnapshots; the default runs reads
// directly, which is correct for the memory stores.
func WithSnapshots(runner SnapshotRunner) Option {
	return func(s *Service) {
		s.snapshots = runner
	}
}

// New constructs a Service.
func New(profiles store.ProfileStore, timeline store.TimelineStore, cacheStore cache.Store, settings Settings, opts ...Option) *Service {
	s := &Service{
		profiles:  profiles,
		timeline:  timeline,
		cache:     cacheStore,
		settings:  settings,
		snapshots: passthroughSnapshots{},
		tracer:    otel.Tracer("casefile/profile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProfile creates and persists an empty profile with a fresh
// analytics token.
func (s *Service) CreateProfile(ctx context.Context) (*models.Profile, error) {
	p, err := models.NewProfile(id.NewProfileID(), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "profile already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	p.MarkClean()

	if s.metrics != nil {
		s.metrics.IncrementProfilesCreated()
	}
	s.announce(ctx, changefeed.EventProfileCreated, nil,
		"profile_id", p.ID.String())
	return p, nil
}

// GetProfile loads a profile with its RMS mirror record attached. A link
// whose record is missing from the mirror is logged and treated as
// unlinked, not failed: the mirror lags the system of record.
func (s *Service) GetProfile(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	p, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	recordID, linked := p.RMSRecordID.Get()
	if !linked || s.reader == nil {
		return p, nil
	}
	rec, err := s.reader.FindRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "profile links a record missing from the rms mirror",
					"profile_id", p.ID.String(),
					"record_id", recordID.String(),
				)
			}
			return p, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rms record")
	}
	p.AttachRecord(rec)
	return p, nil
}

// FieldError reports one field that failed to parse or apply in a batch
// update.
type FieldError struct {
	Field models.Field
	Err   error
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e FieldError) Unwrap() error { return e.Err }

// FieldErrors aggregates per-field failures of one batch update.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "field update failed: " + strings.Join(parts, "; ")
}

// UpdateFields applies a batch of textual field edits and saves. Fields are
// applied in canonical field order so repeated calls with the same input
// behave the same way. Any failing field fails the batch: nothing is saved
// and the returned FieldErrors names every offender.
func (s *Service) UpdateFields(ctx context.Context, profileID id.ProfileID, changes map[models.Field]string) (*models.Profile, error) {
	p, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	known := make(map[models.Field]struct{})
	var fieldErrs FieldErrors
	for _, f := range models.AllFields() {
		known[f] = struct{}{}
		raw, ok := changes[f]
		if !ok {
			continue
		}
		if err := p.ApplyText(f, raw); err != nil {
			fieldErrs = append(fieldErrs, FieldError{Field: f, Err: err})
			if s.metrics != nil {
				s.metrics.FieldParseFailures.Inc()
			}
		}
	}
	for f := range changes {
		if _, ok := known[f]; !ok {
			fieldErrs = append(fieldErrs, FieldError{
				Field: f,
				Err:   dErrors.Newf(dErrors.CodeInvalidInput, "unknown field %q", f),
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	if err := s.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetFullName splits one whitespace-separated name input and applies the
// parts as field edits: first token to first name, last token to last name,
// the second of three or more to the middle name. Fewer than three tokens
// leave any existing middle-name override alone; empty input clears all
// three names.
func (s *Service) SetFullName(ctx context.Context, profileID id.ProfileID, fullName string) (*models.Profile, error) {
	p, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	first, middle, last, withMiddle := format.SplitFullName(fullName)
	if err := p.Apply(models.FieldFirstName, textOrAbsent(first)); err != nil {
		return nil, err
	}
	if withMiddle {
		if err := p.Apply(models.FieldMiddleName, textOrAbsent(middle)); err != nil {
			return nil, err
		}
	}
	if err := p.Apply(models.FieldLastName, textOrAbsent(last)); err != nil {
		return nil, err
	}

	if err := s.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func textOrAbsent(s string) models.Value {
	if s == "" {
		return models.Absent(models.KindText)
	}
	return models.Text(s)
}

// SaveProfile persists a profile's unsaved mutations, invalidates its
// cached derived values, and emits a changefeed event. Saving a persisted
// profile with no changes is a no-op.
func (s *Service) SaveProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "no profile to save")
	}
	p.EnsureAnalyticsToken()
	if err := p.Validate(); err != nil {
		return err
	}

	if !p.IsPersisted() {
		if err := s.profiles.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "profile already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
		}
		p.MarkClean()
		if s.metrics != nil {
			s.metrics.IncrementProfilesCreated()
		}
		s.announce(ctx, changefeed.EventProfileCreated, nil,
			"profile_id", p.ID.String())
		return nil
	}

	if !p.IsDirty() {
		return nil
	}
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.profiles.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	p.MarkClean()

	// Stale derived values are a correctness failure, so an invalidation
	// error propagates even though the row is already saved.
	if err := s.cache.Invalidate(ctx, p.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate derived cache")
	}
	s.announce(ctx, changefeed.EventProfileUpdated, nil,
		"profile_id", p.ID.String())
	return nil
}

// DeleteProfile removes a profile; aliases and images go with it.
func (s *Service) DeleteProfile(ctx context.Context, profileID id.ProfileID) error {
	if err := s.profiles.Delete(ctx, profileID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete profile")
	}
	if s.metrics != nil {
		s.metrics.ProfilesDeleted.Inc()
	}
	if err := s.cache.Invalidate(ctx, profileID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate derived cache")
	}
	s.announce(ctx, changefeed.EventProfileDeleted, nil,
		"profile_id", profileID.String())
	return nil
}

// AddAlias records an alternate name for a profile.
func (s *Service) AddAlias(ctx context.Context, profileID id.ProfileID, name string) (*models.Alias, error) {
	alias, err := models.NewAlias(id.NewAliasID(), profileID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.profiles.AddAlias(ctx, alias); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add alias")
	}
	return alias, nil
}

// RemoveAlias deletes an alias by ID.
func (s *Service) RemoveAlias(ctx context.Context, aliasID id.AliasID) error {
	if err := s.profiles.RemoveAlias(ctx, aliasID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "alias not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove alias")
	}
	return nil
}

// AddImage attaches an image to a profile. The image with the lowest
// position becomes the profile image, so adding one invalidates the cached
// image URL.
func (s *Service) AddImage(ctx context.Context, profileID id.ProfileID, url string, position int) (*models.Image, error) {
	image, err := models.NewImage(id.NewImageID(), profileID, url, position, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.profiles.AddImage(ctx, image); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add image")
	}
	if err := s.cache.Invalidate(ctx, profileID, cache.LabelImageURL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate derived cache")
	}
	s.announce(ctx, changefeed.EventProfileUpdated, []string{cache.LabelImageURL},
		"profile_id", profileID.String(),
		"image_id", image.ID.String())
	return image, nil
}

// LinkRecord links a profile to an RMS record. The record must exist in the
// mirror at link time; a resolved link may still dangle later.
func (s *Service) LinkRecord(ctx context.Context, profileID id.ProfileID, recordID id.RecordID) (*models.Profile, error) {
	if s.reader == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "rms mirror is not configured")
	}
	p, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	rec, err := s.reader.FindRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "rms record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rms record")
	}
	if err := p.LinkRecord(rec); err != nil {
		return nil, err
	}
	if err := s.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UnlinkRecord removes a profile's RMS link. Local overrides survive.
func (s *Service) UnlinkRecord(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	p, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.UnlinkRecord()
	if err := s.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// announce logs a profile change as an audit event and, when the changefeed
// is wired, publishes it so other instances drop their cached derived
// values. A publish failure is logged, not returned: the local save and
// invalidation already happened.
func (s *Service) announce(ctx context.Context, event changefeed.EventType, labels []string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.publisher == nil {
		return
	}

	profileID, err := id.ParseProfileID(attrs.ExtractString(attributes, "profile_id"))
	if err != nil {
		return
	}
	evt := changefeed.Event{
		Type:       event,
		ProfileID:  profileID,
		Labels:     labels,
		OccurredAt: requestcontext.Now(ctx),
	}
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		evt.ActorID = optional.Some(actor)
	}
	if err := s.publisher.Publish(ctx, evt); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "changefeed publish failed",
			"profile_id", profileID.String(),
			"error", err,
		)
	}
}
