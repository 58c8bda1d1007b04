package service

//go:generate mockgen -source=../../rms/reader.go -destination=mocks/reader-mocks.go -package=mocks Reader
//go:generate mockgen -source=../../changefeed/publisher.go -destination=mocks/publisher-mocks.go -package=mocks Publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"casefile/internal/changefeed"
	"casefile/internal/profile/cache"
	"casefile/internal/profile/models"
	"casefile/internal/profile/service/mocks"
	"casefile/internal/profile/store"
	"casefile/internal/rms"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/testutil"
)

type fixture struct {
	profiles  *store.MemoryProfileStore
	timeline  *store.MemoryTimelineStore
	cache     *cache.Memory
	reader    *mocks.MockReader
	publisher *mocks.MockPublisher
	svc       *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		profiles:  store.NewMemoryProfileStore(),
		timeline:  store.NewMemoryTimelineStore(),
		cache:     cache.NewMemory(nil),
		reader:    mocks.NewMockReader(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
	}
	base := []Option{
		WithRMSReader(f.reader),
		WithPublisher(f.publisher),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.svc = New(f.profiles, f.timeline, f.cache,
		Settings{ReviewPeriodMonths: 6, DefaultImageURL: "/images/profile-placeholder.png"},
		append(base, opts...)...)
	return f
}

// seedProfile persists a profile directly through the store, bypassing the
// service's changefeed publish.
func (f *fixture) seedProfile(t *testing.T, at time.Time) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(id.NewProfileID(), at)
	require.NoError(t, err)
	require.NoError(t, f.profiles.Create(context.Background(), p))
	p.MarkClean()
	return p
}

func linkedRecord(p *models.Profile) *rms.Record {
	rec := &rms.Record{
		ID:        id.RecordID(uuid.New()),
		FirstName: optional.Some("James"),
		LastName:  optional.Some("Holden"),
	}
	p.RMSRecordID = optional.Some(rec.ID)
	return rec
}

func TestService_CreateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.ContextAt(testutil.Date(2023, time.March, 1))

	var published changefeed.Event
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event changefeed.Event) error {
			published = event
			return nil
		})

	p, err := f.svc.CreateProfile(ctx)
	require.NoError(t, err)
	assert.True(t, p.IsPersisted())
	assert.False(t, p.IsDirty())
	assert.NotEqual(t, uuid.Nil, p.AnalyticsToken)

	assert.Equal(t, changefeed.EventProfileCreated, published.Type)
	assert.Equal(t, p.ID, published.ProfileID)

	stored, err := f.profiles.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.AnalyticsToken, stored.AnalyticsToken)
}

func TestService_GetProfile(t *testing.T) {
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)

	testutil.Given(t, "a profile linked to a mirrored record", func(t *testing.T) {
		f := newFixture(t)
		p := f.seedProfile(t, now)
		rec := linkedRecord(p)
		require.NoError(t, f.profiles.Update(ctx, p))
		f.reader.EXPECT().FindRecord(gomock.Any(), rec.ID).Return(rec, nil)

		loaded, err := f.svc.GetProfile(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Holden", loaded.LastName(), "fields with no override fall back to the mirror")
	})

	testutil.Given(t, "a link whose record is missing from the mirror", func(t *testing.T) {
		f := newFixture(t)
		p := f.seedProfile(t, now)
		rec := linkedRecord(p)
		require.NoError(t, f.profiles.Update(ctx, p))
		f.reader.EXPECT().FindRecord(gomock.Any(), rec.ID).
			Return(nil, fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrNotFound))

		loaded, err := f.svc.GetProfile(ctx, p.ID)
		require.NoError(t, err, "a dangling link reads as unlinked, not as a failure")
		assert.Equal(t, "", loaded.LastName())
	})

	testutil.Given(t, "no profile at all", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetProfile(ctx, id.NewProfileID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestService_UpdateFields_AppliesAndSaves(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)
	p := f.seedProfile(t, now)

	// A stale cached entry must not survive the save.
	_, err := f.cache.GetOrCompute(ctx, p.ID, cache.LabelResolved, func(context.Context) ([]byte, error) {
		return []byte("stale"), nil
	})
	require.NoError(t, err)

	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := f.svc.UpdateFields(ctx, p.ID, map[models.Field]string{
		models.FieldFirstName:    "Amos",
		models.FieldLastName:     "Burton",
		models.FieldWeightPounds: "215",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amos", updated.FirstName())
	assert.Equal(t, 215, updated.WeightPounds())
	assert.False(t, updated.IsDirty())
	assert.Equal(t, 0, f.cache.Len())

	stored, err := f.profiles.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Burton", stored.LastName())
	assert.Equal(t, now, stored.UpdatedAt)
}

func TestService_UpdateFields_ReportsEveryBadField(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.ContextAt(testutil.Date(2023, time.March, 1))
	p := f.seedProfile(t, testutil.Date(2023, time.March, 1))

	_, err := f.svc.UpdateFields(ctx, p.ID, map[models.Field]string{
		models.FieldFirstName:          "Amos",
		models.FieldDateOfBirth:        "not a date",
		models.FieldHeightInches:       "tall",
		models.Field("favorite_color"): "blue",
	})
	require.Error(t, err)

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)

	stored, err := f.profiles.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "", stored.FirstName(), "a failing batch saves nothing")
}

func TestService_SetFullName(t *testing.T) {
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)

	testutil.Given(t, "a profile with a middle-name override", func(t *testing.T) {
		f := newFixture(t)
		p := f.seedProfile(t, now)
		require.NoError(t, p.Apply(models.FieldMiddleName, models.Text("Aloysius")))
		require.NoError(t, f.profiles.Update(context.Background(), p))
		p.MarkClean()

		testutil.When(t, "three or more tokens are set", func(t *testing.T) {
			f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			updated, err := f.svc.SetFullName(ctx, p.ID, "James Raymond Francis Holden")
			require.NoError(t, err)
			assert.Equal(t, "James", updated.FirstName())
			assert.Equal(t, "Raymond", updated.MiddleName(), "second token wins, extras are dropped")
			assert.Equal(t, "Holden", updated.LastName())
			assert.False(t, updated.IsDirty())
		})

		testutil.When(t, "two tokens are set", func(t *testing.T) {
			f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			updated, err := f.svc.SetFullName(ctx, p.ID, "Amos Burton")
			require.NoError(t, err)
			assert.Equal(t, "Amos", updated.FirstName())
			assert.Equal(t, "Raymond", updated.MiddleName(), "fewer than three tokens leave the middle alone")
			assert.Equal(t, "Burton", updated.LastName())
		})

		testutil.When(t, "a single token is set", func(t *testing.T) {
			f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			updated, err := f.svc.SetFullName(ctx, p.ID, "Miller")
			require.NoError(t, err)
			assert.Equal(t, "Miller", updated.FirstName(), "one token reads as both first and last")
			assert.Equal(t, "Miller", updated.LastName())
		})

		testutil.When(t, "empty input is set", func(t *testing.T) {
			f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			updated, err := f.svc.SetFullName(ctx, p.ID, "  ")
			require.NoError(t, err)
			assert.Equal(t, "", updated.FirstName())
			assert.Equal(t, "", updated.MiddleName(), "empty input clears the middle too")
			assert.Equal(t, "", updated.LastName())

			stored, err := f.profiles.FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "", stored.LastName())
		})
	})

	t.Run("unknown profile", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SetFullName(ctx, id.NewProfileID(), "Amos Burton")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestService_SaveProfile_CleanIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.ContextAt(testutil.Date(2023, time.March, 1))
	p := f.seedProfile(t, testutil.Date(2023, time.March, 1))

	// No publisher expectation: saving a clean profile must not announce.
	require.NoError(t, f.svc.SaveProfile(ctx, p))
}

func TestService_DeleteProfile(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.ContextAt(testutil.Date(2023, time.March, 1))
	p := f.seedProfile(t, testutil.Date(2023, time.March, 1))

	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event changefeed.Event) error {
			assert.Equal(t, changefeed.EventProfileDeleted, event.Type)
			return nil
		})

	require.NoError(t, f.svc.DeleteProfile(ctx, p.ID))
	_, err := f.svc.GetProfile(ctx, p.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = f.svc.DeleteProfile(ctx, p.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_AddImage_InvalidatesImageURL(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)
	p := f.seedProfile(t, now)

	for _, label := range cache.AllLabels() {
		_, err := f.cache.GetOrCompute(ctx, p.ID, label, func(context.Context) ([]byte, error) {
			return []byte("stale"), nil
		})
		require.NoError(t, err)
	}

	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event changefeed.Event) error {
			assert.Equal(t, []string{cache.LabelImageURL}, event.Labels)
			return nil
		})

	img, err := f.svc.AddImage(ctx, p.ID, "/images/mugshot-front.jpg", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Position)
	assert.Equal(t, 1, f.cache.Len(), "the resolved view entry survives")
}

func TestService_LinkAndUnlinkRecord(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)
	p := f.seedProfile(t, now)

	rec := &rms.Record{ID: id.RecordID(uuid.New()), LastName: optional.Some("Nagata")}
	f.reader.EXPECT().FindRecord(gomock.Any(), rec.ID).Return(rec, nil).Times(2)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	linked, err := f.svc.LinkRecord(ctx, p.ID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nagata", linked.LastName())

	unlinked, err := f.svc.UnlinkRecord(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "", unlinked.LastName())
	assert.False(t, unlinked.RMSRecordID.IsSet())
}

func TestService_PlanLifecycle(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	ctx := testutil.ContextAt(now)
	p := f.seedProfile(t, now)

	plan, err := f.svc.CreatePlan(ctx, p.ID, []string{"de-escalate", "notify case worker"})
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusDraft, plan.Status)

	_, err = f.svc.ApprovePlan(ctx, p.ID, plan.ID)
	require.Error(t, err, "a draft cannot be approved directly")

	submitted, err := f.svc.SubmitPlan(ctx, p.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusSubmitted, submitted.Status)

	approveCtx := testutil.ContextAt(now.AddDate(0, 0, 1))
	approved, err := f.svc.ApprovePlan(approveCtx, p.ID, plan.ID)
	require.NoError(t, err)
	approvedAt, ok := approved.ApprovedAt.Get()
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 1), approvedAt)

	_, err = f.svc.SubmitPlan(ctx, p.ID, id.NewPlanID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_VisibilityWindowLifecycle(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	actor := id.ActorID(uuid.New())
	ctx := testutil.ContextWithActor(t, actor.String(), now)
	p := f.seedProfile(t, now)

	v, err := f.svc.OpenVisibility(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, v.Manual(), "an actor on the context makes the window manual")

	require.NoError(t, f.svc.CloseVisibility(ctx, v.ID))

	err = f.svc.CloseVisibility(ctx, v.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "double close is a conflict")
}

func TestService_RecordReview(t *testing.T) {
	f := newFixture(t)
	now := testutil.Date(2023, time.March, 1)
	actor := id.ActorID(uuid.New())
	ctx := testutil.ContextWithActor(t, actor.String(), now)
	p := f.seedProfile(t, now)

	r, err := f.svc.RecordReview(ctx, p.ID, "quarterly check, no changes")
	require.NoError(t, err)
	reviewer, ok := r.ReviewerID.Get()
	require.True(t, ok)
	assert.Equal(t, actor, reviewer)

	reviews, err := f.timeline.ReviewsForProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, now, reviews[0].CreatedAt)
}
