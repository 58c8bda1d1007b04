package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/profile/models"
	"casefile/internal/rms"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	"casefile/pkg/testutil"
)

var (
	created = testutil.Date(2020, time.January, 1)
	now     = testutil.Date(2023, time.June, 15)
)

func snapshotProfile(t *testing.T) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(id.NewProfileID(), created)
	require.NoError(t, err)
	return p
}

func approvedPlan(t *testing.T, approvedAt time.Time, strategies ...string) models.ResponsePlan {
	t.Helper()
	plan, err := models.NewResponsePlan(id.NewPlanID(), id.NewProfileID(), strategies, approvedAt)
	require.NoError(t, err)
	require.NoError(t, plan.Submit(approvedAt))
	require.NoError(t, plan.Approve(approvedAt))
	return *plan
}

func newEngine(t *testing.T, snap Snapshot) *Engine {
	t.Helper()
	if snap.Profile == nil {
		snap.Profile = snapshotProfile(t)
	}
	if snap.Now.IsZero() {
		snap.Now = now
	}
	e, err := New(snap)
	require.NoError(t, err)
	return e
}

func TestActivePlanAt_PicksLatestApprovalBeforeT(t *testing.T) {
	day := func(d int) time.Time { return testutil.Date(2023, time.June, d) }
	plans := []models.ResponsePlan{
		approvedPlan(t, day(1)),
		approvedPlan(t, day(5)),
		approvedPlan(t, day(10)),
	}
	e := newEngine(t, Snapshot{Plans: plans})

	got := e.ActivePlanAt(day(7))
	require.NotNil(t, got)
	assert.Equal(t, plans[1].ID, got.ID, "day-5 plan is active on day 7")

	got = e.ActivePlanAt(day(11))
	require.NotNil(t, got)
	assert.Equal(t, plans[2].ID, got.ID)

	assert.Nil(t, e.ActivePlanAt(day(1)), "approval at t does not count (strictly before)")
}

func TestActivePlanAt_IgnoresUnapprovedPlans(t *testing.T) {
	draft, err := models.NewResponsePlan(id.NewPlanID(), id.NewProfileID(), nil, created)
	require.NoError(t, err)
	submitted, err := models.NewResponsePlan(id.NewPlanID(), id.NewProfileID(), nil, created)
	require.NoError(t, err)
	require.NoError(t, submitted.Submit(created))

	e := newEngine(t, Snapshot{Plans: []models.ResponsePlan{*draft, *submitted}})
	assert.Nil(t, e.ActivePlanAt(now))
}

func TestActivePlanAt_TieBreaksOnHighestID(t *testing.T) {
	approvedAt := testutil.Date(2023, time.June, 1)
	a := approvedPlan(t, approvedAt)
	b := approvedPlan(t, approvedAt)
	want := a.ID
	if b.ID.String() > a.ID.String() {
		want = b.ID
	}

	e := newEngine(t, Snapshot{Plans: []models.ResponsePlan{a, b}})
	got := e.ActivePlanAt(now)
	require.NotNil(t, got)
	assert.Equal(t, want, got.ID)

	// Same winner regardless of slice order.
	e = newEngine(t, Snapshot{Plans: []models.ResponsePlan{b, a}})
	got = e.ActivePlanAt(now)
	require.NotNil(t, got)
	assert.Equal(t, want, got.ID)
}

func TestActivePlan_MemoizedPerInstance(t *testing.T) {
	e := newEngine(t, Snapshot{Plans: []models.ResponsePlan{approvedPlan(t, testutil.Date(2023, time.June, 1))}})

	first := e.ActivePlan()
	require.NotNil(t, first)
	assert.Same(t, first, e.ActivePlan(), "second call returns the memoized pointer")
}

func TestHasNominalResponsePlan(t *testing.T) {
	withStrategies := approvedPlan(t, testutil.Date(2023, time.June, 1), "de-escalate")
	without := approvedPlan(t, testutil.Date(2023, time.June, 2))

	e := newEngine(t, Snapshot{Plans: []models.ResponsePlan{withStrategies}})
	assert.True(t, e.HasNominalResponsePlan())

	// The later, strategy-less plan is the active one.
	e = newEngine(t, Snapshot{Plans: []models.ResponsePlan{withStrategies, without}})
	assert.False(t, e.HasNominalResponsePlan())

	e = newEngine(t, Snapshot{})
	assert.False(t, e.HasNominalResponsePlan())
}

func TestLastReviewedOn_CreationTimeIsTheFloor(t *testing.T) {
	e := newEngine(t, Snapshot{})
	last, err := e.LastReviewedOn()
	require.NoError(t, err)
	assert.Equal(t, created, last, "no plans, visibilities or reviews: creation date")
}

func TestLastReviewedOn_TakesTheMaximumAcrossCollections(t *testing.T) {
	planDay := testutil.Date(2022, time.March, 1)
	visDay := testutil.Date(2022, time.August, 1)
	reviewDay := testutil.Date(2022, time.May, 1)

	e := newEngine(t, Snapshot{
		Plans:        []models.ResponsePlan{approvedPlan(t, planDay)},
		Visibilities: []models.Visibility{{CreatedAt: visDay}},
		Reviews:      []models.Review{{CreatedAt: reviewDay}},
	})
	last, err := e.LastReviewedOn()
	require.NoError(t, err)
	assert.Equal(t, visDay, last)
}

func TestLastReviewedOn_IgnoresInactiveVisibilities(t *testing.T) {
	visDay := testutil.Date(2022, time.August, 1)
	removed := optional.Some(testutil.Date(2022, time.September, 1))

	e := newEngine(t, Snapshot{
		Visibilities: []models.Visibility{{CreatedAt: visDay, RemovedAt: removed}},
	})
	last, err := e.LastReviewedOn()
	require.NoError(t, err)
	assert.Equal(t, created, last, "a closed visibility window does not count as review activity")
}

func TestLastReviewedOn_ZeroCreationTimeFailsLoudly(t *testing.T) {
	e := newEngine(t, Snapshot{Profile: &models.Profile{ID: id.NewProfileID()}})
	_, err := e.LastReviewedOn()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestDueForReview(t *testing.T) {
	tests := []struct {
		name       string
		lastReview time.Time
		want       bool
	}{
		{name: "reviewed 7 months ago is due", lastReview: now.AddDate(0, -7, 0), want: true},
		{name: "reviewed 5 months ago is not due", lastReview: now.AddDate(0, -5, 0), want: false},
		{name: "reviewed exactly 6 months ago is not due", lastReview: now.AddDate(0, -6, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, Snapshot{
				Reviews:            []models.Review{{CreatedAt: tt.lastReview}},
				ReviewPeriodMonths: 6,
			})
			due, err := e.DueForReview()
			require.NoError(t, err)
			assert.Equal(t, tt.want, due)
		})
	}
}

func TestDueForReview_MissingPeriodIsAConfigError(t *testing.T) {
	e := newEngine(t, Snapshot{})
	_, err := e.DueForReview()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
}

func TestIncidentsSince(t *testing.T) {
	incidents := []rms.CrisisIncident{
		{OccurredAt: testutil.Date(2021, time.January, 1)},
		{OccurredAt: testutil.Date(2023, time.January, 1)},
		{OccurredAt: testutil.Date(2023, time.June, 1)},
	}
	e := newEngine(t, Snapshot{Incidents: incidents})

	got := e.IncidentsSince(testutil.Date(2023, time.January, 1))
	require.Len(t, got, 2, "window is inclusive on both ends")

	got = e.IncidentsSince(testutil.Date(2024, time.January, 1))
	assert.Empty(t, got)
}

func TestRecentIncidents_LastYearNewestFirst(t *testing.T) {
	old := rms.CrisisIncident{OccurredAt: now.AddDate(-2, 0, 0)}
	mid := rms.CrisisIncident{OccurredAt: now.AddDate(0, -8, 0)}
	fresh := rms.CrisisIncident{OccurredAt: now.AddDate(0, -1, 0)}

	e := newEngine(t, Snapshot{Incidents: []rms.CrisisIncident{old, mid, fresh}})
	got := e.RecentIncidents()
	require.Len(t, got, 2)
	assert.Equal(t, fresh.OccurredAt, got[0].OccurredAt)
	assert.Equal(t, mid.OccurredAt, got[1].OccurredAt)

	again := e.RecentIncidents()
	assert.Equal(t, got, again)
}

func TestVeteran(t *testing.T) {
	e := newEngine(t, Snapshot{Incidents: []rms.CrisisIncident{{VeteranInvolved: false}}})
	assert.False(t, e.Veteran())

	e = newEngine(t, Snapshot{Incidents: []rms.CrisisIncident{
		{VeteranInvolved: false},
		{VeteranInvolved: true},
	}})
	assert.True(t, e.Veteran())
}

func TestVisibilityStatus(t *testing.T) {
	actor := optional.Some(id.ActorID{})
	open := testutil.Date(2023, time.June, 1)
	closed := optional.Some(testutil.Date(2023, time.June, 10))

	tests := []struct {
		name         string
		visibilities []models.Visibility
		want         string
	}{
		{name: "no events", want: "HIDDEN (auto)"},
		{
			name:         "active manual event",
			visibilities: []models.Visibility{{CreatedAt: open, CreatedBy: actor}},
			want:         "VISIBLE (manual)",
		},
		{
			name:         "active automatic event",
			visibilities: []models.Visibility{{CreatedAt: open}},
			want:         "VISIBLE (auto)",
		},
		{
			name:         "removed by a person",
			visibilities: []models.Visibility{{CreatedAt: open, RemovedAt: closed, RemovedBy: actor}},
			want:         "HIDDEN (manual)",
		},
		{
			name: "reason follows the most recently created event",
			visibilities: []models.Visibility{
				{CreatedAt: open.AddDate(0, -1, 0), CreatedBy: actor, RemovedAt: closed},
				{CreatedAt: open},
			},
			want: "VISIBLE (auto)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, Snapshot{Visibilities: tt.visibilities})
			assert.Equal(t, tt.want, e.VisibilityStatus())
		})
	}
}

func TestVisible(t *testing.T) {
	e := newEngine(t, Snapshot{Visibilities: []models.Visibility{
		{CreatedAt: testutil.Date(2023, time.June, 1), RemovedAt: optional.Some(testutil.Date(2023, time.June, 2))},
	}})
	assert.False(t, e.Visible())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Snapshot{Now: now})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = New(Snapshot{Profile: snapshotProfile(t)})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
