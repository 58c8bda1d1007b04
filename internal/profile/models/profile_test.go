package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/rms"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	"casefile/pkg/testutil"
)

func newTestProfile(t *testing.T) *Profile {
	t.Helper()
	p, err := NewProfile(id.NewProfileID(), testutil.Date(2020, time.January, 1))
	require.NoError(t, err)
	return p
}

func linkedRecord() *rms.Record {
	return &rms.Record{
		ID:           id.RecordID(uuid.New()),
		FirstName:    optional.Some("Jane"),
		LastName:     optional.Some("Doe"),
		Race:         optional.Some("White"),
		Sex:          optional.Some("Female"),
		HeightInches: optional.Some(65),
	}
}

func TestNewProfile_GeneratesAnalyticsTokenOnce(t *testing.T) {
	p := newTestProfile(t)

	require.NotEqual(t, uuid.Nil, p.AnalyticsToken)

	token := p.AnalyticsToken
	p.EnsureAnalyticsToken()
	assert.Equal(t, token, p.AnalyticsToken, "an assigned token must never be replaced")
}

func TestNewProfile_RejectsZeroInputs(t *testing.T) {
	_, err := NewProfile(id.ProfileID{}, testutil.Date(2020, time.January, 1))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewProfile(id.NewProfileID(), time.Time{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestResolve_FallsBackToRMSWhenNoOverride(t *testing.T) {
	p := newTestProfile(t)
	rec := linkedRecord()
	require.NoError(t, p.LinkRecord(rec))

	for _, f := range AllFields() {
		rmsValue := fieldTable[f].rms(rec)
		got := p.Resolve(f)
		if rmsValue.IsAbsent() {
			assert.True(t, got.IsAbsent(), "field %s should be absent", f)
			continue
		}
		assert.True(t, got.Equal(rmsValue), "field %s should fall back to the RMS value", f)
	}
}

func TestResolve_AbsentWithoutRMSOrOverride(t *testing.T) {
	p := newTestProfile(t)
	for _, f := range AllFields() {
		assert.True(t, p.Resolve(f).IsAbsent(), "field %s", f)
	}
}

func TestApply_OverrideWinsWhenDifferentFromRMS(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.LinkRecord(linkedRecord()))
	p.MarkClean()

	require.NoError(t, p.Apply(FieldFirstName, Text("Janet")))

	got, ok := p.Resolve(FieldFirstName).Text()
	require.True(t, ok)
	assert.Equal(t, "Janet", got)
	assert.True(t, p.FirstNameOverride.IsSet(), "a differing value is stored locally")
	assert.True(t, p.IsDirty())
}

func TestApply_ClearsOverrideWhenEqualToRMS(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.LinkRecord(linkedRecord()))
	require.NoError(t, p.Apply(FieldFirstName, Text("Janet")))

	// Writing the canonical value back removes the redundant local copy.
	require.NoError(t, p.Apply(FieldFirstName, Text("Jane")))

	assert.False(t, p.FirstNameOverride.IsSet(), "override equal to RMS is not stored")
	got, ok := p.Resolve(FieldFirstName).Text()
	require.True(t, ok)
	assert.Equal(t, "Jane", got, "the value still reads through from the RMS")
}

func TestApply_DirtyOnlyOnEffectiveChange(t *testing.T) {
	p := newTestProfile(t)
	p.MarkClean()

	require.NoError(t, p.Apply(FieldLastName, Absent(KindText)))
	assert.False(t, p.IsDirty(), "clearing an already-clear override changes nothing")

	require.NoError(t, p.Apply(FieldLastName, Text("Doe")))
	require.True(t, p.IsDirty())

	p.MarkClean()
	require.NoError(t, p.Apply(FieldLastName, Text("Doe")))
	assert.False(t, p.IsDirty(), "re-applying the stored value changes nothing")
}

func TestApply_RejectsKindMismatch(t *testing.T) {
	p := newTestProfile(t)
	err := p.Apply(FieldHeightInches, Text("tall"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApplyText_DateOfBirth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    optional.Optional[time.Time]
		wantErr bool
	}{
		{name: "valid MM/DD/YYYY", input: "03/15/1984", want: optional.Some(testutil.Date(1984, time.March, 15))},
		{name: "empty clears", input: "", want: optional.None[time.Time]()},
		{name: "whitespace clears", input: "   ", want: optional.None[time.Time]()},
		{name: "garbage rejected", input: "yesterday", wantErr: true},
		{name: "ISO layout rejected", input: "1984-03-15", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProfile(t)
			err := p.ApplyText(FieldDateOfBirth, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.DateOfBirthOverride)
		})
	}
}

func TestApply_DateEqualityIsDayPrecision(t *testing.T) {
	p := newTestProfile(t)
	rec := linkedRecord()
	rec.DateOfBirth = optional.Some(testutil.Date(1984, time.March, 15))
	require.NoError(t, p.LinkRecord(rec))

	// The same day at a different hour still matches the RMS value.
	noon := time.Date(1984, time.March, 15, 12, 30, 0, 0, time.UTC)
	require.NoError(t, p.Apply(FieldDateOfBirth, Date(noon)))
	assert.False(t, p.DateOfBirthOverride.IsSet())
}

func TestHeight_RoundTrip(t *testing.T) {
	for _, inches := range []int{1, 11, 12, 60, 65, 83} {
		p := newTestProfile(t)
		require.NoError(t, p.Apply(FieldHeightInches, Int(inches)))
		assert.Equal(t, inches, p.HeightFeet()*12+p.HeightRemainderInches(), "inches=%d", inches)
	}
}

func TestHeight_ZeroMeansAbsent(t *testing.T) {
	p := newTestProfile(t)

	// Unknown height reads 0'0" without error.
	assert.Equal(t, 0, p.HeightFeet())
	assert.Equal(t, 0, p.HeightRemainderInches())

	// A recombined total of zero is stored as absent, not literal zero.
	// Documented limitation: a true zero measurement cannot be represented.
	require.NoError(t, p.SetHeightFeet(0))
	assert.True(t, p.Resolve(FieldHeightInches).IsAbsent())

	require.NoError(t, p.SetHeightFeet(5))
	require.NoError(t, p.SetHeightRemainderInches(5))
	assert.Equal(t, 65, p.HeightTotalInches())

	require.NoError(t, p.SetHeightRemainderInches(0))
	assert.Equal(t, 60, p.HeightTotalInches(), "feet survive a zeroed remainder")

	require.NoError(t, p.SetHeightFeet(0))
	assert.True(t, p.Resolve(FieldHeightInches).IsAbsent(), "zeroing both components clears the height")
}

func TestSetHeight_ComponentsRecombine(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.Apply(FieldHeightInches, Int(65)))

	require.NoError(t, p.SetHeightFeet(6))
	assert.Equal(t, 77, p.HeightTotalInches(), "new feet keep the current remainder")

	require.NoError(t, p.SetHeightRemainderInches(2))
	assert.Equal(t, 74, p.HeightTotalInches(), "new remainder keeps the current feet")
}

func TestLinkRecord_AndUnlink(t *testing.T) {
	p := newTestProfile(t)
	p.MarkClean()
	rec := linkedRecord()

	require.NoError(t, p.LinkRecord(rec))
	assert.True(t, p.IsDirty())
	assert.Equal(t, "Jane", p.FirstName())

	p.MarkClean()
	require.NoError(t, p.LinkRecord(rec))
	assert.False(t, p.IsDirty(), "relinking the same record changes nothing")

	require.NoError(t, p.Apply(FieldFirstName, Text("Janet")))
	p.UnlinkRecord()
	assert.Equal(t, "Janet", p.FirstName(), "local overrides survive an unlink")
	assert.Empty(t, p.LastName(), "RMS-sourced fields become absent")
}

func TestImageURL(t *testing.T) {
	p := newTestProfile(t)
	assert.Equal(t, "/img/default.png", p.ImageURL("/img/default.png"))

	p.Images = []Image{
		{ID: id.NewImageID(), URL: "/img/b.jpg", Position: 2},
		{ID: id.NewImageID(), URL: "/img/a.jpg", Position: 1},
	}
	assert.Equal(t, "/img/a.jpg", p.ImageURL("/img/default.png"), "lowest position wins")
}

func TestSearchDocument(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.LinkRecord(linkedRecord()))
	require.NoError(t, p.Apply(FieldFirstName, Text("Janet")))
	require.NoError(t, p.Apply(FieldMiddleName, Text("Anne")))
	p.Aliases = []Alias{
		{Name: " JJ "},
		{Name: "JJ"},
		{Name: "Netty"},
	}

	doc := p.SearchDocument()
	assert.Equal(t, "Janet", doc.FirstName)
	assert.Equal(t, "Doe", doc.LastName)
	assert.Equal(t, "A", doc.MiddleInitial)
	assert.Equal(t, []string{"JJ", "Netty"}, doc.Aliases)
	assert.Equal(t, "Jane", doc.RMSFirstName, "canonical names ride along for the indexer")
}

func TestResolvedView_SnapshotsEveryField(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.LinkRecord(linkedRecord()))
	require.NoError(t, p.Apply(FieldFirstName, Text("Janet")))
	require.NoError(t, p.Apply(FieldWeightPounds, Int(180)))

	view := p.ResolvedView()
	assert.Equal(t, optional.Some("Janet"), view.FirstName)
	assert.Equal(t, optional.Some("Doe"), view.LastName)
	assert.Equal(t, optional.Some(65), view.HeightInches)
	assert.Equal(t, optional.Some(180), view.WeightPounds)
	assert.False(t, view.DateOfBirth.IsSet())
}
