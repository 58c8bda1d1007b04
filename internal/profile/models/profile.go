package models

import (
	"time"

	"github.com/google/uuid"

	"casefile/internal/rms"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
	pstrings "casefile/pkg/platform/strings"
)

// Profile is the aggregate root for a person of interest.
//
// Invariants:
//   - ID is non-nil
//   - AnalyticsToken is assigned exactly once, at creation, and is never
//     reassigned; persistence never updates the column
//   - CreatedAt is non-zero and immutable after construction
//   - At most one RMS record is linked at a time
//
// Field resolution: each overridable attribute has a local override slot.
// A set override wins; an unset one falls back to the linked RMS record;
// with neither, the field is absent. Writes that match the RMS value clear
// the override so the canonical value shows through again.
//
// Persistence state is tracked explicitly: a profile is new until its first
// save, and dirty from the first effective mutation until the next save.
// Derived-value caching keys off both flags.
type Profile struct {
	ID id.ProfileID

	// Local override slots. None means no local opinion.
	FirstNameOverride       optional.Optional[string]
	LastNameOverride        optional.Optional[string]
	MiddleNameOverride      optional.Optional[string]
	DateOfBirthOverride     optional.Optional[time.Time]
	SexOverride             optional.Optional[string]
	RaceOverride            optional.Optional[string]
	EyeColorOverride        optional.Optional[string]
	HairColorOverride       optional.Optional[string]
	HeightInchesOverride    optional.Optional[int]
	WeightPoundsOverride    optional.Optional[int]
	ScarsMarksOverride      optional.Optional[string]
	LocationNameOverride    optional.Optional[string]
	LocationAddressOverride optional.Optional[string]

	AnalyticsToken uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// RMSRecordID is the persisted link; RMS is the mirror record the
	// service loaded for it. RMS stays nil when unlinked or when the link
	// dangles.
	RMSRecordID optional.Optional[id.RecordID]
	RMS         *rms.Record

	// Owned collections, loaded with the profile and removed with it.
	Aliases []Alias
	Images  []Image

	persisted bool
	dirty     bool
}

// NewProfile creates an unsaved profile with a freshly generated analytics
// token.
func NewProfile(profileID id.ProfileID, now time.Time) (*Profile, error) {
	if profileID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile id cannot be nil")
	}
	if now.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile creation time cannot be zero")
	}
	return &Profile{
		ID:             profileID,
		AnalyticsToken: uuid.New(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate checks structural invariants before persistence.
func (p *Profile) Validate() error {
	if p.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "profile id cannot be nil")
	}
	if p.AnalyticsToken == uuid.Nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "profile analytics token is missing")
	}
	if p.CreatedAt.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "profile creation time cannot be zero")
	}
	return nil
}

// EnsureAnalyticsToken backfills a token for rows created before tokens
// existed. An assigned token is never replaced.
func (p *Profile) EnsureAnalyticsToken() {
	if p.AnalyticsToken == uuid.Nil {
		p.AnalyticsToken = uuid.New()
		p.dirty = true
	}
}

// IsPersisted reports whether the profile has ever been saved.
func (p *Profile) IsPersisted() bool {
	return p.persisted
}

// IsDirty reports whether the profile carries unsaved mutations.
func (p *Profile) IsDirty() bool {
	return p.dirty
}

// MarkClean records a successful load or save: the profile is persisted and
// carries no unsaved mutations.
func (p *Profile) MarkClean() {
	p.persisted = true
	p.dirty = false
}

// Resolve returns the authoritative value for f: the local override when
// set, otherwise the linked RMS value, otherwise absent. Read-only.
func (p *Profile) Resolve(f Field) Value {
	spec, ok := fieldTable[f]
	if !ok {
		return Value{}
	}
	if local := spec.get(p); !local.IsAbsent() {
		return local
	}
	if p.RMS != nil {
		return spec.rms(p.RMS)
	}
	return Absent(spec.kind)
}

// Apply stores v as the local override for f. Two cases clear the override
// instead: v is absent, or v equals the linked RMS value (the canonical
// source already says it, so fallback suffices). The dirty flag moves only
// when stored state actually changes.
func (p *Profile) Apply(f Field, v Value) error {
	spec, ok := fieldTable[f]
	if !ok {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown field %q", f)
	}
	if !v.IsAbsent() && v.Kind() != spec.kind {
		return dErrors.Newf(dErrors.CodeValidation, "field %s takes %s values, got %s", f, spec.kind, v.Kind())
	}

	target := v
	if v.IsAbsent() {
		target = Absent(spec.kind)
	} else if p.RMS != nil && spec.rms(p.RMS).Equal(v) {
		target = Absent(spec.kind)
	}

	current := spec.get(p)
	if current.IsAbsent() && target.IsAbsent() {
		return nil
	}
	if current.Equal(target) {
		return nil
	}

	spec.set(p, target)
	p.dirty = true
	return nil
}

// ApplyText parses raw form input for f and applies it. Empty input clears
// the override.
func (p *Profile) ApplyText(f Field, raw string) error {
	v, err := ParseFieldText(f, raw)
	if err != nil {
		return err
	}
	return p.Apply(f, v)
}

// LinkRecord links the profile to an RMS record, replacing any existing
// link.
func (p *Profile) LinkRecord(rec *rms.Record) error {
	if rec == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot link a nil record")
	}
	if current, ok := p.RMSRecordID.Get(); ok && current == rec.ID {
		p.RMS = rec
		return nil
	}
	p.RMSRecordID = optional.Some(rec.ID)
	p.RMS = rec
	p.dirty = true
	return nil
}

// UnlinkRecord removes the RMS link. Local overrides survive; fields with
// no override become absent.
func (p *Profile) UnlinkRecord() {
	if !p.RMSRecordID.IsSet() && p.RMS == nil {
		return
	}
	p.RMSRecordID = optional.None[id.RecordID]()
	p.RMS = nil
	p.dirty = true
}

// AttachRecord installs the loaded mirror record for an existing link
// without touching persistence state. Stores use it after hydration.
func (p *Profile) AttachRecord(rec *rms.Record) {
	p.RMS = rec
}

// Typed accessors over Resolve for formatting and indexing call sites.
// Text fields read as the empty string when absent; numeric fields read
// zero, which callers treat as absent by convention.

func (p *Profile) FirstName() string  { return resolvedText(p, FieldFirstName) }
func (p *Profile) LastName() string   { return resolvedText(p, FieldLastName) }
func (p *Profile) MiddleName() string { return resolvedText(p, FieldMiddleName) }

// DateOfBirth returns the resolved date of birth and whether one exists.
func (p *Profile) DateOfBirth() (time.Time, bool) {
	return p.Resolve(FieldDateOfBirth).Date()
}

func (p *Profile) Sex() string             { return resolvedText(p, FieldSex) }
func (p *Profile) Race() string            { return resolvedText(p, FieldRace) }
func (p *Profile) EyeColor() string        { return resolvedText(p, FieldEyeColor) }
func (p *Profile) HairColor() string       { return resolvedText(p, FieldHairColor) }
func (p *Profile) ScarsMarks() string      { return resolvedText(p, FieldScarsMarks) }
func (p *Profile) LocationName() string    { return resolvedText(p, FieldLocationName) }
func (p *Profile) LocationAddress() string { return resolvedText(p, FieldLocationAddress) }

// WeightPounds returns the resolved weight, zero when absent.
func (p *Profile) WeightPounds() int {
	n, _ := p.Resolve(FieldWeightPounds).Int()
	return n
}

// HeightTotalInches returns the resolved height in inches, zero when
// absent.
func (p *Profile) HeightTotalInches() int {
	n, _ := p.Resolve(FieldHeightInches).Int()
	return n
}

// HeightFeet returns the whole-feet component of the resolved height.
func (p *Profile) HeightFeet() int {
	return p.HeightTotalInches() / 12
}

// HeightRemainderInches returns the inches left over after whole feet.
func (p *Profile) HeightRemainderInches() int {
	return p.HeightTotalInches() % 12
}

// SetHeightFeet recombines the new feet with the current remainder inches.
// A recombined total of zero is applied as absent, not a stored zero.
func (p *Profile) SetHeightFeet(feet int) error {
	return p.applyHeightTotal(feet*12 + p.HeightRemainderInches())
}

// SetHeightRemainderInches recombines the new remainder with the current
// whole feet. A recombined total of zero is applied as absent.
func (p *Profile) SetHeightRemainderInches(inches int) error {
	return p.applyHeightTotal(p.HeightFeet()*12 + inches)
}

func (p *Profile) applyHeightTotal(total int) error {
	if total == 0 {
		return p.Apply(FieldHeightInches, Absent(KindInt))
	}
	return p.Apply(FieldHeightInches, Int(total))
}

func resolvedText(p *Profile, f Field) string {
	s, _ := p.Resolve(f).Text()
	return s
}

// AliasNames returns the trimmed, deduplicated alias names.
func (p *Profile) AliasNames() []string {
	names := make([]string, 0, len(p.Aliases))
	for _, a := range p.Aliases {
		names = append(names, a.Name)
	}
	return pstrings.DedupeAndTrim(names)
}

// ImageURL returns the URL of the first image by stored order, or
// defaultURL when the profile has no images.
func (p *Profile) ImageURL(defaultURL string) string {
	if len(p.Images) == 0 {
		return defaultURL
	}
	first := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.Position < first.Position {
			first = img
		}
	}
	return first.URL
}

// ResolvedView is the fully resolved field snapshot. It is what the
// derived-value cache stores under the "resolved" label.
type ResolvedView struct {
	FirstName       optional.Optional[string]    `json:"first_name"`
	LastName        optional.Optional[string]    `json:"last_name"`
	MiddleName      optional.Optional[string]    `json:"middle_name"`
	DateOfBirth     optional.Optional[time.Time] `json:"date_of_birth"`
	Sex             optional.Optional[string]    `json:"sex"`
	Race            optional.Optional[string]    `json:"race"`
	EyeColor        optional.Optional[string]    `json:"eye_color"`
	HairColor       optional.Optional[string]    `json:"hair_color"`
	HeightInches    optional.Optional[int]       `json:"height_inches"`
	WeightPounds    optional.Optional[int]       `json:"weight_pounds"`
	ScarsMarks      optional.Optional[string]    `json:"scars_marks"`
	LocationName    optional.Optional[string]    `json:"location_name"`
	LocationAddress optional.Optional[string]    `json:"location_address"`
}

// ResolvedView resolves every field once and returns the snapshot.
func (p *Profile) ResolvedView() ResolvedView {
	return ResolvedView{
		FirstName:       textSlot(p.Resolve(FieldFirstName)),
		LastName:        textSlot(p.Resolve(FieldLastName)),
		MiddleName:      textSlot(p.Resolve(FieldMiddleName)),
		DateOfBirth:     dateSlot(p.Resolve(FieldDateOfBirth)),
		Sex:             textSlot(p.Resolve(FieldSex)),
		Race:            textSlot(p.Resolve(FieldRace)),
		EyeColor:        textSlot(p.Resolve(FieldEyeColor)),
		HairColor:       textSlot(p.Resolve(FieldHairColor)),
		HeightInches:    intSlot(p.Resolve(FieldHeightInches)),
		WeightPounds:    intSlot(p.Resolve(FieldWeightPounds)),
		ScarsMarks:      textSlot(p.Resolve(FieldScarsMarks)),
		LocationName:    textSlot(p.Resolve(FieldLocationName)),
		LocationAddress: textSlot(p.Resolve(FieldLocationAddress)),
	}
}

// SearchDocument is the field exposure consumed by the external search
// indexer. The resolved names are what a caller searching the roster
// expects to match; the RMS names let the indexer match canonical identity
// even where local overrides differ.
type SearchDocument struct {
	ProfileID     string   `json:"profile_id"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	MiddleInitial string   `json:"middle_initial"`
	Aliases       []string `json:"aliases"`
	RMSFirstName  string   `json:"rms_first_name,omitempty"`
	RMSLastName   string   `json:"rms_last_name,omitempty"`
}

// SearchDocument builds the indexer payload from resolved and canonical
// state.
func (p *Profile) SearchDocument() SearchDocument {
	doc := SearchDocument{
		ProfileID:     p.ID.String(),
		FirstName:     p.FirstName(),
		LastName:      p.LastName(),
		MiddleInitial: initialOf(p.MiddleName()),
		Aliases:       p.AliasNames(),
	}
	if p.RMS != nil {
		doc.RMSFirstName = p.RMS.FirstName.UnwrapOr("")
		doc.RMSLastName = p.RMS.LastName.UnwrapOr("")
	}
	return doc
}

func initialOf(name string) string {
	for _, r := range name {
		return string(r)
	}
	return ""
}
