package models

import (
	"strconv"
	"strings"
	"time"

	"casefile/internal/rms"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/optional"
)

// Field names one overridable profile attribute.
type Field string

const (
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldMiddleName      Field = "middle_name"
	FieldDateOfBirth     Field = "date_of_birth"
	FieldSex             Field = "sex"
	FieldRace            Field = "race"
	FieldEyeColor        Field = "eye_color"
	FieldHairColor       Field = "hair_color"
	FieldHeightInches    Field = "height_inches"
	FieldWeightPounds    Field = "weight_pounds"
	FieldScarsMarks      Field = "scars_marks"
	FieldLocationName    Field = "location_name"
	FieldLocationAddress Field = "location_address"
)

// AllFields lists every overridable field in stable declaration order.
func AllFields() []Field {
	return []Field{
		FieldFirstName,
		FieldLastName,
		FieldMiddleName,
		FieldDateOfBirth,
		FieldSex,
		FieldRace,
		FieldEyeColor,
		FieldHairColor,
		FieldHeightInches,
		FieldWeightPounds,
		FieldScarsMarks,
		FieldLocationName,
		FieldLocationAddress,
	}
}

// ParseField validates a field name from external input.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldTable[f]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown field %q", s)
	}
	return f, nil
}

// Kind returns the field's data kind. Unknown fields report text; they are
// rejected earlier by ParseField.
func (f Field) Kind() Kind {
	if spec, ok := fieldTable[f]; ok {
		return spec.kind
	}
	return KindText
}

// fieldSpec declares how one field reads and writes: its kind, the local
// override slot on the profile, and the canonical slot on the RMS record.
// One table row per field replaces per-field resolution methods.
type fieldSpec struct {
	kind Kind
	get  func(p *Profile) Value
	set  func(p *Profile, v Value)
	rms  func(r *rms.Record) Value
}

var fieldTable = map[Field]fieldSpec{
	FieldFirstName: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.FirstNameOverride) },
		set:  func(p *Profile, v Value) { p.FirstNameOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.FirstName) },
	},
	FieldLastName: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.LastNameOverride) },
		set:  func(p *Profile, v Value) { p.LastNameOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.LastName) },
	},
	FieldMiddleName: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.MiddleNameOverride) },
		set:  func(p *Profile, v Value) { p.MiddleNameOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.MiddleName) },
	},
	FieldDateOfBirth: {
		kind: KindDate,
		get:  func(p *Profile) Value { return dateOf(p.DateOfBirthOverride) },
		set:  func(p *Profile, v Value) { p.DateOfBirthOverride = dateSlot(v) },
		rms:  func(r *rms.Record) Value { return dateOf(r.DateOfBirth) },
	},
	FieldSex: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.SexOverride) },
		set:  func(p *Profile, v Value) { p.SexOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.Sex) },
	},
	FieldRace: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.RaceOverride) },
		set:  func(p *Profile, v Value) { p.RaceOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.Race) },
	},
	FieldEyeColor: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.EyeColorOverride) },
		set:  func(p *Profile, v Value) { p.EyeColorOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.EyeColor) },
	},
	FieldHairColor: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.HairColorOverride) },
		set:  func(p *Profile, v Value) { p.HairColorOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.HairColor) },
	},
	FieldHeightInches: {
		kind: KindInt,
		get:  func(p *Profile) Value { return intOf(p.HeightInchesOverride) },
		set:  func(p *Profile, v Value) { p.HeightInchesOverride = intSlot(v) },
		rms:  func(r *rms.Record) Value { return intOf(r.HeightInches) },
	},
	FieldWeightPounds: {
		kind: KindInt,
		get:  func(p *Profile) Value { return intOf(p.WeightPoundsOverride) },
		set:  func(p *Profile, v Value) { p.WeightPoundsOverride = intSlot(v) },
		rms:  func(r *rms.Record) Value { return intOf(r.WeightPounds) },
	},
	FieldScarsMarks: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.ScarsMarksOverride) },
		set:  func(p *Profile, v Value) { p.ScarsMarksOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.ScarsMarks) },
	},
	FieldLocationName: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.LocationNameOverride) },
		set:  func(p *Profile, v Value) { p.LocationNameOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.LocationName) },
	},
	FieldLocationAddress: {
		kind: KindText,
		get:  func(p *Profile) Value { return textOf(p.LocationAddressOverride) },
		set:  func(p *Profile, v Value) { p.LocationAddressOverride = textSlot(v) },
		rms:  func(r *rms.Record) Value { return textOf(r.LocationAddress) },
	},
}

// ParseFieldText converts raw form input into a Value for the field.
// Empty or whitespace-only input means absent. Parse failure is a
// validation error naming the field, never a panic.
func ParseFieldText(f Field, raw string) (Value, error) {
	spec, ok := fieldTable[f]
	if !ok {
		return Value{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown field %q", f)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Absent(spec.kind), nil
	}

	switch spec.kind {
	case KindText:
		return Text(raw), nil
	case KindDate:
		t, err := time.Parse(DateInputFormat, raw)
		if err != nil {
			return Value{}, dErrors.Newf(dErrors.CodeValidation, "field %s: %q is not a valid MM/DD/YYYY date", f, raw)
		}
		return Date(t), nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, dErrors.Newf(dErrors.CodeValidation, "field %s: %q is not a whole number", f, raw)
		}
		return Int(n), nil
	}
	return Value{}, dErrors.Newf(dErrors.CodeInternal, "field %s has unknown kind %q", f, spec.kind)
}

// Optional-to-Value bridges. The override slots and RMS columns store
// optionals; resolution speaks Values.

func textOf(o optional.Optional[string]) Value {
	if v, ok := o.Get(); ok {
		return Text(v)
	}
	return Absent(KindText)
}

func dateOf(o optional.Optional[time.Time]) Value {
	if v, ok := o.Get(); ok {
		return Date(v)
	}
	return Absent(KindDate)
}

func intOf(o optional.Optional[int]) Value {
	if v, ok := o.Get(); ok {
		return Int(v)
	}
	return Absent(KindInt)
}

func textSlot(v Value) optional.Optional[string] {
	if s, ok := v.Text(); ok {
		return optional.Some(s)
	}
	return optional.None[string]()
}

func dateSlot(v Value) optional.Optional[time.Time] {
	if t, ok := v.Date(); ok {
		return optional.Some(t)
	}
	return optional.None[time.Time]()
}

func intSlot(v Value) optional.Optional[int] {
	if n, ok := v.Int(); ok {
		return optional.Some(n)
	}
	return optional.None[int]()
}
