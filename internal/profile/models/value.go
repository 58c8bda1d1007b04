package models

import (
	"strconv"
	"time"
)

// Kind is the data kind of an overridable field.
type Kind string

const (
	KindText Kind = "text"
	KindDate Kind = "date"
	KindInt  Kind = "int"
)

// DateInputFormat is the fixed month/day/year layout accepted for date
// fields entered as text.
const DateInputFormat = "01/02/2006"

// Value is one field value: text, date, int, or absent. Absence is a first
// class state, not an error, so resolution can fall through cleanly.
type Value struct {
	kind Kind
	text string
	date time.Time
	num  int
	set  bool
}

// Text builds a present text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s, set: true}
}

// Date builds a present date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, date: t, set: true}
}

// Int builds a present integer value.
func Int(n int) Value {
	return Value{kind: KindInt, num: n, set: true}
}

// Absent builds the absent value of the given kind.
func Absent(kind Kind) Value {
	return Value{kind: kind}
}

// Kind returns the value's kind. Absent values keep the kind they were
// declared with so type checks survive resolution.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether no value is present.
func (v Value) IsAbsent() bool {
	return !v.set
}

// Text returns the text payload and whether one is present.
func (v Value) Text() (string, bool) {
	if !v.set || v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Date returns the date payload and whether one is present.
func (v Value) Date() (time.Time, bool) {
	if !v.set || v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Int returns the integer payload and whether one is present.
func (v Value) Int() (int, bool) {
	if !v.set || v.kind != KindInt {
		return 0, false
	}
	return v.num, true
}

// Equal reports whether two present values of the same kind carry the same
// payload. Dates compare at day precision. An absent value equals nothing,
// like SQL NULL.
func (v Value) Equal(other Value) bool {
	if !v.set || !other.set || v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindDate:
		return sameDay(v.date, other.date)
	case KindInt:
		return v.num == other.num
	}
	return false
}

// String renders the value for display: text as-is, dates in the input
// format, ints in decimal, absent as the empty string.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.kind {
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DateInputFormat)
	case KindInt:
		return strconv.Itoa(v.num)
	}
	return ""
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
