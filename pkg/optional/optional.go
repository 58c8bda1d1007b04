// Package optional provides a generic container distinguishing "value absent"
// from "zero value present". Profile field overrides use it so that clearing
// an override and storing an empty value remain different states.
package optional

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Optional holds either a value of type T or nothing.
// The zero value is None.
type Optional[T any] struct {
	val T
	set bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{val: v, set: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the held value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	return o.val, o.set
}

// UnwrapOr returns the held value, or defaultVal when empty.
func (o Optional[T]) UnwrapOr(defaultVal T) T {
	if !o.set {
		return defaultVal
	}
	return o.val
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Optional[T]{val: v, set: true}
	return nil
}

// Scan implements sql.Scanner. NULL columns become None. Integer columns
// arrive from database/sql as int64 and are narrowed when T is int.
func (o *Optional[T]) Scan(value any) error {
	if value == nil {
		*o = Optional[T]{}
		return nil
	}

	var v T
	switch t := any(&v).(type) {
	case interface{ Scan(any) error }:
		if err := t.Scan(value); err != nil {
			return err
		}
	default:
		switch src := value.(type) {
		case T:
			v = src
		case int64:
			p, ok := any(&v).(*int)
			if !ok {
				return fmt.Errorf("optional: cannot scan %T into %T", value, v)
			}
			*p = int(src)
		case []byte:
			p, ok := any(&v).(*string)
			if !ok {
				return fmt.Errorf("optional: cannot scan %T into %T", value, v)
			}
			*p = string(src)
		default:
			return fmt.Errorf("optional: cannot scan %T into %T", value, v)
		}
	}

	*o = Optional[T]{val: v, set: true}
	return nil
}

// Value implements driver.Valuer. None becomes SQL NULL. Present values
// pass through the default parameter converter so types the driver does
// not accept directly (int, for one) widen to a valid driver.Value.
func (o Optional[T]) Value() (driver.Value, error) {
	if !o.set {
		return nil, nil
	}
	switch t := any(o.val).(type) {
	case driver.Valuer:
		return t.Value()
	default:
		return driver.DefaultParameterConverter.ConvertValue(o.val)
	}
}

func (o Optional[T]) String() string {
	if !o.set {
		return ""
	}
	return fmt.Sprintf("%v", o.val)
}
