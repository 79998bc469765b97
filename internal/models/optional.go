package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// localLayouts are accepted for timestamps that carry no offset; they are
// read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Optional distinguishes a JSON field that was omitted or null from one that
// carried a value.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether one was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.set
}

// UnmarshalJSON leaves o unset for a JSON null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if ts, ok := any(&v).(*time.Time); ok {
		parsed, err := parseTimestamp(data)
		if err != nil {
			return err
		}
		*ts = parsed
		*o = Some(v)
		return nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func parseTimestamp(data []byte) (time.Time, error) {
	var t time.Time
	err := json.Unmarshal(data, &t)
	if err == nil {
		return t, nil
	}
	var raw string
	if json.Unmarshal(data, &raw) != nil {
		return time.Time{}, err
	}
	for _, layout := range localLayouts {
		if parsed, perr := time.ParseInLocation(layout, raw, time.UTC); perr == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}

// MarshalJSON writes null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// NonEmpty reports whether a string Optional holds a non-empty value. Empty
// strings are treated as absent so a stored text field cannot be cleared.
func NonEmpty(o Optional[string]) bool {
	v, ok := o.Get()
	return ok && v != ""
}
