// Package codec provides ready-made mappers beyond the built-in scalar set:
// RFC3339 timestamps, durations, UUIDs, identity pass-through, and typed
// collection mappers. Register them into a container (or the global one)
// with Use.
package codec

import (
	"fmt"
	"time"

	mappable "github.com/mappable-go/mappable"
)

// Time returns a mapper that converts between RFC3339 strings and time.Time.
func Time() mappable.Mapper {
	return timeMapper{Base: mappable.NewBase[time.Time]("time")}
}

type timeMapper struct {
	mappable.Base
}

func (m timeMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected RFC3339 string, got %T", v)
	}
	return parseRFC3339(s)
}

func (m timeMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		if p, isPtr := v.(*time.Time); isPtr {
			t = *p
		} else {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
	}
	return formatRFC3339Canonical(t), nil
}

func (m timeMapper) Equals(a, b any, ctx mappable.MappingContext) (bool, error) {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if !aok || !bok {
		return false, nil
	}
	return ta.Equal(tb), nil
}

func (m timeMapper) Stringify(v any, ctx mappable.MappingContext) (string, error) {
	t, ok := v.(time.Time)
	if !ok {
		return "", fmt.Errorf("expected time.Time, got %T", v)
	}
	return formatRFC3339Canonical(t), nil
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

// Duration returns a mapper that converts between strings in time.Duration
// syntax ("1h30m") and time.Duration.
func Duration() mappable.Mapper {
	return durationMapper{Base: mappable.NewBase[time.Duration]("duration")}
}

type durationMapper struct {
	mappable.Base
}

func (m durationMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected duration string, got %T", v)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func (m durationMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("expected time.Duration, got %T", v)
	}
	return d.String(), nil
}
