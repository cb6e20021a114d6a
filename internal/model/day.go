package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day semantics, held as UTC midnight.
type Day struct {
	t time.Time
}

// DayOf truncates t to its calendar date (in t's own location).
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func NewDay(y int, m time.Month, d int) Day {
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp (date part kept).
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return DayOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DayOf(t), nil
	}
	return Day{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}

func MustDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Time() time.Time { return d.t }
func (d Day) IsZero() bool { return d.t.IsZero() }
func (d Day) String() string { return d.t.Format(dayLayout) }
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }

// IsSet reports whether d is non-nil and holds a date.
func (d *Day) IsSet() bool { return d != nil && !d.IsZero() }

// Ptr returns a pointer to a copy of d.
func (d Day) Ptr() *Day { return &d }

// Clone copies a nullable day.
func (d *Day) Clone() *Day {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// DaysBetween returns the whole number of calendar days from a to b (negative when b < a).
func DaysBetween(a, b Day) int {
	return int(math.Round(b.t.Sub(a.t).Hours() / 24))
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Day{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Day{}
		return nil
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Day) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Day) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
