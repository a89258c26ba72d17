package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateOnly is a calendar date serialized as yyyy-MM-dd.
type DateOnly struct {
	time.Time
}

const DateLayout = "2006-01-02"

// ParseDate parses a yyyy-MM-dd string.
func ParseDate(s string) (DateOnly, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return DateOnly{Time: t}, nil
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) DateOnly {
	y, m, d := now.In(loc).Date()
	return DateOnly{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d DateOnly) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
