package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Fields is the field map of a document.
type Fields map[string]any

// String returns the field as text; numbers are formatted, missing is "".
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the field as an integer. Numeric strings are accepted.
func (f Fields) Int(key string) (int64, error) {
	switch v := f[key].(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		fl, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return int64(fl), nil
	case string:
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}

// Time parses an RFC 3339 timestamp field; missing yields the zero time.
func (f Fields) Time(key string) (time.Time, error) {
	s := f.String(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", key, err)
	}
	return t, nil
}
