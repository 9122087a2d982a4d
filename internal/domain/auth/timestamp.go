package auth

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Timestamp is the single normalized time representation used across the
// session core. Persistence adapters convert their native shapes (SQL
// timestamps, Unix seconds from token claims, RFC 3339 strings) into this
// type once, at the data boundary; nothing downstream inspects raw shapes.
//
// The zero Timestamp means "unset" and marshals as JSON null.
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps a time.Time, normalizing to UTC.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC()}
}

// FromUnix converts Unix seconds (the shape used in token claims) into a
// Timestamp. Zero or negative input yields the unset Timestamp.
func FromUnix(sec int64) Timestamp {
	if sec <= 0 {
		return Timestamp{}
	}
	return Timestamp{t: time.Unix(sec, 0).UTC()}
}

// Time returns the underlying time.Time (zero when unset).
func (ts Timestamp) Time() time.Time { return ts.t }

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Unix returns Unix seconds, or 0 when unset.
func (ts Timestamp) Unix() int64 {
	if ts.t.IsZero() {
		return 0
	}
	return ts.t.Unix()
}

// Before reports whether ts is strictly before other. An unset timestamp is
// before everything except another unset timestamp.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// Add returns the timestamp shifted by d. Adding to an unset timestamp
// returns unset.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	if ts.t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: ts.t.Add(d)}
}

// MarshalJSON encodes as RFC 3339 or null when unset.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 strings, Unix seconds, and null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, parseErr := time.Parse(time.RFC3339Nano, s)
		if parseErr != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, parseErr)
		}
		*ts = NewTimestamp(parsed)
		return nil
	}
	var sec int64
	if err := json.Unmarshal(data, &sec); err == nil {
		*ts = FromUnix(sec)
		return nil
	}
	return fmt.Errorf("unsupported timestamp encoding: %s", data)
}

// Scan implements sql.Scanner so repositories can select straight into a
// Timestamp column target.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
		return nil
	case time.Time:
		*ts = NewTimestamp(v)
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("scan timestamp %q: %w", v, err)
		}
		*ts = NewTimestamp(parsed)
		return nil
	default:
		return errors.New("unsupported timestamp source type")
	}
}

// Value implements driver.Valuer; unset timestamps store NULL.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.t.IsZero() {
		return nil, nil
	}
	return ts.t, nil
}
