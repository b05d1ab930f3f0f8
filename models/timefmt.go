package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JSONTime wraps time.Time so device timestamps parse regardless of which
// layout the phone sends, and round-trip through TIMESTAMPTZ columns.
type JSONTime time.Time

var jsonTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseJSONTime accepts RFC3339 with or without zone, and millisecond or
// microsecond fractions.
func ParseJSONTime(s string) (JSONTime, error) {
	for _, layout := range jsonTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return JSONTime(t), nil
		}
	}
	return JSONTime{}, fmt.Errorf("cannot parse time %q", s)
}

func (jt *JSONTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*jt = JSONTime{}
		return nil
	}
	t, err := ParseJSONTime(s)
	if err != nil {
		return fmt.Errorf("JSONTime.UnmarshalJSON: %w", err)
	}
	*jt = t
	return nil
}

// MarshalJSON always emits RFC3339
func (jt JSONTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(jt).Format(time.RFC3339))
}

func (jt JSONTime) Time() time.Time { return time.Time(jt) }

func (jt JSONTime) IsZero() bool { return time.Time(jt).IsZero() }

func (jt JSONTime) Value() (driver.Value, error) {
	return time.Time(jt), nil
}

func (jt *JSONTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*jt = JSONTime{}
	case time.Time:
		*jt = JSONTime(v)
	case []byte:
		return jt.scanString(string(v))
	case string:
		return jt.scanString(v)
	default:
		return fmt.Errorf("JSONTime.Scan: unsupported type %T", src)
	}
	return nil
}

func (jt *JSONTime) scanString(s string) error {
	t, err := ParseJSONTime(s)
	if err != nil {
		return fmt.Errorf("JSONTime.Scan: %w", err)
	}
	*jt = t
	return nil
}

// Date is a calendar day ("2006-01-02") stored in a DATE column. Work dates
// on PTPs, time cards and extra-work tickets use it.
type Date time.Time

const dateLayout = "2006-01-02"

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// accept a full timestamp and truncate it
		jt, err2 := ParseJSONTime(s)
		if err2 != nil {
			return Date{}, fmt.Errorf("cannot parse date %q", s)
		}
		return NewDate(jt.Time()), nil
	}
	return Date(t), nil
}

func (d Date) String() string { return time.Time(d).Format(dateLayout) }

func (d Date) Time() time.Time { return time.Time(d) }

func (d Date) IsZero() bool { return time.Time(d).IsZero() }

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("Date.Scan: %w", err)
	}
	*d = parsed
	return nil
}
