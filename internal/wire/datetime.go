// Package wire holds serialization helpers shared by the API models
// and request bodies.
package wire

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateTimeLayout is the timestamp format used on the wire.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTime is a time.Time that marshals with DateTimeLayout. On input
// it accepts that layout and falls back to RFC 3339.
type DateTime struct {
	time.Time
}

// NewDateTime wraps a time.Time for the wire.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t}
}

// Now returns the current moment as a DateTime.
func Now() DateTime {
	return DateTime{Time: time.Now()}
}

// MarshalJSON implements the json.Marshaler interface
func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateTimeLayout) + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *DateTime) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}

	if t, err := time.Parse(DateTimeLayout, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: expected layout %q or RFC 3339", raw, DateTimeLayout)
	}
	d.Time = t
	return nil
}

// Scan implements the sql.Scanner interface for database deserialization
func (d *DateTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v
	default:
		return fmt.Errorf("cannot scan %T into DateTime", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (d DateTime) Value() (driver.Value, error) {
	return d.Time, nil
}

// GormDataType tells the migrator which column type to use
func (DateTime) GormDataType() string {
	return "timestamptz"
}
