package service

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// aggTime scans timestamp aggregates such as MAX(date). The aggregate
// expression carries no column type, so the sqlite driver hands the value
// back as a string; postgres returns time.Time directly.
type aggTime struct {
	Time *time.Time
}

var aggTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

func (t *aggTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = nil
		return nil
	case time.Time:
		tv := v
		t.Time = &tv
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("unsupported timestamp value %T", value)
}

func (t *aggTime) parse(s string) error {
	if s == "" {
		t.Time = nil
		return nil
	}
	for _, layout := range aggTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			parsed = parsed.UTC()
			t.Time = &parsed
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", s)
}

func (t aggTime) Value() (driver.Value, error) {
	if t.Time == nil {
		return nil, nil
	}
	return *t.Time, nil
}
