package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampField is the record field used to bucket records into calendar days.
const TimestampField = "timestamp"

// Record is one bar, quote or trade as returned by the remote API.
// The schema depends on the channel; only the timestamp field is interpreted.
type Record map[string]any

// Time parses the record timestamp as UTC.
func (r Record) Time() (time.Time, error) {
	raw, ok := r[TimestampField]
	if !ok || raw == nil {
		return time.Time{}, fmt.Errorf("record has no %s field", TimestampField)
	}

	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("record %s is %T, expected string", TimestampField, raw)
	}

	return ParseTimestamp(s)
}

// Field returns the CSV representation of a field. Missing fields are empty.
func (r Record) Field(name string) string {
	return FormatValue(r[name])
}

// Row returns the record values in header order.
func (r Record) Row(header []string) []string {
	row := make([]string, len(header))
	for i, name := range header {
		row[i] = r.Field(name)
	}

	return row
}

// ParseTimestamp accepts RFC3339 timestamps with optional fractional seconds
// and the dump form "2019-01-01D00:00:00.123456789", which has no zone and is UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == 'D' {
		s = s[:10] + "T" + s[11:]
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	return t, nil
}

// FormatValue renders a decoded JSON value for CSV output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}

		return string(b)
	}
}
