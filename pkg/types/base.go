package types

import (
	"encoding/json"
	"math"
	"time"
)

// JSON is an alias for any, representing any JSON value.
// Trace input and output payloads are decoded into this type.
type JSON = any

// JSONObject is an alias for map[string]any, representing a JSON object.
type JSONObject = map[string]any

// Metadata is a map of string to any for arbitrary metadata.
type Metadata = map[string]any

// Time is a custom time type that handles JSON marshaling/unmarshaling.
// When the time is zero, it marshals to JSON null.
// Note: The omitempty tag does NOT prevent zero times from being marshaled.
// If you need true omitempty behavior, use *Time (pointer) instead.
type Time struct {
	time.Time
}

// IsZero returns true if the time is the zero value.
func (t Time) IsZero() bool {
	return t.Time.IsZero()
}

// MarshalJSON implements json.Marshaler.
// Zero times are marshaled as JSON null.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler. It accepts the layouts of
// ParseTime and unix seconds. Anything else decodes to the zero time so a
// single odd timestamp never fails the enclosing document.
func (t *Time) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.Time, _ = TimeOf(v)
	return nil
}

// TimeOf interprets a decoded JSON value as a timestamp: a string in one of
// the ParseTime layouts or a number of unix seconds.
func TimeOf(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		return ParseTime(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, false
		}
		sec, frac := math.Modf(val)
		return time.Unix(int64(sec), int64(frac*1e9)), true
	}
	return time.Time{}, false
}

// timeLayouts are tried in order by ParseTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime parses the timestamp formats seen in Langfuse payloads.
// The empty string yields the zero time and false.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Now returns the current time as a Time.
func Now() Time {
	return Time{Time: time.Now()}
}

// TimePtr returns a pointer to a Time value.
// Use this when you need true omitempty behavior with JSON marshaling.
func TimePtr(t time.Time) *Time {
	return &Time{Time: t}
}
