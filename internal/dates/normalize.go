// Package dates canonicalizes the heterogeneous date representations the
// backend and older app versions produce into a single in-memory time.Time.
package dates

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Layouts accepted for string dates, tried in order.
var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// millisThreshold separates unix seconds from unix milliseconds.
// Anything above ~Nov 2286 in seconds is treated as milliseconds.
const millisThreshold = 1e11

// Normalize converts any supported date representation into a time.Time.
//
// Supported shapes: time.Time and *time.Time (returned as-is), RFC3339
// or date-only strings, unix seconds or milliseconds as integer/float,
// json.Number, and the backend's serialized timestamp object
// {"seconds": ..., "nanoseconds": ...}.
//
// Unrecognized shapes fall back to the current time. This is a silent
// default, never an error; pass a logger to observe fallbacks.
func Normalize(v any, log *slog.Logger) time.Time {
	if t, ok := normalize(v); ok {
		return t
	}
	if log != nil {
		log.Warn("unrecognized date shape, defaulting to now", "value", v)
	}
	return time.Now()
}

func normalize(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		return parseString(d)
	case int:
		return fromEpoch(int64(d)), true
	case int64:
		return fromEpoch(d), true
	case float64:
		return fromEpoch(int64(d)), true
	case json.Number:
		if n, err := d.Int64(); err == nil {
			return fromEpoch(n), true
		}
		if f, err := d.Float64(); err == nil {
			return fromEpoch(int64(f)), true
		}
		return time.Time{}, false
	case map[string]any:
		return fromTimestampObject(d)
	default:
		return time.Time{}, false
	}
}

func parseString(s string) (time.Time, bool) {
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromEpoch interprets n as unix seconds or milliseconds by magnitude.
func fromEpoch(n int64) time.Time {
	if n > millisThreshold || n < -millisThreshold {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

// fromTimestampObject handles the document store's serialized timestamp
// shape: {"seconds": 1700000000, "nanoseconds": 0}. The "nanos" spelling
// shows up in older exports.
func fromTimestampObject(m map[string]any) (time.Time, bool) {
	secs, ok := numberField(m, "seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, ok := numberField(m, "nanoseconds")
	if !ok {
		nanos, _ = numberField(m, "nanos")
	}
	return time.Unix(secs, nanos), true
}

func numberField(m map[string]any, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// NormalizeOptional canonicalizes a possibly-absent date value.
// Nil stays nil; everything else goes through Normalize.
func NormalizeOptional(v any, log *slog.Logger) *time.Time {
	if v == nil {
		return nil
	}
	if p, ok := v.(*time.Time); ok && p == nil {
		return nil
	}
	t := Normalize(v, log)
	return &t
}
