package shaper

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

func lookup(rec Record, key string) (any, bool) {
	var cur any = map[string]any(rec)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if r, isRec := cur.(Record); isRec {
				m = r
			} else {
				return nil, false
			}
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// asString flattens scalars and {"text": ...} style wrappers into a string.
func asString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case json.Number:
		return val.String(), true
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case map[string]any:
		for _, k := range []string{"text", "plain", "value"} {
			if s, ok := asString(val[k]); ok {
				return s, true
			}
		}
	}
	return "", false
}

func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val.UTC(), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return val.UTC(), true
	case float64:
		return epoch(int64(val)), true
	case int64:
		return epoch(val), true
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return epoch(n), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// epoch accepts seconds or milliseconds.
func epoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func firstString(rec Record, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := lookup(rec, k); ok {
			if s, ok := asString(v); ok {
				return s, true
			}
		}
	}
	return "", false
}

func firstTime(rec Record, keys []string) (time.Time, bool) {
	for _, k := range keys {
		if v, ok := lookup(rec, k); ok {
			if t, ok := asTime(v); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// firstRaw keeps the source's own rendering of a timestamp.
func firstRaw(rec Record, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := lookup(rec, k)
		if !ok {
			continue
		}
		if t, isTime := v.(time.Time); isTime {
			return t.UTC().Format(time.RFC3339), true
		}
		if s, ok := asString(v); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
