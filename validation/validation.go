package validation

import (
	"strconv"
	"strings"
	"time"
)

// Violations maps a field name to a translation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Int parses value as a base-10 integer. A blank value is left to Required.
func Int(field, value string, v Violations) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		if _, exists := v[field]; !exists {
			v[field] = "must_be_number"
		}
		return 0, false
	}
	return n, true
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	Between(field, val, minVal, maxVal, "out_of_range", v)
}

// Between records code when val falls outside [minVal, maxVal].
func Between(field string, val, minVal, maxVal int, code string, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = code
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = "too_small"
	}
}

// Date parses an optional YYYY-MM-DD value. ok is false when the value is blank or invalid.
func Date(field, value string, v Violations) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		v[field] = "invalid_date"
		return time.Time{}, false
	}
	return d, true
}

// OneOf checks value against a closed set.
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}
