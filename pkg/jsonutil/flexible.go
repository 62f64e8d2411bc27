// Package jsonutil tolerates the type drift in LLM JSON output: numbers
// arriving as strings, strings arriving as numbers, scalars where arrays
// were asked for.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString converts a raw JSON value to a string, accepting strings,
// numbers, and booleans. Returns "" for null or empty input.
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return fmt.Sprintf("%t", b)
	}

	return string(raw)
}

// FlexibleFloat converts a raw JSON value to a float64, accepting numbers
// and numeric strings (with optional "%" or "$" decoration). Returns 0 for
// anything unparseable.
func FlexibleFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.Trim(s, "$%"))
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}

	return 0
}

// FlexibleStringSlice converts a raw JSON value to a string slice, accepting
// arrays of any scalar type and bare scalars (wrapped as a single element).
func FlexibleStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err == nil {
		items := make([]string, 0, len(rawItems))
		for _, item := range rawItems {
			if s := FlexibleString(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	}

	if s := FlexibleString(raw); s != "" {
		return []string{s}
	}
	return nil
}
