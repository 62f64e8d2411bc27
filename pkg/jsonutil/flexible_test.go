package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleString(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"string", `"health"`, "health"},
		{"integer", `42`, "42"},
		{"float", `4.5`, "4.5"},
		{"boolean", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FlexibleString(json.RawMessage(tt.raw)))
		})
	}
}

func TestFlexibleFloat(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{"number", `72.5`, 72.5},
		{"numeric string", `"72.5"`, 72.5},
		{"dollar string", `"$15"`, 15},
		{"percent string", `"85%"`, 85},
		{"null", `null`, 0},
		{"garbage", `"n/a"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FlexibleFloat(json.RawMessage(tt.raw)))
		})
	}
}

func TestFlexibleStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FlexibleStringSlice(json.RawMessage(`["a","b"]`)))
	assert.Equal(t, []string{"1", "2"}, FlexibleStringSlice(json.RawMessage(`[1,2]`)))
	assert.Equal(t, []string{"solo"}, FlexibleStringSlice(json.RawMessage(`"solo"`)))
	assert.Nil(t, FlexibleStringSlice(json.RawMessage(`null`)))
}
