package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"string value", `"students"`, "students"},
		{"integer value", `5`, "5"},
		{"float value", `74.5`, "74.5"},
		{"boolean value", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleString(json.RawMessage(tt.input))
			if got != tt.expected {
				t.Errorf("FlexibleString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
