package errors

import (
	"math"
	"testing"
)

func TestValidateFileStem(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "lmx", false},
		{"valid with dash", "stringer-a", false},
		{"valid unicode", "踏步", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"slash", "out/lmx", true},
		{"backslash", "out\\lmx", true},
		{"traversal", "..lmx", true},
		{"control char", "lmx\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileStem(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFileStem(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpacing(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"positive", 400, false},
		{"tiny", 0.001, false},
		{"zero", 0, true},
		{"negative", -10, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpacing(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpacing(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSpacing) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidSpacing)
			}
		})
	}
}

func TestValidateFinite(t *testing.T) {
	if err := ValidateFinite("a", 1.5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateFinite("a", math.NaN())
	if !Is(err, ErrCodeInvalidParams) {
		t.Errorf("NaN error code = %v, want %v", GetCode(err), ErrCodeInvalidParams)
	}
}
