package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateFileStem validates a file name prefix used for generated outputs
// (for example the "lmx" in lmx1.dxf). It must be a bare name without path
// components so split output cannot escape the output directory.
func ValidateFileStem(stem string) error {
	if stem == "" {
		return New(ErrCodeInvalidPath, "file name prefix cannot be empty")
	}

	if len(stem) > 128 {
		return New(ErrCodeInvalidPath, "file name prefix too long (max 128 characters)")
	}

	for _, r := range stem {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name prefix contains invalid control characters")
		}
	}

	if strings.ContainsAny(stem, "/\\") {
		return New(ErrCodeInvalidPath, "file name prefix cannot contain path separators")
	}

	if strings.Contains(stem, "..") {
		return New(ErrCodeInvalidPath, "file name prefix cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateFinite rejects NaN and infinite values for the named field.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidParams, "%s must be a finite number, got %v", field, v)
	}
	return nil
}

// ValidateSpacing checks that a layout spacing is a positive finite number.
func ValidateSpacing(s float64) error {
	if err := ValidateFinite("spacing", s); err != nil {
		return New(ErrCodeInvalidSpacing, "spacing must be a finite number, got %v", s)
	}
	if s <= 0 {
		return New(ErrCodeInvalidSpacing, "spacing must be positive, got %v", s)
	}
	return nil
}
