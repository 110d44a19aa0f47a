package errors

import (
	"math"
	"strings"
	"unicode"
)

// ReservedSaveKey is the data key the composition layer uses for serialized
// parameters. A transform may not record its replay container under it.
const ReservedSaveKey = "params"

// ValidateProbability checks that p is a finite probability in [0, 1].
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return New(ErrCodeInvalidConfig, "probability must be finite, got %v", p)
	}
	if p < 0 || p > 1 {
		return New(ErrCodeInvalidConfig, "probability must be in [0, 1], got %v", p)
	}
	return nil
}

// ValidateSaveKey validates the bundle key used as a replay container.
//
// The validation rules are:
//   - No empty keys
//   - Not the reserved name "params"
//   - No control characters
func ValidateSaveKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidConfig, "save key cannot be empty")
	}
	if key == ReservedSaveKey {
		return New(ErrCodeReservedName, "%q save key is reserved", ReservedSaveKey)
	}
	return validateKey(key, "save key")
}

// ValidateDataKey validates a caller-supplied bundle key such as an alias
// ("image2", "obj_mask").
func ValidateDataKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "data key cannot be empty")
	}
	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "data key too long (max 256 characters)")
	}
	return validateKey(key, "data key")
}

func validateKey(key, what string) error {
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", what)
		}
	}
	if strings.TrimSpace(key) != key {
		return New(ErrCodeInvalidInput, "%s %q has surrounding whitespace", what, key)
	}
	return nil
}
