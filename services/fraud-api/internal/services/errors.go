package services

import (
	"fmt"
	"strings"
)

// SchemaMismatchError means the derived feature names differ from what the loaded scaler expects.
// Missing and Extra are sorted.
type SchemaMismatchError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature mismatch. missing: [%s], extra: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Extra, ", "))
}

// ModelInferenceError wraps a failure raised by the normalizer or the classifier.
type ModelInferenceError struct {
	Stage string
	Err   error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Stage, e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }
