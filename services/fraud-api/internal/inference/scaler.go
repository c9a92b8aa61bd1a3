package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	KindStandardScaler = "standard_scaler"
	KindMinMaxScaler   = "minmax_scaler"
)

type scalerArtifact struct {
	Kind           string    `json:"kind"`
	Version        string    `json:"version"`
	FeatureNamesIn []string  `json:"feature_names_in"`
	Mean           []float64 `json:"mean"`
	Scale          []float64 `json:"scale"`
	DataMin        []float64 `json:"data_min"`
	DataRange      []float64 `json:"data_range"`
}

// Scaler is a fitted per-feature affine transform: (x - offset) / scale.
// It covers both standardization (offset=mean) and min-max scaling (offset=data_min, scale=data_range).
type Scaler struct {
	kind    string
	version string
	names   []string
	offset  []float64
	scale   []float64
}

// ParseScaler decodes a scaler artifact.
func ParseScaler(data []byte) (*Scaler, error) {
	var a scalerArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode scaler artifact: %w", err)
	}
	switch a.Kind {
	case KindStandardScaler:
		return NewStandardScaler(a.Version, a.FeatureNamesIn, a.Mean, a.Scale)
	case KindMinMaxScaler:
		return NewMinMaxScaler(a.Version, a.FeatureNamesIn, a.DataMin, a.DataRange)
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", a.Kind)
	}
}

func NewStandardScaler(version string, names []string, mean, scale []float64) (*Scaler, error) {
	return newScaler(KindStandardScaler, version, names, mean, scale)
}

func NewMinMaxScaler(version string, names []string, dataMin, dataRange []float64) (*Scaler, error) {
	return newScaler(KindMinMaxScaler, version, names, dataMin, dataRange)
}

func newScaler(kind, version string, names []string, offset, scale []float64) (*Scaler, error) {
	if err := validateFeatureNames(names); err != nil {
		return nil, err
	}
	if len(offset) != len(names) || len(scale) != len(names) {
		return nil, fmt.Errorf("%s: expected %d offsets and scales, got %d and %d", kind, len(names), len(offset), len(scale))
	}

	s := &Scaler{
		kind:    kind,
		version: version,
		names:   append([]string(nil), names...),
		offset:  make([]float64, len(names)),
		scale:   make([]float64, len(names)),
	}
	for i := range names {
		if !isFinite(offset[i]) || !isFinite(scale[i]) {
			return nil, fmt.Errorf("%s: non-finite parameter for feature %q", kind, names[i])
		}
		s.offset[i] = offset[i]
		s.scale[i] = scale[i]
		// constant features are left unscaled
		if s.scale[i] == 0 {
			s.scale[i] = 1
		}
	}
	return s, nil
}

// FeatureNames returns the expected input columns in order.
func (s *Scaler) FeatureNames() []string {
	return append([]string(nil), s.names...)
}

func (s *Scaler) Kind() string    { return s.kind }
func (s *Scaler) Version() string { return s.version }

// Transform normalizes x, which must be ordered like FeatureNames.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.names) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.names), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if !isFinite(v) {
			return nil, fmt.Errorf("feature %q is not finite: %v", s.names[i], v)
		}
		out[i] = (v - s.offset[i]) / s.scale[i]
	}
	return out, nil
}

func validateFeatureNames(names []string) error {
	if len(names) == 0 {
		return errors.New("feature_names_in is empty")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return errors.New("feature_names_in contains an empty name")
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("feature_names_in contains %q twice", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
