package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	KindStacking = "stacking"
	KindLogistic = "logistic"
	KindTree     = "tree"
	KindForest   = "forest"

	// DecisionThreshold splits P(fraud) into a label. Ties go to the legitimate class.
	DecisionThreshold = 0.5
)

type treeArtifact struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type estimatorArtifact struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	treeArtifact
	Trees []treeArtifact `json:"trees"`
}

type classifierArtifact struct {
	Kind           string              `json:"kind"`
	Version        string              `json:"version"`
	NFeatures      int                 `json:"n_features"`
	Passthrough    bool                `json:"passthrough"`
	Estimators     []estimatorArtifact `json:"estimators"`
	FinalEstimator estimatorArtifact   `json:"final_estimator"`
}

// estimator yields P(fraud) for one input row.
type estimator interface {
	probability(x []float64) float64
}

type logistic struct {
	coef      []float64
	intercept float64
}

func (l *logistic) probability(x []float64) float64 {
	z := l.intercept
	for i, c := range l.coef {
		z += c * x[i]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// tree is a fitted binary decision tree in flat node-array form.
// Leaves have both children set to -1.
type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	positive    []float64 // per node share of the fraud class
}

func (t *tree) probability(x []float64) float64 {
	node := 0
	for t.left[node] != -1 {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.positive[node]
}

type forest struct {
	trees []*tree
}

func (f *forest) probability(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.probability(x)
	}
	return sum / float64(len(f.trees))
}

// Stacking is a fitted stacked ensemble: base estimators each produce P(fraud),
// and a logistic meta-estimator combines them, optionally with the raw inputs.
type Stacking struct {
	version     string
	nFeatures   int
	passthrough bool
	estimators  []estimator
	final       *logistic
}

// ParseClassifier decodes a stacking classifier artifact and validates every node and weight.
func ParseClassifier(data []byte) (*Stacking, error) {
	var a classifierArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode classifier artifact: %w", err)
	}
	if a.Kind != KindStacking {
		return nil, fmt.Errorf("unsupported classifier kind %q", a.Kind)
	}
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("n_features must be positive, got %d", a.NFeatures)
	}
	if len(a.Estimators) == 0 {
		return nil, errors.New("stacking classifier has no base estimators")
	}

	s := &Stacking{
		version:     a.Version,
		nFeatures:   a.NFeatures,
		passthrough: a.Passthrough,
		estimators:  make([]estimator, 0, len(a.Estimators)),
	}
	for i, ea := range a.Estimators {
		e, err := buildEstimator(ea, a.NFeatures)
		if err != nil {
			return nil, fmt.Errorf("estimator %d (%s): %w", i, ea.Name, err)
		}
		s.estimators = append(s.estimators, e)
	}

	if a.FinalEstimator.Kind != KindLogistic {
		return nil, fmt.Errorf("final estimator must be %q, got %q", KindLogistic, a.FinalEstimator.Kind)
	}
	final, err := buildLogistic(a.FinalEstimator, s.metaWidth())
	if err != nil {
		return nil, fmt.Errorf("final estimator: %w", err)
	}
	s.final = final
	return s, nil
}

func buildEstimator(a estimatorArtifact, width int) (estimator, error) {
	switch a.Kind {
	case KindLogistic:
		return buildLogistic(a, width)
	case KindTree:
		return buildTree(a.treeArtifact, width)
	case KindForest:
		if len(a.Trees) == 0 {
			return nil, errors.New("forest has no trees")
		}
		f := &forest{trees: make([]*tree, 0, len(a.Trees))}
		for i, ta := range a.Trees {
			t, err := buildTree(ta, width)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			f.trees = append(f.trees, t)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported estimator kind %q", a.Kind)
	}
}

func buildLogistic(a estimatorArtifact, width int) (*logistic, error) {
	if len(a.Coef) != width {
		return nil, fmt.Errorf("expected %d coefficients, got %d", width, len(a.Coef))
	}
	for _, c := range a.Coef {
		if !isFinite(c) {
			return nil, errors.New("non-finite coefficient")
		}
	}
	if !isFinite(a.Intercept) {
		return nil, errors.New("non-finite intercept")
	}
	return &logistic{coef: append([]float64(nil), a.Coef...), intercept: a.Intercept}, nil
}

func buildTree(a treeArtifact, width int) (*tree, error) {
	n := len(a.ChildrenLeft)
	if n == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if len(a.ChildrenRight) != n || len(a.Feature) != n || len(a.Threshold) != n || len(a.Value) != n {
		return nil, fmt.Errorf("tree arrays disagree on node count %d", n)
	}

	t := &tree{
		left:      append([]int(nil), a.ChildrenLeft...),
		right:     append([]int(nil), a.ChildrenRight...),
		feature:   append([]int(nil), a.Feature...),
		threshold: append([]float64(nil), a.Threshold...),
		positive:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := t.left[i], t.right[i]
		if l == -1 || r == -1 {
			if l != r {
				return nil, fmt.Errorf("node %d has a single child", i)
			}
			p, err := positiveShare(a.Value[i])
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			t.positive[i] = p
			continue
		}
		// children always follow their parent, which rules out cycles
		if l <= i || r <= i || l >= n || r >= n {
			return nil, fmt.Errorf("node %d has out of order children %d, %d", i, l, r)
		}
		if t.feature[i] < 0 || t.feature[i] >= width {
			return nil, fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, t.feature[i], width)
		}
		if math.IsNaN(t.threshold[i]) {
			return nil, fmt.Errorf("node %d has a NaN threshold", i)
		}
	}
	return t, nil
}

func positiveShare(weights []float64) (float64, error) {
	if len(weights) != 2 {
		return 0, fmt.Errorf("expected 2 class weights, got %d", len(weights))
	}
	if weights[0] < 0 || weights[1] < 0 || !isFinite(weights[0]) || !isFinite(weights[1]) {
		return 0, errors.New("class weights must be finite and non-negative")
	}
	total := weights[0] + weights[1]
	if total == 0 {
		return 0, errors.New("class weights sum to zero")
	}
	return weights[1] / total, nil
}

func (s *Stacking) metaWidth() int {
	if s.passthrough {
		return len(s.estimators) + s.nFeatures
	}
	return len(s.estimators)
}

// NumFeatures is the input width the classifier was fitted on.
func (s *Stacking) NumFeatures() int { return s.nFeatures }
func (s *Stacking) Kind() string     { return KindStacking }
func (s *Stacking) Version() string  { return s.version }

// PredictProbability returns P(fraud) for one normalized row.
func (s *Stacking) PredictProbability(x []float64) (float64, error) {
	if len(x) != s.nFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", s.nFeatures, len(x))
	}
	meta := make([]float64, 0, s.metaWidth())
	for _, e := range s.estimators {
		meta = append(meta, e.probability(x))
	}
	if s.passthrough {
		meta = append(meta, x...)
	}
	p := s.final.probability(meta)
	if math.IsNaN(p) {
		return 0, errors.New("classifier produced NaN probability")
	}
	return p, nil
}

// Predict returns 1 for fraud and 0 otherwise.
func (s *Stacking) Predict(x []float64) (int, error) {
	p, err := s.PredictProbability(x)
	if err != nil {
		return 0, err
	}
	if p > DecisionThreshold {
		return 1, nil
	}
	return 0, nil
}
