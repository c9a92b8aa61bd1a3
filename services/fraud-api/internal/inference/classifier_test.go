package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stumpClassifier = `{
  "kind": "stacking",
  "version": "v7",
  "n_features": 2,
  "estimators": [
    {
      "kind": "tree",
      "children_left": [1, -1, -1],
      "children_right": [2, -1, -1],
      "feature": [0, -2, -2],
      "threshold": [0.0, -2, -2],
      "value": [[2, 2], [3, 1], [1, 3]]
    }
  ],
  "final_estimator": {"kind": "logistic", "coef": [10], "intercept": -5}
}`

func TestStacking_TreeStump(t *testing.T) {
	c, err := ParseClassifier([]byte(stumpClassifier))
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumFeatures())
	assert.Equal(t, "v7", c.Version())

	// right leaf: P=0.75, meta z = 2.5
	p, err := c.PredictProbability([]float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2.5)), p, 1e-12)
	label, err := c.Predict([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	// threshold is inclusive on the left: P=0.25, meta z = -2.5
	p, err = c.PredictProbability([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(2.5)), p, 1e-12)
	label, err = c.Predict([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestStacking_TieIsLegitimate(t *testing.T) {
	c, err := ParseClassifier([]byte(`{
	  "kind": "stacking", "n_features": 1,
	  "estimators": [{"kind": "logistic", "coef": [0], "intercept": 0}],
	  "final_estimator": {"kind": "logistic", "coef": [0], "intercept": 0}
	}`))
	require.NoError(t, err)

	p, err := c.PredictProbability([]float64{3})
	require.NoError(t, err)
	label, err := c.Predict([]float64{3})
	require.NoError(t, err)

	assert.Equal(t, 0.5, p)
	assert.Equal(t, 0, label)
}

func TestStacking_ForestAveragesWithPassthrough(t *testing.T) {
	c, err := ParseClassifier([]byte(`{
	  "kind": "stacking", "n_features": 1, "passthrough": true,
	  "estimators": [{
	    "kind": "forest",
	    "trees": [
	      {"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[1, 0]]},
	      {"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[0, 1]]}
	    ]
	  }],
	  "final_estimator": {"kind": "logistic", "coef": [2, 1], "intercept": -1}
	}`))
	require.NoError(t, err)

	// forest mean 0.5, z = 2*0.5 + 1*x - 1 = x
	p, err := c.PredictProbability([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}

func TestStacking_WrongWidth(t *testing.T) {
	c, err := ParseClassifier([]byte(stumpClassifier))
	require.NoError(t, err)

	_, err = c.PredictProbability([]float64{1})
	assert.ErrorContains(t, err, "expected 2 features")
	_, err = c.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestParseClassifier_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad json":         `[`,
		"unknown kind":     `{"kind":"voting","n_features":1}`,
		"no features":      `{"kind":"stacking","n_features":0}`,
		"no estimators":    `{"kind":"stacking","n_features":1,"estimators":[],"final_estimator":{"kind":"logistic","coef":[],"intercept":0}}`,
		"coef width":       `{"kind":"stacking","n_features":2,"estimators":[{"kind":"logistic","coef":[1],"intercept":0}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"final width":      `{"kind":"stacking","n_features":1,"passthrough":true,"estimators":[{"kind":"logistic","coef":[1],"intercept":0}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"final not linear": `{"kind":"stacking","n_features":1,"estimators":[{"kind":"logistic","coef":[1],"intercept":0}],"final_estimator":{"kind":"tree"}}`,
		"tree cycle":       `{"kind":"stacking","n_features":1,"estimators":[{"kind":"tree","children_left":[0,-1],"children_right":[1,-1],"feature":[0,-2],"threshold":[0,-2],"value":[[1,1],[1,1]]}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"tree feature":     `{"kind":"stacking","n_features":1,"estimators":[{"kind":"tree","children_left":[1,-1,-1],"children_right":[2,-1,-1],"feature":[4,-2,-2],"threshold":[0,-2,-2],"value":[[1,1],[1,0],[0,1]]}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"tree one child":   `{"kind":"stacking","n_features":1,"estimators":[{"kind":"tree","children_left":[1,-1],"children_right":[-1,-1],"feature":[0,-2],"threshold":[0,-2],"value":[[1,1],[1,1]]}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"leaf weights":     `{"kind":"stacking","n_features":1,"estimators":[{"kind":"tree","children_left":[-1],"children_right":[-1],"feature":[-2],"threshold":[-2],"value":[[0,0]]}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
		"empty forest":     `{"kind":"stacking","n_features":1,"estimators":[{"kind":"forest","trees":[]}],"final_estimator":{"kind":"logistic","coef":[1],"intercept":0}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClassifier([]byte(body))
			assert.Error(t, err)
		})
	}
}
