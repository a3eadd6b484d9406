// Package forest adapts github.com/malaschitz/randomForest to ports.Classifier.
package forest

import (
	"context"
	"fmt"

	"convlab/domain/core"
	"convlab/internal"

	randomforest "github.com/malaschitz/randomForest"
)

// Params are the random forest hyperparameters. Zero values leave the
// library defaults in place.
type Params struct {
	NumTrees    int `json:"num_trees"`
	MaxDepth    int `json:"max_depth"`
	LeafSize    int `json:"leaf_size"`
	MaxFeatures int `json:"max_features"`
}

func (p Params) String() string {
	return fmt.Sprintf("trees=%d depth=%d leaf=%d features=%d", p.NumTrees, p.MaxDepth, p.LeafSize, p.MaxFeatures)
}

// Model is a random forest voting between the two conversion classes.
type Model struct {
	params Params
	forest *randomforest.Forest
}

// New creates an unfitted model.
func New(params Params) *Model {
	if params.NumTrees <= 0 {
		params.NumTrees = 100
	}
	return &Model{params: params}
}

// Params returns the hyperparameters the model was built with.
func (m *Model) Params() Params { return m.params }

func (m *Model) Name() string {
	return "random_forest(" + m.params.String() + ")"
}

// Fit trains a fresh forest, replacing any earlier one.
func (m *Model) Fit(ctx context.Context, X [][]float64, y []int) error {
	if len(X) != len(y) {
		return core.NewLengthMismatchError(len(y), len(X))
	}
	if err := core.CheckBinaryLabels(y); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	forest := &randomforest.Forest{
		Data:      randomforest.ForestData{X: X, Class: y},
		MaxDepth:  m.params.MaxDepth,
		LeafSize:  m.params.LeafSize,
		MFeatures: m.params.MaxFeatures,
	}
	internal.DefaultLogger.Debug("[Forest] training %s on %d rows", m.params, len(X))
	forest.Train(m.params.NumTrees)

	if err := ctx.Err(); err != nil {
		return err
	}
	m.forest = forest
	return nil
}

// PredictProba returns the share of tree votes for class 1.
func (m *Model) PredictProba(X [][]float64) ([]float64, error) {
	if m.forest == nil {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		votes := m.forest.Vote(x)
		if len(votes) > 1 {
			out[i] = votes[1]
		}
	}
	return out, nil
}
