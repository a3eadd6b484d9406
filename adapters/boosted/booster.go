package boosted

import (
	"context"
	"fmt"

	"convlab/domain/core"
	"convlab/internal"
	"convlab/internal/errors"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"gonum.org/v1/gonum/mat"
)

// Params are the LightGBM hyperparameters searched by grid search.
type Params struct {
	NumLeaves     int     `json:"num_leaves"`
	LearningRate  float64 `json:"learning_rate"`
	NumEstimators int     `json:"n_estimators"`
}

// DefaultParams match the LightGBM library defaults.
func DefaultParams() Params {
	return Params{NumLeaves: 31, LearningRate: 0.1, NumEstimators: 100}
}

func (p Params) String() string {
	return fmt.Sprintf("leaves=%d lr=%g estimators=%d", p.NumLeaves, p.LearningRate, p.NumEstimators)
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.NumLeaves <= 0 {
		p.NumLeaves = def.NumLeaves
	}
	if p.LearningRate <= 0 {
		p.LearningRate = def.LearningRate
	}
	if p.NumEstimators <= 0 {
		p.NumEstimators = def.NumEstimators
	}
	return p
}

// trainer is the part of the scigo classifier a Booster drives.
type trainer interface {
	Fit(X, y mat.Matrix) error
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

func newLGBMClassifier(p Params) trainer {
	return lightgbm.NewLGBMClassifier().
		WithNumLeaves(p.NumLeaves).
		WithLearningRate(p.LearningRate).
		WithNumIterations(p.NumEstimators)
}

// Booster trains a LightGBM binary classifier on the encoded features.
type Booster struct {
	params     Params
	newTrainer func(Params) trainer
	clf        trainer
	nFeatures  int
}

// New creates an unfitted booster. Zero parameters take the defaults.
func New(params Params) *Booster {
	return &Booster{params: params.withDefaults(), newTrainer: newLGBMClassifier}
}

// Params returns the hyperparameters the booster trains with.
func (b *Booster) Params() Params { return b.params }

func (b *Booster) Name() string {
	return "lightgbm(" + b.params.String() + ")"
}

// Fit trains a fresh ensemble, replacing any earlier one.
func (b *Booster) Fit(ctx context.Context, X [][]float64, y []int) error {
	if len(X) != len(y) {
		return core.NewLengthMismatchError(len(y), len(X))
	}
	if err := core.CheckBinaryLabels(y); err != nil {
		return err
	}
	features, err := dense(X)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	labels := mat.NewVecDense(len(y), nil)
	for i, l := range y {
		labels.SetVec(i, float64(l))
	}

	internal.DefaultLogger.Debug("[Booster] training %s on %d rows", b.params, len(X))
	clf := b.newTrainer(b.params)
	if err := clf.Fit(features, labels); err != nil {
		return errors.ModelError("lightgbm", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.clf = clf
	b.nFeatures = len(X[0])
	return nil
}

// PredictProba returns the predicted probability of class 1 for every row.
func (b *Booster) PredictProba(X [][]float64) ([]float64, error) {
	if b.clf == nil {
		return nil, core.ErrNotFitted
	}
	if len(X) == 0 {
		return []float64{}, nil
	}
	for i, x := range X {
		if len(x) != b.nFeatures {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d has %d features, model expects %d", i, len(x), b.nFeatures))
		}
	}
	features, err := dense(X)
	if err != nil {
		return nil, err
	}
	proba, err := b.clf.PredictProba(features)
	if err != nil {
		return nil, errors.ModelError("lightgbm", err)
	}

	rows, cols := proba.Dims()
	if rows != len(X) || cols == 0 {
		return nil, errors.ModelError("lightgbm", fmt.Errorf("probability matrix is %dx%d for %d rows", rows, cols, len(X)))
	}
	// binary classifiers report one column per class; class 1 is last
	out := make([]float64, rows)
	for i := range out {
		out[i] = proba.At(i, cols-1)
	}
	return out, nil
}

// dense copies rows into a matrix. Every row must have the same width.
func dense(X [][]float64) (*mat.Dense, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, errors.InvalidInput("feature matrix is empty")
	}
	width := len(X[0])
	data := make([]float64, 0, len(X)*width)
	for i, x := range X {
		if len(x) != width {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d has %d features, expected %d", i, len(x), width))
		}
		data = append(data, x...)
	}
	return mat.NewDense(len(X), width, data), nil
}
