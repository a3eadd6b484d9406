package boosted

import (
	"context"
	"errors"
	"testing"

	"convlab/domain/core"
	apperrors "convlab/internal/errors"
	"convlab/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var _ ports.Classifier = (*Booster)(nil)

// thresholdTrainer learns the midpoint of feature 0 between the classes and
// reports two probability columns like a binary LightGBM classifier.
type thresholdTrainer struct {
	params Params
	cut    float64
	fitErr error
}

func (f *thresholdTrainer) Fit(X, y mat.Matrix) error {
	if f.fitErr != nil {
		return f.fitErr
	}
	rows, _ := X.Dims()
	var pos, neg, np, nn float64
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == 1 {
			pos += X.At(i, 0)
			np++
		} else {
			neg += X.At(i, 0)
			nn++
		}
	}
	f.cut = (pos/np + neg/nn) / 2
	return nil
}

func (f *thresholdTrainer) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := 0.2
		if X.At(i, 0) > f.cut {
			p = 0.8
		}
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func fakeBooster(params Params, fake *thresholdTrainer) *Booster {
	b := New(params)
	b.newTrainer = func(p Params) trainer {
		fake.params = p
		return fake
	}
	return b
}

func hoursRows(n int) ([][]float64, []int) {
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{float64(i), float64(i % 4)}
		if i >= n/2 {
			y[i] = 1
		}
	}
	return X, y
}

func TestParamsDefaults(t *testing.T) {
	assert.Equal(t, DefaultParams(), New(Params{}).Params())

	b := New(Params{NumLeaves: 7, LearningRate: 0.05})
	assert.Equal(t, Params{NumLeaves: 7, LearningRate: 0.05, NumEstimators: 100}, b.Params())
	assert.Equal(t, "lightgbm(leaves=7 lr=0.05 estimators=100)", b.Name())
}

func TestBoosterFitPredict(t *testing.T) {
	fake := &thresholdTrainer{}
	b := fakeBooster(Params{NumLeaves: 15}, fake)
	X, y := hoursRows(40)

	require.NoError(t, b.Fit(context.Background(), X, y))
	assert.Equal(t, 15, fake.params.NumLeaves)

	probs, err := b.PredictProba([][]float64{{2, 0}, {35, 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.8}, probs)

	empty, err := b.PredictProba(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = b.PredictProba([][]float64{{1, 2, 3}})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestBoosterValidation(t *testing.T) {
	ctx := context.Background()
	b := fakeBooster(Params{}, &thresholdTrainer{})

	_, err := b.PredictProba([][]float64{{1, 2}})
	assert.True(t, errors.Is(err, core.ErrNotFitted))

	err = b.Fit(ctx, [][]float64{{1}, {2}}, []int{1})
	assert.True(t, errors.Is(err, core.ErrLengthMismatch))

	err = b.Fit(ctx, [][]float64{{1}, {2}}, []int{0, 0})
	assert.True(t, errors.Is(err, core.ErrDegenerateLabels))

	err = b.Fit(ctx, [][]float64{{1}, {2, 3}}, []int{0, 1})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	X, y := hoursRows(10)
	assert.ErrorIs(t, b.Fit(cancelled, X, y), context.Canceled)
}

func TestBoosterFitFailure(t *testing.T) {
	b := fakeBooster(Params{}, &thresholdTrainer{fitErr: errors.New("no split found")})
	X, y := hoursRows(10)

	err := b.Fit(context.Background(), X, y)
	assert.Equal(t, apperrors.CodeModelError, apperrors.GetCode(err))
	assert.ErrorContains(t, err, "no split found")

	_, err = b.PredictProba(X)
	assert.True(t, errors.Is(err, core.ErrNotFitted))
}

func TestBoosterTrainsLightGBM(t *testing.T) {
	X, y := hoursRows(200)
	b := New(Params{NumLeaves: 7, LearningRate: 0.1, NumEstimators: 30})
	require.NoError(t, b.Fit(context.Background(), X, y))

	probs, err := b.PredictProba([][]float64{{5, 1}, {190, 2}})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Less(t, probs[0], probs[1])
}
