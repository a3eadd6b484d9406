package training

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"convlab/adapters/boosted"
	"convlab/adapters/forest"
	"convlab/domain/core"
	"convlab/domain/record"
	apperrors "convlab/internal/errors"
	"convlab/internal/evaluator"
	"convlab/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hoursColumn = 6

// hoursClassifier scores rows by Hours when informed, otherwise a constant.
type hoursClassifier struct {
	name      string
	informed  bool
	inference bool
	fitted    bool
}

func (c *hoursClassifier) Name() string { return c.name }

func (c *hoursClassifier) Fit(ctx context.Context, X [][]float64, y []int) error {
	if c.inference {
		return core.ErrInferenceOnly
	}
	c.fitted = true
	return ctx.Err()
}

func (c *hoursClassifier) PredictProba(X [][]float64) ([]float64, error) {
	if !c.fitted && !c.inference {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = 0.5
		if c.informed {
			out[i] = x[hoursColumn] / 100
		}
	}
	return out, nil
}

// conversionTable converts late touchpoints: Hours >= 50 are labeled 1.
func conversionTable(pos, neg int) *record.Table {
	rows := make([]record.Record, 0, pos+neg)
	for i := 0; i < pos; i++ {
		rows = append(rows, record.Record{Site: fmt.Sprint(i % 4), OS: "ios", Hours: 50 + float64(i), Conversion: 1})
	}
	for i := 0; i < neg; i++ {
		rows = append(rows, record.Record{Site: fmt.Sprint(i % 5), OS: "android", Hours: float64(i) / 2, Conversion: 0})
	}
	return record.NewTable(rows)
}

func TestDirectPipeline(t *testing.T) {
	clf := &hoursClassifier{name: "hours", informed: true}
	var out bytes.Buffer
	opts := Options{TestFraction: 0.3, Seed: 42, Evaluator: evaluator.NewEvaluator(&out, nil)}

	table := conversionTable(40, 60)
	result, err := NewDirectPipeline(clf, opts).Run(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, table.Fingerprint(), result.DataHash)

	assert.True(t, clf.fitted)
	assert.Equal(t, "hours", result.Model)
	assert.Equal(t, 100, result.TrainRows+result.TestRows)
	assert.Equal(t, 30, result.TestRows)
	assert.InDelta(t, 1.0, result.Report.ROCAUC, 1e-12)
	assert.Contains(t, out.String(), "ROC-AUC: 1.0000")
}

func TestDirectPipelineInferenceOnly(t *testing.T) {
	clf := &hoursClassifier{name: "pretrained", informed: true, inference: true}

	result, err := NewDirectPipeline(clf, Options{TestFraction: 0.3, Seed: 1}).Run(context.Background(), conversionTable(20, 20))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Report.ROCAUC, 1e-12)
}

func TestDirectPipelineErrors(t *testing.T) {
	_, err := NewDirectPipeline(&hoursClassifier{}, Options{TestFraction: 0, Seed: 1}).Run(context.Background(), conversionTable(5, 5))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDirectPipeline(&hoursClassifier{}, Options{TestFraction: 0.3, Seed: 1}).Run(ctx, conversionTable(5, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

// factoryFor builds informed classifiers for the given NumTrees values only.
func factoryFor(goodTrees ...int) (Factory[forest.Params], *sync.Map) {
	built := &sync.Map{}
	return func(p forest.Params) ports.Classifier {
		informed := false
		for _, g := range goodTrees {
			informed = informed || p.NumTrees == g
		}
		built.Store(p, true)
		return &hoursClassifier{name: p.String(), informed: informed}
	}, built
}

func TestGridSearchPicksBestCandidate(t *testing.T) {
	factory, built := factoryFor(20)
	grid := ForestGrid{NumTrees: []int{10, 20, 30}, MaxDepth: []int{3}}

	var progress bytes.Buffer
	gs := NewGridSearch(factory, grid.Candidates(), 3, Options{TestFraction: 0.3, Seed: 7}).
		WithWorkers(2).
		WithProgress(&progress)

	result, err := gs.Run(context.Background(), conversionTable(40, 60))
	require.NoError(t, err)

	assert.Equal(t, forest.Params{NumTrees: 20, MaxDepth: 3}, result.Params)
	assert.InDelta(t, 1.0, result.CVScore, 1e-12)
	assert.InDelta(t, 1.0, result.Report.ROCAUC, 1e-12)
	require.Len(t, result.Candidates, 3)
	for i, c := range result.Candidates {
		assert.Equal(t, grid.Candidates()[i], c.Params)
		assert.Len(t, c.FoldAUCs, 3)
	}
	assert.InDelta(t, 0.5, result.Candidates[0].MeanAUC, 1e-12)

	count := 0
	built.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, 3, count)
}

func TestGridSearchTiesKeepGridOrder(t *testing.T) {
	factory, _ := factoryFor(5, 6)
	grid := ForestGrid{NumTrees: []int{4, 5, 6}}

	result, err := NewGridSearch(factory, grid.Candidates(), 2, Options{TestFraction: 0.25, Seed: 3}).
		Run(context.Background(), conversionTable(30, 30))
	require.NoError(t, err)
	params, ok := result.Params.(forest.Params)
	require.True(t, ok)
	assert.Equal(t, 5, params.NumTrees)
}

type failingClassifier struct{ *hoursClassifier }

func (failingClassifier) Fit(context.Context, [][]float64, []int) error {
	return errors.New("out of memory")
}

func TestGridSearchPropagatesErrors(t *testing.T) {
	factory := func(p forest.Params) ports.Classifier {
		if p.NumTrees == 2 {
			return failingClassifier{&hoursClassifier{name: "failing"}}
		}
		return &hoursClassifier{informed: true}
	}
	_, err := NewGridSearch(factory, ForestGrid{NumTrees: []int{1, 2, 3}}.Candidates(), 2, Options{TestFraction: 0.3, Seed: 1}).
		WithWorkers(1).
		Run(context.Background(), conversionTable(20, 20))
	assert.ErrorContains(t, err, "out of memory")

	_, err = NewGridSearch(factory, ForestGrid{}.Candidates(), 50, Options{TestFraction: 0.3, Seed: 1}).
		Run(context.Background(), conversionTable(10, 10))
	assert.Error(t, err)

	_, err = NewGridSearch(factory, nil, 2, Options{TestFraction: 0.3, Seed: 1}).
		Run(context.Background(), conversionTable(10, 10))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

// boostedFactoryFor informs only candidates with the given learning rate.
func boostedFactoryFor(goodRate float64) Factory[boosted.Params] {
	return func(p boosted.Params) ports.Classifier {
		return &hoursClassifier{name: p.String(), informed: p.LearningRate == goodRate}
	}
}

func TestGridSearchOverBoostedGrid(t *testing.T) {
	grid := BoostedGrid{NumLeaves: []int{15}, LearningRate: []float64{0.05, 0.1, 0.3}}

	result, err := NewGridSearch(boostedFactoryFor(0.1), grid.Candidates(), 3, Options{TestFraction: 0.3, Seed: 5}).
		Run(context.Background(), conversionTable(40, 40))
	require.NoError(t, err)
	assert.Equal(t, boosted.Params{NumLeaves: 15, LearningRate: 0.1}, result.Params)
	assert.Equal(t, "leaves=15 lr=0.1 estimators=0", result.Model)
	require.Len(t, result.Candidates, 3)
	assert.InDelta(t, 0.5, result.Candidates[2].MeanAUC, 1e-12)
}

func TestDirectPipelineReportsBoosterParams(t *testing.T) {
	clf := boosted.New(boosted.Params{NumLeaves: 7, LearningRate: 0.1, NumEstimators: 30})

	result, err := NewDirectPipeline(clf, Options{TestFraction: 0.3, Seed: 9}).Run(context.Background(), conversionTable(60, 60))
	require.NoError(t, err)
	assert.Equal(t, clf.Params(), result.Params)
	assert.Equal(t, clf.Name(), result.Model)
	assert.Greater(t, result.Report.ROCAUC, 0.8)
}

func TestGridSearchWithRandomForest(t *testing.T) {
	grid := ForestGrid{NumTrees: []int{10}, MaxDepth: []int{3, 6}}

	result, err := NewGridSearch(ForestFactory, grid.Candidates(), 2, Options{TestFraction: 0.3, Seed: 11}).
		Run(context.Background(), conversionTable(30, 30))
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 2)
	params, ok := result.Params.(forest.Params)
	require.True(t, ok)
	assert.Equal(t, 10, params.NumTrees)
	assert.Greater(t, result.Report.ROCAUC, 0.8)
}
