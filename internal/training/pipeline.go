// Package training fits classifiers on the record table and evaluates them.
package training

import (
	"context"
	"errors"
	"fmt"

	"convlab/adapters/boosted"
	"convlab/adapters/forest"
	"convlab/domain/core"
	"convlab/domain/evaluation"
	"convlab/domain/record"
	"convlab/internal"
	"convlab/internal/dataset"
	"convlab/internal/evaluator"
	"convlab/ports"
)

// Options control partitioning and reporting shared by both pipelines.
type Options struct {
	TestFraction float64
	Seed         int64

	// Evaluator prints the test report; nil only computes it.
	Evaluator *evaluator.Evaluator
	ROCPath   string
}

// PipelineResult is the outcome of one training run.
type PipelineResult struct {
	Report    *evaluation.Report
	Model     string
	Params    fmt.Stringer // nil for pre-trained models
	TrainRows int
	TestRows  int
	DataHash  core.Hash // fingerprint of the full input table

	// Grid search only.
	CVScore    float64
	Candidates []CandidateScore
}

// featureChecker is implemented by pre-trained models that know their inputs.
type featureChecker interface {
	CheckFeatures(names []string) error
}

// DirectPipeline fits one classifier on the train partition and scores the
// test partition.
type DirectPipeline struct {
	classifier ports.Classifier
	opts       Options
}

func NewDirectPipeline(classifier ports.Classifier, opts Options) *DirectPipeline {
	return &DirectPipeline{classifier: classifier, opts: opts}
}

func (p *DirectPipeline) Run(ctx context.Context, table *record.Table) (*PipelineResult, error) {
	part, err := dataset.Split(table, p.opts.TestFraction, p.opts.Seed)
	if err != nil {
		return nil, err
	}
	enc, train := dataset.Encode(part.Train)
	test := enc.Transform(part.Test)

	if checker, ok := p.classifier.(featureChecker); ok {
		if err := checker.CheckFeatures(train.FeatureNames); err != nil {
			return nil, err
		}
	}

	internal.DefaultLogger.Info("[Pipeline] fitting %s on %d rows", p.classifier.Name(), train.Rows())
	if err := p.classifier.Fit(ctx, train.X, train.Y); err != nil {
		if !errors.Is(err, core.ErrInferenceOnly) {
			return nil, fmt.Errorf("fit %s: %w", p.classifier.Name(), err)
		}
		internal.DefaultLogger.Info("[Pipeline] %s is pre-trained, skipping fit", p.classifier.Name())
	}

	report, err := score(p.classifier, test, p.opts)
	if err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Report:    report,
		Model:     p.classifier.Name(),
		TrainRows: part.Train.Len(),
		TestRows:  part.Test.Len(),
		DataHash:  table.Fingerprint(),
	}
	switch m := p.classifier.(type) {
	case *boosted.Booster:
		result.Params = m.Params()
	case *forest.Model:
		result.Params = m.Params()
	}
	return result, nil
}

// score predicts m and evaluates it, printing when an evaluator is set.
func score(c ports.Classifier, m *dataset.Matrix, opts Options) (*evaluation.Report, error) {
	probs, err := c.PredictProba(m.X)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", c.Name(), err)
	}
	if opts.Evaluator != nil {
		return opts.Evaluator.Run(m.Y, probs, opts.ROCPath)
	}
	return evaluator.Evaluate(m.Y, probs)
}
