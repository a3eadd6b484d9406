package training

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"convlab/adapters/boosted"
	"convlab/adapters/forest"
	"convlab/domain/record"
	"convlab/internal"
	"convlab/internal/errors"
	"convlab/internal/dataset"
	"convlab/internal/evaluator"
	"convlab/ports"

	mstats "github.com/montanaflynn/stats"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Factory builds an unfitted classifier for one parameter set.
type Factory[P fmt.Stringer] func(params P) ports.Classifier

// BoostedFactory builds LightGBM boosters.
func BoostedFactory(params boosted.Params) ports.Classifier {
	return boosted.New(params)
}

// ForestFactory builds random forests.
func ForestFactory(params forest.Params) ports.Classifier {
	return forest.New(params)
}

// CandidateScore is the cross-validated ROC-AUC of one parameter set.
type CandidateScore struct {
	Params   fmt.Stringer
	MeanAUC  float64
	FoldAUCs []float64
}

// GridSearch picks hyperparameters by k-fold cross-validated ROC-AUC on the
// train partition, refits the best on the whole train partition and scores
// the test partition.
type GridSearch[P fmt.Stringer] struct {
	factory    Factory[P]
	candidates []P
	folds      int
	workers    int
	opts       Options
	progress   io.Writer
}

// NewGridSearch searches candidates in the given order, usually a grid's
// Candidates().
func NewGridSearch[P fmt.Stringer](factory Factory[P], candidates []P, folds int, opts Options) *GridSearch[P] {
	return &GridSearch[P]{
		factory:    factory,
		candidates: candidates,
		folds:      folds,
		workers:    runtime.NumCPU(),
		opts:       opts,
	}
}

// WithWorkers bounds how many candidates are evaluated at once.
func (g *GridSearch[P]) WithWorkers(n int) *GridSearch[P] {
	if n > 0 {
		g.workers = n
	}
	return g
}

// WithProgress draws a progress bar on w while candidates are scored.
func (g *GridSearch[P]) WithProgress(w io.Writer) *GridSearch[P] {
	g.progress = w
	return g
}

func (g *GridSearch[P]) Run(ctx context.Context, table *record.Table) (*PipelineResult, error) {
	candidates := g.candidates
	if len(candidates) == 0 {
		return nil, errors.InvalidInput("parameter grid has no candidates")
	}

	part, err := dataset.Split(table, g.opts.TestFraction, g.opts.Seed)
	if err != nil {
		return nil, err
	}
	enc, train := dataset.Encode(part.Train)
	test := enc.Transform(part.Test)

	folds, err := dataset.KFold(train.Y, g.folds, g.opts.Seed)
	if err != nil {
		return nil, err
	}

	internal.DefaultLogger.Info("[GridSearch] %d candidates x %d folds, %d workers",
		len(candidates), len(folds), g.workers)

	scores, err := g.scoreCandidates(ctx, candidates, train, folds)
	if err != nil {
		return nil, err
	}

	best := 0
	for i, s := range scores {
		if s.MeanAUC > scores[best].MeanAUC {
			best = i
		}
	}
	internal.DefaultLogger.Info("[GridSearch] best %s with mean AUC %.4f", scores[best].Params, scores[best].MeanAUC)

	model := g.factory(candidates[best])
	if err := model.Fit(ctx, train.X, train.Y); err != nil {
		return nil, fmt.Errorf("refit %s: %w", model.Name(), err)
	}
	report, err := score(model, test, g.opts)
	if err != nil {
		return nil, err
	}

	return &PipelineResult{
		Report:     report,
		Model:      model.Name(),
		Params:     candidates[best],
		TrainRows:  part.Train.Len(),
		TestRows:   part.Test.Len(),
		DataHash:   table.Fingerprint(),
		CVScore:    scores[best].MeanAUC,
		Candidates: scores,
	}, nil
}

// scoreCandidates evaluates every candidate concurrently. Each goroutine
// writes only its own slot; the first error cancels the rest.
func (g *GridSearch[P]) scoreCandidates(ctx context.Context, candidates []P, train *dataset.Matrix, folds []dataset.Fold) ([]CandidateScore, error) {
	scores := make([]CandidateScore, len(candidates))

	var bar *progressbar.ProgressBar
	if g.progress != nil {
		bar = progressbar.NewOptions(len(candidates),
			progressbar.OptionSetWriter(g.progress),
			progressbar.OptionSetDescription("grid search"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	sem := semaphore.NewWeighted(int64(g.workers))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, params := range candidates {
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			aucs, err := g.crossValidate(egCtx, params, train, folds)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", params, err)
			}
			meanAUC, err := mstats.Mean(aucs)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", params, err)
			}
			scores[i] = CandidateScore{Params: params, MeanAUC: meanAUC, FoldAUCs: aucs}
			internal.DefaultLogger.Debug("[GridSearch] %s mean AUC %.4f", params, scores[i].MeanAUC)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return scores, nil
}

func (g *GridSearch[P]) crossValidate(ctx context.Context, params P, train *dataset.Matrix, folds []dataset.Fold) ([]float64, error) {
	aucs := make([]float64, 0, len(folds))
	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fit, val := train.Subset(fold.Train), train.Subset(fold.Test)

		model := g.factory(params)
		if err := model.Fit(ctx, fit.X, fit.Y); err != nil {
			return nil, err
		}
		probs, err := model.PredictProba(val.X)
		if err != nil {
			return nil, err
		}
		report, err := evaluator.Evaluate(val.Y, probs)
		if err != nil {
			return nil, err
		}
		aucs = append(aucs, report.ROCAUC)
	}
	return aucs, nil
}
