package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"convlab/adapters/boosted"
	"convlab/adapters/chart"
	"convlab/adapters/forest"
	"convlab/internal/errors"
	"convlab/internal/evaluator"
	"convlab/internal/training"
	"convlab/ports"

	"github.com/spf13/cobra"
)

func (c *cli) trainingOptions(rocPath string) training.Options {
	if rocPath == "" {
		rocPath = filepath.Join(c.cfg.Output.Dir, "roc.png")
	}
	renderer := chart.NewRenderer(c.cfg.Output.ChartWidth, c.cfg.Output.ChartHeight)
	return training.Options{
		TestFraction: c.cfg.Training.TestFraction,
		Seed:         c.cfg.Training.Seed,
		Evaluator:    evaluator.NewEvaluator(os.Stdout, renderer),
		ROCPath:      rocPath,
	}
}

// modelFlags are the hyperparameter flags shared by train.
type modelFlags struct {
	boosted boosted.Params
	forest  forest.Params
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.boosted.NumLeaves, "leaves", 0, "LightGBM leaves per tree (overrides NUM_LEAVES)")
	cmd.Flags().Float64Var(&f.boosted.LearningRate, "learning-rate", 0, "LightGBM learning rate (overrides LEARNING_RATE)")
	cmd.Flags().IntVar(&f.boosted.NumEstimators, "estimators", 0, "LightGBM boosting rounds (overrides NUM_ESTIMATORS)")
	cmd.Flags().IntVar(&f.forest.NumTrees, "trees", 0, "Random forest trees (overrides NUM_TREES)")
	cmd.Flags().IntVar(&f.forest.MaxDepth, "depth", 0, "Random forest maximum depth (overrides MAX_DEPTH)")
	cmd.Flags().IntVar(&f.forest.LeafSize, "leaf", 0, "Random forest minimum leaf size (overrides LEAF_SIZE)")
	cmd.Flags().IntVar(&f.forest.MaxFeatures, "max-features", 0, "Random forest features tried per split; 0 keeps the library default")
}

// boostedParams fills unset flags from configuration.
func (c *cli) boostedParams(cmd *cobra.Command, p boosted.Params) boosted.Params {
	t := c.cfg.Training
	if !cmd.Flags().Changed("leaves") {
		p.NumLeaves = t.NumLeaves
	}
	if !cmd.Flags().Changed("learning-rate") {
		p.LearningRate = t.LearningRate
	}
	if !cmd.Flags().Changed("estimators") {
		p.NumEstimators = t.NumEstimators
	}
	return p
}

// forestParams fills unset flags from configuration.
func (c *cli) forestParams(cmd *cobra.Command, p forest.Params) forest.Params {
	t := c.cfg.Training
	if !cmd.Flags().Changed("trees") {
		p.NumTrees = t.NumTrees
	}
	if !cmd.Flags().Changed("depth") {
		p.MaxDepth = t.MaxDepth
	}
	if !cmd.Flags().Changed("leaf") {
		p.LeafSize = t.LeafSize
	}
	return p
}

// modelKind resolves --model against MODEL.
func (c *cli) modelKind(cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("model") {
		return flag
	}
	return c.cfg.Training.Model
}

func newTrainCmd(c *cli) *cobra.Command {
	var model, modelFile, roc string
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train on a split of the data and evaluate on the held-out part",
		Long: `Split the table into train and test partitions, fit a classifier on the
train partition and print RMSE, accuracy, precision, recall, F1 and ROC-AUC on
the test partition. The ROC curve is saved as an image.

--model boosted (the default) trains a LightGBM gradient-boosted tree
ensemble. --model forest trains a random forest. --model pretrained loads a
LightGBM or XGBoost model trained elsewhere (inference only); an optional
<model-file>.meta.json sidecar names its kind and feature order.

Example: convlab train --leaves 15 --learning-rate 0.05 --estimators 200 --roc out/roc.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var clf ports.Classifier
			switch kind := c.modelKind(cmd, model); kind {
			case "boosted":
				clf = boosted.New(c.boostedParams(cmd, flags.boosted))
			case "forest":
				clf = forest.New(c.forestParams(cmd, flags.forest))
			case "pretrained":
				if modelFile == "" {
					modelFile = c.cfg.Training.ModelFile
				}
				if modelFile == "" {
					return errors.ConfigInvalid("--model-file or MODEL_FILE is required for pretrained models")
				}
				m, err := boosted.Load(modelFile)
				if err != nil {
					return err
				}
				clf = m
			default:
				return errors.InvalidInput(fmt.Sprintf("unknown model %q (boosted, forest or pretrained)", kind))
			}

			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			result, err := training.NewDirectPipeline(clf, c.trainingOptions(roc)).Run(cmd.Context(), table)
			if err != nil {
				return err
			}
			fmt.Printf("Model: %s (train %d rows, test %d rows, data %s, run %s)\n",
				result.Model, result.TrainRows, result.TestRows, result.DataHash.Short(), result.Report.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "boosted", "boosted, forest or pretrained (overrides MODEL)")
	cmd.Flags().StringVar(&modelFile, "model-file", "", "Pretrained model file (overrides MODEL_FILE)")
	cmd.Flags().StringVar(&roc, "roc", "", "ROC chart path; default OUTPUT_DIR/roc.png")
	flags.register(cmd)
	return cmd
}

// searchFunc runs one grid search over an already loaded grid.
type searchFunc func(ctx context.Context, opts training.Options) (*training.PipelineResult, error)

func newGridSearchCmd(c *cli) *cobra.Command {
	var model, gridFile, roc string
	var folds, workers int
	var progress bool

	cmd := &cobra.Command{
		Use:   "gridsearch",
		Short: "Cross-validated hyperparameter search",
		Long: `Score every combination of the parameter grid by mean k-fold ROC-AUC on
the train partition, refit the best one on the whole train partition and
evaluate it on the test partition.

The grid file is a JSON (or .yaml) mapping of arrays. For --model boosted:
  {"num_leaves": [15, 31], "learning_rate": [0.05, 0.1], "n_estimators": [100, 200]}
For --model forest:
  {"num_trees": [50, 100, 200], "max_depth": [5, 10], "leaf_size": [1, 5]}

Example: convlab gridsearch --grid grid.yaml --folds 3 --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("folds") {
				folds = c.cfg.Training.CVFolds
			}
			if !cmd.Flags().Changed("workers") {
				workers = c.cfg.Training.GridWorkers
			}

			table, err := c.loadTable(cmd.Context())
			if err != nil {
				return err
			}

			var search searchFunc
			switch kind := c.modelKind(cmd, model); kind {
			case "boosted":
				grid := training.DefaultBoostedGrid()
				if gridFile != "" {
					if grid, err = training.LoadBoostedGrid(gridFile); err != nil {
						return err
					}
				}
				search = func(ctx context.Context, opts training.Options) (*training.PipelineResult, error) {
					gs := training.NewGridSearch(training.BoostedFactory, grid.Candidates(), folds, opts).WithWorkers(workers)
					if progress {
						gs = gs.WithProgress(os.Stderr)
					}
					return gs.Run(ctx, table)
				}
			case "forest":
				grid := training.DefaultForestGrid()
				if gridFile != "" {
					if grid, err = training.LoadForestGrid(gridFile); err != nil {
						return err
					}
				}
				search = func(ctx context.Context, opts training.Options) (*training.PipelineResult, error) {
					gs := training.NewGridSearch(training.ForestFactory, grid.Candidates(), folds, opts).WithWorkers(workers)
					if progress {
						gs = gs.WithProgress(os.Stderr)
					}
					return gs.Run(ctx, table)
				}
			default:
				return errors.InvalidInput(fmt.Sprintf("grid search supports boosted or forest models, not %q", kind))
			}

			result, err := search(cmd.Context(), c.trainingOptions(roc))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\nCandidate\tMean CV AUC\t")
			for _, cand := range result.Candidates {
				fmt.Fprintf(w, "%s\t%.4f\t\n", cand.Params, cand.MeanAUC)
			}
			w.Flush()
			fmt.Printf("Best: %s (CV AUC %.4f), run %s\n", result.Params, result.CVScore, result.Report.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "boosted", "boosted or forest (overrides MODEL)")
	cmd.Flags().StringVar(&gridFile, "grid", "", "JSON or YAML parameter grid; a small default grid otherwise")
	cmd.Flags().IntVar(&folds, "folds", 3, "Cross-validation folds (overrides CV_FOLDS)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Candidates evaluated at once (overrides GRID_WORKERS)")
	cmd.Flags().StringVar(&roc, "roc", "", "ROC chart path; default OUTPUT_DIR/roc.png")
	cmd.Flags().BoolVar(&progress, "progress", true, "Show a progress bar")
	return cmd
}
