// Package evaluator scores binary classifier predictions against ground truth.
package evaluator

import (
	"fmt"
	"io"
	"math"

	"convlab/domain/core"
	"convlab/domain/evaluation"
	"convlab/internal"
	"convlab/ports"

	"gonum.org/v1/gonum/floats"
)

// Binarize rounds each score half-to-even (threshold 0.5) into a new slice.
// scores is not modified. Scores outside [0, 1] may round to values other
// than 0 and 1.
func Binarize(scores []float64) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		out[i] = int(math.RoundToEven(s))
	}
	return out
}

// Evaluate computes the ROC curve and ROC-AUC from the continuous scores, then
// RMSE, accuracy, precision, recall and F1 from the binarized predictions.
// The caller's scores are left untouched.
func Evaluate(labels []int, scores []float64) (*evaluation.Report, error) {
	if err := validate(labels, scores); err != nil {
		return nil, err
	}

	curve := rocCurve(labels, scores)
	preds := Binarize(scores)
	cm := confusion(labels, preds)

	report := &evaluation.Report{
		RunID:       core.NewRunID(),
		RMSE:        rmse(labels, preds),
		Accuracy:    float64(cm.TP+cm.TN) / float64(len(labels)),
		Confusion:   cm,
		Curve:       curve,
		ROCAUC:      rocAUC(curve),
		Predictions: preds,
	}
	report.Precision = ratio(cm.TP, cm.TP+cm.FP)
	report.Recall = ratio(cm.TP, cm.TP+cm.FN)
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	return report, nil
}

func validate(labels []int, scores []float64) error {
	if len(labels) != len(scores) {
		return core.NewLengthMismatchError(len(labels), len(scores))
	}
	if len(labels) == 0 {
		return fmt.Errorf("%w: no labels", core.ErrDegenerateLabels)
	}
	var seen [2]bool
	for i, l := range labels {
		if l != 0 && l != 1 {
			return core.NewInvalidLabelError(i, l)
		}
		seen[l] = true
	}
	for i, s := range scores {
		if math.IsNaN(s) {
			return core.NewInvalidScoreError(i)
		}
	}
	if !seen[0] || !seen[1] {
		return core.NewDegenerateLabelError(labels[0])
	}
	return nil
}

// confusion counts outcomes. A prediction outside {0, 1} counts as wrong:
// a false negative for a positive row, a false positive for a negative row.
func confusion(labels, preds []int) evaluation.ConfusionMatrix {
	var cm evaluation.ConfusionMatrix
	for i, y := range labels {
		p := preds[i]
		switch {
		case y == 1 && p == 1:
			cm.TP++
		case y == 0 && p == 0:
			cm.TN++
		case y == 1:
			cm.FN++
		default:
			cm.FP++
		}
	}
	return cm
}

func rmse(labels, preds []int) float64 {
	y := make([]float64, len(labels))
	p := make([]float64, len(preds))
	for i := range labels {
		y[i] = float64(labels[i])
		p[i] = float64(preds[i])
	}
	return floats.Distance(y, p, 2) / math.Sqrt(float64(len(y)))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Evaluator runs Evaluate, prints the report and renders the ROC curve.
type Evaluator struct {
	out      io.Writer
	renderer ports.ChartRenderer
}

// NewEvaluator creates an evaluator. renderer may be nil to skip charts.
func NewEvaluator(out io.Writer, renderer ports.ChartRenderer) *Evaluator {
	return &Evaluator{out: out, renderer: renderer}
}

// Run evaluates scores and emits the text report. When rocPath is set the
// ROC curve is rendered there.
func (e *Evaluator) Run(labels []int, scores []float64, rocPath string) (*evaluation.Report, error) {
	report, err := Evaluate(labels, scores)
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.Debug("[Evaluator] run %s: %d rows, confusion %+v", report.RunID, len(labels), report.Confusion)

	if _, err := io.WriteString(e.out, report.Format()); err != nil {
		return report, fmt.Errorf("failed to write report: %w", err)
	}
	if e.renderer != nil && rocPath != "" {
		if err := e.renderer.ROCChart(report.Curve, report.ROCAUC, rocPath); err != nil {
			return report, fmt.Errorf("failed to render ROC curve: %w", err)
		}
	}
	return report, nil
}
