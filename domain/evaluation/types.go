// Package evaluation holds the result types of binary classifier evaluation.
package evaluation

import (
	"fmt"
	"strings"

	"convlab/domain/core"
)

// ConfusionMatrix counts binary outcomes.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Total returns the number of classified rows
func (c ConfusionMatrix) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// ROCCurve is the receiver-operating-characteristic curve.
// FPR is non-decreasing; Thresholds are strictly decreasing and start at +Inf.
type ROCCurve struct {
	FPR        []float64 `json:"fpr"`
	TPR        []float64 `json:"tpr"`
	Thresholds []float64 `json:"thresholds"`
}

// Len returns the number of curve points
func (c ROCCurve) Len() int {
	return len(c.FPR)
}

// Report is produced once per evaluation call and never persisted.
type Report struct {
	RunID       core.RunID      `json:"run_id"`
	RMSE        float64         `json:"rmse"`
	Accuracy    float64         `json:"accuracy"`
	Precision   float64         `json:"precision"`
	Recall      float64         `json:"recall"`
	F1          float64         `json:"f1"`
	ROCAUC      float64         `json:"roc_auc"`
	Confusion   ConfusionMatrix `json:"confusion"`
	Curve       ROCCurve        `json:"curve"`
	Predictions []int           `json:"predictions"` // binarized scores
}

// Format renders the six metrics with 4 decimal places.
func (r *Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RMSE: %.4f\n", r.RMSE)
	fmt.Fprintf(&b, "Accuracy: %.4f\n", r.Accuracy)
	fmt.Fprintf(&b, "Precision: %.4f\n", r.Precision)
	fmt.Fprintf(&b, "Recall: %.4f\n", r.Recall)
	fmt.Fprintf(&b, "F1 Score: %.4f\n", r.F1)
	fmt.Fprintf(&b, "ROC-AUC: %.4f\n", r.ROCAUC)
	return b.String()
}
