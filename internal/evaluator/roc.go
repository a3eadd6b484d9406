package evaluator

import (
	"math"
	"sort"

	"convlab/domain/evaluation"

	"gonum.org/v1/gonum/integrate"
)

// rocCurve computes the ROC curve over every distinct score, highest
// threshold first. Points that lie on a straight line between their
// neighbours are dropped; the first point is (0, 0) at threshold +Inf.
// labels must contain both classes.
func rocCurve(labels []int, scores []float64) evaluation.ROCCurve {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// cumulative counts at each distinct threshold
	var tps, fps, thresholds []float64
	var tp, fp float64
	for k, idx := range order {
		if labels[idx] == 1 {
			tp++
		} else {
			fp++
		}
		if k+1 < len(order) && scores[order[k+1]] == scores[idx] {
			continue
		}
		tps = append(tps, tp)
		fps = append(fps, fp)
		thresholds = append(thresholds, scores[idx])
	}

	keep := make([]int, 0, len(tps))
	for i := range tps {
		if i == 0 || i == len(tps)-1 {
			keep = append(keep, i)
			continue
		}
		if fps[i+1]-2*fps[i]+fps[i-1] != 0 || tps[i+1]-2*tps[i]+tps[i-1] != 0 {
			keep = append(keep, i)
		}
	}

	totalPos, totalNeg := tp, fp
	curve := evaluation.ROCCurve{
		FPR:        make([]float64, 0, len(keep)+1),
		TPR:        make([]float64, 0, len(keep)+1),
		Thresholds: make([]float64, 0, len(keep)+1),
	}
	curve.FPR = append(curve.FPR, 0)
	curve.TPR = append(curve.TPR, 0)
	curve.Thresholds = append(curve.Thresholds, math.Inf(1))
	for _, i := range keep {
		curve.FPR = append(curve.FPR, fps[i]/totalNeg)
		curve.TPR = append(curve.TPR, tps[i]/totalPos)
		curve.Thresholds = append(curve.Thresholds, thresholds[i])
	}
	return curve
}

// rocAUC integrates TPR over FPR with the trapezoidal rule.
func rocAUC(curve evaluation.ROCCurve) float64 {
	return integrate.Trapezoidal(curve.FPR, curve.TPR)
}
