package ports

import (
	"convlab/domain/evaluation"
	"convlab/domain/stats"
)

// ChartRenderer draws exploratory and evaluation charts to files.
// The output format follows the path extension (.png, .svg, .pdf).
type ChartRenderer interface {
	// BarChart renders one bar per category, labels on the x axis.
	BarChart(series stats.CategoryMeanSeries, path string) error

	// ROCChart renders the FPR/TPR line titled "ROC Curve".
	ROCChart(curve evaluation.ROCCurve, auc float64, path string) error
}
