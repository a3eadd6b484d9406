package ports

import "context"

// Classifier is a binary classifier over encoded feature rows.
type Classifier interface {
	// Fit trains on X with labels y in {0, 1}.
	Fit(ctx context.Context, X [][]float64, y []int) error

	// PredictProba returns the positive-class probability of every row.
	PredictProba(X [][]float64) ([]float64, error)

	// Name identifies the model and its parameters in logs and reports.
	Name() string
}
