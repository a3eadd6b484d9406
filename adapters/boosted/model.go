// Package boosted provides gradient-boosted tree classifiers: Booster trains
// a LightGBM ensemble in process, Model loads one trained elsewhere (LightGBM
// text dumps or XGBoost binary models) for inference.
package boosted

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"convlab/domain/core"
	"convlab/internal"
	"convlab/internal/errors"

	"github.com/dmitryikh/leaves"
	"github.com/tidwall/gjson"
)

// Kind names the format a model was exported in.
type Kind string

const (
	LightGBM Kind = "lightgbm"
	XGBoost  Kind = "xgboost"
)

// predictor is the slice of leaves.Ensemble the model needs.
type predictor interface {
	PredictSingle(fvals []float64, nEstimators int) float64
	NFeatures() int
}

// Meta is the optional sidecar stored next to the model as <model>.meta.json.
type Meta struct {
	Kind         Kind
	FeatureNames []string
	Comment      string
}

// Model is an inference-only boosted ensemble loaded from disk.
type Model struct {
	path     string
	meta     Meta
	ensemble predictor
}

// MetaPath returns the sidecar location for a model file.
func MetaPath(modelPath string) string {
	return modelPath + ".meta.json"
}

// ParseMeta reads a sidecar document. Unknown keys are ignored.
func ParseMeta(doc []byte) (Meta, error) {
	if !gjson.ValidBytes(doc) {
		return Meta{}, fmt.Errorf("model metadata is not valid JSON")
	}
	res := gjson.ParseBytes(doc)
	meta := Meta{
		Kind:    Kind(strings.ToLower(res.Get("kind").String())),
		Comment: res.Get("comment").String(),
	}
	for _, name := range res.Get("feature_names").Array() {
		meta.FeatureNames = append(meta.FeatureNames, name.String())
	}
	switch meta.Kind {
	case "", LightGBM, XGBoost:
	default:
		return Meta{}, fmt.Errorf("unsupported model kind %q", meta.Kind)
	}
	return meta, nil
}

// kindFromPath guesses the format when no sidecar names it: LightGBM dumps
// are text, anything else is treated as an XGBoost binary.
func kindFromPath(path string) Kind {
	base := strings.TrimSuffix(strings.TrimSuffix(path, ".gz"), ".gzip")
	switch strings.ToLower(filepath.Ext(base)) {
	case ".txt", ".lgb", ".lgbm":
		return LightGBM
	}
	return XGBoost
}

// Load reads the model at path with its sidecar metadata if present.
func Load(path string) (*Model, error) {
	meta := Meta{}
	if doc, err := os.ReadFile(MetaPath(path)); err == nil {
		if meta, err = ParseMeta(doc); err != nil {
			return nil, errors.ModelError("boosted", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.IOError(MetaPath(path), err)
	}
	if meta.Kind == "" {
		meta.Kind = kindFromPath(path)
	}

	ensemble, err := loadEnsemble(path, meta.Kind)
	if err != nil {
		return nil, err
	}
	if len(meta.FeatureNames) > 0 && len(meta.FeatureNames) != ensemble.NFeatures() {
		return nil, errors.ModelError("boosted", fmt.Errorf(
			"metadata lists %d features, model expects %d", len(meta.FeatureNames), ensemble.NFeatures()))
	}

	internal.DefaultLogger.Info("[Boosted] loaded %s model %s (%d features, %d trees)",
		meta.Kind, filepath.Base(path), ensemble.NFeatures(), ensemble.NEstimators())
	return &Model{path: path, meta: meta, ensemble: ensemble}, nil
}

func loadEnsemble(path string, kind Kind) (*leaves.Ensemble, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".gzip") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.IOError(path, err)
		}
		defer gz.Close()
		reader = gz
	}

	var ensemble *leaves.Ensemble
	switch kind {
	case LightGBM:
		ensemble, err = leaves.LGEnsembleFromReader(bufio.NewReader(reader), true)
	default:
		ensemble, err = leaves.XGEnsembleFromReader(bufio.NewReader(reader), true)
	}
	if err != nil {
		return nil, errors.ModelError(string(kind), err)
	}
	return ensemble, nil
}

func (m *Model) Name() string {
	return fmt.Sprintf("%s(%s)", m.meta.Kind, filepath.Base(m.path))
}

// Meta returns the sidecar metadata, with Kind always set.
func (m *Model) Meta() Meta { return m.meta }

// CheckFeatures verifies the feature order the model was trained with.
// Models without feature names in their metadata accept any order.
func (m *Model) CheckFeatures(names []string) error {
	if len(m.meta.FeatureNames) == 0 {
		if len(names) != m.ensemble.NFeatures() {
			return fmt.Errorf("model expects %d features, got %d", m.ensemble.NFeatures(), len(names))
		}
		return nil
	}
	if !slices.Equal(m.meta.FeatureNames, names) {
		return fmt.Errorf("feature mismatch: model %v, data %v", m.meta.FeatureNames, names)
	}
	return nil
}

// Fit always fails: boosted models are trained outside this program.
func (m *Model) Fit(context.Context, [][]float64, []int) error {
	return fmt.Errorf("%w: %s", core.ErrInferenceOnly, m.Name())
}

// PredictProba scores every row with all trees of the ensemble.
func (m *Model) PredictProba(X [][]float64) ([]float64, error) {
	if m.ensemble == nil {
		return nil, core.ErrNotFitted
	}
	n := m.ensemble.NFeatures()
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != n {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(x), n)
		}
		out[i] = m.ensemble.PredictSingle(x, 0)
	}
	return out, nil
}
