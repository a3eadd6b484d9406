package training

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"convlab/adapters/boosted"
	"convlab/adapters/forest"
	"convlab/internal/errors"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// BoostedGrid lists the LightGBM values tried by grid search. An empty
// dimension contributes a single zero value, which keeps the default.
type BoostedGrid struct {
	NumLeaves     []int     `json:"num_leaves" yaml:"num_leaves"`
	LearningRate  []float64 `json:"learning_rate" yaml:"learning_rate"`
	NumEstimators []int     `json:"n_estimators" yaml:"n_estimators"`
}

// ForestGrid lists the random forest values tried by grid search, with the
// same empty-dimension rule as BoostedGrid.
type ForestGrid struct {
	NumTrees    []int `json:"num_trees" yaml:"num_trees"`
	MaxDepth    []int `json:"max_depth" yaml:"max_depth"`
	LeafSize    []int `json:"leaf_size" yaml:"leaf_size"`
	MaxFeatures []int `json:"max_features" yaml:"max_features"`
}

// DefaultBoostedGrid is searched when no grid file is given.
func DefaultBoostedGrid() BoostedGrid {
	return BoostedGrid{
		NumLeaves:     []int{15, 31},
		LearningRate:  []float64{0.05, 0.1},
		NumEstimators: []int{50, 100},
	}
}

// DefaultForestGrid is searched when no grid file is given.
func DefaultForestGrid() ForestGrid {
	return ForestGrid{
		NumTrees: []int{50, 100},
		MaxDepth: []int{5, 10},
		LeafSize: []int{1, 5},
	}
}

var (
	boostedKeys = []string{"num_leaves", "learning_rate", "n_estimators"}
	forestKeys  = []string{"num_trees", "max_depth", "leaf_size", "max_features"}
)

// ParseBoostedGrid reads a boosted grid from a JSON or YAML mapping of
// parameter names to arrays.
func ParseBoostedGrid(doc []byte, format string) (BoostedGrid, error) {
	values, err := decodeGrid(doc, format, boostedKeys)
	if err != nil {
		return BoostedGrid{}, err
	}
	var grid BoostedGrid
	if grid.NumLeaves, err = intValues(values, "num_leaves"); err != nil {
		return BoostedGrid{}, err
	}
	if grid.NumEstimators, err = intValues(values, "n_estimators"); err != nil {
		return BoostedGrid{}, err
	}
	grid.LearningRate = values["learning_rate"]
	return grid, nil
}

// ParseForestGrid reads a random forest grid from a JSON or YAML mapping of
// parameter names to integer arrays.
func ParseForestGrid(doc []byte, format string) (ForestGrid, error) {
	values, err := decodeGrid(doc, format, forestKeys)
	if err != nil {
		return ForestGrid{}, err
	}
	var grid ForestGrid
	targets := []*[]int{&grid.NumTrees, &grid.MaxDepth, &grid.LeafSize, &grid.MaxFeatures}
	for i, key := range forestKeys {
		if *targets[i], err = intValues(values, key); err != nil {
			return ForestGrid{}, err
		}
	}
	return grid, nil
}

// LoadBoostedGrid reads a grid file, YAML for .yaml/.yml and JSON otherwise.
func LoadBoostedGrid(path string) (BoostedGrid, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return BoostedGrid{}, errors.IOError(path, err)
	}
	return ParseBoostedGrid(doc, gridFormat(path))
}

// LoadForestGrid reads a grid file, YAML for .yaml/.yml and JSON otherwise.
func LoadForestGrid(path string) (ForestGrid, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return ForestGrid{}, errors.IOError(path, err)
	}
	return ParseForestGrid(doc, gridFormat(path))
}

func gridFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// decodeGrid parses doc into parameter arrays, rejecting keys outside known
// and values that are not non-negative numbers.
func decodeGrid(doc []byte, format string, known []string) (map[string][]float64, error) {
	var (
		values map[string][]float64
		err    error
	)
	if format == "yaml" {
		values, err = decodeYAMLGrid(doc)
	} else {
		values, err = decodeJSONGrid(doc)
	}
	if err != nil {
		return nil, err
	}

	for key, vs := range values {
		if !slices.Contains(known, key) {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown grid parameter %q", key))
		}
		for _, v := range vs {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.InvalidInput(fmt.Sprintf("%s: %g is not a non-negative number", key, v))
			}
		}
	}
	return values, nil
}

func decodeJSONGrid(doc []byte) (map[string][]float64, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errors.InvalidInput("parameter grid is not valid JSON")
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, errors.InvalidInput("parameter grid must be a JSON object")
	}

	values := make(map[string][]float64)
	var bad error
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			bad = errors.InvalidInput(fmt.Sprintf("%s must be an array", key.String()))
			return false
		}
		arr := make([]float64, 0, len(value.Array()))
		for _, v := range value.Array() {
			if v.Type != gjson.Number {
				bad = errors.InvalidInput(fmt.Sprintf("%s: %s is not a number", key.String(), v.Raw))
				return false
			}
			arr = append(arr, v.Float())
		}
		values[key.String()] = arr
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return values, nil
}

func decodeYAMLGrid(doc []byte) (map[string][]float64, error) {
	values := make(map[string][]float64)
	if err := yaml.Unmarshal(doc, &values); err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid YAML parameter grid: %v", err))
	}
	return values, nil
}

func intValues(values map[string][]float64, key string) ([]int, error) {
	vs, ok := values[key]
	if !ok {
		return nil, nil
	}
	out := make([]int, len(vs))
	for i, v := range vs {
		if v != math.Trunc(v) {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: %g is not an integer", key, v))
		}
		out[i] = int(v)
	}
	return out, nil
}

func orZero[T int | float64](v []T) []T {
	if len(v) == 0 {
		return []T{0}
	}
	return v
}

// Candidates expands the grid into its Cartesian product. The last
// dimension varies fastest, so the order is stable for tie-breaking.
func (g BoostedGrid) Candidates() []boosted.Params {
	leaves, rates, estimators := orZero(g.NumLeaves), orZero(g.LearningRate), orZero(g.NumEstimators)

	out := make([]boosted.Params, 0, len(leaves)*len(rates)*len(estimators))
	for _, l := range leaves {
		for _, r := range rates {
			for _, e := range estimators {
				out = append(out, boosted.Params{NumLeaves: l, LearningRate: r, NumEstimators: e})
			}
		}
	}
	return out
}

// Candidates expands the grid into its Cartesian product, last dimension
// fastest.
func (g ForestGrid) Candidates() []forest.Params {
	trees, depths, leaves, feats := orZero(g.NumTrees), orZero(g.MaxDepth), orZero(g.LeafSize), orZero(g.MaxFeatures)

	out := make([]forest.Params, 0, len(trees)*len(depths)*len(leaves)*len(feats))
	for _, t := range trees {
		for _, d := range depths {
			for _, l := range leaves {
				for _, f := range feats {
					out = append(out, forest.Params{NumTrees: t, MaxDepth: d, LeafSize: l, MaxFeatures: f})
				}
			}
		}
	}
	return out
}
