package config

import (
	"os"
	"runtime"
	"strconv"

	"convlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Training TrainingConfig
	Output   OutputConfig
}

// DataConfig holds the input dataset locations
type DataConfig struct {
	ConversionsFile    string
	NonConversionsFile string
}

// TrainingConfig holds partition, cross-validation and model settings
type TrainingConfig struct {
	TestFraction float64
	Seed         int64
	CVFolds      int
	GridWorkers  int
	Model        string // boosted, forest or pretrained

	// LightGBM
	NumLeaves     int
	LearningRate  float64
	NumEstimators int

	// Random forest
	NumTrees int
	MaxDepth int
	LeafSize int

	ModelFile string
}

// OutputConfig holds chart and export settings
type OutputConfig struct {
	Dir         string
	ChartWidth  int // points
	ChartHeight int // points
}

// Load reads configuration from environment variables and validates it.
// Data files may be empty here; commands that need them check separately.
func Load() (*Config, error) {
	config := &Config{
		Data:     *loadDataConfig(),
		Training: *loadTrainingConfig(),
		Output:   *loadOutputConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Data: DataConfig{},
		Training: TrainingConfig{
			TestFraction: 0.3,
			Seed:         42,
			CVFolds:      3,
			GridWorkers:   runtime.NumCPU(),
			Model:         "boosted",
			NumLeaves:     31,
			LearningRate:  0.1,
			NumEstimators: 100,
			NumTrees:      100,
			MaxDepth:      10,
			LeafSize:      0,
		},
		Output: OutputConfig{
			Dir:         ".",
			ChartWidth:  576,
			ChartHeight: 360,
		},
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		ConversionsFile:    getEnvOrDefault("CONVERSIONS_FILE", ""),
		NonConversionsFile: getEnvOrDefault("NON_CONVERSIONS_FILE", ""),
	}
}

func loadTrainingConfig() *TrainingConfig {
	def := Default().Training
	return &TrainingConfig{
		TestFraction: getEnvFloatOrDefault("TEST_FRACTION", def.TestFraction),
		Seed:         getEnvInt64OrDefault("SEED", def.Seed),
		CVFolds:      getEnvIntOrDefault("CV_FOLDS", def.CVFolds),
		GridWorkers:   getEnvIntOrDefault("GRID_WORKERS", def.GridWorkers),
		Model:         getEnvOrDefault("MODEL", def.Model),
		NumLeaves:     getEnvIntOrDefault("NUM_LEAVES", def.NumLeaves),
		LearningRate:  getEnvFloatOrDefault("LEARNING_RATE", def.LearningRate),
		NumEstimators: getEnvIntOrDefault("NUM_ESTIMATORS", def.NumEstimators),
		NumTrees:      getEnvIntOrDefault("NUM_TREES", def.NumTrees),
		MaxDepth:      getEnvIntOrDefault("MAX_DEPTH", def.MaxDepth),
		LeafSize:      getEnvIntOrDefault("LEAF_SIZE", def.LeafSize),
		ModelFile:     getEnvOrDefault("MODEL_FILE", ""),
	}
}

func loadOutputConfig() *OutputConfig {
	def := Default().Output
	return &OutputConfig{
		Dir:         getEnvOrDefault("OUTPUT_DIR", def.Dir),
		ChartWidth:  getEnvIntOrDefault("CHART_WIDTH", def.ChartWidth),
		ChartHeight: getEnvIntOrDefault("CHART_HEIGHT", def.ChartHeight),
	}
}

func validateConfig(config *Config) error {
	t := config.Training
	if t.TestFraction <= 0 || t.TestFraction >= 1 {
		return errors.ConfigInvalid("TEST_FRACTION must be in (0, 1)")
	}
	if t.CVFolds < 2 {
		return errors.ConfigInvalid("CV_FOLDS must be at least 2")
	}
	if t.GridWorkers < 1 {
		return errors.ConfigInvalid("GRID_WORKERS must be positive")
	}
	switch t.Model {
	case "boosted", "forest", "pretrained":
	default:
		return errors.ConfigInvalid("MODEL must be boosted, forest or pretrained")
	}
	if t.NumLeaves < 2 {
		return errors.ConfigInvalid("NUM_LEAVES must be at least 2")
	}
	if t.LearningRate <= 0 {
		return errors.ConfigInvalid("LEARNING_RATE must be positive")
	}
	if t.NumEstimators < 1 {
		return errors.ConfigInvalid("NUM_ESTIMATORS must be positive")
	}
	if t.NumTrees < 1 {
		return errors.ConfigInvalid("NUM_TREES must be positive")
	}
	if t.MaxDepth < 0 || t.LeafSize < 0 {
		return errors.ConfigInvalid("MAX_DEPTH and LEAF_SIZE cannot be negative")
	}
	if config.Output.ChartWidth <= 0 || config.Output.ChartHeight <= 0 {
		return errors.ConfigInvalid("chart dimensions must be positive")
	}
	return nil
}

// RequireDataFiles checks that both input files are configured.
func (c *Config) RequireDataFiles() error {
	if c.Data.ConversionsFile == "" {
		return errors.ConfigInvalid("CONVERSIONS_FILE is required")
	}
	if c.Data.NonConversionsFile == "" {
		return errors.ConfigInvalid("NON_CONVERSIONS_FILE is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
