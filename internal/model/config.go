package model

import (
	"runtime"
	"time"
)

// Config is the single configuration struct shared by every component.
// No component re-derives its own defaults; construct one here and
// pass it by reference.
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset" mapstructure:"dataset"`
	Weights     Weights           `yaml:"weights" mapstructure:"weights"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Evaluation  EvaluationConfig  `yaml:"evaluation" mapstructure:"evaluation"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DatasetConfig locates the catalog file and the prepared split files.
type DatasetConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
}

// RetrievalConfig holds the retrieve-phase defaults.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k" mapstructure:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity" mapstructure:"min_similarity"`
}

// EvaluationConfig holds the k-NN evaluation defaults.
type EvaluationConfig struct {
	K         int          `yaml:"k" mapstructure:"k"`
	Seed      int64        `yaml:"seed" mapstructure:"seed"`
	Scenarios []SplitRatio `yaml:"scenarios" mapstructure:"scenarios"`
}

// ConcurrencyConfig sizes the similarity scan worker pool.
// Catalogs below ShardThreshold are scanned inline.
type ConcurrencyConfig struct {
	ScanWorkers    int `yaml:"scan_workers" mapstructure:"scan_workers"`
	ShardThreshold int `yaml:"shard_threshold" mapstructure:"shard_threshold"`
}

// CacheConfig controls response and evaluation-result caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // disk cache for evaluation results
}

// LLMConfig configures the optional narrative summarizer.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "anthropic", "ollama", ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // environment only, never persisted
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultWeights returns the default attribute weighting in percent.
func DefaultWeights() Weights {
	return Weights{
		AttrPrice:   25.0,
		AttrRAM:     15.0,
		AttrStorage: 10.0,
		AttrScreen:  5.0,
		AttrBattery: 15.0,
		AttrRating:  15.0,
		AttrCamera:  15.0,
	}
}

// DefaultConfig returns the configuration used when no file, env var,
// or flag overrides a value.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:         "catalog.csv",
			ProcessedDir: "data/processed",
		},
		Weights: DefaultWeights(),
		Retrieval: RetrievalConfig{
			TopK:          10,
			MinSimilarity: 0.3,
		},
		Evaluation: EvaluationConfig{
			K:    5,
			Seed: 42,
			Scenarios: []SplitRatio{
				{Train: 70, Test: 30},
				{Train: 80, Test: 20},
			},
		},
		Concurrency: ConcurrencyConfig{
			ScanWorkers:    runtime.NumCPU(),
			ShardThreshold: 512,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:  "", // disabled by default
			Timeout:   30,
			MaxTokens: 800,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
