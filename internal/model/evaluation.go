package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical evaluation labels. The confusion matrix and the weighted
// metric averages are always computed over this fixed set, in this
// order.
const (
	LabelHighPerformance = "high-performance"
	LabelCameraFocused   = "camera-focused"
	LabelEverydayUse     = "everyday-use"
)

// Labels returns the canonical label set in its fixed order.
func Labels() []string {
	return []string{LabelHighPerformance, LabelCameraFocused, LabelEverydayUse}
}

// SplitRatio names one train/test scenario, e.g. {70, 30}.
type SplitRatio struct {
	Train int `json:"train" yaml:"train"`
	Test  int `json:"test" yaml:"test"`
}

// Name returns the scenario identifier, e.g. "70-30".
func (r SplitRatio) Name() string {
	return fmt.Sprintf("%d-%d", r.Train, r.Test)
}

// TrainFraction returns the training share as a fraction in (0,1).
func (r SplitRatio) TrainFraction() float64 {
	return float64(r.Train) / 100.0
}

// ParseSplitRatio parses a scenario name such as "70-30".
func ParseSplitRatio(s string) (SplitRatio, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return SplitRatio{}, fmt.Errorf("invalid scenario %q (want e.g. \"70-30\")", s)
	}
	train, err := strconv.Atoi(parts[0])
	if err != nil {
		return SplitRatio{}, fmt.Errorf("invalid scenario %q: %w", s, err)
	}
	test, err := strconv.Atoi(parts[1])
	if err != nil {
		return SplitRatio{}, fmt.Errorf("invalid scenario %q: %w", s, err)
	}
	if train <= 0 || test <= 0 || train+test != 100 {
		return SplitRatio{}, fmt.Errorf("invalid scenario %q: shares must be positive and total 100", s)
	}
	return SplitRatio{Train: train, Test: test}, nil
}

// Metrics is one scenario's classification metric bundle. Fractions
// are rounded to 4 decimals, percentages to 2.
type Metrics struct {
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1_score"`
	AccuracyPct  float64 `json:"accuracy_pct"`
	PrecisionPct float64 `json:"precision_pct"`
	RecallPct    float64 `json:"recall_pct"`
	F1Pct        float64 `json:"f1_score_pct"`
}

// ConfusionMatrix holds raw prediction counts over the canonical label
// set. Matrix[i][j] counts test cases whose true label is Labels[i]
// and predicted label is Labels[j].
type ConfusionMatrix struct {
	Matrix        [][]int  `json:"matrix"`
	Labels        []string `json:"labels"`
	Correct       int      `json:"correct"`       // diagonal sum
	Misclassified int      `json:"misclassified"` // everything off-diagonal
}

// EvaluationResult is one scenario's complete outcome. Immutable once
// produced.
type EvaluationResult struct {
	Scenario    string          `json:"scenario"`
	TrainSize   int             `json:"train_size"`
	TestSize    int             `json:"test_size"`
	TrainPct    float64         `json:"train_percentage"`
	TestPct     float64         `json:"test_percentage"`
	K           int             `json:"k"`
	Metrics     Metrics         `json:"metrics"`
	Confusion   ConfusionMatrix `json:"confusion_matrix"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
	WeightsUsed Weights         `json:"weights_used"`
}

// ComparisonSummary aggregates metrics across scenarios of one run.
type ComparisonSummary struct {
	TotalScenarios int                `json:"total_scenarios"`
	PerScenario    map[string]Metrics `json:"metrics_comparison"`
	AvgAccuracyPct float64            `json:"average_accuracy_pct"`
	AvgF1Pct       float64            `json:"average_f1_pct"`
}

// EvaluationComparison is the outcome of one evaluation run across
// multiple scenarios.
type EvaluationComparison struct {
	RunID        string             `json:"run_id"`
	Scenarios    []EvaluationResult `json:"scenarios"`
	BestScenario string             `json:"best_scenario"` // highest F1
	Summary      ComparisonSummary  `json:"comparison_summary"`
}
