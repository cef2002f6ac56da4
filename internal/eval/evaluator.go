// Package eval measures how well the similarity measure separates the
// phone categories, using a k-NN majority vote over stratified
// train/test splits.
package eval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/preprocess"
	"github.com/dwisetya/recase/internal/similarity"
	"github.com/dwisetya/recase/internal/worker"
)

// SplitProvider yields the train/test sets for one scenario.
type SplitProvider interface {
	Split(ratio model.SplitRatio) (train, test []model.Phone, err error)
}

// FileSplits loads splits prepared on disk by the prepare step.
// A missing file surfaces as dataset.ErrDataUnavailable.
type FileSplits struct {
	Dir string
}

func (f FileSplits) Split(ratio model.SplitRatio) ([]model.Phone, []model.Phone, error) {
	return dataset.LoadScenario(f.Dir, ratio)
}

// MemorySplits splits a labeled catalog on the fly with a fixed seed.
type MemorySplits struct {
	Catalog []model.Phone
	Seed    int64
}

func (m MemorySplits) Split(ratio model.SplitRatio) ([]model.Phone, []model.Phone, error) {
	if len(m.Catalog) == 0 {
		return nil, nil, dataset.ErrDataUnavailable
	}
	train, test := dataset.StratifiedSplit(dataset.ApplyLabels(m.Catalog), ratio, m.Seed)
	return train, test, nil
}

// Evaluator runs k-NN evaluation scenarios.
type Evaluator struct {
	calc    *similarity.Calculator
	splits  SplitProvider
	k       int
	workers int
}

// NewEvaluator builds an evaluator. k must be positive.
func NewEvaluator(calc *similarity.Calculator, splits SplitProvider, k int, cfg model.ConcurrencyConfig) (*Evaluator, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	workers := cfg.ScanWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Evaluator{
		calc:    calc,
		splits:  splits,
		k:       k,
		workers: workers,
	}, nil
}

// neighbor pairs one training case with its similarity to a query.
type neighbor struct {
	label      string
	similarity float64
}

// PredictLabel votes among the k most similar training cases. Vote
// ties go to the label carrying the single most similar neighbor
// among the tied labels, so prediction stays deterministic.
func PredictLabel(calc *similarity.Calculator, trainFeatures []model.Features, trainLabels []string, query model.Features, k int) string {
	if len(trainFeatures) == 0 {
		return ""
	}
	if k > len(trainFeatures) {
		k = len(trainFeatures)
	}

	neighbors := make([]neighbor, len(trainFeatures))
	for i, f := range trainFeatures {
		neighbors[i] = neighbor{
			label:      trainLabels[i],
			similarity: calc.Similarity(query, f),
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})
	neighbors = neighbors[:k]

	votes := make(map[string]int)
	best := make(map[string]float64) // most similar neighbor per label
	for _, n := range neighbors {
		votes[n.label]++
		if n.similarity > best[n.label] {
			best[n.label] = n.similarity
		}
	}

	maxVotes := 0
	for _, v := range votes {
		if v > maxVotes {
			maxVotes = v
		}
	}

	winner := ""
	winnerSim := -1.0
	for label, v := range votes {
		if v != maxVotes {
			continue
		}
		if best[label] > winnerSim {
			winner, winnerSim = label, best[label]
		}
	}
	return winner
}

// predictJob classifies one test case.
type predictJob struct {
	index  int
	query  model.Features
	eval   *Evaluator
	trainF []model.Features
	trainL []string
}

type predictResult struct {
	index int
	label string
}

func (r *predictResult) GetError() error { return nil }

func (j *predictJob) Execute(_ context.Context) worker.Result {
	return &predictResult{
		index: j.index,
		label: PredictLabel(j.eval.calc, j.trainF, j.trainL, j.query, j.eval.k),
	}
}

// EvaluateScenario runs one train/test scenario. The normalizer is
// fitted on the training set only; test vectors may land outside
// [0,1] and are scored as-is.
func (e *Evaluator) EvaluateScenario(ctx context.Context, ratio model.SplitRatio) (*model.EvaluationResult, error) {
	train, test, err := e.splits.Split(ratio)
	if err != nil {
		return nil, err
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("scenario %s: empty split (%d train, %d test)", ratio.Name(), len(train), len(test))
	}

	normalizer := preprocess.NewNormalizer()
	normalizer.Fit(train)

	trainFeatures, err := normalizer.Transform(train)
	if err != nil {
		return nil, fmt.Errorf("transform train set: %w", err)
	}
	testFeatures, err := normalizer.Transform(test)
	if err != nil {
		return nil, fmt.Errorf("transform test set: %w", err)
	}

	trainLabels := make([]string, len(train))
	for i, p := range train {
		trainLabels[i] = p.Label
	}

	pool := worker.NewPool(e.workers)
	pool.Start()
	for i, query := range testFeatures {
		pool.Submit(&predictJob{
			index:  i,
			query:  query,
			eval:   e,
			trainF: trainFeatures,
			trainL: trainLabels,
		})
	}

	predLabels := make([]string, len(test))
	for _, res := range pool.Wait() {
		r := res.(*predictResult)
		predLabels[r.index] = r.label
	}

	trueLabels := make([]string, len(test))
	for i, p := range test {
		trueLabels[i] = p.Label
	}

	total := len(train) + len(test)
	result := &model.EvaluationResult{
		Scenario:    ratio.Name(),
		TrainSize:   len(train),
		TestSize:    len(test),
		TrainPct:    round2(float64(len(train)) / float64(total) * 100),
		TestPct:     round2(float64(len(test)) / float64(total) * 100),
		K:           e.k,
		Metrics:     BuildMetrics(trueLabels, predLabels),
		Confusion:   Confusion(trueLabels, predLabels),
		EvaluatedAt: time.Now().UTC(),
		WeightsUsed: e.calc.Weights(),
	}

	log.Info().
		Str("scenario", ratio.Name()).
		Float64("accuracy_pct", result.Metrics.AccuracyPct).
		Float64("f1_pct", result.Metrics.F1Pct).
		Msg("scenario evaluated")
	return result, nil
}

// EvaluateAll runs every scenario and aggregates the comparison. The
// best scenario is the one with the highest F1.
func (e *Evaluator) EvaluateAll(ctx context.Context, scenarios []model.SplitRatio) (*model.EvaluationComparison, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no evaluation scenarios configured")
	}

	comparison := &model.EvaluationComparison{
		RunID: uuid.NewString(),
		Summary: model.ComparisonSummary{
			PerScenario: make(map[string]model.Metrics),
		},
	}

	var accSum, f1Sum, bestF1 float64
	for _, ratio := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := e.EvaluateScenario(ctx, ratio)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", ratio.Name(), err)
		}
		comparison.Scenarios = append(comparison.Scenarios, *result)
		comparison.Summary.PerScenario[result.Scenario] = result.Metrics

		accSum += result.Metrics.AccuracyPct
		f1Sum += result.Metrics.F1Pct
		if comparison.BestScenario == "" || result.Metrics.F1 > bestF1 {
			comparison.BestScenario = result.Scenario
			bestF1 = result.Metrics.F1
		}
	}

	n := float64(len(comparison.Scenarios))
	comparison.Summary.TotalScenarios = len(comparison.Scenarios)
	comparison.Summary.AvgAccuracyPct = round2(accSum / n)
	comparison.Summary.AvgF1Pct = round2(f1Sum / n)
	return comparison, nil
}
