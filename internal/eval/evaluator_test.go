package eval

import (
	"context"
	"math"
	"testing"

	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/similarity"
)

func defaultCalc(t *testing.T) *similarity.Calculator {
	t.Helper()
	calc, err := similarity.NewCalculator(model.DefaultWeights())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return calc
}

// Three well-separated clusters, enough cases per label that every
// stratified split keeps all labels on both sides.
func clusteredCatalog(perLabel int) []model.Phone {
	var catalog []model.Phone
	id := 1
	add := func(label string, base model.Phone) {
		for i := 0; i < perLabel; i++ {
			p := base
			p.ID = id
			p.Name = label
			p.Label = label
			p.Price += float64(i * 10_000)
			p.Rating += float64(i%5) * 0.01
			catalog = append(catalog, p)
			id++
		}
	}
	add(model.LabelHighPerformance, model.Phone{
		Brand: "Asus", OS: "Android", Price: 12_000_000, RAM: 16, Storage: 512,
		ScreenSize: 6.8, Battery: 5500, Rating: 4.6, CameraLabel: "50MP", InStock: true,
	})
	add(model.LabelCameraFocused, model.Phone{
		Brand: "Xiaomi", OS: "Android", Price: 6_000_000, RAM: 8, Storage: 256,
		ScreenSize: 6.5, Battery: 4500, Rating: 4.4, CameraLabel: "108MP", InStock: true,
	})
	add(model.LabelEverydayUse, model.Phone{
		Brand: "Realme", OS: "Android", Price: 2_000_000, RAM: 4, Storage: 64,
		ScreenSize: 6.4, Battery: 4000, Rating: 4.0, CameraLabel: "13MP", InStock: true,
	})
	return catalog
}

func TestNewEvaluatorRejectsBadK(t *testing.T) {
	calc := defaultCalc(t)
	if _, err := NewEvaluator(calc, MemorySplits{}, 0, model.ConcurrencyConfig{}); err == nil {
		t.Error("k=0 accepted")
	}
	if _, err := NewEvaluator(calc, MemorySplits{}, -3, model.ConcurrencyConfig{}); err == nil {
		t.Error("negative k accepted")
	}
}

func TestPredictLabelExactDuplicate(t *testing.T) {
	calc := defaultCalc(t)

	trainF := []model.Features{
		{model.AttrPrice: 0.9, model.AttrRAM: 0.9},
		{model.AttrPrice: 0.1, model.AttrRAM: 0.1},
	}
	trainL := []string{model.LabelHighPerformance, model.LabelEverydayUse}

	// k=1 on an exact duplicate of a training vector.
	got := PredictLabel(calc, trainF, trainL, trainF[0], 1)
	if got != model.LabelHighPerformance {
		t.Errorf("PredictLabel = %q, want %q", got, model.LabelHighPerformance)
	}
}

func TestPredictLabelTieBreak(t *testing.T) {
	calc, err := similarity.NewCalculator(model.Weights{model.AttrPrice: 100})
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}

	// k=2: one vote each. The closer neighbor's label must win.
	trainF := []model.Features{
		{model.AttrPrice: 0.50}, // distance 0
		{model.AttrPrice: 0.60}, // distance 0.1
	}
	trainL := []string{model.LabelCameraFocused, model.LabelEverydayUse}
	query := model.Features{model.AttrPrice: 0.50}

	if got := PredictLabel(calc, trainF, trainL, query, 2); got != model.LabelCameraFocused {
		t.Errorf("tie broke to %q, want %q (most similar neighbor)", got, model.LabelCameraFocused)
	}
}

func TestPredictLabelKLargerThanTrainSet(t *testing.T) {
	calc := defaultCalc(t)
	trainF := []model.Features{{model.AttrPrice: 0.5}}
	trainL := []string{model.LabelEverydayUse}

	if got := PredictLabel(calc, trainF, trainL, model.Features{model.AttrPrice: 0.4}, 10); got != model.LabelEverydayUse {
		t.Errorf("PredictLabel = %q, want %q", got, model.LabelEverydayUse)
	}
}

func TestEvaluateScenarioSeparableData(t *testing.T) {
	calc := defaultCalc(t)
	splits := MemorySplits{Catalog: clusteredCatalog(20), Seed: 42}

	e, err := NewEvaluator(calc, splits, 5, model.ConcurrencyConfig{ScanWorkers: 4, ShardThreshold: 512})
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	result, err := e.EvaluateScenario(context.Background(), model.SplitRatio{Train: 70, Test: 30})
	if err != nil {
		t.Fatalf("EvaluateScenario: %v", err)
	}

	if result.Scenario != "70-30" {
		t.Errorf("Scenario = %q, want 70-30", result.Scenario)
	}
	if result.TrainSize+result.TestSize != 60 {
		t.Errorf("split sizes %d+%d, want 60 total", result.TrainSize, result.TestSize)
	}
	// Clusters are far apart; k-NN should classify them perfectly.
	if result.Metrics.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0 on separable clusters", result.Metrics.Accuracy)
	}
	if result.Metrics.F1 != 1.0 {
		t.Errorf("F1 = %v, want 1.0", result.Metrics.F1)
	}
	if result.Confusion.Misclassified != 0 {
		t.Errorf("Misclassified = %d, want 0", result.Confusion.Misclassified)
	}
	if result.K != 5 {
		t.Errorf("K = %d, want 5", result.K)
	}
}

func TestEvaluateScenarioDeterministic(t *testing.T) {
	calc := defaultCalc(t)
	splits := MemorySplits{Catalog: clusteredCatalog(15), Seed: 42}
	e, err := NewEvaluator(calc, splits, 3, model.ConcurrencyConfig{ScanWorkers: 4, ShardThreshold: 1})
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	ratio := model.SplitRatio{Train: 80, Test: 20}
	r1, err := e.EvaluateScenario(context.Background(), ratio)
	if err != nil {
		t.Fatalf("EvaluateScenario: %v", err)
	}
	r2, err := e.EvaluateScenario(context.Background(), ratio)
	if err != nil {
		t.Fatalf("EvaluateScenario: %v", err)
	}

	if r1.Metrics != r2.Metrics {
		t.Errorf("repeat run metrics differ: %+v vs %+v", r1.Metrics, r2.Metrics)
	}
	if r1.TrainSize != r2.TrainSize || r1.TestSize != r2.TestSize {
		t.Error("repeat run split sizes differ")
	}
}

func TestEvaluateAll(t *testing.T) {
	calc := defaultCalc(t)
	splits := MemorySplits{Catalog: clusteredCatalog(20), Seed: 42}
	e, err := NewEvaluator(calc, splits, 5, model.ConcurrencyConfig{ScanWorkers: 2, ShardThreshold: 512})
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	scenarios := []model.SplitRatio{{Train: 70, Test: 30}, {Train: 80, Test: 20}}
	comparison, err := e.EvaluateAll(context.Background(), scenarios)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}

	if comparison.RunID == "" {
		t.Error("missing run ID")
	}
	if len(comparison.Scenarios) != 2 {
		t.Fatalf("got %d scenario results, want 2", len(comparison.Scenarios))
	}
	if comparison.Summary.TotalScenarios != 2 {
		t.Errorf("TotalScenarios = %d, want 2", comparison.Summary.TotalScenarios)
	}
	if comparison.BestScenario != "70-30" && comparison.BestScenario != "80-20" {
		t.Errorf("BestScenario = %q, want one of the run scenarios", comparison.BestScenario)
	}
	if _, ok := comparison.Summary.PerScenario["70-30"]; !ok {
		t.Error("missing 70-30 in per-scenario metrics")
	}
	if comparison.Summary.AvgAccuracyPct <= 0 {
		t.Errorf("AvgAccuracyPct = %v, want positive", comparison.Summary.AvgAccuracyPct)
	}
}

func TestEvaluateAllEmptyScenarios(t *testing.T) {
	calc := defaultCalc(t)
	e, err := NewEvaluator(calc, MemorySplits{Catalog: clusteredCatalog(5), Seed: 42}, 3, model.ConcurrencyConfig{ScanWorkers: 1})
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	if _, err := e.EvaluateAll(context.Background(), nil); err == nil {
		t.Error("empty scenario list accepted")
	}
}

func TestAccuracy(t *testing.T) {
	trueL := []string{"a", "b", "a", "b"}
	predL := []string{"a", "b", "b", "b"}
	if got := Accuracy(trueL, predL); got != 0.75 {
		t.Errorf("Accuracy = %v, want 0.75", got)
	}
	if got := Accuracy(nil, nil); got != 0 {
		t.Errorf("Accuracy on empty = %v, want 0", got)
	}
}

func TestWeightedScoresExact(t *testing.T) {
	hp, cf, eu := model.LabelHighPerformance, model.LabelCameraFocused, model.LabelEverydayUse

	// 4 cases: hp predicted perfectly (2), cf predicted as eu (1 miss),
	// eu predicted correctly (1).
	trueL := []string{hp, hp, cf, eu}
	predL := []string{hp, hp, eu, eu}

	p, r, f := WeightedScores(trueL, predL)

	// hp: p=1, r=1, f=1, support 2.
	// cf: p=0 (no predictions), r=0, f=0, support 1.
	// eu: p=0.5 (1 of 2 eu predictions correct), r=1, f=2/3, support 1.
	wantP := (1.0*2 + 0 + 0.5) / 4
	wantR := (1.0*2 + 0 + 1.0) / 4
	wantF := (1.0*2 + 0 + 2.0/3.0) / 4

	if math.Abs(p-wantP) > 1e-9 {
		t.Errorf("precision = %v, want %v", p, wantP)
	}
	if math.Abs(r-wantR) > 1e-9 {
		t.Errorf("recall = %v, want %v", r, wantR)
	}
	if math.Abs(f-wantF) > 1e-9 {
		t.Errorf("f1 = %v, want %v", f, wantF)
	}
}

func TestConfusionMatrix(t *testing.T) {
	hp, cf, eu := model.LabelHighPerformance, model.LabelCameraFocused, model.LabelEverydayUse
	trueL := []string{hp, cf, eu, hp}
	predL := []string{hp, eu, eu, cf}

	cm := Confusion(trueL, predL)
	if cm.Correct != 2 || cm.Misclassified != 2 {
		t.Errorf("correct/misclassified = %d/%d, want 2/2", cm.Correct, cm.Misclassified)
	}
	// Labels order: hp, cf, eu.
	if cm.Matrix[0][0] != 1 {
		t.Errorf("hp->hp = %d, want 1", cm.Matrix[0][0])
	}
	if cm.Matrix[0][1] != 1 {
		t.Errorf("hp->cf = %d, want 1", cm.Matrix[0][1])
	}
	if cm.Matrix[1][2] != 1 {
		t.Errorf("cf->eu = %d, want 1", cm.Matrix[1][2])
	}
	if cm.Matrix[2][2] != 1 {
		t.Errorf("eu->eu = %d, want 1", cm.Matrix[2][2])
	}
}
