package cli

import (
	"testing"

	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/eval"
	"github.com/dwisetya/recase/internal/model"
)

func scenarioCatalog(prefix string, priceBase float64) []model.Phone {
	var catalog []model.Phone
	for i := 0; i < 6; i++ {
		catalog = append(catalog, model.Phone{
			ID:          i + 1,
			Name:        prefix + " " + string(rune('A'+i)),
			Brand:       "TestBrand",
			OS:          "Android",
			Price:       priceBase + float64(i)*100_000,
			RAM:         4 + float64(i),
			Storage:     128,
			ScreenSize:  6.1,
			Battery:     4500,
			Rating:      4.0,
			CameraLabel: "48MP",
			InStock:     true,
			Label:       model.LabelEverydayUse,
		})
	}
	return catalog
}

func writeSplits(t *testing.T, dir string, ratio model.SplitRatio, catalog []model.Phone) {
	t.Helper()
	train, test := dataset.StratifiedSplit(dataset.ApplyLabels(catalog), ratio, 42)
	if err := dataset.WriteScenario(dir, ratio, train, test); err != nil {
		t.Fatalf("WriteScenario: %v", err)
	}
}

func TestEvaluationKeyTracksPreparedSplits(t *testing.T) {
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Dataset.ProcessedDir = dir
	cfg.Dataset.Path = dir + "/no-such-catalog.csv"

	ratio := model.SplitRatio{Train: 70, Test: 30}
	scenarios := []model.SplitRatio{ratio}

	writeSplits(t, dir, ratio, scenarioCatalog("Alpha", 2_000_000))

	splits, fpA, err := chooseSplits(cfg, scenarios)
	if err != nil {
		t.Fatalf("chooseSplits: %v", err)
	}
	if _, ok := splits.(eval.FileSplits); !ok {
		t.Fatalf("expected file splits, got %T", splits)
	}
	keyA := evaluationKey(fpA, cfg.Weights, 5, scenarios)

	// Same files, same key.
	_, fpAgain, err := chooseSplits(cfg, scenarios)
	if err != nil {
		t.Fatalf("chooseSplits: %v", err)
	}
	if again := evaluationKey(fpAgain, cfg.Weights, 5, scenarios); again != keyA {
		t.Errorf("key changed without any data change: %s vs %s", keyA, again)
	}

	// Regenerating the splits from a different catalog must miss.
	writeSplits(t, dir, ratio, scenarioCatalog("Beta", 9_000_000))

	_, fpB, err := chooseSplits(cfg, scenarios)
	if err != nil {
		t.Fatalf("chooseSplits: %v", err)
	}
	if keyB := evaluationKey(fpB, cfg.Weights, 5, scenarios); keyB == keyA {
		t.Errorf("cache key unchanged after splits were regenerated from a different catalog: %s", keyA)
	}
}

func TestEvaluationKeyChangesWithParameters(t *testing.T) {
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Dataset.ProcessedDir = dir

	ratio := model.SplitRatio{Train: 70, Test: 30}
	scenarios := []model.SplitRatio{ratio}
	writeSplits(t, dir, ratio, scenarioCatalog("Alpha", 2_000_000))

	_, fp, err := chooseSplits(cfg, scenarios)
	if err != nil {
		t.Fatalf("chooseSplits: %v", err)
	}

	base := evaluationKey(fp, cfg.Weights, 5, scenarios)
	if k7 := evaluationKey(fp, cfg.Weights, 7, scenarios); k7 == base {
		t.Error("key did not change with k")
	}

	altWeights := cfg.Weights.Clone()
	altWeights[model.AttrPrice], altWeights[model.AttrCamera] = altWeights[model.AttrCamera], altWeights[model.AttrPrice]
	if w := evaluationKey(fp, altWeights, 5, scenarios); w == base {
		t.Error("key did not change with weights")
	}
}

func TestChooseSplitsFallsBackToCatalog(t *testing.T) {
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Dataset.ProcessedDir = dir + "/empty"
	cfg.Dataset.Path = dir + "/catalog.csv"

	catalog := scenarioCatalog("Gamma", 3_000_000)
	if err := dataset.NewCSVStore(cfg.Dataset.Path).WriteAll(catalog); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	scenarios := []model.SplitRatio{{Train: 70, Test: 30}}
	splits, fp, err := chooseSplits(cfg, scenarios)
	if err != nil {
		t.Fatalf("chooseSplits: %v", err)
	}
	if _, ok := splits.(eval.MemorySplits); !ok {
		t.Fatalf("expected memory splits, got %T", splits)
	}
	if len(fp) == 0 {
		t.Error("memory path returned an empty fingerprint")
	}
}
