package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dwisetya/recase/internal/cache"
	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/eval"
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/report"
	"github.com/dwisetya/recase/internal/similarity"
)

var evaluateFlags struct {
	scenarios []string
	k         int
	format    string
	noCache   bool
}

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the similarity weights with k-NN",
	Long: `Classify held-out phones with a k-NN majority vote over stratified
train/test splits and report accuracy, weighted precision/recall/F1,
and per-scenario confusion matrices.

Splits prepared by 'recase prepare' are used when present; otherwise
the catalog is split on the fly with a fixed seed.

Examples:
  recase evaluate
  recase evaluate --scenario 70-30 --scenario 80-20 --k 7
  recase evaluate --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		scenarios := cfg.Evaluation.Scenarios
		if len(evaluateFlags.scenarios) > 0 {
			scenarios = scenarios[:0:0]
			for _, s := range evaluateFlags.scenarios {
				ratio, err := model.ParseSplitRatio(s)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, ratio)
			}
		}
		k := cfg.Evaluation.K
		if cmd.Flags().Changed("k") {
			k = evaluateFlags.k
		}

		calc, err := similarity.NewCalculator(cfg.Weights)
		if err != nil {
			return err
		}

		splits, fingerprint, err := chooseSplits(cfg, scenarios)
		if err != nil {
			return err
		}

		evaluator, err := eval.NewEvaluator(calc, splits, k, cfg.Concurrency)
		if err != nil {
			return err
		}

		var resultCache cache.Cache
		var cacheKey string
		if cfg.Cache.Enabled && cfg.Cache.Dir != "" && !evaluateFlags.noCache {
			resultCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, 24*time.Hour)
			cacheKey = evaluationKey(fingerprint, cfg.Weights, k, scenarios)
			if data, found := resultCache.Get(cacheKey); found {
				var cached model.EvaluationComparison
				if err := json.Unmarshal(data, &cached); err == nil {
					log.Debug().Str("key", cacheKey).Msg("evaluation cache hit")
					return renderEvaluation(cfg, &cached)
				}
			}
		}

		comparison, err := evaluator.EvaluateAll(cmd.Context(), scenarios)
		if err != nil {
			return err
		}

		if resultCache != nil {
			if data, err := json.Marshal(comparison); err == nil {
				_ = resultCache.Set(cacheKey, data, 24*time.Hour)
			}
		}

		return renderEvaluation(cfg, comparison)
	},
}

// chooseSplits prefers splits prepared on disk, falling back to an
// in-memory split of the loaded catalog. The fingerprint covers the
// actual split (or catalog) data, so the cache key misses whenever
// prepare regenerates the files or the catalog changes.
func chooseSplits(cfg *model.Config, scenarios []model.SplitRatio) (eval.SplitProvider, []byte, error) {
	files := eval.FileSplits{Dir: cfg.Dataset.ProcessedDir}
	if fingerprint, ok := splitFingerprint(files, scenarios); ok {
		log.Debug().Str("dir", cfg.Dataset.ProcessedDir).Msg("using prepared splits")
		return files, fingerprint, nil
	}

	store := dataset.NewCSVStore(cfg.Dataset.Path)
	catalog, err := store.Load()
	if err != nil {
		if errors.Is(err, dataset.ErrDataUnavailable) {
			return nil, nil, fmt.Errorf("no prepared splits in %s and no catalog at %s: %w",
				cfg.Dataset.ProcessedDir, cfg.Dataset.Path, err)
		}
		return nil, nil, err
	}
	catalogJSON, _ := json.Marshal(catalog)
	return eval.MemorySplits{Catalog: catalog, Seed: cfg.Evaluation.Seed}, catalogJSON, nil
}

// splitFingerprint serializes every scenario's prepared train/test
// data. Returns ok=false when any scenario file is missing, which
// sends the caller down the in-memory path.
func splitFingerprint(files eval.FileSplits, scenarios []model.SplitRatio) ([]byte, bool) {
	if len(scenarios) == 0 {
		return nil, false
	}
	var fingerprint []byte
	for _, ratio := range scenarios {
		train, test, err := files.Split(ratio)
		if err != nil {
			return nil, false
		}
		trainJSON, _ := json.Marshal(train)
		testJSON, _ := json.Marshal(test)
		fingerprint = append(fingerprint, trainJSON...)
		fingerprint = append(fingerprint, 0)
		fingerprint = append(fingerprint, testJSON...)
		fingerprint = append(fingerprint, 0)
	}
	return fingerprint, true
}

// evaluationKey keys a run on everything that affects its outcome,
// including the split data itself.
func evaluationKey(fingerprint []byte, weights model.Weights, k int, scenarios []model.SplitRatio) string {
	weightsJSON, _ := json.Marshal(weights)
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name()
	}
	params := fmt.Sprintf("k=%d;scenarios=%s", k, strings.Join(names, ","))
	return cache.Key(fingerprint, weightsJSON, []byte(params))
}

func renderEvaluation(cfg *model.Config, c *model.EvaluationComparison) error {
	renderer := report.NewRenderer(cfg.Output)
	switch strings.ToLower(evaluateFlags.format) {
	case "json":
		out, err := renderer.RenderJSON(c)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "md", "markdown":
		fmt.Print(renderer.RenderEvaluationMD(c))
	default:
		return fmt.Errorf("unknown format %q (want json or md)", evaluateFlags.format)
	}
	return nil
}

func init() {
	f := evaluateCmd.Flags()
	f.StringArrayVar(&evaluateFlags.scenarios, "scenario", nil, "train-test scenario, e.g. 70-30 (repeatable)")
	f.IntVar(&evaluateFlags.k, "k", 5, "number of neighbors for the k-NN vote")
	f.StringVar(&evaluateFlags.format, "format", "md", "output format: md or json")
	f.BoolVar(&evaluateFlags.noCache, "no-cache", false, "recompute even if a cached run exists")

	rootCmd.AddCommand(evaluateCmd)
}
