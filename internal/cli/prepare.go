package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/preprocess"
)

var prepareFlags struct {
	input     string
	outDir    string
	scenarios []string
	statsOnly bool
}

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Clean, label, and split the catalog",
	Long: `Prepare the catalog for recommendation and evaluation: impute
missing values, derive camera megapixels, assign category labels to
unlabeled cases, and write the stratified train/test splits each
evaluation scenario needs.

Outputs go to the processed directory: the labeled catalog, one
train/test CSV pair per scenario, and a stats.json summary.

Examples:
  recase prepare
  recase prepare --input raw_catalog.csv --out data/processed
  recase prepare --scenario 70-30 --scenario 60-40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		input := cfg.Dataset.Path
		if prepareFlags.input != "" {
			input = prepareFlags.input
		}
		outDir := cfg.Dataset.ProcessedDir
		if prepareFlags.outDir != "" {
			outDir = prepareFlags.outDir
		}
		scenarios := cfg.Evaluation.Scenarios
		if len(prepareFlags.scenarios) > 0 {
			scenarios = scenarios[:0:0]
			for _, s := range prepareFlags.scenarios {
				ratio, err := model.ParseSplitRatio(s)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, ratio)
			}
		}

		catalog, err := dataset.NewCSVStore(input).Load()
		if err != nil {
			return err
		}
		if len(catalog) == 0 {
			return fmt.Errorf("catalog %s is empty", input)
		}
		log.Info().Int("cases", len(catalog)).Str("input", input).Msg("catalog loaded")

		prepared := dataset.ApplyLabels(preprocess.Prepare(catalog))

		if prepareFlags.statsOnly {
			printStats(dataset.Summarize(prepared))
			return nil
		}

		labeledPath := filepath.Join(outDir, "catalog_labeled.csv")
		if err := dataset.NewCSVStore(labeledPath).WriteAll(prepared); err != nil {
			return err
		}

		for _, ratio := range scenarios {
			train, test := dataset.StratifiedSplit(prepared, ratio, cfg.Evaluation.Seed)
			if err := dataset.WriteScenario(outDir, ratio, train, test); err != nil {
				return err
			}
		}

		stats := dataset.Summarize(prepared)
		statsPath := filepath.Join(outDir, "stats.json")
		if err := dataset.WriteJSON(statsPath, stats); err != nil {
			return err
		}

		fmt.Printf("✓ Prepared %d cases\n", stats.Total)
		fmt.Printf("  Labeled catalog: %s\n", labeledPath)
		for _, ratio := range scenarios {
			fmt.Printf("  Split %s: %s\n", ratio.Name(), outDir)
		}
		fmt.Printf("  Stats: %s\n", statsPath)
		for _, label := range model.Labels() {
			fmt.Printf("    %-18s %d\n", label, stats.ByLabel[label])
		}
		return nil
	},
}

func printStats(st dataset.Stats) {
	fmt.Printf("Catalog: %d cases (%d in stock)\n", st.Total, st.InStock)
	fmt.Printf("Price:   %s - %s (mean %s)\n",
		model.GroupDigits(st.PriceMin), model.GroupDigits(st.PriceMax), model.GroupDigits(st.MeanPrice))
	fmt.Printf("Rating:  mean %.2f · Battery: mean %s mAh\n",
		st.MeanRating, model.GroupDigits(st.MeanBattery))

	fmt.Println("\nBy label:")
	for _, label := range model.Labels() {
		fmt.Printf("  %-18s %d\n", label, st.ByLabel[label])
	}

	brands := make([]string, 0, len(st.ByBrand))
	for b := range st.ByBrand {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	fmt.Println("\nBy brand:")
	for _, b := range brands {
		fmt.Printf("  %-18s %d\n", b, st.ByBrand[b])
	}
}

func init() {
	f := prepareCmd.Flags()
	f.StringVar(&prepareFlags.input, "input", "", "catalog CSV to prepare (default: dataset.path)")
	f.StringVar(&prepareFlags.outDir, "out", "", "output directory (default: dataset.processed_dir)")
	f.StringArrayVar(&prepareFlags.scenarios, "scenario", nil, "train-test scenario, e.g. 70-30 (repeatable)")
	f.BoolVar(&prepareFlags.statsOnly, "stats", false, "print catalog statistics without writing anything")

	rootCmd.AddCommand(prepareCmd)
}
