package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dwisetya/recase/internal/cbr"
	"github.com/dwisetya/recase/internal/dataset"
	"github.com/dwisetya/recase/internal/llm"
	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/report"
)

var recommendFlags struct {
	minPrice   float64
	maxPrice   float64
	ram        float64
	storage    float64
	screen     float64
	minBattery float64
	minRating  float64
	camera     string
	brands     []string
	os         string
	inStock    bool

	topK    int
	minSim  float64
	format  string
	summary bool
}

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend phones matching your preferences",
	Long: `Run the full recommendation cycle: retrieve the closest catalog
cases by weighted similarity, explain each match, and adjust the
ranking for brand and OS preferences.

Examples:
  recase recommend --max-price 8000000 --ram 8 --min-battery 5000
  recase recommend --max-price 15000000 --brand Samsung --brand Apple --in-stock
  recase recommend --ram 12 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("top-k") {
			cfg.Retrieval.TopK = recommendFlags.topK
		}
		if cmd.Flags().Changed("min-similarity") {
			cfg.Retrieval.MinSimilarity = recommendFlags.minSim
		}

		engine, err := newEngine(cfg, recommendFlags.summary)
		if err != nil {
			return err
		}

		query := model.Query{
			MinPrice:        recommendFlags.minPrice,
			MaxPrice:        recommendFlags.maxPrice,
			RAM:             recommendFlags.ram,
			Storage:         recommendFlags.storage,
			ScreenSize:      recommendFlags.screen,
			MinBattery:      recommendFlags.minBattery,
			MinRating:       recommendFlags.minRating,
			Camera:          recommendFlags.camera,
			PreferredBrands: recommendFlags.brands,
			PreferredOS:     recommendFlags.os,
			OnlyInStock:     recommendFlags.inStock,
		}

		resp, err := engine.Recommend(cmd.Context(), query, cfg.Retrieval.TopK, cfg.Retrieval.MinSimilarity)
		if err != nil {
			return err
		}

		renderer := report.NewRenderer(cfg.Output)
		switch strings.ToLower(recommendFlags.format) {
		case "json":
			out, err := renderer.RenderJSON(resp)
			if err != nil {
				return err
			}
			fmt.Println(out)
		case "md", "markdown":
			fmt.Print(renderer.RenderRecommendationsMD(resp))
		default:
			return fmt.Errorf("unknown format %q (want json or md)", recommendFlags.format)
		}
		return nil
	},
}

// newEngine builds and initializes the engine from configuration,
// optionally attaching the LLM summarizer.
func newEngine(cfg *model.Config, withSummary bool) (*cbr.Engine, error) {
	store := dataset.NewCSVStore(cfg.Dataset.Path)
	engine := cbr.New(cfg, store)
	if err := engine.LoadCaseBase(); err != nil {
		return nil, err
	}

	if withSummary && cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, err
		}
		if s := llm.NewSummarizer(provider); s != nil {
			engine.SetSummarizer(s)
		}
	} else if withSummary {
		log.Warn().Msg("--summary requested but no LLM provider configured")
	}

	return engine, nil
}

func init() {
	f := recommendCmd.Flags()
	f.Float64Var(&recommendFlags.minPrice, "min-price", 0, "minimum price")
	f.Float64Var(&recommendFlags.maxPrice, "max-price", 0, "maximum price (budget)")
	f.Float64Var(&recommendFlags.ram, "ram", 0, "desired RAM in GB")
	f.Float64Var(&recommendFlags.storage, "storage", 0, "desired storage in GB")
	f.Float64Var(&recommendFlags.screen, "screen", 0, "desired screen size in inches")
	f.Float64Var(&recommendFlags.minBattery, "min-battery", 0, "minimum battery capacity in mAh")
	f.Float64Var(&recommendFlags.minRating, "min-rating", 0, "minimum user rating")
	f.StringVar(&recommendFlags.camera, "camera", "", "desired camera, e.g. \"48MP\"")
	f.StringArrayVar(&recommendFlags.brands, "brand", nil, "preferred brand (repeatable)")
	f.StringVar(&recommendFlags.os, "os", "", "preferred operating system")
	f.BoolVar(&recommendFlags.inStock, "in-stock", false, "only phones in stock")

	f.IntVar(&recommendFlags.topK, "top-k", 10, "number of recommendations")
	f.Float64Var(&recommendFlags.minSim, "min-similarity", 0.3, "similarity threshold in [0,1]")
	f.StringVar(&recommendFlags.format, "format", "md", "output format: md or json")
	f.BoolVar(&recommendFlags.summary, "summary", false, "generate an LLM narrative summary")

	rootCmd.AddCommand(recommendCmd)
}
