package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dwisetya/recase/internal/model"
	"github.com/dwisetya/recase/internal/similarity"
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect or try out attribute weights",
	Long: `Show the attribute weight table the similarity measure uses, or
validate an alternative table without touching the config file.

Weights are percentages over the seven canonical attributes and must
total 100 (±1). Zero weights are floored to 0.01 so no attribute ever
vanishes from the distance entirely.`,
}

var weightsYAML bool

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured weight table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if weightsYAML {
			data, err := yaml.Marshal(map[string]model.Weights{"weights": cfg.Weights})
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		}
		printWeights(cfg.Weights)
		return nil
	},
}

var weightsCheckCmd = &cobra.Command{
	Use:   "check attr=pct [attr=pct ...]",
	Short: "Validate an alternative weight table",
	Long: `Validate a weight table given as attr=pct pairs. Attributes left out
keep their configured value, so you can probe a single change:

  recase weights check price=40 camera=0

A valid table is printed back normalized; an invalid one reports why
it was rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		weights := cfg.Weights.Clone()
		for _, arg := range args {
			parts := strings.SplitN(arg, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("invalid weight %q (want attr=pct)", arg)
			}
			attr, ok := model.ResolveField(parts[0])
			if !ok {
				return fmt.Errorf("unknown attribute %q", parts[0])
			}
			pct, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return fmt.Errorf("invalid weight %q: %w", arg, err)
			}
			weights[attr] = pct
		}

		calc, err := similarity.NewCalculator(weights)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Weight table is valid (total %.1f%%)\n\n", weights.Total())
		printWeights(calc.Weights())
		return nil
	},
}

func printWeights(w model.Weights) {
	for _, attr := range model.Attributes() {
		fmt.Printf("  %-12s %6.2f%%\n", attr, w[attr])
	}
	fmt.Printf("  %-12s %6.2f%%\n", "total", w.Total())
}

func init() {
	weightsShowCmd.Flags().BoolVar(&weightsYAML, "yaml", false, "print as a YAML snippet ready for the config file")

	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsCheckCmd)
}
