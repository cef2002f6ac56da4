// Package cli wires the recase commands: recommend, evaluate,
// prepare, retain, weights, and config.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dwisetya/recase/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "recase",
	Short: "Recase - case-based phone recommendations",
	Long: `Recase recommends phones by comparing your preferences against a
catalog of known cases using weighted similarity.

It retrieves the closest matches, explains why each one fits, adjusts
the ranking for brand and OS preferences, and can retain new phones
into the catalog so future queries learn from them.

The same similarity measure is evaluated with a k-NN vote over
stratified train/test splits, so you can see how well the configured
weights separate the phone categories.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("recase v0.3.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.recase/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error().Err(err).Msg("finding home directory")
			return
		}
		viper.AddConfigPath(home + "/.recase")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables matching RECASE_* override the file,
	// e.g. RECASE_DATASET_PATH, RECASE_RETRIEVAL_TOP_K.
	viper.SetEnvPrefix("RECASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("config file loaded")
	}
}

// loadConfig materializes the effective configuration: defaults,
// overlaid by the config file and RECASE_* environment variables.
// API keys come from the conventional provider variables only.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && strings.ToLower(cfg.LLM.Provider) == "ollama" {
		cfg.LLM.BaseURL = base
	}

	return cfg, nil
}
