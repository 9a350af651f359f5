package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Craigmindset/prevetta/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "prevetta",
	Short: "Prevetta - Advertising creative pre-vetting engine",
	Long: `Prevetta vets advertising creative assets (images, audio/video
transcripts, ad scripts) for compliance and brand safety.

It combines the outputs of several independent content classifiers -
a moderation model, a vision safety judge, and a generative compliance
analyst - into one conservative, auditable verdict per item: a score,
an approve/reject/needs-review status, a structured issue list, and
remediation recommendations.

Any flagged signal among the independent classifiers is sufficient to
reject; the absence of a classifier's opinion is never sufficient to
approve.`,
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
		fmt.Println("prevetta v0.1.2")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.prevetta/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.prevetta")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PREVETTA_*
	viper.SetEnvPrefix("PREVETTA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration:
// flags > PREVETTA_* env > config file > defaults.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if key := viper.GetString("openai.api_key"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if base := viper.GetString("openai.base_url"); base != "" {
		cfg.OpenAI.BaseURL = base
	}
	if m := viper.GetString("openai.moderation_model"); m != "" {
		cfg.OpenAI.ModerationModel = m
	}
	if m := viper.GetString("openai.vision_model"); m != "" {
		cfg.OpenAI.VisionModel = m
	}
	if m := viper.GetString("openai.analysis_model"); m != "" {
		cfg.OpenAI.AnalysisModel = m
	}
	if dir := viper.GetString("cache.dir"); dir != "" {
		cfg.Cache.Dir = dir
	}
	cfg.Output.Verbose = verbose

	return cfg
}

// requireAPIKey fails early with a clear message instead of surfacing auth
// errors from every classifier call.
func requireAPIKey(cfg *model.Config) error {
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}
