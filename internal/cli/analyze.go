package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/pipeline"
)

var (
	analyzeType    string
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Vet ad script content for compliance",
	Long: `Analyze runs free-form script content (design descriptions, radio
and TV copy) through the generative compliance analyst and the moderation
classifier, fusing both into one verdict.

Reads from the file argument, or from stdin when no argument (or "-") is
given.

Example:
  prevetta analyze --type radio spot.txt
  cat script.txt | prevetta analyze --type tv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeType, "type", "generic", "campaign type (design, radio, tv, image, generic)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	content, err := readScript(args)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	p := pipeline.New(cfg)
	result, err := p.AnalyzeScript(ctx, content, model.ParseCampaignType(analyzeType))
	if err != nil {
		return fmt.Errorf("analyze script: %w", err)
	}

	return printJSON(result.Verdict)
}

func readScript(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
