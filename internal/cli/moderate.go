package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/normalize"
	"github.com/Craigmindset/prevetta/internal/pipeline"
)

var (
	moderateType       string
	moderateTranscript string
	transcriptFile     string
	autoTranscribe     bool
	moderateTimeout    time.Duration
	moderateJSONOut    string
	moderateMDOut      string
)

// moderateCmd represents the moderate command
var moderateCmd = &cobra.Command{
	Use:   "moderate <file>",
	Short: "Vet one creative file (image, audio, video) for compliance",
	Long: `Moderate runs one creative file through the vetting pipeline:
- Images pass through both the moderation classifier and the vision
  safety judge; either flagging is sufficient to reject.
- Audio/video requires a transcription; the transcript is moderated as
  text. With --auto-transcribe, audio is transcribed first.
- Files over the payload ceiling are rejected before any classifier runs.

Example:
  prevetta moderate --type image banner.png
  prevetta moderate --type radio spot.mp3 --transcription "buy now, limited offer"
  prevetta moderate --type radio spot.mp3 --auto-transcribe`,
	Args: cobra.ExactArgs(1),
	RunE: runModerate,
}

func init() {
	rootCmd.AddCommand(moderateCmd)

	moderateCmd.Flags().StringVar(&moderateType, "type", "generic", "campaign type (design, radio, tv, image, generic)")
	moderateCmd.Flags().StringVar(&moderateTranscript, "transcription", "", "reviewed transcript for audio/video files")
	moderateCmd.Flags().StringVar(&transcriptFile, "transcription-file", "", "file containing the reviewed transcript")
	moderateCmd.Flags().BoolVar(&autoTranscribe, "auto-transcribe", false, "transcribe audio via the transcription model before vetting")
	moderateCmd.Flags().DurationVar(&moderateTimeout, "timeout", 2*time.Minute, "overall moderation timeout")
	moderateCmd.Flags().StringVar(&moderateJSONOut, "json", "", "also write the full result JSON to this path")
	moderateCmd.Flags().StringVar(&moderateMDOut, "md", "", "also write a Markdown report to this path")
}

func runModerate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	transcription := moderateTranscript
	if transcription == "" && transcriptFile != "" {
		data, err := os.ReadFile(transcriptFile)
		if err != nil {
			return fmt.Errorf("read transcription file: %w", err)
		}
		transcription = strings.TrimSpace(string(data))
	}

	item, err := loadItem(args[0], model.ParseCampaignType(moderateType), transcription)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), moderateTimeout)
	defer cancel()

	p := pipeline.New(cfg)

	if autoTranscribe && transcription == "" && normalize.KindOf(item.ContentType) == model.MediaAudio {
		if verbose {
			fmt.Fprintf(os.Stderr, "Transcribing %s...\n", item.Name)
		}
		text, terr := p.Transcribe(ctx, item)
		if terr != nil {
			return fmt.Errorf("transcribe: %w", terr)
		}
		item.Transcription = text
	}

	result, err := p.VetItem(ctx, item)
	if err != nil {
		return fmt.Errorf("moderate %s: %w", item.Name, err)
	}

	if moderateJSONOut != "" || moderateMDOut != "" {
		renderer := pipeline.NewRenderer()
		if moderateJSONOut != "" {
			if err := renderer.RenderJSON(result, moderateJSONOut); err != nil {
				return err
			}
		}
		if moderateMDOut != "" {
			if err := renderer.RenderMarkdown(result, moderateMDOut); err != nil {
				return err
			}
		}
	}

	return printJSON(result)
}
