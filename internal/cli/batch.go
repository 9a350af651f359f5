package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/pipeline"
	"github.com/Craigmindset/prevetta/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchType    string
	batchScript  string
	batchMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Vet multiple creative files in parallel with progress reporting",
	Long: `Batch vets multiple files concurrently:
- Read file paths from the manifest (one per line; transcripts may follow
  the path after a tab character)
- Process items with a bounded worker count; one item's failure never
  halts the rest
- Report fractional progress as items complete
- Write one verdict report per item, in submission order

A manifest with zero files combined with --script vets the script content
as a single text item.

Example:
  prevetta batch assets.txt
  prevetta batch assets.txt --concurrency 8 --output-dir ./vetting-reports
  prevetta batch empty.txt --script "Buy now!" --type radio`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent item workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./prevetta-reports", "output directory for verdict reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchType, "type", "generic", "campaign type (design, radio, tv, image, generic)")
	batchCmd.Flags().StringVar(&batchScript, "script", "", "script content to vet when the manifest lists no files")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency

	campaign := model.ParseCampaignType(batchType)

	entries, err := readManifest(manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Prevetta Batch Vetting\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Manifest:     %s\n", manifest)
	fmt.Fprintf(os.Stderr, "  Files:        %d\n", len(entries))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	var items []model.Item
	for _, e := range entries {
		item, loadErr := loadItem(e.path, campaign, e.transcription)
		if loadErr != nil {
			// Unreadable files still occupy a batch slot so the caller can
			// correlate results to manifest entries positionally.
			item = model.NewItem(filepath.Base(e.path), "application/octet-stream", nil, campaign)
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", e.path, loadErr)
		}
		items = append(items, item)
	}

	items = worker.ScriptFallback(items, batchScript, campaign)
	if len(items) == 0 {
		return fmt.Errorf("manifest lists no files and no --script was provided")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.New(cfg)
	orch := worker.NewOrchestrator(p, concurrency, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "⚙️  [%d/%d] %.0f%%\n", completed, total, float64(completed)/float64(total)*100)
	})

	run := orch.RunBatch(ctx, items)

	renderer := pipeline.NewRenderer()
	successCount := 0
	failureCount := 0
	for i, result := range run.Results {
		if result.Verdict.Status == model.StatusError {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", result.FileName, result.Verdict.Summary)
		} else {
			successCount++
			fmt.Fprintf(os.Stderr, "✓ %s (%s, score %d/100)\n", result.FileName, result.Verdict.Status, result.Verdict.Score)
		}

		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.FileName))
		res := result
		if err := renderer.RenderJSON(&res, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.FileName, err)
		}
		if batchMD {
			if err := renderer.RenderMarkdown(&res, filepath.Join(outputDir, slug+".md")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.FileName, err)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d items\n", run.Total)
	fmt.Fprintf(os.Stderr, "  Vetted:    %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

type manifestEntry struct {
	path          string
	transcription string
}

// readManifest reads file paths from a manifest (one per line, optional
// tab-separated transcript). Empty lines and comments are skipped;
// duplicate paths are dropped.
func readManifest(path string) ([]manifestEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []manifestEntry
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := manifestEntry{path: line}
		if idx := strings.IndexByte(line, '\t'); idx >= 0 {
			entry.path = strings.TrimSpace(line[:idx])
			entry.transcription = strings.TrimSpace(line[idx+1:])
		}

		if !seen[entry.path] {
			seen[entry.path] = true
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return entries, nil
}
