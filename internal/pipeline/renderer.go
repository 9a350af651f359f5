package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Craigmindset/prevetta/internal/model"
)

// Renderer writes item results to report files for the batch CLI.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the full item result as indented JSON.
func (r *Renderer) RenderJSON(result *model.ItemResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable verdict summary.
func (r *Renderer) RenderMarkdown(result *model.ItemResult, path string) error {
	var b strings.Builder
	v := result.Verdict

	fmt.Fprintf(&b, "# Vetting Report: %s\n\n", result.FileName)
	fmt.Fprintf(&b, "- **Status**: %s\n", v.Status)
	fmt.Fprintf(&b, "- **Score**: %d/100\n", v.Score)
	fmt.Fprintf(&b, "- **Summary**: %s\n\n", v.Summary)

	if len(v.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, is := range v.Issues {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", is.Type, is.Severity, is.Message)
		}
		b.WriteString("\n")
	}

	if len(v.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range v.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if len(result.FailedSignals) > 0 {
		b.WriteString("## Unavailable Signals\n\n")
		sources := make([]string, 0, len(result.FailedSignals))
		for src := range result.FailedSignals {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Fprintf(&b, "- %s: %s\n", src, result.FailedSignals[src])
		}
		b.WriteString("\n")
	}

	if v.Transcription != "" {
		fmt.Fprintf(&b, "## Transcription\n\n%s\n", v.Transcription)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
