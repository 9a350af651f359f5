package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Craigmindset/prevetta/internal/model"
)

// loadItem reads a local file into an immutable item, deriving the MIME
// type from the extension with a content sniff as fallback.
func loadItem(path string, campaign model.CampaignType, transcription string) (model.Item, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return model.Item{}, fmt.Errorf("read file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}

	item := model.NewItem(filepath.Base(path), contentType, payload, campaign)
	item.Transcription = transcription
	return item, nil
}

// sanitizeFilename sanitizes a string for use as a report filename.
func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		default:
			out = append(out, '_')
		}
	}
	s = string(out)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
