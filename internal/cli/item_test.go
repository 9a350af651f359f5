package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Craigmindset/prevetta/internal/model"
)

func TestLoadItem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	if err := os.WriteFile(path, []byte("ad copy"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	item, err := loadItem(path, model.CampaignRadio, "a transcript")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item.Name != "script.txt" {
		t.Errorf("Expected base name, got %s", item.Name)
	}
	if !strings.HasPrefix(item.ContentType, "text/plain") {
		t.Errorf("Expected text/plain content type, got %s", item.ContentType)
	}
	if item.Transcription != "a transcript" {
		t.Errorf("Expected transcription kept, got %q", item.Transcription)
	}
	if item.Size != 7 {
		t.Errorf("Expected size 7, got %d", item.Size)
	}
}

func TestLoadItem_MissingFile(t *testing.T) {
	if _, err := loadItem("/nonexistent/file.png", model.CampaignImage, ""); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"banner.png", "banner.png"},
		{"my ad spot.mp3", "my-ad-spot.mp3"},
		{"weird/../name?.png", "weird_.._name_.png"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}

	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.txt")
	content := strings.Join([]string{
		"# batch for the juice campaign",
		"",
		"assets/banner.png",
		"assets/spot.mp3\tbuy fresh juice today",
		"assets/banner.png", // duplicate, dropped
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	entries, err := readManifest(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].path != "assets/banner.png" || entries[0].transcription != "" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].path != "assets/spot.mp3" || entries[1].transcription != "buy fresh juice today" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestReadManifest_Missing(t *testing.T) {
	if _, err := readManifest("/nonexistent/manifest.txt"); err == nil {
		t.Error("Expected an error for a missing manifest")
	}
}
