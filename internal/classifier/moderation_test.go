package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
)

func testConfig(baseURL string) model.OpenAIConfig {
	return model.OpenAIConfig{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		ModerationModel: "omni-moderation-latest",
		Timeout:         5 * time.Second,
		MaxRetries:      1,
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := retrySleep
	retrySleep = func(time.Duration) {}
	t.Cleanup(func() { retrySleep = orig })
}

func TestModerationClassifier_ClassifyText_Flagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("Expected path /moderations, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ModerationResponse{
			ID:    "modr-123",
			Model: "omni-moderation-latest",
			Results: []openai.Result{
				{
					Flagged: true,
					Categories: openai.ResultCategories{
						Sexual: true,
					},
					CategoryScores: openai.ResultCategoryScores{
						Sexual: 0.97,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	v := set.Moderation.ClassifyText(context.Background(), "some ad copy")

	if v.State != model.SignalOK {
		t.Fatalf("Expected ok state, got %s (%s)", v.State, v.FailureCode)
	}
	if !v.Flagged {
		t.Error("Expected flagged")
	}
	if !v.Categories["sexual"] {
		t.Error("Expected the sexual category set")
	}
	if v.CategoryScores["sexual"] < 0.9 {
		t.Errorf("Expected the sexual score carried through, got %v", v.CategoryScores["sexual"])
	}
}

func TestModerationClassifier_ClassifyText_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200, but a body the client cannot decode.
		_, _ = w.Write([]byte(`this is not json at all`))
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	v := set.Moderation.ClassifyText(context.Background(), "some ad copy")

	if v.State != model.SignalDegraded {
		t.Fatalf("Expected degraded state for unparseable response, got %s (%s)", v.State, v.FailureCode)
	}
	if v.FailureCode != model.CodeMalformed {
		t.Errorf("Expected malformed_response, got %s", v.FailureCode)
	}
}

func TestModerationClassifier_ClassifyText_QuotaExceeded(t *testing.T) {
	noSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit", "type": "requests"}}`))
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	v := set.Moderation.ClassifyText(context.Background(), "copy")

	if v.State != model.SignalFailed {
		t.Fatalf("Expected failed state, got %s", v.State)
	}
	if v.FailureCode != model.CodeQuota {
		t.Errorf("Expected quota_exceeded, got %s", v.FailureCode)
	}
}

func TestModerationClassifier_ClassifyText_AuthNotRetried(t *testing.T) {
	noSleep(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	set := NewSet(cfg)
	v := set.Moderation.ClassifyText(context.Background(), "copy")

	if v.FailureCode != model.CodeAuth {
		t.Errorf("Expected auth_failed, got %s", v.FailureCode)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected auth failure not to be retried, got %d calls", n)
	}
}

func TestModerationClassifier_ClassifyText_RetriesTransient(t *testing.T) {
	noSleep(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ModerationResponse{
			Results: []openai.Result{{Flagged: false}},
		})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	set := NewSet(cfg)
	v := set.Moderation.ClassifyText(context.Background(), "copy")

	if v.State != model.SignalOK {
		t.Fatalf("Expected retry to recover, got %s (%s)", v.State, v.FailureCode)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("Expected 2 calls, got %d", n)
	}
}

func TestModerationClassifier_ClassifyImage_Flagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("Expected path /moderations, got %s", r.URL.Path)
		}

		var req moderationAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Input) != 1 || req.Input[0].Type != "image_url" {
			t.Errorf("Expected one image_url input, got %+v", req.Input)
		}
		if req.Input[0].ImageURL == nil || req.Input[0].ImageURL.URL == "" {
			t.Error("Expected a data URL in the image input")
		}

		_, _ = w.Write([]byte(`{"results": [{"flagged": true, "categories": {"sexual": true}, "category_scores": {"sexual": 0.95}}]}`))
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	item := model.NewItem("banner.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47}, model.CampaignImage)
	v := set.Moderation.ClassifyImage(context.Background(), item)

	if v.State != model.SignalOK {
		t.Fatalf("Expected ok state, got %s (%s)", v.State, v.FailureCode)
	}
	if !v.Flagged || !v.Categories["sexual"] {
		t.Errorf("Expected flagged sexual category, got %+v", v)
	}
}

func TestModerationClassifier_ClassifyImage_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	item := model.NewItem("banner.png", "image/png", []byte("png"), model.CampaignImage)
	v := set.Moderation.ClassifyImage(context.Background(), item)

	if v.State != model.SignalDegraded {
		t.Fatalf("Expected degraded state for unparseable response, got %s", v.State)
	}
	if v.FailureCode != model.CodeMalformed {
		t.Errorf("Expected malformed_response, got %s", v.FailureCode)
	}
}

func TestModerationClassifier_ClassifyImage_ServerError(t *testing.T) {
	noSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	set := NewSet(testConfig(server.URL))
	item := model.NewItem("banner.png", "image/png", []byte("png"), model.CampaignImage)
	v := set.Moderation.ClassifyImage(context.Background(), item)

	if v.State != model.SignalFailed {
		t.Fatalf("Expected failed state, got %s", v.State)
	}
	if v.FailureCode != model.CodeQuota {
		t.Errorf("Expected quota_exceeded, got %s", v.FailureCode)
	}
}

func TestModerationClassifier_ClassifyText_Timeout(t *testing.T) {
	noSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(openai.ModerationResponse{Results: []openai.Result{{}}})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	set := NewSet(cfg)
	v := set.Moderation.ClassifyText(context.Background(), "copy")

	if v.State != model.SignalFailed {
		t.Fatalf("Expected failed state, got %s", v.State)
	}
	if v.FailureCode != model.CodeTimeout {
		t.Errorf("Expected timeout, got %s", v.FailureCode)
	}
}
